// Package provenance provides a stock ledger that tracks products from the
// producer who registers them to the retail store that sells them.
//
// Provenance is designed as a library, not a service. Import it into your Go
// application and back it with one of the stores under store/. It provides:
//
//   - A producer registry with a paid enrollment
//   - A product catalog with sequential product ids
//   - An escrow deposit per product, bounded by a configurable capacity
//   - Retail store ledgers that receive stock from escrow and sell single units
//   - Pluggable payment channels (native value or an allowance-based token)
//   - Lifecycle hooks for audit trails and metrics
//
// # Quick Start
//
// Create an engine with your preferred store and an administrator:
//
//	import (
//	    "github.com/xraph/provenance"
//	    "github.com/xraph/provenance/store/memory"
//	)
//
//	e := provenance.New(memory.New(), provenance.WithAdmin(admin))
//	if err := e.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer e.Stop()
//
// Every operation acts on behalf of the account carried by the context:
//
//	ctx = provenance.WithCaller(ctx, producerAccount)
//
// # Core Concepts
//
// Producers enroll by paying the enrollment fee, then register products:
//
//	_, err := e.Enroll(ctx, "Acme Farms", provenance.Native(100))
//	pid, err := e.Register(ctx, "Olive oil", "cold pressed", 750)
//
// Stock is deposited into escrow for a per-unit fee, and the producer
// authorizes the one store allowed to pull it:
//
//	rec, err := e.Deposit(ctx, pid, 100, provenance.Native(100))
//	_, err = e.AuthorizeStore(ctx, storeID)
//
// The store owner prices the store, receives stock from escrow and sells
// units one at a time:
//
//	_ = e.SetPricePerUnit(ownerCtx, storeID, provenance.Native(10))
//	shelf, err := e.ReceiveFromDeposit(ownerCtx, storeID, pid, 40)
//	sale, err := e.Buy(buyerCtx, storeID, pid, provenance.Native(10))
//
// A unit is authentic at a store when its product is registered and the
// store received it from escrow:
//
//	ok, err := e.IsAuthentic(ctx, storeID, pid)
//
// # Consistency
//
// Operations are applied one at a time by a single sequencer goroutine, so
// every call observes the effects of all calls accepted before it. Across
// escrow and all shelves of a product, units deposited always equal units
// in escrow plus units withdrawn plus units on shelves plus units sold.
// Payments are collected before stock moves; if the stock change fails the
// payment is refunded.
//
// Amounts are integers in the smallest unit of their denomination (wei for
// the native currency). The Money type formats them with
// github.com/shopspring/decimal.
//
// # Integration
//
// The extension package registers the engine with a Forge application and
// resolves a Grove database for the PostgreSQL, SQLite or MongoDB store.
// The audit_hook and observability packages are ready-made plugins.
//
// # TypeID
//
// Accounts, stores, receipts and sales use TypeID identifiers:
//
//	acct_01h2xcejqtf2nbrexx3vqjhp41  // Account
//	shop_01h2xcejqtf2nbrexx3vqjhp41  // Retail store
//	rcpt_01h455vb4pex5vsknk084sn02q  // Payment receipt
//
// Products carry sequential integer ids starting at 1.
package provenance
