// Package plugin provides the notification hooks of the provenance engine.
// A plugin implements Plugin plus any subset of the hook interfaces below;
// the registry discovers which ones at registration time.
package plugin

import (
	"context"

	"github.com/xraph/provenance/deposit"
	"github.com/xraph/provenance/id"
	"github.com/xraph/provenance/payment"
	"github.com/xraph/provenance/producer"
	"github.com/xraph/provenance/product"
	"github.com/xraph/provenance/retail"
	"github.com/xraph/provenance/settings"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called once the engine has started. engine is the
// *provenance.Engine.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, engine any) error
}

// OnShutdown is called when the engine stops.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Registry and catalog hooks
// ──────────────────────────────────────────────────

// OnProducerEnrolled is called after a producer paid the enrollment fee.
type OnProducerEnrolled interface {
	Plugin
	OnProducerEnrolled(ctx context.Context, p *producer.Producer) error
}

// OnProductRegistered is called after a product entered the catalog.
type OnProductRegistered interface {
	Plugin
	OnProductRegistered(ctx context.Context, p *product.Product) error
}

// OnPaymentReceived is called for every payment retained by a holding
// account: enrollment fees, deposit fees and retail sales.
type OnPaymentReceived interface {
	Plugin
	OnPaymentReceived(ctx context.Context, r *payment.Receipt) error
}

// ──────────────────────────────────────────────────
// Stock hooks
// ──────────────────────────────────────────────────

// OnStockDeposited is called after quantity units entered escrow.
type OnStockDeposited interface {
	Plugin
	OnStockDeposited(ctx context.Context, rec *deposit.Record, quantity int64) error
}

// OnStockWithdrawn is called after the producer took quantity units out of
// escrow.
type OnStockWithdrawn interface {
	Plugin
	OnStockWithdrawn(ctx context.Context, rec *deposit.Record, quantity int64) error
}

// OnStockTransferred is called after quantity units moved from escrow to a
// store shelf.
type OnStockTransferred interface {
	Plugin
	OnStockTransferred(ctx context.Context, shelf *retail.Shelf, quantity int64) error
}

// ──────────────────────────────────────────────────
// Retail hooks
// ──────────────────────────────────────────────────

// OnStoreOpened is called after a retail store was created.
type OnStoreOpened interface {
	Plugin
	OnStoreOpened(ctx context.Context, s *retail.Store) error
}

// OnStoreAuthorized is called after a producer authorized a store.
type OnStoreAuthorized interface {
	Plugin
	OnStoreAuthorized(ctx context.Context, a *deposit.Authorization) error
}

// OnUnitSold is called after a store sold one unit.
type OnUnitSold interface {
	Plugin
	OnUnitSold(ctx context.Context, sale *retail.Sale) error
}

// ──────────────────────────────────────────────────
// Administration hooks
// ──────────────────────────────────────────────────

// OnSettingsChanged is called after the administrator changed a setting.
// field names the setting: "enrollment_fee", "deposit_fee_per_unit",
// "max_stock" or "admin".
type OnSettingsChanged interface {
	Plugin
	OnSettingsChanged(ctx context.Context, s *settings.Settings, field string, by id.AccountID) error
}
