// Package payment provides the channels through which fees and prices are
// collected. The ledger only sees the Channel interface; Native settles in
// value that accompanies the call, TokenChannel pulls a fungible token from
// a pre-approved allowance.
package payment

import (
	"context"
	"errors"
	"time"

	"github.com/xraph/provenance/id"
	"github.com/xraph/provenance/types"
)

// Sentinel errors returned by channels, tokens and sales.
var (
	ErrUnderpaid             = errors.New("payment: offered amount is below the amount due")
	ErrInsufficientFunds     = errors.New("payment: insufficient funds")
	ErrInsufficientAllowance = errors.New("payment: insufficient allowance")
	ErrDenominationMismatch  = errors.New("payment: denomination mismatch")
	ErrInvalidAmount         = errors.New("payment: amount must not be negative")
	ErrUnknownReceipt        = errors.New("payment: unknown, refunded or settled receipt")
	ErrSaleEnded             = errors.New("payment: sale has ended")
	ErrIncorrectValue        = errors.New("payment: value does not match token price")
	ErrNotOwner              = errors.New("payment: caller is not the owner")
)

// Channel collects payments into holding accounts and reverses them when
// the operation they paid for cannot complete.
type Channel interface {
	// Name identifies the channel in logs and receipts.
	Name() string
	// Denomination is the currency code every amount must carry.
	Denomination() string
	// Collect moves value from payer to payee. offered is what the caller
	// attached to the call and due is the amount the operation requires.
	Collect(ctx context.Context, payer, payee id.ID, offered, due types.Money) (*Receipt, error)
	// Refund reverses a receipt returned by Collect. A receipt can be
	// refunded once, and only until it is settled.
	Refund(ctx context.Context, r *Receipt) error
	// Settle ends the refund window of a receipt once the operation it
	// paid for has committed. The channel forgets the receipt.
	Settle(ctx context.Context, r *Receipt) error
}

// Receipt records a collected payment.
type Receipt struct {
	ID          id.ReceiptID `json:"id"`
	Channel     string       `json:"channel"`
	Payer       id.ID        `json:"payer"`
	Payee       id.ID        `json:"payee"`
	Amount      types.Money  `json:"amount"`
	CollectedAt time.Time    `json:"collected_at"`
}

func newReceipt(channel string, payer, payee id.ID, amount types.Money) *Receipt {
	return &Receipt{
		ID:          id.NewReceiptID(),
		Channel:     channel,
		Payer:       payer,
		Payee:       payee,
		Amount:      amount,
		CollectedAt: time.Now().UTC(),
	}
}

func checkDenomination(denom string, amounts ...types.Money) error {
	for _, m := range amounts {
		if m.Currency != denom {
			return ErrDenominationMismatch
		}
		if m.IsNegative() {
			return ErrInvalidAmount
		}
	}
	return nil
}
