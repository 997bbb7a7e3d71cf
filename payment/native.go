package payment

import (
	"context"
	"fmt"
	"sync"

	"github.com/xraph/provenance/id"
	"github.com/xraph/provenance/types"
)

var _ Channel = (*Native)(nil)

// Native settles in the native currency that accompanies a call. Each
// account has a wallet; Collect moves the whole offered value to the payee,
// so overpayment is retained.
type Native struct {
	mu       sync.Mutex
	wallets  map[string]int64
	receipts map[string]*Receipt
}

// NewNative creates a native channel with empty wallets.
func NewNative() *Native {
	return &Native{
		wallets:  make(map[string]int64),
		receipts: make(map[string]*Receipt),
	}
}

func (n *Native) Name() string { return "native" }

func (n *Native) Denomination() string { return types.NativeCurrency }

// Fund credits an account's wallet.
func (n *Native) Fund(account id.ID, amount types.Money) error {
	if err := checkDenomination(types.NativeCurrency, amount); err != nil {
		return err
	}
	n.mu.Lock()
	defer n.mu.Unlock()

	n.wallets[account.String()] += amount.Amount
	return nil
}

// Balance returns the wallet balance of an account.
func (n *Native) Balance(account id.ID) types.Money {
	n.mu.Lock()
	defer n.mu.Unlock()

	return types.Native(n.wallets[account.String()])
}

// Transfer moves value between two wallets.
func (n *Native) Transfer(from, to id.ID, amount types.Money) error {
	if err := checkDenomination(types.NativeCurrency, amount); err != nil {
		return err
	}
	n.mu.Lock()
	defer n.mu.Unlock()

	return n.moveLocked(from, to, amount.Amount)
}

func (n *Native) Collect(_ context.Context, payer, payee id.ID, offered, due types.Money) (*Receipt, error) {
	if err := checkDenomination(types.NativeCurrency, offered, due); err != nil {
		return nil, err
	}
	if offered.LessThan(due) {
		return nil, fmt.Errorf("%w: offered %s, due %s", ErrUnderpaid, offered, due)
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if err := n.moveLocked(payer, payee, offered.Amount); err != nil {
		return nil, err
	}
	r := newReceipt(n.Name(), payer, payee, offered)
	n.receipts[r.ID.String()] = r
	return r, nil
}

func (n *Native) Refund(_ context.Context, r *Receipt) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, ok := n.receipts[r.ID.String()]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownReceipt, r.ID)
	}
	if err := n.moveLocked(r.Payee, r.Payer, r.Amount.Amount); err != nil {
		return err
	}
	delete(n.receipts, r.ID.String())
	return nil
}

func (n *Native) Settle(_ context.Context, r *Receipt) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, ok := n.receipts[r.ID.String()]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownReceipt, r.ID)
	}
	delete(n.receipts, r.ID.String())
	return nil
}

// Outstanding returns the number of receipts that can still be refunded.
func (n *Native) Outstanding() int {
	n.mu.Lock()
	defer n.mu.Unlock()

	return len(n.receipts)
}

// moveLocked transfers amount between wallets. Callers hold mu.
func (n *Native) moveLocked(from, to id.ID, amount int64) error {
	if n.wallets[from.String()] < amount {
		return fmt.Errorf("%w: %s holds %s", ErrInsufficientFunds, from, types.Native(n.wallets[from.String()]))
	}
	n.wallets[from.String()] -= amount
	n.wallets[to.String()] += amount
	return nil
}
