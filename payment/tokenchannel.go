package payment

import (
	"context"
	"fmt"
	"sync"

	"github.com/xraph/provenance/id"
	"github.com/xraph/provenance/types"
)

var _ Channel = (*TokenChannel)(nil)

// TokenChannel collects payments in a fungible token. The payer must have
// approved the payee for at least the amount due; exactly that amount is
// pulled and the offered value is ignored.
type TokenChannel struct {
	token *Token

	mu       sync.Mutex
	receipts map[string]*Receipt
}

// NewTokenChannel creates a channel over token.
func NewTokenChannel(token *Token) *TokenChannel {
	return &TokenChannel{
		token:    token,
		receipts: make(map[string]*Receipt),
	}
}

func (c *TokenChannel) Name() string { return "token:" + c.token.Denomination() }

func (c *TokenChannel) Denomination() string { return c.token.Denomination() }

// Token returns the underlying token.
func (c *TokenChannel) Token() *Token { return c.token }

func (c *TokenChannel) Collect(_ context.Context, payer, payee id.ID, _, due types.Money) (*Receipt, error) {
	if err := checkDenomination(c.Denomination(), due); err != nil {
		return nil, err
	}
	if err := c.token.TransferFrom(payee, payer, payee, due.Amount); err != nil {
		return nil, err
	}

	r := newReceipt(c.Name(), payer, payee, due)
	c.mu.Lock()
	c.receipts[r.ID.String()] = r
	c.mu.Unlock()
	return r, nil
}

func (c *TokenChannel) Refund(_ context.Context, r *Receipt) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.receipts[r.ID.String()]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownReceipt, r.ID)
	}
	if err := c.token.Transfer(r.Payee, r.Payer, r.Amount.Amount); err != nil {
		return err
	}
	delete(c.receipts, r.ID.String())
	return nil
}

func (c *TokenChannel) Settle(_ context.Context, r *Receipt) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.receipts[r.ID.String()]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownReceipt, r.ID)
	}
	delete(c.receipts, r.ID.String())
	return nil
}

// Outstanding returns the number of receipts that can still be refunded.
func (c *TokenChannel) Outstanding() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.receipts)
}
