package payment

import (
	"fmt"
	"strings"
	"sync"

	"github.com/xraph/provenance/id"
	"github.com/xraph/provenance/types"
)

// Token is a fungible token with balances and allowances. The whole supply
// is minted to the owner at construction.
type Token struct {
	name   string
	symbol string
	supply int64

	mu         sync.Mutex
	balances   map[string]int64
	allowances map[string]map[string]int64
}

// NewToken mints supply units of a token to owner.
func NewToken(name, symbol string, owner id.AccountID, supply int64) *Token {
	t := &Token{
		name:       name,
		symbol:     symbol,
		supply:     supply,
		balances:   map[string]int64{owner.String(): supply},
		allowances: make(map[string]map[string]int64),
	}
	return t
}

func (t *Token) Name() string { return t.name }

func (t *Token) Symbol() string { return t.symbol }

// Denomination is the lowercase currency code used by types.Money.
func (t *Token) Denomination() string { return strings.ToLower(t.symbol) }

func (t *Token) TotalSupply() types.Money { return types.Token(t.symbol, t.supply) }

func (t *Token) BalanceOf(account id.ID) types.Money {
	t.mu.Lock()
	defer t.mu.Unlock()

	return types.Token(t.symbol, t.balances[account.String()])
}

func (t *Token) Allowance(owner, spender id.ID) types.Money {
	t.mu.Lock()
	defer t.mu.Unlock()

	return types.Token(t.symbol, t.allowances[owner.String()][spender.String()])
}

// Transfer moves units from the caller's balance.
func (t *Token) Transfer(from, to id.ID, units int64) error {
	if units < 0 {
		return ErrInvalidAmount
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.moveLocked(from, to, units)
}

// Approve sets the number of units spender may pull from owner. It
// replaces any previous allowance.
func (t *Token) Approve(owner, spender id.ID, units int64) error {
	if units < 0 {
		return ErrInvalidAmount
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.allowances[owner.String()] == nil {
		t.allowances[owner.String()] = make(map[string]int64)
	}
	t.allowances[owner.String()][spender.String()] = units
	return nil
}

// TransferFrom moves units from one account to another using the spender's
// allowance.
func (t *Token) TransferFrom(spender, from, to id.ID, units int64) error {
	if units < 0 {
		return ErrInvalidAmount
	}
	if units == 0 {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	allowed := t.allowances[from.String()][spender.String()]
	if allowed < units {
		return fmt.Errorf("%w: %s may pull %d %s from %s", ErrInsufficientAllowance, spender, allowed, t.symbol, from)
	}
	if err := t.moveLocked(from, to, units); err != nil {
		return err
	}
	t.allowances[from.String()][spender.String()] = allowed - units
	return nil
}

// moveLocked transfers units between balances. Callers hold mu.
func (t *Token) moveLocked(from, to id.ID, units int64) error {
	if t.balances[from.String()] < units {
		return fmt.Errorf("%w: %s holds %d %s", ErrInsufficientFunds, from, t.balances[from.String()], t.symbol)
	}
	t.balances[from.String()] -= units
	t.balances[to.String()] += units
	return nil
}
