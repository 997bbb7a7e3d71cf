package payment

import (
	"context"
	"fmt"
	"sync"

	"github.com/xraph/provenance/id"
	"github.com/xraph/provenance/types"
)

// Sale sells a token at a fixed native price. Tokens are pulled from the
// owner's allowance to the sale account; the native value collected stays
// in the sale account until EndSale.
type Sale struct {
	token   *Token
	native  *Native
	price   types.Money
	owner   id.AccountID
	account id.AccountID

	mu    sync.Mutex
	ended bool
	sold  int64
}

// NewSale opens a token sale owned by owner. Tokens sell at price each,
// which must be in the native currency.
func NewSale(token *Token, native *Native, owner id.AccountID, price types.Money) (*Sale, error) {
	if err := checkDenomination(types.NativeCurrency, price); err != nil {
		return nil, err
	}
	return &Sale{
		token:   token,
		native:  native,
		price:   price,
		owner:   owner,
		account: id.NewAccountID(),
	}, nil
}

// Account is the identity the owner approves to sell on their behalf.
func (s *Sale) Account() id.AccountID { return s.account }

func (s *Sale) Price() types.Money { return s.price }

// Sold returns the number of tokens sold so far.
func (s *Sale) Sold() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sold
}

// BuyTokens sells units tokens to buyer. value must equal units times the
// price; it is collected from the buyer's native wallet.
func (s *Sale) BuyTokens(ctx context.Context, buyer id.AccountID, units int64, value types.Money) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ended {
		return ErrSaleEnded
	}
	if units <= 0 {
		return ErrInvalidAmount
	}
	due, ok := s.price.MultiplyChecked(units)
	if !ok || !value.Equal(due) {
		return fmt.Errorf("%w: %d tokens cost %s, got %s", ErrIncorrectValue, units, due, value)
	}

	r, err := s.native.Collect(ctx, buyer, s.account, value, due)
	if err != nil {
		return err
	}
	if err := s.token.TransferFrom(s.account, s.owner, buyer, units); err != nil {
		if rerr := s.native.Refund(ctx, r); rerr != nil {
			return fmt.Errorf("%w (refund failed: %w)", err, rerr)
		}
		return err
	}
	s.sold += units
	return nil
}

// EndSale closes the sale and returns the sale account's tokens and
// collected value to the owner.
func (s *Sale) EndSale(caller id.AccountID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !caller.Equal(s.owner) {
		return ErrNotOwner
	}
	if s.ended {
		return ErrSaleEnded
	}
	if left := s.token.BalanceOf(s.account); left.IsPositive() {
		if err := s.token.Transfer(s.account, s.owner, left.Amount); err != nil {
			return err
		}
	}
	if proceeds := s.native.Balance(s.account); proceeds.IsPositive() {
		if err := s.native.Transfer(s.account, s.owner, proceeds); err != nil {
			return err
		}
	}
	s.ended = true
	return nil
}
