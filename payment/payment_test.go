package payment_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/provenance/id"
	"github.com/xraph/provenance/payment"
	"github.com/xraph/provenance/types"
)

const (
	initialSupply = 1_000_000
	tokenPrice    = 100
	sampleTokens  = 100
)

func TestNativeCollectRetainsOverpayment(t *testing.T) {
	ctx := context.Background()
	ch := payment.NewNative()
	payer, payee := id.NewAccountID(), id.NewAccountID()
	require.NoError(t, ch.Fund(payer, types.Native(1000)))

	r, err := ch.Collect(ctx, payer, payee, types.Native(102), types.Native(100))
	require.NoError(t, err)
	assert.Equal(t, types.Native(102), r.Amount)
	assert.Equal(t, types.Native(898), ch.Balance(payer))
	assert.Equal(t, types.Native(102), ch.Balance(payee))
}

func TestNativeCollectFailures(t *testing.T) {
	ctx := context.Background()
	ch := payment.NewNative()
	payer, payee := id.NewAccountID(), id.NewAccountID()
	require.NoError(t, ch.Fund(payer, types.Native(50)))

	tests := []struct {
		name    string
		offered types.Money
		due     types.Money
		want    error
	}{
		{"underpaid", types.Native(99), types.Native(100), payment.ErrUnderpaid},
		{"wallet too small", types.Native(51), types.Native(10), payment.ErrInsufficientFunds},
		{"wrong denomination", types.Token("tok", 10), types.Native(10), payment.ErrDenominationMismatch},
		{"negative", types.Native(-1), types.Native(-2), payment.ErrInvalidAmount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ch.Collect(ctx, payer, payee, tt.offered, tt.due)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, types.Native(50), ch.Balance(payer))
		})
	}
}

func TestNativeRefundOnce(t *testing.T) {
	ctx := context.Background()
	ch := payment.NewNative()
	payer, payee := id.NewAccountID(), id.NewAccountID()
	require.NoError(t, ch.Fund(payer, types.Native(200)))

	r, err := ch.Collect(ctx, payer, payee, types.Native(200), types.Native(100))
	require.NoError(t, err)
	require.NoError(t, ch.Refund(ctx, r))
	assert.Equal(t, types.Native(200), ch.Balance(payer))
	assert.True(t, ch.Balance(payee).IsZero())

	assert.ErrorIs(t, ch.Refund(ctx, r), payment.ErrUnknownReceipt)
}

func TestNativeSettleClosesRefundWindow(t *testing.T) {
	ctx := context.Background()
	ch := payment.NewNative()
	payer, payee := id.NewAccountID(), id.NewAccountID()
	require.NoError(t, ch.Fund(payer, types.Native(300)))

	for range 3 {
		r, err := ch.Collect(ctx, payer, payee, types.Native(100), types.Native(100))
		require.NoError(t, err)
		require.NoError(t, ch.Settle(ctx, r))

		assert.ErrorIs(t, ch.Refund(ctx, r), payment.ErrUnknownReceipt)
		assert.ErrorIs(t, ch.Settle(ctx, r), payment.ErrUnknownReceipt)
	}
	assert.Zero(t, ch.Outstanding())
	assert.Equal(t, types.Native(300), ch.Balance(payee))
}

func newSampleToken(t *testing.T) (*payment.Token, id.AccountID) {
	t.Helper()
	owner := id.NewAccountID()
	return payment.NewToken("Sample Token", "TOK", owner, initialSupply), owner
}

func TestTokenMetadata(t *testing.T) {
	tok, owner := newSampleToken(t)
	assert.Equal(t, "Sample Token", tok.Name())
	assert.Equal(t, "TOK", tok.Symbol())
	assert.Equal(t, types.Token("TOK", initialSupply), tok.TotalSupply())
	assert.Equal(t, types.Token("TOK", initialSupply), tok.BalanceOf(owner))
}

func TestTokenTransfer(t *testing.T) {
	tok, owner := newSampleToken(t)
	a1, a2 := id.NewAccountID(), id.NewAccountID()

	require.NoError(t, tok.Transfer(owner, a1, sampleTokens))
	assert.Equal(t, int64(sampleTokens), tok.BalanceOf(a1).Amount)

	err := tok.Transfer(a1, a2, sampleTokens+1)
	assert.ErrorIs(t, err, payment.ErrInsufficientFunds)
	assert.Equal(t, int64(sampleTokens), tok.BalanceOf(a1).Amount)
}

func TestTokenAllowance(t *testing.T) {
	tok, owner := newSampleToken(t)
	a1, a2 := id.NewAccountID(), id.NewAccountID()

	require.NoError(t, tok.Approve(owner, a1, sampleTokens))
	assert.Equal(t, int64(sampleTokens), tok.Allowance(owner, a1).Amount)

	assert.ErrorIs(t, tok.TransferFrom(a1, owner, a2, sampleTokens+1), payment.ErrInsufficientAllowance)
	require.NoError(t, tok.TransferFrom(a1, owner, a2, sampleTokens))
	assert.Equal(t, int64(sampleTokens), tok.BalanceOf(a2).Amount)
	assert.True(t, tok.Allowance(owner, a1).IsZero())

	// No allowance from a1 to anyone.
	assert.ErrorIs(t, tok.TransferFrom(owner, a1, a2, sampleTokens), payment.ErrInsufficientAllowance)
}

func TestTokenZeroTransferFromWithoutAllowance(t *testing.T) {
	tok, _ := newSampleToken(t)
	spender, from, to := id.NewAccountID(), id.NewAccountID(), id.NewAccountID()

	require.NoError(t, tok.TransferFrom(spender, from, to, 0))
	assert.True(t, tok.BalanceOf(to).IsZero())
	assert.True(t, tok.Allowance(from, spender).IsZero())
}

func TestTokenChannelCollectsZeroWithoutApproval(t *testing.T) {
	ctx := context.Background()
	tok, _ := newSampleToken(t)
	ch := payment.NewTokenChannel(tok)
	payer, payee := id.NewAccountID(), id.NewAccountID()

	r, err := ch.Collect(ctx, payer, payee, types.Token("tok", 0), types.Token("tok", 0))
	require.NoError(t, err)
	assert.True(t, r.Amount.IsZero())

	require.NoError(t, ch.Settle(ctx, r))
	assert.Zero(t, ch.Outstanding())
}

func TestTokenChannelPullsExactlyDue(t *testing.T) {
	ctx := context.Background()
	tok, owner := newSampleToken(t)
	ch := payment.NewTokenChannel(tok)
	payee := id.NewAccountID()

	_, err := ch.Collect(ctx, owner, payee, types.Token("tok", 0), types.Token("tok", 100))
	require.ErrorIs(t, err, payment.ErrInsufficientAllowance)

	require.NoError(t, tok.Approve(owner, payee, 150))
	r, err := ch.Collect(ctx, owner, payee, types.Token("tok", 0), types.Token("tok", 100))
	require.NoError(t, err)
	assert.Equal(t, types.Token("tok", 100), r.Amount)
	assert.Equal(t, int64(100), tok.BalanceOf(payee).Amount)
	assert.Equal(t, int64(50), tok.Allowance(owner, payee).Amount)

	require.NoError(t, ch.Refund(ctx, r))
	assert.True(t, tok.BalanceOf(payee).IsZero())
	assert.Equal(t, types.Token("tok", initialSupply), tok.BalanceOf(owner))
}

func newSale(t *testing.T) (*payment.Sale, *payment.Token, *payment.Native, id.AccountID) {
	t.Helper()
	tok, owner := newSampleToken(t)
	native := payment.NewNative()
	sale, err := payment.NewSale(tok, native, owner, types.Native(tokenPrice))
	require.NoError(t, err)
	return sale, tok, native, owner
}

func TestSaleBuyTokens(t *testing.T) {
	ctx := context.Background()
	sale, tok, native, owner := newSale(t)
	buyer := id.NewAccountID()
	require.NoError(t, native.Fund(buyer, types.Native(sampleTokens*tokenPrice)))
	require.NoError(t, tok.Approve(owner, sale.Account(), sampleTokens))

	require.NoError(t, sale.BuyTokens(ctx, buyer, sampleTokens, types.Native(sampleTokens*tokenPrice)))
	assert.Equal(t, int64(sampleTokens), tok.BalanceOf(buyer).Amount)
	assert.Equal(t, int64(sampleTokens), sale.Sold())
	assert.Equal(t, types.Native(sampleTokens*tokenPrice), native.Balance(sale.Account()))
}

func TestSaleRejectsIncorrectValue(t *testing.T) {
	ctx := context.Background()
	sale, tok, native, owner := newSale(t)
	buyer := id.NewAccountID()
	require.NoError(t, native.Fund(buyer, types.Native(sampleTokens*tokenPrice)))
	require.NoError(t, tok.Approve(owner, sale.Account(), sampleTokens))

	err := sale.BuyTokens(ctx, buyer, sampleTokens, types.Native(0))
	assert.ErrorIs(t, err, payment.ErrIncorrectValue)
	assert.True(t, tok.BalanceOf(buyer).IsZero())
}

func TestSaleBeyondAllowanceRefundsValue(t *testing.T) {
	ctx := context.Background()
	sale, tok, native, owner := newSale(t)
	buyer := id.NewAccountID()
	value := types.Native((sampleTokens + 1) * tokenPrice)
	require.NoError(t, native.Fund(buyer, value))
	require.NoError(t, tok.Transfer(owner, sale.Account(), sampleTokens))

	err := sale.BuyTokens(ctx, buyer, sampleTokens+1, value)
	assert.ErrorIs(t, err, payment.ErrInsufficientAllowance)
	assert.Equal(t, value, native.Balance(buyer))
}

func TestSaleEnd(t *testing.T) {
	ctx := context.Background()
	sale, tok, native, owner := newSale(t)
	buyer := id.NewAccountID()
	require.NoError(t, native.Fund(buyer, types.Native(sampleTokens*tokenPrice)))
	require.NoError(t, tok.Approve(owner, sale.Account(), sampleTokens))
	require.NoError(t, sale.BuyTokens(ctx, buyer, sampleTokens, types.Native(sampleTokens*tokenPrice)))

	assert.ErrorIs(t, sale.EndSale(buyer), payment.ErrNotOwner)
	require.NoError(t, sale.EndSale(owner))

	assert.Equal(t, int64(initialSupply-sampleTokens), tok.BalanceOf(owner).Amount)
	assert.Equal(t, types.Native(sampleTokens*tokenPrice), native.Balance(owner))
	assert.ErrorIs(t, sale.BuyTokens(ctx, buyer, 1, types.Native(tokenPrice)), payment.ErrSaleEnded)
}
