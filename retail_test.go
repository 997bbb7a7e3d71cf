package provenance_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/provenance"
	"github.com/xraph/provenance/deposit"
	"github.com/xraph/provenance/id"
	"github.com/xraph/provenance/payment"
	"github.com/xraph/provenance/producer"
	"github.com/xraph/provenance/retail"
	"github.com/xraph/provenance/settings"
	"github.com/xraph/provenance/store/memory"
	"github.com/xraph/provenance/types"
)

func TestSetPricePerUnit(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	shop, err := h.engine.OpenStore(h.as(h.owner))
	require.NoError(t, err)
	assert.False(t, shop.Priced())

	err = h.engine.SetPricePerUnit(h.as(h.buyer), shop.ID, types.Native(10))
	assert.True(t, provenance.IsAuthorizationError(err))

	err = h.engine.SetPricePerUnit(h.as(h.owner), shop.ID, types.Native(0))
	assert.True(t, errors.Is(err, provenance.ErrInvalidInput))

	err = h.engine.SetPricePerUnit(h.as(h.owner), shop.ID, types.EUR(10))
	assert.True(t, errors.Is(err, provenance.ErrInvalidInput))

	require.NoError(t, h.engine.SetPricePerUnit(h.as(h.owner), shop.ID, types.Native(25)))

	got, err := h.engine.GetStore(ctx, shop.ID)
	require.NoError(t, err)
	assert.Equal(t, types.Native(25), got.PricePerUnit)
}

func TestReceiveAndBuy(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	pid, shop := h.stocked()

	available, err := h.engine.IsAvailable(ctx, shop.ID, pid)
	require.NoError(t, err)
	assert.False(t, available)

	_, err = h.engine.Buy(h.as(h.buyer), shop.ID, pid, types.Native(10))
	assert.True(t, errors.Is(err, provenance.ErrUnavailable))

	_, err = h.engine.ReceiveFromDeposit(h.as(h.buyer), shop.ID, pid, 40)
	assert.True(t, provenance.IsAuthorizationError(err))

	shelf, err := h.engine.ReceiveFromDeposit(h.as(h.owner), shop.ID, pid, 40)
	require.NoError(t, err)
	assert.Equal(t, int64(40), shelf.Stock)
	assert.Equal(t, types.Native(10), shelf.PricePerUnit)

	_, err = h.engine.Buy(h.as(h.buyer), shop.ID, pid, types.Native(9))
	assert.True(t, provenance.IsPaymentError(err))
	assert.Equal(t, types.Native(10_000), h.native.Balance(h.buyer))
	assert.True(t, h.native.Balance(shop.ID).IsZero())

	shelf, err = h.engine.Shelf(ctx, shop.ID, pid)
	require.NoError(t, err)
	assert.Equal(t, int64(40), shelf.Stock)
	assert.Zero(t, shelf.Sold)

	sale, err := h.engine.Buy(h.as(h.buyer), shop.ID, pid, types.Native(20))
	require.NoError(t, err)
	assert.Equal(t, types.Native(10), sale.Price)
	assert.Equal(t, types.Native(20), sale.Paid)
	assert.True(t, sale.Buyer.Equal(h.buyer))
	assert.Equal(t, types.Native(20), h.native.Balance(shop.ID))

	shelf, err = h.engine.Shelf(ctx, shop.ID, pid)
	require.NoError(t, err)
	assert.Equal(t, int64(39), shelf.Stock)
	assert.Equal(t, int64(1), shelf.Sold)

	available, err = h.engine.IsAvailable(ctx, shop.ID, pid)
	require.NoError(t, err)
	assert.True(t, available)
}

func TestBuyLastUnit(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	pid, shop := h.stocked()
	other := id.NewAccountID()
	require.NoError(t, h.native.Fund(other, types.Native(100)))

	require.NoError(t, h.engine.SetPricePerUnit(h.as(h.owner), shop.ID, types.Native(20)))
	_, err := h.engine.ReceiveFromDeposit(h.as(h.owner), shop.ID, pid, 1)
	require.NoError(t, err)

	_, err = h.engine.Buy(h.as(h.buyer), shop.ID, pid, types.Native(20))
	require.NoError(t, err)

	_, err = h.engine.Buy(h.as(other), shop.ID, pid, types.Native(20))
	assert.True(t, errors.Is(err, provenance.ErrUnavailable))
	assert.Equal(t, types.Native(100), h.native.Balance(other))
	assert.Equal(t, types.Native(20), h.native.Balance(shop.ID))

	shelf, err := h.engine.Shelf(ctx, shop.ID, pid)
	require.NoError(t, err)
	assert.Zero(t, shelf.Stock)
	assert.Equal(t, int64(1), shelf.Sold)
}

func TestBuyInForeignCurrency(t *testing.T) {
	h := newHarness(t)
	pid, shop := h.stocked()
	_, err := h.engine.ReceiveFromDeposit(h.as(h.owner), shop.ID, pid, 1)
	require.NoError(t, err)

	_, err = h.engine.Buy(h.as(h.buyer), shop.ID, pid, types.EUR(10))
	assert.True(t, errors.Is(err, provenance.ErrInvalidInput))
	assert.False(t, provenance.IsPaymentError(err))
}

func TestBuyFromUnpricedStore(t *testing.T) {
	h := newHarness(t)
	pid, _ := h.stocked()

	shop, err := h.engine.OpenStore(h.as(h.owner))
	require.NoError(t, err)
	_, err = h.engine.AuthorizeStore(h.as(h.producer), shop.ID)
	require.NoError(t, err)
	_, err = h.engine.ReceiveFromDeposit(h.as(h.owner), shop.ID, pid, 5)
	require.NoError(t, err)

	_, err = h.engine.Buy(h.as(h.buyer), shop.ID, pid, types.Native(0))
	assert.True(t, errors.Is(err, provenance.ErrUnavailable))
}

func TestIsAuthentic(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	pid, shop := h.stocked()

	authentic, err := h.engine.IsAuthentic(ctx, shop.ID, pid)
	require.NoError(t, err)
	assert.False(t, authentic)

	_, err = h.engine.ReceiveFromDeposit(h.as(h.owner), shop.ID, pid, 1)
	require.NoError(t, err)
	_, err = h.engine.Buy(h.as(h.buyer), shop.ID, pid, types.Native(10))
	require.NoError(t, err)

	// Still authentic once the shelf is sold out.
	authentic, err = h.engine.IsAuthentic(ctx, shop.ID, pid)
	require.NoError(t, err)
	assert.True(t, authentic)

	authentic, err = h.engine.IsAuthentic(ctx, shop.ID, 77)
	require.NoError(t, err)
	assert.False(t, authentic)

	_, err = h.engine.IsAuthentic(ctx, id.NewStoreID(), pid)
	assert.True(t, provenance.IsNotFound(err))
}

func TestTokenChannel(t *testing.T) {
	ctx := context.Background()
	admin, maker, registry := id.NewAccountID(), id.NewAccountID(), id.NewAccountID()

	tok := payment.NewToken("Provenance Token", "PVT", admin, 1_000_000)
	ch := payment.NewTokenChannel(tok)
	require.NoError(t, tok.Transfer(admin, maker, 500))

	e := provenance.New(memory.New(),
		provenance.WithLogger(quietLogger()),
		provenance.WithPaymentChannel(ch),
		provenance.WithAdmin(admin),
		provenance.WithSettings(settings.Settings{
			RegistryAccount: registry,
			EnrollmentFee:   types.Token("PVT", 100),
		}),
	)
	require.NoError(t, e.Start(ctx))
	defer e.Stop()

	as := provenance.WithCaller(ctx, maker)

	_, err := e.Enroll(as, "Token Maker", types.Token("PVT", 100))
	assert.True(t, errors.Is(err, payment.ErrInsufficientAllowance))

	require.NoError(t, tok.Approve(maker, registry, 150))
	_, err = e.Enroll(as, "Token Maker", types.Token("PVT", 150))
	require.NoError(t, err)

	assert.Equal(t, types.Token("PVT", 100), tok.BalanceOf(registry))
	assert.Equal(t, types.Token("PVT", 400), tok.BalanceOf(maker))
	assert.Equal(t, types.Token("PVT", 50), tok.Allowance(maker, registry))

	err = e.SetEnrollmentFee(provenance.WithCaller(ctx, admin), types.Native(1))
	assert.True(t, errors.Is(err, provenance.ErrInvalidInput))
}

func TestTokenChannelWithoutFees(t *testing.T) {
	ctx := context.Background()
	admin, maker := id.NewAccountID(), id.NewAccountID()

	tok := payment.NewToken("Provenance Token", "PVT", admin, 1_000_000)
	ch := payment.NewTokenChannel(tok)

	e := provenance.New(memory.New(),
		provenance.WithLogger(quietLogger()),
		provenance.WithPaymentChannel(ch),
		provenance.WithAdmin(admin),
		provenance.WithSettings(settings.Settings{
			Deposit: deposit.Settings{MaxStock: 10},
		}),
	)
	require.NoError(t, e.Start(ctx))
	defer e.Stop()

	as := provenance.WithCaller(ctx, maker)

	_, err := e.Enroll(as, "Token Maker", types.Token("PVT", 0))
	require.NoError(t, err)
	pid, err := e.Register(as, "Honey", "raw", 250)
	require.NoError(t, err)

	rec, err := e.Deposit(provenance.WithCaller(ctx, id.NewAccountID()), pid, 5, types.Token("PVT", 0))
	require.NoError(t, err)
	assert.Equal(t, int64(5), rec.Stock)

	assert.Zero(t, ch.Outstanding())
}

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) Name() string { return "recorder" }

func (r *recorder) record(event string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func (r *recorder) OnProducerEnrolled(context.Context, *producer.Producer) error {
	return r.record("producer_enrolled")
}

func (r *recorder) OnPaymentReceived(context.Context, *payment.Receipt) error {
	return r.record("payment_received")
}

func (r *recorder) OnStockTransferred(context.Context, *retail.Shelf, int64) error {
	return r.record("stock_transferred")
}

func (r *recorder) OnUnitSold(context.Context, *retail.Sale) error {
	return r.record("unit_sold")
}

func (r *recorder) OnSettingsChanged(_ context.Context, _ *settings.Settings, field string, _ id.AccountID) error {
	return r.record("settings:" + field)
}

func TestPluginsObserveOperations(t *testing.T) {
	rec := &recorder{}
	h := newHarness(t, provenance.WithPlugin(rec))
	pid, shop := h.stocked()

	_, err := h.engine.ReceiveFromDeposit(h.as(h.owner), shop.ID, pid, 2)
	require.NoError(t, err)
	_, err = h.engine.Buy(h.as(h.buyer), shop.ID, pid, types.Native(10))
	require.NoError(t, err)
	_, err = h.engine.Buy(h.as(h.buyer), shop.ID, pid, types.Native(1))
	require.Error(t, err)

	assert.Equal(t, []string{
		"settings:deposit_fee_per_unit",
		"settings:max_stock",
		"payment_received",
		"producer_enrolled",
		"payment_received",
		"stock_transferred",
		"payment_received",
		"unit_sold",
	}, rec.Events())
}
