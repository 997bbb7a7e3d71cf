package provenance_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/provenance"
	"github.com/xraph/provenance/id"
	"github.com/xraph/provenance/payment"
	"github.com/xraph/provenance/product"
	"github.com/xraph/provenance/retail"
	"github.com/xraph/provenance/store/memory"
	"github.com/xraph/provenance/types"
)

type harness struct {
	t        *testing.T
	engine   *provenance.Engine
	native   *payment.Native
	admin    id.AccountID
	producer id.AccountID
	owner    id.AccountID
	buyer    id.AccountID
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newHarness(t *testing.T, opts ...provenance.Option) *harness {
	t.Helper()

	h := &harness{
		t:        t,
		native:   payment.NewNative(),
		admin:    id.NewAccountID(),
		producer: id.NewAccountID(),
		owner:    id.NewAccountID(),
		buyer:    id.NewAccountID(),
	}
	for _, acct := range []id.AccountID{h.producer, h.owner, h.buyer} {
		require.NoError(t, h.native.Fund(acct, types.Native(10_000)))
	}

	opts = append([]provenance.Option{
		provenance.WithLogger(quietLogger()),
		provenance.WithPaymentChannel(h.native),
		provenance.WithAdmin(h.admin),
	}, opts...)
	h.engine = provenance.New(memory.New(), opts...)

	require.NoError(t, h.engine.Start(context.Background()))
	t.Cleanup(func() { _ = h.engine.Stop() })
	return h
}

func (h *harness) as(account id.ID) context.Context {
	return provenance.WithCaller(context.Background(), account)
}

// stocked enrolls the producer, registers one product, deposits 100 units
// and opens an authorized store priced at 10.
func (h *harness) stocked() (product.ID, *retail.Store) {
	h.t.Helper()
	t := h.t

	require.NoError(t, h.engine.SetDepositFeePerUnit(h.as(h.admin), types.Native(1)))
	require.NoError(t, h.engine.SetMaxStock(h.as(h.admin), 100))

	_, err := h.engine.Enroll(h.as(h.producer), "Acme Farms", types.Native(0))
	require.NoError(t, err)
	pid, err := h.engine.Register(h.as(h.producer), "Olive oil", "cold pressed", 750)
	require.NoError(t, err)
	_, err = h.engine.Deposit(h.as(h.producer), pid, 100, types.Native(200))
	require.NoError(t, err)

	shop, err := h.engine.OpenStore(h.as(h.owner))
	require.NoError(t, err)
	require.NoError(t, h.engine.SetPricePerUnit(h.as(h.owner), shop.ID, types.Native(10)))
	_, err = h.engine.AuthorizeStore(h.as(h.producer), shop.ID)
	require.NoError(t, err)

	return pid, shop
}

func TestEngineLifecycle(t *testing.T) {
	ctx := context.Background()
	admin := id.NewAccountID()

	e := provenance.New(memory.New(), provenance.WithLogger(quietLogger()), provenance.WithAdmin(admin))

	_, err := e.Admin(ctx)
	assert.True(t, errors.Is(err, provenance.ErrEngineNotStarted))

	require.NoError(t, e.Start(ctx))
	assert.Error(t, e.Start(ctx))

	got, err := e.Admin(ctx)
	require.NoError(t, err)
	assert.True(t, got.Equal(admin))

	require.NoError(t, e.Stop())
	require.NoError(t, e.Stop())

	_, err = e.Admin(ctx)
	assert.True(t, errors.Is(err, provenance.ErrEngineStopped))
	assert.True(t, errors.Is(e.Start(ctx), provenance.ErrEngineStopped))
}

func TestStartRequiresAdministrator(t *testing.T) {
	e := provenance.New(memory.New(), provenance.WithLogger(quietLogger()))
	err := e.Start(context.Background())
	assert.True(t, errors.Is(err, provenance.ErrInvalidInput))
}

func TestStartKeepsStoredSettings(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	admin := id.NewAccountID()

	first := provenance.New(s, provenance.WithLogger(quietLogger()), provenance.WithAdmin(admin))
	require.NoError(t, first.Start(ctx))
	require.NoError(t, first.SetEnrollmentFee(provenance.WithCaller(ctx, admin), types.Native(100)))
	before, err := first.Settings(ctx)
	require.NoError(t, err)
	require.NoError(t, first.Stop())

	second := provenance.New(s, provenance.WithLogger(quietLogger()), provenance.WithAdmin(id.NewAccountID()))
	require.NoError(t, second.Start(ctx))
	defer second.Stop()

	after, err := second.Settings(ctx)
	require.NoError(t, err)
	assert.True(t, after.Admin.Equal(admin))
	assert.True(t, after.RegistryAccount.Equal(before.RegistryAccount))
	assert.Equal(t, types.Native(100), after.EnrollmentFee)
}

func TestSettingsRejectForeignDenomination(t *testing.T) {
	h := newHarness(t)
	err := h.engine.SetEnrollmentFee(h.as(h.admin), types.USD(100))
	assert.True(t, errors.Is(err, provenance.ErrInvalidInput))

	err = h.engine.SetDepositFeePerUnit(h.as(h.admin), types.Native(-1))
	assert.True(t, errors.Is(err, provenance.ErrInvalidInput))

	err = h.engine.SetMaxStock(h.as(h.admin), -1)
	assert.True(t, errors.Is(err, provenance.ErrInvalidInput))
}

func TestTransferAdministration(t *testing.T) {
	h := newHarness(t)
	next := id.NewAccountID()

	err := h.engine.TransferAdministration(h.as(h.buyer), next)
	assert.True(t, provenance.IsAuthorizationError(err))

	err = h.engine.TransferAdministration(h.as(h.admin), id.Nil)
	assert.True(t, errors.Is(err, provenance.ErrInvalidInput))

	require.NoError(t, h.engine.TransferAdministration(h.as(h.admin), next))

	err = h.engine.SetEnrollmentFee(h.as(h.admin), types.Native(5))
	assert.True(t, provenance.IsAuthorizationError(err))
	require.NoError(t, h.engine.SetEnrollmentFee(h.as(next), types.Native(5)))
}

func TestOperationsRequireCaller(t *testing.T) {
	h := newHarness(t)
	_, err := h.engine.Enroll(context.Background(), "anonymous", types.Native(0))
	assert.True(t, provenance.IsAuthorizationError(err))
}

func TestCancelledContextIsNotExecuted(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(h.as(h.producer))
	cancel()

	// The sequencer may still accept the call; either way it must not
	// enroll twice or leave the caller half-enrolled.
	_, err := h.engine.Enroll(ctx, "Acme Farms", types.Native(0))
	if err != nil {
		assert.True(t, errors.Is(err, context.Canceled))
		enrolled, err := h.engine.IsProducer(context.Background(), h.producer)
		require.NoError(t, err)
		assert.False(t, enrolled)
	}
}

func TestConcurrentTransfersConserveStock(t *testing.T) {
	h := newHarness(t)
	pid, shop := h.stocked()

	const workers = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.engine.ReceiveFromDeposit(h.as(h.owner), shop.ID, pid, 10)
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			assert.True(t, errors.Is(err, provenance.ErrInsufficientStock), err)
		}()
	}
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.engine.Buy(h.as(h.buyer), shop.ID, pid, types.Native(10))
			if err != nil {
				assert.True(t, errors.Is(err, provenance.ErrUnavailable), err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, succeeded)

	rec, err := h.engine.DepositRecord(context.Background(), pid)
	require.NoError(t, err)
	shelf, err := h.engine.Shelf(context.Background(), shop.ID, pid)
	require.NoError(t, err)

	assert.Zero(t, rec.Stock)
	assert.Equal(t, rec.Transferred, shelf.Received)
	assert.Equal(t, shelf.Received, shelf.Stock+shelf.Sold)
	assert.Equal(t, rec.Deposited, rec.Stock+rec.Withdrawn+rec.Transferred)
	assert.Equal(t, types.Native(10*shelf.Sold), h.native.Balance(shop.ID))
}
