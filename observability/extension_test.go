package observability_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/provenance"
	"github.com/xraph/provenance/id"
	"github.com/xraph/provenance/observability"
	"github.com/xraph/provenance/payment"
	"github.com/xraph/provenance/store/memory"
)

type metric struct {
	mu       sync.Mutex
	total    float64
	observed []float64
}

func (c *metric) Inc() { c.Add(1) }

func (c *metric) Add(v float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.total += v
}

func (c *metric) Observe(v float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observed = append(c.observed, v)
}

type factory struct {
	metrics map[string]*metric
}

func (f *factory) get(name string) *metric {
	if f.metrics == nil {
		f.metrics = make(map[string]*metric)
	}
	if _, ok := f.metrics[name]; !ok {
		f.metrics[name] = &metric{}
	}
	return f.metrics[name]
}

func (f *factory) Counter(name string) observability.Counter     { return f.get(name) }
func (f *factory) Histogram(name string) observability.Histogram { return f.get(name) }

func TestMetricsExtensionCountsOperations(t *testing.T) {
	ctx := context.Background()
	f := &factory{}
	native := payment.NewNative()
	admin, maker, owner, buyer := id.NewAccountID(), id.NewAccountID(), id.NewAccountID(), id.NewAccountID()
	require.NoError(t, native.Fund(buyer, provenance.Native(100)))

	e := provenance.New(memory.New(),
		provenance.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		provenance.WithPaymentChannel(native),
		provenance.WithAdmin(admin),
		provenance.WithPlugin(observability.NewMetricsExtension(f)),
	)
	require.NoError(t, e.Start(ctx))
	defer e.Stop()

	as := func(a id.ID) context.Context { return provenance.WithCaller(ctx, a) }

	require.NoError(t, e.SetMaxStock(as(admin), 50))
	_, err := e.Enroll(as(maker), "Acme Farms", provenance.Native(0))
	require.NoError(t, err)
	pid, err := e.Register(as(maker), "Olive oil", "", 0)
	require.NoError(t, err)
	_, err = e.Deposit(as(maker), pid, 20, provenance.Native(0))
	require.NoError(t, err)
	_, err = e.Withdraw(as(maker), pid, 5)
	require.NoError(t, err)

	shop, err := e.OpenStore(as(owner))
	require.NoError(t, err)
	require.NoError(t, e.SetPricePerUnit(as(owner), shop.ID, provenance.Native(7)))
	_, err = e.AuthorizeStore(as(maker), shop.ID)
	require.NoError(t, err)
	_, err = e.ReceiveFromDeposit(as(owner), shop.ID, pid, 8)
	require.NoError(t, err)
	_, err = e.Buy(as(buyer), shop.ID, pid, provenance.Native(7))
	require.NoError(t, err)

	assert.Equal(t, 1.0, f.get("provenance.producer.enrolled").total)
	assert.Equal(t, 1.0, f.get("provenance.product.registered").total)
	assert.Equal(t, 20.0, f.get("provenance.deposit.units.deposited").total)
	assert.Equal(t, 5.0, f.get("provenance.deposit.units.withdrawn").total)
	assert.Equal(t, 8.0, f.get("provenance.deposit.units.transferred").total)
	assert.Equal(t, []float64{8}, f.get("provenance.transfer.size").observed)
	assert.Equal(t, 1.0, f.get("provenance.store.opened").total)
	assert.Equal(t, 1.0, f.get("provenance.store.authorized").total)
	assert.Equal(t, 1.0, f.get("provenance.store.units.sold").total)
	assert.Equal(t, 3.0, f.get("provenance.payment.received").total)
	assert.Equal(t, []float64{0, 0, 7}, f.get("provenance.payment.amount").observed)
	assert.Equal(t, 1.0, f.get("provenance.settings.changed").total)
}
