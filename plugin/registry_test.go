package plugin_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/provenance/id"
	"github.com/xraph/provenance/plugin"
	"github.com/xraph/provenance/producer"
	"github.com/xraph/provenance/retail"
)

type recorder struct {
	name string
	err  error
	wait time.Duration

	mu     sync.Mutex
	events []string
}

func (r *recorder) Name() string { return r.name }

func (r *recorder) add(ev string) error {
	if r.wait > 0 {
		time.Sleep(r.wait)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.err
}

func (r *recorder) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func (r *recorder) OnProducerEnrolled(_ context.Context, p *producer.Producer) error {
	return r.add("enrolled:" + p.Name)
}

func (r *recorder) OnUnitSold(_ context.Context, _ *retail.Sale) error {
	return r.add("sold")
}

type nameOnly struct{ name string }

func (n nameOnly) Name() string { return n.name }

func TestRegisterDuplicate(t *testing.T) {
	reg := plugin.NewRegistry()
	require.NoError(t, reg.Register(nameOnly{"a"}))
	assert.Error(t, reg.Register(nameOnly{"a"}))
	assert.Equal(t, 1, reg.Count())
	assert.NotNil(t, reg.Get("a"))
	assert.Nil(t, reg.Get("b"))
}

func TestDispatchOnlyToImplementers(t *testing.T) {
	ctx := context.Background()
	reg := plugin.NewRegistry()
	rec := &recorder{name: "rec"}
	require.NoError(t, reg.Register(rec))
	require.NoError(t, reg.Register(nameOnly{"silent"}))

	reg.EmitProducerEnrolled(ctx, &producer.Producer{Account: id.NewAccountID(), Name: "John Doe"})
	reg.EmitUnitSold(ctx, &retail.Sale{})
	reg.EmitStoreOpened(ctx, &retail.Store{})

	assert.Equal(t, []string{"enrolled:John Doe", "sold"}, rec.seen())
}

func TestDispatchContinuesAfterFailure(t *testing.T) {
	ctx := context.Background()
	reg := plugin.NewRegistry()
	failing := &recorder{name: "failing", err: errors.New("boom")}
	ok := &recorder{name: "ok"}
	require.NoError(t, reg.Register(failing))
	require.NoError(t, reg.Register(ok))

	reg.EmitUnitSold(ctx, &retail.Sale{})

	assert.Equal(t, []string{"sold"}, failing.seen())
	assert.Equal(t, []string{"sold"}, ok.seen())
}

func TestDispatchTimeout(t *testing.T) {
	ctx := context.Background()
	reg := plugin.NewRegistry().WithTimeout(10 * time.Millisecond)
	slow := &recorder{name: "slow", wait: 200 * time.Millisecond}
	require.NoError(t, reg.Register(slow))

	start := time.Now()
	reg.EmitUnitSold(ctx, &retail.Sale{})
	assert.Less(t, time.Since(start), 150*time.Millisecond)
}
