package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/provenance/deposit"
	"github.com/xraph/provenance/id"
	"github.com/xraph/provenance/payment"
	"github.com/xraph/provenance/producer"
	"github.com/xraph/provenance/product"
	"github.com/xraph/provenance/retail"
	"github.com/xraph/provenance/settings"
)

// DefaultTimeout bounds each hook call.
const DefaultTimeout = 5 * time.Second

// Registry manages registered plugins and dispatches events to them.
// Hook implementations are discovered once at registration.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger
	timeout time.Duration

	onInit              []OnInit
	onShutdown          []OnShutdown
	onProducerEnrolled  []OnProducerEnrolled
	onProductRegistered []OnProductRegistered
	onPaymentReceived   []OnPaymentReceived
	onStockDeposited    []OnStockDeposited
	onStockWithdrawn    []OnStockWithdrawn
	onStockTransferred  []OnStockTransferred
	onStoreOpened       []OnStoreOpened
	onStoreAuthorized   []OnStoreAuthorized
	onUnitSold          []OnUnitSold
	onSettingsChanged   []OnSettingsChanged
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:  slog.Default(),
		timeout: DefaultTimeout,
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// WithTimeout sets the per-hook timeout.
func (r *Registry) WithTimeout(d time.Duration) *Registry {
	r.timeout = d
	return r
}

// Register adds a plugin to the registry and caches its hooks.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	var hooks []string
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
		hooks = append(hooks, "OnInit")
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
		hooks = append(hooks, "OnShutdown")
	}
	if v, ok := p.(OnProducerEnrolled); ok {
		r.onProducerEnrolled = append(r.onProducerEnrolled, v)
		hooks = append(hooks, "OnProducerEnrolled")
	}
	if v, ok := p.(OnProductRegistered); ok {
		r.onProductRegistered = append(r.onProductRegistered, v)
		hooks = append(hooks, "OnProductRegistered")
	}
	if v, ok := p.(OnPaymentReceived); ok {
		r.onPaymentReceived = append(r.onPaymentReceived, v)
		hooks = append(hooks, "OnPaymentReceived")
	}
	if v, ok := p.(OnStockDeposited); ok {
		r.onStockDeposited = append(r.onStockDeposited, v)
		hooks = append(hooks, "OnStockDeposited")
	}
	if v, ok := p.(OnStockWithdrawn); ok {
		r.onStockWithdrawn = append(r.onStockWithdrawn, v)
		hooks = append(hooks, "OnStockWithdrawn")
	}
	if v, ok := p.(OnStockTransferred); ok {
		r.onStockTransferred = append(r.onStockTransferred, v)
		hooks = append(hooks, "OnStockTransferred")
	}
	if v, ok := p.(OnStoreOpened); ok {
		r.onStoreOpened = append(r.onStoreOpened, v)
		hooks = append(hooks, "OnStoreOpened")
	}
	if v, ok := p.(OnStoreAuthorized); ok {
		r.onStoreAuthorized = append(r.onStoreAuthorized, v)
		hooks = append(hooks, "OnStoreAuthorized")
	}
	if v, ok := p.(OnUnitSold); ok {
		r.onUnitSold = append(r.onUnitSold, v)
		hooks = append(hooks, "OnUnitSold")
	}
	if v, ok := p.(OnSettingsChanged); ok {
		r.onSettingsChanged = append(r.onSettingsChanged, v)
		hooks = append(hooks, "OnSettingsChanged")
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"hooks", hooks,
	)

	return nil
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, engine any) {
	r.mu.RLock()
	hooks := r.onInit
	r.mu.RUnlock()
	dispatch(ctx, r, "OnInit", hooks, func(p OnInit) error { return p.OnInit(ctx, engine) })
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	hooks := r.onShutdown
	r.mu.RUnlock()
	dispatch(ctx, r, "OnShutdown", hooks, func(p OnShutdown) error { return p.OnShutdown(ctx) })
}

// EmitProducerEnrolled emits a producer enrolled event.
func (r *Registry) EmitProducerEnrolled(ctx context.Context, p *producer.Producer) {
	r.mu.RLock()
	hooks := r.onProducerEnrolled
	r.mu.RUnlock()
	dispatch(ctx, r, "OnProducerEnrolled", hooks, func(h OnProducerEnrolled) error { return h.OnProducerEnrolled(ctx, p) })
}

// EmitProductRegistered emits a product registered event.
func (r *Registry) EmitProductRegistered(ctx context.Context, p *product.Product) {
	r.mu.RLock()
	hooks := r.onProductRegistered
	r.mu.RUnlock()
	dispatch(ctx, r, "OnProductRegistered", hooks, func(h OnProductRegistered) error { return h.OnProductRegistered(ctx, p) })
}

// EmitPaymentReceived emits a payment received event.
func (r *Registry) EmitPaymentReceived(ctx context.Context, rcpt *payment.Receipt) {
	r.mu.RLock()
	hooks := r.onPaymentReceived
	r.mu.RUnlock()
	dispatch(ctx, r, "OnPaymentReceived", hooks, func(h OnPaymentReceived) error { return h.OnPaymentReceived(ctx, rcpt) })
}

// EmitStockDeposited emits a stock deposited event.
func (r *Registry) EmitStockDeposited(ctx context.Context, rec *deposit.Record, quantity int64) {
	r.mu.RLock()
	hooks := r.onStockDeposited
	r.mu.RUnlock()
	dispatch(ctx, r, "OnStockDeposited", hooks, func(h OnStockDeposited) error { return h.OnStockDeposited(ctx, rec, quantity) })
}

// EmitStockWithdrawn emits a stock withdrawn event.
func (r *Registry) EmitStockWithdrawn(ctx context.Context, rec *deposit.Record, quantity int64) {
	r.mu.RLock()
	hooks := r.onStockWithdrawn
	r.mu.RUnlock()
	dispatch(ctx, r, "OnStockWithdrawn", hooks, func(h OnStockWithdrawn) error { return h.OnStockWithdrawn(ctx, rec, quantity) })
}

// EmitStockTransferred emits a stock transferred event.
func (r *Registry) EmitStockTransferred(ctx context.Context, shelf *retail.Shelf, quantity int64) {
	r.mu.RLock()
	hooks := r.onStockTransferred
	r.mu.RUnlock()
	dispatch(ctx, r, "OnStockTransferred", hooks, func(h OnStockTransferred) error { return h.OnStockTransferred(ctx, shelf, quantity) })
}

// EmitStoreOpened emits a store opened event.
func (r *Registry) EmitStoreOpened(ctx context.Context, s *retail.Store) {
	r.mu.RLock()
	hooks := r.onStoreOpened
	r.mu.RUnlock()
	dispatch(ctx, r, "OnStoreOpened", hooks, func(h OnStoreOpened) error { return h.OnStoreOpened(ctx, s) })
}

// EmitStoreAuthorized emits a store authorized event.
func (r *Registry) EmitStoreAuthorized(ctx context.Context, a *deposit.Authorization) {
	r.mu.RLock()
	hooks := r.onStoreAuthorized
	r.mu.RUnlock()
	dispatch(ctx, r, "OnStoreAuthorized", hooks, func(h OnStoreAuthorized) error { return h.OnStoreAuthorized(ctx, a) })
}

// EmitUnitSold emits a unit sold event.
func (r *Registry) EmitUnitSold(ctx context.Context, sale *retail.Sale) {
	r.mu.RLock()
	hooks := r.onUnitSold
	r.mu.RUnlock()
	dispatch(ctx, r, "OnUnitSold", hooks, func(h OnUnitSold) error { return h.OnUnitSold(ctx, sale) })
}

// EmitSettingsChanged emits a settings changed event.
func (r *Registry) EmitSettingsChanged(ctx context.Context, s *settings.Settings, field string, by id.AccountID) {
	r.mu.RLock()
	hooks := r.onSettingsChanged
	r.mu.RUnlock()
	dispatch(ctx, r, "OnSettingsChanged", hooks, func(h OnSettingsChanged) error { return h.OnSettingsChanged(ctx, s, field, by) })
}

// dispatch calls fn for every hook in order. Failures are logged and do not
// stop delivery to the remaining plugins.
func dispatch[T Plugin](ctx context.Context, r *Registry, hook string, hooks []T, fn func(T) error) {
	for _, p := range hooks {
		if err := r.callWithTimeout(ctx, p.Name(), func() error { return fn(p) }); err != nil {
			r.logger.Warn("plugin hook failed",
				"hook", hook,
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// callWithTimeout runs fn, giving up after the registry timeout.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
