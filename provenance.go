package provenance

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/xraph/provenance/id"
	"github.com/xraph/provenance/payment"
	"github.com/xraph/provenance/plugin"
	"github.com/xraph/provenance/settings"
	"github.com/xraph/provenance/store"
	"github.com/xraph/provenance/types"
)

const (
	stateNew int32 = iota
	stateRunning
	stateStopped
)

// Engine is the provenance ledger. Every operation, reads included, is
// executed by a single sequencer goroutine so that each one observes and
// leaves a consistent state.
type Engine struct {
	store   store.Store
	plugins *plugin.Registry
	logger  *slog.Logger
	channel payment.Channel

	// Seed used when the store holds no settings yet.
	admin id.AccountID
	seed  *settings.Settings

	skipMigrate bool

	// Owned by the sequencer once running.
	settings *settings.Settings

	state    atomic.Int32
	ops      chan *op
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

type op struct {
	ctx  context.Context
	fn   func(ctx context.Context) error
	done chan error
}

// New creates a new Engine. Call Start before issuing operations.
func New(s store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:    s,
		plugins:  plugin.NewRegistry(),
		logger:   slog.Default(),
		ops:      make(chan *op),
		stopChan: make(chan struct{}),
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.channel == nil {
		e.channel = payment.NewNative()
	}

	return e
}

// Option configures an Engine instance.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
		e.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Engine) {
		_ = e.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithPaymentChannel sets the channel that collects fees and prices.
// Defaults to a payment.Native channel.
func WithPaymentChannel(ch payment.Channel) Option {
	return func(e *Engine) {
		e.channel = ch
	}
}

// WithAdmin sets the administrator used when the store holds no settings.
func WithAdmin(admin id.AccountID) Option {
	return func(e *Engine) {
		e.admin = admin
	}
}

// WithSettings sets the fees, capacity and holding accounts used when the
// store holds no settings. Missing holding accounts are generated and fees
// without a currency take the payment channel's denomination.
func WithSettings(s settings.Settings) Option {
	return func(e *Engine) {
		e.seed = &s
	}
}

// WithoutMigrate makes Start skip store migrations.
func WithoutMigrate() Option {
	return func(e *Engine) {
		e.skipMigrate = true
	}
}

// Plugins returns the plugin registry.
func (e *Engine) Plugins() *plugin.Registry { return e.plugins }

// PaymentChannel returns the channel that collects payments.
func (e *Engine) PaymentChannel() payment.Channel { return e.channel }

// Start migrates the store, loads or seeds the settings and starts the
// sequencer.
func (e *Engine) Start(ctx context.Context) error {
	switch e.state.Load() {
	case stateRunning:
		return fmt.Errorf("%w: engine already started", ErrAlreadyExists)
	case stateStopped:
		return ErrEngineStopped
	}

	if !e.skipMigrate {
		if err := e.store.Migrate(ctx); err != nil {
			return fmt.Errorf("provenance: migrate: %w", err)
		}
	}

	st, err := e.loadSettings(ctx)
	if err != nil {
		return err
	}
	e.settings = st

	if !e.state.CompareAndSwap(stateNew, stateRunning) {
		return fmt.Errorf("%w: engine already started", ErrAlreadyExists)
	}

	e.wg.Add(1)
	go e.sequencer()

	e.plugins.EmitInit(ctx, e)

	e.logger.Info("provenance engine started",
		"admin", st.Admin.String(),
		"payment_channel", e.channel.Name(),
		"enrollment_fee", st.EnrollmentFee.String(),
		"deposit_fee_per_unit", st.Deposit.FeePerUnit.String(),
		"max_stock", st.Deposit.MaxStock,
	)

	return nil
}

// Stop waits for the operation in flight, rejects later calls with
// ErrEngineStopped and closes the store.
func (e *Engine) Stop() error {
	var errs MultiError

	e.stopOnce.Do(func() {
		wasRunning := e.state.Swap(stateStopped) == stateRunning
		close(e.stopChan)
		e.wg.Wait()

		ctx := context.Background()
		if wasRunning {
			e.plugins.EmitShutdown(ctx)
		}
		errs.Add(e.store.Close())

		e.logger.Info("provenance engine stopped")
	})

	return errs.ErrorOrNil()
}

func (e *Engine) sequencer() {
	defer e.wg.Done()

	for {
		select {
		case <-e.stopChan:
			return
		case o := <-e.ops:
			o.done <- o.fn(o.ctx)
		}
	}
}

// execute hands fn to the sequencer and waits for its result. A context
// cancelled before the sequencer accepts the call aborts it; once accepted,
// fn runs to completion with a context that is never cancelled.
func (e *Engine) execute(ctx context.Context, fn func(ctx context.Context) error) error {
	switch e.state.Load() {
	case stateNew:
		return ErrEngineNotStarted
	case stateStopped:
		return ErrEngineStopped
	}

	o := &op{
		ctx:  context.WithoutCancel(ctx),
		fn:   fn,
		done: make(chan error, 1),
	}

	select {
	case e.ops <- o:
	case <-e.stopChan:
		return ErrEngineStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	return <-o.done
}

// notify returns a context for plugin dispatch that outlives the caller.
func notify(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}

func (e *Engine) loadSettings(ctx context.Context) (*settings.Settings, error) {
	st, err := e.store.GetSettings(ctx)
	if err == nil {
		if err := e.checkDenomination(st.EnrollmentFee, st.Deposit.FeePerUnit); err != nil {
			return nil, fmt.Errorf("provenance: stored settings: %w", err)
		}
		return st, nil
	}
	if !IsNotFound(err) {
		return nil, fmt.Errorf("provenance: load settings: %w", err)
	}

	st = &settings.Settings{}
	if e.seed != nil {
		cp := *e.seed
		st = &cp
	}
	if !e.admin.IsNil() {
		st.Admin = e.admin
	}
	if st.Admin.IsNil() {
		return nil, invalid("admin", "an administrator is required to initialise the ledger")
	}
	if st.RegistryAccount.IsNil() {
		st.RegistryAccount = id.NewAccountID()
	}
	if st.DepositAccount.IsNil() {
		st.DepositAccount = id.NewAccountID()
	}
	denom := e.channel.Denomination()
	if st.EnrollmentFee.Currency == "" {
		st.EnrollmentFee.Currency = denom
	}
	if st.Deposit.FeePerUnit.Currency == "" {
		st.Deposit.FeePerUnit.Currency = denom
	}
	if err := e.checkDenomination(st.EnrollmentFee, st.Deposit.FeePerUnit); err != nil {
		return nil, err
	}
	if st.Deposit.MaxStock < 0 {
		return nil, invalid("max_stock", "must not be negative")
	}
	st.Entity = types.NewEntity()

	if err := e.store.SaveSettings(ctx, st); err != nil {
		return nil, fmt.Errorf("provenance: save settings: %w", err)
	}

	e.logger.Info("provenance settings initialised",
		"admin", st.Admin.String(),
		"registry_account", st.RegistryAccount.String(),
		"deposit_account", st.DepositAccount.String(),
	)

	return st, nil
}

// checkDenomination rejects negative amounts and amounts the payment
// channel cannot collect.
func (e *Engine) checkDenomination(amounts ...types.Money) error {
	for _, m := range amounts {
		if m.Currency != e.channel.Denomination() {
			return invalid("currency", fmt.Sprintf("%q is not collected by the %s channel", m.Currency, e.channel.Name()))
		}
		if m.IsNegative() {
			return invalid("amount", "must not be negative")
		}
	}
	return nil
}

// collect takes a payment through the channel. An offer in another
// currency is invalid input; every other channel failure surfaces as
// ErrInsufficientPayment.
func (e *Engine) collect(ctx context.Context, payer, payee id.ID, offered, due types.Money) (*payment.Receipt, error) {
	if err := e.checkDenomination(offered); err != nil {
		return nil, err
	}
	r, err := e.channel.Collect(ctx, payer, payee, offered, due)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInsufficientPayment, err)
	}
	return r, nil
}

// settle closes the refund window of a receipt once the operation it paid
// for has committed. The payment stays collected either way.
func (e *Engine) settle(ctx context.Context, r *payment.Receipt) {
	if err := e.channel.Settle(ctx, r); err != nil {
		e.logger.Warn("settle failed",
			"receipt", r.ID.String(),
			"error", err,
		)
	}
}

// refund reverses a receipt after the operation it paid for failed.
func (e *Engine) refund(ctx context.Context, r *payment.Receipt, cause error) error {
	if rerr := e.channel.Refund(ctx, r); rerr != nil {
		e.logger.Warn("refund failed",
			"receipt", r.ID.String(),
			"payer", r.Payer.String(),
			"amount", r.Amount.String(),
			"error", rerr,
		)
		return fmt.Errorf("%w (refund of %s failed: %w)", cause, r.ID, rerr)
	}
	return cause
}
