package provenance

import (
	"context"
	"fmt"
	"strings"

	"github.com/xraph/provenance/id"
	"github.com/xraph/provenance/payment"
	"github.com/xraph/provenance/producer"
	"github.com/xraph/provenance/settings"
	"github.com/xraph/provenance/types"
)

// SetEnrollmentFee sets the fee a producer pays to enroll. Administrator only.
func (e *Engine) SetEnrollmentFee(ctx context.Context, fee types.Money) error {
	return e.updateSettings(ctx, "enrollment_fee", func(st *settings.Settings) error {
		if err := e.checkDenomination(fee); err != nil {
			return err
		}
		st.EnrollmentFee = fee
		return nil
	})
}

// EnrollmentFee returns the current enrollment fee.
func (e *Engine) EnrollmentFee(ctx context.Context) (types.Money, error) {
	var fee types.Money
	err := e.execute(ctx, func(context.Context) error {
		fee = e.settings.EnrollmentFee
		return nil
	})
	return fee, err
}

// Enroll registers the caller as a producer. payment is the value the
// caller offers; the enrollment fee is collected from it and retained by
// the registry's holding account.
func (e *Engine) Enroll(ctx context.Context, name string, offered types.Money) (*producer.Producer, error) {
	caller, err := callerOf(ctx)
	if err != nil {
		return nil, err
	}

	var (
		p    *producer.Producer
		rcpt *payment.Receipt
	)
	err = e.execute(ctx, func(ctx context.Context) error {
		if strings.TrimSpace(name) == "" {
			return invalid("name", "must not be empty")
		}

		_, err := e.store.GetProducer(ctx, caller)
		switch {
		case err == nil:
			return fmt.Errorf("%w: %s", ErrAlreadyEnrolled, caller)
		case !IsNotFound(err):
			return err
		}

		rcpt, err = e.collect(ctx, caller, e.settings.RegistryAccount, offered, e.settings.EnrollmentFee)
		if err != nil {
			return err
		}

		p = &producer.Producer{
			Entity:   types.NewEntity(),
			Account:  caller,
			Name:     name,
			Enrolled: true,
		}
		if err := e.store.CreateProducer(ctx, p); err != nil {
			return e.refund(ctx, rcpt, err)
		}
		e.settle(ctx, rcpt)
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Debug("producer enrolled",
		"account", caller.String(),
		"name", name,
		"paid", rcpt.Amount.String(),
	)

	nctx := notify(ctx)
	e.plugins.EmitPaymentReceived(nctx, rcpt)
	e.plugins.EmitProducerEnrolled(nctx, p)

	return p, nil
}

// IsProducer reports whether account is an enrolled producer.
func (e *Engine) IsProducer(ctx context.Context, account id.AccountID) (bool, error) {
	var enrolled bool
	err := e.execute(ctx, func(ctx context.Context) error {
		var err error
		enrolled, err = e.isProducer(ctx, account)
		return err
	})
	return enrolled, err
}

// GetProducer returns the producer enrolled under account.
func (e *Engine) GetProducer(ctx context.Context, account id.AccountID) (*producer.Producer, error) {
	var p *producer.Producer
	err := e.execute(ctx, func(ctx context.Context) error {
		var err error
		p, err = e.store.GetProducer(ctx, account)
		return err
	})
	return p, err
}

// ListProducers lists enrolled producers in enrollment order.
func (e *Engine) ListProducers(ctx context.Context, opts producer.ListOpts) ([]*producer.Producer, error) {
	var list []*producer.Producer
	err := e.execute(ctx, func(ctx context.Context) error {
		var err error
		list, err = e.store.ListProducers(ctx, opts)
		return err
	})
	return list, err
}

func (e *Engine) isProducer(ctx context.Context, account id.AccountID) (bool, error) {
	p, err := e.store.GetProducer(ctx, account)
	if IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return p.Enrolled, nil
}
