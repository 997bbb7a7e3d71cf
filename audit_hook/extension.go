// Package audithook bridges Provenance lifecycle events to an audit trail
// backend.
//
// It defines a local Recorder interface so the package does not import
// Chronicle directly. Callers inject a RecorderFunc adapter that bridges
// to Chronicle at wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xraph/provenance/deposit"
	"github.com/xraph/provenance/id"
	"github.com/xraph/provenance/payment"
	"github.com/xraph/provenance/plugin"
	"github.com/xraph/provenance/producer"
	"github.com/xraph/provenance/product"
	"github.com/xraph/provenance/retail"
	"github.com/xraph/provenance/settings"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin              = (*Extension)(nil)
	_ plugin.OnProducerEnrolled  = (*Extension)(nil)
	_ plugin.OnProductRegistered = (*Extension)(nil)
	_ plugin.OnPaymentReceived   = (*Extension)(nil)
	_ plugin.OnStockDeposited    = (*Extension)(nil)
	_ plugin.OnStockWithdrawn    = (*Extension)(nil)
	_ plugin.OnStockTransferred  = (*Extension)(nil)
	_ plugin.OnStoreOpened       = (*Extension)(nil)
	_ plugin.OnStoreAuthorized   = (*Extension)(nil)
	_ plugin.OnUnitSold          = (*Extension)(nil)
	_ plugin.OnSettingsChanged   = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
// It matches chronicle.Emitter but is defined locally so that the
// audit_hook package does not import Chronicle directly.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
// It mirrors chronicle/audit.Event but avoids a module dependency.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges Provenance lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Registry hooks
// ──────────────────────────────────────────────────

// OnProducerEnrolled implements plugin.OnProducerEnrolled.
func (e *Extension) OnProducerEnrolled(ctx context.Context, p *producer.Producer) error {
	return e.record(ctx, ActionProducerEnrolled, SeverityInfo, OutcomeSuccess,
		ResourceProducer, p.Account.String(), CategoryRegistry,
		"name", p.Name,
	)
}

// OnProductRegistered implements plugin.OnProductRegistered.
func (e *Extension) OnProductRegistered(ctx context.Context, p *product.Product) error {
	return e.record(ctx, ActionProductRegistered, SeverityInfo, OutcomeSuccess,
		ResourceProduct, p.ID.String(), CategoryRegistry,
		"name", p.Name,
		"producer", p.Producer.String(),
		"attribute", p.Attribute,
	)
}

// OnPaymentReceived implements plugin.OnPaymentReceived.
func (e *Extension) OnPaymentReceived(ctx context.Context, r *payment.Receipt) error {
	return e.record(ctx, ActionPaymentReceived, SeverityInfo, OutcomeSuccess,
		ResourceReceipt, r.ID.String(), CategoryPayment,
		"channel", r.Channel,
		"payer", r.Payer.String(),
		"payee", r.Payee.String(),
		"amount", r.Amount.String(),
	)
}

// ──────────────────────────────────────────────────
// Escrow hooks
// ──────────────────────────────────────────────────

// OnStockDeposited implements plugin.OnStockDeposited.
func (e *Extension) OnStockDeposited(ctx context.Context, rec *deposit.Record, quantity int64) error {
	return e.record(ctx, ActionStockDeposited, SeverityInfo, OutcomeSuccess,
		ResourceDeposit, rec.ProductID.String(), CategoryStock,
		"quantity", quantity,
		"stock", rec.Stock,
	)
}

// OnStockWithdrawn implements plugin.OnStockWithdrawn.
func (e *Extension) OnStockWithdrawn(ctx context.Context, rec *deposit.Record, quantity int64) error {
	return e.record(ctx, ActionStockWithdrawn, SeverityWarning, OutcomeSuccess,
		ResourceDeposit, rec.ProductID.String(), CategoryStock,
		"quantity", quantity,
		"stock", rec.Stock,
	)
}

// OnStockTransferred implements plugin.OnStockTransferred.
func (e *Extension) OnStockTransferred(ctx context.Context, shelf *retail.Shelf, quantity int64) error {
	return e.record(ctx, ActionStockTransferred, SeverityInfo, OutcomeSuccess,
		ResourceShelf, shelf.ProductID.String(), CategoryStock,
		"store", shelf.StoreID.String(),
		"quantity", quantity,
		"shelf_stock", shelf.Stock,
	)
}

// ──────────────────────────────────────────────────
// Retail hooks
// ──────────────────────────────────────────────────

// OnStoreOpened implements plugin.OnStoreOpened.
func (e *Extension) OnStoreOpened(ctx context.Context, s *retail.Store) error {
	return e.record(ctx, ActionStoreOpened, SeverityInfo, OutcomeSuccess,
		ResourceStore, s.ID.String(), CategoryRetail,
		"owner", s.Owner.String(),
	)
}

// OnStoreAuthorized implements plugin.OnStoreAuthorized.
func (e *Extension) OnStoreAuthorized(ctx context.Context, a *deposit.Authorization) error {
	return e.record(ctx, ActionStoreAuthorized, SeverityInfo, OutcomeSuccess,
		ResourceAuthorization, a.Store.String(), CategoryRetail,
		"producer", a.Producer.String(),
	)
}

// OnUnitSold implements plugin.OnUnitSold.
func (e *Extension) OnUnitSold(ctx context.Context, sale *retail.Sale) error {
	return e.record(ctx, ActionUnitSold, SeverityInfo, OutcomeSuccess,
		ResourceSale, sale.ID.String(), CategoryRetail,
		"store", sale.StoreID.String(),
		"product_id", sale.ProductID.String(),
		"buyer", sale.Buyer.String(),
		"paid", sale.Paid.String(),
	)
}

// ──────────────────────────────────────────────────
// Administration hooks
// ──────────────────────────────────────────────────

// OnSettingsChanged implements plugin.OnSettingsChanged. Administrator
// changes are recorded at warning severity.
func (e *Extension) OnSettingsChanged(ctx context.Context, s *settings.Settings, field string, by id.AccountID) error {
	return e.record(ctx, ActionSettingsChanged, SeverityWarning, OutcomeSuccess,
		ResourceSettings, field, CategoryAdmin,
		"by", by.String(),
		"admin", s.Admin.String(),
		"enrollment_fee", s.EnrollmentFee.String(),
		"deposit_fee_per_unit", s.Deposit.FeePerUnit.String(),
		"max_stock", s.Deposit.MaxStock,
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
