// Package observability provides a metrics extension for Provenance that
// records lifecycle event counts via a MetricFactory such as app.Metrics()
// in forge extensions.
package observability

import (
	"context"

	"github.com/xraph/provenance/deposit"
	"github.com/xraph/provenance/id"
	"github.com/xraph/provenance/payment"
	"github.com/xraph/provenance/plugin"
	"github.com/xraph/provenance/producer"
	"github.com/xraph/provenance/product"
	"github.com/xraph/provenance/retail"
	"github.com/xraph/provenance/settings"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin              = (*MetricsExtension)(nil)
	_ plugin.OnInit              = (*MetricsExtension)(nil)
	_ plugin.OnProducerEnrolled  = (*MetricsExtension)(nil)
	_ plugin.OnProductRegistered = (*MetricsExtension)(nil)
	_ plugin.OnPaymentReceived   = (*MetricsExtension)(nil)
	_ plugin.OnStockDeposited    = (*MetricsExtension)(nil)
	_ plugin.OnStockWithdrawn    = (*MetricsExtension)(nil)
	_ plugin.OnStockTransferred  = (*MetricsExtension)(nil)
	_ plugin.OnStoreOpened       = (*MetricsExtension)(nil)
	_ plugin.OnStoreAuthorized   = (*MetricsExtension)(nil)
	_ plugin.OnUnitSold          = (*MetricsExtension)(nil)
	_ plugin.OnSettingsChanged   = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide lifecycle metrics.
// Register it as a Provenance plugin to track registry, escrow and retail
// activity.
type MetricsExtension struct {
	factory MetricFactory

	// Registry metrics
	ProducerEnrolled  Counter
	ProductRegistered Counter

	// Escrow metrics
	UnitsDeposited   Counter
	UnitsWithdrawn   Counter
	UnitsTransferred Counter
	DepositSize      Histogram
	TransferSize     Histogram

	// Retail metrics
	StoreOpened     Counter
	StoreAuthorized Counter
	UnitsSold       Counter

	// Payment metrics
	PaymentsReceived Counter
	PaymentAmount    Histogram

	// Administration metrics
	SettingsChanged Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use app.Metrics() in forge extensions.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		ProducerEnrolled:  factory.Counter("provenance.producer.enrolled"),
		ProductRegistered: factory.Counter("provenance.product.registered"),

		UnitsDeposited:   factory.Counter("provenance.deposit.units.deposited"),
		UnitsWithdrawn:   factory.Counter("provenance.deposit.units.withdrawn"),
		UnitsTransferred: factory.Counter("provenance.deposit.units.transferred"),
		DepositSize:      factory.Histogram("provenance.deposit.size"),
		TransferSize:     factory.Histogram("provenance.transfer.size"),

		StoreOpened:     factory.Counter("provenance.store.opened"),
		StoreAuthorized: factory.Counter("provenance.store.authorized"),
		UnitsSold:       factory.Counter("provenance.store.units.sold"),

		PaymentsReceived: factory.Counter("provenance.payment.received"),
		PaymentAmount:    factory.Histogram("provenance.payment.amount"),

		SettingsChanged: factory.Counter("provenance.settings.changed"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ any) error {
	return nil
}

// ──────────────────────────────────────────────────
// Registry hooks
// ──────────────────────────────────────────────────

// OnProducerEnrolled implements plugin.OnProducerEnrolled.
func (m *MetricsExtension) OnProducerEnrolled(_ context.Context, _ *producer.Producer) error {
	m.ProducerEnrolled.Inc()
	return nil
}

// OnProductRegistered implements plugin.OnProductRegistered.
func (m *MetricsExtension) OnProductRegistered(_ context.Context, _ *product.Product) error {
	m.ProductRegistered.Inc()
	return nil
}

// OnPaymentReceived implements plugin.OnPaymentReceived. The amount is
// observed in the smallest unit of its denomination.
func (m *MetricsExtension) OnPaymentReceived(_ context.Context, r *payment.Receipt) error {
	m.PaymentsReceived.Inc()
	m.PaymentAmount.Observe(float64(r.Amount.Amount))
	return nil
}

// ──────────────────────────────────────────────────
// Escrow hooks
// ──────────────────────────────────────────────────

// OnStockDeposited implements plugin.OnStockDeposited.
func (m *MetricsExtension) OnStockDeposited(_ context.Context, _ *deposit.Record, quantity int64) error {
	m.UnitsDeposited.Add(float64(quantity))
	m.DepositSize.Observe(float64(quantity))
	return nil
}

// OnStockWithdrawn implements plugin.OnStockWithdrawn.
func (m *MetricsExtension) OnStockWithdrawn(_ context.Context, _ *deposit.Record, quantity int64) error {
	m.UnitsWithdrawn.Add(float64(quantity))
	return nil
}

// OnStockTransferred implements plugin.OnStockTransferred.
func (m *MetricsExtension) OnStockTransferred(_ context.Context, _ *retail.Shelf, quantity int64) error {
	m.UnitsTransferred.Add(float64(quantity))
	m.TransferSize.Observe(float64(quantity))
	return nil
}

// ──────────────────────────────────────────────────
// Retail hooks
// ──────────────────────────────────────────────────

// OnStoreOpened implements plugin.OnStoreOpened.
func (m *MetricsExtension) OnStoreOpened(_ context.Context, _ *retail.Store) error {
	m.StoreOpened.Inc()
	return nil
}

// OnStoreAuthorized implements plugin.OnStoreAuthorized.
func (m *MetricsExtension) OnStoreAuthorized(_ context.Context, _ *deposit.Authorization) error {
	m.StoreAuthorized.Inc()
	return nil
}

// OnUnitSold implements plugin.OnUnitSold.
func (m *MetricsExtension) OnUnitSold(_ context.Context, _ *retail.Sale) error {
	m.UnitsSold.Inc()
	return nil
}

// OnSettingsChanged implements plugin.OnSettingsChanged.
func (m *MetricsExtension) OnSettingsChanged(_ context.Context, _ *settings.Settings, _ string, _ id.AccountID) error {
	m.SettingsChanged.Inc()
	return nil
}
