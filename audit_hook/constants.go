package audithook

// Action constants for audit events.
const (
	// Registry actions
	ActionProducerEnrolled  = "producer.enrolled"
	ActionProductRegistered = "product.registered"

	// Escrow actions
	ActionStockDeposited   = "stock.deposited"
	ActionStockWithdrawn   = "stock.withdrawn"
	ActionStockTransferred = "stock.transferred"

	// Retail actions
	ActionStoreOpened     = "store.opened"
	ActionStoreAuthorized = "store.authorized"
	ActionUnitSold        = "unit.sold"

	// Payment actions
	ActionPaymentReceived = "payment.received"

	// Administration actions
	ActionSettingsChanged = "settings.changed"
)

// Resource constants for audit events.
const (
	ResourceProducer      = "producer"
	ResourceProduct       = "product"
	ResourceDeposit       = "deposit"
	ResourceShelf         = "shelf"
	ResourceStore         = "store"
	ResourceAuthorization = "authorization"
	ResourceSale          = "sale"
	ResourceReceipt       = "receipt"
	ResourceSettings      = "settings"
)

// Category constants for audit events.
const (
	CategoryRegistry = "registry"
	CategoryStock    = "stock"
	CategoryRetail   = "retail"
	CategoryPayment  = "payment"
	CategoryAdmin    = "admin"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)
