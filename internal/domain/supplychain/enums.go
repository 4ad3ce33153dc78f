package supplychain

// Organization values for chain actors.
const (
	OrganizationBLO     = "blo"
	OrganizationBuyback = "buyback"
	OrganizationCoop    = "coop"
	OrganizationNone    = "none"
)

// Validation states of a production season.
const (
	ValidationStatusPending   = "pending"
	ValidationStatusValidated = "validated"
	ValidationStatusRejected  = "rejected"
)

// Rice batch availability.
const (
	BatchStatusForSale  = "forSale"
	BatchStatusStock    = "stock"
	BatchStatusConsumed = "consumed"
)

// Payment methods accepted on chain transactions.
const (
	PaymentMethodCash   = "cash"
	PaymentMethodCheque = "cheque"
	PaymentMethodOnline = "online"
)

// Chain transaction lifecycle.
const (
	TransactionStatusPending   = "pending"
	TransactionStatusLoading   = "loading"
	TransactionStatusCompleted = "completed"
	TransactionStatusCancelled = "cancelled"
	TransactionStatusFailed    = "failed"
)

// MoistureMax is the upper bound of moisture readings, in basis points of percent.
const MoistureMax = 10000

var (
	organizations       = []string{OrganizationBLO, OrganizationBuyback, OrganizationCoop, OrganizationNone}
	validationStatuses  = []string{ValidationStatusPending, ValidationStatusValidated, ValidationStatusRejected}
	batchStatuses       = []string{BatchStatusForSale, BatchStatusStock, BatchStatusConsumed}
	paymentMethods      = []string{PaymentMethodCash, PaymentMethodCheque, PaymentMethodOnline}
	transactionStatuses = []string{TransactionStatusPending, TransactionStatusLoading, TransactionStatusCompleted, TransactionStatusCancelled, TransactionStatusFailed}
)
