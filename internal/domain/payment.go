package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReconcileTolerance is the largest gap accepted between a reported remaining
// balance and the one derived from total and paid amounts.
var ReconcileTolerance = decimal.NewFromFloat(0.01)

type PaymentState string

const (
	PaymentStateGratuit     PaymentState = "GRATUIT"
	PaymentStatePayeComplet PaymentState = "PAYE_COMPLET"
	PaymentStatePayePartiel PaymentState = "PAYE_PARTIEL"
	PaymentStateNonPaye     PaymentState = "NON_PAYE"
	PaymentStateUnknown     PaymentState = "UNKNOWN"
)

type PaymentAction string

const (
	ActionTerminerDirectement PaymentAction = "TERMINER_DIRECTEMENT"
	ActionCompleterPaiement   PaymentAction = "COMPLETER_PAIEMENT"
	ActionDemanderPaiement    PaymentAction = "DEMANDER_PAIEMENT"
	ActionNone                PaymentAction = ""
)

// PaymentStatus is derived on every read and never stored.
type PaymentStatus struct {
	MontantTotal    decimal.Decimal `json:"montantTotal"`
	MontantPaye     decimal.Decimal `json:"montantPaye"`
	ResteAPayer     decimal.Decimal `json:"resteAPayer"`
	Status          PaymentState    `json:"status"`
	ActionRequired  PaymentAction   `json:"actionRequired"`
	PercentagePaid  int             `json:"percentagePaid"`
	IsPaid          bool            `json:"isPaid"`
	PaidAtStart     bool            `json:"paidAtStart"`
	IsFree          bool            `json:"isFree"`
	IsPartiallyPaid bool            `json:"isPartiallyPaid"`
	IsNotPaid       bool            `json:"isNotPaid"`
	CanTerminate    bool            `json:"canTerminate"`
	Message         string          `json:"message"`
}

// UnknownPaymentStatus is returned when there is not enough data to decide.
// Callers must block any progress on it.
func UnknownPaymentStatus() PaymentStatus {
	return PaymentStatus{
		MontantTotal: decimal.Zero,
		MontantPaye:  decimal.Zero,
		ResteAPayer:  decimal.Zero,
		Status:       PaymentStateUnknown,
		Message:      "Données insuffisantes",
	}
}

// Correction records a remaining balance rewritten by the reconciler.
type Correction struct {
	ID         string          `json:"id" db:"id"`
	RecordKind string          `json:"record_kind" db:"record_kind"`
	RecordID   string          `json:"record_id" db:"record_id"`
	Field      string          `json:"field" db:"field"`
	Reported   decimal.Decimal `json:"reported" db:"reported"`
	Computed   decimal.Decimal `json:"computed" db:"computed"`
	DetectedAt time.Time       `json:"detected_at" db:"detected_at"`
}

const (
	RecordKindSession     = "session"
	RecordKindTransaction = "transaction"
)

// CorrectionCount is one row of the correction summary report.
type CorrectionCount struct {
	RecordKind string `json:"record_kind" db:"record_kind"`
	Count      int64  `json:"count" db:"count"`
}
