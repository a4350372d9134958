package domain

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

type Operation string

const (
	OperationAddTransaction    Operation = "ADD_TRANSACTION"
	OperationEditTransaction   Operation = "EDIT_TRANSACTION"
	OperationDeleteTransaction Operation = "DELETE_TRANSACTION"
	OperationPartialPayment    Operation = "PARTIAL_PAYMENT"
	OperationMarkAsPaid        Operation = "MARK_AS_PAID"
	OperationAdjustTotal       Operation = "ADJUST_TOTAL"
)

type AdjustmentReason string

const (
	ReasonErreurSaisie      AdjustmentReason = "ERREUR_SAISIE"
	ReasonRemiseCommerciale AdjustmentReason = "REMISE_COMMERCIALE"
	ReasonGesteCommercial   AdjustmentReason = "GESTE_COMMERCIAL"
	ReasonProblemeTechnique AdjustmentReason = "PROBLEME_TECHNIQUE"
	ReasonAutre             AdjustmentReason = "AUTRE"
)

// DTOs for mutation requests

type AddTransactionRequest struct {
	SessionID    string          `json:"sessionId" validate:"required"`
	Montant      decimal.Decimal `json:"montant" validate:"gt=0"`
	ModePaiement PaymentMode     `json:"modePaiement" validate:"required,oneof=ESPECES CARTE VIREMENT CHEQUE AUTRE"`
	Notes        string          `json:"notes,omitempty" validate:"max=500"`
}

// EditTransactionRequest only touches the fields that are set.
type EditTransactionRequest struct {
	TransactionID string           `json:"transactionId" validate:"required"`
	Montant       *decimal.Decimal `json:"montant,omitempty" validate:"omitempty,gt=0"`
	ModePaiement  *PaymentMode     `json:"modePaiement,omitempty" validate:"omitempty,oneof=ESPECES CARTE VIREMENT CHEQUE AUTRE"`
	Notes         *string          `json:"notes,omitempty" validate:"omitempty,max=500"`
}

type DeleteTransactionRequest struct {
	TransactionID string `json:"transactionId" validate:"required"`
}

type PartialPaymentRequest struct {
	TransactionID         string          `json:"transactionId" validate:"required"`
	MontantSupplementaire decimal.Decimal `json:"montantSupplementaire" validate:"gt=0"`
	ModePaiement          PaymentMode     `json:"modePaiement" validate:"required,oneof=ESPECES CARTE VIREMENT CHEQUE AUTRE"`
	Notes                 string          `json:"notes,omitempty" validate:"max=500"`
}

type MarkAsPaidRequest struct {
	TransactionID string      `json:"transactionId" validate:"required"`
	ModePaiement  PaymentMode `json:"modePaiement" validate:"required,oneof=ESPECES CARTE VIREMENT CHEQUE AUTRE"`
	Notes         string      `json:"notes,omitempty" validate:"max=500"`
}

type AdjustTotalRequest struct {
	TransactionID       string           `json:"transactionId" validate:"required"`
	NouveauMontantTotal decimal.Decimal  `json:"nouveauMontantTotal" validate:"gte=0"`
	Raison              AdjustmentReason `json:"raison" validate:"required,oneof=ERREUR_SAISIE REMISE_COMMERCIALE GESTE_COMMERCIAL PROBLEME_TECHNIQUE AUTRE"`
	Commentaire         string           `json:"commentaire,omitempty" validate:"required_if=Raison AUTRE,max=500"`
}

// MutationRequest is the single envelope every mutation travels in.
type MutationRequest struct {
	Operation Operation       `json:"operation"`
	Params    json.RawMessage `json:"params"`
}

// MutationResult is returned once a mutation went through and the affected
// record was fetched again.
type MutationResult struct {
	RequestID     string         `json:"requestId"`
	Operation     Operation      `json:"operation"`
	Success       bool           `json:"success"`
	Message       string         `json:"message"`
	UpdatedRecord interface{}    `json:"updatedRecord,omitempty"`
	PaymentStatus *PaymentStatus `json:"paymentStatus,omitempty"`
}
