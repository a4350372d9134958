package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMode string

const (
	PaymentModeEspeces  PaymentMode = "ESPECES"
	PaymentModeCarte    PaymentMode = "CARTE"
	PaymentModeVirement PaymentMode = "VIREMENT"
	PaymentModeCheque   PaymentMode = "CHEQUE"
	PaymentModeAutre    PaymentMode = "AUTRE"
)

type TransactionStatus string

const (
	TransactionStatusEnAttente          TransactionStatus = "EN_ATTENTE"
	TransactionStatusPartiellementPayee TransactionStatus = "PARTIELLEMENT_PAYEE"
	TransactionStatusValidee            TransactionStatus = "VALIDEE"
	TransactionStatusAnnulee            TransactionStatus = "ANNULEE"
	TransactionStatusRemboursee         TransactionStatus = "REMBOURSEE"
)

// Transaction is the canonical shape of a ledger entry after normalization.
//
// Montant is the amount of this entry when it belongs to a session ledger.
// MontantTotal/MontantPaye/ResteAPayer describe a standalone transaction
// paid in one or several steps.
type Transaction struct {
	ID                string            `json:"id"`
	Montant           decimal.Decimal   `json:"montant"`
	MontantTotal      decimal.Decimal   `json:"montantTotal"`
	MontantPaye       decimal.Decimal   `json:"montantPaye"`
	ResteAPayer       decimal.Decimal   `json:"resteAPayer"`
	EstComplete       bool              `json:"estComplete"`
	ModePaiement      PaymentMode       `json:"modePaiement,omitempty"`
	Notes             string            `json:"notes,omitempty"`
	DateCreation      time.Time         `json:"dateCreation"`
	StatutTransaction TransactionStatus `json:"statutTransaction,omitempty"`
	Session           *Session          `json:"session,omitempty"`

	Client json.RawMessage `json:"client,omitempty"`
}

// IsLocked reports whether the entry may no longer be edited in place.
func (t Transaction) IsLocked() bool {
	switch t.StatutTransaction {
	case TransactionStatusValidee, TransactionStatusAnnulee, TransactionStatusRemboursee:
		return true
	}
	return false
}
