package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

type SessionStatus string

const (
	SessionStatusEnCours  SessionStatus = "EN_COURS"
	SessionStatusEnPause  SessionStatus = "EN_PAUSE"
	SessionStatusTerminee SessionStatus = "TERMINEE"
	SessionStatusAnnulee  SessionStatus = "ANNULEE"
)

// Session is a timed rental of a poste, normalized.
//
// MontantPaye is nil when the backend did not report it; the ledger is then
// the only source for the paid amount.
type Session struct {
	ID             string           `json:"id"`
	MontantTotal   decimal.Decimal  `json:"montantTotal"`
	MontantPaye    *decimal.Decimal `json:"montantPaye,omitempty"`
	ResteAPayer    decimal.Decimal  `json:"resteAPayer"`
	EstComplete    bool             `json:"estComplete"`
	Statut         SessionStatus    `json:"statut,omitempty"`
	DateHeureDebut time.Time        `json:"dateHeureDebut"`
	Transactions   []Transaction    `json:"transactions,omitempty"`

	Poste  json.RawMessage `json:"poste,omitempty"`
	Client json.RawMessage `json:"client,omitempty"`
}

// LedgerSum returns the sum of the entry amounts of ledger.
func LedgerSum(ledger []Transaction) decimal.Decimal {
	sum := decimal.Zero
	for _, tx := range ledger {
		sum = sum.Add(tx.Montant)
	}
	return sum
}

// PaidAmount returns the amount considered paid for the session.
//
// When the session owns a non-empty ledger, the sum of its entries wins over
// the reported montantPaye if that field is missing or if preferLedger is set.
// The backend has been seen to copy resteAPayer into montantPaye, the ledger
// sum is not affected by that.
func (s *Session) PaidAmount(ledger []Transaction, preferLedger bool) decimal.Decimal {
	if len(ledger) > 0 && (s.MontantPaye == nil || preferLedger) {
		return LedgerSum(ledger)
	}
	if s.MontantPaye != nil {
		return *s.MontantPaye
	}
	return decimal.Zero
}

// HasPaymentDetails reports whether any granular payment information exists
// for the session: a reported montantPaye or at least one ledger entry.
func (s *Session) HasPaymentDetails(ledger []Transaction) bool {
	return s.MontantPaye != nil || len(ledger) > 0
}
