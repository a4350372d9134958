package domain

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// RawAmount is a monetary field as the backend sends it. Depending on the
// endpoint it arrives as a JSON number, a numeric string or something else
// entirely. Decoding never fails: unparseable input is kept as invalid.
type RawAmount struct {
	Value decimal.Decimal
	Valid bool
}

// NewRawAmount builds a valid amount, mostly useful in tests and fixtures.
func NewRawAmount(v float64) *RawAmount {
	return &RawAmount{Value: decimal.NewFromFloat(v), Valid: true}
}

func (a *RawAmount) UnmarshalJSON(data []byte) error {
	a.Value = decimal.Zero
	a.Valid = false

	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	text := string(data)
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		text = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	}

	d, err := decimal.NewFromString(text)
	if err != nil {
		return nil
	}

	a.Value = d
	a.Valid = true
	return nil
}

func (a RawAmount) MarshalJSON() ([]byte, error) {
	if !a.Valid {
		return []byte("null"), nil
	}
	return []byte(a.Value.String()), nil
}

// FlexString accepts identifiers and enum values sent either as strings or numbers.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	*f = FlexString(data)
	return nil
}

// RawSession is the session payload accepted from the backend.
type RawSession struct {
	ID             FlexString       `json:"id"`
	MontantTotal   *RawAmount       `json:"montantTotal,omitempty"`
	MontantPaye    *RawAmount       `json:"montantPaye,omitempty"`
	ResteAPayer    *RawAmount       `json:"resteAPayer,omitempty"`
	Statut         FlexString       `json:"statut,omitempty"`
	DateHeureDebut string           `json:"dateHeureDebut,omitempty"`
	Transactions   []RawTransaction `json:"transactions,omitempty"`

	// Relations are carried through untouched.
	Poste  json.RawMessage `json:"poste,omitempty"`
	Client json.RawMessage `json:"client,omitempty"`
}

// RawTransaction is the transaction payload accepted from the backend.
// Session transactions carry montant, standalone sales carry montantTTC or
// montantTotal along with a cumulative montantPaye.
type RawTransaction struct {
	ID                FlexString  `json:"id"`
	Montant           *RawAmount  `json:"montant,omitempty"`
	MontantTTC        *RawAmount  `json:"montantTTC,omitempty"`
	MontantTotal      *RawAmount  `json:"montantTotal,omitempty"`
	MontantPaye       *RawAmount  `json:"montantPaye,omitempty"`
	ResteAPayer       *RawAmount  `json:"resteAPayer,omitempty"`
	ModePaiement      FlexString  `json:"modePaiement,omitempty"`
	Notes             *string     `json:"notes,omitempty"`
	DateCreation      string      `json:"dateCreation,omitempty"`
	CreatedAt         string      `json:"createdAt,omitempty"`
	StatutTransaction FlexString  `json:"statutTransaction,omitempty"`
	Session           *RawSession `json:"session,omitempty"`

	Client json.RawMessage `json:"client,omitempty"`
}
