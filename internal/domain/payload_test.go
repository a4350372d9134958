package domain

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRawAmount_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantValid bool
		wantValue decimal.Decimal
	}{
		{name: "number", input: `12.5`, wantValid: true, wantValue: decimal.RequireFromString("12.5")},
		{name: "integer", input: `100`, wantValid: true, wantValue: decimal.NewFromInt(100)},
		{name: "numeric string", input: `"40.00"`, wantValid: true, wantValue: decimal.NewFromInt(40)},
		{name: "comma decimal string", input: `"12,50"`, wantValid: true, wantValue: decimal.RequireFromString("12.5")},
		{name: "negative", input: `-3`, wantValid: true, wantValue: decimal.NewFromInt(-3)},
		{name: "garbage string", input: `"N/A"`, wantValid: false, wantValue: decimal.Zero},
		{name: "empty string", input: `""`, wantValid: false, wantValue: decimal.Zero},
		{name: "boolean", input: `true`, wantValid: false, wantValue: decimal.Zero},
		{name: "object", input: `{"value": 3}`, wantValid: false, wantValue: decimal.Zero},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var a RawAmount
			require.NoError(t, json.Unmarshal([]byte(tt.input), &a))
			assert.Equal(t, tt.wantValid, a.Valid)
			assert.True(t, a.Value.Equal(tt.wantValue), "Expected %v, but got %v", tt.wantValue, a.Value)
		})
	}
}

func TestRawSession_MissingAndNullAmounts(t *testing.T) {
	var s RawSession
	require.NoError(t, json.Unmarshal([]byte(`{"id": 42, "montantTotal": "100", "montantPaye": null}`), &s))

	assert.Equal(t, FlexString("42"), s.ID)
	require.NotNil(t, s.MontantTotal)
	assert.True(t, s.MontantTotal.Valid)
	assert.Nil(t, s.MontantPaye)
	assert.Nil(t, s.ResteAPayer)
}

func TestRawTransaction_AlternateFields(t *testing.T) {
	payload := `{
		"id": "T1",
		"montantTTC": 59.99,
		"montantPaye": "20",
		"modePaiement": "carte",
		"createdAt": "2024-03-10T14:30:00Z",
		"session": {"id": "S1", "montantTotal": 59.99},
		"client": {"id": 7, "nom": "Diallo"}
	}`

	var tx RawTransaction
	require.NoError(t, json.Unmarshal([]byte(payload), &tx))

	assert.Nil(t, tx.Montant)
	require.NotNil(t, tx.MontantTTC)
	assert.True(t, tx.MontantTTC.Value.Equal(decimal.RequireFromString("59.99")))
	assert.Equal(t, "2024-03-10T14:30:00Z", tx.CreatedAt)
	require.NotNil(t, tx.Session)
	assert.Equal(t, FlexString("S1"), tx.Session.ID)
	assert.JSONEq(t, `{"id": 7, "nom": "Diallo"}`, string(tx.Client))
}

func TestRawAmount_MarshalJSON(t *testing.T) {
	out, err := json.Marshal(RawAmount{Value: decimal.RequireFromString("12.50"), Valid: true})
	require.NoError(t, err)
	assert.Equal(t, "12.5", string(out))

	out, err = json.Marshal(RawAmount{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))
}

func TestSession_PaidAmount(t *testing.T) {
	reported := decimal.NewFromInt(100)
	ledger := []Transaction{
		{Montant: decimal.NewFromInt(40)},
		{Montant: decimal.NewFromInt(20)},
	}

	tests := []struct {
		name         string
		session      Session
		ledger       []Transaction
		preferLedger bool
		expected     decimal.Decimal
	}{
		{name: "absent montantPaye uses ledger", session: Session{}, ledger: ledger, preferLedger: false, expected: decimal.NewFromInt(60)},
		{name: "ledger preferred over reported", session: Session{MontantPaye: &reported}, ledger: ledger, preferLedger: true, expected: decimal.NewFromInt(60)},
		{name: "reported trusted", session: Session{MontantPaye: &reported}, ledger: ledger, preferLedger: false, expected: decimal.NewFromInt(100)},
		{name: "no ledger uses reported", session: Session{MontantPaye: &reported}, ledger: nil, preferLedger: true, expected: decimal.NewFromInt(100)},
		{name: "nothing at all", session: Session{}, ledger: nil, preferLedger: true, expected: decimal.Zero},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.session.PaidAmount(tt.ledger, tt.preferLedger)
			assert.True(t, result.Equal(tt.expected), "Expected %v, but got %v", tt.expected, result)
		})
	}
}

func TestTransaction_IsLocked(t *testing.T) {
	assert.True(t, Transaction{StatutTransaction: TransactionStatusValidee}.IsLocked())
	assert.True(t, Transaction{StatutTransaction: TransactionStatusRemboursee}.IsLocked())
	assert.True(t, Transaction{StatutTransaction: TransactionStatusAnnulee}.IsLocked())
	assert.False(t, Transaction{StatutTransaction: TransactionStatusEnAttente}.IsLocked())
	assert.False(t, Transaction{StatutTransaction: TransactionStatusPartiellementPayee}.IsLocked())
	assert.False(t, Transaction{}.IsLocked())
}
