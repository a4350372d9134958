// Package mutation holds the write side of the payment engine: the operations
// the external ledger service exposes, the preconditions each one must meet
// against the current payment status, and a service that runs them one at a
// time per record before fetching and reconciling the result again.
package mutation

import (
	"context"

	"github.com/segyhp/session-payment-engine/internal/domain"
)

// LedgerClient is the external ledger service. It owns persistence and is the
// only arbiter of concurrent edits; errors it returns are passed through as is.
//
// The Get methods return (nil, nil) when the record does not exist.
type LedgerClient interface {
	GetSession(ctx context.Context, sessionID string) (*domain.RawSession, error)
	GetTransaction(ctx context.Context, transactionID string) (*domain.RawTransaction, error)

	AddTransaction(ctx context.Context, req domain.AddTransactionRequest) error
	EditTransaction(ctx context.Context, req domain.EditTransactionRequest) error
	DeleteTransaction(ctx context.Context, req domain.DeleteTransactionRequest) error
	PartialPayment(ctx context.Context, req domain.PartialPaymentRequest) error
	MarkAsPaid(ctx context.Context, req domain.MarkAsPaidRequest) error
	AdjustTotal(ctx context.Context, req domain.AdjustTotalRequest) error
}
