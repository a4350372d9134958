package repository

import (
	"context"
	"time"

	"github.com/segyhp/session-payment-engine/internal/domain"
)

// CorrectionRepository defines the interface for the reconciliation audit trail
type CorrectionRepository interface {
	// CreateBatch stores corrections; entries without DetectedAt get detectedAt
	CreateBatch(ctx context.Context, corrections []domain.Correction, detectedAt time.Time) error

	// ListByRecord retrieves corrections made on one session or transaction
	ListByRecord(ctx context.Context, recordKind, recordID string) ([]*domain.Correction, error)

	// CountSince counts corrections per record kind since a given time
	CountSince(ctx context.Context, since time.Time) ([]domain.CorrectionCount, error)

	// DeleteBefore prunes corrections older than a given time
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}
