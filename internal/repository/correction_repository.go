package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/segyhp/session-payment-engine/internal/domain"
	customError "github.com/segyhp/session-payment-engine/pkg/errors"
)

type correctionRepository struct {
	db *sqlx.DB
}

func NewCorrectionRepository(db *sqlx.DB) CorrectionRepository {
	return &correctionRepository{db: db}
}

func (r *correctionRepository) CreateBatch(ctx context.Context, corrections []domain.Correction, detectedAt time.Time) error {
	if len(corrections) == 0 {
		return nil
	}

	query := `
		INSERT INTO reconciliation_corrections (id, record_kind, record_id, field, reported, computed, detected_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return customError.WrapDatabaseError(err)
	}
	defer tx.Rollback()

	for _, c := range corrections {
		id := c.ID
		if id == "" {
			id = uuid.NewString()
		}
		at := c.DetectedAt
		if at.IsZero() {
			at = detectedAt
		}

		_, err = tx.ExecContext(ctx, query,
			id,
			c.RecordKind,
			c.RecordID,
			c.Field,
			c.Reported,
			c.Computed,
			at,
		)
		if err != nil {
			return customError.WrapDatabaseError(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return customError.WrapDatabaseError(err)
	}
	return nil
}

func (r *correctionRepository) ListByRecord(ctx context.Context, recordKind, recordID string) ([]*domain.Correction, error) {
	query := `
		SELECT id, record_kind, record_id, field, reported, computed, detected_at
		FROM reconciliation_corrections
		WHERE record_kind = $1 AND record_id = $2
		ORDER BY detected_at
	`

	var corrections []*domain.Correction
	err := r.db.SelectContext(ctx, &corrections, query, recordKind, recordID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return corrections, nil
}

func (r *correctionRepository) CountSince(ctx context.Context, since time.Time) ([]domain.CorrectionCount, error) {
	query := `
		SELECT record_kind, COUNT(*) AS count
		FROM reconciliation_corrections
		WHERE detected_at >= $1
		GROUP BY record_kind
		ORDER BY record_kind
	`

	var counts []domain.CorrectionCount
	err := r.db.SelectContext(ctx, &counts, query, since)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return counts, nil
}

func (r *correctionRepository) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	query := `
		DELETE FROM reconciliation_corrections
		WHERE detected_at < $1
	`

	res, err := r.db.ExecContext(ctx, query, before)
	if err != nil {
		return 0, customError.WrapDatabaseError(err)
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, customError.WrapDatabaseError(err)
	}
	return deleted, nil
}
