package mocks

import (
	"context"
	"time"

	"github.com/segyhp/session-payment-engine/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockCorrectionRepository struct {
	mock.Mock
}

func (m *MockCorrectionRepository) CreateBatch(ctx context.Context, corrections []domain.Correction, detectedAt time.Time) error {
	args := m.Called(ctx, corrections, detectedAt)
	return args.Error(0)
}

func (m *MockCorrectionRepository) ListByRecord(ctx context.Context, recordKind, recordID string) ([]*domain.Correction, error) {
	args := m.Called(ctx, recordKind, recordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Correction), args.Error(1)
}

func (m *MockCorrectionRepository) CountSince(ctx context.Context, since time.Time) ([]domain.CorrectionCount, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CorrectionCount), args.Error(1)
}

func (m *MockCorrectionRepository) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}
