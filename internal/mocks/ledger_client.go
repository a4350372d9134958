package mocks

import (
	"context"

	"github.com/segyhp/session-payment-engine/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockLedgerClient struct {
	mock.Mock
}

func (m *MockLedgerClient) GetSession(ctx context.Context, sessionID string) (*domain.RawSession, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RawSession), args.Error(1)
}

func (m *MockLedgerClient) GetTransaction(ctx context.Context, transactionID string) (*domain.RawTransaction, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RawTransaction), args.Error(1)
}

func (m *MockLedgerClient) AddTransaction(ctx context.Context, req domain.AddTransactionRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockLedgerClient) EditTransaction(ctx context.Context, req domain.EditTransactionRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockLedgerClient) DeleteTransaction(ctx context.Context, req domain.DeleteTransactionRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockLedgerClient) PartialPayment(ctx context.Context, req domain.PartialPaymentRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockLedgerClient) MarkAsPaid(ctx context.Context, req domain.MarkAsPaidRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockLedgerClient) AdjustTotal(ctx context.Context, req domain.AdjustTotalRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}
