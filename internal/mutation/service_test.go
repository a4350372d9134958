package mutation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/segyhp/session-payment-engine/internal/domain"
	"github.com/segyhp/session-payment-engine/internal/inflight"
	"github.com/segyhp/session-payment-engine/internal/mocks"
	"github.com/segyhp/session-payment-engine/internal/reconciler"
	"github.com/segyhp/session-payment-engine/internal/resolver"
	customError "github.com/segyhp/session-payment-engine/pkg/errors"
)

func newTestService(client LedgerClient, guard inflight.Guard) *Service {
	return NewService(
		client,
		reconciler.New(true, nil),
		resolver.New(resolver.DefaultOptions()),
		NewChecker(NewValidator(), true),
		guard,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
}

func rawSession(total, paid float64, entries ...float64) *domain.RawSession {
	s := &domain.RawSession{
		ID:           "S1",
		MontantTotal: domain.NewRawAmount(total),
		MontantPaye:  domain.NewRawAmount(paid),
	}
	for _, e := range entries {
		s.Transactions = append(s.Transactions, domain.RawTransaction{ID: "E", Montant: domain.NewRawAmount(e)})
	}
	return s
}

func rawTransaction(total, paid float64) *domain.RawTransaction {
	return &domain.RawTransaction{
		ID:                "T1",
		MontantTotal:      domain.NewRawAmount(total),
		MontantPaye:       domain.NewRawAmount(paid),
		StatutTransaction: "PARTIELLEMENT_PAYEE",
		Session: &domain.RawSession{
			ID:           "S1",
			MontantTotal: domain.NewRawAmount(total),
			MontantPaye:  domain.NewRawAmount(paid),
		},
	}
}

func TestService_AddTransaction(t *testing.T) {
	ctx := context.Background()
	mockClient := new(mocks.MockLedgerClient)
	service := newTestService(mockClient, nil)

	req := domain.AddTransactionRequest{SessionID: "S1", Montant: dec(70), ModePaiement: domain.PaymentModeCarte}

	mockClient.On("GetSession", mock.Anything, "S1").Return(rawSession(100, 30, 30), nil).Once()
	mockClient.On("AddTransaction", mock.Anything, req).Return(nil).Once()
	mockClient.On("GetSession", mock.Anything, "S1").Return(rawSession(100, 100, 30, 70), nil).Once()

	result, err := service.AddTransaction(ctx, req)

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.Success)
	assert.NotEmpty(t, result.RequestID)
	assert.Equal(t, domain.OperationAddTransaction, result.Operation)
	require.NotNil(t, result.PaymentStatus)
	assert.Equal(t, domain.PaymentStatePayeComplet, result.PaymentStatus.Status)
	assert.True(t, result.PaymentStatus.CanTerminate)

	session, ok := result.UpdatedRecord.(*domain.Session)
	require.True(t, ok)
	assert.Len(t, session.Transactions, 2)
	mockClient.AssertExpectations(t)
}

func TestService_AddTransaction_SessionAlreadyPaid(t *testing.T) {
	ctx := context.Background()
	mockClient := new(mocks.MockLedgerClient)
	service := newTestService(mockClient, nil)

	mockClient.On("GetSession", mock.Anything, "S1").Return(rawSession(100, 100, 100), nil).Once()

	result, err := service.AddTransaction(ctx, domain.AddTransactionRequest{SessionID: "S1", Montant: dec(10), ModePaiement: domain.PaymentModeCarte})

	assert.Nil(t, result)
	assert.True(t, errors.Is(err, customError.ErrSessionAlreadyPaid))
	mockClient.AssertExpectations(t)
	mockClient.AssertNotCalled(t, "AddTransaction", mock.Anything, mock.Anything)
}

func TestService_AddTransaction_SessionNotFound(t *testing.T) {
	ctx := context.Background()
	mockClient := new(mocks.MockLedgerClient)
	service := newTestService(mockClient, nil)

	mockClient.On("GetSession", mock.Anything, "S404").Return(nil, nil).Once()

	result, err := service.AddTransaction(ctx, domain.AddTransactionRequest{SessionID: "S404", Montant: dec(10), ModePaiement: domain.PaymentModeCarte})

	assert.Nil(t, result)
	assert.True(t, errors.Is(err, customError.ErrSessionNotFound))
	assert.False(t, customError.IsInvalidMutation(err))
	mockClient.AssertExpectations(t)
}

func TestService_PartialPayment_ExceedsRemaining(t *testing.T) {
	ctx := context.Background()
	mockClient := new(mocks.MockLedgerClient)
	service := newTestService(mockClient, nil)

	mockClient.On("GetTransaction", mock.Anything, "T1").Return(rawTransaction(100, 30), nil).Once()

	result, err := service.PartialPayment(ctx, domain.PartialPaymentRequest{
		TransactionID:         "T1",
		MontantSupplementaire: dec(150),
		ModePaiement:          domain.PaymentModeEspeces,
	})

	assert.Nil(t, result)
	require.Error(t, err)
	assert.True(t, customError.IsInvalidMutation(err))
	assert.True(t, errors.Is(err, customError.ErrAmountExceedsRemaining))
	mockClient.AssertExpectations(t)
	mockClient.AssertNotCalled(t, "PartialPayment", mock.Anything, mock.Anything)
}

func TestService_PartialPayment(t *testing.T) {
	ctx := context.Background()
	mockClient := new(mocks.MockLedgerClient)
	service := newTestService(mockClient, nil)

	req := domain.PartialPaymentRequest{TransactionID: "T1", MontantSupplementaire: dec(20), ModePaiement: domain.PaymentModeEspeces}

	mockClient.On("GetTransaction", mock.Anything, "T1").Return(rawTransaction(100, 30), nil).Once()
	mockClient.On("PartialPayment", mock.Anything, req).Return(nil).Once()
	mockClient.On("GetTransaction", mock.Anything, "T1").Return(rawTransaction(100, 50), nil).Once()

	result, err := service.PartialPayment(ctx, req)

	require.NoError(t, err)
	assert.Equal(t, domain.OperationPartialPayment, result.Operation)

	tx, ok := result.UpdatedRecord.(*domain.Transaction)
	require.True(t, ok)
	assert.True(t, tx.MontantPaye.Equal(dec(50)))
	assert.True(t, tx.ResteAPayer.Equal(dec(50)))

	require.NotNil(t, result.PaymentStatus)
	assert.Equal(t, domain.PaymentStatePayePartiel, result.PaymentStatus.Status)
	assert.Equal(t, 50, result.PaymentStatus.PercentagePaid)
	mockClient.AssertExpectations(t)
}

func TestService_TransportErrorPassesThrough(t *testing.T) {
	ctx := context.Background()
	mockClient := new(mocks.MockLedgerClient)
	service := newTestService(mockClient, nil)

	transportErr := errors.New("ledger service unavailable")
	req := domain.MarkAsPaidRequest{TransactionID: "T1", ModePaiement: domain.PaymentModeCarte}

	mockClient.On("GetTransaction", mock.Anything, "T1").Return(rawTransaction(100, 30), nil).Once()
	mockClient.On("MarkAsPaid", mock.Anything, req).Return(transportErr).Once()

	result, err := service.MarkAsPaid(ctx, req)

	assert.Nil(t, result)
	assert.Equal(t, transportErr, err)
	assert.False(t, customError.IsInvalidMutation(err))
	mockClient.AssertExpectations(t)
}

func TestService_GetErrorPassesThrough(t *testing.T) {
	ctx := context.Background()
	mockClient := new(mocks.MockLedgerClient)
	service := newTestService(mockClient, nil)

	transportErr := errors.New("timeout")
	mockClient.On("GetTransaction", mock.Anything, "T1").Return(nil, transportErr).Once()

	_, err := service.EditTransaction(ctx, domain.EditTransactionRequest{TransactionID: "T1"})

	assert.Equal(t, transportErr, err)
	mockClient.AssertExpectations(t)
}

func TestService_EditLockedTransaction(t *testing.T) {
	ctx := context.Background()
	mockClient := new(mocks.MockLedgerClient)
	service := newTestService(mockClient, nil)

	locked := rawTransaction(100, 100)
	locked.StatutTransaction = "validee"
	notes := "oubli"

	mockClient.On("GetTransaction", mock.Anything, "T1").Return(locked, nil).Once()

	_, err := service.EditTransaction(ctx, domain.EditTransactionRequest{TransactionID: "T1", Notes: &notes})

	assert.True(t, errors.Is(err, customError.ErrTransactionLocked))
	mockClient.AssertExpectations(t)
}

func TestService_MarkAsPaid_AlreadyComplete(t *testing.T) {
	ctx := context.Background()
	mockClient := new(mocks.MockLedgerClient)
	service := newTestService(mockClient, nil)

	mockClient.On("GetTransaction", mock.Anything, "T1").Return(rawTransaction(100, 100), nil).Once()

	_, err := service.MarkAsPaid(ctx, domain.MarkAsPaidRequest{TransactionID: "T1", ModePaiement: domain.PaymentModeCarte})

	assert.True(t, errors.Is(err, customError.ErrAlreadyComplete))
	mockClient.AssertExpectations(t)
}

func TestService_InFlight(t *testing.T) {
	ctx := context.Background()
	mockClient := new(mocks.MockLedgerClient)
	guard := inflight.NewMemoryGuard()
	service := newTestService(mockClient, guard)

	release, err := guard.Acquire(ctx, inflight.TransactionKey("T1"))
	require.NoError(t, err)

	_, err = service.MarkAsPaid(ctx, domain.MarkAsPaidRequest{TransactionID: "T1", ModePaiement: domain.PaymentModeCarte})
	assert.True(t, errors.Is(err, customError.ErrMutationInFlight))
	mockClient.AssertNotCalled(t, "GetTransaction", mock.Anything, mock.Anything)

	release()

	mockClient.On("GetTransaction", mock.Anything, "T1").Return(rawTransaction(100, 100), nil).Once()
	_, err = service.MarkAsPaid(ctx, domain.MarkAsPaidRequest{TransactionID: "T1", ModePaiement: domain.PaymentModeCarte})
	assert.True(t, errors.Is(err, customError.ErrAlreadyComplete), "the slot is free again once released")
	mockClient.AssertExpectations(t)
}

func TestService_DeleteTransaction(t *testing.T) {
	ctx := context.Background()
	mockClient := new(mocks.MockLedgerClient)
	service := newTestService(mockClient, nil)

	req := domain.DeleteTransactionRequest{TransactionID: "T1"}

	mockClient.On("GetTransaction", mock.Anything, "T1").Return(rawTransaction(100, 30), nil).Once()
	mockClient.On("DeleteTransaction", mock.Anything, req).Return(nil).Once()
	mockClient.On("GetSession", mock.Anything, "S1").Return(rawSession(100, 0), nil).Once()

	result, err := service.DeleteTransaction(ctx, req)

	require.NoError(t, err)
	_, ok := result.UpdatedRecord.(*domain.Session)
	assert.True(t, ok)
	require.NotNil(t, result.PaymentStatus)
	assert.Equal(t, domain.PaymentStateNonPaye, result.PaymentStatus.Status)
	mockClient.AssertExpectations(t)
}

func TestService_DeleteStandaloneTransaction(t *testing.T) {
	ctx := context.Background()
	mockClient := new(mocks.MockLedgerClient)
	service := newTestService(mockClient, nil)

	standalone := rawTransaction(40, 0)
	standalone.Session = nil
	req := domain.DeleteTransactionRequest{TransactionID: "T1"}

	mockClient.On("GetTransaction", mock.Anything, "T1").Return(standalone, nil).Once()
	mockClient.On("DeleteTransaction", mock.Anything, req).Return(nil).Once()

	result, err := service.DeleteTransaction(ctx, req)

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Nil(t, result.UpdatedRecord)
	assert.Nil(t, result.PaymentStatus)
	mockClient.AssertExpectations(t)
}

func TestService_Apply(t *testing.T) {
	ctx := context.Background()
	mockClient := new(mocks.MockLedgerClient)
	service := newTestService(mockClient, nil)

	mockClient.On("GetTransaction", mock.Anything, "T1").Return(rawTransaction(100, 30), nil).Once()
	mockClient.On("AdjustTotal", mock.Anything, mock.AnythingOfType("domain.AdjustTotalRequest")).Return(nil).Once()
	mockClient.On("GetTransaction", mock.Anything, "T1").Return(rawTransaction(80, 30), nil).Once()

	result, err := service.Apply(ctx, envelope("ADJUST_TOTAL", `{"transactionId":"T1","nouveauMontantTotal":80,"raison":"REMISE_COMMERCIALE"}`))

	require.NoError(t, err)
	assert.Equal(t, domain.OperationAdjustTotal, result.Operation)
	tx := result.UpdatedRecord.(*domain.Transaction)
	assert.True(t, tx.MontantTotal.Equal(dec(80)))
	assert.True(t, tx.ResteAPayer.Equal(dec(50)))
	mockClient.AssertExpectations(t)
}

func TestService_Apply_UnknownOperation(t *testing.T) {
	mockClient := new(mocks.MockLedgerClient)
	service := newTestService(mockClient, nil)

	_, err := service.Apply(context.Background(), envelope("REFUND", `{}`))

	assert.True(t, errors.Is(err, customError.ErrUnknownOperation))
	mockClient.AssertExpectations(t)
}
