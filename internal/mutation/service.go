package mutation

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/segyhp/session-payment-engine/internal/domain"
	"github.com/segyhp/session-payment-engine/internal/inflight"
	"github.com/segyhp/session-payment-engine/internal/reconciler"
	"github.com/segyhp/session-payment-engine/internal/resolver"
	customError "github.com/segyhp/session-payment-engine/pkg/errors"
)

// Service runs mutations against the ledger service. Each call checks the
// request against freshly fetched state, sends it, then fetches the affected
// record again and runs it through the reconciler and resolver. The status is
// never recomputed locally from the request.
type Service struct {
	client     LedgerClient
	reconciler *reconciler.Reconciler
	resolver   *resolver.Resolver
	checker    *Checker
	guard      inflight.Guard
	logger     *slog.Logger
}

func NewService(
	client LedgerClient,
	rec *reconciler.Reconciler,
	res *resolver.Resolver,
	checker *Checker,
	guard inflight.Guard,
	logger *slog.Logger,
) *Service {
	if guard == nil {
		guard = inflight.NewMemoryGuard()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		client:     client,
		reconciler: rec,
		resolver:   res,
		checker:    checker,
		guard:      guard,
		logger:     logger,
	}
}

// Apply dispatches a decoded envelope to the matching operation.
func (s *Service) Apply(ctx context.Context, req domain.MutationRequest) (*domain.MutationResult, error) {
	typed, err := Decode(req)
	if err != nil {
		return nil, err
	}

	switch r := typed.(type) {
	case *domain.AddTransactionRequest:
		return s.AddTransaction(ctx, *r)
	case *domain.EditTransactionRequest:
		return s.EditTransaction(ctx, *r)
	case *domain.DeleteTransactionRequest:
		return s.DeleteTransaction(ctx, *r)
	case *domain.PartialPaymentRequest:
		return s.PartialPayment(ctx, *r)
	case *domain.MarkAsPaidRequest:
		return s.MarkAsPaid(ctx, *r)
	case *domain.AdjustTotalRequest:
		return s.AdjustTotal(ctx, *r)
	}
	return nil, customError.WrapUnknownOperation(string(req.Operation))
}

// AddTransaction appends a payment to a session ledger
func (s *Service) AddTransaction(ctx context.Context, req domain.AddTransactionRequest) (*domain.MutationResult, error) {
	release, err := s.guard.Acquire(ctx, inflight.SessionKey(req.SessionID))
	if err != nil {
		return nil, err
	}
	defer release()

	// 1. Current state of the session
	session, err := s.loadSession(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	status := s.resolver.Resolve(session, nil)

	// 2. Preconditions
	if err := s.checker.CheckAddTransaction(req, status); err != nil {
		return nil, s.rejected(domain.OperationAddTransaction, req.SessionID, err)
	}

	// 3. Send
	if err := s.client.AddTransaction(ctx, req); err != nil {
		return nil, s.failed(domain.OperationAddTransaction, req.SessionID, err)
	}

	// 4. Re-fetch and resolve
	return s.sessionResult(ctx, domain.OperationAddTransaction, req.SessionID, "Paiement enregistré")
}

// EditTransaction changes amount, mode or notes of an unlocked entry in place
func (s *Service) EditTransaction(ctx context.Context, req domain.EditTransactionRequest) (*domain.MutationResult, error) {
	return s.onTransaction(ctx, domain.OperationEditTransaction, req.TransactionID, "Transaction modifiée",
		func(tx domain.Transaction) error { return s.checker.CheckEditTransaction(req, tx) },
		func() error { return s.client.EditTransaction(ctx, req) },
	)
}

// DeleteTransaction removes an entry. The owning session, when known, is
// returned instead of the deleted record.
func (s *Service) DeleteTransaction(ctx context.Context, req domain.DeleteTransactionRequest) (*domain.MutationResult, error) {
	release, err := s.guard.Acquire(ctx, inflight.TransactionKey(req.TransactionID))
	if err != nil {
		return nil, err
	}
	defer release()

	tx, err := s.loadTransaction(ctx, req.TransactionID)
	if err != nil {
		return nil, err
	}

	if err := s.checker.CheckDeleteTransaction(req, *tx); err != nil {
		return nil, s.rejected(domain.OperationDeleteTransaction, req.TransactionID, err)
	}

	if err := s.client.DeleteTransaction(ctx, req); err != nil {
		return nil, s.failed(domain.OperationDeleteTransaction, req.TransactionID, err)
	}

	if tx.Session != nil && tx.Session.ID != "" {
		return s.sessionResult(ctx, domain.OperationDeleteTransaction, tx.Session.ID, "Transaction supprimée")
	}

	return &domain.MutationResult{
		RequestID: uuid.NewString(),
		Operation: domain.OperationDeleteTransaction,
		Success:   true,
		Message:   "Transaction supprimée",
	}, nil
}

// PartialPayment adds montantSupplementaire to what was already paid
func (s *Service) PartialPayment(ctx context.Context, req domain.PartialPaymentRequest) (*domain.MutationResult, error) {
	return s.onTransaction(ctx, domain.OperationPartialPayment, req.TransactionID, "Paiement partiel enregistré",
		func(tx domain.Transaction) error { return s.checker.CheckPartialPayment(req, tx) },
		func() error { return s.client.PartialPayment(ctx, req) },
	)
}

// MarkAsPaid settles the whole remaining balance in one step
func (s *Service) MarkAsPaid(ctx context.Context, req domain.MarkAsPaidRequest) (*domain.MutationResult, error) {
	return s.onTransaction(ctx, domain.OperationMarkAsPaid, req.TransactionID, "Transaction soldée",
		func(tx domain.Transaction) error { return s.checker.CheckMarkAsPaid(req, tx) },
		func() error { return s.client.MarkAsPaid(ctx, req) },
	)
}

// AdjustTotal replaces the total of a transaction for an audited reason
func (s *Service) AdjustTotal(ctx context.Context, req domain.AdjustTotalRequest) (*domain.MutationResult, error) {
	return s.onTransaction(ctx, domain.OperationAdjustTotal, req.TransactionID, "Montant total ajusté",
		func(tx domain.Transaction) error { return s.checker.CheckAdjustTotal(req, tx) },
		func() error { return s.client.AdjustTotal(ctx, req) },
	)
}

func (s *Service) onTransaction(
	ctx context.Context,
	op domain.Operation,
	transactionID string,
	message string,
	check func(domain.Transaction) error,
	send func() error,
) (*domain.MutationResult, error) {
	release, err := s.guard.Acquire(ctx, inflight.TransactionKey(transactionID))
	if err != nil {
		return nil, err
	}
	defer release()

	tx, err := s.loadTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	if err := check(*tx); err != nil {
		return nil, s.rejected(op, transactionID, err)
	}

	if err := send(); err != nil {
		return nil, s.failed(op, transactionID, err)
	}

	updated, err := s.loadTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	result := &domain.MutationResult{
		RequestID:     uuid.NewString(),
		Operation:     op,
		Success:       true,
		Message:       message,
		UpdatedRecord: updated,
	}
	if updated.Session != nil {
		status := s.resolver.Resolve(updated.Session, nil)
		result.PaymentStatus = &status
	}
	return result, nil
}

func (s *Service) sessionResult(ctx context.Context, op domain.Operation, sessionID, message string) (*domain.MutationResult, error) {
	session, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	status := s.resolver.Resolve(session, nil)

	return &domain.MutationResult{
		RequestID:     uuid.NewString(),
		Operation:     op,
		Success:       true,
		Message:       message,
		UpdatedRecord: session,
		PaymentStatus: &status,
	}, nil
}

func (s *Service) loadSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	raw, err := s.client.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, customError.WrapSessionNotFound(sessionID)
	}
	session := s.reconciler.NormalizeSession(*raw)
	return &session, nil
}

func (s *Service) loadTransaction(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	raw, err := s.client.GetTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, customError.WrapTransactionNotFound(transactionID)
	}
	tx := s.reconciler.NormalizeTransaction(*raw)
	return &tx, nil
}

func (s *Service) rejected(op domain.Operation, recordID string, err error) error {
	s.logger.Info("mutation rejected", "operation", op, "record_id", recordID, "reason", err.Error())
	return err
}

// failed logs transport errors and hands them back untouched.
func (s *Service) failed(op domain.Operation, recordID string, err error) error {
	s.logger.Error("mutation failed", "operation", op, "record_id", recordID, "err", err)
	return err
}
