package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/segyhp/session-payment-engine/internal/domain"
	"github.com/segyhp/session-payment-engine/internal/inflight"
	"github.com/segyhp/session-payment-engine/internal/mutation"
	"github.com/segyhp/session-payment-engine/internal/reconciler"
	"github.com/segyhp/session-payment-engine/internal/repository"
	"github.com/segyhp/session-payment-engine/internal/resolver"
	customError "github.com/segyhp/session-payment-engine/pkg/errors"
	"github.com/segyhp/session-payment-engine/pkg/response"
)

// PaymentHandler exposes the reconciler, the resolver and the mutation checker.
type PaymentHandler struct {
	reconciler  *reconciler.Reconciler
	resolver    *resolver.Resolver
	checker     *mutation.Checker
	guard       inflight.Guard
	corrections repository.CorrectionRepository
	logger      *slog.Logger
	now         func() time.Time
}

// NewPaymentHandler wires the handler. corrections may be nil, in which case
// corrections are only reported to the reconciler's own observer. guard may be
// nil, in which case mutation checks ignore pending mutations.
func NewPaymentHandler(
	rec *reconciler.Reconciler,
	res *resolver.Resolver,
	checker *mutation.Checker,
	guard inflight.Guard,
	corrections repository.CorrectionRepository,
	logger *slog.Logger,
) *PaymentHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PaymentHandler{
		reconciler:  rec,
		resolver:    res,
		checker:     checker,
		guard:       guard,
		corrections: corrections,
		logger:      logger,
		now:         time.Now,
	}
}

type PaymentStatusRequest struct {
	domain.RawSession
	// Ledger overrides the transactions embedded in the session when set.
	Ledger []domain.RawTransaction `json:"ledger,omitempty"`
}

type PaymentStatusResponse struct {
	Session       domain.Session       `json:"session"`
	PaymentStatus domain.PaymentStatus `json:"paymentStatus"`
	Corrections   int                  `json:"corrections"`
}

type MutationCheckRequest struct {
	domain.MutationRequest
	Session     *domain.RawSession     `json:"session,omitempty"`
	Transaction *domain.RawTransaction `json:"transaction,omitempty"`
}

type MutationCheckResponse struct {
	Allowed       bool                  `json:"allowed"`
	Operation     domain.Operation      `json:"operation"`
	PaymentStatus *domain.PaymentStatus `json:"paymentStatus,omitempty"`
}

// ResolvePaymentStatus normalizes a session payload and returns its payment status
func (h *PaymentHandler) ResolvePaymentStatus(w http.ResponseWriter, r *http.Request) {
	var req PaymentStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid session payload", err)
		return
	}

	collector := &reconciler.Collector{}
	rec := h.reconciler.With(collector)

	// The session is reconciled against the same ledger the status is
	// resolved from, so both report the same remaining balance.
	raw := req.RawSession
	if req.Ledger != nil {
		raw.Transactions = req.Ledger
	}
	session := rec.NormalizeSession(raw)

	status := h.resolver.Resolve(&session, nil)
	corrections := collector.Corrections()
	h.recordCorrections(r.Context(), corrections)

	response.Success(w, PaymentStatusResponse{
		Session:       session,
		PaymentStatus: status,
		Corrections:   len(corrections),
	})
}

// NormalizeTransaction returns the canonical form of a transaction payload
func (h *PaymentHandler) NormalizeTransaction(w http.ResponseWriter, r *http.Request) {
	var raw domain.RawTransaction
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		response.BadRequest(w, "Invalid transaction payload", err)
		return
	}

	collector := &reconciler.Collector{}
	tx := h.reconciler.With(collector).NormalizeTransaction(raw)
	h.recordCorrections(r.Context(), collector.Corrections())

	response.Success(w, tx)
}

// CheckMutation tells whether a mutation may be sent given the current state
// of the record it targets
func (h *PaymentHandler) CheckMutation(w http.ResponseWriter, r *http.Request) {
	var req MutationCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid mutation payload", err)
		return
	}

	typed, err := mutation.Decode(req.MutationRequest)
	if err != nil {
		h.writeError(w, err)
		return
	}
	op := mutation.OperationOf(typed)
	result := MutationCheckResponse{Operation: op}

	if op == domain.OperationAddTransaction {
		if req.Session == nil {
			response.BadRequest(w, "session is required for "+string(op), nil)
			return
		}
		session := h.reconciler.NormalizeSession(*req.Session)
		status := h.resolver.Resolve(&session, nil)
		result.PaymentStatus = &status

		if err := h.checker.CheckAddTransaction(*typed.(*domain.AddTransactionRequest), status); err != nil {
			h.writeError(w, err)
			return
		}
		if err := h.ensureIdle(r.Context(), typed); err != nil {
			h.writeError(w, err)
			return
		}
		result.Allowed = true
		response.Success(w, result)
		return
	}

	if req.Transaction == nil {
		response.BadRequest(w, "transaction is required for "+string(op), nil)
		return
	}
	tx := h.reconciler.NormalizeTransaction(*req.Transaction)
	if tx.Session != nil {
		status := h.resolver.Resolve(tx.Session, nil)
		result.PaymentStatus = &status
	}

	switch t := typed.(type) {
	case *domain.EditTransactionRequest:
		err = h.checker.CheckEditTransaction(*t, tx)
	case *domain.DeleteTransactionRequest:
		err = h.checker.CheckDeleteTransaction(*t, tx)
	case *domain.PartialPaymentRequest:
		err = h.checker.CheckPartialPayment(*t, tx)
	case *domain.MarkAsPaidRequest:
		err = h.checker.CheckMarkAsPaid(*t, tx)
	case *domain.AdjustTotalRequest:
		err = h.checker.CheckAdjustTotal(*t, tx)
	}
	if err == nil {
		err = h.ensureIdle(r.Context(), typed)
	}
	if err != nil {
		h.writeError(w, err)
		return
	}

	result.Allowed = true
	response.Success(w, result)
}

// ensureIdle fails with ErrMutationInFlight while another mutation holds the
// slot of the targeted record. The slot is released right away.
func (h *PaymentHandler) ensureIdle(ctx context.Context, typed interface{}) error {
	if h.guard == nil {
		return nil
	}
	release, err := h.guard.Acquire(ctx, mutation.GuardKey(typed))
	if err != nil {
		return err
	}
	release()
	return nil
}

func (h *PaymentHandler) recordCorrections(ctx context.Context, corrections []domain.Correction) {
	if h.corrections == nil || len(corrections) == 0 {
		return
	}
	if err := h.corrections.CreateBatch(ctx, corrections, h.now()); err != nil {
		h.logger.Error("failed to store corrections", "count", len(corrections), "err", err)
	}
}

func (h *PaymentHandler) writeError(w http.ResponseWriter, err error) {
	var be *customError.BusinessError
	if !errors.As(err, &be) {
		response.InternalServerError(w, "Unexpected error", err)
		return
	}

	switch {
	case errors.Is(err, customError.ErrInvalidRequest), errors.Is(err, customError.ErrUnknownOperation):
		response.Business(w, http.StatusBadRequest, be)
	case customError.IsInvalidMutation(err):
		response.Business(w, http.StatusUnprocessableEntity, be)
	case errors.Is(err, customError.ErrMutationInFlight):
		response.Business(w, http.StatusConflict, be)
	case errors.Is(err, customError.ErrSessionNotFound), errors.Is(err, customError.ErrTransactionNotFound):
		response.Business(w, http.StatusNotFound, be)
	default:
		response.Business(w, http.StatusInternalServerError, be)
	}
}
