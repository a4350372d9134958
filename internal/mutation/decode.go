package mutation

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/segyhp/session-payment-engine/internal/domain"
	"github.com/segyhp/session-payment-engine/internal/inflight"
	customError "github.com/segyhp/session-payment-engine/pkg/errors"
)

// Decode turns the generic envelope into the typed request of its operation.
// The returned value is one of the *domain.XxxRequest types.
func Decode(req domain.MutationRequest) (interface{}, error) {
	op := domain.Operation(strings.ToUpper(strings.TrimSpace(string(req.Operation))))

	var target interface{}
	switch op {
	case domain.OperationAddTransaction:
		target = &domain.AddTransactionRequest{}
	case domain.OperationEditTransaction:
		target = &domain.EditTransactionRequest{}
	case domain.OperationDeleteTransaction:
		target = &domain.DeleteTransactionRequest{}
	case domain.OperationPartialPayment:
		target = &domain.PartialPaymentRequest{}
	case domain.OperationMarkAsPaid:
		target = &domain.MarkAsPaidRequest{}
	case domain.OperationAdjustTotal:
		target = &domain.AdjustTotalRequest{}
	default:
		return nil, customError.WrapUnknownOperation(string(req.Operation))
	}

	if len(bytes.TrimSpace(req.Params)) == 0 {
		return nil, customError.WrapInvalidRequest("params", "required")
	}

	dec := json.NewDecoder(bytes.NewReader(req.Params))
	dec.DisallowUnknownFields()
	if err := dec.Decode(target); err != nil {
		return nil, customError.NewBusinessError(customError.ErrCodeInvalidRequest, "invalid params: "+err.Error(), customError.ErrInvalidRequest)
	}

	return target, nil
}

// OperationOf returns the operation a typed request belongs to.
func OperationOf(req interface{}) domain.Operation {
	switch req.(type) {
	case *domain.AddTransactionRequest:
		return domain.OperationAddTransaction
	case *domain.EditTransactionRequest:
		return domain.OperationEditTransaction
	case *domain.DeleteTransactionRequest:
		return domain.OperationDeleteTransaction
	case *domain.PartialPaymentRequest:
		return domain.OperationPartialPayment
	case *domain.MarkAsPaidRequest:
		return domain.OperationMarkAsPaid
	case *domain.AdjustTotalRequest:
		return domain.OperationAdjustTotal
	}
	return ""
}

// GuardKey is the in-flight slot a typed request holds while it is pending.
// Additions lock their session, every other operation its transaction.
func GuardKey(req interface{}) string {
	switch r := req.(type) {
	case *domain.AddTransactionRequest:
		return inflight.SessionKey(r.SessionID)
	case *domain.EditTransactionRequest:
		return inflight.TransactionKey(r.TransactionID)
	case *domain.DeleteTransactionRequest:
		return inflight.TransactionKey(r.TransactionID)
	case *domain.PartialPaymentRequest:
		return inflight.TransactionKey(r.TransactionID)
	case *domain.MarkAsPaidRequest:
		return inflight.TransactionKey(r.TransactionID)
	case *domain.AdjustTotalRequest:
		return inflight.TransactionKey(r.TransactionID)
	}
	return ""
}
