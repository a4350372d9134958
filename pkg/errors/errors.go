package errors

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Domain errors
var (
	// ErrInvalidMutationRequest is the category every rejected mutation belongs to.
	ErrInvalidMutationRequest = errors.New("invalid mutation request")

	ErrInvalidRequest          = fmt.Errorf("%w: request validation failed", ErrInvalidMutationRequest)
	ErrUnknownOperation        = fmt.Errorf("%w: unknown operation", ErrInvalidMutationRequest)
	ErrAmountNotPositive       = fmt.Errorf("%w: amount must be positive", ErrInvalidMutationRequest)
	ErrAmountExceedsRemaining  = fmt.Errorf("%w: amount exceeds remaining balance", ErrInvalidMutationRequest)
	ErrSessionAlreadyPaid      = fmt.Errorf("%w: session is already fully paid", ErrInvalidMutationRequest)
	ErrTransactionLocked       = fmt.Errorf("%w: transaction is locked", ErrInvalidMutationRequest)
	ErrAlreadyComplete         = fmt.Errorf("%w: nothing left to pay", ErrInvalidMutationRequest)
	ErrInvalidAdjustmentReason = fmt.Errorf("%w: invalid adjustment reason", ErrInvalidMutationRequest)
	ErrPaymentStatusUnknown    = fmt.Errorf("%w: payment status unknown", ErrInvalidMutationRequest)

	ErrSessionNotFound     = errors.New("session not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrMutationInFlight    = errors.New("a mutation is already in flight for this record")
)

// BusinessError represents a business logic error
type BusinessError struct {
	Code    string
	Message string
	Err     error
	Details map[string]string
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// WithDetail attaches a key/value the caller can use to correct its input
func (e *BusinessError) WithDetail(key, value string) *BusinessError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// Error codes
const (
	ErrCodeInvalidRequest          = "INVALID_REQUEST"
	ErrCodeUnknownOperation        = "UNKNOWN_OPERATION"
	ErrCodeAmountNotPositive       = "AMOUNT_NOT_POSITIVE"
	ErrCodeAmountExceedsRemaining  = "AMOUNT_EXCEEDS_REMAINING"
	ErrCodeSessionAlreadyPaid      = "SESSION_ALREADY_PAID"
	ErrCodeTransactionLocked       = "TRANSACTION_LOCKED"
	ErrCodeAlreadyComplete         = "ALREADY_COMPLETE"
	ErrCodeInvalidAdjustmentReason = "INVALID_ADJUSTMENT_REASON"
	ErrCodePaymentStatusUnknown    = "PAYMENT_STATUS_UNKNOWN"
	ErrCodeSessionNotFound         = "SESSION_NOT_FOUND"
	ErrCodeTransactionNotFound     = "TRANSACTION_NOT_FOUND"
	ErrCodeMutationInFlight        = "MUTATION_IN_FLIGHT"
	ErrCodeDatabaseError           = "DATABASE_ERROR"
	ErrCodeCacheError              = "CACHE_ERROR"
)

// Detail keys
const (
	DetailResteAPayer    = "resteAPayer"
	DetailMontantDemande = "montantDemande"
	DetailStatut         = "statut"
	DetailField          = "field"
)

// Wrap common errors with business context
func WrapInvalidRequest(field, rule string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidRequest,
		fmt.Sprintf("Field %s failed on rule %s", field, rule),
		ErrInvalidRequest,
	).WithDetail(DetailField, field)
}

func WrapUnknownOperation(op string) *BusinessError {
	return NewBusinessError(
		ErrCodeUnknownOperation,
		fmt.Sprintf("Operation %q is not supported", op),
		ErrUnknownOperation,
	)
}

func WrapAmountNotPositive(amount decimal.Decimal) *BusinessError {
	return NewBusinessError(
		ErrCodeAmountNotPositive,
		fmt.Sprintf("Amount %s must be greater than 0", amount.StringFixed(2)),
		ErrAmountNotPositive,
	).WithDetail(DetailMontantDemande, amount.StringFixed(2))
}

func WrapAmountExceedsRemaining(requested, remaining decimal.Decimal) *BusinessError {
	return NewBusinessError(
		ErrCodeAmountExceedsRemaining,
		fmt.Sprintf("Amount %s exceeds remaining balance %s", requested.StringFixed(2), remaining.StringFixed(2)),
		ErrAmountExceedsRemaining,
	).WithDetail(DetailMontantDemande, requested.StringFixed(2)).
		WithDetail(DetailResteAPayer, remaining.StringFixed(2))
}

func WrapSessionAlreadyPaid(sessionID string) *BusinessError {
	return NewBusinessError(
		ErrCodeSessionAlreadyPaid,
		fmt.Sprintf("Session %s is already fully paid", sessionID),
		ErrSessionAlreadyPaid,
	).WithDetail(DetailResteAPayer, "0.00")
}

func WrapTransactionLocked(transactionID, status string) *BusinessError {
	return NewBusinessError(
		ErrCodeTransactionLocked,
		fmt.Sprintf("Transaction %s is %s and can no longer be edited", transactionID, status),
		ErrTransactionLocked,
	).WithDetail(DetailStatut, status)
}

func WrapAlreadyComplete(transactionID string) *BusinessError {
	return NewBusinessError(
		ErrCodeAlreadyComplete,
		fmt.Sprintf("Transaction %s has nothing left to pay", transactionID),
		ErrAlreadyComplete,
	).WithDetail(DetailResteAPayer, "0.00")
}

func WrapInvalidAdjustmentReason(reason string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidAdjustmentReason,
		fmt.Sprintf("Adjustment reason %q is missing or not allowed", reason),
		ErrInvalidAdjustmentReason,
	)
}

func WrapPaymentStatusUnknown(recordID string) *BusinessError {
	return NewBusinessError(
		ErrCodePaymentStatusUnknown,
		fmt.Sprintf("Payment status of %s cannot be determined", recordID),
		ErrPaymentStatusUnknown,
	)
}

func WrapSessionNotFound(sessionID string) *BusinessError {
	return NewBusinessError(
		ErrCodeSessionNotFound,
		fmt.Sprintf("Session with ID %s not found", sessionID),
		ErrSessionNotFound,
	)
}

func WrapTransactionNotFound(transactionID string) *BusinessError {
	return NewBusinessError(
		ErrCodeTransactionNotFound,
		fmt.Sprintf("Transaction with ID %s not found", transactionID),
		ErrTransactionNotFound,
	)
}

func WrapMutationInFlight(key string) *BusinessError {
	return NewBusinessError(
		ErrCodeMutationInFlight,
		fmt.Sprintf("A mutation on %s is still pending", key),
		ErrMutationInFlight,
	)
}

func WrapDatabaseError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeDatabaseError,
		"database operation failed",
		err,
	)
}

func WrapCacheError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeCacheError,
		"Cache operation failed",
		err,
	)
}

// IsInvalidMutation reports whether err is a rejected mutation request
func IsInvalidMutation(err error) bool {
	return errors.Is(err, ErrInvalidMutationRequest)
}
