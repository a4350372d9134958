package mutation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/segyhp/session-payment-engine/internal/domain"
	customError "github.com/segyhp/session-payment-engine/pkg/errors"
)

// NewValidator returns a validator that understands decimal.Decimal fields,
// so that numeric tags such as gt=0 apply to them.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	return v
}

// Checker verifies mutation requests against the current state of the record
// they target. It never talks to the ledger service.
type Checker struct {
	validate *validator.Validate
	// enforceRemaining rejects new session payments above the remaining balance.
	enforceRemaining bool
}

func NewChecker(validate *validator.Validate, enforceRemaining bool) *Checker {
	if validate == nil {
		validate = NewValidator()
	}
	return &Checker{
		validate:         validate,
		enforceRemaining: enforceRemaining,
	}
}

// CheckAddTransaction validates a new ledger entry for a session whose
// payment status is status.
func (c *Checker) CheckAddTransaction(req domain.AddTransactionRequest, status domain.PaymentStatus) error {
	if err := c.validateStruct(req, req.Montant); err != nil {
		return err
	}

	switch status.Status {
	case domain.PaymentStateUnknown:
		return customError.WrapPaymentStatusUnknown(req.SessionID)
	case domain.PaymentStatePayeComplet:
		return customError.WrapSessionAlreadyPaid(req.SessionID)
	}

	if c.enforceRemaining && req.Montant.GreaterThan(status.ResteAPayer) {
		return customError.WrapAmountExceedsRemaining(req.Montant, status.ResteAPayer)
	}

	return nil
}

func (c *Checker) CheckEditTransaction(req domain.EditTransactionRequest, tx domain.Transaction) error {
	amount := decimal.Zero
	if req.Montant != nil {
		amount = *req.Montant
	}
	if err := c.validateStruct(req, amount); err != nil {
		return err
	}

	if tx.IsLocked() {
		return customError.WrapTransactionLocked(tx.ID, string(tx.StatutTransaction))
	}
	return nil
}

func (c *Checker) CheckDeleteTransaction(req domain.DeleteTransactionRequest, tx domain.Transaction) error {
	return c.validateStruct(req, decimal.Zero)
}

// CheckPartialPayment requires 0 < montantSupplementaire <= resteAPayer.
func (c *Checker) CheckPartialPayment(req domain.PartialPaymentRequest, tx domain.Transaction) error {
	if err := c.validateStruct(req, req.MontantSupplementaire); err != nil {
		return err
	}

	if req.MontantSupplementaire.GreaterThan(tx.ResteAPayer) {
		return customError.WrapAmountExceedsRemaining(req.MontantSupplementaire, tx.ResteAPayer)
	}
	return nil
}

func (c *Checker) CheckMarkAsPaid(req domain.MarkAsPaidRequest, tx domain.Transaction) error {
	if err := c.validateStruct(req, decimal.Zero); err != nil {
		return err
	}

	if !tx.ResteAPayer.IsPositive() {
		return customError.WrapAlreadyComplete(tx.ID)
	}
	return nil
}

// CheckAdjustTotal only checks the request itself: adjusting a total is
// allowed in any payment state but must carry a known reason.
func (c *Checker) CheckAdjustTotal(req domain.AdjustTotalRequest, tx domain.Transaction) error {
	return c.validateStruct(req, req.NouveauMontantTotal)
}

// validateStruct runs the struct tags and maps the first failure onto the
// matching business error. amount is the request's amount, for error details.
func (c *Checker) validateStruct(req interface{}, amount decimal.Decimal) error {
	err := c.validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return customError.NewBusinessError(customError.ErrCodeInvalidRequest, err.Error(), customError.ErrInvalidRequest)
	}

	fe := verrs[0]
	switch {
	case fe.Field() == "Raison":
		return customError.WrapInvalidAdjustmentReason(fmt.Sprint(fe.Value()))
	case fe.Field() == "Commentaire" && fe.Tag() == "required_if":
		// AUTRE is only accepted with an explanation.
		return customError.WrapInvalidAdjustmentReason(string(domain.ReasonAutre))
	case fe.Tag() == "gt" && strings.HasPrefix(fe.Field(), "Montant"):
		return customError.WrapAmountNotPositive(amount)
	}
	return customError.WrapInvalidRequest(fe.Field(), fe.Tag())
}
