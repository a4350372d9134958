// Package resolver derives the payment status of a session from the session
// and its reconciled ledger. The result decides what the caller may do next:
// close the session, collect the remainder, or ask for the full payment.
package resolver

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/segyhp/session-payment-engine/internal/domain"
	"github.com/segyhp/session-payment-engine/pkg/utils"
)

// DefaultPaidAtStartWindow is how close to the session start the first
// payment must be to count as collected up-front.
const DefaultPaidAtStartWindow = 5 * time.Minute

type Options struct {
	// PreferLedgerSum makes the sum of ledger entries win over the session's
	// own montantPaye whenever a ledger is present.
	PreferLedgerSum   bool
	PaidAtStartWindow time.Duration
}

func DefaultOptions() Options {
	return Options{
		PreferLedgerSum:   true,
		PaidAtStartWindow: DefaultPaidAtStartWindow,
	}
}

type Resolver struct {
	opts Options
}

func New(opts Options) *Resolver {
	if opts.PaidAtStartWindow <= 0 {
		opts.PaidAtStartWindow = DefaultPaidAtStartWindow
	}
	return &Resolver{opts: opts}
}

// Resolve computes the PaymentStatus of session. ledger is the session's
// transaction list; when nil the transactions embedded in the session are used.
// A nil session yields the UNKNOWN status instead of an error.
func (r *Resolver) Resolve(session *domain.Session, ledger []domain.Transaction) domain.PaymentStatus {
	if session == nil {
		return domain.UnknownPaymentStatus()
	}
	if ledger == nil {
		ledger = session.Transactions
	}

	// 1. Total owed
	total := utils.NonNegative(session.MontantTotal)

	// 2. Paid so far
	paid := utils.NonNegative(session.PaidAmount(ledger, r.opts.PreferLedgerSum))

	// 3. Remaining
	remaining := utils.Remaining(total, paid)

	// 4. Classification
	state := classify(total, paid)

	status := domain.PaymentStatus{
		MontantTotal:    total,
		MontantPaye:     paid,
		ResteAPayer:     remaining,
		Status:          state,
		ActionRequired:  actionFor(state),
		PercentagePaid:  utils.PercentagePaid(paid, total),
		IsFree:          state == domain.PaymentStateGratuit,
		IsPartiallyPaid: state == domain.PaymentStatePayePartiel,
		IsNotPaid:       state == domain.PaymentStateNonPaye,
	}
	status.IsPaid = state == domain.PaymentStateGratuit || state == domain.PaymentStatePayeComplet
	status.CanTerminate = status.ActionRequired == domain.ActionTerminerDirectement
	status.PaidAtStart = r.paidAtStart(session, ledger, total, state)
	status.Message = message(state, paid, total)

	return status
}

func classify(total, paid decimal.Decimal) domain.PaymentState {
	switch {
	case total.IsZero():
		return domain.PaymentStateGratuit
	case paid.GreaterThanOrEqual(total):
		return domain.PaymentStatePayeComplet
	case paid.IsPositive():
		return domain.PaymentStatePayePartiel
	default:
		return domain.PaymentStateNonPaye
	}
}

func actionFor(state domain.PaymentState) domain.PaymentAction {
	switch state {
	case domain.PaymentStateGratuit, domain.PaymentStatePayeComplet:
		return domain.ActionTerminerDirectement
	case domain.PaymentStatePayePartiel:
		return domain.ActionCompleterPaiement
	case domain.PaymentStateNonPaye:
		return domain.ActionDemanderPaiement
	}
	return domain.ActionNone
}

// paidAtStart is a heuristic. A positive total with no payment detail at all
// is read as a payment collected before per-transaction tracking existed,
// which also matches a session that was simply never billed.
func (r *Resolver) paidAtStart(session *domain.Session, ledger []domain.Transaction, total decimal.Decimal, state domain.PaymentState) bool {
	if total.IsPositive() && !session.HasPaymentDetails(ledger) {
		return true
	}

	if first, ok := firstPaymentTime(ledger); ok && !session.DateHeureDebut.IsZero() {
		if utils.AbsDuration(first, session.DateHeureDebut) <= r.opts.PaidAtStartWindow {
			return true
		}
	}

	return state == domain.PaymentStatePayeComplet
}

// firstPaymentTime returns the earliest timestamp in the ledger. Entries are
// kept in arrival order, which is not always chronological.
func firstPaymentTime(ledger []domain.Transaction) (time.Time, bool) {
	var first time.Time
	for _, tx := range ledger {
		if tx.DateCreation.IsZero() {
			continue
		}
		if first.IsZero() || tx.DateCreation.Before(first) {
			first = tx.DateCreation
		}
	}
	return first, !first.IsZero()
}

func message(state domain.PaymentState, paid, total decimal.Decimal) string {
	switch state {
	case domain.PaymentStateGratuit:
		return "Session gratuite"
	case domain.PaymentStatePayeComplet:
		return "Payé intégralement"
	case domain.PaymentStatePayePartiel:
		return fmt.Sprintf("Paiement partiel : %s / %s", paid.StringFixed(2), total.StringFixed(2))
	case domain.PaymentStateNonPaye:
		return "Non payé"
	}
	return "Données insuffisantes"
}
