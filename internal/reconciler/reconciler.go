// Package reconciler turns the heterogeneous session and transaction payloads
// returned by the backend into one canonical shape and repairs the remaining
// balance when it disagrees with the total and paid amounts.
//
// Every function here is pure: inputs are never mutated and nothing is
// written anywhere except through the injected Observer.
package reconciler

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/segyhp/session-payment-engine/internal/domain"
	"github.com/segyhp/session-payment-engine/pkg/utils"
)

const fieldResteAPayer = "resteAPayer"

type Reconciler struct {
	preferLedgerSum bool
	observer        Observer
	now             func() time.Time
}

// New creates a reconciler. preferLedgerSum must match the resolver setting so
// that both derive the paid amount of a session the same way.
func New(preferLedgerSum bool, observer Observer) *Reconciler {
	if observer == nil {
		observer = NopObserver
	}
	return &Reconciler{
		preferLedgerSum: preferLedgerSum,
		observer:        observer,
		now:             time.Now,
	}
}

// With returns a copy of the reconciler that also notifies obs.
func (r *Reconciler) With(obs Observer) *Reconciler {
	return &Reconciler{
		preferLedgerSum: r.preferLedgerSum,
		observer:        MultiObserver{r.observer, obs},
		now:             r.now,
	}
}

// NormalizeTransaction coalesces the amount fields of a transaction payload,
// parses them and reconciles the remaining balance.
func (r *Reconciler) NormalizeTransaction(raw domain.RawTransaction) domain.Transaction {
	tx := domain.Transaction{
		ID:                strings.TrimSpace(string(raw.ID)),
		Montant:           firstAmount(raw.Montant, raw.MontantTTC, raw.MontantTotal),
		MontantTotal:      firstAmount(raw.MontantTTC, raw.MontantTotal),
		MontantPaye:       firstAmount(raw.MontantPaye),
		ModePaiement:      domain.PaymentMode(normalizeEnum(raw.ModePaiement)),
		DateCreation:      utils.ParseTimestamp(firstNonEmpty(raw.DateCreation, raw.CreatedAt)),
		StatutTransaction: domain.TransactionStatus(normalizeEnum(raw.StatutTransaction)),
		Client:            cloneRaw(raw.Client),
	}
	if raw.Notes != nil {
		tx.Notes = *raw.Notes
	}
	if raw.Session != nil {
		s := r.NormalizeSession(*raw.Session)
		tx.Session = &s
	}

	return r.reconcileTransaction(tx, reportedAmount(raw.ResteAPayer))
}

// NormalizeSession normalizes a session payload together with its embedded ledger.
func (r *Reconciler) NormalizeSession(raw domain.RawSession) domain.Session {
	s := domain.Session{
		ID:             strings.TrimSpace(string(raw.ID)),
		MontantTotal:   firstAmount(raw.MontantTotal),
		Statut:         domain.SessionStatus(normalizeEnum(raw.Statut)),
		DateHeureDebut: utils.ParseTimestamp(raw.DateHeureDebut),
		Poste:          cloneRaw(raw.Poste),
		Client:         cloneRaw(raw.Client),
	}

	// A montantPaye that does not parse is as good as a missing one.
	if paid := reportedAmount(raw.MontantPaye); paid != nil {
		p := utils.NonNegative(*paid)
		s.MontantPaye = &p
	}

	if len(raw.Transactions) > 0 {
		s.Transactions = make([]domain.Transaction, 0, len(raw.Transactions))
		for _, rt := range raw.Transactions {
			s.Transactions = append(s.Transactions, r.NormalizeTransaction(rt))
		}
	}

	return r.reconcileSession(s, reportedAmount(raw.ResteAPayer))
}

// ReconcileSession re-runs the balance check on an already normalized session.
// Applying it to its own output changes nothing.
func (r *Reconciler) ReconcileSession(s domain.Session) domain.Session {
	out := s
	if s.MontantPaye != nil {
		p := *s.MontantPaye
		out.MontantPaye = &p
	}
	if len(s.Transactions) > 0 {
		out.Transactions = make([]domain.Transaction, 0, len(s.Transactions))
		for _, tx := range s.Transactions {
			out.Transactions = append(out.Transactions, r.ReconcileTransaction(tx))
		}
	}
	out.MontantTotal = utils.NonNegative(s.MontantTotal)
	reported := s.ResteAPayer
	return r.reconcileSession(out, &reported)
}

// ReconcileTransaction re-runs the balance check on an already normalized transaction.
func (r *Reconciler) ReconcileTransaction(tx domain.Transaction) domain.Transaction {
	out := tx
	out.Montant = utils.NonNegative(tx.Montant)
	out.MontantTotal = utils.NonNegative(tx.MontantTotal)
	out.MontantPaye = utils.NonNegative(tx.MontantPaye)
	if tx.Session != nil {
		s := r.ReconcileSession(*tx.Session)
		out.Session = &s
	}
	reported := tx.ResteAPayer
	return r.reconcileTransaction(out, &reported)
}

func (r *Reconciler) reconcileTransaction(tx domain.Transaction, reported *decimal.Decimal) domain.Transaction {
	computed := utils.Remaining(tx.MontantTotal, tx.MontantPaye)
	tx.ResteAPayer = r.settle(domain.RecordKindTransaction, tx.ID, reported, computed)
	tx.EstComplete = isComplete(tx.MontantTotal, tx.ResteAPayer)
	return tx
}

func (r *Reconciler) reconcileSession(s domain.Session, reported *decimal.Decimal) domain.Session {
	paid := s.PaidAmount(s.Transactions, r.preferLedgerSum)
	computed := utils.Remaining(s.MontantTotal, paid)
	s.ResteAPayer = r.settle(domain.RecordKindSession, s.ID, reported, computed)
	s.EstComplete = isComplete(s.MontantTotal, s.ResteAPayer)
	return s
}

// settle picks the remaining balance to keep. The backend value is trusted
// while it stays within tolerance of the computed one, since it may carry
// discounts the other fields do not show.
func (r *Reconciler) settle(kind, id string, reported *decimal.Decimal, computed decimal.Decimal) decimal.Decimal {
	if reported == nil {
		return computed
	}
	if utils.WithinTolerance(*reported, computed, domain.ReconcileTolerance) {
		return utils.NonNegative(*reported)
	}

	r.observer.OnCorrection(domain.Correction{
		RecordKind: kind,
		RecordID:   id,
		Field:      fieldResteAPayer,
		Reported:   *reported,
		Computed:   computed,
		DetectedAt: r.now().UTC(),
	})
	return computed
}

// A zero total is complete: nothing is owed.
func isComplete(total, remaining decimal.Decimal) bool {
	if total.IsZero() {
		return true
	}
	return remaining.LessThanOrEqual(domain.ReconcileTolerance)
}

// firstAmount returns the first parseable amount, clamped at zero.
func firstAmount(candidates ...*domain.RawAmount) decimal.Decimal {
	for _, c := range candidates {
		if c != nil && c.Valid {
			return utils.NonNegative(c.Value)
		}
	}
	return decimal.Zero
}

func reportedAmount(a *domain.RawAmount) *decimal.Decimal {
	if a == nil || !a.Valid {
		return nil
	}
	v := a.Value
	return &v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func normalizeEnum(v domain.FlexString) string {
	return strings.ToUpper(strings.TrimSpace(string(v)))
}

func cloneRaw(m json.RawMessage) json.RawMessage {
	if len(m) == 0 {
		return nil
	}
	out := make(json.RawMessage, len(m))
	copy(out, m)
	return out
}
