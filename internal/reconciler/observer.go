package reconciler

import (
	"log/slog"
	"sync"

	"github.com/segyhp/session-payment-engine/internal/domain"
)

// Observer is told about every correction the reconciler makes. Corrections
// are never errors; observers exist to surface upstream bugs.
type Observer interface {
	OnCorrection(c domain.Correction)
}

type nopObserver struct{}

func (nopObserver) OnCorrection(domain.Correction) {}

// NopObserver discards corrections.
var NopObserver Observer = nopObserver{}

// LogObserver writes one warning per correction.
type LogObserver struct {
	Logger *slog.Logger
}

func NewLogObserver(logger *slog.Logger) *LogObserver {
	return &LogObserver{Logger: logger}
}

func (o *LogObserver) OnCorrection(c domain.Correction) {
	o.Logger.Warn("resteAPayer corrected",
		"record_kind", c.RecordKind,
		"record_id", c.RecordID,
		"reported", c.Reported.String(),
		"computed", c.Computed.String(),
	)
}

// Collector keeps corrections in memory so they can be stored after the
// request is served.
type Collector struct {
	mu          sync.Mutex
	corrections []domain.Correction
}

func (c *Collector) OnCorrection(corr domain.Correction) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.corrections = append(c.corrections, corr)
}

// Corrections returns a copy of what was collected so far.
func (c *Collector) Corrections() []domain.Correction {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.Correction, len(c.corrections))
	copy(out, c.corrections)
	return out
}

// MultiObserver fans corrections out to several observers.
type MultiObserver []Observer

func (m MultiObserver) OnCorrection(c domain.Correction) {
	for _, o := range m {
		if o != nil {
			o.OnCorrection(c)
		}
	}
}
