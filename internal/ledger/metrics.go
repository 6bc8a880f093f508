package ledger

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts ledger operations by outcome. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	contacts   prometheus.Counter
}

// NewMetrics registers the ledger collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		operations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "debtbook",
			Subsystem: "ledger",
			Name:      "operations_total",
			Help:      "Total ledger operations by operation and result.",
		}, []string{"op", "result"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "debtbook",
			Subsystem: "ledger",
			Name:      "operation_duration_seconds",
			Help:      "Duration of ledger units of work.",
			Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"op"}),
		contacts: f.NewCounter(prometheus.CounterOpts{
			Namespace: "debtbook",
			Subsystem: "ledger",
			Name:      "contacts_created_total",
			Help:      "Total contacts created by phone resolution.",
		}),
	}
}

func (m *Metrics) observe(op string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(op, errorClass(err)).Inc()
	m.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (m *Metrics) contactCreated() {
	if m == nil {
		return
	}
	m.contacts.Inc()
}

// errorClass maps an error onto a low-cardinality label.
func errorClass(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrInvalidArgument):
		return "invalid"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrDeletionForbidden):
		return "forbidden"
	case errors.Is(err, ErrAlreadySettled):
		return "settled"
	case errors.Is(err, ErrConflict):
		return "conflict"
	default:
		return "error"
	}
}
