package filterset

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts filtering passes. One Metrics can be shared by many filter sets.
type Metrics struct {
	passes  *prometheus.CounterVec
	applied *prometheus.CounterVec
	invalid *prometheus.CounterVec
}

// NewMetrics registers the filtering counters with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		// Filtering passes partitioned by filter set
		passes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "filterset_passes_total",
				Help: "Total number of filtering passes",
			},
			[]string{"filterset"},
		),
		// Filters that narrowed a query
		applied: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "filterset_filters_applied_total",
				Help: "Total number of filters that narrowed a query",
			},
			[]string{"filterset", "filter"},
		),
		// Validation failures partitioned by error code
		invalid: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "filterset_validation_errors_total",
				Help: "Total number of filter values rejected by validation",
			},
			[]string{"filterset", "filter", "code"},
		),
	}
}

func (m *Metrics) pass(set string) {
	if m == nil {
		return
	}
	m.passes.WithLabelValues(set).Inc()
}

func (m *Metrics) apply(set, filter string) {
	if m == nil {
		return
	}
	m.applied.WithLabelValues(set, filter).Inc()
}

func (m *Metrics) reject(set, filter string, errs []FieldError) {
	if m == nil {
		return
	}
	for _, fe := range errs {
		m.invalid.WithLabelValues(set, filter, string(fe.Code)).Inc()
	}
}
