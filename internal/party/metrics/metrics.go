package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks party registry writes.
type Metrics struct {
	PartiesRegistered  *prometheus.CounterVec
	PartiesDeactivated *prometheus.CounterVec
}

// New registers the party metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		PartiesRegistered: f.NewCounterVec(prometheus.CounterOpts{
			Name: "contractdesk_parties_registered_total",
			Help: "Total number of parties registered, by kind",
		}, []string{"kind"}),
		PartiesDeactivated: f.NewCounterVec(prometheus.CounterOpts{
			Name: "contractdesk_parties_deactivated_total",
			Help: "Total number of parties deactivated, by kind",
		}, []string{"kind"}),
	}
}

func (m *Metrics) IncrementRegistered(kind string) {
	m.PartiesRegistered.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncrementDeactivated(kind string) {
	m.PartiesDeactivated.WithLabelValues(kind).Inc()
}
