package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks contract writes.
type Metrics struct {
	ContractsCreated  prometheus.Counter
	ContractsUpdated  prometheus.Counter
	StatusTransitions *prometheus.CounterVec
	ContractsPurged   prometheus.Counter
}

// New registers the contract metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ContractsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "contractdesk_contracts_created_total",
			Help: "Total number of contracts created",
		}),
		ContractsUpdated: f.NewCounter(prometheus.CounterOpts{
			Name: "contractdesk_contracts_updated_total",
			Help: "Total number of contract field updates",
		}),
		StatusTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "contractdesk_contract_status_transitions_total",
			Help: "Total number of contract status transitions, by source and target",
		}, []string{"from", "to"}),
		ContractsPurged: f.NewCounter(prometheus.CounterOpts{
			Name: "contractdesk_contracts_purged_total",
			Help: "Total number of contracts hard-deleted by administrators",
		}),
	}
}

func (m *Metrics) IncrementCreated() {
	m.ContractsCreated.Inc()
}

func (m *Metrics) IncrementUpdated() {
	m.ContractsUpdated.Inc()
}

func (m *Metrics) IncrementTransition(from, to string) {
	m.StatusTransitions.WithLabelValues(from, to).Inc()
}

func (m *Metrics) IncrementPurged() {
	m.ContractsPurged.Inc()
}
