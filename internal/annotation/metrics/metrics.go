package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks comment and issue writes.
type Metrics struct {
	CommentsAdded   prometheus.Counter
	CommentsDeleted prometheus.Counter
	IssuesCreated   *prometheus.CounterVec
	IssueStatus     *prometheus.CounterVec
}

// New registers the annotation metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		CommentsAdded: f.NewCounter(prometheus.CounterOpts{
			Name: "contractdesk_comments_added_total",
			Help: "Total number of comments added, replies included",
		}),
		CommentsDeleted: f.NewCounter(prometheus.CounterOpts{
			Name: "contractdesk_comments_deleted_total",
			Help: "Total number of comments soft-deleted",
		}),
		IssuesCreated: f.NewCounterVec(prometheus.CounterOpts{
			Name: "contractdesk_issues_created_total",
			Help: "Total number of issues created, by priority",
		}, []string{"priority"}),
		IssueStatus: f.NewCounterVec(prometheus.CounterOpts{
			Name: "contractdesk_issue_status_changes_total",
			Help: "Total number of issue status changes, by target status",
		}, []string{"status"}),
	}
}

func (m *Metrics) IncrementCommentAdded() {
	m.CommentsAdded.Inc()
}

func (m *Metrics) IncrementCommentDeleted() {
	m.CommentsDeleted.Inc()
}

func (m *Metrics) IncrementIssueCreated(priority string) {
	m.IssuesCreated.WithLabelValues(priority).Inc()
}

func (m *Metrics) IncrementIssueStatus(status string) {
	m.IssueStatus.WithLabelValues(status).Inc()
}
