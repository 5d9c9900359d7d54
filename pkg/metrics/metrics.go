package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// WorkflowActions counts coordinator actions by kind and outcome.
	WorkflowActions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trainflow_workflow_actions_total",
		Help: "Workflow actions processed, by action kind and outcome.",
	}, []string{"action", "outcome"})

	// Notifications counts dispatched messages by category and outcome.
	Notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trainflow_notifications_total",
		Help: "Notification messages dispatched, by category and outcome.",
	}, []string{"category", "outcome"})
)

const (
	OutcomeOK     = "ok"
	OutcomeFailed = "failed"
	OutcomeDenied = "denied"
)

// Handler serves the default registry, mounted on the metrics address.
func Handler() http.Handler {
	return promhttp.Handler()
}
