package cloudmc

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds Prometheus collectors for dispatched calls and task polls.
// A nil *Metrics records nothing.
type Metrics struct {
	Dispatches       *prometheus.CounterVec
	DispatchDuration *prometheus.HistogramVec
	TaskPolls        *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	m := &Metrics{
		Dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatches_total",
			Help:      "Total number of dispatched entity operations",
		}, []string{"entity_type", "operation", "outcome"}),
		DispatchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dispatch_duration_seconds",
			Help:      "Time from dispatch until the operation resolved, including task polling",
			Buckets:   prometheus.DefBuckets,
		}, []string{"entity_type", "operation"}),
		TaskPolls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "task_polls_total",
			Help:      "Total number of task status polls, by returned status",
		}, []string{"status"}),
	}
	reg.MustRegister(m.Dispatches, m.DispatchDuration, m.TaskPolls)
	return m
}

func (m *Metrics) dispatched(entityType, operation string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.Dispatches.WithLabelValues(entityType, operation, outcome(err)).Inc()
	m.DispatchDuration.WithLabelValues(entityType, operation).Observe(time.Since(start).Seconds())
}

func (m *Metrics) taskPolled(status TaskStatus) {
	if m == nil {
		return
	}
	label := string(status)
	if label == "" {
		label = "NONE"
	}
	m.TaskPolls.WithLabelValues(label).Inc()
}

func outcome(err error) string {
	if err == nil {
		return "success"
	}
	return ErrorKind(err)
}
