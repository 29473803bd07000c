// monitor exposes engine and agent metrics over prometheus plus a couple
// of expvar gauges. It implements the Metrics interfaces of the agent and
// game packages.
package monitor

import (
	"expvar"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	RoundsCompleted prometheus.Counter
	VotesConducted  prometheus.Counter
	SkippedActions  prometheus.Counter
	GamesCompleted  *prometheus.CounterVec
	AgentRequests   prometheus.Counter
	AgentFailures   prometheus.Counter
	AgentLatency    prometheus.Histogram
}

func NewMetrics(namespace string) *Metrics {
	m := &Metrics{
		RoundsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rounds_completed_total",
			Help:      "Total number of completed rounds",
		}),
		VotesConducted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "votes_conducted_total",
			Help:      "Total number of indictment votes conducted",
		}),
		SkippedActions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "skipped_actions_total",
			Help:      "Total number of actions skipped after agent failures",
		}),
		GamesCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_completed_total",
			Help:      "Total number of finished games by status",
		}, []string{"status"}),
		AgentRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "agent_requests_total",
			Help:      "Total number of agent API requests",
		}),
		AgentFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "agent_failures_total",
			Help:      "Total number of failed agent API requests",
		}),
		AgentLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "agent_latency_seconds",
			Help:      "Agent API request latency",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
	}

	prometheus.MustRegister(
		m.RoundsCompleted,
		m.VotesConducted,
		m.SkippedActions,
		m.GamesCompleted,
		m.AgentRequests,
		m.AgentFailures,
		m.AgentLatency,
	)

	return m
}

type Monitor struct {
	metrics   *Metrics
	startTime time.Time
}

func NewMonitor(namespace string) *Monitor {
	return &Monitor{
		metrics:   NewMetrics(namespace),
		startTime: time.Now(),
	}
}

func (m *Monitor) StartServer(addr string) {
	http.Handle("/metrics", promhttp.Handler())

	expvar.Publish("uptime", expvar.Func(func() interface{} {
		return time.Since(m.startTime).Seconds()
	}))

	go http.ListenAndServe(addr, nil)
}

// game.Metrics implementation.

func (m *Monitor) IncRoundsCompleted() {
	m.metrics.RoundsCompleted.Inc()
}

func (m *Monitor) IncVotesConducted() {
	m.metrics.VotesConducted.Inc()
}

func (m *Monitor) IncSkippedActions() {
	m.metrics.SkippedActions.Inc()
}

func (m *Monitor) IncGamesCompleted(status string) {
	m.metrics.GamesCompleted.WithLabelValues(status).Inc()
}

// agent.Metrics implementation.

func (m *Monitor) IncAgentRequests() {
	m.metrics.AgentRequests.Inc()
}

func (m *Monitor) IncAgentFailures() {
	m.metrics.AgentFailures.Inc()
}

func (m *Monitor) ObserveAgentLatency(duration time.Duration) {
	m.metrics.AgentLatency.Observe(duration.Seconds())
}
