package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the dashboard collectors. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	cycles        *prometheus.CounterVec
	cycleDur      prometheus.Histogram
	lastSuccessTS prometheus.Gauge
	requests      *prometheus.CounterVec
	newAlerts     prometheus.Counter
	wsClients     prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hatewatch_dashboard",
			Name:      "refresh_cycles_total",
			Help:      "Refresh cycles by outcome (ok, error, stale)",
		}, []string{"outcome"}),
		cycleDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hatewatch_dashboard",
			Name:      "refresh_cycle_duration_seconds",
			Help:      "Time from cycle start until all three requests settled",
			Buckets:   prometheus.DefBuckets,
		}),
		lastSuccessTS: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "hatewatch_dashboard",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix timestamp of the last successful refresh cycle",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hatewatch_dashboard",
			Name:      "upstream_requests_total",
			Help:      "Requests to the HateWatch API by endpoint and status",
		}, []string{"endpoint", "status"}),
		newAlerts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hatewatch_dashboard",
			Name:      "new_alerts_total",
			Help:      "Alerts displayed for the first time",
		}),
		wsClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "hatewatch_dashboard",
			Name:      "websocket_clients",
			Help:      "Connected live-update clients",
		}),
	}
	reg.MustRegister(m.cycles, m.cycleDur, m.lastSuccessTS, m.requests, m.newAlerts, m.wsClients)
	return m
}

func (m *Metrics) ObserveCycle(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.cycles.WithLabelValues(outcome).Inc()
	m.cycleDur.Observe(d.Seconds())
}

func (m *Metrics) MarkSuccess(t time.Time) {
	if m == nil {
		return
	}
	m.lastSuccessTS.Set(float64(t.Unix()))
}

// ObserveRequest counts one upstream call; status is "ok" or an error class.
func (m *Metrics) ObserveRequest(endpoint, status string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(endpoint, status).Inc()
}

func (m *Metrics) AddNewAlerts(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.newAlerts.Add(float64(n))
}

func (m *Metrics) SetWebsocketClients(n int) {
	if m == nil {
		return
	}
	m.wsClients.Set(float64(n))
}
