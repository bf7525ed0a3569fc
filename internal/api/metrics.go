package api

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	reports   *prometheus.CounterVec
	webhooks  *prometheus.CounterVec
	checkouts *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		reports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "esgtracker_reports_generated_total",
			Help: "Report generation attempts by backend and outcome.",
		}, []string{"backend", "outcome"}),
		webhooks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "esgtracker_webhook_events_total",
			Help: "Payment webhook deliveries by event type and outcome.",
		}, []string{"type", "outcome"}),
		checkouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "esgtracker_checkout_sessions_total",
			Help: "Checkout session requests by plan and outcome.",
		}, []string{"plan", "outcome"}),
	}
	reg.MustRegister(m.reports, m.webhooks, m.checkouts)
	return m
}
