// Package observability provides Prometheus metrics for the monitor.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "wallet_monitor"

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	PollsTotal           prometheus.Counter
	NewTransactionsTotal prometheus.Counter
	FetchErrorsTotal     prometheus.Counter
	RateLimitedTotal     prometheus.Counter
	BroadcastsTotal      prometheus.Counter
	TrackedWallets       prometheus.Gauge
	Subscribers          prometheus.Gauge
}

// NewMetrics creates a Metrics instance registered against reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		PollsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "poller",
			Name:      "polls_total",
			Help:      "Total number of wallet poll iterations",
		}),
		NewTransactionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "poller",
			Name:      "new_transactions_total",
			Help:      "Total number of new head transactions detected",
		}),
		FetchErrorsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "fetch_errors_total",
			Help:      "Total number of failed history-provider calls",
		}),
		RateLimitedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "history",
			Name:      "rate_limited_total",
			Help:      "Total number of history requests rejected by the rate governor",
		}),
		BroadcastsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notifications",
			Name:      "broadcasts_total",
			Help:      "Total number of events broadcast to websocket subscribers",
		}),
		TrackedWallets: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "tracked_wallets",
			Help:      "Number of wallets currently being tracked",
		}),
		Subscribers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "notifications",
			Name:      "subscribers",
			Help:      "Number of connected websocket subscribers",
		}),
	}
}
