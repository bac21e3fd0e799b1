package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SettlementsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "ridepay", Name: "settlements_total", Help: "Settlement attempts by outcome"},
		[]string{"outcome"},
	)
	SettlementLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "ridepay",
		Name:      "settlement_duration_seconds",
		Help:      "Settlement latency seconds",
		Buckets:   prometheus.DefBuckets,
	})
	SeatsSold = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ridepay", Name: "seats_sold_total", Help: "Seats decremented by settlement"})

	WebhookRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "ridepay", Name: "webhook_requests_total", Help: "Gateway notifications by response status"},
		[]string{"status"},
	)
	CheckoutsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "ridepay", Name: "checkouts_total", Help: "Checkout sessions by result"},
		[]string{"result"},
	)
	EventsPublishFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "ridepay", Name: "events_publish_failures_total", Help: "Settlement events that failed to publish"},
		[]string{"kind"},
	)
)
