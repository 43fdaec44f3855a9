package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ReservationsTotal counts Reserve outcomes. "sold_out" is an expected
	// result under load, not a failure.
	ReservationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reservations_total",
			Help: "Reservation attempts by result",
		},
		[]string{"result"},
	)

	SettlementsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "settlements_total",
			Help: "Settlement callbacks by outcome",
		},
		[]string{"outcome"},
	)

	CheckinsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkins_total",
			Help: "Door scans by classified result",
		},
		[]string{"result"},
	)

	ExpiredOrdersTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "expired_orders_total",
			Help: "Orders released by the expiry reaper",
		},
	)

	ReserveDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reserve_duration_seconds",
			Help:    "Latency of the reservation transaction",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
	)
)

// Handler exposes the default registry for the /metrics route.
func Handler() http.Handler {
	return promhttp.Handler()
}
