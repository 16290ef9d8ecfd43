// Package metrics defines the Prometheus collectors for saga outcomes.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Saga counts saga lifecycle outcomes and compensation attempts.
type Saga struct {
	Started   prometheus.Counter
	Completed prometheus.Counter
	Failed    prometheus.Counter
	Cancelled prometheus.Counter

	// Compensations is labelled by the inverse operation name
	// (release_seat, refund_payment, cancel_allocation) and outcome
	// ("ok" or "failed").
	Compensations *prometheus.CounterVec
}

func NewSaga(reg prometheus.Registerer) *Saga {
	m := &Saga{
		Started: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "booking_sagas_started_total",
			Help: "Number of booking sagas that began forward execution.",
		}),
		Completed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "booking_sagas_completed_total",
			Help: "Number of booking sagas that completed all forward steps.",
		}),
		Failed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "booking_sagas_failed_total",
			Help: "Number of booking sagas that failed and were compensated.",
		}),
		Cancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "booking_sagas_cancelled_total",
			Help: "Number of booking sagas cancelled by explicit request.",
		}),
		Compensations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "booking_saga_compensations_total",
			Help: "Compensating calls issued, by operation and outcome.",
		}, []string{"operation", "outcome"}),
	}

	reg.MustRegister(m.Started, m.Completed, m.Failed, m.Cancelled, m.Compensations)
	return m
}

// Handler exposes the registry in Prometheus text format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
