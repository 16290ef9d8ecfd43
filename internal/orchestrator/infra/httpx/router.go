package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jcmexdev/airline-sagas/internal/pkg/metrics"
)

func NewRouter(h *BookingHandler, reg *prometheus.Registry) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.Health)
	r.Method(http.MethodGet, "/metrics", metrics.Handler(reg))

	r.Route("/api/bookings", func(r chi.Router) {
		r.Post("/start", h.StartBooking)
		r.Get("/", h.ListBookings)
		r.Get("/{bookingID}", h.GetBooking)
		r.Post("/{bookingID}/cancel", h.CancelBooking)
	})

	return r
}
