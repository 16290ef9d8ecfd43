package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/jcmexdev/airline-sagas/internal/coordinator"
	"github.com/jcmexdev/airline-sagas/internal/coordinator/bookinglog"
)

type BookingHandler struct {
	engine *coordinator.Engine
	store  bookinglog.Store
}

func NewBookingHandler(engine *coordinator.Engine, store bookinglog.Store) *BookingHandler {
	return &BookingHandler{engine: engine, store: store}
}

func (h *BookingHandler) StartBooking(w http.ResponseWriter, r *http.Request) {
	var req StartBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed request body")
		return
	}
	if req.PassengerName == "" || req.FlightNumber == "" || req.SeatNumber == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "passenger_name, flight_number and seat_number are required")
		return
	}

	booking := &bookinglog.Booking{
		ID:            uuid.NewString(),
		PassengerName: req.PassengerName,
		FlightNumber:  req.FlightNumber,
		SeatNumber:    req.SeatNumber,
		PaymentDetails: bookinglog.PaymentDetails{
			Amount:            req.PaymentDetails.Amount,
			Currency:          req.PaymentDetails.Currency,
			PaymentMethodType: req.PaymentDetails.PaymentMethodType,
			PaymentMetadata:   req.PaymentDetails.PaymentMetadata,
		},
		Status: bookinglog.StatusPending,
	}

	if err := h.store.Create(r.Context(), booking); err != nil {
		slog.ErrorContext(r.Context(), "failed to create booking", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "could not create booking")
		return
	}

	// The saga outlives this request. Detach from the request context so
	// a client disconnect does not abort a half-executed sequence, but
	// keep trace propagation intact.
	go func(ctx context.Context, id string) {
		if err := h.engine.Run(ctx, id); err != nil {
			slog.ErrorContext(ctx, "booking saga finished with error", "booking_id", id, "error", err)
		}
	}(context.WithoutCancel(r.Context()), booking.ID)

	writeJSON(w, http.StatusAccepted, StartBookingResponse{
		BookingID: booking.ID,
		Status:    string(bookinglog.StatusPending),
		Message:   "booking accepted, saga started",
	})
}

func (h *BookingHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "bookingID")
	booking, err := h.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, bookinglog.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "booking not found")
			return
		}
		slog.ErrorContext(r.Context(), "failed to load booking", "booking_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "could not load booking")
		return
	}
	writeJSON(w, http.StatusOK, mapBookingToResponse(booking))
}

func (h *BookingHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.store.List(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to list bookings", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "could not list bookings")
		return
	}
	out := make([]BookingResponse, len(bookings))
	for i, b := range bookings {
		out[i] = mapBookingToResponse(b)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *BookingHandler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "bookingID")
	steps, err := h.engine.Cancel(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, bookinglog.ErrNotFound):
			writeError(w, http.StatusNotFound, "not_found", "booking not found")
		case errors.Is(err, coordinator.ErrNotCancellable):
			writeError(w, http.StatusConflict, "not_cancellable", err.Error())
		default:
			slog.ErrorContext(r.Context(), "cancellation failed", "booking_id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "internal_error", "cancellation failed")
		}
		return
	}
	writeJSON(w, http.StatusOK, CancellationResponse{
		BookingID:         id,
		Status:            string(bookinglog.StatusCancelled),
		Message:           "booking cancelled, compensations applied",
		CompensationSteps: mapSteps(steps),
	})
}

func (h *BookingHandler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: code, Message: message})
}
