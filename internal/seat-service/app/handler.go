package seatservice

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jcmexdev/airline-sagas/internal/pkg/contract"
)

// Router builds the HTTP surface of the seat service.
func (s *Service) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", handleHealth)
	r.Get("/api/flights/{flightNumber}", s.handleGetFlight)
	r.Get("/api/flights/{flightNumber}/seats/{seatNumber}", s.handleGetSeat)
	r.Post("/api/seats/block", s.handleBlockSeat)
	r.Post("/api/seats/release", s.handleReleaseSeat)
	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Service) handleGetFlight(w http.ResponseWriter, r *http.Request) {
	flightNumber := chi.URLParam(r, "flightNumber")
	status := SeatStatus(r.URL.Query().Get("status"))

	flight, err := s.GetFlight(flightNumber, status)
	if err != nil {
		writeFailure(w, http.StatusNotFound, "", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, flight)
}

func (s *Service) handleGetSeat(w http.ResponseWriter, r *http.Request) {
	seat, err := s.GetSeat(chi.URLParam(r, "flightNumber"), chi.URLParam(r, "seatNumber"))
	if err != nil {
		writeFailure(w, http.StatusNotFound, "", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, seat)
}

func (s *Service) handleBlockSeat(w http.ResponseWriter, r *http.Request) {
	var req contract.BlockSeatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, http.StatusBadRequest, "", "invalid request body")
		return
	}

	seat, err := s.Block(req.BookingID, req.FlightNumber, req.SeatNumber)
	if err != nil {
		status := http.StatusNotFound
		if errors.Is(err, ErrSeatNotAvailable) {
			status = http.StatusConflict
		}
		writeFailure(w, status, req.BookingID, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, contract.TransactionResult{
		Success:   true,
		BookingID: req.BookingID,
		Status:    contract.StatusCompleted,
		Message:   fmt.Sprintf("Seat %s on flight %s blocked successfully", seat.SeatNumber, req.FlightNumber),
		Data: map[string]any{
			"flight_number": req.FlightNumber,
			"seat_number":   seat.SeatNumber,
		},
	})
}

func (s *Service) handleReleaseSeat(w http.ResponseWriter, r *http.Request) {
	var req contract.ReleaseSeatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, http.StatusBadRequest, "", "invalid request body")
		return
	}

	ref, released := s.Release(req.BookingID)
	result := contract.TransactionResult{
		Success:   true,
		BookingID: req.BookingID,
		Status:    contract.StatusReleased,
	}
	if released {
		result.Message = fmt.Sprintf("Seat %s on flight %s released successfully", ref.seatNumber, ref.flightNumber)
		result.Data = map[string]any{
			"flight_number": ref.flightNumber,
			"seat_number":   ref.seatNumber,
		}
	} else {
		// Idempotent release: nothing blocked for this booking is success,
		// not an error, so a repeated compensation attempt stays safe.
		result.Message = fmt.Sprintf("No blocked seat for booking %s, nothing to release", req.BookingID)
	}
	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeFailure(w http.ResponseWriter, status int, bookingID, msg string) {
	writeJSON(w, status, contract.TransactionResult{
		Success:   false,
		BookingID: bookingID,
		Status:    contract.StatusFailed,
		Message:   msg,
	})
}
