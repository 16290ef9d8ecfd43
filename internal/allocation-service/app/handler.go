package allocationservice

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jcmexdev/airline-sagas/internal/pkg/contract"
)

// Router builds the HTTP surface of the allocation service.
func (s *Service) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", handleHealth)
	r.Post("/api/allocations/allocate", s.handleAllocate)
	r.Post("/api/allocations/cancel", s.handleCancel)
	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Service) handleAllocate(w http.ResponseWriter, r *http.Request) {
	var req contract.AllocateSeatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, http.StatusBadRequest, "", "invalid request body")
		return
	}

	allocation, err := s.Allocate(req.BookingID, req.FlightNumber, req.SeatNumber, req.PassengerName)
	if err != nil {
		writeFailure(w, http.StatusBadRequest, req.BookingID, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, contract.TransactionResult{
		Success:   true,
		BookingID: req.BookingID,
		Status:    contract.StatusCompleted,
		Message:   "Seat allocated successfully",
		Data: map[string]any{
			"allocation_id": allocation.AllocationID,
			"boarding_pass": map[string]any{
				"passenger":     allocation.BoardingPass.Passenger,
				"flight":        allocation.BoardingPass.Flight,
				"seat":          allocation.BoardingPass.Seat,
				"gate":          allocation.BoardingPass.Gate,
				"boarding_time": allocation.BoardingPass.BoardingTime,
			},
		},
	})
}

func (s *Service) handleCancel(w http.ResponseWriter, r *http.Request) {
	var req contract.CancelAllocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, http.StatusBadRequest, "", "invalid request body")
		return
	}

	if err := s.Cancel(req.BookingID); err != nil {
		writeFailure(w, http.StatusNotFound, req.BookingID, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, contract.TransactionResult{
		Success:   true,
		BookingID: req.BookingID,
		Status:    contract.StatusReleased,
		Message:   "Allocation cancelled successfully",
	})
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
