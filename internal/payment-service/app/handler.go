package paymentservice

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jcmexdev/airline-sagas/internal/pkg/contract"
)

// Router builds the HTTP surface of the payment service.
func (s *Service) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", handleHealth)
	r.Post("/api/payments/process", s.handleProcess)
	r.Post("/api/payments/refund", s.handleRefund)
	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Service) handleProcess(w http.ResponseWriter, r *http.Request) {
	var req contract.ProcessPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, http.StatusBadRequest, "", "invalid request body")
		return
	}

	payment, err := s.Process(r.Context(), req.BookingID, req.Amount, req.Currency, req.PaymentMethodType, req.PaymentMetadata)
	if err != nil {
		writeFailure(w, http.StatusBadRequest, req.BookingID, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, contract.TransactionResult{
		Success:   true,
		BookingID: req.BookingID,
		Status:    contract.StatusCompleted,
		Message:   "Payment processed successfully",
		Data: map[string]any{
			"payment_id": payment.PaymentID,
			"amount":     payment.Amount,
			"currency":   payment.Currency,
		},
	})
}

func (s *Service) handleRefund(w http.ResponseWriter, r *http.Request) {
	var req contract.RefundPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, http.StatusBadRequest, "", "invalid request body")
		return
	}

	paymentID, refundID, err := s.Refund(r.Context(), req.BookingID)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, ErrPaymentNotFound) {
			status = http.StatusNotFound
		}
		writeFailure(w, status, req.BookingID, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, contract.TransactionResult{
		Success:   true,
		BookingID: req.BookingID,
		Status:    contract.StatusRefunded,
		Message:   "Payment refunded successfully",
		Data: map[string]any{
			"payment_id": paymentID,
			"refund_id":  refundID,
		},
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
