package httpx

import (
	"time"

	"github.com/jcmexdev/airline-sagas/internal/coordinator/bookinglog"
)

type PaymentDetailsDTO struct {
	Amount            float64        `json:"amount"`
	Currency          string         `json:"currency"`
	PaymentMethodType string         `json:"payment_method_type"`
	PaymentMetadata   map[string]any `json:"payment_metadata,omitempty"`
}

type StartBookingRequest struct {
	PassengerName  string            `json:"passenger_name"`
	FlightNumber   string            `json:"flight_number"`
	SeatNumber     string            `json:"seat_number"`
	PaymentDetails PaymentDetailsDTO `json:"payment_details"`
}

type StartBookingResponse struct {
	BookingID string `json:"booking_id"`
	Status    string `json:"status"`
	Message   string `json:"message"`
}

type StepResponse struct {
	Service    string         `json:"service"`
	Operation  string         `json:"operation"`
	Status     string         `json:"status"`
	Timestamp  string         `json:"timestamp"`
	Message    string         `json:"message,omitempty"`
	ResultData map[string]any `json:"result_data,omitempty"`
}

type BookingResponse struct {
	BookingID     string         `json:"booking_id"`
	Status        string         `json:"status"`
	PassengerName string         `json:"passenger_name"`
	FlightNumber  string         `json:"flight_number"`
	SeatNumber    string         `json:"seat_number"`
	Steps         []StepResponse `json:"steps"`
	BoardingPass  map[string]any `json:"boarding_pass,omitempty"`
}

type CancellationResponse struct {
	BookingID         string         `json:"booking_id"`
	Status            string         `json:"status"`
	Message           string         `json:"message"`
	CompensationSteps []StepResponse `json:"compensation_steps"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func mapBookingToResponse(b *bookinglog.Booking) BookingResponse {
	return BookingResponse{
		BookingID:     b.ID,
		Status:        string(b.Status),
		PassengerName: b.PassengerName,
		FlightNumber:  b.FlightNumber,
		SeatNumber:    b.SeatNumber,
		Steps:         mapSteps(b.Steps),
		BoardingPass:  b.BoardingPass,
	}
}

func mapSteps(steps []bookinglog.StepRecord) []StepResponse {
	out := make([]StepResponse, len(steps))
	for i, s := range steps {
		out[i] = StepResponse{
			Service:    s.Service,
			Operation:  s.Operation,
			Status:     string(s.Status),
			Timestamp:  s.Timestamp.UTC().Format(time.RFC3339Nano),
			Message:    s.Message,
			ResultData: s.ResultData,
		}
	}
	return out
}
