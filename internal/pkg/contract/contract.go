// Package contract holds the JSON wire types shared between the orchestrator
// and the three downstream services. It plays the role a generated proto
// package would play in a gRPC system: a single source of truth for the
// request/response shapes, imported by both sides.
package contract

// Transaction statuses reported by the downstream services. RELEASED and
// REFUNDED are compensation-specific terminal labels; a compensating call
// never reports plain COMPLETED.
const (
	StatusCompleted = "COMPLETED"
	StatusFailed    = "FAILED"
	StatusReleased  = "RELEASED"
	StatusRefunded  = "REFUNDED"
)

// TransactionResult is the common response envelope for every downstream
// operation, forward and compensating. Data is an opaque payload whose keys
// depend on the operation (payment_id, allocation_id, boarding_pass, ...).
type TransactionResult struct {
	Success   bool           `json:"success"`
	BookingID string         `json:"booking_id"`
	Status    string         `json:"status"`
	Message   string         `json:"message,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

type BlockSeatRequest struct {
	BookingID    string `json:"booking_id"`
	FlightNumber string `json:"flight_number"`
	SeatNumber   string `json:"seat_number"`
}

type ReleaseSeatRequest struct {
	BookingID string `json:"booking_id"`
}

type ProcessPaymentRequest struct {
	BookingID         string         `json:"booking_id"`
	Amount            float64        `json:"amount"`
	Currency          string         `json:"currency"`
	PaymentMethodType string         `json:"payment_method_type"`
	PaymentMetadata   map[string]any `json:"payment_metadata,omitempty"`
}

type RefundPaymentRequest struct {
	BookingID string `json:"booking_id"`
}

type AllocateSeatRequest struct {
	BookingID     string `json:"booking_id"`
	FlightNumber  string `json:"flight_number"`
	SeatNumber    string `json:"seat_number"`
	PassengerName string `json:"passenger_name"`
}

type CancelAllocationRequest struct {
	BookingID string `json:"booking_id"`
}

// BoardingPass is issued by the allocation service on a successful
// allocation and carried inside TransactionResult.Data["boarding_pass"].
type BoardingPass struct {
	Passenger    string `json:"passenger"`
	Flight       string `json:"flight"`
	Seat         string `json:"seat"`
	Gate         string `json:"gate"`
	BoardingTime string `json:"boarding_time"`
}
