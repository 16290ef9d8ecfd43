// Package bookinglog defines the domain types for the booking saga log.
//
// Each booking is a saga instance. Its Steps field is an append-only audit
// trail of every remote attempt — forward and compensating — the
// orchestrator made on its behalf. It serves two purposes:
//
//  1. Observability: the status endpoint returns the full step history so
//     you can see exactly where a booking is (or where it went wrong).
//
//  2. Compensation targeting: a compensating call needs the result data of
//     the forward step it undoes (payment id, allocation id), which is kept
//     in the corresponding step record.
package bookinglog

import "time"

// Status represents the lifecycle state of a booking saga.
type Status string

const (
	// StatusPending means the saga was accepted but no step has been
	// dispatched yet. It exists so "accepted but not started" is
	// externally observable.
	StatusPending    Status = "PENDING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
	StatusCancelling Status = "CANCELLING"
	StatusCancelled  Status = "CANCELLED"
)

// Cancellable reports whether an explicit cancel request is permitted in
// this state. PENDING, FAILED and CANCELLED bookings reject cancellation.
func (s Status) Cancellable() bool {
	return s == StatusInProgress || s == StatusCompleted
}

// StepStatus is the terminal outcome label of one step attempt.
type StepStatus string

const (
	StepCompleted StepStatus = "COMPLETED"
	StepFailed    StepStatus = "FAILED"

	// Compensation-specific terminal labels reported by the inverse calls.
	StepReleased StepStatus = "RELEASED"
	StepRefunded StepStatus = "REFUNDED"

	// StepSkipped marks a compensation that was not needed because the
	// forward step never ran or already failed.
	StepSkipped StepStatus = "SKIPPED"
)

// StepRecord is one attempt at one saga step. Records are append-only:
// a compensating record is a distinct append, never a mutation of the
// forward record it undoes.
type StepRecord struct {
	// Service and Operation identify the downstream capability invoked,
	// e.g. "seat_service" / "block_seat".
	Service   string `json:"service"`
	Operation string `json:"operation"`

	Status StepStatus `json:"status"`

	// Timestamp is the wall-clock time the attempt resolved.
	Timestamp time.Time `json:"timestamp"`

	// Message carries the human-readable failure reason on FAILED records.
	Message string `json:"message,omitempty"`

	// ResultData is the opaque payload returned by the downstream service.
	// Later steps and compensations read it to target the right resource.
	ResultData map[string]any `json:"result_data,omitempty"`
}

// PaymentDetails is captured verbatim from the start request.
type PaymentDetails struct {
	Amount            float64        `json:"amount"`
	Currency          string         `json:"currency"`
	PaymentMethodType string         `json:"payment_method_type"`
	PaymentMetadata   map[string]any `json:"payment_metadata,omitempty"`
}

// Booking is the saga instance. The coordinator engine is the only writer;
// every other component reads it through the store.
type Booking struct {
	ID string `json:"booking_id"`

	// Immutable once set, captured from the start request.
	PassengerName  string         `json:"passenger_name"`
	FlightNumber   string         `json:"flight_number"`
	SeatNumber     string         `json:"seat_number"`
	PaymentDetails PaymentDetails `json:"payment_details"`

	Status Status `json:"status"`

	// Steps is ordered by execution: insertion order is never changed and
	// records are never removed. Invariant: no two forward records exist
	// for the same (service, operation) pair.
	Steps []StepRecord `json:"steps"`

	// BoardingPass is set only when the allocation step completes.
	BoardingPass map[string]any `json:"boarding_pass,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CompletedForward reports whether the forward record for the given
// operation exists and succeeded. Used to decide which compensations to run.
func (b *Booking) CompletedForward(operation string) bool {
	for _, s := range b.Steps {
		if s.Operation == operation && s.Status == StepCompleted {
			return true
		}
	}
	return false
}

// ForwardResult returns the result data recorded for a completed forward
// operation, or nil if the step never completed.
func (b *Booking) ForwardResult(operation string) map[string]any {
	for _, s := range b.Steps {
		if s.Operation == operation && s.Status == StepCompleted {
			return s.ResultData
		}
	}
	return nil
}
