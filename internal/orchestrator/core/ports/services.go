// Package ports declares the downstream capability set the saga engine
// depends on. Each downstream service is modelled as an interface exposing
// its forward operation and its idempotent inverse; the engine never sees
// transport details, so tests substitute these with mocks and production
// wires the REST adapters.
package ports

import (
	"context"
	"fmt"

	"github.com/jcmexdev/airline-sagas/internal/pkg/contract"
)

// Result is the outcome of a successful downstream call.
type Result struct {
	// Status is the transaction status label reported by the service
	// (COMPLETED, RELEASED, REFUNDED).
	Status  string
	Message string
	// Data is the opaque result payload (payment_id, boarding_pass, ...).
	Data map[string]any
}

// ServiceError is a structured business rejection from a downstream
// service: the call reached the service and the service said no (seat
// taken, payment declined). Transport failures and timeouts are returned
// as plain wrapped errors instead; the engine treats both as step failure
// and only the recorded message differs.
type ServiceError struct {
	Service    string
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s rejected the request (HTTP %d): %s", e.Service, e.StatusCode, e.Message)
}

// SeatService blocks a seat for a booking and releases it again.
type SeatService interface {
	BlockSeat(ctx context.Context, req contract.BlockSeatRequest) (Result, error)
	// ReleaseSeat is idempotent: releasing an already-released seat
	// succeeds without side effects.
	ReleaseSeat(ctx context.Context, bookingID string) (Result, error)
}

// PaymentService charges a booking and refunds the charge.
type PaymentService interface {
	ProcessPayment(ctx context.Context, req contract.ProcessPaymentRequest) (Result, error)
	// RefundPayment is idempotent: refunding twice returns the same
	// deterministic refund id.
	RefundPayment(ctx context.Context, bookingID string) (Result, error)
}

// AllocationService issues the final seat allocation and boarding pass.
type AllocationService interface {
	AllocateSeat(ctx context.Context, req contract.AllocateSeatRequest) (Result, error)
	// CancelAllocation is idempotent.
	CancelAllocation(ctx context.Context, bookingID string) (Result, error)
}
