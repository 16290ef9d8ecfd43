package coordinator

import (
	"context"

	"github.com/jcmexdev/airline-sagas/internal/coordinator/bookinglog"
	"github.com/jcmexdev/airline-sagas/internal/orchestrator/core/ports"
	"github.com/jcmexdev/airline-sagas/internal/pkg/contract"
)

// Step represents a single unit of work in the booking saga.
// Each step must have a compensating action to undo its effects.
//
// The forward order and the failure→compensation mapping are encoded as
// the engine's step slice, not as conditional branches: adding a step
// means extending the slice, and compensation is always the reverse
// traversal of the completed prefix.
type Step interface {
	// Service and Operation name the downstream capability, matching the
	// labels recorded in the booking log (e.g. "seat_service"/"block_seat").
	Service() string
	Operation() string
	// CompensationOperation is the name recorded for the inverse call.
	CompensationOperation() string

	Execute(ctx context.Context) (ports.Result, error)
	Compensate(ctx context.Context) (ports.Result, error)
}

// --- BlockSeatStep ---

type BlockSeatStep struct {
	client       ports.SeatService
	bookingID    string
	flightNumber string
	seatNumber   string
}

func NewBlockSeatStep(client ports.SeatService, bookingID, flightNumber, seatNumber string) *BlockSeatStep {
	return &BlockSeatStep{
		client:       client,
		bookingID:    bookingID,
		flightNumber: flightNumber,
		seatNumber:   seatNumber,
	}
}

func (s *BlockSeatStep) Service() string               { return "seat_service" }
func (s *BlockSeatStep) Operation() string             { return "block_seat" }
func (s *BlockSeatStep) CompensationOperation() string { return "release_seat" }

func (s *BlockSeatStep) Execute(ctx context.Context) (ports.Result, error) {
	return s.client.BlockSeat(ctx, contract.BlockSeatRequest{
		BookingID:    s.bookingID,
		FlightNumber: s.flightNumber,
		SeatNumber:   s.seatNumber,
	})
}

func (s *BlockSeatStep) Compensate(ctx context.Context) (ports.Result, error) {
	return s.client.ReleaseSeat(ctx, s.bookingID)
}

// --- ProcessPaymentStep ---

type ProcessPaymentStep struct {
	client    ports.PaymentService
	bookingID string
	details   bookinglog.PaymentDetails
}

func NewProcessPaymentStep(client ports.PaymentService, bookingID string, details bookinglog.PaymentDetails) *ProcessPaymentStep {
	return &ProcessPaymentStep{
		client:    client,
		bookingID: bookingID,
		details:   details,
	}
}

func (s *ProcessPaymentStep) Service() string               { return "payment_service" }
func (s *ProcessPaymentStep) Operation() string             { return "process_payment" }
func (s *ProcessPaymentStep) CompensationOperation() string { return "refund_payment" }

func (s *ProcessPaymentStep) Execute(ctx context.Context) (ports.Result, error) {
	return s.client.ProcessPayment(ctx, contract.ProcessPaymentRequest{
		BookingID:         s.bookingID,
		Amount:            s.details.Amount,
		Currency:          s.details.Currency,
		PaymentMethodType: s.details.PaymentMethodType,
		PaymentMetadata:   s.details.PaymentMetadata,
	})
}

func (s *ProcessPaymentStep) Compensate(ctx context.Context) (ports.Result, error) {
	return s.client.RefundPayment(ctx, s.bookingID)
}

// --- AllocateSeatStep ---

type AllocateSeatStep struct {
	client        ports.AllocationService
	bookingID     string
	flightNumber  string
	seatNumber    string
	passengerName string
}

func NewAllocateSeatStep(client ports.AllocationService, bookingID, flightNumber, seatNumber, passengerName string) *AllocateSeatStep {
	return &AllocateSeatStep{
		client:        client,
		bookingID:     bookingID,
		flightNumber:  flightNumber,
		seatNumber:    seatNumber,
		passengerName: passengerName,
	}
}

func (s *AllocateSeatStep) Service() string               { return "allocation_service" }
func (s *AllocateSeatStep) Operation() string             { return "allocate_seat" }
func (s *AllocateSeatStep) CompensationOperation() string { return "cancel_allocation" }

func (s *AllocateSeatStep) Execute(ctx context.Context) (ports.Result, error) {
	return s.client.AllocateSeat(ctx, contract.AllocateSeatRequest{
		BookingID:     s.bookingID,
		FlightNumber:  s.flightNumber,
		SeatNumber:    s.seatNumber,
		PassengerName: s.passengerName,
	})
}

func (s *AllocateSeatStep) Compensate(ctx context.Context) (ports.Result, error) {
	return s.client.CancelAllocation(ctx, s.bookingID)
}
