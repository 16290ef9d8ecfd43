// Package allocationservice implements the allocation service: the final
// saga step that turns a blocked, paid-for seat into a confirmed
// allocation with a boarding pass. Allocate and cancel are idempotent per
// booking.
package allocationservice

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jcmexdev/airline-sagas/internal/pkg/contract"
)

var ErrAllocationNotFound = errors.New("no allocation found for booking")

type AllocationStatus string

const (
	Allocated          AllocationStatus = "ALLOCATED"
	AllocationCanceled AllocationStatus = "CANCELLED"
)

type Allocation struct {
	AllocationID  string                `json:"allocation_id"`
	BookingID     string                `json:"booking_id"`
	FlightNumber  string                `json:"flight_number"`
	SeatNumber    string                `json:"seat_number"`
	PassengerName string                `json:"passenger_name"`
	Status        AllocationStatus      `json:"status"`
	BoardingPass  contract.BoardingPass `json:"boarding_pass"`
}

// Service keeps allocations in memory. Gate assignments and boarding
// times are a fixed demo table, like a real system's schedule lookup.
type Service struct {
	mu            sync.Mutex
	allocations   map[string]*Allocation // allocation id -> allocation
	byBooking     map[string]string      // booking id -> allocation id
	gates         map[string]string
	boardingTimes map[string]string
}

func NewService() *Service {
	now := time.Now()
	return &Service{
		allocations: make(map[string]*Allocation),
		byBooking:   make(map[string]string),
		gates: map[string]string{
			"FL001": "B12",
			"FL002": "C05",
			"FL003": "A22",
		},
		boardingTimes: map[string]string{
			"FL001": now.Add(2 * time.Hour).Format(time.RFC3339),
			"FL002": now.Add(3 * time.Hour).Format(time.RFC3339),
			"FL003": now.Add(4 * time.Hour).Format(time.RFC3339),
		},
	}
}

// Allocate issues a seat allocation and boarding pass. A repeated request
// for a booking that is already allocated returns the existing allocation.
func (s *Service) Allocate(bookingID, flightNumber, seatNumber, passengerName string) (*Allocation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.byBooking[bookingID]; ok {
		if existing := s.allocations[id]; existing.Status == Allocated {
			return existing, nil
		}
	}

	gate, ok := s.gates[flightNumber]
	if !ok {
		gate = "Gate TBD"
	}
	boardingTime, ok := s.boardingTimes[flightNumber]
	if !ok {
		boardingTime = time.Now().UTC().Format(time.RFC3339)
	}

	allocation := &Allocation{
		AllocationID:  "alloc_" + uuid.NewString()[:8],
		BookingID:     bookingID,
		FlightNumber:  flightNumber,
		SeatNumber:    seatNumber,
		PassengerName: passengerName,
		Status:        Allocated,
		BoardingPass: contract.BoardingPass{
			Passenger:    passengerName,
			Flight:       flightNumber,
			Seat:         seatNumber,
			Gate:         gate,
			BoardingTime: boardingTime,
		},
	}
	s.allocations[allocation.AllocationID] = allocation
	s.byBooking[bookingID] = allocation.AllocationID
	return allocation, nil
}

// Cancel revokes the allocation for a booking. Cancelling twice succeeds.
func (s *Service) Cancel(bookingID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byBooking[bookingID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrAllocationNotFound, bookingID)
	}

	s.allocations[id].Status = AllocationCanceled
	return nil
}
