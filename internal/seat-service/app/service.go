// Package seatservice implements the seat inventory service: it owns the
// per-flight seat map and exposes block/release as the forward and inverse
// operations of the booking saga's first step.
package seatservice

import (
	"errors"
	"fmt"
	"sync"
)

type SeatStatus string

const (
	SeatAvailable SeatStatus = "available"
	SeatBlocked   SeatStatus = "blocked"
	SeatBooked    SeatStatus = "booked"
)

var (
	ErrFlightNotFound   = errors.New("flight not found")
	ErrSeatNotFound     = errors.New("seat not found")
	ErrSeatNotAvailable = errors.New("seat is not available")
)

type Seat struct {
	SeatNumber string     `json:"seat_number"`
	Status     SeatStatus `json:"status"`
	BookingID  string     `json:"booking_id,omitempty"`
}

type Flight struct {
	FlightNumber string  `json:"flight_number"`
	Seats        []*Seat `json:"seats"`
}

type blockRef struct {
	flightNumber string
	seatNumber   string
}

// Service keeps the seat inventory in memory, guarded by a single mutex.
type Service struct {
	mu      sync.Mutex
	flights map[string]*Flight
	blocked map[string]blockRef // booking id -> blocked seat
}

func NewService() *Service {
	return &Service{
		flights: make(map[string]*Flight),
		blocked: make(map[string]blockRef),
	}
}

// SeedDemoData loads the sample flights used in local development: FL001
// and FL002 with seats 1A–2C, with two seats on FL001 already taken.
func (s *Service) SeedDemoData() {
	for _, fn := range []string{"FL001", "FL002"} {
		flight := &Flight{FlightNumber: fn}
		for _, sn := range []string{"1A", "1B", "1C", "2A", "2B", "2C"} {
			flight.Seats = append(flight.Seats, &Seat{SeatNumber: sn, Status: SeatAvailable})
		}
		s.flights[fn] = flight
	}

	fl001 := s.flights["FL001"]
	fl001.Seats[1].Status = SeatBlocked
	fl001.Seats[1].BookingID = "demo-booking-1"
	fl001.Seats[2].Status = SeatBooked
	fl001.Seats[2].BookingID = "demo-booking-2"
	s.blocked["demo-booking-1"] = blockRef{flightNumber: "FL001", seatNumber: "1B"}
}

// Block marks a seat as blocked for a booking. Blocking the same seat
// twice for the same booking succeeds, so a redelivered block request is
// harmless.
func (s *Service) Block(bookingID, flightNumber, seatNumber string) (*Seat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seat, err := s.findSeat(flightNumber, seatNumber)
	if err != nil {
		return nil, err
	}

	if seat.Status == SeatBlocked && seat.BookingID == bookingID {
		return seat, nil
	}
	if seat.Status != SeatAvailable {
		return nil, fmt.Errorf("%w: seat %s on flight %s", ErrSeatNotAvailable, seatNumber, flightNumber)
	}

	seat.Status = SeatBlocked
	seat.BookingID = bookingID
	s.blocked[bookingID] = blockRef{flightNumber: flightNumber, seatNumber: seatNumber}
	return seat, nil
}

// Release frees the seat blocked for a booking. It is idempotent: when no
// seat is blocked for the booking (never blocked, or already released) it
// reports success with ok=false and no side effects.
func (s *Service) Release(bookingID string) (ref blockRef, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ref, ok = s.blocked[bookingID]
	if !ok {
		return blockRef{}, false
	}

	if seat, err := s.findSeat(ref.flightNumber, ref.seatNumber); err == nil {
		seat.Status = SeatAvailable
		seat.BookingID = ""
	}
	delete(s.blocked, bookingID)
	return ref, true
}

// GetFlight returns the flight, optionally filtering its seats by status.
func (s *Service) GetFlight(flightNumber string, status SeatStatus) (*Flight, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	flight, ok := s.flights[flightNumber]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFlightNotFound, flightNumber)
	}

	out := &Flight{FlightNumber: flight.FlightNumber}
	for _, seat := range flight.Seats {
		if status != "" && seat.Status != status {
			continue
		}
		seatCopy := *seat
		out.Seats = append(out.Seats, &seatCopy)
	}
	return out, nil
}

// GetSeat returns one seat of a flight.
func (s *Service) GetSeat(flightNumber, seatNumber string) (*Seat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seat, err := s.findSeat(flightNumber, seatNumber)
	if err != nil {
		return nil, err
	}
	seatCopy := *seat
	return &seatCopy, nil
}

func (s *Service) findSeat(flightNumber, seatNumber string) (*Seat, error) {
	flight, ok := s.flights[flightNumber]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFlightNotFound, flightNumber)
	}
	for _, seat := range flight.Seats {
		if seat.SeatNumber == seatNumber {
			return seat, nil
		}
	}
	return nil, fmt.Errorf("%w: seat %s on flight %s", ErrSeatNotFound, seatNumber, flightNumber)
}
