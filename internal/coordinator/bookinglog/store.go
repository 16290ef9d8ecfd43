package bookinglog

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get and the mutating operations when no
// booking exists for the given id.
var ErrNotFound = errors.New("bookinglog: booking not found")

// Store is the port (interface) for persisting booking saga state.
// The coordinator depends on this abstraction, not on a concrete backend,
// so the in-memory implementation can be swapped for SQLite (see the
// sqlite subpackage) or any other durable store without engine changes.
//
// The engine issues all operations for one booking sequentially, so an
// implementation only needs to be safe for concurrent access to different
// bookings.
type Store interface {
	// Create persists a new booking. The booking id must be unique.
	Create(ctx context.Context, b *Booking) error

	// Get returns a snapshot of the booking. Implementations must return
	// a copy the caller can read without racing the engine.
	Get(ctx context.Context, id string) (*Booking, error)

	// List returns snapshots of all bookings, in creation order.
	List(ctx context.Context) ([]*Booking, error)

	// AppendStep appends one step record to the booking's history.
	AppendStep(ctx context.Context, id string, rec StepRecord) error

	// SetStatus transitions the booking to the given lifecycle status.
	SetStatus(ctx context.Context, id string, status Status) error

	// SetBoardingPass stores the boarding pass issued by the allocation step.
	SetBoardingPass(ctx context.Context, id string, pass map[string]any) error
}
