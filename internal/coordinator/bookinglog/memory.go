package bookinglog

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"time"
)

// MemoryStore is the reference Store implementation: a process-wide map
// guarded by a RWMutex. Bookings are retained for the process lifetime.
type MemoryStore struct {
	mu       sync.RWMutex
	bookings map[string]*Booking
	order    []string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{bookings: make(map[string]*Booking)}
}

func (s *MemoryStore) Create(_ context.Context, b *Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.bookings[b.ID]; exists {
		return fmt.Errorf("bookinglog: booking %q already exists", b.ID)
	}

	now := time.Now().UTC()
	stored := cloneBooking(b)
	stored.CreatedAt = now
	stored.UpdatedAt = now

	s.bookings[b.ID] = stored
	s.order = append(s.order, b.ID)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.bookings[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return cloneBooking(b), nil
}

func (s *MemoryStore) List(_ context.Context) ([]*Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Booking, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, cloneBooking(s.bookings[id]))
	}
	return out, nil
}

func (s *MemoryStore) AppendStep(_ context.Context, id string, rec StepRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	b.Steps = append(b.Steps, rec)
	b.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *MemoryStore) SetStatus(_ context.Context, id string, status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	b.Status = status
	b.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *MemoryStore) SetBoardingPass(_ context.Context, id string, pass map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	b.BoardingPass = maps.Clone(pass)
	b.UpdatedAt = time.Now().UTC()
	return nil
}

// cloneBooking returns a deep enough copy that callers cannot mutate the
// stored record through the returned pointer.
func cloneBooking(b *Booking) *Booking {
	out := *b
	out.Steps = make([]StepRecord, len(b.Steps))
	copy(out.Steps, b.Steps)
	for i := range out.Steps {
		out.Steps[i].ResultData = maps.Clone(b.Steps[i].ResultData)
	}
	out.BoardingPass = maps.Clone(b.BoardingPass)
	out.PaymentDetails.PaymentMetadata = maps.Clone(b.PaymentDetails.PaymentMetadata)
	return &out
}

var _ Store = (*MemoryStore)(nil)
