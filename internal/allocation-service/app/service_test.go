package allocationservice

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocateIssuesBoardingPass(t *testing.T) {
	s := NewService()

	a, err := s.Allocate("booking-1", "FL001", "1A", "John Doe")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(a.AllocationID, "alloc_"))
	assert.Equal(t, Allocated, a.Status)

	assert.Equal(t, "John Doe", a.BoardingPass.Passenger)
	assert.Equal(t, "FL001", a.BoardingPass.Flight)
	assert.Equal(t, "1A", a.BoardingPass.Seat)
	assert.Equal(t, "B12", a.BoardingPass.Gate)

	boarding, err := time.Parse(time.RFC3339, a.BoardingPass.BoardingTime)
	require.NoError(t, err)
	assert.True(t, boarding.After(time.Now()))
}

func TestAllocateGatePerFlight(t *testing.T) {
	s := NewService()

	a2, err := s.Allocate("booking-2", "FL002", "2B", "Jane Roe")
	require.NoError(t, err)
	assert.Equal(t, "C05", a2.BoardingPass.Gate)

	a3, err := s.Allocate("booking-3", "FL003", "3C", "Jim Poe")
	require.NoError(t, err)
	assert.Equal(t, "A22", a3.BoardingPass.Gate)

	// Unknown flights still allocate, with a placeholder gate.
	a4, err := s.Allocate("booking-4", "FL999", "4D", "Joe Moe")
	require.NoError(t, err)
	assert.Equal(t, "Gate TBD", a4.BoardingPass.Gate)
}

func TestAllocateIsIdempotentPerBooking(t *testing.T) {
	s := NewService()

	first, err := s.Allocate("booking-1", "FL001", "1A", "John Doe")
	require.NoError(t, err)

	second, err := s.Allocate("booking-1", "FL001", "1A", "John Doe")
	require.NoError(t, err)
	assert.Equal(t, first.AllocationID, second.AllocationID)
}

func TestCancelIsIdempotent(t *testing.T) {
	s := NewService()

	_, err := s.Allocate("booking-1", "FL001", "1A", "John Doe")
	require.NoError(t, err)

	require.NoError(t, s.Cancel("booking-1"))
	require.NoError(t, s.Cancel("booking-1"))
}

func TestCancelUnknownBooking(t *testing.T) {
	s := NewService()
	assert.ErrorIs(t, s.Cancel("missing"), ErrAllocationNotFound)
}
