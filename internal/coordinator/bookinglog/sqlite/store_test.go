package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/airline-sagas/internal/coordinator/bookinglog"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "bookings.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testBooking(id string) *bookinglog.Booking {
	return &bookinglog.Booking{
		ID:            id,
		PassengerName: "John Doe",
		FlightNumber:  "FL001",
		SeatNumber:    "1A",
		PaymentDetails: bookinglog.PaymentDetails{
			Amount:            299.99,
			Currency:          "USD",
			PaymentMethodType: "credit_card",
			PaymentMetadata:   map[string]any{"card_last_four": "4242"},
		},
		Status: bookinglog.StatusPending,
	}
}

func TestStoreRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, testBooking("b-1")))

	b, err := s.Get(ctx, "b-1")
	require.NoError(t, err)
	assert.Equal(t, "John Doe", b.PassengerName)
	assert.Equal(t, bookinglog.StatusPending, b.Status)
	assert.Equal(t, 299.99, b.PaymentDetails.Amount)
	assert.Equal(t, "4242", b.PaymentDetails.PaymentMetadata["card_last_four"])
	assert.False(t, b.CreatedAt.IsZero())
	assert.Empty(t, b.Steps)
	assert.Nil(t, b.BoardingPass)
}

func TestStoreGetUnknown(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, bookinglog.ErrNotFound)
}

func TestStoreStepsKeepInsertionOrder(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, testBooking("b-1")))

	steps := []bookinglog.StepRecord{
		{Service: "seat_service", Operation: "block_seat", Status: bookinglog.StepCompleted,
			Timestamp: timeNow(), ResultData: map[string]any{"seat_number": "1A"}},
		{Service: "payment_service", Operation: "process_payment", Status: bookinglog.StepFailed,
			Timestamp: timeNow(), Message: "payment declined"},
		{Service: "seat_service", Operation: "release_seat", Status: bookinglog.StepReleased,
			Timestamp: timeNow()},
	}
	for _, st := range steps {
		require.NoError(t, s.AppendStep(ctx, "b-1", st))
	}

	b, err := s.Get(ctx, "b-1")
	require.NoError(t, err)
	require.Len(t, b.Steps, 3)
	assert.Equal(t, "block_seat", b.Steps[0].Operation)
	assert.Equal(t, "1A", b.Steps[0].ResultData["seat_number"])
	assert.Equal(t, "payment declined", b.Steps[1].Message)
	assert.Equal(t, bookinglog.StepReleased, b.Steps[2].Status)
	assert.Nil(t, b.Steps[2].ResultData)
}

func TestStoreSetStatusAndBoardingPass(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, testBooking("b-1")))

	require.NoError(t, s.SetStatus(ctx, "b-1", bookinglog.StatusCompleted))
	require.NoError(t, s.SetBoardingPass(ctx, "b-1", map[string]any{
		"passenger": "John Doe",
		"gate":      "B12",
	}))

	b, err := s.Get(ctx, "b-1")
	require.NoError(t, err)
	assert.Equal(t, bookinglog.StatusCompleted, b.Status)
	assert.Equal(t, "B12", b.BoardingPass["gate"])

	assert.ErrorIs(t, s.SetStatus(ctx, "missing", bookinglog.StatusFailed), bookinglog.ErrNotFound)
	assert.ErrorIs(t, s.SetBoardingPass(ctx, "missing", nil), bookinglog.ErrNotFound)
}

func TestStoreListOrdersByCreation(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"b-1", "b-2", "b-3"} {
		require.NoError(t, s.Create(ctx, testBooking(id)))
	}
	require.NoError(t, s.AppendStep(ctx, "b-2", bookinglog.StepRecord{
		Service: "seat_service", Operation: "block_seat",
		Status: bookinglog.StepCompleted, Timestamp: timeNow(),
	}))

	all, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "b-1", all[0].ID)
	assert.Len(t, all[1].Steps, 1)
	assert.Empty(t, all[0].Steps)
}

func TestStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bookings.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Create(ctx, testBooking("b-1")))
	require.NoError(t, s.SetStatus(ctx, "b-1", bookinglog.StatusFailed))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	b, err := s.Get(ctx, "b-1")
	require.NoError(t, err)
	assert.Equal(t, bookinglog.StatusFailed, b.Status)
}
