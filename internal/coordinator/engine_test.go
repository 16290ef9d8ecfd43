package coordinator

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/airline-sagas/internal/coordinator/bookinglog"
	"github.com/jcmexdev/airline-sagas/internal/orchestrator/core/ports"
	"github.com/jcmexdev/airline-sagas/internal/pkg/contract"
	"github.com/jcmexdev/airline-sagas/internal/pkg/events"
	"github.com/jcmexdev/airline-sagas/internal/pkg/metrics"
)

// callRecorder tracks the order of downstream invocations across all mocks,
// which is how the reverse-order compensation guarantee is asserted.
type callRecorder struct {
	calls []string
}

func (r *callRecorder) note(name string) { r.calls = append(r.calls, name) }

type mockSeatService struct {
	mock.Mock
	rec *callRecorder
}

func (m *mockSeatService) BlockSeat(ctx context.Context, req contract.BlockSeatRequest) (ports.Result, error) {
	m.rec.note("block_seat")
	args := m.Called(ctx, req)
	return args.Get(0).(ports.Result), args.Error(1)
}

func (m *mockSeatService) ReleaseSeat(ctx context.Context, bookingID string) (ports.Result, error) {
	m.rec.note("release_seat")
	args := m.Called(ctx, bookingID)
	return args.Get(0).(ports.Result), args.Error(1)
}

type mockPaymentService struct {
	mock.Mock
	rec *callRecorder
}

func (m *mockPaymentService) ProcessPayment(ctx context.Context, req contract.ProcessPaymentRequest) (ports.Result, error) {
	m.rec.note("process_payment")
	args := m.Called(ctx, req)
	return args.Get(0).(ports.Result), args.Error(1)
}

func (m *mockPaymentService) RefundPayment(ctx context.Context, bookingID string) (ports.Result, error) {
	m.rec.note("refund_payment")
	args := m.Called(ctx, bookingID)
	return args.Get(0).(ports.Result), args.Error(1)
}

type mockAllocationService struct {
	mock.Mock
	rec *callRecorder
}

func (m *mockAllocationService) AllocateSeat(ctx context.Context, req contract.AllocateSeatRequest) (ports.Result, error) {
	m.rec.note("allocate_seat")
	args := m.Called(ctx, req)
	return args.Get(0).(ports.Result), args.Error(1)
}

func (m *mockAllocationService) CancelAllocation(ctx context.Context, bookingID string) (ports.Result, error) {
	m.rec.note("cancel_allocation")
	args := m.Called(ctx, bookingID)
	return args.Get(0).(ports.Result), args.Error(1)
}

type engineFixture struct {
	engine      *Engine
	store       *bookinglog.MemoryStore
	seats       *mockSeatService
	payments    *mockPaymentService
	allocations *mockAllocationService
	rec         *callRecorder
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()
	rec := &callRecorder{}
	f := &engineFixture{
		store:       bookinglog.NewMemoryStore(),
		seats:       &mockSeatService{rec: rec},
		payments:    &mockPaymentService{rec: rec},
		allocations: &mockAllocationService{rec: rec},
		rec:         rec,
	}
	f.engine = NewEngine(f.store, f.seats, f.payments, f.allocations,
		WithPublisher(events.NoopPublisher{}),
		WithMetrics(metrics.NewSaga(prometheus.NewRegistry())),
	)
	return f
}

func (f *engineFixture) createBooking(t *testing.T, id string) {
	t.Helper()
	err := f.store.Create(context.Background(), &bookinglog.Booking{
		ID:            id,
		PassengerName: "John Doe",
		FlightNumber:  "FL001",
		SeatNumber:    "1A",
		PaymentDetails: bookinglog.PaymentDetails{
			Amount:            299.99,
			Currency:          "USD",
			PaymentMethodType: "credit_card",
		},
		Status: bookinglog.StatusPending,
	})
	require.NoError(t, err)
}

func blockedResult() ports.Result {
	return ports.Result{
		Status:  string(contract.StatusCompleted),
		Message: "seat 1A blocked",
		Data:    map[string]any{"flight_number": "FL001", "seat_number": "1A"},
	}
}

func paidResult() ports.Result {
	return ports.Result{
		Status:  string(contract.StatusCompleted),
		Message: "payment processed",
		Data:    map[string]any{"payment_id": "pay_a1b2c3d4", "amount": 299.99},
	}
}

func allocatedResult() ports.Result {
	return ports.Result{
		Status:  string(contract.StatusCompleted),
		Message: "seat allocated",
		Data: map[string]any{
			"allocation_id": "alloc_e5f6a7b8",
			"boarding_pass": map[string]any{
				"passenger": "John Doe",
				"flight":    "FL001",
				"seat":      "1A",
				"gate":      "B12",
			},
		},
	}
}

func releasedResult() ports.Result {
	return ports.Result{Status: string(contract.StatusReleased), Message: "seat released"}
}

func refundedResult() ports.Result {
	return ports.Result{
		Status:  string(contract.StatusRefunded),
		Message: "payment refunded",
		Data:    map[string]any{"payment_id": "pay_a1b2c3d4", "refund_id": "ref_a1b2c3d4"},
	}
}

func cancelledAllocationResult() ports.Result {
	return ports.Result{Status: string(contract.StatusReleased), Message: "allocation cancelled"}
}

func TestRunCompletesBooking(t *testing.T) {
	f := newEngineFixture(t)
	f.createBooking(t, "booking-1")

	f.seats.On("BlockSeat", mock.Anything, mock.Anything).Return(blockedResult(), nil)
	f.payments.On("ProcessPayment", mock.Anything, mock.Anything).Return(paidResult(), nil)
	f.allocations.On("AllocateSeat", mock.Anything, mock.Anything).Return(allocatedResult(), nil)

	err := f.engine.Run(context.Background(), "booking-1")
	require.NoError(t, err)

	b, err := f.store.Get(context.Background(), "booking-1")
	require.NoError(t, err)
	assert.Equal(t, bookinglog.StatusCompleted, b.Status)

	require.Len(t, b.Steps, 3)
	assert.Equal(t, "block_seat", b.Steps[0].Operation)
	assert.Equal(t, "process_payment", b.Steps[1].Operation)
	assert.Equal(t, "allocate_seat", b.Steps[2].Operation)
	for _, s := range b.Steps {
		assert.Equal(t, bookinglog.StepCompleted, s.Status)
	}

	require.NotNil(t, b.BoardingPass)
	assert.Equal(t, "1A", b.BoardingPass["seat"])
	assert.Equal(t, "B12", b.BoardingPass["gate"])

	assert.Equal(t, []string{"block_seat", "process_payment", "allocate_seat"}, f.rec.calls)
	f.seats.AssertNotCalled(t, "ReleaseSeat", mock.Anything, mock.Anything)
}

func TestRunPaymentFailureReleasesSeat(t *testing.T) {
	f := newEngineFixture(t)
	f.createBooking(t, "booking-2")

	declined := &ports.ServiceError{Service: "payment_service", StatusCode: 400, Message: "payment declined: amount exceeds limit"}
	f.seats.On("BlockSeat", mock.Anything, mock.Anything).Return(blockedResult(), nil)
	f.payments.On("ProcessPayment", mock.Anything, mock.Anything).Return(ports.Result{}, declined)
	f.seats.On("ReleaseSeat", mock.Anything, "booking-2").Return(releasedResult(), nil)

	err := f.engine.Run(context.Background(), "booking-2")
	require.Error(t, err)
	var svcErr *ports.ServiceError
	assert.ErrorAs(t, err, &svcErr)

	b, err := f.store.Get(context.Background(), "booking-2")
	require.NoError(t, err)
	assert.Equal(t, bookinglog.StatusFailed, b.Status)

	require.Len(t, b.Steps, 3)
	assert.Equal(t, "block_seat", b.Steps[0].Operation)
	assert.Equal(t, bookinglog.StepCompleted, b.Steps[0].Status)
	assert.Equal(t, "process_payment", b.Steps[1].Operation)
	assert.Equal(t, bookinglog.StepFailed, b.Steps[1].Status)
	assert.Contains(t, b.Steps[1].Message, "payment declined")
	assert.Equal(t, "release_seat", b.Steps[2].Operation)
	assert.Equal(t, bookinglog.StepReleased, b.Steps[2].Status)

	f.allocations.AssertNotCalled(t, "AllocateSeat", mock.Anything, mock.Anything)
	f.payments.AssertNotCalled(t, "RefundPayment", mock.Anything, mock.Anything)
}

func TestRunAllocationFailureCompensatesInReverseOrder(t *testing.T) {
	f := newEngineFixture(t)
	f.createBooking(t, "booking-3")

	noSeat := &ports.ServiceError{Service: "allocation_service", StatusCode: 400, Message: "no allocation possible"}
	f.seats.On("BlockSeat", mock.Anything, mock.Anything).Return(blockedResult(), nil)
	f.payments.On("ProcessPayment", mock.Anything, mock.Anything).Return(paidResult(), nil)
	f.allocations.On("AllocateSeat", mock.Anything, mock.Anything).Return(ports.Result{}, noSeat)
	f.payments.On("RefundPayment", mock.Anything, "booking-3").Return(refundedResult(), nil)
	f.seats.On("ReleaseSeat", mock.Anything, "booking-3").Return(releasedResult(), nil)

	err := f.engine.Run(context.Background(), "booking-3")
	require.Error(t, err)

	// Refund strictly before release: reverse order of completion.
	assert.Equal(t, []string{
		"block_seat", "process_payment", "allocate_seat",
		"refund_payment", "release_seat",
	}, f.rec.calls)

	b, err := f.store.Get(context.Background(), "booking-3")
	require.NoError(t, err)
	assert.Equal(t, bookinglog.StatusFailed, b.Status)

	require.Len(t, b.Steps, 5)
	assert.Equal(t, bookinglog.StepFailed, b.Steps[2].Status)
	assert.Equal(t, "refund_payment", b.Steps[3].Operation)
	assert.Equal(t, bookinglog.StepRefunded, b.Steps[3].Status)
	assert.Equal(t, "release_seat", b.Steps[4].Operation)
	assert.Equal(t, bookinglog.StepReleased, b.Steps[4].Status)
}

func TestRunBlockFailureNeedsNoCompensation(t *testing.T) {
	f := newEngineFixture(t)
	f.createBooking(t, "booking-4")

	taken := &ports.ServiceError{Service: "seat_service", StatusCode: 409, Message: "seat 1A is not available"}
	f.seats.On("BlockSeat", mock.Anything, mock.Anything).Return(ports.Result{}, taken)

	err := f.engine.Run(context.Background(), "booking-4")
	require.Error(t, err)

	b, err := f.store.Get(context.Background(), "booking-4")
	require.NoError(t, err)
	assert.Equal(t, bookinglog.StatusFailed, b.Status)
	require.Len(t, b.Steps, 1)
	assert.Equal(t, bookinglog.StepFailed, b.Steps[0].Status)

	f.seats.AssertNotCalled(t, "ReleaseSeat", mock.Anything, mock.Anything)
	f.payments.AssertNotCalled(t, "RefundPayment", mock.Anything, mock.Anything)
	f.allocations.AssertNotCalled(t, "CancelAllocation", mock.Anything, mock.Anything)
}

func TestRunCompensationFailureIsRecordedNotFatal(t *testing.T) {
	f := newEngineFixture(t)
	f.createBooking(t, "booking-5")

	f.seats.On("BlockSeat", mock.Anything, mock.Anything).Return(blockedResult(), nil)
	f.payments.On("ProcessPayment", mock.Anything, mock.Anything).
		Return(ports.Result{}, errors.New("payment_service: request timed out"))
	f.seats.On("ReleaseSeat", mock.Anything, "booking-5").
		Return(ports.Result{}, errors.New("seat_service unreachable"))

	err := f.engine.Run(context.Background(), "booking-5")
	require.Error(t, err)

	b, err := f.store.Get(context.Background(), "booking-5")
	require.NoError(t, err)
	// The saga still reaches its terminal state.
	assert.Equal(t, bookinglog.StatusFailed, b.Status)

	require.Len(t, b.Steps, 3)
	assert.Equal(t, "release_seat", b.Steps[2].Operation)
	assert.Equal(t, bookinglog.StepFailed, b.Steps[2].Status)
	assert.Contains(t, b.Steps[2].Message, "unreachable")
}

func TestRunRejectsNonPendingBooking(t *testing.T) {
	f := newEngineFixture(t)
	f.createBooking(t, "booking-6")
	require.NoError(t, f.store.SetStatus(context.Background(), "booking-6", bookinglog.StatusInProgress))

	err := f.engine.Run(context.Background(), "booking-6")
	assert.ErrorIs(t, err, ErrAlreadyStarted)
	assert.Empty(t, f.rec.calls)
}

func TestRunUnknownBooking(t *testing.T) {
	f := newEngineFixture(t)
	err := f.engine.Run(context.Background(), "missing")
	assert.ErrorIs(t, err, bookinglog.ErrNotFound)
}

func TestCancelCompletedBooking(t *testing.T) {
	f := newEngineFixture(t)
	f.createBooking(t, "booking-7")

	f.seats.On("BlockSeat", mock.Anything, mock.Anything).Return(blockedResult(), nil)
	f.payments.On("ProcessPayment", mock.Anything, mock.Anything).Return(paidResult(), nil)
	f.allocations.On("AllocateSeat", mock.Anything, mock.Anything).Return(allocatedResult(), nil)
	require.NoError(t, f.engine.Run(context.Background(), "booking-7"))

	f.allocations.On("CancelAllocation", mock.Anything, "booking-7").Return(cancelledAllocationResult(), nil)
	f.payments.On("RefundPayment", mock.Anything, "booking-7").Return(refundedResult(), nil)
	f.seats.On("ReleaseSeat", mock.Anything, "booking-7").Return(releasedResult(), nil)

	records, err := f.engine.Cancel(context.Background(), "booking-7")
	require.NoError(t, err)

	require.Len(t, records, 3)
	assert.Equal(t, "cancel_allocation", records[0].Operation)
	assert.Equal(t, "refund_payment", records[1].Operation)
	assert.Equal(t, "release_seat", records[2].Operation)
	assert.Equal(t, bookinglog.StepRefunded, records[1].Status)

	b, err := f.store.Get(context.Background(), "booking-7")
	require.NoError(t, err)
	assert.Equal(t, bookinglog.StatusCancelled, b.Status)
	assert.Len(t, b.Steps, 6)
}

func TestCancelPartialBookingSkipsUnfinishedSteps(t *testing.T) {
	f := newEngineFixture(t)
	f.createBooking(t, "booking-8")

	// Simulate a saga stalled after the seat block: the forward record
	// exists for block_seat only and the booking sits IN_PROGRESS.
	ctx := context.Background()
	require.NoError(t, f.store.SetStatus(ctx, "booking-8", bookinglog.StatusInProgress))
	require.NoError(t, f.store.AppendStep(ctx, "booking-8", bookinglog.StepRecord{
		Service:   "seat_service",
		Operation: "block_seat",
		Status:    bookinglog.StepCompleted,
	}))

	f.seats.On("ReleaseSeat", mock.Anything, "booking-8").Return(releasedResult(), nil)

	records, err := f.engine.Cancel(ctx, "booking-8")
	require.NoError(t, err)

	require.Len(t, records, 3)
	assert.Equal(t, "cancel_allocation", records[0].Operation)
	assert.Equal(t, bookinglog.StepSkipped, records[0].Status)
	assert.Equal(t, "refund_payment", records[1].Operation)
	assert.Equal(t, bookinglog.StepSkipped, records[1].Status)
	assert.Equal(t, "release_seat", records[2].Operation)
	assert.Equal(t, bookinglog.StepReleased, records[2].Status)

	f.payments.AssertNotCalled(t, "RefundPayment", mock.Anything, mock.Anything)
	f.allocations.AssertNotCalled(t, "CancelAllocation", mock.Anything, mock.Anything)
}

func TestCancelRejectsNonCancellableStates(t *testing.T) {
	for _, status := range []bookinglog.Status{
		bookinglog.StatusPending,
		bookinglog.StatusFailed,
		bookinglog.StatusCancelled,
	} {
		t.Run(string(status), func(t *testing.T) {
			f := newEngineFixture(t)
			f.createBooking(t, "booking-9")
			if status != bookinglog.StatusPending {
				require.NoError(t, f.store.SetStatus(context.Background(), "booking-9", status))
			}

			records, err := f.engine.Cancel(context.Background(), "booking-9")
			assert.ErrorIs(t, err, ErrNotCancellable)
			assert.Nil(t, records)

			// Rejection must not mutate the booking.
			b, err := f.store.Get(context.Background(), "booking-9")
			require.NoError(t, err)
			assert.Equal(t, status, b.Status)
			assert.Empty(t, b.Steps)
		})
	}
}

func TestCancelUnknownBooking(t *testing.T) {
	f := newEngineFixture(t)
	records, err := f.engine.Cancel(context.Background(), "missing")
	assert.ErrorIs(t, err, bookinglog.ErrNotFound)
	assert.Nil(t, records)
}
