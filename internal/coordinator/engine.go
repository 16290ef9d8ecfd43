// Package coordinator implements the saga engine for the airline booking
// flow: it drives the forward step sequence (block seat → process payment →
// allocate seat), records every outcome in the booking log, and on failure
// or explicit cancellation runs the compensating actions in reverse order
// of the steps that actually completed.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jcmexdev/airline-sagas/internal/coordinator/bookinglog"
	"github.com/jcmexdev/airline-sagas/internal/orchestrator/core/ports"
	"github.com/jcmexdev/airline-sagas/internal/pkg/events"
	"github.com/jcmexdev/airline-sagas/internal/pkg/metrics"
)

// ErrNotCancellable is returned by Cancel when the booking is in a state
// that rejects explicit cancellation (PENDING, FAILED or CANCELLED).
var ErrNotCancellable = errors.New("coordinator: booking is not in a cancellable state")

// ErrAlreadyStarted is returned by Run when the booking left PENDING
// already: at-least-once dispatch must not replay forward steps.
var ErrAlreadyStarted = errors.New("coordinator: saga already started")

// Engine executes booking sagas. All operations for one booking are
// linearized through a per-booking mutex: a cancel request racing an
// in-flight saga blocks until every pending step has settled, so the
// engine never compensates a step whose outcome is still unknown.
// Different bookings proceed concurrently.
type Engine struct {
	store       bookinglog.Store
	seats       ports.SeatService
	payments    ports.PaymentService
	allocations ports.AllocationService

	publisher events.Publisher // nil-safe: events skipped if nil
	metrics   *metrics.Saga    // nil-safe: counters skipped if nil

	locks sync.Map // booking id -> *sync.Mutex
}

type Option func(*Engine)

// WithPublisher attaches a lifecycle event publisher. Publishing is
// best-effort: a broker failure is logged, never fails the saga.
func WithPublisher(p events.Publisher) Option {
	return func(e *Engine) { e.publisher = p }
}

func WithMetrics(m *metrics.Saga) Option {
	return func(e *Engine) { e.metrics = m }
}

func NewEngine(
	store bookinglog.Store,
	seats ports.SeatService,
	payments ports.PaymentService,
	allocations ports.AllocationService,
	opts ...Option,
) *Engine {
	e := &Engine{
		store:       store,
		seats:       seats,
		payments:    payments,
		allocations: allocations,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// forwardSteps builds the declared forward sequence for a booking. The
// slice order is the execution order; compensation is its reverse.
func (e *Engine) forwardSteps(b *bookinglog.Booking) []Step {
	return []Step{
		NewBlockSeatStep(e.seats, b.ID, b.FlightNumber, b.SeatNumber),
		NewProcessPaymentStep(e.payments, b.ID, b.PaymentDetails),
		NewAllocateSeatStep(e.allocations, b.ID, b.FlightNumber, b.SeatNumber, b.PassengerName),
	}
}

// Run executes the forward step sequence for a PENDING booking. On the
// first step failure it stops, compensates every previously completed step
// in reverse order, and leaves the booking FAILED. On full success the
// booking is COMPLETED and carries the boarding pass from the allocation
// step. Every outcome is appended to the booking log before the final
// status transition; no downstream error escapes as an unhandled fault.
func (e *Engine) Run(ctx context.Context, bookingID string) error {
	mu := e.lockFor(bookingID)
	mu.Lock()
	defer mu.Unlock()

	booking, err := e.store.Get(ctx, bookingID)
	if err != nil {
		return err
	}
	if booking.Status != bookinglog.StatusPending {
		return fmt.Errorf("%w: %s is %s", ErrAlreadyStarted, bookingID, booking.Status)
	}

	if err := e.store.SetStatus(ctx, bookingID, bookinglog.StatusInProgress); err != nil {
		return err
	}
	e.count(func(m *metrics.Saga) { m.Started.Inc() })

	var completed []Step
	var lastResult ports.Result

	for _, step := range e.forwardSteps(booking) {
		slog.InfoContext(ctx, "executing saga step",
			"booking_id", bookingID, "service", step.Service(), "operation", step.Operation())

		res, stepErr := step.Execute(ctx)
		if stepErr != nil {
			slog.ErrorContext(ctx, "saga step failed, starting compensation",
				"booking_id", bookingID, "operation", step.Operation(), "error", stepErr)

			e.appendRecord(ctx, bookingID, bookinglog.StepRecord{
				Service:   step.Service(),
				Operation: step.Operation(),
				Status:    bookinglog.StepFailed,
				Timestamp: time.Now().UTC(),
				Message:   stepErr.Error(),
			})

			e.compensateSteps(ctx, bookingID, completed)

			if err := e.store.SetStatus(ctx, bookingID, bookinglog.StatusFailed); err != nil {
				return err
			}
			e.count(func(m *metrics.Saga) { m.Failed.Inc() })
			e.publish(ctx, booking, events.TypeBookingFailed, bookinglog.StatusFailed)
			return fmt.Errorf("saga failed at %s: %w", step.Operation(), stepErr)
		}

		e.appendRecord(ctx, bookingID, bookinglog.StepRecord{
			Service:    step.Service(),
			Operation:  step.Operation(),
			Status:     forwardStatus(res),
			Timestamp:  time.Now().UTC(),
			Message:    res.Message,
			ResultData: res.Data,
		})
		completed = append(completed, step)
		lastResult = res
	}

	if pass, ok := lastResult.Data["boarding_pass"].(map[string]any); ok {
		if err := e.store.SetBoardingPass(ctx, bookingID, pass); err != nil {
			return err
		}
	}

	if err := e.store.SetStatus(ctx, bookingID, bookinglog.StatusCompleted); err != nil {
		return err
	}
	e.count(func(m *metrics.Saga) { m.Completed.Inc() })
	e.publish(ctx, booking, events.TypeBookingCompleted, bookinglog.StatusCompleted)

	slog.InfoContext(ctx, "saga completed", "booking_id", bookingID)
	return nil
}

// Cancel explicitly cancels a booking. Permitted from IN_PROGRESS or
// COMPLETED only: the booking transitions to CANCELLING, every completed
// forward step is compensated in reverse order of original execution, and
// the booking ends CANCELLED. The appended compensation records are
// returned. Rejection (wrong state, unknown id) mutates nothing.
func (e *Engine) Cancel(ctx context.Context, bookingID string) ([]bookinglog.StepRecord, error) {
	mu := e.lockFor(bookingID)
	mu.Lock()
	defer mu.Unlock()

	booking, err := e.store.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !booking.Status.Cancellable() {
		return nil, fmt.Errorf("%w: %s is %s", ErrNotCancellable, bookingID, booking.Status)
	}

	if err := e.store.SetStatus(ctx, bookingID, bookinglog.StatusCancelling); err != nil {
		return nil, err
	}

	// Walk the declared forward sequence backwards. Steps that never
	// completed get a SKIPPED record instead of a compensation call.
	steps := e.forwardSteps(booking)
	records := make([]bookinglog.StepRecord, 0, len(steps))
	for i := len(steps) - 1; i >= 0; i-- {
		step := steps[i]
		if !booking.CompletedForward(step.Operation()) {
			rec := bookinglog.StepRecord{
				Service:   step.Service(),
				Operation: step.CompensationOperation(),
				Status:    bookinglog.StepSkipped,
				Timestamp: time.Now().UTC(),
				Message:   "forward step did not complete, compensation not required",
			}
			e.appendRecord(ctx, bookingID, rec)
			records = append(records, rec)
			continue
		}
		records = append(records, e.compensateOne(ctx, bookingID, step))
	}

	if err := e.store.SetStatus(ctx, bookingID, bookinglog.StatusCancelled); err != nil {
		return records, err
	}
	e.count(func(m *metrics.Saga) { m.Cancelled.Inc() })
	e.publish(ctx, booking, events.TypeBookingCancelled, bookinglog.StatusCancelled)

	slog.InfoContext(ctx, "booking cancelled", "booking_id", bookingID, "compensations", len(records))
	return records, nil
}

// compensateSteps undoes previously completed steps in strict reverse
// order of original execution (LIFO). Compensation failures are recorded
// and do not stop the remaining compensations.
func (e *Engine) compensateSteps(ctx context.Context, bookingID string, completed []Step) {
	for i := len(completed) - 1; i >= 0; i-- {
		e.compensateOne(ctx, bookingID, completed[i])
	}
}

// compensateOne runs a single compensating action and appends its record.
// The downstream inverses are idempotent, so a repeated call after an
// ambiguous failure is safe.
func (e *Engine) compensateOne(ctx context.Context, bookingID string, step Step) bookinglog.StepRecord {
	slog.InfoContext(ctx, "compensating saga step",
		"booking_id", bookingID, "service", step.Service(), "operation", step.CompensationOperation())

	rec := bookinglog.StepRecord{
		Service:   step.Service(),
		Operation: step.CompensationOperation(),
		Timestamp: time.Now().UTC(),
	}

	res, err := step.Compensate(ctx)
	if err != nil {
		// Visible but non-fatal: the saga still reaches its terminal
		// state and the record flags the anomaly for operator attention.
		slog.ErrorContext(ctx, "compensation failed",
			"booking_id", bookingID, "operation", step.CompensationOperation(), "error", err)
		rec.Status = bookinglog.StepFailed
		rec.Message = err.Error()
		e.count(func(m *metrics.Saga) { m.Compensations.WithLabelValues(step.CompensationOperation(), "failed").Inc() })
	} else {
		rec.Status = compensationStatus(res)
		rec.Message = res.Message
		rec.ResultData = res.Data
		e.count(func(m *metrics.Saga) { m.Compensations.WithLabelValues(step.CompensationOperation(), "ok").Inc() })
	}

	e.appendRecord(ctx, bookingID, rec)
	return rec
}

func (e *Engine) appendRecord(ctx context.Context, bookingID string, rec bookinglog.StepRecord) {
	if err := e.store.AppendStep(ctx, bookingID, rec); err != nil {
		slog.ErrorContext(ctx, "failed to append step record",
			"booking_id", bookingID, "operation", rec.Operation, "error", err)
	}
}

func (e *Engine) publish(ctx context.Context, b *bookinglog.Booking, eventType string, status bookinglog.Status) {
	if e.publisher == nil {
		return
	}
	evt := events.BookingEvent{
		Type:          eventType,
		BookingID:     b.ID,
		PassengerName: b.PassengerName,
		FlightNumber:  b.FlightNumber,
		SeatNumber:    b.SeatNumber,
		Status:        string(status),
		OccurredAt:    time.Now().UTC(),
	}
	if err := e.publisher.Publish(ctx, b.ID, evt); err != nil {
		slog.WarnContext(ctx, "failed to publish booking event",
			"booking_id", b.ID, "type", eventType, "error", err)
	}
}

func (e *Engine) count(fn func(m *metrics.Saga)) {
	if e.metrics != nil {
		fn(e.metrics)
	}
}

func (e *Engine) lockFor(bookingID string) *sync.Mutex {
	v, _ := e.locks.LoadOrStore(bookingID, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// forwardStatus maps a downstream result status onto a step record status,
// defaulting to COMPLETED when the service omitted the label.
func forwardStatus(res ports.Result) bookinglog.StepStatus {
	if res.Status == "" {
		return bookinglog.StepCompleted
	}
	return bookinglog.StepStatus(res.Status)
}

// compensationStatus defaults to RELEASED, the generic "resource freed"
// label, when the service omitted one.
func compensationStatus(res ports.Result) bookinglog.StepStatus {
	if res.Status == "" {
		return bookinglog.StepReleased
	}
	return bookinglog.StepStatus(res.Status)
}
