// Package paymentservice implements the payment service: it charges a
// booking as the saga's second forward step and refunds the charge as the
// compensating inverse. Both operations are idempotent per booking so the
// orchestrator's at-least-once attempts are safe.
package paymentservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jcmexdev/airline-sagas/internal/pkg/cache"
)

// DefaultAmountLimit is the simulated gateway limit: payments above it
// are declined.
const DefaultAmountLimit = 1000.0

var (
	ErrPaymentDeclined  = errors.New("payment amount exceeds limit")
	ErrPaymentNotFound  = errors.New("no payment found for booking")
	ErrRefundNotAllowed = errors.New("payment cannot be refunded")
)

type PaymentStatus string

const (
	PaymentCompleted PaymentStatus = "COMPLETED"
	PaymentRefunded  PaymentStatus = "REFUNDED"
)

type Payment struct {
	PaymentID         string         `json:"payment_id"`
	BookingID         string         `json:"booking_id"`
	Amount            float64        `json:"amount"`
	Currency          string         `json:"currency"`
	PaymentMethodType string         `json:"payment_method_type"`
	PaymentMetadata   map[string]any `json:"payment_metadata,omitempty"`
	Status            PaymentStatus  `json:"status"`
}

// Service keeps payments in memory and optionally mirrors them into redis
// so other instances can look a booking's payment up by id.
type Service struct {
	mu        sync.Mutex
	payments  map[string]*Payment // payment id -> payment
	byBooking map[string]string   // booking id -> payment id

	cache cache.Cache // nil-safe: mirroring skipped if nil
	limit float64
}

type Option func(*Service)

func WithCache(c cache.Cache) Option {
	return func(s *Service) { s.cache = c }
}

func WithAmountLimit(limit float64) Option {
	return func(s *Service) { s.limit = limit }
}

func NewService(opts ...Option) *Service {
	s := &Service{
		payments:  make(map[string]*Payment),
		byBooking: make(map[string]string),
		limit:     DefaultAmountLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Process charges a booking. A repeated request for a booking whose
// payment already completed returns the existing payment.
func (s *Service) Process(ctx context.Context, bookingID string, amount float64, currency, methodType string, metadata map[string]any) (*Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.byBooking[bookingID]; ok {
		if existing := s.payments[id]; existing.Status == PaymentCompleted {
			return existing, nil
		}
	}

	if amount > s.limit {
		return nil, fmt.Errorf("%w: %.2f > %.2f", ErrPaymentDeclined, amount, s.limit)
	}

	payment := &Payment{
		PaymentID:         newPaymentID(),
		BookingID:         bookingID,
		Amount:            amount,
		Currency:          currency,
		PaymentMethodType: methodType,
		PaymentMetadata:   metadata,
		Status:            PaymentCompleted,
	}
	s.payments[payment.PaymentID] = payment
	s.byBooking[bookingID] = payment.PaymentID

	s.mirror(ctx, payment)
	return payment, nil
}

// Refund reverses the payment for a booking. Refunding twice returns the
// same deterministic refund id, so a repeated compensation attempt has no
// extra side effects.
func (s *Service) Refund(ctx context.Context, bookingID string) (paymentID, refundID string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byBooking[bookingID]
	if !ok {
		return "", "", fmt.Errorf("%w: %s", ErrPaymentNotFound, bookingID)
	}
	payment := s.payments[id]

	if payment.Status == PaymentRefunded {
		return payment.PaymentID, refundIDFor(payment.PaymentID), nil
	}
	if payment.Status != PaymentCompleted {
		return "", "", fmt.Errorf("%w: payment %s is %s", ErrRefundNotAllowed, payment.PaymentID, payment.Status)
	}

	payment.Status = PaymentRefunded
	s.mirror(ctx, payment)
	return payment.PaymentID, refundIDFor(payment.PaymentID), nil
}

// Get returns the payment for a booking.
func (s *Service) Get(bookingID string) (*Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byBooking[bookingID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPaymentNotFound, bookingID)
	}
	payment := *s.payments[id]
	return &payment, nil
}

func (s *Service) mirror(ctx context.Context, p *Payment) {
	if s.cache == nil {
		return
	}
	key := s.cache.GenerateKey("booking", p.BookingID)
	value := fmt.Sprintf("%s:%s", p.PaymentID, p.Status)
	if err := s.cache.Set(ctx, key, value, 24*time.Hour); err != nil {
		slog.WarnContext(ctx, "failed to mirror payment to cache",
			"booking_id", p.BookingID, "payment_id", p.PaymentID, "error", err)
	}
}

func newPaymentID() string {
	return "pay_" + uuid.NewString()[:8]
}

// refundIDFor derives the refund id from the payment id so repeated
// refunds always produce the same identifier.
func refundIDFor(paymentID string) string {
	return "ref_" + strings.TrimPrefix(paymentID, "pay_")
}
