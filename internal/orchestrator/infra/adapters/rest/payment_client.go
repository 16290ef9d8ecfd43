package rest

import (
	"context"
	"time"

	"github.com/jcmexdev/airline-sagas/internal/orchestrator/core/ports"
	"github.com/jcmexdev/airline-sagas/internal/pkg/contract"
)

// PaymentClient talks to the payment service over JSON/HTTP.
type PaymentClient struct {
	client
}

func NewPaymentClient(baseURL string, timeout time.Duration) *PaymentClient {
	return &PaymentClient{client: newClient(baseURL, "payment_service", timeout)}
}

func (c *PaymentClient) ProcessPayment(ctx context.Context, req contract.ProcessPaymentRequest) (ports.Result, error) {
	return c.post(ctx, "/api/payments/process", req)
}

func (c *PaymentClient) RefundPayment(ctx context.Context, bookingID string) (ports.Result, error) {
	return c.post(ctx, "/api/payments/refund", contract.RefundPaymentRequest{BookingID: bookingID})
}

var _ ports.PaymentService = (*PaymentClient)(nil)
