package rest

import (
	"context"
	"time"

	"github.com/jcmexdev/airline-sagas/internal/orchestrator/core/ports"
	"github.com/jcmexdev/airline-sagas/internal/pkg/contract"
)

// SeatClient talks to the seat service over JSON/HTTP.
type SeatClient struct {
	client
}

func NewSeatClient(baseURL string, timeout time.Duration) *SeatClient {
	return &SeatClient{client: newClient(baseURL, "seat_service", timeout)}
}

func (c *SeatClient) BlockSeat(ctx context.Context, req contract.BlockSeatRequest) (ports.Result, error) {
	return c.post(ctx, "/api/seats/block", req)
}

func (c *SeatClient) ReleaseSeat(ctx context.Context, bookingID string) (ports.Result, error) {
	return c.post(ctx, "/api/seats/release", contract.ReleaseSeatRequest{BookingID: bookingID})
}

var _ ports.SeatService = (*SeatClient)(nil)
