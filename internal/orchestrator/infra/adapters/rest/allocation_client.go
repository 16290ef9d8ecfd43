package rest

import (
	"context"
	"time"

	"github.com/jcmexdev/airline-sagas/internal/orchestrator/core/ports"
	"github.com/jcmexdev/airline-sagas/internal/pkg/contract"
)

// AllocationClient talks to the allocation service over JSON/HTTP.
type AllocationClient struct {
	client
}

func NewAllocationClient(baseURL string, timeout time.Duration) *AllocationClient {
	return &AllocationClient{client: newClient(baseURL, "allocation_service", timeout)}
}

func (c *AllocationClient) AllocateSeat(ctx context.Context, req contract.AllocateSeatRequest) (ports.Result, error) {
	return c.post(ctx, "/api/allocations/allocate", req)
}

func (c *AllocationClient) CancelAllocation(ctx context.Context, bookingID string) (ports.Result, error) {
	return c.post(ctx, "/api/allocations/cancel", contract.CancelAllocationRequest{BookingID: bookingID})
}

var _ ports.AllocationService = (*AllocationClient)(nil)
