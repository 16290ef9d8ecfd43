// Package rest implements the downstream capability ports over JSON/HTTP.
// Each client is a thin transport adapter: it maps typed requests onto the
// service's wire contract and surfaces business rejections as
// ports.ServiceError. No retries happen here; a timeout or rejection is a
// step failure the engine turns into compensation.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/jcmexdev/airline-sagas/internal/orchestrator/core/ports"
	"github.com/jcmexdev/airline-sagas/internal/pkg/contract"
)

type client struct {
	http    *http.Client
	baseURL string
	service string
}

// newClient builds the shared HTTP plumbing: bounded timeout and an
// otelhttp-instrumented transport so the trace context crosses the
// service boundary.
func newClient(baseURL, service string, timeout time.Duration) client {
	return client{
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		baseURL: strings.TrimSuffix(baseURL, "/"),
		service: service,
	}
}

// post sends a JSON request and decodes the common TransactionResult
// envelope. A non-200 status or success=false becomes a ServiceError; a
// transport failure comes back as a plain wrapped error.
func (c client) post(ctx context.Context, path string, body any) (ports.Result, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return ports.Result{}, fmt.Errorf("%s: marshal request: %w", c.service, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return ports.Result{}, fmt.Errorf("%s: build request: %w", c.service, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return ports.Result{}, fmt.Errorf("%s: call %s: %w", c.service, path, err)
	}
	defer resp.Body.Close()

	var tr contract.TransactionResult
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return ports.Result{}, fmt.Errorf("%s: decode response from %s: %w", c.service, path, err)
	}

	if resp.StatusCode != http.StatusOK || !tr.Success {
		msg := tr.Message
		if msg == "" {
			msg = "unknown error"
		}
		return ports.Result{}, &ports.ServiceError{
			Service:    c.service,
			StatusCode: resp.StatusCode,
			Message:    msg,
		}
	}

	return ports.Result{
		Status:  tr.Status,
		Message: tr.Message,
		Data:    tr.Data,
	}, nil
}
