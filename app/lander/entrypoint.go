package lander

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ambros-labs/relayer/app/circuitbreaker"
)

// Entrypoint is the DispatcherEntrypoint collaborator lander mode submits to
// and polls. Implementations are expected to be safe for concurrent use.
type Entrypoint interface {
	SendPayload(ctx context.Context, payload *FullPayload) (PayloadUUID, error)
	PayloadStatus(ctx context.Context, id PayloadUUID) (PayloadStatus, error)
}

// HTTPEntrypoint is the production Entrypoint: a lander process reachable
// over HTTP, guarded by a circuit breaker so a wedged lander fails fast
// instead of starving a worker-pool slot.
type HTTPEntrypoint struct {
	baseURL string
	client  *http.Client
	breaker *circuitbreaker.CircuitBreaker
}

// NewHTTPEntrypoint builds an HTTPEntrypoint against baseURL. maxFailures/
// resetTimeout/halfOpenMaxCalls configure the wrapping circuit breaker the
// same way the teacher configures its RabbitMQ/Redis call sites.
func NewHTTPEntrypoint(baseURL string, maxFailures int, resetTimeout time.Duration, halfOpenMaxCalls int) *HTTPEntrypoint {
	return &HTTPEntrypoint{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		breaker: circuitbreaker.NewCircuitBreaker(maxFailures, resetTimeout, halfOpenMaxCalls),
	}
}

type sendPayloadResponse struct {
	UUID PayloadUUID `json:"uuid"`
}

func (e *HTTPEntrypoint) SendPayload(ctx context.Context, payload *FullPayload) (PayloadUUID, error) {
	var result PayloadUUID

	err := e.breaker.Call(ctx, func() error {
		body, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/payloads", bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := e.client.Do(req)
		if err != nil {
			return fmt.Errorf("send payload: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
			return fmt.Errorf("lander returned status %d", resp.StatusCode)
		}

		var parsed sendPayloadResponse
		if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		result = parsed.UUID
		return nil
	})

	return result, err
}

type payloadStatusResponse struct {
	Status string `json:"status"`
}

func (e *HTTPEntrypoint) PayloadStatus(ctx context.Context, id PayloadUUID) (PayloadStatus, error) {
	var result PayloadStatus

	err := e.breaker.Call(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"/payloads/"+id.String()+"/status", nil)
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}

		resp, err := e.client.Do(req)
		if err != nil {
			return fmt.Errorf("get payload status: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("lander returned status %d", resp.StatusCode)
		}

		var parsed payloadStatusResponse
		if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		result = PayloadStatus{Kind: parseStatusKind(parsed.Status)}
		return nil
	})

	return result, err
}

// CheckHealth reports whether the lander is reachable, satisfying
// health.LanderChecker. It bypasses the circuit breaker: a health probe
// should observe the lander directly, not be short-circuited by a trip
// caused by submit/confirm traffic.
func (e *HTTPEntrypoint) CheckHealth(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("build health request: %w", err)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("lander health check: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("lander health check returned status %d", resp.StatusCode)
	}
	return nil
}

func parseStatusKind(s string) PayloadStatusKind {
	switch s {
	case "included":
		return PayloadStatusIncluded
	case "finalized":
		return PayloadStatusFinalized
	case "dropped":
		return PayloadStatusDropped
	default:
		return PayloadStatusPending
	}
}
