package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/worldland/spark-gateway/internal/domain"
)

// GatewayClient wraps the gateway's REST API
type GatewayClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewGatewayClient creates a new gateway API client
func NewGatewayClient(baseURL string, timeout time.Duration) *GatewayClient {
	return &GatewayClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// --- Response types ---

// HealthResponse represents the /health endpoint response
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// APIError is an error body returned by the gateway
type APIError struct {
	StatusCode int
	Message    string `json:"error"`
	Code       string `json:"code"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("gateway returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("gateway error %d: %s", e.StatusCode, e.Message)
}

// --- Gateway API ---

// GPU returns the current GPU telemetry
func (c *GatewayClient) GPU(ctx context.Context) (*domain.TelemetrySnapshot, error) {
	var snap domain.TelemetrySnapshot
	if err := c.doGet(ctx, "/gpu", &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Services returns the status of every registered service
func (c *GatewayClient) Services(ctx context.Context) (*domain.FleetSnapshot, error) {
	var fleet domain.FleetSnapshot
	if err := c.doGet(ctx, "/services", &fleet); err != nil {
		return nil, err
	}
	return &fleet, nil
}

// Service returns the status of one service
func (c *GatewayClient) Service(ctx context.Context, name string) (*domain.ServiceStatus, error) {
	var status domain.ServiceStatus
	if err := c.doGet(ctx, "/services/"+url.PathEscape(name), &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Available asks whether a capability type can be served locally
func (c *GatewayClient) Available(ctx context.Context, capability, mode string) (*domain.AvailabilityDecision, error) {
	path := "/available/" + url.PathEscape(capability)
	if mode != "" {
		path += "?mode=" + url.QueryEscape(mode)
	}

	var decision domain.AvailabilityDecision
	if err := c.doGet(ctx, path, &decision); err != nil {
		return nil, err
	}
	return &decision, nil
}

// Health checks gateway liveness
func (c *GatewayClient) Health(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.doGet(ctx, "/health", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// --- HTTP helpers ---

func (c *GatewayClient) doGet(ctx context.Context, path string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return c.doRequest(req, result)
}

func (c *GatewayClient) doRequest(req *http.Request, result interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return fmt.Errorf("request canceled")
		}
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return fmt.Errorf("request timed out")
		}
		return fmt.Errorf("cannot connect to gateway at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		_ = json.Unmarshal(body, apiErr)
		return apiErr
	}

	if result != nil && len(body) > 0 {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("invalid response from gateway: %w", err)
		}
	}

	return nil
}

func isTimeout(err error) bool {
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}
