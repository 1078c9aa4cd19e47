// Package flutterwave wraps outbound calls to the payment processor: mobile
// money charges, transaction verification and virtual card issuing.
package flutterwave

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// ErrNotConfigured is returned when a provider call is attempted without the
// required secret key. Surfaced to clients as 503, distinct from internal
// errors.
var ErrNotConfigured = errors.New("payment provider credentials not configured")

// GatewayError is an upstream payment-processor failure. Safe to retry only
// with a fresh idempotency reference.
type GatewayError struct {
	Message string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("payment gateway error: %s", e.Message)
}

// IssuerError is an upstream card-issuer failure.
type IssuerError struct {
	Message string
}

func (e *IssuerError) Error() string {
	return fmt.Sprintf("card issuer error: %s", e.Message)
}

// Client is the single HTTP client to the provider API, constructed once at
// process start and injected into the orchestrators.
type Client struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(baseURL, secretKey string, logger *zap.Logger) *Client {
	return &Client{
		baseURL:   baseURL,
		secretKey: secretKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// envelope is the provider's uniform response wrapper.
type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// apiError is the raw transport/provider failure produced by do. The charge
// and issuing call sites wrap it into GatewayError or IssuerError.
type apiError struct {
	Message string
}

func (e *apiError) Error() string { return e.Message }

func asGatewayError(err error) error {
	var ae *apiError
	if errors.As(err, &ae) {
		return &GatewayError{Message: ae.Message}
	}
	return err
}

func asIssuerError(err error) error {
	var ae *apiError
	if errors.As(err, &ae) {
		return &IssuerError{Message: ae.Message}
	}
	return err
}

// do performs a request and decodes the provider envelope. A non-"success"
// envelope status is returned as an error carrying the provider message; the
// full payload is logged server-side and never forwarded to end users.
func (c *Client) do(ctx context.Context, method, path string, body any) (*envelope, error) {
	if c.secretKey == "" {
		return nil, ErrNotConfigured
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	c.logger.Debug("provider request", zap.String("method", method), zap.String("path", path))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("provider request failed", zap.String("path", path), zap.Error(err))
		return nil, &apiError{Message: "provider unreachable"}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read provider response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		c.logger.Error("provider returned malformed response",
			zap.String("path", path), zap.Int("status", resp.StatusCode))
		return nil, &apiError{Message: "malformed provider response"}
	}

	c.logger.Debug("provider response",
		zap.String("path", path),
		zap.Int("http_status", resp.StatusCode),
		zap.String("status", env.Status),
	)

	if env.Status != "success" {
		c.logger.Error("provider rejected request",
			zap.String("path", path),
			zap.Int("http_status", resp.StatusCode),
			zap.String("message", env.Message),
		)
		return &env, &apiError{Message: env.Message}
	}

	return &env, nil
}
