// Package backend holds the HTTP plumbing shared by the SweetShop REST gateways.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sweetshop/sweetshop-client/pkg/errors"
	"github.com/sweetshop/sweetshop-client/pkg/httputil"
	"github.com/sweetshop/sweetshop-client/pkg/logger"
)

// maxErrorBody bounds how much of a failed reply is read looking for a message
const maxErrorBody = 64 << 10

// Client performs JSON requests against the backend
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logger.Logger
}

// NewClient creates a backend client. A zero timeout means 10 seconds.
func NewClient(baseURL string, timeout time.Duration, log *logger.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     log,
	}
}

// Request describes one backend call
type Request struct {
	Method string
	Path   string
	// Token, when set, is sent as a bearer credential
	Token string
	// Body is JSON encoded when non-nil
	Body interface{}
}

// MessageResponse is the backend's usual mutation reply
type MessageResponse struct {
	Message string `json:"message"`
}

// Do executes req and decodes a 2xx JSON reply into out (which may be nil).
// Non-2xx replies become errors.Remote carrying the backend's message.
func (c *Client) Do(ctx context.Context, req Request, out interface{}) error {
	var body io.Reader
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewBuffer(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.baseURL+req.Path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	requestID := httputil.EnsureRequestID(ctx)
	httpReq.Header.Set(httputil.RequestIDHeader, requestID)
	httpReq.Header.Set("Accept", "application/json")
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.Token)
	}

	c.logger.Debug().
		Str("request_id", requestID).
		Str("method", req.Method).
		Str("path", req.Path).
		Bool("authenticated", req.Token != "").
		Msg("calling sweetshop backend")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Error().Err(err).Str("path", req.Path).Msg("failed to call sweetshop backend")
		return fmt.Errorf("failed to call sweetshop backend: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := readMessage(resp.Body)
		c.logger.Warn().
			Str("request_id", requestID).
			Str("path", req.Path).
			Int("status", resp.StatusCode).
			Str("message", message).
			Dur("duration", time.Since(start)).
			Msg("sweetshop backend rejected request")
		return errors.Remote(resp.StatusCode, message)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if err == io.EOF {
			return nil
		}
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// readMessage extracts {"message": "..."} from an error body, tolerating
// anything else the backend might send.
func readMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(data) == 0 {
		return ""
	}
	var resp MessageResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return ""
	}
	return resp.Message
}
