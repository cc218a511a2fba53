// Package payment creates hosted checkout sessions with the payment
// provider and verifies the provider's completion webhooks.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/tripmate/travel-platform/internal/model"
)

// Client calls the payment-session creation function.
type Client struct {
	functionURL string
	apiKey      string
	httpClient  *http.Client
}

// NewClient returns a client posting to functionURL. apiKey, when set, is
// sent as a bearer token.
func NewClient(functionURL, apiKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{functionURL: functionURL, apiKey: apiKey, httpClient: httpClient}
}

// CreateSession asks the provider for a hosted checkout page.
func (c *Client) CreateSession(ctx context.Context, req model.PaymentSessionRequest) (model.PaymentSession, error) {
	buf, err := json.Marshal(req)
	if err != nil {
		return model.PaymentSession{}, fmt.Errorf("payment.Client.CreateSession: encode: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.functionURL, bytes.NewReader(buf))
	if err != nil {
		return model.PaymentSession{}, fmt.Errorf("payment.Client.CreateSession: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return model.PaymentSession{}, fmt.Errorf("payment.Client.CreateSession: %w: %v", model.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return model.PaymentSession{}, fmt.Errorf("payment.Client.CreateSession: status %d: %s: %w",
			resp.StatusCode, bytes.TrimSpace(msg), model.ErrUpstream)
	}

	var session model.PaymentSession
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return model.PaymentSession{}, fmt.Errorf("payment.Client.CreateSession: decode: %w: %v", model.ErrUpstream, err)
	}
	if session.URL == "" {
		return model.PaymentSession{}, fmt.Errorf("payment.Client.CreateSession: response has no url: %w", model.ErrUpstream)
	}
	return session, nil
}
