package phoneverify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/babybook-api/internal/domain"
)

// Provider error codes that mean the number is being throttled.
const (
	codeTooManyRequests  = 20429
	codeMaxCheckAttempts = 60202
	codeMaxSendAttempts  = 60203
)

// Client talks to an external Verify-style phone-verification API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type providerError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type checkResponse struct {
	Status string `json:"status"` // "pending" | "approved" | "canceled"
	providerError
}

// RequestCode asks the provider to send a verification code to the number.
func (c *Client) RequestCode(ctx context.Context, phone string) error {
	body := map[string]string{"to": phone, "channel": "sms"}
	var out providerError
	if err := c.post(ctx, "/v2/verifications", body, &out); err != nil {
		return err
	}
	return nil
}

// CheckCode submits a code for the number and reports whether the provider
// approved it.
func (c *Client) CheckCode(ctx context.Context, phone, code string) (bool, error) {
	body := map[string]string{"to": phone, "code": code}
	var out checkResponse
	if err := c.post(ctx, "/v2/verifications/check", body, &out); err != nil {
		return false, err
	}
	return out.Status == "approved", nil
}

func (c *Client) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("phone verification provider unreachable: %w", err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && resp.StatusCode < 300 {
		return fmt.Errorf("decode provider response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return c.mapError(resp.StatusCode, out)
	}
	return nil
}

// mapError translates provider failures into domain errors. Rate-limit
// signals become ErrMaxAttempts; everything else propagates as a generic
// provider error so the raw provider code never reaches the caller.
func (c *Client) mapError(status int, out interface{}) error {
	code := 0
	switch v := out.(type) {
	case *providerError:
		code = v.Code
	case *checkResponse:
		code = v.Code
	}
	if status == http.StatusTooManyRequests ||
		code == codeTooManyRequests || code == codeMaxCheckAttempts || code == codeMaxSendAttempts {
		return fmt.Errorf("verification throttled: %w", domain.ErrMaxAttempts)
	}
	return fmt.Errorf("phone verification provider error (status %d)", status)
}
