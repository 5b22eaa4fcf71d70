package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"bundlehub/internal/models"
)

// Client talks to the upstream data reseller API. Calls are not retried
// here: repeating a paid wholesale request without an idempotency key risks
// double delivery.
type Client struct {
	apiKey     string
	baseURL    string
	webhookURL string
	http       *http.Client
}

func New(apiKey, baseURL, webhookURL string, timeout time.Duration) *Client {
	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		webhookURL: webhookURL,
		http:       &http.Client{Timeout: timeout},
	}
}

// SubmitResult holds the provider's identifiers for an accepted delivery
// request. Both are correlation keys for later webhooks.
type SubmitResult struct {
	Reference string        `json:"reference"`
	OrderID   models.FlexID `json:"orderId"`
}

// WebhookEvent is the delivery-status payload the provider posts back.
// Field presence varies by event: some carry only the reference, some only
// the provider order id, some only the recipient phone.
type WebhookEvent struct {
	Event     string        `json:"event"`
	Reference string        `json:"reference"`
	OrderID   models.FlexID `json:"orderId"`
	Phone     string        `json:"phone"`
	Status    string        `json:"status"`
}

// Submit sends a single delivery request. The webhook URL rides along so the
// provider can push status changes back asynchronously.
func (c *Client) Submit(ctx context.Context, network, offerSlug string, volumeGB int, phoneE164 string) (*SubmitResult, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"type":       "single",
		"volume":     volumeGB,
		"phone":      phoneE164,
		"offerSlug":  offerSlug,
		"webhookUrl": c.webhookURL,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/order/"+network, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("provider request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("provider response read failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("provider error (%d): %s", resp.StatusCode, truncate(raw, 512))
	}

	var result SubmitResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("provider response malformed: %w", err)
	}
	if result.Reference == "" && result.OrderID == "" {
		return nil, fmt.Errorf("provider response missing reference")
	}
	return &result, nil
}

// Status polls the current delivery status by reference, for manual sync
// when a webhook never arrived.
func (c *Client) Status(ctx context.Context, reference string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/order/status/"+reference, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("provider status request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("provider status read failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("provider status error (%d): %s", resp.StatusCode, truncate(raw, 512))
	}

	var result struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return "", fmt.Errorf("provider status malformed: %w", err)
	}
	return result.Status, nil
}

func truncate(raw []byte, max int) string {
	if len(raw) > max {
		raw = raw[:max]
	}
	return string(raw)
}
