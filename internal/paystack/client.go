package paystack

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.paystack.co"

// Client talks to the Paystack transaction API and validates its webhooks.
type Client struct {
	secretKey string
	publicKey string
	baseURL   string
	http      *http.Client
}

func New(secretKey, publicKey string) *Client {
	return &Client{
		secretKey: secretKey,
		publicKey: publicKey,
		baseURL:   defaultBaseURL,
		http:      &http.Client{Timeout: 15 * time.Second},
	}
}

// NewWithBaseURL is used by tests to point the client at a stub server.
func NewWithBaseURL(secretKey, publicKey, baseURL string) *Client {
	c := New(secretKey, publicKey)
	c.baseURL = baseURL
	return c
}

func (c *Client) PublicKey() string {
	return c.publicKey
}

// Transaction is the subset of Paystack's transaction payload the order flow
// needs: the reference, a status string and our own orderId echoed back in
// the metadata.
type Transaction struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
	Metadata  struct {
		OrderID string `json:"orderId"`
	} `json:"metadata"`
}

// WebhookEvent is the envelope Paystack posts to the payment webhook.
type WebhookEvent struct {
	Event string      `json:"event"`
	Data  Transaction `json:"data"`
}

// InitResult carries the fields needed to send a customer to Paystack's
// hosted checkout page.
type InitResult struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type apiEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Initialize creates a redirect-flow transaction. Amount is in the minor
// currency unit (pesewas). The orderId travels in the metadata and comes
// back on the webhook, which is how payment events correlate to orders.
func (c *Client) Initialize(ctx context.Context, amountMinor int64, email, callbackURL, orderID string) (*InitResult, error) {
	body := map[string]interface{}{
		"amount":       amountMinor,
		"email":        email,
		"callback_url": callbackURL,
		"metadata":     map[string]string{"orderId": orderID},
	}

	var result InitResult
	if err := c.post(ctx, "/transaction/initialize", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Verify fetches the current state of a transaction by reference. Used when
// the payment webhook was lost and an order is stuck in pending_payment.
func (c *Client) Verify(ctx context.Context, reference string) (*Transaction, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/transaction/verify/"+reference, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	var tx Transaction
	if err := c.do(req, &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

// ValidSignature checks the x-paystack-signature header: an HMAC-SHA512 of
// the raw request body keyed with the secret key.
func (c *Client) ValidSignature(body []byte, signature string) bool {
	if signature == "" {
		return false
	}
	mac := hmac.New(sha512.New, []byte(c.secretKey))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
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
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("paystack request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("paystack response read failed: %w", err)
	}

	var envelope apiEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("paystack response malformed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !envelope.Status {
		return fmt.Errorf("paystack error (%d): %s", resp.StatusCode, envelope.Message)
	}

	return json.Unmarshal(envelope.Data, out)
}
