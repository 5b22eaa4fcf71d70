package paystack

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestValidSignature(t *testing.T) {
	client := New("sk_test_secret", "pk_test_public")
	body := []byte(`{"event":"charge.success"}`)

	mac := hmac.New(sha512.New, []byte("sk_test_secret"))
	mac.Write(body)
	signature := hex.EncodeToString(mac.Sum(nil))

	if !client.ValidSignature(body, signature) {
		t.Fatal("expected valid signature to be accepted")
	}
	if client.ValidSignature(body, "deadbeef") {
		t.Fatal("expected wrong signature to be rejected")
	}
	if client.ValidSignature(body, "") {
		t.Fatal("expected empty signature to be rejected")
	}
}

func TestInitialize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transaction/initialize" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk_test_secret" {
			t.Errorf("unexpected auth header %q", got)
		}

		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if body["amount"].(float64) != 2550 {
			t.Errorf("amount = %v, want 2550", body["amount"])
		}
		metadata := body["metadata"].(map[string]interface{})
		if metadata["orderId"] != "BH-1-ABCDE" {
			t.Errorf("metadata orderId = %v", metadata["orderId"])
		}

		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": true,
			"data": map[string]string{
				"authorization_url": "https://checkout.paystack.com/abc",
				"access_code":       "abc",
				"reference":         "ref-001",
			},
		})
	}))
	defer server.Close()

	client := NewWithBaseURL("sk_test_secret", "pk_test_public", server.URL)
	result, err := client.Initialize(context.Background(), 2550, "a@b.com", "https://example.com/cb", "BH-1-ABCDE")
	if err != nil {
		t.Fatalf("Initialize returned error: %v", err)
	}
	if result.AuthorizationURL != "https://checkout.paystack.com/abc" || result.Reference != "ref-001" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestVerify(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transaction/verify/ref-001" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": true,
			"data": map[string]interface{}{
				"reference": "ref-001",
				"status":    "success",
				"metadata":  map[string]string{"orderId": "BH-1-ABCDE"},
			},
		})
	}))
	defer server.Close()

	client := NewWithBaseURL("sk_test_secret", "pk_test_public", server.URL)
	tx, err := client.Verify(context.Background(), "ref-001")
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if tx.Status != "success" || tx.Metadata.OrderID != "BH-1-ABCDE" {
		t.Fatalf("unexpected transaction: %+v", tx)
	}
}

func TestVerifyAPIFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  false,
			"message": "Transaction reference not found",
		})
	}))
	defer server.Close()

	client := NewWithBaseURL("sk_test_secret", "pk_test_public", server.URL)
	if _, err := client.Verify(context.Background(), "nope"); err == nil {
		t.Fatal("expected error for failed verification")
	}
}
