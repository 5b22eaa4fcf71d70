package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"bundlehub/internal/catalog"
	"bundlehub/internal/lifecycle"
)

func TestNewOrderFromRequestSnapshotsCatalog(t *testing.T) {
	now := time.Now()
	order, err := newOrderFromRequest(createOrderRequest{
		BundleID:       "mtn-5-express",
		RecipientPhone: "0241234567",
		CustomerEmail:  "Jo@Example.com",
		Amount:         25.50,
	}, catalog.Default(), now)
	if err != nil {
		t.Fatalf("newOrderFromRequest returned error: %v", err)
	}

	if order.Status != lifecycle.StatusPendingPayment {
		t.Errorf("status = %q, want pending_payment", order.Status)
	}
	if order.Network != "mtn" || order.OfferSlug != "mtn_express_bundle" || order.BundleSize != "5GB" {
		t.Errorf("catalog snapshot wrong: %+v", order)
	}
	if order.CostPrice != 22.00 {
		t.Errorf("costPrice = %v, want 22.00", order.CostPrice)
	}
	if order.Profit != 25.50-22.00 {
		t.Errorf("profit = %v, want %v", order.Profit, 25.50-22.00)
	}
	if order.CustomerEmail != "jo@example.com" {
		t.Errorf("email = %q, want lowercased", order.CustomerEmail)
	}
	if !strings.HasPrefix(order.OrderID, "BH-") {
		t.Errorf("orderId = %q, want BH- prefix", order.OrderID)
	}
}

func TestNewOrderSnapshotUnaffectedByCatalogEdit(t *testing.T) {
	cat := catalog.Catalog{
		"mtn-1-express": {Network: "mtn", OfferSlug: "mtn_express_bundle", VolumeGB: 1, BundleType: "express", CostPrice: 4.75},
	}

	before, err := newOrderFromRequest(createOrderRequest{
		BundleID: "mtn-1-express", RecipientPhone: "0241234567", Amount: 6,
	}, cat, time.Now())
	if err != nil {
		t.Fatal(err)
	}

	// Simulate a price change between two orders.
	cat["mtn-1-express"] = catalog.Bundle{Network: "mtn", OfferSlug: "mtn_express_bundle", VolumeGB: 1, BundleType: "express", CostPrice: 5.50}

	after, err := newOrderFromRequest(createOrderRequest{
		BundleID: "mtn-1-express", RecipientPhone: "0241234567", Amount: 6,
	}, cat, time.Now())
	if err != nil {
		t.Fatal(err)
	}

	if before.CostPrice != 4.75 || after.CostPrice != 5.50 {
		t.Fatalf("snapshots = %v / %v, want 4.75 / 5.50", before.CostPrice, after.CostPrice)
	}
}

func TestNewOrderFromRequestValidation(t *testing.T) {
	cat := catalog.Default()
	now := time.Now()

	if _, err := newOrderFromRequest(createOrderRequest{
		BundleID: "not-a-bundle", RecipientPhone: "0241234567", Amount: 10,
	}, cat, now); err != errUnknownBundle {
		t.Errorf("unknown bundle: err = %v", err)
	}

	for _, phone := range []string{"", "024123456", "02412345678", "1241234567", "0641234567", "024123456a"} {
		if _, err := newOrderFromRequest(createOrderRequest{
			BundleID: "mtn-5-express", RecipientPhone: phone, Amount: 10,
		}, cat, now); err != errInvalidPhone {
			t.Errorf("phone %q: err = %v, want errInvalidPhone", phone, err)
		}
	}

	for _, amount := range []float64{0, -1} {
		if _, err := newOrderFromRequest(createOrderRequest{
			BundleID: "mtn-5-express", RecipientPhone: "0241234567", Amount: amount,
		}, cat, now); err != errInvalidAmount {
			t.Errorf("amount %v: err = %v, want errInvalidAmount", amount, err)
		}
	}
}

func TestNewOrderFromRequestDefaultsEmail(t *testing.T) {
	order, err := newOrderFromRequest(createOrderRequest{
		BundleID: "mtn-5-express", RecipientPhone: "0551234567", Amount: 25,
	}, catalog.Default(), time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if order.CustomerEmail != fallbackCustomerEmail {
		t.Fatalf("email = %q, want fallback", order.CustomerEmail)
	}
}

func TestGenerateOrderIDShape(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := generateOrderID()
		parts := strings.Split(id, "-")
		if len(parts) != 3 || parts[0] != "BH" || len(parts[2]) != 5 {
			t.Fatalf("unexpected orderId shape: %q", id)
		}
		if seen[id] {
			t.Fatalf("orderId %q generated twice", id)
		}
		seen[id] = true
	}
}

func TestAmountMinorUnits(t *testing.T) {
	cases := map[float64]int64{
		25.50: 2550,
		1:     100,
		0.01:  1,
		19.99: 1999,
	}
	for amount, want := range cases {
		if got := amountMinorUnits(amount); got != want {
			t.Errorf("amountMinorUnits(%v) = %d, want %d", amount, got, want)
		}
	}
}

func TestPhoneConversions(t *testing.T) {
	if got := phoneToE164("0241234567"); got != "233241234567" {
		t.Errorf("phoneToE164 = %q", got)
	}
	if got := phoneToNational("233241234567"); got != "0241234567" {
		t.Errorf("phoneToNational = %q", got)
	}
	if got := phoneToNational("+233241234567"); got != "0241234567" {
		t.Errorf("phoneToNational with plus = %q", got)
	}
	if got := phoneToNational("0241234567"); got != "0241234567" {
		t.Errorf("phoneToNational passthrough = %q", got)
	}
}

func TestCreateOrderZeroAmountGetsSpecificError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("amount 0 reaches the amount validation", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/orders",
			strings.NewReader(`{"bundleId":"mtn-5-express","recipientPhone":"0241234567","amount":0}`))
		c.Request.Header.Set("Content-Type", "application/json")

		CreateOrder(mt.DB, catalog.Default(), "pk_test")(c)

		if w.Code != http.StatusBadRequest {
			mt.Fatalf("status = %d, want 400", w.Code)
		}
		if !strings.Contains(w.Body.String(), errInvalidAmount.Error()) {
			mt.Fatalf("body = %s, want the specific amount error", w.Body.String())
		}
	})
}

func TestOrderViewHidesCostAndProfit(t *testing.T) {
	order, err := newOrderFromRequest(createOrderRequest{
		BundleID: "mtn-5-express", RecipientPhone: "0241234567", Amount: 25.50,
	}, catalog.Default(), time.Now())
	if err != nil {
		t.Fatal(err)
	}
	order.FailureReason = "provider error detail"

	body, err := json.Marshal(newOrderView(&order))
	if err != nil {
		t.Fatalf("json marshal failed: %v", err)
	}

	jsonBody := string(body)
	for _, hidden := range []string{"costPrice", "profit", "failureReason", "provider error detail"} {
		if strings.Contains(jsonBody, hidden) {
			t.Errorf("sanitized view leaks %q: %s", hidden, jsonBody)
		}
	}
	if !strings.Contains(jsonBody, "\"orderId\"") || !strings.Contains(jsonBody, "\"status\"") {
		t.Errorf("sanitized view missing public fields: %s", jsonBody)
	}
}
