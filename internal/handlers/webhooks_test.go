package handlers

import (
	"encoding/json"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"bundlehub/internal/lifecycle"
	"bundlehub/internal/paystack"
	"bundlehub/internal/provider"
)

func TestProviderCorrelationPriority(t *testing.T) {
	filters := providerCorrelationFilters(provider.WebhookEvent{
		Reference: "SBH-REF-1",
		OrderID:   "90211",
		Phone:     "233241234567",
	})
	if len(filters) != 3 {
		t.Fatalf("expected 3 filters, got %d", len(filters))
	}
	if filters[0]["providerReference"] != "SBH-REF-1" {
		t.Errorf("first filter must match on providerReference, got %v", filters[0])
	}
	if filters[1]["providerOrderId"] != "90211" {
		t.Errorf("second filter must match on providerOrderId, got %v", filters[1])
	}
	if filters[2]["recipientPhone"] != "0241234567" {
		t.Errorf("third filter must match on national phone, got %v", filters[2])
	}
}

func TestProviderCorrelationSkipsMissingKeys(t *testing.T) {
	filters := providerCorrelationFilters(provider.WebhookEvent{Phone: "233241234567"})
	if len(filters) != 1 {
		t.Fatalf("expected only the phone filter, got %d", len(filters))
	}

	statusFilter, ok := filters[0]["status"].(bson.M)
	if !ok {
		t.Fatalf("phone filter must restrict status, got %v", filters[0])
	}
	allowed, ok := statusFilter["$in"].([]string)
	if !ok {
		t.Fatalf("status filter must use $in, got %v", statusFilter)
	}
	for _, status := range allowed {
		if lifecycle.Terminal(status) || status == lifecycle.StatusPendingPayment || status == lifecycle.StatusFailed {
			t.Errorf("phone matching must only consider in-flight orders, found %q", status)
		}
	}
}

func TestProviderCorrelationEmptyEvent(t *testing.T) {
	if filters := providerCorrelationFilters(provider.WebhookEvent{}); len(filters) != 0 {
		t.Fatalf("expected no filters for an event with no correlation keys, got %d", len(filters))
	}
}

func chargeSuccessEvent(t testing.TB, orderID string) (paystack.WebhookEvent, []byte) {
	t.Helper()
	body := []byte(`{"event":"charge.success","data":{"reference":"PS-REF-1","status":"success","metadata":{"orderId":"` + orderID + `"}}}`)
	var event paystack.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		t.Fatalf("unmarshal webhook body: %v", err)
	}
	return event, body
}

func TestApplyPaymentSuccessDispatchesOnce(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("first delivery marks paid and dispatches", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		event, body := chargeSuccessEvent(mt, "BH-1-AAAAA")
		dispatched := 0
		applyPaymentSuccess(mt.DB, func(orderID string) {
			dispatched++
			if orderID != "BH-1-AAAAA" {
				mt.Errorf("dispatched orderId = %q", orderID)
			}
		}, event, body)

		if dispatched != 1 {
			mt.Fatalf("dispatched %d times, want 1", dispatched)
		}

		update := startedUpdate(mt)
		if got := update.Lookup("q", "status").StringValue(); got != lifecycle.StatusPendingPayment {
			mt.Errorf("update filtered on status %q, want pending_payment", got)
		}
		set := update.Lookup("u", "$set").Document()
		if got := set.Lookup("status").StringValue(); got != lifecycle.StatusPaid {
			mt.Errorf("set status = %q, want paid", got)
		}
		if got := set.Lookup("paymentReference").StringValue(); got != "PS-REF-1" {
			mt.Errorf("paymentReference = %q", got)
		}
	})

	mt.Run("duplicate delivery is a no-op", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
			orderDoc(mt.DB.Name(), "BH-1-AAAAA", lifecycle.StatusPaid),
		)

		event, body := chargeSuccessEvent(mt, "BH-1-AAAAA")
		dispatched := 0
		applyPaymentSuccess(mt.DB, func(string) { dispatched++ }, event, body)

		if dispatched != 0 {
			mt.Fatalf("duplicate delivery dispatched %d times, want 0", dispatched)
		}
		for _, evt := range mt.GetAllStartedEvents() {
			if evt.CommandName == "insert" {
				mt.Error("a duplicate for an existing order must not be quarantined")
			}
		}
	})
}

func TestApplyPaymentSuccessQuarantinesUnknownOrder(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("unmatched orderId is quarantined", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
			mtest.CreateCursorResponse(0, mt.DB.Name()+".orders", mtest.FirstBatch),
			mtest.CreateSuccessResponse(),
		)

		event, body := chargeSuccessEvent(mt, "BH-GONE")
		dispatched := 0
		applyPaymentSuccess(mt.DB, func(string) { dispatched++ }, event, body)

		if dispatched != 0 {
			mt.Fatalf("dispatched %d times for unknown order, want 0", dispatched)
		}

		quarantined := false
		for _, evt := range mt.GetAllStartedEvents() {
			if evt.CommandName == "insert" {
				quarantined = true
				if coll := evt.Command.Lookup("insert").StringValue(); coll != "unmatched_events" {
					mt.Errorf("insert targeted %q, want unmatched_events", coll)
				}
			}
		}
		if !quarantined {
			mt.Fatal("unknown order event was not quarantined")
		}
	})

	mt.Run("missing orderId is quarantined without lookup", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		event, body := chargeSuccessEvent(mt, "")
		dispatched := 0
		applyPaymentSuccess(mt.DB, func(string) { dispatched++ }, event, body)

		if dispatched != 0 {
			mt.Fatalf("dispatched %d times, want 0", dispatched)
		}
		evt := mt.GetStartedEvent()
		if evt == nil || evt.CommandName != "insert" {
			mt.Fatalf("expected only a quarantine insert, got %+v", evt)
		}
	})
}
