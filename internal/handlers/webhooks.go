package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"bundlehub/internal/lifecycle"
	"bundlehub/internal/models"
	"bundlehub/internal/paystack"
	"bundlehub/internal/provider"
)

// Webhook handlers always acknowledge with 200 before doing any work. The
// sender retries on anything else, and its deliverability contract wants a
// fast response; internal failures are logged and quarantined instead.

/* =========================
   PAYMENT WEBHOOK
========================= */

func PaystackWebhook(db *mongo.Database, ps *paystack.Client, fulfiller *Fulfiller) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /payment-webhook"
		defer handlePanic(c, route)

		body, err := c.GetRawData()
		c.String(http.StatusOK, "Webhook received")
		if err != nil {
			log.Printf("[%s] body read failed: %v", route, err)
			return
		}

		if !ps.ValidSignature(body, c.GetHeader("x-paystack-signature")) {
			log.Printf("[%s] invalid signature, event dropped", route)
			return
		}

		var event paystack.WebhookEvent
		if err := json.Unmarshal(body, &event); err != nil {
			log.Printf("[%s] malformed payload: %v", route, err)
			return
		}

		if event.Event != "charge.success" {
			return
		}

		go applyPaymentSuccess(db, fulfiller.DispatchLater, event, body)
	}
}

// applyPaymentSuccess marks the order paid exactly once. The transition
// filter makes duplicate deliveries a no-op: only the event that moves
// pending_payment -> paid schedules fulfillment.
func applyPaymentSuccess(db *mongo.Database, dispatch func(orderID string), event paystack.WebhookEvent, body []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	orderID := event.Data.Metadata.OrderID
	if orderID == "" {
		log.Println("[PAYMENT] [ERROR] webhook missing orderId in metadata")
		recordUnmatchedEvent(ctx, db, "paystack", models.UnmatchedNoCorrelation, "", event.Data.Status, body)
		return
	}

	applied, err := transitionOrder(ctx, db, orderID, lifecycle.StatusPendingPayment, lifecycle.StatusPaid, bson.M{
		"paymentReference": event.Data.Reference,
	})
	if err != nil {
		log.Printf("[PAYMENT] [ERROR] mark paid failed for %s: %v", orderID, err)
		return
	}

	if !applied {
		// Either the order does not exist (gateway already got its 200 and
		// will not retry forever, so quarantine) or it is paid or beyond
		// (duplicate delivery, no-op, must not re-trigger fulfillment).
		if _, err := findOrderByOrderID(ctx, db, orderID); err == errOrderNotFound {
			log.Printf("[PAYMENT] [ERROR] order %s not found", orderID)
			recordUnmatchedEvent(ctx, db, "paystack", models.UnmatchedNoMatch, orderID, event.Data.Status, body)
		} else {
			log.Printf("[PAYMENT] [INFO] order %s already paid or beyond, duplicate ignored", orderID)
		}
		return
	}

	log.Printf("[PAYMENT] [INFO] order %s marked paid, reference %s", orderID, event.Data.Reference)
	dispatch(orderID)
}

/* =========================
   FULFILLMENT WEBHOOK
========================= */

func ProviderWebhook(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /fulfillment-webhook"
		defer handlePanic(c, route)

		body, err := c.GetRawData()
		c.String(http.StatusOK, "OK")
		if err != nil {
			log.Printf("[%s] body read failed: %v", route, err)
			return
		}

		var event provider.WebhookEvent
		if err := json.Unmarshal(body, &event); err != nil {
			log.Printf("[%s] malformed payload: %v", route, err)
			return
		}

		go reconcileProviderEvent(db, event, body)
	}
}

// providerCorrelationFilters returns order lookup filters in priority
// order: the provider reference first, then the provider order id, then the
// recipient phone as a last resort.
func providerCorrelationFilters(event provider.WebhookEvent) []bson.M {
	var filters []bson.M
	if event.Reference != "" {
		filters = append(filters, bson.M{"providerReference": event.Reference})
	}
	if event.OrderID != "" {
		filters = append(filters, bson.M{"providerOrderId": event.OrderID.String()})
	}
	if event.Phone != "" {
		// Phone matching only considers orders still in flight; a terminal
		// order for the same number must never be resurrected.
		filters = append(filters, bson.M{
			"recipientPhone": phoneToNational(event.Phone),
			"status": bson.M{"$in": []string{
				lifecycle.StatusPaid,
				lifecycle.StatusProcessing,
			}},
		})
	}
	return filters
}

func matchProviderEvent(ctx context.Context, db *mongo.Database, event provider.WebhookEvent) (*models.Order, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	for _, filter := range providerCorrelationFilters(event) {
		var order models.Order
		err := db.Collection("orders").FindOne(ctx, filter, opts).Decode(&order)
		if err == mongo.ErrNoDocuments {
			continue
		}
		if err != nil {
			return nil, err
		}
		return &order, nil
	}
	return nil, nil
}

// reconcileProviderEvent matches a delivery-status event to an order and
// applies a validated transition. Events that cannot be matched or whose
// status cannot be normalized are quarantined for manual follow-up.
func reconcileProviderEvent(db *mongo.Database, event provider.WebhookEvent, body []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	order, err := matchProviderEvent(ctx, db, event)
	if err != nil {
		log.Printf("[PROVIDER] [ERROR] correlation lookup failed: %v", err)
		return
	}
	if order == nil {
		recordUnmatchedEvent(ctx, db, "provider", models.UnmatchedNoMatch, "", event.Status, body)
		return
	}

	normalized, ok := lifecycle.NormalizeProviderStatus(event.Status)
	if !ok {
		// The order exists but the status is unintelligible: leave the
		// order untouched and surface the event for inspection.
		recordUnmatchedEvent(ctx, db, "provider", models.UnmatchedUnknownStatus, order.OrderID, event.Status, body)
		return
	}

	if normalized == order.Status {
		log.Printf("[PROVIDER] [INFO] order %s already %s, duplicate ignored", order.OrderID, normalized)
		return
	}

	if !lifecycle.CanTransition(order.Status, normalized, false) {
		log.Printf("[PROVIDER] [WARN] ignoring %s -> %s for order %s", order.Status, normalized, order.OrderID)
		return
	}

	applied, err := transitionOrder(ctx, db, order.OrderID, order.Status, normalized, bson.M{})
	if err != nil {
		log.Printf("[PROVIDER] [ERROR] transition failed for %s: %v", order.OrderID, err)
		return
	}
	if !applied {
		log.Printf("[PROVIDER] [WARN] order %s changed concurrently, stale %q update dropped", order.OrderID, normalized)
		return
	}

	log.Printf("[PROVIDER] [INFO] order %s status updated to %s", order.OrderID, normalized)
}
