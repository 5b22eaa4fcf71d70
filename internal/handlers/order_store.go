package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"bundlehub/internal/models"
)

var errOrderNotFound = errors.New("order not found")

type invalidOrderStateError struct {
	OrderID string
	Status  string
	Wanted  string
}

func (e invalidOrderStateError) Error() string {
	return "order " + e.OrderID + " is " + e.Status + ", expected " + e.Wanted
}

func findOrderByOrderID(ctx context.Context, db *mongo.Database, orderID string) (*models.Order, error) {
	var order models.Order
	err := db.Collection("orders").FindOne(ctx, bson.M{"orderId": orderID}).Decode(&order)
	if err == mongo.ErrNoDocuments {
		return nil, errOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// transitionOrder applies a status change only if the order is still in the
// expected state. The filter doubles as an optimistic concurrency check:
// when a concurrent writer moved the order first, MatchedCount is zero and
// the stale update is dropped rather than applied over the newer state.
func transitionOrder(ctx context.Context, db *mongo.Database, orderID, from, to string, set bson.M) (bool, error) {
	fields := bson.M{
		"status":    to,
		"updatedAt": time.Now(),
	}
	for key, value := range set {
		fields[key] = value
	}

	res, err := db.Collection("orders").UpdateOne(
		ctx,
		bson.M{"orderId": orderID, "status": from},
		bson.M{
			"$set": fields,
			"$inc": bson.M{"version": 1},
		},
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

// recordUnmatchedEvent quarantines a webhook payload that could not be
// applied, so manual reconciliation can pick it up later.
func recordUnmatchedEvent(ctx context.Context, db *mongo.Database, source, reason, orderID, rawStatus string, payload []byte) {
	event := models.UnmatchedEvent{
		Source:    source,
		Reason:    reason,
		OrderID:   orderID,
		RawStatus: rawStatus,
		Payload:   compactPayload(payload),
		CreatedAt: time.Now(),
	}

	if _, err := db.Collection("unmatched_events").InsertOne(ctx, event); err != nil {
		log.Printf("[WEBHOOK] [ERROR] failed to quarantine %s event (%s): %v", source, reason, err)
		return
	}
	log.Printf("[WEBHOOK] [WARN] quarantined %s event: reason=%s orderId=%q status=%q", source, reason, orderID, rawStatus)
}

func compactPayload(payload []byte) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, payload); err != nil {
		return string(payload)
	}
	return buf.String()
}
