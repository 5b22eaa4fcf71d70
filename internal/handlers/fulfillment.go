package handlers

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"bundlehub/internal/catalog"
	"bundlehub/internal/lifecycle"
	"bundlehub/internal/models"
	"bundlehub/internal/provider"
)

// Fulfiller submits paid orders to the data reseller and records the
// outcome as an order transition. Dispatch is never auto-retried: the
// provider issues no idempotency keys, so a blind retry of a paid request
// could deliver twice.
type Fulfiller struct {
	db      *mongo.Database
	catalog catalog.Catalog
	client  *provider.Client
	delay   time.Duration
}

func NewFulfiller(db *mongo.Database, cat catalog.Catalog, client *provider.Client, delay time.Duration) *Fulfiller {
	return &Fulfiller{db: db, catalog: cat, client: client, delay: delay}
}

// DispatchLater runs Dispatch on its own goroutine after a short delay, so
// the webhook acknowledgment is flushed before the provider call starts.
// The trigger is lost if the process dies in the window; the admin resync
// endpoint is the recovery path.
func (f *Fulfiller) DispatchLater(orderID string) {
	go func() {
		time.Sleep(f.delay)

		ctx, cancel := context.WithTimeout(context.Background(), 45*time.Second)
		defer cancel()

		if err := f.Dispatch(ctx, orderID); err != nil {
			log.Printf("[FULFILL] [ERROR] deferred dispatch for %s: %v", orderID, err)
		}
	}()
}

// Dispatch submits a single delivery request for a paid order. Any other
// status is rejected before an external call is made.
func (f *Fulfiller) Dispatch(ctx context.Context, orderID string) error {
	order, err := findOrderByOrderID(ctx, f.db, orderID)
	if err != nil {
		return err
	}

	if order.Status != lifecycle.StatusPaid {
		return invalidOrderStateError{OrderID: orderID, Status: order.Status, Wanted: lifecycle.StatusPaid}
	}

	bundle, ok := f.catalog.Lookup(order.BundleID)
	if !ok {
		f.markFailed(ctx, orderID, "bundle config missing for "+order.BundleID)
		return fmt.Errorf("bundle config missing for %s", order.BundleID)
	}

	log.Printf("[FULFILL] [INFO] submitting order %s to provider", orderID)

	result, err := f.client.Submit(ctx, bundle.Network, bundle.OfferSlug, bundle.VolumeGB, phoneToE164(order.RecipientPhone))
	if err != nil {
		f.markFailed(ctx, orderID, err.Error())
		return fmt.Errorf("provider submit: %w", err)
	}

	applied, err := transitionOrder(ctx, f.db, orderID, lifecycle.StatusPaid, lifecycle.StatusProcessing, bson.M{
		"providerReference": result.Reference,
		"providerOrderId":   result.OrderID.String(),
	})
	if err != nil {
		return err
	}
	if !applied {
		// A concurrent writer moved the order while the provider call was in
		// flight; the references still need to be recorded for correlation.
		log.Printf("[FULFILL] [WARN] order %s changed state during dispatch, storing references only", orderID)
		_, err = f.db.Collection("orders").UpdateOne(
			ctx,
			bson.M{"orderId": orderID},
			bson.M{"$set": bson.M{
				"providerReference": result.Reference,
				"providerOrderId":   result.OrderID.String(),
				"updatedAt":         time.Now(),
			}},
		)
		return err
	}

	log.Printf("[FULFILL] [INFO] order %s accepted by provider, ref %s", orderID, result.Reference)
	return nil
}

func (f *Fulfiller) markFailed(ctx context.Context, orderID, reason string) {
	applied, err := transitionOrder(ctx, f.db, orderID, lifecycle.StatusPaid, lifecycle.StatusFailed, bson.M{
		"failureReason": reason,
	})
	if err != nil {
		log.Printf("[FULFILL] [ERROR] failed to mark %s failed: %v", orderID, err)
		return
	}
	if !applied {
		log.Printf("[FULFILL] [WARN] order %s changed state before failure could be recorded", orderID)
	}
}

/* =========================
   MANUAL PROVIDER SYNC
========================= */

// SyncOrder pulls the current delivery status from the provider, for orders
// whose webhook never arrived.
func SyncOrder(db *mongo.Database, client *provider.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /orders/:orderId/sync"
		defer handlePanic(c, route)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 35*time.Second)
		defer cancel()

		order, err := findOrderByOrderID(ctx, db, c.Param("orderId"))
		if err == errOrderNotFound {
			respondWithError(c, http.StatusNotFound, route, "order not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		if order.ProviderReference == "" {
			respondWithError(c, http.StatusConflict, route, "order has not been submitted to the provider")
			return
		}

		rawStatus, err := client.Status(ctx, order.ProviderReference)
		if err != nil {
			log.Printf("[%s] provider poll failed for %s: %v", route, order.OrderID, err)
			respondWithError(c, http.StatusBadGateway, route, "provider status poll failed")
			return
		}

		normalized, ok := lifecycle.NormalizeProviderStatus(rawStatus)
		if !ok {
			recordUnmatchedEvent(ctx, db, "provider", models.UnmatchedUnknownStatus, order.OrderID, rawStatus,
				[]byte(fmt.Sprintf(`{"source":"sync","reference":%q,"status":%q}`, order.ProviderReference, rawStatus)))
			c.JSON(http.StatusOK, gin.H{
				"order":          newOrderView(order),
				"providerStatus": rawStatus,
				"applied":        false,
			})
			return
		}

		applied := false
		if normalized != order.Status && lifecycle.CanTransition(order.Status, normalized, false) {
			applied, err = transitionOrder(ctx, db, order.OrderID, order.Status, normalized, bson.M{})
			if err != nil {
				respondWithError(c, http.StatusInternalServerError, route, "db error")
				return
			}
		}

		refreshed, err := findOrderByOrderID(ctx, db, order.OrderID)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"order":          newOrderView(refreshed),
			"providerStatus": rawStatus,
			"applied":        applied,
		})
	}
}
