package handlers

import (
	"context"
	"crypto/subtle"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/montanaflynn/stats"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"

	"bundlehub/internal/config"
	"bundlehub/internal/lifecycle"
	"bundlehub/internal/models"
	"bundlehub/internal/paystack"
)

/* =========================
   ADMIN LOGIN
========================= */

type adminLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func AdminLogin(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req adminLoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
			return
		}

		email := strings.ToLower(strings.TrimSpace(req.Email))
		if email == "" || strings.TrimSpace(req.Password) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
			return
		}

		if email != cfg.AdminEmail || !adminPasswordMatches(cfg, req.Password) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}

		claims := jwt.MapClaims{
			"sub":   email,
			"role":  "admin",
			"email": email,
			"exp":   time.Now().Add(cfg.AccessTokenTTL).Unix(),
		}

		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		signed, err := token.SignedString([]byte(cfg.JWTSecret))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "token generation failed"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"token": signed,
			"email": email,
		})
	}
}

// adminPasswordMatches prefers a bcrypt hash; the plain-text comparison only
// exists for deployments that still carry ADMIN_PASSWORD.
func adminPasswordMatches(cfg config.Config, password string) bool {
	if cfg.AdminPasswordHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(cfg.AdminPasswordHash), []byte(password)) == nil
	}
	if cfg.AdminPassword == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(cfg.AdminPassword), []byte(password)) == 1
}

/* =========================
   ORDER LISTING
========================= */

func ListOrders(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/orders"
		defer handlePanic(c, route)

		page, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid pagination params")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		filter := bson.M{}
		if status := strings.TrimSpace(c.Query("status")); status != "" {
			if !lifecycle.Valid(status) {
				respondWithError(c, http.StatusBadRequest, route, "unknown status filter")
				return
			}
			filter["status"] = status
		}

		total, err := db.Collection("orders").CountDocuments(ctx, filter)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		opts := options.Find().
			SetSort(bson.D{{Key: "createdAt", Value: -1}}).
			SetSkip((page - 1) * limit).
			SetLimit(limit)

		cursor, err := db.Collection("orders").Find(ctx, filter, opts)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		var orders []models.Order
		if err := cursor.All(ctx, &orders); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"orders": orders,
			"total":  total,
			"page":   page,
			"limit":  limit,
		})
	}
}

/* =========================
   AGGREGATE STATS
========================= */

func OrderStats(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/stats"
		defer handlePanic(c, route)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()

		opts := options.Find().SetProjection(bson.M{
			"amount": 1,
			"profit": 1,
			"status": 1,
		})

		cursor, err := db.Collection("orders").Find(ctx, bson.M{}, opts)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		var orders []models.Order
		if err := cursor.All(ctx, &orders); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		byStatus := map[string]int{}
		amounts := make([]float64, 0, len(orders))
		totalRevenue := 0.0
		totalProfit := 0.0
		for _, order := range orders {
			byStatus[order.Status]++
			amounts = append(amounts, order.Amount)
			// Only delivered orders count toward realized revenue.
			if order.Status == lifecycle.StatusDelivered {
				totalRevenue += order.Amount
				totalProfit += order.Profit
			}
		}

		meanAmount := 0.0
		medianAmount := 0.0
		if len(amounts) > 0 {
			meanAmount, _ = stats.Mean(amounts)
			medianAmount, _ = stats.Median(amounts)
		}

		c.JSON(http.StatusOK, gin.H{
			"totalOrders":  len(orders),
			"byStatus":     byStatus,
			"totalRevenue": totalRevenue,
			"totalProfit":  totalProfit,
			"meanAmount":   meanAmount,
			"medianAmount": medianAmount,
		})
	}
}

/* =========================
   UNMATCHED EVENTS
========================= */

func ListUnmatchedEvents(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/unmatched-events"
		defer handlePanic(c, route)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		opts := options.Find().
			SetSort(bson.D{{Key: "createdAt", Value: -1}}).
			SetLimit(100)

		cursor, err := db.Collection("unmatched_events").Find(ctx, bson.M{}, opts)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		var events []models.UnmatchedEvent
		if err := cursor.All(ctx, &events); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"events": events})
	}
}

/* =========================
   MANUAL OVERRIDES
========================= */

type overrideStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// OverrideOrderStatus is the only human-triggered transition: cancelling a
// non-terminal order, or resetting a failed order to paid so it becomes
// fulfillable again.
func OverrideOrderStatus(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /admin/api/orders/:orderId/status"
		defer handlePanic(c, route)

		var req overrideStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid request body")
			return
		}
		if !lifecycle.Valid(req.Status) {
			respondWithError(c, http.StatusBadRequest, route, "unknown status")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
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

		if !lifecycle.CanTransition(order.Status, req.Status, true) {
			respondWithError(c, http.StatusConflict, route, "transition "+order.Status+" -> "+req.Status+" not allowed")
			return
		}

		set := bson.M{}
		if order.Status == lifecycle.StatusFailed && req.Status == lifecycle.StatusPaid {
			set["failureReason"] = ""
		}

		applied, err := transitionOrder(ctx, db, order.OrderID, order.Status, req.Status, set)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if !applied {
			respondWithError(c, http.StatusConflict, route, "order changed concurrently, retry")
			return
		}

		log.Printf("[%s] order %s overridden %s -> %s", route, order.OrderID, order.Status, req.Status)
		c.JSON(http.StatusOK, gin.H{"orderId": order.OrderID, "status": req.Status})
	}
}

// TriggerFulfillment runs a dispatch synchronously for a paid order.
func TriggerFulfillment(fulfiller *Fulfiller) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /admin/api/orders/:orderId/fulfill"
		defer handlePanic(c, route)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 45*time.Second)
		defer cancel()

		orderID := c.Param("orderId")
		err := fulfiller.Dispatch(ctx, orderID)
		if err == nil {
			c.JSON(http.StatusOK, gin.H{"success": true, "orderId": orderID, "status": lifecycle.StatusProcessing})
			return
		}

		var stateErr invalidOrderStateError
		switch {
		case errors.Is(err, errOrderNotFound):
			respondWithError(c, http.StatusNotFound, route, "order not found")
		case errors.As(err, &stateErr):
			respondWithError(c, http.StatusConflict, route, stateErr.Error())
		default:
			log.Printf("[%s] dispatch failed for %s: %v", route, orderID, err)
			c.JSON(http.StatusBadGateway, gin.H{"success": false, "orderId": orderID, "error": "fulfillment dispatch failed"})
		}
	}
}

// ResyncPayment recovers an order stuck in pending_payment when the payment
// webhook was lost: the transaction is verified with the gateway directly
// and, if it succeeded, the order is marked paid and dispatched.
func ResyncPayment(db *mongo.Database, ps *paystack.Client, fulfiller *Fulfiller) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /admin/api/orders/:orderId/resync"
		defer handlePanic(c, route)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 20*time.Second)
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

		if order.Status != lifecycle.StatusPendingPayment {
			respondWithError(c, http.StatusConflict, route, "order is not awaiting payment")
			return
		}
		if order.GatewayReference == "" {
			respondWithError(c, http.StatusConflict, route, "order has no gateway reference to verify")
			return
		}

		tx, err := ps.Verify(ctx, order.GatewayReference)
		if err != nil {
			log.Printf("[%s] gateway verify failed for %s: %v", route, order.OrderID, err)
			respondWithError(c, http.StatusBadGateway, route, "gateway verification failed")
			return
		}

		if tx.Status != "success" {
			c.JSON(http.StatusOK, gin.H{
				"orderId":       order.OrderID,
				"status":        order.Status,
				"gatewayStatus": tx.Status,
				"applied":       false,
			})
			return
		}

		applied, err := transitionOrder(ctx, db, order.OrderID, lifecycle.StatusPendingPayment, lifecycle.StatusPaid, bson.M{
			"paymentReference": tx.Reference,
		})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if applied {
			fulfiller.DispatchLater(order.OrderID)
		}

		c.JSON(http.StatusOK, gin.H{
			"orderId":       order.OrderID,
			"status":        lifecycle.StatusPaid,
			"gatewayStatus": tx.Status,
			"applied":       applied,
		})
	}
}
