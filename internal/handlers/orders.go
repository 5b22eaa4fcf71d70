package handlers

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"bundlehub/internal/catalog"
	"bundlehub/internal/lifecycle"
	"bundlehub/internal/models"
	"bundlehub/internal/paystack"
)

// Ghana national mobile numbers: 0 followed by a 2/3/5 prefix and 8 digits.
var phonePattern = regexp.MustCompile(`^0[235][0-9]{8}$`)

const fallbackCustomerEmail = "customer@bundlehub.app"

var (
	errUnknownBundle = errors.New("invalid bundle selected")
	errInvalidPhone  = errors.New("recipient phone must be a valid mobile number")
	errInvalidAmount = errors.New("amount must be greater than zero")
)

type createOrderRequest struct {
	BundleID       string `json:"bundleId" binding:"required"`
	RecipientPhone string `json:"recipientPhone" binding:"required"`
	CustomerEmail  string `json:"customerEmail"`
	// No required tag: a zero amount must reach the explicit validation
	// below and fail with the specific amount error, not a generic 400.
	Amount float64 `json:"amount"`
}

// newOrderFromRequest validates the request against the catalog and builds
// the order document, snapshotting catalog fields so later catalog edits
// never change this order.
func newOrderFromRequest(req createOrderRequest, cat catalog.Catalog, now time.Time) (models.Order, error) {
	bundle, ok := cat.Lookup(req.BundleID)
	if !ok {
		return models.Order{}, errUnknownBundle
	}

	phone := strings.TrimSpace(req.RecipientPhone)
	if !phonePattern.MatchString(phone) {
		return models.Order{}, errInvalidPhone
	}

	if req.Amount <= 0 {
		return models.Order{}, errInvalidAmount
	}

	email := strings.ToLower(strings.TrimSpace(req.CustomerEmail))
	if email == "" {
		email = fallbackCustomerEmail
	}

	return models.Order{
		OrderID:        generateOrderID(),
		CustomerEmail:  email,
		RecipientPhone: phone,
		BundleID:       req.BundleID,
		OfferSlug:      bundle.OfferSlug,
		BundleSize:     bundle.Size(),
		BundleType:     bundle.BundleType,
		Network:        bundle.Network,
		Amount:         req.Amount,
		CostPrice:      bundle.CostPrice,
		Profit:         req.Amount - bundle.CostPrice,
		Status:         lifecycle.StatusPendingPayment,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

const orderIDCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func generateOrderID() string {
	suffix := make([]byte, 5)
	if _, err := rand.Read(suffix); err != nil {
		// crypto/rand failing is effectively fatal elsewhere; fall back to
		// the timestamp alone rather than panicking in a request path.
		return fmt.Sprintf("BH-%d", time.Now().UnixMilli())
	}
	for i, b := range suffix {
		suffix[i] = orderIDCharset[int(b)%len(orderIDCharset)]
	}
	return fmt.Sprintf("BH-%d-%s", time.Now().UnixMilli(), suffix)
}

// amountMinorUnits converts cedis to pesewas for the gateway.
func amountMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// phoneToE164 rewrites a national 0XXXXXXXXX number into the provider's
// required 233XXXXXXXXX form.
func phoneToE164(national string) string {
	return "233" + national[1:]
}

// phoneToNational is the inverse, used when provider webhooks carry the
// recipient phone in international form.
func phoneToNational(phone string) string {
	cleaned := strings.TrimPrefix(strings.TrimSpace(phone), "+")
	if strings.HasPrefix(cleaned, "233") && len(cleaned) == 12 {
		return "0" + cleaned[3:]
	}
	return cleaned
}

/* =========================
   CREATE ORDER
========================= */

func CreateOrder(db *mongo.Database, cat catalog.Catalog, gatewayPublicKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /orders"
		defer handlePanic(c, route)

		if err := ensureDBConnection(c.Request.Context(), db); err != nil {
			respondWithError(c, http.StatusServiceUnavailable, route, "database unavailable")
			return
		}

		var req createOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid request body")
			return
		}

		order, err := newOrderFromRequest(req, cat, time.Now())
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		// The id scheme can collide in theory; regenerate and retry instead
		// of surfacing a hard failure to the caller.
		inserted := false
		for attempt := 0; attempt < 3; attempt++ {
			_, err = db.Collection("orders").InsertOne(ctx, order)
			if err == nil {
				inserted = true
				break
			}
			if !mongo.IsDuplicateKeyError(err) {
				break
			}
			log.Printf("[%s] duplicate orderId %s, regenerating", route, order.OrderID)
			order.OrderID = generateOrderID()
		}
		if !inserted {
			respondWithError(c, http.StatusInternalServerError, route, "failed to create order")
			return
		}

		log.Printf("[%s] order created: %s for %s", route, order.OrderID, order.RecipientPhone)

		c.JSON(http.StatusCreated, gin.H{
			"orderId":          order.OrderID,
			"amountMinorUnits": amountMinorUnits(order.Amount),
			"email":            order.CustomerEmail,
			"publicKey":        gatewayPublicKey,
		})
	}
}

/* =========================
   CUSTOMER-FACING READS
========================= */

// orderView is the sanitized order representation: no cost, profit or
// internal failure detail.
type orderView struct {
	OrderID           string    `json:"orderId"`
	Status            string    `json:"status"`
	RecipientPhone    string    `json:"recipientPhone"`
	BundleID          string    `json:"bundleId"`
	BundleSize        string    `json:"bundleSize"`
	BundleType        string    `json:"bundleType"`
	Network           string    `json:"network"`
	Amount            float64   `json:"amount"`
	PaymentReference  string    `json:"paymentReference,omitempty"`
	ProviderReference string    `json:"providerReference,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
}

func newOrderView(order *models.Order) orderView {
	return orderView{
		OrderID:           order.OrderID,
		Status:            order.Status,
		RecipientPhone:    order.RecipientPhone,
		BundleID:          order.BundleID,
		BundleSize:        order.BundleSize,
		BundleType:        order.BundleType,
		Network:           order.Network,
		Amount:            order.Amount,
		PaymentReference:  order.PaymentReference,
		ProviderReference: order.ProviderReference,
		CreatedAt:         order.CreatedAt,
	}
}

func GetOrder(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /orders/:orderId"
		defer handlePanic(c, route)

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

		c.JSON(http.StatusOK, newOrderView(order))
	}
}

// SearchOrders returns the most recent orders for a phone number. The phone
// arrives as a query parameter because a static /orders/search segment
// cannot coexist with the :orderId route parameter in gin's router.
func SearchOrders(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /orders"
		defer handlePanic(c, route)

		phone := strings.TrimSpace(c.Query("phone"))
		if !phonePattern.MatchString(phone) {
			respondWithError(c, http.StatusBadRequest, route, errInvalidPhone.Error())
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		opts := options.Find().
			SetSort(bson.D{{Key: "createdAt", Value: -1}}).
			SetLimit(20)

		cursor, err := db.Collection("orders").Find(ctx, bson.M{"recipientPhone": phone}, opts)
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

		views := make([]orderView, 0, len(orders))
		for i := range orders {
			views = append(views, newOrderView(&orders[i]))
		}
		c.JSON(http.StatusOK, gin.H{"orders": views})
	}
}

/* =========================
   REDIRECT-FLOW PAYMENT
========================= */

// InitializePayment starts a hosted-checkout transaction for an order that
// has not been paid yet and stores the gateway reference for later resync.
func InitializePayment(db *mongo.Database, ps *paystack.Client, domain string) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /orders/:orderId/pay"
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

		result, err := ps.Initialize(
			ctx,
			amountMinorUnits(order.Amount),
			order.CustomerEmail,
			domain+"/orders/"+order.OrderID,
			order.OrderID,
		)
		if err != nil {
			log.Printf("[%s] gateway initialize failed for %s: %v", route, order.OrderID, err)
			respondWithError(c, http.StatusBadGateway, route, "payment initialization failed")
			return
		}

		_, err = db.Collection("orders").UpdateOne(
			ctx,
			bson.M{"orderId": order.OrderID},
			bson.M{"$set": bson.M{"gatewayReference": result.Reference, "updatedAt": time.Now()}},
		)
		if err != nil {
			log.Printf("[%s] failed to store gateway reference for %s: %v", route, order.OrderID, err)
		}

		c.JSON(http.StatusOK, gin.H{
			"orderId":          order.OrderID,
			"authorizationURL": result.AuthorizationURL,
			"reference":        result.Reference,
		})
	}
}

/* =========================
   CATALOG
========================= */

func GetBundles(cat catalog.Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"bundles": cat,
			"count":   len(cat),
		})
	}
}
