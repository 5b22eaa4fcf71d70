package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Order is one purchase attempt for a data bundle, tracked from creation to
// delivery or failure. Catalog fields are snapshotted at creation so later
// catalog edits never change historical orders.
type Order struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	OrderID        string             `bson:"orderId" json:"orderId"`
	CustomerEmail  string             `bson:"customerEmail" json:"customerEmail"`
	RecipientPhone string             `bson:"recipientPhone" json:"recipientPhone"`

	BundleID   string  `bson:"bundleId" json:"bundleId"`
	OfferSlug  string  `bson:"offerSlug" json:"offerSlug"`
	BundleSize string  `bson:"bundleSize" json:"bundleSize"`
	BundleType string  `bson:"bundleType" json:"bundleType"`
	Network    string  `bson:"network" json:"network"`
	Amount     float64 `bson:"amount" json:"amount"`
	CostPrice  float64 `bson:"costPrice" json:"costPrice"`
	Profit     float64 `bson:"profit" json:"profit"`

	Status string `bson:"status" json:"status"`

	// GatewayReference is assigned when a redirect-flow transaction is
	// initialized; PaymentReference only once the gateway confirms payment.
	GatewayReference  string `bson:"gatewayReference,omitempty" json:"gatewayReference,omitempty"`
	PaymentReference  string `bson:"paymentReference,omitempty" json:"paymentReference,omitempty"`
	ProviderReference string `bson:"providerReference,omitempty" json:"providerReference,omitempty"`
	ProviderOrderID   string `bson:"providerOrderId,omitempty" json:"providerOrderId,omitempty"`
	FailureReason     string `bson:"failureReason,omitempty" json:"failureReason,omitempty"`

	// Version counts applied transitions; every status write increments it
	// and filters on the expected current status, so stale writers lose.
	Version int64 `bson:"version" json:"-"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
