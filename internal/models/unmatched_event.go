package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Reasons a webhook event lands in the unmatched_events quarantine.
const (
	UnmatchedNoMatch       = "no_match"
	UnmatchedUnknownStatus = "unknown_status"
	UnmatchedNoCorrelation = "missing_correlation_id"
)

// UnmatchedEvent retains a webhook payload that could not be applied to an
// order, for manual reconciliation. It is never silently dropped.
type UnmatchedEvent struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Source    string             `bson:"source" json:"source"`
	Reason    string             `bson:"reason" json:"reason"`
	OrderID   string             `bson:"orderId,omitempty" json:"orderId,omitempty"`
	RawStatus string             `bson:"rawStatus,omitempty" json:"rawStatus,omitempty"`
	Payload   string             `bson:"payload" json:"payload"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}
