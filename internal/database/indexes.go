package database

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func EnsureOrderIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("orders").Indexes()

	orderIDIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "orderId", Value: 1}},
		Options: options.Index().
			SetName("orderId_unique").
			SetUnique(true),
	}

	// Phone search returns the most recent orders first.
	phoneIndex := mongo.IndexModel{
		Keys: bson.D{
			{Key: "recipientPhone", Value: 1},
			{Key: "createdAt", Value: -1},
		},
		Options: options.Index().SetName("recipientPhone_createdAt"),
	}

	providerRefIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "providerReference", Value: 1}},
		Options: options.Index().SetName("providerReference_index"),
	}

	statusIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "status", Value: 1}},
		Options: options.Index().SetName("status_index"),
	}

	log.Println("EnsureOrderIndexes: creating order indexes")
	_, err := indexes.CreateMany(ctx, []mongo.IndexModel{
		orderIDIndex, phoneIndex, providerRefIndex, statusIndex,
	})
	if err != nil {
		log.Println("EnsureOrderIndexes: index error:", err)
		return err
	}
	log.Println("EnsureOrderIndexes: order indexes created")
	return nil
}

func EnsureUnmatchedEventIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("unmatched_events").Indexes()

	createdAtIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "createdAt", Value: -1}},
		Options: options.Index().SetName("createdAt_desc"),
	}

	log.Println("EnsureUnmatchedEventIndexes: creating createdAt_desc index")
	_, err := indexes.CreateOne(ctx, createdAtIndex)
	if err != nil {
		log.Println("EnsureUnmatchedEventIndexes: index error:", err)
		return err
	}
	log.Println("EnsureUnmatchedEventIndexes: createdAt_desc index created")
	return nil
}
