package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes backing marketplace pagination and
// the per-user lookups. It is idempotent.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	listings := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "category", Value: 1}, {Key: "created_at", Value: -1}, {Key: "_id", Value: -1}},
			Options: options.Index().SetName("status_category_newest"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "category", Value: 1}, {Key: "price", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("status_category_price"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetName("user_id"),
		},
	}
	if _, err := db.Collection(listingsCollection).Indexes().CreateMany(ctx, listings); err != nil {
		return fmt.Errorf("failed to create listing indexes: %w", err)
	}

	orders := mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
		Options: options.Index().SetName("user_orders"),
	}
	if _, err := db.Collection("orders").Indexes().CreateOne(ctx, orders); err != nil {
		return fmt.Errorf("failed to create order indexes: %w", err)
	}
	return nil
}
