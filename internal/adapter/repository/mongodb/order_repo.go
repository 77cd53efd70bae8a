package mongodb

import (
	"context"
	"fmt"
	"time"

	cartdomain "github.com/Abdurahmanit/GroupProject/bookmarket/internal/cart/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type OrderRepository struct {
	collection *mongo.Collection
}

func NewOrderRepository(db *mongo.Database) *OrderRepository {
	return &OrderRepository{collection: db.Collection("orders")}
}

// Create inserts the order and sets its id.
func (r *OrderRepository) Create(ctx context.Context, order *cartdomain.Order) error {
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now().UTC()
	}
	doc := orderDocument{
		ID:            primitive.NewObjectID(),
		UserID:        order.UserID,
		Items:         order.Items,
		Total:         order.Total,
		TransactionID: order.TransactionID,
		Status:        order.Status,
		CreatedAt:     order.CreatedAt,
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	order.ID = doc.ID.Hex()
	return nil
}
