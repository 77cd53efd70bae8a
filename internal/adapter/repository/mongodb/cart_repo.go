package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	cartdomain "github.com/Abdurahmanit/GroupProject/bookmarket/internal/cart/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CartRepository stores one remote cart per user, keyed by the user id.
type CartRepository struct {
	collection *mongo.Collection
}

func NewCartRepository(db *mongo.Database) *CartRepository {
	return &CartRepository{collection: db.Collection("carts")}
}

func (r *CartRepository) GetByUserID(ctx context.Context, userID string) (*cartdomain.Cart, error) {
	var doc cartDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": userID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, cartdomain.ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to get cart for user %s: %w", userID, err)
	}
	items := doc.Items
	if items == nil {
		items = []cartdomain.Item{}
	}
	return &cartdomain.Cart{Owner: doc.UserID, Items: items, UpdatedAt: doc.UpdatedAt}, nil
}

// Save replaces the stored cart unless the stored copy is newer.
func (r *CartRepository) Save(ctx context.Context, cart *cartdomain.Cart) error {
	if cart == nil || cart.Owner == "" {
		return errors.New("cannot save nil cart or cart without owner")
	}
	updatedAt := cart.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	items := cart.Items
	if items == nil {
		items = []cartdomain.Item{}
	}
	filter := bson.M{"_id": cart.Owner, "updated_at": bson.M{"$lte": updatedAt}}
	doc := cartDocument{UserID: cart.Owner, Items: items, UpdatedAt: updatedAt}

	_, err := r.collection.ReplaceOne(ctx, filter, doc, options.Replace().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		// a newer write exists; the filter missed and the upsert collided
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to save cart for user %s: %w", cart.Owner, err)
	}
	return nil
}
