package mongodb

import (
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/listing/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// pageCursor marks the last listing of a page by its sort key and id, so the
// next page starts strictly after it even when sort keys repeat.
type pageCursor struct {
	ID        string           `json:"id"`
	Sort      domain.SortOrder `json:"s"`
	Price     float64          `json:"p,omitempty"`
	CreatedAt time.Time        `json:"t,omitempty"`
}

func encodeCursor(sort domain.SortOrder, d *listingDocument) string {
	c := pageCursor{ID: d.ID.Hex(), Sort: sort}
	switch sort {
	case domain.SortPriceLow, domain.SortPriceHigh:
		c.Price = d.Price
	default:
		c.CreatedAt = d.CreatedAt
	}
	raw, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(raw)
}

// decodeCursor rejects cursors that are malformed or were issued for a
// different sort order.
func decodeCursor(s string, sort domain.SortOrder) (*pageCursor, primitive.ObjectID, error) {
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, primitive.NilObjectID, domain.ErrInvalidCursor
	}
	var c pageCursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, primitive.NilObjectID, domain.ErrInvalidCursor
	}
	if c.Sort != sort {
		return nil, primitive.NilObjectID, domain.ErrInvalidCursor
	}
	id, err := primitive.ObjectIDFromHex(c.ID)
	if err != nil {
		return nil, primitive.NilObjectID, domain.ErrInvalidCursor
	}
	return &c, id, nil
}

// sortSpec returns the sort document; _id breaks ties in the same direction.
func sortSpec(sort domain.SortOrder) bson.D {
	switch sort {
	case domain.SortPriceLow:
		return bson.D{{Key: "price", Value: 1}, {Key: "_id", Value: 1}}
	case domain.SortPriceHigh:
		return bson.D{{Key: "price", Value: -1}, {Key: "_id", Value: -1}}
	default:
		return bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}
	}
}

// afterCursor builds the keyset condition for rows after c.
func afterCursor(sort domain.SortOrder, c *pageCursor, id primitive.ObjectID) bson.M {
	field, value, op := "created_at", interface{}(c.CreatedAt), "$lt"
	switch sort {
	case domain.SortPriceLow:
		field, value, op = "price", c.Price, "$gt"
	case domain.SortPriceHigh:
		field, value, op = "price", c.Price, "$lt"
	}
	return bson.M{"$or": bson.A{
		bson.M{field: bson.M{op: value}},
		bson.M{field: value, "_id": bson.M{op: id}},
	}}
}

func nativeFilter(q domain.NativeQuery) bson.M {
	filter := bson.M{"status": domain.StatusActive}
	if q.Category != "" {
		filter["category"] = q.Category
	}
	return filter
}
