package mongodb

import (
	"testing"
	"time"

	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/listing/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCursor_RoundTripKeepsSortKey(t *testing.T) {
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	doc := &listingDocument{ID: primitive.NewObjectID(), Price: 12.5, CreatedAt: created}

	c, id, err := decodeCursor(encodeCursor(domain.SortNewest, doc), domain.SortNewest)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, id)
	assert.True(t, created.Equal(c.CreatedAt))

	c, _, err = decodeCursor(encodeCursor(domain.SortPriceLow, doc), domain.SortPriceLow)
	require.NoError(t, err)
	assert.Equal(t, 12.5, c.Price)
}

func TestCursor_Rejects(t *testing.T) {
	doc := &listingDocument{ID: primitive.NewObjectID(), Price: 3}

	tests := []struct {
		name   string
		cursor string
		sort   domain.SortOrder
	}{
		{"not base64", "%%%", domain.SortNewest},
		{"not json", "bm90LWpzb24", domain.SortNewest},
		{"other sort", encodeCursor(domain.SortPriceLow, doc), domain.SortPriceHigh},
		{"bad id", "eyJpZCI6Inh5eiIsInMiOiJuZXdlc3QifQ", domain.SortNewest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := decodeCursor(tt.cursor, tt.sort)
			assert.ErrorIs(t, err, domain.ErrInvalidCursor)
		})
	}
}

func TestSortSpec_TieBreakFollowsDirection(t *testing.T) {
	assert.Equal(t, bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}, sortSpec(domain.SortNewest))
	assert.Equal(t, bson.D{{Key: "price", Value: 1}, {Key: "_id", Value: 1}}, sortSpec(domain.SortPriceLow))
	assert.Equal(t, bson.D{{Key: "price", Value: -1}, {Key: "_id", Value: -1}}, sortSpec(domain.SortPriceHigh))
}

func TestAfterCursor_PriceLowUsesGreaterThan(t *testing.T) {
	id := primitive.NewObjectID()
	got := afterCursor(domain.SortPriceLow, &pageCursor{Price: 9}, id)
	want := bson.M{"$or": bson.A{
		bson.M{"price": bson.M{"$gt": 9.0}},
		bson.M{"price": 9.0, "_id": bson.M{"$gt": id}},
	}}
	assert.Equal(t, want, got)
}

func TestNativeFilter(t *testing.T) {
	assert.Equal(t, bson.M{"status": domain.StatusActive}, nativeFilter(domain.NativeQuery{}))
	assert.Equal(t, bson.M{"status": domain.StatusActive, "category": "History"}, nativeFilter(domain.NativeQuery{Category: "History"}))
}

func TestListingDocument_DerivesAvailability(t *testing.T) {
	l := &domain.Listing{Title: "Dune", Type: domain.TypeRent, AvailableFor: []string{"sale"}}
	doc, err := toListingDocument(l)
	require.NoError(t, err)
	assert.Equal(t, []string{domain.AvailableRent}, doc.AvailableFor)
	assert.Equal(t, primitive.NilObjectID, doc.ID)
	assert.NotNil(t, doc.Images)

	_, err = toListingDocument(&domain.Listing{ID: "not-hex"})
	assert.Error(t, err)
}

func TestToDomainListing_FillsTypeFromLegacyTags(t *testing.T) {
	l := toDomainListing(&listingDocument{ID: primitive.NewObjectID(), AvailableFor: []string{domain.AvailableExchange}})
	assert.Equal(t, domain.TypeExchange, l.Type)
	assert.Equal(t, []string{}, l.Images)

	l = toDomainListing(&listingDocument{ID: primitive.NewObjectID(), Type: domain.TypeSell})
	assert.Equal(t, []string{domain.AvailableSale}, l.AvailableFor)
}
