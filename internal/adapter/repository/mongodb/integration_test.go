//go:build integration

package mongodb

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	cartdomain "github.com/Abdurahmanit/GroupProject/bookmarket/internal/cart/domain"
	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/platform/logger"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var testDB *mongo.Database

func TestMain(m *testing.M) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		log.Fatalf("Could not construct pool: %s", err)
	}
	if err := pool.Client.Ping(); err != nil {
		log.Fatalf("Could not connect to Docker: %s", err)
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "mongo",
		Tag:        "6.0",
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		log.Fatalf("Could not start MongoDB resource: %s", err)
	}
	uri := fmt.Sprintf("mongodb://%s", resource.GetHostPort("27017/tcp"))

	var client *mongo.Client
	if err := pool.Retry(func() error {
		var errRetry error
		client, errRetry = mongo.Connect(context.Background(), options.Client().ApplyURI(uri))
		if errRetry != nil {
			return errRetry
		}
		return client.Ping(context.Background(), nil)
	}); err != nil {
		log.Fatalf("Could not connect to MongoDB: %s", err)
	}
	testDB = client.Database("bookmarket_test")
	if err := EnsureIndexes(context.Background(), testDB); err != nil {
		log.Fatalf("Could not create indexes: %s", err)
	}

	code := m.Run()

	_ = client.Disconnect(context.Background())
	if err := pool.Purge(resource); err != nil {
		log.Printf("Could not purge MongoDB resource: %s", err)
	}
	os.Exit(code)
}

func resetCollection(t *testing.T, name string) {
	t.Helper()
	_, err := testDB.Collection(name).DeleteMany(context.Background(), bson.M{})
	require.NoError(t, err)
}

func TestListingRepository_QueryPageWalksAllListings(t *testing.T) {
	resetCollection(t, listingsCollection)
	repo := NewListingRepository(testDB, logger.NewNop())
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		l := &domain.Listing{
			UserID:    "u1",
			Title:     fmt.Sprintf("Book %d", i),
			Category:  "Fiction",
			Price:     float64(10 + i%3),
			Type:      domain.TypeSell,
			Status:    domain.StatusActive,
			CreatedAt: base.Add(time.Duration(i%2) * time.Hour),
		}
		require.NoError(t, repo.Create(ctx, l))
		require.NotEmpty(t, l.ID)
	}
	require.NoError(t, repo.Create(ctx, &domain.Listing{UserID: "u1", Title: "Sold", Category: "Fiction", Price: 1, Type: domain.TypeSell, Status: domain.StatusSold}))

	for _, sort := range []domain.SortOrder{domain.SortNewest, domain.SortPriceLow, domain.SortPriceHigh} {
		seen := map[string]bool{}
		cursor := ""
		var prev *domain.Listing
		for {
			page, err := repo.QueryPage(ctx, domain.NativeQuery{Category: "Fiction", Sort: sort}, cursor, 3)
			require.NoError(t, err)
			for _, l := range page.Items {
				assert.False(t, seen[l.ID], "duplicate %s in %s", l.ID, sort)
				seen[l.ID] = true
				if prev != nil && sort == domain.SortPriceLow {
					assert.LessOrEqual(t, prev.Price, l.Price)
				}
				if prev != nil && sort == domain.SortPriceHigh {
					assert.GreaterOrEqual(t, prev.Price, l.Price)
				}
				prev = l
			}
			if !page.HasMore {
				break
			}
			cursor = page.Cursor
		}
		assert.Len(t, seen, 7, "sort %s", sort)
	}
}

func TestListingRepository_StatusAndDelete(t *testing.T) {
	resetCollection(t, listingsCollection)
	repo := NewListingRepository(testDB, logger.NewNop())
	ctx := context.Background()

	l := &domain.Listing{UserID: "u1", Title: "Emma", Category: "Fiction", Price: 4, Type: domain.TypeRent, Status: domain.StatusActive}
	require.NoError(t, repo.Create(ctx, l))

	got, err := repo.FindByID(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{domain.AvailableRent}, got.AvailableFor)

	require.NoError(t, repo.UpdateStatus(ctx, l.ID, domain.StatusRented))
	got, err = repo.FindByID(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRented, got.Status)

	require.NoError(t, repo.Delete(ctx, l.ID))
	_, err = repo.FindByID(ctx, l.ID)
	assert.ErrorIs(t, err, domain.ErrListingNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, l.ID), domain.ErrListingNotFound)
	assert.ErrorIs(t, repo.UpdateStatus(ctx, primitive.NewObjectID().Hex(), domain.StatusSold), domain.ErrListingNotFound)
}

func TestUserRepository_GetProfile(t *testing.T) {
	resetCollection(t, "users")
	repo := NewUserRepository(testDB, logger.NewNop())
	ctx := context.Background()

	id := primitive.NewObjectID()
	_, err := testDB.Collection("users").InsertOne(ctx, userDocument{ID: id, Username: "reader", Email: "r@example.com", Rating: 4.5, SalesCount: 3})
	require.NoError(t, err)

	u, err := repo.GetProfile(ctx, id.Hex())
	require.NoError(t, err)
	assert.Equal(t, "reader", u.DisplayName)
	assert.Equal(t, 3, u.SalesCount)

	_, err = repo.GetProfile(ctx, primitive.NewObjectID().Hex())
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestCartRepository_SaveKeepsNewest(t *testing.T) {
	resetCollection(t, "carts")
	repo := NewCartRepository(testDB)
	ctx := context.Background()

	_, err := repo.GetByUserID(ctx, "u1")
	assert.ErrorIs(t, err, cartdomain.ErrCartNotFound)

	now := time.Now().UTC().Truncate(time.Millisecond)
	newer := &cartdomain.Cart{Owner: "u1", UpdatedAt: now, Items: []cartdomain.Item{{ListingID: "a", Intent: cartdomain.IntentBuy}}}
	older := &cartdomain.Cart{Owner: "u1", UpdatedAt: now.Add(-time.Minute), Items: []cartdomain.Item{}}
	require.NoError(t, repo.Save(ctx, newer))
	require.NoError(t, repo.Save(ctx, older))

	got, err := repo.GetByUserID(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, got.Items, 1)
}

func TestOrderRepository_Create(t *testing.T) {
	resetCollection(t, "orders")
	repo := NewOrderRepository(testDB)

	o := &cartdomain.Order{UserID: "u1", Total: 9, TransactionID: "txn", Status: cartdomain.OrderStatusPaid}
	require.NoError(t, repo.Create(context.Background(), o))
	assert.NotEmpty(t, o.ID)
	assert.False(t, o.CreatedAt.IsZero())
}
