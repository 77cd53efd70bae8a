package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	cartdomain "github.com/Abdurahmanit/GroupProject/bookmarket/internal/cart/domain"
	"github.com/redis/go-redis/v9"
)

const (
	deviceCartKeyPrefix  = "cart:device:"
	defaultDeviceCartTTL = 30 * 24 * time.Hour
)

// DeviceCartRepository is the device-local cart. A device without a stored
// cart gets an empty one.
type DeviceCartRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewDeviceCartRepository(client *redis.Client, ttl time.Duration) *DeviceCartRepository {
	if ttl <= 0 {
		ttl = defaultDeviceCartTTL
	}
	return &DeviceCartRepository{client: client, ttl: ttl}
}

func (r *DeviceCartRepository) Get(ctx context.Context, deviceID string) (*cartdomain.Cart, error) {
	val, err := r.client.Get(ctx, deviceCartKeyPrefix+deviceID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return cartdomain.NewCart(deviceID), nil
		}
		return nil, fmt.Errorf("failed to get cart for device %s from redis: %w", deviceID, err)
	}

	var cart cartdomain.Cart
	if err := json.Unmarshal(val, &cart); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cart data for device %s: %w", deviceID, err)
	}
	if cart.Items == nil {
		cart.Items = []cartdomain.Item{}
	}
	return &cart, nil
}

func (r *DeviceCartRepository) Save(ctx context.Context, cart *cartdomain.Cart) error {
	if cart == nil || cart.Owner == "" {
		return errors.New("cannot save nil cart or cart without device id")
	}
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("failed to marshal cart for device %s: %w", cart.Owner, err)
	}
	if err := r.client.Set(ctx, deviceCartKeyPrefix+cart.Owner, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save cart for device %s to redis: %w", cart.Owner, err)
	}
	return nil
}

func (r *DeviceCartRepository) Delete(ctx context.Context, deviceID string) error {
	if err := r.client.Del(ctx, deviceCartKeyPrefix+deviceID).Err(); err != nil {
		return fmt.Errorf("failed to delete cart for device %s from redis: %w", deviceID, err)
	}
	return nil
}
