package memory

import (
	"context"
	"sync"

	cartdomain "github.com/Abdurahmanit/GroupProject/bookmarket/internal/cart/domain"
	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/listing/domain"
	"github.com/google/uuid"
)

func cloneCart(c *cartdomain.Cart) *cartdomain.Cart {
	cp := *c
	cp.Items = append(make([]cartdomain.Item, 0, len(c.Items)), c.Items...)
	return &cp
}

// DeviceCartRepository mirrors the Redis device cart store.
type DeviceCartRepository struct {
	mu    sync.Mutex
	carts map[string]*cartdomain.Cart
}

func NewDeviceCartRepository() *DeviceCartRepository {
	return &DeviceCartRepository{carts: make(map[string]*cartdomain.Cart)}
}

func (r *DeviceCartRepository) Get(_ context.Context, deviceID string) (*cartdomain.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.carts[deviceID]; ok {
		return cloneCart(c), nil
	}
	return cartdomain.NewCart(deviceID), nil
}

func (r *DeviceCartRepository) Save(_ context.Context, c *cartdomain.Cart) error {
	r.mu.Lock()
	r.carts[c.Owner] = cloneCart(c)
	r.mu.Unlock()
	return nil
}

func (r *DeviceCartRepository) Delete(_ context.Context, deviceID string) error {
	r.mu.Lock()
	delete(r.carts, deviceID)
	r.mu.Unlock()
	return nil
}

// RemoteCartRepository mirrors the per-user carts collection.
type RemoteCartRepository struct {
	mu    sync.Mutex
	carts map[string]*cartdomain.Cart
}

func NewRemoteCartRepository() *RemoteCartRepository {
	return &RemoteCartRepository{carts: make(map[string]*cartdomain.Cart)}
}

func (r *RemoteCartRepository) GetByUserID(_ context.Context, userID string) (*cartdomain.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.carts[userID]
	if !ok {
		return nil, cartdomain.ErrCartNotFound
	}
	return cloneCart(c), nil
}

// Save keeps the stored cart when it is newer than c.
func (r *RemoteCartRepository) Save(_ context.Context, c *cartdomain.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.carts[c.Owner]; ok && cur.UpdatedAt.After(c.UpdatedAt) {
		return nil
	}
	r.carts[c.Owner] = cloneCart(c)
	return nil
}

type OrderRepository struct {
	mu     sync.Mutex
	orders []*cartdomain.Order
}

func NewOrderRepository() *OrderRepository {
	return &OrderRepository{}
}

func (r *OrderRepository) Create(_ context.Context, o *cartdomain.Order) error {
	o.ID = uuid.NewString()
	cp := *o
	r.mu.Lock()
	r.orders = append(r.orders, &cp)
	r.mu.Unlock()
	return nil
}

func (r *OrderRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.orders)
}

// UserRepository serves fixed profiles.
type UserRepository struct {
	mu    sync.RWMutex
	users map[string]*domain.CurrentUser
}

func NewUserRepository(users ...*domain.CurrentUser) *UserRepository {
	r := &UserRepository{users: make(map[string]*domain.CurrentUser, len(users))}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *UserRepository) GetProfile(_ context.Context, userID string) (*domain.CurrentUser, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}
