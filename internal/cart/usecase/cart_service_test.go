package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/cart/domain"
	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockDeviceCartRepository struct {
	mock.Mock
}

func (m *MockDeviceCartRepository) Get(ctx context.Context, deviceID string) (*domain.Cart, error) {
	args := m.Called(ctx, deviceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Cart), args.Error(1)
}

func (m *MockDeviceCartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	args := m.Called(ctx, cart)
	return args.Error(0)
}

func (m *MockDeviceCartRepository) Delete(ctx context.Context, deviceID string) error {
	args := m.Called(ctx, deviceID)
	return args.Error(0)
}

type MockRemoteCartRepository struct {
	mock.Mock
}

func (m *MockRemoteCartRepository) GetByUserID(ctx context.Context, userID string) (*domain.Cart, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Cart), args.Error(1)
}

func (m *MockRemoteCartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	args := m.Called(ctx, cart)
	return args.Error(0)
}

type recordingSync struct {
	mu    sync.Mutex
	calls map[string][]domain.Item
}

func (r *recordingSync) Enqueue(userID string, items []domain.Item) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.calls == nil {
		r.calls = map[string][]domain.Item{}
	}
	r.calls[userID] = append([]domain.Item(nil), items...)
}

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newCartService(device domain.DeviceCartRepository, remote domain.RemoteCartRepository, rs RemoteSync) *CartService {
	s := NewCartService(device, remote, rs, logger.NewNop(), nil)
	s.now = func() time.Time { return fixedNow }
	return s
}

func TestCartService_Add_Success_NewItem(t *testing.T) {
	device := new(MockDeviceCartRepository)
	rs := &recordingSync{}
	s := newCartService(device, nil, rs)
	ctx := context.Background()
	owner := Owner{DeviceID: "dev-1", UserID: "user-1"}

	device.On("Get", ctx, "dev-1").Return(domain.NewCart("dev-1"), nil).Once()
	device.On("Save", ctx, mock.MatchedBy(func(c *domain.Cart) bool {
		return len(c.Items) == 1 && c.Items[0].ListingID == "l1"
	})).Return(nil).Once()

	c, notice, err := s.Add(ctx, owner, domain.Item{ListingID: "l1", Intent: domain.IntentBuy, Price: 10})

	require.NoError(t, err)
	assert.Equal(t, domain.NoticeAdded, notice)
	assert.Len(t, c.Items, 1)
	assert.Equal(t, fixedNow, c.Items[0].AddedAt)
	assert.Len(t, rs.calls["user-1"], 1)
	device.AssertExpectations(t)
}

func TestCartService_Add_DuplicateDoesNotSave(t *testing.T) {
	device := new(MockDeviceCartRepository)
	rs := &recordingSync{}
	s := newCartService(device, nil, rs)
	ctx := context.Background()

	existing := domain.NewCart("dev-1")
	existing.Items = []domain.Item{{ListingID: "l1", Intent: domain.IntentBuy, Price: 10, AddedAt: fixedNow}}
	device.On("Get", ctx, "dev-1").Return(existing, nil).Once()

	c, notice, err := s.Add(ctx, Owner{DeviceID: "dev-1", UserID: "u"}, domain.Item{ListingID: "l1", Intent: domain.IntentBuy, Price: 10})

	require.NoError(t, err)
	assert.Equal(t, domain.NoticeAlreadyInCart, notice)
	assert.Len(t, c.Items, 1)
	device.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	assert.Empty(t, rs.calls)
}

func TestCartService_Add_AnonymousDoesNotSync(t *testing.T) {
	device := new(MockDeviceCartRepository)
	rs := &recordingSync{}
	s := newCartService(device, nil, rs)
	ctx := context.Background()

	device.On("Get", ctx, "dev-1").Return(domain.NewCart("dev-1"), nil).Once()
	device.On("Save", ctx, mock.Anything).Return(nil).Once()

	_, _, err := s.Add(ctx, Owner{DeviceID: "dev-1"}, domain.Item{ListingID: "l1", Intent: domain.IntentRent})

	require.NoError(t, err)
	assert.Empty(t, rs.calls)
}

func TestCartService_Add_Errors(t *testing.T) {
	device := new(MockDeviceCartRepository)
	s := newCartService(device, nil, &recordingSync{})
	ctx := context.Background()

	_, _, err := s.Add(ctx, Owner{}, domain.Item{ListingID: "l1", Intent: domain.IntentBuy})
	assert.ErrorIs(t, err, domain.ErrMissingDevice)

	device.On("Get", ctx, "dev-1").Return(nil, errors.New("redis down")).Once()
	_, _, err = s.Add(ctx, Owner{DeviceID: "dev-1"}, domain.Item{ListingID: "l1", Intent: domain.IntentBuy})
	assert.Error(t, err)

	device.On("Get", ctx, "dev-2").Return(domain.NewCart("dev-2"), nil).Once()
	_, _, err = s.Add(ctx, Owner{DeviceID: "dev-2"}, domain.Item{ListingID: "l1", Intent: "steal"})
	assert.ErrorIs(t, err, domain.ErrInvalidItem)
}

func TestCartService_RemoveAndClear(t *testing.T) {
	device := new(MockDeviceCartRepository)
	rs := &recordingSync{}
	s := newCartService(device, nil, rs)
	ctx := context.Background()
	owner := Owner{DeviceID: "dev-1", UserID: "u1"}

	cart := domain.NewCart("dev-1")
	cart.Items = []domain.Item{
		{ListingID: "l1", Intent: domain.IntentBuy},
		{ListingID: "l2", Intent: domain.IntentRent},
	}
	device.On("Get", ctx, "dev-1").Return(cart, nil)
	device.On("Save", ctx, cart).Return(nil)

	c, notice, err := s.Remove(ctx, owner, "l1", "")
	require.NoError(t, err)
	assert.Equal(t, domain.NoticeRemoved, notice)
	assert.Len(t, c.Items, 1)

	_, notice, err = s.Remove(ctx, owner, "nope", domain.IntentBuy)
	require.NoError(t, err)
	assert.Equal(t, domain.NoticeNotInCart, notice)

	c, err = s.Clear(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, c.Items)
	assert.Empty(t, rs.calls["u1"])
	device.AssertNumberOfCalls(t, "Save", 2)
}

func TestCartService_SignIn_MergesBothWays(t *testing.T) {
	device := new(MockDeviceCartRepository)
	remote := new(MockRemoteCartRepository)
	rs := &recordingSync{}
	s := newCartService(device, remote, rs)
	ctx := context.Background()

	local := domain.NewCart("dev-1")
	local.Items = []domain.Item{
		{ListingID: "a", Intent: domain.IntentBuy, Title: "local-a", AddedAt: fixedNow.Add(-time.Minute)},
		{ListingID: "c", Intent: domain.IntentBuy, Title: "local-c", AddedAt: fixedNow.Add(-30 * time.Second)},
	}
	stored := &domain.Cart{Owner: "u1", Items: []domain.Item{
		{ListingID: "a", Intent: domain.IntentBuy, Title: "remote-a", AddedAt: fixedNow.Add(-2 * time.Minute)},
		{ListingID: "b", Intent: domain.IntentRent, Title: "remote-b", AddedAt: fixedNow.Add(-3 * time.Minute)},
	}}
	device.On("Get", ctx, "dev-1").Return(local, nil).Once()
	remote.On("GetByUserID", ctx, "u1").Return(stored, nil).Once()
	device.On("Save", ctx, mock.Anything).Return(nil).Once()

	merged, err := s.SignIn(ctx, "dev-1", "u1")

	require.NoError(t, err)
	require.Len(t, merged.Items, 3)
	titles := []string{merged.Items[0].Title, merged.Items[1].Title, merged.Items[2].Title}
	assert.Equal(t, []string{"remote-b", "local-a", "local-c"}, titles)
	assert.Len(t, rs.calls["u1"], 3)
	remote.AssertExpectations(t)
}

func TestCartService_SignIn_NoRemoteCart(t *testing.T) {
	device := new(MockDeviceCartRepository)
	remote := new(MockRemoteCartRepository)
	s := newCartService(device, remote, nil)
	ctx := context.Background()

	local := domain.NewCart("dev-1")
	local.Items = []domain.Item{{ListingID: "a", Intent: domain.IntentBuy}}
	device.On("Get", ctx, "dev-1").Return(local, nil).Once()
	remote.On("GetByUserID", ctx, "u1").Return(nil, domain.ErrCartNotFound).Once()
	device.On("Save", ctx, mock.Anything).Return(nil).Once()
	remote.On("Save", ctx, mock.MatchedBy(func(c *domain.Cart) bool { return c.Owner == "u1" && len(c.Items) == 1 })).Return(nil).Once()

	merged, err := s.SignIn(ctx, "dev-1", "u1")

	require.NoError(t, err)
	assert.Len(t, merged.Items, 1)
	remote.AssertExpectations(t)

	_, err = s.SignIn(ctx, "dev-1", "")
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
}
