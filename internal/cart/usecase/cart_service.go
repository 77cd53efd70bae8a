package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/cart/domain"
	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/platform/metrics"
	"go.uber.org/zap"
)

// Owner identifies whose cart is addressed. DeviceID is always required;
// UserID is set when somebody is signed in on that device.
type Owner struct {
	DeviceID string
	UserID   string
	Email    string
}

func (o Owner) SignedIn() bool { return o.UserID != "" }

type RemoteSync interface {
	Enqueue(userID string, items []domain.Item)
}

// CartService keeps the device cart authoritative and mirrors it to the
// signed-in user's remote cart through a background syncer.
type CartService struct {
	device  domain.DeviceCartRepository
	remote  domain.RemoteCartRepository
	sync    RemoteSync
	logger  *logger.Logger
	metrics *metrics.MetricsManager
	now     func() time.Time
}

func NewCartService(
	device domain.DeviceCartRepository,
	remote domain.RemoteCartRepository,
	sync RemoteSync,
	log *logger.Logger,
	m *metrics.MetricsManager,
) *CartService {
	return &CartService{
		device:  device,
		remote:  remote,
		sync:    sync,
		logger:  log.Named("cart"),
		metrics: m,
		now:     time.Now,
	}
}

func (s *CartService) Get(ctx context.Context, owner Owner) (*domain.Cart, error) {
	if owner.DeviceID == "" {
		return nil, domain.ErrMissingDevice
	}
	c, err := s.device.Get(ctx, owner.DeviceID)
	if err != nil {
		return nil, fmt.Errorf("could not load cart: %w", err)
	}
	return c, nil
}

// Add puts item into the cart. A second add for the same listing and intent
// changes nothing and reports NoticeAlreadyInCart.
func (s *CartService) Add(ctx context.Context, owner Owner, item domain.Item) (*domain.Cart, domain.Notice, error) {
	var notice domain.Notice
	c, err := s.mutate(ctx, owner, "add", func(c *domain.Cart) (bool, error) {
		n, err := c.Add(item, s.now())
		notice = n
		return n == domain.NoticeAdded, err
	})
	if err != nil {
		return nil, "", err
	}
	return c, notice, nil
}

func (s *CartService) Remove(ctx context.Context, owner Owner, listingID string, intent domain.Intent) (*domain.Cart, domain.Notice, error) {
	if intent != "" && !intent.Valid() {
		return nil, "", domain.ErrInvalidItem
	}
	var notice domain.Notice
	c, err := s.mutate(ctx, owner, "remove", func(c *domain.Cart) (bool, error) {
		notice = c.Remove(listingID, intent, s.now())
		return notice == domain.NoticeRemoved, nil
	})
	if err != nil {
		return nil, "", err
	}
	return c, notice, nil
}

func (s *CartService) Clear(ctx context.Context, owner Owner) (*domain.Cart, error) {
	return s.mutate(ctx, owner, "clear", func(c *domain.Cart) (bool, error) {
		c.Clear(s.now())
		return true, nil
	})
}

// SignIn merges the user's remote cart into the device cart. Both sides end
// up with the union; for the same listing and intent the later add wins.
func (s *CartService) SignIn(ctx context.Context, deviceID, userID string) (*domain.Cart, error) {
	if deviceID == "" {
		return nil, domain.ErrMissingDevice
	}
	if userID == "" {
		return nil, domain.ErrNotAuthenticated
	}

	local, err := s.device.Get(ctx, deviceID)
	if err != nil {
		return nil, fmt.Errorf("could not load device cart: %w", err)
	}
	var remoteItems []domain.Item
	remote, err := s.remote.GetByUserID(ctx, userID)
	switch {
	case err == nil:
		remoteItems = remote.Items
	case errors.Is(err, domain.ErrCartNotFound):
	default:
		return nil, fmt.Errorf("could not load remote cart: %w", err)
	}

	local.Items = domain.Merge(remoteItems, local.Items)
	local.UpdatedAt = s.now().UTC()
	if err := s.device.Save(ctx, local); err != nil {
		return nil, fmt.Errorf("could not save device cart: %w", err)
	}
	s.pushRemote(ctx, userID, local.Items)

	s.logger.Info("CartService.SignIn: carts merged",
		zap.String("user_id", userID), zap.Int("remote_items", len(remoteItems)), zap.Int("merged_items", len(local.Items)))
	return local, nil
}

// mutate loads the device cart, applies fn and persists the result when fn
// reports a change. The remote copy is queued, never written inline.
func (s *CartService) mutate(ctx context.Context, owner Owner, op string, fn func(c *domain.Cart) (bool, error)) (*domain.Cart, error) {
	if owner.DeviceID == "" {
		return nil, domain.ErrMissingDevice
	}
	c, err := s.device.Get(ctx, owner.DeviceID)
	if err != nil {
		return nil, fmt.Errorf("could not load cart: %w", err)
	}
	changed, err := fn(c)
	if err != nil {
		return nil, err
	}
	if !changed {
		return c, nil
	}
	if err := s.device.Save(ctx, c); err != nil {
		s.logger.Error("CartService: failed to save device cart", zap.String("device_id", owner.DeviceID), zap.Error(err))
		return nil, fmt.Errorf("could not save cart: %w", err)
	}
	if s.metrics != nil {
		s.metrics.CartMutationsTotal.WithLabelValues(op).Inc()
	}
	if owner.SignedIn() {
		s.pushRemote(ctx, owner.UserID, c.Items)
	}
	return c, nil
}

func (s *CartService) pushRemote(ctx context.Context, userID string, items []domain.Item) {
	if s.sync != nil {
		s.sync.Enqueue(userID, items)
		return
	}
	c := &domain.Cart{Owner: userID, Items: items, UpdatedAt: s.now().UTC()}
	if err := s.remote.Save(ctx, c); err != nil {
		s.logger.Warn("CartService: remote cart write failed", zap.String("user_id", userID), zap.Error(err))
	}
}
