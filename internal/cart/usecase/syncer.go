package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/cart/domain"
	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/platform/logger"
	"go.uber.org/zap"
)

const defaultSyncInterval = 2 * time.Second

// Syncer writes user carts to the remote store in the background. Pending
// writes are coalesced per user so only the latest item list is written.
type Syncer struct {
	remote   domain.RemoteCartRepository
	interval time.Duration
	logger   *logger.Logger

	mu      sync.Mutex
	pending map[string]*domain.Cart
	wake    chan struct{}
}

func NewSyncer(remote domain.RemoteCartRepository, interval time.Duration, log *logger.Logger) *Syncer {
	if interval <= 0 {
		interval = defaultSyncInterval
	}
	return &Syncer{
		remote:   remote,
		interval: interval,
		logger:   log.Named("cart-sync"),
		pending:  make(map[string]*domain.Cart),
		wake:     make(chan struct{}, 1),
	}
}

// Enqueue schedules items as the new remote cart of userID, replacing any
// write still pending for that user.
func (s *Syncer) Enqueue(userID string, items []domain.Item) {
	c := &domain.Cart{
		Owner:     userID,
		Items:     append(make([]domain.Item, 0, len(items)), items...),
		UpdatedAt: time.Now().UTC(),
	}
	s.mu.Lock()
	s.pending[userID] = c
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Pending reports how many users have unwritten carts.
func (s *Syncer) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Run flushes on every enqueue and on a ticker, which also retries failed
// writes. It returns when ctx is cancelled.
func (s *Syncer) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.wake:
		case <-ticker.C:
		}
		s.Flush(ctx)
	}
}

// Flush writes every pending cart once. Failed writes stay pending unless a
// newer list was enqueued meanwhile.
func (s *Syncer) Flush(ctx context.Context) int {
	s.mu.Lock()
	batch := s.pending
	s.pending = make(map[string]*domain.Cart, len(batch))
	s.mu.Unlock()

	failed := 0
	for userID, c := range batch {
		if ctx.Err() != nil {
			s.requeue(userID, c)
			failed++
			continue
		}
		if err := s.remote.Save(ctx, c); err != nil {
			s.logger.Warn("Syncer.Flush: remote cart write failed", zap.String("user_id", userID), zap.Error(err))
			s.requeue(userID, c)
			failed++
		}
	}
	return failed
}

func (s *Syncer) requeue(userID string, c *domain.Cart) {
	s.mu.Lock()
	if _, newer := s.pending[userID]; !newer {
		s.pending[userID] = c
	}
	s.mu.Unlock()
}
