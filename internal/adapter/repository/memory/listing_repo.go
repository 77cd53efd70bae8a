package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/listing/domain"
	"github.com/google/uuid"
)

// ListingRepository keeps listings in a map. Page cursors are the id of the
// last listing returned.
type ListingRepository struct {
	mu       sync.RWMutex
	listings map[string]*domain.Listing
}

func NewListingRepository() *ListingRepository {
	return &ListingRepository{listings: make(map[string]*domain.Listing)}
}

func (r *ListingRepository) Create(_ context.Context, l *domain.Listing) error {
	now := time.Now().UTC()
	if l.CreatedAt.IsZero() {
		l.CreatedAt = now
	}
	l.UpdatedAt = now
	l.ID = uuid.NewString()
	l.AvailableFor = domain.AvailabilityFor(l.Type)

	cp := *l
	r.mu.Lock()
	r.listings[l.ID] = &cp
	r.mu.Unlock()
	return nil
}

func (r *ListingRepository) FindByID(_ context.Context, id string) (*domain.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.listings[id]
	if !ok {
		return nil, domain.ErrListingNotFound
	}
	cp := *l
	return &cp, nil
}

func (r *ListingRepository) QueryPage(_ context.Context, q domain.NativeQuery, cursor string, limit int) (*domain.Page, error) {
	q = q.Normalize()
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = domain.PageSize
	}

	r.mu.RLock()
	matched := make([]*domain.Listing, 0, len(r.listings))
	for _, l := range r.listings {
		if l.Status != domain.StatusActive || (q.Category != "" && l.Category != q.Category) {
			continue
		}
		cp := *l
		matched = append(matched, &cp)
	}
	r.mu.RUnlock()
	sortListings(matched, q.Sort)

	start := 0
	if cursor != "" {
		start = -1
		for i, l := range matched {
			if l.ID == cursor {
				start = i + 1
				break
			}
		}
		if start < 0 {
			return nil, domain.ErrInvalidCursor
		}
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}
	page := &domain.Page{Items: matched[start:end], HasMore: end < len(matched)}
	if page.HasMore {
		page.Cursor = matched[end-1].ID
	}
	return page, nil
}

func (r *ListingRepository) UpdateStatus(_ context.Context, id string, status domain.ListingStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.listings[id]
	if !ok {
		return domain.ErrListingNotFound
	}
	l.Status = status
	l.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *ListingRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.listings[id]; !ok {
		return domain.ErrListingNotFound
	}
	delete(r.listings, id)
	return nil
}

func sortListings(ls []*domain.Listing, order domain.SortOrder) {
	sort.Slice(ls, func(i, j int) bool {
		a, b := ls[i], ls[j]
		switch order {
		case domain.SortPriceLow:
			if a.Price != b.Price {
				return a.Price < b.Price
			}
			return a.ID < b.ID
		case domain.SortPriceHigh:
			if a.Price != b.Price {
				return a.Price > b.Price
			}
			return a.ID > b.ID
		default:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
			return a.ID > b.ID
		}
	})
}
