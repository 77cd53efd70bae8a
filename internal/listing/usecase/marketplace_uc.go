package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/platform/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	browseKeyPrefix = "browse:"
	// RefineScopePage marks refinement results that cover only the pages
	// loaded so far, not the whole store.
	RefineScopePage = "page"
)

// BrowseState is the accumulated result of one browse session.
type BrowseState struct {
	ID            string             `json:"id"`
	Native        domain.NativeQuery `json:"native"`
	Items         []*domain.Listing  `json:"items"`
	LastPageStart int                `json:"lastPageStart"`
	Cursor        string             `json:"cursor,omitempty"`
	HasMore       bool               `json:"hasMore"`
	Generation    uint64             `json:"generation"`
	UpdatedAt     time.Time          `json:"updatedAt"`
}

// LastPage returns the items added by the most recent fetch.
func (s *BrowseState) LastPage() []*domain.Listing {
	if s == nil || s.LastPageStart >= len(s.Items) {
		return nil
	}
	return s.Items[s.LastPageStart:]
}

type RefineResult struct {
	Items   []*domain.Listing `json:"items"`
	Scope   string            `json:"scope"`
	Scanned int               `json:"scanned"`
	Loaded  int               `json:"loaded"`
	HasMore bool              `json:"hasMore"`
}

type MarketplaceUsecase struct {
	repo         domain.ListingRepository
	sessions     domain.SessionStore
	locks        *keyedMutex
	pageSize     int
	featuredSize int
	logger       *logger.Logger
	metrics      *metrics.MetricsManager
	now          func() time.Time
}

func NewMarketplaceUsecase(
	repo domain.ListingRepository,
	sessions domain.SessionStore,
	pageSize, featuredSize int,
	log *logger.Logger,
	m *metrics.MetricsManager,
) *MarketplaceUsecase {
	if pageSize <= 0 {
		pageSize = domain.PageSize
	}
	if featuredSize <= 0 {
		featuredSize = domain.FeaturedPageSize
	}
	return &MarketplaceUsecase{
		repo:         repo,
		sessions:     sessions,
		locks:        newKeyedMutex(),
		pageSize:     pageSize,
		featuredSize: featuredSize,
		logger:       log.Named("marketplace"),
		metrics:      m,
		now:          time.Now,
	}
}

// Query fetches a page for a browse session. The first page is loaded when
// the session is new, when loadMore is false, or when the native query
// changed; otherwise the next page is appended. A failed fetch leaves the
// accumulated items as they were. If a newer query for the same session
// started while this one was in flight, this result is dropped and the
// newer state is returned.
func (uc *MarketplaceUsecase) Query(ctx context.Context, browseID string, native domain.NativeQuery, loadMore bool) (*BrowseState, error) {
	native = native.Normalize()
	if err := native.Validate(); err != nil {
		return nil, err
	}

	ctx, span := otel.Tracer("bookmarket/listing").Start(ctx, "MarketplaceUsecase.Query")
	defer span.End()
	span.SetAttributes(
		attribute.String("browse.id", browseID),
		attribute.String("query.sort", string(native.Sort)),
		attribute.Bool("query.load_more", loadMore),
	)

	state, gen, cursor, reset, err := uc.begin(ctx, browseID, native, loadMore)
	if err != nil {
		return nil, err
	}
	if !reset && !state.HasMore {
		return state, nil
	}

	page, err := uc.repo.QueryPage(ctx, native, cursor, uc.pageSize)
	if err != nil {
		uc.countQuery(native, "error")
		uc.logger.Warn("MarketplaceUsecase.Query: page fetch failed", zap.String("browse_id", browseID), zap.Error(err))
		if errors.Is(err, domain.ErrInvalidCursor) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrQueryFailed, err)
	}
	uc.countQuery(native, "ok")

	return uc.commit(ctx, browseID, gen, reset, native, page)
}

// begin claims a new generation for the session and decides whether this
// query restarts from the first page.
func (uc *MarketplaceUsecase) begin(ctx context.Context, browseID string, native domain.NativeQuery, loadMore bool) (*BrowseState, uint64, string, bool, error) {
	unlock := uc.locks.Lock(browseID)
	defer unlock()

	state, err := uc.loadState(ctx, browseID)
	if err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
		return nil, 0, "", false, err
	}
	fresh := state == nil
	if fresh {
		state = &BrowseState{ID: browseID, Native: native}
	}

	// An exhausted session keeps its items on load more; the cursor is empty
	// once the last page has been fetched.
	reset := !loadMore || fresh || state.Native != native
	if !reset && !state.HasMore {
		return state, state.Generation, "", false, nil
	}
	state.Generation++
	if err := uc.saveState(ctx, state); err != nil {
		return nil, 0, "", false, err
	}
	cursor := ""
	if !reset {
		cursor = state.Cursor
	}
	return state, state.Generation, cursor, reset, nil
}

func (uc *MarketplaceUsecase) commit(ctx context.Context, browseID string, gen uint64, reset bool, native domain.NativeQuery, page *domain.Page) (*BrowseState, error) {
	unlock := uc.locks.Lock(browseID)
	defer unlock()

	state, err := uc.loadState(ctx, browseID)
	if err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
		return nil, err
	}
	if state != nil && state.Generation != gen {
		if uc.metrics != nil {
			uc.metrics.StaleQueriesTotal.Inc()
		}
		uc.logger.Debug("MarketplaceUsecase.Query: dropping superseded result",
			zap.String("browse_id", browseID), zap.Uint64("generation", gen), zap.Uint64("current", state.Generation))
		return state, nil
	}
	if state == nil {
		state = &BrowseState{ID: browseID, Generation: gen}
	}

	if reset {
		state.Items = append([]*domain.Listing(nil), page.Items...)
		state.LastPageStart = 0
	} else {
		state.Items, state.LastPageStart = appendDistinct(state.Items, page.Items)
	}
	state.Native = native
	state.Cursor = page.Cursor
	state.HasMore = page.HasMore
	state.UpdatedAt = uc.now()

	if err := uc.saveState(ctx, state); err != nil {
		return nil, err
	}
	return state, nil
}

// appendDistinct appends listings whose id is not yet present and returns
// the index where the new ones start.
func appendDistinct(acc, page []*domain.Listing) ([]*domain.Listing, int) {
	seen := make(map[string]struct{}, len(acc))
	for _, l := range acc {
		seen[l.ID] = struct{}{}
	}
	start := len(acc)
	for _, l := range page {
		if l == nil {
			continue
		}
		if _, dup := seen[l.ID]; dup {
			continue
		}
		seen[l.ID] = struct{}{}
		acc = append(acc, l)
	}
	return acc, start
}

// Refine applies local filters to the pages accumulated in state. It
// performs no I/O and never modifies state.
func (uc *MarketplaceUsecase) Refine(state *BrowseState, f domain.LocalFilter) []*domain.Listing {
	if state == nil {
		return nil
	}
	return domain.Refine(state.Items, f)
}

// RefineSession loads a browse session and refines it.
func (uc *MarketplaceUsecase) RefineSession(ctx context.Context, browseID string, f domain.LocalFilter) (*RefineResult, error) {
	state, err := uc.loadState(ctx, browseID)
	if err != nil {
		return nil, err
	}
	return &RefineResult{
		Items:   uc.Refine(state, f),
		Scope:   RefineScopePage,
		Scanned: len(state.Items),
		Loaded:  len(state.Items),
		HasMore: state.HasMore,
	}, nil
}

// Page is the stateless variant: one page for the given native query.
func (uc *MarketplaceUsecase) Page(ctx context.Context, native domain.NativeQuery, cursor string, limit int) (*domain.Page, error) {
	native = native.Normalize()
	if err := native.Validate(); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > uc.pageSize {
		limit = uc.pageSize
	}
	page, err := uc.repo.QueryPage(ctx, native, cursor, limit)
	if err != nil {
		uc.countQuery(native, "error")
		if errors.Is(err, domain.ErrInvalidCursor) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrQueryFailed, err)
	}
	uc.countQuery(native, "ok")
	return page, nil
}

// Featured returns the newest active listings.
func (uc *MarketplaceUsecase) Featured(ctx context.Context) ([]*domain.Listing, error) {
	page, err := uc.Page(ctx, domain.NativeQuery{Sort: domain.SortNewest}, "", uc.featuredSize)
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

func (uc *MarketplaceUsecase) CloseSession(ctx context.Context, browseID string) error {
	return uc.sessions.Delete(ctx, browseKeyPrefix+browseID)
}

func (uc *MarketplaceUsecase) loadState(ctx context.Context, browseID string) (*BrowseState, error) {
	var s BrowseState
	if err := uc.sessions.Get(ctx, browseKeyPrefix+browseID, &s); err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("could not load browse session: %w", err)
	}
	return &s, nil
}

func (uc *MarketplaceUsecase) saveState(ctx context.Context, s *BrowseState) error {
	if err := uc.sessions.Set(ctx, browseKeyPrefix+s.ID, s); err != nil {
		return fmt.Errorf("could not save browse session: %w", err)
	}
	return nil
}

func (uc *MarketplaceUsecase) countQuery(q domain.NativeQuery, outcome string) {
	if uc.metrics != nil {
		uc.metrics.MarketplaceQueriesTotal.WithLabelValues(string(q.Sort), outcome).Inc()
	}
}
