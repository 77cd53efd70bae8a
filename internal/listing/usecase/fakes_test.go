package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/listing/domain"
	"github.com/stretchr/testify/mock"
)

// fakeStaging keeps staged files in memory.
type fakeStaging struct {
	mu      sync.Mutex
	files   map[string][]byte
	refs    map[string]domain.MediaRef
	seq     int
	removed []string
}

func newFakeStaging() *fakeStaging {
	return &fakeStaging{files: map[string][]byte{}, refs: map[string]domain.MediaRef{}}
}

func (s *fakeStaging) Stage(_ context.Context, fileName, contentType string, data io.Reader) (domain.MediaRef, error) {
	b, err := io.ReadAll(data)
	if err != nil {
		return domain.MediaRef{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	id := fmt.Sprintf("m%d", s.seq)
	ref := domain.MediaRef{
		ID:          id,
		FileName:    fileName,
		ContentType: contentType,
		Size:        int64(len(b)),
		PreviewURL:  "http://local/media/staging/" + id,
	}
	s.files[id] = b
	s.refs[id] = ref
	return ref, nil
}

func (s *fakeStaging) Open(_ context.Context, id string) (io.ReadCloser, domain.MediaRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.files[id]
	if !ok {
		return nil, domain.MediaRef{}, errors.New("not staged")
	}
	return io.NopCloser(bytes.NewReader(b)), s.refs[id], nil
}

func (s *fakeStaging) Remove(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, id)
	delete(s.refs, id)
	s.removed = append(s.removed, id)
	return nil
}

func (s *fakeStaging) stage(names ...string) []domain.MediaRef {
	refs := make([]domain.MediaRef, 0, len(names))
	for _, n := range names {
		ref, _ := s.Stage(context.Background(), n, "image/jpeg", bytes.NewReader([]byte("img-"+n)))
		refs = append(refs, ref)
	}
	return refs
}

// fakeHost uploads into memory and fails for configured file names.
type fakeHost struct {
	mu       sync.Mutex
	fail     map[string]bool
	delay    time.Duration
	inFlight int
	maxSeen  int
	calls    int
	removed  []string
}

func (h *fakeHost) Remove(_ context.Context, url string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removed = append(h.removed, url)
	return nil
}

func (h *fakeHost) Upload(ctx context.Context, fileName, _ string, data io.Reader, _ int64) (string, error) {
	h.mu.Lock()
	h.calls++
	h.inFlight++
	if h.inFlight > h.maxSeen {
		h.maxSeen = h.inFlight
	}
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		h.inFlight--
		h.mu.Unlock()
	}()

	if h.delay > 0 {
		select {
		case <-time.After(h.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if _, err := io.ReadAll(data); err != nil {
		return "", err
	}
	if h.fail[fileName] {
		return "", errors.New("host rejected file")
	}
	return "https://cdn.example/photos/" + fileName, nil
}

// fakeListingRepo orders and pages listings the way the Mongo repository does.
type fakeListingRepo struct {
	mu      sync.Mutex
	items   []*domain.Listing
	err     error
	onQuery func()
	queries int
}

func (r *fakeListingRepo) Create(_ context.Context, l *domain.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l.ID == "" {
		l.ID = fmt.Sprintf("id-%03d", len(r.items))
	}
	r.items = append(r.items, l)
	return nil
}

func (r *fakeListingRepo) FindByID(_ context.Context, id string) (*domain.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.items {
		if l.ID == id {
			return l, nil
		}
	}
	return nil, domain.ErrListingNotFound
}

func (r *fakeListingRepo) QueryPage(_ context.Context, q domain.NativeQuery, cursor string, limit int) (*domain.Page, error) {
	r.mu.Lock()
	r.queries++
	hook := r.onQuery
	r.onQuery = nil
	err := r.err
	r.mu.Unlock()
	if hook != nil {
		hook()
	}
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []*domain.Listing
	for _, l := range r.items {
		if l.Status != domain.StatusActive {
			continue
		}
		if q.Category != "" && l.Category != q.Category {
			continue
		}
		matched = append(matched, l)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		switch q.Sort {
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
	page := &domain.Page{Items: append([]*domain.Listing(nil), matched[start:end]...), HasMore: end < len(matched)}
	if page.HasMore && len(page.Items) > 0 {
		page.Cursor = page.Items[len(page.Items)-1].ID
	}
	return page, nil
}

func (r *fakeListingRepo) UpdateStatus(_ context.Context, id string, status domain.ListingStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.items {
		if l.ID == id {
			l.Status = status
			return nil
		}
	}
	return domain.ErrListingNotFound
}

func (r *fakeListingRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, l := range r.items {
		if l.ID == id {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return nil
		}
	}
	return domain.ErrListingNotFound
}

func seedListings(n int, category func(i int) string) *fakeListingRepo {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	r := &fakeListingRepo{}
	for i := 0; i < n; i++ {
		r.items = append(r.items, &domain.Listing{
			ID:        fmt.Sprintf("id-%03d", i),
			Title:     fmt.Sprintf("Book %d", i),
			Author:    "Author",
			Category:  category(i),
			Price:     float64((i*37)%50 + 1),
			Type:      domain.TypeSell,
			Status:    domain.StatusActive,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}
	return r
}

type MockListingRepository struct {
	mock.Mock
}

func (m *MockListingRepository) Create(ctx context.Context, l *domain.Listing) error {
	args := m.Called(ctx, l)
	return args.Error(0)
}

func (m *MockListingRepository) FindByID(ctx context.Context, id string) (*domain.Listing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Listing), args.Error(1)
}

func (m *MockListingRepository) QueryPage(ctx context.Context, q domain.NativeQuery, cursor string, limit int) (*domain.Page, error) {
	args := m.Called(ctx, q, cursor, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Page), args.Error(1)
}

func (m *MockListingRepository) UpdateStatus(ctx context.Context, id string, status domain.ListingStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockListingRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, subject string, data interface{}) error {
	args := m.Called(ctx, subject, data)
	return args.Error(0)
}

type MockListingCache struct {
	mock.Mock
}

func (m *MockListingCache) GetListing(ctx context.Context, id string) (*domain.Listing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Listing), args.Error(1)
}

func (m *MockListingCache) SetListing(ctx context.Context, l *domain.Listing) error {
	args := m.Called(ctx, l)
	return args.Error(0)
}

func (m *MockListingCache) DeleteListing(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type fakeLookup struct {
	md  *domain.BookMetadata
	err error
}

func (f fakeLookup) LookupISBN(context.Context, string) (*domain.BookMetadata, error) {
	return f.md, f.err
}

type fakeGeocoder struct {
	addr *domain.Location
	err  error
}

func (f fakeGeocoder) Reverse(context.Context, domain.GeoPoint) (*domain.Location, error) {
	return f.addr, f.err
}

type fakeUsers struct {
	profiles map[string]*domain.CurrentUser
}

func (f fakeUsers) GetProfile(_ context.Context, id string) (*domain.CurrentUser, error) {
	if p, ok := f.profiles[id]; ok {
		return p, nil
	}
	return nil, domain.ErrUserNotFound
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []string
}

func (n *recordingNotifier) SendListingCreatedEmail(to, title string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, to+"|"+title)
	return nil
}
