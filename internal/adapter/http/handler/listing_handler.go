package handler

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/listing/usecase"
	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/platform/logger"
	"github.com/go-chi/chi/v5"
)

const maxPageLimit = 100

type ListingHandler struct {
	listings    *usecase.ListingUsecase
	marketplace *usecase.MarketplaceUsecase
	logger      *logger.Logger
}

func NewListingHandler(listings *usecase.ListingUsecase, marketplace *usecase.MarketplaceUsecase, log *logger.Logger) *ListingHandler {
	return &ListingHandler{listings: listings, marketplace: marketplace, logger: log.Named("listing_handler")}
}

type listPageResponse struct {
	Items   []*domain.Listing `json:"items"`
	Cursor  string            `json:"cursor,omitempty"`
	HasMore bool              `json:"hasMore"`
	Scope   string            `json:"scope"`
	Scanned int               `json:"scanned"`
}

// List serves one stateless page. Local filters only narrow that page.
func (h *ListingHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	native := domain.NativeQuery{Category: q.Get("category"), Sort: domain.SortOrder(q.Get("sort"))}

	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxPageLimit {
			writeError(w, h.logger, "ListingHandler.List", domain.ErrInvalidFilter)
			return
		}
		limit = n
	}
	filter, err := parseLocalFilter(q)
	if err != nil {
		writeError(w, h.logger, "ListingHandler.List", err)
		return
	}

	page, err := h.marketplace.Page(r.Context(), native, q.Get("cursor"), limit)
	if err != nil {
		writeError(w, h.logger, "ListingHandler.List", err)
		return
	}
	writeJSON(w, http.StatusOK, listPageResponse{
		Items:   domain.Refine(page.Items, filter),
		Cursor:  page.Cursor,
		HasMore: page.HasMore,
		Scope:   usecase.RefineScopePage,
		Scanned: len(page.Items),
	})
}

func (h *ListingHandler) Featured(w http.ResponseWriter, r *http.Request) {
	items, err := h.marketplace.Featured(r.Context())
	if err != nil {
		writeError(w, h.logger, "ListingHandler.Featured", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

func (h *ListingHandler) Get(w http.ResponseWriter, r *http.Request) {
	l, err := h.listings.GetListing(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, "ListingHandler.Get", err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

type browseQueryRequest struct {
	Category string           `json:"category"`
	Sort     domain.SortOrder `json:"sort"`
	LoadMore bool             `json:"loadMore"`
}

type browseResponse struct {
	*usecase.BrowseState
	LastPage []*domain.Listing `json:"lastPage"`
}

func (h *ListingHandler) BrowseQuery(w http.ResponseWriter, r *http.Request) {
	var req browseQueryRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	state, err := h.marketplace.Query(r.Context(), chi.URLParam(r, "browseID"),
		domain.NativeQuery{Category: req.Category, Sort: req.Sort}, req.LoadMore)
	if err != nil {
		writeError(w, h.logger, "ListingHandler.BrowseQuery", err)
		return
	}
	writeJSON(w, http.StatusOK, browseResponse{BrowseState: state, LastPage: state.LastPage()})
}

func (h *ListingHandler) BrowseRefine(w http.ResponseWriter, r *http.Request) {
	var f domain.LocalFilter
	if err := decodeJSON(r, &f); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	res, err := h.marketplace.RefineSession(r.Context(), chi.URLParam(r, "browseID"), f)
	if err != nil {
		writeError(w, h.logger, "ListingHandler.BrowseRefine", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *ListingHandler) BrowseClose(w http.ResponseWriter, r *http.Request) {
	if err := h.marketplace.CloseSession(r.Context(), chi.URLParam(r, "browseID")); err != nil {
		writeError(w, h.logger, "ListingHandler.BrowseClose", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ListingHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status domain.ListingStatus `json:"status"`
	}
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.listings.UpdateStatus(r.Context(), id, req.Status); err != nil {
		writeError(w, h.logger, "ListingHandler.UpdateStatus", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": string(req.Status)})
}

func (h *ListingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.listings.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, h.logger, "ListingHandler.Delete", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseLocalFilter(q url.Values) (domain.LocalFilter, error) {
	f := domain.LocalFilter{
		Search:    q.Get("search"),
		ISBN:      q.Get("isbn"),
		Condition: q.Get("condition"),
		Type:      domain.ListingType(strings.ToLower(q.Get("type"))),
	}
	if f.Type != "" && !f.Type.Valid() {
		return f, domain.ErrInvalidFilter
	}
	var err error
	if f.MinPrice, err = parsePrice(q.Get("minPrice")); err != nil {
		return f, err
	}
	if f.MaxPrice, err = parsePrice(q.Get("maxPrice")); err != nil {
		return f, err
	}
	return f, nil
}

func parsePrice(raw string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return nil, domain.ErrInvalidFilter
	}
	return &v, nil
}
