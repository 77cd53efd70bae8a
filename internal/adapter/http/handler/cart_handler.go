package handler

import (
	"net/http"

	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/adapter/http/middleware"
	cartdomain "github.com/Abdurahmanit/GroupProject/bookmarket/internal/cart/domain"
	cartusecase "github.com/Abdurahmanit/GroupProject/bookmarket/internal/cart/usecase"
	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/platform/logger"
	"github.com/go-chi/chi/v5"
)

const DeviceIDHeader = "X-Device-ID"

type CartHandler struct {
	carts    *cartusecase.CartService
	checkout *cartusecase.CheckoutService
	catalog  cartusecase.Catalog
	logger   *logger.Logger
}

func NewCartHandler(carts *cartusecase.CartService, checkout *cartusecase.CheckoutService, catalog cartusecase.Catalog, log *logger.Logger) *CartHandler {
	return &CartHandler{carts: carts, checkout: checkout, catalog: catalog, logger: log.Named("cart_handler")}
}

type cartResponse struct {
	Cart   *cartdomain.Cart  `json:"cart"`
	Total  float64           `json:"total"`
	Notice cartdomain.Notice `json:"notice,omitempty"`
}

func newCartResponse(c *cartdomain.Cart, n cartdomain.Notice) cartResponse {
	return cartResponse{Cart: c, Total: c.Total(), Notice: n}
}

func ownerFrom(r *http.Request) cartusecase.Owner {
	return cartusecase.Owner{
		DeviceID: r.Header.Get(DeviceIDHeader),
		UserID:   middleware.UserIDFromContext(r.Context()),
		Email:    middleware.EmailFromContext(r.Context()),
	}
}

func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.Get(r.Context(), ownerFrom(r))
	if err != nil {
		writeError(w, h.logger, "CartHandler.Get", err)
		return
	}
	writeJSON(w, http.StatusOK, newCartResponse(c, ""))
}

// Add puts a listing into the cart. Title, price and seller come from the
// listing itself, not from the request.
func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ListingID string            `json:"listingId"`
		Intent    cartdomain.Intent `json:"intent"`
	}
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if req.Intent == "" {
		req.Intent = cartdomain.IntentBuy
	}
	if req.ListingID == "" || !req.Intent.Valid() {
		writeError(w, h.logger, "CartHandler.Add", cartdomain.ErrInvalidItem)
		return
	}

	l, err := h.catalog.GetListing(r.Context(), req.ListingID)
	if err != nil {
		writeError(w, h.logger, "CartHandler.Add", err)
		return
	}
	if l.Status != domain.StatusActive {
		writeError(w, h.logger, "CartHandler.Add", &cartusecase.UnavailableError{ListingIDs: []string{l.ID}})
		return
	}

	c, notice, err := h.carts.Add(r.Context(), ownerFrom(r), itemFromListing(l, req.Intent))
	if err != nil {
		writeError(w, h.logger, "CartHandler.Add", err)
		return
	}
	status := http.StatusCreated
	if notice == cartdomain.NoticeAlreadyInCart {
		status = http.StatusOK
	}
	writeJSON(w, status, newCartResponse(c, notice))
}

func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	intent := cartdomain.Intent(r.URL.Query().Get("intent"))
	c, notice, err := h.carts.Remove(r.Context(), ownerFrom(r), chi.URLParam(r, "listingID"), intent)
	if err != nil {
		writeError(w, h.logger, "CartHandler.Remove", err)
		return
	}
	writeJSON(w, http.StatusOK, newCartResponse(c, notice))
}

func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.Clear(r.Context(), ownerFrom(r))
	if err != nil {
		writeError(w, h.logger, "CartHandler.Clear", err)
		return
	}
	writeJSON(w, http.StatusOK, newCartResponse(c, cartdomain.NoticeCleared))
}

func (h *CartHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	owner := ownerFrom(r)
	c, err := h.carts.SignIn(r.Context(), owner.DeviceID, owner.UserID)
	if err != nil {
		writeError(w, h.logger, "CartHandler.SignIn", err)
		return
	}
	writeJSON(w, http.StatusOK, newCartResponse(c, ""))
}

func (h *CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	order, err := h.checkout.Checkout(r.Context(), ownerFrom(r))
	if err != nil {
		writeError(w, h.logger, "CartHandler.Checkout", err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

func itemFromListing(l *domain.Listing, intent cartdomain.Intent) cartdomain.Item {
	it := cartdomain.Item{
		ListingID:  l.ID,
		Title:      l.Title,
		Price:      l.Price,
		SellerID:   l.UserID,
		SellerName: l.Seller.Name,
		Intent:     intent,
	}
	if len(l.Images) > 0 {
		it.Image = l.Images[0]
	}
	return it
}
