package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/cart/domain"
	listingdomain "github.com/Abdurahmanit/GroupProject/bookmarket/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/platform/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const SubjectCartCheckedOut = "cart.checked_out"

// Catalog is the part of the listing service checkout depends on.
type Catalog interface {
	GetListing(ctx context.Context, id string) (*listingdomain.Listing, error)
	UpdateStatus(ctx context.Context, id string, status listingdomain.ListingStatus) error
}

type CheckedOutEvent struct {
	OrderID       string    `json:"order_id"`
	UserID        string    `json:"user_id"`
	ListingIDs    []string  `json:"listing_ids"`
	Total         float64   `json:"total"`
	TransactionID string    `json:"transaction_id"`
	CreatedAt     time.Time `json:"created_at"`
}

// UnavailableError lists cart items whose listing can no longer be bought.
type UnavailableError struct {
	ListingIDs []string
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%d listing(s) no longer available", len(e.ListingIDs))
}

func (e *UnavailableError) Unwrap() error { return domain.ErrItemUnavailable }

type CheckoutService struct {
	carts     *CartService
	catalog   Catalog
	payments  domain.PaymentProcessor
	orders    domain.OrderRepository
	publisher listingdomain.EventPublisher
	receipts  domain.ReceiptSender
	logger    *logger.Logger
	metrics   *metrics.MetricsManager
}

func NewCheckoutService(
	carts *CartService,
	catalog Catalog,
	payments domain.PaymentProcessor,
	orders domain.OrderRepository,
	publisher listingdomain.EventPublisher,
	receipts domain.ReceiptSender,
	log *logger.Logger,
	m *metrics.MetricsManager,
) *CheckoutService {
	return &CheckoutService{
		carts:     carts,
		catalog:   catalog,
		payments:  payments,
		orders:    orders,
		publisher: publisher,
		receipts:  receipts,
		logger:    log.Named("checkout"),
		metrics:   m,
	}
}

// Checkout charges the signed-in owner for every item in the device cart,
// records the order, marks the listings sold or rented and clears the cart.
func (s *CheckoutService) Checkout(ctx context.Context, owner Owner) (*domain.Order, error) {
	if !owner.SignedIn() {
		return nil, domain.ErrNotAuthenticated
	}
	ctx, span := otel.Tracer("bookmarket/cart").Start(ctx, "CheckoutService.Checkout")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", owner.UserID))

	c, err := s.carts.Get(ctx, owner)
	if err != nil {
		return nil, err
	}
	if len(c.Items) == 0 {
		return nil, domain.ErrCartEmpty
	}

	var unavailable []string
	for _, it := range c.Items {
		l, err := s.catalog.GetListing(ctx, it.ListingID)
		if errors.Is(err, listingdomain.ErrListingNotFound) || (err == nil && l.Status != listingdomain.StatusActive) {
			unavailable = append(unavailable, it.ListingID)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("could not verify listing %s: %w", it.ListingID, err)
		}
	}
	if len(unavailable) > 0 {
		s.count("unavailable")
		return nil, &UnavailableError{ListingIDs: unavailable}
	}

	total := c.Total()
	res, err := s.payments.Charge(ctx, owner.UserID, total)
	if err != nil {
		s.count("error")
		return nil, fmt.Errorf("payment failed: %w", err)
	}
	if !res.Approved {
		s.count("declined")
		s.logger.Info("CheckoutService.Checkout: payment declined", zap.String("user_id", owner.UserID), zap.Float64("total", total))
		return nil, domain.ErrPaymentDeclined
	}

	order := &domain.Order{
		UserID:        owner.UserID,
		Items:         append([]domain.Item(nil), c.Items...),
		Total:         total,
		TransactionID: res.TransactionID,
		Status:        domain.OrderStatusPaid,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.orders.Create(ctx, order); err != nil {
		// the charge went through; the transaction id in the log is the only trace
		s.logger.Error("CheckoutService.Checkout: order not recorded after payment",
			zap.String("user_id", owner.UserID), zap.String("transaction_id", res.TransactionID), zap.Error(err))
		s.count("error")
		return nil, fmt.Errorf("could not record order: %w", err)
	}

	listingIDs := make([]string, 0, len(order.Items))
	for _, it := range order.Items {
		status := listingdomain.StatusSold
		if it.Intent == domain.IntentRent {
			status = listingdomain.StatusRented
		}
		if err := s.catalog.UpdateStatus(ctx, it.ListingID, status); err != nil {
			s.logger.Error("CheckoutService.Checkout: could not update listing status",
				zap.String("listing_id", it.ListingID), zap.String("order_id", order.ID), zap.Error(err))
		}
		listingIDs = append(listingIDs, it.ListingID)
	}

	if _, err := s.carts.Clear(ctx, owner); err != nil {
		s.logger.Warn("CheckoutService.Checkout: cart not cleared", zap.String("order_id", order.ID), zap.Error(err))
	}
	s.count("paid")

	if s.publisher != nil {
		evt := CheckedOutEvent{
			OrderID:       order.ID,
			UserID:        order.UserID,
			ListingIDs:    listingIDs,
			Total:         order.Total,
			TransactionID: order.TransactionID,
			CreatedAt:     order.CreatedAt,
		}
		if err := s.publisher.Publish(ctx, SubjectCartCheckedOut, evt); err != nil {
			s.logger.Warn("CheckoutService.Checkout: failed to publish event", zap.String("order_id", order.ID), zap.Error(err))
		}
	}
	if s.receipts != nil && owner.Email != "" {
		if err := s.receipts.SendOrderReceipt(owner.Email, order); err != nil {
			s.logger.Warn("CheckoutService.Checkout: failed to send receipt", zap.String("order_id", order.ID), zap.Error(err))
		}
	}

	s.logger.Info("CheckoutService.Checkout: order placed",
		zap.String("order_id", order.ID), zap.String("user_id", order.UserID), zap.Float64("total", order.Total))
	return order, nil
}

func (s *CheckoutService) count(outcome string) {
	if s.metrics != nil {
		s.metrics.CheckoutsTotal.WithLabelValues(outcome).Inc()
	}
}
