package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/cart/domain"
	listingdomain "github.com/Abdurahmanit/GroupProject/bookmarket/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockCatalog struct {
	mock.Mock
}

func (m *MockCatalog) GetListing(ctx context.Context, id string) (*listingdomain.Listing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*listingdomain.Listing), args.Error(1)
}

func (m *MockCatalog) UpdateStatus(ctx context.Context, id string, status listingdomain.ListingStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

type MockPaymentProcessor struct {
	mock.Mock
}

func (m *MockPaymentProcessor) Charge(ctx context.Context, userID string, amount float64) (domain.PaymentResult, error) {
	args := m.Called(ctx, userID, amount)
	return args.Get(0).(domain.PaymentResult), args.Error(1)
}

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	if args.Error(0) == nil && order.ID == "" {
		order.ID = "order-1"
	}
	return args.Error(0)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, subject string, data interface{}) error {
	args := m.Called(ctx, subject, data)
	return args.Error(0)
}

type recordingReceipts struct {
	sent []string
	err  error
}

func (r *recordingReceipts) SendOrderReceipt(toEmail string, order *domain.Order) error {
	r.sent = append(r.sent, toEmail+":"+order.ID)
	return r.err
}

type checkoutFixture struct {
	device    *MockDeviceCartRepository
	catalog   *MockCatalog
	payments  *MockPaymentProcessor
	orders    *MockOrderRepository
	publisher *MockEventPublisher
	receipts  *recordingReceipts
	svc       *CheckoutService
	cart      *domain.Cart
}

func newCheckoutFixture(items ...domain.Item) *checkoutFixture {
	f := &checkoutFixture{
		device:    new(MockDeviceCartRepository),
		catalog:   new(MockCatalog),
		payments:  new(MockPaymentProcessor),
		orders:    new(MockOrderRepository),
		publisher: new(MockEventPublisher),
		receipts:  &recordingReceipts{},
	}
	f.cart = domain.NewCart("dev-1")
	f.cart.Items = items
	carts := newCartService(f.device, nil, &recordingSync{})
	f.svc = NewCheckoutService(carts, f.catalog, f.payments, f.orders, f.publisher, f.receipts, logger.NewNop(), nil)
	return f
}

var shopper = Owner{DeviceID: "dev-1", UserID: "u1", Email: "u1@example.com"}

func activeListing(id string) *listingdomain.Listing {
	return &listingdomain.Listing{ID: id, Status: listingdomain.StatusActive}
}

func TestCheckout_Success(t *testing.T) {
	f := newCheckoutFixture(
		domain.Item{ListingID: "l1", Intent: domain.IntentBuy, Price: 12.5},
		domain.Item{ListingID: "l2", Intent: domain.IntentRent, Price: 3},
	)
	ctx := mock.Anything

	f.device.On("Get", ctx, "dev-1").Return(f.cart, nil)
	f.device.On("Save", ctx, f.cart).Return(nil).Once()
	f.catalog.On("GetListing", ctx, "l1").Return(activeListing("l1"), nil).Once()
	f.catalog.On("GetListing", ctx, "l2").Return(activeListing("l2"), nil).Once()
	f.payments.On("Charge", ctx, "u1", 15.5).Return(domain.PaymentResult{Approved: true, TransactionID: "txn-1"}, nil).Once()
	f.orders.On("Create", ctx, mock.MatchedBy(func(o *domain.Order) bool {
		return o.Total == 15.5 && o.TransactionID == "txn-1" && len(o.Items) == 2 && o.Status == domain.OrderStatusPaid
	})).Return(nil).Once()
	f.catalog.On("UpdateStatus", ctx, "l1", listingdomain.StatusSold).Return(nil).Once()
	f.catalog.On("UpdateStatus", ctx, "l2", listingdomain.StatusRented).Return(nil).Once()
	f.publisher.On("Publish", ctx, SubjectCartCheckedOut, mock.MatchedBy(func(e CheckedOutEvent) bool {
		return e.OrderID == "order-1" && len(e.ListingIDs) == 2
	})).Return(nil).Once()

	order, err := f.svc.Checkout(context.Background(), shopper)

	require.NoError(t, err)
	assert.Equal(t, "order-1", order.ID)
	assert.Len(t, order.Items, 2)
	assert.Empty(t, f.cart.Items)
	assert.Equal(t, []string{"u1@example.com:order-1"}, f.receipts.sent)
	f.catalog.AssertExpectations(t)
	f.payments.AssertExpectations(t)
	f.orders.AssertExpectations(t)
	f.publisher.AssertExpectations(t)
}

func TestCheckout_RequiresSignIn(t *testing.T) {
	f := newCheckoutFixture(domain.Item{ListingID: "l1", Intent: domain.IntentBuy, Price: 1})

	_, err := f.svc.Checkout(context.Background(), Owner{DeviceID: "dev-1"})

	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
	f.device.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestCheckout_EmptyCart(t *testing.T) {
	f := newCheckoutFixture()
	f.device.On("Get", mock.Anything, "dev-1").Return(f.cart, nil)

	_, err := f.svc.Checkout(context.Background(), shopper)

	assert.ErrorIs(t, err, domain.ErrCartEmpty)
	f.payments.AssertNotCalled(t, "Charge", mock.Anything, mock.Anything, mock.Anything)
}

func TestCheckout_UnavailableListings(t *testing.T) {
	f := newCheckoutFixture(
		domain.Item{ListingID: "gone", Intent: domain.IntentBuy, Price: 1},
		domain.Item{ListingID: "sold", Intent: domain.IntentBuy, Price: 1},
		domain.Item{ListingID: "ok", Intent: domain.IntentBuy, Price: 1},
	)
	f.device.On("Get", mock.Anything, "dev-1").Return(f.cart, nil)
	f.catalog.On("GetListing", mock.Anything, "gone").Return(nil, listingdomain.ErrListingNotFound)
	f.catalog.On("GetListing", mock.Anything, "sold").Return(&listingdomain.Listing{ID: "sold", Status: listingdomain.StatusSold}, nil)
	f.catalog.On("GetListing", mock.Anything, "ok").Return(activeListing("ok"), nil)

	_, err := f.svc.Checkout(context.Background(), shopper)

	require.ErrorIs(t, err, domain.ErrItemUnavailable)
	var ue *UnavailableError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, []string{"gone", "sold"}, ue.ListingIDs)
	f.payments.AssertNotCalled(t, "Charge", mock.Anything, mock.Anything, mock.Anything)
	assert.Len(t, f.cart.Items, 3)
}

func TestCheckout_PaymentDeclined(t *testing.T) {
	f := newCheckoutFixture(domain.Item{ListingID: "l1", Intent: domain.IntentBuy, Price: 20})
	f.device.On("Get", mock.Anything, "dev-1").Return(f.cart, nil)
	f.catalog.On("GetListing", mock.Anything, "l1").Return(activeListing("l1"), nil)
	f.payments.On("Charge", mock.Anything, "u1", 20.0).Return(domain.PaymentResult{Approved: false}, nil)

	_, err := f.svc.Checkout(context.Background(), shopper)

	assert.ErrorIs(t, err, domain.ErrPaymentDeclined)
	f.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.catalog.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	assert.Len(t, f.cart.Items, 1)
}

func TestCheckout_OrderRecordFails(t *testing.T) {
	f := newCheckoutFixture(domain.Item{ListingID: "l1", Intent: domain.IntentBuy, Price: 20})
	f.device.On("Get", mock.Anything, "dev-1").Return(f.cart, nil)
	f.catalog.On("GetListing", mock.Anything, "l1").Return(activeListing("l1"), nil)
	f.payments.On("Charge", mock.Anything, "u1", 20.0).Return(domain.PaymentResult{Approved: true, TransactionID: "txn-9"}, nil)
	f.orders.On("Create", mock.Anything, mock.Anything).Return(errors.New("mongo down"))

	_, err := f.svc.Checkout(context.Background(), shopper)

	assert.Error(t, err)
	f.catalog.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	assert.Len(t, f.cart.Items, 1)
}

func TestCheckout_SideEffectFailuresDoNotFailOrder(t *testing.T) {
	f := newCheckoutFixture(domain.Item{ListingID: "l1", Intent: domain.IntentBuy, Price: 5})
	f.receipts.err = errors.New("smtp down")
	f.device.On("Get", mock.Anything, "dev-1").Return(f.cart, nil)
	f.device.On("Save", mock.Anything, mock.Anything).Return(nil)
	f.catalog.On("GetListing", mock.Anything, "l1").Return(activeListing("l1"), nil)
	f.payments.On("Charge", mock.Anything, "u1", 5.0).Return(domain.PaymentResult{Approved: true, TransactionID: "t"}, nil)
	f.orders.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.catalog.On("UpdateStatus", mock.Anything, "l1", listingdomain.StatusSold).Return(errors.New("conflict"))
	f.publisher.On("Publish", mock.Anything, SubjectCartCheckedOut, mock.Anything).Return(errors.New("nats down"))

	order, err := f.svc.Checkout(context.Background(), shopper)

	require.NoError(t, err)
	assert.Equal(t, "order-1", order.ID)
	assert.Len(t, f.receipts.sent, 1)
}
