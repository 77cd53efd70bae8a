package domain

import (
	"context"
	"time"
)

type OrderStatus string

const OrderStatusPaid OrderStatus = "paid"

type Order struct {
	ID            string      `json:"id"`
	UserID        string      `json:"userId"`
	Items         []Item      `json:"items"`
	Total         float64     `json:"total"`
	TransactionID string      `json:"transactionId"`
	Status        OrderStatus `json:"status"`
	CreatedAt     time.Time   `json:"createdAt"`
}

// PaymentResult is all checkout needs from a payment processor.
type PaymentResult struct {
	Approved      bool
	TransactionID string
}

type PaymentProcessor interface {
	Charge(ctx context.Context, userID string, amount float64) (PaymentResult, error)
}

// DeviceCartRepository is the local durable copy, keyed by device.
type DeviceCartRepository interface {
	Get(ctx context.Context, deviceID string) (*Cart, error)
	Save(ctx context.Context, cart *Cart) error
	Delete(ctx context.Context, deviceID string) error
}

// RemoteCartRepository is the per-user copy. Get returns ErrCartNotFound
// when the user has none yet.
type RemoteCartRepository interface {
	GetByUserID(ctx context.Context, userID string) (*Cart, error)
	Save(ctx context.Context, cart *Cart) error
}

type OrderRepository interface {
	Create(ctx context.Context, order *Order) error
}

type ReceiptSender interface {
	SendOrderReceipt(toEmail string, order *Order) error
}
