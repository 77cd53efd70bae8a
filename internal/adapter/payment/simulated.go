// Package payment holds the payment processor used by checkout. Only a
// simulated processor exists; it never moves money.
package payment

import (
	"context"
	"errors"

	cartdomain "github.com/Abdurahmanit/GroupProject/bookmarket/internal/cart/domain"
	"github.com/google/uuid"
)

const DefaultApprovalLimit = 5000.0

var ErrInvalidAmount = errors.New("payment amount must be positive")

// Simulated approves every charge up to its limit and declines the rest.
type Simulated struct {
	limit float64
}

func NewSimulated(limit float64) *Simulated {
	if limit <= 0 {
		limit = DefaultApprovalLimit
	}
	return &Simulated{limit: limit}
}

func (s *Simulated) Charge(ctx context.Context, userID string, amount float64) (cartdomain.PaymentResult, error) {
	if err := ctx.Err(); err != nil {
		return cartdomain.PaymentResult{}, err
	}
	if userID == "" {
		return cartdomain.PaymentResult{}, cartdomain.ErrNotAuthenticated
	}
	if amount <= 0 {
		return cartdomain.PaymentResult{}, ErrInvalidAmount
	}
	if amount > s.limit {
		return cartdomain.PaymentResult{Approved: false}, nil
	}
	return cartdomain.PaymentResult{Approved: true, TransactionID: "sim_" + uuid.New().String()}, nil
}
