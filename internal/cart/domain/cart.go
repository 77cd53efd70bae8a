package domain

import (
	"errors"
	"sort"
	"strings"
	"time"
)

var (
	ErrInvalidItem      = errors.New("invalid cart item")
	ErrCartEmpty        = errors.New("cart is empty")
	ErrNotAuthenticated = errors.New("authentication required")
	ErrMissingDevice    = errors.New("device id is required")
	ErrPaymentDeclined  = errors.New("payment declined")
	ErrItemUnavailable  = errors.New("listing is no longer available")
	ErrCartNotFound     = errors.New("cart not found")
)

type Intent string

const (
	IntentBuy  Intent = "buy"
	IntentRent Intent = "rent"
)

func (i Intent) Valid() bool {
	return i == IntentBuy || i == IntentRent
}

type Notice string

const (
	NoticeAdded         Notice = "added"
	NoticeAlreadyInCart Notice = "already_in_cart"
	NoticeRemoved       Notice = "removed"
	NoticeNotInCart     Notice = "not_in_cart"
	NoticeCleared       Notice = "cleared"
)

type Item struct {
	ListingID  string    `json:"listingId" bson:"listing_id"`
	Title      string    `json:"title" bson:"title"`
	Price      float64   `json:"price" bson:"price"`
	Image      string    `json:"image,omitempty" bson:"image,omitempty"`
	SellerID   string    `json:"sellerId" bson:"seller_id"`
	SellerName string    `json:"sellerName" bson:"seller_name"`
	Intent     Intent    `json:"intent" bson:"intent"`
	AddedAt    time.Time `json:"addedAt" bson:"added_at"`
}

type key struct {
	listingID string
	intent    Intent
}

func (it Item) key() key { return key{it.ListingID, it.Intent} }

func (it Item) Validate() error {
	if strings.TrimSpace(it.ListingID) == "" || !it.Intent.Valid() || it.Price < 0 {
		return ErrInvalidItem
	}
	return nil
}

// Cart holds at most one item per (listing id, intent).
type Cart struct {
	Owner     string    `json:"owner"`
	Items     []Item    `json:"items"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func NewCart(owner string) *Cart {
	return &Cart{
		Owner:     owner,
		Items:     make([]Item, 0),
		UpdatedAt: time.Now().UTC(),
	}
}

func (c *Cart) indexOf(k key) int {
	for i, it := range c.Items {
		if it.key() == k {
			return i
		}
	}
	return -1
}

func (c *Cart) Contains(listingID string, intent Intent) bool {
	return c.indexOf(key{listingID, intent}) >= 0
}

// Add appends item unless one with the same listing and intent exists, in
// which case the cart is left unchanged.
func (c *Cart) Add(item Item, now time.Time) (Notice, error) {
	if err := item.Validate(); err != nil {
		return "", err
	}
	if c.indexOf(item.key()) >= 0 {
		return NoticeAlreadyInCart, nil
	}
	if item.AddedAt.IsZero() {
		item.AddedAt = now.UTC()
	}
	c.Items = append(c.Items, item)
	c.UpdatedAt = now.UTC()
	return NoticeAdded, nil
}

// Remove drops the item for listingID. An empty intent removes both the buy
// and the rent entry.
func (c *Cart) Remove(listingID string, intent Intent, now time.Time) Notice {
	kept := c.Items[:0]
	removed := false
	for _, it := range c.Items {
		if it.ListingID == listingID && (intent == "" || it.Intent == intent) {
			removed = true
			continue
		}
		kept = append(kept, it)
	}
	c.Items = kept
	if !removed {
		return NoticeNotInCart
	}
	c.UpdatedAt = now.UTC()
	return NoticeRemoved
}

func (c *Cart) Clear(now time.Time) {
	c.Items = make([]Item, 0)
	c.UpdatedAt = now.UTC()
}

func (c *Cart) Total() float64 {
	var total float64
	for _, it := range c.Items {
		total += it.Price
	}
	return total
}

// Merge unions two item lists on (listing id, intent). When both sides
// hold the same key the item added later wins; on a tie a is kept. The
// result is ordered by AddedAt.
func Merge(a, b []Item) []Item {
	byKey := make(map[key]Item, len(a)+len(b))
	for _, it := range a {
		byKey[it.key()] = it
	}
	for _, it := range b {
		if cur, ok := byKey[it.key()]; ok && !it.AddedAt.After(cur.AddedAt) {
			continue
		}
		byKey[it.key()] = it
	}
	out := make([]Item, 0, len(byKey))
	for _, it := range byKey {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].AddedAt.Equal(out[j].AddedAt) {
			return out[i].AddedAt.Before(out[j].AddedAt)
		}
		if out[i].ListingID != out[j].ListingID {
			return out[i].ListingID < out[j].ListingID
		}
		return out[i].Intent < out[j].Intent
	})
	return out
}
