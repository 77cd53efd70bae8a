package domain

import (
	"strconv"
	"strings"
	"time"
)

// BuildListing turns a completed draft into the record that gets persisted.
// Pricing is re-validated as a last guard; malformed year and page count
// values fall back to zero instead of failing.
func BuildListing(d Draft, imageURLs []string, user *CurrentUser, now time.Time) (*Listing, error) {
	if user == nil || user.ID == "" {
		return nil, ErrNotAuthenticated
	}
	t := NormalizeType(d.Type)
	if !t.Valid() {
		return nil, ValidationErrors{"type": "Select sell, rent or exchange"}
	}
	if errs := ValidatePricing(t, d.Price, d.ExchangePreferences); len(errs) > 0 {
		return nil, errs
	}

	price := 0.0
	if t != TypeExchange {
		price, _ = strconv.ParseFloat(strings.TrimSpace(d.Price), 64)
	}
	images := make([]string, 0, len(imageURLs))
	for _, u := range imageURLs {
		if u = strings.TrimSpace(u); u != "" {
			images = append(images, u)
		}
	}
	exchangePrefs := ""
	if t == TypeExchange {
		exchangePrefs = strings.TrimSpace(d.ExchangePreferences)
	}

	return &Listing{
		UserID:              user.ID,
		Seller:              user.Snapshot(),
		ISBN:                strings.TrimSpace(d.ISBN),
		Title:               strings.TrimSpace(d.BookName),
		Author:              strings.TrimSpace(d.Author),
		Condition:           d.Condition,
		Category:            d.Category,
		Description:         strings.TrimSpace(d.Description),
		Price:               price,
		PublishedYear:       atoiOrZero(d.PublishedYear),
		PageCount:           atoiOrZero(d.PageCount),
		Language:            strings.TrimSpace(d.Language),
		Images:              images,
		Type:                t,
		AvailableFor:        AvailabilityFor(t),
		ExchangePreferences: exchangePrefs,
		DeliveryMethod:      d.DeliveryMethod,
		Location:            CompactLocation(d.Location),
		Status:              StatusActive,
		CreatedAt:           now,
		UpdatedAt:           now,
	}, nil
}

// CompactLocation trims every field so empty ones are dropped on encode.
func CompactLocation(l Location) Location {
	out := Location{
		Street:     strings.TrimSpace(l.Street),
		City:       strings.TrimSpace(l.City),
		State:      strings.TrimSpace(l.State),
		PostalCode: strings.TrimSpace(l.PostalCode),
	}
	if l.Coordinates != nil {
		c := *l.Coordinates
		out.Coordinates = &c
	}
	return out
}

func atoiOrZero(s string) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || v < 0 {
		return 0
	}
	return v
}
