package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const maxDescriptionLength = 2000

// NormalizeType treats an empty intent as a sale.
func NormalizeType(t ListingType) ListingType {
	if t == "" {
		return TypeSell
	}
	return ListingType(strings.ToLower(strings.TrimSpace(string(t))))
}

// ValidateBookInfo checks the first wizard step.
func ValidateBookInfo(d Draft) ValidationErrors {
	errs := ValidationErrors{}
	if isbn := strings.TrimSpace(d.ISBN); isbn != "" && !ValidISBN(isbn) {
		errs.add("isbn", "Enter a valid ISBN-10 or ISBN-13")
	}
	if strings.TrimSpace(d.BookName) == "" {
		errs.add("bookName", "Book name is required")
	}
	if strings.TrimSpace(d.Author) == "" {
		errs.add("author", "Author is required")
	}
	switch {
	case strings.TrimSpace(d.Condition) == "":
		errs.add("condition", "Condition is required")
	case !contains(Conditions, d.Condition):
		errs.add("condition", "Select a valid condition")
	}
	t := NormalizeType(d.Type)
	if !t.Valid() {
		errs.add("type", "Select sell, rent or exchange")
		// price is still reported, checked as for a sale
		t = TypeSell
	}
	errs.merge(ValidatePricing(t, d.Price, d.ExchangePreferences))
	return errs
}

// ValidatePricing enforces the price and exchange-preference invariants. It
// runs in the wizard and again right before persistence.
func ValidatePricing(t ListingType, price, exchangePreferences string) ValidationErrors {
	errs := ValidationErrors{}
	if NormalizeType(t) == TypeExchange {
		if strings.TrimSpace(exchangePreferences) == "" {
			errs.add("exchangePreferences", "Exchange preferences are required")
		}
		return errs
	}
	raw := strings.TrimSpace(price)
	if raw == "" {
		errs.add("price", "Price is required")
		return errs
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		errs.add("price", "Price must be a number")
		return errs
	}
	if v <= 0 {
		errs.add("price", "Price must be greater than 0")
		return errs
	}
	if v > MaxPrice {
		errs.add("price", fmt.Sprintf("Price must not exceed %.0f", MaxPrice))
	}
	return errs
}

// ValidateDetails checks the second wizard step.
func ValidateDetails(d Draft, now time.Time) ValidationErrors {
	errs := ValidationErrors{}
	switch {
	case strings.TrimSpace(d.Category) == "":
		errs.add("category", "Category is required")
	case !contains(Categories, d.Category):
		errs.add("category", "Select a valid category")
	}
	if len([]rune(d.Description)) > maxDescriptionLength {
		errs.add("description", fmt.Sprintf("Description must be at most %d characters", maxDescriptionLength))
	}
	if raw := strings.TrimSpace(d.PublishedYear); raw != "" {
		year, err := strconv.Atoi(raw)
		switch {
		case err != nil:
			errs.add("publishedYear", "Published year must be a number")
		case year < MinPublishedYear || year > now.Year():
			errs.add("publishedYear", fmt.Sprintf("Published year must be between %d and %d", MinPublishedYear, now.Year()))
		}
	}
	if raw := strings.TrimSpace(d.PageCount); raw != "" {
		pages, err := strconv.Atoi(raw)
		switch {
		case err != nil:
			errs.add("pageCount", "Page count must be a whole number")
		case pages <= 0:
			errs.add("pageCount", "Page count must be greater than 0")
		}
	}
	return errs
}

// ValidateLocation checks the third wizard step.
func ValidateLocation(d Draft) ValidationErrors {
	errs := ValidationErrors{}
	if strings.TrimSpace(d.Location.City) == "" {
		errs.add("city", "City is required")
	}
	if c := d.Location.Coordinates; c != nil {
		if c.Lat < -90 || c.Lat > 90 || c.Lng < -180 || c.Lng > 180 {
			errs.add("coordinates", "Coordinates are out of range")
		}
	}
	switch {
	case d.DeliveryMethod == "":
		errs.add("deliveryMethod", "Select a delivery method")
	case !d.DeliveryMethod.Valid():
		errs.add("deliveryMethod", "Delivery method must be pickup, shipping or both")
	}
	return errs
}

// ValidateMedia checks the fourth wizard step.
func ValidateMedia(d Draft) ValidationErrors {
	errs := ValidationErrors{}
	switch n := len(d.Images); {
	case n == 0:
		errs.add("images", "Add at least one photo")
	case n > MaxImages:
		errs.add("images", fmt.Sprintf("You can upload at most %d photos", MaxImages))
	}
	return errs
}

// ValidISBN accepts ISBN-10 and ISBN-13 with hyphens or spaces and verifies
// the check digit.
func ValidISBN(s string) bool {
	digits := NormalizeISBN(s)
	switch len(digits) {
	case 10:
		sum := 0
		for i, r := range digits {
			var v int
			switch {
			case r >= '0' && r <= '9':
				v = int(r - '0')
			case (r == 'X' || r == 'x') && i == 9:
				v = 10
			default:
				return false
			}
			sum += (10 - i) * v
		}
		return sum%11 == 0
	case 13:
		sum := 0
		for i, r := range digits {
			if r < '0' || r > '9' {
				return false
			}
			w := 1
			if i%2 == 1 {
				w = 3
			}
			sum += w * int(r-'0')
		}
		return sum%10 == 0
	}
	return false
}

// NormalizeISBN strips separators.
func NormalizeISBN(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r == '-' || r == ' ' {
			continue
		}
		b.WriteRune(r)
	}
	return strings.ToUpper(b.String())
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
