package domain

import (
	"strings"
)

type SortOrder string

const (
	SortNewest    SortOrder = "newest"
	SortPriceLow  SortOrder = "price-low"
	SortPriceHigh SortOrder = "price-high"
)

func (s SortOrder) Valid() bool {
	switch s {
	case SortNewest, SortPriceLow, SortPriceHigh:
		return true
	}
	return false
}

// NativeQuery holds what the document store can filter and sort on by itself.
// Changing any of it invalidates accumulated pages.
type NativeQuery struct {
	Category string    `json:"category,omitempty"`
	Sort     SortOrder `json:"sort"`
}

func (q NativeQuery) Normalize() NativeQuery {
	if q.Sort == "" {
		q.Sort = SortNewest
	}
	q.Category = strings.TrimSpace(q.Category)
	return q
}

func (q NativeQuery) Validate() error {
	if !q.Sort.Valid() {
		return ErrInvalidFilter
	}
	if q.Category != "" && !contains(Categories, q.Category) {
		return ErrInvalidFilter
	}
	return nil
}

// LocalFilter is applied in memory on already fetched listings.
type LocalFilter struct {
	Search    string      `json:"search,omitempty"`
	ISBN      string      `json:"isbn,omitempty"`
	Condition string      `json:"condition,omitempty"`
	MinPrice  *float64    `json:"minPrice,omitempty"`
	MaxPrice  *float64    `json:"maxPrice,omitempty"`
	Type      ListingType `json:"type,omitempty"`
}

func (f LocalFilter) Empty() bool {
	return f.Search == "" && f.ISBN == "" && f.Condition == "" && f.MinPrice == nil && f.MaxPrice == nil && f.Type == ""
}

// Page is one step of cursor pagination.
type Page struct {
	Items   []*Listing `json:"items"`
	Cursor  string     `json:"cursor,omitempty"`
	HasMore bool       `json:"hasMore"`
}

// Refine filters items without touching them. The input slice is never
// modified and the relative order is kept.
func Refine(items []*Listing, f LocalFilter) []*Listing {
	out := make([]*Listing, 0, len(items))
	search := strings.ToLower(strings.TrimSpace(f.Search))
	isbn := NormalizeISBN(strings.TrimSpace(f.ISBN))
	for _, l := range items {
		if l == nil {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(l.Title), search) &&
			!strings.Contains(strings.ToLower(l.Author), search) {
			continue
		}
		if isbn != "" && !strings.Contains(NormalizeISBN(l.ISBN), isbn) {
			continue
		}
		if f.Condition != "" && !strings.EqualFold(l.Condition, f.Condition) {
			continue
		}
		if f.MinPrice != nil && l.Price < *f.MinPrice {
			continue
		}
		if f.MaxPrice != nil && l.Price > *f.MaxPrice {
			continue
		}
		if f.Type != "" && l.Type != f.Type {
			continue
		}
		out = append(out, l)
	}
	return out
}
