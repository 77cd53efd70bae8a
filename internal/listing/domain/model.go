package domain

import "time"

type ListingStatus string

const (
	StatusActive ListingStatus = "active"
	StatusSold   ListingStatus = "sold"
	StatusRented ListingStatus = "rented"
)

func (s ListingStatus) Valid() bool {
	switch s {
	case StatusActive, StatusSold, StatusRented:
		return true
	}
	return false
}

// ListingType is the seller's intent. It is the canonical classification of a
// listing; AvailableFor is always derived from it.
type ListingType string

const (
	TypeSell     ListingType = "sell"
	TypeRent     ListingType = "rent"
	TypeExchange ListingType = "exchange"
)

func (t ListingType) Valid() bool {
	switch t {
	case TypeSell, TypeRent, TypeExchange:
		return true
	}
	return false
}

type DeliveryMethod string

const (
	DeliveryPickup   DeliveryMethod = "pickup"
	DeliveryShipping DeliveryMethod = "shipping"
	DeliveryBoth     DeliveryMethod = "both"
)

func (d DeliveryMethod) Valid() bool {
	switch d {
	case DeliveryPickup, DeliveryShipping, DeliveryBoth:
		return true
	}
	return false
}

const (
	ConditionNew      = "New"
	ConditionLikeNew  = "Like New"
	ConditionGood     = "Good"
	ConditionFair     = "Fair"
	ConditionPoor     = "Poor"
	AvailableSale     = "sale"
	AvailableRent     = "rent"
	AvailableExchange = "exchange"
)

var Conditions = []string{ConditionNew, ConditionLikeNew, ConditionGood, ConditionFair, ConditionPoor}

var Categories = []string{
	"Fiction", "Non-Fiction", "Science", "Technology", "History", "Biography",
	"Children", "Academic", "Comics", "Self-Help", "Other",
}

const (
	MaxPrice         = 10000.0
	MinPublishedYear = 1000
	MaxImages        = 5
	PageSize         = 20
	FeaturedPageSize = 4
)

type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Location struct {
	Street      string    `json:"street,omitempty"`
	City        string    `json:"city,omitempty"`
	State       string    `json:"state,omitempty"`
	PostalCode  string    `json:"postalCode,omitempty"`
	Coordinates *GeoPoint `json:"coordinates,omitempty"`
}

// MediaRef points at a file staged on this server but not yet hosted.
type MediaRef struct {
	ID          string `json:"id"`
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	PreviewURL  string `json:"previewUrl"`
}

// Draft holds wizard input as entered. Numeric fields stay strings until
// BuildListing coerces them.
type Draft struct {
	ISBN                string         `json:"isbn,omitempty"`
	BookName            string         `json:"bookName,omitempty"`
	Author              string         `json:"author,omitempty"`
	Condition           string         `json:"condition,omitempty"`
	Type                ListingType    `json:"type,omitempty"`
	Price               string         `json:"price,omitempty"`
	ExchangePreferences string         `json:"exchangePreferences,omitempty"`
	Category            string         `json:"category,omitempty"`
	Description         string         `json:"description,omitempty"`
	PublishedYear       string         `json:"publishedYear,omitempty"`
	PageCount           string         `json:"pageCount,omitempty"`
	Language            string         `json:"language,omitempty"`
	Location            Location       `json:"location"`
	DeliveryMethod      DeliveryMethod `json:"deliveryMethod,omitempty"`
	Images              []MediaRef     `json:"images,omitempty"`
}

// SellerSnapshot is copied onto the listing at submission time and never
// refreshed afterwards.
type SellerSnapshot struct {
	Name       string  `json:"name"`
	AvatarURL  string  `json:"avatarUrl,omitempty"`
	Rating     float64 `json:"rating"`
	SalesCount int     `json:"salesCount"`
}

// CurrentUser is the signed-in user as seen by the submission path.
type CurrentUser struct {
	ID          string  `json:"id"`
	DisplayName string  `json:"displayName"`
	Email       string  `json:"email,omitempty"`
	AvatarURL   string  `json:"avatarUrl,omitempty"`
	Rating      float64 `json:"rating"`
	SalesCount  int     `json:"salesCount"`
}

func (u *CurrentUser) Snapshot() SellerSnapshot {
	name := u.DisplayName
	if name == "" {
		name = "Anonymous"
	}
	return SellerSnapshot{
		Name:       name,
		AvatarURL:  u.AvatarURL,
		Rating:     u.Rating,
		SalesCount: u.SalesCount,
	}
}

type Listing struct {
	ID                  string         `json:"id"`
	UserID              string         `json:"userId"`
	Seller              SellerSnapshot `json:"seller"`
	ISBN                string         `json:"isbn,omitempty"`
	Title               string         `json:"title"`
	Author              string         `json:"author"`
	Condition           string         `json:"condition"`
	Category            string         `json:"category"`
	Description         string         `json:"description,omitempty"`
	Price               float64        `json:"price"`
	PublishedYear       int            `json:"publishedYear,omitempty"`
	PageCount           int            `json:"pageCount,omitempty"`
	Language            string         `json:"language,omitempty"`
	Images              []string       `json:"images"`
	Type                ListingType    `json:"type"`
	AvailableFor        []string       `json:"availableFor"`
	ExchangePreferences string         `json:"exchangePreferences,omitempty"`
	DeliveryMethod      DeliveryMethod `json:"deliveryMethod"`
	Location            Location       `json:"location"`
	Status              ListingStatus  `json:"status"`
	CreatedAt           time.Time      `json:"createdAt"`
	UpdatedAt           time.Time      `json:"updatedAt"`
}

// AvailabilityFor derives the availability tags stored next to the type.
func AvailabilityFor(t ListingType) []string {
	switch t {
	case TypeRent:
		return []string{AvailableRent}
	case TypeExchange:
		return []string{AvailableExchange}
	default:
		return []string{AvailableSale}
	}
}
