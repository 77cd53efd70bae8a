package mongodb

import (
	"fmt"
	"time"

	cartdomain "github.com/Abdurahmanit/GroupProject/bookmarket/internal/cart/domain"
	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/listing/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type geoPointDocument struct {
	Lat float64 `bson:"lat"`
	Lng float64 `bson:"lng"`
}

type locationDocument struct {
	Street      string            `bson:"street,omitempty"`
	City        string            `bson:"city,omitempty"`
	State       string            `bson:"state,omitempty"`
	PostalCode  string            `bson:"postal_code,omitempty"`
	Coordinates *geoPointDocument `bson:"coordinates,omitempty"`
}

type sellerDocument struct {
	Name       string  `bson:"name"`
	AvatarURL  string  `bson:"avatar_url,omitempty"`
	Rating     float64 `bson:"rating"`
	SalesCount int     `bson:"sales_count"`
}

type listingDocument struct {
	ID                  primitive.ObjectID    `bson:"_id,omitempty"`
	UserID              string                `bson:"user_id"`
	Seller              sellerDocument        `bson:"seller"`
	ISBN                string                `bson:"isbn,omitempty"`
	Title               string                `bson:"title"`
	Author              string                `bson:"author"`
	Condition           string                `bson:"condition"`
	Category            string                `bson:"category"`
	Description         string                `bson:"description,omitempty"`
	Price               float64               `bson:"price"`
	PublishedYear       int                   `bson:"published_year,omitempty"`
	PageCount           int                   `bson:"page_count,omitempty"`
	Language            string                `bson:"language,omitempty"`
	Images              []string              `bson:"images"`
	Type                domain.ListingType    `bson:"type"`
	AvailableFor        []string              `bson:"available_for"`
	ExchangePreferences string                `bson:"exchange_preferences,omitempty"`
	DeliveryMethod      domain.DeliveryMethod `bson:"delivery_method"`
	Location            locationDocument      `bson:"location"`
	Status              domain.ListingStatus  `bson:"status"`
	CreatedAt           time.Time             `bson:"created_at"`
	UpdatedAt           time.Time             `bson:"updated_at"`
}

type userDocument struct {
	ID          primitive.ObjectID `bson:"_id"`
	Username    string             `bson:"username"`
	DisplayName string             `bson:"display_name,omitempty"`
	Email       string             `bson:"email"`
	AvatarURL   string             `bson:"avatar_url,omitempty"`
	Rating      float64            `bson:"rating"`
	SalesCount  int                `bson:"sales_count"`
}

type cartDocument struct {
	UserID    string            `bson:"_id"`
	Items     []cartdomain.Item `bson:"items"`
	UpdatedAt time.Time         `bson:"updated_at"`
}

type orderDocument struct {
	ID            primitive.ObjectID     `bson:"_id,omitempty"`
	UserID        string                 `bson:"user_id"`
	Items         []cartdomain.Item      `bson:"items"`
	Total         float64                `bson:"total"`
	TransactionID string                 `bson:"transaction_id"`
	Status        cartdomain.OrderStatus `bson:"status"`
	CreatedAt     time.Time              `bson:"created_at"`
}

// toListingDocument leaves the id unset for new listings so the repository
// can assign one.
func toListingDocument(l *domain.Listing) (*listingDocument, error) {
	var id primitive.ObjectID
	if l.ID != "" {
		var err error
		id, err = primitive.ObjectIDFromHex(l.ID)
		if err != nil {
			return nil, fmt.Errorf("invalid listing id %q: %w", l.ID, err)
		}
	}
	doc := &listingDocument{
		ID:     id,
		UserID: l.UserID,
		Seller: sellerDocument{
			Name:       l.Seller.Name,
			AvatarURL:  l.Seller.AvatarURL,
			Rating:     l.Seller.Rating,
			SalesCount: l.Seller.SalesCount,
		},
		ISBN:                l.ISBN,
		Title:               l.Title,
		Author:              l.Author,
		Condition:           l.Condition,
		Category:            l.Category,
		Description:         l.Description,
		Price:               l.Price,
		PublishedYear:       l.PublishedYear,
		PageCount:           l.PageCount,
		Language:            l.Language,
		Images:              l.Images,
		Type:                l.Type,
		AvailableFor:        domain.AvailabilityFor(l.Type),
		ExchangePreferences: l.ExchangePreferences,
		DeliveryMethod:      l.DeliveryMethod,
		Location: locationDocument{
			Street:     l.Location.Street,
			City:       l.Location.City,
			State:      l.Location.State,
			PostalCode: l.Location.PostalCode,
		},
		Status:    l.Status,
		CreatedAt: l.CreatedAt,
		UpdatedAt: l.UpdatedAt,
	}
	if doc.Images == nil {
		doc.Images = []string{}
	}
	if c := l.Location.Coordinates; c != nil {
		doc.Location.Coordinates = &geoPointDocument{Lat: c.Lat, Lng: c.Lng}
	}
	return doc, nil
}

func toDomainListing(d *listingDocument) *domain.Listing {
	l := &domain.Listing{
		ID:     d.ID.Hex(),
		UserID: d.UserID,
		Seller: domain.SellerSnapshot{
			Name:       d.Seller.Name,
			AvatarURL:  d.Seller.AvatarURL,
			Rating:     d.Seller.Rating,
			SalesCount: d.Seller.SalesCount,
		},
		ISBN:                d.ISBN,
		Title:               d.Title,
		Author:              d.Author,
		Condition:           d.Condition,
		Category:            d.Category,
		Description:         d.Description,
		Price:               d.Price,
		PublishedYear:       d.PublishedYear,
		PageCount:           d.PageCount,
		Language:            d.Language,
		Images:              d.Images,
		Type:                d.Type,
		AvailableFor:        d.AvailableFor,
		ExchangePreferences: d.ExchangePreferences,
		DeliveryMethod:      d.DeliveryMethod,
		Location: domain.Location{
			Street:     d.Location.Street,
			City:       d.Location.City,
			State:      d.Location.State,
			PostalCode: d.Location.PostalCode,
		},
		Status:    d.Status,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	if c := d.Location.Coordinates; c != nil {
		l.Location.Coordinates = &domain.GeoPoint{Lat: c.Lat, Lng: c.Lng}
	}
	// older documents may carry only availability tags
	if l.Type == "" {
		l.Type = typeFromAvailability(d.AvailableFor)
	}
	if len(l.AvailableFor) == 0 {
		l.AvailableFor = domain.AvailabilityFor(l.Type)
	}
	if l.Images == nil {
		l.Images = []string{}
	}
	return l
}

func typeFromAvailability(tags []string) domain.ListingType {
	for _, t := range tags {
		switch t {
		case domain.AvailableRent:
			return domain.TypeRent
		case domain.AvailableExchange:
			return domain.TypeExchange
		}
	}
	return domain.TypeSell
}

func toDomainUser(d *userDocument) *domain.CurrentUser {
	name := d.DisplayName
	if name == "" {
		name = d.Username
	}
	return &domain.CurrentUser{
		ID:          d.ID.Hex(),
		DisplayName: name,
		Email:       d.Email,
		AvatarURL:   d.AvatarURL,
		Rating:      d.Rating,
		SalesCount:  d.SalesCount,
	}
}
