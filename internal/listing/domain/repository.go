package domain

import (
	"context"
	"io"
)

type ListingRepository interface {
	Create(ctx context.Context, listing *Listing) error
	FindByID(ctx context.Context, id string) (*Listing, error)
	// QueryPage returns up to limit active listings after cursor. An empty
	// cursor starts from the beginning.
	QueryPage(ctx context.Context, q NativeQuery, cursor string, limit int) (*Page, error)
	UpdateStatus(ctx context.Context, id string, status ListingStatus) error
	Delete(ctx context.Context, id string) error
}

type ListingCache interface {
	GetListing(ctx context.Context, id string) (*Listing, error)
	SetListing(ctx context.Context, listing *Listing) error
	DeleteListing(ctx context.Context, id string) error
}

// UserRepository resolves the profile that becomes the seller snapshot.
type UserRepository interface {
	GetProfile(ctx context.Context, userID string) (*CurrentUser, error)
}

// MediaHost stores one file durably and returns its public URL. Remove takes
// a URL returned by Upload.
type MediaHost interface {
	Upload(ctx context.Context, fileName, contentType string, data io.Reader, size int64) (string, error)
	Remove(ctx context.Context, url string) error
}

// MediaStaging keeps files selected in the wizard until submission.
type MediaStaging interface {
	Stage(ctx context.Context, fileName, contentType string, data io.Reader) (MediaRef, error)
	Open(ctx context.Context, id string) (io.ReadCloser, MediaRef, error)
	Remove(ctx context.Context, id string) error
}

// BookMetadata is a best-effort pre-fill for the wizard, never authoritative.
type BookMetadata struct {
	Title         string
	Author        string
	PublishedYear int
	PageCount     int
	Language      string
	Description   string
}

type MetadataLookup interface {
	LookupISBN(ctx context.Context, isbn string) (*BookMetadata, error)
}

type Geocoder interface {
	Reverse(ctx context.Context, p GeoPoint) (*Location, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
}

type Notifier interface {
	SendListingCreatedEmail(toEmail, listingTitle string) error
}

// SessionStore keeps short-lived JSON state (wizard drafts, browse sessions)
// under a key. Get returns ErrSessionNotFound for unknown or expired keys.
type SessionStore interface {
	Get(ctx context.Context, key string, dst interface{}) error
	Set(ctx context.Context, key string, value interface{}) error
	Delete(ctx context.Context, key string) error
}
