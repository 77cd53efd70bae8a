package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/platform/logger"
	"go.uber.org/zap"
)

const (
	SubjectListingStatusChanged = "listing.status_changed"
	SubjectListingDeleted       = "listing.deleted"
)

type ListingStatusChangedEvent struct {
	ListingID string               `json:"listing_id"`
	Status    domain.ListingStatus `json:"status"`
	ChangedAt time.Time            `json:"changed_at"`
}

type ListingDeletedEvent struct {
	ListingID string    `json:"listing_id"`
	DeletedAt time.Time `json:"deleted_at"`
}

// ListingUsecase serves single listings and the admin mutations on them.
type ListingUsecase struct {
	repo      domain.ListingRepository
	cache     domain.ListingCache
	publisher domain.EventPublisher
	logger    *logger.Logger
}

func NewListingUsecase(repo domain.ListingRepository, cache domain.ListingCache, publisher domain.EventPublisher, log *logger.Logger) *ListingUsecase {
	return &ListingUsecase{
		repo:      repo,
		cache:     cache,
		publisher: publisher,
		logger:    log.Named("listing"),
	}
}

func (uc *ListingUsecase) GetListing(ctx context.Context, id string) (*domain.Listing, error) {
	if uc.cache != nil {
		if l, err := uc.cache.GetListing(ctx, id); err == nil && l != nil {
			return l, nil
		} else if err != nil && !errors.Is(err, domain.ErrListingNotFound) {
			uc.logger.Warn("ListingUsecase.GetListing: cache read failed", zap.String("listing_id", id), zap.Error(err))
		}
	}

	l, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if uc.cache != nil {
		if err := uc.cache.SetListing(ctx, l); err != nil {
			uc.logger.Warn("ListingUsecase.GetListing: cache write failed", zap.String("listing_id", id), zap.Error(err))
		}
	}
	return l, nil
}

// UpdateStatus moves a listing between active, sold and rented.
func (uc *ListingUsecase) UpdateStatus(ctx context.Context, id string, status domain.ListingStatus) error {
	if !status.Valid() {
		return domain.ErrInvalidStatusChange
	}
	uc.logger.Info("ListingUsecase.UpdateStatus: updating status", zap.String("listing_id", id), zap.String("status", string(status)))

	if err := uc.repo.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, domain.ErrListingNotFound) {
			return err
		}
		return fmt.Errorf("could not update listing status: %w", err)
	}
	uc.invalidate(ctx, id)
	uc.publish(ctx, SubjectListingStatusChanged, ListingStatusChangedEvent{ListingID: id, Status: status, ChangedAt: time.Now().UTC()})
	return nil
}

// Delete hard-deletes a listing. Only reachable through admin routes.
func (uc *ListingUsecase) Delete(ctx context.Context, id string) error {
	uc.logger.Info("ListingUsecase.Delete: deleting listing", zap.String("listing_id", id))
	if err := uc.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrListingNotFound) {
			return err
		}
		return fmt.Errorf("could not delete listing: %w", err)
	}
	uc.invalidate(ctx, id)
	uc.publish(ctx, SubjectListingDeleted, ListingDeletedEvent{ListingID: id, DeletedAt: time.Now().UTC()})
	return nil
}

func (uc *ListingUsecase) invalidate(ctx context.Context, id string) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.DeleteListing(ctx, id); err != nil {
		uc.logger.Warn("ListingUsecase: cache invalidation failed", zap.String("listing_id", id), zap.Error(err))
	}
}

func (uc *ListingUsecase) publish(ctx context.Context, subject string, evt interface{}) {
	if uc.publisher == nil {
		return
	}
	if err := uc.publisher.Publish(ctx, subject, evt); err != nil {
		uc.logger.Warn("ListingUsecase: failed to publish event", zap.String("subject", subject), zap.Error(err))
	}
}
