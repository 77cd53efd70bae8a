package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/listing/wizard"
	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/platform/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

const SubjectListingCreated = "listing.created"

type SubmitResult struct {
	ListingID     string          `json:"listingId"`
	Listing       *domain.Listing `json:"listing"`
	Uploaded      int             `json:"uploaded"`
	FailedUploads int             `json:"failedUploads"`
	UsedPreviews  bool            `json:"usedPreviews"`
}

type ListingCreatedEvent struct {
	ListingID string             `json:"listing_id"`
	UserID    string             `json:"user_id"`
	Title     string             `json:"title"`
	Category  string             `json:"category"`
	Type      domain.ListingType `json:"type"`
	Price     float64            `json:"price"`
	CreatedAt time.Time          `json:"created_at"`
}

// SubmissionUsecase is the only write path that turns a reviewed draft into a
// persisted listing.
type SubmissionUsecase struct {
	wizards   *WizardUsecase
	uploader  *MediaUploader
	repo      domain.ListingRepository
	users     domain.UserRepository
	publisher domain.EventPublisher
	notifier  domain.Notifier
	logger    *logger.Logger
	metrics   *metrics.MetricsManager
	now       func() time.Time
}

func NewSubmissionUsecase(
	wizards *WizardUsecase,
	uploader *MediaUploader,
	repo domain.ListingRepository,
	users domain.UserRepository,
	publisher domain.EventPublisher,
	notifier domain.Notifier,
	log *logger.Logger,
	m *metrics.MetricsManager,
) *SubmissionUsecase {
	return &SubmissionUsecase{
		wizards:   wizards,
		uploader:  uploader,
		repo:      repo,
		users:     users,
		publisher: publisher,
		notifier:  notifier,
		logger:    log.Named("submission"),
		metrics:   m,
		now:       time.Now,
	}
}

// Submit persists the wizard's draft for user. A missing user or a draft that
// no longer builds fails before anything is uploaded. When persistence fails
// the hosted files are removed again, the session keeps its draft and the
// returned error wraps domain.ErrSubmissionFailed.
func (uc *SubmissionUsecase) Submit(ctx context.Context, sessionID string, user *domain.CurrentUser) (*SubmitResult, error) {
	if user == nil || user.ID == "" {
		return nil, domain.ErrNotAuthenticated
	}

	ctx, span := otel.Tracer("bookmarket/listing").Start(ctx, "SubmissionUsecase.Submit")
	defer span.End()
	span.SetAttributes(attribute.String("wizard.id", sessionID), attribute.String("user.id", user.ID))

	unlock := uc.wizards.locks.Lock(sessionID)
	defer unlock()

	w, err := uc.wizards.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	switch {
	case w.Step == wizard.StepSuccess:
		return nil, domain.ErrWizardClosed
	case !w.ReadyToSubmit():
		return nil, domain.ErrWizardIncomplete
	case w.OwnerID != "" && w.OwnerID != user.ID:
		return nil, domain.ErrForbidden
	}

	seller := uc.resolveSeller(ctx, user)
	if _, err := domain.BuildListing(w.Draft, nil, seller, uc.now().UTC()); err != nil {
		return nil, err
	}

	report := uc.uploader.Upload(ctx, w.Draft.Images)
	urls := report.URLs()
	usedPreviews := false
	if len(urls) == 0 && len(w.Draft.Images) > 0 {
		urls = report.PreviewURLs()
		usedPreviews = true
		uc.logger.Warn("SubmissionUsecase.Submit: every upload failed, using staged previews",
			zap.String("wizard_id", sessionID), zap.Int("files", len(w.Draft.Images)))
	}

	listing, err := domain.BuildListing(w.Draft, urls, seller, uc.now().UTC())
	if err != nil {
		return nil, err
	}

	if err := uc.repo.Create(ctx, listing); err != nil {
		uc.logger.Error("SubmissionUsecase.Submit: failed to persist listing", zap.String("wizard_id", sessionID), zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist failed")
		if uc.metrics != nil {
			uc.metrics.SubmissionFailuresTotal.Inc()
		}
		if !usedPreviews {
			uc.uploader.Discard(ctx, urls)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrSubmissionFailed, err)
	}
	span.SetAttributes(attribute.String("listing.id", listing.ID))
	if uc.metrics != nil {
		uc.metrics.ListingsSubmittedTotal.Inc()
	}
	uc.logger.Info("SubmissionUsecase.Submit: listing created",
		zap.String("listing_id", listing.ID), zap.String("user_id", user.ID),
		zap.Int("uploaded", report.Succeeded), zap.Int("failed_uploads", report.Failed))

	if err := w.MarkSubmitted(listing.ID); err == nil {
		if err := uc.wizards.save(ctx, w); err != nil {
			uc.logger.Error("SubmissionUsecase.Submit: listing saved but session not updated", zap.String("wizard_id", sessionID), zap.Error(err))
		}
	}
	if !usedPreviews {
		uc.wizards.discardStaged(ctx, w.Draft.Images)
	}
	uc.announce(ctx, listing, seller)

	return &SubmitResult{
		ListingID:     listing.ID,
		Listing:       listing,
		Uploaded:      report.Succeeded,
		FailedUploads: report.Failed,
		UsedPreviews:  usedPreviews,
	}, nil
}

// resolveSeller prefers the stored profile over what the token carried.
func (uc *SubmissionUsecase) resolveSeller(ctx context.Context, user *domain.CurrentUser) *domain.CurrentUser {
	if uc.users == nil {
		return user
	}
	profile, err := uc.users.GetProfile(ctx, user.ID)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			uc.logger.Warn("SubmissionUsecase: profile lookup failed, using token identity", zap.String("user_id", user.ID), zap.Error(err))
		}
		return user
	}
	merged := *profile
	merged.ID = user.ID
	if merged.DisplayName == "" {
		merged.DisplayName = user.DisplayName
	}
	if merged.Email == "" {
		merged.Email = user.Email
	}
	return &merged
}

func (uc *SubmissionUsecase) announce(ctx context.Context, l *domain.Listing, seller *domain.CurrentUser) {
	if uc.publisher != nil {
		evt := ListingCreatedEvent{
			ListingID: l.ID,
			UserID:    l.UserID,
			Title:     l.Title,
			Category:  l.Category,
			Type:      l.Type,
			Price:     l.Price,
			CreatedAt: l.CreatedAt,
		}
		if err := uc.publisher.Publish(ctx, SubjectListingCreated, evt); err != nil {
			uc.logger.Warn("SubmissionUsecase: failed to publish listing.created", zap.String("listing_id", l.ID), zap.Error(err))
		}
	}
	if uc.notifier != nil && seller.Email != "" {
		if err := uc.notifier.SendListingCreatedEmail(seller.Email, l.Title); err != nil {
			uc.logger.Warn("SubmissionUsecase: failed to send listing created email", zap.String("listing_id", l.ID), zap.Error(err))
		}
	}
}
