package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/listing/wizard"
	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/platform/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const wizardKeyPrefix = "wizard:"

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

// EnrichmentResult reports what a best-effort lookup changed. A non-empty
// Warning means nothing could be filled; it is never an error.
type EnrichmentResult struct {
	Filled  []string `json:"filled"`
	Warning string   `json:"warning,omitempty"`
}

// StagedFile is one file received from a multipart upload.
type StagedFile struct {
	FileName    string
	ContentType string
	Data        io.Reader
}

type WizardUsecase struct {
	sessions domain.SessionStore
	staging  domain.MediaStaging
	lookup   domain.MetadataLookup
	geocoder domain.Geocoder
	locks    *keyedMutex
	logger   *logger.Logger
	now      func() time.Time
}

func NewWizardUsecase(
	sessions domain.SessionStore,
	staging domain.MediaStaging,
	lookup domain.MetadataLookup,
	geocoder domain.Geocoder,
	log *logger.Logger,
) *WizardUsecase {
	return &WizardUsecase{
		sessions: sessions,
		staging:  staging,
		lookup:   lookup,
		geocoder: geocoder,
		locks:    newKeyedMutex(),
		logger:   log.Named("wizard"),
		now:      time.Now,
	}
}

// Start opens a new wizard session. ownerID may be empty for anonymous
// visitors; submission still requires a signed-in user.
func (uc *WizardUsecase) Start(ctx context.Context, ownerID string) (*wizard.Wizard, error) {
	w := wizard.New(uuid.NewString(), ownerID, uc.now())
	if err := uc.save(ctx, w); err != nil {
		return nil, err
	}
	uc.logger.Info("WizardUsecase.Start: session opened", zap.String("wizard_id", w.ID), zap.String("owner_id", ownerID))
	return w, nil
}

func (uc *WizardUsecase) Get(ctx context.Context, id string) (*wizard.Wizard, error) {
	return uc.load(ctx, id)
}

// Advance validates and merges the current step. Field errors come back in
// the second return value and leave the stored session untouched.
func (uc *WizardUsecase) Advance(ctx context.Context, id string, input domain.Draft) (*wizard.Wizard, domain.ValidationErrors, error) {
	unlock := uc.locks.Lock(id)
	defer unlock()

	w, err := uc.load(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if w.Step == wizard.StepPhotos {
		resolved, errs := uc.resolveStaged(ctx, input.Images)
		if len(errs) > 0 {
			return w, errs, nil
		}
		input.Images = resolved
	}

	errs, err := w.AdvanceAt(input, uc.now())
	if err != nil {
		return nil, nil, err
	}
	if len(errs) > 0 {
		uc.logger.Debug("WizardUsecase.Advance: step rejected", zap.String("wizard_id", id), zap.Int("step", int(w.Step)), zap.Int("errors", len(errs)))
		return w, errs, nil
	}
	if err := uc.save(ctx, w); err != nil {
		return nil, nil, err
	}
	return w, nil, nil
}

func (uc *WizardUsecase) Retreat(ctx context.Context, id string) (*wizard.Wizard, error) {
	return uc.mutate(ctx, id, func(w *wizard.Wizard) error { return w.Retreat() })
}

func (uc *WizardUsecase) Edit(ctx context.Context, id string, step wizard.Step) (*wizard.Wizard, error) {
	return uc.mutate(ctx, id, func(w *wizard.Wizard) error { return w.Edit(step) })
}

// Reset clears the draft, also after a successful submission ("add another").
func (uc *WizardUsecase) Reset(ctx context.Context, id string) (*wizard.Wizard, error) {
	var staged []domain.MediaRef
	w, err := uc.mutate(ctx, id, func(w *wizard.Wizard) error {
		if w.Step != wizard.StepSuccess {
			staged = w.Draft.Images
		}
		w.Reset()
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.discardStaged(ctx, staged)
	return w, nil
}

// Close drops the session. Staged files of an unsubmitted draft go with it.
func (uc *WizardUsecase) Close(ctx context.Context, id string) error {
	unlock := uc.locks.Lock(id)
	defer unlock()

	w, err := uc.load(ctx, id)
	if err != nil {
		return err
	}
	if err := uc.sessions.Delete(ctx, wizardKeyPrefix+id); err != nil {
		return fmt.Errorf("could not close wizard session: %w", err)
	}
	if w.Step != wizard.StepSuccess {
		uc.discardStaged(ctx, w.Draft.Images)
	}
	uc.logger.Info("WizardUsecase.Close: session closed", zap.String("wizard_id", id))
	return nil
}

// LookupISBN pre-fills empty draft fields from the metadata service. Lookup
// failures are reported as a warning and change nothing.
func (uc *WizardUsecase) LookupISBN(ctx context.Context, id, isbn string) (*wizard.Wizard, EnrichmentResult, error) {
	var res EnrichmentResult
	w, err := uc.mutate(ctx, id, func(w *wizard.Wizard) error {
		if w.Step == wizard.StepSuccess {
			return domain.ErrWizardClosed
		}
		code := strings.TrimSpace(isbn)
		if code == "" {
			code = w.Draft.ISBN
		}
		if !domain.ValidISBN(code) {
			res.Warning = "Enter a valid ISBN to look up book details"
			return nil
		}
		if uc.lookup == nil {
			res.Warning = "Book lookup is unavailable, please fill in the details manually"
			return nil
		}
		md, err := uc.lookup.LookupISBN(ctx, domain.NormalizeISBN(code))
		switch {
		case errors.Is(err, domain.ErrLookupNotFound):
			res.Warning = "No book found for this ISBN, please fill in the details manually"
			return nil
		case err != nil:
			uc.logger.Warn("WizardUsecase.LookupISBN: lookup failed", zap.String("wizard_id", id), zap.Error(err))
			res.Warning = "Book lookup is unavailable, please fill in the details manually"
			return nil
		}
		if strings.TrimSpace(w.Draft.ISBN) == "" {
			w.Draft.ISBN = strings.TrimSpace(code)
		}
		res.Filled = w.Prefill(md)
		return nil
	})
	if err != nil {
		return nil, EnrichmentResult{}, err
	}
	return w, res, nil
}

// Locate reverse-geocodes p and fills empty address fields.
func (uc *WizardUsecase) Locate(ctx context.Context, id string, p domain.GeoPoint) (*wizard.Wizard, EnrichmentResult, error) {
	if p.Lat < -90 || p.Lat > 90 || p.Lng < -180 || p.Lng > 180 {
		return nil, EnrichmentResult{}, domain.ValidationErrors{"coordinates": "Coordinates are out of range"}
	}
	var res EnrichmentResult
	w, err := uc.mutate(ctx, id, func(w *wizard.Wizard) error {
		if w.Step == wizard.StepSuccess {
			return domain.ErrWizardClosed
		}
		var addr *domain.Location
		if uc.geocoder != nil {
			a, err := uc.geocoder.Reverse(ctx, p)
			if err != nil {
				uc.logger.Warn("WizardUsecase.Locate: reverse geocoding failed", zap.String("wizard_id", id), zap.Error(err))
				res.Warning = "Could not resolve an address, please enter it manually"
			} else {
				addr = a
			}
		} else {
			res.Warning = "Could not resolve an address, please enter it manually"
		}
		res.Filled = w.PrefillLocation(p, addr)
		return nil
	})
	if err != nil {
		return nil, EnrichmentResult{}, err
	}
	return w, res, nil
}

// StageMedia stores selected files until submission and returns references
// the client passes back when advancing the photos step.
func (uc *WizardUsecase) StageMedia(ctx context.Context, id string, files []StagedFile) ([]domain.MediaRef, error) {
	if _, err := uc.load(ctx, id); err != nil {
		return nil, err
	}
	if len(files) > domain.MaxImages {
		return nil, domain.ErrTooManyImages
	}
	for _, f := range files {
		if !allowedImageTypes[strings.ToLower(f.ContentType)] {
			return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedMedia, f.ContentType)
		}
	}

	refs := make([]domain.MediaRef, 0, len(files))
	for _, f := range files {
		ref, err := uc.staging.Stage(ctx, f.FileName, f.ContentType, f.Data)
		if err != nil {
			uc.discardStaged(ctx, refs)
			return nil, fmt.Errorf("could not stage %q: %w", f.FileName, err)
		}
		refs = append(refs, ref)
	}
	uc.logger.Info("WizardUsecase.StageMedia: files staged", zap.String("wizard_id", id), zap.Int("count", len(refs)))
	return refs, nil
}

// resolveStaged replaces client-supplied references with what staging holds,
// so sizes and types cannot be forged.
func (uc *WizardUsecase) resolveStaged(ctx context.Context, refs []domain.MediaRef) ([]domain.MediaRef, domain.ValidationErrors) {
	out := make([]domain.MediaRef, 0, len(refs))
	for _, r := range refs {
		rc, meta, err := uc.staging.Open(ctx, r.ID)
		if err != nil {
			return nil, domain.ValidationErrors{"images": "One of the photos is no longer available, please add it again"}
		}
		rc.Close()
		out = append(out, meta)
	}
	return out, nil
}

func (uc *WizardUsecase) discardStaged(ctx context.Context, refs []domain.MediaRef) {
	for _, r := range refs {
		if err := uc.staging.Remove(ctx, r.ID); err != nil {
			uc.logger.Warn("WizardUsecase: could not remove staged file", zap.String("media_id", r.ID), zap.Error(err))
		}
	}
}

func (uc *WizardUsecase) mutate(ctx context.Context, id string, fn func(w *wizard.Wizard) error) (*wizard.Wizard, error) {
	unlock := uc.locks.Lock(id)
	defer unlock()

	w, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(w); err != nil {
		return nil, err
	}
	if err := uc.save(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

func (uc *WizardUsecase) load(ctx context.Context, id string) (*wizard.Wizard, error) {
	var w wizard.Wizard
	if err := uc.sessions.Get(ctx, wizardKeyPrefix+id, &w); err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("could not load wizard session: %w", err)
	}
	return &w, nil
}

func (uc *WizardUsecase) save(ctx context.Context, w *wizard.Wizard) error {
	if err := uc.sessions.Set(ctx, wizardKeyPrefix+w.ID, w); err != nil {
		return fmt.Errorf("could not save wizard session: %w", err)
	}
	return nil
}
