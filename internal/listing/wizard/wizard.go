// Package wizard holds the multi-step listing draft and the rules for moving
// between its steps. It performs no I/O.
package wizard

import (
	"strconv"
	"strings"
	"time"

	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/listing/domain"
)

type Step int

const (
	StepBookInfo Step = iota + 1
	StepDetails
	StepLocation
	StepPhotos
	StepReview
	StepSuccess
)

var stepNames = map[Step]string{
	StepBookInfo: "book-info",
	StepDetails:  "details",
	StepLocation: "location",
	StepPhotos:   "photos",
	StepReview:   "review",
	StepSuccess:  "success",
}

func (s Step) String() string {
	if n, ok := stepNames[s]; ok {
		return n
	}
	return "unknown"
}

// Editable reports whether s is a step that carries input fields.
func (s Step) Editable() bool {
	return s >= StepBookInfo && s <= StepPhotos
}

type Wizard struct {
	ID        string       `json:"id"`
	OwnerID   string       `json:"ownerId,omitempty"`
	Step      Step         `json:"step"`
	Draft     domain.Draft `json:"draft"`
	ListingID string       `json:"listingId,omitempty"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

func New(id, ownerID string, now time.Time) *Wizard {
	return &Wizard{
		ID:        id,
		OwnerID:   ownerID,
		Step:      StepBookInfo,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Advance validates the current step's fields taken from input. On success
// they are merged into the draft and the wizard moves one step forward; on
// failure the draft and the step are left exactly as they were.
func (w *Wizard) Advance(input domain.Draft) (domain.ValidationErrors, error) {
	return w.AdvanceAt(input, time.Now())
}

func (w *Wizard) AdvanceAt(input domain.Draft, now time.Time) (domain.ValidationErrors, error) {
	if w.Step == StepSuccess {
		return nil, domain.ErrWizardClosed
	}
	if !w.Step.Editable() {
		return nil, domain.ErrInvalidStep
	}

	candidate := mergeStep(w.Draft, input, w.Step)
	if errs := validateStep(candidate, w.Step, now); len(errs) > 0 {
		return errs, nil
	}

	w.Draft = candidate
	w.Step++
	w.UpdatedAt = now
	return nil, nil
}

// Retreat moves one step back and keeps everything collected so far.
func (w *Wizard) Retreat() error {
	if w.Step == StepSuccess {
		return domain.ErrWizardClosed
	}
	if w.Step <= StepBookInfo {
		return domain.ErrInvalidStep
	}
	w.Step--
	w.UpdatedAt = time.Now()
	return nil
}

// Edit jumps back to an already completed step. Data of later steps is kept
// so advancing again walks through them with their previous values.
func (w *Wizard) Edit(step Step) error {
	if w.Step == StepSuccess {
		return domain.ErrWizardClosed
	}
	if !step.Editable() || step >= w.Step {
		return domain.ErrInvalidStep
	}
	w.Step = step
	w.UpdatedAt = time.Now()
	return nil
}

// Reset clears the draft and returns to the first step.
func (w *Wizard) Reset() {
	w.Draft = domain.Draft{}
	w.Step = StepBookInfo
	w.ListingID = ""
	w.UpdatedAt = time.Now()
}

// AddAnother starts a fresh draft after a successful submission.
func (w *Wizard) AddAnother() {
	w.Reset()
}

// MarkSubmitted moves a reviewed draft to the terminal success state.
func (w *Wizard) MarkSubmitted(listingID string) error {
	if w.Step != StepReview {
		return domain.ErrWizardIncomplete
	}
	w.Step = StepSuccess
	w.ListingID = listingID
	w.UpdatedAt = time.Now()
	return nil
}

// ReadyToSubmit reports whether every input step has been completed.
func (w *Wizard) ReadyToSubmit() bool {
	return w.Step == StepReview
}

// Prefill copies metadata into draft fields that are still empty. It returns
// the names of the fields it filled.
func (w *Wizard) Prefill(md *domain.BookMetadata) []string {
	if md == nil {
		return nil
	}
	var filled []string
	set := func(dst *string, v, name string) {
		if strings.TrimSpace(*dst) == "" && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
			filled = append(filled, name)
		}
	}
	d := &w.Draft
	set(&d.BookName, md.Title, "bookName")
	set(&d.Author, md.Author, "author")
	set(&d.Description, md.Description, "description")
	set(&d.Language, md.Language, "language")
	if md.PublishedYear > 0 {
		set(&d.PublishedYear, strconv.Itoa(md.PublishedYear), "publishedYear")
	}
	if md.PageCount > 0 {
		set(&d.PageCount, strconv.Itoa(md.PageCount), "pageCount")
	}
	if len(filled) > 0 {
		w.UpdatedAt = time.Now()
	}
	return filled
}

// PrefillLocation fills empty address fields and always records the
// coordinates the address was resolved from.
func (w *Wizard) PrefillLocation(p domain.GeoPoint, addr *domain.Location) []string {
	loc := &w.Draft.Location
	c := p
	loc.Coordinates = &c
	filled := []string{"coordinates"}
	if addr != nil {
		set := func(dst *string, v, name string) {
			if strings.TrimSpace(*dst) == "" && strings.TrimSpace(v) != "" {
				*dst = strings.TrimSpace(v)
				filled = append(filled, name)
			}
		}
		set(&loc.Street, addr.Street, "street")
		set(&loc.City, addr.City, "city")
		set(&loc.State, addr.State, "state")
		set(&loc.PostalCode, addr.PostalCode, "postalCode")
	}
	w.UpdatedAt = time.Now()
	return filled
}

func validateStep(d domain.Draft, step Step, now time.Time) domain.ValidationErrors {
	switch step {
	case StepBookInfo:
		return domain.ValidateBookInfo(d)
	case StepDetails:
		return domain.ValidateDetails(d, now)
	case StepLocation:
		return domain.ValidateLocation(d)
	case StepPhotos:
		return domain.ValidateMedia(d)
	}
	return nil
}

// mergeStep returns a copy of base with only the fields owned by step taken
// from input.
func mergeStep(base, input domain.Draft, step Step) domain.Draft {
	out := CloneDraft(base)
	switch step {
	case StepBookInfo:
		out.ISBN = strings.TrimSpace(input.ISBN)
		out.BookName = strings.TrimSpace(input.BookName)
		out.Author = strings.TrimSpace(input.Author)
		out.Condition = strings.TrimSpace(input.Condition)
		out.Type = domain.NormalizeType(input.Type)
		out.Price = strings.TrimSpace(input.Price)
		out.ExchangePreferences = strings.TrimSpace(input.ExchangePreferences)
	case StepDetails:
		out.Category = strings.TrimSpace(input.Category)
		out.Description = strings.TrimSpace(input.Description)
		out.PublishedYear = strings.TrimSpace(input.PublishedYear)
		out.PageCount = strings.TrimSpace(input.PageCount)
		out.Language = strings.TrimSpace(input.Language)
	case StepLocation:
		out.Location = domain.CompactLocation(input.Location)
		out.DeliveryMethod = domain.DeliveryMethod(strings.ToLower(strings.TrimSpace(string(input.DeliveryMethod))))
	case StepPhotos:
		out.Images = append([]domain.MediaRef(nil), input.Images...)
	}
	return out
}

// CloneDraft returns a deep copy of d.
func CloneDraft(d domain.Draft) domain.Draft {
	out := d
	if d.Location.Coordinates != nil {
		c := *d.Location.Coordinates
		out.Location.Coordinates = &c
	}
	if d.Images != nil {
		out.Images = append([]domain.MediaRef(nil), d.Images...)
	}
	return out
}
