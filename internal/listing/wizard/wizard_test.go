package wizard

import (
	"testing"
	"time"

	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/listing/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func bookInfo() domain.Draft {
	return domain.Draft{
		ISBN:      "978-0-306-40615-7",
		BookName:  "Example",
		Author:    "A. Author",
		Price:     "25.00",
		Condition: "Good",
	}
}

func details() domain.Draft {
	return domain.Draft{Category: "Fiction", PublishedYear: "1999", PageCount: "320", Language: "English"}
}

func location() domain.Draft {
	return domain.Draft{
		Location:       domain.Location{City: "Almaty", Street: "Abay 1"},
		DeliveryMethod: domain.DeliveryPickup,
	}
}

func photos() domain.Draft {
	return domain.Draft{Images: []domain.MediaRef{{ID: "m1", FileName: "cover.jpg", ContentType: "image/jpeg", Size: 10}}}
}

func advance(t *testing.T, w *Wizard, in domain.Draft) {
	t.Helper()
	errs, err := w.AdvanceAt(in, testNow)
	require.NoError(t, err)
	require.Empty(t, errs)
}

func TestWizard_Advance_BookInfoMovesToDetails(t *testing.T) {
	w := New("w1", "", testNow)

	errs, err := w.AdvanceAt(bookInfo(), testNow)

	require.NoError(t, err)
	assert.Empty(t, errs)
	assert.Equal(t, StepDetails, w.Step)
	assert.Equal(t, "Example", w.Draft.BookName)
	assert.Equal(t, domain.TypeSell, w.Draft.Type)
}

func TestWizard_Advance_NegativePriceKeepsStep(t *testing.T) {
	w := New("w1", "", testNow)
	in := bookInfo()
	in.Price = "-5"

	errs, err := w.AdvanceAt(in, testNow)

	require.NoError(t, err)
	assert.Equal(t, domain.ValidationErrors{"price": "Price must be greater than 0"}, errs)
	assert.Equal(t, StepBookInfo, w.Step)
	assert.Equal(t, domain.Draft{}, w.Draft)
}

func TestWizard_Advance_InvalidInputNeverMutatesDraft(t *testing.T) {
	cases := []struct {
		name   string
		prep   func(w *Wizard)
		input  domain.Draft
		fields []string
	}{
		{
			name:   "empty book info",
			input:  domain.Draft{},
			fields: []string{"bookName", "author", "condition", "price"},
		},
		{
			name:   "exchange without preferences",
			input:  domain.Draft{BookName: "X", Author: "Y", Condition: "New", Type: domain.TypeExchange},
			fields: []string{"exchangePreferences"},
		},
		{
			name: "details with bad year and pages",
			prep: func(w *Wizard) { advance(t, w, bookInfo()) },
			input: domain.Draft{
				Category: "Fiction", PublishedYear: "999", PageCount: "0",
			},
			fields: []string{"publishedYear", "pageCount"},
		},
		{
			name: "location without city",
			prep: func(w *Wizard) {
				advance(t, w, bookInfo())
				advance(t, w, details())
			},
			input:  domain.Draft{DeliveryMethod: domain.DeliveryShipping},
			fields: []string{"city"},
		},
		{
			name: "too many photos",
			prep: func(w *Wizard) {
				advance(t, w, bookInfo())
				advance(t, w, details())
				advance(t, w, location())
			},
			input:  domain.Draft{Images: make([]domain.MediaRef, domain.MaxImages+1)},
			fields: []string{"images"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := New("w1", "", testNow)
			if tc.prep != nil {
				tc.prep(w)
			}
			before := CloneDraft(w.Draft)
			step := w.Step

			errs, err := w.AdvanceAt(tc.input, testNow)

			require.NoError(t, err)
			for _, f := range tc.fields {
				assert.Contains(t, errs, f)
				assert.NotEmpty(t, errs[f])
			}
			assert.Equal(t, step, w.Step)
			if diff := cmp.Diff(before, w.Draft); diff != "" {
				t.Errorf("draft mutated (-before +after):\n%s", diff)
			}
		})
	}
}

func TestWizard_Advance_ReadsOnlyCurrentStepFields(t *testing.T) {
	w := New("w1", "", testNow)
	in := bookInfo()
	in.Category = "Science"
	in.Location.City = "Nowhere"

	advance(t, w, in)

	assert.Empty(t, w.Draft.Category)
	assert.Empty(t, w.Draft.Location.City)
}

func TestWizard_EditThenAdvance_MatchesStraightThrough(t *testing.T) {
	base := map[Step]domain.Draft{
		StepBookInfo: bookInfo(),
		StepDetails:  details(),
		StepLocation: location(),
		StepPhotos:   photos(),
	}
	revised := map[Step]domain.Draft{}
	for s, d := range base {
		revised[s] = d
	}
	info := bookInfo()
	info.BookName = "Revised Title"
	info.Price = "30"
	revised[StepBookInfo] = info
	det := details()
	det.Category = "Science"
	revised[StepDetails] = det
	loc := location()
	loc.Location.City = "Astana"
	revised[StepLocation] = loc
	revised[StepPhotos] = domain.Draft{Images: []domain.MediaRef{{ID: "m2"}, {ID: "m3"}}}

	for _, k := range []Step{StepBookInfo, StepDetails, StepLocation, StepPhotos} {
		t.Run(k.String(), func(t *testing.T) {
			final := map[Step]domain.Draft{}
			for s, d := range base {
				final[s] = d
			}
			final[k] = revised[k]

			straight := New("a", "", testNow)
			for s := StepBookInfo; s < StepReview; s++ {
				advance(t, straight, final[s])
			}

			w := New("b", "", testNow)
			for s := StepBookInfo; s < StepReview; s++ {
				advance(t, w, base[s])
			}
			require.NoError(t, w.Edit(k))
			for s := k; s < StepReview; s++ {
				advance(t, w, final[s])
			}

			assert.Equal(t, StepReview, w.Step)
			if diff := cmp.Diff(straight.Draft, w.Draft); diff != "" {
				t.Errorf("draft differs (-straight +edited):\n%s", diff)
			}
		})
	}
}

func TestWizard_EditKeepsLaterSteps(t *testing.T) {
	w := New("w1", "", testNow)
	advance(t, w, bookInfo())
	advance(t, w, details())
	advance(t, w, location())

	require.NoError(t, w.Edit(StepBookInfo))

	assert.Equal(t, StepBookInfo, w.Step)
	assert.Equal(t, "Fiction", w.Draft.Category)
	assert.Equal(t, "Almaty", w.Draft.Location.City)
}

func TestWizard_Edit_RejectsForwardJumps(t *testing.T) {
	w := New("w1", "", testNow)
	advance(t, w, bookInfo())

	assert.ErrorIs(t, w.Edit(StepDetails), domain.ErrInvalidStep)
	assert.ErrorIs(t, w.Edit(StepReview), domain.ErrInvalidStep)
	assert.ErrorIs(t, w.Edit(Step(0)), domain.ErrInvalidStep)
}

func TestWizard_Retreat(t *testing.T) {
	w := New("w1", "", testNow)
	assert.ErrorIs(t, w.Retreat(), domain.ErrInvalidStep)

	advance(t, w, bookInfo())
	require.NoError(t, w.Retreat())

	assert.Equal(t, StepBookInfo, w.Step)
	assert.Equal(t, "Example", w.Draft.BookName)
}

func TestWizard_SubmitLifecycle(t *testing.T) {
	w := New("w1", "u1", testNow)
	assert.ErrorIs(t, w.MarkSubmitted("x"), domain.ErrWizardIncomplete)

	advance(t, w, bookInfo())
	advance(t, w, details())
	advance(t, w, location())
	advance(t, w, photos())
	require.True(t, w.ReadyToSubmit())

	_, err := w.AdvanceAt(domain.Draft{}, testNow)
	assert.ErrorIs(t, err, domain.ErrInvalidStep)

	require.NoError(t, w.MarkSubmitted("listing-1"))
	assert.Equal(t, StepSuccess, w.Step)
	assert.Equal(t, "listing-1", w.ListingID)

	_, err = w.AdvanceAt(bookInfo(), testNow)
	assert.ErrorIs(t, err, domain.ErrWizardClosed)
	assert.ErrorIs(t, w.Retreat(), domain.ErrWizardClosed)

	w.AddAnother()
	assert.Equal(t, StepBookInfo, w.Step)
	assert.Equal(t, domain.Draft{}, w.Draft)
	assert.Empty(t, w.ListingID)
	assert.Equal(t, "u1", w.OwnerID)
}

func TestWizard_Prefill_OnlyFillsEmptyFields(t *testing.T) {
	w := New("w1", "", testNow)
	w.Draft.BookName = "My title"

	filled := w.Prefill(&domain.BookMetadata{
		Title:         "Catalog title",
		Author:        "Catalog author",
		PublishedYear: 1984,
	})

	assert.ElementsMatch(t, []string{"author", "publishedYear"}, filled)
	assert.Equal(t, "My title", w.Draft.BookName)
	assert.Equal(t, "Catalog author", w.Draft.Author)
	assert.Equal(t, "1984", w.Draft.PublishedYear)
	assert.Nil(t, w.Prefill(nil))
}

func TestWizard_PrefillLocation(t *testing.T) {
	w := New("w1", "", testNow)
	w.Draft.Location.City = "Typed City"

	filled := w.PrefillLocation(domain.GeoPoint{Lat: 43.2, Lng: 76.9}, &domain.Location{City: "Almaty", PostalCode: "050000"})

	assert.ElementsMatch(t, []string{"coordinates", "postalCode"}, filled)
	assert.Equal(t, "Typed City", w.Draft.Location.City)
	require.NotNil(t, w.Draft.Location.Coordinates)
	assert.Equal(t, 43.2, w.Draft.Location.Coordinates.Lat)
}

func TestCloneDraft_IsDeep(t *testing.T) {
	d := photos()
	d.Location.Coordinates = &domain.GeoPoint{Lat: 1, Lng: 2}

	c := CloneDraft(d)
	c.Images[0].ID = "changed"
	c.Location.Coordinates.Lat = 9

	assert.Equal(t, "m1", d.Images[0].ID)
	assert.Equal(t, 1.0, d.Location.Coordinates.Lat)
}
