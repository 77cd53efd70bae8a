package handler

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/adapter/http/middleware"
	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/listing/usecase"
	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/listing/wizard"
	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/platform/logger"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type WizardHandler struct {
	wizards        *usecase.WizardUsecase
	submissions    *usecase.SubmissionUsecase
	maxUploadBytes int64
	logger         *logger.Logger
}

func NewWizardHandler(wizards *usecase.WizardUsecase, submissions *usecase.SubmissionUsecase, maxUploadBytes int64, log *logger.Logger) *WizardHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 32 << 20
	}
	return &WizardHandler{
		wizards:        wizards,
		submissions:    submissions,
		maxUploadBytes: maxUploadBytes,
		logger:         log.Named("wizard_handler"),
	}
}

type wizardResponse struct {
	*wizard.Wizard
	StepName string `json:"stepName"`
}

func toWizardResponse(w *wizard.Wizard) wizardResponse {
	return wizardResponse{Wizard: w, StepName: w.Step.String()}
}

func (h *WizardHandler) Start(w http.ResponseWriter, r *http.Request) {
	wz, err := h.wizards.Start(r.Context(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		writeError(w, h.logger, "WizardHandler.Start", err)
		return
	}
	writeJSON(w, http.StatusCreated, toWizardResponse(wz))
}

func (h *WizardHandler) Get(w http.ResponseWriter, r *http.Request) {
	wz, err := h.wizards.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, "WizardHandler.Get", err)
		return
	}
	writeJSON(w, http.StatusOK, toWizardResponse(wz))
}

// Advance validates the posted step fields. Field errors are answered with
// 400 and the unchanged session.
func (h *WizardHandler) Advance(w http.ResponseWriter, r *http.Request) {
	var input domain.Draft
	if err := decodeJSON(r, &input); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	wz, verrs, err := h.wizards.Advance(r.Context(), chi.URLParam(r, "id"), input)
	if err != nil {
		writeError(w, h.logger, "WizardHandler.Advance", err)
		return
	}
	if len(verrs) > 0 {
		writeJSON(w, http.StatusBadRequest, struct {
			errorResponse
			Wizard wizardResponse `json:"wizard"`
		}{errorResponse{Error: "validation failed", Fields: verrs}, toWizardResponse(wz)})
		return
	}
	writeJSON(w, http.StatusOK, toWizardResponse(wz))
}

func (h *WizardHandler) Retreat(w http.ResponseWriter, r *http.Request) {
	wz, err := h.wizards.Retreat(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, "WizardHandler.Retreat", err)
		return
	}
	writeJSON(w, http.StatusOK, toWizardResponse(wz))
}

func (h *WizardHandler) Edit(w http.ResponseWriter, r *http.Request) {
	step, ok := parseStep(chi.URLParam(r, "step"))
	if !ok {
		writeError(w, h.logger, "WizardHandler.Edit", domain.ErrInvalidStep)
		return
	}
	wz, err := h.wizards.Edit(r.Context(), chi.URLParam(r, "id"), step)
	if err != nil {
		writeError(w, h.logger, "WizardHandler.Edit", err)
		return
	}
	writeJSON(w, http.StatusOK, toWizardResponse(wz))
}

func (h *WizardHandler) Reset(w http.ResponseWriter, r *http.Request) {
	wz, err := h.wizards.Reset(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, "WizardHandler.Reset", err)
		return
	}
	writeJSON(w, http.StatusOK, toWizardResponse(wz))
}

func (h *WizardHandler) Close(w http.ResponseWriter, r *http.Request) {
	if err := h.wizards.Close(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, h.logger, "WizardHandler.Close", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type enrichmentResponse struct {
	Wizard wizardResponse           `json:"wizard"`
	Result usecase.EnrichmentResult `json:"result"`
}

func (h *WizardHandler) LookupISBN(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ISBN string `json:"isbn"`
	}
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	wz, res, err := h.wizards.LookupISBN(r.Context(), chi.URLParam(r, "id"), req.ISBN)
	if err != nil {
		writeError(w, h.logger, "WizardHandler.LookupISBN", err)
		return
	}
	writeJSON(w, http.StatusOK, enrichmentResponse{Wizard: toWizardResponse(wz), Result: res})
}

func (h *WizardHandler) Locate(w http.ResponseWriter, r *http.Request) {
	var p *domain.GeoPoint
	if err := decodeJSON(r, &p); err != nil || p == nil {
		badRequest(w, "lat and lng are required")
		return
	}
	wz, res, err := h.wizards.Locate(r.Context(), chi.URLParam(r, "id"), *p)
	if err != nil {
		writeError(w, h.logger, "WizardHandler.Locate", err)
		return
	}
	writeJSON(w, http.StatusOK, enrichmentResponse{Wizard: toWizardResponse(wz), Result: res})
}

// StageMedia accepts a multipart form with one or more "images" parts.
func (h *WizardHandler) StageMedia(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, h.logger, "WizardHandler.StageMedia", domain.ErrMediaTooLarge)
			return
		}
		badRequest(w, "invalid multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	headers := r.MultipartForm.File["images"]
	if len(headers) == 0 {
		badRequest(w, "no images in request")
		return
	}

	files := make([]usecase.StagedFile, 0, len(headers))
	opened := make([]multipart.File, 0, len(headers))
	defer func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}()
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			h.logger.Warn("WizardHandler.StageMedia: could not open part", zap.String("file", fh.Filename), zap.Error(err))
			badRequest(w, "could not read uploaded file")
			return
		}
		opened = append(opened, f)
		files = append(files, usecase.StagedFile{
			FileName:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        f,
		})
	}

	refs, err := h.wizards.StageMedia(r.Context(), chi.URLParam(r, "id"), files)
	if err != nil {
		writeError(w, h.logger, "WizardHandler.StageMedia", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"images": refs})
}

func (h *WizardHandler) Submit(w http.ResponseWriter, r *http.Request) {
	user := &domain.CurrentUser{
		ID:    middleware.UserIDFromContext(r.Context()),
		Email: middleware.EmailFromContext(r.Context()),
	}
	res, err := h.submissions.Submit(r.Context(), chi.URLParam(r, "id"), user)
	if err != nil {
		writeError(w, h.logger, "WizardHandler.Submit", err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// parseStep accepts a step number or its name, e.g. "2" or "details".
func parseStep(s string) (wizard.Step, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(s); err == nil {
		return wizard.Step(n), true
	}
	for st := wizard.StepBookInfo; st <= wizard.StepSuccess; st++ {
		if st.String() == s {
			return st, true
		}
	}
	return 0, false
}
