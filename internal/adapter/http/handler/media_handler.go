package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/platform/logger"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// MediaHandler serves staged files as previews.
type MediaHandler struct {
	staging domain.MediaStaging
	logger  *logger.Logger
}

func NewMediaHandler(staging domain.MediaStaging, log *logger.Logger) *MediaHandler {
	return &MediaHandler{staging: staging, logger: log.Named("media_handler")}
}

func (h *MediaHandler) Preview(w http.ResponseWriter, r *http.Request) {
	rc, ref, err := h.staging.Open(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, "MediaHandler.Preview", err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", ref.ContentType)
	if ref.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(ref.Size, 10))
	}
	w.Header().Set("Cache-Control", "private, max-age=300")
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn("MediaHandler.Preview: copy interrupted", zap.String("media_id", ref.ID), zap.Error(err))
	}
}
