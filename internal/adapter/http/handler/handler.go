// Package handler translates HTTP requests into usecase calls and usecase
// errors into status codes.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	cartdomain "github.com/Abdurahmanit/GroupProject/bookmarket/internal/cart/domain"
	cartusecase "github.com/Abdurahmanit/GroupProject/bookmarket/internal/cart/usecase"
	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/platform/logger"
	"go.uber.org/zap"
)

const maxJSONBody = 1 << 20

type errorResponse struct {
	Error       string            `json:"error"`
	Fields      map[string]string `json:"fields,omitempty"`
	Unavailable []string          `json:"unavailable,omitempty"`
	Retryable   bool              `json:"retryable,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON reads a JSON body into dst. An empty body leaves dst untouched.
func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}

// statusFor maps usecase errors onto HTTP status codes.
func statusFor(err error) int {
	var verrs domain.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidFilter),
		errors.Is(err, domain.ErrInvalidCursor),
		errors.Is(err, domain.ErrInvalidStep),
		errors.Is(err, domain.ErrTooManyImages),
		errors.Is(err, domain.ErrUnsupportedMedia),
		errors.Is(err, domain.ErrInvalidStatusChange),
		errors.Is(err, cartdomain.ErrInvalidItem),
		errors.Is(err, cartdomain.ErrMissingDevice):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrMediaTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, domain.ErrNotAuthenticated), errors.Is(err, cartdomain.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrListingNotFound),
		errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrMediaNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrWizardClosed),
		errors.Is(err, domain.ErrWizardIncomplete),
		errors.Is(err, cartdomain.ErrCartEmpty),
		errors.Is(err, cartdomain.ErrItemUnavailable):
		return http.StatusConflict
	case errors.Is(err, cartdomain.ErrPaymentDeclined):
		return http.StatusPaymentRequired
	case errors.Is(err, domain.ErrSubmissionFailed):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrQueryFailed):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// writeError is the single place usecase errors become responses. Internal
// errors are logged and their text is not exposed.
func writeError(w http.ResponseWriter, log *logger.Logger, op string, err error) {
	status := statusFor(err)
	resp := errorResponse{Error: err.Error()}

	var verrs domain.ValidationErrors
	if errors.As(err, &verrs) {
		resp.Error = "validation failed"
		resp.Fields = verrs
	}
	var unavailable *cartusecase.UnavailableError
	if errors.As(err, &unavailable) {
		resp.Unavailable = unavailable.ListingIDs
	}
	switch status {
	case http.StatusServiceUnavailable:
		resp.Error = domain.ErrSubmissionFailed.Error()
		resp.Retryable = true
		log.Error(op+": request failed", zap.Error(err))
	case http.StatusBadGateway:
		resp.Error = domain.ErrQueryFailed.Error()
		log.Error(op+": request failed", zap.Error(err))
	case http.StatusInternalServerError:
		resp.Error = "internal server error"
		log.Error(op+": request failed", zap.Error(err))
	default:
		log.Debug(op+": request rejected", zap.Int("status", status), zap.Error(err))
	}
	writeJSON(w, status, resp)
}
