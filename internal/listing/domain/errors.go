package domain

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrListingNotFound     = errors.New("listing not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrInvalidListingData  = errors.New("invalid listing data")
	ErrInvalidFilter       = errors.New("invalid filter parameters")
	ErrInvalidCursor       = errors.New("invalid pagination cursor")
	ErrNotAuthenticated    = errors.New("authentication required")
	ErrForbidden           = errors.New("user not authorized to perform this action")
	ErrSubmissionFailed    = errors.New("listing could not be saved, please retry")
	ErrQueryFailed         = errors.New("listings could not be loaded")
	ErrSessionNotFound     = errors.New("session not found or expired")
	ErrWizardIncomplete    = errors.New("listing wizard is not at the review step")
	ErrInvalidStep         = errors.New("invalid wizard step")
	ErrWizardClosed        = errors.New("listing wizard already submitted")
	ErrLookupNotFound      = errors.New("no record found")
	ErrTooManyImages       = errors.New("too many images")
	ErrUnsupportedMedia    = errors.New("unsupported media type")
	ErrMediaTooLarge       = errors.New("file exceeds the upload size limit")
	ErrMediaNotFound       = errors.New("staged file not found")
	ErrInvalidStatusChange = errors.New("invalid listing status")
)

// ValidationErrors maps a form field name to a human-readable message.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "validation failed"
	}
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+v[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Unwrap lets callers match any field error against ErrInvalidListingData.
func (v ValidationErrors) Unwrap() error { return ErrInvalidListingData }

func (v ValidationErrors) add(field, msg string) {
	if _, exists := v[field]; !exists {
		v[field] = msg
	}
}

func (v ValidationErrors) merge(other ValidationErrors) {
	for k, msg := range other {
		v.add(k, msg)
	}
}

// OrNil returns nil when there are no field errors.
func (v ValidationErrors) OrNil() error {
	if len(v) == 0 {
		return nil
	}
	return v
}
