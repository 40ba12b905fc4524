package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/JeevaSuryaWorks/emergentiq-advisor/internal/generator"
	"github.com/JeevaSuryaWorks/emergentiq-advisor/internal/inference"
	"github.com/JeevaSuryaWorks/emergentiq-advisor/internal/location"
	"github.com/JeevaSuryaWorks/emergentiq-advisor/internal/onboarding"
	"github.com/JeevaSuryaWorks/emergentiq-advisor/internal/services"
)

// Error codes. Clients branch on these, not on messages.
const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Sessions
	ErrCodeSessionClosed      = "session_closed"
	ErrCodeHistoryUnavailable = "history_unavailable"
	ErrCodeInferenceFailed    = "inference_failed"
	ErrCodeAdvisorUnavailable = "advisor_unavailable"
	ErrCodeTooLong            = "content_too_long"
	ErrCodeCreateFailed       = "create_failed"
	ErrCodeListFailed         = "list_failed"

	// Onboarding, profile, bookmarks
	ErrCodeIncomplete     = "onboarding_incomplete"
	ErrCodeInvalidProfile = "invalid_profile"
	ErrCodeBookmarkFailed = "bookmark_failed"
)

// classify maps a service or domain error to a status and code. The second
// result is false for errors with no specific mapping (reported as 500).
func classify(err error) (int, string, bool) {
	var ie *services.InferenceError
	switch {
	case errors.Is(err, services.ErrEmptyMessage),
		errors.Is(err, services.ErrInvalidSessionID),
		errors.Is(err, services.ErrInvalidCollegeID),
		errors.Is(err, generator.ErrInvalidInput),
		errors.Is(err, location.ErrNotChild),
		errors.Is(err, location.ErrNoChildren),
		errors.Is(err, onboarding.ErrUnknownInterest),
		errors.Is(err, onboarding.ErrUnknownCurrency),
		errors.Is(err, onboarding.ErrUnknownTier),
		errors.Is(err, onboarding.ErrInvalidBudget),
		errors.Is(err, onboarding.ErrInvalidChoice):
		return http.StatusBadRequest, ErrCodeBadRequest, true
	case errors.Is(err, services.ErrTooLong):
		return http.StatusBadRequest, ErrCodeTooLong, true
	case errors.Is(err, services.ErrProfileInvalid):
		return http.StatusBadRequest, ErrCodeInvalidProfile, true
	case errors.Is(err, onboarding.ErrIncomplete):
		return http.StatusBadRequest, ErrCodeIncomplete, true
	case errors.Is(err, services.ErrSessionNotFound),
		errors.Is(err, services.ErrProfileNotFound),
		errors.Is(err, location.ErrUnknownNode),
		errors.Is(err, onboarding.ErrWizardNotFound):
		return http.StatusNotFound, ErrCodeNotFound, true
	case errors.Is(err, services.ErrSessionClosed):
		return http.StatusConflict, ErrCodeSessionClosed, true
	case errors.Is(err, onboarding.ErrAlreadyCompleted):
		return http.StatusConflict, ErrCodeConflict, true
	case errors.Is(err, services.ErrHistoryUnavailable):
		return http.StatusServiceUnavailable, ErrCodeHistoryUnavailable, true
	case errors.As(err, &ie) && errors.Is(ie.Err, inference.ErrUnavailable):
		return http.StatusServiceUnavailable, ErrCodeAdvisorUnavailable, true
	case errors.As(err, &ie):
		return http.StatusBadGateway, ErrCodeInferenceFailed, true
	case errors.Is(err, services.ErrBookmarkFailed):
		return http.StatusBadGateway, ErrCodeBookmarkFailed, true
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, ErrCodeInternal, true
	}
	return http.StatusInternalServerError, ErrCodeInternal, false
}

// message returns the client-facing text for err. Inference failures carry
// their own user-visible text; unmapped errors are not echoed.
func message(err error, mapped bool) string {
	var ie *services.InferenceError
	if errors.As(err, &ie) {
		return ie.Message
	}
	if !mapped {
		return "internal error"
	}
	return err.Error()
}
