package rest

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/smilemakc/outreachctl/pkg/models"
)

type APIError struct {
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	HTTPStatus int                    `json:"-"`
}

func (e *APIError) Error() string {
	return e.Message
}

func NewAPIError(code, message string, httpStatus int) *APIError {
	return &APIError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

func NewAPIErrorWithDetails(code, message string, httpStatus int, details map[string]interface{}) *APIError {
	return &APIError{
		Code:       code,
		Message:    message,
		Details:    details,
		HTTPStatus: httpStatus,
	}
}

var (
	ErrBadRequest       = NewAPIError("BAD_REQUEST", "Invalid request", http.StatusBadRequest)
	ErrUnauthorized     = NewAPIError("UNAUTHORIZED", "Authentication required", http.StatusUnauthorized)
	ErrForbidden        = NewAPIError("FORBIDDEN", "Access denied", http.StatusForbidden)
	ErrNotFound         = NewAPIError("NOT_FOUND", "Resource not found", http.StatusNotFound)
	ErrConflict         = NewAPIError("CONFLICT", "Resource conflict", http.StatusConflict)
	ErrValidationFailed = NewAPIError("VALIDATION_FAILED", "Validation failed", http.StatusBadRequest)
	ErrInternalServer   = NewAPIError("INTERNAL_ERROR", "Internal server error", http.StatusInternalServerError)
	ErrTooManyRequests  = NewAPIError("RATE_LIMIT_EXCEEDED", "Too many requests", http.StatusTooManyRequests)
	ErrInvalidJSON      = NewAPIError("INVALID_JSON", "Invalid JSON in request body", http.StatusBadRequest)
	ErrMissingParameter = NewAPIError("MISSING_PARAMETER", "Required parameter is missing", http.StatusBadRequest)
	ErrInvalidParameter = NewAPIError("INVALID_PARAMETER", "Invalid parameter value", http.StatusBadRequest)
	ErrInvalidID        = NewAPIError("INVALID_ID", "Invalid ID format", http.StatusBadRequest)
	ErrInvalidToken     = NewAPIError("INVALID_TOKEN", "Invalid token", http.StatusUnauthorized)
)

// TranslateError maps a domain/storage error to the API envelope's
// {code, message, http status}, the same switch-over-sentinels shape
// used elsewhere in this package, narrowed to this module's own sentinel
// set (pkg/models/errors.go) instead of a generic workflow/auth domain.
func TranslateError(err error) *APIError {
	if err == nil {
		return nil
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	switch {
	case errors.Is(err, models.ErrCampaignNotFound):
		return NewAPIError("CAMPAIGN_NOT_FOUND", "Campaign not found", http.StatusNotFound)
	case errors.Is(err, models.ErrStepNotFound):
		return NewAPIError("STEP_NOT_FOUND", "Step not found", http.StatusNotFound)
	case errors.Is(err, models.ErrLeadNotFound):
		return NewAPIError("LEAD_NOT_FOUND", "Lead not found", http.StatusNotFound)
	case errors.Is(err, models.ErrActivityNotFound):
		return NewAPIError("ACTIVITY_NOT_FOUND", "Activity not found", http.StatusNotFound)
	case errors.Is(err, models.ErrAccountNotFound):
		return NewAPIError("ACCOUNT_NOT_FOUND", "Provider account not found", http.StatusNotFound)
	case errors.Is(err, models.ErrInvitationNotFound):
		return NewAPIError("INVITATION_NOT_FOUND", "Invitation track not found", http.StatusNotFound)
	case errors.Is(err, models.ErrInvalidID):
		return NewAPIError("INVALID_ID", "Invalid ID format", http.StatusBadRequest)

	case errors.Is(err, models.ErrCampaignExists):
		return NewAPIError("CAMPAIGN_EXISTS", "Campaign already exists", http.StatusConflict)
	case errors.Is(err, models.ErrCampaignLocked):
		return NewAPIError("CAMPAIGN_LOCKED", "Campaign is locked by another run", http.StatusConflict)
	case errors.Is(err, models.ErrAlreadyRanToday):
		return NewAPIError("ALREADY_RAN_TODAY", "Campaign already ran today", http.StatusConflict)

	case errors.Is(err, models.ErrValidationFailed):
		return NewAPIError("VALIDATION_FAILED", "Validation failed", http.StatusBadRequest)
	case errors.Is(err, models.ErrRequired):
		return NewAPIError("REQUIRED_FIELD_MISSING", "Required field is missing", http.StatusBadRequest)
	case errors.Is(err, models.ErrInvalidConfig):
		return NewAPIError("INVALID_CONFIG", "Invalid configuration", http.StatusBadRequest)

	case errors.Is(err, models.ErrQuotaDaily):
		return NewAPIError("QUOTA_DAILY_EXCEEDED", "Daily quota exceeded", http.StatusTooManyRequests)
	case errors.Is(err, models.ErrQuotaWeekly):
		return NewAPIError("QUOTA_WEEKLY_EXCEEDED", "Weekly quota exceeded", http.StatusTooManyRequests)
	case errors.Is(err, models.ErrNoValidAccounts):
		return NewAPIError("NO_VALID_ACCOUNTS", "No valid provider accounts available", http.StatusConflict)
	case errors.Is(err, models.ErrLinkedInURLMissing):
		return NewAPIError("LINKEDIN_URL_MISSING", "Lead has no LinkedIn URL", http.StatusConflict)
	case errors.Is(err, models.ErrRequiresIntervention):
		return NewAPIError("REQUIRES_INTERVENTION", "Account requires user intervention", http.StatusConflict)
	case errors.Is(err, models.ErrWaitingAcceptance):
		return NewAPIError("WAITING_ACCEPTANCE", "Waiting for invitation acceptance", http.StatusConflict)

	case errors.Is(err, models.ErrProviderTransient):
		return NewAPIError("PROVIDER_TRANSIENT_ERROR", "Provider returned a transient error", http.StatusBadGateway)
	case errors.Is(err, models.ErrProviderRateLimit):
		return NewAPIError("PROVIDER_RATE_LIMIT", "Provider rate limit hit", http.StatusTooManyRequests)
	case errors.Is(err, models.ErrCredentialsExpired):
		return NewAPIError("PROVIDER_CREDENTIALS_EXPIRED", "Provider credentials expired", http.StatusConflict)
	case errors.Is(err, models.ErrProviderNotFound):
		return NewAPIError("PROVIDER_NOT_FOUND", "Provider client not found", http.StatusBadRequest)

	case errors.Is(err, models.ErrUnauthorized):
		return NewAPIError("UNAUTHORIZED", "Authentication required", http.StatusUnauthorized)
	case errors.Is(err, models.ErrForbidden):
		return NewAPIError("FORBIDDEN", "Access denied", http.StatusForbidden)
	case errors.Is(err, models.ErrInvalidToken):
		return NewAPIError("INVALID_TOKEN", "Invalid token", http.StatusUnauthorized)
	case errors.Is(err, models.ErrClientClosed):
		return NewAPIError("CLIENT_CLOSED", "Client is closed", http.StatusServiceUnavailable)

	// Database-level not found (when repository doesn't wrap sql.ErrNoRows)
	case errors.Is(err, sql.ErrNoRows):
		return NewAPIError("NOT_FOUND", "Resource not found", http.StatusNotFound)
	}

	// Check for custom error types in default block
	{
		var validationErr *models.ValidationError
		if errors.As(err, &validationErr) {
			return NewAPIErrorWithDetails(
				"VALIDATION_ERROR",
				validationErr.Message,
				http.StatusBadRequest,
				map[string]interface{}{
					"field": validationErr.Field,
				},
			)
		}

		var validationErrs models.ValidationErrors
		if errors.As(err, &validationErrs) {
			details := make(map[string]interface{})
			for i, ve := range validationErrs {
				details[ve.Field] = ve.Message
				if i == 0 {
					return NewAPIErrorWithDetails("VALIDATION_FAILED", ve.Message, http.StatusBadRequest, details)
				}
			}
			return NewAPIErrorWithDetails("VALIDATION_FAILED", "Multiple validation errors", http.StatusBadRequest, details)
		}
	}

	// Check for string patterns in error message as fallback
	errMsg := strings.ToLower(err.Error())
	if strings.Contains(errMsg, "no rows") || strings.Contains(errMsg, "not found") {
		return NewAPIError("NOT_FOUND", "Resource not found", http.StatusNotFound)
	}

	return NewAPIError("INTERNAL_ERROR", "An unexpected error occurred", http.StatusInternalServerError)
}
