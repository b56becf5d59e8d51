package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/rentahome/kyc-service/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors. Optional
// members name exactly what the caller has to fix.
type errorResponse struct {
	Error        string              `json:"error"`
	Code         string              `json:"code"`
	Fields       []domain.FieldError `json:"fields,omitempty"`
	Checks       []domain.Check      `json:"checks,omitempty"`
	MissingTiers []domain.Tier       `json:"missing_tiers,omitempty"`
	Retryable    bool                `json:"retryable,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, body := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, body)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, errorResponse{Error: fmt.Sprintf("%v", he.Message), Code: httpCode(he.Code)}
	}

	var (
		validation  *domain.ValidationError
		precond     *domain.PreconditionError
		failed      *domain.VerificationFailedError
		unavailable *domain.ProviderUnavailableError
		immutable   *domain.ImmutableFieldError
		gated       *domain.TierRequiredError
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusUnprocessableEntity, errorResponse{Error: validation.Error(), Code: "validation_failed", Fields: validation.Fields}
	case errors.As(err, &precond):
		return http.StatusPreconditionFailed, errorResponse{Error: precond.Error(), Code: "precondition_failed", MissingTiers: []domain.Tier{precond.Missing}}
	case errors.As(err, &failed):
		return http.StatusUnprocessableEntity, errorResponse{Error: failed.Error(), Code: "verification_failed", Checks: failed.Checks}
	case errors.As(err, &unavailable):
		return http.StatusServiceUnavailable, errorResponse{Error: unavailable.Error(), Code: "provider_unavailable", Checks: unavailable.Checks, Retryable: true}
	case errors.As(err, &immutable):
		return http.StatusConflict, errorResponse{Error: immutable.Error(), Code: "immutable_field", Fields: []domain.FieldError{{Field: immutable.Field, Message: "is locked"}}}
	case errors.As(err, &gated):
		return http.StatusForbidden, errorResponse{Error: gated.Error(), Code: "verification_required", MissingTiers: gated.Missing}
	}

	// Known domain errors → deterministic HTTP codes.
	switch {
	case errors.Is(err, domain.ErrProviderUnavailable):
		return http.StatusServiceUnavailable, errorResponse{Error: domain.ErrProviderUnavailable.Error(), Code: "provider_unavailable", Retryable: true}
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, errorResponse{Error: domain.ErrConflict.Error(), Code: "conflict", Retryable: true}
	case errors.Is(err, domain.ErrTierAlreadyVerified):
		return http.StatusConflict, errorResponse{Error: domain.ErrTierAlreadyVerified.Error(), Code: "tier_already_verified"}
	case errors.Is(err, domain.ErrEmailVerified):
		return http.StatusConflict, errorResponse{Error: domain.ErrEmailVerified.Error(), Code: "email_already_verified"}
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Code: "invalid_transition"}
	case errors.Is(err, domain.ErrUploadFailed):
		return http.StatusBadGateway, errorResponse{Error: domain.ErrUploadFailed.Error(), Code: "upload_failed", Retryable: true}
	case errors.Is(err, domain.ErrNotificationFailed):
		return http.StatusBadGateway, errorResponse{Error: domain.ErrNotificationFailed.Error(), Code: "notification_failed", Retryable: true}
	case errors.Is(err, domain.ErrInvalidToken):
		return http.StatusBadRequest, errorResponse{Error: domain.ErrInvalidToken.Error(), Code: "invalid_token"}
	case errors.Is(err, domain.ErrIdentityNotFound):
		return http.StatusNotFound, errorResponse{Error: domain.ErrIdentityNotFound.Error(), Code: "not_found"}
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, errorResponse{Error: "access forbidden", Code: "forbidden"}
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, errorResponse{Error: "invalid credentials", Code: "unauthorized"}
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, errorResponse{Error: "user not found", Code: "not_found"}
	case errors.Is(err, domain.ErrUserExists):
		return http.StatusConflict, errorResponse{Error: "user already exists", Code: "user_exists"}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, errorResponse{Error: "internal server error", Code: "internal"}
}

func httpCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusMethodNotAllowed:
		return "method_not_allowed"
	case http.StatusRequestEntityTooLarge:
		return "payload_too_large"
	case http.StatusTooManyRequests:
		return "rate_limited"
	}
	if status >= 500 {
		return "internal"
	}
	return "error"
}
