package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrUserExists          = errors.New("user already exists")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrForbidden           = errors.New("access forbidden")
	ErrIdentityNotFound    = errors.New("kyc record not found")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrTierAlreadyVerified = errors.New("tier already verified")
	ErrProviderUnavailable = errors.New("verification provider unavailable")
	ErrConflict            = errors.New("a verification for this user is already in progress")
	ErrUploadFailed        = errors.New("document upload failed")
	ErrInvalidToken        = errors.New("invalid or expired verification token")
	ErrEmailVerified       = errors.New("email already verified")
	ErrNotificationFailed  = errors.New("notification could not be sent")
)

// FieldError describes one malformed input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every malformed field of a request. It is always
// raised before any external call.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Field+" "+f.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Add appends a field error.
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// OrNil returns e when it holds at least one field error.
func (e *ValidationError) OrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

// PreconditionError means Tier cannot be entered until Missing is verified.
type PreconditionError struct {
	Tier    Tier
	Missing Tier
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s requires %s to be verified", e.Tier, e.Missing)
}

// Check names a single sub-check.
type Check string

const (
	CheckEmail       Check = "email"
	CheckPhone       Check = "phone"
	CheckNIN         Check = "nin"
	CheckUtilityBill Check = "utility_bill"
	CheckBVN         Check = "bvn"
	CheckBankAccount Check = "bank_account"
	CheckBusiness    Check = "business"
)

func joinChecks(checks []Check) string {
	s := make([]string, len(checks))
	for i, c := range checks {
		s[i] = string(c)
	}
	return strings.Join(s, ", ")
}

// VerificationFailedError is a definitive negative result for Checks.
type VerificationFailedError struct {
	Checks []Check
}

func (e *VerificationFailedError) Error() string {
	return "verification failed: " + joinChecks(e.Checks)
}

// ProviderUnavailableError means Checks could not be attempted. It matches
// ErrProviderUnavailable under errors.Is.
type ProviderUnavailableError struct {
	Checks []Check
	Cause  error
}

func (e *ProviderUnavailableError) Error() string {
	return "verification provider unavailable for " + joinChecks(e.Checks) + ", try again later"
}

func (e *ProviderUnavailableError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrProviderUnavailable}
	}
	return []error{ErrProviderUnavailable, e.Cause}
}

// ImmutableFieldError is returned when a field locked by a verified tier is
// changed outside the support override.
type ImmutableFieldError struct {
	Field string
}

func (e *ImmutableFieldError) Error() string {
	return e.Field + " cannot be changed after tier1 is verified; contact support"
}

// TierRequiredError denies access to a gated feature until Missing are verified.
type TierRequiredError struct {
	Missing []Tier
}

func (e *TierRequiredError) Error() string {
	s := make([]string, len(e.Missing))
	for i, t := range e.Missing {
		s[i] = string(t)
	}
	return "verification required: " + strings.Join(s, ", ")
}
