package handler

import (
	"time"

	"github.com/rentahome/kyc-service/internal/core/domain"
)

// --- Requests ---

type tier1SubmitRequest struct {
	PhoneNumber string `json:"phone_number"`
	NIN         string `json:"nin"`
}

type phoneSubmitRequest struct {
	PhoneNumber string `json:"phone_number"`
}

type tier3SubmitRequest struct {
	BVN                string `json:"bvn"`
	AccountNumber      string `json:"account_number"`
	BankCode           string `json:"bank_code"`
	BusinessName       string `json:"business_name"`
	BusinessType       string `json:"business_type"`
	RegistrationNumber string `json:"registration_number"`
}

type tier2ReviewRequest struct {
	Decision string `json:"decision" validate:"required,oneof=approve reject"`
	Notes    string `json:"notes" validate:"max=1000"`
}

type phoneOverrideRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required"`
}

// --- Responses ---

type tiersResponse struct {
	Tier1 domain.Tier1State `json:"tier1"`
	Tier2 domain.Tier2State `json:"tier2"`
	Tier3 domain.Tier3State `json:"tier3"`
}

type statusResponse struct {
	UserID        string               `json:"user_id"`
	Tiers         tiersResponse        `json:"tiers"`
	RequiredTiers []domain.Tier        `json:"required_tiers"`
	OverallStatus domain.OverallStatus `json:"overall_status"`
}

type subCheckResponse struct {
	Status  domain.TierStatus `json:"status"`
	Skipped bool              `json:"skipped,omitempty"`
	Reason  string            `json:"reason,omitempty"`
}

type tier3Response struct {
	statusResponse
	Checks map[domain.Check]subCheckResponse `json:"checks"`
}

type adminIdentityResponse struct {
	statusResponse
	DocumentURL string     `json:"document_url,omitempty"`
	URLExpires  *time.Time `json:"document_url_expires_at,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// errorBody documents the error envelope rendered by the API error handler.
type errorBody struct {
	Error        string              `json:"error"`
	Code         string              `json:"code"`
	Fields       []domain.FieldError `json:"fields,omitempty"`
	Checks       []domain.Check      `json:"checks,omitempty"`
	MissingTiers []domain.Tier       `json:"missing_tiers,omitempty"`
	Retryable    bool                `json:"retryable,omitempty"`
}
