package domain

import "time"

// OutcomeResult is the definitive answer of a provider check.
type OutcomeResult string

const (
	OutcomeFound    OutcomeResult = "found"
	OutcomeNotFound OutcomeResult = "not_found"
)

// VerificationOutcome is the normalized result of one provider call.
// Infrastructure failures are never outcomes; adapters return
// ErrProviderUnavailable instead.
type VerificationOutcome struct {
	Result     OutcomeResult
	Reference  string
	Fields     map[string]string
	Raw        map[string]any
	VerifiedAt time.Time
}

// Matched reports whether the provider found a matching record.
func (o VerificationOutcome) Matched() bool {
	return o.Result == OutcomeFound
}

// Evidence converts a found outcome into the evidence stored on the identity.
func (o VerificationOutcome) Evidence(provider string) *Evidence {
	return &Evidence{
		Provider:   provider,
		Reference:  o.Reference,
		Fields:     o.Fields,
		Raw:        o.Raw,
		VerifiedAt: o.VerifiedAt,
	}
}

// CompletionEvent is emitted after a tier first transitions to verified.
type CompletionEvent struct {
	UserID     string    `json:"user_id"`
	Role       string    `json:"role"`
	Tier       Tier      `json:"tier"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Business types accepted for tier3.
const (
	BusinessSoleProprietorship = "sole_proprietorship"
	BusinessPartnership        = "partnership"
	BusinessLimitedCompany     = "limited_company"
	BusinessPublicCompany      = "public_company"
)

// BusinessTypes lists every accepted business type.
var BusinessTypes = []string{
	BusinessSoleProprietorship,
	BusinessPartnership,
	BusinessLimitedCompany,
	BusinessPublicCompany,
}

// RequiresRegistryCheck reports whether the business registry holds records
// for businessType. Sole proprietors and partnerships are not registered
// companies and are auto-verified.
func RequiresRegistryCheck(businessType string) bool {
	return businessType == BusinessLimitedCompany || businessType == BusinessPublicCompany
}

// Utility bill document types accepted for tier2.
var DocumentTypes = []string{
	"electricity_bill",
	"water_bill",
	"waste_bill",
	"internet_bill",
	"gas_bill",
}

// Tier2 review decisions.
const (
	DecisionApprove = "approve"
	DecisionReject  = "reject"
)
