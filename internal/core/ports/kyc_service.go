package ports

import (
	"context"
	"time"

	"github.com/rentahome/kyc-service/internal/core/domain"
)

// Actor is the authenticated caller taken from the access token.
type Actor struct {
	UserID string
	Role   string
	Email  string
}

// Tier1Input is the combined phone + NIN submission.
type Tier1Input struct {
	Actor       Actor
	PhoneNumber string
	NIN         string
}

// Tier2Input carries a utility bill upload.
type Tier2Input struct {
	Actor        Actor
	DocumentType string
	Document     Document
}

// Tier2ReviewInput is a reviewer decision on a pending tier2.
type Tier2ReviewInput struct {
	ReviewerID string
	UserID     string
	Decision   string // approve | reject
	Notes      string
}

// Tier3Input carries the financial and business identifiers.
type Tier3Input struct {
	Actor              Actor
	BVN                string
	AccountNumber      string
	BankCode           string
	BusinessName       string
	BusinessType       string
	RegistrationNumber string
}

// StatusView is the read model returned after every KYC operation.
type StatusView struct {
	Identity      *domain.UserIdentity
	RequiredTiers []domain.Tier
	OverallStatus domain.OverallStatus
}

// SubCheckResult reports what happened to one tier3 sub-check in this submission.
type SubCheckResult struct {
	Status  domain.TierStatus
	Skipped bool
	Reason  string
}

// Tier3Result is the per-sub-check breakdown plus the aggregate view.
type Tier3Result struct {
	StatusView
	Checks map[domain.Check]SubCheckResult
}

// AdminIdentityView adds a short-lived link to the tier2 document.
type AdminIdentityView struct {
	StatusView
	DocumentURL string
	URLExpires  time.Time
}

// KYCService is the verification orchestrator. It is the only writer of
// UserIdentity records.
type KYCService interface {
	Status(ctx context.Context, actor Actor) (*StatusView, error)
	SubmitTier1(ctx context.Context, in Tier1Input) (*StatusView, error)
	SubmitPhone(ctx context.Context, actor Actor, phoneNumber string) (*StatusView, error)
	RequestEmailVerification(ctx context.Context, actor Actor) error
	ConfirmEmail(ctx context.Context, token string) (*StatusView, error)
	SubmitTier2(ctx context.Context, in Tier2Input) (*StatusView, error)
	ReviewTier2(ctx context.Context, in Tier2ReviewInput) (*StatusView, error)
	SubmitTier3(ctx context.Context, in Tier3Input) (*Tier3Result, error)
	AdminView(ctx context.Context, userID string) (*AdminIdentityView, error)
	OverridePhone(ctx context.Context, adminID, userID, phoneNumber string) (*StatusView, error)
}
