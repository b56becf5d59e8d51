package ports

import (
	"context"

	"github.com/rentahome/kyc-service/internal/core/domain"
)

// IdentityReader loads a user's KYC record. It returns
// domain.ErrIdentityNotFound when the user never started verification.
type IdentityReader interface {
	FindByUserID(ctx context.Context, userID string) (*domain.UserIdentity, error)
}

// IdentityRepository persists the UserIdentity sub-aggregate. Save is a
// conditional write on identity.Version: it returns domain.ErrConflict when
// the stored version moved since the record was read, and bumps Version on
// success.
type IdentityRepository interface {
	IdentityReader
	Save(ctx context.Context, identity *domain.UserIdentity) error
}
