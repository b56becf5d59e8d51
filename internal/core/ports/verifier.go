package ports

import (
	"context"

	"github.com/rentahome/kyc-service/internal/core/domain"
)

// Verifier is the identity-verification provider adapter. Each method
// returns a found or not_found outcome, or an error wrapping
// domain.ErrProviderUnavailable when the check could not be attempted.
// Inputs are already normalized by the caller.
type Verifier interface {
	Name() string
	VerifyPhone(ctx context.Context, phone string) (domain.VerificationOutcome, error)
	VerifyNationalID(ctx context.Context, nin, firstName, lastName string) (domain.VerificationOutcome, error)
	VerifyBVN(ctx context.Context, bvn, firstName, lastName string) (domain.VerificationOutcome, error)
	// VerifyBankAccount fills Fields["bank_name"] and Fields["account_name"] when found.
	VerifyBankAccount(ctx context.Context, accountNumber, bankCode string) (domain.VerificationOutcome, error)
	// VerifyBusiness fills Fields["company_name"] and registry details when found.
	VerifyBusiness(ctx context.Context, registrationNumber, businessName, countryCode string) (domain.VerificationOutcome, error)
}
