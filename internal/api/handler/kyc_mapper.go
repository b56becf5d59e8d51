package handler

import (
	"github.com/rentahome/kyc-service/internal/core/domain"
	"github.com/rentahome/kyc-service/internal/core/ports"
	"github.com/rentahome/kyc-service/pkg/logger"
)

// --- Service result → HTTP response ---

func toStatusResponse(v *ports.StatusView) statusResponse {
	id := v.Identity
	t3 := id.Tier3
	t3.BankAccount.AccountNumber = logger.Mask(t3.BankAccount.AccountNumber)

	required := v.RequiredTiers
	if required == nil {
		required = []domain.Tier{}
	}
	return statusResponse{
		UserID: id.UserID,
		Tiers: tiersResponse{
			Tier1: id.Tier1,
			Tier2: id.Tier2,
			Tier3: t3,
		},
		RequiredTiers: required,
		OverallStatus: v.OverallStatus,
	}
}

func toTier3Response(r *ports.Tier3Result) tier3Response {
	checks := make(map[domain.Check]subCheckResponse, len(r.Checks))
	for check, res := range r.Checks {
		checks[check] = subCheckResponse{Status: res.Status, Skipped: res.Skipped, Reason: res.Reason}
	}
	return tier3Response{statusResponse: toStatusResponse(&r.StatusView), Checks: checks}
}

func toAdminResponse(v *ports.AdminIdentityView) adminIdentityResponse {
	out := adminIdentityResponse{statusResponse: toStatusResponse(&v.StatusView)}
	// reviewers see the full account number
	out.Tiers.Tier3.BankAccount.AccountNumber = v.Identity.Tier3.BankAccount.AccountNumber
	if v.DocumentURL != "" {
		out.DocumentURL = v.DocumentURL
		expires := v.URLExpires
		out.URLExpires = &expires
	}
	return out
}
