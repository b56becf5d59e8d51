package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/rentahome/kyc-service/internal/core/domain"
)

// Simulated is a deterministic stand-in for the vendor, selected explicitly
// with PROVIDER_MODE=simulated and refused in production. Identifiers ending
// in 0000 are not found and identifiers ending in 9999 behave as an outage;
// everything else is found.
type Simulated struct {
	log zerolog.Logger
	now func() time.Time
}

func NewSimulated(log zerolog.Logger) *Simulated {
	log.Warn().Msg("using simulated verification provider; results are not real")
	return &Simulated{log: log, now: func() time.Time { return time.Now().UTC() }}
}

func (s *Simulated) Name() string { return "simulated" }

func (s *Simulated) VerifyPhone(ctx context.Context, phone string) (domain.VerificationOutcome, error) {
	phone, err := domain.NormalizePhone(phone)
	if err != nil {
		return domain.VerificationOutcome{}, err
	}
	return s.outcome(ctx, domain.CheckPhone, phone, map[string]string{"phone_number": phone})
}

func (s *Simulated) VerifyNationalID(ctx context.Context, nin, firstName, lastName string) (domain.VerificationOutcome, error) {
	if err := checkNIN(nin); err != nil {
		return domain.VerificationOutcome{}, err
	}
	return s.outcome(ctx, domain.CheckNIN, nin, map[string]string{"first_name": firstName, "last_name": lastName})
}

func (s *Simulated) VerifyBVN(ctx context.Context, bvn, firstName, lastName string) (domain.VerificationOutcome, error) {
	if err := checkBVN(bvn); err != nil {
		return domain.VerificationOutcome{}, err
	}
	return s.outcome(ctx, domain.CheckBVN, bvn, map[string]string{"first_name": firstName, "last_name": lastName})
}

func (s *Simulated) VerifyBankAccount(ctx context.Context, accountNumber, bankCode string) (domain.VerificationOutcome, error) {
	return s.outcome(ctx, domain.CheckBankAccount, accountNumber, map[string]string{
		"bank_name":    "Simulated Bank " + bankCode,
		"account_name": "SIMULATED ACCOUNT HOLDER",
	})
}

func (s *Simulated) VerifyBusiness(ctx context.Context, registrationNumber, businessName, countryCode string) (domain.VerificationOutcome, error) {
	return s.outcome(ctx, domain.CheckBusiness, registrationNumber, map[string]string{
		"company_name":        businessName,
		"registration_number": registrationNumber,
		"country_code":        countryCode,
	})
}

func (s *Simulated) outcome(ctx context.Context, check domain.Check, subject string, fields map[string]string) (domain.VerificationOutcome, error) {
	if err := ctx.Err(); err != nil {
		return domain.VerificationOutcome{}, fmt.Errorf("%s check: %w: %v", check, domain.ErrProviderUnavailable, err)
	}

	switch {
	case strings.HasSuffix(subject, "9999"):
		return domain.VerificationOutcome{}, fmt.Errorf("%s check: %w: simulated outage", check, domain.ErrProviderUnavailable)
	case strings.HasSuffix(subject, "0000"):
		return domain.VerificationOutcome{Result: domain.OutcomeNotFound, VerifiedAt: s.now()}, nil
	}

	return domain.VerificationOutcome{
		Result:     domain.OutcomeFound,
		Reference:  "sim-" + string(check) + "-" + subject,
		Fields:     fields,
		VerifiedAt: s.now(),
	}, nil
}
