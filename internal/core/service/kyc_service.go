package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/rentahome/kyc-service/internal/api/metrics"
	"github.com/rentahome/kyc-service/internal/core/domain"
	"github.com/rentahome/kyc-service/internal/core/ports"
	"github.com/rentahome/kyc-service/pkg/logger"
)

const (
	defaultCountryCode   = "NG"
	defaultEmailTokenTTL = 24 * time.Hour
	defaultPresignTTL    = 15 * time.Minute
	defaultDocumentDir   = "kyc/utility-bills"
)

// KYCConfig holds orchestrator settings. Zero values fall back to defaults.
type KYCConfig struct {
	CountryCode      string
	EmailTokenTTL    time.Duration
	VerifyURL        string
	DocumentFolder   string
	MaxDocumentBytes int64
	PresignTTL       time.Duration
}

// KYCDeps are the collaborators the orchestrator drives.
type KYCDeps struct {
	Identities ports.IdentityRepository
	Users      ports.UserDirectory
	Verifier   ports.Verifier
	Documents  ports.DocumentStore
	Locker     ports.SubmissionLocker
	Tokens     ports.EmailTokenStore
	Mailer     ports.Mailer
	Sink       ports.CompletionSink
}

// KYCService implements ports.KYCService. All writes to a UserIdentity go
// through mutate, which holds the per-user lock and persists with a version
// check.
type KYCService struct {
	deps KYCDeps
	cfg  KYCConfig
	log  zerolog.Logger
	now  func() time.Time
}

func NewKYCService(deps KYCDeps, cfg KYCConfig, log zerolog.Logger) *KYCService {
	if cfg.CountryCode == "" {
		cfg.CountryCode = defaultCountryCode
	}
	if cfg.EmailTokenTTL <= 0 {
		cfg.EmailTokenTTL = defaultEmailTokenTTL
	}
	if cfg.PresignTTL <= 0 {
		cfg.PresignTTL = defaultPresignTTL
	}
	if cfg.DocumentFolder == "" {
		cfg.DocumentFolder = defaultDocumentDir
	}
	if cfg.MaxDocumentBytes <= 0 {
		cfg.MaxDocumentBytes = defaultMaxDocumentBytes
	}
	return &KYCService{
		deps: deps,
		cfg:  cfg,
		log:  log,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Status returns the caller's tiers. A user who never started gets an unsaved
// not_started record.
func (s *KYCService) Status(ctx context.Context, actor ports.Actor) (*ports.StatusView, error) {
	id, err := s.deps.Identities.FindByUserID(ctx, actor.UserID)
	switch {
	case errors.Is(err, domain.ErrIdentityNotFound):
		id = domain.NewUserIdentity(actor.UserID, actor.Role, s.now())
	case err != nil:
		return nil, fmt.Errorf("kyc status: %w", err)
	}
	id.Role = actor.Role
	return s.view(id), nil
}

// SubmitTier1 verifies phone and NIN together. Either check failing leaves
// every flag untouched.
func (s *KYCService) SubmitTier1(ctx context.Context, in ports.Tier1Input) (*ports.StatusView, error) {
	phone, nin, err := validateTier1(in.PhoneNumber, in.NIN)
	if err != nil {
		return nil, err
	}

	user, err := s.deps.Users.FindByID(ctx, in.Actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("submit tier1: %w", err)
	}

	id, err := s.mutate(ctx, in.Actor.UserID, in.Actor.Role, true, func(id *domain.UserIdentity) (bool, error) {
		if err := checkImmutable(id, phone, nin); err != nil {
			return false, err
		}

		// A phone already verified on file is not re-sent to the provider.
		skipPhone := id.Tier1.PhoneVerified && id.Tier1.PhoneNumber == phone

		var phoneRes, ninRes checkResult
		var g errgroup.Group
		if !skipPhone {
			g.Go(func() error {
				phoneRes = s.verify(ctx, domain.CheckPhone, func(ctx context.Context) (domain.VerificationOutcome, error) {
					return s.deps.Verifier.VerifyPhone(ctx, phone)
				})
				return nil
			})
		}
		g.Go(func() error {
			ninRes = s.verify(ctx, domain.CheckNIN, func(ctx context.Context) (domain.VerificationOutcome, error) {
				return s.deps.Verifier.VerifyNationalID(ctx, nin, user.FirstName, user.LastName)
			})
			return nil
		})
		_ = g.Wait()

		if err := atomicOutcome(phoneRes, ninRes); err != nil {
			return false, err
		}

		if !skipPhone {
			id.Tier1.PhoneVerified = true
			id.Tier1.PhoneNumber = phone
			id.Tier1.PhoneEvidence = phoneRes.outcome.Evidence(s.deps.Verifier.Name())
		}
		id.Tier1.NINVerified = true
		id.Tier1.NIN = &nin
		id.Tier1.NINEvidence = ninRes.outcome.Evidence(s.deps.Verifier.Name())
		id.ApplyTier1(s.now())
		return true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("submit tier1: %w", err)
	}
	return s.view(id), nil
}

// SubmitPhone is the phone-only leg of tier1.
func (s *KYCService) SubmitPhone(ctx context.Context, actor ports.Actor, phoneNumber string) (*ports.StatusView, error) {
	phone, err := domain.NormalizePhone(phoneNumber)
	if err != nil {
		return nil, err
	}

	id, err := s.mutate(ctx, actor.UserID, actor.Role, true, func(id *domain.UserIdentity) (bool, error) {
		if id.Tier1.Status == domain.StatusVerified && id.Tier1.PhoneNumber != phone {
			return false, &domain.ImmutableFieldError{Field: "phone_number"}
		}
		if id.Tier1.PhoneVerified && id.Tier1.PhoneNumber == phone {
			return false, nil
		}

		res := s.verify(ctx, domain.CheckPhone, func(ctx context.Context) (domain.VerificationOutcome, error) {
			return s.deps.Verifier.VerifyPhone(ctx, phone)
		})
		if err := atomicOutcome(res); err != nil {
			return false, err
		}

		id.Tier1.PhoneVerified = true
		id.Tier1.PhoneNumber = phone
		id.Tier1.PhoneEvidence = res.outcome.Evidence(s.deps.Verifier.Name())
		id.ApplyTier1(s.now())
		return true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("submit phone: %w", err)
	}
	return s.view(id), nil
}

// RequestEmailVerification mails a single-use confirmation link. Only the
// SHA-256 of the token is stored.
func (s *KYCService) RequestEmailVerification(ctx context.Context, actor ports.Actor) error {
	id, err := s.deps.Identities.FindByUserID(ctx, actor.UserID)
	if err != nil && !errors.Is(err, domain.ErrIdentityNotFound) {
		return fmt.Errorf("request email verification: %w", err)
	}
	if id != nil && id.Tier1.EmailVerified {
		return domain.ErrEmailVerified
	}

	user, err := s.deps.Users.FindByID(ctx, actor.UserID)
	if err != nil {
		return fmt.Errorf("request email verification: %w", err)
	}

	token, err := newToken()
	if err != nil {
		return fmt.Errorf("request email verification: %w", err)
	}
	if err := s.deps.Tokens.Save(ctx, hashToken(token), user.ID, s.cfg.EmailTokenTTL); err != nil {
		return fmt.Errorf("request email verification: store token: %w", err)
	}

	body := fmt.Sprintf(
		"Hello %s,\n\nConfirm your email address by opening the link below:\n\n%s?token=%s\n\nThe link expires in %s.\n",
		user.FirstName, s.cfg.VerifyURL, token, s.cfg.EmailTokenTTL,
	)
	if err := s.deps.Mailer.Send(ctx, user.Email, "Verify your email address", body); err != nil {
		metrics.SideEffectsTotal.WithLabelValues("email", "error").Inc()
		s.log.Warn().Err(err).Str("user_id", user.ID).Msg("verification email not sent")
		return fmt.Errorf("request email verification: %w", domain.ErrNotificationFailed)
	}
	metrics.SideEffectsTotal.WithLabelValues("email", "ok").Inc()
	return nil
}

// ConfirmEmail sets the email flag through the same recompute path as the
// phone and NIN legs. The token is consumed only after the write succeeds.
func (s *KYCService) ConfirmEmail(ctx context.Context, token string) (*ports.StatusView, error) {
	if token == "" {
		return nil, domain.NewValidationError("token", "is required")
	}

	hash := hashToken(token)
	userID, err := s.deps.Tokens.Lookup(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("confirm email: %w", err)
	}
	user, err := s.deps.Users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("confirm email: %w", err)
	}

	id, err := s.mutate(ctx, user.ID, user.Role, true, func(id *domain.UserIdentity) (bool, error) {
		if id.Tier1.EmailVerified {
			return false, nil
		}
		id.Tier1.EmailVerified = true
		id.ApplyTier1(s.now())
		return true, nil
	})
	if err != nil {
		// The token stays valid so the caller can retry.
		return nil, fmt.Errorf("confirm email: %w", err)
	}
	if err := s.deps.Tokens.Consume(ctx, hash); err != nil && !errors.Is(err, domain.ErrInvalidToken) {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("email token not deleted; it expires on its own")
	}
	return s.view(id), nil
}

// SubmitTier2 stores a utility bill and queues it for manual review.
func (s *KYCService) SubmitTier2(ctx context.Context, in ports.Tier2Input) (*ports.StatusView, error) {
	if err := validateTier2(in, s.cfg.MaxDocumentBytes); err != nil {
		return nil, err
	}

	id, err := s.mutate(ctx, in.Actor.UserID, in.Actor.Role, true, func(id *domain.UserIdentity) (bool, error) {
		if err := domain.EnsureCanEnter(domain.Tier2, id.Statuses()); err != nil {
			return false, err
		}
		if id.Tier2.Status == domain.StatusVerified {
			return false, domain.ErrTierAlreadyVerified
		}

		stored, err := s.deps.Documents.Store(ctx, in.Document, s.cfg.DocumentFolder+"/"+in.Actor.UserID)
		if err != nil {
			s.log.Error().Err(err).Str("user_id", in.Actor.UserID).Msg("utility bill upload failed")
			return false, domain.ErrUploadFailed
		}

		now := s.now()
		id.Tier2.UtilityBill = &domain.UtilityBill{
			DocumentRef:  stored.Ref,
			DocumentURL:  stored.URL,
			DocumentType: in.DocumentType,
			UploadedAt:   now,
			ReviewStatus: domain.StatusPending,
		}
		id.Tier2.Status = domain.StatusPending
		id.Tier2.CompletedAt = nil
		id.UpdatedAt = now
		return true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("submit tier2: %w", err)
	}
	return s.view(id), nil
}

// ReviewTier2 records a reviewer decision on a pending utility bill.
func (s *KYCService) ReviewTier2(ctx context.Context, in ports.Tier2ReviewInput) (*ports.StatusView, error) {
	var next domain.TierStatus
	switch in.Decision {
	case domain.DecisionApprove:
		next = domain.StatusVerified
	case domain.DecisionReject:
		next = domain.StatusRejected
	default:
		return nil, domain.NewValidationError("decision", "must be one of: approve, reject")
	}

	id, err := s.mutate(ctx, in.UserID, "", false, func(id *domain.UserIdentity) (bool, error) {
		if id.Tier2.Status != domain.StatusPending || id.Tier2.UtilityBill == nil || !id.Tier2.Status.CanTransitionTo(next) {
			return false, fmt.Errorf("%w: tier2 is %s", domain.ErrInvalidTransition, id.Tier2.Status)
		}
		if next == domain.StatusVerified {
			if err := domain.EnsureCanEnter(domain.Tier2, id.Statuses()); err != nil {
				return false, err
			}
		}

		now := s.now()
		bill := id.Tier2.UtilityBill
		bill.ReviewStatus = next
		bill.ReviewerID = in.ReviewerID
		bill.ReviewedAt = &now
		bill.ReviewerNotes = in.Notes
		id.Tier2.Status = next
		if next == domain.StatusVerified {
			id.Tier2.CompletedAt = &now
		}
		id.UpdatedAt = now
		return true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("review tier2: %w", err)
	}

	s.log.Info().
		Str("user_id", in.UserID).
		Str("reviewer_id", in.ReviewerID).
		Str("decision", in.Decision).
		Msg("tier2 reviewed")
	return s.view(id), nil
}

// SubmitTier3 runs the BVN, bank account and business sub-checks
// concurrently. Each sub-check is recorded on its own; the tier status is
// recomputed once all three have finished.
func (s *KYCService) SubmitTier3(ctx context.Context, in ports.Tier3Input) (*ports.Tier3Result, error) {
	f, err := validateTier3(in)
	if err != nil {
		return nil, err
	}

	user, err := s.deps.Users.FindByID(ctx, in.Actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("submit tier3: %w", err)
	}

	checks := make(map[domain.Check]ports.SubCheckResult, 3)
	id, err := s.mutate(ctx, in.Actor.UserID, in.Actor.Role, true, func(id *domain.UserIdentity) (bool, error) {
		if err := domain.EnsureCanEnter(domain.Tier3, id.Statuses()); err != nil {
			return false, err
		}
		if id.Tier3.Status == domain.StatusVerified {
			return false, domain.ErrTierAlreadyVerified
		}

		t3 := &id.Tier3
		var bvnRes, bankRes, bizRes checkResult
		var g errgroup.Group

		bvnDone := t3.BVN.ReviewStatus == domain.StatusVerified && t3.BVN.Value == f.bvn
		if !bvnDone {
			g.Go(func() error {
				bvnRes = s.verify(ctx, domain.CheckBVN, func(ctx context.Context) (domain.VerificationOutcome, error) {
					return s.deps.Verifier.VerifyBVN(ctx, f.bvn, user.FirstName, user.LastName)
				})
				return nil
			})
		}

		bankDone := t3.BankAccount.ReviewStatus == domain.StatusVerified &&
			t3.BankAccount.AccountNumber == f.accountNumber && t3.BankAccount.BankCode == f.bankCode
		if !bankDone {
			g.Go(func() error {
				bankRes = s.verify(ctx, domain.CheckBankAccount, func(ctx context.Context) (domain.VerificationOutcome, error) {
					return s.deps.Verifier.VerifyBankAccount(ctx, f.accountNumber, f.bankCode)
				})
				return nil
			})
		}

		bizDone := t3.Business.ReviewStatus == domain.StatusVerified && t3.Business.Name == f.businessName &&
			t3.Business.Type == f.businessType && t3.Business.RegistrationNumber == f.registrationNumber
		registry := domain.RequiresRegistryCheck(f.businessType)
		if !bizDone && registry {
			g.Go(func() error {
				bizRes = s.verify(ctx, domain.CheckBusiness, func(ctx context.Context) (domain.VerificationOutcome, error) {
					return s.deps.Verifier.VerifyBusiness(ctx, f.registrationNumber, f.businessName, s.cfg.CountryCode)
				})
				return nil
			})
		}
		_ = g.Wait()

		now := s.now()
		provider := s.deps.Verifier.Name()

		if bvnDone {
			checks[domain.CheckBVN] = ports.SubCheckResult{Status: domain.StatusVerified, Skipped: true}
		} else {
			t3.BVN.Value = f.bvn
			t3.BVN.ReviewStatus, t3.BVN.Evidence = settle(bvnRes, provider)
			checks[domain.CheckBVN] = bvnRes.summary(t3.BVN.ReviewStatus)
		}

		if bankDone {
			checks[domain.CheckBankAccount] = ports.SubCheckResult{Status: domain.StatusVerified, Skipped: true}
		} else {
			t3.BankAccount.AccountNumber = f.accountNumber
			t3.BankAccount.BankCode = f.bankCode
			t3.BankAccount.ReviewStatus, t3.BankAccount.Evidence = settle(bankRes, provider)
			if t3.BankAccount.ReviewStatus == domain.StatusVerified {
				t3.BankAccount.BankName = bankRes.outcome.Fields["bank_name"]
				t3.BankAccount.AccountName = bankRes.outcome.Fields["account_name"]
			}
			checks[domain.CheckBankAccount] = bankRes.summary(t3.BankAccount.ReviewStatus)
		}

		switch {
		case bizDone:
			checks[domain.CheckBusiness] = ports.SubCheckResult{Status: domain.StatusVerified, Skipped: true}
		case !registry:
			t3.Business.Name, t3.Business.Type, t3.Business.RegistrationNumber = f.businessName, f.businessType, f.registrationNumber
			t3.Business.ReviewStatus = domain.StatusVerified
			t3.Business.Evidence = &domain.Evidence{Provider: provider, Skipped: true, VerifiedAt: now}
			checks[domain.CheckBusiness] = ports.SubCheckResult{
				Status:  domain.StatusVerified,
				Skipped: true,
				Reason:  "registry check not required for " + f.businessType,
			}
		default:
			t3.Business.Name, t3.Business.Type, t3.Business.RegistrationNumber = f.businessName, f.businessType, f.registrationNumber
			if bizRes.err == nil && bizRes.outcome.Matched() {
				if registered := bizRes.outcome.Fields["company_name"]; registered != "" && !domain.NamesMatch(registered, f.businessName) {
					bizRes.mismatch = true
				}
			}
			t3.Business.ReviewStatus, t3.Business.Evidence = settle(bizRes, provider)
			checks[domain.CheckBusiness] = bizRes.summary(t3.Business.ReviewStatus)
		}

		id.ApplyTier3(now)
		return true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("submit tier3: %w", err)
	}
	return &ports.Tier3Result{StatusView: *s.view(id), Checks: checks}, nil
}

// AdminView returns a user's record with a presigned link to the utility
// bill. A signing failure leaves the link empty.
func (s *KYCService) AdminView(ctx context.Context, userID string) (*ports.AdminIdentityView, error) {
	id, err := s.deps.Identities.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("admin view: %w", err)
	}

	out := &ports.AdminIdentityView{StatusView: *s.view(id)}
	if bill := id.Tier2.UtilityBill; bill != nil && bill.DocumentRef != "" {
		url, err := s.deps.Documents.PresignURL(ctx, bill.DocumentRef, s.cfg.PresignTTL)
		if err != nil {
			s.log.Warn().Err(err).Str("user_id", userID).Msg("presign utility bill failed")
		} else {
			out.DocumentURL = url
			out.URLExpires = s.now().Add(s.cfg.PresignTTL)
		}
	}
	return out, nil
}

// OverridePhone is the support-mediated path for changing a phone number
// locked by a verified tier1. The new number must be verified again.
func (s *KYCService) OverridePhone(ctx context.Context, adminID, userID, phoneNumber string) (*ports.StatusView, error) {
	phone, err := domain.NormalizePhone(phoneNumber)
	if err != nil {
		return nil, err
	}

	id, err := s.mutate(ctx, userID, "", false, func(id *domain.UserIdentity) (bool, error) {
		if id.Tier1.PhoneNumber == phone {
			return false, nil
		}
		id.Tier1.PhoneNumber = phone
		id.Tier1.PhoneVerified = false
		id.Tier1.PhoneEvidence = nil
		id.ApplyTier1(s.now())
		return true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("override phone: %w", err)
	}

	s.log.Info().
		Str("user_id", userID).
		Str("admin_id", adminID).
		Str("phone", logger.Mask(phone)).
		Msg("phone number overridden")
	return s.view(id), nil
}

// mutate loads the user's identity under the submission lock, applies fn and
// persists the result when fn reports a change. Tiers that reach verified
// for the first time are handed to the completion sink after the write; a
// tier reopened by an override and verified again is not.
func (s *KYCService) mutate(
	ctx context.Context,
	userID, role string,
	create bool,
	fn func(id *domain.UserIdentity) (bool, error),
) (*domain.UserIdentity, error) {
	unlock, err := s.deps.Locker.Lock(ctx, userID)
	switch {
	case errors.Is(err, domain.ErrConflict):
		return nil, err
	case err != nil:
		// The version check on Save still guards the write.
		s.log.Warn().Err(err).Str("user_id", userID).Msg("submission lock unavailable")
	default:
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				s.log.Warn().Err(err).Str("user_id", userID).Msg("release submission lock")
			}
		}()
	}

	id, err := s.deps.Identities.FindByUserID(ctx, userID)
	switch {
	case errors.Is(err, domain.ErrIdentityNotFound) && create:
		id = domain.NewUserIdentity(userID, role, s.now())
	case err != nil:
		return nil, err
	}
	if role != "" {
		id.Role = role
	}

	before := id.Statuses()
	completed := make(map[domain.Tier]bool, len(domain.AllTiers))
	for _, t := range domain.AllTiers {
		completed[t] = id.CompletedAt(t) != nil
	}
	changed, err := fn(id)
	if err != nil {
		return nil, err
	}
	if !changed {
		return id, nil
	}

	if err := s.deps.Identities.Save(ctx, id); err != nil {
		return nil, err
	}

	for _, t := range domain.AllTiers {
		after := id.Status(t)
		if after == before[t] {
			continue
		}
		metrics.TierTransitionsTotal.WithLabelValues(string(t), string(after)).Inc()
		s.log.Info().
			Str("user_id", userID).
			Str("tier", string(t)).
			Str("from", string(before[t])).
			Str("to", string(after)).
			Msg("tier status changed")
		if after == domain.StatusVerified && !completed[t] {
			s.deps.Sink.Enqueue(domain.CompletionEvent{
				UserID:     userID,
				Role:       id.Role,
				Tier:       t,
				OccurredAt: s.now(),
			})
		}
	}
	return id, nil
}

func (s *KYCService) view(id *domain.UserIdentity) *ports.StatusView {
	return &ports.StatusView{
		Identity:      id,
		RequiredTiers: domain.RequiredTiers(id.Role),
		OverallStatus: domain.ComputeOverallStatus(id.Role, id.Statuses()),
	}
}

// checkResult is the outcome of one provider call made during a submission.
type checkResult struct {
	check    domain.Check
	outcome  domain.VerificationOutcome
	err      error
	mismatch bool
}

func (r checkResult) summary(status domain.TierStatus) ports.SubCheckResult {
	out := ports.SubCheckResult{Status: status}
	switch {
	case r.err != nil:
		out.Reason = "provider unavailable, try again later"
	case r.mismatch:
		out.Reason = "registered name does not match"
	case !r.outcome.Matched():
		out.Reason = "no matching record found"
	}
	return out
}

// settle maps a sub-check result onto a status. An unavailable provider
// leaves the sub-check pending; only a definitive answer rejects.
func settle(r checkResult, provider string) (domain.TierStatus, *domain.Evidence) {
	switch {
	case r.err != nil:
		return domain.StatusPending, nil
	case r.mismatch || !r.outcome.Matched():
		return domain.StatusRejected, nil
	default:
		return domain.StatusVerified, r.outcome.Evidence(provider)
	}
}

func (s *KYCService) verify(
	ctx context.Context,
	check domain.Check,
	call func(ctx context.Context) (domain.VerificationOutcome, error),
) checkResult {
	start := time.Now()
	out, err := call(ctx)
	metrics.ProviderCallDuration.WithLabelValues(string(check)).Observe(time.Since(start).Seconds())

	result := string(out.Result)
	if err != nil {
		result = "unavailable"
	}
	metrics.ProviderCallsTotal.WithLabelValues(string(check), result).Inc()

	s.log.Debug().
		Str("check", string(check)).
		Str("result", result).
		Dur("took", time.Since(start)).
		Msg("provider check finished")

	return checkResult{check: check, outcome: out, err: err}
}

// atomicOutcome folds the results of an all-or-nothing submission. A
// definitive not_found wins over an outage so the user learns which fact to
// fix. Results for checks that did not run are ignored.
func atomicOutcome(results ...checkResult) error {
	var failed, unavailable []domain.Check
	var causes []error
	for _, r := range results {
		if r.check == "" {
			continue
		}
		switch {
		case r.err != nil:
			unavailable = append(unavailable, r.check)
			causes = append(causes, r.err)
		case !r.outcome.Matched():
			failed = append(failed, r.check)
		}
	}
	if len(failed) > 0 {
		return &domain.VerificationFailedError{Checks: failed}
	}
	if len(unavailable) > 0 {
		return &domain.ProviderUnavailableError{Checks: unavailable, Cause: errors.Join(causes...)}
	}
	return nil
}

// checkImmutable enforces that a verified tier1 locks both the phone number
// and the NIN. Changing either goes through OverridePhone.
func checkImmutable(id *domain.UserIdentity, phone, nin string) error {
	if id.Tier1.Status != domain.StatusVerified {
		return nil
	}
	if id.Tier1.PhoneNumber != "" && id.Tier1.PhoneNumber != phone {
		return &domain.ImmutableFieldError{Field: "phone_number"}
	}
	if id.Tier1.NIN != nil && *id.Tier1.NIN != nin {
		return &domain.ImmutableFieldError{Field: "nin"}
	}
	return nil
}

func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
