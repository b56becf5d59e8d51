package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentahome/kyc-service/internal/core/domain"
	"github.com/rentahome/kyc-service/internal/core/ports"
)

// ── stubs ────────────────────────────────────────────────────────────────────

type stubIdentityRepo struct {
	mu    sync.Mutex
	items map[string]*domain.UserIdentity
	saves int
}

func newStubIdentityRepo() *stubIdentityRepo {
	return &stubIdentityRepo{items: make(map[string]*domain.UserIdentity)}
}

func (r *stubIdentityRepo) FindByUserID(_ context.Context, userID string) (*domain.UserIdentity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.items[userID]
	if !ok {
		return nil, domain.ErrIdentityNotFound
	}
	return id.Clone(), nil
}

func (r *stubIdentityRepo) Save(_ context.Context, id *domain.UserIdentity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var current int64
	if stored, ok := r.items[id.UserID]; ok {
		current = stored.Version
	}
	if current != id.Version {
		return domain.ErrConflict
	}
	id.Version++
	r.items[id.UserID] = id.Clone()
	r.saves++
	return nil
}

func (r *stubIdentityRepo) put(id *domain.UserIdentity) {
	id.Version = 1
	r.items[id.UserID] = id.Clone()
}

type stubResult struct {
	result domain.OutcomeResult
	err    error
	fields map[string]string
}

type stubVerifier struct {
	mu      sync.Mutex
	calls   map[domain.Check]int
	results map[domain.Check]stubResult
}

func newStubVerifier() *stubVerifier {
	return &stubVerifier{
		calls:   make(map[domain.Check]int),
		results: make(map[domain.Check]stubResult),
	}
}

func (v *stubVerifier) set(check domain.Check, r stubResult) { v.results[check] = r }

func (v *stubVerifier) count(check domain.Check) int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.calls[check]
}

func (v *stubVerifier) do(check domain.Check) (domain.VerificationOutcome, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.calls[check]++
	r, ok := v.results[check]
	if !ok {
		r = stubResult{result: domain.OutcomeFound}
	}
	if r.err != nil {
		return domain.VerificationOutcome{}, r.err
	}
	return domain.VerificationOutcome{
		Result:     r.result,
		Reference:  "ref-" + string(check),
		Fields:     r.fields,
		VerifiedAt: time.Now().UTC(),
	}, nil
}

func (v *stubVerifier) Name() string { return "stub" }

func (v *stubVerifier) VerifyPhone(context.Context, string) (domain.VerificationOutcome, error) {
	return v.do(domain.CheckPhone)
}

func (v *stubVerifier) VerifyNationalID(context.Context, string, string, string) (domain.VerificationOutcome, error) {
	return v.do(domain.CheckNIN)
}

func (v *stubVerifier) VerifyBVN(context.Context, string, string, string) (domain.VerificationOutcome, error) {
	return v.do(domain.CheckBVN)
}

func (v *stubVerifier) VerifyBankAccount(context.Context, string, string) (domain.VerificationOutcome, error) {
	return v.do(domain.CheckBankAccount)
}

func (v *stubVerifier) VerifyBusiness(context.Context, string, string, string) (domain.VerificationOutcome, error) {
	return v.do(domain.CheckBusiness)
}

type stubDocuments struct {
	err    error
	stored []string
}

func (d *stubDocuments) Store(_ context.Context, doc ports.Document, folder string) (ports.StoredDocument, error) {
	if d.err != nil {
		return ports.StoredDocument{}, d.err
	}
	ref := folder + "/" + doc.Filename
	d.stored = append(d.stored, ref)
	return ports.StoredDocument{Ref: ref, URL: "https://bucket/" + ref}, nil
}

func (d *stubDocuments) PresignURL(_ context.Context, ref string, _ time.Duration) (string, error) {
	return "https://signed/" + ref, nil
}

type stubLocker struct {
	held map[string]bool
	err  error
}

func (l *stubLocker) Lock(_ context.Context, userID string) (func(context.Context) error, error) {
	if l.err != nil {
		return nil, l.err
	}
	if l.held[userID] {
		return nil, domain.ErrConflict
	}
	return func(context.Context) error { return nil }, nil
}

type stubTokens struct {
	tokens map[string]string
}

func (s *stubTokens) Save(_ context.Context, hash, userID string, _ time.Duration) error {
	s.tokens[hash] = userID
	return nil
}

func (s *stubTokens) Lookup(_ context.Context, hash string) (string, error) {
	userID, ok := s.tokens[hash]
	if !ok {
		return "", domain.ErrInvalidToken
	}
	return userID, nil
}

func (s *stubTokens) Consume(_ context.Context, hash string) error {
	if _, ok := s.tokens[hash]; !ok {
		return domain.ErrInvalidToken
	}
	delete(s.tokens, hash)
	return nil
}

type stubMailer struct {
	to, body string
	err      error
}

func (m *stubMailer) Send(_ context.Context, to, _, body string) error {
	m.to, m.body = to, body
	return m.err
}

type stubSink struct {
	events []domain.CompletionEvent
}

func (s *stubSink) Enqueue(e domain.CompletionEvent) { s.events = append(s.events, e) }

// ── fixture ──────────────────────────────────────────────────────────────────

type kycFixture struct {
	svc      *KYCService
	repo     *stubIdentityRepo
	users    *stubAuthRepo
	verifier *stubVerifier
	docs     *stubDocuments
	locker   *stubLocker
	tokens   *stubTokens
	mailer   *stubMailer
	sink     *stubSink
}

func newKYCFixture(t *testing.T) *kycFixture {
	t.Helper()
	f := &kycFixture{
		repo:     newStubIdentityRepo(),
		users:    newStubAuthRepo(),
		verifier: newStubVerifier(),
		docs:     &stubDocuments{},
		locker:   &stubLocker{held: map[string]bool{}},
		tokens:   &stubTokens{tokens: map[string]string{}},
		mailer:   &stubMailer{},
		sink:     &stubSink{},
	}
	for _, u := range []*domain.User{
		{ID: "u1", Email: "ada@example.com", FirstName: "Ada", LastName: "Obi", Role: domain.RoleUser},
		{ID: "o1", Email: "owner@example.com", FirstName: "Tunde", LastName: "Bello", Role: domain.RoleOwner},
	} {
		f.users.users[u.Email] = u
	}
	f.svc = NewKYCService(KYCDeps{
		Identities: f.repo,
		Users:      f.users,
		Verifier:   f.verifier,
		Documents:  f.docs,
		Locker:     f.locker,
		Tokens:     f.tokens,
		Mailer:     f.mailer,
		Sink:       f.sink,
	}, KYCConfig{VerifyURL: "https://app.example.com/kyc/email/confirm"}, zerolog.Nop())
	return f
}

var (
	regular = ports.Actor{UserID: "u1", Role: domain.RoleUser}
	owner   = ports.Actor{UserID: "o1", Role: domain.RoleOwner}
)

func (f *kycFixture) seed(userID, role string, mod func(id *domain.UserIdentity)) {
	id := domain.NewUserIdentity(userID, role, time.Now().UTC())
	if mod != nil {
		mod(id)
	}
	f.repo.put(id)
}

func verifiedTier1(id *domain.UserIdentity) {
	nin := "12345678901"
	completed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	id.Tier1 = domain.Tier1State{
		Status:        domain.StatusVerified,
		EmailVerified: true,
		PhoneVerified: true,
		NINVerified:   true,
		PhoneNumber:   "08012345678",
		NIN:           &nin,
		CompletedAt:   &completed,
	}
}

func verifiedTier2(id *domain.UserIdentity) {
	verifiedTier1(id)
	id.Tier2 = domain.Tier2State{
		Status:      domain.StatusVerified,
		UtilityBill: &domain.UtilityBill{DocumentRef: "kyc/o1/bill.pdf", ReviewStatus: domain.StatusVerified},
	}
}

func pdf(size int64) ports.Document {
	return ports.Document{
		Body:        strings.NewReader("%PDF-1.4"),
		Size:        size,
		ContentType: "application/pdf",
		Filename:    "bill.pdf",
	}
}

func tier3Input(actor ports.Actor, businessType string) ports.Tier3Input {
	return ports.Tier3Input{
		Actor:              actor,
		BVN:                "22334455667",
		AccountNumber:      "0123456789",
		BankCode:           "058",
		BusinessName:       "Bello Homes Ltd",
		BusinessType:       businessType,
		RegistrationNumber: "RC123456",
	}
}

// ── tier1 ────────────────────────────────────────────────────────────────────

func TestSubmitTier1_FoundFoundCompletesTier(t *testing.T) {
	f := newKYCFixture(t)
	f.seed("u1", domain.RoleUser, func(id *domain.UserIdentity) {
		id.Tier1.EmailVerified = true
		id.Tier1.Status = domain.StatusPending
	})

	view, err := f.svc.SubmitTier1(context.Background(), ports.Tier1Input{
		Actor: regular, PhoneNumber: "08012345678", NIN: "12345678901",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusVerified, view.Identity.Tier1.Status)
	assert.Equal(t, domain.OverallComplete, view.OverallStatus)
	require.NotNil(t, view.Identity.Tier1.CompletedAt)
	assert.Equal(t, "08012345678", view.Identity.Tier1.PhoneNumber)

	require.Len(t, f.sink.events, 1)
	assert.Equal(t, domain.Tier1, f.sink.events[0].Tier)
	assert.Equal(t, "u1", f.sink.events[0].UserID)
}

func TestSubmitTier1_LazilyCreatesIdentity(t *testing.T) {
	f := newKYCFixture(t)

	view, err := f.svc.SubmitTier1(context.Background(), ports.Tier1Input{
		Actor: regular, PhoneNumber: "+234 801 234 5678", NIN: "12345678901",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusPending, view.Identity.Tier1.Status)
	assert.Equal(t, domain.OverallPending, view.OverallStatus)
	assert.Empty(t, f.sink.events)

	stored, err := f.repo.FindByUserID(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, stored.Tier1.PhoneVerified)
	assert.True(t, stored.Tier1.NINVerified)
	assert.EqualValues(t, 1, stored.Version)
}

func TestSubmitTier1_NotFoundLeavesFlagsUnchanged(t *testing.T) {
	f := newKYCFixture(t)
	f.seed("u1", domain.RoleUser, func(id *domain.UserIdentity) {
		id.Tier1.EmailVerified = true
		id.Tier1.Status = domain.StatusPending
	})
	f.verifier.set(domain.CheckNIN, stubResult{result: domain.OutcomeNotFound})

	_, err := f.svc.SubmitTier1(context.Background(), ports.Tier1Input{
		Actor: regular, PhoneNumber: "08012345678", NIN: "12345678901",
	})

	var failed *domain.VerificationFailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, []domain.Check{domain.CheckNIN}, failed.Checks)

	stored, err := f.repo.FindByUserID(context.Background(), "u1")
	require.NoError(t, err)
	assert.False(t, stored.Tier1.PhoneVerified)
	assert.False(t, stored.Tier1.NINVerified)
	assert.Equal(t, domain.StatusPending, stored.Tier1.Status)
	assert.Equal(t, 0, f.repo.saves)
}

func TestSubmitTier1_NotFoundWinsOverUnavailable(t *testing.T) {
	f := newKYCFixture(t)
	f.verifier.set(domain.CheckPhone, stubResult{err: domain.ErrProviderUnavailable})
	f.verifier.set(domain.CheckNIN, stubResult{result: domain.OutcomeNotFound})

	_, err := f.svc.SubmitTier1(context.Background(), ports.Tier1Input{
		Actor: regular, PhoneNumber: "08012345678", NIN: "12345678901",
	})

	var failed *domain.VerificationFailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, []domain.Check{domain.CheckNIN}, failed.Checks)
}

func TestSubmitTier1_ProviderUnavailableIsRetryable(t *testing.T) {
	f := newKYCFixture(t)
	f.seed("u1", domain.RoleUser, func(id *domain.UserIdentity) {
		id.Tier1.PhoneVerified = true
		id.Tier1.PhoneNumber = "08012345678"
		id.Tier1.Status = domain.StatusPending
	})
	f.verifier.set(domain.CheckNIN, stubResult{err: domain.ErrProviderUnavailable})

	_, err := f.svc.SubmitTier1(context.Background(), ports.Tier1Input{
		Actor: regular, PhoneNumber: "08012345678", NIN: "12345678901",
	})

	require.ErrorIs(t, err, domain.ErrProviderUnavailable)
	var unavailable *domain.ProviderUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, []domain.Check{domain.CheckNIN}, unavailable.Checks)

	stored, _ := f.repo.FindByUserID(context.Background(), "u1")
	assert.True(t, stored.Tier1.PhoneVerified, "an outage must never clear a verified flag")
	assert.False(t, stored.Tier1.NINVerified)
}

func TestSubmitTier1_VerifiedPhoneIsNotRecalled(t *testing.T) {
	f := newKYCFixture(t)
	ctx := context.Background()
	in := ports.Tier1Input{Actor: regular, PhoneNumber: "08012345678", NIN: "12345678901"}

	_, err := f.svc.SubmitTier1(ctx, in)
	require.NoError(t, err)
	_, err = f.svc.SubmitTier1(ctx, in)
	require.NoError(t, err)

	assert.Equal(t, 1, f.verifier.count(domain.CheckPhone))
	assert.Equal(t, 2, f.verifier.count(domain.CheckNIN))
}

func TestSubmitTier1_ValidationBeforeProvider(t *testing.T) {
	f := newKYCFixture(t)

	_, err := f.svc.SubmitTier1(context.Background(), ports.Tier1Input{
		Actor: regular, PhoneNumber: "12345", NIN: "123",
	})

	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	require.Len(t, ve.Fields, 2)
	assert.Equal(t, "phone_number", ve.Fields[0].Field)
	assert.Equal(t, "nin", ve.Fields[1].Field)
	assert.Zero(t, f.verifier.count(domain.CheckPhone))
	assert.Zero(t, f.verifier.count(domain.CheckNIN))
}

func TestSubmitTier1_VerifiedPhoneIsImmutable(t *testing.T) {
	f := newKYCFixture(t)
	f.seed("u1", domain.RoleUser, verifiedTier1)

	_, err := f.svc.SubmitTier1(context.Background(), ports.Tier1Input{
		Actor: regular, PhoneNumber: "08099999999", NIN: "12345678901",
	})
	var immutable *domain.ImmutableFieldError
	require.ErrorAs(t, err, &immutable)
	assert.Equal(t, "phone_number", immutable.Field)

	_, err = f.svc.SubmitPhone(context.Background(), regular, "08099999999")
	require.ErrorAs(t, err, &immutable)
	assert.Zero(t, f.verifier.count(domain.CheckPhone))
}

func TestSubmitTier1_LockConflict(t *testing.T) {
	f := newKYCFixture(t)
	f.locker.held["u1"] = true

	_, err := f.svc.SubmitTier1(context.Background(), ports.Tier1Input{
		Actor: regular, PhoneNumber: "08012345678", NIN: "12345678901",
	})
	require.ErrorIs(t, err, domain.ErrConflict)
	assert.Zero(t, f.verifier.count(domain.CheckNIN))
}

func TestSubmitTier1_LockBackendDownFallsBackToVersionCheck(t *testing.T) {
	f := newKYCFixture(t)
	f.locker.err = errors.New("redis: connection refused")

	_, err := f.svc.SubmitTier1(context.Background(), ports.Tier1Input{
		Actor: regular, PhoneNumber: "08012345678", NIN: "12345678901",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, f.repo.saves)
}

// ── split tier1 legs ─────────────────────────────────────────────────────────

func TestTier1_EmailAfterPhoneConverges(t *testing.T) {
	f := newKYCFixture(t)
	ctx := context.Background()

	_, err := f.svc.SubmitTier1(ctx, ports.Tier1Input{Actor: regular, PhoneNumber: "08012345678", NIN: "12345678901"})
	require.NoError(t, err)

	require.NoError(t, f.svc.RequestEmailVerification(ctx, regular))
	assert.Equal(t, "ada@example.com", f.mailer.to)
	token := f.mailer.body[strings.Index(f.mailer.body, "token=")+len("token="):]
	token = token[:64]

	view, err := f.svc.ConfirmEmail(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusVerified, view.Identity.Tier1.Status)
	require.Len(t, f.sink.events, 1)

	_, err = f.svc.ConfirmEmail(ctx, token)
	require.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestTier1_PhoneAfterEmailConverges(t *testing.T) {
	f := newKYCFixture(t)
	ctx := context.Background()
	f.seed("u1", domain.RoleUser, func(id *domain.UserIdentity) {
		nin := "12345678901"
		id.Tier1.EmailVerified = true
		id.Tier1.NINVerified = true
		id.Tier1.NIN = &nin
		id.Tier1.Status = domain.StatusPending
	})

	view, err := f.svc.SubmitPhone(ctx, regular, "0801 234 5678")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusVerified, view.Identity.Tier1.Status)
	require.Len(t, f.sink.events, 1)
}

func TestConfirmEmail_TokenSurvivesConflict(t *testing.T) {
	f := newKYCFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.RequestEmailVerification(ctx, regular))
	token := f.mailer.body[strings.Index(f.mailer.body, "token=")+len("token="):][:64]

	f.locker.held["u1"] = true
	_, err := f.svc.ConfirmEmail(ctx, token)
	require.ErrorIs(t, err, domain.ErrConflict)
	assert.Len(t, f.tokens.tokens, 1, "token must stay usable after a failed write")

	f.locker.held["u1"] = false
	view, err := f.svc.ConfirmEmail(ctx, token)
	require.NoError(t, err)
	assert.True(t, view.Identity.Tier1.EmailVerified)
	assert.Empty(t, f.tokens.tokens)
}

func TestRequestEmailVerification_AlreadyVerified(t *testing.T) {
	f := newKYCFixture(t)
	f.seed("u1", domain.RoleUser, verifiedTier1)

	err := f.svc.RequestEmailVerification(context.Background(), regular)
	require.ErrorIs(t, err, domain.ErrEmailVerified)
	assert.Empty(t, f.tokens.tokens)
}

func TestRequestEmailVerification_StoresOnlyHash(t *testing.T) {
	f := newKYCFixture(t)

	require.NoError(t, f.svc.RequestEmailVerification(context.Background(), regular))
	require.Len(t, f.tokens.tokens, 1)
	for hash := range f.tokens.tokens {
		assert.NotContains(t, f.mailer.body, hash)
		assert.Len(t, hash, 64)
	}
}

// ── tier2 ────────────────────────────────────────────────────────────────────

func TestSubmitTier2_RequiresTier1(t *testing.T) {
	f := newKYCFixture(t)
	f.seed("o1", domain.RoleOwner, nil)

	_, err := f.svc.SubmitTier2(context.Background(), ports.Tier2Input{
		Actor: owner, DocumentType: "electricity_bill", Document: pdf(1024),
	})

	var pre *domain.PreconditionError
	require.ErrorAs(t, err, &pre)
	assert.Equal(t, domain.Tier1, pre.Missing)
	assert.Empty(t, f.docs.stored)

	stored, _ := f.repo.FindByUserID(context.Background(), "o1")
	assert.Equal(t, domain.StatusNotStarted, stored.Tier2.Status)
	assert.Nil(t, stored.Tier2.UtilityBill)
}

func TestSubmitTier2_PendingThenReview(t *testing.T) {
	f := newKYCFixture(t)
	ctx := context.Background()
	f.seed("o1", domain.RoleOwner, verifiedTier1)

	view, err := f.svc.SubmitTier2(ctx, ports.Tier2Input{
		Actor: owner, DocumentType: "water_bill", Document: pdf(2048),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, view.Identity.Tier2.Status)
	assert.Equal(t, domain.OverallPending, view.OverallStatus)
	require.NotNil(t, view.Identity.Tier2.UtilityBill)
	assert.Equal(t, "water_bill", view.Identity.Tier2.UtilityBill.DocumentType)

	view, err = f.svc.ReviewTier2(ctx, ports.Tier2ReviewInput{
		ReviewerID: "admin-1", UserID: "o1", Decision: domain.DecisionApprove, Notes: "ok",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusVerified, view.Identity.Tier2.Status)
	assert.Equal(t, domain.OverallComplete, view.OverallStatus)
	assert.Equal(t, "admin-1", view.Identity.Tier2.UtilityBill.ReviewerID)
	require.Len(t, f.sink.events, 1)
	assert.Equal(t, domain.Tier2, f.sink.events[0].Tier)
}

func TestSubmitTier2_ResubmitResetsReview(t *testing.T) {
	f := newKYCFixture(t)
	ctx := context.Background()
	f.seed("o1", domain.RoleOwner, func(id *domain.UserIdentity) {
		verifiedTier1(id)
		reviewed := time.Now().UTC()
		id.Tier2 = domain.Tier2State{
			Status: domain.StatusRejected,
			UtilityBill: &domain.UtilityBill{
				DocumentRef: "old", ReviewStatus: domain.StatusRejected,
				ReviewerID: "admin-1", ReviewedAt: &reviewed, ReviewerNotes: "blurry",
			},
		}
	})

	view, err := f.svc.SubmitTier2(ctx, ports.Tier2Input{Actor: owner, DocumentType: "gas_bill", Document: pdf(10)})
	require.NoError(t, err)

	bill := view.Identity.Tier2.UtilityBill
	assert.Equal(t, domain.StatusPending, view.Identity.Tier2.Status)
	assert.Empty(t, bill.ReviewerID)
	assert.Nil(t, bill.ReviewedAt)
	assert.Empty(t, bill.ReviewerNotes)
	assert.NotEqual(t, "old", bill.DocumentRef)
}

func TestSubmitTier2_UploadFailureRecordsNothing(t *testing.T) {
	f := newKYCFixture(t)
	f.seed("o1", domain.RoleOwner, verifiedTier1)
	f.docs.err = errors.New("s3: access denied")

	_, err := f.svc.SubmitTier2(context.Background(), ports.Tier2Input{
		Actor: owner, DocumentType: "electricity_bill", Document: pdf(1024),
	})
	require.ErrorIs(t, err, domain.ErrUploadFailed)

	stored, _ := f.repo.FindByUserID(context.Background(), "o1")
	assert.Nil(t, stored.Tier2.UtilityBill)
	assert.Equal(t, 0, f.repo.saves)
}

func TestSubmitTier2_Validation(t *testing.T) {
	f := newKYCFixture(t)
	doc := pdf(6 << 20)
	doc.ContentType = "text/plain"

	_, err := f.svc.SubmitTier2(context.Background(), ports.Tier2Input{Actor: owner, DocumentType: "selfie", Document: doc})

	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Fields, 3)
}

func TestReviewTier2_OnlyPending(t *testing.T) {
	f := newKYCFixture(t)
	f.seed("o1", domain.RoleOwner, verifiedTier1)

	_, err := f.svc.ReviewTier2(context.Background(), ports.Tier2ReviewInput{
		ReviewerID: "admin-1", UserID: "o1", Decision: domain.DecisionApprove,
	})
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
}

// ── tier3 ────────────────────────────────────────────────────────────────────

func TestSubmitTier3_RequiresTier2(t *testing.T) {
	f := newKYCFixture(t)
	f.seed("o1", domain.RoleOwner, verifiedTier1)

	_, err := f.svc.SubmitTier3(context.Background(), tier3Input(owner, domain.BusinessLimitedCompany))

	var pre *domain.PreconditionError
	require.ErrorAs(t, err, &pre)
	assert.Equal(t, domain.Tier2, pre.Missing)
	assert.Zero(t, f.verifier.count(domain.CheckBVN))
}

func TestSubmitTier3_AllVerified(t *testing.T) {
	f := newKYCFixture(t)
	f.seed("o1", domain.RoleOwner, verifiedTier2)
	f.verifier.set(domain.CheckBankAccount, stubResult{
		result: domain.OutcomeFound,
		fields: map[string]string{"bank_name": "GTBank", "account_name": "TUNDE BELLO"},
	})
	f.verifier.set(domain.CheckBusiness, stubResult{
		result: domain.OutcomeFound,
		fields: map[string]string{"company_name": "BELLO HOMES LTD"},
	})

	res, err := f.svc.SubmitTier3(context.Background(), tier3Input(owner, domain.BusinessLimitedCompany))
	require.NoError(t, err)

	assert.Equal(t, domain.StatusVerified, res.Identity.Tier3.Status)
	assert.Equal(t, "GTBank", res.Identity.Tier3.BankAccount.BankName)
	require.NotNil(t, res.Identity.Tier3.CompletedAt)
	require.Len(t, f.sink.events, 1)
	assert.Equal(t, domain.Tier3, f.sink.events[0].Tier)
}

func TestSubmitTier3_RejectedBusinessRejectsTier(t *testing.T) {
	f := newKYCFixture(t)
	f.seed("o1", domain.RoleOwner, verifiedTier2)
	f.verifier.set(domain.CheckBusiness, stubResult{
		result: domain.OutcomeFound,
		fields: map[string]string{"company_name": "Someone Else Ltd"},
	})

	res, err := f.svc.SubmitTier3(context.Background(), tier3Input(owner, domain.BusinessPublicCompany))
	require.NoError(t, err)

	assert.Equal(t, domain.StatusVerified, res.Checks[domain.CheckBVN].Status)
	assert.Equal(t, domain.StatusVerified, res.Checks[domain.CheckBankAccount].Status)
	assert.Equal(t, domain.StatusRejected, res.Checks[domain.CheckBusiness].Status)
	assert.Equal(t, domain.StatusRejected, res.Identity.Tier3.Status)
	assert.Empty(t, f.sink.events)
}

func TestSubmitTier3_UnavailableSubCheckDoesNotBlockOthers(t *testing.T) {
	f := newKYCFixture(t)
	f.seed("o1", domain.RoleOwner, verifiedTier2)
	f.verifier.set(domain.CheckBankAccount, stubResult{err: domain.ErrProviderUnavailable})

	res, err := f.svc.SubmitTier3(context.Background(), tier3Input(owner, domain.BusinessLimitedCompany))
	require.NoError(t, err)

	assert.Equal(t, domain.StatusVerified, res.Identity.Tier3.BVN.ReviewStatus)
	assert.Equal(t, domain.StatusVerified, res.Identity.Tier3.Business.ReviewStatus)
	assert.Equal(t, domain.StatusPending, res.Identity.Tier3.BankAccount.ReviewStatus)
	assert.Equal(t, domain.StatusPending, res.Identity.Tier3.Status)
	assert.Equal(t, 1, f.verifier.count(domain.CheckBVN))
	assert.Equal(t, 1, f.verifier.count(domain.CheckBusiness))

	// Retrying only calls the provider for the sub-check that is still open.
	f.verifier.set(domain.CheckBankAccount, stubResult{result: domain.OutcomeFound})
	res, err = f.svc.SubmitTier3(context.Background(), tier3Input(owner, domain.BusinessLimitedCompany))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusVerified, res.Identity.Tier3.Status)
	assert.Equal(t, 1, f.verifier.count(domain.CheckBVN))
	assert.Equal(t, 2, f.verifier.count(domain.CheckBankAccount))
	assert.True(t, res.Checks[domain.CheckBVN].Skipped)
}

func TestSubmitTier3_SoleProprietorSkipsRegistry(t *testing.T) {
	f := newKYCFixture(t)
	f.seed("o1", domain.RoleOwner, verifiedTier2)

	in := tier3Input(owner, domain.BusinessSoleProprietorship)
	in.RegistrationNumber = ""
	res, err := f.svc.SubmitTier3(context.Background(), in)
	require.NoError(t, err)

	assert.Zero(t, f.verifier.count(domain.CheckBusiness))
	assert.Equal(t, domain.StatusVerified, res.Identity.Tier3.Business.ReviewStatus)
	require.NotNil(t, res.Identity.Tier3.Business.Evidence)
	assert.True(t, res.Identity.Tier3.Business.Evidence.Skipped)
	assert.Equal(t, domain.StatusVerified, res.Identity.Tier3.Status)
}

func TestSubmitTier3_CompanyNeedsRegistrationNumber(t *testing.T) {
	f := newKYCFixture(t)
	in := tier3Input(owner, domain.BusinessLimitedCompany)
	in.RegistrationNumber = ""
	in.BVN = "1"

	_, err := f.svc.SubmitTier3(context.Background(), in)
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Fields, 2)
}

// ── admin ────────────────────────────────────────────────────────────────────

func TestOverridePhone_ReopensTier1(t *testing.T) {
	f := newKYCFixture(t)
	ctx := context.Background()
	f.seed("u1", domain.RoleUser, verifiedTier1)

	view, err := f.svc.OverridePhone(ctx, "admin-1", "u1", "08099999999")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, view.Identity.Tier1.Status)
	assert.False(t, view.Identity.Tier1.PhoneVerified)
	require.NotNil(t, view.Identity.Tier1.CompletedAt)
	firstCompleted := *view.Identity.Tier1.CompletedAt

	view, err = f.svc.SubmitPhone(ctx, regular, "08099999999")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusVerified, view.Identity.Tier1.Status)
	assert.True(t, view.Identity.Tier1.CompletedAt.Equal(firstCompleted), "completedAt is set once")
	assert.Empty(t, f.sink.events, "re-verifying after an override is not a first completion")
}

func TestOverridePhone_FreshUserCompletesOnce(t *testing.T) {
	f := newKYCFixture(t)
	ctx := context.Background()

	_, err := f.svc.SubmitTier1(ctx, ports.Tier1Input{Actor: regular, PhoneNumber: "08012345678", NIN: "12345678901"})
	require.NoError(t, err)
	require.NoError(t, f.svc.RequestEmailVerification(ctx, regular))
	token := f.mailer.body[strings.Index(f.mailer.body, "token=")+len("token="):][:64]
	_, err = f.svc.ConfirmEmail(ctx, token)
	require.NoError(t, err)
	require.Len(t, f.sink.events, 1)

	_, err = f.svc.OverridePhone(ctx, "admin-1", "u1", "08099999999")
	require.NoError(t, err)
	view, err := f.svc.SubmitPhone(ctx, regular, "08099999999")
	require.NoError(t, err)

	assert.Equal(t, domain.StatusVerified, view.Identity.Tier1.Status)
	assert.Len(t, f.sink.events, 1, "tier1 completion fires only on the first verification")
}

func TestOverridePhone_UnknownUser(t *testing.T) {
	f := newKYCFixture(t)

	_, err := f.svc.OverridePhone(context.Background(), "admin-1", "nobody", "08099999999")
	require.ErrorIs(t, err, domain.ErrIdentityNotFound)
}

func TestAdminView_PresignsBill(t *testing.T) {
	f := newKYCFixture(t)
	f.seed("o1", domain.RoleOwner, verifiedTier2)

	view, err := f.svc.AdminView(context.Background(), "o1")
	require.NoError(t, err)
	assert.Equal(t, "https://signed/kyc/o1/bill.pdf", view.DocumentURL)
	assert.False(t, view.URLExpires.IsZero())
}

func TestStatus_NoRecord(t *testing.T) {
	f := newKYCFixture(t)

	view, err := f.svc.Status(context.Background(), owner)
	require.NoError(t, err)
	assert.Equal(t, domain.OverallIncomplete, view.OverallStatus)
	assert.Equal(t, []domain.Tier{domain.Tier1, domain.Tier2}, view.RequiredTiers)
	assert.Equal(t, 0, f.repo.saves)
}
