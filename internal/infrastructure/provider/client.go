// Package provider adapts the external identity-verification vendor to the
// ports.Verifier contract. Vendor responses are normalized into
// domain.VerificationOutcome; every infrastructure failure surfaces as
// domain.ErrProviderUnavailable and never as a negative result.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/rentahome/kyc-service/internal/core/domain"
	"github.com/rentahome/kyc-service/pkg/logger"
)

const (
	providerName = "youverify"

	pathPhone       = "/v2/api/identity/ng/phone"
	pathNIN         = "/v2/api/identity/ng/nin"
	pathBVN         = "/v2/api/identity/ng/bvn"
	pathBankAccount = "/v2/api/identity/ng/bank-account-number/resolve"
	pathBusiness    = "/v2/api/verifications/global/company-advance-check"

	maxResponseBytes = 1 << 20
)

// Config is injected at construction; nothing here reads the environment.
type Config struct {
	BaseURL        string
	APIKey         string
	Timeout        time.Duration
	MaxRetries     uint64
	InitialBackoff time.Duration
	RatePerSecond  float64
	RateBurst      int
	BreakerTrips   uint32
	BreakerOpenFor time.Duration
}

// Client calls the live vendor API.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	cb      *gobreaker.CircuitBreaker
	log     zerolog.Logger
	now     func() time.Time
}

func NewClient(cfg Config, log zerolog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 500 * time.Millisecond
	}
	if cfg.BreakerTrips == 0 {
		cfg.BreakerTrips = 5
	}
	if cfg.BreakerOpenFor <= 0 {
		cfg.BreakerOpenFor = 30 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 1
	}

	c := &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(limit, burst),
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
	}
	c.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        providerName,
		MaxRequests: 1,
		Timeout:     cfg.BreakerOpenFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerTrips
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("provider circuit breaker state changed")
		},
	})
	return c
}

func (c *Client) Name() string { return providerName }

func (c *Client) VerifyPhone(ctx context.Context, phone string) (domain.VerificationOutcome, error) {
	phone, err := domain.NormalizePhone(phone)
	if err != nil {
		return domain.VerificationOutcome{}, err
	}
	return c.call(ctx, domain.CheckPhone, pathPhone, phone, map[string]any{
		"id":               phone,
		"isSubjectConsent": true,
	}, personFields)
}

func (c *Client) VerifyNationalID(ctx context.Context, nin, firstName, lastName string) (domain.VerificationOutcome, error) {
	if err := checkNIN(nin); err != nil {
		return domain.VerificationOutcome{}, err
	}
	return c.call(ctx, domain.CheckNIN, pathNIN, nin, identityRequest(nin, firstName, lastName), personFields)
}

func (c *Client) VerifyBVN(ctx context.Context, bvn, firstName, lastName string) (domain.VerificationOutcome, error) {
	if err := checkBVN(bvn); err != nil {
		return domain.VerificationOutcome{}, err
	}
	return c.call(ctx, domain.CheckBVN, pathBVN, bvn, identityRequest(bvn, firstName, lastName), personFields)
}

func (c *Client) VerifyBankAccount(ctx context.Context, accountNumber, bankCode string) (domain.VerificationOutcome, error) {
	return c.call(ctx, domain.CheckBankAccount, pathBankAccount, accountNumber, map[string]any{
		"accountNumber":    accountNumber,
		"bankCode":         bankCode,
		"isSubjectConsent": true,
	}, bankFields)
}

func (c *Client) VerifyBusiness(ctx context.Context, registrationNumber, businessName, countryCode string) (domain.VerificationOutcome, error) {
	return c.call(ctx, domain.CheckBusiness, pathBusiness, registrationNumber, map[string]any{
		"registrationNumber": registrationNumber,
		"registrationName":   businessName,
		"countryCode":        countryCode,
		"isConsent":          true,
	}, businessFields)
}

// Malformed identifiers are rejected here so they never reach the vendor,
// where they would come back as a definitive not_found.
func checkNIN(nin string) error {
	if !domain.ValidNIN(nin) {
		return domain.NewValidationError("nin", "must be exactly 11 digits")
	}
	return nil
}

func checkBVN(bvn string) error {
	if !domain.ValidBVN(bvn) {
		return domain.NewValidationError("bvn", "must be exactly 11 digits")
	}
	return nil
}

func identityRequest(id, firstName, lastName string) map[string]any {
	return map[string]any{
		"id":               id,
		"isSubjectConsent": true,
		"validations": map[string]any{
			"data": map[string]string{
				"firstName": firstName,
				"lastName":  lastName,
			},
		},
	}
}

// envelope is the vendor's common response wrapper.
type envelope struct {
	Success    bool            `json:"success"`
	StatusCode int             `json:"statusCode"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
}

type fieldMapper func(data map[string]any) map[string]string

// call runs one check under the timeout, rate limiter, breaker and retry
// policy. subject is only logged masked.
func (c *Client) call(
	ctx context.Context,
	check domain.Check,
	path, subject string,
	body any,
	fields fieldMapper,
) (domain.VerificationOutcome, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	payload, err := json.Marshal(body)
	if err != nil {
		return domain.VerificationOutcome{}, fmt.Errorf("%s check: encode request: %w", check, err)
	}

	var (
		out      domain.VerificationOutcome
		attempts int
	)
	op := func() error {
		attempts++
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		res, err := c.cb.Execute(func() (interface{}, error) {
			return c.do(ctx, path, payload)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return backoff.Permanent(err)
			}
			return err
		}
		out = res.(domain.VerificationOutcome)
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.cfg.InitialBackoff
	policy := backoff.WithContext(backoff.WithMaxRetries(b, c.cfg.MaxRetries), ctx)

	err = backoff.RetryNotify(op, policy, func(err error, wait time.Duration) {
		c.log.Debug().Err(err).Str("check", string(check)).Dur("retry_in", wait).Msg("provider call failed, retrying")
	})
	if err != nil {
		c.log.Warn().Err(err).
			Str("check", string(check)).
			Str("subject", logger.Mask(subject)).
			Int("attempts", attempts).
			Msg("provider unavailable")
		return domain.VerificationOutcome{}, fmt.Errorf("%s check: %w: %v", check, domain.ErrProviderUnavailable, err)
	}

	if out.Matched() && fields != nil {
		out.Fields = fields(out.Raw)
	}
	c.log.Debug().
		Str("check", string(check)).
		Str("subject", logger.Mask(subject)).
		Str("result", string(out.Result)).
		Int("attempts", attempts).
		Msg("provider call done")
	return out, nil
}

// do performs a single HTTP exchange. It returns an outcome for any
// definitive answer and an error for infrastructure failures; errors that a
// retry cannot fix are marked permanent.
func (c *Client) do(ctx context.Context, path string, payload []byte) (domain.VerificationOutcome, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return domain.VerificationOutcome{}, backoff.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("token", c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.VerificationOutcome{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return domain.VerificationOutcome{}, fmt.Errorf("read response: %w", err)
	}

	switch code := resp.StatusCode; {
	case code == http.StatusNotFound, code == http.StatusBadRequest, code == http.StatusUnprocessableEntity:
		return c.notFound(nil), nil
	case code == http.StatusTooManyRequests, code >= 500:
		return domain.VerificationOutcome{}, fmt.Errorf("provider status %d", code)
	case code >= 300:
		return domain.VerificationOutcome{}, backoff.Permanent(fmt.Errorf("provider status %d", code))
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return domain.VerificationOutcome{}, fmt.Errorf("decode envelope: %w", err)
	}
	var data map[string]any
	if len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return domain.VerificationOutcome{}, fmt.Errorf("decode data: %w", err)
		}
	}
	delete(data, "image")
	delete(data, "photo")

	if !env.Success || str(data, "status") != "found" || !namesValidated(data) {
		return c.notFound(data), nil
	}
	return domain.VerificationOutcome{
		Result:     domain.OutcomeFound,
		Reference:  str(data, "id"),
		Raw:        data,
		VerifiedAt: c.now(),
	}, nil
}

func (c *Client) notFound(data map[string]any) domain.VerificationOutcome {
	return domain.VerificationOutcome{
		Result:     domain.OutcomeNotFound,
		Reference:  str(data, "id"),
		Raw:        data,
		VerifiedAt: c.now(),
	}
}

// namesValidated is false when the vendor reports that the supplied first or
// last name does not match the registry record.
func namesValidated(data map[string]any) bool {
	v := obj(obj(data, "validations"), "data")
	for _, name := range []string{"firstName", "lastName"} {
		if f := obj(v, name); f != nil {
			if ok, isBool := f["validated"].(bool); isBool && !ok {
				return false
			}
		}
	}
	return true
}

func personFields(data map[string]any) map[string]string {
	return compact(map[string]string{
		"first_name":  str(data, "firstName"),
		"last_name":   str(data, "lastName"),
		"middle_name": str(data, "middleName"),
	})
}

func bankFields(data map[string]any) map[string]string {
	details := obj(data, "bankDetails")
	if details == nil {
		details = data
	}
	return compact(map[string]string{
		"account_name": str(details, "accountName"),
		"bank_name":    str(details, "bankName"),
	})
}

func businessFields(data map[string]any) map[string]string {
	name := str(data, "name")
	if name == "" {
		name = str(data, "companyName")
	}
	return compact(map[string]string{
		"company_name":        name,
		"registration_number": str(data, "registrationNumber"),
		"company_status":      str(data, "companyStatus"),
		"registration_date":   str(data, "registrationDate"),
	})
}

func obj(m map[string]any, key string) map[string]any {
	if m == nil {
		return nil
	}
	v, _ := m[key].(map[string]any)
	return v
}

func str(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	v, _ := m[key].(string)
	return v
}

func compact(m map[string]string) map[string]string {
	for k, v := range m {
		if v == "" {
			delete(m, k)
		}
	}
	return m
}
