package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentahome/kyc-service/internal/core/domain"
)

func newTestClient(t *testing.T, h http.HandlerFunc, mod func(*Config)) (*Client, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		h(w, r)
	}))
	t.Cleanup(srv.Close)

	cfg := Config{
		BaseURL:        srv.URL,
		APIKey:         "test-key",
		Timeout:        2 * time.Second,
		MaxRetries:     1,
		InitialBackoff: time.Millisecond,
		BreakerTrips:   10,
	}
	if mod != nil {
		mod(&cfg)
	}
	return NewClient(cfg, zerolog.Nop()), &hits
}

func writeEnvelope(w http.ResponseWriter, data map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success":    true,
		"statusCode": 200,
		"message":    "success",
		"data":       data,
	})
}

func TestClient_VerifyNationalID_Found(t *testing.T) {
	var gotToken string
	var gotBody map[string]any
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, pathNIN, r.URL.Path)
		gotToken = r.Header.Get("token")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		writeEnvelope(w, map[string]any{
			"id":        "yv-123",
			"status":    "found",
			"firstName": "ADA",
			"lastName":  "OBI",
			"image":     "base64...",
		})
	}, nil)

	out, err := c.VerifyNationalID(context.Background(), "12345678901", "Ada", "Obi")
	require.NoError(t, err)

	assert.True(t, out.Matched())
	assert.Equal(t, "yv-123", out.Reference)
	assert.Equal(t, "ADA", out.Fields["first_name"])
	assert.NotContains(t, out.Raw, "image")
	assert.Equal(t, "test-key", gotToken)
	assert.Equal(t, "12345678901", gotBody["id"])
}

func TestClient_MalformedInputNeverReachesVendor(t *testing.T) {
	c, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, map[string]any{"status": "found"})
	}, nil)
	ctx := context.Background()

	var ve *domain.ValidationError
	_, err := c.VerifyPhone(ctx, "abc")
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "phone_number", ve.Fields[0].Field)

	_, err = c.VerifyNationalID(ctx, "12", "Ada", "Obi")
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "nin", ve.Fields[0].Field)

	_, err = c.VerifyBVN(ctx, "2233445566x", "Ada", "Obi")
	require.ErrorAs(t, err, &ve)

	assert.EqualValues(t, 0, atomic.LoadInt32(hits))
}

func TestClient_PhoneIsNormalizedBeforeDispatch(t *testing.T) {
	var gotBody map[string]any
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		writeEnvelope(w, map[string]any{"status": "found"})
	}, nil)

	_, err := c.VerifyPhone(context.Background(), "+234 801 234 5678")
	require.NoError(t, err)
	assert.Equal(t, "08012345678", gotBody["id"])
}

func TestClient_NotFoundStatus(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, map[string]any{"id": "yv-1", "status": "not_found"})
	}, nil)

	out, err := c.VerifyPhone(context.Background(), "08012345678")
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeNotFound, out.Result)
}

func TestClient_HTTP404IsNotFound(t *testing.T) {
	c, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}, nil)

	out, err := c.VerifyBVN(context.Background(), "22334455667", "Ada", "Obi")
	require.NoError(t, err)
	assert.False(t, out.Matched())
	assert.EqualValues(t, 1, atomic.LoadInt32(hits), "a definitive answer must not be retried")
}

func TestClient_NameMismatchIsNotFound(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, map[string]any{
			"status": "found",
			"validations": map[string]any{
				"data": map[string]any{
					"firstName": map[string]any{"validated": true},
					"lastName":  map[string]any{"validated": false},
				},
			},
		})
	}, nil)

	out, err := c.VerifyNationalID(context.Background(), "12345678901", "Ada", "Wrong")
	require.NoError(t, err)
	assert.False(t, out.Matched())
}

func TestClient_RetriesOnceThenSucceeds(t *testing.T) {
	var calls int32
	c, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		writeEnvelope(w, map[string]any{"status": "found"})
	}, nil)

	out, err := c.VerifyPhone(context.Background(), "08012345678")
	require.NoError(t, err)
	assert.True(t, out.Matched())
	assert.EqualValues(t, 2, atomic.LoadInt32(hits))
}

func TestClient_ExhaustedRetriesAreUnavailable(t *testing.T) {
	c, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}, nil)

	_, err := c.VerifyPhone(context.Background(), "08012345678")
	require.ErrorIs(t, err, domain.ErrProviderUnavailable)
	assert.EqualValues(t, 2, atomic.LoadInt32(hits), "one call plus one retry")
}

func TestClient_AuthFailureIsNotRetried(t *testing.T) {
	c, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}, nil)

	_, err := c.VerifyPhone(context.Background(), "08012345678")
	require.ErrorIs(t, err, domain.ErrProviderUnavailable)
	assert.EqualValues(t, 1, atomic.LoadInt32(hits))
}

func TestClient_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	c, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}, func(cfg *Config) {
		cfg.MaxRetries = 0
		cfg.BreakerTrips = 2
		cfg.BreakerOpenFor = time.Minute
	})

	for i := 0; i < 3; i++ {
		_, err := c.VerifyPhone(context.Background(), "08012345678")
		require.ErrorIs(t, err, domain.ErrProviderUnavailable)
	}
	assert.EqualValues(t, 2, atomic.LoadInt32(hits), "open breaker must short-circuit the third call")
}

func TestClient_BankAccountFields(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, pathBankAccount, r.URL.Path)
		writeEnvelope(w, map[string]any{
			"status": "found",
			"bankDetails": map[string]any{
				"accountName": "ADA OBI",
				"bankName":    "Guaranty Trust Bank",
			},
		})
	}, nil)

	out, err := c.VerifyBankAccount(context.Background(), "0123456789", "058")
	require.NoError(t, err)
	assert.Equal(t, "ADA OBI", out.Fields["account_name"])
	assert.Equal(t, "Guaranty Trust Bank", out.Fields["bank_name"])
}

func TestClient_BusinessFields(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(t, "NG", body["countryCode"])
		writeEnvelope(w, map[string]any{
			"status":             "found",
			"name":               "BELLO HOMES LIMITED",
			"registrationNumber": "RC123456",
		})
	}, nil)

	out, err := c.VerifyBusiness(context.Background(), "RC123456", "Bello Homes Limited", "NG")
	require.NoError(t, err)
	assert.Equal(t, "BELLO HOMES LIMITED", out.Fields["company_name"])
}

func TestSimulated_DeterministicOutcomes(t *testing.T) {
	s := NewSimulated(zerolog.Nop())
	ctx := context.Background()

	out, err := s.VerifyPhone(ctx, "08012345678")
	require.NoError(t, err)
	assert.True(t, out.Matched())

	out, err = s.VerifyNationalID(ctx, "12345670000", "Ada", "Obi")
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeNotFound, out.Result)

	_, err = s.VerifyBVN(ctx, "12345679999", "Ada", "Obi")
	require.ErrorIs(t, err, domain.ErrProviderUnavailable)

	var ve *domain.ValidationError
	_, err = s.VerifyPhone(ctx, "12")
	require.ErrorAs(t, err, &ve)

	out, err = s.VerifyBusiness(ctx, "RC1", "Acme Ltd", "NG")
	require.NoError(t, err)
	assert.Equal(t, "Acme Ltd", out.Fields["company_name"])
}
