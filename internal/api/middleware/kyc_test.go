package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/rentahome/kyc-service/internal/core/domain"
)

type stubIdentityReader struct {
	identities map[string]*domain.UserIdentity
	err        error
	calls      int
}

func (s *stubIdentityReader) FindByUserID(_ context.Context, userID string) (*domain.UserIdentity, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	id, ok := s.identities[userID]
	if !ok {
		return nil, domain.ErrIdentityNotFound
	}
	return id, nil
}

func identityWith(userID string, statuses domain.TierStatuses) *domain.UserIdentity {
	id := domain.NewUserIdentity(userID, domain.RoleOwner, time.Now())
	id.Tier1.Status = statuses[domain.Tier1]
	id.Tier2.Status = statuses[domain.Tier2]
	id.Tier3.Status = statuses[domain.Tier3]
	return id
}

func runGate(t *testing.T, reader *stubIdentityReader, userID, role string, tiers ...domain.Tier) (bool, error) {
	t.Helper()
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/properties", nil), httptest.NewRecorder())
	c.Set("user_id", userID)
	c.Set("role", role)

	called := false
	err := RequireTiers(reader, tiers...)(func(c echo.Context) error {
		called = true
		return nil
	})(c)
	return called, err
}

func TestRequireTiers_AllVerified(t *testing.T) {
	reader := &stubIdentityReader{identities: map[string]*domain.UserIdentity{
		"o1": identityWith("o1", domain.TierStatuses{
			domain.Tier1: domain.StatusVerified,
			domain.Tier2: domain.StatusVerified,
			domain.Tier3: domain.StatusNotStarted,
		}),
	}}

	called, err := runGate(t, reader, "o1", domain.RoleOwner, domain.Tier1, domain.Tier2)
	if err != nil || !called {
		t.Fatalf("expected pass, got called=%v err=%v", called, err)
	}
}

func TestRequireTiers_NamesOnlyMissingTiers(t *testing.T) {
	reader := &stubIdentityReader{identities: map[string]*domain.UserIdentity{
		"o1": identityWith("o1", domain.TierStatuses{
			domain.Tier1: domain.StatusVerified,
			domain.Tier2: domain.StatusPending,
			domain.Tier3: domain.StatusRejected,
		}),
	}}

	called, err := runGate(t, reader, "o1", domain.RoleOwner, domain.Tier1, domain.Tier2, domain.Tier3)
	if called {
		t.Fatalf("should not reach next")
	}
	var gate *domain.TierRequiredError
	if !errors.As(err, &gate) {
		t.Fatalf("expected TierRequiredError, got %v", err)
	}
	if !reflect.DeepEqual(gate.Missing, []domain.Tier{domain.Tier2, domain.Tier3}) {
		t.Fatalf("unexpected missing tiers: %v", gate.Missing)
	}
}

func TestRequireTiers_NoRecordDeniesEveryTier(t *testing.T) {
	reader := &stubIdentityReader{identities: map[string]*domain.UserIdentity{}}

	_, err := runGate(t, reader, "u1", domain.RoleUser, domain.Tier1, domain.Tier2)
	if err == nil || err.Error() != "verification required: tier1, tier2" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRequireTiers_AdminBypassesLookup(t *testing.T) {
	reader := &stubIdentityReader{}

	called, err := runGate(t, reader, "a1", domain.RoleAdmin, domain.Tier1, domain.Tier2, domain.Tier3)
	if err != nil || !called {
		t.Fatalf("expected admin to pass, got called=%v err=%v", called, err)
	}
	if reader.calls != 0 {
		t.Fatalf("admin should not trigger a lookup")
	}
}

func TestRequireTiers_StoreErrorIsNotADenial(t *testing.T) {
	reader := &stubIdentityReader{err: errors.New("mongo down")}

	called, err := runGate(t, reader, "u1", domain.RoleUser, domain.Tier1)
	if called {
		t.Fatalf("should not reach next")
	}
	var gate *domain.TierRequiredError
	if err == nil || errors.As(err, &gate) {
		t.Fatalf("expected infrastructure error, got %v", err)
	}
}
