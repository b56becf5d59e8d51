package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/rentahome/kyc-service/internal/core/domain"
)

type stubReferrals struct {
	calls []string
	err   error
}

func (s *stubReferrals) MarkReferralVerified(_ context.Context, userID string) error {
	s.calls = append(s.calls, userID)
	return s.err
}

type stubPublisher struct {
	events []domain.CompletionEvent
	err    error
}

func (s *stubPublisher) PublishTierVerified(_ context.Context, e domain.CompletionEvent) error {
	s.events = append(s.events, e)
	return s.err
}

func TestCompletionService_Tier1FiresReferralAndEvent(t *testing.T) {
	refs, pub := &stubReferrals{}, &stubPublisher{}
	svc := NewCompletionService(refs, pub, zerolog.Nop())

	err := svc.Process(context.Background(), domain.CompletionEvent{UserID: "u1", Tier: domain.Tier1, OccurredAt: time.Now()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(refs.calls) != 1 || refs.calls[0] != "u1" {
		t.Fatalf("expected referral hook for u1, got %v", refs.calls)
	}
	if len(pub.events) != 1 {
		t.Fatalf("expected one published event, got %d", len(pub.events))
	}
}

func TestCompletionService_Tier2SkipsReferral(t *testing.T) {
	refs, pub := &stubReferrals{}, &stubPublisher{}
	svc := NewCompletionService(refs, pub, zerolog.Nop())

	if err := svc.Process(context.Background(), domain.CompletionEvent{UserID: "o1", Tier: domain.Tier2}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(refs.calls) != 0 {
		t.Fatalf("referral hook must only fire for tier1, got %v", refs.calls)
	}
}

func TestCompletionService_ReferralFailureStillPublishes(t *testing.T) {
	refs := &stubReferrals{err: errors.New("referral service down")}
	pub := &stubPublisher{}
	svc := NewCompletionService(refs, pub, zerolog.Nop())

	err := svc.Process(context.Background(), domain.CompletionEvent{UserID: "u1", Tier: domain.Tier1})
	if err == nil {
		t.Fatal("expected the referral error to be reported")
	}
	if len(pub.events) != 1 {
		t.Fatalf("event must still be published, got %d", len(pub.events))
	}
}
