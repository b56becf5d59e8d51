package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/rentahome/kyc-service/internal/api/metrics"
	"github.com/rentahome/kyc-service/internal/core/domain"
	"github.com/rentahome/kyc-service/internal/core/ports"
)

// CompletionService runs the best-effort side effects of a tier completion.
// Its errors are reported to the dispatcher for logging only; nothing here
// can undo a verification.
type CompletionService struct {
	referrals ports.ReferralNotifier
	events    ports.EventPublisher
	log       zerolog.Logger
}

func NewCompletionService(referrals ports.ReferralNotifier, events ports.EventPublisher, log zerolog.Logger) *CompletionService {
	return &CompletionService{referrals: referrals, events: events, log: log}
}

// Process fires the referral hook on tier1 and publishes the tier event.
// Both are attempted even if the first fails.
func (s *CompletionService) Process(ctx context.Context, event domain.CompletionEvent) error {
	var errs []error

	if event.Tier == domain.Tier1 {
		if err := s.referrals.MarkReferralVerified(ctx, event.UserID); err != nil {
			metrics.SideEffectsTotal.WithLabelValues("referral", "error").Inc()
			errs = append(errs, fmt.Errorf("mark referral verified: %w", err))
		} else {
			metrics.SideEffectsTotal.WithLabelValues("referral", "ok").Inc()
		}
	}

	if err := s.events.PublishTierVerified(ctx, event); err != nil {
		metrics.SideEffectsTotal.WithLabelValues("event", "error").Inc()
		errs = append(errs, fmt.Errorf("publish tier verified: %w", err))
	} else {
		metrics.SideEffectsTotal.WithLabelValues("event", "ok").Inc()
	}

	if len(errs) == 0 {
		s.log.Debug().
			Str("user_id", event.UserID).
			Str("tier", string(event.Tier)).
			Msg("completion side effects done")
	}
	return errors.Join(errs...)
}
