package middleware

import (
	"errors"
	"fmt"

	"github.com/labstack/echo/v4"

	"github.com/rentahome/kyc-service/internal/api/metrics"
	"github.com/rentahome/kyc-service/internal/core/domain"
	"github.com/rentahome/kyc-service/internal/core/ports"
)

// RequireTiers gates a route on the caller having every listed tier
// verified. Admins always pass. A denial names exactly the missing tiers.
// The guard only reads the identity record.
func RequireTiers(identities ports.IdentityReader, tiers ...domain.Tier) echo.MiddlewareFunc {
	want := append([]domain.Tier(nil), tiers...)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get("role").(string)
			if role == domain.RoleAdmin {
				return next(c)
			}
			userID, _ := c.Get("user_id").(string)
			if userID == "" {
				return domain.ErrForbidden
			}

			id, err := identities.FindByUserID(c.Request().Context(), userID)
			switch {
			case errors.Is(err, domain.ErrIdentityNotFound):
				id = nil
			case err != nil:
				return fmt.Errorf("tier gate: %w", err)
			}

			missing := domain.MissingTiers(id, want)
			if len(missing) == 0 {
				return next(c)
			}
			for _, t := range missing {
				metrics.GateDenialsTotal.WithLabelValues(string(t)).Inc()
			}
			return &domain.TierRequiredError{Missing: missing}
		}
	}
}
