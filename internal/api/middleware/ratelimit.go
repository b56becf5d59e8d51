package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Limiter counts hits per scope and subject.
type Limiter interface {
	Allow(ctx context.Context, scope, subject string) (bool, time.Duration, error)
}

// RateLimit throttles a route per authenticated user. When the limiter
// backend fails the request is let through and the failure logged.
func RateLimit(limiter Limiter, scope string, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			subject, _ := c.Get("user_id").(string)
			if subject == "" {
				subject = c.RealIP()
			}

			ok, retryAfter, err := limiter.Allow(c.Request().Context(), scope, subject)
			if err != nil {
				log.Warn().Err(err).Str("scope", scope).Msg("rate limiter unavailable")
				return next(c)
			}
			if !ok {
				secs := int(math.Ceil(retryAfter.Seconds()))
				if secs < 1 {
					secs = 1
				}
				c.Response().Header().Set("Retry-After", strconv.Itoa(secs))
				return echo.NewHTTPError(http.StatusTooManyRequests, "too many submissions, try again later")
			}
			return next(c)
		}
	}
}
