package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/rentahome/kyc-service/docs"
	"github.com/rentahome/kyc-service/internal/api/handler"
	"github.com/rentahome/kyc-service/internal/api/middleware"
	"github.com/rentahome/kyc-service/internal/core/domain"
	"github.com/rentahome/kyc-service/internal/core/ports"
)

const bodyLimit = "6M"

// Dependencies are the wired services the HTTP layer needs.
type Dependencies struct {
	Log        zerolog.Logger
	JWTSecret  string
	Auth       ports.AuthService
	KYC        ports.KYCService
	Identities ports.IdentityReader
	Limiter    middleware.Limiter
	Health     map[string]handler.DependencyCheck
}

// Feature gates. Other platform services mount the same guards on their
// booking and listing routes; here they back the /kyc/access checks.
var (
	BookingTiers     = []domain.Tier{domain.Tier1}
	ListingTiers     = []domain.Tier{domain.Tier1, domain.Tier2}
	MonthlyRentTiers = []domain.Tier{domain.Tier1, domain.Tier2, domain.Tier3}
)

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(echomiddleware.BodyLimit(bodyLimit))
	e.Use(echoprometheus.NewMiddleware("kyc"))

	// --- Ops ---
	health := handler.NewHealthHandler(d.Health)
	e.GET("/health", health.Liveness)
	e.GET("/health/ready", health.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Auth routes ---
	authHandler := handler.NewAuthHandler(d.Auth)
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)

	auth := middleware.Auth(d.JWTSecret)
	kycHandler := handler.NewKYCHandler(d.KYC)
	throttle := func(scope string) echo.MiddlewareFunc {
		return middleware.RateLimit(d.Limiter, scope, d.Log)
	}

	// --- KYC routes ---
	e.GET("/kyc/tier1/email/confirm", kycHandler.ConfirmEmail)

	kyc := e.Group("/kyc", auth)
	kyc.GET("/status", kycHandler.Status)
	kyc.POST("/tier1/submit", kycHandler.SubmitTier1, throttle("tier1"))
	kyc.POST("/tier1/phone", kycHandler.SubmitPhone, throttle("tier1"))
	kyc.POST("/tier1/email/request", kycHandler.RequestEmail, throttle("email"))
	kyc.POST("/tier2/submit", kycHandler.SubmitTier2, throttle("tier2"))
	kyc.POST("/tier3/submit", kycHandler.SubmitTier3, throttle("tier3"))

	kyc.GET("/access/booking", handler.Access("booking"), middleware.RequireTiers(d.Identities, BookingTiers...))
	kyc.GET("/access/listing", handler.Access("listing"), middleware.RequireTiers(d.Identities, ListingTiers...))
	kyc.GET("/access/monthly-rent", handler.Access("monthly-rent"), middleware.RequireTiers(d.Identities, MonthlyRentTiers...))

	// --- Admin routes ---
	adminHandler := handler.NewAdminHandler(d.KYC)
	admin := e.Group("/admin/kyc", auth, middleware.RBAC(domain.RoleAdmin))
	admin.GET("/:userId", adminHandler.View)
	admin.POST("/:userId/tier2/review", adminHandler.ReviewTier2)
	admin.POST("/:userId/phone-override", adminHandler.OverridePhone)

	return e
}

// requestLogger writes one structured line per request through zerolog.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogMethod:    true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= 500 {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
