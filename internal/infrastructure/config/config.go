package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const (
	EnvProduction = "production"

	ProviderLive      = "live"
	ProviderSimulated = "simulated"
)

type Config struct {
	Port      string `env:"PORT,       default=8080"`
	Env       string `env:"ENV,        default=development"`
	JWTSecret string `env:"JWT_SECRET"`
	LogLevel  string `env:"LOG_LEVEL,  default=info"`
	LogPretty bool   `env:"LOG_PRETTY, default=false"`

	Mongo      MongoConfig
	Redis      RedisConfig
	Provider   ProviderConfig
	Storage    StorageConfig
	AMQP       AMQPConfig
	SMTP       SMTPConfig
	KYC        KYCConfig
	Dispatcher DispatcherConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=rentahome"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR, default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,   default=0"`
}

// ProviderConfig selects and tunes the identity-verification adapter.
type ProviderConfig struct {
	Mode           string        `env:"PROVIDER_MODE,            default=live"`
	Environment    string        `env:"PROVIDER_ENV,             default=sandbox"`
	APIKey         string        `env:"PROVIDER_API_KEY"`
	SandboxURL     string        `env:"PROVIDER_SANDBOX_URL,     default=https://api.sandbox.youverify.co"`
	ProductionURL  string        `env:"PROVIDER_PRODUCTION_URL,  default=https://api.youverify.co"`
	Timeout        time.Duration `env:"PROVIDER_TIMEOUT,         default=30s"`
	MaxRetries     uint64        `env:"PROVIDER_MAX_RETRIES,     default=1"`
	InitialBackoff time.Duration `env:"PROVIDER_INITIAL_BACKOFF, default=500ms"`
	RatePerSecond  float64       `env:"PROVIDER_RATE_PER_SECOND, default=10"`
	RateBurst      int           `env:"PROVIDER_RATE_BURST,      default=5"`
	BreakerTrips   uint32        `env:"PROVIDER_BREAKER_TRIPS,   default=5"`
	BreakerOpenFor time.Duration `env:"PROVIDER_BREAKER_OPEN,    default=30s"`
}

// BaseURL returns the vendor URL for the configured environment.
func (p ProviderConfig) BaseURL() string {
	if p.Environment == EnvProduction {
		return p.ProductionURL
	}
	return p.SandboxURL
}

type StorageConfig struct {
	Bucket         string        `env:"S3_BUCKET,        default=rentahome-kyc"`
	Region         string        `env:"S3_REGION,        default=eu-west-1"`
	Endpoint       string        `env:"S3_ENDPOINT"`
	Folder         string        `env:"S3_FOLDER,        default=kyc/utility-bills"`
	PresignTTL     time.Duration `env:"S3_PRESIGN_TTL,   default=15m"`
	MaxUploadBytes int64         `env:"MAX_UPLOAD_BYTES, default=5242880"`
}

type AMQPConfig struct {
	URL      string `env:"AMQP_URL"`
	Exchange string `env:"AMQP_EXCHANGE, default=kyc.events"`
}

type SMTPConfig struct {
	Host     string `env:"SMTP_HOST"`
	Port     int    `env:"SMTP_PORT, default=587"`
	Username string `env:"SMTP_USERNAME"`
	Password string `env:"SMTP_PASSWORD"`
	From     string `env:"SMTP_FROM, default=no-reply@rentahome.ng"`
}

type KYCConfig struct {
	LockTTL       time.Duration `env:"KYC_LOCK_TTL,         default=2m"`
	EmailTokenTTL time.Duration `env:"KYC_EMAIL_TOKEN_TTL,  default=24h"`
	VerifyURL     string        `env:"KYC_EMAIL_VERIFY_URL, default=http://localhost:8080/kyc/tier1/email/confirm"`
	CountryCode   string        `env:"KYC_COUNTRY_CODE,     default=NG"`
	SubmitLimit   int64         `env:"KYC_SUBMIT_LIMIT,     default=10"`
	SubmitWindow  time.Duration `env:"KYC_SUBMIT_WINDOW,    default=1h"`
}

type DispatcherConfig struct {
	Workers int `env:"DISPATCHER_WORKERS, default=4"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith reads configuration through the given lookuper and validates it.
func LoadWith(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations that must never reach a running server.
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	switch c.Provider.Mode {
	case ProviderLive:
		if c.Provider.APIKey == "" {
			errs = append(errs, errors.New("PROVIDER_API_KEY is required in live mode"))
		}
	case ProviderSimulated:
		if c.Env == EnvProduction {
			errs = append(errs, errors.New("PROVIDER_MODE=simulated is not allowed in production"))
		}
	default:
		errs = append(errs, fmt.Errorf("PROVIDER_MODE must be live or simulated, got %q", c.Provider.Mode))
	}
	if c.Provider.Environment != "sandbox" && c.Provider.Environment != EnvProduction {
		errs = append(errs, fmt.Errorf("PROVIDER_ENV must be sandbox or production, got %q", c.Provider.Environment))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}
