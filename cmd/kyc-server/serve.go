package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rentahome/kyc-service/internal/api"
	"github.com/rentahome/kyc-service/internal/api/handler"
	"github.com/rentahome/kyc-service/internal/core/ports"
	"github.com/rentahome/kyc-service/internal/core/service"
	"github.com/rentahome/kyc-service/internal/infrastructure/config"
	mongodb "github.com/rentahome/kyc-service/internal/infrastructure/db/mongo"
	redisdb "github.com/rentahome/kyc-service/internal/infrastructure/db/redis"
	"github.com/rentahome/kyc-service/internal/infrastructure/mail"
	"github.com/rentahome/kyc-service/internal/infrastructure/messaging"
	"github.com/rentahome/kyc-service/internal/infrastructure/provider"
	"github.com/rentahome/kyc-service/internal/infrastructure/queue"
	"github.com/rentahome/kyc-service/internal/infrastructure/storage"
	"github.com/rentahome/kyc-service/pkg/logger"
)

const (
	tokenTTL        = 24 * time.Hour
	shutdownTimeout = 15 * time.Second
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the KYC HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx)
		},
	}
}

// bootstrap loads .env (when present), configuration and the logger.
func bootstrap(ctx context.Context) (*config.Config, zerolog.Logger, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, zerolog.Nop(), fmt.Errorf("load .env: %w", err)
	}
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.LogPretty,
		Service: "kyc-service",
	})
	return cfg, log, nil
}

func serve(ctx context.Context) error {
	cfg, log, err := bootstrap(ctx)
	if err != nil {
		return err
	}

	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongoClient.Disconnect(dctx)
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		return err
	}
	defer rdb.Close()

	users := mongodb.NewAuthRepository(db)
	identities := mongodb.NewIdentityRepository(db)
	if err := users.EnsureIndexes(ctx); err != nil {
		return err
	}
	if err := identities.EnsureIndexes(ctx); err != nil {
		return err
	}

	documents, err := storage.NewS3Store(ctx, storage.Config{
		Bucket:   cfg.Storage.Bucket,
		Region:   cfg.Storage.Region,
		Endpoint: cfg.Storage.Endpoint,
	})
	if err != nil {
		return err
	}

	publisher, err := messaging.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange, log)
	if err != nil {
		return err
	}
	defer publisher.Close()

	completions := service.NewCompletionService(publisher, publisher, log)
	dispatcher := queue.NewDispatcher(cfg.Dispatcher.Workers, completions, log)
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	dispatcher.Start(workerCtx)

	kyc := service.NewKYCService(service.KYCDeps{
		Identities: identities,
		Users:      users,
		Verifier:   newVerifier(cfg.Provider, log),
		Documents:  documents,
		Locker:     redisdb.NewSubmissionLocker(rdb, cfg.KYC.LockTTL),
		Tokens:     redisdb.NewEmailTokenStore(rdb),
		Mailer: mail.NewSMTPMailer(mail.Config{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		}, log),
		Sink: dispatcher,
	}, service.KYCConfig{
		CountryCode:      cfg.KYC.CountryCode,
		EmailTokenTTL:    cfg.KYC.EmailTokenTTL,
		VerifyURL:        cfg.KYC.VerifyURL,
		DocumentFolder:   cfg.Storage.Folder,
		MaxDocumentBytes: cfg.Storage.MaxUploadBytes,
		PresignTTL:       cfg.Storage.PresignTTL,
	}, log)

	e := api.NewRouter(api.Dependencies{
		Log:        log,
		JWTSecret:  cfg.JWTSecret,
		Auth:       service.NewAuthService(users, cfg.JWTSecret, tokenTTL),
		KYC:        kyc,
		Identities: identities,
		Limiter:    redisdb.NewRateLimiter(rdb, cfg.KYC.SubmitLimit, cfg.KYC.SubmitWindow),
		Health: map[string]handler.DependencyCheck{
			"mongodb": func(ctx context.Context) error { return mongoClient.Ping(ctx, nil) },
			"redis":   func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		},
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("kyc service listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		stopWorkers()
		dispatcher.Wait()
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	stopWorkers()
	dispatcher.Wait()
	return nil
}

func newVerifier(cfg config.ProviderConfig, log zerolog.Logger) ports.Verifier {
	if cfg.Mode == config.ProviderSimulated {
		return provider.NewSimulated(log)
	}
	return provider.NewClient(provider.Config{
		BaseURL:        cfg.BaseURL(),
		APIKey:         cfg.APIKey,
		Timeout:        cfg.Timeout,
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		RatePerSecond:  cfg.RatePerSecond,
		RateBurst:      cfg.RateBurst,
		BreakerTrips:   cfg.BreakerTrips,
		BreakerOpenFor: cfg.BreakerOpenFor,
	}, log)
}
