package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rentahome/kyc-service/internal/core/service"
	mongodb "github.com/rentahome/kyc-service/internal/infrastructure/db/mongo"
)

func seedAdminCmd() *cobra.Command {
	var email, password, firstName, lastName string

	cmd := &cobra.Command{
		Use:   "seed-admin",
		Short: "Create an admin account for the review console",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			cfg, log, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			client, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
			if err != nil {
				return err
			}
			defer func() { _ = client.Disconnect(context.Background()) }()

			users := mongodb.NewAuthRepository(db)
			if err := users.EnsureIndexes(ctx); err != nil {
				return err
			}
			admin, err := service.NewAuthService(users, cfg.JWTSecret, tokenTTL).SeedAdmin(ctx, email, password, firstName, lastName)
			if err != nil {
				return fmt.Errorf("seed admin: %w", err)
			}
			log.Info().Str("user_id", admin.ID).Msg("admin account created")
			return nil
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "Admin email address")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Admin password (min 12 characters)")
	cmd.Flags().StringVar(&firstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&lastName, "last-name", "", "Last name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}
