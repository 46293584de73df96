package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/isdelr/splinter-be/internal/services"
)

// Default timeout for seed command.
const defaultSeedTimeout = 30 * time.Second

// demoAccounts are the development accounts created by the seed command.
var demoAccounts = []services.RegisterInput{
	{Username: "testuser1", Email: "user1@example.com", Password: "password123", ExternalGameID: "user1#NA1"},
	{Username: "testuser2", Email: "user2@example.com", Password: "password123", ExternalGameID: "user2#NA1"},
}

// seedConfig holds configuration for the seed command.
type seedConfig struct {
	timeout time.Duration
}

// NewSeedCmd creates the seed subcommand.
func NewSeedCmd() *cobra.Command {
	cfg := &seedConfig{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the demo accounts",
		Long: `Registers the development demo accounts.
This command is idempotent - accounts whose email already exists are skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd, args, cfg)
		},
	}

	cmd.Flags().DurationVar(&cfg.timeout, "timeout", defaultSeedTimeout, "timeout for database operations (e.g., 30s, 1m)")

	return cmd
}

func runSeed(cmd *cobra.Command, _ []string, sc *seedConfig) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.IsProduction() {
		return errors.New("refusing to seed demo accounts in production")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), sc.timeout)
	defer cancel()

	svc, closeStore, err := newAuthService(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	created, err := seedAccounts(ctx, svc, demoAccounts)
	if err != nil {
		return err
	}
	cmd.Printf("Seeded %d of %d demo accounts\n", created, len(demoAccounts))
	return nil
}

// seedAccounts registers each account, skipping emails already in use, and
// returns how many were created.
func seedAccounts(ctx context.Context, svc services.AuthServiceProvider, accounts []services.RegisterInput) (int, error) {
	created := 0
	for _, in := range accounts {
		_, err := svc.Register(ctx, in)
		switch {
		case err == nil:
			created++
			log.Info().Str("email", in.Email).Msg("Seeded demo account")
		case errors.Is(err, services.ErrDuplicateEmail):
			log.Debug().Str("email", in.Email).Msg("Demo account already exists")
		default:
			return created, fmt.Errorf("seed %s: %w", in.Email, err)
		}
	}
	return created, nil
}
