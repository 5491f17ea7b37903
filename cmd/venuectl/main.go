package main

import (
	"context"
	"fmt"
	"os"

	"github.com/ariefcatur/venue-booking/internal/config"
	"github.com/ariefcatur/venue-booking/internal/logx"
	"github.com/ariefcatur/venue-booking/internal/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	Version   = "dev"
	CommitSHA = "none"
	BuildDate = "unknown"
)

func main() {
	_ = godotenv.Load()
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "venuectl",
		Short:        "Administer venues, time slots and memberships of the booking service",
		SilenceUsage: true,
	}
	root.AddCommand(newVersionCmd())
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newScopeCmd())
	root.AddCommand(newSlotsCmd())
	root.AddCommand(newMemberCmd())
	root.AddCommand(newTokenCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version info",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "venuectl %s (commit=%s, built=%s)\n", Version, CommitSHA, BuildDate)
		},
	}
}

// env bundles what most subcommands need.
type env struct {
	cfg config.Config
	log *zap.Logger
}

func loadEnv() (env, error) {
	cfg, err := config.Load()
	if err != nil {
		return env{}, err
	}
	log, err := logx.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		return env{}, err
	}
	return env{cfg: cfg, log: log}, nil
}

func (e env) db(ctx context.Context) (*pgxpool.Pool, error) {
	return postgres.Connect(ctx, e.cfg.PostgresDSN, postgres.Options{MaxConns: 4})
}
