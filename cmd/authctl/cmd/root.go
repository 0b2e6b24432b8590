package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/iliyamo/course-backoffice/internal/auth"
	"github.com/iliyamo/course-backoffice/internal/config"
	"github.com/iliyamo/course-backoffice/internal/database"
	"github.com/iliyamo/course-backoffice/internal/repository"
)

// env is the state shared by every subcommand once the root pre-run has
// loaded configuration and connected to MySQL.
type env struct {
	cfg      config.Config
	db       *sql.DB
	refresh  *auth.RefreshStore
	accounts *auth.Accounts
}

var app env

var rootCmd = &cobra.Command{
	Use:           "authctl",
	Short:         "authctl administers accounts and sessions of the course back office",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		config.SetupLogger(cfg.LogLevel, cfg.LogPretty)
		if err != nil {
			return fmt.Errorf("configuration: %w", err)
		}
		db, err := database.Open(cfg)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		users := repository.NewUserRepo(db)
		admins := repository.NewAdminRepo(db)
		hasher := auth.PasswordHasher{Cost: cfg.BcryptCost}
		refresh := auth.NewRefreshStore(repository.NewTokenRepo(db), cfg.RefreshTokenTTL)

		app = env{
			cfg:      cfg,
			db:       db,
			refresh:  refresh,
			accounts: auth.NewAccounts(users, admins, refresh, hasher, nil),
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if app.db != nil {
			_ = app.db.Close()
		}
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Error().Err(err).Msg("authctl failed")
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(purgeTokensCmd, createAdminCmd, setStatusCmd, migrateCmd)
}
