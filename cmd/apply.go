package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/surmigrate/surmigrate/internal/config"
	"github.com/surmigrate/surmigrate/internal/executor"
	"github.com/surmigrate/surmigrate/internal/progress"
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply pending migrations to the database",
	Long: `Apply the migrations directory to the selected environment.

One-off migrations (names starting with digits) run in numeric order and
are skipped when the ledger already records them. Idempotent migrations
run afterwards, every time. Each file runs in its own transaction and the
first failure stops the run.

Connection settings come from surmigrate.toml, then .env.<environment>,
then SURMIGRATE_* environment variables, then flags.`,
	Example: `  # Apply to the default environment
  surmigrate apply

  # Apply to another environment with debug logging
  surmigrate apply --environment production -v

  # Apply without a config file
  surmigrate apply --backend sqlite --url sqlite://./app.db`,
	Run: runApply,
}

var (
	applyEnvironment      string
	applyBackend          string
	applyURL              string
	applyUser             string
	applyPassword         string
	applyNamespace        string
	applyDatabase         string
	applyMigrationsDir    string
	applyWorkingDirectory string
	applyVerbose          bool
	applyInteractive      bool
)

func init() {
	rootCmd.AddCommand(applyCmd)

	applyCmd.Flags().StringVar(&applyEnvironment, "environment", "", "Environment from surmigrate.toml (defaults to default_environment)")
	applyCmd.Flags().StringVar(&applyBackend, "backend", "", "Database backend: surrealdb, postgres, sqlite or libsql")
	applyCmd.Flags().StringVar(&applyURL, "url", "", "Database url (overrides the environment)")
	applyCmd.Flags().StringVar(&applyUser, "user", "", "Database user")
	applyCmd.Flags().StringVar(&applyPassword, "password", "", "Database password")
	applyCmd.Flags().StringVar(&applyNamespace, "namespace", "", "SurrealDB namespace, or PostgreSQL schema for the ledger")
	applyCmd.Flags().StringVar(&applyDatabase, "database", "", "SurrealDB database")
	applyCmd.Flags().StringVar(&applyMigrationsDir, "migrations-dir", "", "Migrations directory, relative to the working directory")
	applyCmd.Flags().StringVar(&applyWorkingDirectory, "working-directory", "", "Directory to resolve the config and migrations from")
	applyCmd.Flags().BoolVarP(&applyVerbose, "verbose", "v", false, "Enable verbose logging")
	applyCmd.Flags().BoolVar(&applyInteractive, "interactive", false, "Show live progress in the terminal")
}

func runApply(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	if err := applyMigrations(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr()); err != nil {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		os.Exit(1)
	}
}

func flagOverrides() config.Overrides {
	return config.Overrides{
		Environment:      applyEnvironment,
		Backend:          applyBackend,
		URL:              applyURL,
		User:             applyUser,
		Password:         applyPassword,
		Namespace:        applyNamespace,
		Database:         applyDatabase,
		MigrationsDir:    applyMigrationsDir,
		WorkingDirectory: applyWorkingDirectory,
	}
}

func applyMigrations(ctx context.Context, stdout, stderr io.Writer) error {
	level := slog.LevelInfo
	if applyVerbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	if applyInteractive {
		// the progress view owns the terminal
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	envOverrides, err := config.ParseEnv()
	if err != nil {
		return err
	}
	overrides := envOverrides.Merge(flagOverrides())

	var cfg *config.Config
	if overrides.WorkingDirectory != "" {
		cfg, err = config.LoadConfigFrom(overrides.WorkingDirectory)
	} else {
		cfg, err = config.LoadConfig()
	}
	if err != nil {
		return err
	}

	target, err := config.Resolve(cfg, overrides)
	if err != nil {
		if cfg.ConfigFilePath == "" {
			printConfigNotFound(stderr)
		}
		return err
	}
	logger.Debug("resolved target",
		"environment", target.Environment,
		"backend", target.Backend,
		"config", cfg.ConfigFilePath,
		"dotenv", target.FromDotenv)

	conn, err := executor.Connect(target)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	_, _ = fmt.Fprintf(stdout, "Applying %s to %s (%s, %s)\n",
		target.MigrationsDir, displayURL(target.URL), target.Environment, target.Backend)

	run := func(observer executor.Observer) (*executor.Report, error) {
		runner := executor.NewRunner(conn.Client, conn.Dialect, executor.Options{
			Dir:        target.MigrationsDir,
			Extensions: target.Extensions,
			Logger:     logger,
			Observer:   observer,
		})
		return runner.Run(ctx)
	}

	var report *executor.Report
	if applyInteractive {
		report, err = progress.Run(fmt.Sprintf("%s (%s)", target.Environment, target.Backend), run)
	} else {
		report, err = run(nil)
	}
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(stdout, progress.Summary(report))
	return nil
}
