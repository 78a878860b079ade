package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "surmigrate",
	Short: "Surmigrate applies migration files to SurrealDB and SQL databases.",
	Long: `Surmigrate applies a directory of migration files to a database.

Files whose names start with digits are one-off migrations: each runs once
and is recorded in the database's migration ledger. All other files are
idempotent and run on every apply, after the one-offs.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
