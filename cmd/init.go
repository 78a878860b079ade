package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/surmigrate/surmigrate/internal/wizard"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new surmigrate config",
	Long: `Initialize surmigrate in the current directory.

The wizard asks for one or more environments, tests each connection and
writes surmigrate.toml, .env.<environment> files with credentials, a
.env.example and the migrations directory. An existing surmigrate.toml is
extended, not replaced.`,
	Run: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) {
	cwd, err := os.Getwd()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	result, err := wizard.Run(cwd)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if result == nil {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Cancelled, no files written.")
	}
}
