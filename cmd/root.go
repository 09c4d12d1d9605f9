package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd is the entry point when the binary runs without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "casservice",
	Short: "Multi-engine computer algebra dispatch service",
	Long: `casservice validates LaTeX formulas and runs symbolic compute tasks by
dispatching to computer algebra engines (SymPy, Maxima, MATLAB, GAP,
SageMath, WolframAlpha) over a small HTTP API.`,
	// SilenceUsage keeps error output clean; handled errors should not
	// print the usage text.
	SilenceUsage: true,
}

// SetVersion injects the build-time version into the root command.
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newVersionCmd())
}
