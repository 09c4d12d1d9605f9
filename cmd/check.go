package cmd

import (
	"fmt"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"casservice/internal/app"
	"casservice/internal/config"
)

var checkConfigPath string

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Probe every configured engine",
	Long: `Probes each configured engine binary (or API key) and reports
availability and version. Exits non-zero when no engine is available.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(checkConfigPath)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		available := 0

		for _, e := range app.BuildEngines(cfg) {
			s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(cmd.ErrOrStderr()))
			s.Suffix = fmt.Sprintf(" Probing %s...", e.Name())
			s.Start()
			ok := e.IsAvailable()
			version := e.Version()
			s.Stop()

			if ok {
				available++
				fmt.Fprintf(out, "✓ %-14s %s\n", e.Name(), version)
			} else {
				fmt.Fprintf(out, "✗ %-14s %s\n", e.Name(), e.AvailabilityReason())
			}
		}

		if available == 0 {
			return fmt.Errorf("no engines available")
		}
		fmt.Fprintf(out, "%d engine(s) available\n", available)
		return nil
	},
}

func init() {
	checkCmd.Flags().StringVar(&checkConfigPath, "config-path", "", "Path to config.yaml")
	rootCmd.AddCommand(checkCmd)
}
