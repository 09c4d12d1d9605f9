package cmd

import (
	"casservice/internal/app"

	"github.com/spf13/cobra"
)

// servePort overrides the configured HTTP listen port when non-zero.
var servePort int

// serveDebug enables verbose logging across the service.
var serveDebug bool

// serveConfigPath points at an optional yaml config file.
var serveConfigPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the CAS dispatch service",
	Long: `Starts the HTTP service: initializes the engine registry, probes each
configured engine, and serves /validate, /compute, /health, /status and
/engines until interrupted. Engines whose binaries are missing stay
registered but report unavailable.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := app.NewApplication(rootCmd.Version, &app.Config{
			ConfigPath: serveConfigPath,
			Port:       servePort,
			Debug:      serveDebug,
		})
		if err != nil {
			return err
		}
		return application.Run(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Listen port (overrides config, default 8769)")
	serveCmd.Flags().BoolVar(&serveDebug, "debug", false, "Enable debug logging")
	serveCmd.Flags().StringVar(&serveConfigPath, "config-path", "", "Path to config.yaml")
	rootCmd.AddCommand(serveCmd)
}
