package cmd

import (
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"casservice/internal/app"
	"casservice/internal/config"
	"casservice/internal/engine"
)

var enginesConfigPath string

var enginesCmd = &cobra.Command{
	Use:   "engines",
	Short: "List the configured CAS engines",
	Long: `Builds the engine registry from configuration and prints one row per
engine: availability, detected version, capabilities and compute
templates. Probing may shell out to each configured binary.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(enginesConfigPath)
		if err != nil {
			return err
		}

		t := table.NewWriter()
		t.SetOutputMirror(cmd.OutOrStdout())
		t.SetStyle(table.StyleRounded)
		t.AppendHeader(table.Row{"Engine", "Available", "Version", "Capabilities", "Templates"})

		for _, e := range app.BuildEngines(cfg) {
			t.AppendRow(table.Row{
				e.Name(),
				e.IsAvailable(),
				e.Version(),
				capabilityList(e),
				templateList(e),
			})
		}

		t.Render()
		return nil
	},
}

func capabilityList(e engine.Engine) string {
	caps := e.Capabilities()
	names := make([]string, len(caps))
	for i, c := range caps {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}

func templateList(e engine.Engine) string {
	templates := e.Templates()
	if len(templates) == 0 {
		return "-"
	}
	names := make([]string, 0, len(templates))
	for name := range templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

func init() {
	enginesCmd.Flags().StringVar(&enginesConfigPath, "config-path", "", "Path to config.yaml")
	rootCmd.AddCommand(enginesCmd)
}
