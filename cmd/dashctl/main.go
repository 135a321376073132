// dashctl is the terminal client for published pipeline dashboards.
//
// Usage:
//
//	dashctl runs [--data-url=<url>]
//	dashctl show [--run=<dag_id>] [--task=<task_id> --artifact=<artifact_id>] [--json]
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

func newRootCmd() *cobra.Command {
	g := &globalOptions{}
	root := &cobra.Command{
		Use:   "dashctl",
		Short: "Browse analytics pipeline artifacts from the terminal",
		Long:  "dashctl reads the dashboard index and run manifests published by the\nanalytics pipelines and renders each artifact as text tables.",
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		SilenceUsage: true,
		Version:      version,
	}

	f := root.PersistentFlags()
	f.StringVar(&g.dataURL, "data-url", "", "Base URL of the artifact host (overrides DATA_BASE_URL)")
	f.StringVar(&g.logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides LOG_LEVEL)")
	f.StringVar(&g.configPath, "config", "", "Path to a YAML config file (overrides DASHBOARD_CONFIG)")

	root.AddCommand(newRunsCmd(g))
	root.AddCommand(newShowCmd(g))
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
