package main

import (
	"dashboard/internal/manifest"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newRunsCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "runs",
		Short: "List the runs published in the dashboard index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRuns(cmd, g)
		},
	}
}

func runRuns(cmd *cobra.Command, g *globalOptions) error {
	env, err := g.setup(cmd)
	if err != nil {
		return err
	}

	res := manifest.NewResolver(env.client, env.cfg.IndexPath,
		manifest.WithAutoSelect(false),
		manifest.WithLogger(env.logger),
	)
	defer res.Close()

	snap, err := res.LoadIndex(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	switch snap.Phase {
	case manifest.PhaseFailed:
		return snap.Err
	case manifest.PhaseEmpty:
		fmt.Fprintln(out, "No runs published yet.")
		return nil
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"DAG", "Label", "Generated", "Manifest"})
	for _, e := range snap.Index.Dags {
		tw.AppendRow(table.Row{e.DagID, e.Label(), e.GeneratedAt, e.Path})
	}
	fmt.Fprintln(out, tw.Render())
	return nil
}
