package main

import (
	"context"
	"dashboard/internal/apperrors"
	"dashboard/internal/dashboard"
	"dashboard/internal/manifest"
	"dashboard/internal/render"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

type showFlags struct {
	run      string
	task     string
	artifact string
	json     bool
}

func newShowCmd(g *globalOptions) *cobra.Command {
	f := &showFlags{}
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Render the artifacts of a run",
		Long:  "show resolves a run (the first in the index unless --run is given),\nfetches its artifacts concurrently and prints each one as it arrives.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runShow(cmd, g, f)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.run, "run", "", "DAG id of the run to show (default: first run in the index)")
	fl.StringVar(&f.task, "task", "", "Task id of a single artifact to show")
	fl.StringVar(&f.artifact, "artifact", "", "Artifact id of a single artifact to show")
	fl.BoolVar(&f.json, "json", false, "Print views as JSON, one per line")
	cmd.MarkFlagsRequiredTogether("task", "artifact")
	return cmd
}

func runShow(cmd *cobra.Command, g *globalOptions, f *showFlags) error {
	env, err := g.setup(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	snap, err := resolve(ctx, env, f.run)
	if err != nil {
		return err
	}
	if snap.Phase == manifest.PhaseEmpty {
		fmt.Fprintln(out, "No runs published yet.")
		return nil
	}

	write := textWriter(out)
	if f.json {
		write = jsonWriter(out)
	}

	loader := dashboard.NewLoader(env.client, render.New(env.cfg.Display), dashboard.Config{
		Concurrency: env.cfg.FetchConcurrency,
		Logger:      env.logger,
	})

	if f.task != "" {
		view, err := loader.LoadOne(ctx, snap.Manifest, snap.BasePath, f.task, f.artifact)
		if err != nil {
			return err
		}
		return write(view)
	}

	if !f.json {
		label := snap.Selected
		if entry, ok := snap.Index.Find(snap.Selected); ok {
			label = entry.Label()
		}
		fmt.Fprintf(out, "Run %s (%s): %d artifacts\n\n", label, snap.Manifest.DagID, len(snap.Manifest.Artifacts()))
	}

	var writeErr error
	err = loader.Stream(ctx, snap.Manifest, snap.BasePath, func(v render.View) {
		if writeErr == nil {
			writeErr = write(v)
		}
	})
	if err != nil {
		return err
	}
	return writeErr
}

// resolve loads the index and the manifest of run, or of the first run when
// run is empty.
func resolve(ctx context.Context, env *environment, run string) (manifest.Snapshot, error) {
	res := manifest.NewResolver(env.client, env.cfg.IndexPath, manifest.WithLogger(env.logger))
	defer res.Close()

	if run != "" {
		if err := res.Select(ctx, run); err != nil {
			return manifest.Snapshot{}, err
		}
	}
	if _, err := res.LoadIndex(ctx); err != nil {
		return manifest.Snapshot{}, err
	}
	snap, err := res.Wait(ctx)
	if err != nil {
		return snap, err
	}
	switch snap.Phase {
	case manifest.PhaseManifestLoaded:
		return snap, nil
	case manifest.PhaseEmpty:
		if run != "" {
			return snap, apperrors.UnknownRun(run)
		}
		return snap, nil
	case manifest.PhaseFailed:
		return snap, snap.Err
	default:
		return snap, fmt.Errorf("run did not resolve, phase %s", snap.Phase)
	}
}

func textWriter(w io.Writer) func(render.View) error {
	return render.NewTextWriter(w).Write
}

func jsonWriter(w io.Writer) func(render.View) error {
	enc := json.NewEncoder(w)
	return func(v render.View) error {
		return enc.Encode(v)
	}
}
