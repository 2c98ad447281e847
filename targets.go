package ddlgen

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Target is one run of a batch: a source, generation options and a
// destination.
type Target struct {
	Source  string
	Options Options
	Output  OutputOptions
}

// Name identifies the target in error messages.
func (t Target) Name() string {
	switch {
	case t.Output.OutputDir != "":
		return t.Output.OutputDir
	case t.Output.OutputFile != "":
		return t.Output.OutputFile
	default:
		return t.Source
	}
}

// RunTargets runs independent targets in parallel, at most GOMAXPROCS at a
// time. The first failure cancels the targets that have not finished and is
// returned. Targets writing to a Writer must not share it.
func RunTargets(ctx context.Context, targets []Target) error {
	if err := checkDestinations(targets); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for _, t := range targets {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := GenerateFromSource(ctx, t.Source, &t.Options, &t.Output); err != nil {
				return fmt.Errorf("target %s: %w", t.Name(), err)
			}
			return nil
		})
	}
	return g.Wait()
}

// checkDestinations rejects targets that would overwrite each other.
func checkDestinations(targets []Target) error {
	seen := make(map[string]int, len(targets))
	for i, t := range targets {
		dest := t.Output.OutputDir
		if dest == "" {
			dest = t.Output.OutputFile
		}
		if dest == "" {
			continue
		}
		dest = filepath.Clean(dest)
		if j, ok := seen[dest]; ok {
			return fmt.Errorf("targets %d and %d both write to %s", j+1, i+1, dest)
		}
		seen[dest] = i
	}
	return nil
}
