package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/benchgate/benchgate/internal/dataset"
	"github.com/benchgate/benchgate/internal/models"
	"github.com/benchgate/benchgate/internal/partition"
	"github.com/benchgate/benchgate/internal/projectconfig"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
)

// maxArtifactReaders bounds concurrent artifact decoding.
const maxArtifactReaders = 8

func loadProject() (*projectconfig.ProjectConfig, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting working directory: %w", err)
	}
	cfg, err := projectconfig.Load(wd)
	if err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}
	if cfg.Path != "" {
		slog.Debug("Loaded project config", "path", cfg.Path)
	}
	return cfg, nil
}

func loadEnv() (projectconfig.EnvDefaults, error) {
	return projectconfig.EnvFromEnviron(os.Environ())
}

// intFlag returns the flag value when it was set on the command line, then
// the environment value, then def.
func intFlag(cmd *cobra.Command, name string, flagVal int, env *int, def int) int {
	if cmd.Flags().Changed(name) {
		return flagVal
	}
	if env != nil {
		return *env
	}
	return def
}

// suiteSelection is a resolved suite plus the exclusions and partition count
// that apply to it.
type suiteSelection struct {
	name       string
	config     projectconfig.SuiteConfig
	models     models.ModelSuite
	exclusions models.ExclusionSet
	total      int
}

// selectSuite resolves the suite named by --suite, or the list in
// --models-file. Exclusions from config, flags and environment are merged.
func selectSuite(cmd *cobra.Command, cfg *projectconfig.ProjectConfig, env projectconfig.EnvDefaults, name, modelsFile string, exclude []string, totalFlag int) (*suiteSelection, error) {
	sel := &suiteSelection{name: name}

	switch {
	case modelsFile != "":
		ids, err := dataset.LoadModelList(modelsFile)
		if err != nil {
			return nil, err
		}
		sel.models = models.ModelSuite(ids)
		if err := sel.models.Validate(); err != nil {
			return nil, err
		}
		sel.total = intFlag(cmd, "total-partitions", totalFlag, env.TotalPartitions, cfg.Defaults.TotalPartitions)
	case name != "":
		sc, err := cfg.Suite(name)
		if err != nil {
			return nil, err
		}
		sel.config = sc
		if sel.models, err = cfg.LoadModels(sc); err != nil {
			return nil, fmt.Errorf("suite %s: %w", name, err)
		}
		sel.total = intFlag(cmd, "total-partitions", totalFlag, env.TotalPartitions, cfg.TotalPartitions(sc))
	default:
		return nil, fmt.Errorf("%w: --suite or --models-file is required", models.ErrInvalidInput)
	}

	sel.exclusions = sel.config.Exclusions().
		Union(models.NewExclusionSet(exclude...)).
		Union(models.NewExclusionSet(env.Exclude...))
	return sel, nil
}

// assigned returns the models owned by partition id, or the whole filtered
// suite when id is nil.
func (s *suiteSelection) assigned(id *int) ([]string, error) {
	if id == nil {
		return s.models.Filter(s.exclusions), nil
	}
	return partition.Assign(s.models, s.exclusions, partition.Spec{Total: s.total, ID: *id})
}

// partitionID returns the partition id from the flag or environment, nil if
// neither is set.
func partitionID(cmd *cobra.Command, flagVal int, env *int) *int {
	if cmd.Flags().Changed("partition-id") {
		return &flagVal
	}
	return env
}

// readArtifacts decodes every artifact concurrently and returns the records in
// argument order, so collection stays deterministic.
func readArtifacts(ctx context.Context, paths []string, mode models.RunMode) ([]models.ResultRecord, error) {
	perFile := make([][]models.ResultRecord, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxArtifactReaders)
	for i, p := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			recs, err := dataset.ReadArtifact(p, mode)
			if err != nil {
				return err
			}
			slog.Debug("Read artifact", "path", p, "records", len(recs))
			perFile[i] = recs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []models.ResultRecord
	for _, recs := range perFile {
		all = append(all, recs...)
	}
	return all, nil
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
