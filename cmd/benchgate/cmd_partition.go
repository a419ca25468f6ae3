package main

import (
	"fmt"
	"strings"

	"github.com/benchgate/benchgate/internal/models"
	"github.com/benchgate/benchgate/internal/partition"
	"github.com/spf13/cobra"
)

var (
	partSuite      string
	partModelsFile string
	partExclude    []string
	partTotal      int
	partID         int
	partAll        bool
	partOwner      string
	partFormat     string
)

func newPartitionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "partition",
		Short: "Print the models a partition owns",
		Long: `Print the ordered list of models owned by one partition of a suite.

Excluded models are removed first; the i-th remaining model belongs to
partition i mod total-partitions. Every worker can compute its own list
without coordination.

BENCHGATE_TOTAL_PARTITIONS, BENCHGATE_PARTITION_ID and BENCHGATE_EXCLUDE
supply defaults for the matching flags.`,
		Example: `  benchgate partition --suite timm --total-partitions 3 --partition-id 1
  benchgate partition --models-file models.txt --total-partitions 4 --all
  benchgate partition --suite huggingface --owner BertForMaskedLM`,
		Args: cobra.NoArgs,
		RunE: partitionCommandE,
	}

	cmd.Flags().StringVar(&partSuite, "suite", "", "Suite name from .benchgate.yaml")
	cmd.Flags().StringVar(&partModelsFile, "models-file", "", "Model list file (one identifier per line) instead of a configured suite")
	cmd.Flags().StringSliceVar(&partExclude, "exclude", nil, "Model to exclude (can be repeated or comma separated)")
	cmd.Flags().IntVar(&partTotal, "total-partitions", 1, "Number of partitions")
	cmd.Flags().IntVar(&partID, "partition-id", 0, "Partition to print, in [0, total-partitions)")
	cmd.Flags().BoolVar(&partAll, "all", false, "Print every partition")
	cmd.Flags().StringVar(&partOwner, "owner", "", "Print the partition that owns this model")
	cmd.Flags().StringVar(&partFormat, "format", "text", "Output format: text or json")

	return cmd
}

type partitionJSON struct {
	Suite           string   `json:"suite,omitempty"`
	TotalPartitions int      `json:"total_partitions"`
	PartitionID     int      `json:"partition_id"`
	Models          []string `json:"models"`
}

func partitionCommandE(cmd *cobra.Command, _ []string) error {
	if partFormat != "text" && partFormat != "json" {
		return fmt.Errorf("%w: unsupported format %q: must be text or json", models.ErrInvalidInput, partFormat)
	}

	cfg, err := loadProject()
	if err != nil {
		return err
	}
	env, err := loadEnv()
	if err != nil {
		return err
	}
	sel, err := selectSuite(cmd, cfg, env, partSuite, partModelsFile, partExclude, partTotal)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()

	if partOwner != "" {
		if err := (partition.Spec{Total: sel.total}).Validate(); err != nil {
			return err
		}
		owner := partition.Owner(sel.models, sel.exclusions, sel.total, partOwner)
		if owner < 0 {
			return fmt.Errorf("%w: model %q is not in the suite or is excluded", models.ErrInvalidInput, partOwner)
		}
		fmt.Fprintln(w, owner) //nolint:errcheck
		return nil
	}

	var shards []partitionJSON
	if partAll {
		all, err := partition.All(sel.models, sel.exclusions, sel.total)
		if err != nil {
			return err
		}
		for id, ids := range all {
			shards = append(shards, partitionJSON{Suite: sel.name, TotalPartitions: sel.total, PartitionID: id, Models: ids})
		}
	} else {
		id := intFlag(cmd, "partition-id", partID, env.PartitionID, 0)
		ids, err := partition.Assign(sel.models, sel.exclusions, partition.Spec{Total: sel.total, ID: id})
		if err != nil {
			return err
		}
		shards = append(shards, partitionJSON{Suite: sel.name, TotalPartitions: sel.total, PartitionID: id, Models: ids})
	}

	if partFormat == "json" {
		if partAll {
			return writeJSON(w, shards)
		}
		return writeJSON(w, shards[0])
	}

	for _, s := range shards {
		if partAll {
			fmt.Fprintf(w, "# partition %d/%d (%d models)\n", s.PartitionID, s.TotalPartitions, len(s.Models)) //nolint:errcheck
		}
		if len(s.Models) > 0 {
			fmt.Fprintln(w, strings.Join(s.Models, "\n")) //nolint:errcheck
		}
	}
	return nil
}
