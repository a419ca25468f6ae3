package main

import (
	"fmt"

	"github.com/benchgate/benchgate/internal/dataset"
	"github.com/benchgate/benchgate/internal/models"
	"github.com/benchgate/benchgate/internal/reporting"
	"github.com/benchgate/benchgate/internal/validate"
	"github.com/spf13/cobra"
)

var (
	lossModel     string
	lossWindow    int
	lossTolerance float64
	lossOutput    string
	lossFormat    string
)

func newLossCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "loss <reference.txt> <candidate.txt>",
		Short: "Check that a training run's loss converged like the reference",
		Long: `Compare two loss histories, one value per epoch per line.

The mean of the candidate's last --window epochs must not exceed the
reference mean over the same epochs plus --tolerance. A tolerance of 0
requires the candidate to match or beat the reference.

Histories shorter than --window are averaged over every epoch and held to
the same tolerance, which is stricter than dividing a short sum by the full
window. With --output the outcome is written as a one-row training artifact
for validate.`,
		Args: cobra.ExactArgs(2),
		RunE: lossCommandE,
	}

	cmd.Flags().StringVar(&lossModel, "model", "", "Model the histories belong to (required with --output)")
	cmd.Flags().IntVar(&lossWindow, "window", validate.DefaultLossWindow, "Trailing epochs to average")
	cmd.Flags().Float64Var(&lossTolerance, "tolerance", validate.DefaultLossTolerance, "Allowed excess over the reference mean (0 is a strict bound)")
	cmd.Flags().StringVarP(&lossOutput, "output", "o", "", "Write a training-mode artifact row to this file")
	cmd.Flags().StringVarP(&lossFormat, "format", "f", "text", "Output format: text or json")

	return cmd
}

func lossCommandE(cmd *cobra.Command, args []string) error {
	if lossFormat != "text" && lossFormat != "json" {
		return fmt.Errorf("%w: unsupported format %q: must be text or json", models.ErrInvalidInput, lossFormat)
	}
	if lossOutput != "" && lossModel == "" {
		return fmt.Errorf("%w: --model is required with --output", models.ErrInvalidInput)
	}

	reference, err := dataset.LoadLossHistory(args[0])
	if err != nil {
		return err
	}
	candidate, err := dataset.LoadLossHistory(args[1])
	if err != nil {
		return err
	}

	check, err := validate.LossConverged(reference, candidate, lossWindow, lossTolerance)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if lossFormat == "json" {
		if err := writeJSON(w, check); err != nil {
			return err
		}
	} else {
		verdict := "converged"
		if !check.Converged {
			verdict = "did not converge"
		}
		fmt.Fprintf(w, "Loss %s: candidate mean %.4f, reference mean %.4f + %.2g over the last %d epoch(s)\n", //nolint:errcheck
			verdict, check.CandidateMean, check.ReferenceMean, check.Tolerance, check.Window)
	}

	if lossOutput != "" {
		table := models.NewResultTable(models.ModeTraining)
		table.Set(validate.LossRecord(lossModel, check))
		if err := dataset.WriteArtifact(lossOutput, table); err != nil {
			return err
		}
	}

	if !check.Converged {
		return &VerdictFailureError{
			Code:    reporting.ExitRegression,
			Message: fmt.Sprintf("training loss did not converge: %.4f > %.4f + %.2g", check.CandidateMean, check.ReferenceMean, check.Tolerance),
		}
	}
	return nil
}
