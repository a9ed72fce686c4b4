package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/skillrecordings/support-sub010/internal/cli"
	"github.com/skillrecordings/support-sub010/internal/model"
	"github.com/skillrecordings/support-sub010/internal/trust"
	"github.com/spf13/cobra"
)

func trustCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trust",
		Short: "Inspect and reset trust scores",
		Example: `  # Show every trust row
  triage trust list

  # Show one app's rows
  triage trust list total-typescript

  # Show a single row
  triage trust show total-typescript support_access

  # Put a row back to its default
  triage trust reset total-typescript support_access`,
	}

	cmd.AddCommand(listTrustCmd())
	cmd.AddCommand(showTrustCmd())
	cmd.AddCommand(resetTrustCmd())

	return cmd
}

func listTrustCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [app]",
		Short: "List trust scores",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			appID := ""
			if len(args) == 1 {
				appID = args[0]
			}

			rt, err := buildRuntime(cmd.Context(), runtimeOptions{})
			if err != nil {
				return err
			}
			defer closeRuntime(rt)

			scores, err := rt.engine.Trust().List(cmd.Context(), appID)
			if err != nil {
				return err
			}
			if len(scores) == 0 {
				fmt.Println(cli.FormatInfo("No trust rows recorded yet"))
				return nil
			}

			fmt.Println(renderTrustTable(scores, rt.engine.Trust().Config()))
			return nil
		},
	}
}

func showTrustCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <app> <category>",
		Short: "Show one trust score",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			category, err := model.ParseCategory(args[1])
			if err != nil {
				return err
			}

			rt, err := buildRuntime(cmd.Context(), runtimeOptions{})
			if err != nil {
				return err
			}
			defer closeRuntime(rt)

			score, err := rt.engine.Trust().GetScore(cmd.Context(), args[0], category)
			if err != nil {
				return err
			}

			fmt.Println(renderTrustTable([]model.TrustScore{score}, rt.engine.Trust().Config()))
			return nil
		},
	}
}

func resetTrustCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset <app> <category>",
		Short: "Reset a trust score to its default",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			category, err := model.ParseCategory(args[1])
			if err != nil {
				return err
			}

			rt, err := buildRuntime(cmd.Context(), runtimeOptions{})
			if err != nil {
				return err
			}
			defer closeRuntime(rt)

			score, err := rt.engine.Trust().Reset(cmd.Context(), args[0], category)
			if err != nil {
				return err
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Reset %s/%s to %.2f", score.AppID, score.Category, score.Score)))
			return nil
		},
	}
}

func renderTrustTable(scores []model.TrustScore, cfg trust.Config) string {
	rows := make([][]string, 0, len(scores))
	for _, s := range scores {
		threshold := cfg.Threshold(s.Category)
		gate := fmt.Sprintf("%.2f", threshold)
		if s.Category.NeverAutoSend() {
			gate = "never"
		}
		rows = append(rows, []string{
			s.AppID,
			string(s.Category),
			cli.FormatScore(s.Score, threshold),
			gate,
			fmt.Sprintf("%d", s.SampleCount),
			s.UpdatedAt.Local().Format(time.DateTime),
		})
	}
	return cli.RenderTable([]string{"APP", "CATEGORY", "SCORE", "AUTO-SEND AT", "SAMPLES", "UPDATED"}, rows)
}

func closeRuntime(rt *runtime) {
	if err := rt.Close(); err != nil {
		slog.Warn("Failed to close runtime", "error", err)
	}
}
