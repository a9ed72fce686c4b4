package main

import (
	"fmt"

	"github.com/skillrecordings/support-sub010/internal/cli"
	"github.com/skillrecordings/support-sub010/internal/model"
	"github.com/spf13/cobra"
)

func outcomeCmd() *cobra.Command {
	var eventID string

	cmd := &cobra.Command{
		Use:   "outcome <app> <category> <outcome>",
		Short: "Record what happened to a decision",
		Long: `Record an outcome against a trust row. Outcomes are one of:
sent_unchanged, sent_with_minor_edit, sent_with_major_edit, overridden, rejected.

Passing --id makes the command safe to repeat: an ID that was already
applied leaves the score unchanged.`,
		Example: `  triage outcome total-typescript support_access sent_unchanged --id msg_123`,
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			category, err := model.ParseCategory(args[1])
			if err != nil {
				return err
			}
			outcome, err := model.ParseOutcome(args[2])
			if err != nil {
				return err
			}

			rt, err := buildRuntime(cmd.Context(), runtimeOptions{publisher: true})
			if err != nil {
				return err
			}
			defer closeRuntime(rt)

			score, applied, err := rt.engine.RecordOutcomeEvent(cmd.Context(), model.OutcomeEvent{
				ID:       eventID,
				AppID:    args[0],
				Category: category,
				Outcome:  outcome,
			})
			if err != nil {
				return err
			}

			if !applied {
				fmt.Println(cli.FormatWarning(fmt.Sprintf("Outcome %s was already recorded; score stays at %.2f", eventID, score.Score)))
				return nil
			}
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("%s/%s is now %.2f after %d samples",
				score.AppID, score.Category, score.Score, score.SampleCount)))
			return nil
		},
	}

	cmd.Flags().StringVar(&eventID, "id", "", "event ID used to drop duplicate submissions")

	return cmd
}
