package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"sync/atomic"

	"github.com/schollz/progressbar/v3"
	"github.com/skillrecordings/support-sub010/internal/cli"
	"github.com/skillrecordings/support-sub010/internal/config"
	"github.com/skillrecordings/support-sub010/internal/engine"
	"github.com/skillrecordings/support-sub010/internal/fixtures"
	"github.com/skillrecordings/support-sub010/internal/model"
	"github.com/skillrecordings/support-sub010/internal/trust"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// replayMismatch is one fixture whose result disagreed with its expectation.
type replayMismatch struct {
	Name   string
	Want   string
	Got    string
	Reason string
}

// replaySummary aggregates a replay run.
type replaySummary struct {
	Actions    map[model.Action]int
	Mismatches []replayMismatch
	Total      int
	FastPath   int
	Abstained  int
	Checked    int
	Failed     int
}

func replayCmd() *cobra.Command {
	var (
		appID        string
		withFallback bool
		strict       bool
	)

	cmd := &cobra.Command{
		Use:   "replay <fixtures-file>",
		Short: "Replay recorded threads through the engine",
		Long: `Replay every fixture in a file through a fresh engine with in-memory
trust and compare the results with the reviewer-approved expectations.

Replays never touch the configured trust store.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			all, err := fixtures.Load(args[0])
			if err != nil {
				return err
			}

			engineCfg, err := config.LoadEngineConfig(viper.GetViper())
			if err != nil {
				return err
			}
			// Replays are offline; limits would only skew the comparison.
			engineCfg.FallbackLimit, engineCfg.RespondLimit = 0, 0

			opts := []engine.Option{engine.WithLogger(slog.Default())}
			if withFallback {
				fallback, err := createFallback(slog.Default())
				if err != nil {
					return err
				}
				if fallback != nil {
					defer func() { _ = fallback.Close() }()
					opts = append(opts, engine.WithFallback(fallback))
				}
			}

			e, err := engine.New(trust.NewMemoryStore(), engineCfg, opts...)
			if err != nil {
				return err
			}

			var done atomic.Int64
			interrupts := cli.NewInterruptHandler(os.Stderr)
			ctx := interrupts.HandleInterrupts(cmd.Context(), func() string {
				return fmt.Sprintf("%d of %d threads replayed", done.Load(), len(all))
			})

			bar := newReplayBar(len(all), os.Stderr)
			summary, err := replay(ctx, e, all, appID, func() {
				done.Add(1)
				if err := bar.Add(1); err != nil {
					slog.Warn("Failed to update progress bar", "error", err)
				}
			})
			if err != nil {
				return err
			}

			fmt.Println(renderSummary(summary))
			if strict && summary.Failed > 0 {
				return fmt.Errorf("%d of %d checked fixtures disagreed with their expectation", summary.Failed, summary.Checked)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&appID, "app", "replay", "app ID for fixtures without one")
	cmd.Flags().BoolVar(&withFallback, "fallback", false, "call the configured LLM when the fast path abstains")
	cmd.Flags().BoolVar(&strict, "strict", false, "exit non-zero when any expectation fails")

	return cmd
}

func newReplayBar(total int, w io.Writer) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Replaying threads...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			_, _ = fmt.Fprintln(w)
		}),
	)
}

// replay decides every fixture and checks it against its expectation. Apps
// are auto-send enabled with an instructor so routing is fully exercised.
func replay(ctx context.Context, e *engine.Engine, all []fixtures.Fixture, defaultApp string, step func()) (replaySummary, error) {
	summary := replaySummary{Actions: make(map[model.Action]int)}

	for _, f := range all {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		appID := f.AppID
		if appID == "" {
			appID = defaultApp
		}
		app := model.AppConfig{
			AppID:                appID,
			AutoSendEnabled:      true,
			InstructorConfigured: true,
			InstructorTeammateID: "instructor",
		}

		summary.Total++
		decision, err := e.Decide(ctx, f.Thread(), app)
		if step != nil {
			step()
		}
		if err != nil {
			summary.Failed++
			summary.Mismatches = append(summary.Mismatches, replayMismatch{
				Name: f.Name, Want: "valid thread", Got: "error", Reason: err.Error(),
			})
			continue
		}

		summary.Actions[decision.Action]++
		if decision.Source == model.SourceFastPath {
			summary.FastPath++
		} else {
			summary.Abstained++
		}

		if m, checked := check(f, decision); checked {
			summary.Checked++
			if m != nil {
				summary.Failed++
				summary.Mismatches = append(summary.Mismatches, *m)
			}
		}
	}

	return summary, nil
}

// check compares a decision with the fixture's expectation. A category
// expectation only binds when the fast path decided.
func check(f fixtures.Fixture, d model.RouteDecision) (*replayMismatch, bool) {
	exp := f.Expect
	checked := false

	if exp.Abstain {
		checked = true
		if d.Source == model.SourceFastPath {
			return &replayMismatch{Name: f.Name, Want: "abstain", Got: string(d.Category), Reason: d.Reasoning}, true
		}
	}
	if exp.Category != "" && d.Source == model.SourceFastPath {
		checked = true
		if d.Category != exp.Category {
			return &replayMismatch{Name: f.Name, Want: string(exp.Category), Got: string(d.Category), Reason: d.Reasoning}, true
		}
	}
	if exp.Action != "" {
		checked = true
		if d.Action != exp.Action {
			return &replayMismatch{Name: f.Name, Want: string(exp.Action), Got: string(d.Action), Reason: d.Reasoning}, true
		}
	}
	return nil, checked
}

func renderSummary(s replaySummary) string {
	lines := fmt.Sprintf("%s %d threads, %d decided by the fast path, %d abstained\n",
		cli.ChartIcon, s.Total, s.FastPath, s.Abstained)

	actions := make([]model.Action, 0, len(s.Actions))
	for a := range s.Actions {
		actions = append(actions, a)
	}
	sort.Slice(actions, func(i, j int) bool { return actions[i].EscalationRank() < actions[j].EscalationRank() })

	rows := make([][]string, 0, len(actions))
	for _, a := range actions {
		rows = append(rows, []string{cli.FormatAction(a), fmt.Sprintf("%d", s.Actions[a])})
	}
	lines += cli.RenderTable([]string{"ACTION", "THREADS"}, rows) + "\n\n"

	if s.Failed == 0 {
		lines += cli.FormatSuccess(fmt.Sprintf("%d expectations checked, all agree", s.Checked))
		return cli.RenderBox("Replay", lines)
	}

	lines += cli.FormatWarning(fmt.Sprintf("%d of %d expectations failed", s.Failed, s.Checked)) + "\n"
	for _, m := range s.Mismatches {
		lines += fmt.Sprintf("  %s %s: want %s, got %s (%s)\n", cli.ErrorIcon, m.Name, m.Want, m.Got, m.Reason)
	}
	return cli.RenderBox("Replay", lines)
}
