package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/skillrecordings/support-sub010/internal/cli"
	"github.com/skillrecordings/support-sub010/internal/fixtures"
	"github.com/skillrecordings/support-sub010/internal/model"
	"github.com/spf13/cobra"
)

func decideCmd() *cobra.Command {
	var (
		appID  string
		name   string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "decide <thread-file>",
		Short: "Decide the threads in a YAML or JSON file",
		Long: `Run the decision engine on every thread in a fixture file and print
the chosen action. Trust is read from the configured store; nothing is
recorded.`,
		Example: `  # Decide every thread in a file for one app
  triage decide threads.yaml --app total-typescript

  # Decide a single named thread and print JSON
  triage decide threads.yaml --name refund-plain --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			threads, err := fixtures.Load(args[0])
			if err != nil {
				return err
			}
			if name != "" {
				threads = filterFixtures(threads, name)
				if len(threads) == 0 {
					return fmt.Errorf("no thread named %q in %s", name, args[0])
				}
			}

			rt, err := buildRuntime(ctx, runtimeOptions{fallback: true})
			if err != nil {
				return err
			}
			defer func() {
				if err := rt.Close(); err != nil {
					slog.Warn("Failed to close runtime", "error", err)
				}
			}()

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")

			for _, f := range threads {
				app := f.AppID
				if appID != "" {
					app = appID
				}
				if app == "" {
					return fmt.Errorf("thread %q has no app_id; pass --app", f.Name)
				}

				thread := f.Thread()
				decision, err := rt.engine.DecideForApp(ctx, app, thread)
				if err != nil {
					return fmt.Errorf("thread %q: %w", f.Name, err)
				}

				if asJSON {
					if err := enc.Encode(decisionOutput{Name: f.Name, AppID: app, RouteDecision: decision}); err != nil {
						return err
					}
					continue
				}
				fmt.Println(cli.RenderDecision(thread.ConversationID, decision))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&appID, "app", "", "app ID to decide for (overrides app_id in the file)")
	cmd.Flags().StringVar(&name, "name", "", "only decide the thread with this name")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print decisions as JSON")

	return cmd
}

type decisionOutput struct {
	Name  string `json:"name"`
	AppID string `json:"app_id"`
	model.RouteDecision
}

func filterFixtures(all []fixtures.Fixture, name string) []fixtures.Fixture {
	var out []fixtures.Fixture
	for _, f := range all {
		if f.Name == name {
			out = append(out, f)
		}
	}
	return out
}
