package commands

import (
	"context"
	"errors"
	"fmt"

	"pickem/ingestion/internal/app"
	"pickem/ingestion/internal/printer"
	"pickem/ingestion/internal/repository"
	"pickem/ingestion/internal/scheduler"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create any missing database tables",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			if err := a.DB.EnsureSchema(ctx); err != nil {
				return printer.Error("Migration failed", err.Error(), nil)
			}
			if err := a.DB.Teams.EnsureBye(ctx, a.Config.ByeTeamID); err != nil {
				return printer.Error("Migration failed", err.Error(), nil)
			}
			a.InvalidateRoster(ctx)
			printer.Success("Schema is up to date\n")
			return nil
		})
	},
}

var aliasCmd = &cobra.Command{
	Use:   "alias team|picker ID NAME",
	Short: "Register another name for a team or picker",
	Long: `Add NAME to teams.other_names or pickers.aliases for the entity with the
given canonical ID, then drop the cached registry so the next run sees it.

Examples:
  pickem alias team miami-fl "Miami-Florida"
  pickem alias picker phil "Philip"`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, id, name := args[0], args[1], args[2]
		if kind != "team" && kind != "picker" {
			return printer.Error("Unknown kind", fmt.Sprintf("%q is neither team nor picker", kind), nil)
		}

		return withApp(func(ctx context.Context, a *app.App) error {
			var err error
			if kind == "team" {
				err = a.DB.Teams.AddOtherName(ctx, id, name)
			} else {
				err = a.DB.Pickers.AddAlias(ctx, id, name)
			}
			if errors.Is(err, repository.ErrNotFound) {
				return printer.Error("No such "+kind, err.Error(), []string{"Check the canonical id"})
			}
			if err != nil {
				return printer.Error("Cannot add name", err.Error(), nil)
			}

			a.InvalidateRoster(ctx)
			printer.Success("%s %s is also known as %q\n", kind, id, name)
			return nil
		})
	},
}

var triggerURL string

var triggerCmd = &cobra.Command{
	Use:   "trigger",
	Short: "Ask running workers to scrape ratings",
	Long: `Publish a scrape message on TRIGGER_CHANNEL. Every worker listening on
that channel starts a ratings run.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			if a.Cache == nil {
				return printer.Error("Redis unavailable", "Workers are triggered over Redis Pub/Sub", []string{
					"Check REDIS_HOST and REDIS_PORT, or run `pickem ratings` directly",
				})
			}
			msg := scheduler.ScrapeMessage{URL: triggerURL}
			if err := scheduler.PublishTrigger(ctx, a.Cache.Client(), a.Config.TriggerChannel, msg); err != nil {
				return printer.Error("Cannot publish", err.Error(), nil)
			}
			printer.Success("Scrape requested on %s\n", a.Config.TriggerChannel)
			return nil
		})
	},
}

func init() {
	triggerCmd.Flags().StringVar(&triggerURL, "url", "", "Ratings page URL (workers default to SAGARIN_URL)")

	rootCmd.AddCommand(migrateCmd, aliasCmd, triggerCmd)
}
