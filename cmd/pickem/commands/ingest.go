package commands

import (
	"context"

	"pickem/ingestion/internal/app"
	"pickem/ingestion/internal/feeds"
	"pickem/ingestion/internal/printer"

	"github.com/spf13/cobra"
)

var ratingsURL string

var ratingsCmd = &cobra.Command{
	Use:   "ratings",
	Short: "Scrape the ratings page and store a ratings snapshot",
	Long: `Download the Sagarin ratings page, resolve every team name and store the
home advantage and ratings as one snapshot.

Examples:
  # Scrape the configured page (SAGARIN_URL)
  pickem ratings

  # Scrape a mirror
  pickem ratings --url https://example.com/cfsend.htm`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			printer.Step("Fetching ratings\n")
			return finishRun(a.Service.RunRatings(ctx, ratingsURL))
		})
	},
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule FILE",
	Short: "Store a season schedule for the most recent season",
	Long: `Read a YAML schedule mapping each team name to its list of weekly opponent
tokens and store it for the most recent season.

A token is an optional locale sigil followed by an opponent name:
  @  away     >  far      !  neutral      <  near      (none)  home
An empty or null token is a bye week.

Example file:
  Duke: ["@North Carolina", "", "!Wake Forest", "NC State"]`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		schedule, err := feeds.LoadSchedule(args[0])
		if err != nil {
			return printer.Error("Cannot read schedule", err.Error(), nil)
		}

		return withApp(func(ctx context.Context, a *app.App) error {
			printer.Step("Ingesting schedule for %d team(s)\n", len(schedule))
			return finishRun(a.Service.RunSchedule(ctx, schedule))
		})
	},
}

var (
	streaksRemaining string
	streaksTypes     string
	streaksWeek      int
)

var streaksCmd = &cobra.Command{
	Use:   "streaks",
	Short: "Store each picker's remaining teams and pick types for a week",
	Long: `Read the remaining-teams file and, optionally, the pick-types file and store
one streak per picker for the given week of the most recent season.

The pick-types list for a picker counts how many picks of each size remain:
entry i is the number of weeks where i teams are picked together. The
weighted sum must equal the number of remaining teams. Pickers missing from
the types file (or every picker, without one) pick one team per week.

Examples:
  pickem streaks --remaining remaining.yaml --week 3
  pickem streaks --remaining remaining.yaml --types types.yaml --week 3`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if streaksWeek < 0 {
			return printer.Error("Invalid week", "--week must be zero or greater", nil)
		}

		remaining, err := feeds.LoadRemaining(streaksRemaining)
		if err != nil {
			return printer.Error("Cannot read remaining teams", err.Error(), nil)
		}
		types, err := feeds.LoadPickTypes(streaksTypes)
		if err != nil {
			return printer.Error("Cannot read pick types", err.Error(), nil)
		}

		return withApp(func(ctx context.Context, a *app.App) error {
			printer.Step("Ingesting week %d streaks for %d picker(s)\n", streaksWeek, len(remaining))
			return finishRun(a.Service.RunStreaks(ctx, streaksWeek, remaining, types))
		})
	},
}

func init() {
	ratingsCmd.Flags().StringVar(&ratingsURL, "url", "", "Ratings page URL (defaults to SAGARIN_URL)")

	streaksCmd.Flags().StringVarP(&streaksRemaining, "remaining", "r", "", "YAML file of remaining teams per picker")
	streaksCmd.Flags().StringVarP(&streaksTypes, "types", "t", "", "YAML file of pick types per picker")
	streaksCmd.Flags().IntVarP(&streaksWeek, "week", "w", -1, "Week number the streaks apply to")
	_ = streaksCmd.MarkFlagRequired("remaining")
	_ = streaksCmd.MarkFlagRequired("week")

	rootCmd.AddCommand(ratingsCmd, scheduleCmd, streaksCmd)
}
