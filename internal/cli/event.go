package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/ai-planner/pkg/models"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Record calendar commitments the scheduler must avoid",
}

var (
	eventAddStart    string
	eventAddEnd      string
	eventAddDuration time.Duration
)

var eventAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add a calendar event",
	Long: `Add a fixed commitment. Give --start with either --end or --duration.

Example:
  aip event add "Team sync" --start "2025-01-06 10:00" --duration 30m`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("planner store not initialized")
		}
		if eventAddStart == "" {
			return fmt.Errorf("--start is required")
		}
		start, err := parseDateFlag(eventAddStart)
		if err != nil {
			return fmt.Errorf("parsing --start: %w", err)
		}
		var end time.Time
		switch {
		case eventAddEnd != "" && eventAddDuration > 0:
			return fmt.Errorf("use either --end or --duration, not both")
		case eventAddEnd != "":
			if end, err = parseDateFlag(eventAddEnd); err != nil {
				return fmt.Errorf("parsing --end: %w", err)
			}
		case eventAddDuration > 0:
			end = start.Add(eventAddDuration)
		default:
			return fmt.Errorf("--end or --duration is required")
		}

		ev, err := Store.AddEvent(models.CalendarEvent{
			Title: strings.Join(args, " "),
			Start: start,
			End:   end,
		})
		if err != nil {
			return fmt.Errorf("adding event: %w", err)
		}
		fmt.Printf("Added event %s: %s - %s\n", ev.ID, formatWhen(&ev.Start), formatWhen(&ev.End))
		return nil
	},
}

var eventListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored calendar events",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("planner store not initialized")
		}
		events, err := Store.GetEvents()
		if err != nil {
			return fmt.Errorf("listing events: %w", err)
		}
		if len(events) == 0 {
			fmt.Println("No events.")
			return nil
		}
		for _, ev := range events {
			fmt.Printf("  %-11s %s - %s  %s\n", ev.ID, formatWhen(&ev.Start), ev.End.In(location()).Format("15:04"), ev.Title)
		}
		return nil
	},
}

func init() {
	eventAddCmd.Flags().StringVar(&eventAddStart, "start", "", "Start time")
	eventAddCmd.Flags().StringVar(&eventAddEnd, "end", "", "End time")
	eventAddCmd.Flags().DurationVar(&eventAddDuration, "duration", 0, "Length, e.g. 30m or 1h30m")

	eventCmd.AddCommand(eventAddCmd, eventListCmd)
	rootCmd.AddCommand(eventCmd)
}
