package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/ai-planner/internal/core"
)

var (
	scheduleApply bool
	scheduleJSON  bool
)

type scheduleReport struct {
	*core.ScheduleResult
	Outcomes []core.ApplyOutcome `json:"outcomes,omitempty"`
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule [task-id...]",
	Short: "Propose time slots for tasks in priority order",
	Long: `Place tasks into free working-hour slots, highest priority first,
around calendar events and existing time blocks. Tasks that cannot fit
before their deadline or the planning horizon are listed separately.

With --apply every proposed slot is reserved as a time block. A slot that
became busy since it was proposed is reported as a conflict and skipped;
the others are still applied.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Planner == nil {
			return fmt.Errorf("planner not initialized")
		}
		ctx := context.Background()

		result, err := Planner.OptimizeSchedule(ctx, args)
		if err != nil {
			return fmt.Errorf("optimizing schedule: %w", err)
		}
		report := scheduleReport{ScheduleResult: result}
		if scheduleApply && len(result.Assignments) > 0 {
			report.Outcomes, err = Planner.ApplySchedule(ctx, result.Assignments)
			if err != nil {
				return fmt.Errorf("applying schedule: %w", err)
			}
		}

		if scheduleJSON {
			return printJSON(report)
		}
		printSchedule(report)
		return nil
	},
}

func printSchedule(r scheduleReport) {
	if len(r.Assignments) == 0 && len(r.Unschedulable) == 0 {
		fmt.Println("Nothing to schedule.")
		return
	}

	outcome := make(map[string]core.ApplyOutcome, len(r.Outcomes))
	for _, o := range r.Outcomes {
		outcome[o.TaskID] = o
	}

	loc := location()
	day := ""
	for _, a := range r.Assignments {
		start, end := a.Start.In(loc), a.End.In(loc)
		if d := start.Format("Mon 2006-01-02"); d != day {
			if day != "" {
				fmt.Println()
			}
			fmt.Println(d)
			day = d
		}
		line := fmt.Sprintf("  %s-%s  %-12s %-7s %s", start.Format("15:04"), end.Format("15:04"), a.TaskID, a.Priority, truncate(a.TaskTitle, 50))
		if o, ok := outcome[a.TaskID]; ok && o.Status != core.ApplyApplied {
			line += fmt.Sprintf("  [%s: %s]", o.Status, o.Error)
		}
		fmt.Println(line)
	}

	if len(r.Unschedulable) > 0 {
		fmt.Println("\nCould not schedule:")
		for _, u := range r.Unschedulable {
			fmt.Printf("  %-12s %s (%s)\n", u.TaskID, truncate(u.TaskTitle, 50), u.Reason)
		}
	}

	if len(r.Outcomes) > 0 {
		applied, conflicts, failed := 0, 0, 0
		for _, o := range r.Outcomes {
			switch o.Status {
			case core.ApplyApplied:
				applied++
			case core.ApplyConflict:
				conflicts++
			default:
				failed++
			}
		}
		fmt.Printf("\nApplied %d block(s), %d conflict(s), %d failure(s).\n", applied, conflicts, failed)
	}
}

func init() {
	scheduleCmd.Flags().BoolVar(&scheduleApply, "apply", false, "Reserve the proposed slots as time blocks")
	scheduleCmd.Flags().BoolVar(&scheduleJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(scheduleCmd)
}
