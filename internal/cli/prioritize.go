package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/ai-planner/internal/core"
)

var (
	prioritizeRefresh bool
	prioritizeSave    bool
	prioritizeJSON    bool
	prioritizeExplain bool
)

var prioritizeCmd = &cobra.Command{
	Use:   "prioritize [task-id...]",
	Short: "Score and rank tasks",
	Long: `Score tasks from 0 to 100 by deadline urgency, user priority, relevance
to recent context entries and overall workload, then rank them.

With no task IDs every pending and in-progress task is ranked. Unanalyzed
context entries from the retention window are analyzed first; use
--refresh-context to re-analyze all of them. --save stores each score and
its reasoning on the task.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Planner == nil {
			return fmt.Errorf("planner not initialized")
		}

		result, err := Planner.PrioritizeTasks(context.Background(), core.PrioritizeRequest{
			TaskIDs:        args,
			RefreshContext: prioritizeRefresh,
			Persist:        prioritizeSave,
		})
		if err != nil {
			return fmt.Errorf("prioritizing tasks: %w", err)
		}

		if prioritizeJSON {
			return printJSON(result)
		}
		if len(result.PrioritizedTasks) == 0 {
			fmt.Println("No active tasks to prioritize.")
			return nil
		}

		fmt.Printf("  %-3s %-12s %6s  %-9s %s\n", "#", "ID", "SCORE", "LABEL", "TITLE")
		for _, pt := range result.PrioritizedTasks {
			label := styleLabel(fmt.Sprintf("%-9s", pt.Label))
			fmt.Printf("  %-3d %-12s %6.2f  %s %s\n", pt.RecommendedOrder, pt.TaskID, pt.Score, label, truncate(pt.Title, 50))
			if prioritizeExplain {
				fmt.Printf("      %s\n", pt.Reasoning)
			}
		}
		if w := result.WorkloadAssessment; w != nil {
			fmt.Printf("\nWorkload: %s (%.1fh of %.1fh available)\n",
				styleWorkload(w.WorkloadLevel), w.TotalEstimatedHours, w.AvailableHours)
		}
		if prioritizeSave {
			fmt.Println("Scores saved.")
		}
		return nil
	},
}

func init() {
	prioritizeCmd.Flags().BoolVar(&prioritizeRefresh, "refresh-context", false, "Re-analyze context entries even if already analyzed")
	prioritizeCmd.Flags().BoolVar(&prioritizeSave, "save", false, "Store scores and reasoning on the tasks")
	prioritizeCmd.Flags().BoolVar(&prioritizeJSON, "json", false, "Output as JSON")
	prioritizeCmd.Flags().BoolVarP(&prioritizeExplain, "explain", "x", false, "Show the reasoning for each score")
	rootCmd.AddCommand(prioritizeCmd)
}
