package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	deadlineApply bool
	deadlineJSON  bool
)

var deadlineCmd = &cobra.Command{
	Use:   "deadline <task-id>",
	Short: "Suggest a deadline for a task",
	Long: `Suggest a deadline for an active task. Dates and urgency in related,
recently analyzed context entries come first; otherwise the suggestion
allows a week, or longer for large tasks and a heavy workload. The
suggestion always leaves room for the task's estimated effort.

--apply stores the suggested deadline on the task.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Planner == nil {
			return fmt.Errorf("planner not initialized")
		}
		if deadlineApply && Store == nil {
			return fmt.Errorf("task store not initialized")
		}

		sug, err := Planner.SuggestDeadline(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("suggesting deadline: %w", err)
		}
		if deadlineApply {
			if err := Store.SetTaskDeadline(sug.TaskID, sug.SuggestedDeadline); err != nil {
				return fmt.Errorf("saving deadline: %w", err)
			}
		}

		if deadlineJSON {
			return printJSON(sug)
		}

		fmt.Printf("%s  %s\n\n", sug.TaskID, sug.Title)
		fmt.Printf("  %-12s %s (confidence %.0f%%)\n", "Suggested:", formatWhen(&sug.SuggestedDeadline), sug.Confidence*100)
		fmt.Printf("  %-12s %s\n", "Current:", formatWhen(sug.CurrentDeadline))
		fmt.Printf("  %-12s %s\n", "Why:", sug.Reasoning)
		if len(sug.RelatedContexts) > 0 {
			fmt.Printf("  %-12s %s\n", "Context:", strings.Join(sug.RelatedContexts, ", "))
		}
		if len(sug.FactorsConsidered) > 0 {
			fmt.Println("\nFactors:")
			for _, f := range sug.FactorsConsidered {
				fmt.Printf("  - %s\n", f)
			}
		}
		if deadlineApply {
			fmt.Println("\nDeadline saved.")
		}
		return nil
	},
}

func init() {
	deadlineCmd.Flags().BoolVar(&deadlineApply, "apply", false, "Store the suggested deadline on the task")
	deadlineCmd.Flags().BoolVar(&deadlineJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(deadlineCmd)
}
