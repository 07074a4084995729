package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	workloadWindow int
	workloadJSON   bool
)

var workloadCmd = &cobra.Command{
	Use:   "workload",
	Short: "Compare pending effort with available working hours",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Planner == nil {
			return fmt.Errorf("planner not initialized")
		}
		report, err := Planner.WorkloadAnalysis(context.Background(), workloadWindow)
		if err != nil {
			return fmt.Errorf("analyzing workload: %w", err)
		}
		if workloadJSON {
			return printJSON(report)
		}

		fmt.Printf("Workload over %d day(s): %s\n\n", report.WindowDays, styleWorkload(report.WorkloadLevel))
		fmt.Printf("  %-22s %d\n", "Active tasks:", report.TotalActiveTasks)
		fmt.Printf("  %-22s %.1fh\n", "Estimated effort:", report.TotalEstimatedHours)
		fmt.Printf("  %-22s %.1fh\n", "Available:", report.AvailableHours)
		fmt.Printf("  %-22s %.0f%%\n", "Utilization:", report.Utilization*100)
		fmt.Printf("  %-22s %d\n", "High/urgent:", report.HighPriorityCount)
		fmt.Printf("  %-22s %d\n", "Overdue:", report.OverdueCount)

		if len(report.PostponeCandidates) > 0 {
			fmt.Println("\nCandidates to postpone or delegate:")
			for _, c := range report.PostponeCandidates {
				fmt.Printf("  %-12s %-7s %5.1fh  %s\n", c.TaskID, c.Priority, c.EstimatedHours, truncate(c.Title, 50))
			}
		}
		if len(report.Recommendations) > 0 {
			fmt.Println("\nRecommendations:")
			for _, r := range report.Recommendations {
				fmt.Printf("  - %s\n", r)
			}
		}
		return nil
	},
}

func init() {
	workloadCmd.Flags().IntVarP(&workloadWindow, "window", "w", 0, "Days of capacity to compare against (default from config)")
	workloadCmd.Flags().BoolVar(&workloadJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(workloadCmd)
}
