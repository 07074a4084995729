package cli

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/ai-planner/internal/observability"
)

var (
	metricsJSON  bool
	metricsSince string
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Display planner activity metrics",
	Long: `Display aggregated metrics derived from the event log.

Metrics include analyses by strategy, prioritization runs and workload
levels, schedules produced, blocks applied and apply conflicts.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if MetricsCalc == nil {
			return fmt.Errorf("metrics calculator not initialized (observability may be disabled)")
		}

		sinceTime, err := observability.ParseSince(metricsSince, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("parsing --since: %w", err)
		}

		metrics, err := MetricsCalc.Calculate(sinceTime)
		if err != nil {
			return fmt.Errorf("calculating metrics: %w", err)
		}

		if metricsJSON {
			return printJSON(metrics)
		}

		fmt.Printf("Metrics (since %s)\n\n", sinceTime.Format("2006-01-02"))
		fmt.Printf("  %-24s %d\n", "Events recorded:", metrics.EventCount)
		fmt.Printf("  %-24s %d\n", "Contexts analyzed:", metrics.ContextsAnalyzed)
		fmt.Printf("  %-24s %d\n", "Potential tasks found:", metrics.PotentialTasksFound)
		fmt.Printf("  %-24s %d\n", "Prioritizations:", metrics.Prioritizations)
		fmt.Printf("  %-24s %d\n", "Schedules optimized:", metrics.SchedulesOptimized)
		fmt.Printf("  %-24s %d\n", "Unschedulable tasks:", metrics.Unschedulable)
		fmt.Printf("  %-24s %d\n", "Blocks applied:", metrics.BlocksApplied)
		fmt.Printf("  %-24s %d (%.0f%%)\n", "Apply conflicts:", metrics.Conflicts, metrics.ConflictRate()*100)

		printCounts("Analyses by strategy", metrics.AnalysesByStrategy)
		printCounts("Workload levels", metrics.WorkloadLevels)

		if metrics.OldestEvent != nil {
			fmt.Printf("\n  %-24s %s\n", "Oldest event:", metrics.OldestEvent.Format(time.RFC3339))
		}
		if metrics.NewestEvent != nil {
			fmt.Printf("  %-24s %s\n", "Newest event:", metrics.NewestEvent.Format(time.RFC3339))
		}

		return nil
	},
}

func printCounts(title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Printf("\n  %s:\n", title)
	for _, k := range keys {
		fmt.Printf("    %-20s %d\n", k+":", counts[k])
	}
}

func init() {
	metricsCmd.Flags().BoolVar(&metricsJSON, "json", false, "Output metrics as JSON")
	metricsCmd.Flags().StringVar(&metricsSince, "since", "7d", "Time window for metrics (e.g. 7d, 30d, 24h)")
	rootCmd.AddCommand(metricsCmd)
}
