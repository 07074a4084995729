package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	insightsWindow int
	insightsJSON   bool
)

var insightsCmd = &cobra.Command{
	Use:   "insights",
	Short: "Summarise recent context entries",
	Long: `Summarise the context entries of the last --window days: volume compared
with the window before, where entries come from, sentiment, recurring topics
and urgency. Unanalyzed entries in the window are analyzed first.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Planner == nil {
			return fmt.Errorf("planner not initialized")
		}
		ci, err := Planner.ContextInsights(context.Background(), insightsWindow)
		if err != nil {
			return fmt.Errorf("summarising context: %w", err)
		}
		if insightsJSON {
			return printJSON(ci)
		}

		fmt.Printf("Context over %d day(s): %d entries (%+d vs previous period)\n\n", ci.WindowDays, ci.TotalEntries, ci.EntriesChange)
		if ci.TotalEntries == 0 {
			for _, n := range ci.Insights {
				fmt.Printf("  - %s\n", n)
			}
			return nil
		}

		fmt.Printf("  %-18s %d\n", "Analyzed:", ci.AnalyzedEntries)
		fmt.Printf("  %-18s %d\n", "With urgency:", ci.UrgentEntries)
		fmt.Printf("  %-18s %d\n", "Potential tasks:", ci.PotentialTasks)
		fmt.Printf("  %-18s %+.2f (%.0f%% positive, %.0f%% neutral, %.0f%% negative)\n", "Sentiment:",
			ci.AverageSentiment, ci.SentimentDistribution.Positive, ci.SentimentDistribution.Neutral, ci.SentimentDistribution.Negative)

		fmt.Println("\nSources:")
		for _, s := range ci.SourceDistribution {
			fmt.Printf("  %-10s %4d  %5.1f%%\n", s.Source, s.Count, s.Percent)
		}
		if len(ci.TopTopics) > 0 {
			fmt.Println("\nTop topics:")
			for _, tc := range ci.TopTopics {
				fmt.Printf("  %-20s %d\n", truncate(tc.Topic, 20), tc.Count)
			}
		}
		if len(ci.Insights) > 0 {
			fmt.Println("\nInsights:")
			for _, n := range ci.Insights {
				fmt.Printf("  - %s\n", n)
			}
		}
		return nil
	},
}

func init() {
	insightsCmd.Flags().IntVarP(&insightsWindow, "window", "w", 0, "Days of context to summarise (default 30)")
	insightsCmd.Flags().BoolVar(&insightsJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(insightsCmd)
}
