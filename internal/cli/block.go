package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/ai-planner/pkg/models"
)

var blockCmd = &cobra.Command{
	Use:   "block",
	Short: "Inspect and update reserved time blocks",
}

var (
	blockListDays int
	blockListAll  bool
)

var blockListCmd = &cobra.Command{
	Use:   "list",
	Short: "List time blocks from today onwards",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Blocks == nil {
			return fmt.Errorf("time-block store not initialized")
		}
		now := time.Now().In(location())
		from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		to := from.AddDate(0, 0, blockListDays)

		blocks, err := Blocks.List(context.Background(), from, to, !blockListAll)
		if err != nil {
			return fmt.Errorf("listing time blocks: %w", err)
		}
		if len(blocks) == 0 {
			fmt.Println("No time blocks.")
			return nil
		}
		for _, b := range blocks {
			fmt.Printf("  %s  %s-%s  %-12s %-11s %s\n",
				b.ID, b.Start.In(location()).Format("Mon 01-02 15:04"), b.End.In(location()).Format("15:04"),
				b.TaskID, b.Status, b.Notes)
		}
		return nil
	},
}

var blockStatusCmd = &cobra.Command{
	Use:   "status <block-id> <status>",
	Short: "Set a block's status (scheduled, in_progress, completed, cancelled)",
	Long: `Set a block's status. Cancelling a block frees its slot for the next
schedule run.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Blocks == nil {
			return fmt.Errorf("time-block store not initialized")
		}
		status := models.TimeBlockStatus(args[1])
		if !models.IsValidBlockStatus(status) {
			return fmt.Errorf("unknown block status %q", args[1])
		}
		if err := Blocks.UpdateStatus(context.Background(), args[0], status); err != nil {
			return fmt.Errorf("updating block: %w", err)
		}
		fmt.Printf("%s -> %s\n", args[0], status)
		return nil
	},
}

func init() {
	blockListCmd.Flags().IntVar(&blockListDays, "days", 14, "How many days ahead to list")
	blockListCmd.Flags().BoolVar(&blockListAll, "all", false, "Include completed and cancelled blocks")

	blockCmd.AddCommand(blockListCmd, blockStatusCmd)
	rootCmd.AddCommand(blockCmd)
}
