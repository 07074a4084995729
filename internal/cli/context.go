package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/ai-planner/pkg/models"
)

var contextCmd = &cobra.Command{
	Use:   "context",
	Short: "Store and inspect context entries (emails, messages, notes)",
	Long: `Context entries are free text the planner reads when scoring tasks.
Entries from the retention window are analyzed on demand during
prioritization and the analysis is cached on the entry.`,
}

var (
	contextAddFile   string
	contextAddSource string
	contextAddDate   string
)

var contextAddCmd = &cobra.Command{
	Use:   "add [text...]",
	Short: "Store a context entry without analyzing it",
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("planner store not initialized")
		}
		content, err := readContent(args, contextAddFile, cmd.InOrStdin())
		if err != nil {
			return err
		}
		entry := models.ContextEntry{Content: content, SourceType: models.SourceType(contextAddSource)}
		if contextAddDate != "" {
			d, err := parseDateFlag(contextAddDate)
			if err != nil {
				return fmt.Errorf("parsing --date: %w", err)
			}
			entry.ContentDate = &d
		}
		saved, err := Store.AddContext(entry)
		if err != nil {
			return fmt.Errorf("adding context entry: %w", err)
		}
		fmt.Printf("Stored context entry %s (%s)\n", saved.ID, saved.SourceType)
		return nil
	},
}

var contextListJSON bool

var contextListCmd = &cobra.Command{
	Use:   "list",
	Short: "List context entries and their cached analysis",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("planner store not initialized")
		}
		entries, err := Store.GetContexts()
		if err != nil {
			return fmt.Errorf("listing context entries: %w", err)
		}
		if contextListJSON {
			if entries == nil {
				entries = []models.ContextEntry{}
			}
			return printJSON(entries)
		}
		if len(entries) == 0 {
			fmt.Println("No context entries.")
			return nil
		}
		fmt.Printf("  %-11s %-9s %-17s %-9s %s\n", "ID", "SOURCE", "DATE", "ANALYZED", "TEXT")
		for _, e := range entries {
			d := e.EffectiveDate()
			analyzed := "no"
			text := strings.Join(strings.Fields(e.Content), " ")
			if e.Processed && e.Analysis != nil {
				analyzed = e.Analysis.Strategy
				text = e.Analysis.Summary
			}
			fmt.Printf("  %-11s %-9s %-17s %-9s %s\n", e.ID, e.SourceType, formatWhen(&d), analyzed, truncate(text, 60))
		}
		return nil
	},
}

func init() {
	contextAddCmd.Flags().StringVarP(&contextAddFile, "file", "f", "", "Read text from a file (\"-\" for stdin)")
	contextAddCmd.Flags().StringVarP(&contextAddSource, "source", "s", "note", "Source type (email, message, note, calendar, other)")
	contextAddCmd.Flags().StringVar(&contextAddDate, "date", "", "Date the text was written")
	contextListCmd.Flags().BoolVar(&contextListJSON, "json", false, "Output as JSON")

	contextCmd.AddCommand(contextAddCmd, contextListCmd)
	rootCmd.AddCommand(contextCmd)
}
