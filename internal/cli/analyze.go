package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/ai-planner/internal/core"
	"github.com/valter-silva-au/ai-planner/pkg/models"
)

var (
	analyzeFile   string
	analyzeSource string
	analyzeDate   string
	analyzeSave   bool
	analyzeJSON   bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [text...]",
	Short: "Extract summary, topics, urgency and potential tasks from text",
	Long: `Analyze an email, message or note and print its summary, key topics,
urgency indicators, sentiment and potential tasks.

Text comes from the arguments, or from --file (use "-" for stdin). With
--save the text is also stored as a context entry so later prioritization
can use it without analyzing it again.

Examples:
  aip analyze "Can you send the Q3 report by Friday? It's urgent."
  pbpaste | aip analyze --file - --source email --save`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Planner == nil {
			return fmt.Errorf("planner not initialized")
		}

		content, err := readContent(args, analyzeFile, cmd.InOrStdin())
		if err != nil {
			return err
		}
		source := models.SourceType(analyzeSource)
		var contentDate *time.Time
		if analyzeDate != "" {
			d, err := parseDateFlag(analyzeDate)
			if err != nil {
				return fmt.Errorf("parsing --date: %w", err)
			}
			contentDate = &d
		}

		ctx := context.Background()
		var analysis *models.ContextAnalysis
		if analyzeSave {
			if Store == nil {
				return fmt.Errorf("planner store not initialized")
			}
			if err := (core.AnalyzeRequest{Content: content, SourceType: source, ContentDate: contentDate}).Validate(); err != nil {
				return err
			}
			entry, err := Store.AddContext(models.ContextEntry{Content: content, SourceType: source, ContentDate: contentDate})
			if err != nil {
				return fmt.Errorf("saving context entry: %w", err)
			}
			analyzed, err := Planner.AnalyzeEntries(ctx, []models.ContextEntry{entry}, false)
			if err != nil {
				return fmt.Errorf("analyzing context: %w", err)
			}
			analysis = analyzed[0].Analysis
			fmt.Fprintf(os.Stderr, "Saved context entry %s\n", entry.ID)
		} else {
			analysis, err = Planner.AnalyzeContext(ctx, core.AnalyzeRequest{
				Content:     content,
				SourceType:  source,
				ContentDate: contentDate,
			})
			if err != nil {
				return err
			}
		}

		if analyzeJSON {
			return printJSON(analysis)
		}
		printAnalysis(analysis)
		return nil
	},
}

// readContent joins args, or reads file (stdin for "-") when args are empty.
func readContent(args []string, file string, stdin io.Reader) (string, error) {
	if len(args) > 0 {
		if file != "" {
			return "", fmt.Errorf("pass text either as arguments or with --file, not both")
		}
		return strings.Join(args, " "), nil
	}
	switch file {
	case "":
		return "", fmt.Errorf("no text given (pass it as arguments or with --file)")
	case "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	default:
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", file, err)
		}
		return string(data), nil
	}
}

func printAnalysis(a *models.ContextAnalysis) {
	fmt.Printf("Summary:   %s\n", a.Summary)
	fmt.Printf("Sentiment: %+.2f\n", a.SentimentScore)
	if len(a.KeyTopics) > 0 {
		fmt.Printf("Topics:    %s\n", strings.Join(a.KeyTopics, ", "))
	}
	if len(a.UrgencyIndicators) > 0 {
		fmt.Printf("Urgency:   %s\n", strings.Join(a.UrgencyIndicators, ", "))
	}
	if len(a.TimeReferences) > 0 {
		fmt.Printf("Dates:     %s\n", strings.Join(a.TimeReferences, ", "))
	}
	if len(a.PotentialTasks) == 0 {
		fmt.Println("\nNo potential tasks found.")
		return
	}
	fmt.Println("\nPotential tasks:")
	for i, pt := range a.PotentialTasks {
		line := fmt.Sprintf("  %d. [%s] %s", i+1, pt.Urgency, pt.Title)
		if pt.DeadlineHint != "" {
			line += " (by " + pt.DeadlineHint + ")"
		}
		fmt.Println(line)
	}
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeFile, "file", "f", "", "Read text from a file (\"-\" for stdin)")
	analyzeCmd.Flags().StringVarP(&analyzeSource, "source", "s", "note", "Source type (email, message, note, calendar, other)")
	analyzeCmd.Flags().StringVar(&analyzeDate, "date", "", "Date the text was written, for resolving relative dates")
	analyzeCmd.Flags().BoolVar(&analyzeSave, "save", false, "Store the text as a context entry")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(analyzeCmd)
}
