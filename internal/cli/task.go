package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/ai-planner/internal/storage"
	"github.com/valter-silva-au/ai-planner/pkg/models"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage tasks (add, list, show, status, remove)",
	Long: `Task management commands.

Tasks carry a title, a priority (low, medium, high, urgent), an optional
deadline and an estimated duration in minutes. Their lifecycle is
pending -> in_progress -> completed or cancelled.`,
}

var (
	taskAddPriority    string
	taskAddDeadline    string
	taskAddDuration    int
	taskAddCategory    string
	taskAddDescription string
	taskAddTags        []string
)

var taskAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add a new task",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("planner store not initialized")
		}

		task := models.Task{
			Title:             strings.Join(args, " "),
			Description:       taskAddDescription,
			Priority:          models.Priority(taskAddPriority),
			EstimatedDuration: taskAddDuration,
			Category:          taskAddCategory,
			Tags:              taskAddTags,
		}
		if taskAddDeadline != "" {
			d, err := parseDateFlag(taskAddDeadline)
			if err != nil {
				return fmt.Errorf("parsing --deadline: %w", err)
			}
			task.Deadline = &d
		}

		created, err := Store.AddTask(task)
		if err != nil {
			return fmt.Errorf("adding task: %w", err)
		}

		fmt.Printf("Created task %s\n", created.ID)
		fmt.Printf("  Title:    %s\n", created.Title)
		fmt.Printf("  Priority: %s\n", created.Priority)
		if created.Deadline != nil {
			fmt.Printf("  Deadline: %s\n", formatWhen(created.Deadline))
		}
		if created.EstimatedDuration > 0 {
			fmt.Printf("  Estimate: %s\n", formatDuration(created.EstimatedDuration))
		}
		return nil
	},
}

var (
	taskListStatus   string
	taskListPriority string
	taskListCategory string
	taskListTags     []string
	taskListAll      bool
	taskListJSON     bool
)

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	Long: `List tasks. By default only pending and in-progress tasks are shown;
use --all to include completed and cancelled ones, or filter with --status,
--priority, --category and --tag.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("planner store not initialized")
		}

		filter := storage.TaskFilter{Category: taskListCategory, Tags: taskListTags}
		if taskListStatus != "" {
			filter.Status = []models.TaskStatus{models.TaskStatus(taskListStatus)}
		}
		if taskListPriority != "" {
			filter.Priority = []models.Priority{models.Priority(taskListPriority)}
		}

		tasks, err := Store.FilterTasks(filter)
		if err != nil {
			return fmt.Errorf("listing tasks: %w", err)
		}
		if !taskListAll && taskListStatus == "" {
			active := tasks[:0]
			for _, t := range tasks {
				if t.IsActive() {
					active = append(active, t)
				}
			}
			tasks = active
		}

		if taskListJSON {
			if tasks == nil {
				tasks = []models.Task{}
			}
			return printJSON(tasks)
		}
		if len(tasks) == 0 {
			fmt.Println("No tasks found.")
			return nil
		}
		printTaskTable(tasks)
		return nil
	},
}

var taskShowCmd = &cobra.Command{
	Use:   "show <task-id>",
	Short: "Show a task with its score reasoning and schedule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("planner store not initialized")
		}
		t, err := Store.GetTask(args[0])
		if err != nil {
			return fmt.Errorf("loading task: %w", err)
		}

		fmt.Printf("%s  %s\n", t.ID, t.Title)
		if t.Description != "" {
			fmt.Printf("  %s\n", t.Description)
		}
		fmt.Printf("  Priority:  %s\n", t.Priority)
		fmt.Printf("  Status:    %s\n", t.Status)
		fmt.Printf("  Deadline:  %s\n", formatWhen(t.Deadline))
		fmt.Printf("  Estimate:  %s\n", formatDuration(t.EstimatedDuration))
		if t.Category != "" {
			fmt.Printf("  Category:  %s\n", t.Category)
		}
		if len(t.Tags) > 0 {
			fmt.Printf("  Tags:      %s\n", strings.Join(t.Tags, ", "))
		}
		if t.ScoreReasoning != "" {
			fmt.Printf("  Score:     %.2f\n", t.AIPriorityScore)
			fmt.Printf("  Reasoning: %s\n", t.ScoreReasoning)
		}
		if t.ScheduledStart != nil {
			fmt.Printf("  Scheduled: %s - %s\n", formatWhen(t.ScheduledStart), formatWhen(t.ScheduledEnd))
		}
		return nil
	},
}

var taskStatusCmd = &cobra.Command{
	Use:   "status <task-id> <status>",
	Short: "Move a task through its lifecycle",
	Long: `Change a task's status. Allowed moves:
  pending     -> in_progress
  in_progress -> completed, cancelled, pending`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("planner store not initialized")
		}
		status := models.TaskStatus(args[1])
		if err := Store.UpdateTaskStatus(args[0], status); err != nil {
			return fmt.Errorf("updating status: %w", err)
		}
		fmt.Printf("%s -> %s\n", args[0], status)
		return nil
	},
}

var taskRemoveCmd = &cobra.Command{
	Use:   "remove <task-id>",
	Short: "Remove a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("planner store not initialized")
		}
		if err := Store.RemoveTask(args[0]); err != nil {
			return fmt.Errorf("removing task: %w", err)
		}
		fmt.Printf("Removed %s\n", args[0])
		return nil
	},
}

func init() {
	taskAddCmd.Flags().StringVarP(&taskAddPriority, "priority", "p", "medium", "Priority (low, medium, high, urgent)")
	taskAddCmd.Flags().StringVarP(&taskAddDeadline, "deadline", "d", "", "Deadline (RFC3339, YYYY-MM-DD or \"YYYY-MM-DD HH:MM\")")
	taskAddCmd.Flags().IntVarP(&taskAddDuration, "duration", "e", 0, "Estimated duration in minutes")
	taskAddCmd.Flags().StringVar(&taskAddCategory, "category", "", "Free-form category")
	taskAddCmd.Flags().StringVar(&taskAddDescription, "description", "", "Longer description")
	taskAddCmd.Flags().StringSliceVar(&taskAddTags, "tags", nil, "Comma-separated tags")

	taskListCmd.Flags().StringVar(&taskListStatus, "status", "", "Filter by status")
	taskListCmd.Flags().StringVar(&taskListPriority, "priority", "", "Filter by priority")
	taskListCmd.Flags().StringVar(&taskListCategory, "category", "", "Filter by category")
	taskListCmd.Flags().StringSliceVar(&taskListTags, "tag", nil, "Require these tags")
	taskListCmd.Flags().BoolVar(&taskListAll, "all", false, "Include completed and cancelled tasks")
	taskListCmd.Flags().BoolVar(&taskListJSON, "json", false, "Output as JSON")

	taskCmd.AddCommand(taskAddCmd, taskListCmd, taskShowCmd, taskStatusCmd, taskRemoveCmd)
	rootCmd.AddCommand(taskCmd)
}
