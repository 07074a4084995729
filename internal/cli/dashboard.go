package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/valter-silva-au/ai-planner/internal/core"
	"github.com/valter-silva-au/ai-planner/internal/observability"
)

// Dashboard panel indices.
const (
	panelPlan = iota
	panelWorkload
	panelActivity
	panelCount
)

// dashboardTopN limits the ranked tasks shown in the plan panel.
const dashboardTopN = 10

type dashboardModel struct {
	activePanel int
	width       int
	height      int

	// Data.
	ranked   []core.PrioritizedTask
	workload *core.WorkloadReport
	activity *activitySnapshot

	// State.
	loading bool
	err     error
}

type activitySnapshot struct {
	contextsAnalyzed int
	prioritizations  int
	blocksApplied    int
	conflicts        int
	eventCount       int
}

// dataLoadedMsg carries loaded data back to the model.
type dataLoadedMsg struct {
	ranked   []core.PrioritizedTask
	workload *core.WorkloadReport
	activity *activitySnapshot
	err      error
}

// Style definitions.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(1, 2)

	activePanelStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("62")).
				Padding(1, 2)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			MarginBottom(1)

	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func newDashboardModel() dashboardModel {
	return dashboardModel{
		activePanel: panelPlan,
		loading:     true,
	}
}

func (m dashboardModel) Init() tea.Cmd {
	return loadData
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "tab":
			m.activePanel = (m.activePanel + 1) % panelCount
			return m, nil
		case "shift+tab":
			m.activePanel = (m.activePanel - 1 + panelCount) % panelCount
			return m, nil
		case "r":
			m.loading = true
			return m, loadData
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case dataLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.ranked = msg.ranked
		m.workload = msg.workload
		m.activity = msg.activity
		m.err = nil
		return m, nil
	}

	return m, nil
}

func (m dashboardModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	title := titleStyle.Render(" AI Planner ")
	help := helpStyle.Render("tab: switch panel | r: refresh | q: quit")

	if m.loading {
		return fmt.Sprintf("%s\n\n  Loading data...\n\n%s", title, help)
	}

	if m.err != nil {
		return fmt.Sprintf("%s\n\n  Error: %s\n\n%s", title, m.err, help)
	}

	planPanel := m.renderPlanPanel()
	workloadPanel := m.renderWorkloadPanel()
	activityPanel := m.renderActivityPanel()

	availableWidth := m.width - 2

	var body string
	if availableWidth > 120 {
		colWidth := availableWidth / 3
		planPanel = m.applyPanelStyle(panelPlan, planPanel, colWidth-4)
		workloadPanel = m.applyPanelStyle(panelWorkload, workloadPanel, colWidth-4)
		activityPanel = m.applyPanelStyle(panelActivity, activityPanel, colWidth-4)
		body = lipgloss.JoinHorizontal(lipgloss.Top, planPanel, workloadPanel, activityPanel)
	} else {
		panelWidth := availableWidth - 4
		if panelWidth < 20 {
			panelWidth = 20
		}
		planPanel = m.applyPanelStyle(panelPlan, planPanel, panelWidth)
		workloadPanel = m.applyPanelStyle(panelWorkload, workloadPanel, panelWidth)
		activityPanel = m.applyPanelStyle(panelActivity, activityPanel, panelWidth)
		body = lipgloss.JoinVertical(lipgloss.Left, planPanel, workloadPanel, activityPanel)
	}

	return fmt.Sprintf("%s\n\n%s\n\n%s", title, body, help)
}

func (m dashboardModel) applyPanelStyle(panel int, content string, width int) string {
	style := panelStyle
	if m.activePanel == panel {
		style = activePanelStyle
	}
	return style.Width(width).Render(content)
}

func (m dashboardModel) renderPlanPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Priorities"))
	b.WriteString("\n")

	if len(m.ranked) == 0 {
		b.WriteString("  No active tasks.")
		return b.String()
	}

	for i, pt := range m.ranked {
		if i == dashboardTopN {
			b.WriteString(fmt.Sprintf("  ... %d more\n", len(m.ranked)-dashboardTopN))
			break
		}
		b.WriteString(fmt.Sprintf("  %2d. %6.2f %s %s\n",
			pt.RecommendedOrder, pt.Score, styleLabel(fmt.Sprintf("%-8s", pt.Label)), truncate(pt.Title, 30)))
	}
	return b.String()
}

func (m dashboardModel) renderWorkloadPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Workload"))
	b.WriteString("\n")

	w := m.workload
	if w == nil {
		b.WriteString("  No workload data.")
		return b.String()
	}

	b.WriteString(fmt.Sprintf("  %-14s %s\n", "Level", styleWorkload(w.WorkloadLevel)))
	b.WriteString(fmt.Sprintf("  %-14s %.1fh / %.1fh\n", "Effort", w.TotalEstimatedHours, w.AvailableHours))
	b.WriteString(fmt.Sprintf("  %-14s %d\n", "Active", w.TotalActiveTasks))
	b.WriteString(fmt.Sprintf("  %-14s %d\n", "Overdue", w.OverdueCount))
	for _, r := range w.Recommendations {
		b.WriteString("\n  - " + r)
	}
	return b.String()
}

func (m dashboardModel) renderActivityPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Activity (7d)"))
	b.WriteString("\n")

	if m.activity == nil {
		b.WriteString("  No metrics available.")
		return b.String()
	}

	a := m.activity
	lines := []struct {
		label string
		value int
	}{
		{"Events", a.eventCount},
		{"Analyses", a.contextsAnalyzed},
		{"Rankings", a.prioritizations},
		{"Blocks", a.blocksApplied},
		{"Conflicts", a.conflicts},
	}

	for _, l := range lines {
		b.WriteString(fmt.Sprintf("  %-14s %d\n", l.label, l.value))
	}

	return b.String()
}

func loadData() tea.Msg {
	var result dataLoadedMsg

	if Planner != nil {
		pr, err := Planner.PrioritizeTasks(context.Background(), core.PrioritizeRequest{})
		if err != nil {
			result.err = fmt.Errorf("loading priorities: %w", err)
			return result
		}
		result.ranked = pr.PrioritizedTasks
		result.workload = pr.WorkloadAssessment
	}

	if MetricsCalc != nil {
		since, _ := observability.ParseSince(observability.DefaultMetricsWindow, time.Now().UTC())
		metrics, err := MetricsCalc.Calculate(since)
		if err != nil {
			result.err = fmt.Errorf("loading metrics: %w", err)
			return result
		}
		result.activity = &activitySnapshot{
			contextsAnalyzed: metrics.ContextsAnalyzed,
			prioritizations:  metrics.Prioritizations,
			blocksApplied:    metrics.BlocksApplied,
			conflicts:        metrics.Conflicts,
			eventCount:       metrics.EventCount,
		}
	}

	return result
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Interactive TUI dashboard for priorities, workload and activity",
	Long: `Launch an interactive terminal dashboard showing the current task
ranking, the workload assessment and recent planner activity.

Navigate between panels with Tab, refresh with r, quit with q.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Planner == nil {
			return fmt.Errorf("planner not initialized")
		}
		p := tea.NewProgram(newDashboardModel(), tea.WithAltScreen())
		_, err := p.Run()
		return err
	},
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}
