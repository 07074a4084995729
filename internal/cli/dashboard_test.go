package cli

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/valter-silva-au/ai-planner/internal/core"
	"github.com/valter-silva-au/ai-planner/internal/observability"
)

func TestDashboardModel_Init(t *testing.T) {
	m := newDashboardModel()

	if m.activePanel != panelPlan {
		t.Errorf("expected activePanel = %d, got %d", panelPlan, m.activePanel)
	}
	if !m.loading {
		t.Error("expected loading = true on init")
	}
	if cmd := m.Init(); cmd == nil {
		t.Error("expected Init to return a non-nil command")
	}
}

func TestDashboardModel_QuitKeys(t *testing.T) {
	for _, key := range []tea.KeyMsg{
		{Type: tea.KeyRunes, Runes: []rune{'q'}},
		{Type: tea.KeyEscape},
		{Type: tea.KeyCtrlC},
	} {
		m := newDashboardModel()
		m.loading = false
		_, cmd := m.Update(key)
		if cmd == nil {
			t.Fatalf("expected tea.Quit command from %q", key.String())
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("%q: expected tea.QuitMsg", key.String())
		}
	}
}

func TestDashboardModel_PanelCycling(t *testing.T) {
	m := newDashboardModel()

	want := []int{panelWorkload, panelActivity, panelPlan}
	var model tea.Model = m
	for i, w := range want {
		var cmd tea.Cmd
		model, cmd = model.Update(tea.KeyMsg{Type: tea.KeyTab})
		if cmd != nil {
			t.Error("expected no command from tab key")
		}
		if got := model.(dashboardModel).activePanel; got != w {
			t.Errorf("tab %d: panel = %d, want %d", i+1, got, w)
		}
	}

	updated, _ := newDashboardModel().Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	if got := updated.(dashboardModel).activePanel; got != panelActivity {
		t.Errorf("shift+tab from first panel = %d, want %d", got, panelActivity)
	}
}

func TestDashboardModel_Refresh(t *testing.T) {
	m := newDashboardModel()
	m.loading = false

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	if !updated.(dashboardModel).loading {
		t.Error("expected loading = true after pressing r")
	}
	if cmd == nil {
		t.Error("expected a command (loadData) from r key")
	}
}

func TestDashboardModel_DataLoaded(t *testing.T) {
	m := newDashboardModel()
	msg := dataLoadedMsg{
		ranked:   []core.PrioritizedTask{{TaskID: "TASK-00001", Title: "Ship", Score: 88, Label: "High", RecommendedOrder: 1}},
		workload: emptyWorkload("heavy"),
		activity: &activitySnapshot{eventCount: 9, blocksApplied: 2},
	}

	updated, cmd := m.Update(msg)
	if cmd != nil {
		t.Error("expected no command after dataLoadedMsg")
	}
	dm := updated.(dashboardModel)
	if dm.loading || dm.err != nil {
		t.Errorf("loading=%v err=%v", dm.loading, dm.err)
	}
	if len(dm.ranked) != 1 || dm.workload.WorkloadLevel != "heavy" || dm.activity.eventCount != 9 {
		t.Errorf("model = %+v", dm)
	}
}

func TestDashboardModel_DataLoadedError(t *testing.T) {
	updated, _ := newDashboardModel().Update(dataLoadedMsg{err: errors.New("connection failed")})
	dm := updated.(dashboardModel)
	if dm.loading {
		t.Error("expected loading = false after error")
	}
	if dm.err == nil || dm.err.Error() != "connection failed" {
		t.Errorf("err = %v", dm.err)
	}
	dm.width = 100
	if !strings.Contains(dm.View(), "connection failed") {
		t.Error("error view should show the error")
	}
}

func TestDashboardModel_View(t *testing.T) {
	for _, width := range []int{80, 160} {
		m := newDashboardModel()
		m.width, m.height = width, 40
		m.loading = false
		ranked := make([]core.PrioritizedTask, 12)
		for i := range ranked {
			ranked[i] = core.PrioritizedTask{TaskID: "T", Title: "Task", RecommendedOrder: i + 1, Label: "Low"}
		}
		m.ranked = ranked
		m.workload = emptyWorkload("moderate")
		m.activity = &activitySnapshot{eventCount: 20}

		view := m.View()
		for _, want := range []string{"Priorities", "Workload", "Activity", "moderate", "2 more"} {
			if !strings.Contains(view, want) {
				t.Errorf("width %d: view missing %q", width, want)
			}
		}
	}
}

func TestDashboardModel_ViewLoading(t *testing.T) {
	m := newDashboardModel()
	if m.View() != "Loading..." {
		t.Error("expected placeholder before the first window size")
	}
	m.width = 100
	if !strings.Contains(m.View(), "Loading data") {
		t.Error("expected loading view to contain 'Loading data'")
	}
}

func TestDashboardLoadData(t *testing.T) {
	withPlanner(t, &plannerMock{prioritizeFn: func(req core.PrioritizeRequest) (*core.PrioritizeResult, error) {
		if req.Persist {
			t.Error("dashboard must not persist scores")
		}
		return &core.PrioritizeResult{
			PrioritizedTasks:   []core.PrioritizedTask{{TaskID: "TASK-00001"}},
			WorkloadAssessment: emptyWorkload("light"),
		}, nil
	}})
	withMetrics(t, &metricsMock{calcFn: func(time.Time) (*observability.Metrics, error) {
		return &observability.Metrics{ContextsAnalyzed: 2, Conflicts: 1, EventCount: 15}, nil
	}})

	data, ok := loadData().(dataLoadedMsg)
	if !ok {
		t.Fatal("expected dataLoadedMsg")
	}
	if data.err != nil {
		t.Fatalf("unexpected error: %v", data.err)
	}
	if len(data.ranked) != 1 || data.workload.WorkloadLevel != "light" {
		t.Errorf("plan data = %+v %+v", data.ranked, data.workload)
	}
	if data.activity == nil || data.activity.contextsAnalyzed != 2 || data.activity.conflicts != 1 {
		t.Errorf("activity = %+v", data.activity)
	}
}

func TestDashboardLoadData_PlannerError(t *testing.T) {
	withPlanner(t, &plannerMock{prioritizeFn: func(core.PrioritizeRequest) (*core.PrioritizeResult, error) {
		return nil, errors.New("store unreadable")
	}})
	withMetrics(t, nil)

	data := loadData().(dataLoadedMsg)
	if data.err == nil || !strings.Contains(data.err.Error(), "loading priorities") {
		t.Errorf("err = %v", data.err)
	}
}

func TestDashboardCmd_NilPlanner(t *testing.T) {
	withPlanner(t, nil)
	err := dashboardCmd.RunE(dashboardCmd, nil)
	if err == nil || !strings.Contains(err.Error(), "planner not initialized") {
		t.Errorf("unexpected error: %v", err)
	}
}
