package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/valter-silva-au/ai-planner/pkg/models"
	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned when a task or context entry ID is unknown.
var ErrNotFound = errors.New("not found")

// ErrInvalidTransition is returned when a status change breaks the task
// lifecycle.
var ErrInvalidTransition = errors.New("invalid status transition")

// ID prefixes for generated identifiers.
const (
	TaskIDPrefix    = "TASK"
	ContextIDPrefix = "CTX"
	EventIDPrefix   = "EVT"
)

// PlannerFile represents the top-level structure of planner.yaml.
type PlannerFile struct {
	Version  string                 `yaml:"version"`
	Counters map[string]int         `yaml:"counters,omitempty"`
	Tasks    map[string]models.Task `yaml:"tasks"`
	Contexts []models.ContextEntry  `yaml:"contexts"`
	Events   []models.CalendarEvent `yaml:"events"`
}

func emptyPlannerFile() PlannerFile {
	return PlannerFile{
		Version:  "1.0",
		Counters: make(map[string]int),
		Tasks:    make(map[string]models.Task),
	}
}

// TaskFilter specifies criteria for filtering tasks. All specified fields use
// AND logic.
type TaskFilter struct {
	Status   []models.TaskStatus
	Priority []models.Priority
	Category string
	Tags     []string
}

// PlannerStore is the reference task store: tasks, context entries and
// manually entered calendar events in a single YAML file. Every call re-reads
// the file so separate processes sharing it see each other's writes.
type PlannerStore interface {
	AddTask(task models.Task) (models.Task, error)
	GetTask(taskID string) (*models.Task, error)
	GetAllTasks() ([]models.Task, error)
	FilterTasks(filter TaskFilter) ([]models.Task, error)
	RemoveTask(taskID string) error
	UpdateTaskStatus(taskID string, status models.TaskStatus) error
	SetTaskScore(taskID string, score float64, reasoning string) error
	SetTaskSchedule(taskID string, start, end time.Time) error
	SetTaskDeadline(taskID string, deadline time.Time) error

	AddContext(entry models.ContextEntry) (models.ContextEntry, error)
	GetContexts() ([]models.ContextEntry, error)
	SaveAnalysis(entryID string, analysis *models.ContextAnalysis) error

	AddEvent(event models.CalendarEvent) (models.CalendarEvent, error)
	GetEvents() ([]models.CalendarEvent, error)

	Load() (PlannerFile, error)
	// View runs fn on the planner file while holding the store's exclusive
	// lock. Writers from any process wait until fn returns.
	View(fn func(pf PlannerFile) error) error
}

type filePlannerStore struct {
	mu       sync.RWMutex
	basePath string
	fileName string
	now      func() time.Time
}

// NewPlannerStore creates a PlannerStore backed by fileName inside basePath.
// A nil clock uses time.Now.
func NewPlannerStore(basePath, fileName string, clock func() time.Time) PlannerStore {
	if clock == nil {
		clock = time.Now
	}
	return &filePlannerStore{basePath: basePath, fileName: fileName, now: clock}
}

func (s *filePlannerStore) filePath() string {
	return filepath.Join(s.basePath, s.fileName)
}

func (s *filePlannerStore) lockPath() string {
	return s.filePath() + ".lock"
}

// Load reads the whole planner file. A missing file yields an empty store.
func (s *filePlannerStore) Load() (PlannerFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read()
}

func (s *filePlannerStore) View(fn func(pf PlannerFile) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := os.MkdirAll(s.basePath, 0o750); err != nil {
		return fmt.Errorf("reading planner store: creating directory: %w", err)
	}
	unlock, err := lockFile(s.lockPath())
	if err != nil {
		return fmt.Errorf("reading planner store: %w", err)
	}
	defer func() { _ = unlock() }()

	pf, err := s.read()
	if err != nil {
		return err
	}
	return fn(pf)
}

func (s *filePlannerStore) read() (PlannerFile, error) {
	data, err := os.ReadFile(s.filePath())
	if err != nil {
		if os.IsNotExist(err) {
			return emptyPlannerFile(), nil
		}
		return PlannerFile{}, fmt.Errorf("loading planner store: %w", err)
	}

	var pf PlannerFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return PlannerFile{}, fmt.Errorf("loading planner store: parsing YAML: %w", err)
	}
	if pf.Tasks == nil {
		pf.Tasks = make(map[string]models.Task)
	}
	if pf.Counters == nil {
		pf.Counters = make(map[string]int)
	}
	return pf, nil
}

// write replaces the planner file atomically via a temp file and rename.
func (s *filePlannerStore) write(pf PlannerFile) error {
	if err := os.MkdirAll(s.basePath, 0o750); err != nil {
		return fmt.Errorf("saving planner store: creating directory: %w", err)
	}
	data, err := yaml.Marshal(&pf)
	if err != nil {
		return fmt.Errorf("saving planner store: marshaling YAML: %w", err)
	}
	tmp := s.filePath() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("saving planner store: writing file: %w", err)
	}
	if err := os.Rename(tmp, s.filePath()); err != nil {
		return fmt.Errorf("saving planner store: replacing file: %w", err)
	}
	return nil
}

// update runs fn as a read-modify-write under both the in-process mutex and
// an exclusive file lock.
func (s *filePlannerStore) update(op string, fn func(pf *PlannerFile) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.basePath, 0o750); err != nil {
		return fmt.Errorf("%s: creating directory: %w", op, err)
	}
	unlock, err := lockFile(s.lockPath())
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = unlock() }()

	pf, err := s.read()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := fn(&pf); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return s.write(pf)
}

func nextID(pf *PlannerFile, prefix string) string {
	pf.Counters[prefix]++
	return fmt.Sprintf("%s-%05d", prefix, pf.Counters[prefix])
}

func (s *filePlannerStore) AddTask(task models.Task) (models.Task, error) {
	if strings.TrimSpace(task.Title) == "" {
		return models.Task{}, fmt.Errorf("adding task: title must not be empty")
	}
	if task.Priority == "" {
		task.Priority = models.PriorityMedium
	}
	if !models.IsValidPriority(task.Priority) {
		return models.Task{}, fmt.Errorf("adding task: unknown priority %q", task.Priority)
	}
	if task.Status == "" {
		task.Status = models.StatusPending
	}
	if !models.IsValidStatus(task.Status) {
		return models.Task{}, fmt.Errorf("adding task: unknown status %q", task.Status)
	}
	if task.EstimatedDuration < 0 {
		return models.Task{}, fmt.Errorf("adding task: estimated duration must not be negative")
	}

	err := s.update("adding task", func(pf *PlannerFile) error {
		if task.ID == "" {
			task.ID = nextID(pf, TaskIDPrefix)
		}
		if _, exists := pf.Tasks[task.ID]; exists {
			return fmt.Errorf("task %s already exists", task.ID)
		}
		now := s.now().UTC()
		task.Created, task.Updated = now, now
		pf.Tasks[task.ID] = task
		return nil
	})
	if err != nil {
		return models.Task{}, err
	}
	return task, nil
}

func (s *filePlannerStore) GetTask(taskID string) (*models.Task, error) {
	pf, err := s.Load()
	if err != nil {
		return nil, err
	}
	task, exists := pf.Tasks[taskID]
	if !exists {
		return nil, fmt.Errorf("task %s: %w", taskID, ErrNotFound)
	}
	return &task, nil
}

func (s *filePlannerStore) GetAllTasks() ([]models.Task, error) {
	pf, err := s.Load()
	if err != nil {
		return nil, err
	}
	tasks := make([]models.Task, 0, len(pf.Tasks))
	for _, task := range pf.Tasks {
		tasks = append(tasks, task)
	}
	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].ID < tasks[j].ID
	})
	return tasks, nil
}

func (s *filePlannerStore) FilterTasks(filter TaskFilter) ([]models.Task, error) {
	all, err := s.GetAllTasks()
	if err != nil {
		return nil, err
	}

	var result []models.Task
	for _, task := range all {
		if matchesFilter(task, filter) {
			result = append(result, task)
		}
	}
	return result, nil
}

func matchesFilter(task models.Task, filter TaskFilter) bool {
	if len(filter.Status) > 0 && !contains(filter.Status, task.Status) {
		return false
	}
	if len(filter.Priority) > 0 && !contains(filter.Priority, task.Priority) {
		return false
	}
	if filter.Category != "" && task.Category != filter.Category {
		return false
	}
	if len(filter.Tags) > 0 && !hasAllTags(task.Tags, filter.Tags) {
		return false
	}
	return true
}

func contains[T comparable](haystack []T, needle T) bool {
	for _, v := range haystack {
		if v == needle {
			return true
		}
	}
	return false
}

func hasAllTags(taskTags []string, requiredTags []string) bool {
	tagSet := make(map[string]struct{}, len(taskTags))
	for _, t := range taskTags {
		tagSet[t] = struct{}{}
	}
	for _, req := range requiredTags {
		if _, found := tagSet[req]; !found {
			return false
		}
	}
	return true
}

func (s *filePlannerStore) RemoveTask(taskID string) error {
	return s.update("removing task", func(pf *PlannerFile) error {
		if _, exists := pf.Tasks[taskID]; !exists {
			return fmt.Errorf("task %s: %w", taskID, ErrNotFound)
		}
		delete(pf.Tasks, taskID)
		return nil
	})
}

// modifyTask applies fn to an existing task and stamps Updated.
func (s *filePlannerStore) modifyTask(op, taskID string, fn func(t *models.Task) error) error {
	return s.update(op, func(pf *PlannerFile) error {
		task, exists := pf.Tasks[taskID]
		if !exists {
			return fmt.Errorf("task %s: %w", taskID, ErrNotFound)
		}
		if err := fn(&task); err != nil {
			return err
		}
		task.Updated = s.now().UTC()
		pf.Tasks[taskID] = task
		return nil
	})
}

// UpdateTaskStatus moves a task along its lifecycle. Setting the current
// status again is a no-op.
func (s *filePlannerStore) UpdateTaskStatus(taskID string, status models.TaskStatus) error {
	if !models.IsValidStatus(status) {
		return fmt.Errorf("updating task status: unknown status %q", status)
	}
	return s.modifyTask("updating task status", taskID, func(t *models.Task) error {
		if t.Status == status {
			return nil
		}
		if !models.CanTransition(t.Status, status) {
			return fmt.Errorf("%s -> %s: %w", t.Status, status, ErrInvalidTransition)
		}
		t.Status = status
		return nil
	})
}

func (s *filePlannerStore) SetTaskScore(taskID string, score float64, reasoning string) error {
	return s.modifyTask("setting task score", taskID, func(t *models.Task) error {
		t.AIPriorityScore = score
		t.ScoreReasoning = reasoning
		return nil
	})
}

func (s *filePlannerStore) SetTaskSchedule(taskID string, start, end time.Time) error {
	if !end.After(start) {
		return fmt.Errorf("setting task schedule: end must be after start")
	}
	return s.modifyTask("setting task schedule", taskID, func(t *models.Task) error {
		start, end := start.UTC(), end.UTC()
		t.ScheduledStart, t.ScheduledEnd = &start, &end
		return nil
	})
}

func (s *filePlannerStore) SetTaskDeadline(taskID string, deadline time.Time) error {
	if deadline.IsZero() {
		return fmt.Errorf("setting task deadline: deadline must be set")
	}
	return s.modifyTask("setting task deadline", taskID, func(t *models.Task) error {
		d := deadline.UTC()
		t.Deadline = &d
		return nil
	})
}

func (s *filePlannerStore) AddContext(entry models.ContextEntry) (models.ContextEntry, error) {
	if strings.TrimSpace(entry.Content) == "" {
		return models.ContextEntry{}, fmt.Errorf("adding context: content must not be empty")
	}
	if entry.SourceType == "" {
		entry.SourceType = models.SourceNote
	}
	if !models.IsValidSourceType(entry.SourceType) {
		return models.ContextEntry{}, fmt.Errorf("adding context: unknown source type %q", entry.SourceType)
	}

	err := s.update("adding context", func(pf *PlannerFile) error {
		entry.ID = nextID(pf, ContextIDPrefix)
		entry.Created = s.now().UTC()
		entry.Processed = false
		entry.Analysis = nil
		pf.Contexts = append(pf.Contexts, entry)
		return nil
	})
	if err != nil {
		return models.ContextEntry{}, err
	}
	return entry, nil
}

func (s *filePlannerStore) GetContexts() ([]models.ContextEntry, error) {
	pf, err := s.Load()
	if err != nil {
		return nil, err
	}
	return pf.Contexts, nil
}

// SaveAnalysis caches an analysis on its entry and marks it processed.
func (s *filePlannerStore) SaveAnalysis(entryID string, analysis *models.ContextAnalysis) error {
	if analysis == nil {
		return fmt.Errorf("saving analysis: analysis must not be nil")
	}
	return s.update("saving analysis", func(pf *PlannerFile) error {
		for i := range pf.Contexts {
			if pf.Contexts[i].ID == entryID {
				a := *analysis
				pf.Contexts[i].Analysis = &a
				pf.Contexts[i].Processed = true
				return nil
			}
		}
		return fmt.Errorf("context %s: %w", entryID, ErrNotFound)
	})
}

func (s *filePlannerStore) AddEvent(event models.CalendarEvent) (models.CalendarEvent, error) {
	if strings.TrimSpace(event.Title) == "" {
		return models.CalendarEvent{}, fmt.Errorf("adding event: title must not be empty")
	}
	if !event.Interval().Valid() {
		return models.CalendarEvent{}, fmt.Errorf("adding event: end must be after start")
	}
	err := s.update("adding event", func(pf *PlannerFile) error {
		if event.ID == "" {
			event.ID = nextID(pf, EventIDPrefix)
		}
		if event.Source == "" {
			event.Source = "manual"
		}
		event.Start, event.End = event.Start.UTC(), event.End.UTC()
		pf.Events = append(pf.Events, event)
		return nil
	})
	if err != nil {
		return models.CalendarEvent{}, err
	}
	return event, nil
}

func (s *filePlannerStore) GetEvents() ([]models.CalendarEvent, error) {
	pf, err := s.Load()
	if err != nil {
		return nil, err
	}
	events := pf.Events
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Start.Before(events[j].Start)
	})
	return events, nil
}
