// Package internal provides the App struct that wires all components of the
// AI Planner together and initializes the CLI layer.
package internal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/valter-silva-au/ai-planner/internal/cli"
	"github.com/valter-silva-au/ai-planner/internal/core"
	"github.com/valter-silva-au/ai-planner/internal/integration"
	"github.com/valter-silva-au/ai-planner/internal/observability"
	"github.com/valter-silva-au/ai-planner/internal/storage"
	"github.com/valter-silva-au/ai-planner/pkg/models"
	"go.uber.org/zap"
)

// App holds all service dependencies for the AI Planner.
type App struct {
	BasePath string
	Config   *models.PlannerConfig
	Logger   *zap.Logger

	// Configuration
	ConfigMgr core.ConfigurationManager

	// Storage layer
	Store  storage.PlannerStore
	Blocks *storage.TimeBlockStore

	// Integration services
	TextService core.TextService
	Calendar    *integration.GoogleCalendarSource

	// Core services
	Analyzer core.TextAnalyzer
	Planner  core.Planner

	// Observability
	EventLog    observability.EventLog
	Recorder    *observability.Recorder
	MetricsCalc observability.MetricsCalculator
}

// NewApp creates and wires all components of the planner. basePath is the
// directory holding .plannerconfig and the data files.
func NewApp(basePath string) (*App, error) {
	return newApp(basePath, time.Now)
}

func newApp(basePath string, clock func() time.Time) (_ *App, err error) {
	app := &App{BasePath: basePath}
	defer func() {
		if err != nil {
			_ = app.Close()
		}
	}()

	// --- Configuration ---
	app.ConfigMgr = core.NewConfigurationManager(basePath)
	cfg, err := app.ConfigMgr.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	if err := app.ConfigMgr.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	app.Config = cfg

	app.Logger, err = observability.NewLogger(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	log := app.Logger

	// --- Storage layer ---
	app.Store = storage.NewPlannerStore(basePath, cfg.Storage.SnapshotFile, clock)
	app.Blocks, err = storage.OpenTimeBlockStore(dataPath(basePath, cfg.Storage.TimeBlockDB), clock)
	if err != nil {
		return nil, err
	}

	// --- Observability ---
	app.EventLog, err = observability.NewJSONLEventLog(dataPath(basePath, cfg.Storage.EventLogFile))
	if err != nil {
		// Non-fatal: the planner runs without an event log.
		log.Warn("event log disabled", zap.Error(err))
		app.EventLog = nil
	}
	var events core.EventLogger
	if app.EventLog != nil {
		app.Recorder = observability.NewRecorder(app.EventLog, clock)
		app.MetricsCalc = observability.NewMetricsCalculator(app.EventLog)
		events = app.Recorder
	}

	// --- Integration services ---
	ctx := context.Background()
	if cfg.Analyzer.Strategy == core.StrategyRemote {
		app.TextService, err = newTextService(ctx, cfg.Analyzer)
		if err != nil {
			log.Warn("remote analyzer unavailable, using local analysis", zap.Error(err))
			app.TextService = nil
		}
	}
	if cfg.Calendar.Enabled {
		app.Calendar, err = integration.NewGoogleCalendarSource(ctx, integration.GoogleCalendarOptions{
			CalendarID:      cfg.Calendar.CalendarID,
			CredentialsFile: cfg.Calendar.CredentialsFile,
			AccessToken:     envValue(cfg.Calendar.AccessTokenEnv),
		})
		if err != nil {
			log.Warn("google calendar disabled", zap.Error(err))
			app.Calendar = nil
		}
	}

	// --- Core services ---
	optCfg, err := core.NewOptimizerConfig(cfg.Schedule)
	if err != nil {
		return nil, err
	}
	app.Analyzer = core.NewTextAnalyzer(cfg.Analyzer, app.TextService, clock, log.Named("analyzer"))

	source := &snapshotSource{
		store:     app.Store,
		blocks:    app.Blocks,
		lookahead: cfg.Calendar.LookaheadDays,
		now:       clock,
		log:       log,
	}
	if app.Calendar != nil {
		source.calendar = app.Calendar
	}

	app.Planner = core.NewPlanner(core.PlannerOptions{
		Source:    source,
		Analyzer:  app.Analyzer,
		Scorer:    core.NewPriorityScorer(cfg.Scoring),
		Optimizer: core.NewScheduleOptimizer(optCfg),
		Workload:  core.NewWorkloadAnalyzer(cfg.Workload, cfg.Schedule.DefaultDurationMinutes),

		Cache:  app.Store,
		Blocks: &blockStoreAdapter{store: app.Blocks},
		Tasks:  app.Store,
		Scores: app.Store,
		Events: events,
		Logger: log.Named("planner"),
		Clock:  clock,

		BatchConcurrency:       cfg.Analyzer.BatchConcurrency,
		ContextRetentionDays:   cfg.Scoring.ContextRetentionDays,
		WorkloadWindowDays:     cfg.Workload.WindowDays,
		DefaultDurationMinutes: cfg.Schedule.DefaultDurationMinutes,
		Location:               optCfg.Location,
	})

	// --- Wire CLI package-level variables ---
	cli.BasePath = basePath
	cli.Config = cfg
	cli.Logger = log
	cli.Store = app.Store
	cli.Blocks = app.Blocks
	cli.Planner = app.Planner
	cli.EventLog = app.EventLog
	cli.MetricsCalc = app.MetricsCalc

	log.Debug("planner initialized",
		zap.String("base_path", basePath),
		zap.String("strategy", cfg.Analyzer.Strategy),
		zap.Bool("remote_service", app.TextService != nil),
		zap.Bool("google_calendar", app.Calendar != nil),
	)

	return app, nil
}

// Close releases resources held by the App: the event log file handle and
// the time-block database. It is safe to call on a partially wired App.
func (a *App) Close() error {
	var errs []error
	if a.EventLog != nil {
		errs = append(errs, a.EventLog.Close())
	}
	if a.Blocks != nil {
		errs = append(errs, a.Blocks.Close())
	}
	if a.Logger != nil {
		_ = a.Logger.Sync()
	}
	return errors.Join(errs...)
}

// ResolveBasePath determines the planner data directory. It checks the
// AIP_HOME env var, then the nearest parent of the working directory holding
// a .plannerconfig file, then falls back to the current directory.
func ResolveBasePath() string {
	if home := os.Getenv("AIP_HOME"); home != "" {
		return home
	}
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	for {
		for _, name := range []string{core.ConfigFileName, core.ConfigFileName + ".yaml", core.ConfigFileName + ".yml"} {
			if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
				return dir
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	cwd, _ := os.Getwd()
	return cwd
}

func dataPath(basePath, name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(basePath, name)
}

func envValue(name string) string {
	if name == "" {
		return ""
	}
	return os.Getenv(name)
}

// newTextService builds the configured remote provider. The API key is read
// from the environment variable named in the config, never from the file.
func newTextService(ctx context.Context, cfg models.AnalyzerConfig) (core.TextService, error) {
	key := envValue(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("%s is not set", cfg.APIKeyEnv)
	}
	switch cfg.Provider {
	case "gemini":
		svc, err := integration.NewGeminiService(ctx, integration.GeminiOptions{APIKey: key, Model: cfg.Model})
		if err != nil {
			return nil, err
		}
		return svc, nil
	case "openai":
		svc, err := integration.NewOpenAIService(integration.OpenAIOptions{APIKey: key, Model: cfg.Model})
		if err != nil {
			return nil, err
		}
		return svc, nil
	default:
		return nil, fmt.Errorf("unknown text provider %q", cfg.Provider)
	}
}

// --- Adapters ---

// calendarSource is the external event feed consumed by snapshotSource.
type calendarSource interface {
	Events(ctx context.Context, from, to time.Time) ([]models.CalendarEvent, error)
}

// snapshotSource adapts the planner file, the time-block database and the
// optional external calendar to core.SnapshotSource.
type snapshotSource struct {
	store     storage.PlannerStore
	blocks    *storage.TimeBlockStore
	calendar  calendarSource
	lookahead int
	now       func() time.Time
	log       *zap.Logger
}

// Snapshot lists the active time blocks while holding the planner store
// lock, so no planner file write lands between the two reads. External
// calendar events are fetched after the lock is released.
func (s *snapshotSource) Snapshot(ctx context.Context) (*core.Snapshot, error) {
	var (
		pf     storage.PlannerFile
		blocks []models.TimeBlock
	)
	err := s.store.View(func(file storage.PlannerFile) error {
		var lerr error
		pf = file
		blocks, lerr = s.blocks.List(ctx, time.Time{}, time.Time{}, true)
		return lerr
	})
	if err != nil {
		return nil, fmt.Errorf("reading planner store: %w", err)
	}

	tasks := make([]models.Task, 0, len(pf.Tasks))
	for _, t := range pf.Tasks {
		tasks = append(tasks, t)
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })

	events := append([]models.CalendarEvent(nil), pf.Events...)
	if s.calendar != nil {
		from := s.now()
		ext, err := s.calendar.Events(ctx, from, from.AddDate(0, 0, s.lookahead))
		if err != nil {
			// External calendar outages degrade to local events only.
			s.log.Warn("fetching external calendar events", zap.Error(err))
		} else {
			events = append(events, ext...)
		}
	}

	return &core.Snapshot{
		Tasks:      tasks,
		Contexts:   pf.Contexts,
		Events:     events,
		TimeBlocks: blocks,
	}, nil
}

// blockStoreAdapter adapts storage.TimeBlockStore to core.TimeBlockStore,
// translating overlap rejections into core.ErrScheduleConflict.
type blockStoreAdapter struct {
	store *storage.TimeBlockStore
}

func (a *blockStoreAdapter) Reserve(ctx context.Context, block models.TimeBlock) error {
	return conflictErr(a.store.Reserve(ctx, block))
}

func (a *blockStoreAdapter) UpdateStatus(ctx context.Context, id string, status models.TimeBlockStatus) error {
	return conflictErr(a.store.UpdateStatus(ctx, id, status))
}

func conflictErr(err error) error {
	if errors.Is(err, storage.ErrOverlap) {
		return fmt.Errorf("%w: %w", core.ErrScheduleConflict, err)
	}
	return err
}
