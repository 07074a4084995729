package cli

import (
	"context"
	"time"

	"github.com/valter-silva-au/ai-planner/internal/core"
	"github.com/valter-silva-au/ai-planner/internal/observability"
	"github.com/valter-silva-au/ai-planner/internal/storage"
	"github.com/valter-silva-au/ai-planner/pkg/models"
	"go.uber.org/zap"
)

// BlockStore is the time-block view the CLI needs: listing and status
// changes. Reservations go through the Planner.
type BlockStore interface {
	List(ctx context.Context, from, to time.Time, activeOnly bool) ([]models.TimeBlock, error)
	UpdateStatus(ctx context.Context, id string, status models.TimeBlockStatus) error
}

// Service instances, set during app initialization in app.go.
var (
	BasePath string
	Config   *models.PlannerConfig
	Logger   = zap.NewNop()

	Store   storage.PlannerStore
	Blocks  BlockStore
	Planner core.Planner
)

// Observability service instances, set during app initialization in app.go.
var (
	EventLog    observability.EventLog
	MetricsCalc observability.MetricsCalculator
)
