package routes

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ntentasd/roomsense/internal/cache"
	"github.com/ntentasd/roomsense/internal/compliance"
	"github.com/ntentasd/roomsense/pkg/types"
)

type Runner interface {
	Run(ctx context.Context) (types.Summary, []types.Sample, error)
}

type RunStore interface {
	GetRun(ctx context.Context, runID uuid.UUID) (types.Summary, error)
}

// App holds the collaborators of the HTTP handlers. Cache and Store are
// optional.
type App struct {
	Cache  cache.Cache
	Store  RunStore
	Runner Runner
	Policy compliance.Policy
	logger zerolog.Logger
}

func New(c cache.Cache, store RunStore, runner Runner, policy compliance.Policy, logger zerolog.Logger) *App {
	return &App{
		Cache:  c,
		Store:  store,
		Runner: runner,
		Policy: policy,
		logger: logger.With().Str("component", "http").Logger(),
	}
}
