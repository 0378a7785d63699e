package di

import (
	"fmt"

	"github.com/aristath/anderson/internal/config"
	"github.com/aristath/anderson/internal/modules/profile"
	"github.com/aristath/anderson/internal/modules/runs"
	"github.com/aristath/anderson/internal/simulation"
	"github.com/aristath/anderson/pkg/logger"
)

// Wire builds a fully configured container from cfg.
// Order of operations:
// 1. Logger
// 2. Databases
// 3. Repositories
// 4. Runner
// plotter is optional (nil disables plotting).
func Wire(cfg *config.Config, plotter profile.Plotter) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// Step 1: Logger
	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	logger.SetGlobalLogger(log)

	container := &Container{Config: cfg, Log: log}

	// Step 2: Databases
	if err := InitializeDatabases(container, logger.Component(log, "database")); err != nil {
		return nil, fmt.Errorf("failed to initialize databases: %w", err)
	}

	// Step 3: Repositories
	if container.RunsDB != nil {
		container.RunRepository = runs.NewRepository(container.RunsDB.Conn(), log)
	}

	// Step 4: Runner
	container.Runner = simulation.NewRunner(log)
	if container.RunRepository != nil {
		container.Runner.SetStore(container.RunRepository)
	}
	if plotter != nil {
		container.Runner.SetPlotter(plotter)
	}

	log.Info().
		Int("sites", cfg.Sites).
		Bool("persistence", cfg.PersistenceEnabled()).
		Msg("Dependency wiring completed")

	return container, nil
}
