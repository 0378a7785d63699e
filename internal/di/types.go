// Package di wires configuration, logging, storage and the simulation runner together.
package di

import (
	"github.com/aristath/anderson/internal/config"
	"github.com/aristath/anderson/internal/database"
	"github.com/aristath/anderson/internal/modules/runs"
	"github.com/aristath/anderson/internal/simulation"
	"github.com/rs/zerolog"
)

// Container holds all dependencies of a simulation session.
//
// RunsDB and RunRepository are nil when persistence is disabled (no data directory).
type Container struct {
	Config *config.Config
	Log    zerolog.Logger

	// Databases
	RunsDB *database.DB

	// Repositories
	RunRepository *runs.Repository

	// Services
	Runner *simulation.Runner
}

// Close releases the databases held by the container
func (c *Container) Close() error {
	if c.RunsDB == nil {
		return nil
	}
	return c.RunsDB.Close()
}
