package di

import (
	"fmt"

	"github.com/aristath/anderson/internal/database"
	"github.com/rs/zerolog"
)

// InitializeDatabases opens runs.db and applies its schema. Without a data
// directory nothing is opened.
func InitializeDatabases(container *Container, log zerolog.Logger) error {
	if !container.Config.PersistenceEnabled() {
		log.Info().Msg("No data directory configured, runs will not be stored")
		return nil
	}

	runsDB, err := database.New(database.Config{
		Path:    container.Config.RunsDBPath(),
		Profile: database.ProfileResults,
		Name:    "runs",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize runs database: %w", err)
	}

	if err := runsDB.Migrate(); err != nil {
		runsDB.Close()
		return fmt.Errorf("failed to apply schema to %s: %w", runsDB.Name(), err)
	}
	container.RunsDB = runsDB

	log.Info().Str("path", runsDB.Path()).Msg("Runs database initialized")
	return nil
}
