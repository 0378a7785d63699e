// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/aristath/anderson/internal/domain"
	"github.com/aristath/anderson/internal/modules/chain"
	"github.com/aristath/anderson/internal/modules/propagation"
	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Sites      int
	Disorder   float64
	CouplingRe float64
	CouplingIm float64
	TotalTime  float64
	Steps      int
	DecayRate  float64
	Seed       uint64 // 0 means derive from the clock at run time
	DataDir    string // Directory for runs.db; empty disables persistence (always absolute when set)
	LogLevel   string
	LogPretty  bool
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Sites:      getEnvAsInt("ANDERSON_SITES", chain.DefaultSites),
		Disorder:   getEnvAsFloat("ANDERSON_DISORDER", chain.DefaultDisorder),
		CouplingRe: getEnvAsFloat("ANDERSON_COUPLING_RE", real(chain.DefaultOffDiagonal)),
		CouplingIm: getEnvAsFloat("ANDERSON_COUPLING_IM", imag(chain.DefaultOffDiagonal)),
		TotalTime:  getEnvAsFloat("ANDERSON_TOTAL_TIME", propagation.DefaultTotalTime),
		Steps:      getEnvAsInt("ANDERSON_STEPS", propagation.DefaultSteps),
		DecayRate:  getEnvAsFloat("ANDERSON_DECAY_RATE", propagation.DefaultDecayRate),
		Seed:       getEnvAsUint64("ANDERSON_SEED", 0),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		LogPretty:  getEnvAsBool("LOG_PRETTY", true),
	}

	if dataDir := getEnv("ANDERSON_DATA_DIR", ""); dataDir != "" {
		absDataDir, err := filepath.Abs(dataDir)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
		}
		if err := os.MkdirAll(absDataDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		cfg.DataDir = absDataDir
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// System returns the chain configuration described by c
func (c *Config) System() chain.SystemConfig {
	return chain.SystemConfig{
		Sites:       c.Sites,
		Disorder:    c.Disorder,
		OffDiagonal: complex(c.CouplingRe, c.CouplingIm),
	}
}

// TimeStep returns the evolution window described by c
func (c *Config) TimeStep() propagation.TimeStep {
	return propagation.TimeStep{Total: c.TotalTime, Steps: c.Steps}
}

// PersistenceEnabled reports whether runs should be stored
func (c *Config) PersistenceEnabled() bool {
	return c.DataDir != ""
}

// RunsDBPath returns the location of the runs database
func (c *Config) RunsDBPath() string {
	return filepath.Join(c.DataDir, "runs.db")
}

// Validate checks the simulation parameters
func (c *Config) Validate() error {
	if err := c.System().Validate(); err != nil {
		return err
	}
	if err := c.TimeStep().Validate(); err != nil {
		return err
	}
	if math.IsNaN(c.DecayRate) || math.IsInf(c.DecayRate, 0) || c.DecayRate < 0 {
		return fmt.Errorf("%w: decay rate must be finite and >= 0, got %v", domain.ErrInvalidConfiguration, c.DecayRate)
	}
	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsUint64(key string, defaultValue uint64) uint64 {
	if value := os.Getenv(key); value != "" {
		if uintVal, err := strconv.ParseUint(value, 10, 64); err == nil {
			return uintVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
