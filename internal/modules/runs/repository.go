package runs

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aristath/anderson/internal/database"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// Repository handles CRUD operations for runs
// Database: runs.db (runs, run_snapshots tables)
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new run repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "runs").Logger(),
	}
}

// Create stores run and its snapshots in one transaction and returns the new run ID.
// An ID already set on run is ignored.
func (r *Repository) Create(run Run) (string, error) {
	energies, err := msgpack.Marshal(run.Energies)
	if err != nil {
		return "", fmt.Errorf("failed to encode energies: %w", err)
	}
	profile, err := msgpack.Marshal(run.GroundProfile)
	if err != nil {
		return "", fmt.Errorf("failed to encode ground profile: %w", err)
	}

	id := uuid.New().String()
	createdAt := run.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	err = database.WithTransaction(r.db, func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO runs
			(id, sites, disorder, coupling_re, coupling_im, total_time, steps, decay_rate,
			 seed, ground_energy, krylov_dim, energies, ground_profile, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, id, run.Sites, run.Disorder, real(run.Coupling), imag(run.Coupling),
			run.TotalTime, run.Steps, run.DecayRate, int64(run.Seed), run.GroundEnergy,
			run.KrylovDim, energies, profile, createdAt.Unix())
		if err != nil {
			return fmt.Errorf("failed to insert run: %w", err)
		}

		stmt, err := tx.Prepare(`
			INSERT INTO run_snapshots (run_id, step, time, trace, purity, coherence, populations)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare snapshot insert: %w", err)
		}
		defer stmt.Close()

		for _, s := range run.Snapshots {
			pop, err := msgpack.Marshal(s.Populations)
			if err != nil {
				return fmt.Errorf("failed to encode populations of step %d: %w", s.Step, err)
			}
			if _, err := stmt.Exec(id, s.Step, s.Time, s.Trace, s.Purity, s.Coherence, pop); err != nil {
				return fmt.Errorf("failed to insert snapshot %d: %w", s.Step, err)
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	r.log.Info().
		Str("run_id", id).
		Int("sites", run.Sites).
		Int("snapshots", len(run.Snapshots)).
		Msg("Stored simulation run")

	return id, nil
}

// GetByID returns the run with its snapshots, or nil if it does not exist.
func (r *Repository) GetByID(id string) (*Run, error) {
	row := r.db.QueryRow(`
		SELECT id, sites, disorder, coupling_re, coupling_im, total_time, steps, decay_rate,
		       seed, ground_energy, krylov_dim, energies, ground_profile, created_at
		FROM runs
		WHERE id = ?
	`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run %s: %w", id, err)
	}

	snapshots, err := r.snapshots(id)
	if err != nil {
		return nil, err
	}
	run.Snapshots = snapshots

	return run, nil
}

// List returns the most recent runs first, without snapshots.
func (r *Repository) List(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(`
		SELECT id, sites, disorder, coupling_re, coupling_im, total_time, steps, decay_rate,
		       seed, ground_energy, krylov_dim, energies, ground_profile, created_at
		FROM runs
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var result []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		result = append(result, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}

	return result, nil
}

// Delete removes a run and, through the foreign key, its snapshots.
func (r *Repository) Delete(id string) error {
	res, err := r.db.Exec("DELETE FROM runs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete run %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		r.log.Warn().Str("run_id", id).Msg("Delete requested for unknown run")
	}
	return nil
}

func (r *Repository) snapshots(id string) ([]Snapshot, error) {
	rows, err := r.db.Query(`
		SELECT step, time, trace, purity, coherence, populations
		FROM run_snapshots
		WHERE run_id = ?
		ORDER BY step
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots of run %s: %w", id, err)
	}
	defer rows.Close()

	var result []Snapshot
	for rows.Next() {
		var s Snapshot
		var pop []byte
		if err := rows.Scan(&s.Step, &s.Time, &s.Trace, &s.Purity, &s.Coherence, &pop); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		if err := msgpack.Unmarshal(pop, &s.Populations); err != nil {
			return nil, fmt.Errorf("failed to decode populations of step %d: %w", s.Step, err)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(sc scanner) (*Run, error) {
	var (
		run        Run
		re, im     float64
		seed       int64
		energies   []byte
		profile    []byte
		createdAtS int64
	)
	err := sc.Scan(&run.ID, &run.Sites, &run.Disorder, &re, &im, &run.TotalTime, &run.Steps,
		&run.DecayRate, &seed, &run.GroundEnergy, &run.KrylovDim, &energies, &profile, &createdAtS)
	if err != nil {
		return nil, err
	}

	run.Coupling = complex(re, im)
	run.Seed = uint64(seed)
	run.CreatedAt = time.Unix(createdAtS, 0)
	if err := msgpack.Unmarshal(energies, &run.Energies); err != nil {
		return nil, fmt.Errorf("failed to decode energies: %w", err)
	}
	if err := msgpack.Unmarshal(profile, &run.GroundProfile); err != nil {
		return nil, fmt.Errorf("failed to decode ground profile: %w", err)
	}

	return &run, nil
}
