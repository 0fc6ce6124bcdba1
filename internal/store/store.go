// Package store persists finished runs in a local sqlite database: one row
// of metadata per run plus a JSON payload holding the sampled trajectories.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/san-kum/crnsim/internal/crn"
	"github.com/san-kum/crnsim/internal/sim"
)

type Store struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func New(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("store: database path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}
	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// RunMetadata describes one stored run.
type RunMetadata struct {
	ID           string    `json:"id"`
	Model        string    `json:"model"`
	Solver       string    `json:"solver"`
	Timestamp    time.Time `json:"timestamp"`
	Seed         int64     `json:"seed"`
	Duration     float64   `json:"duration"`
	Timesteps    int       `json:"timesteps"`
	Trajectories int       `json:"trajectories"`
	Status       string    `json:"status"`
}

// RunData is the serialized result payload: times plus per-trajectory
// species samples.
type RunData struct {
	Species        []string      `json:"species"`
	Times          []float64     `json:"times"`
	Concentrations [][][]float64 `json:"concentrations"`
	Populations    [][][]int     `json:"populations"`
	Modes          [][][]int     `json:"modes"`
}

// Save persists a completed simulation and returns its run ID.
func (s *Store) Save(ctx context.Context, modelName string, result *sim.Simulation) (string, error) {
	db, err := s.getDB()
	if err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:           uuid.NewString(),
		Model:        modelName,
		Solver:       result.Kind.String(),
		Timestamp:    time.Now().UTC(),
		Seed:         result.Seed,
		Duration:     result.EndTime,
		Timesteps:    result.NumberTimesteps,
		Trajectories: result.NumberTrajectories,
		Status:       result.Status.String(),
	}

	payload, err := json.Marshal(packRunData(result))
	if err != nil {
		return "", err
	}

	// Fixed-width fractional seconds keep the created_at text in time order.
	created := meta.Timestamp.Format("2006-01-02T15:04:05.000000000Z07:00")
	_, err = db.ExecContext(ctx, `
		INSERT INTO runs (id, model, solver, created_at, seed, duration, timesteps, trajectories, status, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, meta.ID, meta.Model, meta.Solver, created,
		meta.Seed, meta.Duration, meta.Timesteps, meta.Trajectories, meta.Status, payload)
	if err != nil {
		return "", err
	}
	return meta.ID, nil
}

// List returns metadata for all stored runs, newest first.
func (s *Store) List(ctx context.Context) ([]RunMetadata, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, model, solver, created_at, seed, duration, timesteps, trajectories, status
		FROM runs ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RunMetadata
	for rows.Next() {
		var meta RunMetadata
		var created string
		if err := rows.Scan(&meta.ID, &meta.Model, &meta.Solver, &created,
			&meta.Seed, &meta.Duration, &meta.Timesteps, &meta.Trajectories, &meta.Status); err != nil {
			return nil, err
		}
		meta.Timestamp, _ = time.Parse(time.RFC3339Nano, created)
		runs = append(runs, meta)
	}
	return runs, rows.Err()
}

// Load fetches one run's metadata and payload.
func (s *Store) Load(ctx context.Context, id string) (*RunMetadata, *RunData, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, nil, err
	}

	var meta RunMetadata
	var created string
	var payload []byte
	err = db.QueryRowContext(ctx, `
		SELECT id, model, solver, created_at, seed, duration, timesteps, trajectories, status, payload
		FROM runs WHERE id = ?
	`, id).Scan(&meta.ID, &meta.Model, &meta.Solver, &created,
		&meta.Seed, &meta.Duration, &meta.Timesteps, &meta.Trajectories, &meta.Status, &payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, fmt.Errorf("store: run %s not found", id)
		}
		return nil, nil, err
	}
	meta.Timestamp, _ = time.Parse(time.RFC3339Nano, created)

	var data RunData
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, nil, fmt.Errorf("store: decode run %s: %w", id, err)
	}
	return &meta, &data, nil
}

func (s *Store) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errors.New("store: not initialized")
	}
	return s.db, nil
}

func packRunData(result *sim.Simulation) *RunData {
	nt := result.NumberTrajectories
	nk := result.NumberTimesteps
	ns := result.Model.NumSpecies()

	data := &RunData{
		Species:        make([]string, ns),
		Times:          result.Timeline,
		Concentrations: make([][][]float64, nt),
		Populations:    make([][][]int, nt),
		Modes:          make([][][]int, nt),
	}
	for i, sp := range result.Model.Species {
		data.Species[i] = sp.Name
	}
	for traj := 0; traj < nt; traj++ {
		data.Concentrations[traj] = make([][]float64, nk)
		data.Populations[traj] = make([][]int, nk)
		data.Modes[traj] = make([][]int, nk)
		for k := 0; k < nk; k++ {
			conc := make([]float64, ns)
			copy(conc, result.Concentrations.Row(traj, k))
			pops := make([]int, ns)
			copy(pops, result.Populations.Row(traj, k))
			modes := make([]int, ns)
			copy(modes, result.Modes.Row(traj, k))
			data.Concentrations[traj][k] = conc
			data.Populations[traj][k] = pops
			data.Modes[traj][k] = modes
		}
	}
	return data
}

// ValueAt returns the stored sample for one cell, respecting the recorded
// partition label.
func (d *RunData) ValueAt(traj, step, species int) float64 {
	if d.Modes[traj][step][species] == int(crn.Discrete) {
		return float64(d.Populations[traj][step][species])
	}
	return d.Concentrations[traj][step][species]
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			model TEXT NOT NULL,
			solver TEXT NOT NULL,
			created_at TEXT NOT NULL,
			seed INTEGER NOT NULL,
			duration REAL NOT NULL,
			timesteps INTEGER NOT NULL,
			trajectories INTEGER NOT NULL,
			status TEXT NOT NULL,
			payload BLOB NOT NULL
		);
	`)
	return err
}
