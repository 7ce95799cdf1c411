package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/san-kum/nbodysim/internal/body"
	"github.com/san-kum/nbodysim/internal/sim"
)

const (
	metadataFile   = "metadata.json"
	trajectoryFile = "trajectory.db"
)

var ErrRunNotFound = errors.New("storage: run not found")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID          string             `json:"id"`
	Source      string             `json:"source"`
	Timestamp   time.Time          `json:"timestamp"`
	Bodies      []string           `json:"bodies"`
	Colors      [][3]uint8         `json:"colors,omitempty"`
	Dt          float64            `json:"dt"`
	EndTime     float64            `json:"end_time"`
	Integrator  string             `json:"integrator"`
	Every       int                `json:"every"`
	Steps       int                `json:"steps"`
	Frames      int                `json:"frames"`
	SimTime     float64            `json:"sim_time"`
	EnergyDrift float64            `json:"energy_drift"`
	Metrics     map[string]float64 `json:"metrics,omitempty"`
}

func (s *Store) runDir(runID string) string {
	return filepath.Join(s.baseDir, runID)
}

// Create opens a new run directory and records initial as frame 0.
func (s *Store) Create(meta RunMetadata, initial *body.Set) (*Run, error) {
	if meta.Every < 1 {
		meta.Every = 1
	}
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	if meta.ID == "" {
		meta.ID = fmt.Sprintf("%s_%d", meta.Integrator, meta.Timestamp.UnixNano())
	}
	meta.Bodies = make([]string, 0, initial.Len())
	meta.Colors = make([][3]uint8, 0, initial.Len())
	for i := 0; i < initial.Len(); i++ {
		meta.Bodies = append(meta.Bodies, initial.At(i).Name)
		meta.Colors = append(meta.Colors, initial.At(i).Display.Color)
	}

	dir := s.runDir(meta.ID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := openDB(filepath.Join(dir, trajectoryFile))
	if err != nil {
		return nil, err
	}

	run := &Run{dir: dir, meta: meta, db: db}
	if err := run.prepare(); err != nil {
		db.Close()
		return nil, err
	}
	if err := run.Record(0, initial); err != nil {
		run.db.Close()
		return nil, err
	}
	return run, nil
}

func openDB(filename string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", "file:"+filename+"?_journal_mode=OFF&_synchronous=OFF")
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", filename, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: create tables: %w", err)
	}
	return db, nil
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.runDir(runID), metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("storage: decode %s metadata: %w", runID, err)
	}
	return &meta, nil
}

func (s *Store) open(runID string) (*sql.DB, error) {
	path := filepath.Join(s.runDir(runID), trajectoryFile)
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return sql.Open("sqlite3", "file:"+path+"?mode=ro")
}

// Sample is one recorded state of a single body.
type Sample struct {
	Frame    int
	Time     float64
	Position body.Vec
	Velocity body.Vec
}

func (s *Store) LoadTrajectory(runID string, bodyID int) ([]Sample, error) {
	db, err := s.open(runID)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.Query(queryTrajectory, bodyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	samples := make([]Sample, 0)
	for rows.Next() {
		var sm Sample
		err := rows.Scan(&sm.Frame, &sm.Time,
			&sm.Position[0], &sm.Position[1], &sm.Position[2],
			&sm.Velocity[0], &sm.Velocity[1], &sm.Velocity[2])
		if err != nil {
			return nil, err
		}
		samples = append(samples, sm)
	}
	return samples, rows.Err()
}

// BodyState is one body within a recorded frame.
type BodyState struct {
	ID       int      `json:"id"`
	Name     string   `json:"name"`
	Position body.Vec `json:"position"`
	Velocity body.Vec `json:"velocity"`
}

func (s *Store) LoadFrame(runID string, frame int) ([]BodyState, error) {
	db, err := s.open(runID)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.Query(queryFrame, frame)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]BodyState, 0)
	for rows.Next() {
		var b BodyState
		err := rows.Scan(&b.ID, &b.Name,
			&b.Position[0], &b.Position[1], &b.Position[2],
			&b.Velocity[0], &b.Velocity[1], &b.Velocity[2])
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Run records frames of a live simulation. It implements sim.Observer.
type Run struct {
	dir    string
	meta   RunMetadata
	db     *sql.DB
	frame  *sql.Stmt
	bodies *sql.Stmt
	ticks  int
}

func (r *Run) ID() string { return r.meta.ID }

func (r *Run) prepare() error {
	var err error
	if r.frame, err = r.db.Prepare(insertFrame); err != nil {
		return err
	}
	r.bodies, err = r.db.Prepare(insertBody)
	return err
}

// OnStep records every Every-th tick.
func (r *Run) OnStep(t float64, set *body.Set) error {
	r.ticks++
	if r.ticks%r.meta.Every != 0 {
		return nil
	}
	return r.Record(t, set)
}

// Record writes one frame in a single transaction.
func (r *Run) Record(t float64, set *body.Set) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}

	frame := r.meta.Frames
	if _, err := tx.Stmt(r.frame).Exec(frame, t); err != nil {
		tx.Rollback()
		return fmt.Errorf("storage: frame %d: %w", frame, err)
	}

	stmt := tx.Stmt(r.bodies)
	for i := 0; i < set.Len(); i++ {
		b := set.At(i)
		_, err = stmt.Exec(frame, i, b.Name,
			b.Position[0], b.Position[1], b.Position[2],
			b.Velocity[0], b.Velocity[1], b.Velocity[2])
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("storage: frame %d body %d: %w", frame, i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	r.meta.Frames++
	return nil
}

// Close writes metadata.json with the run summary and closes the database.
func (r *Run) Close(result *sim.Result, metrics map[string]float64) error {
	if result != nil {
		r.meta.Steps = result.Steps
		r.meta.SimTime = result.Time
		r.meta.EnergyDrift = result.EnergyDrift
	}
	r.meta.Metrics = metrics

	f, err := os.Create(filepath.Join(r.dir, metadataFile))
	if err != nil {
		r.db.Close()
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r.meta); err != nil {
		r.db.Close()
		return err
	}

	r.frame.Close()
	r.bodies.Close()
	return r.db.Close()
}
