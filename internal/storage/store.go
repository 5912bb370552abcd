package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"

	"github.com/san-kum/mdbridge/internal/sampling"
)

const (
	catalogFile   = "catalog.db"
	metadataFile  = "metadata.json"
	resultFile    = "result.json"
	snapshotsFile = "snapshots.csv"
	cvsFile       = "cvs.csv"
)

var (
	ErrNotInitialized = errors.New("storage: store is not initialized")
	ErrRunNotFound    = errors.New("storage: run not found")
)

// Store lays out one directory per run under baseDir and indexes the runs
// in a sqlite catalog.
type Store struct {
	baseDir string
	logger  *slog.Logger

	mu      sync.RWMutex
	catalog *catalog
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, logger: slog.Default()}
}

func (s *Store) SetLogger(l *slog.Logger) {
	if l != nil {
		s.logger = l
	}
}

func (s *Store) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.catalog != nil {
		return nil
	}
	if err := os.MkdirAll(s.baseDir, 0755); err != nil {
		return err
	}
	c, err := openCatalog(ctx, filepath.Join(s.baseDir, catalogFile))
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	s.catalog = c
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.catalog == nil {
		return nil
	}
	err := s.catalog.Close()
	s.catalog = nil
	return err
}

func (s *Store) getCatalog() (*catalog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.catalog == nil {
		return nil, ErrNotInitialized
	}
	return s.catalog, nil
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Mode      string             `json:"mode"`
	Method    string             `json:"method"`
	Timestamp time.Time          `json:"timestamp"`
	Seed      int64              `json:"seed"`
	Dt        float64            `json:"dt"`
	Steps     int                `json:"steps"`
	Stride    int                `json:"stride"`
	Particles int                `json:"particles"`
	KT        float64            `json:"kT"`
	CVNames   []string           `json:"cv_names,omitempty"`
	Metrics   map[string]float64 `json:"metrics"`
}

// SnapshotRow is one particle of one recorded snapshot in snapshots.csv.
type SnapshotRow struct {
	Step     int     `csv:"step"`
	Particle int     `csv:"particle"`
	X        float64 `csv:"x"`
	Y        float64 `csv:"y"`
	Z        float64 `csv:"z"`
	Px       float64 `csv:"px"`
	Py       float64 `csv:"py"`
	Pz       float64 `csv:"pz"`
	Mass     float64 `csv:"mass"`
}

// CVRow is one collective variable value in cvs.csv.
type CVRow struct {
	Step  int     `csv:"step"`
	CV    string  `csv:"cv"`
	Value float64 `csv:"value"`
}

// Save writes the run directory and records it in the catalog. The run ID is
// the result's ID when it has one.
func (s *Store) Save(ctx context.Context, meta RunMetadata, res *sampling.Result) (string, error) {
	c, err := s.getCatalog()
	if err != nil {
		return "", err
	}

	runID := res.ID
	if runID == "" {
		runID = uuid.NewString()
	}
	meta.ID = runID
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	if meta.Method == "" {
		meta.Method = res.Method
	}
	if meta.CVNames == nil {
		meta.CVNames = res.CVNames
	}

	runDir := filepath.Join(s.baseDir, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := SaveResult(filepath.Join(runDir, resultFile), res); err != nil {
		return "", err
	}
	if err := writeCSV(filepath.Join(runDir, snapshotsFile), snapshotRows(res)); err != nil {
		return "", err
	}
	if len(res.CVNames) > 0 {
		if err := writeCSV(filepath.Join(runDir, cvsFile), cvRows(res)); err != nil {
			return "", err
		}
	}

	if err := c.put(ctx, meta); err != nil {
		return "", fmt.Errorf("catalog run %s: %w", runID, err)
	}

	s.logger.Info("run saved", "id", runID, "dir", runDir, "snapshots", len(res.Snapshots))
	return runID, nil
}

func (s *Store) List(ctx context.Context) ([]RunMetadata, error) {
	c, err := s.getCatalog()
	if err != nil {
		return nil, err
	}
	return c.list(ctx)
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) ResultPath(runID string) string {
	return filepath.Join(s.baseDir, runID, resultFile)
}

func (s *Store) LoadResult(runID string) (*sampling.Result, error) {
	res, err := LoadResult(s.ResultPath(runID))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return res, err
}

func (s *Store) LoadSnapshots(runID string) ([]SnapshotRow, error) {
	var rows []SnapshotRow
	if err := readCSV(filepath.Join(s.baseDir, runID, snapshotsFile), &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Store) LoadCVs(runID string) ([]CVRow, error) {
	var rows []CVRow
	if err := readCSV(filepath.Join(s.baseDir, runID, cvsFile), &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func snapshotRows(res *sampling.Result) []SnapshotRow {
	rows := make([]SnapshotRow, 0)
	for _, snap := range res.Snapshots {
		for i, r := range snap.Positions {
			row := SnapshotRow{Step: snap.Step, Particle: i, X: r[0], Y: r[1], Z: r[2]}
			if i < len(snap.VelMass.Momentum) {
				p := snap.VelMass.Momentum[i]
				row.Px, row.Py, row.Pz = p[0], p[1], p[2]
			}
			if i < len(snap.VelMass.Mass) {
				row.Mass = snap.VelMass.Mass[i]
			}
			rows = append(rows, row)
		}
	}
	return rows
}

func cvRows(res *sampling.Result) []CVRow {
	rows := make([]CVRow, 0, len(res.CVs)*len(res.CVNames))
	for k, values := range res.CVs {
		step := 0
		if k < len(res.Snapshots) {
			step = res.Snapshots[k].Step
		}
		for j, v := range values {
			rows = append(rows, CVRow{Step: step, CV: res.CVNames[j], Value: v})
		}
	}
	return rows
}

func writeJSON(path string, v any) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeCSV(path string, rows any) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Base(path), err)
	}
	defer file.Close()

	if err := gocsv.Marshal(rows, file); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return nil
}

func readCSV(path string, out any) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return gocsv.UnmarshalFile(file, out)
}
