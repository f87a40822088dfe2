// Package storage persists finished runs: metadata and metrics as JSON,
// per-step energy series as CSV, and trajectories as gzip-compressed CSV.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/san-kum/mdsim/internal/md"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) runDir(runID string) string {
	return filepath.Join(s.baseDir, runID)
}

type RunMetadata struct {
	ID             string             `json:"id"`
	Name           string             `json:"name"`
	Timestamp      time.Time          `json:"timestamp"`
	Seed           int64              `json:"seed"`
	Dt             float64            `json:"dt"`
	Steps          int                `json:"steps"`
	Particles      int                `json:"particles"`
	Integrator     string             `json:"integrator"`
	Finder         string             `json:"finder"`
	EnergyDrift    float64            `json:"energy_drift"`
	ShakeFailures  int                `json:"shake_failures"`
	RattleFailures int                `json:"rattle_failures"`
	ForceClamps    int64              `json:"force_clamps"`
	Metrics        map[string]float64 `json:"metrics"`
}

// RunInfo carries the identifying fields of a run into Save.
type RunInfo struct {
	Name       string
	Seed       int64
	Particles  int
	Integrator string
	Finder     string
}

// Save writes one run directory with metadata.json and energies.csv and
// returns the run ID.
func (s *Store) Save(info RunInfo, cfg md.Config, result *md.Result) (string, error) {
	runID := fmt.Sprintf("%s_%d", info.Name, time.Now().UnixNano())
	if err := os.MkdirAll(s.runDir(runID), 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:             runID,
		Name:           info.Name,
		Timestamp:      time.Now(),
		Seed:           info.Seed,
		Dt:             cfg.Dt,
		Steps:          result.StepsTaken,
		Particles:      info.Particles,
		Integrator:     info.Integrator,
		Finder:         info.Finder,
		EnergyDrift:    result.EnergyDrift,
		ShakeFailures:  result.ShakeFailures,
		RattleFailures: result.RattleFailures,
		ForceClamps:    result.ForceClamps,
		Metrics:        result.Metrics,
	}

	metaFile, err := os.Create(filepath.Join(s.runDir(runID), "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	if err := s.saveEnergies(runID, result); err != nil {
		return "", err
	}
	return runID, nil
}

func (s *Store) saveEnergies(runID string, result *md.Result) error {
	f, err := os.Create(filepath.Join(s.runDir(runID), "energies.csv"))
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"time", "kinetic", "potential", "total"}); err != nil {
		return err
	}
	for i := range result.Times {
		row := []string{
			strconv.FormatFloat(result.Times[i], 'g', -1, 64),
			strconv.FormatFloat(result.Kinetic[i], 'g', -1, 64),
			strconv.FormatFloat(result.Potential[i], 'g', -1, 64),
			strconv.FormatFloat(result.Kinetic[i]+result.Potential[i], 'g', -1, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
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
		data, err := os.ReadFile(filepath.Join(s.baseDir, entry.Name(), "metadata.json"))
		if err != nil {
			continue
		}
		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}
		runs = append(runs, meta)
	}
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.runDir(runID), "metadata.json"))
	if err != nil {
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadEnergies reads the per-step series back: times, kinetic, potential.
func (s *Store) LoadEnergies(runID string) ([]float64, []float64, []float64, error) {
	f, err := os.Open(filepath.Join(s.runDir(runID), "energies.csv"))
	if err != nil {
		return nil, nil, nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, nil, err
	}
	if len(records) < 2 {
		return []float64{}, []float64{}, []float64{}, nil
	}

	times := make([]float64, 0, len(records)-1)
	kinetic := make([]float64, 0, len(records)-1)
	potential := make([]float64, 0, len(records)-1)
	for _, rec := range records[1:] {
		if len(rec) < 3 {
			continue
		}
		t, err := strconv.ParseFloat(rec[0], 64)
		if err != nil {
			continue
		}
		k, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			continue
		}
		p, err := strconv.ParseFloat(rec[2], 64)
		if err != nil {
			continue
		}
		times = append(times, t)
		kinetic = append(kinetic, k)
		potential = append(potential, p)
	}
	return times, kinetic, potential, nil
}
