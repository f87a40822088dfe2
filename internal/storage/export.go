package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/mdsim/internal/md"
	"github.com/san-kum/mdsim/internal/metrics"
)

// ExportData is the self-contained JSON form of one run, for downstream
// tooling that does not want to walk a run directory.
type ExportData struct {
	Name       string             `json:"name"`
	Integrator string             `json:"integrator"`
	Dt         float64            `json:"dt"`
	Steps      int                `json:"steps"`
	Times      []float64          `json:"times"`
	Kinetic    []float64          `json:"kinetic"`
	Potential  []float64          `json:"potential"`
	Summary    metrics.RunSummary `json:"summary"`
	Metrics    map[string]float64 `json:"metrics"`
}

func exportData(name, integrator string, dt float64, result *md.Result) ExportData {
	return ExportData{
		Name:       name,
		Integrator: integrator,
		Dt:         dt,
		Steps:      result.StepsTaken,
		Times:      result.Times,
		Kinetic:    result.Kinetic,
		Potential:  result.Potential,
		Summary:    metrics.Summarize(result),
		Metrics:    result.Metrics,
	}
}

func writeJSON(w io.Writer, data ExportData) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func ExportJSON(path, name, integrator string, dt float64, result *md.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return writeJSON(file, exportData(name, integrator, dt, result))
}

func ExportJSONStdout(name, integrator string, dt float64, result *md.Result) error {
	return writeJSON(os.Stdout, exportData(name, integrator, dt, result))
}
