package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/klauspost/compress/gzip"

	"github.com/san-kum/mdsim/internal/md"
)

// TrajectoryWriter records particle positions every Nth step as a
// gzip-compressed CSV stream. It plugs into the run loop as an observer;
// Close must be called after the run to flush the compressor.
type TrajectoryWriter struct {
	file  *os.File
	gz    *gzip.Writer
	w     *csv.Writer
	every int
	err   error
}

func NewTrajectoryWriter(path string, every int) (*TrajectoryWriter, error) {
	if every <= 0 {
		every = 1
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	gz := gzip.NewWriter(f)
	w := csv.NewWriter(gz)
	tw := &TrajectoryWriter{file: f, gz: gz, w: w, every: every}
	tw.err = w.Write([]string{"step", "index", "x", "y", "z"})
	return tw, nil
}

func (t *TrajectoryWriter) OnStep(s md.Snapshot) {
	if t.err != nil || s.Step%t.every != 0 {
		return
	}
	for i, p := range s.Sys.Pos {
		row := []string{
			strconv.Itoa(s.Step),
			strconv.Itoa(i),
			strconv.FormatFloat(p[0], 'g', -1, 64),
			strconv.FormatFloat(p[1], 'g', -1, 64),
			strconv.FormatFloat(p[2], 'g', -1, 64),
		}
		if err := t.w.Write(row); err != nil {
			t.err = err
			return
		}
	}
}

// Err reports the first write failure, if any. Write errors silence the
// observer rather than aborting the run.
func (t *TrajectoryWriter) Err() error { return t.err }

func (t *TrajectoryWriter) Close() error {
	t.w.Flush()
	if err := t.w.Error(); err != nil && t.err == nil {
		t.err = err
	}
	if err := t.gz.Close(); err != nil && t.err == nil {
		t.err = err
	}
	if err := t.file.Close(); err != nil && t.err == nil {
		t.err = err
	}
	return t.err
}

// Frame is one stored snapshot of particle positions.
type Frame struct {
	Step      int
	Positions [][3]float64
}

// ReadTrajectory loads every frame back from a compressed trajectory file.
func ReadTrajectory(path string) ([]Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer gz.Close()

	records, err := csv.NewReader(gz).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, nil
	}

	var frames []Frame
	cur := -1
	for _, rec := range records[1:] {
		if len(rec) != 5 {
			return nil, fmt.Errorf("malformed trajectory row %v", rec)
		}
		step, err := strconv.Atoi(rec[0])
		if err != nil {
			return nil, err
		}
		var p [3]float64
		for ax := 0; ax < 3; ax++ {
			p[ax], err = strconv.ParseFloat(rec[2+ax], 64)
			if err != nil {
				return nil, err
			}
		}
		if cur == -1 || frames[len(frames)-1].Step != step {
			frames = append(frames, Frame{Step: step})
			cur = len(frames) - 1
		}
		frames[cur].Positions = append(frames[cur].Positions, p)
	}
	return frames, nil
}
