package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/okvist/raylab/internal/session"
	"github.com/okvist/raylab/internal/trace"
)

// Store archives traced runs on disk, one directory per run: metadata.json
// carries the column table and summary metrics, trace.csv the sampled ray
// states. Together they reconstruct the full trace.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// RunMetadata is the searchable face of an archived run. Boundaries holds
// the source/element/screen planes of the trace so a run can be reloaded
// and reanalyzed without the original configuration.
type RunMetadata struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	Timestamp  time.Time          `json:"timestamp"`
	Elements   int                `json:"elements"`
	Rays       int                `json:"rays"`
	Source     float64            `json:"source"`
	Screen     float64            `json:"screen"`
	Revision   uint64             `json:"revision"`
	Boundaries []trace.Boundary   `json:"boundaries"`
	Summary    map[string]float64 `json:"summary"`
}

// Save archives one snapshot under a fresh run directory and returns the
// run id.
func (s *Store) Save(name string, snap *session.Snapshot) (string, error) {
	runID := fmt.Sprintf("%s_%d", name, time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:         runID,
		Name:       name,
		Timestamp:  time.Now(),
		Elements:   len(snap.System.Elements),
		Rays:       len(snap.Trace.Paths),
		Source:     snap.System.Source,
		Screen:     snap.System.End(),
		Revision:   snap.Revision,
		Boundaries: snap.Trace.Boundaries,
		Summary:    snap.Summary,
	}

	metaPath := filepath.Join(runDir, "metadata.json")
	metaFile, err := os.Create(metaPath)
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvPath := filepath.Join(runDir, "trace.csv")
	csvFile, err := os.Create(csvPath)
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	defer w.Flush()

	if err := w.Write([]string{"ray", "label", "z", "height", "angle", "blocked"}); err != nil {
		return "", err
	}

	for ri, p := range snap.Trace.Paths {
		for _, pt := range p.Points {
			row := []string{
				strconv.Itoa(ri),
				p.Label,
				strconv.FormatFloat(pt.Z, 'g', -1, 64),
				strconv.FormatFloat(pt.Height, 'g', -1, 64),
				strconv.FormatFloat(pt.Angle, 'g', -1, 64),
				strconv.FormatBool(pt.Blocked),
			}
			if err := w.Write(row); err != nil {
				return "", err
			}
		}
	}

	return runID, nil
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

		metaPath := filepath.Join(s.baseDir, entry.Name(), "metadata.json")
		data, err := os.ReadFile(metaPath)
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
	metaPath := filepath.Join(s.baseDir, runID, "metadata.json")
	data, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// LoadTrace rebuilds the archived trace: boundaries from the metadata,
// ray paths from trace.csv. The result is analyzable like a fresh one.
func (s *Store) LoadTrace(runID string) (*trace.Result, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}

	csvPath := filepath.Join(s.baseDir, runID, "trace.csv")
	file, err := os.Open(csvPath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	paths := make([]trace.Path, 0)
	last := -1
	for i := 1; i < len(records); i++ {
		rec := records[i]
		if len(rec) < 6 {
			continue
		}

		idx, err := strconv.Atoi(rec[0])
		if err != nil {
			continue
		}
		z, errZ := strconv.ParseFloat(rec[2], 64)
		h, errH := strconv.ParseFloat(rec[3], 64)
		a, errA := strconv.ParseFloat(rec[4], 64)
		if errZ != nil || errH != nil || errA != nil {
			continue
		}
		blocked, _ := strconv.ParseBool(rec[5])

		if idx != last {
			paths = append(paths, trace.Path{Label: rec[1]})
			last = idx
		}
		p := &paths[len(paths)-1]
		p.Points = append(p.Points, trace.Point{Z: z, Height: h, Angle: a, Blocked: blocked})
	}

	return &trace.Result{Boundaries: meta.Boundaries, Paths: paths}, nil
}
