package storage

import (
	"encoding/json"
	"io"
	"time"

	"github.com/okvist/raylab/internal/trace"
)

// ExportData is the self-contained JSON form of one archived run.
type ExportData struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Timestamp time.Time          `json:"timestamp"`
	Elements  int                `json:"elements"`
	Rays      int                `json:"rays"`
	Source    float64            `json:"source"`
	Screen    float64            `json:"screen"`
	Summary   map[string]float64 `json:"summary"`
	Trace     *trace.Result      `json:"trace"`
}

// ExportJSON writes an archived run as one indented JSON document.
func (s *Store) ExportJSON(runID string, w io.Writer) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}

	res, err := s.LoadTrace(runID)
	if err != nil {
		return err
	}

	data := ExportData{
		ID:        meta.ID,
		Name:      meta.Name,
		Timestamp: meta.Timestamp,
		Elements:  meta.Elements,
		Rays:      meta.Rays,
		Source:    meta.Source,
		Screen:    meta.Screen,
		Summary:   meta.Summary,
		Trace:     res,
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
