package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okvist/raylab/internal/analysis"
	"github.com/okvist/raylab/internal/optics"
	"github.com/okvist/raylab/internal/trace"
)

func buildColumn(t *testing.T, elems []optics.Element) optics.System {
	t.Helper()
	sys, err := optics.Build(0,
		optics.Bundle{Heights: []float64{0}, Angles: []float64{-0.05, 0, 0.05}},
		elems,
		&optics.Screen{Position: 20},
	)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	return sys
}

func TestDiagramSVGOnePolylinePerRay(t *testing.T) {
	sys := buildColumn(t, []optics.Element{optics.Lens("L", 10, 5)})
	res := trace.Run(sys)
	fs := analysis.Analyze(res, analysis.Options{})

	svg := DiagramSVG(sys, res, fs, 800, 400)

	if !strings.HasPrefix(svg, `<?xml version="1.0"`) {
		t.Error("missing XML header")
	}
	if !strings.HasSuffix(svg, "</svg>") {
		t.Error("unterminated document")
	}
	if got := strings.Count(svg, "<polyline"); got != 3 {
		t.Errorf("expected 3 polylines, got %d", got)
	}
	if strings.Contains(svg, "stroke-dasharray") {
		t.Error("unexpected dashed segment without a stop")
	}
	if got := strings.Count(svg, "<circle"); got != len(fs.Crossovers) {
		t.Errorf("expected %d crossover dots, got %d", len(fs.Crossovers), got)
	}
	if !strings.Contains(svg, ">L</text>") {
		t.Error("missing element label")
	}
}

func TestDiagramSVGBlockedTailDashed(t *testing.T) {
	sys := buildColumn(t, []optics.Element{
		optics.Lens("L", 10, 5),
		optics.Aperture("A", 12, 0.3),
	})
	res := trace.Run(sys)
	fs := analysis.Analyze(res, analysis.Options{})

	svg := DiagramSVG(sys, res, fs, 800, 400)

	// Outer rays sit at |0.4| on the stop plane, so two rays gain a dashed
	// tail while the axial ray stays whole.
	if got := strings.Count(svg, "<polyline"); got != 5 {
		t.Errorf("expected 5 polylines, got %d", got)
	}
	if got := strings.Count(svg, "stroke-dasharray"); got != 2 {
		t.Errorf("expected 2 dashed tails, got %d", got)
	}
}

func TestWriteDiagram(t *testing.T) {
	sys := buildColumn(t, []optics.Element{optics.Lens("L", 10, 5)})
	res := trace.Run(sys)
	fs := analysis.Analyze(res, analysis.Options{})

	path := filepath.Join(t.TempDir(), "diagram.svg")
	if err := WriteDiagram(path, sys, res, fs, 640, 320); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back failed: %v", err)
	}
	if !strings.Contains(string(data), "<svg") {
		t.Error("written file is not an SVG document")
	}
}
