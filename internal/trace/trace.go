package trace

import (
	"math"

	"github.com/okvist/raylab/internal/optics"
)

// Boundary describes one recorded column of the trace: the source plane,
// an element exit, or the screen. Element is -1 for source and screen;
// Focal is the lens focal length when the boundary is a lens, else 0.
type Boundary struct {
	Z       float64 `json:"z"`
	Element int     `json:"element"`
	Label   string  `json:"label"`
	Focal   float64 `json:"focal,omitempty"`
}

// Point is a ray state sample at a boundary. Blocked is sticky: once a ray
// hits a stop it stays marked at every later boundary, but it keeps being
// propagated geometrically so the trajectory stays plottable.
type Point struct {
	Z       float64 `json:"z"`
	Height  float64 `json:"height"`
	Angle   float64 `json:"angle"`
	Blocked bool    `json:"blocked,omitempty"`
}

// Path is the full trajectory of one entrance ray, one Point per Boundary.
type Path struct {
	Label  string  `json:"label"`
	Points []Point `json:"points"`
}

// Result is a complete trace of a system. It is produced fresh by Run and
// never mutated afterwards; an edit replaces it wholesale.
type Result struct {
	Boundaries []Boundary `json:"boundaries"`
	Paths      []Path     `json:"paths"`
}

// Run traces every entrance ray through the system. Rays cross the gaps
// between elements through implicit free space, so only element exits (plus
// source and screen) appear as samples. Pure: the result depends on nothing
// but the system value.
func Run(sys optics.System) *Result {
	rays := sys.Bundle.Rays()
	nb := len(sys.Elements) + 1
	if sys.Screen != nil {
		nb++
	}

	res := &Result{
		Boundaries: make([]Boundary, 0, nb),
		Paths:      make([]Path, len(rays)),
	}
	res.Boundaries = append(res.Boundaries, Boundary{Z: sys.Source, Element: -1, Label: "source"})
	for i, e := range sys.Elements {
		b := Boundary{Z: e.Exit(), Element: i, Label: e.Label}
		if e.Kind == optics.KindLens {
			b.Focal = e.Focal
		}
		res.Boundaries = append(res.Boundaries, b)
	}
	if sys.Screen != nil {
		label := sys.Screen.Label
		if label == "" {
			label = "screen"
		}
		res.Boundaries = append(res.Boundaries, Boundary{Z: sys.Screen.Position, Element: -1, Label: label})
	}

	for ri, ray := range rays {
		pts := make([]Point, 0, nb)
		v := ray.State
		z := sys.Source
		blocked := false
		pts = append(pts, Point{Z: z, Height: v.Height, Angle: v.Angle})

		for _, e := range sys.Elements {
			if gap := e.Position - z; gap > 0 {
				v = optics.DriftMat(gap).Apply(v)
			}
			if e.Blocks(v.Height) {
				blocked = true
			}
			v = optics.TransferOf(e).Apply(v)
			z = e.Exit()
			pts = append(pts, Point{Z: z, Height: v.Height, Angle: v.Angle, Blocked: blocked})
		}
		if sys.Screen != nil {
			if gap := sys.Screen.Position - z; gap > 0 {
				v = optics.DriftMat(gap).Apply(v)
			}
			z = sys.Screen.Position
			pts = append(pts, Point{Z: z, Height: v.Height, Angle: v.Angle, Blocked: blocked})
		}
		res.Paths[ri] = Path{Label: ray.Label, Points: pts}
	}
	return res
}

// Composite folds the whole column, implicit gaps included, into a single
// end-to-end transfer from the source plane to the last boundary.
func Composite(sys optics.System) optics.Transfer {
	t := optics.IdentityTransfer()
	z := sys.Source
	for _, e := range sys.Elements {
		if gap := e.Position - z; gap > 0 {
			t = optics.Transfer{M: optics.DriftMat(gap)}.Compose(t)
		}
		t = optics.TransferOf(e).Compose(t)
		z = e.Exit()
	}
	if sys.Screen != nil {
		if gap := sys.Screen.Position - z; gap > 0 {
			t = optics.Transfer{M: optics.DriftMat(gap)}.Compose(t)
		}
	}
	return t
}

// HeightAt interpolates the ray's height at an arbitrary axial position.
// Between boundaries a ray flies straight, so linear interpolation is
// exact. Returns false outside the traced span, or when the ray is already
// blocked where the position falls.
func (r *Result) HeightAt(ray int, z float64) (float64, bool) {
	if ray < 0 || ray >= len(r.Paths) {
		return 0, false
	}
	pts := r.Paths[ray].Points
	if len(pts) == 0 || z < pts[0].Z || z > pts[len(pts)-1].Z {
		return 0, false
	}
	for k := len(pts) - 1; k >= 0; k-- {
		p := pts[k]
		if z == p.Z {
			if p.Blocked {
				return 0, false
			}
			return p.Height, true
		}
		if z > p.Z {
			if p.Blocked {
				return 0, false
			}
			next := pts[k+1]
			frac := (z - p.Z) / (next.Z - p.Z)
			return p.Height + frac*(next.Height-p.Height), true
		}
	}
	return 0, false
}

// Spread is the transverse extent (max minus min height) of the unblocked
// bundle at boundary k. False when every ray is blocked there.
func (r *Result) Spread(k int) (float64, bool) {
	lo, hi := math.Inf(1), math.Inf(-1)
	n := 0
	for _, p := range r.Paths {
		if k < 0 || k >= len(p.Points) {
			continue
		}
		pt := p.Points[k]
		if pt.Blocked {
			continue
		}
		lo = math.Min(lo, pt.Height)
		hi = math.Max(hi, pt.Height)
		n++
	}
	if n == 0 {
		return 0, false
	}
	return hi - lo, true
}

// BlockedCount reports how many rays end the trace blocked.
func (r *Result) BlockedCount() int {
	n := 0
	for _, p := range r.Paths {
		if len(p.Points) > 0 && p.Points[len(p.Points)-1].Blocked {
			n++
		}
	}
	return n
}
