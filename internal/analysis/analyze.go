package analysis

import (
	"math"

	"github.com/okvist/raylab/internal/trace"
)

// DefaultTolerance is the height agreement required for a bundle to count
// as converged. Column dimensions are order 1e1..1e2, so 1e-6 is far below
// any feature of interest while far above float64 noise.
const DefaultTolerance = 1e-6

// Options tunes the analyzer. The zero value means defaults.
type Options struct {
	Tolerance float64
}

func (o Options) tol() float64 {
	if o.Tolerance > 0 {
		return o.Tolerance
	}
	return DefaultTolerance
}

// Crossover is an axial position where the bundle envelope crosses the
// optical axis (a beam waist). Segment is the index of the boundary segment
// that brackets it.
type Crossover struct {
	Z       float64
	Segment int
}

// FocalPlane is the first position after a converging lens where every
// unblocked ray height agrees within tolerance. Lens is the element index.
type FocalPlane struct {
	Z     float64
	Lens  int
	Label string
}

// Magnification is the height ratio between two planes for a reference ray.
// Defined is false when the ray is blocked at either plane or sits on the
// axis at the object plane; the zero value is that explicit no-data state.
type Magnification struct {
	Value   float64
	Defined bool
}

// FeatureSet is everything the analyzer derives from one trace. Recomputed
// wholesale on every retrace, never cached across edits.
type FeatureSet struct {
	Crossovers  []Crossover
	FocalPlanes []FocalPlane
}

// Analyze derives crossovers and focal planes from a trace. Pure: equal
// inputs give bit-for-bit equal FeatureSets.
func Analyze(res *trace.Result, opt Options) FeatureSet {
	return FeatureSet{
		Crossovers:  crossovers(res),
		FocalPlanes: focalPlanes(res, opt.tol()),
	}
}

// crossovers walks boundary segments and interpolates the zero crossing of
// the envelope ray, the unblocked ray farthest from the axis at segment
// entry. Heights are piecewise linear in z, so the interpolation is exact
// within a segment.
func crossovers(res *trace.Result) []Crossover {
	var out []Crossover
	for k := 0; k+1 < len(res.Boundaries); k++ {
		z0 := res.Boundaries[k].Z
		z1 := res.Boundaries[k+1].Z
		if z1 <= z0 {
			continue
		}
		ray := envelopeRay(res, k)
		if ray < 0 {
			continue
		}
		h0 := res.Paths[ray].Points[k].Height
		h1 := res.Paths[ray].Points[k+1].Height
		switch {
		case h0*h1 < 0:
			frac := h0 / (h0 - h1)
			out = append(out, Crossover{Z: z0 + frac*(z1-z0), Segment: k})
		case h1 == 0 && h0 != 0:
			out = append(out, Crossover{Z: z1, Segment: k})
		}
	}
	return out
}

// envelopeRay picks the unblocked ray with the largest |height| at boundary
// k, or -1 when every ray is blocked or the whole bundle sits on the axis.
func envelopeRay(res *trace.Result, k int) int {
	ray := -1
	best := 0.0
	for i := range res.Paths {
		pt := res.Paths[i].Points[k]
		if pt.Blocked {
			continue
		}
		if a := math.Abs(pt.Height); a > best {
			best = a
			ray = i
		}
	}
	return ray
}

// focalPlanes reports, for each converging lens, the first downstream plane
// where the unblocked bundle collapses to a point within tol. The segment
// past the last boundary extrapolates to infinity, so a bare lens still
// reports its focal plane at position + f.
func focalPlanes(res *trace.Result, tol float64) []FocalPlane {
	var out []FocalPlane
	for k, b := range res.Boundaries {
		if b.Element < 0 || b.Focal <= 0 {
			continue
		}
		if z, ok := convergenceAfter(res, k, tol); ok {
			out = append(out, FocalPlane{Z: z, Lens: b.Element, Label: b.Label})
		}
	}
	return out
}

func convergenceAfter(res *trace.Result, k int, tol float64) (float64, bool) {
	zLens := res.Boundaries[k].Z
	last := len(res.Boundaries) - 1
	for m := k; m <= last; m++ {
		zm := res.Boundaries[m].Z
		idx := unblockedAt(res, m)
		if len(idx) < 2 {
			continue
		}

		lo, hi := extremesAt(res, idx, m)
		hLo := res.Paths[lo].Points[m]
		hHi := res.Paths[hi].Points[m]

		if hHi.Height-hLo.Height <= tol {
			if zm > zLens {
				return zm, true
			}
			continue
		}

		da := hLo.Angle - hHi.Angle
		if da == 0 {
			continue
		}
		t := (hHi.Height - hLo.Height) / da
		if t <= 0 {
			continue
		}
		z := zm + t
		if m < last && z > res.Boundaries[m+1].Z {
			continue
		}
		if spreadAt(res, idx, m, t) <= tol && z > zLens {
			return z, true
		}
	}
	return 0, false
}

func unblockedAt(res *trace.Result, m int) []int {
	var idx []int
	for i := range res.Paths {
		if !res.Paths[i].Points[m].Blocked {
			idx = append(idx, i)
		}
	}
	return idx
}

// extremesAt returns the rays with the lowest and highest height at
// boundary m among the given indices.
func extremesAt(res *trace.Result, idx []int, m int) (lo, hi int) {
	lo, hi = idx[0], idx[0]
	for _, i := range idx[1:] {
		h := res.Paths[i].Points[m].Height
		if h < res.Paths[lo].Points[m].Height {
			lo = i
		}
		if h > res.Paths[hi].Points[m].Height {
			hi = i
		}
	}
	return lo, hi
}

// spreadAt is the bundle extent a distance t past boundary m, from the
// recorded states there. Exact, since nothing bends a ray between
// boundaries.
func spreadAt(res *trace.Result, idx []int, m int, t float64) float64 {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, i := range idx {
		pt := res.Paths[i].Points[m]
		h := pt.Height + pt.Angle*t
		lo = math.Min(lo, h)
		hi = math.Max(hi, h)
	}
	return hi - lo
}

// Mag computes the transverse magnification between planes zA and zB for
// one reference ray.
func Mag(res *trace.Result, ray int, zA, zB float64) Magnification {
	hA, ok := res.HeightAt(ray, zA)
	if !ok || hA == 0 {
		return Magnification{}
	}
	hB, ok := res.HeightAt(ray, zB)
	if !ok {
		return Magnification{}
	}
	return Magnification{Value: hB / hA, Defined: true}
}

// Summary condenses a traced, analyzed system into named scalars for
// listings and archive metadata.
func Summary(res *trace.Result, fs FeatureSet) map[string]float64 {
	m := map[string]float64{
		"rays":         float64(len(res.Paths)),
		"rays_blocked": float64(res.BlockedCount()),
		"crossovers":   float64(len(fs.Crossovers)),
		"focal_planes": float64(len(fs.FocalPlanes)),
	}
	n := len(res.Boundaries)
	if n == 0 {
		return m
	}
	if w, ok := res.Spread(n - 1); ok {
		m["spot_final"] = w
	}
	min := math.Inf(1)
	found := false
	for k := 0; k < n; k++ {
		if w, ok := res.Spread(k); ok && w < min {
			min = w
			found = true
		}
	}
	if found {
		m["envelope_min"] = min
	}
	return m
}
