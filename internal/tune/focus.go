// Package tune adjusts column parameters against traced figures of merit.
package tune

import (
	"errors"
	"math"

	"github.com/okvist/raylab/internal/optics"
	"github.com/okvist/raylab/internal/trace"
)

var (
	// ErrNoScreen is returned when the system has no screen to focus on.
	ErrNoScreen = errors.New("tune: focus needs a screen")
	// ErrNotLens is returned when the chosen element cannot be focused.
	ErrNotLens = errors.New("tune: element is not a lens")
	// ErrBadRange is returned for an unusable search interval.
	ErrBadRange = errors.New("tune: search range must satisfy lo < hi with at least 2 steps")
	// ErrNoSpot is returned when no candidate leaves a measurable spot,
	// for instance when every ray is stopped before the screen.
	ErrNoSpot = errors.New("tune: no candidate produced a measurable spot")
)

// Focus searches the focal length of one lens for the smallest spot on the
// screen. A coarse grid of steps candidates covers [lo, hi]; each refine
// round then re-grids one cell width around the best candidate. Pure: the
// input system is never modified.
func Focus(sys optics.System, lensIndex int, lo, hi float64, steps, refine int) (bestF, spot float64, err error) {
	if sys.Screen == nil {
		return 0, 0, &optics.ConfigurationError{Index: -1, Field: "screen", Err: ErrNoScreen}
	}
	if lensIndex < 0 || lensIndex >= len(sys.Elements) {
		return 0, 0, &optics.ConfigurationError{Index: lensIndex, Field: "focal", Err: ErrNotLens}
	}
	if sys.Elements[lensIndex].Kind != optics.KindLens {
		return 0, 0, &optics.ConfigurationError{Index: lensIndex, Field: "focal", Err: ErrNotLens}
	}
	if !(lo < hi) || steps < 2 {
		return 0, 0, &optics.ConfigurationError{Index: lensIndex, Field: "focal", Err: ErrBadRange}
	}
	if refine < 0 {
		refine = 0
	}

	bestF, spot = 0, math.Inf(1)
	for round := 0; round <= refine; round++ {
		width := (hi - lo) / float64(steps-1)
		for i := 0; i < steps; i++ {
			f := lo + float64(i)*width
			s, ok := spotFor(sys, lensIndex, f)
			if !ok {
				continue
			}
			if s < spot {
				spot, bestF = s, f
			}
		}
		if math.IsInf(spot, 1) {
			return 0, 0, ErrNoSpot
		}
		lo, hi = bestF-width, bestF+width
	}
	return bestF, spot, nil
}

// spotFor rebuilds the system with one focal length swapped in and
// measures the ray spread on the screen. Candidates that fail validation
// (a zero focal, say) are skipped rather than fatal.
func spotFor(sys optics.System, lensIndex int, focal float64) (float64, bool) {
	elems := append([]optics.Element(nil), sys.Elements...)
	elems[lensIndex].Focal = focal

	built, err := optics.Build(sys.Source, sys.Bundle, elems, sys.Screen)
	if err != nil {
		return 0, false
	}
	res := trace.Run(built)
	return res.Spread(len(res.Boundaries) - 1)
}
