package optics

import "math"

// Screen is an optional viewing plane terminating the traced span.
type Screen struct {
	Label    string
	Position float64
}

// System is a validated optical column: an ordered element chain, the source
// plane it is fed from, the entrance bundle, and an optional screen. Systems
// only come out of Build, and the tracer treats them as immutable values.
type System struct {
	Source   float64
	Bundle   Bundle
	Elements []Element
	Screen   *Screen
}

// Build validates and assembles a system. It either returns a fully usable
// System or a *ConfigurationError naming the offending element index and
// field; no partially built system is ever observable.
func Build(source float64, bundle Bundle, elems []Element, screen *Screen) (System, error) {
	if math.IsNaN(source) || math.IsInf(source, 0) {
		return System{}, configErr(-1, "source", ErrNotFinite)
	}
	if bundle.Empty() {
		return System{}, configErr(-1, "bundle", ErrEmptyBundle)
	}
	for _, h := range bundle.Heights {
		if math.IsNaN(h) || math.IsInf(h, 0) {
			return System{}, configErr(-1, "bundle", ErrNotFinite)
		}
	}
	for _, a := range bundle.Angles {
		if math.IsNaN(a) || math.IsInf(a, 0) {
			return System{}, configErr(-1, "bundle", ErrNotFinite)
		}
	}

	exit := source
	for i, e := range elems {
		if err := checkElement(i, e); err != nil {
			return System{}, err
		}
		if e.Position < exit || (i > 0 && e.Position <= elems[i-1].Position) {
			return System{}, configErr(i, "position", ErrBadOrder)
		}
		exit = e.Exit()
	}
	if screen != nil {
		if math.IsNaN(screen.Position) || math.IsInf(screen.Position, 0) {
			return System{}, configErr(-1, "screen", ErrNotFinite)
		}
		if screen.Position < exit {
			return System{}, configErr(-1, "screen", ErrBadScreen)
		}
	}

	sys := System{
		Source:   source,
		Bundle:   bundle.clone(),
		Elements: append([]Element(nil), elems...),
	}
	if screen != nil {
		scr := *screen
		sys.Screen = &scr
	}
	return sys, nil
}

func checkElement(i int, e Element) error {
	if !finite(e.Position) {
		return configErr(i, "position", ErrNotFinite)
	}
	switch e.Kind {
	case KindDrift:
		if !finite(e.Length) {
			return configErr(i, "length", ErrNotFinite)
		}
		if e.Length <= 0 {
			return configErr(i, "length", ErrBadLength)
		}
	case KindLens:
		if !finite(e.Focal) {
			return configErr(i, "focal", ErrNotFinite)
		}
		if e.Focal == 0 {
			return configErr(i, "focal", ErrZeroFocal)
		}
		if !finite(e.Radius) {
			return configErr(i, "radius", ErrNotFinite)
		}
		if e.Radius < 0 {
			return configErr(i, "radius", ErrBadRadius)
		}
		if !finite(e.Offset) {
			return configErr(i, "offset", ErrNotFinite)
		}
	case KindAperture:
		if !finite(e.Radius) {
			return configErr(i, "radius", ErrNotFinite)
		}
		if e.Radius <= 0 {
			return configErr(i, "radius", ErrBadRadius)
		}
	case KindDeflector:
		if !finite(e.Angle) {
			return configErr(i, "angle", ErrNotFinite)
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Clone deep-copies the system so an edit can be staged and re-validated
// without touching the original.
func (s System) Clone() System {
	c := s
	c.Bundle = s.Bundle.clone()
	c.Elements = append([]Element(nil), s.Elements...)
	if s.Screen != nil {
		scr := *s.Screen
		c.Screen = &scr
	}
	return c
}

// End is the axial position of the last traced boundary: the screen when
// present, otherwise the exit of the last element, otherwise the source.
func (s System) End() float64 {
	if s.Screen != nil {
		return s.Screen.Position
	}
	if n := len(s.Elements); n > 0 {
		return s.Elements[n-1].Exit()
	}
	return s.Source
}

// Find returns the index of the first element with the given label, or -1.
func (s System) Find(label string) int {
	for i, e := range s.Elements {
		if e.Label == label {
			return i
		}
	}
	return -1
}
