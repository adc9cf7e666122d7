package tune

import (
	"errors"
	"math"
	"testing"

	"github.com/okvist/raylab/internal/optics"
)

func singleLens(t *testing.T) optics.System {
	t.Helper()
	sys, err := optics.Build(0,
		optics.Bundle{Heights: []float64{0}, Angles: []float64{-0.05, 0, 0.05}},
		[]optics.Element{optics.Lens("OL", 10, 3)},
		&optics.Screen{Position: 20},
	)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	return sys
}

func TestFocusRecoversFocalLength(t *testing.T) {
	// Object and image both 10 from the lens: the sharp setting is f=5.
	sys := singleLens(t)

	f, spot, err := Focus(sys, 0, 2, 8, 7, 3)
	if err != nil {
		t.Fatalf("focus failed: %v", err)
	}
	if math.Abs(f-5) > 0.01 {
		t.Errorf("expected f near 5, got %f", f)
	}
	if spot > 1e-9 {
		t.Errorf("expected a sharp spot, got %g", spot)
	}
}

func TestFocusRefinesOffGridOptimum(t *testing.T) {
	// No grid point lands on 5; refinement has to walk there.
	sys := singleLens(t)

	f, _, err := Focus(sys, 0, 2, 8.6, 6, 4)
	if err != nil {
		t.Fatalf("focus failed: %v", err)
	}
	if math.Abs(f-5) > 0.1 {
		t.Errorf("expected f near 5 after refinement, got %f", f)
	}
}

func TestFocusLeavesInputUntouched(t *testing.T) {
	sys := singleLens(t)

	if _, _, err := Focus(sys, 0, 2, 8, 7, 2); err != nil {
		t.Fatalf("focus failed: %v", err)
	}
	if sys.Elements[0].Focal != 3 {
		t.Errorf("input system modified: focal now %f", sys.Elements[0].Focal)
	}
}

func TestFocusValidation(t *testing.T) {
	sys := singleLens(t)

	noScreen := sys.Clone()
	noScreen.Screen = nil

	stop := sys.Clone()
	stop.Elements = append(stop.Elements, optics.Aperture("A", 15, 2))

	tests := []struct {
		name string
		run  func() error
		want error
	}{
		{"no screen", func() error { _, _, err := Focus(noScreen, 0, 2, 8, 7, 0); return err }, ErrNoScreen},
		{"bad index", func() error { _, _, err := Focus(sys, 5, 2, 8, 7, 0); return err }, ErrNotLens},
		{"not a lens", func() error { _, _, err := Focus(stop, 1, 2, 8, 7, 0); return err }, ErrNotLens},
		{"inverted range", func() error { _, _, err := Focus(sys, 0, 8, 2, 7, 0); return err }, ErrBadRange},
		{"single step", func() error { _, _, err := Focus(sys, 0, 2, 8, 1, 0); return err }, ErrBadRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			var cfg *optics.ConfigurationError
			if !errors.As(err, &cfg) {
				t.Fatalf("expected a configuration error, got %T", err)
			}
		})
	}
}

func TestFocusAllRaysStopped(t *testing.T) {
	sys, err := optics.Build(0,
		optics.Bundle{Heights: []float64{1, 2}, Angles: []float64{0}},
		[]optics.Element{
			optics.Aperture("A", 5, 0.5),
			optics.Lens("OL", 10, 3),
		},
		&optics.Screen{Position: 20},
	)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	if _, _, err := Focus(sys, 1, 2, 8, 7, 1); !errors.Is(err, ErrNoSpot) {
		t.Fatalf("expected ErrNoSpot, got %v", err)
	}
}
