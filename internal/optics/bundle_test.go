package optics

import (
	"math"
	"testing"
)

func TestBundleRays(t *testing.T) {
	tests := []struct {
		name  string
		b     Bundle
		count int
	}{
		{"empty", Bundle{}, 0},
		{"heights only", Bundle{Heights: []float64{-1, 0, 1}}, 3},
		{"angles only", Bundle{Angles: []float64{-0.01, 0.01}}, 2},
		{"grid", Bundle{Heights: []float64{-1, 1}, Angles: []float64{-0.01, 0, 0.01}}, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rays := tt.b.Rays()
			if len(rays) != tt.count {
				t.Errorf("got %d rays, want %d", len(rays), tt.count)
			}
		})
	}
}

func TestBundleRaysDefaults(t *testing.T) {
	rays := Bundle{Heights: []float64{2}}.Rays()
	if len(rays) != 1 {
		t.Fatalf("got %d rays, want 1", len(rays))
	}
	if rays[0].State.Height != 2 || rays[0].State.Angle != 0 {
		t.Errorf("ray state = %+v, want height 2 angle 0", rays[0].State)
	}
	if rays[0].Label != "R0" {
		t.Errorf("label = %q, want R0", rays[0].Label)
	}
}

func TestFanAngles(t *testing.T) {
	fan := FanAngles(-1, 1, 3)
	if len(fan) != 3 {
		t.Fatalf("got %d angles, want 3", len(fan))
	}
	deg := math.Pi / 180
	want := []float64{-deg, 0, deg}
	for i, a := range fan {
		if math.Abs(a-want[i]) > 1e-12 {
			t.Errorf("fan[%d] = %v, want %v", i, a, want[i])
		}
	}
}

func TestFanAnglesSingle(t *testing.T) {
	fan := FanAngles(-1, 1, 1)
	if len(fan) != 1 {
		t.Fatalf("got %d angles, want 1", len(fan))
	}
	if math.Abs(fan[0]-(-math.Pi/180)) > 1e-12 {
		t.Errorf("fan[0] = %v, want -pi/180", fan[0])
	}
}

func TestSpanHeights(t *testing.T) {
	tests := []struct {
		name   string
		offset float64
		size   float64
		n      int
		want   []float64
	}{
		{"three across", 0, 4, 3, []float64{-2, 0, 2}},
		{"offset span", 1, 2, 2, []float64{0, 2}},
		{"zero size collapses", 0.5, 0, 5, []float64{0.5}},
		{"single point", 0.5, 4, 1, []float64{0.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SpanHeights(tt.offset, tt.size, tt.n)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d heights, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if math.Abs(got[i]-tt.want[i]) > 1e-12 {
					t.Errorf("heights[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}
