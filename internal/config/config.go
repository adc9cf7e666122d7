package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/okvist/raylab/internal/optics"
)

// Entrance-bundle defaults, matching the instrument's usual illumination
// setup: a point source fanning three rays over +-1 degree.
const (
	DefaultMinAngle     = -1.0
	DefaultMaxAngle     = 1.0
	DefaultNumAngles    = 3
	DefaultSourceSize   = 0.0
	DefaultSourcePoints = 1
)

// ElementConfig is one column element in a system file. Kind selects the
// variant; the other fields are read as that kind needs them. Angles in
// files are degrees.
type ElementConfig struct {
	Kind     string  `yaml:"kind"`
	Label    string  `yaml:"label,omitempty"`
	Position float64 `yaml:"position"`
	Length   float64 `yaml:"length,omitempty"`
	Focal    float64 `yaml:"focal,omitempty"`
	Radius   float64 `yaml:"radius,omitempty"`
	Offset   float64 `yaml:"offset,omitempty"`
	Angle    float64 `yaml:"angle,omitempty"`
}

// BundleConfig describes the entrance rays. Explicit heights/angles win;
// otherwise the fan and span shorthands are expanded.
type BundleConfig struct {
	Heights      []float64 `yaml:"heights,omitempty"`
	Angles       []float64 `yaml:"angles,omitempty"`
	MinAngle     float64   `yaml:"min_angle,omitempty"`
	MaxAngle     float64   `yaml:"max_angle,omitempty"`
	NumAngles    int       `yaml:"num_angles,omitempty"`
	SourceSize   float64   `yaml:"source_size,omitempty"`
	SourceOffset float64   `yaml:"source_offset,omitempty"`
	SourcePoints int       `yaml:"source_points,omitempty"`
}

type ScreenConfig struct {
	Label    string  `yaml:"label,omitempty"`
	Position float64 `yaml:"position"`
}

// SystemConfig is the declarative form of a column: serializable, editable
// by hand, and buildable into an optics.System.
type SystemConfig struct {
	Name     string          `yaml:"name,omitempty"`
	Source   float64         `yaml:"source"`
	Bundle   BundleConfig    `yaml:"bundle"`
	Screen   *ScreenConfig   `yaml:"screen,omitempty"`
	Elements []ElementConfig `yaml:"elements"`
}

// Default returns the baseline configuration Load overlays files onto: the
// default entrance bundle and an empty column.
func Default() *SystemConfig {
	return &SystemConfig{
		Bundle: BundleConfig{
			MinAngle:     DefaultMinAngle,
			MaxAngle:     DefaultMaxAngle,
			NumAngles:    DefaultNumAngles,
			SourceSize:   DefaultSourceSize,
			SourcePoints: DefaultSourcePoints,
		},
	}
}

func Load(path string) (*SystemConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *SystemConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Build converts the declarative form into a validated system. Degrees
// become radians here; everything else is handed to optics.Build as is.
func (c *SystemConfig) Build() (optics.System, error) {
	bundle := optics.Bundle{}
	switch {
	case len(c.Bundle.Heights) > 0:
		bundle.Heights = append([]float64(nil), c.Bundle.Heights...)
	case c.Bundle.SourcePoints > 0:
		bundle.Heights = optics.SpanHeights(c.Bundle.SourceOffset, c.Bundle.SourceSize, c.Bundle.SourcePoints)
	}
	switch {
	case len(c.Bundle.Angles) > 0:
		bundle.Angles = make([]float64, len(c.Bundle.Angles))
		for i, deg := range c.Bundle.Angles {
			bundle.Angles[i] = deg * math.Pi / 180
		}
	case c.Bundle.NumAngles > 0:
		bundle.Angles = optics.FanAngles(c.Bundle.MinAngle, c.Bundle.MaxAngle, c.Bundle.NumAngles)
	}

	elems := make([]optics.Element, 0, len(c.Elements))
	for i, e := range c.Elements {
		switch e.Kind {
		case "drift":
			elems = append(elems, optics.Drift(e.Label, e.Position, e.Length))
		case "lens":
			elems = append(elems, optics.LensAt(e.Label, e.Position, e.Focal, e.Radius, e.Offset))
		case "aperture":
			elems = append(elems, optics.Aperture(e.Label, e.Position, e.Radius))
		case "deflector":
			elems = append(elems, optics.Deflector(e.Label, e.Position, e.Angle*math.Pi/180))
		default:
			return optics.System{}, fmt.Errorf("config: unknown element kind %q (element %d)", e.Kind, i)
		}
	}

	var screen *optics.Screen
	if c.Screen != nil {
		screen = &optics.Screen{Label: c.Screen.Label, Position: c.Screen.Position}
	}
	return optics.Build(c.Source, bundle, elems, screen)
}

// Clone deep-copies the config so presets can be handed out without
// aliasing the registry.
func (c *SystemConfig) Clone() *SystemConfig {
	out := *c
	if c.Bundle.Heights != nil {
		out.Bundle.Heights = append([]float64(nil), c.Bundle.Heights...)
	}
	if c.Bundle.Angles != nil {
		out.Bundle.Angles = append([]float64(nil), c.Bundle.Angles...)
	}
	if c.Screen != nil {
		scr := *c.Screen
		out.Screen = &scr
	}
	if c.Elements != nil {
		out.Elements = append([]ElementConfig(nil), c.Elements...)
	}
	return &out
}
