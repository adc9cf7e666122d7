package config

import "sort"

// presets are the stock column layouts. Positions increase from the source
// toward the screen. "condenser" is the illumination stage alone, "imaging"
// the projector stage alone, "full" the whole column.
var presets = map[string]*SystemConfig{
	"condenser": {
		Name:   "condenser",
		Source: 0,
		Bundle: BundleConfig{
			MinAngle: DefaultMinAngle, MaxAngle: DefaultMaxAngle, NumAngles: DefaultNumAngles,
			SourceSize: DefaultSourceSize, SourcePoints: DefaultSourcePoints,
		},
		Screen: &ScreenConfig{Label: "screen", Position: 100},
		Elements: []ElementConfig{
			{Kind: "lens", Label: "CL1", Position: 18, Focal: 6.3},
			{Kind: "lens", Label: "CL3", Position: 40, Focal: 8},
			{Kind: "deflector", Label: "CLA1", Position: 51},
			{Kind: "deflector", Label: "CLA2", Position: 57.5},
			{Kind: "lens", Label: "CM", Position: 73, Focal: 10},
			{Kind: "aperture", Label: "CA", Position: 75, Radius: 2},
			{Kind: "lens", Label: "OLPre", Position: 91.5, Focal: 8.5},
		},
	},
	"full": {
		Name:   "full",
		Source: 0,
		Bundle: BundleConfig{
			MinAngle: DefaultMinAngle, MaxAngle: DefaultMaxAngle, NumAngles: DefaultNumAngles,
			SourceSize: DefaultSourceSize, SourcePoints: DefaultSourcePoints,
		},
		Screen: &ScreenConfig{Label: "screen", Position: 250},
		Elements: []ElementConfig{
			{Kind: "deflector", Label: "GUN1", Position: 55},
			{Kind: "deflector", Label: "GUN2", Position: 65},
			{Kind: "lens", Label: "CL1", Position: 70, Focal: 10},
			{Kind: "lens", Label: "CL2", Position: 80, Focal: 10},
			{Kind: "lens", Label: "CL3", Position: 90, Focal: 10},
			{Kind: "deflector", Label: "CLA1", Position: 100},
			{Kind: "deflector", Label: "CLA2", Position: 110},
			{Kind: "lens", Label: "CM", Position: 120, Focal: 10},
			{Kind: "lens", Label: "OLPre", Position: 145, Focal: 10},
			{Kind: "lens", Label: "OLPost", Position: 155, Focal: 10},
			{Kind: "lens", Label: "OM", Position: 165, Focal: 10},
			{Kind: "deflector", Label: "ILA1", Position: 175},
			{Kind: "deflector", Label: "ILA2", Position: 180},
			{Kind: "lens", Label: "IL1", Position: 190, Focal: 10},
			{Kind: "lens", Label: "IL2", Position: 200, Focal: 10},
			{Kind: "lens", Label: "IL3", Position: 210, Focal: 10},
			{Kind: "deflector", Label: "PLA", Position: 220},
			{Kind: "lens", Label: "PL", Position: 230, Focal: 10},
		},
	},
	"imaging": {
		Name:   "imaging",
		Source: 0,
		Bundle: BundleConfig{
			MinAngle: DefaultMinAngle, MaxAngle: DefaultMaxAngle, NumAngles: DefaultNumAngles,
			SourceSize: DefaultSourceSize, SourcePoints: DefaultSourcePoints,
		},
		Screen: &ScreenConfig{Label: "screen", Position: 100},
		Elements: []ElementConfig{
			{Kind: "lens", Label: "OLPost", Position: 5, Focal: 10},
			{Kind: "lens", Label: "OM", Position: 15, Focal: 10},
			{Kind: "deflector", Label: "ILA1", Position: 25},
			{Kind: "deflector", Label: "ILA2", Position: 30},
			{Kind: "lens", Label: "IL1", Position: 40, Focal: 10},
			{Kind: "lens", Label: "IL2", Position: 50, Focal: 10},
			{Kind: "lens", Label: "IL3", Position: 60, Focal: 10},
			{Kind: "deflector", Label: "PLA", Position: 70},
			{Kind: "lens", Label: "PL", Position: 80, Focal: 10},
		},
	},
}

// Preset returns a private copy of the named layout, or nil when the name
// is unknown.
func Preset(name string) *SystemConfig {
	cfg, ok := presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

// Names lists the available presets in stable order.
func Names() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
