package main

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/okvist/raylab/internal/analysis"
	"github.com/okvist/raylab/internal/config"
	"github.com/okvist/raylab/internal/export"
	"github.com/okvist/raylab/internal/optics"
	"github.com/okvist/raylab/internal/session"
	"github.com/okvist/raylab/internal/storage"
	"github.com/okvist/raylab/internal/trace"
	"github.com/okvist/raylab/internal/tune"
	"github.com/okvist/raylab/internal/viz"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	dataDir    string
	systemName string
	configFile string
	verbose    bool
	// Entrance bundle overrides (angles in degrees)
	minAngle  float64
	maxAngle  float64
	numAngles int
	srcSize   float64
	srcPoints int
	// Command-specific
	saveRun     bool
	runID       string
	outPath     string
	lensIndex   int
	focusLo     float64
	focusHi     float64
	focusSteps  int
	focusRefine int
	applyFocus  bool

	logger *zap.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "raylab",
		Short: "paraxial ray bench for electron-optical columns",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// The interactive bench owns the terminal, so only headless
			// commands get a real logger, and only when asked.
			if verbose && cmd != cmd.Root() {
				l, err := zap.NewDevelopment()
				if err != nil {
					return fmt.Errorf("failed to initialize logger: %w", err)
				}
				logger = l
				return nil
			}
			logger = zap.NewNop()
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
		RunE: runInteractive,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".raylab", "data directory")
	rootCmd.PersistentFlags().StringVar(&systemName, "system", "condenser", "preset system")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "system config file (yaml)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "debug logging")
	rootCmd.PersistentFlags().Float64Var(&minAngle, "min-angle", config.DefaultMinAngle, "fan start angle (degrees)")
	rootCmd.PersistentFlags().Float64Var(&maxAngle, "max-angle", config.DefaultMaxAngle, "fan end angle (degrees)")
	rootCmd.PersistentFlags().IntVar(&numAngles, "angles", config.DefaultNumAngles, "rays per source point")
	rootCmd.PersistentFlags().Float64Var(&srcSize, "source-size", config.DefaultSourceSize, "source extent (height units)")
	rootCmd.PersistentFlags().IntVar(&srcPoints, "source-points", config.DefaultSourcePoints, "points across the source")

	traceCmd := &cobra.Command{
		Use:   "trace",
		Short: "trace the column and print plane-by-plane results",
		RunE:  runTrace,
	}
	traceCmd.Flags().BoolVar(&saveRun, "save", false, "archive the run")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "print the column layout with a terminal ray diagram",
		RunE:  runShow,
	}

	plotCmd := &cobra.Command{
		Use:   "plot",
		Short: "plot beam envelope and per-ray heights",
		RunE:  runPlot,
	}
	plotCmd.Flags().StringVar(&runID, "run", "", "plot a stored run instead of a fresh trace")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  runList,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list preset systems",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tELEMENTS\tSCREEN")
			for _, name := range config.Names() {
				cfg := config.Preset(name)
				screen := "-"
				if cfg.Screen != nil {
					screen = fmt.Sprintf("%.1f", cfg.Screen.Position)
				}
				fmt.Fprintf(w, "%s\t%d\t%s\n", name, len(cfg.Elements), screen)
			}
			return w.Flush()
		},
	}

	focusCmd := &cobra.Command{
		Use:   "focus",
		Short: "autofocus a lens against screen spot size",
		RunE:  runFocus,
	}
	focusCmd.Flags().IntVar(&lensIndex, "lens", 0, "element index of the lens to tune")
	focusCmd.Flags().Float64Var(&focusLo, "lo", 1.0, "focal range start")
	focusCmd.Flags().Float64Var(&focusHi, "hi", 20.0, "focal range end")
	focusCmd.Flags().IntVar(&focusSteps, "steps", 25, "grid points per round")
	focusCmd.Flags().IntVar(&focusRefine, "refine", 3, "refinement rounds")
	focusCmd.Flags().BoolVar(&applyFocus, "apply", false, "write the focal back to --config")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg",
		Short: "write the ray diagram as SVG",
		RunE:  runExportSVG,
	}
	exportSVGCmd.Flags().StringVar(&outPath, "out", "", "output path (default <system>.svg)")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json",
		Short: "dump a stored run as JSON",
		RunE:  runExportJSON,
	}
	exportJSONCmd.Flags().StringVar(&runID, "run", "", "run id to export")
	exportJSONCmd.Flags().StringVar(&outPath, "out", "", "output path (default stdout)")

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "system config files",
	}
	configInitCmd := &cobra.Command{
		Use:   "init",
		Short: "write a starter system config",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := resolveConfig()
			if err != nil {
				return err
			}
			if err := config.Save(outPath, cfg); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", outPath)
			return nil
		},
	}
	configInitCmd.Flags().StringVar(&outPath, "out", "raylab.yaml", "output path")
	configCmd.AddCommand(configInitCmd)

	rootCmd.AddCommand(traceCmd, showCmd, plotCmd, listCmd, presetsCmd, focusCmd, exportSVGCmd, exportJSONCmd, configCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runInteractive(cmd *cobra.Command, args []string) error {
	sess, cfg, name, err := buildSession(cmd)
	if err != nil {
		return err
	}
	return viz.Run(sess, storage.New(dataDir), name, bundleSpec(cfg))
}

// resolveConfig picks the column the flags name: an explicit YAML file when
// --config is set, a stock preset otherwise.
func resolveConfig() (*config.SystemConfig, string, error) {
	if configFile != "" {
		cfg, err := config.Load(configFile)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load config: %w", err)
		}
		name := cfg.Name
		if name == "" {
			name = strings.TrimSuffix(filepath.Base(configFile), filepath.Ext(configFile))
		}
		return cfg, name, nil
	}
	cfg := config.Preset(systemName)
	if cfg == nil {
		return nil, "", fmt.Errorf("unknown system %q (presets: %s)", systemName, strings.Join(config.Names(), ", "))
	}
	return cfg, systemName, nil
}

// applyBundleFlags overlays entrance-bundle flags onto the config. Only
// flags the user actually set win, so a config file keeps its bundle
// otherwise. Setting a fan flag drops an explicit angle list (and likewise
// for heights): the shorthand takes over.
func applyBundleFlags(cmd *cobra.Command, cfg *config.SystemConfig) {
	f := cmd.Flags()
	if f.Changed("min-angle") {
		cfg.Bundle.MinAngle = minAngle
		cfg.Bundle.Angles = nil
	}
	if f.Changed("max-angle") {
		cfg.Bundle.MaxAngle = maxAngle
		cfg.Bundle.Angles = nil
	}
	if f.Changed("angles") {
		cfg.Bundle.NumAngles = numAngles
		cfg.Bundle.Angles = nil
	}
	if f.Changed("source-size") {
		cfg.Bundle.SourceSize = srcSize
		cfg.Bundle.Heights = nil
	}
	if f.Changed("source-points") {
		cfg.Bundle.SourcePoints = srcPoints
		cfg.Bundle.Heights = nil
	}
}

func buildSession(cmd *cobra.Command) (*session.Session, *config.SystemConfig, string, error) {
	cfg, name, err := resolveConfig()
	if err != nil {
		return nil, nil, "", err
	}
	applyBundleFlags(cmd, cfg)
	sys, err := cfg.Build()
	if err != nil {
		return nil, nil, "", err
	}
	sess, err := session.New(sys, logger)
	if err != nil {
		return nil, nil, "", err
	}
	return sess, cfg, name, nil
}

// bundleSpec seeds the interactive editor's fan knobs from the resolved
// config. The editor fan is symmetric, so an asymmetric file bundle maps to
// its wider half-angle.
func bundleSpec(cfg *config.SystemConfig) viz.BundleSpec {
	b := cfg.Bundle
	spec := viz.BundleSpec{
		FanDeg:  math.Max(math.Abs(b.MinAngle), math.Abs(b.MaxAngle)),
		FanRays: b.NumAngles,
		SrcSize: b.SourceSize,
		SrcPts:  b.SourcePoints,
	}
	if spec.FanRays < 1 {
		spec.FanRays = 1
	}
	if spec.SrcPts < 1 {
		spec.SrcPts = 1
	}
	return spec
}

func runTrace(cmd *cobra.Command, args []string) error {
	sess, _, name, err := buildSession(cmd)
	if err != nil {
		return err
	}
	snap := sess.Current()
	res := snap.Trace

	fmt.Printf("traced %s: %d rays through %d elements\n\n", name, len(res.Paths), len(snap.System.Elements))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Z\tPLANE\tSPREAD\tBLOCKED")
	for k, b := range res.Boundaries {
		spread := "-"
		if v, ok := res.Spread(k); ok {
			spread = fmt.Sprintf("%.4g", v)
		}
		fmt.Fprintf(w, "%.2f\t%s\t%s\t%d\n", b.Z, b.Label, spread, blockedAt(res, k))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Println()

	printFeatures(snap)
	printMagnification(snap)

	fmt.Println("\nmetrics:")
	for _, k := range sortedKeys(snap.Summary) {
		fmt.Printf("  %s: %g\n", k, snap.Summary[k])
	}

	if saveRun {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		id, err := st.Save(name, snap)
		if err != nil {
			return err
		}
		fmt.Printf("\nrun id: %s\n", id)
	}
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	sess, _, name, err := buildSession(cmd)
	if err != nil {
		return err
	}
	snap := sess.Current()

	fmt.Printf("system: %s\n\n", name)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "IDX\tKIND\tLABEL\tZ\tPARAMS")
	for i, e := range snap.System.Elements {
		fmt.Fprintf(w, "%d\t%s\t%s\t%.2f\t%s\n", i, e.Kind, e.Label, e.Position, elementParams(e))
	}
	if scr := snap.System.Screen; scr != nil {
		fmt.Fprintf(w, "-\tscreen\t%s\t%.2f\t\n", scr.Label, scr.Position)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(viz.Diagram(snap.System, snap.Trace, snap.Features, 96, 20))
	printFeatures(snap)
	return nil
}

func runPlot(cmd *cobra.Command, args []string) error {
	var res *trace.Result
	var title string

	if runID != "" {
		st := storage.New(dataDir)
		meta, err := st.Load(runID)
		if err != nil {
			return err
		}
		res, err = st.LoadTrace(runID)
		if err != nil {
			return err
		}
		title = meta.Name
	} else {
		sess, _, name, err := buildSession(cmd)
		if err != nil {
			return err
		}
		res = sess.Current().Trace
		title = name
	}

	env := viz.EnvelopeSeries(res, 80)
	if env == nil {
		return fmt.Errorf("no trace data to plot")
	}
	fmt.Println(asciigraph.Plot(env,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption(title+": beam envelope"),
	))
	fmt.Println()

	maxCharts := 6
	for i := 0; i < len(res.Paths) && i < maxCharts; i++ {
		data := rayHeights(res, i, 80)
		if data == nil {
			continue
		}
		fmt.Println(asciigraph.Plot(data,
			asciigraph.Height(6),
			asciigraph.Width(80),
			asciigraph.Caption(res.Paths[i].Label+" height"),
		))
		fmt.Println()
	}
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSYSTEM\tTIME\tELEMENTS\tRAYS\tBLOCKED\tSPOT")
	for _, run := range runs {
		spot := "-"
		if v, ok := run.Summary["spot_final"]; ok {
			spot = fmt.Sprintf("%.4g", v)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%.0f\t%s\n",
			run.ID,
			run.Name,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Elements,
			run.Rays,
			run.Summary["rays_blocked"],
			spot,
		)
	}
	return w.Flush()
}

func runFocus(cmd *cobra.Command, args []string) error {
	sess, cfg, name, err := buildSession(cmd)
	if err != nil {
		return err
	}
	snap := sess.Current()

	bestF, spot, err := tune.Focus(snap.System, lensIndex, focusLo, focusHi, focusSteps, focusRefine)
	if err != nil {
		return err
	}

	label := snap.System.Elements[lensIndex].Label
	fmt.Printf("%s %s: best f=%.4f, spot %.6g\n", name, label, bestF, spot)

	if applyFocus {
		if configFile == "" {
			return fmt.Errorf("--apply needs --config; presets are read-only")
		}
		cfg.Elements[lensIndex].Focal = bestF
		if err := config.Save(configFile, cfg); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", configFile)
	}
	return nil
}

func runExportSVG(cmd *cobra.Command, args []string) error {
	sess, _, name, err := buildSession(cmd)
	if err != nil {
		return err
	}
	snap := sess.Current()

	out := outPath
	if out == "" {
		out = name + ".svg"
	}
	if err := export.WriteDiagram(out, snap.System, snap.Trace, snap.Features, 960, 480); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", out)
	return nil
}

func runExportJSON(cmd *cobra.Command, args []string) error {
	if runID == "" {
		return fmt.Errorf("--run is required")
	}
	st := storage.New(dataDir)
	if outPath == "" {
		return st.ExportJSON(runID, os.Stdout)
	}
	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := st.ExportJSON(runID, f); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", outPath)
	return nil
}

func printFeatures(snap *session.Snapshot) {
	fs := snap.Features
	if len(fs.Crossovers) == 0 {
		fmt.Println("crossovers: none")
	} else {
		fmt.Println("crossovers:")
		for _, c := range fs.Crossovers {
			fmt.Printf("  z=%.4f\n", c.Z)
		}
	}
	if len(fs.FocalPlanes) > 0 {
		fmt.Println("focal planes:")
		for _, fp := range fs.FocalPlanes {
			fmt.Printf("  %s focuses at z=%.4f\n", fp.Label, fp.Z)
		}
	}
}

// printMagnification reports the source-to-screen magnification of the
// first ray that defines one. A point source on the axis defines none; that
// prints as indeterminate rather than a number.
func printMagnification(snap *session.Snapshot) {
	res := snap.Trace
	if snap.System.Screen == nil || len(res.Boundaries) < 2 {
		return
	}
	zA := res.Boundaries[0].Z
	zB := res.Boundaries[len(res.Boundaries)-1].Z
	for i := range res.Paths {
		if m := analysis.Mag(res, i, zA, zB); m.Defined {
			fmt.Printf("magnification: %.4g (%s)\n", m.Value, res.Paths[i].Label)
			return
		}
	}
	fmt.Println("magnification: indeterminate (no off-axis reference ray)")
}

func elementParams(e optics.Element) string {
	switch e.Kind {
	case optics.KindLens:
		s := fmt.Sprintf("f=%.2f", e.Focal)
		if e.Radius > 0 {
			s += fmt.Sprintf(" r=%.2f", e.Radius)
		}
		if e.Offset != 0 {
			s += fmt.Sprintf(" off=%.3f", e.Offset)
		}
		return s
	case optics.KindAperture:
		return fmt.Sprintf("r=%.2f", e.Radius)
	case optics.KindDeflector:
		return fmt.Sprintf("kick=%.4f rad", e.Angle)
	default:
		return fmt.Sprintf("length=%.2f", e.Length)
	}
}

func blockedAt(res *trace.Result, k int) int {
	n := 0
	for i := range res.Paths {
		if res.Paths[i].Points[k].Blocked {
			n++
		}
	}
	return n
}

// rayHeights samples one ray's geometric path, blocked tail included, at
// evenly spaced axial positions.
func rayHeights(res *trace.Result, ray, samples int) []float64 {
	pts := res.Paths[ray].Points
	if len(pts) < 2 || samples < 2 {
		return nil
	}
	z0 := pts[0].Z
	z1 := pts[len(pts)-1].Z
	out := make([]float64, samples)
	seg := 0
	for i := range out {
		z := z0 + (z1-z0)*float64(i)/float64(samples-1)
		for seg+1 < len(pts)-1 && pts[seg+1].Z <= z {
			seg++
		}
		a, b := pts[seg], pts[seg+1]
		if b.Z == a.Z {
			out[i] = b.Height
			continue
		}
		frac := (z - a.Z) / (b.Z - a.Z)
		out[i] = a.Height + frac*(b.Height-a.Height)
	}
	return out
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
