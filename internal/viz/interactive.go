package viz

import (
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/okvist/raylab/internal/config"
	"github.com/okvist/raylab/internal/export"
	"github.com/okvist/raylab/internal/optics"
	"github.com/okvist/raylab/internal/session"
	"github.com/okvist/raylab/internal/storage"
)

// BundleSpec holds the entrance-bundle knobs the editor exposes, in the
// units of the command line: fan half-angle in degrees, source size in
// height units.
type BundleSpec struct {
	FanDeg  float64
	FanRays int
	SrcSize float64
	SrcPts  int
}

func (b BundleSpec) build() optics.Bundle {
	return optics.Bundle{
		Heights: optics.SpanHeights(0, b.SrcSize, b.SrcPts),
		Angles:  optics.FanAngles(-b.FanDeg, b.FanDeg, b.FanRays),
	}
}

// Model is the interactive bench editor. Every change goes through the
// session, so a rejected edit flashes its error and the rendered snapshot
// stays untouched.
type Model struct {
	sess   *session.Session
	store  *storage.Store
	name   string
	bundle BundleSpec

	presets   []string
	cursor    int
	fieldIdx  int
	status    string
	statusBad bool
	width     int
	height    int
	showHelp  bool
}

func NewModel(sess *session.Session, store *storage.Store, name string, bundle BundleSpec) Model {
	return Model{
		sess:    sess,
		store:   store,
		name:    name,
		bundle:  bundle,
		presets: config.Names(),
		width:   100,
		height:  32,
	}
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	n := len(m.sess.Current().System.Elements)

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "?":
		m.showHelp = !m.showHelp
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
			m.fieldIdx = 0
		}
	case "down", "j":
		if m.cursor < n-1 {
			m.cursor++
			m.fieldIdx = 0
		}
	case "tab":
		if n > 0 {
			kind := m.sess.Current().System.Elements[m.cursor].Kind
			m.fieldIdx = (m.fieldIdx + 1) % len(editFields(kind))
		}
	case "left", "h":
		m.nudge(-1, false)
	case "right", "l":
		m.nudge(+1, false)
	case "H":
		m.nudge(-1, true)
	case "L":
		m.nudge(+1, true)
	case "[":
		m.bundle.FanDeg *= 0.8
		m.retrace()
	case "]":
		m.bundle.FanDeg *= 1.25
		m.retrace()
	case "{":
		if m.bundle.FanRays > 1 {
			m.bundle.FanRays--
			m.retrace()
		}
	case "}":
		m.bundle.FanRays++
		m.retrace()
	case "p":
		m.nextPreset()
	case "r":
		m.loadPreset(m.name)
	case "s":
		m.save()
	case "e":
		m.exportSVG()
	}
	return m, nil
}

func (m *Model) nudge(dir float64, coarse bool) {
	snap := m.sess.Current()
	if len(snap.System.Elements) == 0 {
		return
	}
	e := snap.System.Elements[m.cursor]
	fields := editFields(e.Kind)
	field := fields[m.fieldIdx%len(fields)]

	step := stepFor(field, fieldValue(e, field))
	if coarse {
		step *= 10
	}
	val := fieldValue(e, field) + dir*step

	next, err := m.sess.ApplyEdit(m.cursor, field, val)
	if err != nil {
		m.status, m.statusBad = err.Error(), true
		return
	}
	m.status = fmt.Sprintf("%s %s = %.4g  rev %d", e.Label, field, val, next.Revision)
	m.statusBad = false
}

func (m *Model) retrace() {
	snap, err := m.sess.SetBundle(m.bundle.build())
	if err != nil {
		m.status, m.statusBad = err.Error(), true
		return
	}
	m.status = fmt.Sprintf("fan ±%.2f° × %d rays  rev %d", m.bundle.FanDeg, m.bundle.FanRays, snap.Revision)
	m.statusBad = false
}

func (m *Model) nextPreset() {
	if len(m.presets) == 0 {
		return
	}
	idx := 0
	for i, p := range m.presets {
		if p == m.name {
			idx = (i + 1) % len(m.presets)
			break
		}
	}
	m.loadPreset(m.presets[idx])
}

func (m *Model) loadPreset(name string) {
	if _, err := m.sess.LoadPreset(name); err != nil {
		m.status, m.statusBad = err.Error(), true
		return
	}
	m.name = name
	m.cursor, m.fieldIdx = 0, 0
	snap, err := m.sess.SetBundle(m.bundle.build())
	if err != nil {
		m.status, m.statusBad = err.Error(), true
		return
	}
	m.status = fmt.Sprintf("loaded %s (%d elements)  rev %d", name, len(snap.System.Elements), snap.Revision)
	m.statusBad = false
}

func (m *Model) save() {
	if m.store == nil {
		m.status, m.statusBad = "no data dir configured", true
		return
	}
	if err := m.store.Init(); err != nil {
		m.status, m.statusBad = err.Error(), true
		return
	}
	runID, err := m.store.Save(m.name, m.sess.Current())
	if err != nil {
		m.status, m.statusBad = err.Error(), true
		return
	}
	m.status, m.statusBad = "saved "+runID, false
}

func (m *Model) exportSVG() {
	snap := m.sess.Current()
	path := fmt.Sprintf("%s_rev%d.svg", m.name, snap.Revision)
	if err := export.WriteDiagram(path, snap.System, snap.Trace, snap.Features, 960, 480); err != nil {
		m.status, m.statusBad = err.Error(), true
		return
	}
	m.status, m.statusBad = "wrote "+path, false
}

func (m Model) View() string {
	snap := m.sess.Current()

	cw := (m.width - 52) / 2
	if cw < 36 {
		cw = 36
	}
	ch := m.height - 12
	if ch < 10 {
		ch = 10
	}

	diagram := Diagram(snap.System, snap.Trace, snap.Features, cw, ch)
	main := lipgloss.JoinHorizontal(lipgloss.Top,
		canvasStyle.Render(strings.TrimRight(diagram, "\n")),
		statsStyle.Render(m.statsView(snap)),
	)

	var b strings.Builder
	b.WriteString(headerStyle.Render("RAYLAB") + "  " + valueStyle.Render(m.name) +
		labelStyle.Render(fmt.Sprintf("  rev %d", snap.Revision)) + "\n\n")
	b.WriteString(main + "\n")

	if series := EnvelopeSeries(snap.Trace, 64); len(series) > 1 {
		chart := asciigraph.Plot(series,
			asciigraph.Height(4),
			asciigraph.Width(2*cw),
			asciigraph.Caption("beam envelope"))
		b.WriteString(graphStyle.Render(chart) + "\n")
	}

	if m.status != "" {
		if m.statusBad {
			b.WriteString(errorStyle.Render("✗ "+m.status) + "\n")
		} else {
			b.WriteString(okStyle.Render("• "+m.status) + "\n")
		}
	}
	b.WriteString(helpStyle.Render(m.helpLine()))

	if m.showHelp {
		return helpOverlay + "\n" + b.String()
	}
	return b.String()
}

func (m Model) statsView(snap *session.Snapshot) string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("COLUMN") + "\n")
	for i, e := range snap.System.Elements {
		line := elementLine(e)
		if i == m.cursor {
			fields := editFields(e.Kind)
			field := fields[m.fieldIdx%len(fields)]
			b.WriteString(cursorStyle.Render("▸ ") + activeStyle.Render(line) +
				labelStyle.Render(" ["+field+"]") + "\n")
		} else {
			b.WriteString("  " + labelStyle.Render(line) + "\n")
		}
	}

	b.WriteString("\n" + labelStyle.Render(fmt.Sprintf("fan ±%.2f° × %d   src %.2f × %d",
		m.bundle.FanDeg, m.bundle.FanRays, m.bundle.SrcSize, m.bundle.SrcPts)) + "\n")

	b.WriteString("\n" + headerStyle.Render("FEATURES") + "\n")
	fs := snap.Features
	if len(fs.Crossovers) == 0 {
		b.WriteString(labelStyle.Render("crossovers  none") + "\n")
	} else {
		zs := make([]string, len(fs.Crossovers))
		for i, c := range fs.Crossovers {
			zs[i] = fmt.Sprintf("%.2f", c.Z)
		}
		b.WriteString(labelStyle.Render("crossovers  ") + valueStyle.Render(strings.Join(zs, ", ")) + "\n")
	}
	for _, fp := range fs.FocalPlanes {
		b.WriteString(labelStyle.Render(fmt.Sprintf("%-11s", fp.Label)) +
			valueStyle.Render(fmt.Sprintf(" focus %.2f", fp.Z)) + "\n")
	}
	b.WriteString(labelStyle.Render("spot        ") +
		valueStyle.Render(fmt.Sprintf("%.4g", snap.Summary["spot_final"])) + "\n")
	b.WriteString(labelStyle.Render("blocked     ") +
		valueStyle.Render(fmt.Sprintf("%.0f / %.0f", snap.Summary["rays_blocked"], snap.Summary["rays"])) + "\n")

	return b.String()
}

func elementLine(e optics.Element) string {
	switch e.Kind {
	case optics.KindLens:
		s := fmt.Sprintf("%-5s lens   f=%7.2f  z=%7.2f", e.Label, e.Focal, e.Position)
		if e.Offset != 0 {
			s += fmt.Sprintf("  off=%.2f", e.Offset)
		}
		return s
	case optics.KindAperture:
		return fmt.Sprintf("%-5s stop   r=%7.2f  z=%7.2f", e.Label, e.Radius, e.Position)
	case optics.KindDeflector:
		return fmt.Sprintf("%-5s defl   a=%7.4f  z=%7.2f", e.Label, e.Angle, e.Position)
	default:
		return fmt.Sprintf("%-5s drift  L=%7.2f  z=%7.2f", e.Label, e.Length, e.Position)
	}
}

func editFields(k optics.Kind) []string {
	switch k {
	case optics.KindLens:
		return []string{"focal", "position", "radius", "offset"}
	case optics.KindAperture:
		return []string{"radius", "position"}
	case optics.KindDeflector:
		return []string{"angle", "position"}
	default:
		return []string{"position", "length"}
	}
}

func fieldValue(e optics.Element, field string) float64 {
	switch field {
	case "focal":
		return e.Focal
	case "position":
		return e.Position
	case "radius":
		return e.Radius
	case "offset":
		return e.Offset
	case "angle":
		return e.Angle
	case "length":
		return e.Length
	}
	return 0
}

// stepFor scales the nudge to the field: 5% of the current magnitude with
// a floor so zero values still move, and a much finer floor for angles.
func stepFor(field string, v float64) float64 {
	base := 0.1
	if field == "angle" {
		base = 0.0005
	}
	if s := math.Abs(v) * 0.05; s > base {
		return s
	}
	return base
}

func (m Model) helpLine() string {
	line := "j/k element  tab field  h/l adjust  [ ] fan  { } rays  p preset  s save  e svg  ? help  q quit"
	if m.name == "condenser" {
		line += "  ·  h/l on CL3 drives brightness"
	}
	return line
}

const helpOverlay = `
╔════════════════════════════════════════╗
║           KEYBOARD SHORTCUTS           ║
╠════════════════════════════════════════╣
║  j/k      - Move the element cursor    ║
║  Tab      - Cycle the editable field   ║
║  h/l      - Nudge the field (H/L x10)  ║
║  [/]      - Narrow/widen entrance fan  ║
║  {/}      - Fewer/more rays            ║
║  p        - Next preset                ║
║  r        - Reload current preset      ║
║  s        - Archive run to the store   ║
║  e        - Export SVG diagram         ║
║  ?        - Toggle this help           ║
║  q        - Quit                       ║
╚════════════════════════════════════════╝`

// Run starts the interactive editor on the alternate screen and blocks
// until the user quits.
func Run(sess *session.Session, store *storage.Store, name string, bundle BundleSpec) error {
	_, err := tea.NewProgram(NewModel(sess, store, name, bundle), tea.WithAltScreen()).Run()
	return err
}
