// Package viz renders traced optical columns in the terminal.
//
// A braille [Canvas] (2x4 dots per cell) draws the ray diagram, and a
// Bubble Tea [Model] wraps it into an interactive bench editor backed by
// a session: move the element cursor, nudge parameters, switch presets,
// archive runs and export SVG diagrams without leaving the terminal.
//
// # Key Bindings
//
//	j/k   - Move the element cursor
//	Tab   - Cycle the editable field
//	h/l   - Nudge the field down/up (H/L for coarse steps)
//	[/]   - Narrow/widen the entrance fan
//	{/}   - Fewer/more rays
//	p     - Next preset
//	r     - Reload the current preset
//	s     - Archive the current run
//	e     - Export an SVG diagram
//	?     - Toggle the help overlay
package viz
