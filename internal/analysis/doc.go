// Package analysis derives optical features from a completed trace.
//
// Everything here is a pure function of a [trace.Result]:
//
//   - [Analyze]: crossovers and focal planes in one pass
//   - [Mag]: transverse magnification between two planes
//   - [Summary]: named scalars for listings and archive metadata
//
// A crossover is where the bundle envelope crosses the optical axis; a
// focal plane is where the rays downstream of a converging lens collapse
// to a point within tolerance. Quantities that can come out undefined
// (magnification with an on-axis or blocked reference ray) carry an
// explicit Defined flag instead of going NaN.
package analysis
