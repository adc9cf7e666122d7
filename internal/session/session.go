package session

import (
	"errors"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/okvist/raylab/internal/analysis"
	"github.com/okvist/raylab/internal/config"
	"github.com/okvist/raylab/internal/optics"
	"github.com/okvist/raylab/internal/trace"
)

var (
	// ErrUnknownPreset indicates a preset name the registry does not know.
	ErrUnknownPreset = errors.New("session: unknown preset")

	// ErrUnknownField indicates an edit field that does not exist or does
	// not apply to the element's kind.
	ErrUnknownField = errors.New("session: field does not apply to this element")

	// ErrBadIndex indicates an element index outside the current system.
	ErrBadIndex = errors.New("session: element index out of range")
)

// Snapshot is the immutable result of one rebuild-trace-analyze pass. The
// front end renders from it and never reaches into the session's live
// system. Revision increases by one per published snapshot.
type Snapshot struct {
	System   optics.System
	Trace    *trace.Result
	Features analysis.FeatureSet
	Summary  map[string]float64
	Revision uint64
}

// Session owns exactly one live system. Edits are all-or-nothing: a change
// is staged on a clone, re-validated, retraced and reanalyzed, and only
// then published; any failure leaves the previous snapshot in place. The
// snapshot pointer swap is the only shared state, so an in-flight reader
// keeps a coherent view while a new snapshot lands.
type Session struct {
	log *zap.Logger
	opt analysis.Options
	cur atomic.Pointer[Snapshot]
}

// New starts a session on the given system. The system is re-validated so
// a hand-assembled value cannot smuggle in an unbuildable state. A nil
// logger disables logging.
func New(sys optics.System, log *zap.Logger) (*Session, error) {
	if log == nil {
		log = zap.NewNop()
	}
	built, err := optics.Build(sys.Source, sys.Bundle, sys.Elements, sys.Screen)
	if err != nil {
		return nil, err
	}
	s := &Session{log: log}
	snap := s.publish(built)
	log.Info("session started",
		zap.Int("elements", len(built.Elements)),
		zap.Int("rays", len(built.Bundle.Rays())),
		zap.Uint64("revision", snap.Revision))
	return s, nil
}

// NewFromPreset starts a session on a named stock column.
func NewFromPreset(name string, log *zap.Logger) (*Session, error) {
	cfg := config.Preset(name)
	if cfg == nil {
		return nil, &optics.ConfigurationError{Index: -1, Field: "preset", Err: ErrUnknownPreset}
	}
	sys, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return New(sys, log)
}

// Current returns the most recently published snapshot.
func (s *Session) Current() *Snapshot {
	return s.cur.Load()
}

// ApplyEdit changes one field of one element and republishes. Fields:
// "position" (any kind), "length" (drift), "focal", "radius", "offset"
// (lens; radius also aperture), "angle" (deflector). On failure the prior
// snapshot stays published and the error names the element and field.
func (s *Session) ApplyEdit(index int, field string, value float64) (*Snapshot, error) {
	cur := s.cur.Load()
	sys := cur.System.Clone()

	if index < 0 || index >= len(sys.Elements) {
		err := &optics.ConfigurationError{Index: index, Field: field, Err: ErrBadIndex}
		s.log.Warn("edit rejected", zap.Int("element", index), zap.String("field", field), zap.Error(err))
		return nil, err
	}
	if err := setField(&sys.Elements[index], field, value); err != nil {
		cfgErr := &optics.ConfigurationError{Index: index, Field: field, Err: err}
		s.log.Warn("edit rejected", zap.Int("element", index), zap.String("field", field), zap.Error(cfgErr))
		return nil, cfgErr
	}

	built, err := optics.Build(sys.Source, sys.Bundle, sys.Elements, sys.Screen)
	if err != nil {
		s.log.Warn("edit rejected",
			zap.Int("element", index),
			zap.String("field", field),
			zap.Float64("value", value),
			zap.Error(err))
		return nil, err
	}

	snap := s.publish(built)
	s.log.Info("edit applied",
		zap.Int("element", index),
		zap.String("field", field),
		zap.Float64("value", value),
		zap.Uint64("revision", snap.Revision))
	return snap, nil
}

// LoadPreset replaces the whole system with a stock column.
func (s *Session) LoadPreset(name string) (*Snapshot, error) {
	cfg := config.Preset(name)
	if cfg == nil {
		err := &optics.ConfigurationError{Index: -1, Field: "preset", Err: ErrUnknownPreset}
		s.log.Warn("preset rejected", zap.String("preset", name), zap.Error(err))
		return nil, err
	}
	sys, err := cfg.Build()
	if err != nil {
		s.log.Warn("preset rejected", zap.String("preset", name), zap.Error(err))
		return nil, err
	}
	snap := s.publish(sys)
	s.log.Info("preset loaded",
		zap.String("preset", name),
		zap.Int("elements", len(sys.Elements)),
		zap.Uint64("revision", snap.Revision))
	return snap, nil
}

// SetBundle replaces the entrance bundle, same all-or-nothing contract as
// ApplyEdit.
func (s *Session) SetBundle(b optics.Bundle) (*Snapshot, error) {
	cur := s.cur.Load()
	sys := cur.System.Clone()
	built, err := optics.Build(sys.Source, b, sys.Elements, sys.Screen)
	if err != nil {
		s.log.Warn("bundle rejected", zap.Error(err))
		return nil, err
	}
	snap := s.publish(built)
	s.log.Info("bundle replaced",
		zap.Int("rays", len(built.Bundle.Rays())),
		zap.Uint64("revision", snap.Revision))
	return snap, nil
}

func (s *Session) publish(sys optics.System) *Snapshot {
	res := trace.Run(sys)
	fs := analysis.Analyze(res, s.opt)
	rev := uint64(1)
	if cur := s.cur.Load(); cur != nil {
		rev = cur.Revision + 1
	}
	snap := &Snapshot{
		System:   sys,
		Trace:    res,
		Features: fs,
		Summary:  analysis.Summary(res, fs),
		Revision: rev,
	}
	s.cur.Store(snap)
	return snap
}

func setField(e *optics.Element, field string, value float64) error {
	switch field {
	case "position":
		e.Position = value
	case "length":
		if e.Kind != optics.KindDrift {
			return ErrUnknownField
		}
		e.Length = value
	case "focal":
		if e.Kind != optics.KindLens {
			return ErrUnknownField
		}
		e.Focal = value
	case "radius":
		if e.Kind != optics.KindLens && e.Kind != optics.KindAperture {
			return ErrUnknownField
		}
		e.Radius = value
	case "offset":
		if e.Kind != optics.KindLens {
			return ErrUnknownField
		}
		e.Offset = value
	case "angle":
		if e.Kind != optics.KindDeflector {
			return ErrUnknownField
		}
		e.Angle = value
	default:
		return ErrUnknownField
	}
	return nil
}
