package compose

import (
	"errors"
	"fmt"
	"image/color"

	"go.uber.org/zap"

	"github.com/benoitkugler/okcompose/config"
)

// ResolvedProperty is one property batch with its Measures resolved,
// as handed to backends inside a Scope.
type ResolvedProperty struct {
	Channel  Channel
	AttrName string // set for ChannelAttribute only
	Values   []Style
}

// Scalar reports whether the batch holds exactly one value, applying
// to a whole form rather than one primitive per value.
func (p ResolvedProperty) Scalar() bool { return len(p.Values) == 1 }

// At returns the value applying to primitive i of a form of n
// primitives, enforcing the batch length contract for vector batches.
func (p ResolvedProperty) At(i, n int) (Style, error) {
	if p.Scalar() {
		return p.Values[0], nil
	}
	if len(p.Values) != n {
		return nil, &BatchLengthError{Channel: p.Channel, Values: len(p.Values), Primitives: n}
	}
	return p.Values[i], nil
}

// BatchLengthError reports a vector property whose length disagrees
// with the primitive count of the form it applies to. Forms and
// properties are independent nodes, so the mismatch is only knowable
// at draw time, once both are live.
type BatchLengthError struct {
	Channel    Channel
	Values     int
	Primitives int
}

func (e *BatchLengthError) Error() string {
	return fmt.Sprintf("compose: vector %s property of %d values cannot style a form of %d primitives",
		e.Channel, e.Values, e.Primitives)
}

// Scope is the group of property batches pushed together when the
// walk meets a run of consecutive Property children.
type Scope []ResolvedProperty

// ScopeStack is the per channel history of live property batches that
// backends consult while drawing: the deepest batch of a channel
// wins, and popping a scope reveals the next deepest batch again
// rather than none. Backends keep one per open document.
type ScopeStack struct {
	log   *zap.Logger
	depth int
	byKey map[chanKey][]chanEntry
	keys  []chanKey // insertion order, for deterministic iteration
}

// chanKey separates raw attribute batches by attribute name; every
// other channel shadows as a whole.
type chanKey struct {
	ch   Channel
	attr string
}

type chanEntry struct {
	depth int
	prop  ResolvedProperty
}

// NewScopeStack returns an empty stack warning through log. A nil
// logger disables logging.
func NewScopeStack(log *zap.Logger) *ScopeStack {
	if log == nil {
		log = zap.NewNop()
	}
	return &ScopeStack{log: log, byKey: make(map[chanKey][]chanEntry)}
}

// Push opens a scope holding the batches of sc. Within one scope the
// first batch of a channel wins: later batches of the same channel
// are dropped with a warning. Batches of zero values declare nothing
// and are skipped.
func (s *ScopeStack) Push(sc Scope) {
	s.depth++
	seen := make(map[chanKey]bool, len(sc))
	for _, p := range sc {
		if len(p.Values) == 0 {
			continue
		}
		key := chanKey{ch: p.Channel, attr: p.AttrName}
		if seen[key] {
			s.log.Warn("duplicate property declaration in one scope, keeping the first",
				zap.String("channel", p.Channel.String()))
			continue
		}
		seen[key] = true
		if _, ok := s.byKey[key]; !ok {
			s.keys = append(s.keys, key)
		}
		s.byKey[key] = append(s.byKey[key], chanEntry{depth: s.depth, prop: p})
	}
}

// Pop closes the innermost scope, restoring whichever shallower
// batches its channels shadowed.
func (s *ScopeStack) Pop() error {
	if s.depth == 0 {
		return errors.New("compose: scope stack underflow")
	}
	for _, key := range s.keys {
		if es := s.byKey[key]; len(es) > 0 && es[len(es)-1].depth == s.depth {
			s.byKey[key] = es[:len(es)-1]
		}
	}
	s.depth--
	return nil
}

// Depth returns the number of open scopes.
func (s *ScopeStack) Depth() int { return s.depth }

// Deepest returns the innermost live batch for every distinct key of
// channel ch, in declaration order. Most channels yield at most one
// batch; raw attributes yield one per attribute name.
func (s *ScopeStack) Deepest(ch Channel) []ResolvedProperty {
	var out []ResolvedProperty
	for _, key := range s.keys {
		if key.ch != ch {
			continue
		}
		if es := s.byKey[key]; len(es) > 0 {
			out = append(out, es[len(es)-1].prop)
		}
	}
	return out
}

// Effective returns the style applying to primitive i of a form of n
// primitives for channel ch: the innermost live batch, scalar batches
// covering every primitive and vector batches index aligned. ok is
// false when the channel has no live batch.
func (s *ScopeStack) Effective(ch Channel, i, n int) (v Style, ok bool, err error) {
	es := s.byKey[chanKey{ch: ch}]
	if len(es) == 0 {
		return nil, false, nil
	}
	v, err = es[len(es)-1].prop.At(i, n)
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

// ComputedStyle is the flattened effective style of one primitive,
// for backends without a native cascading mechanism (print, raster).
type ComputedStyle struct {
	Fill          color.Color // nil disables filling
	Stroke        color.Color // nil disables stroking
	LineWidth     float64     // millimetres
	Dash          []float64   // millimetres, empty strokes solid
	Cap           CapMode
	Join          JoinMode
	FillOpacity   float64
	StrokeOpacity float64
	Visible       bool
	Clip          []AbsPoint // nil for no clipping
	FontFamily    string
	FontSize      float64 // millimetres
}

// BaseStyle is the document level style derived from the ambient
// configuration, the root every cascade starts from.
func BaseStyle(cfg config.Snapshot) ComputedStyle {
	return ComputedStyle{
		Fill:          cfg.Fill,
		Stroke:        cfg.Stroke,
		LineWidth:     cfg.LineWidth,
		FillOpacity:   1,
		StrokeOpacity: 1,
		Visible:       true,
		FontFamily:    cfg.FontFamily,
		FontSize:      cfg.FontSize,
	}
}

// StyleFor flattens the live scopes over base for primitive i of a
// form of n primitives. Markup only channels (id, class, attributes,
// scripts, embeds) do not appear in the result.
func (s *ScopeStack) StyleFor(i, n int, base ComputedStyle) (ComputedStyle, error) {
	out := base
	for ch := Channel(0); ch < ChannelCount; ch++ {
		v, ok, err := s.Effective(ch, i, n)
		if err != nil {
			return base, err
		}
		if !ok {
			continue
		}
		switch ch {
		case ChannelFill:
			out.Fill = v.(Paint).Color
		case ChannelStroke:
			out.Stroke = v.(Paint).Color
		case ChannelLineWidth:
			out.LineWidth = v.(Number).Value
		case ChannelDash:
			out.Dash = v.(DashPattern).Pattern
		case ChannelLineCap:
			out.Cap = v.(CapMode)
		case ChannelLineJoin:
			out.Join = v.(JoinMode)
		case ChannelFillOpacity:
			out.FillOpacity = v.(Number).Value
		case ChannelStrokeOpacity:
			out.StrokeOpacity = v.(Number).Value
		case ChannelVisibility:
			out.Visible = v.(Toggle).On
		case ChannelClip:
			out.Clip = v.(ClipPath).Points
		case ChannelFontFamily:
			out.FontFamily = v.(Str).Value
		case ChannelFontSize:
			out.FontSize = v.(Number).Value
		}
	}
	return out, nil
}
