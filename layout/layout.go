// Package layout arranges child contexts into stacks and tables.
// Offsets and extents accumulate in the measure algebra without being
// resolved, so the arranged tree still adapts to whatever frame it is
// drawn into. The exception is a Table given absolute extents, which
// solves its spans in millimetres to honor minimum size hints.
package layout

import (
	"errors"
	"fmt"

	"github.com/benoitkugler/okcompose/compose"
	"github.com/benoitkugler/okcompose/measure"
	"github.com/benoitkugler/okcompose/textmetrics"
)

// Span pairs a child with the extent it occupies along the stacking
// axis. A zero Size marks a flexible child: flexible children split
// whatever the sized ones leave over, in equal parts.
type Span struct {
	Child *compose.Context
	Size  measure.Measure
}

// Fixed returns a span of the given extent.
func Fixed(child *compose.Context, size measure.Measure) Span {
	return Span{Child: child, Size: size}
}

// Flex returns a flexible span.
func Flex(child *compose.Context) Span { return Span{Child: child} }

// HStack composes the spans left to right, each spanning the full
// height. Minimum size hints are not consulted.
func HStack(spans ...Span) *compose.Context {
	return stack(spans, measure.W(1), func(off, size measure.Measure) measure.Box {
		return measure.Box{X: off, W: size, H: measure.H(1)}
	})
}

// VStack composes the spans top to bottom, each spanning the full
// width.
func VStack(spans ...Span) *compose.Context {
	return stack(spans, measure.H(1), func(off, size measure.Measure) measure.Box {
		return measure.Box{Y: off, H: size, W: measure.W(1)}
	})
}

func stack(spans []Span, full measure.Measure, box func(off, size measure.Measure) measure.Box) *compose.Context {
	var taken measure.Measure
	flex := 0
	for _, s := range spans {
		if s.Child == nil {
			continue
		}
		if s.Size.IsZero() {
			flex++
		} else {
			taken = taken.Add(s.Size)
		}
	}
	var share measure.Measure
	if flex > 0 {
		share = full.Sub(taken).Div(float64(flex))
	}

	var off measure.Measure
	children := make([]compose.Node, 0, len(spans))
	for _, s := range spans {
		if s.Child == nil {
			continue
		}
		size := s.Size
		if size.IsZero() {
			size = share
		}
		children = append(children, s.Child.WithBox(box(off, size)))
		off = off.Add(size)
	}
	return compose.Compose(nil, children...)
}

// Table sizes a cell grid from per-axis weight lists. Without
// absolute extents the spans stay proportional and minimum hints are
// merged in with measure.Max, surfacing its comparison error when a
// hint is incomparable with a proportional span. With Width and
// Height set to absolutely resolvable measures the spans are solved
// in millimetres: columns below their hint are pinned to it and the
// remaining space is redistributed by weight.
type Table struct {
	ColumnWeights []float64
	RowWeights    []float64

	// Per column and per row hints; zero measures mean none. Hints
	// carried by the cell contexts themselves are merged in as well.
	MinWidth  []measure.Measure
	MinHeight []measure.Measure

	// Optional absolute extents of the whole table.
	Width, Height measure.Measure
}

// Compose arranges cells into a fresh parent context. The grid must
// match the weight lists; nil cells leave their slot empty.
func (t Table) Compose(cells [][]*compose.Context) (*compose.Context, error) {
	if len(cells) != len(t.RowWeights) {
		return nil, fmt.Errorf("layout: table has %d row weights but %d cell rows",
			len(t.RowWeights), len(cells))
	}
	for r, row := range cells {
		if len(row) != len(t.ColumnWeights) {
			return nil, fmt.Errorf("layout: table row %d has %d cells, want %d",
				r, len(row), len(t.ColumnWeights))
		}
	}

	colMins, err := mergeHints(t.MinWidth, len(t.ColumnWeights), cells, columnHint)
	if err != nil {
		return nil, fmt.Errorf("layout: table columns: %w", err)
	}
	rowMins, err := mergeHints(t.MinHeight, len(t.RowWeights), transpose(cells), rowHint)
	if err != nil {
		return nil, fmt.Errorf("layout: table rows: %w", err)
	}

	cols, err := axisSpans(t.ColumnWeights, colMins, t.Width, measure.W)
	if err != nil {
		return nil, fmt.Errorf("layout: table columns: %w", err)
	}
	rows, err := axisSpans(t.RowWeights, rowMins, t.Height, measure.H)
	if err != nil {
		return nil, fmt.Errorf("layout: table rows: %w", err)
	}

	var children []compose.Node
	var yOff measure.Measure
	for r, row := range cells {
		var xOff measure.Measure
		for c, cell := range row {
			if cell != nil {
				children = append(children, cell.WithBox(measure.Box{
					X: xOff, Y: yOff, W: cols[c], H: rows[r],
				}))
			}
			xOff = xOff.Add(cols[c])
		}
		yOff = yOff.Add(rows[r])
	}
	return compose.Compose(nil, children...), nil
}

func columnHint(c *compose.Context) (measure.Measure, bool) { return c.MinWidth() }
func rowHint(c *compose.Context) (measure.Measure, bool)    { return c.MinHeight() }

// mergeHints folds the cell hints of each lane into the table level
// hints. lanes holds one slice of cells per lane.
func mergeHints(own []measure.Measure, n int, lanes [][]*compose.Context, hint func(*compose.Context) (measure.Measure, bool)) ([]measure.Measure, error) {
	out := make([]measure.Measure, n)
	copy(out, own)
	for _, lane := range lanes {
		for i, cell := range lane {
			if cell == nil {
				continue
			}
			h, ok := hint(cell)
			if !ok {
				continue
			}
			if out[i].IsZero() {
				out[i] = h
				continue
			}
			m, err := measure.Max(out[i], h)
			if err != nil {
				return nil, err
			}
			out[i] = m
		}
	}
	return out, nil
}

// transpose flips the grid so rows become lanes indexed like columns.
func transpose(cells [][]*compose.Context) [][]*compose.Context {
	if len(cells) == 0 {
		return nil
	}
	out := make([][]*compose.Context, len(cells[0]))
	for c := range out {
		out[c] = make([]*compose.Context, len(cells))
		for r := range cells {
			out[c][r] = cells[r][c]
		}
	}
	return out
}

func axisSpans(weights []float64, mins []measure.Measure, total measure.Measure, frac func(float64) measure.Measure) ([]measure.Measure, error) {
	if len(weights) == 0 {
		return nil, errors.New("no weights")
	}
	sum := 0.0
	for _, w := range weights {
		if w < 0 {
			return nil, fmt.Errorf("negative weight %g", w)
		}
		sum += w
	}
	if sum <= 0 {
		return nil, errors.New("weights sum to zero")
	}

	if !total.IsZero() {
		return absoluteSpans(weights, mins, total, sum)
	}

	sizes := make([]measure.Measure, len(weights))
	for i, w := range weights {
		sizes[i] = frac(w / sum)
		if i < len(mins) && !mins[i].IsZero() {
			m, err := measure.Max(sizes[i], mins[i])
			if err != nil {
				return nil, err
			}
			sizes[i] = m
		}
	}
	return sizes, nil
}

// absoluteSpans solves spans in millimetres. Spans falling below
// their hint are pinned there and the free remainder is spread over
// the rest by weight, repeating until no new span is pinned.
func absoluteSpans(weights []float64, mins []measure.Measure, total measure.Measure, sum float64) ([]measure.Measure, error) {
	totalMM, err := total.Millimetres()
	if err != nil {
		return nil, err
	}
	if totalMM <= 0 {
		return nil, fmt.Errorf("extent %gmm is not positive", totalMM)
	}

	n := len(weights)
	minMM := make([]float64, n)
	for i := 0; i < n && i < len(mins); i++ {
		if mins[i].IsZero() {
			continue
		}
		v, err := mins[i].Millimetres()
		if err != nil {
			return nil, err
		}
		minMM[i] = v
	}

	spans := make([]float64, n)
	pinned := make([]bool, n)
	for {
		free := totalMM
		wsum := 0.0
		for i := range spans {
			if pinned[i] {
				free -= minMM[i]
			} else {
				wsum += weights[i]
			}
		}
		if free < 0 {
			return nil, fmt.Errorf("size hints exceed the extent %gmm", totalMM)
		}
		changed := false
		for i := range spans {
			if pinned[i] {
				continue
			}
			if wsum > 0 {
				spans[i] = free * weights[i] / wsum
			} else {
				spans[i] = 0
			}
			if spans[i] < minMM[i] {
				pinned[i] = true
				changed = true
			}
		}
		if !changed {
			break
		}
	}

	out := make([]measure.Measure, n)
	for i := range spans {
		if pinned[i] {
			out[i] = measure.Mm(minMM[i])
		} else {
			out[i] = measure.Mm(spans[i])
		}
	}
	return out, nil
}

// MinWidthFor derives a minimum width hint for a text cell from m,
// padding both sides.
func MinWidthFor(m textmetrics.Measurer, family string, sizeMM float64, content string, padMM float64) (measure.Measure, error) {
	w, _, err := m.Extents(family, sizeMM, content)
	if err != nil {
		return measure.Measure{}, fmt.Errorf("layout: measuring %q: %w", content, err)
	}
	return measure.Mm(w + 2*padMM), nil
}
