// Package textmetrics estimates the extent of rendered text runs.
// Backends draw text without it; the layout package consults a
// Measurer to derive minimum sizes for text cells.
package textmetrics

import (
	"fmt"
	"os"
	"sync"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
)

// Measurer reports the width and height, in millimetres, that s
// occupies when set in family at sizeMM.
type Measurer interface {
	Extents(family string, sizeMM float64, s string) (w, h float64, err error)
}

// FaceMeasurer measures against a font file loaded from disk. The
// one loaded font answers for every requested family. Safe for
// concurrent use.
type FaceMeasurer struct {
	font *sfnt.Font

	mu    sync.Mutex
	faces map[float64]font.Face
}

// NewFaceMeasurer parses the TrueType or OpenType font at path.
func NewFaceMeasurer(path string) (*FaceMeasurer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("textmetrics: %w", err)
	}
	fnt, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("textmetrics: parsing %s: %w", path, err)
	}
	return &FaceMeasurer{font: fnt, faces: map[float64]font.Face{}}, nil
}

// Face returns a face whose pixel units equal size. Faces are cached
// per size.
func (m *FaceMeasurer) Face(size float64) (font.Face, error) {
	if size <= 0 {
		return nil, fmt.Errorf("textmetrics: face size %g is not positive", size)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if f, ok := m.faces[size]; ok {
		return f, nil
	}
	// At 72 dpi one point is one pixel, so the face unit is whatever
	// unit size was given in.
	f, err := opentype.NewFace(m.font, &opentype.FaceOptions{
		Size: size, DPI: 72, Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("textmetrics: sizing face: %w", err)
	}
	m.faces[size] = f
	return f, nil
}

// Extents implements Measurer.
func (m *FaceMeasurer) Extents(family string, sizeMM float64, s string) (w, h float64, err error) {
	f, err := m.Face(sizeMM)
	if err != nil {
		return 0, 0, err
	}
	met := f.Metrics()
	return float64(font.MeasureString(f, s)) / 64, float64(met.Ascent+met.Descent) / 64, nil
}

// Fallback approximates extents with the fixed 7x13 table scaled to
// the requested size. It needs no font files.
type Fallback struct{}

// Extents implements Measurer.
func (Fallback) Extents(family string, sizeMM float64, s string) (w, h float64, err error) {
	if sizeMM <= 0 {
		return 0, 0, fmt.Errorf("textmetrics: size %gmm is not positive", sizeMM)
	}
	scale := sizeMM / float64(basicfont.Face7x13.Height)
	w = float64(utf8.RuneCountInString(s)) * float64(basicfont.Face7x13.Advance) * scale
	return w, sizeMM, nil
}

// Best loads the font at path, degrading to the fallback table with a
// warning when the file cannot be used.
func Best(path string, log *zap.Logger) Measurer {
	if log == nil {
		log = zap.NewNop()
	}
	m, err := NewFaceMeasurer(path)
	if err != nil {
		log.Warn("font not usable, falling back to the 7x13 metrics table",
			zap.String("font", path), zap.Error(err))
		return Fallback{}
	}
	return m
}
