package textmetrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestFallbackExtents(t *testing.T) {
	w, h, err := Fallback{}.Extents("any", 13, "abcd")
	require.NoError(t, err)
	assert.Equal(t, 28.0, w, "four glyphs at native size")
	assert.Equal(t, 13.0, h)

	w, h, err = Fallback{}.Extents("any", 6.5, "abcd")
	require.NoError(t, err)
	assert.Equal(t, 14.0, w, "width scales with the size")
	assert.Equal(t, 6.5, h)

	w, _, err = Fallback{}.Extents("any", 13, "héllo")
	require.NoError(t, err)
	assert.Equal(t, 35.0, w, "runes count, not bytes")
}

func TestFallbackBadSize(t *testing.T) {
	_, _, err := Fallback{}.Extents("any", 0, "x")
	require.Error(t, err)
}

func TestBestFallsBack(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)

	m := Best(filepath.Join(t.TempDir(), "missing.ttf"), zap.New(core))
	assert.IsType(t, Fallback{}, m)
	assert.Equal(t, 1, logs.FilterMessageSnippet("falling back").Len())
}

func TestBestRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.ttf")
	require.NoError(t, os.WriteFile(path, []byte("definitely not a font"), 0o600))

	m := Best(path, nil)
	assert.IsType(t, Fallback{}, m)
}

// systemFont returns a usable font file or skips the test.
func systemFont(t *testing.T) string {
	t.Helper()
	for _, p := range []string{
		"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
		"/usr/share/fonts/TTF/DejaVuSans.ttf",
		"/usr/share/fonts/dejavu/DejaVuSans.ttf",
		"/Library/Fonts/Arial Unicode.ttf",
		"/System/Library/Fonts/Supplemental/Arial.ttf",
	} {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	t.Skip("no system font found")
	return ""
}

func TestFaceMeasurerExtents(t *testing.T) {
	m, err := NewFaceMeasurer(systemFont(t))
	require.NoError(t, err)

	w, h, err := m.Extents("any", 10, "Hello")
	require.NoError(t, err)
	assert.Greater(t, w, 5.0)
	assert.Less(t, w, 50.0)
	assert.InDelta(t, 11, h, 4, "ascent plus descent tracks the em size")

	w2, _, err := m.Extents("any", 20, "Hello")
	require.NoError(t, err)
	assert.InDelta(t, 2*w, w2, w/2, "width follows the size")

	wider, _, err := m.Extents("any", 10, "Hello world")
	require.NoError(t, err)
	assert.Greater(t, wider, w)
}

func TestFaceMeasurerBadSize(t *testing.T) {
	m, err := NewFaceMeasurer(systemFont(t))
	require.NoError(t, err)
	_, _, err = m.Extents("any", -1, "x")
	require.Error(t, err)
}
