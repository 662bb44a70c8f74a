package preview

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benoitkugler/okcompose/compose"
)

func TestShowWithoutDisplay(t *testing.T) {
	if Available() {
		t.Skip("display reachable, nothing to refuse")
	}
	err := Show(compose.NewContext())
	require.ErrorIs(t, err, compose.ErrUnsupported)

	err = ShowImage(image.NewRGBA(image.Rect(0, 0, 1, 1)))
	require.ErrorIs(t, err, compose.ErrUnsupported)
}

func TestGameLayout(t *testing.T) {
	g := &game{img: image.NewRGBA(image.Rect(0, 0, 30, 20))}
	w, h := g.Layout(800, 600)
	assert.Equal(t, 30, w)
	assert.Equal(t, 20, h)
}
