package classify

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/idextract/constants"
)

func writePNG(t *testing.T, w, h int, c color.RGBA) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	path := filepath.Join(t.TempDir(), "doc.png")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
	return path
}

func TestTypeByAspectRatio(t *testing.T) {
	tests := []struct {
		w, h int
		want constants.DocumentType
	}{
		{856, 540, constants.DocCNI},
		{540, 856, constants.DocCNI},
		{1250, 880, constants.DocPassport},
		{1000, 1000, constants.DocUnknown},
		{2100, 2970, constants.DocUnknown},
		{0, 10, constants.DocUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TypeByAspectRatio(AspectRatio(tt.w, tt.h)), "%dx%d", tt.w, tt.h)
	}
}

func TestHeuristicInspector(t *testing.T) {
	insp := NewHeuristicInspector(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	ctx := context.Background()

	t.Run("card in french tint", func(t *testing.T) {
		path := writePNG(t, 317, 200, color.RGBA{R: 204, G: 209, B: 230, A: 255})
		hint, err := insp.Inspect(ctx, path)
		require.NoError(t, err)
		assert.Equal(t, 317, hint.Width)
		assert.InDelta(t, 1.585, hint.AspectRatio, 0.001)
		assert.Equal(t, constants.DocCNI, hint.DocumentType)
		assert.Equal(t, constants.CountryFR, hint.Country)
	})

	t.Run("passport page in an unknown tint", func(t *testing.T) {
		path := writePNG(t, 250, 176, color.RGBA{R: 20, G: 20, B: 20, A: 255})
		hint, err := insp.Inspect(ctx, path)
		require.NoError(t, err)
		assert.Equal(t, constants.DocPassport, hint.DocumentType)
		assert.Equal(t, constants.CountryUnknown, hint.Country)
	})

	t.Run("undecodable file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "doc.png")
		require.NoError(t, os.WriteFile(path, []byte("not an image"), 0o600))
		_, err := insp.Inspect(ctx, path)
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := insp.Inspect(ctx, filepath.Join(t.TempDir(), "absent.png"))
		assert.Error(t, err)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := insp.Inspect(cctx, "whatever.png")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestMeanColorOfUniformImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 64, 40))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	c := MeanColor(img)
	assert.InDelta(t, 1.0, c.R, 0.01)
	assert.InDelta(t, 1.0, c.G, 0.01)
	assert.InDelta(t, 1.0, c.B, 0.01)
}
