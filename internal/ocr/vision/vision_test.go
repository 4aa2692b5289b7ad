package vision

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	gax "github.com/googleapis/gax-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	ann   *visionpb.TextAnnotation
	err   error
	image *visionpb.Image
	hints []string
}

func (f *fakeClient) DetectDocumentText(_ context.Context, image *visionpb.Image, imageContext *visionpb.ImageContext, _ ...gax.CallOption) (*visionpb.TextAnnotation, error) {
	f.image = image
	f.hints = imageContext.GetLanguageHints()
	return f.ann, f.err
}

func writeImage(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "scan.png")
	require.NoError(t, os.WriteFile(p, []byte("png-bytes"), 0o600))
	return p
}

func TestEngine_Recognize(t *testing.T) {
	fc := &fakeClient{ann: &visionpb.TextAnnotation{
		Text:  "Nom: DUPONT\nPrénom: Jean\n",
		Pages: []*visionpb.Page{{Confidence: 0.9}, {Confidence: 0.7}},
	}}
	e := New(fc, LanguageHints("fra+eng")...)

	rec, err := e.Recognize(context.Background(), writeImage(t))
	require.NoError(t, err)
	assert.Equal(t, "Nom: DUPONT\nPrénom: Jean\n", rec.Text)
	assert.InDelta(t, 0.8, rec.Confidence, 0.0001)
	assert.Equal(t, []byte("png-bytes"), fc.image.GetContent())
	assert.Equal(t, []string{"fr", "en"}, fc.hints)
	assert.Equal(t, "vision", e.Name())
}

func TestEngine_RecognizeErrors(t *testing.T) {
	t.Run("api error", func(t *testing.T) {
		e := New(&fakeClient{err: errors.New("quota exceeded")})
		_, err := e.Recognize(context.Background(), writeImage(t))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "quota exceeded")
	})
	t.Run("missing file", func(t *testing.T) {
		e := New(&fakeClient{})
		_, err := e.Recognize(context.Background(), filepath.Join(t.TempDir(), "nope.png"))
		require.Error(t, err)
	})
	t.Run("nil annotation", func(t *testing.T) {
		e := New(&fakeClient{})
		rec, err := e.Recognize(context.Background(), writeImage(t))
		require.NoError(t, err)
		assert.Empty(t, rec.Text)
		assert.NotEmpty(t, rec.Warnings)
	})
}

func TestLanguageHints(t *testing.T) {
	assert.Equal(t, []string{"fr", "ar"}, LanguageHints("fra+ara"))
	assert.Empty(t, LanguageHints("xxx"))
}
