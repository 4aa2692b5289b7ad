// Package vision recognizes document text with the Google Cloud Vision API.
package vision

import (
	"context"
	"fmt"
	"os"
	"strings"

	visionapi "cloud.google.com/go/vision/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	gax "github.com/googleapis/gax-go/v2"
	"google.golang.org/api/option"

	"github.com/joseph-ayodele/idextract/internal/ocr"
)

// Client is the part of vision.ImageAnnotatorClient the engine uses.
// Tests substitute a fake.
type Client interface {
	DetectDocumentText(ctx context.Context, image *visionpb.Image, imageContext *visionpb.ImageContext, opts ...gax.CallOption) (*visionpb.TextAnnotation, error)
}

// Engine is an ocr.ImageEngine backed by DOCUMENT_TEXT_DETECTION.
type Engine struct {
	client    Client
	languages []string
}

var _ ocr.ImageEngine = (*Engine)(nil)

// New wraps an existing client. languages are BCP-47 hints, e.g. "fr", "en".
func New(client Client, languages ...string) *Engine {
	return &Engine{client: client, languages: languages}
}

// Dial opens an ImageAnnotatorClient. With an empty credentials path the
// application default credentials are used. The returned close func must be
// called on shutdown.
func Dial(ctx context.Context, credentialsFile string) (Client, func() error, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	c, err := visionapi.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("vision client: %w", err)
	}
	return c, c.Close, nil
}

// LanguageHints maps a tesseract language string such as "fra+eng+ara" onto
// Vision's two-letter hints.
func LanguageHints(tesseractLang string) []string {
	codes := map[string]string{"fra": "fr", "eng": "en", "ara": "ar", "deu": "de", "nld": "nl", "ita": "it"}
	var out []string
	for _, l := range strings.Split(tesseractLang, "+") {
		if c, ok := codes[strings.TrimSpace(l)]; ok {
			out = append(out, c)
		}
	}
	return out
}

func (e *Engine) Name() string { return "vision" }

func (e *Engine) Recognize(ctx context.Context, path string) (ocr.Recognition, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return ocr.Recognition{}, fmt.Errorf("read image: %w", err)
	}
	var imgCtx *visionpb.ImageContext
	if len(e.languages) > 0 {
		imgCtx = &visionpb.ImageContext{LanguageHints: e.languages}
	}
	ann, err := e.client.DetectDocumentText(ctx, &visionpb.Image{Content: b}, imgCtx)
	if err != nil {
		return ocr.Recognition{}, fmt.Errorf("vision detect: %w", err)
	}
	if ann == nil {
		return ocr.Recognition{Warnings: []string{"vision returned no text"}}, nil
	}
	return ocr.Recognition{Text: ann.GetText(), Confidence: meanConfidence(ann)}, nil
}

// meanConfidence averages the per-page confidence Vision reports.
func meanConfidence(ann *visionpb.TextAnnotation) float32 {
	var sum float32
	pages := ann.GetPages()
	for _, p := range pages {
		sum += p.GetConfidence()
	}
	if len(pages) == 0 {
		return 0
	}
	return sum / float32(len(pages))
}
