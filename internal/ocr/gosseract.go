//go:build ocr

package ocr

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"
)

// GosseractEngine runs tesseract in-process through libtesseract. Only
// available in binaries built with -tags ocr.
type GosseractEngine struct {
	mu     sync.Mutex
	client *gosseract.Client
}

// NewGosseractEngine configures a client for cfg's languages and page mode.
func NewGosseractEngine(cfg Config) (*GosseractEngine, error) {
	client := gosseract.NewClient()
	lang := cfg.TesseractLang
	if lang == "" {
		lang = "fra+eng"
	}
	if err := client.SetLanguage(strings.Split(lang, "+")...); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("gosseract language %q: %w", lang, err)
	}
	if cfg.TessdataDir != "" {
		client.SetTessdataPrefix(cfg.TessdataDir)
	}
	if cfg.PSM > 0 {
		if err := client.SetPageSegMode(gosseract.PageSegMode(cfg.PSM)); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("gosseract psm %d: %w", cfg.PSM, err)
		}
	}
	return &GosseractEngine{client: client}, nil
}

func (g *GosseractEngine) Name() string { return "gosseract" }

func (g *GosseractEngine) Recognize(ctx context.Context, path string) (Recognition, error) {
	if err := ctx.Err(); err != nil {
		return Recognition{}, err
	}
	// a gosseract client holds one image at a time
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.client.SetImage(path); err != nil {
		return Recognition{}, fmt.Errorf("gosseract set image: %w", err)
	}
	text, err := g.client.Text()
	if err != nil {
		return Recognition{}, fmt.Errorf("gosseract: %w", err)
	}
	rec := Recognition{Text: strings.TrimSpace(text)}

	boxes, err := g.client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		rec.Warnings = append(rec.Warnings, "gosseract confidence: "+err.Error())
		return rec, nil
	}
	var sum float64
	for _, b := range boxes {
		sum += b.Confidence
	}
	if len(boxes) > 0 {
		rec.Confidence = float32(sum / float64(len(boxes)) / 100)
	}
	return rec, nil
}

func (g *GosseractEngine) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.client.Close()
}
