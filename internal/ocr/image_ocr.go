package ocr

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/idextract/constants"
)

func (e *Extractor) extractImage(ctx context.Context, path string) (ExtractionResult, error) {
	rec, err := e.engine.Recognize(ctx, path)
	if err != nil {
		return ExtractionResult{SourceType: constants.IMAGE, Warnings: rec.Warnings}, err
	}
	txt := Normalize(rec.Text)

	return ExtractionResult{
		Text:       txt,
		Pages:      1,
		SourceType: constants.IMAGE,
		Method:     "image-ocr",
		Language:   e.cfg.TesseractLang,
		Warnings:   rec.Warnings,
		Confidence: blendConfidence(rec.Confidence, txt),
	}, nil
}

// blendConfidence weights the engine's own score higher when it has one.
func blendConfidence(engine float32, txt string) float32 {
	heur := heuristicConfidence(txt)
	conf := heur
	if engine > 0 {
		conf = 0.7*engine + 0.3*heur
	}
	if conf > 1.0 {
		conf = 1.0
	}
	return conf
}

// TesseractEngine runs the tesseract CLI.
type TesseractEngine struct {
	cfg    Config
	runner Runner
}

func (t *TesseractEngine) Name() string { return "tesseract" }

func (t *TesseractEngine) Recognize(ctx context.Context, path string) (Recognition, error) {
	txt, warn, err := t.text(ctx, path)
	if err != nil {
		return Recognition{Warnings: warn}, err
	}
	rec := Recognition{Text: txt, Warnings: warn}
	if t.cfg.EnableTSVConfidence {
		if c, err := t.tsvConfidence(ctx, path); err == nil {
			rec.Confidence = c
		} else {
			rec.Warnings = append(rec.Warnings, err.Error())
		}
	}
	return rec, nil
}

func (t *TesseractEngine) args(path string) []string {
	// tesseract <file> stdout -l <lang>
	args := []string{path, "stdout", "-l", t.cfg.TesseractLang}
	if t.cfg.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(t.cfg.PSM))
	}
	if t.cfg.OEM > 0 {
		args = append(args, "--oem", strconv.Itoa(t.cfg.OEM))
	}
	if t.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", t.cfg.TessdataDir)
	}
	return args
}

func (t *TesseractEngine) text(ctx context.Context, path string) (string, []string, error) {
	out, errb, err := t.runner.Run(ctx, t.cfg.Tesseract, t.args(path)...)
	if err != nil {
		return "", []string{string(errb)}, fmt.Errorf("tesseract: %w", err)
	}
	return reBoxNoise.ReplaceAllString(string(out), ""), nil, nil
}

// tsvConfidence runs tesseract in TSV mode and returns mean word conf in 0..1.
func (t *TesseractEngine) tsvConfidence(ctx context.Context, path string) (float32, error) {
	out, _, err := t.runner.Run(ctx, t.cfg.Tesseract, append(t.args(path), "tsv")...)
	if err != nil {
		return 0, fmt.Errorf("tesseract TSV: %w", err)
	}
	return meanTSVConfidence(string(out)), nil
}

// meanTSVConfidence averages the conf column, skipping the header and the
// -1 rows tesseract emits for non-word levels.
func meanTSVConfidence(tsv string) float32 {
	var sum, n float64
	for i, ln := range strings.Split(tsv, "\n") {
		if i == 0 || ln == "" {
			continue
		}
		cols := strings.Split(ln, "\t")
		if len(cols) < 12 {
			continue
		}
		confStr := cols[10]
		if confStr == "" || confStr == "-1" {
			continue
		}
		if v, err := strconv.ParseFloat(confStr, 64); err == nil && v >= 0 {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return float32(sum / n / 100.0)
}
