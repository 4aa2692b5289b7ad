package enrich

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/idextract/internal/entity"
	"github.com/joseph-ayodele/idextract/internal/extract"
	"github.com/joseph-ayodele/idextract/internal/textnorm"
)

// NER fills name and place fields the patterns left unset. It never
// overwrites a value and recognizer errors are only logged.
type NER struct {
	recognizer extract.EntityRecognizer
	logger     *slog.Logger
}

func NewNER(recognizer extract.EntityRecognizer, logger *slog.Logger) *NER {
	if logger == nil {
		logger = slog.Default()
	}
	return &NER{recognizer: recognizer, logger: logger}
}

func (n *NER) Name() string { return "ner" }

func (n *NER) Enrich(ctx context.Context, text string, res *entity.ExtractionResult) {
	p := &res.PersonalInfo
	if p.LastName != nil && p.FirstName != nil && p.BirthPlace != nil {
		return
	}
	if textnorm.CollapseSpaces(text) == "" {
		return
	}

	start := time.Now()
	ents, err := n.recognizer.Recognize(ctx, text)
	if err != nil {
		n.logger.Warn("enrich.ner.failed", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return
	}

	filled := 0
	for _, f := range []struct {
		dst **string
		v   string
	}{
		{&p.LastName, ents.LastName},
		{&p.FirstName, ents.FirstName},
		{&p.BirthPlace, ents.BirthPlace},
	} {
		if fillStr(f.dst, textnorm.Title(f.v)) {
			filled++
		}
	}
	n.logger.Debug("enrich.ner", "model", ents.Model, "filled", filled, "elapsed_ms", time.Since(start).Milliseconds())
}
