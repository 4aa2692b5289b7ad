// Package enrich holds the passes that refine a generic extraction for one
// document subtype or from an optional capability.
package enrich

import (
	"context"

	"github.com/joseph-ayodele/idextract/internal/entity"
)

// Enricher refines res in place. Enrichers never fail the extraction; a
// problem degrades to leaving the result as it was.
type Enricher interface {
	Name() string
	Enrich(ctx context.Context, text string, res *entity.ExtractionResult)
}

// Chain runs enrichers in order.
type Chain []Enricher

func (c Chain) Enrich(ctx context.Context, text string, res *entity.ExtractionResult) {
	for _, e := range c {
		if ctx.Err() != nil {
			return
		}
		e.Enrich(ctx, text, res)
	}
}

func fillStr(dst **string, v string) bool {
	if *dst != nil || v == "" {
		return false
	}
	*dst = &v
	return true
}
