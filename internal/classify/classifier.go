// Package classify resolves the document type and issuing country of an
// identity document from its text and, as a last resort, from its image.
package classify

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/idextract/constants"
	"github.com/joseph-ayodele/idextract/internal/mrz"
	"github.com/joseph-ayodele/idextract/internal/patterns"
	"github.com/joseph-ayodele/idextract/internal/textnorm"
)

// Tier records which kind of evidence resolved an axis. Lower tiers outrank
// higher ones and an axis is never revisited once resolved.
type Tier int

const (
	TierNone Tier = iota
	TierKeyword
	TierPattern
	TierMRZ
	TierImage
)

func (t Tier) String() string {
	switch t {
	case TierKeyword:
		return "keyword"
	case TierPattern:
		return "pattern"
	case TierMRZ:
		return "mrz"
	case TierImage:
		return "image"
	default:
		return "none"
	}
}

// Decision is the classification of one document.
type Decision struct {
	DocumentType constants.DocumentType
	Country      constants.Country
	TypeTier     Tier
	CountryTier  Tier
}

// Resolved reports whether both axes are known.
func (d Decision) Resolved() bool {
	return d.DocumentType != constants.DocUnknown && d.Country != constants.CountryUnknown
}

// Classifier is safe for concurrent use.
type Classifier struct {
	registry  *patterns.Registry
	inspector ImageInspector
	logger    *slog.Logger
}

// New returns a classifier. inspector may be nil, which disables the image tier.
func New(registry *patterns.Registry, inspector ImageInspector, logger *slog.Logger) *Classifier {
	if registry == nil {
		registry = patterns.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{registry: registry, inspector: inspector, logger: logger}
}

// Classify runs the text tiers and then, for axes still unknown and when an
// image path is given, the image tier.
func (c *Classifier) Classify(ctx context.Context, text, imagePath string) Decision {
	d := c.ClassifyText(text)
	if d.Resolved() || imagePath == "" || c.inspector == nil {
		return d
	}

	hint, err := c.inspector.Inspect(ctx, imagePath)
	if err != nil {
		c.logger.Warn("classify.image.failed", "path", imagePath, "err", err)
		return d
	}
	if d.DocumentType == constants.DocUnknown && hint.DocumentType != constants.DocUnknown {
		d.DocumentType, d.TypeTier = hint.DocumentType, TierImage
	}
	if d.Country == constants.CountryUnknown && hint.Country != constants.CountryUnknown {
		d.Country, d.CountryTier = hint.Country, TierImage
	}
	c.logger.Debug("classify.image",
		"aspect_ratio", hint.AspectRatio,
		"mean_color", hint.MeanColor.Hex(),
		"document_type", d.DocumentType,
		"country", d.Country,
	)
	return d
}

// ClassifyText applies the keyword, number-pattern and MRZ tiers.
func (c *Classifier) ClassifyText(text string) Decision {
	d := Decision{DocumentType: constants.DocUnknown, Country: constants.CountryUnknown}
	folded := textnorm.Fold(text)

	if country, ok := CountryByKeyword(folded); ok {
		d.Country, d.CountryTier = country, TierKeyword
	}
	if dt, ok := TypeByKeyword(folded); ok {
		d.DocumentType, d.TypeTier = dt, TierKeyword
	}
	if d.Resolved() {
		return d
	}

	zone, hasZone := mrz.Find(text)
	if hasZone && !zone.NumberCheck && !zone.DatesCheck {
		hasZone = false
	}
	if d.Country == constants.CountryUnknown && hasZone {
		if country := zone.Country(); country != constants.CountryUnknown {
			d.Country, d.CountryTier = country, TierMRZ
		}
	}
	if d.DocumentType == constants.DocUnknown {
		if dt, ok := c.typeByNumber(text, d.Country); ok {
			d.DocumentType, d.TypeTier = dt, TierPattern
		}
	}
	if d.DocumentType == constants.DocUnknown && hasZone {
		if dt := zone.DocumentType(); dt != constants.DocUnknown {
			d.DocumentType, d.TypeTier = dt, TierMRZ
		}
	}
	return d
}

// typeByNumber tries the country's number formats in declared type order and
// returns the first type whose format matches and validates.
func (c *Classifier) typeByNumber(text string, country constants.Country) (constants.DocumentType, bool) {
	for _, dt := range constants.NumberedDocumentTypes {
		rule, ok := c.registry.NumberRule(country, dt)
		if !ok {
			continue
		}
		for _, v := range rule.Matches(text) {
			if rule.Valid(patterns.NormalizeNumber(v)) {
				return dt, true
			}
		}
	}
	return constants.DocUnknown, false
}
