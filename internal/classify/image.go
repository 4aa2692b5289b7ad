package classify

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"math"
	"os"

	"github.com/lucasb-eyer/go-colorful"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/joseph-ayodele/idextract/constants"
)

// ImageInspector guesses type and country from the document image itself.
type ImageInspector interface {
	Inspect(ctx context.Context, path string) (ImageHint, error)
}

// ImageHint is a low-confidence guess. Unknown axes stay unknown.
type ImageHint struct {
	Width        int
	Height       int
	AspectRatio  float64
	MeanColor    colorful.Color
	DocumentType constants.DocumentType
	Country      constants.Country
}

// Aspect ratio bands, long side over short side. ID-1 cards are 85.6x54mm
// (1.585), passport data pages are 125x88mm (1.42).
const (
	passportRatioMin = 1.38
	passportRatioMax = 1.50
	cardRatioMin     = 1.55
	cardRatioMax     = 1.62
)

// sampleSize is the edge of the thumbnail the mean colour is taken from.
const sampleSize = 32

type paletteEntry struct {
	country constants.Country
	color   colorful.Color
}

// defaultPalette holds coarse background tints of current ID card designs.
// These are rough placeholders without accuracy data.
var defaultPalette = []paletteEntry{
	{constants.CountryFR, colorful.Color{R: 0.80, G: 0.82, B: 0.90}},
	{constants.CountryBE, colorful.Color{R: 0.86, G: 0.80, B: 0.74}},
	{constants.CountryCH, colorful.Color{R: 0.88, G: 0.74, B: 0.74}},
	{constants.CountryMA, colorful.Color{R: 0.78, G: 0.86, B: 0.80}},
	{constants.CountryDZ, colorful.Color{R: 0.74, G: 0.84, B: 0.74}},
	{constants.CountryTN, colorful.Color{R: 0.90, G: 0.82, B: 0.80}},
}

// defaultMaxDistance is the CIE Lab distance under which a mean colour is
// attributed to a palette entry.
const defaultMaxDistance = 0.06

// HeuristicInspector decodes the image and applies the geometry and colour
// heuristics.
type HeuristicInspector struct {
	palette     []paletteEntry
	maxDistance float64
	logger      *slog.Logger
}

// NewHeuristicInspector returns an inspector using the built-in palette.
func NewHeuristicInspector(logger *slog.Logger) *HeuristicInspector {
	if logger == nil {
		logger = slog.Default()
	}
	return &HeuristicInspector{palette: defaultPalette, maxDistance: defaultMaxDistance, logger: logger}
}

// Inspect decodes the image at path. Formats without a registered decoder
// (PDF, HEIC) return an error and the caller skips the tier.
func (h *HeuristicInspector) Inspect(ctx context.Context, path string) (ImageHint, error) {
	hint := ImageHint{DocumentType: constants.DocUnknown, Country: constants.CountryUnknown}
	if err := ctx.Err(); err != nil {
		return hint, err
	}

	f, err := os.Open(path)
	if err != nil {
		return hint, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return hint, fmt.Errorf("decode image: %w", err)
	}
	b := img.Bounds()
	hint.Width, hint.Height = b.Dx(), b.Dy()
	hint.AspectRatio = AspectRatio(hint.Width, hint.Height)
	hint.DocumentType = TypeByAspectRatio(hint.AspectRatio)
	hint.MeanColor = MeanColor(img)
	hint.Country = h.countryByColor(hint.MeanColor)

	h.logger.Debug("image inspected",
		"path", path,
		"format", format,
		"width", hint.Width,
		"height", hint.Height,
	)
	return hint, nil
}

func (h *HeuristicInspector) countryByColor(c colorful.Color) constants.Country {
	best, bestDist := constants.CountryUnknown, math.MaxFloat64
	for _, p := range h.palette {
		if d := c.DistanceLab(p.color); d < bestDist {
			best, bestDist = p.country, d
		}
	}
	if bestDist > h.maxDistance {
		return constants.CountryUnknown
	}
	return best
}

// AspectRatio is long side over short side, so orientation does not matter.
func AspectRatio(w, h int) float64 {
	if w <= 0 || h <= 0 {
		return 0
	}
	long, short := float64(w), float64(h)
	if short > long {
		long, short = short, long
	}
	return long / short
}

// TypeByAspectRatio maps a booklet page to passport and a card to cni.
func TypeByAspectRatio(r float64) constants.DocumentType {
	switch {
	case r >= passportRatioMin && r <= passportRatioMax:
		return constants.DocPassport
	case r >= cardRatioMin && r <= cardRatioMax:
		return constants.DocCNI
	default:
		return constants.DocUnknown
	}
}

// MeanColor averages a thumbnail of img.
func MeanColor(img image.Image) colorful.Color {
	thumb := image.NewRGBA(image.Rect(0, 0, sampleSize, sampleSize))
	draw.ApproxBiLinear.Scale(thumb, thumb.Bounds(), img, img.Bounds(), draw.Src, nil)

	var r, g, b float64
	n := 0
	for y := 0; y < sampleSize; y++ {
		for x := 0; x < sampleSize; x++ {
			c := thumb.RGBAAt(x, y)
			r += float64(c.R)
			g += float64(c.G)
			b += float64(c.B)
			n++
		}
	}
	scale := 255 * float64(n)
	return colorful.Color{R: r / scale, G: g / scale, B: b / scale}
}
