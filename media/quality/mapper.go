package quality

import (
	"image/png"

	apperrors "github.com/leeforge/compact/errors"
)

var jpegTiers = map[Tier]int{
	TierLow:    50,
	TierMedium: 75,
	TierHigh:   90,
}

var pngTiers = map[Tier]png.CompressionLevel{
	TierLow:      png.BestSpeed,
	TierMedium:   png.DefaultCompression,
	TierHigh:     png.BestCompression,
	TierLossless: png.BestCompression,
}

// Mapper translates a quality Spec into encoder parameters per format.
// It holds read-only tables, so Params is a pure function.
type Mapper struct {
	jpeg map[Tier]int
	png  map[Tier]png.CompressionLevel
}

// DefaultMapper returns a Mapper over the built-in tables.
func DefaultMapper() Mapper {
	return Mapper{jpeg: jpegTiers, png: pngTiers}
}

// Params returns the encoder parameters for spec in format f.
func (m Mapper) Params(spec Spec, f Format) (EncoderParams, error) {
	switch f {
	case FormatJPEG:
		return m.jpegParams(spec)
	case FormatPNG:
		return m.pngParams(spec)
	default:
		return EncoderParams{}, apperrors.NewUnsupportedFormat(f.String())
	}
}

func (m Mapper) jpegParams(spec Spec) (EncoderParams, error) {
	if spec.Tier == TierNumeric {
		// the encoder only understands 1-100
		return EncoderParams{Format: FormatJPEG, Quality: min(max(spec.Value, 1), 100)}, nil
	}
	q, ok := m.jpeg[spec.Tier]
	if !ok {
		return EncoderParams{}, apperrors.NewUnsupportedQuality(spec.String(), FormatJPEG.String())
	}
	return EncoderParams{Format: FormatJPEG, Quality: q}, nil
}

func (m Mapper) pngParams(spec Spec) (EncoderParams, error) {
	var level png.CompressionLevel
	if spec.Tier == TierNumeric {
		level = numericCompression(spec.Value)
	} else {
		l, ok := m.png[spec.Tier]
		if !ok {
			return EncoderParams{}, apperrors.NewUnsupportedQuality(spec.String(), FormatPNG.String())
		}
		level = l
	}

	filter := FilterAdaptive
	if level == png.NoCompression {
		filter = FilterNone
	}
	return EncoderParams{Format: FormatPNG, Compression: level, Filter: filter}, nil
}

func numericCompression(v int) png.CompressionLevel {
	switch {
	case v <= 0:
		return png.NoCompression
	case v <= 33:
		return png.BestSpeed
	case v <= 66:
		return png.DefaultCompression
	default:
		return png.BestCompression
	}
}
