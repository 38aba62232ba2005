package quality

import (
	"image/png"
	"strconv"
	"strings"

	apperrors "github.com/leeforge/compact/errors"
	"golang.org/x/text/cases"
)

// Tier is a symbolic quality level.
type Tier string

const (
	TierLow      Tier = "low"
	TierMedium   Tier = "medium"
	TierHigh     Tier = "high"
	TierLossless Tier = "lossless"
	// TierNumeric marks a Spec that carries a raw Value instead of a named level.
	TierNumeric Tier = "numeric"
)

// MaxNumeric is the upper end of the raw quality scale.
const MaxNumeric = 255

// DefaultSpec is used when no quality is configured.
var DefaultSpec = Spec{Tier: TierMedium}

var namedTiers = map[string]Tier{
	string(TierLow):      TierLow,
	string(TierMedium):   TierMedium,
	string(TierHigh):     TierHigh,
	string(TierLossless): TierLossless,
}

// Spec is a parsed quality setting: a named tier or a raw 0-255 value.
type Spec struct {
	Tier  Tier `json:"tier"`
	Value int  `json:"value,omitempty"`
}

// Numeric builds a raw-value Spec.
func Numeric(v int) Spec {
	return Spec{Tier: TierNumeric, Value: v}
}

func (s Spec) String() string {
	if s.Tier == TierNumeric {
		return strconv.Itoa(s.Value)
	}
	return string(s.Tier)
}

// ParseSpec accepts a tier name (any case) or an integer in [0, MaxNumeric].
func ParseSpec(s string) (Spec, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return DefaultSpec, nil
	}
	if tier, ok := namedTiers[cases.Fold().String(trimmed)]; ok {
		return Spec{Tier: tier}, nil
	}

	n, err := strconv.Atoi(trimmed)
	if err != nil {
		return Spec{}, apperrors.NewInvalidFormat("quality", s, "expected low, medium, high, lossless or 0-255")
	}
	if n < 0 || n > MaxNumeric {
		return Spec{}, apperrors.NewInvalidFormat("quality", s, "numeric quality must be within 0-255")
	}
	return Numeric(n), nil
}

// PNGFilter describes the row filter strategy the PNG encoder applies.
type PNGFilter string

const (
	FilterNone     PNGFilter = "none"
	FilterAdaptive PNGFilter = "adaptive"
)

// EncoderParams are the codec settings for one (Spec, Format) pair.
type EncoderParams struct {
	Format Format `json:"format"`

	// JPEG: 1-100, higher is larger and more faithful.
	Quality int `json:"quality,omitempty"`

	// PNG: lossless, trades encode time for size.
	Compression png.CompressionLevel `json:"compression,omitempty"`
	Filter      PNGFilter            `json:"filter,omitempty"`
}

func (p EncoderParams) String() string {
	switch p.Format {
	case FormatJPEG:
		return "q=" + strconv.Itoa(p.Quality)
	case FormatPNG:
		return "level=" + compressionName(p.Compression) + " filter=" + string(p.Filter)
	}
	return p.Format.String()
}

func compressionName(l png.CompressionLevel) string {
	switch l {
	case png.NoCompression:
		return "none"
	case png.BestSpeed:
		return "speed"
	case png.BestCompression:
		return "best"
	default:
		return "default"
	}
}
