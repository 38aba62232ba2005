package processor

import (
	"image"
	"io"
	"strings"

	"github.com/nfnt/resize"

	apperrors "github.com/leeforge/compact/errors"
	"github.com/leeforge/compact/media/bound"
	"github.com/leeforge/compact/media/quality"
)

// Codec decodes, resizes and encodes images.
type Codec interface {
	// Decode reads the image at path and reports its pixel dimensions.
	Decode(path string) (image.Image, bound.Dimensions, error)
	// Resize returns img scaled to exactly target.
	Resize(img image.Image, target bound.Dimensions) image.Image
	// Encode writes img to w using params.
	Encode(w io.Writer, img image.Image, params quality.EncoderParams) error
}

// Interpolation names a resampling filter.
type Interpolation string

const (
	NearestNeighbor   Interpolation = "nearest"
	Bilinear          Interpolation = "bilinear"
	Bicubic           Interpolation = "bicubic"
	MitchellNetravali Interpolation = "mitchell"
	Lanczos2          Interpolation = "lanczos2"
	Lanczos3          Interpolation = "lanczos3"

	DefaultInterpolation = Lanczos3
)

var interpolations = map[Interpolation]resize.InterpolationFunction{
	NearestNeighbor:   resize.NearestNeighbor,
	Bilinear:          resize.Bilinear,
	Bicubic:           resize.Bicubic,
	MitchellNetravali: resize.MitchellNetravali,
	Lanczos2:          resize.Lanczos2,
	Lanczos3:          resize.Lanczos3,
}

// ParseInterpolation is case-insensitive; "" yields the default.
func ParseInterpolation(s string) (Interpolation, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DefaultInterpolation, nil
	}
	i := Interpolation(s)
	if _, ok := interpolations[i]; !ok {
		return "", apperrors.NewInvalidFormat("interpolation", s,
			"expected nearest, bilinear, bicubic, mitchell, lanczos2 or lanczos3")
	}
	return i, nil
}

func (i Interpolation) function() resize.InterpolationFunction {
	if fn, ok := interpolations[i]; ok {
		return fn
	}
	return resize.Lanczos3
}
