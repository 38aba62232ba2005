package processor

import (
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"

	"github.com/nfnt/resize"

	apperrors "github.com/leeforge/compact/errors"
	"github.com/leeforge/compact/media/bound"
	"github.com/leeforge/compact/media/quality"
)

// NativeCodec implements Codec using pure Go libraries
type NativeCodec struct {
	interpolation Interpolation
}

func NewNativeCodec(interpolation Interpolation) *NativeCodec {
	if interpolation == "" {
		interpolation = DefaultInterpolation
	}
	return &NativeCodec{interpolation: interpolation}
}

func (c *NativeCodec) Interpolation() Interpolation {
	return c.interpolation
}

func (c *NativeCodec) Decode(path string) (image.Image, bound.Dimensions, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, bound.Dimensions{}, apperrors.NewDecode(path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, bound.Dimensions{}, apperrors.NewDecode(path, err)
	}

	b := img.Bounds()
	return img, bound.Dimensions{Width: b.Dx(), Height: b.Dy()}, nil
}

func (c *NativeCodec) Resize(img image.Image, target bound.Dimensions) image.Image {
	b := img.Bounds()
	if b.Dx() == target.Width && b.Dy() == target.Height {
		return img
	}
	return resize.Resize(uint(target.Width), uint(target.Height), img, c.interpolation.function())
}

func (c *NativeCodec) Encode(w io.Writer, img image.Image, params quality.EncoderParams) error {
	switch params.Format {
	case quality.FormatJPEG:
		return jpeg.Encode(w, img, &jpeg.Options{Quality: params.Quality})
	case quality.FormatPNG:
		// image/png picks its row filters itself; params.Filter only
		// documents what that choice is for the level.
		enc := &png.Encoder{CompressionLevel: params.Compression}
		return enc.Encode(w, img)
	default:
		return apperrors.NewUnsupportedFormat(params.Format.String())
	}
}
