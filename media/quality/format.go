package quality

import (
	"path/filepath"
	"strings"
)

// Format is an output image format derived from the file extension.
type Format string

const (
	FormatUnknown Format = ""
	FormatJPEG    Format = "jpeg"
	FormatPNG     Format = "png"
)

var extensionFormats = map[string]Format{
	"jpg":  FormatJPEG,
	"jpeg": FormatJPEG,
	"jpe":  FormatJPEG,
	"png":  FormatPNG,
}

// DefaultExtensions is the case-sensitive extension set picked up by directory discovery.
var DefaultExtensions = []string{"jpg", "jpeg", "png"}

// FormatFromExtension maps an extension (with or without the dot) to a Format.
// The lookup ignores case so an explicitly allowed "JPG" still encodes as JPEG.
func FormatFromExtension(ext string) Format {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	return extensionFormats[ext]
}

// FormatFromPath maps a file path to a Format by its extension.
func FormatFromPath(path string) Format {
	return FormatFromExtension(filepath.Ext(path))
}

func (f Format) String() string {
	if f == FormatUnknown {
		return "unknown"
	}
	return string(f)
}
