package bound

import (
	"strconv"
	"strings"

	apperrors "github.com/leeforge/compact/errors"
)

// Separator splits the width and height sides of a bound spec.
const Separator = ","

// Dimensions is a width/height pair in pixels.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (d Dimensions) String() string {
	return strconv.Itoa(d.Width) + "x" + strconv.Itoa(d.Height)
}

// Longest returns the longer edge.
func (d Dimensions) Longest() int {
	if d.Width > d.Height {
		return d.Width
	}
	return d.Height
}

// Bound is an optional per-axis pixel ceiling. An unset axis has no limit.
type Bound struct {
	width  int
	height int
}

// NewBound builds a Bound. Values <= 0 leave that axis unbounded.
func NewBound(width, height int) Bound {
	return Bound{width: max(width, 0), height: max(height, 0)}
}

// ParseBound parses "<width>,<height>". Each side is optional: an empty,
// non-numeric or non-positive side means no limit on that axis. Only a
// missing separator or a field count other than two is rejected.
func ParseBound(spec string) (Bound, error) {
	parts := strings.Split(spec, Separator)
	if len(parts) != 2 {
		return Bound{}, apperrors.NewInvalidFormat("bound", spec, `expected "<width>,<height>"`)
	}
	return NewBound(parseSide(parts[0]), parseSide(parts[1])), nil
}

func parseSide(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return 0
	}
	return n
}

// MaxWidth returns the width limit and whether one is set.
func (b Bound) MaxWidth() (int, bool) {
	return b.width, b.width > 0
}

// MaxHeight returns the height limit and whether one is set.
func (b Bound) MaxHeight() (int, bool) {
	return b.height, b.height > 0
}

// Unbounded reports whether neither axis is limited.
func (b Bound) Unbounded() bool {
	return b.width == 0 && b.height == 0
}

// Contains reports whether d already fits on every limited axis.
func (b Bound) Contains(d Dimensions) bool {
	if w, ok := b.MaxWidth(); ok && d.Width > w {
		return false
	}
	if h, ok := b.MaxHeight(); ok && d.Height > h {
		return false
	}
	return true
}

// String renders the bound back to spec form; unset sides are empty.
func (b Bound) String() string {
	var sb strings.Builder
	if b.width > 0 {
		sb.WriteString(strconv.Itoa(b.width))
	}
	sb.WriteString(Separator)
	if b.height > 0 {
		sb.WriteString(strconv.Itoa(b.height))
	}
	return sb.String()
}
