package bound

import (
	"math"
	"strings"

	apperrors "github.com/leeforge/compact/errors"
)

// Policy selects how target dimensions are derived from a bound.
type Policy string

const (
	// PolicyLongestEdge limits the longer edge and scales the other by the same ratio.
	PolicyLongestEdge Policy = "longest-edge"
	// PolicyFit scales by one factor so every limited axis fits.
	PolicyFit Policy = "fit"
	// PolicyIndependent clamps each axis to its own limit. Legacy; may distort.
	PolicyIndependent Policy = "independent"
)

// DefaultPolicy is used when none is configured.
const DefaultPolicy = PolicyLongestEdge

// ParsePolicy maps a policy name to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case PolicyLongestEdge, PolicyFit, PolicyIndependent:
		return p, nil
	case "":
		return DefaultPolicy, nil
	default:
		return "", apperrors.NewInvalidFormat("policy", s, "expected longest-edge, fit or independent")
	}
}

// Strategy computes target dimensions for a source image.
// Implementations never enlarge.
type Strategy interface {
	Target(src Dimensions) Dimensions
	Policy() Policy
}

// NewStrategy builds the strategy for policy. maxEdge only applies to
// PolicyLongestEdge; when it is not positive the longer edge of each source is
// limited by its own axis bound, so anything already inside b is kept as is.
func NewStrategy(policy Policy, b Bound, maxEdge int) (Strategy, error) {
	switch policy {
	case PolicyLongestEdge, "":
		return LongestEdge{Bound: b, Limit: max(maxEdge, 0)}, nil
	case PolicyFit:
		return Fit{Bound: b}, nil
	case PolicyIndependent:
		return Independent{Bound: b}, nil
	default:
		return nil, apperrors.NewInvalidFormat("policy", string(policy), "unknown resize policy")
	}
}

// LongestEdge limits max(w,h). A positive Limit is applied to the longer
// edge regardless of orientation. Without one, the longer edge shrinks only
// as far as needed to bring both axes inside Bound, and a source Bound
// already contains is returned unchanged.
type LongestEdge struct {
	Bound Bound
	Limit int
}

func (s LongestEdge) Policy() Policy { return PolicyLongestEdge }

func (s LongestEdge) Target(src Dimensions) Dimensions {
	limit := s.Limit
	if limit <= 0 {
		return Fit{Bound: s.Bound}.Target(src)
	}
	longest := src.Longest()
	if longest <= limit {
		return src
	}
	if src.Width >= src.Height {
		return Dimensions{Width: limit, Height: scaleEdge(src.Height, limit, longest)}
	}
	return Dimensions{Width: scaleEdge(src.Width, limit, longest), Height: limit}
}

// Fit applies a single scale factor so each limited axis fits its bound.
type Fit struct {
	Bound Bound
}

func (s Fit) Policy() Policy { return PolicyFit }

func (s Fit) Target(src Dimensions) Dimensions {
	if s.Bound.Contains(src) {
		return src
	}

	// Compare ratios as cross products to stay exact on integer inputs.
	num, den := 1, 1
	if w, ok := s.Bound.MaxWidth(); ok && w*den < src.Width*num {
		num, den = w, src.Width
	}
	if h, ok := s.Bound.MaxHeight(); ok && h*den < src.Height*num {
		num, den = h, src.Height
	}

	return Dimensions{
		Width:  scaleEdge(src.Width, num, den),
		Height: scaleEdge(src.Height, num, den),
	}
}

// Independent clamps each axis to its own limit.
type Independent struct {
	Bound Bound
}

func (s Independent) Policy() Policy { return PolicyIndependent }

func (s Independent) Target(src Dimensions) Dimensions {
	dst := src
	if w, ok := s.Bound.MaxWidth(); ok && dst.Width > w {
		dst.Width = w
	}
	if h, ok := s.Bound.MaxHeight(); ok && dst.Height > h {
		dst.Height = h
	}
	return dst
}

// scaleEdge returns round(edge*num/den), never below 1.
func scaleEdge(edge, num, den int) int {
	v := int(math.Round(float64(edge) * float64(num) / float64(den)))
	return max(v, 1)
}
