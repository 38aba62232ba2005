package config

import (
	"github.com/leeforge/compact/media/bound"
	"github.com/leeforge/compact/media/processor"
	"github.com/leeforge/compact/media/quality"
)

// Resolved holds the parsed domain values of an AppConfig.
type Resolved struct {
	Bound         bound.Bound
	Quality       quality.Spec
	Policy        bound.Policy
	Strategy      bound.Strategy
	Interpolation processor.Interpolation
}

// Resolve parses the string settings. Any malformed value is an
// InvalidFormat error and nothing has touched the filesystem yet.
func (c *AppConfig) Resolve() (*Resolved, error) {
	b, err := bound.ParseBound(c.Bound)
	if err != nil {
		return nil, err
	}
	spec, err := quality.ParseSpec(c.Quality)
	if err != nil {
		return nil, err
	}
	policy, err := bound.ParsePolicy(c.Policy)
	if err != nil {
		return nil, err
	}
	strategy, err := bound.NewStrategy(policy, b, c.MaxEdge)
	if err != nil {
		return nil, err
	}
	interp, err := processor.ParseInterpolation(c.Interpolation)
	if err != nil {
		return nil, err
	}

	return &Resolved{
		Bound:         b,
		Quality:       spec,
		Policy:        policy,
		Strategy:      strategy,
		Interpolation: interp,
	}, nil
}
