// Package env_mode selects which layered config files apply to a run.
package env_mode

import (
	"os"
	"strings"
)

// ENV_MODE_KEY names the variable holding the run environment.
const ENV_MODE_KEY = "COMPACT_ENV"

type ENV_MODE string

const (
	DevMode  ENV_MODE = "development"
	ProMode  ENV_MODE = "production"
	TestMode ENV_MODE = "test"
)

func ParseEnv(env string) ENV_MODE {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "production", "prod", "pro":
		return ProMode
	case "test", "testing":
		return TestMode
	default:
		return DevMode
	}
}

// Mode reads ENV_MODE_KEY; unset or unknown values mean DevMode.
func Mode() ENV_MODE {
	return ParseEnv(os.Getenv(ENV_MODE_KEY))
}

// Aliases returns the short file suffixes accepted for mode, in load order.
func (m ENV_MODE) Aliases() []string {
	switch m {
	case ProMode:
		return []string{"pro", "prod", "production"}
	case TestMode:
		return []string{"test"}
	default:
		return []string{"dev", "development"}
	}
}
