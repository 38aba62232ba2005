package env_mode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseEnv(t *testing.T) {
	assert.Equal(t, DevMode, ParseEnv(""))
	assert.Equal(t, DevMode, ParseEnv("staging"))
	assert.Equal(t, ProMode, ParseEnv(" PROD "))
	assert.Equal(t, TestMode, ParseEnv("testing"))
}

func TestModeFromEnv(t *testing.T) {
	t.Setenv(ENV_MODE_KEY, "production")
	assert.Equal(t, ProMode, Mode())
	assert.Equal(t, []string{"pro", "prod", "production"}, Mode().Aliases())
}
