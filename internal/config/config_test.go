package config

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingtianyulong/img-proc/internal/core"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestDefaults(t *testing.T) {
	cfg, err := fromLookup(lookupFrom(nil))
	require.NoError(t, err)
	assert.False(t, cfg.Debug)
	assert.Zero(t, cfg.Workers)
	assert.Equal(t, core.DefaultMaxDimension, cfg.MaxDimension)
	assert.Empty(t, cfg.LogFormat)
}

func TestFromEnv(t *testing.T) {
	cfg, err := fromLookup(lookupFrom(map[string]string{
		EnvDebug:        "true",
		EnvWorkers:      " 3 ",
		EnvMaxDimension: "4096",
		EnvLogFormat:    "TEXT",
	}))
	require.NoError(t, err)
	assert.True(t, cfg.Debug)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, 4096, cfg.MaxDimension)
	assert.Equal(t, FormatText, cfg.LogFormat)
}

func TestFromEnvRejectsBadValues(t *testing.T) {
	tests := map[string]map[string]string{
		"debug":         {EnvDebug: "maybe"},
		"workers":       {EnvWorkers: "many"},
		"negative":      {EnvWorkers: "-1"},
		"max dimension": {EnvMaxDimension: "0"},
		"log format":    {EnvLogFormat: "xml"},
	}
	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := fromLookup(lookupFrom(env))
			require.Error(t, err)
		})
	}
}

func TestFromEnvUsesProcessEnvironment(t *testing.T) {
	t.Setenv(EnvWorkers, "5")
	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Workers)
}

func TestRegisterFlags(t *testing.T) {
	cfg := Default()
	cfg.Workers = 2

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg.RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"-debug", "-max-dimension", "100"}))

	assert.True(t, cfg.Debug)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, 100, cfg.MaxDimension)
	require.NoError(t, cfg.Validate())
}
