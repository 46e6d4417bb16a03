package app

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestApplyRuntimeDefaultsGeneratesMissingSecret(t *testing.T) {
	cfg := &Config{}

	generated, err := ApplyRuntimeDefaults(cfg)
	require.NoError(t, err)
	require.NotEmpty(t, cfg.Session.Secret)
	require.True(t, generated["session.secret"])

	other := &Config{}
	_, err = ApplyRuntimeDefaults(other)
	require.NoError(t, err)
	require.NotEqual(t, cfg.Session.Secret, other.Session.Secret)
}

func TestApplyRuntimeDefaultsPreservesExistingSecret(t *testing.T) {
	cfg := &Config{}
	cfg.Session.Secret = strings.Repeat("a", 10)

	generated, err := ApplyRuntimeDefaults(cfg)
	require.NoError(t, err)
	require.Empty(t, generated)
	require.Equal(t, strings.Repeat("a", 10), cfg.Session.Secret)
}

func TestApplyRuntimeDefaultsNilConfig(t *testing.T) {
	_, err := ApplyRuntimeDefaults(nil)
	require.ErrorContains(t, err, "config is nil")
}
