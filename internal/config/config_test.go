package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 5555, cfg.Port)
	assert.Equal(t, 32, cfg.Workers)
	assert.Equal(t, 200*time.Millisecond, cfg.ReadTimeout)
}

func TestParse_OverridesDefaults(t *testing.T) {
	cfg, err := Parse([]string{"-port", "6000", "-workers", "8", "-read-timeout", "1s"})
	require.NoError(t, err)
	assert.Equal(t, 6000, cfg.Port)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, time.Second, cfg.ReadTimeout)
	assert.Equal(t, Default().Address, cfg.Address)
}

func TestParse_RejectsUnknownFlag(t *testing.T) {
	_, err := Parse([]string{"-bogus", "1"})
	assert.Error(t, err)
}
