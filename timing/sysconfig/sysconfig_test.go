package sysconfig_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sarchlab/cachesim/timing/cache"
	"github.com/sarchlab/cachesim/timing/sysconfig"
)

func TestDefaultTranslates(t *testing.T) {
	config := sysconfig.Default()

	cacheConfig, err := config.CacheConfig()
	require.NoError(t, err)
	assert.Equal(t, cache.FullyAssociative, cacheConfig.Organization)
	assert.Equal(t, cache.PolicyRoundRobin, cacheConfig.Policy)
	assert.Equal(t, 16, cacheConfig.NumEntries)

	accelConfig, err := config.AccelConfig()
	require.NoError(t, err)
	assert.Equal(t, 8, accelConfig.TrackerDepth)

	memConfig := config.MemConfig()
	assert.Equal(t, 20, memConfig.Latency)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "system.json")
	content := `{
		"organization": "set-associative",
		"num_entries": 32,
		"num_ways": 4,
		"memory_latency": 50
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	config, err := sysconfig.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "set-associative", config.Organization)
	assert.Equal(t, 32, config.NumEntries)
	assert.Equal(t, 4, config.NumWays)
	assert.Equal(t, 50, config.MemoryLatency)
	// Untouched fields keep defaults.
	assert.Equal(t, "round-robin", config.Policy)
	assert.Equal(t, 8, config.ChannelDepth)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := sysconfig.Load(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := sysconfig.Load(path)
	assert.Error(t, err)
}

func TestUnknownOrganizationRejected(t *testing.T) {
	config := sysconfig.Default()
	config.Organization = "skewed"

	_, err := config.CacheConfig()
	assert.ErrorContains(t, err, "organization")
}

func TestUnknownPolicyRejected(t *testing.T) {
	config := sysconfig.Default()
	config.Policy = "random"

	_, err := config.CacheConfig()
	assert.ErrorContains(t, err, "policy")
}
