package config

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, 1024, cfg.VisitedPoolInitialCapacity)
	assert.Equal(t, 1000, cfg.PayloadBlockDefaultThreshold)
	assert.Equal(t, "local", cfg.ArtifactBackend)
	assert.Equal(t, "", cfg.CatalogDSN)
	assert.Equal(t, 4, cfg.BuildConcurrency)
	assert.Equal(t, 30*time.Second, cfg.OpenTimeout)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "STRUCTURED", cfg.Logging.Profile)
}

func TestLoadRuntimeOverrides(t *testing.T) {
	overrides := map[string]any{
		"artifact_backend": "s3",
		"s3": map[string]any{
			"bucket": "my-bucket",
			"region": "us-west-2",
		},
		"logging": map[string]any{
			"level": "debug",
		},
	}

	cfg, err := Load(context.Background(), overrides)
	require.NoError(t, err)

	assert.Equal(t, "s3", cfg.ArtifactBackend)
	assert.Equal(t, "my-bucket", cfg.S3.Bucket)
	assert.Equal(t, "us-west-2", cfg.S3.Region)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// Non-overridden values remain default.
	assert.Equal(t, 1000, cfg.PayloadBlockDefaultThreshold)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PAYLOADINDEX_CATALOG_DSN", "file:catalog.db")
	t.Setenv("PAYLOADINDEX_BUILD_CONCURRENCY", "8")

	cfg, err := Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "file:catalog.db", cfg.CatalogDSN)
	assert.Equal(t, 8, cfg.BuildConcurrency)
}

func TestGetConfigReturnsLastLoaded(t *testing.T) {
	cfg, err := Load(context.Background(), map[string]any{"build_concurrency": 16})
	require.NoError(t, err)

	current := GetConfig()
	require.NotNil(t, current)
	assert.Equal(t, cfg.BuildConcurrency, current.BuildConcurrency)
	assert.Equal(t, 16, current.BuildConcurrency)
}
