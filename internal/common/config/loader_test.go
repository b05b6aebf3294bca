package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile_Defaults(t *testing.T) {
	t.Setenv("GENAI_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("API_KEY", "")

	cfg, err := LoadFromFile(writeConfig(t, "app:\n  name: insights-test\n"))
	require.NoError(t, err)

	assert.Equal(t, "insights-test", cfg.App.Name)
	assert.Equal(t, 0.75, cfg.Analysis.VitalThreshold)
	assert.Equal(t, 80, cfg.Analysis.TopTierThreshold)
	assert.Equal(t, 0.2, cfg.Analysis.TopTierFraction)
	assert.Equal(t, TierPolicyThreshold, cfg.Analysis.TierPolicy)
	assert.Equal(t, CacheBackendMemory, cfg.Analysis.CacheBackend)
	assert.Equal(t, ProviderGemini, cfg.APIs.GenAI.Provider)
	assert.Equal(t, "gemini-3-flash-preview", cfg.APIs.GenAI.Model)
	assert.Equal(t, 30000, cfg.APIs.GenAI.Timeout)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, ":8080", cfg.Metrics.Address)
}

func TestLoadFromFile_EnvExpansionAndOverride(t *testing.T) {
	t.Setenv("TEST_REDIS_ADDR", "localhost:6390")
	t.Setenv("GENAI_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "gemini-secret")

	cfg, err := LoadFromFile(writeConfig(t, `
database:
  redis:
    address: ${TEST_REDIS_ADDR}
analysis:
  cache_backend: redis
  tier_policy: percentile
workers:
  analyze-partner:
    enabled: true
`))
	require.NoError(t, err)

	assert.Equal(t, "localhost:6390", cfg.Database.Redis.Address)
	assert.Equal(t, "gemini-secret", cfg.APIs.GenAI.APIKey)
	assert.Equal(t, TierPolicyPercentile, cfg.Analysis.TierPolicy)

	w := GetWorkerConfig(cfg, "analyze-partner")
	assert.True(t, w.Enabled)
	assert.Equal(t, 5, w.MaxJobsActive)
	assert.Equal(t, 30000, w.Timeout)
}

func TestLoadFromFile_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
		msg  string
	}{
		{"threshold above one", "analysis:\n  vital_threshold: 1.5\n", "vital_threshold"},
		{"score threshold out of range", "analysis:\n  top_tier_threshold: 120\n", "top_tier_threshold"},
		{"unknown tier policy", "analysis:\n  tier_policy: median\n", "tier_policy"},
		{"redis without address", "analysis:\n  cache_backend: redis\n", "database.redis.address"},
		{"unknown cache backend", "analysis:\n  cache_backend: disk\n", "cache_backend"},
		{"gateway without url", "apis:\n  genai:\n    provider: gateway\n", "base_url"},
		{"unknown provider", "apis:\n  genai:\n    provider: openai\n", "provider"},
		{"negative rate limit", "apis:\n  genai:\n    rate_limit: -1\n", "rate_limit"},
	}

	t.Setenv("REDIS_ADDRESS", "")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, 1500*time.Millisecond, GetDuration(1500))

	cfg := &Config{Workers: map[string]WorkerConfig{"aggregate-partners": {Enabled: false}}}
	assert.False(t, IsWorkerEnabled(cfg, "aggregate-partners"))
	assert.True(t, IsWorkerEnabled(cfg, "analyze-partner"))
	assert.True(t, GetWorkerConfig(cfg, "analyze-partner").Enabled)
}

func TestLoadFromFile_ShippedConfig(t *testing.T) {
	cfg, err := LoadFromFile(filepath.Join("..", "..", "..", "configs", "config.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "partner-insights", cfg.App.Name)
	assert.Equal(t, TierPolicyThreshold, cfg.Analysis.TierPolicy)
	assert.Equal(t, CacheBackendMemory, cfg.Analysis.CacheBackend)
	assert.Equal(t, 4, cfg.Workers["analyze-partner"].MaxJobsActive)
	assert.Equal(t, "configs/partners.yaml", cfg.Dataset.Path)
	assert.Equal(t, 2.0, cfg.APIs.GenAI.RateLimit)
	assert.Equal(t, 4, cfg.APIs.GenAI.Burst)
}
