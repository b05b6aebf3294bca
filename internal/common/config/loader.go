// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	TierPolicyThreshold  = "threshold"
	TierPolicyStored     = "stored"
	TierPolicyPercentile = "percentile"

	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"

	ProviderGemini  = "gemini"
	ProviderGateway = "gateway"
)

// Load reads configs/config.yaml, merges config.<APP_ENVIRONMENT>.yaml on top
// and applies environment overrides.
func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")
	bindEnv(v)

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // optional

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	bindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func bindEnv(v *viper.Viper) {
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{".env", "../.env", "../../.env"}
	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// findProjectRoot walks up from the working directory looking for go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// expandEnvVars resolves ${VAR} placeholders in string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			if expanded := os.ExpandEnv(strVal); expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

// overrideEmptyConfig fills credentials from well-known variables when the
// file left them blank.
func overrideEmptyConfig(cfg *Config) {
	if cfg.APIs.GenAI.APIKey == "" {
		for _, name := range []string{"GENAI_API_KEY", "GEMINI_API_KEY", "API_KEY"} {
			if val := os.Getenv(name); val != "" {
				cfg.APIs.GenAI.APIKey = val
				break
			}
		}
	}
	if cfg.Database.Redis.Address == "" {
		if val := os.Getenv("REDIS_ADDRESS"); val != "" {
			cfg.Database.Redis.Address = val
		}
	}
	if cfg.Database.Redis.Password == "" {
		if val := os.Getenv("REDIS_PASSWORD"); val != "" {
			cfg.Database.Redis.Password = val
		}
	}
}

// applyDefaults sets default values for optional configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "partner-insights"
	}

	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 10
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 30000
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = 30000
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	for key, worker := range cfg.Workers {
		if worker.MaxJobsActive == 0 {
			worker.MaxJobsActive = 5
		}
		if worker.Timeout == 0 {
			worker.Timeout = 30000
		}
		cfg.Workers[key] = worker
	}

	genai := &cfg.APIs.GenAI
	if genai.Provider == "" {
		genai.Provider = ProviderGemini
	}
	if genai.Model == "" {
		genai.Model = "gemini-3-flash-preview"
	}
	if genai.Timeout == 0 {
		genai.Timeout = 30000
	}
	if genai.MaxTokens == 0 {
		genai.MaxTokens = 512
	}

	a := &cfg.Analysis
	if a.NetworkName == "" {
		a.NetworkName = "Rede Valorize + Saúde"
	}
	if a.City == "" {
		a.City = "Uberlândia/MG"
	}
	if a.VitalThreshold == 0 {
		a.VitalThreshold = 0.75
	}
	if a.TopTierThreshold == 0 {
		a.TopTierThreshold = 80
	}
	if a.TopTierFraction == 0 {
		a.TopTierFraction = 0.2
	}
	if a.TierPolicy == "" {
		a.TierPolicy = TierPolicyThreshold
	}
	if a.CacheBackend == "" {
		a.CacheBackend = CacheBackendMemory
	}
	if a.CacheTTL == 0 {
		a.CacheTTL = 8 * 60 * 60
	}
	if a.Concurrency == 0 {
		a.Concurrency = 4
	}

	if cfg.Metrics.Address == "" {
		cfg.Metrics.Address = ":8080"
	}
}

// validateConfig validates critical configuration fields.
func validateConfig(cfg *Config) error {
	a := cfg.Analysis
	if a.VitalThreshold <= 0 || a.VitalThreshold > 1 {
		return fmt.Errorf("analysis.vital_threshold must be in (0, 1], got %v", a.VitalThreshold)
	}
	if a.TopTierThreshold < 0 || a.TopTierThreshold > 100 {
		return fmt.Errorf("analysis.top_tier_threshold must be in [0, 100], got %d", a.TopTierThreshold)
	}
	if a.TopTierFraction <= 0 || a.TopTierFraction > 1 {
		return fmt.Errorf("analysis.top_tier_fraction must be in (0, 1], got %v", a.TopTierFraction)
	}

	switch a.TierPolicy {
	case TierPolicyThreshold, TierPolicyStored, TierPolicyPercentile:
	default:
		return fmt.Errorf("analysis.tier_policy %q is not one of threshold, stored, percentile", a.TierPolicy)
	}

	switch a.CacheBackend {
	case CacheBackendMemory:
	case CacheBackendRedis:
		if cfg.Database.Redis.Address == "" {
			return fmt.Errorf("database.redis.address is required when analysis.cache_backend is redis")
		}
	default:
		return fmt.Errorf("analysis.cache_backend %q is not one of memory, redis", a.CacheBackend)
	}

	if cfg.APIs.GenAI.RateLimit < 0 {
		return fmt.Errorf("apis.genai.rate_limit must not be negative, got %v", cfg.APIs.GenAI.RateLimit)
	}

	switch cfg.APIs.GenAI.Provider {
	case ProviderGemini:
	case ProviderGateway:
		if cfg.APIs.GenAI.BaseURL == "" {
			return fmt.Errorf("apis.genai.base_url is required for the gateway provider")
		}
	default:
		return fmt.Errorf("apis.genai.provider %q is not one of gemini, gateway", cfg.APIs.GenAI.Provider)
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration.
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetWorkerConfig retrieves worker-specific configuration with fallback to defaults.
func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker
	}
	return WorkerConfig{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       30000,
	}
}

// IsWorkerEnabled reports whether a worker is enabled; unknown workers are.
func IsWorkerEnabled(cfg *Config, workerName string) bool {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker.Enabled
	}
	return true
}
