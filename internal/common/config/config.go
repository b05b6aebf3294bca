// internal/common/config/config.go
package config

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig               `mapstructure:"app"`
	Camunda  CamundaConfig           `mapstructure:"camunda"`
	Database DatabaseConfig          `mapstructure:"database"`
	Workers  map[string]WorkerConfig `mapstructure:"workers"`
	APIs     APIsConfig              `mapstructure:"apis"`
	Analysis AnalysisConfig          `mapstructure:"analysis"`
	Dataset  DatasetConfig           `mapstructure:"dataset"`
	Logging  LoggingConfig           `mapstructure:"logging"`
	Metrics  MetricsConfig           `mapstructure:"metrics"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"` // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"`
}

// APIsConfig holds settings for external API integrations.
type APIsConfig struct {
	GenAI GenAIConfig `mapstructure:"genai"`
}

// GenAIConfig selects and configures the text generator. Provider "gemini"
// talks to the Gemini API directly, "gateway" posts to an internal GenAI
// gateway at BaseURL.
type GenAIConfig struct {
	Provider    string  `mapstructure:"provider"`
	BaseURL     string  `mapstructure:"base_url"`
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	Timeout     int     `mapstructure:"timeout"` // milliseconds
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
	RateLimit   float64 `mapstructure:"rate_limit"` // requests per second, 0 = unlimited
	Burst       int     `mapstructure:"burst"`
}

// AnalysisConfig holds the classification thresholds and the analysis cache.
type AnalysisConfig struct {
	NetworkName      string  `mapstructure:"network_name"`
	City             string  `mapstructure:"city"`
	VitalThreshold   float64 `mapstructure:"vital_threshold"`
	TopTierThreshold int     `mapstructure:"top_tier_threshold"`
	TopTierFraction  float64 `mapstructure:"top_tier_fraction"`
	TierPolicy       string  `mapstructure:"tier_policy"`
	CacheBackend     string  `mapstructure:"cache_backend"`
	CacheTTL         int     `mapstructure:"cache_ttl"` // seconds
	Concurrency      int     `mapstructure:"concurrency"`
}

// DatasetConfig points at the partner file loaded at start-up.
type DatasetConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// MetricsConfig controls the health and metrics listener.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
}
