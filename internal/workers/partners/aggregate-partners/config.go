// internal/workers/partners/aggregate-partners/config.go
package aggregatepartners

import (
	"fmt"
	"time"

	"partner-insights/internal/common/config"
	"partner-insights/internal/partner"
)

type Config struct {
	Enabled        bool          `mapstructure:"enabled"`
	MaxJobsActive  int           `mapstructure:"max_jobs_active"`
	Timeout        time.Duration `mapstructure:"timeout"`
	VitalThreshold float64       `mapstructure:"vital_threshold"`
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:        true,
		MaxJobsActive:  5,
		Timeout:        10 * time.Second,
		VitalThreshold: partner.DefaultVitalThreshold,
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxJobsActive <= 0 {
		return fmt.Errorf("max_jobs_active must be positive")
	}
	if c.VitalThreshold <= 0 || c.VitalThreshold > 1 {
		return fmt.Errorf("vital_threshold must be in (0, 1]")
	}
	return nil
}

func createConfigFromAppConfig(appCfg *config.Config, custom *Config) *Config {
	if custom != nil {
		return custom
	}
	cfg := DefaultConfig()
	if appCfg == nil {
		return cfg
	}
	wc := config.GetWorkerConfig(appCfg, TaskType)
	cfg.Enabled = wc.Enabled
	if wc.MaxJobsActive > 0 {
		cfg.MaxJobsActive = wc.MaxJobsActive
	}
	if wc.Timeout > 0 {
		cfg.Timeout = config.GetDuration(wc.Timeout)
	}
	if appCfg.Analysis.VitalThreshold > 0 {
		cfg.VitalThreshold = appCfg.Analysis.VitalThreshold
	}
	return cfg
}
