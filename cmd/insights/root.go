package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"partner-insights/internal/app"
	"partner-insights/internal/common/config"
	"partner-insights/internal/common/logger"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath  string
	datasetPath string
	logLevel    string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "insights",
		Short: "Partner network reports and recommendations",
		Long: `insights loads a partner dataset and prints the dashboard views as JSON.

Available commands:
  report    - Summary, segment distribution, Pareto and contract status
  partners  - Partner list filtered by tier
  aggregate - Group partners by segment or location
  density   - Partner count per location
  analyze   - Strategic recommendation per partner`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file (default configs/config.yaml)")
	root.PersistentFlags().StringVarP(&opts.datasetPath, "dataset", "d", "", "partner dataset, JSON or YAML (overrides dataset.path)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level written to stderr")

	root.AddCommand(
		newReportCmd(opts),
		newPartnersCmd(opts),
		newAggregateCmd(opts),
		newDensityCmd(opts),
		newAnalyzeCmd(opts),
	)
	return root
}

// build loads the configuration and the dataset for one command run.
func (o *rootOptions) build(ctx context.Context) (*app.App, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = config.LoadFromFile(o.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if o.datasetPath != "" {
		cfg.Dataset.Path = o.datasetPath
	}
	if cfg.Dataset.Path == "" {
		return nil, fmt.Errorf("no partner dataset: set dataset.path or pass --dataset")
	}

	log := logger.NewStructured(o.logLevel, "console", "stderr")
	return app.New(ctx, cfg, log, app.Options{})
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
