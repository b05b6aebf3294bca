package main

import (
	"errors"
	"fmt"

	"partner-insights/internal/models"
	"partner-insights/internal/partner"
	"partner-insights/internal/recommendation"

	"github.com/spf13/cobra"
)

func newReportCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Print the dashboard report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.build(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			return writeJSON(cmd.OutOrStdout(), a.Service.Report())
		},
	}
}

func newPartnersCmd(opts *rootOptions) *cobra.Command {
	var tier string
	cmd := &cobra.Command{
		Use:   "partners",
		Short: "List partners, optionally restricted to one tier",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := partner.ParseTierFilter(tier)
			if err != nil {
				return err
			}
			a, err := opts.build(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			return writeJSON(cmd.OutOrStdout(), a.Service.Partners(filter))
		},
	}
	cmd.Flags().StringVar(&tier, "tier", "all", "all, top or base")
	return cmd
}

type aggregateOutput struct {
	Groups    []partner.Group       `json:"groups"`
	Pareto    []partner.ParetoGroup `json:"pareto"`
	VitalKeys []string              `json:"vitalKeys"`
}

func newAggregateCmd(opts *rootOptions) *cobra.Command {
	var (
		dimension string
		metric    string
		limit     int
		threshold float64
	)
	cmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Group partners and classify the groups by revenue share",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := partner.ParseDimension(dimension)
			if err != nil {
				return err
			}
			m, err := partner.ParseMetric(metric)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("threshold") && (threshold <= 0 || threshold > 1) {
				return fmt.Errorf("--threshold must be in (0, 1], got %v", threshold)
			}
			a, err := opts.build(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if !cmd.Flags().Changed("threshold") {
				threshold = a.Config.Analysis.VitalThreshold
			}
			agg := partner.Aggregate(a.Service.Partners(partner.TierAll), d)
			pareto := partner.ClassifyPareto(agg.Sorted(partner.MetricRevenue), threshold)
			return writeJSON(cmd.OutOrStdout(), aggregateOutput{
				Groups:    agg.Top(m, limit),
				Pareto:    pareto,
				VitalKeys: partner.VitalKeys(pareto),
			})
		},
	}
	cmd.Flags().StringVar(&dimension, "dimension", "segment", "segment, location or none")
	cmd.Flags().StringVar(&metric, "metric", "count", "count or revenue")
	cmd.Flags().IntVar(&limit, "limit", 0, "keep only the first n groups (0 keeps all)")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "vital cumulative share (default analysis.vital_threshold)")
	return cmd
}

func newDensityCmd(opts *rootOptions) *cobra.Command {
	var (
		segment  string
		search   string
		location string
	)
	cmd := &cobra.Command{
		Use:   "density",
		Short: "Count partners per location",
		Long: `density counts partners per location after the segment and location
search filters. With --location it lists the partners of that location.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.build(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			filter := partner.DensityFilter{Segment: models.Segment(segment), Search: search}
			if location != "" {
				return writeJSON(cmd.OutOrStdout(), a.Service.PartnersIn(location, filter))
			}
			return writeJSON(cmd.OutOrStdout(), a.Service.Density(filter))
		},
	}
	cmd.Flags().StringVar(&segment, "segment", "", "only this segment")
	cmd.Flags().StringVar(&search, "search", "", "location substring, case-insensitive")
	cmd.Flags().StringVar(&location, "location", "", "list the partners of one location")
	return cmd
}

func newAnalyzeCmd(opts *rootOptions) *cobra.Command {
	var base bool
	cmd := &cobra.Command{
		Use:   "analyze [partner-id...]",
		Short: "Request a recommendation for partners",
		Long: `analyze asks the configured generator for a recommendation per partner.
With --base every partner outside the top tier is analysed. A failed request
prints the fallback text with its errorKind.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !base && len(args) == 0 {
				return errors.New("analyze needs partner ids or --base")
			}
			a, err := opts.build(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if base {
				return writeJSON(cmd.OutOrStdout(), a.Service.AnalyzeBase(cmd.Context()))
			}
			results := make([]recommendation.Result, 0, len(args))
			for _, id := range args {
				res, err := a.Service.Analyze(cmd.Context(), id)
				if err != nil {
					return err
				}
				results = append(results, res)
			}
			return writeJSON(cmd.OutOrStdout(), results)
		},
	}
	cmd.Flags().BoolVar(&base, "base", false, "analyse every partner outside the top tier")
	return cmd
}
