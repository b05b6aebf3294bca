// Package dashboard composes the partner store, the report computations and
// the analysis session into the operations behind the dashboard views.
package dashboard

import (
	"context"
	"sort"

	"partner-insights/internal/common/logger"
	"partner-insights/internal/common/metrics"
	"partner-insights/internal/models"
	"partner-insights/internal/partner"
	"partner-insights/internal/recommendation"
)

// DefaultTopSegments is how many segments the distribution chart shows.
const DefaultTopSegments = 8

type Options struct {
	VitalThreshold float64
	TopSegments    int
	Concurrency    int
}

type Service struct {
	store   *partner.Store
	session *recommendation.Session
	opts    Options
	logger  logger.Logger
}

func NewService(store *partner.Store, session *recommendation.Session, opts Options, log logger.Logger) *Service {
	if opts.VitalThreshold <= 0 {
		opts.VitalThreshold = partner.DefaultVitalThreshold
	}
	if opts.TopSegments <= 0 {
		opts.TopSegments = DefaultTopSegments
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = recommendation.DefaultConcurrency
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Service{
		store:   store,
		session: session,
		opts:    opts,
		logger:  log.WithFields(map[string]interface{}{"component": "dashboard"}),
	}
}

func (s *Service) Add(draft models.PartnerDraft) (models.Partner, error) {
	p, err := s.store.Add(draft)
	if err != nil {
		return models.Partner{}, err
	}
	metrics.PartnersStored.Set(float64(s.store.Len()))
	return p, nil
}

// Seed inserts complete records, e.g. from a dataset file. It stops at the
// first rejected record.
func (s *Service) Seed(partners []models.Partner) error {
	for _, p := range partners {
		if err := s.store.Insert(p); err != nil {
			return err
		}
	}
	metrics.PartnersStored.Set(float64(s.store.Len()))
	s.logger.Info("Partners seeded", map[string]interface{}{"count": len(partners)})
	return nil
}

// Update replaces a record. A stored analysis is kept; the caller re-analyses
// when the change matters.
func (s *Service) Update(p models.Partner) (models.Partner, error) {
	return s.store.Update(p)
}

// Delete removes a record and abandons its analysis, in flight or stored.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(id); err != nil {
		return err
	}
	metrics.PartnersStored.Set(float64(s.store.Len()))
	if err := s.session.Forget(ctx, id); err != nil {
		s.logger.Warn("Failed to drop analysis of deleted partner", map[string]interface{}{
			"partnerId": id,
			"error":     err,
		})
	}
	return nil
}

func (s *Service) Get(id string) (models.Partner, error) {
	return s.store.Get(id)
}

func (s *Service) Partners(filter partner.TierFilter) []models.Partner {
	return partner.Partition(s.store.List(), filter)
}

type StatusBreakdown struct {
	Segment string `json:"segment"`
	Active  int    `json:"active"`
	Review  int    `json:"review"`
	Risk    int    `json:"risk"`
	Total   int    `json:"total"`
}

type Summary struct {
	TotalPartners  int     `json:"totalPartners"`
	ActivePartners int     `json:"activePartners"`
	AtRisk         int     `json:"atRisk"`
	OnWebsite      int     `json:"onWebsite"`
	TopTier        int     `json:"topTier"`
	TotalRevenue   float64 `json:"totalRevenue"`
	AverageScore   float64 `json:"averageScore"`
}

type Report struct {
	Summary             Summary               `json:"summary"`
	SegmentDistribution []partner.Group       `json:"segmentDistribution"`
	Pareto              []partner.ParetoGroup `json:"pareto"`
	ContractStatus      []StatusBreakdown     `json:"contractStatus"`
}

// Report recomputes every chart from the current records.
func (s *Service) Report() Report {
	partners := s.store.List()
	bySegment := partner.Aggregate(partners, partner.DimensionSegment)
	metrics.AggregationsTotal.WithLabelValues(string(partner.DimensionSegment)).Inc()

	return Report{
		Summary:             summarize(partners),
		SegmentDistribution: bySegment.Top(partner.MetricCount, s.opts.TopSegments),
		Pareto:              partner.ClassifyPareto(bySegment.Sorted(partner.MetricRevenue), s.opts.VitalThreshold),
		ContractStatus:      statusBreakdown(bySegment),
	}
}

func summarize(partners []models.Partner) Summary {
	var sum Summary
	scoreTotal := 0
	for _, p := range partners {
		sum.TotalPartners++
		switch p.Status {
		case models.StatusActive:
			sum.ActivePartners++
		case models.StatusAtRisk:
			sum.AtRisk++
		}
		if p.IsOnWebsite {
			sum.OnWebsite++
		}
		if p.IsTop20 {
			sum.TopTier++
		}
		sum.TotalRevenue += p.MonthlyRevenue
		scoreTotal += p.UsageScore
	}
	if sum.TotalPartners > 0 {
		sum.AverageScore = float64(scoreTotal) / float64(sum.TotalPartners)
	}
	return sum
}

func statusBreakdown(agg *partner.Aggregation) []StatusBreakdown {
	groups := agg.Groups()
	out := make([]StatusBreakdown, len(groups))
	for i, g := range groups {
		out[i] = StatusBreakdown{
			Segment: g.Key,
			Active:  g.ActiveCount,
			Review:  g.ReviewCount,
			Risk:    g.RiskCount,
			Total:   g.Count,
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Total > out[j].Total })
	return out
}

func (s *Service) Density(filter partner.DensityFilter) []partner.LocationCount {
	metrics.AggregationsTotal.WithLabelValues(string(partner.DimensionLocation)).Inc()
	return partner.Density(s.store.List(), filter)
}

func (s *Service) PartnersIn(location string, filter partner.DensityFilter) []models.Partner {
	return partner.InLocation(s.store.List(), location, filter)
}

// Analyze requests a fresh analysis of the stored partner id.
func (s *Service) Analyze(ctx context.Context, id string) (recommendation.Result, error) {
	p, err := s.store.Get(id)
	if err != nil {
		return recommendation.Result{}, err
	}
	res := s.session.Analyze(ctx, p)
	if err := s.dropIfDeleted(ctx, id); err != nil {
		return recommendation.Result{}, err
	}
	return res, nil
}

// AnalyzeBase analyses every partner outside the top tier, the cohort the
// recommendations are written for.
func (s *Service) AnalyzeBase(ctx context.Context) []recommendation.Result {
	results := s.session.AnalyzeAll(ctx, s.Partners(partner.TierBase), s.opts.Concurrency)
	for _, res := range results {
		_ = s.dropIfDeleted(ctx, res.Analysis.PartnerID)
	}
	return results
}

// dropIfDeleted forgets the analysis of a partner removed while it was being
// analysed, so no result outlives its record.
func (s *Service) dropIfDeleted(ctx context.Context, id string) error {
	_, err := s.store.Get(id)
	if err == nil {
		return nil
	}
	if ferr := s.session.Forget(ctx, id); ferr != nil {
		s.logger.Warn("Failed to drop analysis of deleted partner", map[string]interface{}{
			"partnerId": id,
			"error":     ferr,
		})
	}
	return err
}

func (s *Service) Insight(ctx context.Context, id string) (recommendation.Result, bool) {
	return s.session.Lookup(ctx, id)
}
