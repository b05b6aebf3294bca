// Package partner holds the partner record store and the pure aggregation,
// Pareto and tier computations that feed the dashboard reports.
package partner

import (
	"fmt"
	"sort"

	"partner-insights/internal/models"
)

// Dimension selects the grouping key for Aggregate.
type Dimension string

const (
	DimensionSegment  Dimension = "segment"
	DimensionLocation Dimension = "location"
	DimensionNone     Dimension = "none"
)

// OverallKey is the single group key used by DimensionNone.
const OverallKey = "ALL"

// ParseDimension accepts the wire names of the dimensions; empty means segment.
func ParseDimension(s string) (Dimension, error) {
	switch Dimension(s) {
	case "", DimensionSegment:
		return DimensionSegment, nil
	case DimensionLocation:
		return DimensionLocation, nil
	case DimensionNone:
		return DimensionNone, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDimension, s)
}

// Key returns the group key of p under d.
func (d Dimension) Key(p models.Partner) string {
	switch d {
	case DimensionLocation:
		return p.Location
	case DimensionNone:
		return OverallKey
	default:
		return string(p.Segment)
	}
}

// Metric orders flattened groups.
type Metric string

const (
	MetricCount   Metric = "count"
	MetricRevenue Metric = "revenue"
)

// ParseMetric accepts the wire names of the metrics; empty means count.
func ParseMetric(s string) (Metric, error) {
	switch Metric(s) {
	case "", MetricCount:
		return MetricCount, nil
	case MetricRevenue:
		return MetricRevenue, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMetric, s)
}

// Tally is the per-group accumulator.
type Tally struct {
	Count        int     `json:"count"`
	ActiveCount  int     `json:"activeCount"`
	ReviewCount  int     `json:"reviewCount"`
	RiskCount    int     `json:"riskCount"`
	TotalRevenue float64 `json:"totalRevenue"`
}

func (t *Tally) add(p models.Partner) {
	t.Count++
	switch p.Status {
	case models.StatusActive:
		t.ActiveCount++
	case models.StatusUnderReview:
		t.ReviewCount++
	case models.StatusAtRisk:
		t.RiskCount++
	}
	t.TotalRevenue += p.MonthlyRevenue
}

// Group is one flattened entry of an Aggregation.
type Group struct {
	Key string `json:"key"`
	Tally
}

// Aggregation maps group keys to tallies and remembers the order in which
// keys were first encountered so that flattening is deterministic.
type Aggregation struct {
	Dimension Dimension
	tallies   map[string]*Tally
	order     []string
}

// Aggregate groups partners by d. An empty input yields an empty Aggregation.
func Aggregate(partners []models.Partner, d Dimension) *Aggregation {
	agg := &Aggregation{
		Dimension: d,
		tallies:   make(map[string]*Tally),
	}
	for _, p := range partners {
		key := d.Key(p)
		t, ok := agg.tallies[key]
		if !ok {
			t = &Tally{}
			agg.tallies[key] = t
			agg.order = append(agg.order, key)
		}
		t.add(p)
	}
	return agg
}

func (a *Aggregation) Len() int {
	return len(a.order)
}

// Tally returns a copy of the tally for key.
func (a *Aggregation) Tally(key string) (Tally, bool) {
	t, ok := a.tallies[key]
	if !ok {
		return Tally{}, false
	}
	return *t, true
}

// Groups flattens in first-encounter order.
func (a *Aggregation) Groups() []Group {
	out := make([]Group, 0, len(a.order))
	for _, key := range a.order {
		out = append(out, Group{Key: key, Tally: *a.tallies[key]})
	}
	return out
}

// Sorted flattens descending by m; ties keep first-encounter order.
func (a *Aggregation) Sorted(m Metric) []Group {
	groups := a.Groups()
	SortGroups(groups, m)
	return groups
}

// Top is Sorted truncated to at most n groups; n <= 0 means no limit.
func (a *Aggregation) Top(m Metric, n int) []Group {
	groups := a.Sorted(m)
	if n > 0 && len(groups) > n {
		groups = groups[:n]
	}
	return groups
}

// TotalCount and TotalRevenue sum across every group.
func (a *Aggregation) TotalCount() int {
	total := 0
	for _, t := range a.tallies {
		total += t.Count
	}
	return total
}

func (a *Aggregation) TotalRevenue() float64 {
	total := 0.0
	for _, key := range a.order {
		total += a.tallies[key].TotalRevenue
	}
	return total
}

// SortGroups sorts in place, descending by m, stable on ties.
func SortGroups(groups []Group, m Metric) {
	sort.SliceStable(groups, func(i, j int) bool {
		if m == MetricRevenue {
			return groups[i].TotalRevenue > groups[j].TotalRevenue
		}
		return groups[i].Count > groups[j].Count
	})
}
