package partner

import (
	"sort"
	"strings"

	"partner-insights/internal/models"
)

// DensityFilter narrows the neighbourhood view. A zero value matches every
// partner.
type DensityFilter struct {
	Segment models.Segment `json:"segment,omitempty"`
	Search  string         `json:"search,omitempty"`
}

func (f DensityFilter) Match(p models.Partner) bool {
	if f.Segment != "" && p.Segment != f.Segment {
		return false
	}
	search := strings.TrimSpace(f.Search)
	if search == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.Location), strings.ToLower(search))
}

type LocationCount struct {
	Location string `json:"location"`
	Count    int    `json:"count"`
}

// Density counts matching partners per location, most crowded first.
func Density(partners []models.Partner, f DensityFilter) []LocationCount {
	agg := Aggregate(Filter(partners, f), DimensionLocation)
	groups := agg.Sorted(MetricCount)
	out := make([]LocationCount, len(groups))
	for i, g := range groups {
		out[i] = LocationCount{Location: g.Key, Count: g.Count}
	}
	return out
}

// Filter returns the partners matching f in their original order.
func Filter(partners []models.Partner, f DensityFilter) []models.Partner {
	out := make([]models.Partner, 0, len(partners))
	for _, p := range partners {
		if f.Match(p) {
			out = append(out, p)
		}
	}
	return out
}

// InLocation lists the matching partners of one location, by name.
func InLocation(partners []models.Partner, location string, f DensityFilter) []models.Partner {
	var out []models.Partner
	for _, p := range partners {
		if p.Location == location && f.Match(p) {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
