package partner

import "partner-insights/internal/models"

// DefaultVitalThreshold is the cumulative revenue share below which a group
// still belongs to the principal (Curve A) cohort.
const DefaultVitalThreshold = 0.75

// ParetoGroup is a revenue group tagged with its Pareto classification.
type ParetoGroup struct {
	Group
	CumulativeBefore float64 `json:"cumulativeBefore"`
	Share            float64 `json:"share"`
	Vital            bool    `json:"vital"`
}

// Label is the dashboard legend for the group.
func (g ParetoGroup) Label() string {
	if g.Vital {
		return "Curve A"
	}
	return "Complementary"
}

// ClassifyPareto tags groups, which must already be sorted descending by
// revenue. A group is vital when the revenue accumulated before it, as a
// share of the total, is strictly below threshold. The group that crosses the
// threshold is therefore still vital.
//
// A zero total defines every share as 0, so all groups are vital.
func ClassifyPareto(groups []Group, threshold float64) []ParetoGroup {
	total := 0.0
	for _, g := range groups {
		total += g.TotalRevenue
	}

	out := make([]ParetoGroup, len(groups))
	cumulative := 0.0
	for i, g := range groups {
		share := 0.0
		if total != 0 {
			share = cumulative / total
		}
		out[i] = ParetoGroup{
			Group:            g,
			CumulativeBefore: cumulative,
			Share:            share,
			Vital:            share < threshold,
		}
		cumulative += g.TotalRevenue
	}
	return out
}

// ParetoBy aggregates partners under d, orders the groups by revenue and
// classifies them.
func ParetoBy(partners []models.Partner, d Dimension, threshold float64) []ParetoGroup {
	return ClassifyPareto(Aggregate(partners, d).Sorted(MetricRevenue), threshold)
}

// VitalKeys returns the keys of the vital groups in order.
func VitalKeys(groups []ParetoGroup) []string {
	var keys []string
	for _, g := range groups {
		if g.Vital {
			keys = append(keys, g.Key)
		}
	}
	return keys
}
