package partner

import (
	"fmt"
	"math"
	"sort"

	"partner-insights/internal/models"
)

// TierPolicy decides the top-tier flag of every partner in a population.
// Policies that only look at a single record ignore the rest of the slice.
type TierPolicy interface {
	Name() string
	Apply(partners []models.Partner)
}

const (
	PolicyThreshold  = "threshold"
	PolicyStoredFlag = "stored"
	PolicyPercentile = "percentile"
)

const (
	DefaultTopTierThreshold = 80
	DefaultTopTierFraction  = 0.2
)

// ScoreThresholdPolicy flags partners whose usage score is strictly greater
// than Threshold. This is the rule the store applies on creation.
type ScoreThresholdPolicy struct {
	Threshold int
}

func (p ScoreThresholdPolicy) Name() string { return PolicyThreshold }

func (p ScoreThresholdPolicy) Apply(partners []models.Partner) {
	for i := range partners {
		partners[i].IsTop20 = p.IsTop(partners[i])
	}
}

func (p ScoreThresholdPolicy) IsTop(partner models.Partner) bool {
	return partner.UsageScore > p.Threshold
}

// StoredFlagPolicy keeps whatever flag the record arrived with.
type StoredFlagPolicy struct{}

func (StoredFlagPolicy) Name() string                  { return PolicyStoredFlag }
func (StoredFlagPolicy) Apply(partners []models.Partner) {}

// PercentilePolicy flags the top ceil(n*Fraction) partners by usage score.
// Partners tied with the score at the cut-off are flagged as well, so the
// flagged count can exceed the target.
type PercentilePolicy struct {
	Fraction float64
}

func (p PercentilePolicy) Name() string { return PolicyPercentile }

func (p PercentilePolicy) Apply(partners []models.Partner) {
	for i := range partners {
		partners[i].IsTop20 = false
	}
	cutoff, ok := p.Cutoff(partners)
	if !ok {
		return
	}
	for i := range partners {
		partners[i].IsTop20 = partners[i].UsageScore >= cutoff
	}
}

// Cutoff returns the lowest score still inside the top tier.
func (p PercentilePolicy) Cutoff(partners []models.Partner) (int, bool) {
	n := len(partners)
	if n == 0 || p.Fraction <= 0 {
		return 0, false
	}
	target := int(math.Ceil(float64(n) * p.Fraction))
	if target > n {
		target = n
	}
	scores := make([]int, n)
	for i, partner := range partners {
		scores[i] = partner.UsageScore
	}
	sort.Sort(sort.Reverse(sort.IntSlice(scores)))
	return scores[target-1], true
}

// NewTierPolicy builds a policy by name.
func NewTierPolicy(name string, threshold int, fraction float64) (TierPolicy, error) {
	switch name {
	case "", PolicyThreshold:
		return ScoreThresholdPolicy{Threshold: threshold}, nil
	case PolicyStoredFlag:
		return StoredFlagPolicy{}, nil
	case PolicyPercentile:
		return PercentilePolicy{Fraction: fraction}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownPolicy, name)
}

// TierFilter is the list filter of the partner table.
type TierFilter string

const (
	TierAll  TierFilter = "all"
	TierTop  TierFilter = "top"
	TierBase TierFilter = "base"
)

func ParseTierFilter(s string) (TierFilter, error) {
	switch TierFilter(s) {
	case "", TierAll:
		return TierAll, nil
	case TierTop, "top20":
		return TierTop, nil
	case TierBase, "bottom80":
		return TierBase, nil
	}
	return "", fmt.Errorf("unknown tier filter %q", s)
}

// Partition keeps the partners matching f by their stored flag, preserving order.
func Partition(partners []models.Partner, f TierFilter) []models.Partner {
	out := make([]models.Partner, 0, len(partners))
	for _, p := range partners {
		switch {
		case f == TierTop && !p.IsTop20:
			continue
		case f == TierBase && p.IsTop20:
			continue
		}
		out = append(out, p)
	}
	return out
}
