package partner

import (
	"testing"

	"partner-insights/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func revenueGroups(revenues ...float64) []Group {
	groups := make([]Group, len(revenues))
	for i, r := range revenues {
		groups[i] = Group{Key: string(rune('A' + i)), Tally: Tally{Count: 1, TotalRevenue: r}}
	}
	return groups
}

func vitalFlags(groups []ParetoGroup) []bool {
	out := make([]bool, len(groups))
	for i, g := range groups {
		out[i] = g.Vital
	}
	return out
}

func TestClassifyPareto(t *testing.T) {
	tests := []struct {
		name      string
		revenues  []float64
		threshold float64
		want      []bool
	}{
		{"worked example", []float64{100, 50, 30, 20}, 0.75, []bool{true, true, false, false}},
		{"single group", []float64{500}, 0.75, []bool{true}},
		{"zero total", []float64{0, 0, 0}, 0.75, []bool{true, true, true}},
		{"group crossing the line stays vital", []float64{70, 10, 10, 10}, 0.75, []bool{true, true, false, false}},
		{"exact boundary is not vital", []float64{75, 25}, 0.75, []bool{true, false}},
		{"empty", nil, 0.75, []bool{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyPareto(revenueGroups(tt.revenues...), tt.threshold)
			assert.Equal(t, tt.want, vitalFlags(got))
		})
	}
}

func TestClassifyPareto_Shares(t *testing.T) {
	got := ClassifyPareto(revenueGroups(100, 50, 30, 20), DefaultVitalThreshold)
	require.Len(t, got, 4)

	assert.InDelta(t, 0.0, got[0].Share, 1e-9)
	assert.InDelta(t, 0.5, got[1].Share, 1e-9)
	assert.InDelta(t, 0.75, got[2].Share, 1e-9)
	assert.InDelta(t, 0.9, got[3].Share, 1e-9)
	assert.InDelta(t, 180.0, got[3].CumulativeBefore, 1e-9)

	assert.Equal(t, "Curve A", got[0].Label())
	assert.Equal(t, "Complementary", got[3].Label())
}

func TestParetoBy(t *testing.T) {
	got := ParetoBy(samplePartners(), DimensionSegment, DefaultVitalThreshold)
	require.Len(t, got, 4)

	// revenues: SAÚDE 4300, FITNESS 900, ALIMENTAÇÃO 900, PET 450 of 6550
	assert.Equal(t, []string{string(models.SegmentHealth), string(models.SegmentFitness)}, VitalKeys(got))
}
