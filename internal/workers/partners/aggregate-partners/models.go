// internal/workers/partners/aggregate-partners/models.go
package aggregatepartners

import (
	"partner-insights/internal/models"
	"partner-insights/internal/partner"
)

type Input struct {
	Partners       []models.Partner `json:"partners"`
	Dimension      string           `json:"dimension"`
	Metric         string           `json:"metric"`
	Limit          int              `json:"limit"`
	VitalThreshold float64          `json:"vitalThreshold"`
}

type Output struct {
	Groups       []partner.Group       `json:"groups"`
	Pareto       []partner.ParetoGroup `json:"pareto"`
	VitalKeys    []string              `json:"vitalKeys"`
	TotalRevenue float64               `json:"totalRevenue"`
	PartnerCount int                   `json:"partnerCount"`
}
