// internal/models/analysis.go
package models

// AnalysisResult is the generated recommendation for one partner. It lives in
// a session-scoped cache and is never persisted.
type AnalysisResult struct {
	PartnerID      string `json:"partnerId"`
	Recommendation string `json:"recommendation"`
	Strategy       string `json:"strategy"`
}
