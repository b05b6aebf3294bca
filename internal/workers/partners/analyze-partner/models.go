// internal/workers/partners/analyze-partner/models.go
package analyzepartner

import "partner-insights/internal/models"

type Input struct {
	Partner models.Partner `json:"partner"`
	Refresh bool           `json:"refresh"`
}

// Output always carries displayable text. ErrorKind is empty on success and
// names the failure class when the text is the fallback message.
type Output struct {
	PartnerID      string `json:"partnerId"`
	Recommendation string `json:"recommendation"`
	Strategy       string `json:"strategy"`
	ErrorKind      string `json:"errorKind"`
	Cached         bool   `json:"cached"`
}
