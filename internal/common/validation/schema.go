package validation

import (
	"encoding/json"
	"fmt"
	"strings"

	"partner-insights/internal/models"

	"github.com/xeipuuv/gojsonschema"
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Err folds the result into a single error, or nil when valid.
func (r *ValidationResult) Err() error {
	if r == nil || r.Valid {
		return nil
	}
	parts := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		parts[i] = fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return fmt.Errorf("%s", strings.Join(parts, "; "))
}

var (
	partnerSchema = mustSchema(partnerSchemaJSON(true))
	draftSchema   = mustSchema(partnerSchemaJSON(false))
	replySchema   = mustSchema(analysisReplySchemaJSON)
)

// analysisReplySchemaJSON accepts an object whose recommendation and strategy,
// when present, are strings or null. Absent and null fields are handled by
// the caller.
const analysisReplySchemaJSON = `{
  "type": "object",
  "properties": {
    "recommendation": {"type": ["string", "null"]},
    "strategy": {"type": ["string", "null"]}
  }
}`

func partnerSchemaJSON(stored bool) string {
	segments := make([]string, len(models.Segments))
	for i, s := range models.Segments {
		segments[i] = string(s)
	}
	statuses := make([]string, len(models.ContractStatuses))
	for i, s := range models.ContractStatuses {
		statuses[i] = string(s)
	}

	required := []string{"name", "location", "segment", "usageScore", "monthlyRevenue", "status"}
	properties := map[string]interface{}{
		"name":           map[string]interface{}{"type": "string", "minLength": 1},
		"location":       map[string]interface{}{"type": "string"},
		"segment":        map[string]interface{}{"type": "string", "enum": segments},
		"usageScore":     map[string]interface{}{"type": "integer", "minimum": models.MinUsageScore, "maximum": models.MaxUsageScore},
		"monthlyRevenue": map[string]interface{}{"type": "number", "minimum": 0},
		"benefits":       map[string]interface{}{"type": []string{"array", "null"}, "items": map[string]interface{}{"type": "string"}},
		"status":         map[string]interface{}{"type": "string", "enum": statuses},
		"isOnWebsite":    map[string]interface{}{"type": "boolean"},
	}
	if stored {
		required = append(required, "id", "contractStart")
		properties["id"] = map[string]interface{}{"type": "string", "minLength": 1}
		properties["contractStart"] = map[string]interface{}{"type": "string", "pattern": `^\d{4}-\d{2}-\d{2}$`}
		properties["isTop20"] = map[string]interface{}{"type": "boolean"}
	}

	schema := map[string]interface{}{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}
	data, _ := json.Marshal(schema)
	return string(data)
}

func mustSchema(src string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("validation: invalid embedded schema: %v", err))
	}
	return schema
}

func toResult(res *gojsonschema.Result) *ValidationResult {
	out := &ValidationResult{Valid: res.Valid()}
	for _, e := range res.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   e.Field(),
			Message: e.Description(),
			Code:    strings.ToUpper(e.Type()),
		})
	}
	return out
}

// ValidatePartner checks a stored partner record.
func ValidatePartner(p models.Partner) *ValidationResult {
	res, err := partnerSchema.Validate(gojsonschema.NewGoLoader(p))
	if err != nil {
		return &ValidationResult{Errors: []ValidationError{{Field: "(root)", Message: err.Error(), Code: "INVALID_DOCUMENT"}}}
	}
	return toResult(res)
}

// ValidateDraft checks the caller-supplied fields of a new partner.
func ValidateDraft(d models.PartnerDraft) *ValidationResult {
	res, err := draftSchema.Validate(gojsonschema.NewGoLoader(d))
	if err != nil {
		return &ValidationResult{Errors: []ValidationError{{Field: "(root)", Message: err.Error(), Code: "INVALID_DOCUMENT"}}}
	}
	return toResult(res)
}

// ValidateAnalysisReply checks a raw generator reply. A non-nil error means
// the reply is not JSON at all.
func ValidateAnalysisReply(raw []byte) (*ValidationResult, error) {
	res, err := replySchema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("reply is not valid JSON: %w", err)
	}
	return toResult(res), nil
}
