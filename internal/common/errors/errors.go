// Package errors provides standardized error handling for partner workers and
// their BPMN integration.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodePartnerValidationFailed ErrorCode = "PARTNER_VALIDATION_FAILED"
	ErrCodeDuplicatePartner        ErrorCode = "DUPLICATE_PARTNER"

	ErrCodeInvalidDimension ErrorCode = "INVALID_DIMENSION"
	ErrCodeInvalidMetric    ErrorCode = "INVALID_METRIC"

	ErrCodeDatasetLoadFailed ErrorCode = "DATASET_LOAD_FAILED"

	ErrCodeAnalysisTimeout           ErrorCode = "ANALYSIS_TIMEOUT"
	ErrCodeAnalysisServiceFailed     ErrorCode = "ANALYSIS_SERVICE_FAILED"
	ErrCodeAnalysisMalformedResponse ErrorCode = "ANALYSIS_MALFORMED_RESPONSE"

	ErrCodeCacheUnavailable ErrorCode = "CACHE_UNAVAILABLE"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

// NewPartnerValidationFailedError creates a non-retryable validation error.
func NewPartnerValidationFailedError(details string) *StandardError {
	return newError(ErrCodePartnerValidationFailed, "Partner record failed validation", details, false)
}

// NewDuplicatePartnerError creates a non-retryable conflict error.
func NewDuplicatePartnerError(partnerID string) *StandardError {
	return newError(ErrCodeDuplicatePartner, "Partner identifier already in use", fmt.Sprintf("partnerId: %s", partnerID), false)
}

func NewInvalidDimensionError(dimension string) *StandardError {
	return newError(ErrCodeInvalidDimension, "Unsupported grouping dimension", fmt.Sprintf("dimension: %s", dimension), false)
}

func NewInvalidMetricError(metric string) *StandardError {
	return newError(ErrCodeInvalidMetric, "Unsupported sort metric", fmt.Sprintf("metric: %s", metric), false)
}

// NewDatasetLoadFailedError creates a non-retryable dataset error.
func NewDatasetLoadFailedError(path string, err error) *StandardError {
	return newError(ErrCodeDatasetLoadFailed, "Partner dataset could not be loaded", fmt.Sprintf("path: %s, error: %s", path, err.Error()), false)
}

// NewAnalysisTimeoutError is reported when the text generator misses its deadline.
func NewAnalysisTimeoutError() *StandardError {
	return newError(ErrCodeAnalysisTimeout, "Recommendation request timed out", "", false)
}

// NewAnalysisServiceFailedError wraps a network or upstream failure.
func NewAnalysisServiceFailedError(err error) *StandardError {
	return newError(ErrCodeAnalysisServiceFailed, "Recommendation service failed", err.Error(), false)
}

// NewAnalysisMalformedResponseError is reported when the reply is not the expected JSON.
func NewAnalysisMalformedResponseError(details string) *StandardError {
	return newError(ErrCodeAnalysisMalformedResponse, "Recommendation reply was malformed", details, false)
}

// NewCacheUnavailableError creates a retryable cache error.
func NewCacheUnavailableError(err error) *StandardError {
	return newError(ErrCodeCacheUnavailable, "Analysis cache unavailable", err.Error(), true)
}

// NewInternalError wraps an unexpected error.
func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", err.Error(), false)
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes. Analysis
// failures share one boundary event in the process model.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodePartnerValidationFailed:   "PARTNER_VALIDATION_FAILED",
	ErrCodeDuplicatePartner:          "DUPLICATE_PARTNER",
	ErrCodeInvalidDimension:          "INVALID_REQUEST",
	ErrCodeInvalidMetric:             "INVALID_REQUEST",
	ErrCodeDatasetLoadFailed:         "DATASET_LOAD_FAILED",
	ErrCodeAnalysisTimeout:           "ANALYSIS_FAILED",
	ErrCodeAnalysisServiceFailed:     "ANALYSIS_FAILED",
	ErrCodeAnalysisMalformedResponse: "ANALYSIS_FAILED",
	ErrCodeCacheUnavailable:          "CACHE_UNAVAILABLE",
}

// GetRetryCount returns the recommended retry count for a code. Analysis
// failures are never retried automatically.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeCacheUnavailable:
		return 3
	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "ANALYSIS"):
		return "AI"
	case strings.Contains(codeStr, "PARTNER"):
		return "PARTNER"
	case strings.Contains(codeStr, "CACHE"):
		return "CACHE"
	case strings.Contains(codeStr, "DATASET"):
		return "DATASET"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
