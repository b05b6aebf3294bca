package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertToBPMNError(t *testing.T) {
	tests := []struct {
		name          string
		err           *StandardError
		expectedCode  string
		expectedRetry int
	}{
		{"validation", NewPartnerValidationFailedError("usageScore: must be <= 100"), "PARTNER_VALIDATION_FAILED", 0},
		{"timeout shares analysis code", NewAnalysisTimeoutError(), "ANALYSIS_FAILED", 0},
		{"malformed shares analysis code", NewAnalysisMalformedResponseError("bad json"), "ANALYSIS_FAILED", 0},
		{"cache retries", NewCacheUnavailableError(fmt.Errorf("dial tcp: refused")), "CACHE_UNAVAILABLE", 3},
		{"unknown code falls back", &StandardError{Code: "SOMETHING_ELSE", Message: "x"}, "SOMETHING_ELSE", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bpmn := ConvertToBPMNError(tt.err)
			assert.Equal(t, tt.expectedCode, bpmn.Code)
			assert.Equal(t, tt.expectedRetry, bpmn.Retries)
			assert.Equal(t, string(tt.err.Code), bpmn.ErrorVariables["originalErrorCode"])

			vars := bpmn.ToErrorVariables()
			assert.Equal(t, tt.expectedCode, vars["errorCode"])
			assert.Equal(t, tt.err.Message, vars["errorMessage"])
		})
	}
}

func TestNormalize(t *testing.T) {
	std := NewDuplicatePartnerError("p-9")
	wrapped := fmt.Errorf("insert: %w", std)

	got := Normalize(wrapped)
	require.NotNil(t, got)
	assert.Equal(t, ErrCodeDuplicatePartner, got.Code)
	assert.Contains(t, got.Details, "p-9")

	plain := Normalize(stderrors.New("boom"))
	assert.Equal(t, ErrCodeInternal, plain.Code)
	assert.Equal(t, "boom", plain.Details)
	assert.False(t, plain.Retryable)
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "AI", GetErrorCategory(ErrCodeAnalysisServiceFailed))
	assert.Equal(t, "PARTNER", GetErrorCategory(ErrCodePartnerValidationFailed))
	assert.Equal(t, "PARTNER", GetErrorCategory(ErrCodeDuplicatePartner))
	assert.Equal(t, "CACHE", GetErrorCategory(ErrCodeCacheUnavailable))
	assert.Equal(t, "DATASET", GetErrorCategory(ErrCodeDatasetLoadFailed))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeInvalidMetric))
	assert.Equal(t, "OTHER", GetErrorCategory(ErrCodeInternal))
}

func TestStandardError_Error(t *testing.T) {
	err := NewDuplicatePartnerError("p-1")
	assert.Equal(t, "StandardError[DUPLICATE_PARTNER]: Partner identifier already in use", err.Error())
	assert.False(t, err.Timestamp.IsZero())
}
