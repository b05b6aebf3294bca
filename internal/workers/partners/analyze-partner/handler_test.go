package analyzepartner

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	commonerrors "partner-insights/internal/common/errors"
	"partner-insights/internal/common/logger"
	"partner-insights/internal/models"
	"partner-insights/internal/recommendation"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mock Session Implementation
// ==========================

type MockSession struct {
	mock.Mock
}

func (m *MockSession) Analyze(ctx context.Context, p models.Partner) recommendation.Result {
	return m.Called(ctx, p).Get(0).(recommendation.Result)
}

func (m *MockSession) Lookup(ctx context.Context, id string) (recommendation.Result, bool) {
	args := m.Called(ctx, id)
	return args.Get(0).(recommendation.Result), args.Bool(1)
}

// ==========================
// Test Helpers
// ==========================

func createMockJob(key int64, variables map[string]interface{}) entities.Job {
	variablesJSON, _ := json.Marshal(variables)

	activatedJob := &pb.ActivatedJob{
		Key:                      key,
		Type:                     TaskType,
		ProcessInstanceKey:       key * 10,
		BpmnProcessId:            "partner-review",
		ProcessDefinitionVersion: 1,
		ProcessDefinitionKey:     1,
		ElementId:                "Activity_AnalyzePartner",
		ElementInstanceKey:       1,
		CustomHeaders:            "{}",
		Worker:                   "test-worker",
		Retries:                  3,
		Variables:                string(variablesJSON),
	}

	return entities.Job{ActivatedJob: activatedJob}
}

func createTestPartner() models.Partner {
	return models.Partner{
		ID:             "p-7",
		Name:           "Studio Beleza",
		Location:       "Martins",
		Segment:        models.SegmentBeauty,
		ContractStart:  "2024-09-15",
		UsageScore:     22,
		MonthlyRevenue: 180,
		Benefits:       []string{"10% em cortes"},
		Status:         models.StatusAtRisk,
	}
}

func createSuccessResult(id string) recommendation.Result {
	return recommendation.Result{Analysis: models.AnalysisResult{
		PartnerID:      id,
		Recommendation: "Renegociar Descontos",
		Strategy:       "Aumentar o desconto. Divulgar no aplicativo.",
	}}
}

func createTestHandler(t *testing.T, session Session, reuse bool) *Handler {
	t.Helper()
	h, err := NewHandler(HandlerOptions{
		CustomConfig: &Config{Enabled: true, MaxJobsActive: 5, Timeout: 5 * time.Second, ReuseCached: reuse},
		Session:      session,
		Logger:       logger.NewTestLogger(t),
	})
	require.NoError(t, err)
	return h
}

// ==========================
// Handler Creation Tests
// ==========================

func TestHandler_NewHandler(t *testing.T) {
	_, err := NewHandler(HandlerOptions{Logger: logger.NewNoOpLogger()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session is required")

	_, err = NewHandler(HandlerOptions{
		CustomConfig: &Config{MaxJobsActive: 1},
		Session:      new(MockSession),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout must be positive")

	h, err := NewHandler(HandlerOptions{Session: new(MockSession), Logger: logger.NewNoOpLogger()})
	require.NoError(t, err)
	assert.Equal(t, 5, h.MaxJobsActive())
}

// ==========================
// Execute Tests
// ==========================

func TestHandler_Execute_Fresh(t *testing.T) {
	session := new(MockSession)
	p := createTestPartner()
	session.On("Lookup", mock.Anything, "p-7").Return(recommendation.Result{}, false).Once()
	session.On("Analyze", mock.Anything, p).Return(createSuccessResult("p-7")).Once()

	out := createTestHandler(t, session, true).Execute(context.Background(), &Input{Partner: p})

	assert.Equal(t, &Output{
		PartnerID:      "p-7",
		Recommendation: "Renegociar Descontos",
		Strategy:       "Aumentar o desconto. Divulgar no aplicativo.",
	}, out)
	session.AssertExpectations(t)
}

func TestHandler_Execute_Cached(t *testing.T) {
	session := new(MockSession)
	session.On("Lookup", mock.Anything, "p-7").Return(createSuccessResult("p-7"), true).Once()

	out := createTestHandler(t, session, true).Execute(context.Background(), &Input{Partner: createTestPartner()})

	assert.True(t, out.Cached)
	assert.Empty(t, out.ErrorKind)
	session.AssertNotCalled(t, "Analyze", mock.Anything, mock.Anything)
}

func TestHandler_Execute_CachedFailureIsRetried(t *testing.T) {
	session := new(MockSession)
	session.On("Lookup", mock.Anything, "p-7").Return(recommendation.Sentinel("p-7", recommendation.KindTimeout), true).Once()
	session.On("Analyze", mock.Anything, mock.Anything).Return(createSuccessResult("p-7")).Once()

	out := createTestHandler(t, session, true).Execute(context.Background(), &Input{Partner: createTestPartner()})

	assert.False(t, out.Cached)
	assert.Equal(t, "Renegociar Descontos", out.Recommendation)
	session.AssertExpectations(t)
}

func TestHandler_Execute_RefreshSkipsCache(t *testing.T) {
	session := new(MockSession)
	session.On("Analyze", mock.Anything, mock.Anything).Return(createSuccessResult("p-7")).Once()

	out := createTestHandler(t, session, true).Execute(context.Background(), &Input{Partner: createTestPartner(), Refresh: true})

	assert.False(t, out.Cached)
	session.AssertNotCalled(t, "Lookup", mock.Anything, mock.Anything)
	session.AssertExpectations(t)
}

func TestHandler_Execute_FailureCompletesWithFallback(t *testing.T) {
	session := new(MockSession)
	session.On("Analyze", mock.Anything, mock.Anything).Return(recommendation.Sentinel("p-7", recommendation.KindService)).Once()

	out := createTestHandler(t, session, false).Execute(context.Background(), &Input{Partner: createTestPartner()})

	assert.Equal(t, "Analysis Error", out.Recommendation)
	assert.Equal(t, recommendation.SentinelStrategy, out.Strategy)
	assert.Equal(t, "service", out.ErrorKind)
	session.AssertNotCalled(t, "Lookup", mock.Anything, mock.Anything)
}

func TestHandler_Execute_WithRealSession(t *testing.T) {
	gen := recommendation.GeneratorFunc(func(context.Context, string) (string, error) {
		return `{"recommendation":"Campanha de Marketing"}`, nil
	})
	req := recommendation.NewRequester(gen, recommendation.RequesterConfig{Timeout: time.Second}, nil, logger.NewTestLogger(t))
	session := recommendation.NewSession(req, nil, "", logger.NewTestLogger(t))
	h := createTestHandler(t, session, true)

	first := h.Execute(context.Background(), &Input{Partner: createTestPartner()})
	assert.False(t, first.Cached)
	assert.Equal(t, recommendation.DefaultStrategy, first.Strategy)

	second := h.Execute(context.Background(), &Input{Partner: createTestPartner()})
	assert.True(t, second.Cached)
	assert.Equal(t, first.Recommendation, second.Recommendation)
}

// ==========================
// Input Parsing Tests
// ==========================

func TestHandler_ParseInput(t *testing.T) {
	h := createTestHandler(t, new(MockSession), true)

	tests := []struct {
		name    string
		vars    map[string]interface{}
		wantErr bool
	}{
		{"valid partner", map[string]interface{}{"partner": createTestPartner(), "refresh": true}, false},
		{"missing partner", map[string]interface{}{}, true},
		{"score out of range", map[string]interface{}{"partner": func() models.Partner {
			p := createTestPartner()
			p.UsageScore = 101
			return p
		}()}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input, err := h.parseInput(createMockJob(1, tt.vars))
			if !tt.wantErr {
				require.NoError(t, err)
				assert.Equal(t, "p-7", input.Partner.ID)
				assert.True(t, input.Refresh)
				return
			}
			require.Error(t, err)

			var stdErr *commonerrors.StandardError
			require.True(t, errors.As(err, &stdErr))
			assert.Equal(t, commonerrors.ErrCodePartnerValidationFailed, stdErr.Code)
			assert.False(t, stdErr.Retryable)
		})
	}
}
