package recommendation

import (
	"context"
	"errors"
	"testing"
	"time"

	commonerrors "partner-insights/internal/common/errors"
	"partner-insights/internal/common/logger"
	"partner-insights/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

func testPartner() models.Partner {
	return models.Partner{
		ID:             "p-42",
		Name:           "Ótica Central",
		Location:       "Centro",
		Segment:        models.SegmentHealth,
		ContractStart:  "2023-08-01",
		UsageScore:     35,
		MonthlyRevenue: 420.5,
		Benefits:       []string{"20% em armações", "Exame de vista grátis"},
		Status:         models.StatusUnderReview,
	}
}

func replying(text string, err error) Generator {
	return GeneratorFunc(func(context.Context, string) (string, error) { return text, err })
}

func newTestRequester(t *testing.T, gen Generator, timeout time.Duration) *Requester {
	return NewRequester(gen, RequesterConfig{Provider: "test", Timeout: timeout}, nil, logger.NewTestLogger(t))
}

func TestRequester_Analyze(t *testing.T) {
	tests := []struct {
		name      string
		reply     string
		genErr    error
		wantRec   string
		wantStrat string
		wantKind  ErrorKind
	}{
		{
			name:      "both fields",
			reply:     `{"recommendation":"Renegociar Descontos","strategy":"Ampliar o desconto. Divulgar no app."}`,
			wantRec:   "Renegociar Descontos",
			wantStrat: "Ampliar o desconto. Divulgar no app.",
		},
		{
			name:      "missing strategy takes default",
			reply:     `{"recommendation":"Campanha de Marketing"}`,
			wantRec:   "Campanha de Marketing",
			wantStrat: DefaultStrategy,
		},
		{
			name:      "null strategy takes default",
			reply:     `{"recommendation":"Renegociar","strategy":null}`,
			wantRec:   "Renegociar",
			wantStrat: DefaultStrategy,
		},
		{
			name:      "null recommendation takes default",
			reply:     `{"recommendation":null,"strategy":"Rever contrato."}`,
			wantRec:   DefaultRecommendation,
			wantStrat: "Rever contrato.",
		},
		{
			name:      "blank recommendation takes default",
			reply:     `{"recommendation":"   ","strategy":"Rever contrato."}`,
			wantRec:   DefaultRecommendation,
			wantStrat: "Rever contrato.",
		},
		{
			name:      "empty object takes both defaults",
			reply:     `{}`,
			wantRec:   DefaultRecommendation,
			wantStrat: DefaultStrategy,
		},
		{
			name:      "fenced json",
			reply:     "```json\n{\"recommendation\":\"Descontinuar\",\"strategy\":\"Baixo uso.\"}\n```",
			wantRec:   "Descontinuar",
			wantStrat: "Baixo uso.",
		},
		{
			name:      "service error",
			genErr:    errors.New("connection refused"),
			wantRec:   SentinelRecommendation,
			wantStrat: SentinelStrategy,
			wantKind:  KindService,
		},
		{
			name:      "missing api key",
			genErr:    ErrMissingAPIKey,
			wantRec:   SentinelRecommendation,
			wantStrat: SentinelStrategy,
			wantKind:  KindService,
		},
		{
			name:      "empty reply",
			genErr:    ErrEmptyReply,
			wantRec:   SentinelRecommendation,
			wantStrat: SentinelStrategy,
			wantKind:  KindMalformed,
		},
		{
			name:      "not json",
			reply:     "Recomendação: renegociar",
			wantRec:   SentinelRecommendation,
			wantStrat: SentinelStrategy,
			wantKind:  KindMalformed,
		},
		{
			name:      "wrong field type",
			reply:     `{"recommendation":["a"],"strategy":"x"}`,
			wantRec:   SentinelRecommendation,
			wantStrat: SentinelStrategy,
			wantKind:  KindMalformed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRequester(t, replying(tt.reply, tt.genErr), time.Second)

			res := r.Analyze(context.Background(), testPartner())

			assert.Equal(t, "p-42", res.Analysis.PartnerID)
			assert.Equal(t, tt.wantRec, res.Analysis.Recommendation)
			assert.Equal(t, tt.wantStrat, res.Analysis.Strategy)
			assert.Equal(t, tt.wantKind, res.Kind)
			assert.Equal(t, tt.wantKind == KindNone, res.OK())
		})
	}
}

func TestRequester_SentinelIsExact(t *testing.T) {
	r := newTestRequester(t, replying("", errors.New("HTTP 503")), time.Second)

	res := r.Analyze(context.Background(), testPartner())
	assert.Equal(t, models.AnalysisResult{
		PartnerID:      "p-42",
		Recommendation: "Analysis Error",
		Strategy:       "Automatic insights could not be generated right now. Check the API key.",
	}, res.Analysis)
}

func TestRequester_Timeout(t *testing.T) {
	slow := GeneratorFunc(func(ctx context.Context, _ string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	r := newTestRequester(t, slow, 20*time.Millisecond)

	start := time.Now()
	res := r.Analyze(context.Background(), testPartner())

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, KindTimeout, res.Kind)
	assert.Equal(t, SentinelRecommendation, res.Analysis.Recommendation)
}

func TestRequester_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	gen := GeneratorFunc(func(ctx context.Context, _ string) (string, error) {
		cancel()
		<-ctx.Done()
		return "", ctx.Err()
	})
	r := newTestRequester(t, gen, time.Second)

	res := r.Analyze(ctx, testPartner())
	assert.Equal(t, KindCancelled, res.Kind)
}

func TestRequester_NilGenerator(t *testing.T) {
	r := newTestRequester(t, nil, time.Second)
	res := r.Analyze(context.Background(), testPartner())
	assert.Equal(t, KindService, res.Kind)
}

func TestRequester_SendsPartnerPrompt(t *testing.T) {
	gen := new(mockGenerator)
	gen.On("Generate", mock.Anything, mock.MatchedBy(func(prompt string) bool {
		return containsAll(prompt,"Ótica Central", "Centro (Uberlândia/MG)", "35", "R$ 420.50", "20% em armações")
	})).Return(`{"recommendation":"Renegociar Descontos","strategy":"ok"}`, nil).Once()

	r := newTestRequester(t, gen, time.Second)
	res := r.Analyze(context.Background(), testPartner())

	require.True(t, res.OK())
	gen.AssertExpectations(t)
}

func TestParseReply(t *testing.T) {
	got, err := ParseReply(`  {"recommendation":" Descontinuar ","strategy":"Sem uso."}  `)
	require.NoError(t, err)
	assert.Equal(t, "Descontinuar", got.Recommendation)
	assert.Empty(t, got.PartnerID)

	_, err = ParseReply("")
	assert.ErrorIs(t, err, ErrMalformedReply)

	_, err = ParseReply(`"just a string"`)
	assert.ErrorIs(t, err, ErrMalformedReply)
}

func TestStandardError(t *testing.T) {
	cause := errors.New("upstream said no")

	tests := []struct {
		kind ErrorKind
		want commonerrors.ErrorCode
	}{
		{KindTimeout, commonerrors.ErrCodeAnalysisTimeout},
		{KindMalformed, commonerrors.ErrCodeAnalysisMalformedResponse},
		{KindService, commonerrors.ErrCodeAnalysisServiceFailed},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			std := StandardError(tt.kind, cause)
			assert.Equal(t, tt.want, std.Code)
			assert.Equal(t, "upstream said no", std.Details)
			assert.Equal(t, "ANALYSIS_FAILED", commonerrors.ConvertToBPMNError(std).Code)
		})
	}
}

func TestRequester_RateLimit(t *testing.T) {
	gen := GeneratorFunc(func(context.Context, string) (string, error) {
		return `{"recommendation":"Campanha de Marketing","strategy":"Divulgar."}`, nil
	})
	r := NewRequester(gen, RequesterConfig{Timeout: 50 * time.Millisecond, RateLimit: 1, Burst: 1}, nil, logger.NewTestLogger(t))

	first := r.Analyze(context.Background(), testPartner())
	assert.True(t, first.OK())

	// the bucket is empty and the next token is a second away
	second := r.Analyze(context.Background(), testPartner())
	assert.Equal(t, KindTimeout, second.Kind)
	assert.Equal(t, SentinelRecommendation, second.Analysis.Recommendation)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	third := r.Analyze(ctx, testPartner())
	assert.Equal(t, KindCancelled, third.Kind)
}
