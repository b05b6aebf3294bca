package recommendation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	commonerrors "partner-insights/internal/common/errors"
	"partner-insights/internal/common/logger"
	"partner-insights/internal/common/metrics"
	"partner-insights/internal/common/observability"
	"partner-insights/internal/common/validation"
	"partner-insights/internal/models"

	"golang.org/x/time/rate"
)

const (
	DefaultRecommendation = "Manual Review Required"
	DefaultStrategy       = "Consult commercial team"

	SentinelRecommendation = "Analysis Error"
	SentinelStrategy       = "Automatic insights could not be generated right now. Check the API key."

	DefaultTimeout = 30 * time.Second
)

var ErrMalformedReply = errors.New("GENAI_MALFORMED_REPLY")

// ErrorKind classifies why an analysis fell back to the sentinel. The empty
// kind means the analysis succeeded.
type ErrorKind string

const (
	KindNone      ErrorKind = ""
	KindTimeout   ErrorKind = "timeout"
	KindService   ErrorKind = "service"
	KindMalformed ErrorKind = "malformed"
	KindCancelled ErrorKind = "cancelled"
)

// Result is the outcome of one analysis request. Failed requests carry the
// sentinel text and a non-empty Kind; callers choose what to show.
type Result struct {
	Analysis models.AnalysisResult `json:"analysis"`
	Kind     ErrorKind             `json:"errorKind,omitempty"`
}

func (r Result) OK() bool {
	return r.Kind == KindNone
}

func Sentinel(partnerID string, kind ErrorKind) Result {
	return Result{
		Analysis: models.AnalysisResult{
			PartnerID:      partnerID,
			Recommendation: SentinelRecommendation,
			Strategy:       SentinelStrategy,
		},
		Kind: kind,
	}
}

type RequesterConfig struct {
	Provider string
	Timeout  time.Duration
	Prompt   PromptOptions
	// RateLimit caps generator calls per second; zero disables the limit.
	RateLimit float64
	Burst     int
}

// Analyzer is the single-partner analysis contract shared by Requester and
// its test doubles.
type Analyzer interface {
	Analyze(ctx context.Context, p models.Partner) Result
}

// Requester builds the prompt, calls the generator under a timeout and turns
// the reply into a Result. It never retries and never returns an error.
type Requester struct {
	generator Generator
	config    RequesterConfig
	limiter   *rate.Limiter
	obs       *observability.Observability
	logger    logger.Logger
}

func NewRequester(gen Generator, cfg RequesterConfig, obs *observability.Observability, log logger.Logger) *Requester {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Provider == "" {
		cfg.Provider = "gemini"
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		if cfg.Burst < 1 {
			cfg.Burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.Burst)
	}
	return &Requester{
		generator: gen,
		config:    cfg,
		limiter:   limiter,
		obs:       obs,
		logger:    log.WithFields(map[string]interface{}{"component": "recommendation", "provider": cfg.Provider}),
	}
}

func (r *Requester) Analyze(ctx context.Context, p models.Partner) Result {
	start := time.Now()
	res, err := r.analyze(ctx, p)
	elapsed := time.Since(start)

	outcome := "success"
	switch {
	case err != nil && res.Kind == KindCancelled:
		outcome = string(res.Kind)
		r.logger.Debug("Partner analysis cancelled", map[string]interface{}{
			"partnerId": p.ID,
			"elapsedMs": elapsed.Milliseconds(),
		})
	case err != nil:
		outcome = string(res.Kind)
		stdErr := StandardError(res.Kind, err)
		r.logger.Error("Partner analysis failed", map[string]interface{}{
			"partnerId": p.ID,
			"errorKind": res.Kind,
			"errorCode": stdErr.Code,
			"error":     stdErr.Details,
			"elapsedMs": elapsed.Milliseconds(),
		})
	default:
		r.logger.Info("Partner analysis completed", map[string]interface{}{
			"partnerId":      p.ID,
			"recommendation": res.Analysis.Recommendation,
			"elapsedMs":      elapsed.Milliseconds(),
		})
	}

	metrics.AnalysesTotal.WithLabelValues(r.config.Provider, outcome).Inc()
	metrics.AnalysisDuration.WithLabelValues(r.config.Provider).Observe(elapsed.Seconds())
	r.obs.RecordAnalysis(ctx, outcome, elapsed)

	return res
}

// StandardError maps a failed analysis onto the shared error codes.
func StandardError(kind ErrorKind, err error) *commonerrors.StandardError {
	switch kind {
	case KindTimeout:
		std := commonerrors.NewAnalysisTimeoutError()
		std.Details = err.Error()
		return std
	case KindMalformed:
		return commonerrors.NewAnalysisMalformedResponseError(err.Error())
	}
	return commonerrors.NewAnalysisServiceFailedError(err)
}

func (r *Requester) analyze(ctx context.Context, p models.Partner) (Result, error) {
	if r.generator == nil {
		return Sentinel(p.ID, KindService), ErrMissingAPIKey
	}

	callCtx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	// the wait counts against the request timeout
	if r.limiter != nil {
		if err := r.limiter.Wait(callCtx); err != nil {
			if errors.Is(ctx.Err(), context.Canceled) {
				return Sentinel(p.ID, KindCancelled), err
			}
			return Sentinel(p.ID, KindTimeout), err
		}
	}

	text, err := r.generator.Generate(callCtx, BuildPrompt(p, r.config.Prompt))
	if err != nil {
		return Sentinel(p.ID, r.classify(ctx, callCtx, err)), err
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		return Sentinel(p.ID, KindCancelled), ctx.Err()
	}

	analysis, err := ParseReply(text)
	if err != nil {
		return Sentinel(p.ID, KindMalformed), err
	}
	analysis.PartnerID = p.ID
	return Result{Analysis: analysis}, nil
}

func (r *Requester) classify(parent, call context.Context, err error) ErrorKind {
	switch {
	case errors.Is(parent.Err(), context.Canceled):
		return KindCancelled
	case errors.Is(err, context.DeadlineExceeded), errors.Is(call.Err(), context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, ErrEmptyReply):
		return KindMalformed
	}
	return KindService
}

// ParseReply decodes a generator reply. Missing, null or blank fields take
// their defaults independently; anything that is not a JSON object with
// string fields is malformed.
func ParseReply(text string) (models.AnalysisResult, error) {
	raw := []byte(stripCodeFence(text))
	if len(raw) == 0 {
		return models.AnalysisResult{}, fmt.Errorf("%w: empty reply", ErrMalformedReply)
	}

	check, err := validation.ValidateAnalysisReply(raw)
	if err != nil {
		return models.AnalysisResult{}, fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}
	if err := check.Err(); err != nil {
		return models.AnalysisResult{}, fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}

	var reply struct {
		Recommendation string `json:"recommendation"`
		Strategy       string `json:"strategy"`
	}
	if err := json.Unmarshal(raw, &reply); err != nil {
		return models.AnalysisResult{}, fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}

	out := models.AnalysisResult{
		Recommendation: strings.TrimSpace(reply.Recommendation),
		Strategy:       strings.TrimSpace(reply.Strategy),
	}
	if out.Recommendation == "" {
		out.Recommendation = DefaultRecommendation
	}
	if out.Strategy == "" {
		out.Strategy = DefaultStrategy
	}
	return out, nil
}

// stripCodeFence removes a surrounding ```json fence some models add even
// when asked for bare JSON.
func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		text = text[nl+1:]
	} else {
		text = strings.TrimPrefix(text, "json")
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
