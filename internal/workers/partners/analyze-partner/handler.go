// internal/workers/partners/analyze-partner/handler.go
package analyzepartner

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"partner-insights/internal/common/config"
	"partner-insights/internal/common/errors"
	"partner-insights/internal/common/logger"
	"partner-insights/internal/common/metrics"
	"partner-insights/internal/common/observability"
	"partner-insights/internal/common/validation"
	"partner-insights/internal/models"
	"partner-insights/internal/recommendation"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "analyze-partner"

// Session is the part of recommendation.Session the worker needs.
type Session interface {
	Analyze(ctx context.Context, p models.Partner) recommendation.Result
	Lookup(ctx context.Context, id string) (recommendation.Result, bool)
}

type Handler struct {
	config       *Config
	session      Session
	logger       logger.Logger
	obs          *observability.Observability
	errorHandler *errors.ErrorHandler
}

type HandlerOptions struct {
	AppConfig     *config.Config
	CustomConfig  *Config
	Session       Session
	Logger        logger.Logger
	Observability *observability.Observability
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	workerConfig := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)
	if err := workerConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}
	if opts.Session == nil {
		return nil, fmt.Errorf("invalid configuration for %s: session is required", TaskType)
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewStructured("info", "json")
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})

	return &Handler{
		config:       workerConfig,
		session:      opts.Session,
		logger:       log,
		obs:          opts.Observability,
		errorHandler: errors.NewErrorHandler(log),
	}, nil
}

func (h *Handler) MaxJobsActive() int {
	return h.config.MaxJobsActive
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	h.logger.Info("Processing partner analysis job", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
	})

	input, err := h.parseInput(job)
	if err != nil {
		stdErr := errors.Normalize(err)
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
		h.obs.RecordJobProcessed(ctx, TaskType, "failed")
		h.errorHandler.HandleJobError(ctx, client, job, stdErr)
		return
	}

	// analysis failures come back as the fallback text, so the job completes
	output := h.Execute(ctx, input)

	status := "completed"
	if output.ErrorKind != "" {
		status = "degraded"
	}
	h.completeJob(ctx, client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
	h.obs.RecordJobProcessed(ctx, TaskType, status)
	h.obs.RecordJobDuration(ctx, TaskType, time.Since(startTime), status)
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	var input Input
	if err := json.Unmarshal([]byte(job.GetVariables()), &input); err != nil {
		return nil, errors.NewPartnerValidationFailedError(fmt.Sprintf("parse job variables: %v", err))
	}
	if err := validation.ValidatePartner(input.Partner).Err(); err != nil {
		return nil, errors.NewPartnerValidationFailedError(err.Error())
	}
	return &input, nil
}

// Execute answers from the cache when allowed, otherwise requests a fresh
// analysis. It never fails.
func (h *Handler) Execute(ctx context.Context, input *Input) *Output {
	id := input.Partner.ID

	if h.config.ReuseCached && !input.Refresh {
		if cached, ok := h.session.Lookup(ctx, id); ok && cached.OK() {
			h.logger.Debug("Serving cached analysis", map[string]interface{}{"partnerId": id})
			return toOutput(id, cached, true)
		}
	}

	return toOutput(id, h.session.Analyze(ctx, input.Partner), false)
}

func toOutput(id string, res recommendation.Result, cached bool) *Output {
	return &Output{
		PartnerID:      id,
		Recommendation: res.Analysis.Recommendation,
		Strategy:       res.Analysis.Strategy,
		ErrorKind:      string(res.Kind),
		Cached:         cached,
	}
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	request, err := client.NewCompleteJobCommand().JobKey(job.GetKey()).VariablesFromObject(output)
	if err != nil {
		h.logger.Error("Failed to create complete job command", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return
	}
	// the job context may be close to its deadline after a slow analysis
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if _, err := request.Send(sendCtx); err != nil {
		h.logger.Error("Failed to send complete job command", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
	}
}
