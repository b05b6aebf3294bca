// internal/workers/partners/aggregate-partners/handler.go
package aggregatepartners

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"partner-insights/internal/common/config"
	"partner-insights/internal/common/errors"
	"partner-insights/internal/common/logger"
	"partner-insights/internal/common/metrics"
	"partner-insights/internal/common/observability"
	"partner-insights/internal/common/validation"
	"partner-insights/internal/partner"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "aggregate-partners"

type Handler struct {
	config       *Config
	logger       logger.Logger
	obs          *observability.Observability
	errorHandler *errors.ErrorHandler
}

type HandlerOptions struct {
	AppConfig     *config.Config
	CustomConfig  *Config
	Logger        logger.Logger
	Observability *observability.Observability
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	workerConfig := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)
	if err := workerConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewStructured("info", "json")
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})

	return &Handler{
		config:       workerConfig,
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

	h.logger.Info("Processing aggregation job", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
	})

	input, err := h.parseInput(job)
	if err != nil {
		h.fail(ctx, client, job, err, startTime)
		return
	}

	output, err := h.Execute(ctx, input)
	if err != nil {
		h.fail(ctx, client, job, err, startTime)
		return
	}

	h.completeJob(ctx, client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
	h.obs.RecordJobProcessed(ctx, TaskType, "completed")
	h.obs.RecordJobDuration(ctx, TaskType, time.Since(startTime), "completed")
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error, startTime time.Time) {
	stdErr := errors.Normalize(err)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
	h.obs.RecordJobProcessed(ctx, TaskType, "failed")
	h.obs.RecordJobDuration(ctx, TaskType, time.Since(startTime), "failed")
	h.errorHandler.HandleJobError(ctx, client, job, stdErr)
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	var input Input
	if err := json.Unmarshal([]byte(job.GetVariables()), &input); err != nil {
		return nil, errors.NewPartnerValidationFailedError(fmt.Sprintf("parse job variables: %v", err))
	}

	var problems []string
	for i, p := range input.Partners {
		if err := validation.ValidatePartner(p).Err(); err != nil {
			problems = append(problems, fmt.Sprintf("partners[%d]: %v", i, err))
		}
	}
	if len(problems) > 0 {
		return nil, errors.NewPartnerValidationFailedError(strings.Join(problems, "; "))
	}

	seen := make(map[string]struct{}, len(input.Partners))
	for _, p := range input.Partners {
		if _, dup := seen[p.ID]; dup {
			return nil, errors.NewDuplicatePartnerError(p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	return &input, nil
}

// Execute groups the partners, returns the requested top groups and the
// Pareto classification of all groups by revenue.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	dimension, err := partner.ParseDimension(input.Dimension)
	if err != nil {
		return nil, errors.NewInvalidDimensionError(input.Dimension)
	}
	metric, err := partner.ParseMetric(input.Metric)
	if err != nil {
		return nil, errors.NewInvalidMetricError(input.Metric)
	}
	threshold := input.VitalThreshold
	if threshold <= 0 || threshold > 1 {
		threshold = h.config.VitalThreshold
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.NewInternalError(err)
	}

	agg := partner.Aggregate(input.Partners, dimension)
	metrics.AggregationsTotal.WithLabelValues(string(dimension)).Inc()

	pareto := partner.ClassifyPareto(agg.Sorted(partner.MetricRevenue), threshold)
	output := &Output{
		Groups:       agg.Top(metric, input.Limit),
		Pareto:       pareto,
		VitalKeys:    partner.VitalKeys(pareto),
		TotalRevenue: agg.TotalRevenue(),
		PartnerCount: agg.TotalCount(),
	}

	h.logger.Info("Aggregation completed", map[string]interface{}{
		"dimension":    dimension,
		"metric":       metric,
		"groups":       agg.Len(),
		"vitalGroups":  len(output.VitalKeys),
		"partnerCount": output.PartnerCount,
	})
	return output, nil
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
	if _, err := request.Send(ctx); err != nil {
		h.logger.Error("Failed to send complete job command", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
	}
}
