// internal/workers/recommendation/generate-recommendations/handler.go
package generaterecommendations

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"tour-workers/internal/catalog"
	"tour-workers/internal/common/camunda"
	"tour-workers/internal/common/errors"
	"tour-workers/internal/common/logger"
	"tour-workers/internal/common/metrics"
	"tour-workers/internal/common/validation"
	"tour-workers/internal/models"
	"tour-workers/internal/recommend"
)

const (
	TaskType = "generate-recommendations"
)

type Handler struct {
	config     *Config
	source     catalog.Source
	engine     *recommend.Engine
	errHandler *errors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(config *Config, source catalog.Source, engine *recommend.Engine, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		source:     source,
		engine:     engine,
		errHandler: camunda.NewErrorHandler(l),
		logger:     l,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(ctx, client, job, errors.NewInvalidPreferencesError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.failJob(ctx, client, job, err)
		return
	}

	h.completeJob(client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	h.logger.Info("job completed", map[string]interface{}{
		"jobKey":     job.Key,
		"returned":   len(output.Recommendations),
		"confidence": output.Confidence,
		"durationMs": time.Since(start).Milliseconds(),
	})
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, errors.NewInvalidPreferencesError("input cannot be nil")
	}
	if result := validation.ValidateValue(input, GetInputSchema()); !result.Valid {
		return nil, errors.NewInvalidPreferencesError(result.Summary())
	}

	loadStart := time.Now()
	snapshot, err := h.source.Load(ctx)
	metrics.CatalogLoadDuration.WithLabelValues(h.config.SourceName).Observe(time.Since(loadStart).Seconds())
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, errors.NewTimeoutError("catalog", err)
		}
		return nil, errors.NewCatalogLoadFailedError(err)
	}

	req := models.RecommendationRequest{
		CustomerID:  input.CustomerID,
		Preferences: *input.Preferences,
	}
	result := h.engine.GenerateRecommendations(ctx, req, snapshot.Customers, snapshot.Bookings, snapshot.Tours)

	metrics.RecommendationsGenerated.WithLabelValues(strconv.FormatBool(input.CustomerID != "")).Inc()
	metrics.RecommendationConfidence.Observe(result.Confidence)
	if len(result.Recommendations) == 0 {
		metrics.RecommendationsEmpty.Inc()
	}

	recommendations := result.Recommendations
	if recommendations == nil {
		recommendations = []models.Tour{}
	}

	return &Output{
		Recommendations:  recommendations,
		Reasoning:        result.Reasoning,
		Confidence:       result.Confidence,
		Algorithm:        h.engine.Config().Algorithm,
		RecommendationID: result.RecordID,
	}, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	if err := camunda.CompleteJob(context.Background(), client, job, output); err != nil {
		h.logger.Error("failed to complete job", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err,
		})
	}
}

func (h *Handler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, errors.CodeOf(err)).Inc()
	h.errHandler.HandleJobError(context.WithoutCancel(ctx), client, job, err)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
