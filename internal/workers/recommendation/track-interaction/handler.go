// internal/workers/recommendation/track-interaction/handler.go
package trackinteraction

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"tour-workers/internal/common/camunda"
	"tour-workers/internal/common/errors"
	"tour-workers/internal/common/logger"
	"tour-workers/internal/common/metrics"
	"tour-workers/internal/recommend"
)

const (
	TaskType = "track-interaction"
)

// Tracker attributes clicks and bookings to the latest recommendation.
type Tracker interface {
	TrackClick(ctx context.Context, userID, tourID string) (bool, error)
	TrackBooking(ctx context.Context, userID, tourID string) (bool, error)
}

var _ Tracker = (*recommend.Engine)(nil)

type Handler struct {
	config     *Config
	tracker    Tracker
	errHandler *errors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(config *Config, tracker Tracker, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		tracker:    tracker,
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
		h.failJob(ctx, client, job, errors.NewInvalidInteractionError(fmt.Sprintf("parse input: %v", err)))
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
		"action":     output.Action,
		"tracked":    output.Tracked,
		"durationMs": time.Since(start).Milliseconds(),
	})
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, errors.NewInvalidInteractionError("input cannot be nil")
	}
	if input.TourID == "" {
		return nil, errors.NewInvalidInteractionError("tourId is required")
	}

	var track func(context.Context, string, string) (bool, error)
	switch input.Action {
	case ActionClick:
		track = h.tracker.TrackClick
	case ActionBooking:
		track = h.tracker.TrackBooking
	default:
		return nil, errors.NewInvalidInteractionError(fmt.Sprintf("unknown action %q", input.Action)).
			WithMetadata("action", input.Action)
	}

	// An empty userId is never attributed; that is a no-op, not a failure.
	tracked := false
	if input.UserID != "" {
		var err error
		tracked, err = track(ctx, input.UserID, input.TourID)
		if err != nil {
			return nil, errors.NewAnalyticsStoreFailedError(err)
		}
	}

	metrics.InteractionsTracked.WithLabelValues(input.Action, strconv.FormatBool(tracked)).Inc()
	if !tracked {
		h.logger.Debug("interaction not attributed", map[string]interface{}{
			"action": input.Action,
			"userId": input.UserID,
			"tourId": input.TourID,
		})
	}

	return &Output{
		Tracked: tracked,
		Action:  input.Action,
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
