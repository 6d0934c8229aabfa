// internal/workers/recommendation/score-tour-match/handler.go
package scoretourmatch

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"tour-workers/internal/catalog"
	"tour-workers/internal/common/camunda"
	"tour-workers/internal/common/errors"
	"tour-workers/internal/common/logger"
	"tour-workers/internal/common/metrics"
	"tour-workers/internal/models"
	"tour-workers/internal/recommend"
)

const (
	TaskType = "score-tour-match"
)

type ProfileGetter interface {
	Get(ctx context.Context, customerID string) (*catalog.CustomerProfile, error)
}

type Handler struct {
	config     *Config
	source     catalog.Source
	profiles   ProfileGetter
	engine     *recommend.Engine
	errHandler *errors.ErrorHandler
	logger     logger.Logger
}

// NewHandler builds the handler. profiles may be nil, in which case customer
// preferences come from the catalog snapshot.
func NewHandler(config *Config, source catalog.Source, profiles ProfileGetter, engine *recommend.Engine, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		source:     source,
		profiles:   profiles,
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
		"tourId":     output.TourID,
		"score":      output.Score,
		"durationMs": time.Since(start).Milliseconds(),
	})
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil || input.TourID == "" {
		return nil, errors.NewInvalidPreferencesError("tourId is required")
	}
	if input.Preferences == nil && input.CustomerID == "" {
		return nil, errors.NewInvalidPreferencesError("either preferences or customerId is required")
	}

	snapshot, err := h.source.Load(ctx)
	if err != nil {
		return nil, errors.NewCatalogLoadFailedError(err)
	}

	tour, ok := catalog.FindTour(snapshot.Tours, input.TourID)
	if !ok {
		return nil, errors.NewTourNotFoundError(input.TourID)
	}

	prefs, excluded, profileSource, err := h.resolveProfile(ctx, input, snapshot)
	if err != nil {
		return nil, err
	}

	candidate, breakdown := h.engine.ScoreTour(prefs, tour, excluded)
	reasons := candidate.Reasons
	if reasons == nil {
		reasons = []string{}
	}

	return &Output{
		TourID:        tour.ID,
		Score:         candidate.Score,
		Reasons:       reasons,
		Breakdown:     breakdown,
		Excluded:      excluded.Has(tour.ID),
		ProfileSource: profileSource,
	}, nil
}

// resolveProfile picks inline preferences first, then the profile lookup,
// then the catalog snapshot. A known customer's bookings are always excluded.
func (h *Handler) resolveProfile(ctx context.Context, input *Input, snapshot *catalog.Snapshot) (models.PreferenceProfile, recommend.ExclusionSet, string, error) {
	if input.Preferences != nil {
		excluded := recommend.ExclusionSetFor(input.CustomerID, snapshot.Customers, snapshot.Bookings)
		return *input.Preferences, excluded, "inline", nil
	}

	if h.profiles != nil {
		profile, err := h.profiles.Get(ctx, input.CustomerID)
		if err == nil {
			ids := append(append([]string{}, profile.PastBookings...), profile.BookedTourIDs...)
			return profile.Preferences, recommend.NewExclusionSet(ids...), "profile", nil
		}
		if stderrors.Is(err, catalog.ErrCustomerNotFound) {
			return models.PreferenceProfile{}, nil, "", errors.NewCustomerNotFoundError(input.CustomerID)
		}
		return models.PreferenceProfile{}, nil, "", errors.NewQueryExecutionFailedError("customer_profile", err)
	}

	for _, c := range snapshot.Customers {
		if c.ID == input.CustomerID {
			return c.Preferences, recommend.BuildExclusionSet(&c, snapshot.Bookings), "catalog", nil
		}
	}
	return models.PreferenceProfile{}, nil, "", errors.NewCustomerNotFoundError(input.CustomerID)
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
