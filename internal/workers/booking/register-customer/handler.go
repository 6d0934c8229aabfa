// internal/workers/booking/register-customer/handler.go
package registercustomer

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"

	"tour-workers/internal/catalog"
	"tour-workers/internal/common/camunda"
	"tour-workers/internal/common/errors"
	"tour-workers/internal/common/logger"
	"tour-workers/internal/common/metrics"
	"tour-workers/internal/common/validation"
	"tour-workers/internal/models"
)

const (
	TaskType = "register-customer"
)

// Invalidator drops cached catalog data after a write.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

type Handler struct {
	config     *Config
	db         *sql.DB
	cache      Invalidator
	errHandler *errors.ErrorHandler
	logger     logger.Logger
}

// NewHandler builds the handler; cache may be nil.
func NewHandler(config *Config, db *sql.DB, cache Invalidator, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		db:         db,
		cache:      cache,
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
		"customerId": output.CustomerID,
		"created":    output.Created,
		"durationMs": time.Since(start).Milliseconds(),
	})
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, errors.NewInvalidPreferencesError("input cannot be nil")
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if !validation.ValidateEmail(email) {
		return nil, errors.NewInvalidPreferencesError(fmt.Sprintf("invalid email %q", input.Email))
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, errors.NewInvalidPreferencesError("name is required")
	}
	if input.Phone != "" && !validation.ValidatePhone(input.Phone) {
		return nil, errors.NewInvalidPreferencesError(fmt.Sprintf("invalid phone %q", input.Phone))
	}

	existing, err := catalog.ScanCustomer(h.db.QueryRowContext(ctx, `
		SELECT `+catalog.CustomerColumns+`
		FROM customers
		WHERE email = $1`, email))
	if err == nil {
		h.logger.Info("customer already registered", map[string]interface{}{
			"customerId": existing.ID,
		})
		return &Output{CustomerID: existing.ID, Customer: existing, Created: false}, nil
	}
	if !stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewQueryExecutionFailedError("customer_by_email", err)
	}

	now := time.Now().UTC()
	prefs := input.Preferences
	if prefs.Interests == nil {
		prefs.Interests = []string{}
	}
	customer := models.Customer{
		ID:           uuid.New().String(),
		Name:         strings.TrimSpace(input.Name),
		Email:        email,
		Phone:        input.Phone,
		Preferences:  prefs,
		PastBookings: []string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err = h.db.ExecContext(ctx, `
		INSERT INTO customers (
			id, name, email, phone, budget, duration, interests,
			travel_style, group_size, past_bookings, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)`,
		customer.ID,
		customer.Name,
		customer.Email,
		sql.NullString{String: customer.Phone, Valid: customer.Phone != ""},
		prefs.Budget,
		prefs.Duration,
		catalog.EncodeStringList(prefs.Interests),
		prefs.TravelStyle,
		prefs.GroupSize,
		catalog.EncodeStringList(customer.PastBookings),
		now,
	)
	if err != nil {
		return nil, errors.NewDatabaseInsertFailedError(err)
	}

	if h.cache != nil {
		if err := h.cache.Invalidate(ctx); err != nil {
			h.logger.Warn("failed to invalidate catalog cache", map[string]interface{}{
				"error": err,
			})
		}
	}

	h.logger.Info("customer registered", map[string]interface{}{
		"customerId": customer.ID,
	})

	return &Output{CustomerID: customer.ID, Customer: customer, Created: true}, nil
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
