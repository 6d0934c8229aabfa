// internal/workers/booking/create-booking/handler.go
package createbooking

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
	"tour-workers/internal/models"
)

const (
	TaskType = "create-booking"
)

type SnapshotInvalidator interface {
	Invalidate(ctx context.Context) error
}

type ProfileInvalidator interface {
	Invalidate(ctx context.Context, customerID string) error
}

type Handler struct {
	config     *Config
	db         *sql.DB
	snapshots  SnapshotInvalidator
	profiles   ProfileInvalidator
	now        func() time.Time
	errHandler *errors.ErrorHandler
	logger     logger.Logger
}

// NewHandler builds the handler. snapshots and profiles may be nil when no
// cache is configured.
func NewHandler(config *Config, db *sql.DB, snapshots SnapshotInvalidator, profiles ProfileInvalidator, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		db:         db,
		snapshots:  snapshots,
		profiles:   profiles,
		now:        func() time.Time { return time.Now().UTC() },
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
		h.failJob(ctx, client, job, errors.NewInvalidBookingError(fmt.Sprintf("parse input: %v", err)))
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
		"bookingId":  output.BookingID,
		"durationMs": time.Since(start).Milliseconds(),
	})
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, errors.NewInvalidBookingError("input cannot be nil")
	}
	if input.CustomerID == "" {
		return nil, errors.NewInvalidBookingError("customerId is required")
	}
	if input.TourPackageID == "" {
		return nil, errors.NewInvalidBookingError("tourPackageId is required")
	}
	if input.NumberOfPeople < 1 {
		return nil, errors.NewInvalidBookingError(fmt.Sprintf("numberOfPeople must be at least 1, got %d", input.NumberOfPeople))
	}
	travelDate, err := parseTravelDate(input.TravelDate)
	if err != nil {
		return nil, errors.NewInvalidBookingError(err.Error())
	}

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.NewDatabaseConnectionFailedError(err)
	}
	defer tx.Rollback()

	tour, err := catalog.ScanTour(tx.QueryRowContext(ctx, `
		SELECT `+catalog.TourColumns+`
		FROM tours
		WHERE id = $1`, input.TourPackageID))
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewTourNotFoundError(input.TourPackageID)
	}
	if err != nil {
		return nil, h.queryError(ctx, "tour_by_id", err)
	}

	var rawPast []byte
	err = tx.QueryRowContext(ctx, `
		SELECT past_bookings
		FROM customers
		WHERE id = $1
		FOR UPDATE`, input.CustomerID).Scan(&rawPast)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewCustomerNotFoundError(input.CustomerID)
	}
	if err != nil {
		return nil, h.queryError(ctx, "customer_by_id", err)
	}

	now := h.now()
	booking := models.Booking{
		ID:              uuid.New().String(),
		CustomerID:      input.CustomerID,
		TourID:          tour.ID,
		Status:          models.BookingStatusPending,
		BookingDate:     now,
		TravelDate:      travelDate,
		NumberOfPeople:  input.NumberOfPeople,
		TotalPrice:      tour.Price * float64(input.NumberOfPeople),
		Currency:        tour.Currency,
		SpecialRequests: input.SpecialRequests,
		PaymentStatus:   models.PaymentStatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO bookings (
			id, customer_id, tour_id, status, booking_date, travel_date,
			number_of_people, total_price, currency, special_requests,
			payment_status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $5, $5)`,
		booking.ID,
		booking.CustomerID,
		booking.TourID,
		string(booking.Status),
		now,
		travelDate,
		booking.NumberOfPeople,
		booking.TotalPrice,
		booking.Currency,
		sql.NullString{String: booking.SpecialRequests, Valid: booking.SpecialRequests != ""},
		string(booking.PaymentStatus),
	)
	if err != nil {
		return nil, errors.NewDatabaseInsertFailedError(err)
	}

	past := appendPastBooking(rawPast, booking.ID)
	_, err = tx.ExecContext(ctx, `
		UPDATE customers
		SET past_bookings = $1, updated_at = $2
		WHERE id = $3`, catalog.EncodeStringList(past), now, booking.CustomerID)
	if err != nil {
		return nil, errors.NewDatabaseInsertFailedError(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.NewDatabaseInsertFailedError(err)
	}

	h.invalidateCaches(ctx, booking.CustomerID)

	h.logger.Info("booking created", map[string]interface{}{
		"bookingId":  booking.ID,
		"customerId": booking.CustomerID,
		"tourId":     booking.TourID,
		"totalPrice": booking.TotalPrice,
	})

	return &Output{
		BookingID:  booking.ID,
		Booking:    booking,
		TotalPrice: booking.TotalPrice,
		Currency:   booking.Currency,
	}, nil
}

func (h *Handler) queryError(ctx context.Context, queryType string, err error) error {
	if stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
		return errors.NewQueryTimeoutError(queryType)
	}
	return errors.NewQueryExecutionFailedError(queryType, err)
}

// invalidateCaches runs after commit; failures only cost a stale read until TTL.
func (h *Handler) invalidateCaches(ctx context.Context, customerID string) {
	if h.snapshots != nil {
		if err := h.snapshots.Invalidate(ctx); err != nil {
			h.logger.Warn("failed to invalidate catalog snapshot", map[string]interface{}{
				"error": err,
			})
		}
	}
	if h.profiles != nil {
		if err := h.profiles.Invalidate(ctx, customerID); err != nil {
			h.logger.Warn("failed to invalidate customer profile", map[string]interface{}{
				"customerId": customerID,
				"error":      err,
			})
		}
	}
}

func parseTravelDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("travelDate is required")
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("travelDate %q is not a date", value)
	}
	return t.UTC(), nil
}

func appendPastBooking(raw []byte, bookingID string) []string {
	past := []string{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &past); err != nil {
			past = []string{}
		}
	}
	return append(past, bookingID)
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
