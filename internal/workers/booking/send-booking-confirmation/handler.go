// internal/workers/booking/send-booking-confirmation/handler.go
package sendbookingconfirmation

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

	"tour-workers/internal/common/camunda"
	"tour-workers/internal/common/errors"
	"tour-workers/internal/common/logger"
	"tour-workers/internal/common/metrics"
)

const (
	TaskType = "send-booking-confirmation"
)

// Sender delivers one message and returns the provider's message ID.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) (string, error)
}

// SMSSender is Sender without a subject line.
type SMSSender interface {
	Send(ctx context.Context, phone, message string) (string, error)
}

type Handler struct {
	config     *Config
	db         *sql.DB
	mailer     Sender
	texter     SMSSender
	now        func() time.Time
	errHandler *errors.ErrorHandler
	logger     logger.Logger
}

// NewHandler builds the handler. A nil mailer or texter disables that channel.
func NewHandler(config *Config, db *sql.DB, mailer Sender, texter SMSSender, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		db:         db,
		mailer:     mailer,
		texter:     texter,
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
		"bookingId":  input.BookingID,
		"status":     output.Status,
		"durationMs": time.Since(start).Milliseconds(),
	})
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, errors.NewInvalidBookingError("input cannot be nil")
	}
	bookingID := strings.TrimSpace(input.BookingID)
	if bookingID == "" {
		return nil, errors.NewInvalidBookingError("bookingId is required")
	}

	c, err := h.loadConfirmation(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	data := c.templateData()
	output := &Output{
		NotificationID: uuid.NewString(),
		Status:         StatusDisabled,
		Deliveries:     []DeliveryEvent{},
		SentAt:         h.now().Format(time.RFC3339),
	}

	var lastErr error
	channel := ""
	delivered := 0

	if h.mailer != nil && c.Email != "" {
		id, err := h.mailer.Send(ctx, c.Email, renderTemplate(emailSubject, data), renderTemplate(emailBody, data))
		output.Deliveries = append(output.Deliveries, delivery(ChannelEmail, id, err))
		if err != nil {
			lastErr, channel = err, ChannelEmail
		} else {
			delivered++
		}
	}

	if h.texter != nil && input.SendSMS && c.Phone != "" {
		id, err := h.texter.Send(ctx, c.Phone, renderTemplate(smsBody, data))
		output.Deliveries = append(output.Deliveries, delivery(ChannelSMS, id, err))
		if err != nil {
			lastErr, channel = err, ChannelSMS
		} else {
			delivered++
		}
	}

	switch {
	case len(output.Deliveries) == 0:
		h.logger.Info("no notification channel available", map[string]interface{}{"bookingId": bookingID})
	case delivered == 0:
		return nil, errors.NewNotificationFailedError(channel, lastErr)
	case delivered < len(output.Deliveries):
		h.logger.Warn("notification partially delivered", map[string]interface{}{
			"bookingId": bookingID,
			"channel":   channel,
			"error":     lastErr.Error(),
		})
		output.Status = StatusPartial
	default:
		output.Status = StatusSent
	}
	return output, nil
}

func (h *Handler) loadConfirmation(ctx context.Context, bookingID string) (confirmation, error) {
	var c confirmation
	var travelDate sql.NullTime
	err := h.db.QueryRowContext(ctx, `
		SELECT b.id, b.travel_date, b.number_of_people, b.total_price, b.currency,
		       c.name, c.email, COALESCE(c.phone, ''), t.name
		FROM bookings b
		JOIN customers c ON c.id = b.customer_id
		JOIN tours t ON t.id = b.tour_id
		WHERE b.id = $1`, bookingID).Scan(
		&c.BookingID, &travelDate, &c.NumberOfPeople, &c.TotalPrice, &c.Currency,
		&c.CustomerName, &c.Email, &c.Phone, &c.TourName,
	)
	if stderrors.Is(err, sql.ErrNoRows) {
		return c, errors.NewBookingNotFoundError(bookingID)
	}
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return c, errors.NewQueryTimeoutError("booking_confirmation")
		}
		return c, errors.NewQueryExecutionFailedError("booking_confirmation", err)
	}
	if travelDate.Valid {
		c.TravelDate = travelDate.Time.Format("2006-01-02")
	}
	return c, nil
}

func delivery(channel, messageID string, err error) DeliveryEvent {
	if err != nil {
		return DeliveryEvent{Channel: channel, Error: err.Error()}
	}
	return DeliveryEvent{Channel: channel, MessageID: messageID}
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
