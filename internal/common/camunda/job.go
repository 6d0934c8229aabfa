// internal/common/camunda/job.go
package camunda

import (
	"context"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"tour-workers/internal/common/errors"
)

// JobCommandRetry bounds retries of complete, fail and throw-error commands.
// Workers hold the job lock while retrying, so delays stay short.
var JobCommandRetry = &RetryConfig{
	MaxRetries: 3,
	BaseDelay:  200 * time.Millisecond,
	MaxDelay:   2 * time.Second,
}

// Send runs a job command, retrying transient gateway errors.
func Send(ctx context.Context, operation string, send func(context.Context) error) error {
	_, err := Retry(ctx, JobCommandRetry, operation, func(ctx context.Context) (interface{}, error) {
		return nil, send(ctx)
	})
	return err
}

// CompleteJob completes job with variables through Send.
func CompleteJob(ctx context.Context, client worker.JobClient, job entities.Job, variables interface{}) error {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(variables)
	if err != nil {
		return fmt.Errorf("create complete command for job %d: %w", job.Key, err)
	}
	return Send(ctx, "complete-job", func(ctx context.Context) error {
		_, err := cmd.Send(ctx)
		return err
	})
}

// NewErrorHandler returns a job error handler whose fail and throw commands
// go through Send.
func NewErrorHandler(log errors.Logger) *errors.ErrorHandler {
	return errors.NewErrorHandler(log).WithSender(Send)
}
