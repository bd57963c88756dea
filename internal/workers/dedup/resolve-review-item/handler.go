// internal/workers/dedup/resolve-review-item/handler.go
package resolvereviewitem

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"vehicle-dedup-workers/internal/common/errors"
	"vehicle-dedup-workers/internal/common/logger"
	"vehicle-dedup-workers/internal/common/metrics"
	"vehicle-dedup-workers/internal/common/validation"
	"vehicle-dedup-workers/internal/dedup/review"
)

const (
	TaskType = "resolve-review-item"
)

type Handler struct {
	config    *Config
	manager   *review.Manager
	logger    logger.Logger
	jobErrors *errors.ErrorHandler
}

func NewHandler(config *Config, manager *review.Manager, log logger.Logger) *Handler {
	taskLog := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:    config,
		manager:   manager,
		logger:    taskLog,
		jobErrors: errors.NewErrorHandler(taskLog),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(job.Variables), &raw); err != nil {
		h.failJob(client, job, "PARSE_ERROR", fmt.Sprintf("parse input: %v", err))
		return
	}
	if result := validation.ValidateInput(raw, GetInputSchema()); !result.Valid {
		h.failJob(client, job, "VALIDATION_ERROR", validation.FormatErrors(result))
		return
	}

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, "PARSE_ERROR", fmt.Sprintf("parse input: %v", err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, errors.CodeOf(err)).Inc()
		h.jobErrors.HandleJobError(ctx, client, job, err)
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	var outcome *review.Outcome
	var err error

	switch input.Action {
	case ActionConfirmDuplicate:
		outcome, err = h.manager.ConfirmAsDuplicate(ctx, input.ReviewItemID, input.ReviewedBy, input.Notes)
	case ActionConfirmNotDuplicate:
		outcome, err = h.manager.ConfirmAsNotDuplicate(ctx, input.ReviewItemID, input.ReviewedBy, input.Notes)
	case ActionSkip:
		outcome, err = h.manager.Skip(ctx, input.ReviewItemID, input.ReviewedBy, input.Notes)
	default:
		return nil, errors.NewInvalidReviewActionError(input.Action)
	}

	if err != nil {
		// A second resolution attempt completes the process rather than
		// failing it; the item already has its final status.
		if errors.IsCode(err, errors.ErrCodeReviewAlreadyResolved) {
			return &Output{
				ReviewItemID:    input.ReviewItemID,
				Status:          resolvedStatus(err),
				AlreadyResolved: true,
			}, nil
		}
		return nil, err
	}

	h.logger.Info("review item resolved", map[string]interface{}{
		"reviewItemId": input.ReviewItemID,
		"action":       input.Action,
		"reviewedBy":   input.ReviewedBy,
	})

	return &Output{
		ReviewItemID: outcome.Item.ID,
		Status:       string(outcome.Item.Status),
		AuditEntryID: outcome.AuditEntryID,
	}, nil
}

// resolvedStatus pulls the item's final status out of the typed
// already-resolved error.
func resolvedStatus(err error) string {
	var stdErr *errors.StandardError
	if errors.AsStandardError(err, &stdErr) {
		if status, ok := stdErr.Metadata["status"].(string); ok {
			return status
		}
	}
	return ""
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err = cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, errorCode, errorMessage string) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, errorCode).Inc()
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":       job.Key,
		"errorCode":    errorCode,
		"errorMessage": errorMessage,
	})

	_, err := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(errorCode).
		ErrorMessage(errorMessage).
		Send(context.Background())
	if err != nil {
		h.logger.Error("failed to throw error", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
