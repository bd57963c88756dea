// internal/workers/dedup/evaluate-candidate-pair/handler.go
package evaluatecandidatepair

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
	"vehicle-dedup-workers/internal/dedup/engine"
	"vehicle-dedup-workers/internal/models"
	"vehicle-dedup-workers/internal/notify"
)

const (
	TaskType = "evaluate-candidate-pair"
)

// ListingSource fetches listings and discovers candidate pairs.
type ListingSource interface {
	GetListing(ctx context.Context, listingID string) (*models.VehicleListing, error)
	FindCandidates(ctx context.Context, listing *models.VehicleListing, size int) ([]*models.VehicleListing, error)
}

type Handler struct {
	config    *Config
	engine    *engine.Engine
	listings  ListingSource
	notifier  *notify.ReviewNotifier
	logger    logger.Logger
	jobErrors *errors.ErrorHandler
}

func NewHandler(config *Config, eng *engine.Engine, source ListingSource, notifier *notify.ReviewNotifier, log logger.Logger) *Handler {
	taskLog := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:    config,
		engine:    eng,
		listings:  source,
		notifier:  notifier,
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
	source, err := h.listings.GetListing(ctx, input.SourceListingID)
	if err != nil {
		return nil, err
	}

	var candidates []*models.VehicleListing
	if input.TargetListingID != "" {
		target, err := h.listings.GetListing(ctx, input.TargetListingID)
		if err != nil {
			return nil, err
		}
		candidates = []*models.VehicleListing{target}
	} else {
		candidates, err = h.listings.FindCandidates(ctx, source, h.config.MaxCandidates)
		if err != nil {
			return nil, err
		}
	}

	output := &Output{
		SourceListingID: input.SourceListingID,
		Results:         make([]PairResult, 0, len(candidates)),
	}

	for _, candidate := range candidates {
		eval, err := h.engine.EvaluatePair(ctx, source, candidate)
		if err != nil {
			return nil, err
		}

		result := PairResult{
			TargetListingID: candidate.ID,
			Decision:        string(eval.Decision),
			Reason:          string(eval.Reason),
			Confidence:      string(eval.Confidence),
			Score:           eval.Score,
		}
		if eval.Match != nil {
			result.MatchID = eval.Match.ID
		}
		if eval.ReviewItem != nil {
			result.ReviewItemID = eval.ReviewItem.ID
			output.ReviewsQueued++
			if h.notifier != nil {
				h.notifier.NotifyUrgentItem(ctx, eval.ReviewItem)
			}
		}
		if eval.Decision == models.DecisionDuplicate {
			output.DuplicatesFound++
		}
		output.Results = append(output.Results, result)
	}
	output.PairsEvaluated = len(output.Results)

	h.logger.Info("candidate evaluation complete", map[string]interface{}{
		"sourceListingId": input.SourceListingID,
		"pairsEvaluated":  output.PairsEvaluated,
		"duplicatesFound": output.DuplicatesFound,
		"reviewsQueued":   output.ReviewsQueued,
	})
	return output, nil
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
