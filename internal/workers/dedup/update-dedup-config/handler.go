// internal/workers/dedup/update-dedup-config/handler.go
package updatededupconfig

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
	"vehicle-dedup-workers/internal/models"
)

const (
	TaskType = "update-dedup-config"
)

// ConfigWriter persists tenant configs.
type ConfigWriter interface {
	SaveConfig(ctx context.Context, cfg *models.DeduplicationConfig) error
}

// RuleWriter persists dealer rules.
type RuleWriter interface {
	SaveRule(ctx context.Context, rule *models.DealerDeduplicationRule) error
}

// CacheInvalidator drops cached configs and rules after a write.
type CacheInvalidator interface {
	InvalidateConfig(ctx context.Context, tenantID string) error
	InvalidateRules(ctx context.Context, tenantID, dealerID string) error
}

type Handler struct {
	config    *Config
	configs   ConfigWriter
	rules     RuleWriter
	cache     CacheInvalidator
	logger    logger.Logger
	jobErrors *errors.ErrorHandler
}

func NewHandler(config *Config, configs ConfigWriter, rules RuleWriter, cache CacheInvalidator, log logger.Logger) *Handler {
	taskLog := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:    config,
		configs:   configs,
		rules:     rules,
		cache:     cache,
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
	if input.Config == nil && input.Rule == nil {
		return nil, errors.NewConfigValidationFailedError(
			fmt.Errorf("input must carry a config, a rule, or both"))
	}

	output := &Output{TenantID: input.TenantID}

	if input.Config != nil {
		cfg := input.Config
		cfg.TenantID = input.TenantID
		if err := cfg.Validate(); err != nil {
			return nil, errors.NewConfigValidationFailedError(err)
		}
		if err := h.configs.SaveConfig(ctx, cfg); err != nil {
			return nil, err
		}
		output.ConfigID = cfg.ID

		if err := h.cache.InvalidateConfig(ctx, input.TenantID); err != nil {
			h.logger.Warn("config cache invalidation failed", map[string]interface{}{
				"tenantId": input.TenantID,
				"error":    err,
			})
		} else {
			output.CacheCleared = true
		}
	}

	if input.Rule != nil {
		rule, err := h.buildRule(input.TenantID, input.Rule)
		if err != nil {
			return nil, err
		}
		if err := h.rules.SaveRule(ctx, rule); err != nil {
			return nil, err
		}
		output.RuleID = rule.ID

		if err := h.cache.InvalidateRules(ctx, input.TenantID, rule.DealerID); err != nil {
			h.logger.Warn("rule cache invalidation failed", map[string]interface{}{
				"tenantId": input.TenantID,
				"dealerId": rule.DealerID,
				"error":    err,
			})
		} else {
			output.CacheCleared = true
		}
	}

	h.logger.Info("dedup configuration updated", map[string]interface{}{
		"tenantId": input.TenantID,
		"configId": output.ConfigID,
		"ruleId":   output.RuleID,
	})
	return output, nil
}

func (h *Handler) buildRule(tenantID string, in *RuleInput) (*models.DealerDeduplicationRule, error) {
	rule := &models.DealerDeduplicationRule{
		ID:        in.ID,
		TenantID:  tenantID,
		DealerID:  in.DealerID,
		Name:      in.Name,
		Priority:  in.Priority,
		Overrides: in.Overrides,
		IsActive:  in.IsActive,
	}

	if err := rule.Validate(); err != nil {
		return nil, errors.NewConfigValidationFailedError(err)
	}

	if in.Condition == nil {
		rule.Condition = models.AlwaysCondition{}
		return rule, nil
	}

	raw, err := json.Marshal(in.Condition)
	if err != nil {
		return nil, errors.NewConfigValidationFailedError(err)
	}
	condition, err := models.UnmarshalCondition(raw)
	if err != nil {
		return nil, errors.NewConfigValidationFailedError(err)
	}
	rule.Condition = condition
	return rule, nil
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
