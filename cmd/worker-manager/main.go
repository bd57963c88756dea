// cmd/worker-manager/main.go
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"vehicle-dedup-workers/internal/common/aws"
	"vehicle-dedup-workers/internal/common/camunda"
	"vehicle-dedup-workers/internal/common/config"
	"vehicle-dedup-workers/internal/common/database"
	"vehicle-dedup-workers/internal/common/logger"
	"vehicle-dedup-workers/internal/common/observability"
	"vehicle-dedup-workers/internal/dedup/engine"
	"vehicle-dedup-workers/internal/dedup/review"
	"vehicle-dedup-workers/internal/dedup/rules"
	"vehicle-dedup-workers/internal/dedup/scoring"
	"vehicle-dedup-workers/internal/listings"
	"vehicle-dedup-workers/internal/notify"
	"vehicle-dedup-workers/internal/storage/cache"
	"vehicle-dedup-workers/internal/storage/postgres"
	"vehicle-dedup-workers/pkg/registry"

	ecp "vehicle-dedup-workers/internal/workers/dedup/evaluate-candidate-pair"
	rri "vehicle-dedup-workers/internal/workers/dedup/resolve-review-item"
	udc "vehicle-dedup-workers/internal/workers/dedup/update-dedup-config"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New("worker-manager")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Task Registry ---
	taskRegistry, err := registry.LoadRegistry(cfg.Registry.Path)
	if err != nil {
		zapLog.Fatal("task registry load failed", zap.Error(err))
	}
	zapLog.Info("Task registry loaded",
		zap.String("version", taskRegistry.Version),
		zap.Int("tasks", len(taskRegistry.Tasks)),
	)

	// --- Init Zeebe Client with retry ---
	var camundaClient *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		camundaClient, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      10 * time.Second,
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")

	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zeebeClient := camundaClient.GetClient()
	zapLog.Info("Zeebe client connected successfully")

	// --- Init PostgreSQL with retry ---
	var db *sql.DB
	err = retryWithBackoff(func() error {
		var err error
		db, err = database.OpenPostgres(ctx, cfg.Database.Postgres)
		return err
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer db.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Elasticsearch with retry ---
	var esClient *elasticsearch.Client
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.OpenElasticsearch(ctx, cfg.Database.Elasticsearch)
		return err
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Init Redis with retry ---
	var redisClient *redis.Client
	err = retryWithBackoff(func() error {
		var err error
		redisClient, err = database.OpenRedis(ctx, cfg.Database.Redis)
		return err
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redisClient.Close()
	zapLog.Info("Redis connected successfully")

	// --- Stores and caches ---
	configStore := postgres.NewConfigStore(db)
	ruleStore := postgres.NewRuleStore(db)
	matchStore := postgres.NewMatchStore(db)
	reviewStore := postgres.NewReviewStore(db)
	auditStore := postgres.NewAuditStore(db)

	cacheTTL := time.Duration(cfg.Dedup.RuleCacheTTL) * time.Second
	configCache := cache.NewConfigCache(redisClient, configStore, cacheTTL, log)
	ruleCache := cache.NewRuleCache(redisClient, ruleStore, cacheTTL, log)
	invalidator := cache.NewInvalidator(configCache, ruleCache)

	listingReader := listings.NewReader(esClient, cfg.Database.Elasticsearch.ListingIndex)

	// --- Decision event sink ---
	var eventSink engine.EventSink = notify.NoopPublisher{}
	if cfg.Notifications.SNS.Enabled {
		snsClient, err := aws.NewSNSClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("sns client init failed", zap.Error(err))
		}
		eventSink = notify.NewSNSPublisher(snsClient, cfg.Notifications.SNS.TopicARN)
		zapLog.Info("SNS decision publisher enabled")
	}
	eventSink = obs.InstrumentSink(eventSink)

	var reviewNotifier *notify.ReviewNotifier
	if cfg.Notifications.SES.Enabled {
		sesClient, err := aws.NewSESClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("ses client init failed", zap.Error(err))
		}
		reviewNotifier = notify.NewReviewNotifier(
			sesClient,
			cfg.Notifications.SES.FromEmail,
			cfg.Notifications.SES.ReviewerEmails,
			log,
		)
		zapLog.Info("SES review notifier enabled")
	}

	// --- Core pipeline ---
	resolver := rules.NewResolver(configCache, ruleCache, log)
	scorer := scoring.NewScorerWithMaxHamming(cfg.Dedup.MaxHammingDistance)
	decisionEngine := engine.NewEngine(resolver, scorer, matchStore, reviewStore, auditStore, eventSink, log)
	reviewManager := review.NewManager(reviewStore, matchStore, auditStore, log)

	// --- Register workers ---
	if cfg.Workers[ecp.TaskType].Enabled {
		workerCfg := ecp.LoadConfig()
		if t := cfg.Workers[ecp.TaskType].Timeout; t > 0 {
			workerCfg.Timeout = time.Duration(t) * time.Millisecond
		}
		handler := ecp.NewHandler(workerCfg, decisionEngine, listingReader, reviewNotifier, log)
		startWorker(zeebeClient, ecp.TaskType, cfg.Workers[ecp.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[rri.TaskType].Enabled {
		workerCfg := rri.LoadConfig()
		if t := cfg.Workers[rri.TaskType].Timeout; t > 0 {
			workerCfg.Timeout = time.Duration(t) * time.Millisecond
		}
		handler := rri.NewHandler(workerCfg, reviewManager, log)
		startWorker(zeebeClient, rri.TaskType, cfg.Workers[rri.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[udc.TaskType].Enabled {
		workerCfg := udc.LoadConfig()
		if t := cfg.Workers[udc.TaskType].Timeout; t > 0 {
			workerCfg.Timeout = time.Duration(t) * time.Millisecond
		}
		handler := udc.NewHandler(workerCfg, configStore, ruleStore, invalidator, log)
		startWorker(zeebeClient, udc.TaskType, cfg.Workers[udc.TaskType], handler.Handle, zapLog)
	}

	zapLog.Info("All workers registered successfully")

	// --- Health & Metrics Server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			if err := camundaClient.HealthCheck(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{
					"status": "not ready",
					"error":  err.Error(),
				})
				return
			}
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "ready",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening on " + cfg.Metrics.Address)
		if err := http.ListenAndServe(cfg.Metrics.Address, nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")

	if err := camundaClient.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

func startWorker(client zbc.Client, taskType string, wcfg config.WorkerConfig, handlerFunc func(worker.JobClient, entities.Job), log *zap.Logger) {
	if !wcfg.Enabled {
		log.Info("worker disabled", zap.String("taskType", taskType))
		return
	}

	client.NewJobWorker().
		JobType(taskType).
		Handler(handlerFunc).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(time.Duration(wcfg.Timeout) * time.Millisecond).
		Open()

	log.Info("worker started",
		zap.String("taskType", taskType),
		zap.Int("maxJobsActive", wcfg.MaxJobsActive),
		zap.Int("timeout_ms", wcfg.Timeout),
	)
}
