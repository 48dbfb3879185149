package handler

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/use-agent/linkcard/config"
	"github.com/use-agent/linkcard/models"
	"github.com/use-agent/linkcard/resolver"
	"github.com/use-agent/linkcard/webhook"
)

// batchTTL is how long a finished or running job stays queryable.
const batchTTL = time.Hour

// batchStore holds all in-flight and completed batch jobs.
var batchStore sync.Map

func init() {
	// Background goroutine to expire batch jobs older than batchTTL.
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			expireBatches(time.Now())
		}
	}()
}

func expireBatches(now time.Time) {
	cutoff := now.Add(-batchTTL).Unix()
	batchStore.Range(func(key, value any) bool {
		job := value.(*models.BatchJob)
		if job.CreatedAt < cutoff {
			batchStore.Delete(key)
		}
		return true
	})
}

// PostBatch returns a handler for POST /api/v1/batch/resolve.
// It validates the request, registers a job and resolves each URL in the
// background. Every URL is resolved independently; one bad URL only fails
// its own slot.
func PostBatch(res *resolver.Resolver, cfg config.BatchConfig, maxResolveTime time.Duration, notifier *webhook.Notifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		var req models.BatchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, models.NewMetadataError(models.ErrCodeInvalidInput, err.Error(), err), start)
			return
		}
		if cfg.MaxURLs > 0 && len(req.URLs) > cfg.MaxURLs {
			respondError(c, models.NewMetadataError(models.ErrCodeInvalidInput,
				"too many URLs in one batch", nil), start)
			return
		}

		job := models.NewBatchJob("batch-"+uuid.NewString(), len(req.URLs), time.Now().Unix())
		batchStore.Store(job.ID, job)

		go runBatch(res, job, req, cfg.Concurrency, maxResolveTime, notifier)

		c.JSON(http.StatusAccepted, models.BatchResponse{
			ID:     job.ID,
			Status: models.BatchProcessing,
			Total:  job.Total,
		})
	}
}

// GetBatch returns a handler for GET /api/v1/batch/:id.
func GetBatch() gin.HandlerFunc {
	return func(c *gin.Context) {
		val, ok := batchStore.Load(c.Param("id"))
		if !ok {
			respondError(c, models.NewMetadataError(models.ErrCodeNotFound, "batch job not found", nil), time.Now())
			return
		}
		c.JSON(http.StatusOK, val.(*models.BatchJob).Snapshot())
	}
}

// runBatch resolves all URLs in a job with concurrency limited by a
// semaphore, then fires the completion webhook if one was requested.
func runBatch(res *resolver.Resolver, job *models.BatchJob, req models.BatchRequest, concurrency int, maxResolveTime time.Duration, notifier *webhook.Notifier) {
	if concurrency <= 0 {
		concurrency = 4
	}
	sem := make(chan struct{}, concurrency)

	var wg sync.WaitGroup
	for i, rawURL := range req.URLs {
		wg.Add(1)
		go func(idx int, targetURL string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			job.Record(idx, resolveBatchItem(res, targetURL, maxResolveTime))
		}(i, rawURL)
	}
	wg.Wait()
	job.Finish()

	snap := job.Snapshot()
	slog.Info("batch job finished", "id", job.ID, "completed", snap.Completed, "total", snap.Total)

	if req.WebhookURL != "" && notifier != nil {
		notifier.DeliverAsync(req.WebhookURL, req.WebhookSecret, &webhook.Event{
			Type:      webhook.EventBatchCompleted,
			JobID:     job.ID,
			Timestamp: time.Now().Unix(),
			Data:      snap,
		}, nil)
	}
}

func resolveBatchItem(res *resolver.Resolver, rawURL string, maxResolveTime time.Duration) *models.ResolveResponse {
	start := time.Now()
	ctx := context.Background()
	if maxResolveTime > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, maxResolveTime)
		defer cancel()
	}

	resp, err := resolveOne(ctx, res, rawURL, resolver.Options{}, start)
	if err != nil {
		return &models.ResolveResponse{
			Success: false,
			Error:   toMetadataError(err).ToDetail(),
			Timing:  models.TimingInfo{TotalMs: time.Since(start).Milliseconds()},
		}
	}
	return resp
}
