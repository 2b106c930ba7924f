package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DocumentationRenderer regenerates a system's compliance documentation.
// It returns the number of documents the new one superseded. Satisfied by
// governance.DocumentStore without this package importing it.
type DocumentationRenderer interface {
	Regenerate(ctx context.Context, systemID string) (superseded int, err error)
}

// WorkerPool processes queued regeneration jobs using a pool of goroutines.
type WorkerPool struct {
	store    *JobStore
	renderer DocumentationRenderer
	cfg      *JobConfig
	logger   *slog.Logger
	wg       sync.WaitGroup
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(store *JobStore, renderer DocumentationRenderer, cfg *JobConfig, logger *slog.Logger) *WorkerPool {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkerPool{
		store:    store,
		renderer: renderer,
		cfg:      cfg,
		logger:   logger,
	}
}

// Run starts the worker pool. It spawns cfg.Concurrency goroutines,
// each polling for jobs. It blocks until the context is cancelled,
// then waits for all workers to finish.
func (wp *WorkerPool) Run(ctx context.Context) {
	if wp.store == nil || !wp.cfg.Enabled {
		wp.logger.Info("regeneration worker pool disabled")
		return
	}

	wp.logger.Info("regeneration worker pool starting",
		"concurrency", wp.cfg.Concurrency,
		"maxRetries", wp.cfg.MaxRetries,
		"pollInterval", wp.cfg.PollInterval.String())

	// Start stuck job cleanup goroutine.
	wp.wg.Add(1)
	go func() {
		defer wp.wg.Done()
		wp.cleanupLoop(ctx)
	}()

	// Start worker goroutines.
	for i := 0; i < wp.cfg.Concurrency; i++ {
		wp.wg.Add(1)
		go func(workerID int) {
			defer wp.wg.Done()
			wp.workerLoop(ctx, workerID)
		}(i)
	}

	<-ctx.Done()
	wp.logger.Info("regeneration worker pool shutting down, waiting for workers to finish")
	wp.wg.Wait()
	wp.logger.Info("regeneration worker pool stopped")
}

// workerLoop is the main loop for a single worker goroutine.
func (wp *WorkerPool) workerLoop(ctx context.Context, workerID int) {
	ticker := time.NewTicker(wp.cfg.PollInterval)
	defer ticker.Stop()

	wp.logger.Info("worker started", "workerID", workerID)

	for {
		select {
		case <-ctx.Done():
			wp.logger.Info("worker stopped", "workerID", workerID)
			return
		case <-ticker.C:
			wp.processOne(ctx, workerID)
		}
	}
}

// processOne tries to claim and process a single job.
func (wp *WorkerPool) processOne(ctx context.Context, workerID int) {
	job, err := wp.store.Claim(wp.cfg.MaxRetries)
	if err != nil {
		wp.logger.Error("failed to claim job", "workerID", workerID, "error", err)
		return
	}
	if job == nil {
		return // No jobs available.
	}

	wp.logger.Info("processing regeneration job",
		"workerID", workerID,
		"jobID", job.ID,
		"aiSystemID", job.AISystemID,
		"attempt", job.AttemptCount)

	start := time.Now()
	superseded, err := wp.renderer.Regenerate(ctx, job.AISystemID)
	if err != nil {
		wp.logger.Error("regeneration job failed",
			"workerID", workerID,
			"jobID", job.ID,
			"error", err)
		if failErr := wp.store.Fail(job.ID, err.Error(), wp.cfg.MaxRetries); failErr != nil {
			wp.logger.Error("failed to mark job as failed", "jobID", job.ID, "error", failErr)
		}
		return
	}

	duration := time.Since(start)
	wp.logger.Info("regeneration job completed",
		"workerID", workerID,
		"jobID", job.ID,
		"aiSystemID", job.AISystemID,
		"docsSuperseded", superseded,
		"duration", duration.String())

	if err := wp.store.Complete(job.ID, superseded, duration.Milliseconds()); err != nil {
		wp.logger.Error("failed to mark job as complete", "jobID", job.ID, "error", err)
	}
}

// cleanupLoop periodically recovers stuck jobs and prunes old terminal jobs.
func (wp *WorkerPool) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if wp.cfg.ClaimTimeout > 0 {
				recovered, err := wp.store.CleanupStuckJobs(wp.cfg.ClaimTimeout)
				if err != nil {
					wp.logger.Error("failed to cleanup stuck jobs", "error", err)
				} else if recovered > 0 {
					wp.logger.Info("recovered stuck jobs", "count", recovered)
				}
			}

			if wp.cfg.RetentionDays > 0 {
				cutoff := time.Now().AddDate(0, 0, -wp.cfg.RetentionDays)
				deleted, err := wp.store.DeleteOlderThan(cutoff)
				if err != nil {
					wp.logger.Error("failed to delete old jobs", "error", err)
				} else if deleted > 0 {
					wp.logger.Info("deleted old jobs", "count", deleted)
				}
			}
		}
	}
}
