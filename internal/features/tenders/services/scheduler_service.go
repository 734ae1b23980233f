package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"tenderwatch/internal/core"
	"tenderwatch/internal/features/tenders/adapters"
	"tenderwatch/internal/features/tenders/models"
)

// SchedulerService owns one Job per enabled source and drives the
// ingestion pipeline: a periodic tick finds due jobs, each due job runs
// concurrently (fetch, dedup, persist, cache, notify), and failures are
// rescheduled with capped exponential backoff. Job state is mutated only
// by the scheduler; everything else gets read-only snapshots.
type SchedulerService struct {
	sources  []models.Source
	adapters *adapters.Registry
	records  *RecordService
	cache    *CacheService
	notifier Notifier
	logger   *core.Logger
	config   *models.SchedulerConfig

	mutex      sync.Mutex
	jobs       map[string]*models.Job
	sourceByID map[string]*models.Source

	started  bool
	stopChan chan struct{}
	loopWg   sync.WaitGroup
	runWg    sync.WaitGroup
}

// NewSchedulerService creates a scheduler with one job per enabled source
func NewSchedulerService(
	sources []models.Source,
	registry *adapters.Registry,
	records *RecordService,
	cache *CacheService,
	notifier Notifier,
	logger *core.Logger,
	config *models.SchedulerConfig,
) *SchedulerService {
	s := &SchedulerService{
		sources:    sources,
		adapters:   registry,
		records:    records,
		cache:      cache,
		notifier:   notifier,
		logger:     logger,
		config:     config,
		jobs:       make(map[string]*models.Job),
		sourceByID: make(map[string]*models.Source),
	}

	for i := range sources {
		source := &sources[i]
		s.sourceByID[source.ID] = source
		if !source.Enabled {
			continue
		}
		// Zero NextRun makes the job due on the first check pass
		s.jobs[source.ID] = &models.Job{
			SourceID: source.ID,
			Status:   models.JobIdle,
		}
	}

	return s
}

// Start begins the periodic tick and performs one check pass
// immediately. Calling Start while already running is a no-op.
func (s *SchedulerService) Start(ctx context.Context) error {
	s.mutex.Lock()
	if s.started {
		s.mutex.Unlock()
		return nil
	}
	s.started = true
	s.stopChan = make(chan struct{})
	s.mutex.Unlock()

	s.logger.Info("Starting ingestion scheduler",
		"tick", s.config.TickInterval, "jobs", len(s.jobs))

	s.loopWg.Add(1)
	go s.tickLoop(ctx)

	return nil
}

// Stop cancels the tick. No new runs start after Stop returns;
// in-flight runs are allowed to finish and are waited for.
func (s *SchedulerService) Stop(ctx context.Context) error {
	s.mutex.Lock()
	if !s.started {
		s.mutex.Unlock()
		return nil
	}
	s.started = false
	close(s.stopChan)
	s.mutex.Unlock()

	s.logger.Info("Stopping ingestion scheduler")
	s.loopWg.Wait()
	s.runWg.Wait()
	return nil
}

// tickLoop runs the periodic check
func (s *SchedulerService) tickLoop(ctx context.Context) {
	defer s.loopWg.Done()

	ticker := time.NewTicker(s.config.TickInterval)
	defer ticker.Stop()

	// Do initial check pass
	s.checkDueJobs(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Scheduler context cancelled")
			return
		case <-s.stopChan:
			s.logger.Info("Scheduler stop signal received")
			return
		case <-ticker.C:
			s.checkDueJobs(ctx)
		}
	}
}

// checkDueJobs launches a run for every job that is not running and
// whose next-run time has passed. A job still running from a previous
// tick is simply skipped until the next tick.
func (s *SchedulerService) checkDueJobs(ctx context.Context) {
	now := time.Now()

	s.mutex.Lock()
	var due []string
	for id, job := range s.jobs {
		if job.Status == models.JobRunning {
			continue
		}
		if job.NextRun.After(now) {
			continue
		}
		due = append(due, id)
	}
	s.mutex.Unlock()

	if len(due) == 0 {
		return
	}

	s.logger.Info("Launching due jobs", "count", len(due))
	for _, id := range due {
		s.RunOne(ctx, id)
	}
}

// RunOne forces a run for one source if its job is not already
// running. It returns whether a run was actually started.
func (s *SchedulerService) RunOne(ctx context.Context, sourceID string) bool {
	source, runID, ok := s.tryStart(sourceID)
	if !ok {
		return false
	}

	// The caller's context can end as soon as we return (an HTTP
	// request context does). The run must outlive it.
	runCtx := context.WithoutCancel(ctx)

	s.runWg.Add(1)
	go func() {
		defer s.runWg.Done()
		s.executeRun(runCtx, source, runID)
	}()

	return true
}

// RunAll forces a run for every enabled source, fire-and-forget per
// source, and waits for all runs it started to settle. It returns how
// many runs were started.
func (s *SchedulerService) RunAll(ctx context.Context) int {
	var wg sync.WaitGroup
	started := 0

	for i := range s.sources {
		source := &s.sources[i]
		if !source.Enabled {
			continue
		}

		src, runID, ok := s.tryStart(source.ID)
		if !ok {
			continue
		}
		started++

		s.runWg.Add(1)
		wg.Add(1)
		go func() {
			defer s.runWg.Done()
			defer wg.Done()
			s.executeRun(ctx, src, runID)
		}()
	}

	wg.Wait()
	return started
}

// tryStart atomically claims a job for a run. Only a job that is not
// currently running can be claimed; this is the single-flight guard.
func (s *SchedulerService) tryStart(sourceID string) (*models.Source, string, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	job, exists := s.jobs[sourceID]
	if !exists {
		return nil, "", false
	}
	if job.Status == models.JobRunning {
		return nil, "", false
	}

	runID := uuid.New().String()
	job.Status = models.JobRunning
	job.LastRun = time.Now()
	job.LastRunID = runID

	return s.sourceByID[sourceID], runID, true
}

// executeRun performs one complete ingestion run for a source
func (s *SchedulerService) executeRun(ctx context.Context, source *models.Source, runID string) {
	logger := s.logger.WithSource(source.ID)
	logger.Info("Run started", "run_id", runID, "adapter", source.Adapter)

	adapter, exists := s.adapters.Get(source.Adapter)
	if !exists {
		// Source tables are validated at init; guard anyway
		s.finishFailure(source, runID, 0,
			core.NewFetchError(fmt.Sprintf("adapter %s not registered", source.Adapter), nil))
		return
	}

	raws, err := adapter.Fetch(ctx, source)
	if err != nil {
		s.finishFailure(source, runID, 0,
			core.NewFetchError(fmt.Sprintf("fetch failed for %s", source.ID), err))
		return
	}
	if len(raws) == 0 {
		// An empty result is indistinguishable from broken extraction
		s.finishFailure(source, runID, 0,
			core.NewFetchError(fmt.Sprintf("fetch returned no records for %s", source.ID), nil))
		return
	}

	newRecords, err := s.records.IngestBatch(ctx, source.ID, raws)
	if err != nil {
		// Keep the fetched count for diagnostics even though the run failed
		s.finishFailure(source, runID, len(raws), err)
		return
	}

	all, err := s.records.ListBySource(ctx, source.ID)
	if err != nil {
		s.finishFailure(source, runID, len(raws),
			core.NewStorageError(fmt.Sprintf("failed to load current records for %s", source.ID), err))
		return
	}

	// Cache writes never fail the run
	s.cache.Set(source.ID, all, len(newRecords))

	if len(newRecords) > 0 && s.notifier != nil {
		if err := s.notifier.Notify(ctx, source.Name, newRecords); err != nil {
			logger.Error("Notifier failed", "run_id", runID, "error", err)
		}
	}

	s.finishSuccess(source, len(raws), len(all))
	logger.Info("Run completed", "run_id", runID, "fetched", len(raws), "new", len(newRecords))
}

// finishSuccess resets the job to idle and resumes the normal cadence
func (s *SchedulerService) finishSuccess(source *models.Source, fetched, stored int) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	job := s.jobs[source.ID]
	job.Status = models.JobIdle
	job.SuccessCount++
	job.ErrorCount = 0
	job.LastError = ""
	job.FetchedCount = fetched
	job.StoredCount = stored
	job.NextRun = time.Now().Add(source.Interval())
}

// finishFailure records the error and schedules the retry with backoff
func (s *SchedulerService) finishFailure(source *models.Source, runID string, fetched int, runErr error) {
	s.mutex.Lock()
	job := s.jobs[source.ID]
	job.Status = models.JobError
	job.ErrorCount++
	job.LastError = runErr.Error()
	job.FetchedCount = fetched
	delay := s.retryDelay(job.ErrorCount)
	job.NextRun = time.Now().Add(delay)
	errorCount := job.ErrorCount
	s.mutex.Unlock()

	s.logger.WithSource(source.ID).Error("Run failed",
		"run_id", runID, "error", runErr, "error_count", errorCount, "retry_in", delay)
}

// retryDelay computes the capped exponential delay for the n-th
// consecutive failure. Delays are non-decreasing in the error count.
func (s *SchedulerService) retryDelay(errorCount int) time.Duration {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = s.config.RetryBaseDelay
	bo.RandomizationFactor = 0
	bo.Multiplier = 2
	bo.MaxInterval = s.config.RetryMaxDelay
	bo.MaxElapsedTime = 0
	bo.Reset()

	delay := bo.NextBackOff()
	for i := 1; i < errorCount; i++ {
		delay = bo.NextBackOff()
	}
	return delay
}

// StatusOf returns a read-only snapshot of one job
func (s *SchedulerService) StatusOf(sourceID string) (*models.JobStatus, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	job, exists := s.jobs[sourceID]
	if !exists {
		return nil, fmt.Errorf("no job for source %s", sourceID)
	}

	status := s.snapshot(job)
	return &status, nil
}

// StatusAll returns snapshots of every job ordered by priority, then id
func (s *SchedulerService) StatusAll() []models.JobStatus {
	s.mutex.Lock()
	statuses := make([]models.JobStatus, 0, len(s.jobs))
	for _, job := range s.jobs {
		statuses = append(statuses, s.snapshot(job))
	}
	s.mutex.Unlock()

	sort.Slice(statuses, func(i, j int) bool {
		if statuses[i].Priority != statuses[j].Priority {
			return statuses[i].Priority < statuses[j].Priority
		}
		return statuses[i].SourceID < statuses[j].SourceID
	})

	return statuses
}

// snapshot copies job state; callers must hold s.mutex
func (s *SchedulerService) snapshot(job *models.Job) models.JobStatus {
	source := s.sourceByID[job.SourceID]

	status := models.JobStatus{
		SourceID:     job.SourceID,
		SourceName:   source.Name,
		Status:       job.Status,
		Priority:     source.Priority,
		Interval:     source.Interval().String(),
		SuccessCount: job.SuccessCount,
		ErrorCount:   job.ErrorCount,
		LastError:    job.LastError,
		LastRunID:    job.LastRunID,
		FetchedCount: job.FetchedCount,
		StoredCount:  job.StoredCount,
	}

	if !job.LastRun.IsZero() {
		lastRun := job.LastRun
		status.LastRun = &lastRun
	}
	if !job.NextRun.IsZero() {
		nextRun := job.NextRun
		status.NextRun = &nextRun
	}

	return status
}
