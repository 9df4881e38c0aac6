package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/rs/zerolog"

	"github.com/wildtrack/ornitela-ingest/internal/lifecycle"
	"github.com/wildtrack/ornitela-ingest/internal/pipeline"
	"github.com/wildtrack/ornitela-ingest/internal/utils"
	"github.com/wildtrack/ornitela-ingest/pkg/filelock"
	"github.com/wildtrack/ornitela-ingest/pkg/identity"
	"github.com/wildtrack/ornitela-ingest/pkg/statestore"
	"github.com/wildtrack/ornitela-ingest/pkg/storage"
)

// ProcessingService polls the bucket for telemetry files and drives the full
// lifecycle: process new files through the pipeline, archive processed files
// past the archive threshold, and delete archived copies past the delete
// threshold. Independent files run concurrently on a worker pool; each file's
// own pipeline stays strictly sequential.
type ProcessingService struct {
	// Configuration fields
	pollInterval time.Duration
	workers      int
	archiveAfter int
	deleteAfter  int

	// Dependencies
	store       storage.ObjectStore
	locker      filelock.Locker
	states      statestore.Store
	processor   *pipeline.Processor
	integration identity.IntegrationInfoInterface
	logger      zerolog.Logger

	// Internal state management
	pool     *utils.WorkerPool
	inflight cmap.ConcurrentMap[string, time.Time]
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	running  bool
}

// NewProcessingService creates a new ProcessingService instance with the
// provided configuration.
func NewProcessingService(store storage.ObjectStore, locker filelock.Locker, states statestore.Store,
	processor *pipeline.Processor, integration identity.IntegrationInfoInterface,
	pollInterval time.Duration, workers, archiveAfterDays, deleteAfterDays int,
	logger zerolog.Logger) *ProcessingService {

	return &ProcessingService{
		pollInterval: pollInterval,
		workers:      workers,
		archiveAfter: archiveAfterDays,
		deleteAfter:  deleteAfterDays,
		store:        store,
		locker:       locker,
		states:       states,
		processor:    processor,
		integration:  integration,
		logger:       logger,
		inflight:     cmap.New[time.Time](),
	}
}

// Start launches the polling loop in a separate goroutine.
func (p *ProcessingService) Start() error {
	if p.running {
		p.logger.Warn().Msg("ProcessingService is already running")
		return errors.New("processing service is already running")
	}

	p.ctx, p.cancel = context.WithCancel(context.Background())
	p.pool = utils.NewWorkerPool(p.workers)
	p.running = true

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		ticker := time.NewTicker(p.pollInterval)
		defer ticker.Stop()

		p.runCycle(p.ctx)
		for {
			select {
			case <-ticker.C:
				p.runCycle(p.ctx)
			case <-p.ctx.Done():
				p.logger.Info().Msg("ProcessingService is stopping")
				return
			}
		}
	}()

	p.logger.Info().
		Dur("poll_interval", p.pollInterval).
		Int("workers", p.workers).
		Msg("ProcessingService started")
	return nil
}

// Stop gracefully stops the polling loop and drains the worker pool.
func (p *ProcessingService) Stop() error {
	if !p.running {
		p.logger.Warn().Msg("ProcessingService is not running")
		return errors.New("processing service is not running")
	}

	p.cancel()
	p.wg.Wait()
	p.pool.Shutdown()

	p.running = false
	p.logger.Info().Msg("ProcessingService stopped")
	return nil
}

// runCycle performs one full listing/classification/action pass.
func (p *ProcessingService) runCycle(ctx context.Context) {
	scope := p.integration.GetIntegrationID()

	listing, err := p.store.List(ctx)
	if err != nil {
		p.logger.Error().Err(err).Msg("Failed to list telemetry files")
		return
	}
	state, err := p.states.Get(ctx, scope)
	if err != nil {
		p.logger.Error().Err(err).Msg("Failed to load processing state")
		return
	}

	plan := lifecycle.Classify(state, listing, time.Now().UTC(), p.archiveAfter, p.deleteAfter)

	var (
		mu        sync.Mutex
		cycle     sync.WaitGroup
		processed int
	)
	for _, f := range plan.NewFiles {
		if !strings.HasSuffix(f.Name, ".csv") {
			p.logger.Info().Str("file", f.Name).Msg("Skipping non-CSV file")
			continue
		}
		if !p.inflight.SetIfAbsent(f.Name, time.Now()) {
			continue
		}

		name := f.Name
		cycle.Add(1)
		p.pool.Submit(func() {
			defer cycle.Done()
			defer p.inflight.Remove(name)

			result := p.processOne(ctx, scope, name)
			p.logResult(result)

			if result.Status == pipeline.StatusProcessed {
				mu.Lock()
				state = state.MarkProcessed(name)
				processed++
				mu.Unlock()
			}
		})
	}
	cycle.Wait()

	archived := 0
	for _, name := range plan.ToArchive {
		if err := p.archiveFile(ctx, name); err != nil {
			p.logger.Error().Err(err).Str("file", name).Msg("Failed to archive file")
			continue
		}
		state = state.MarkArchived(name)
		archived++
	}

	deleted := 0
	for _, name := range plan.ToDelete {
		if err := p.store.Delete(ctx, lifecycle.ArchiveFolder+name); err != nil {
			p.logger.Error().Err(err).Str("file", name).Msg("Failed to delete archived file")
			continue
		}
		state = state.Forget(name)
		deleted++
	}

	state.LastRun = time.Now().UTC()
	state.LastProcessedCount = processed
	state.LastArchivedCount = archived
	state.LastDeletedCount = deleted
	if err := p.states.Set(ctx, scope, state); err != nil {
		p.logger.Error().Err(err).Msg("Failed to persist processing state")
	}

	p.logger.Info().
		Int("new_files", len(plan.NewFiles)).
		Int("processed", processed).
		Int("archived", archived).
		Int("deleted", deleted).
		Msg("Processing cycle complete")
}

// processOne runs the pipeline for a single file under the distributed lock.
func (p *ProcessingService) processOne(ctx context.Context, scope, name string) pipeline.FileResult {
	ok, err := p.locker.Acquire(ctx, scope, name)
	if err != nil {
		return pipeline.FileResult{File: name, Status: pipeline.StatusFailed, Reason: err.Error()}
	}
	if !ok {
		return pipeline.FileResult{File: name, Status: pipeline.StatusSkipped, Reason: "lock held by another processor"}
	}
	defer func() {
		if _, err := p.locker.Release(ctx, scope, name); err != nil {
			p.logger.Warn().Err(err).Str("file", name).Msg("Failed to release file lock")
		}
	}()

	src, err := p.store.Stream(ctx, name)
	if err != nil {
		return pipeline.FileResult{File: name, Status: pipeline.StatusFailed, Reason: err.Error()}
	}
	defer src.Close()

	result, err := p.processor.ProcessFile(ctx, name, src)
	if err != nil {
		p.logger.Error().Err(err).Str("file", name).Msg("Failed to process telemetry file")
	}
	return result
}

// archiveFile relocates a processed file into the archive folder.
func (p *ProcessingService) archiveFile(ctx context.Context, name string) error {
	if err := p.store.Copy(ctx, name, lifecycle.ArchiveFolder+name); err != nil {
		return err
	}
	return p.store.Delete(ctx, name)
}

func (p *ProcessingService) logResult(result pipeline.FileResult) {
	switch result.Status {
	case pipeline.StatusProcessed:
		p.logger.Info().
			Str("file", result.File).
			Int("groups", result.Groups).
			Int("events", result.EventsSent).
			Msg("Processed file")
	case pipeline.StatusSkipped:
		p.logger.Info().Str("file", result.File).Str("reason", result.Reason).Msg("Skipped file")
	default:
		p.logger.Error().Str("file", result.File).Str("reason", result.Reason).Msg("File processing failed")
	}
}
