package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/wildtrack/ornitela-ingest/internal/models"
)

// FileStatus classifies the outcome of one whole-file processing attempt.
type FileStatus string

const (
	StatusProcessed FileStatus = "processed"
	StatusSkipped   FileStatus = "skipped"
	StatusFailed    FileStatus = "failed"
)

// FileResult is the structured outcome of processing one file. Errors never
// propagate past the file boundary uncaught; they land here with a cause.
type FileResult struct {
	File   string
	Status FileStatus
	Reason string

	Rows       int
	Groups     int
	EventsSent int
}

// BatchSender is the downstream delivery boundary. Implementations may block
// while a batch is in flight; the pipeline pushes nothing else meanwhile.
type BatchSender interface {
	SendBatch(ctx context.Context, events []models.NormalizedEvent) error
}

// Processor runs the full per-file pipeline: sniff encoding, split lines,
// parse rows, group fixes with their bursts, and emit time-filtered events to
// the delivery collaborator in bounded batches. Processing one file is
// strictly sequential; concurrency across files belongs to the caller.
type Processor struct {
	sender     BatchSender
	batchSize  int
	maxAgeDays int
	logger     zerolog.Logger

	// now is split out so tests can pin the cutoff.
	now func() time.Time
}

// NewProcessor wires a processor to its delivery collaborator.
func NewProcessor(sender BatchSender, batchSize, maxAgeDays int, logger zerolog.Logger) *Processor {
	return &Processor{
		sender:     sender,
		batchSize:  batchSize,
		maxAgeDays: maxAgeDays,
		logger:     logger,
		now:        time.Now,
	}
}

// ProcessFile consumes src to exhaustion and delivers the resulting events.
// Re-running it on byte-identical input is deterministic and side-effect-free
// on the parsing side; only delivery touches the outside world.
func (p *Processor) ProcessFile(ctx context.Context, name string, src ChunkSource) (FileResult, error) {
	logger := p.logger.With().Str("file", name).Logger()

	scanner := NewLineScanner(src, logger)
	parser := NewRowParser(logger)
	grouper := NewGrouper(logger)
	groups := &rowGroupSource{ctx: ctx, scanner: scanner, parser: parser, grouper: grouper}
	events := NewEventStream(groups, name, p.maxAgeDays, p.now(), logger)

	result := FileResult{File: name, Status: StatusProcessed}

	batch := make([]models.NormalizedEvent, 0, p.batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := p.sender.SendBatch(ctx, batch); err != nil {
			return fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
		}
		result.EventsSent += len(batch)
		logger.Debug().Int("events", len(batch)).Msg("Delivered event batch")
		batch = batch[:0]
		return nil
	}

	for {
		ev, err := events.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return p.failed(result, err), err
		}
		batch = append(batch, ev)
		if len(batch) >= p.batchSize {
			if err := flush(); err != nil {
				return p.failed(result, err), err
			}
		}
	}
	if err := flush(); err != nil {
		return p.failed(result, err), err
	}

	result.Rows = groups.rows
	result.Groups = groups.count
	logger.Info().
		Int("rows", result.Rows).
		Int("groups", result.Groups).
		Int("events", result.EventsSent).
		Int("dropped_rows", parser.Dropped()).
		Msg("Processed telemetry file")
	return result, nil
}

func (p *Processor) failed(result FileResult, err error) FileResult {
	result.Status = StatusFailed
	result.Reason = err.Error()
	if errors.Is(err, ErrStreamFailed) {
		p.logger.Error().Err(err).Str("file", result.File).Msg("Telemetry stream failed mid-file")
	}
	return result
}

// rowGroupSource adapts the scanner/parser/grouper chain into a GroupSource.
// It pulls lines on demand, so no stage ever materializes the file.
type rowGroupSource struct {
	ctx     context.Context
	scanner *LineScanner
	parser  *RowParser
	grouper *Grouper

	rows    int
	count   int
	drained bool
	flushed bool
}

func (s *rowGroupSource) Next() (*models.ObservationGroup, error) {
	for !s.drained {
		line, err := s.scanner.Next(s.ctx)
		if err == io.EOF {
			s.drained = true
			break
		}
		if err != nil {
			return nil, err
		}
		row, ok := s.parser.Parse(line)
		if !ok {
			continue
		}
		s.rows++
		if group := s.grouper.Push(row); group != nil {
			s.count++
			return group, nil
		}
	}

	if !s.flushed {
		s.flushed = true
		if group := s.grouper.Flush(); group != nil {
			s.count++
			return group, nil
		}
	}
	return nil, io.EOF
}
