package pipeline

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/wildtrack/ornitela-ingest/internal/models"
)

// timestampLayout is the device's combined UTC datetime format. The value is
// naive device time, treated as UTC.
const timestampLayout = "2006-01-02 15:04:05"

// GroupSource is a pull sequence of observation groups ending with io.EOF.
type GroupSource interface {
	Next() (*models.ObservationGroup, error)
}

// EventStream lazily fans observation groups out into normalized events: one
// per location fix, one per burst sample, each filtered individually against
// the age cutoff. The consumer drives pacing; abandoning the stream after a
// prefix never evaluates the tail.
type EventStream struct {
	src    GroupSource
	file   string
	cutoff time.Time
	logger zerolog.Logger

	cur       *models.ObservationGroup
	fixDone   bool
	sampleIdx int
}

// NewEventStream builds a stream over src with cutoff = now - maxAgeDays.
// Events recorded strictly before the cutoff are skipped.
func NewEventStream(src GroupSource, file string, maxAgeDays int, now time.Time, logger zerolog.Logger) *EventStream {
	return &EventStream{
		src:    src,
		file:   file,
		cutoff: now.Add(-time.Duration(maxAgeDays) * 24 * time.Hour),
		logger: logger,
	}
}

// Next returns the next normalized event, io.EOF when the groups are
// exhausted, or a stream-level error from the source.
func (s *EventStream) Next() (models.NormalizedEvent, error) {
	for {
		if s.cur == nil {
			group, err := s.src.Next()
			if err != nil {
				return models.NormalizedEvent{}, err
			}
			s.cur = group
			s.fixDone = false
			s.sampleIdx = 0
		}

		if !s.fixDone {
			s.fixDone = true
			if ev, ok := s.fixEvent(s.cur.Fix); ok {
				return ev, nil
			}
		}

		for s.sampleIdx < len(s.cur.Samples) {
			sample := s.cur.Samples[s.sampleIdx]
			s.sampleIdx++
			if ev, ok := s.sampleEvent(s.cur.Fix, sample); ok {
				return ev, nil
			}
		}

		s.cur = nil
	}
}

func (s *EventStream) fixEvent(fix models.LocationFix) (models.NormalizedEvent, bool) {
	recordedAt, err := parseTimestamp(fix.Timestamp)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("timestamp", fix.Timestamp).
			Msg("Skipping fix with unparsable timestamp")
		return models.NormalizedEvent{}, false
	}
	if recordedAt.Before(s.cutoff) {
		return models.NormalizedEvent{}, false
	}

	return models.NormalizedEvent{
		File:        s.file,
		RecordedAt:  recordedAt,
		Source:      fix.DeviceID,
		SourceName:  fix.DeviceName,
		SubjectType: models.SubjectTypeUnassigned,
		Type:        models.EventType,
		Location:    fix.Position,
		Additional: models.EventDetails{
			Datatype:     fix.Ancillary.Datatype,
			Movement:     fix.Movement,
			DeviceStatus: fix.Status,
			Sensors:      fix.Sensors,
			// Fixes carry no environmental data.
		},
	}, true
}

func (s *EventStream) sampleEvent(fix models.LocationFix, sample models.SensorSample) (models.NormalizedEvent, bool) {
	recordedAt, err := parseTimestamp(sample.Timestamp)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("timestamp", sample.Timestamp).
			Msg("Skipping sample with unparsable timestamp")
		return models.NormalizedEvent{}, false
	}
	if ms := sample.Ancillary.Milliseconds; ms != nil {
		recordedAt = recordedAt.Add(time.Duration(*ms) * time.Millisecond)
	}
	if recordedAt.Before(s.cutoff) {
		return models.NormalizedEvent{}, false
	}

	return models.NormalizedEvent{
		File:        s.file,
		RecordedAt:  recordedAt,
		Source:      fix.DeviceID,
		SourceName:  fix.DeviceName,
		SubjectType: models.SubjectTypeUnassigned,
		Type:        models.EventType,
		// Samples carry no position of their own; the fix's applies.
		Location: fix.Position,
		Additional: models.EventDetails{
			Datatype:      sample.Datatype,
			Sensors:       sample.Sensors,
			Environmental: sample.Environmental,
		},
	}, true
}

func parseTimestamp(s string) (time.Time, error) {
	return time.ParseInLocation(timestampLayout, s, time.UTC)
}
