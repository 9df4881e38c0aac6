package pipeline

import (
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

const fieldDelimiter = ","

// RawRow is one parsed data line: an ordered mapping from header field name
// to raw string value. Rows are ephemeral; they are produced and consumed
// within one grouping step.
type RawRow struct {
	fields map[string]string
}

// Get returns the raw value of the named field, or "" when absent.
func (r RawRow) Get(name string) string {
	return r.fields[name]
}

// Datatype returns the row's datatype discriminator.
func (r RawRow) Datatype() string {
	return r.Get("datatype")
}

// Float converts the named field, returning nil for an empty or unparsable
// value. Conversion never aborts row processing.
func (r RawRow) Float(name string) *float64 {
	v := strings.TrimSpace(r.Get(name))
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil
	}
	return &f
}

// Int converts the named field, returning nil for an empty or unparsable
// value.
func (r RawRow) Int(name string) *int64 {
	v := strings.TrimSpace(r.Get(name))
	if v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

// RowParser turns lines into RawRows. The first line seen becomes the
// positional schema for every subsequent line. Files may concatenate several
// header/body segments, so a body line that reproduces the header is dropped.
type RowParser struct {
	header []string
	logger zerolog.Logger

	dropped int
}

// NewRowParser returns a parser with no header learned yet.
func NewRowParser(logger zerolog.Logger) *RowParser {
	return &RowParser{logger: logger}
}

// Header returns the schema learned from the first line, nil before that.
func (p *RowParser) Header() []string {
	return p.header
}

// Dropped reports how many malformed lines were discarded.
func (p *RowParser) Dropped() int {
	return p.dropped
}

// Parse consumes one line. It returns ok=false for the header line itself,
// empty lines, repeated headers, and malformed rows; only the malformed case
// counts as dropped.
func (p *RowParser) Parse(line string) (RawRow, bool) {
	if strings.TrimSpace(line) == "" {
		return RawRow{}, false
	}

	if p.header == nil {
		p.header = strings.Split(line, fieldDelimiter)
		return RawRow{}, false
	}

	values := strings.Split(line, fieldDelimiter)
	if values[0] == p.header[0] {
		// A re-embedded header from a concatenated segment.
		p.logger.Debug().Msg("Discarding repeated header row")
		return RawRow{}, false
	}
	if len(values) != len(p.header) {
		p.dropped++
		p.logger.Warn().
			Int("fields", len(values)).
			Int("expected", len(p.header)).
			Msg("Discarding row with unexpected field count")
		return RawRow{}, false
	}

	fields := make(map[string]string, len(p.header))
	for i, name := range p.header {
		fields[name] = values[i]
	}
	return RawRow{fields: fields}, true
}
