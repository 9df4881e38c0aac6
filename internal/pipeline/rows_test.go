package pipeline

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRowParser_HeaderLearnedFromFirstLine tests that the first line becomes
// the schema and yields no row.
func TestRowParser_HeaderLearnedFromFirstLine(t *testing.T) {
	p := NewRowParser(zerolog.Nop())

	_, ok := p.Parse("device_id,datatype,Latitude")

	assert.False(t, ok)
	assert.Equal(t, []string{"device_id", "datatype", "Latitude"}, p.Header())
}

// TestRowParser_ZipsValuesAgainstHeader tests positional field mapping.
func TestRowParser_ZipsValuesAgainstHeader(t *testing.T) {
	p := NewRowParser(zerolog.Nop())
	_, ok := p.Parse("device_id,datatype,Latitude")
	require.False(t, ok)

	row, ok := p.Parse("17701,GPS,44.3945")

	require.True(t, ok)
	assert.Equal(t, "17701", row.Get("device_id"))
	assert.Equal(t, "GPS", row.Datatype())
	assert.Equal(t, "44.3945", row.Get("Latitude"))
	assert.Equal(t, "", row.Get("no_such_field"))
}

// TestRowParser_RepeatedHeaderDropped tests that a re-embedded header from a
// concatenated file segment produces nothing and is not counted as malformed.
func TestRowParser_RepeatedHeaderDropped(t *testing.T) {
	p := NewRowParser(zerolog.Nop())
	p.Parse("device_id,datatype,Latitude")

	_, ok := p.Parse("device_id,datatype,Latitude")

	assert.False(t, ok)
	assert.Equal(t, 0, p.Dropped())
}

// TestRowParser_FieldCountMismatchDropped tests that short and long rows are
// discarded and counted.
func TestRowParser_FieldCountMismatchDropped(t *testing.T) {
	p := NewRowParser(zerolog.Nop())
	p.Parse("device_id,datatype,Latitude")

	_, okShort := p.Parse("17701,GPS")
	_, okLong := p.Parse("17701,GPS,44.3945,5.3702")
	row, okGood := p.Parse("17701,GPS,44.3945")

	assert.False(t, okShort)
	assert.False(t, okLong)
	assert.True(t, okGood)
	assert.Equal(t, 2, p.Dropped())
	assert.Equal(t, "44.3945", row.Get("Latitude"))
}

// TestRowParser_EmptyLineIgnored tests blank lines between segments.
func TestRowParser_EmptyLineIgnored(t *testing.T) {
	p := NewRowParser(zerolog.Nop())
	p.Parse("device_id,datatype")

	_, ok := p.Parse("   ")

	assert.False(t, ok)
	assert.Equal(t, 0, p.Dropped())
}

// TestRawRow_NumericConversions tests the nil-on-empty and nil-on-garbage
// defaults for numeric fields.
func TestRawRow_NumericConversions(t *testing.T) {
	p := NewRowParser(zerolog.Nop())
	p.Parse("Latitude,U_bat_mV,hdop,satcount")
	row, ok := p.Parse("44.3945,3702,,abc")
	require.True(t, ok)

	lat := row.Float("Latitude")
	require.NotNil(t, lat)
	assert.InDelta(t, 44.3945, *lat, 1e-9)

	bat := row.Int("U_bat_mV")
	require.NotNil(t, bat)
	assert.Equal(t, int64(3702), *bat)

	assert.Nil(t, row.Float("hdop"))
	assert.Nil(t, row.Int("satcount"))
	assert.Nil(t, row.Float("missing"))
}
