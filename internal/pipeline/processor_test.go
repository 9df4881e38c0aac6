package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wildtrack/ornitela-ingest/internal/models"
)

// recordingSender captures delivered batches, optionally failing every call.
type recordingSender struct {
	batches [][]models.NormalizedEvent
	err     error
}

func (r *recordingSender) SendBatch(ctx context.Context, events []models.NormalizedEvent) error {
	if r.err != nil {
		return r.err
	}
	batch := make([]models.NormalizedEvent, len(events))
	copy(batch, events)
	r.batches = append(r.batches, batch)
	return nil
}

func (r *recordingSender) all() []models.NormalizedEvent {
	var out []models.NormalizedEvent
	for _, b := range r.batches {
		out = append(out, b...)
	}
	return out
}

// wireHeader is the 31-field schema the trackers upload.
const wireHeader = "device_id,device_name,UTC_datetime,UTC_date,UTC_time,datatype," +
	"satcount,U_bat_mV,bat_soc_pct,solar_I_mA,hdop,Latitude,Longitude," +
	"MSL_altitude_m,Reserved,speed_km/h,direction_deg,int_temperature_C," +
	"mag_x,mag_y,mag_z,acc_x,acc_y,acc_z,UTC_timestamp,milliseconds," +
	"light,altimeter_m,depth_m,conductivity_mS/cm,ext_temperature_C"

// wireRow fills the named columns of one data line, leaving the rest empty.
func wireRow(t *testing.T, cols map[string]string) string {
	t.Helper()
	header := strings.Split(wireHeader, ",")
	values := make([]string, len(header))
	for name, v := range cols {
		idx := -1
		for i, h := range header {
			if h == name {
				idx = i
				break
			}
		}
		require.NotEqual(t, -1, idx, "unknown column %q", name)
		values[idx] = v
	}
	return strings.Join(values, ",")
}

func gpssLine(t *testing.T, ts string) string {
	return wireRow(t, map[string]string{
		"device_id":    "17701",
		"device_name":  "stork-A",
		"UTC_datetime": ts,
		"datatype":     "GPSS",
		"Latitude":     "44.3945",
		"Longitude":    "5.3702",
		"U_bat_mV":     "3702",
	})
}

func sensorLine(t *testing.T, tag, ts string) string {
	return wireRow(t, map[string]string{
		"device_id":    "17701",
		"UTC_datetime": ts,
		"datatype":     tag,
		"acc_x":        "0.12",
	})
}

var procNow = time.Date(2026, 7, 15, 12, 0, 0, 0, time.UTC)

func newTestProcessor(sender BatchSender, batchSize int) *Processor {
	p := NewProcessor(sender, batchSize, 30, zerolog.Nop())
	p.now = func() time.Time { return procNow }
	return p
}

func fileSource(lines ...string) *fakeChunkSource {
	return &fakeChunkSource{chunks: [][]byte{
		[]byte(strings.Join(lines, "\n") + "\n"),
	}}
}

// TestProcessor_SingleFixFile tests the end-to-end path for a file holding
// one location row.
func TestProcessor_SingleFixFile(t *testing.T) {
	sender := &recordingSender{}
	p := newTestProcessor(sender, 200)
	src := fileSource(wireHeader, gpssLine(t, "2026-07-01 10:00:00"))

	result, err := p.ProcessFile(context.Background(), "17701_20260701.csv", src)

	require.NoError(t, err)
	assert.Equal(t, StatusProcessed, result.Status)
	assert.Equal(t, 1, result.Rows)
	assert.Equal(t, 1, result.Groups)
	assert.Equal(t, 1, result.EventsSent)

	events := sender.all()
	require.Len(t, events, 1)
	ev := events[0]
	assert.Equal(t, "17701", ev.Source)
	assert.Equal(t, "stork-A", ev.SourceName)
	assert.Equal(t, models.EventType, ev.Type)
	assert.Equal(t, models.SubjectTypeUnassigned, ev.SubjectType)
	require.NotNil(t, ev.Location.Latitude)
	assert.InDelta(t, 44.3945, *ev.Location.Latitude, 1e-9)
	require.NotNil(t, ev.Location.Longitude)
	assert.InDelta(t, 5.3702, *ev.Location.Longitude, 1e-9)
	require.NotNil(t, ev.Additional.DeviceStatus.BatteryVoltage)
	assert.InDelta(t, 3702, *ev.Additional.DeviceStatus.BatteryVoltage, 1e-9)
	assert.True(t, ev.RecordedAt.Equal(time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC)))
}

// TestProcessor_BurstFile tests a fix followed by a terminated burst: one
// event for the fix and one per captured sample.
func TestProcessor_BurstFile(t *testing.T) {
	sender := &recordingSender{}
	p := newTestProcessor(sender, 200)
	src := fileSource(
		wireHeader,
		gpssLine(t, "2026-07-01 10:00:00"),
		sensorLine(t, "SEN_ALL_20Hz_START", "2026-07-01 10:00:01"),
		sensorLine(t, "SEN_ALL_20Hz", "2026-07-01 10:00:01"),
		sensorLine(t, "SEN_ALL_20Hz_END", "2026-07-01 10:00:02"),
	)

	result, err := p.ProcessFile(context.Background(), "f.csv", src)

	require.NoError(t, err)
	assert.Equal(t, 4, result.Rows)
	assert.Equal(t, 1, result.Groups)
	assert.Equal(t, 3, result.EventsSent)

	events := sender.all()
	require.Len(t, events, 3)
	assert.Equal(t, "GPSS", events[0].Additional.Datatype)
	assert.Equal(t, "SEN_ALL_20Hz_START", events[1].Additional.Datatype)
	assert.Equal(t, "SEN_ALL_20Hz", events[2].Additional.Datatype)
	// Burst samples carry the fix's coordinates.
	require.NotNil(t, events[2].Location.Latitude)
	assert.InDelta(t, 44.3945, *events[2].Location.Latitude, 1e-9)
}

// TestProcessor_ConcatenatedSegments tests that a re-embedded header line in
// the body contributes no rows or events.
func TestProcessor_ConcatenatedSegments(t *testing.T) {
	sender := &recordingSender{}
	p := newTestProcessor(sender, 200)
	src := fileSource(
		wireHeader,
		gpssLine(t, "2026-07-01 10:00:00"),
		wireHeader,
		gpssLine(t, "2026-07-01 11:00:00"),
	)

	result, err := p.ProcessFile(context.Background(), "f.csv", src)

	require.NoError(t, err)
	assert.Equal(t, 2, result.Rows)
	assert.Equal(t, 2, result.EventsSent)
}

// TestProcessor_Deterministic tests that reprocessing identical bytes yields
// identical events.
func TestProcessor_Deterministic(t *testing.T) {
	lines := []string{
		wireHeader,
		gpssLine(t, "2026-07-01 10:00:00"),
		sensorLine(t, "SEN_ALL_20Hz_START", "2026-07-01 10:00:01"),
		sensorLine(t, "SEN_ALL_20Hz_END", "2026-07-01 10:00:02"),
	}

	first := &recordingSender{}
	_, err := newTestProcessor(first, 200).ProcessFile(context.Background(), "f.csv", fileSource(lines...))
	require.NoError(t, err)

	second := &recordingSender{}
	_, err = newTestProcessor(second, 200).ProcessFile(context.Background(), "f.csv", fileSource(lines...))
	require.NoError(t, err)

	assert.Equal(t, first.all(), second.all())
}

// TestProcessor_BatchBoundaries tests that delivery happens in batchSize
// slices with a final short flush.
func TestProcessor_BatchBoundaries(t *testing.T) {
	sender := &recordingSender{}
	p := newTestProcessor(sender, 2)
	src := fileSource(
		wireHeader,
		gpssLine(t, "2026-07-01 10:00:00"),
		gpssLine(t, "2026-07-01 10:05:00"),
		gpssLine(t, "2026-07-01 10:10:00"),
	)

	result, err := p.ProcessFile(context.Background(), "f.csv", src)

	require.NoError(t, err)
	assert.Equal(t, 3, result.EventsSent)
	require.Len(t, sender.batches, 2)
	assert.Len(t, sender.batches[0], 2)
	assert.Len(t, sender.batches[1], 1)
}

// TestProcessor_DeliveryFailure tests that a sender error fails the file with
// the delivery cause attached.
func TestProcessor_DeliveryFailure(t *testing.T) {
	sender := &recordingSender{err: errors.New("broker unreachable")}
	p := newTestProcessor(sender, 200)
	src := fileSource(wireHeader, gpssLine(t, "2026-07-01 10:00:00"))

	result, err := p.ProcessFile(context.Background(), "f.csv", src)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDeliveryFailed)
	assert.Equal(t, StatusFailed, result.Status)
	assert.NotEmpty(t, result.Reason)
	assert.Equal(t, 0, result.EventsSent)
}

// TestProcessor_StreamFailure tests that a storage read error mid-file fails
// the file without delivering partial reads as success.
func TestProcessor_StreamFailure(t *testing.T) {
	sender := &recordingSender{}
	p := newTestProcessor(sender, 200)
	src := &fakeChunkSource{
		chunks: [][]byte{[]byte(wireHeader + "\n")},
		err:    errors.New("connection reset"),
	}

	result, err := p.ProcessFile(context.Background(), "f.csv", src)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStreamFailed)
	assert.Equal(t, StatusFailed, result.Status)
}

// TestProcessor_EmptyFile tests that a header-only file processes cleanly
// with nothing sent.
func TestProcessor_EmptyFile(t *testing.T) {
	sender := &recordingSender{}
	p := newTestProcessor(sender, 200)
	src := fileSource(wireHeader)

	result, err := p.ProcessFile(context.Background(), "f.csv", src)

	require.NoError(t, err)
	assert.Equal(t, StatusProcessed, result.Status)
	assert.Equal(t, 0, result.Rows)
	assert.Equal(t, 0, result.EventsSent)
	assert.Empty(t, sender.batches)
}
