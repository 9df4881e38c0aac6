package pipeline

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/wildtrack/ornitela-ingest/internal/models"
)

// Datatype discriminators recognized on the wire.
const (
	DatatypeGPS  = "GPS"
	DatatypeGPSS = "GPSS"

	SensorPrefix     = "SEN_"
	BurstStartSuffix = "_START"
	BurstEndSuffix   = "_END"
)

// Grouper assembles observation groups from the flat row stream: one location
// fix plus the burst samples collected before the next fix. The whole state
// is the current fix, the samples gathered so far, and whether a burst window
// is open.
type Grouper struct {
	fix       *models.LocationFix
	samples   []models.SensorSample
	burstOpen bool

	logger zerolog.Logger
}

// NewGrouper returns a grouper with no fix in progress.
func NewGrouper(logger zerolog.Logger) *Grouper {
	return &Grouper{logger: logger}
}

// Push consumes one row. It returns a finalized group exactly when a new
// GPS-class row supersedes the current fix, nil otherwise.
func (g *Grouper) Push(row RawRow) *models.ObservationGroup {
	tag := row.Datatype()

	switch {
	case tag == DatatypeGPS || tag == DatatypeGPSS:
		out := g.finalize()
		fix := parseLocationFix(row)
		g.fix = &fix
		g.samples = nil
		g.burstOpen = false
		return out

	case strings.HasPrefix(tag, SensorPrefix):
		if strings.HasSuffix(tag, BurstStartSuffix) {
			// A new burst discards any prior unterminated burst's samples.
			g.burstOpen = true
			g.samples = nil
		} else if strings.HasSuffix(tag, BurstEndSuffix) {
			g.burstOpen = false
		}
		// The start row is captured as the burst's first sample; the end row
		// only closes the window.
		if g.burstOpen && g.fix != nil {
			g.samples = append(g.samples, parseSensorSample(row))
		} else if g.burstOpen {
			g.logger.Debug().Str("datatype", tag).Msg("Dropping sensor row seen before any location fix")
		}
		return nil

	default:
		return nil
	}
}

// Flush finalizes the group in progress at end of input, if any. Partial
// bursts are emitted with whatever samples were collected.
func (g *Grouper) Flush() *models.ObservationGroup {
	out := g.finalize()
	g.samples = nil
	g.burstOpen = false
	return out
}

func (g *Grouper) finalize() *models.ObservationGroup {
	if g.fix == nil {
		return nil
	}
	out := &models.ObservationGroup{Fix: *g.fix, Samples: g.samples}
	g.fix = nil
	return out
}

func parseLocationFix(row RawRow) models.LocationFix {
	return models.LocationFix{
		DeviceID:   row.Get("device_id"),
		DeviceName: row.Get("device_name"),
		Timestamp:  row.Get("UTC_datetime"),
		Position: models.Position{
			Latitude:  row.Float("Latitude"),
			Longitude: row.Float("Longitude"),
			Altitude:  row.Float("MSL_altitude_m"),
		},
		Movement: models.Movement{
			Speed:     row.Float("speed_km/h"),
			Direction: row.Float("direction_deg"),
		},
		Status: models.DeviceStatus{
			BatteryVoltage: row.Float("U_bat_mV"),
			BatterySOC:     row.Float("bat_soc_pct"),
			SolarCurrent:   row.Float("solar_I_mA"),
			SatelliteCount: row.Int("satcount"),
			HDOP:           row.Float("hdop"),
		},
		Sensors:   parseSensorTriples(row),
		Ancillary: parseAncillary(row),
	}
}

func parseSensorSample(row RawRow) models.SensorSample {
	return models.SensorSample{
		Timestamp: row.Get("UTC_datetime"),
		Datatype:  row.Datatype(),
		Environmental: models.Environmental{
			Temperature:         row.Float("int_temperature_C"),
			ExternalTemperature: row.Float("ext_temperature_C"),
			Light:               row.Float("light"),
			Altimeter:           row.Float("altimeter_m"),
			Depth:               row.Float("depth_m"),
			Conductivity:        row.Float("conductivity_mS/cm"),
		},
		Sensors:   parseSensorTriples(row),
		Ancillary: parseAncillary(row),
	}
}

func parseSensorTriples(row RawRow) models.SensorTriples {
	return models.SensorTriples{
		Magnetometer: models.Vector3{
			X: row.Float("mag_x"),
			Y: row.Float("mag_y"),
			Z: row.Float("mag_z"),
		},
		Accelerometer: models.Vector3{
			X: row.Float("acc_x"),
			Y: row.Float("acc_y"),
			Z: row.Float("acc_z"),
		},
	}
}

func parseAncillary(row RawRow) models.Ancillary {
	return models.Ancillary{
		Datatype:     row.Datatype(),
		UTCDate:      row.Get("UTC_date"),
		UTCTime:      row.Get("UTC_time"),
		UTCTimestamp: row.Get("UTC_timestamp"),
		Milliseconds: row.Int("milliseconds"),
	}
}
