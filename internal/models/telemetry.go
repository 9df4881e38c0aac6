package models

// Position is a geographic position reported by a tracking device. Any of the
// coordinates may be absent from the source row.
type Position struct {
	Latitude  *float64 `json:"lat"`
	Longitude *float64 `json:"lon"`
	Altitude  *float64 `json:"altitude"`
}

// Movement holds the speed and heading reported with a location fix.
type Movement struct {
	Speed     *float64 `json:"speed,omitempty"`
	Direction *float64 `json:"direction,omitempty"`
}

// DeviceStatus carries the device health fields reported with a location fix.
type DeviceStatus struct {
	BatteryVoltage *float64 `json:"battery_voltage,omitempty"`
	BatterySOC     *float64 `json:"battery_soc,omitempty"`
	SolarCurrent   *float64 `json:"solar_current,omitempty"`
	SatelliteCount *int64   `json:"satellite_count,omitempty"`
	HDOP           *float64 `json:"hdop,omitempty"`
}

// Vector3 is a three-axis reading from the onboard magnetometer or
// accelerometer.
type Vector3 struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
	Z *float64 `json:"z"`
}

// SensorTriples groups the embedded three-axis sensors present on both
// location fixes and burst samples.
type SensorTriples struct {
	Magnetometer  Vector3 `json:"magnetometer"`
	Accelerometer Vector3 `json:"accelerometer"`
}

// Environmental holds the high-rate environmental readings carried by burst
// samples. Location fixes do not report these.
type Environmental struct {
	Temperature         *float64 `json:"temperature,omitempty"`
	ExternalTemperature *float64 `json:"external_temperature,omitempty"`
	Light               *float64 `json:"light,omitempty"`
	Altimeter           *float64 `json:"altimeter,omitempty"`
	Depth               *float64 `json:"depth,omitempty"`
	Conductivity        *float64 `json:"conductivity,omitempty"`
}

// Ancillary keeps the raw date/time fields of a row alongside the datatype
// discriminator, exactly as they appeared on the wire.
type Ancillary struct {
	Datatype     string `json:"datatype"`
	UTCDate      string `json:"utc_date,omitempty"`
	UTCTime      string `json:"utc_time,omitempty"`
	UTCTimestamp string `json:"utc_timestamp,omitempty"`
	Milliseconds *int64 `json:"milliseconds,omitempty"`
}

// LocationFix is one GPS-class row: a position sample plus the device status
// reported with it. Timestamps are the device's naive UTC strings
// ("2006-01-02 15:04:05"); they are parsed only when events are emitted.
type LocationFix struct {
	DeviceID   string
	DeviceName string
	Timestamp  string
	Position   Position
	Movement   Movement
	Status     DeviceStatus
	Sensors    SensorTriples
	Ancillary  Ancillary
}

// SensorSample is one row of a high-rate sensor burst. Samples carry no
// position of their own; they inherit it from the fix they are grouped under.
type SensorSample struct {
	Timestamp     string
	Datatype      string
	Environmental Environmental
	Sensors       SensorTriples
	Ancillary     Ancillary
}

// ObservationGroup is one location fix together with the burst samples
// collected before the next fix, in file order.
type ObservationGroup struct {
	Fix     LocationFix
	Samples []SensorSample
}
