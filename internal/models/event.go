package models

import "time"

const (
	// EventType is the fixed category tag attached to every emitted event.
	EventType = "tracking-device"

	// SubjectTypeUnassigned is emitted until the downstream system maps the
	// device to a subject.
	SubjectTypeUnassigned = "unassigned"
)

// EventDetails is the free-form payload bag attached to a normalized event.
// Fix-derived events fill movement and device status and leave environmental
// empty; sample-derived events do the opposite.
type EventDetails struct {
	Datatype      string        `json:"datatype"`
	Movement      Movement      `json:"movement"`
	DeviceStatus  DeviceStatus  `json:"device_status"`
	Sensors       SensorTriples `json:"sensors"`
	Environmental Environmental `json:"environmental"`
}

// NormalizedEvent is the unit handed to the downstream delivery collaborator.
// One is produced per location fix and one per retained burst sample.
type NormalizedEvent struct {
	File        string       `json:"file"`
	RecordedAt  time.Time    `json:"recorded_at"`
	Source      string       `json:"source"`
	SourceName  string       `json:"source_name"`
	SubjectType string       `json:"subject_type"`
	Type        string       `json:"type"`
	Location    Position     `json:"location"`
	Additional  EventDetails `json:"additional"`
}
