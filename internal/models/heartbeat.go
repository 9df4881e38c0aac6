package models

import "time"

// Heartbeat represents the structure for an agent heartbeat event.
type Heartbeat struct {
	IntegrationID string    `json:"integration_id"`
	Timestamp     time.Time `json:"timestamp"`
	Status        string    `json:"status"`
}
