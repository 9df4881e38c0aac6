package constants

const (
	// StatusAlive is reported in heartbeat messages while the agent runs.
	StatusAlive = "alive"
)
