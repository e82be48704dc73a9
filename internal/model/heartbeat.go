package model

// Heartbeat is the /heartbeat response body
type Heartbeat struct {
	Fishbase HeartbeatStatus `json:"fishbase"`
}

// HeartbeatStatus carries the dependency's reported status
type HeartbeatStatus struct {
	Status string `json:"status"`
}
