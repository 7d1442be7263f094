package model

// WebSocket message types
const (
	WSMessageTypeProgress = "progress"
	WSMessageTypeComplete = "complete"
	WSMessageTypeError    = "error"
	WSMessageTypePing     = "ping"
	WSMessageTypePong     = "pong"
)

// WSMessage is the generic envelope clients send (ping/pong only).
type WSMessage struct {
	Type string `json:"type"`
}

// WSProgressMessage notifies subscribers of a progress milestone.
type WSProgressMessage struct {
	Type      string    `json:"type"`
	ProcessID string    `json:"processId"`
	Progress  int       `json:"progress"`
	Status    JobStatus `json:"status"`
}

// WSCompleteMessage notifies subscribers that extraction finished.
type WSCompleteMessage struct {
	Type       string    `json:"type"`
	ProcessID  string    `json:"processId"`
	TextLength int       `json:"textLength"`
	Status     JobStatus `json:"status"`
}

// WSErrorMessage notifies subscribers of a terminal failure.
type WSErrorMessage struct {
	Type      string    `json:"type"`
	ProcessID string    `json:"processId"`
	Status    JobStatus `json:"status"`
	Message   string    `json:"message"`
}
