package entities

// EventType names a notification sent to the control surface.
type EventType string

const (
	EventProgress          EventType = "progress"
	EventAutoSolveStarted  EventType = "autoSolveStarted"
	EventAutoSolveStopped  EventType = "autoSolveStopped"
	EventAutoSolveComplete EventType = "autoSolveComplete"
	EventError             EventType = "error"
)

// Event carries the payload for every event type; unused fields stay zero.
type Event struct {
	Action        EventType `json:"action"`
	Current       int       `json:"current,omitempty"`
	Total         int       `json:"total,omitempty"`
	QuestionCount int       `json:"questionCount,omitempty"`
	Message       string    `json:"message,omitempty"`
}
