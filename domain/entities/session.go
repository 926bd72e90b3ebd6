package entities

import "time"

// SessionState is the lifecycle state of an auto-solve run.
type SessionState string

const (
	SessionIdle      SessionState = "idle"
	SessionRunning   SessionState = "running"
	SessionStopped   SessionState = "stopped"
	SessionCompleted SessionState = "completed"
	SessionError     SessionState = "error"
)

// Terminal reports whether the state ends a run.
func (s SessionState) Terminal() bool {
	return s == SessionStopped || s == SessionCompleted || s == SessionError
}

// Status is the snapshot returned to the control surface.
type Status struct {
	QuestionCount   int          `json:"questionCount"`
	IsAutoSolving   bool         `json:"isAutoSolving"`
	CurrentQuestion int          `json:"currentQuestion"`
	ActiveQuestion  string       `json:"activeQuestion"`
	Remaining       int          `json:"remaining"`
	Unanswered      []string     `json:"unanswered"`
	State           SessionState `json:"state"`
	HasLaunchKey    bool         `json:"hasLaunchKey"`
}

// SessionReport is persisted when a run reaches a terminal state.
type SessionReport struct {
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	URL        string       `json:"url,omitempty"`
	State      SessionState `json:"state"`
	Solved     int          `json:"solved"`
	Total      int          `json:"total"`
	Unsolved   []string     `json:"unsolved,omitempty"`
	Error      string       `json:"error,omitempty"`
}
