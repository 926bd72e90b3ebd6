package interfaces

import "quiz_solver/domain/entities"

// Storage keeps the history of auto-solve sessions
type Storage interface {
	// SaveReport appends a finished session
	SaveReport(report entities.SessionReport) error

	// LoadReports returns every stored session, oldest first
	LoadReports() ([]entities.SessionReport, error)
}
