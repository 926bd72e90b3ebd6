package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"quiz_solver/domain/entities"
	"quiz_solver/domain/interfaces"
)

const (
	historyFile      = "history.json"
	browserStateFile = "browser_state.json"
	chromeProfileDir = "chrome_profile"

	// maxReports bounds the history file; older sessions are dropped first.
	maxReports = 200
)

type historyStore struct {
	mu          sync.Mutex
	historyPath string
}

// StateDir resolves dir, defaulting to ~/.quiz_solver, and creates it.
func StateDir(dir string) (string, error) {
	if dir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			homeDir = "."
		}
		dir = filepath.Join(homeDir, ".quiz_solver")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create state directory: %w", err)
	}
	return dir, nil
}

// BrowserStatePath - file the playwright storage state is kept in
func BrowserStatePath(dir string) string {
	return filepath.Join(dir, browserStateFile)
}

// ChromeProfilePath - profile directory used by the selenium driver
func ChromeProfilePath(dir string) string {
	return filepath.Join(dir, chromeProfileDir)
}

// NewHistoryStore - creates session history storage under dir
func NewHistoryStore(dir string) interfaces.Storage {
	return &historyStore{historyPath: filepath.Join(dir, historyFile)}
}

// SaveReport - appends a finished session to the history file
func (s *historyStore) SaveReport(report entities.SessionReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	reports, err := s.load()
	if err != nil {
		return err
	}
	reports = append(reports, report)
	if len(reports) > maxReports {
		reports = reports[len(reports)-maxReports:]
	}

	data, err := json.MarshalIndent(reports, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}
	tmp := s.historyPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write history: %w", err)
	}
	if err := os.Rename(tmp, s.historyPath); err != nil {
		return fmt.Errorf("failed to replace history: %w", err)
	}
	return nil
}

// LoadReports - loads session history, oldest first
func (s *historyStore) LoadReports() ([]entities.SessionReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *historyStore) load() ([]entities.SessionReport, error) {
	data, err := os.ReadFile(s.historyPath)
	if err != nil {
		if os.IsNotExist(err) {
			return []entities.SessionReport{}, nil
		}
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	var reports []entities.SessionReport
	if err := json.Unmarshal(data, &reports); err != nil {
		return nil, fmt.Errorf("failed to decode history: %w", err)
	}
	return reports, nil
}
