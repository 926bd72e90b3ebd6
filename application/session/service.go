package session

import (
	"context"
	"errors"
	"fmt"

	"quiz_solver/application/autosolve"
	"quiz_solver/domain/entities"
	"quiz_solver/domain/interfaces"

	"github.com/sirupsen/logrus"
)

// Controller is the auto-solve state machine behind the control surface.
type Controller interface {
	Start(speed int) (entities.Status, error)
	Stop() entities.Status
	Refresh() entities.Status
	Status() entities.Status
}

// ComponentSource lists the question blocks known for the current page.
type ComponentSource interface {
	Components() []entities.Component
}

// Remerger re-fetches every catalog URL seen so far.
type Remerger interface {
	Remerge(ctx context.Context) int
}

type Navigator interface {
	Navigate(ctx context.Context, url string) error
}

// Result answers a control-surface command.
type Result struct {
	Success       bool   `json:"success"`
	QuestionCount int    `json:"questionCount,omitempty"`
	Error         string `json:"error,omitempty"`
}

// Deps wires the service; Submitter, Remerger, Navigator and History may be nil.
type Deps struct {
	Controller Controller
	Components ComponentSource
	Submitter  interfaces.Submitter
	Remerger   Remerger
	Navigator  Navigator
	History    interfaces.Storage
	Assessment *entities.AssessmentMeta
}

// Service executes control-surface commands against the running page.
type Service struct {
	deps   Deps
	logger *logrus.Logger
}

func NewService(deps Deps, logger *logrus.Logger) *Service {
	return &Service{deps: deps, logger: logger}
}

func (s *Service) Status() entities.Status {
	return s.deps.Controller.Status()
}

// Start - begins auto-solving; a second start while running is rejected
// without disturbing the running session
func (s *Service) Start(speed int) Result {
	st, err := s.deps.Controller.Start(speed)
	if errors.Is(err, autosolve.ErrAlreadyRunning) {
		return Result{QuestionCount: st.QuestionCount, Error: err.Error()}
	}
	if err != nil {
		return Result{Error: err.Error()}
	}
	return Result{Success: true, QuestionCount: st.QuestionCount}
}

func (s *Service) Stop() Result {
	s.deps.Controller.Stop()
	return Result{Success: true}
}

// Refresh - re-fetches known catalogs and rescans the page
func (s *Service) Refresh(ctx context.Context) Result {
	if s.deps.Remerger != nil {
		if added := s.deps.Remerger.Remerge(ctx); added > 0 {
			s.logger.WithField("added", added).Info("Refresh found new questions")
		}
	}
	st := s.deps.Controller.Refresh()
	return Result{Success: true, QuestionCount: st.QuestionCount}
}

// Submit - reports every known answer straight to the record store
func (s *Service) Submit(ctx context.Context) entities.SubmitResult {
	if s.deps.Submitter == nil {
		return entities.SubmitResult{Error: "direct submission is not configured"}
	}
	components := s.deps.Components.Components()
	if len(components) == 0 {
		return entities.SubmitResult{Error: "no questions loaded yet"}
	}
	res := s.deps.Submitter.Submit(ctx, components, s.deps.Assessment)
	s.logger.WithFields(logrus.Fields{
		"success":   res.Success,
		"submitted": res.Submitted,
	}).Info("Direct submission finished")
	return res
}

// Open - navigates the page to url
func (s *Service) Open(ctx context.Context, url string) error {
	if s.deps.Navigator == nil {
		return errors.New("navigation is not available")
	}
	if err := s.deps.Navigator.Navigate(ctx, url); err != nil {
		return fmt.Errorf("failed to open %s: %w", url, err)
	}
	return nil
}

// History - returns finished sessions, oldest first
func (s *Service) History() ([]entities.SessionReport, error) {
	if s.deps.History == nil {
		return nil, nil
	}
	return s.deps.History.LoadReports()
}
