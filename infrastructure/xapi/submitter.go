package xapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"quiz_solver/domain/entities"
	"quiz_solver/domain/interfaces"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	apiVersionHeader = "X-Experience-API-Version"
	apiVersion       = "1.0.1"
	stateSuffix      = "_state_data"
)

var (
	ErrNoToken         = errors.New("no AuthToken found, please log in")
	ErrMissingLaunch   = errors.New("missing launch parameters, please refresh the page")
	ErrNothingToSubmit = errors.New("no questions found to submit")
)

// Page exposes the document the token and launch parameters are read from.
type Page interface {
	Document() interfaces.Document
}

// LaunchSource supplies launch data captured from background traffic.
type LaunchSource interface {
	Launch() (entities.LaunchData, bool)
}

type Submitter struct {
	page      Page
	launch    LaunchSource
	client    *http.Client
	overrides entities.LaunchData
	logger    *logrus.Logger

	now        func() time.Time
	newStateID func() string
}

// NewSubmitter - creates a direct submitter. client should carry the browser
// cookies; overrides take precedence over anything read from the page.
func NewSubmitter(page Page, launch LaunchSource, client *http.Client, overrides entities.LaunchData, logger *logrus.Logger) *Submitter {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Submitter{
		page:      page,
		launch:    launch,
		client:    client,
		overrides: overrides,
		logger:    logger,
		now:       time.Now,
		newStateID: func() string {
			return strings.ReplaceAll(uuid.NewString(), "-", "") + stateSuffix
		},
	}
}

// Submit - records an "answered" statement for every component with a
// derivable answer, then marks them complete in the course state
func (s *Submitter) Submit(ctx context.Context, components []entities.Component, meta *entities.AssessmentMeta) entities.SubmitResult {
	t, err := s.resolve(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("Direct submission unavailable")
		return entities.SubmitResult{Error: err.Error()}
	}

	statements := buildStatements(t, components, meta, s.now())
	if len(statements) == 0 {
		return entities.SubmitResult{Error: ErrNothingToSubmit.Error()}
	}

	endpoint := t.launch.Service + "data/" + t.launch.Key + "/statements"
	s.logger.WithFields(logrus.Fields{
		"url":        endpoint,
		"statements": len(statements),
	}).Info("Sending statements")

	if err := s.postStatements(ctx, endpoint, t.token, statements); err != nil {
		s.logger.WithError(err).Error("Failed to send statements")
		return entities.SubmitResult{Error: err.Error()}
	}

	if err := s.saveState(ctx, t, components); err != nil {
		s.logger.WithError(err).Warn("Failed to save course state")
	}
	return entities.SubmitResult{Success: true, Submitted: len(statements)}
}

func (s *Submitter) postStatements(ctx context.Context, endpoint, token string, statements []Statement) error {
	body, err := json.Marshal(statements)
	if err != nil {
		return fmt.Errorf("failed to encode statements: %w", err)
	}

	status, _, err := s.do(ctx, http.MethodPost, endpoint, token, body)
	if err == nil && ok(status) {
		return nil
	}
	s.logger.WithField("status", status).Debug("Bearer rejected, retrying with cookies only")

	status, _, err = s.do(ctx, http.MethodPost, endpoint, "", body)
	if err != nil {
		return err
	}
	if !ok(status) {
		return fmt.Errorf("status %d", status)
	}
	return nil
}

func (s *Submitter) saveState(ctx context.Context, t target, components []entities.Component) error {
	agentJSON, err := json.Marshal(t.agent)
	if err != nil {
		return fmt.Errorf("failed to encode agent: %w", err)
	}
	base := t.launch.Service + "data/" + t.launch.Key + "/activities/state"
	query := url.Values{}
	query.Set("activityId", t.coursePrefix)
	query.Set("agent", string(agentJSON))

	stateID, current := s.currentState(ctx, base, query, t.token)
	if stateID == "" {
		stateID = s.newStateID()
		s.logger.WithField("state_id", stateID).Debug("Generated new state id")
	}
	if current == nil {
		current = newState(t.coursePrefix)
	}
	patched := patchState(current, components, s.now())

	body, err := json.Marshal(patched)
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}
	query.Set("stateId", stateID)
	status, resp, err := s.do(ctx, http.MethodPost, base+"?"+query.Encode(), t.token, body)
	if err != nil {
		return err
	}
	if !ok(status) {
		return fmt.Errorf("failed to save state: %d %s", status, strings.TrimSpace(string(resp)))
	}
	s.logger.WithField("state_id", stateID).Info("Course state saved")
	return nil
}

// currentState - finds the learner's stored state; both results are empty
// when none can be read
func (s *Submitter) currentState(ctx context.Context, base string, query url.Values, token string) (string, map[string]any) {
	status, body, err := s.do(ctx, http.MethodGet, base+"?"+query.Encode(), token, nil)
	if err != nil || !ok(status) {
		s.logger.WithField("status", status).Debug("Failed to list states")
		return "", nil
	}
	var ids []string
	if err := json.Unmarshal(body, &ids); err != nil {
		return "", nil
	}

	var stateID string
	for _, id := range ids {
		if strings.HasSuffix(id, stateSuffix) {
			stateID = id
			break
		}
	}
	if stateID == "" {
		return "", nil
	}

	withID := url.Values{}
	for k, v := range query {
		withID[k] = v
	}
	withID.Set("stateId", stateID)
	status, body, err = s.do(ctx, http.MethodGet, base+"?"+withID.Encode(), token, nil)
	if err != nil || !ok(status) {
		s.logger.WithField("status", status).Debug("Failed to fetch current state")
		return stateID, nil
	}
	var state map[string]any
	if err := json.Unmarshal(body, &state); err != nil {
		return stateID, nil
	}
	return stateID, state
}

func (s *Submitter) do(ctx context.Context, method, endpoint, token string, body []byte) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set(apiVersionHeader, apiVersion)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to reach record store: %w", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp.StatusCode, data, nil
}

func ok(status int) bool {
	return status >= 200 && status < 300
}

var _ interfaces.Submitter = (*Submitter)(nil)
