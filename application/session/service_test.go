package session

import (
	"context"
	"errors"
	"io"
	"testing"

	"quiz_solver/application/autosolve"
	"quiz_solver/domain/entities"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeController struct {
	running   bool
	starts    []int
	stops     int
	refreshes int
	count     int
}

func (f *fakeController) Start(speed int) (entities.Status, error) {
	st := entities.Status{QuestionCount: f.count, IsAutoSolving: true}
	if f.running {
		return st, autosolve.ErrAlreadyRunning
	}
	f.running = true
	f.starts = append(f.starts, speed)
	return st, nil
}

func (f *fakeController) Stop() entities.Status {
	f.stops++
	f.running = false
	return entities.Status{}
}

func (f *fakeController) Refresh() entities.Status {
	f.refreshes++
	return entities.Status{QuestionCount: f.count}
}

func (f *fakeController) Status() entities.Status {
	return entities.Status{QuestionCount: f.count, IsAutoSolving: f.running}
}

type components []entities.Component

func (c components) Components() []entities.Component { return c }

type fakeSubmitter struct {
	got  []entities.Component
	meta *entities.AssessmentMeta
}

func (f *fakeSubmitter) Submit(ctx context.Context, comps []entities.Component, meta *entities.AssessmentMeta) entities.SubmitResult {
	f.got, f.meta = comps, meta
	return entities.SubmitResult{Success: true, Submitted: len(comps)}
}

type remerger struct{ calls int }

func (r *remerger) Remerge(ctx context.Context) int {
	r.calls++
	return 2
}

type navigator struct {
	url string
	err error
}

func (n *navigator) Navigate(ctx context.Context, url string) error {
	n.url = url
	return n.err
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestStartStop(t *testing.T) {
	ctrl := &fakeController{count: 4}
	svc := NewService(Deps{Controller: ctrl}, quietLogger())

	res := svc.Start(2)
	assert.Equal(t, Result{Success: true, QuestionCount: 4}, res)

	res = svc.Start(5)
	assert.False(t, res.Success)
	assert.Equal(t, 4, res.QuestionCount)
	assert.Equal(t, autosolve.ErrAlreadyRunning.Error(), res.Error)
	assert.Equal(t, []int{2}, ctrl.starts)

	assert.True(t, svc.Stop().Success)
	assert.Equal(t, 1, ctrl.stops)
	assert.False(t, svc.Status().IsAutoSolving)
}

func TestRefreshRemerges(t *testing.T) {
	ctrl := &fakeController{count: 3}
	r := &remerger{}
	svc := NewService(Deps{Controller: ctrl, Remerger: r}, quietLogger())

	res := svc.Refresh(context.Background())

	assert.Equal(t, Result{Success: true, QuestionCount: 3}, res)
	assert.Equal(t, 1, r.calls)
	assert.Equal(t, 1, ctrl.refreshes)
}

func TestSubmit(t *testing.T) {
	meta := &entities.AssessmentMeta{ID: "a1"}
	sub := &fakeSubmitter{}
	comps := components{{ID: "c1", Items: []entities.Item{{}}}}

	svc := NewService(Deps{Controller: &fakeController{}, Components: comps, Submitter: sub, Assessment: meta}, quietLogger())
	res := svc.Submit(context.Background())
	require.True(t, res.Success)
	assert.Equal(t, 1, res.Submitted)
	assert.Same(t, meta, sub.meta)

	empty := NewService(Deps{Controller: &fakeController{}, Components: components{}, Submitter: sub}, quietLogger())
	assert.False(t, empty.Submit(context.Background()).Success)

	unconfigured := NewService(Deps{Controller: &fakeController{}, Components: comps}, quietLogger())
	assert.NotEmpty(t, unconfigured.Submit(context.Background()).Error)
}

func TestOpen(t *testing.T) {
	nav := &navigator{}
	svc := NewService(Deps{Controller: &fakeController{}, Navigator: nav}, quietLogger())
	require.NoError(t, svc.Open(context.Background(), "https://example.test/quiz"))
	assert.Equal(t, "https://example.test/quiz", nav.url)

	nav.err = errors.New("net::ERR_NAME_NOT_RESOLVED")
	assert.Error(t, svc.Open(context.Background(), "https://nowhere.test"))

	none := NewService(Deps{Controller: &fakeController{}}, quietLogger())
	assert.Error(t, none.Open(context.Background(), "x"))
	reports, err := none.History()
	assert.NoError(t, err)
	assert.Nil(t, reports)
}
