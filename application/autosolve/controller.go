// Package autosolve runs the solve loop across the whole question flow and
// exposes start, stop and status to the control surfaces.
package autosolve

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"quiz_solver/application/catalog"
	"quiz_solver/application/generation"
	"quiz_solver/application/locator"
	"quiz_solver/application/navigation"
	"quiz_solver/application/poll"
	"quiz_solver/application/readiness"
	"quiz_solver/application/solver"
	"quiz_solver/domain/entities"
	"quiz_solver/domain/interfaces"

	"github.com/sirupsen/logrus"
)

// ErrAlreadyRunning is returned by Start while a session is running. The
// running session is left untouched.
var ErrAlreadyRunning = errors.New("autosolve: already running")

// Page exposes the live render the loop works on.
type Page interface {
	Document() interfaces.Document
}

// Config bounds the loop.
type Config struct {
	Intervals       []time.Duration // pause after each question, per speed level
	MaxSteps        int
	StaleRetries    int // re-solves of a question whose page changed mid-solve
	LocateRetries   int
	LocateDelay     time.Duration
	ContentSelector string // non-question content blocks
}

// DefaultConfig - returns the loop bounds used against the live platform
func DefaultConfig() Config {
	return Config{
		Intervals:       SpeedIntervals,
		MaxSteps:        500,
		StaleRetries:    3,
		LocateRetries:   2,
		LocateDelay:     500 * time.Millisecond,
		ContentSelector: ".component",
	}
}

// Deps are the collaborators of a controller. Storage and HasLaunchKey are
// optional.
type Deps struct {
	Page         Page
	Catalog      *catalog.Catalog
	Readiness    *readiness.Monitor
	Locator      *locator.Locator
	Solver       *solver.Solver
	Advancer     *navigation.Advancer
	Counter      *generation.Counter
	Events       interfaces.EventSink
	Storage      interfaces.Storage
	HasLaunchKey func() bool
}

// Controller owns the single auto-solve session of one page context.
type Controller struct {
	deps   Deps
	cfg    Config
	logger *logrus.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu            sync.Mutex
	state         entities.SessionState
	stopRequested bool
	stop          chan struct{}
	done          chan struct{}
	interval      time.Duration
	active        string
	attempted     map[string]bool
	solved        map[string]bool
	solvedCount   int
	report        entities.SessionReport
}

// NewController - creates an idle controller
func NewController(deps Deps, cfg Config, logger *logrus.Logger) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		deps:      deps,
		cfg:       cfg,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
		state:     entities.SessionIdle,
		attempted: make(map[string]bool),
		solved:    make(map[string]bool),
	}
}

// Start begins a session at the given speed level. While a session runs it
// is a no-op returning the current status and ErrAlreadyRunning.
func (c *Controller) Start(speed int) (entities.Status, error) {
	c.mu.Lock()
	if c.state == entities.SessionRunning {
		st := c.statusLocked()
		c.mu.Unlock()
		c.logger.Info("Auto-solve already running, ignoring start")
		return st, ErrAlreadyRunning
	}

	c.state = entities.SessionRunning
	c.stopRequested = false
	c.stop = make(chan struct{})
	c.done = make(chan struct{})
	c.interval = IntervalFor(c.cfg.Intervals, speed)
	c.active = ""
	c.attempted = make(map[string]bool)
	c.solved = make(map[string]bool)
	c.solvedCount = 0
	c.report = entities.SessionReport{StartedAt: time.Now(), State: entities.SessionRunning}
	stop, done := c.stop, c.done
	st := c.statusLocked()
	c.mu.Unlock()

	c.logger.WithFields(logrus.Fields{
		"speed":     speed,
		"interval":  c.interval,
		"questions": st.QuestionCount,
	}).Info("Starting auto-solve")

	go c.loop(c.ctx, stop, done)
	return st, nil
}

// Stop asks the running session to end at its next step boundary. An
// interaction already in flight is allowed to finish.
func (c *Controller) Stop() entities.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == entities.SessionRunning && !c.stopRequested {
		c.stopRequested = true
		close(c.stop)
		c.logger.Info("Auto-solve stop requested")
	}
	return c.statusLocked()
}

// Wait blocks until the current session, if any, has finished.
func (c *Controller) Wait(ctx context.Context) error {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the session and abandons any wait in progress.
func (c *Controller) Close() {
	c.Stop()
	c.cancel()
	_ = c.Wait(context.Background())
}

// Invalidate marks every binding captured so far as stale. It is called on
// navigation and whenever new components arrive.
func (c *Controller) Invalidate() {
	gen := c.deps.Counter.Bump()
	c.logger.WithField("generation", gen).Debug("Page structure invalidated")
}

// Refresh invalidates the current render and reports the status.
func (c *Controller) Refresh() entities.Status {
	c.Invalidate()
	return c.Status()
}

func (c *Controller) Status() entities.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statusLocked()
}

func (c *Controller) statusLocked() entities.Status {
	components := c.deps.Catalog.Components()
	st := entities.Status{
		QuestionCount:   len(components),
		IsAutoSolving:   c.state == entities.SessionRunning && !c.stopRequested,
		CurrentQuestion: c.solvedCount,
		ActiveQuestion:  c.active,
		State:           c.state,
		Unanswered:      []string{},
	}
	for _, comp := range components {
		switch {
		case !c.attempted[comp.ID]:
			st.Remaining++
		case !c.solved[comp.ID]:
			st.Unanswered = append(st.Unanswered, comp.ID)
		}
	}
	if c.deps.HasLaunchKey != nil {
		st.HasLaunchKey = c.deps.HasLaunchKey()
	}
	return st
}

func (c *Controller) loop(ctx context.Context, stop <-chan struct{}, done chan struct{}) {
	defer close(done)

	var (
		state entities.SessionState
		err   error
	)
	func() {
		defer func() {
			if r := recover(); r != nil {
				state, err = entities.SessionError, fmt.Errorf("solve loop panic: %v", r)
			}
		}()
		c.emit(ctx, entities.Event{Action: entities.EventAutoSolveStarted, QuestionCount: c.deps.Catalog.Len()})
		state, err = c.run(ctx, stop)
	}()
	c.finish(state, err)
}

func (c *Controller) run(ctx context.Context, stop <-chan struct{}) (entities.SessionState, error) {
	doc := c.deps.Page.Document()
	if url, err := doc.URL(ctx); err == nil {
		c.mu.Lock()
		c.report.URL = url
		c.mu.Unlock()
	}

	clicked, err := c.deps.Advancer.ActivateIntro(ctx, doc)
	if err != nil {
		c.logger.WithError(err).Warn("Failed to leave intro screen")
	}
	if clicked {
		c.Invalidate()
	}

	waitCtx, cancel := withStop(ctx, stop)
	ready, err := c.deps.Readiness.AwaitReady(waitCtx, doc, c.deps.Catalog)
	cancel()
	if err != nil {
		return c.interrupted(ctx, stop, err)
	}
	if !ready {
		return entities.SessionCompleted, nil
	}

	staleRetries := make(map[string]int)
	for step := 0; step < c.cfg.MaxSteps; step++ {
		if stopped(stop) {
			return entities.SessionStopped, nil
		}
		if err := ctx.Err(); err != nil {
			return c.interrupted(ctx, stop, err)
		}

		tok := c.deps.Counter.Current()
		questions, err := c.deps.Locator.Scan(ctx, doc, c.deps.Catalog.Components(), tok)
		if errors.Is(err, generation.ErrStale) {
			continue
		}
		if err != nil {
			return c.interrupted(ctx, stop, err)
		}

		q := c.nextQuestion(ctx, questions)
		if q == nil {
			if len(questions) == 0 && !c.contentPresent(ctx, doc) {
				c.logger.Info("No question container left on the page")
				return entities.SessionCompleted, nil
			}
			if err := c.advance(ctx, doc); err != nil {
				if c.allAttempted() {
					return entities.SessionCompleted, nil
				}
				return c.interrupted(ctx, stop, err)
			}
			continue
		}

		res := c.solveOne(ctx, q)
		if res.Outcome == solver.OutcomeStale && staleRetries[q.ID] < c.cfg.StaleRetries {
			staleRetries[q.ID]++
			continue
		}
		c.record(ctx, q, res)

		if err := c.pause(ctx, stop); err != nil {
			return c.interrupted(ctx, stop, err)
		}
		if stopped(stop) {
			return entities.SessionStopped, nil
		}
		if err := c.advance(ctx, doc); err != nil {
			return c.interrupted(ctx, stop, err)
		}
	}
	return entities.SessionError, fmt.Errorf("gave up after %d steps", c.cfg.MaxSteps)
}

// interrupted maps a loop error to Stopped when it was caused by a stop or
// shutdown, and to Error otherwise.
func (c *Controller) interrupted(ctx context.Context, stop <-chan struct{}, err error) (entities.SessionState, error) {
	if stopped(stop) || ctx.Err() != nil {
		return entities.SessionStopped, nil
	}
	return entities.SessionError, err
}

// withStop derives a context that is also cancelled by a stop request. Only
// waits use it; page interactions always run to completion.
func withStop(ctx context.Context, stop <-chan struct{}) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	go func() {
		select {
		case <-stop:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

func stopped(stop <-chan struct{}) bool {
	select {
	case <-stop:
		return true
	default:
		return false
	}
}

// nextQuestion returns the first visible question not attempted yet.
func (c *Controller) nextQuestion(ctx context.Context, questions []*locator.Question) *locator.Question {
	c.mu.Lock()
	attempted := make(map[string]bool, len(c.attempted))
	for id := range c.attempted {
		attempted[id] = true
	}
	c.mu.Unlock()

	for _, q := range questions {
		if attempted[q.ID] {
			continue
		}
		container, err := q.Container()
		if err != nil || container == nil {
			continue
		}
		if visible, err := container.Visible(ctx); err == nil && visible {
			return q
		}
	}
	return nil
}

func (c *Controller) contentPresent(ctx context.Context, doc interfaces.Document) bool {
	if c.cfg.ContentSelector == "" {
		return false
	}
	el, err := doc.Query(ctx, c.cfg.ContentSelector)
	return err == nil && el != nil
}

func (c *Controller) solveOne(ctx context.Context, q *locator.Question) solver.Result {
	c.mu.Lock()
	c.active = q.ID
	c.mu.Unlock()

	for attempt := 0; ; attempt++ {
		err := c.deps.Locator.Locate(ctx, q)
		if err == nil {
			break
		}
		if errors.Is(err, generation.ErrStale) {
			return solver.Result{Outcome: solver.OutcomeStale, Err: err}
		}
		if !errors.Is(err, locator.ErrPartial) || attempt >= c.cfg.LocateRetries {
			break
		}
		if err := poll.Sleep(ctx, c.cfg.LocateDelay); err != nil {
			return solver.Result{Outcome: solver.OutcomeUnsolved, Err: err}
		}
	}
	return c.deps.Solver.Solve(ctx, q)
}

func (c *Controller) record(ctx context.Context, q *locator.Question, res solver.Result) {
	c.mu.Lock()
	c.attempted[q.ID] = true
	solved := res.Solved()
	if solved {
		c.solved[q.ID] = true
		c.solvedCount++
	}
	current := c.solvedCount
	c.mu.Unlock()

	if solved {
		c.emit(ctx, entities.Event{Action: entities.EventProgress, Current: current, Total: c.deps.Catalog.Len()})
	}
}

// pause waits the speed interval, returning early on stop.
func (c *Controller) pause(ctx context.Context, stop <-chan struct{}) error {
	c.mu.Lock()
	d := c.interval
	c.mu.Unlock()

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-stop:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller) advance(ctx context.Context, doc interfaces.Document) error {
	marker := navigation.PageMarker(doc, func(ctx context.Context) string {
		return c.visibleQuestionID(ctx, doc)
	})
	if err := c.deps.Advancer.Advance(ctx, doc, marker); err != nil {
		return err
	}
	c.Invalidate()
	return nil
}

func (c *Controller) visibleQuestionID(ctx context.Context, doc interfaces.Document) string {
	for _, comp := range c.deps.Catalog.Components() {
		el, err := doc.Query(ctx, locator.ContainerSelector(comp.ID))
		if err != nil || el == nil {
			continue
		}
		if visible, err := el.Visible(ctx); err == nil && visible {
			return comp.ID
		}
	}
	return ""
}

func (c *Controller) allAttempted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, comp := range c.deps.Catalog.Components() {
		if !c.attempted[comp.ID] {
			return false
		}
	}
	return true
}

func (c *Controller) finish(state entities.SessionState, err error) {
	c.mu.Lock()
	c.state = state
	c.stopRequested = false
	c.active = ""
	solved := c.solvedCount
	report := c.report
	report.FinishedAt = time.Now()
	report.State = state
	report.Solved = solved
	c.mu.Unlock()

	st := c.Status()
	report.Total = st.QuestionCount
	report.Unsolved = st.Unanswered
	log := c.logger.WithFields(logrus.Fields{
		"state":  state,
		"solved": solved,
		"total":  st.QuestionCount,
	})
	// events outlive a cancelled loop context
	ctx := context.Background()
	switch state {
	case entities.SessionCompleted:
		log.Info("Auto-solve complete")
		c.emit(ctx, entities.Event{Action: entities.EventAutoSolveComplete, QuestionCount: st.QuestionCount, Current: solved})
	case entities.SessionStopped:
		log.Info("Auto-solve stopped")
		c.emit(ctx, entities.Event{Action: entities.EventAutoSolveStopped, Current: solved, Total: st.QuestionCount})
	default:
		if err == nil {
			err = errors.New("auto-solve failed")
		}
		log.WithError(err).Error("Auto-solve failed")
		c.emit(ctx, entities.Event{Action: entities.EventError, Message: err.Error()})
	}

	if err != nil {
		report.Error = err.Error()
	}
	if c.deps.Storage != nil {
		if err := c.deps.Storage.SaveReport(report); err != nil {
			c.logger.WithError(err).Warn("Failed to save session report")
		}
	}
}

func (c *Controller) emit(ctx context.Context, event entities.Event) {
	if c.deps.Events != nil {
		c.deps.Events.Emit(ctx, event)
	}
}
