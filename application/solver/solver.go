// Package solver reproduces the correct answer of one located question by
// interacting with the live page.
package solver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"quiz_solver/application/generation"
	"quiz_solver/application/locator"
	"quiz_solver/application/poll"
	"quiz_solver/domain/entities"
	"quiz_solver/domain/interfaces"

	"github.com/sirupsen/logrus"
)

var (
	// ErrElementMissing means a node needed for one unit was not rendered.
	ErrElementMissing = errors.New("solver: element not found")

	// ErrSelectionMismatch means the final selection differs from the answer
	// key, e.g. several correct items in a single-select layout.
	ErrSelectionMismatch = errors.New("solver: selection does not match answer key")

	// ErrNoAnswer means the answer key has no usable correct option.
	ErrNoAnswer = errors.New("solver: no correct option in answer key")
)

// Outcome of one Solve call.
type Outcome string

const (
	OutcomeSolved   Outcome = "solved"
	OutcomeUnsolved Outcome = "unsolved"
	OutcomeStale    Outcome = "stale" // page changed under the solver
)

// Result reports how many independent units (items, rows, blanks) succeeded.
type Result struct {
	Outcome   Outcome
	Units     int
	Succeeded int
	Err       error
}

func (r Result) Solved() bool {
	return r.Outcome == OutcomeSolved
}

// Timing holds the settle waits inserted between interactions so the page's
// own reactive updates land before the next read.
type Timing struct {
	Reveal        time.Duration // after opening a question or list
	Settle        time.Duration // after each answer interaction
	Option        time.Duration // after picking an option from a list
	ChangeTimeout time.Duration // max wait for a dynamic layout to move on
}

// DefaultTiming - returns the settle waits used against the live platform
func DefaultTiming() Timing {
	return Timing{
		Reveal:        300 * time.Millisecond,
		Settle:        100 * time.Millisecond,
		Option:        200 * time.Millisecond,
		ChangeTimeout: 2 * time.Second,
	}
}

type Solver struct {
	logger *logrus.Logger
	timing Timing
}

// NewSolver - creates a solver with the given settle waits
func NewSolver(logger *logrus.Logger, timing Timing) *Solver {
	return &Solver{logger: logger, timing: timing}
}

// Solve runs the interaction sequence for q's type. It never panics or
// returns an error past its boundary: failures become OutcomeUnsolved, and a
// generation change becomes OutcomeStale.
func (s *Solver) Solve(ctx context.Context, q *locator.Question) (res Result) {
	log := s.logger.WithFields(logrus.Fields{
		"question":   q.ID,
		"type":       q.Type,
		"generation": q.Token().Generation(),
	})

	defer func() {
		if r := recover(); r != nil {
			res = Result{Outcome: OutcomeUnsolved, Err: fmt.Errorf("solver panic: %v", r)}
			log.WithField("panic", r).Error("Solver panicked")
		}
	}()

	if !q.Solvable {
		return Result{Outcome: OutcomeUnsolved, Err: fmt.Errorf("%w: question not located", ErrElementMissing)}
	}

	r := &run{solver: s, q: q, log: log}
	var err error
	switch q.Type {
	case entities.QuestionBasic:
		err = s.solveBasic(ctx, r)
	case entities.QuestionMatch:
		err = s.solveMatch(ctx, r)
	case entities.QuestionDropdownSelect:
		err = s.solveDropdowns(ctx, r)
	case entities.QuestionYesNo:
		err = s.solveYesNo(ctx, r)
	case entities.QuestionFillBlanks:
		err = s.solveFillBlanks(ctx, r)
	case entities.QuestionTableDropdown:
		err = s.solveTable(ctx, r)
	case entities.QuestionOpenTextInput:
		err = s.solveOpenText(ctx, r)
	default:
		err = fmt.Errorf("unknown question type %q", q.Type)
	}

	res = r.result(err)
	entry := log.WithFields(logrus.Fields{
		"units":     res.Units,
		"succeeded": res.Succeeded,
		"outcome":   res.Outcome,
	})
	switch res.Outcome {
	case OutcomeSolved:
		entry.Info("Question solved")
	case OutcomeStale:
		entry.Info("Page changed while solving, result discarded")
	default:
		entry.WithError(res.Err).Warn("Question not solved")
	}
	return res
}

// run tracks unit outcomes for one Solve call.
type run struct {
	solver    *Solver
	q         *locator.Question
	log       *logrus.Entry
	units     int
	succeeded int
	lastErr   error
}

// unit executes one independent step. Only staleness and cancellation abort
// the question; any other failure is recorded and the caller moves on.
func (r *run) unit(ctx context.Context, name string, fn func() error) error {
	r.units++
	err := fn()
	if err == nil {
		r.succeeded++
		return nil
	}
	if errors.Is(err, generation.ErrStale) || ctx.Err() != nil {
		return err
	}
	r.lastErr = err
	r.log.WithError(err).WithField("unit", name).Debug("Unit failed")
	return nil
}

func (r *run) result(err error) Result {
	res := Result{Units: r.units, Succeeded: r.succeeded, Err: err}
	switch {
	case errors.Is(err, generation.ErrStale):
		res.Outcome = OutcomeStale
	case err != nil:
		res.Outcome = OutcomeUnsolved
	case r.units > 0 && r.succeeded == r.units:
		res.Outcome = OutcomeSolved
	default:
		res.Outcome = OutcomeUnsolved
		res.Err = r.lastErr
		if res.Err == nil {
			res.Err = fmt.Errorf("%w: nothing to answer", ErrElementMissing)
		}
	}
	return res
}

// activate clicks el if the page is still the one q was scanned in, then
// waits for the page to settle.
func (s *Solver) activate(ctx context.Context, q *locator.Question, el interfaces.Element, settle time.Duration) error {
	if el == nil {
		return ErrElementMissing
	}
	if err := q.Token().Check(); err != nil {
		return err
	}
	if err := el.Click(ctx); err != nil {
		return fmt.Errorf("failed to click: %w", err)
	}
	return poll.Sleep(ctx, settle)
}

// reveal clicks a question prompt; a missing or unclickable prompt is not a
// failure since answers are often already visible.
func (s *Solver) reveal(ctx context.Context, r *run, trigger interfaces.Element) error {
	if trigger == nil {
		return nil
	}
	err := s.activate(ctx, r.q, trigger, s.timing.Reveal)
	if errors.Is(err, generation.ErrStale) || ctx.Err() != nil {
		return err
	}
	if err != nil {
		r.log.WithError(err).Debug("Could not reveal question")
	}
	return nil
}

func textOf(ctx context.Context, el interfaces.Element) string {
	if el == nil {
		return ""
	}
	t, err := el.Text(ctx)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(t)
}

// correctOption returns the single correct option, falling back to the first
// one marked correct when the key marks several.
func correctOption(item entities.Item) (entities.Option, error) {
	if opt, _, ok := item.CorrectOption(); ok {
		return opt, nil
	}
	idx := item.CorrectOptionIndexes()
	if len(idx) == 0 {
		return entities.Option{}, ErrNoAnswer
	}
	return item.Options.Options[idx[0]], nil
}

// pickOption activates the candidate whose trimmed text equals want.
func (s *Solver) pickOption(ctx context.Context, q *locator.Question, candidates []interfaces.Element, want string) error {
	want = strings.TrimSpace(want)
	for _, c := range candidates {
		if textOf(ctx, c) == want {
			return s.activate(ctx, q, c, s.timing.Option)
		}
	}
	return fmt.Errorf("%w: option %q", ErrElementMissing, want)
}
