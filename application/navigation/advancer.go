// Package navigation moves the quiz to its next screen and confirms that it
// actually moved.
package navigation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"quiz_solver/application/poll"
	"quiz_solver/domain/interfaces"

	"github.com/sirupsen/logrus"
)

// ErrStuck means no control could be activated, or the page did not move
// after activation within the bounded attempts.
var ErrStuck = errors.New("navigation: stuck")

// Candidate is one way to find an advance control: by selector or by its
// exact visible text.
type Candidate struct {
	Selector string
	Text     string
}

func (c Candidate) String() string {
	if c.Selector != "" {
		return c.Selector
	}
	return fmt.Sprintf("text=%q", c.Text)
}

// DefaultCandidates are tried in order; wording differs between screens.
var DefaultCandidates = []Candidate{
	{Selector: ".btn__action.js-btn-action"},
	{Selector: ".js-btn-action"},
	{Selector: ".btn__action"},
	{Selector: `button[aria-label="Next"]`},
	{Selector: ".js-next-btn"},
	{Text: "Submit"},
	{Text: "Next"},
	{Text: "Next Question"},
	{Text: "Continue"},
}

// IntroCandidates start an assessment from its intro screen.
var IntroCandidates = []Candidate{
	{Selector: ".js-assessment-start"},
	{Selector: ".assessment__start-btn"},
	{Text: "Start"},
	{Text: "Start Assessment"},
	{Text: "Begin"},
}

// MarkerSelectors expose the active question index or number label.
var MarkerSelectors = []string{
	".js-progress-label",
	".assessment__question-number",
	"[aria-current=\"step\"]",
	".is-active-question",
}

// Marker fingerprints the current screen; Advance succeeds once it changes.
type Marker func(ctx context.Context) (string, error)

// Config bounds every wait of an advance.
type Config struct {
	EnableTimeout  time.Duration
	ConfirmTimeout time.Duration
	Interval       time.Duration
	Attempts       int
	Settle         time.Duration
	Candidates     []Candidate
	Intro          []Candidate
}

// DefaultConfig - returns the bounds used against the live platform
func DefaultConfig(timeout time.Duration) Config {
	return Config{
		EnableTimeout:  timeout,
		ConfirmTimeout: timeout,
		Interval:       250 * time.Millisecond,
		Attempts:       3,
		Settle:         300 * time.Millisecond,
		Candidates:     DefaultCandidates,
		Intro:          IntroCandidates,
	}
}

type Advancer struct {
	logger *logrus.Logger
	guard  interfaces.ControlGuard
	cfg    Config
}

// NewAdvancer - creates an advancer; guard may be nil to allow every control
func NewAdvancer(logger *logrus.Logger, guard interfaces.ControlGuard, cfg Config) *Advancer {
	if cfg.Attempts <= 0 {
		cfg.Attempts = 1
	}
	return &Advancer{logger: logger, guard: guard, cfg: cfg}
}

// Advance runs WaitEnabled, Activate and ConfirmMoved. A control that never
// becomes enabled is stuck at once; a click that does not move the page is
// retried, since a submit click often only reveals the next control.
func (a *Advancer) Advance(ctx context.Context, doc interfaces.Document, marker Marker) error {
	before, err := marker(ctx)
	if err != nil {
		return fmt.Errorf("failed to read page marker: %w", err)
	}

	for attempt := 1; attempt <= a.cfg.Attempts; attempt++ {
		log := a.logger.WithField("attempt", attempt)

		control, label, err := a.waitEnabled(ctx, doc, a.cfg.Candidates)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("%w: no enabled control: %v", ErrStuck, err)
		}

		log.WithField("control", label).Debug("Activating advance control")
		if err := control.Click(ctx); err != nil {
			log.WithError(err).Warn("Advance control click failed")
			continue
		}

		err = poll.Until(ctx, a.policy(a.cfg.ConfirmTimeout), func(ctx context.Context) (bool, error) {
			now, err := marker(ctx)
			if err != nil {
				return false, err
			}
			return now != before, nil
		})
		if err == nil {
			log.WithField("control", label).Info("Advanced to next screen")
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.WithError(err).Debug("Page did not move")
	}

	return fmt.Errorf("%w: page unchanged after %d attempts", ErrStuck, a.cfg.Attempts)
}

// ActivateIntro clicks an enabled start control if the intro screen is
// shown. It reports whether one was clicked.
func (a *Advancer) ActivateIntro(ctx context.Context, doc interfaces.Document) (bool, error) {
	control, label, err := a.findEnabled(ctx, doc, a.cfg.Intro)
	if err != nil || control == nil {
		return false, err
	}
	if err := control.Click(ctx); err != nil {
		return false, fmt.Errorf("failed to start assessment: %w", err)
	}
	a.logger.WithField("control", label).Info("Started assessment from intro screen")
	return true, poll.Sleep(ctx, a.cfg.Settle)
}

func (a *Advancer) policy(timeout time.Duration) poll.Policy {
	return poll.Policy{Interval: a.cfg.Interval, Timeout: timeout}
}

func (a *Advancer) waitEnabled(ctx context.Context, doc interfaces.Document, candidates []Candidate) (interfaces.Element, string, error) {
	var (
		control interfaces.Element
		label   string
	)
	err := poll.Until(ctx, a.policy(a.cfg.EnableTimeout), func(ctx context.Context) (bool, error) {
		el, l, err := a.findEnabled(ctx, doc, candidates)
		if err != nil || el == nil {
			return false, err
		}
		control, label = el, l
		return true, nil
	})
	return control, label, err
}

// findEnabled returns the first enabled, visible and allowed control among
// the candidates, or nil.
func (a *Advancer) findEnabled(ctx context.Context, doc interfaces.Document, candidates []Candidate) (interfaces.Element, string, error) {
	for _, c := range candidates {
		var els []interfaces.Element
		if c.Selector != "" {
			found, err := doc.QueryAll(ctx, c.Selector, 8)
			if err != nil {
				return nil, "", err
			}
			els = found
		} else {
			el, err := doc.FindByText(ctx, c.Text)
			if err != nil {
				return nil, "", err
			}
			if el != nil {
				els = append(els, el)
			}
		}

		for _, el := range els {
			if !usable(ctx, el) {
				continue
			}
			label := c.Text
			if text, err := el.Text(ctx); err == nil && strings.TrimSpace(text) != "" {
				label = strings.TrimSpace(text)
			}
			if a.guard != nil && !a.guard.Allowed(ctx, label) {
				continue
			}
			return el, label, nil
		}
	}
	return nil, "", nil
}

func usable(ctx context.Context, el interfaces.Element) bool {
	enabled, err := el.Enabled(ctx)
	if err != nil || !enabled {
		return false
	}
	visible, err := el.Visible(ctx)
	if err != nil || !visible {
		return false
	}
	disabled, err := el.Attribute(ctx, "aria-disabled")
	if err != nil {
		return false
	}
	return disabled != "true"
}

// PageMarker fingerprints doc by its URL and the marker labels it shows.
// extra contributes caller state such as the visible question id.
func PageMarker(doc interfaces.Document, extra func(ctx context.Context) string) Marker {
	return func(ctx context.Context) (string, error) {
		url, err := doc.URL(ctx)
		if err != nil {
			return "", err
		}
		parts := []string{url}
		for _, sel := range MarkerSelectors {
			el, err := doc.Query(ctx, sel)
			if err != nil || el == nil {
				continue
			}
			text, _ := el.Text(ctx)
			parts = append(parts, sel+"="+strings.TrimSpace(text))
		}
		if extra != nil {
			parts = append(parts, extra(ctx))
		}
		return strings.Join(parts, "|"), nil
	}
}
