// Package readiness waits for the quiz to render before the solver scans it.
package readiness

import (
	"context"
	"errors"
	"time"

	"quiz_solver/application/locator"
	"quiz_solver/application/poll"
	"quiz_solver/domain/entities"
	"quiz_solver/domain/interfaces"

	"github.com/sirupsen/logrus"
)

// Source yields the known descriptors. It is re-read on every poll so that
// descriptors merged during the wait are picked up.
type Source interface {
	Components() []entities.Component
}

type Monitor struct {
	logger *logrus.Logger
	policy poll.Policy
}

// NewMonitor - creates a monitor polling every second until timeout
func NewMonitor(logger *logrus.Logger, timeout time.Duration) *Monitor {
	return &Monitor{
		logger: logger,
		policy: poll.Policy{Interval: time.Second, Timeout: timeout},
	}
}

// WithInterval overrides the poll cadence.
func (m *Monitor) WithInterval(d time.Duration) *Monitor {
	m.policy.Interval = d
	return m
}

// AwaitReady reports whether any descriptor's container rendered under root
// in time. A timeout means there is nothing to solve on this page and is not
// an error; only cancellation is.
func (m *Monitor) AwaitReady(ctx context.Context, root interfaces.Element, source Source) (bool, error) {
	started := time.Now()
	err := poll.Until(ctx, m.policy, func(ctx context.Context) (bool, error) {
		return Rendered(ctx, root, source.Components())
	})

	switch {
	case err == nil:
		m.logger.WithField("waited", time.Since(started).Round(time.Millisecond)).Info("Page is ready")
		return true, nil
	case errors.Is(err, poll.ErrTimeout):
		m.logger.WithField("timeout", m.policy.Timeout).Info("No questions on this page")
		return false, nil
	default:
		return false, err
	}
}

// Rendered reports whether at least one component container is present.
func Rendered(ctx context.Context, root interfaces.Element, components []entities.Component) (bool, error) {
	for _, c := range components {
		el, err := root.Query(ctx, locator.ContainerSelector(c.ID))
		if err != nil {
			return false, err
		}
		if el != nil {
			return true, nil
		}
	}
	return false, nil
}
