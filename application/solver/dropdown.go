package solver

import (
	"context"
	"fmt"

	"quiz_solver/application/locator"
)

// solveDropdowns answers each sub-question on its own. Items the locator
// could not bind count as failed units so the question stays unsolved.
func (s *Solver) solveDropdowns(ctx context.Context, r *run) error {
	b, err := r.q.Bindings()
	if err != nil {
		return err
	}

	bound := make(map[int]locator.DropdownBinding, len(b.Dropdowns))
	for _, d := range b.Dropdowns {
		bound[d.Item] = d
	}

	for i := range r.q.Items() {
		d, ok := bound[i]
		if err := r.unit(ctx, fmt.Sprintf("dropdown-%d", i), func() error {
			if !ok {
				return fmt.Errorf("%w: dropdown %d not bound", ErrElementMissing, i)
			}
			if err := s.activate(ctx, r.q, d.Trigger, s.timing.Reveal); err != nil {
				return err
			}
			return s.activate(ctx, r.q, d.Option, s.timing.Option)
		}); err != nil {
			return err
		}
	}
	return nil
}
