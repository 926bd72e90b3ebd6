package solver

import (
	"context"
	"fmt"
	"strings"

	"quiz_solver/domain/interfaces"
)

// solveBasic drives each input towards its item's correctness flag, then
// checks the final state, since a single-select layout silently clears
// earlier picks when a later one is activated.
func (s *Solver) solveBasic(ctx context.Context, r *run) error {
	b, err := r.q.Bindings()
	if err != nil {
		return err
	}
	if err := s.reveal(ctx, r, b.Trigger); err != nil {
		return err
	}

	items := r.q.Items()
	for _, bind := range b.Basic {
		want := items[bind.Item].ShouldBeSelected
		if err := r.unit(ctx, fmt.Sprintf("item-%d", bind.Item), func() error {
			return s.setSelected(ctx, r, bind.Input, bind.Label, want)
		}); err != nil {
			return err
		}
	}

	if err := r.q.Token().Check(); err != nil {
		return err
	}
	var wrong []string
	for _, bind := range b.Basic {
		checked, err := bind.Input.Checked(ctx)
		if err != nil {
			return fmt.Errorf("failed to read selection: %w", err)
		}
		if checked != items[bind.Item].ShouldBeSelected {
			wrong = append(wrong, fmt.Sprint(bind.Item))
		}
	}
	if len(wrong) > 0 {
		return fmt.Errorf("%w: items %s", ErrSelectionMismatch, strings.Join(wrong, ","))
	}
	return nil
}

func (s *Solver) setSelected(ctx context.Context, r *run, input, label interfaces.Element, want bool) error {
	if err := r.q.Token().Check(); err != nil {
		return err
	}
	checked, err := input.Checked(ctx)
	if err != nil {
		return fmt.Errorf("failed to read selection: %w", err)
	}
	if checked == want {
		return nil
	}
	return s.activate(ctx, r.q, label, s.timing.Settle)
}
