package solver

import (
	"context"
	"fmt"
)

// solveMatch links each pair by activating its question half then its answer half.
func (s *Solver) solveMatch(ctx context.Context, r *run) error {
	b, err := r.q.Bindings()
	if err != nil {
		return err
	}
	if err := s.reveal(ctx, r, b.Trigger); err != nil {
		return err
	}

	for _, pair := range b.Pairs {
		if err := r.unit(ctx, fmt.Sprintf("pair-%d", pair.Item), func() error {
			if err := s.activate(ctx, r.q, pair.Question, s.timing.Settle); err != nil {
				return err
			}
			return s.activate(ctx, r.q, pair.Answer, s.timing.Settle)
		}); err != nil {
			return err
		}
	}
	return nil
}
