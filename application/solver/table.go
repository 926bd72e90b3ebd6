package solver

import (
	"context"
	"fmt"

	"quiz_solver/application/locator"
)

// solveTable answers row i with item i's correct option.
func (s *Solver) solveTable(ctx context.Context, r *run) error {
	root, err := r.q.Container()
	if err != nil {
		return err
	}
	items := r.q.Items()
	rows, err := root.QueryAll(ctx, locator.TableRowSelector, len(items))
	if err != nil {
		return fmt.Errorf("failed to list rows: %w", err)
	}

	for i := range items {
		if err := r.unit(ctx, fmt.Sprintf("row-%d", i), func() error {
			if i >= len(rows) {
				return fmt.Errorf("%w: row %d", ErrElementMissing, i)
			}
			opt, err := correctOption(items[i])
			if err != nil {
				return err
			}
			candidates, err := rows[i].QueryAll(ctx, locator.TableOptionSelector, len(items[i].Options.Options))
			if err != nil {
				return fmt.Errorf("failed to list row options: %w", err)
			}
			return s.pickOption(ctx, r.q, candidates, opt.Text)
		}); err != nil {
			return err
		}
	}
	return nil
}
