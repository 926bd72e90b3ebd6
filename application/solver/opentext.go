package solver

import (
	"context"
	"fmt"
	"strings"

	"quiz_solver/application/locator"
	"quiz_solver/domain/entities"
)

// solveOpenText is best-effort: for each prompt it opens the prompt, opens
// its control and clicks the input at the target position of whichever item
// the prompt now shows. Without a known position or a rendered input there
// the unit fails.
func (s *Solver) solveOpenText(ctx context.Context, r *run) error {
	root, err := r.q.Container()
	if err != nil {
		return err
	}
	items := r.q.Items()

	for i := range items {
		if err := r.unit(ctx, fmt.Sprintf("prompt-%d", i), func() error {
			prompt, err := root.Query(ctx, locator.OpenTextPromptSelector(r.q.ID, i))
			if err != nil {
				return fmt.Errorf("failed to find prompt: %w", err)
			}
			if err := s.activate(ctx, r.q, prompt, s.timing.Settle); err != nil {
				return err
			}
			if button, _ := root.Query(ctx, locator.OpenTextButtonSelector(i)); button != nil {
				if err := s.activate(ctx, r.q, button, s.timing.Settle); err != nil {
					return err
				}
			}

			position := positionFor(items, textOf(ctx, prompt))
			if position == "" {
				return fmt.Errorf("%w: no target position for prompt %d", ErrElementMissing, i)
			}
			input, err := root.Query(ctx, locator.DataTargetSelector(position))
			if err != nil {
				return fmt.Errorf("failed to find target %s: %w", position, err)
			}
			if input == nil {
				if err := s.activate(ctx, r.q, root, s.timing.Settle); err != nil {
					return err
				}
				return fmt.Errorf("%w: no input at position %s", ErrElementMissing, position)
			}
			return s.activate(ctx, r.q, input, s.timing.Settle)
		}); err != nil {
			return err
		}
	}
	return nil
}

// positionFor returns the first position of the item whose option text is shown.
func positionFor(items []entities.Item, shown string) string {
	for _, item := range items {
		opt, ok := item.Options.First()
		if !ok || strings.TrimSpace(opt.Text) != shown {
			continue
		}
		if len(item.Position) == 0 {
			return ""
		}
		return item.Position[0].String()
	}
	return ""
}
