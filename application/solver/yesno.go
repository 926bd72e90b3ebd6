package solver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"quiz_solver/application/locator"
	"quiz_solver/application/poll"
	"quiz_solver/domain/interfaces"
)

// solveYesNo answers a carousel that shows one image at a time. The shown
// image's alt text selects the item, and the item's flag picks yes or no.
func (s *Solver) solveYesNo(ctx context.Context, r *run) error {
	root, err := r.q.Container()
	if err != nil {
		return err
	}
	items := r.q.Items()
	answered := make(map[int]bool, len(items))

	for len(answered) < len(items) {
		alt, ok := s.currentAlt(ctx, root)
		if !ok {
			break
		}
		idx := -1
		for i, item := range items {
			if !answered[i] && item.Graphic != nil && strings.TrimSpace(item.Graphic.Alt) == alt {
				idx = i
				break
			}
		}
		if idx < 0 {
			r.log.WithField("alt", alt).Debug("Shown image matches no unanswered item")
			break
		}
		answered[idx] = true

		selector := locator.NoButtonSelector
		if items[idx].ShouldBeSelected {
			selector = locator.YesButtonSelector
		}
		if err := r.unit(ctx, fmt.Sprintf("image-%d", idx), func() error {
			button, err := root.Query(ctx, selector)
			if err != nil {
				return fmt.Errorf("failed to find %s: %w", selector, err)
			}
			return s.activate(ctx, r.q, button, s.timing.Settle)
		}); err != nil {
			return err
		}

		if len(answered) == len(items) {
			break
		}
		err := poll.Until(ctx, poll.Policy{Interval: s.timing.Settle, Timeout: s.timing.ChangeTimeout}, func(ctx context.Context) (bool, error) {
			next, ok := s.currentAlt(ctx, root)
			return !ok || next != alt, nil
		})
		if err := r.q.Token().Check(); err != nil {
			return err
		}
		if errors.Is(err, poll.ErrTimeout) {
			r.log.WithField("alt", alt).Debug("Image did not advance")
			break
		}
		if err != nil {
			return err
		}
	}

	for i := range items {
		if answered[i] {
			continue
		}
		if err := r.unit(ctx, fmt.Sprintf("image-%d", i), func() error {
			return fmt.Errorf("%w: image for item %d never shown", ErrElementMissing, i)
		}); err != nil {
			return err
		}
	}
	return nil
}

func (s *Solver) currentAlt(ctx context.Context, root interfaces.Element) (string, bool) {
	img, err := root.Query(ctx, locator.YesNoImageSelector)
	if err != nil || img == nil {
		return "", false
	}
	alt, err := img.Attribute(ctx, "alt")
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(alt), true
}
