package solver

import (
	"context"
	"fmt"
	"strings"

	"quiz_solver/application/locator"
	"quiz_solver/application/markup"
	"quiz_solver/domain/entities"

	"github.com/sirupsen/logrus"
)

// solveFillBlanks matches each rendered blank to the item whose stripped
// pre and post text bracket it, opens the blank and picks the correct option.
func (s *Solver) solveFillBlanks(ctx context.Context, r *run) error {
	root, err := r.q.Container()
	if err != nil {
		return err
	}
	items := r.q.Items()
	blanks, err := root.QueryAll(ctx, locator.FillBlankSelector, len(items))
	if err != nil {
		return fmt.Errorf("failed to list blanks: %w", err)
	}
	if len(blanks) < len(items) {
		r.log.WithFields(logrus.Fields{
			"blanks": len(blanks),
			"items":  len(items),
		}).Debug("Fewer blanks rendered than items")
	}

	used := make(map[int]bool, len(items))
	for n, blank := range blanks {
		text := textOf(ctx, blank)
		idx := matchBlank(items, used, text)
		if err := r.unit(ctx, fmt.Sprintf("blank-%d", n), func() error {
			if idx < 0 {
				return fmt.Errorf("%w: no item brackets blank %q", ErrElementMissing, text)
			}
			used[idx] = true
			opt, err := correctOption(items[idx])
			if err != nil {
				return err
			}
			if err := s.activate(ctx, r.q, blank, s.timing.Reveal); err != nil {
				return err
			}
			candidates, err := blank.QueryAll(ctx, locator.BlankOptionSelector, len(items[idx].Options.Options))
			if err != nil {
				return fmt.Errorf("failed to list blank options: %w", err)
			}
			return s.pickOption(ctx, r.q, candidates, opt.Text)
		}); err != nil {
			return err
		}
	}

	for i := len(blanks); i < len(items); i++ {
		if err := r.unit(ctx, fmt.Sprintf("blank-%d", i), func() error {
			return fmt.Errorf("%w: blank %d not rendered", ErrElementMissing, i)
		}); err != nil {
			return err
		}
	}
	return nil
}

// matchBlank returns the first unused item whose fragments bracket text.
func matchBlank(items []entities.Item, used map[int]bool, text string) int {
	for i, item := range items {
		if used[i] {
			continue
		}
		if strings.HasPrefix(text, markup.PlainText(item.PreText)) && strings.HasSuffix(text, markup.PlainText(item.PostText)) {
			return i
		}
	}
	return -1
}
