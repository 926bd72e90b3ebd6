// Package locator finds the rendered container of each classified question and
// resolves the live nodes the solver will act on.
package locator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"quiz_solver/application/generation"
	"quiz_solver/domain/entities"
	"quiz_solver/domain/interfaces"

	"github.com/sirupsen/logrus"
)

// ErrPartial means fewer nodes were rendered than the question needs. It is
// not fatal: a later scan may find them.
var ErrPartial = errors.New("locator: question only partially rendered")

type Locator struct {
	logger *logrus.Logger
}

// NewLocator - creates a locator
func NewLocator(logger *logrus.Logger) *Locator {
	return &Locator{logger: logger}
}

// Scan returns one classified question per component whose container is
// present under root, in catalog order.
func (l *Locator) Scan(ctx context.Context, root interfaces.Element, components []entities.Component, tok generation.Token) ([]*Question, error) {
	var out []*Question
	for _, comp := range components {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := tok.Check(); err != nil {
			return nil, err
		}
		container := l.query(ctx, root, ContainerSelector(comp.ID))
		if container == nil {
			continue
		}
		q := NewQuestion(comp, container, tok)
		out = append(out, q)
	}

	if len(out) > 0 {
		types := make([]string, len(out))
		for i, q := range out {
			types[i] = string(q.Type)
		}
		l.logger.WithFields(logrus.Fields{
			"questions":  len(out),
			"types":      strings.Join(types, ","),
			"generation": tok.Generation(),
		}).Debug("Scanned rendered questions")
	}
	return out, nil
}

// Locate resolves the bindings of q. Types whose layout changes while being
// answered are resolved lazily by the solver; for them only the container is
// checked here.
func (l *Locator) Locate(ctx context.Context, q *Question) error {
	root, err := q.Container()
	if err != nil {
		return err
	}
	bindings, err := q.Bindings()
	if err != nil {
		return err
	}
	*bindings = Bindings{}
	q.Solvable = false
	if root == nil {
		return fmt.Errorf("%w: container missing", ErrPartial)
	}

	switch q.Type {
	case entities.QuestionBasic:
		err = l.locateBasic(ctx, root, q, bindings)
	case entities.QuestionMatch:
		err = l.locateMatch(ctx, root, q, bindings)
	case entities.QuestionDropdownSelect:
		err = l.locateDropdowns(ctx, root, q, bindings)
	}

	if err != nil {
		l.logger.WithFields(logrus.Fields{
			"question": q.ID,
			"type":     q.Type,
		}).WithError(err).Debug("Question not fully located")
		// dropdown sub-questions are answered independently, so the bound
		// ones stay answerable
		if q.Type == entities.QuestionDropdownSelect && len(bindings.Dropdowns) > 0 {
			q.Solvable = true
		}
		return err
	}
	q.Solvable = true
	return nil
}

func (l *Locator) locateBasic(ctx context.Context, root interfaces.Element, q *Question, b *Bindings) error {
	b.Trigger = l.findText(ctx, root, q.Component.Body)

	items := q.Items()
	for i := range items {
		input := l.query(ctx, root, basicInputSelector(q.ID, i))
		label := l.query(ctx, root, basicLabelSelector(q.ID, i))
		if input == nil || label == nil {
			continue
		}
		b.Basic = append(b.Basic, BasicBinding{Item: i, Input: input, Label: label})
	}

	if len(b.Basic) < len(items) {
		return fmt.Errorf("%w: %d of %d inputs", ErrPartial, len(b.Basic), len(items))
	}
	return nil
}

func (l *Locator) locateMatch(ctx context.Context, root interfaces.Element, q *Question, b *Bindings) error {
	b.Trigger = l.findText(ctx, root, q.Component.Body)

	items := q.Items()
	for i := range items {
		targets, err := root.QueryAll(ctx, matchTargetSelector(i), 2)
		if err != nil || len(targets) < 2 {
			continue
		}
		b.Pairs = append(b.Pairs, PairBinding{Item: i, Question: targets[0], Answer: targets[1]})
	}

	if len(b.Pairs) < len(items) {
		return fmt.Errorf("%w: %d of %d pairs", ErrPartial, len(b.Pairs), len(items))
	}
	return nil
}

func (l *Locator) locateDropdowns(ctx context.Context, root interfaces.Element, q *Question, b *Bindings) error {
	items := q.Items()
	for i, item := range items {
		sub := l.query(ctx, root, dropdownItemSelector(i))
		if sub == nil {
			continue
		}

		_, correct, ok := item.CorrectOption()
		if !ok {
			l.logger.WithFields(logrus.Fields{
				"question": q.ID,
				"item":     i,
			}).Warn("Dropdown item does not have exactly one correct option, skipping")
			continue
		}

		option := l.query(ctx, sub, dropdownOptionSelector(correct))
		if option == nil {
			continue
		}

		trigger := l.findText(ctx, sub, item.Text)
		if trigger == nil {
			trigger = sub
		}
		b.Dropdowns = append(b.Dropdowns, DropdownBinding{Item: i, Trigger: trigger, Option: option})
	}

	if len(b.Dropdowns) < len(items) {
		return fmt.Errorf("%w: %d of %d dropdowns", ErrPartial, len(b.Dropdowns), len(items))
	}
	return nil
}

// query returns nil when the node is absent or the lookup failed.
func (l *Locator) query(ctx context.Context, root interfaces.Element, selector string) interfaces.Element {
	if root == nil {
		return nil
	}
	el, err := root.Query(ctx, selector)
	if err != nil {
		l.logger.WithError(err).WithField("selector", selector).Debug("Lookup failed")
		return nil
	}
	return el
}

func (l *Locator) findText(ctx context.Context, root interfaces.Element, text string) interfaces.Element {
	text = strings.TrimSpace(text)
	if root == nil || text == "" {
		return nil
	}
	el, err := root.FindByText(ctx, text)
	if err != nil {
		l.logger.WithError(err).Debug("Text lookup failed")
		return nil
	}
	return el
}
