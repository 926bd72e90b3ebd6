package browser

import (
	"context"
	"fmt"
	"strings"

	"quiz_solver/domain/interfaces"

	"github.com/playwright-community/playwright-go"
)

// actionTimeout bounds every locator call in milliseconds. Lookups only act on
// nodes already counted, so a long wait would mean a detached node.
const actionTimeout = 2000

// pwElement wraps a locator resolved to a single node. CSS and text engines
// pierce open shadow roots.
type pwElement struct {
	loc playwright.Locator
}

func (e *pwElement) Query(ctx context.Context, selector string) (interfaces.Element, error) {
	return first(ctx, e.loc.Locator(selector))
}

func (e *pwElement) QueryAll(ctx context.Context, selector string, limit int) ([]interfaces.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	all, err := e.loc.Locator(selector).All()
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", selector, err)
	}
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	out := make([]interfaces.Element, 0, len(all))
	for _, l := range all {
		out = append(out, &pwElement{loc: l})
	}
	return out, nil
}

func (e *pwElement) FindByText(ctx context.Context, text string) (interfaces.Element, error) {
	return first(ctx, e.loc.GetByText(strings.TrimSpace(text), playwright.LocatorGetByTextOptions{
		Exact: playwright.Bool(true),
	}))
}

func (e *pwElement) Text(ctx context.Context) (string, error) {
	text, err := e.loc.TextContent(playwright.LocatorTextContentOptions{Timeout: playwright.Float(actionTimeout)})
	if err != nil {
		return "", fmt.Errorf("failed to read text: %w", err)
	}
	return strings.TrimSpace(text), nil
}

func (e *pwElement) Attribute(ctx context.Context, name string) (string, error) {
	v, err := e.loc.GetAttribute(name, playwright.LocatorGetAttributeOptions{Timeout: playwright.Float(actionTimeout)})
	if err != nil {
		return "", fmt.Errorf("failed to read attribute %s: %w", name, err)
	}
	return v, nil
}

func (e *pwElement) Checked(ctx context.Context) (bool, error) {
	return e.loc.IsChecked(playwright.LocatorIsCheckedOptions{Timeout: playwright.Float(actionTimeout)})
}

func (e *pwElement) Enabled(ctx context.Context) (bool, error) {
	return e.loc.IsEnabled(playwright.LocatorIsEnabledOptions{Timeout: playwright.Float(actionTimeout)})
}

func (e *pwElement) Visible(ctx context.Context) (bool, error) {
	return e.loc.IsVisible()
}

func (e *pwElement) Click(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := e.loc.Click(playwright.LocatorClickOptions{Timeout: playwright.Float(actionTimeout)}); err != nil {
		return fmt.Errorf("failed to click: %w", err)
	}
	return nil
}

// first returns the first match of loc or nil when nothing matches.
func first(ctx context.Context, loc playwright.Locator) (interfaces.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	loc = loc.First()
	count, err := loc.Count()
	if err != nil {
		return nil, fmt.Errorf("failed to count matches: %w", err)
	}
	if count == 0 {
		return nil, nil
	}
	return &pwElement{loc: loc}, nil
}

// pwDocument resolves against whichever tab is current at call time.
type pwDocument struct {
	ctrl *PlaywrightController
}

func (d *pwDocument) root() *pwElement {
	return &pwElement{loc: d.ctrl.current().Locator(":root")}
}

func (d *pwDocument) Query(ctx context.Context, selector string) (interfaces.Element, error) {
	return d.root().Query(ctx, selector)
}

func (d *pwDocument) QueryAll(ctx context.Context, selector string, limit int) ([]interfaces.Element, error) {
	return d.root().QueryAll(ctx, selector, limit)
}

func (d *pwDocument) FindByText(ctx context.Context, text string) (interfaces.Element, error) {
	return d.root().FindByText(ctx, text)
}

func (d *pwDocument) Text(ctx context.Context) (string, error) {
	return d.root().Text(ctx)
}

func (d *pwDocument) Attribute(ctx context.Context, name string) (string, error) {
	return d.root().Attribute(ctx, name)
}

func (d *pwDocument) Checked(ctx context.Context) (bool, error) {
	return false, nil
}

func (d *pwDocument) Enabled(ctx context.Context) (bool, error) {
	return true, nil
}

func (d *pwDocument) Visible(ctx context.Context) (bool, error) {
	return true, nil
}

func (d *pwDocument) Click(ctx context.Context) error {
	return d.root().Click(ctx)
}

func (d *pwDocument) URL(ctx context.Context) (string, error) {
	return d.ctrl.current().URL(), nil
}

func (d *pwDocument) LocalStorage(ctx context.Context, key string) (string, error) {
	v, err := d.ctrl.current().Evaluate(`(k) => window.localStorage.getItem(k)`, key)
	if err != nil {
		return "", fmt.Errorf("failed to read local storage: %w", err)
	}
	return asString(v), nil
}

var _ interfaces.Document = (*pwDocument)(nil)
