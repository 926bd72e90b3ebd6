package browser

import (
	"context"
	"fmt"
	"strings"

	"quiz_solver/domain/interfaces"

	"github.com/tebeka/selenium"
)

// finder is satisfied by both the driver and its elements.
type finder interface {
	FindElements(by, value string) ([]selenium.WebElement, error)
}

type seElement struct {
	el selenium.WebElement
}

func (e *seElement) Query(ctx context.Context, selector string) (interfaces.Element, error) {
	return seQuery(ctx, e.el, selector)
}

func (e *seElement) QueryAll(ctx context.Context, selector string, limit int) ([]interfaces.Element, error) {
	return seQueryAll(ctx, e.el, selector, limit)
}

func (e *seElement) FindByText(ctx context.Context, text string) (interfaces.Element, error) {
	return seFindText(ctx, e.el, ".", text)
}

func (e *seElement) Text(ctx context.Context) (string, error) {
	text, err := e.el.Text()
	if err != nil {
		return "", fmt.Errorf("failed to read text: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// Attribute returns "" for a missing attribute, matching the DOM.
func (e *seElement) Attribute(ctx context.Context, name string) (string, error) {
	v, err := e.el.GetAttribute(name)
	if err != nil {
		if strings.Contains(err.Error(), "nil return value") {
			return "", nil
		}
		return "", fmt.Errorf("failed to read attribute %s: %w", name, err)
	}
	return v, nil
}

func (e *seElement) Checked(ctx context.Context) (bool, error) {
	return e.el.IsSelected()
}

func (e *seElement) Enabled(ctx context.Context) (bool, error) {
	return e.el.IsEnabled()
}

func (e *seElement) Visible(ctx context.Context) (bool, error) {
	return e.el.IsDisplayed()
}

func (e *seElement) Click(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := e.el.Click(); err != nil {
		return fmt.Errorf("failed to click: %w", err)
	}
	return nil
}

type seDocument struct {
	wd selenium.WebDriver
}

func (d *seDocument) Query(ctx context.Context, selector string) (interfaces.Element, error) {
	return seQuery(ctx, d.wd, selector)
}

func (d *seDocument) QueryAll(ctx context.Context, selector string, limit int) ([]interfaces.Element, error) {
	return seQueryAll(ctx, d.wd, selector, limit)
}

func (d *seDocument) FindByText(ctx context.Context, text string) (interfaces.Element, error) {
	return seFindText(ctx, d.wd, "", text)
}

func (d *seDocument) Text(ctx context.Context) (string, error) {
	body, err := seQuery(ctx, d.wd, "body")
	if err != nil || body == nil {
		return "", err
	}
	return body.Text(ctx)
}

func (d *seDocument) Attribute(ctx context.Context, name string) (string, error) {
	return "", nil
}

func (d *seDocument) Checked(ctx context.Context) (bool, error) {
	return false, nil
}

func (d *seDocument) Enabled(ctx context.Context) (bool, error) {
	return true, nil
}

func (d *seDocument) Visible(ctx context.Context) (bool, error) {
	return true, nil
}

func (d *seDocument) Click(ctx context.Context) error {
	body, err := seQuery(ctx, d.wd, "body")
	if err != nil {
		return err
	}
	if body == nil {
		return fmt.Errorf("failed to click: no body")
	}
	return body.Click(ctx)
}

func (d *seDocument) URL(ctx context.Context) (string, error) {
	return d.wd.CurrentURL()
}

func (d *seDocument) LocalStorage(ctx context.Context, key string) (string, error) {
	v, err := d.wd.ExecuteScript("return window.localStorage.getItem(arguments[0]);", []interface{}{key})
	if err != nil {
		return "", fmt.Errorf("failed to read local storage: %w", err)
	}
	return asString(v), nil
}

func seQuery(ctx context.Context, f finder, selector string) (interfaces.Element, error) {
	all, err := seQueryAll(ctx, f, selector, 1)
	if err != nil || len(all) == 0 {
		return nil, err
	}
	return all[0], nil
}

func seQueryAll(ctx context.Context, f finder, selector string, limit int) ([]interfaces.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	found, err := f.FindElements(selenium.ByCSSSelector, selector)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", selector, err)
	}
	if limit > 0 && len(found) > limit {
		found = found[:limit]
	}
	out := make([]interfaces.Element, 0, len(found))
	for _, el := range found {
		out = append(out, &seElement{el: el})
	}
	return out, nil
}

// seFindText returns the innermost element under scope whose normalized
// text equals text.
func seFindText(ctx context.Context, f finder, scope, text string) (interfaces.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	lit := xpathLiteral(strings.Join(strings.Fields(text), " "))
	xpath := fmt.Sprintf("%s//*[normalize-space(.)=%s and not(.//*[normalize-space(.)=%s])]", scope, lit, lit)
	found, err := f.FindElements(selenium.ByXPATH, xpath)
	if err != nil {
		return nil, fmt.Errorf("failed to find text: %w", err)
	}
	if len(found) == 0 {
		return nil, nil
	}
	return &seElement{el: found[0]}, nil
}

// xpathLiteral quotes s as an XPath 1.0 string literal.
func xpathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	quoted := make([]string, 0, 2*len(parts))
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `"'"`)
		}
		quoted = append(quoted, "'"+p+"'")
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}

var (
	_ interfaces.Element  = (*seElement)(nil)
	_ interfaces.Document = (*seDocument)(nil)
)
