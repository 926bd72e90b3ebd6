// Package domtest is an in-memory render used to exercise the solver without
// a browser. Lookups are answered from selectors registered on each element,
// so tests state exactly which nodes the page exposes.
package domtest

import (
	"context"
	"strings"
	"sync"

	"quiz_solver/domain/interfaces"
)

// Element is a fake page node.
type Element struct {
	mu       sync.Mutex
	name     string
	text     string
	attrs    map[string]string
	checked  bool
	disabled bool
	hidden   bool
	children map[string][]*Element
	byText   map[string]*Element
	clicks   int
	clickErr error
	onClick  func(*Element)
}

// New - creates an element; name only shows up in test failure output
func New(name string) *Element {
	return &Element{
		name:     name,
		attrs:    make(map[string]string),
		children: make(map[string][]*Element),
		byText:   make(map[string]*Element),
	}
}

func (e *Element) String() string { return e.name }

// WithText sets the text content and returns e.
func (e *Element) WithText(text string) *Element {
	e.SetText(text)
	return e
}

// WithAttr sets an attribute and returns e.
func (e *Element) WithAttr(name, value string) *Element {
	e.SetAttr(name, value)
	return e
}

// Add registers els as the matches of selector under e, appending to any
// already registered.
func (e *Element) Add(selector string, els ...*Element) *Element {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.children[selector] = append(e.children[selector], els...)
	return e
}

// AddText registers el as the descendant whose text equals text.
func (e *Element) AddText(text string, el *Element) *Element {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.byText[strings.TrimSpace(text)] = el
	return e
}

// Remove drops every match of selector, simulating a re-render.
func (e *Element) Remove(selector string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.children, selector)
}

// OnClick installs a handler run after each successful click.
func (e *Element) OnClick(fn func(*Element)) *Element {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onClick = fn
	return e
}

// FailClicks makes every click return err.
func (e *Element) FailClicks(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.clickErr = err
}

func (e *Element) SetText(text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.text = text
}

func (e *Element) SetAttr(name, value string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.attrs[name] = value
}

func (e *Element) SetChecked(v bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.checked = v
}

func (e *Element) SetDisabled(v bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.disabled = v
}

func (e *Element) SetHidden(v bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.hidden = v
}

func (e *Element) IsChecked() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.checked
}

// Clicks returns how many clicks succeeded.
func (e *Element) Clicks() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clicks
}

func (e *Element) Query(ctx context.Context, selector string) (interfaces.Element, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if m := e.children[selector]; len(m) > 0 {
		return m[0], nil
	}
	return nil, nil
}

func (e *Element) QueryAll(ctx context.Context, selector string, limit int) ([]interfaces.Element, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	matches := e.children[selector]
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	out := make([]interfaces.Element, 0, len(matches))
	for _, m := range matches {
		out = append(out, m)
	}
	return out, nil
}

func (e *Element) FindByText(ctx context.Context, text string) (interfaces.Element, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if el, ok := e.byText[strings.TrimSpace(text)]; ok {
		return el, nil
	}
	return nil, nil
}

func (e *Element) Text(ctx context.Context) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.text, nil
}

func (e *Element) Attribute(ctx context.Context, name string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.attrs[name], nil
}

func (e *Element) Checked(ctx context.Context) (bool, error) {
	return e.IsChecked(), nil
}

func (e *Element) Enabled(ctx context.Context) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.disabled, nil
}

func (e *Element) Visible(ctx context.Context) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.hidden, nil
}

func (e *Element) Click(ctx context.Context) error {
	e.mu.Lock()
	if e.clickErr != nil {
		err := e.clickErr
		e.mu.Unlock()
		return err
	}
	e.clicks++
	fn := e.onClick
	e.mu.Unlock()

	if fn != nil {
		fn(e)
	}
	return nil
}

// Document is a fake page root.
type Document struct {
	*Element
	mu      sync.Mutex
	url     string
	storage map[string]string
}

// NewDocument - creates an empty page at url
func NewDocument(url string) *Document {
	return &Document{
		Element: New("document"),
		url:     url,
		storage: make(map[string]string),
	}
}

func (d *Document) URL(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.url, nil
}

func (d *Document) SetURL(url string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.url = url
}

func (d *Document) LocalStorage(ctx context.Context, key string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.storage[key], nil
}

func (d *Document) SetLocalStorage(key, value string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.storage[key] = value
}

// Toggle returns a click handler that flips target's checked state, the way
// a label flips its checkbox.
func Toggle(target *Element) func(*Element) {
	return func(*Element) {
		target.SetChecked(!target.IsChecked())
	}
}

// Radio returns a click handler that checks target and clears every other
// input of the group, the way a single-select label behaves.
func Radio(target *Element, group ...*Element) func(*Element) {
	return func(*Element) {
		for _, g := range group {
			g.SetChecked(g == target)
		}
	}
}

var (
	_ interfaces.Element  = (*Element)(nil)
	_ interfaces.Document = (*Document)(nil)
)
