package interfaces

import "context"

// Element is a live node in the rendered page. Lookups are scoped to the
// element's subtree and pierce open shadow roots where the driver allows it.
type Element interface {
	// Query returns the first descendant matching selector, or nil when none is rendered
	Query(ctx context.Context, selector string) (Element, error)

	// QueryAll returns up to limit descendants matching selector; limit <= 0 means no bound
	QueryAll(ctx context.Context, selector string, limit int) ([]Element, error)

	// FindByText returns the first descendant whose trimmed text equals text
	FindByText(ctx context.Context, text string) (Element, error)

	Text(ctx context.Context) (string, error)
	Attribute(ctx context.Context, name string) (string, error)
	Checked(ctx context.Context) (bool, error)
	Enabled(ctx context.Context) (bool, error)
	Visible(ctx context.Context) (bool, error)
	Click(ctx context.Context) error
}

// Document is the root of the current render.
type Document interface {
	Element

	// URL returns the address of the page currently shown
	URL(ctx context.Context) (string, error)

	// LocalStorage reads one key of the page's local storage
	LocalStorage(ctx context.Context, key string) (string, error)
}
