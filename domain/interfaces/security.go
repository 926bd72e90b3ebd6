package interfaces

import "context"

// ControlGuard decides whether a page control may be activated automatically.
type ControlGuard interface {
	// Allowed reports whether a control with the given label is safe to click
	Allowed(ctx context.Context, label string) bool
}
