package interfaces

import (
	"context"
	"net/http"

	"quiz_solver/domain/entities"
)

// Browser drives the page the solver works on.
type Browser interface {
	// Navigate opens url in the current page
	Navigate(ctx context.Context, url string) error

	// Document returns the query root of the current page
	Document() Document

	// OnTraffic registers a handler for background requests and responses
	OnTraffic(handler func(entities.Traffic))

	// CookieJar exposes the browser session cookies to plain HTTP clients
	CookieJar() http.CookieJar

	// SaveState persists cookies and storage for the next launch
	SaveState() error

	Close() error
}
