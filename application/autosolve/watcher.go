package autosolve

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Watcher polls the page URL and reports every change. Single-page quiz
// players swap questions without a full load, so this is the only
// navigation signal available.
type Watcher struct {
	page     Page
	interval time.Duration
	logger   *logrus.Logger
	onChange []func(ctx context.Context, url string)
}

// NewWatcher - creates a watcher polling page every interval
func NewWatcher(page Page, interval time.Duration, logger *logrus.Logger) *Watcher {
	if interval <= 0 {
		interval = time.Second
	}
	return &Watcher{page: page, interval: interval, logger: logger}
}

// OnChange registers fn; handlers run in registration order on the
// watcher's goroutine.
func (w *Watcher) OnChange(fn func(ctx context.Context, url string)) {
	w.onChange = append(w.onChange, fn)
}

// Run polls until ctx is done. The first observed URL counts as a change.
func (w *Watcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	previous := ""
	for {
		url, err := w.page.Document().URL(ctx)
		if err != nil {
			w.logger.WithError(err).Debug("Failed to read page URL")
		} else if url != previous {
			w.logger.WithFields(logrus.Fields{"from": previous, "to": url}).Info("Page URL changed")
			previous = url
			for _, fn := range w.onChange {
				fn(ctx, url)
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
