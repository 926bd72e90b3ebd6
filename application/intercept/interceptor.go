package intercept

import (
	"context"
	"sync"

	"quiz_solver/domain/entities"

	"github.com/sirupsen/logrus"
)

// Merger is the catalog side of the interceptor.
type Merger interface {
	Merge(ctx context.Context, url string) int
}

// LaunchStore keeps the latest launch data seen in traffic.
type LaunchStore struct {
	mu   sync.RWMutex
	data entities.LaunchData
	ok   bool
}

func (s *LaunchStore) Set(data entities.LaunchData) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data, s.ok = data, true
}

// Launch returns the stored launch data and whether any was seen.
func (s *LaunchStore) Launch() (entities.LaunchData, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data, s.ok
}

func (s *LaunchStore) HasLaunchKey() bool {
	data, ok := s.Launch()
	return ok && data.Key != ""
}

// Interceptor reacts to traffic reported by the browser.
type Interceptor struct {
	ctx        context.Context
	catalog    Merger
	launch     *LaunchStore
	invalidate func()
	logger     *logrus.Logger

	mu       sync.Mutex
	merged   map[string]bool
	inflight map[string]bool
	order    []string
	wg       sync.WaitGroup
}

// NewInterceptor - creates an interceptor; invalidate runs after every merge
// that added components and may be nil
func NewInterceptor(ctx context.Context, catalog Merger, launch *LaunchStore, invalidate func(), logger *logrus.Logger) *Interceptor {
	return &Interceptor{
		ctx:        ctx,
		catalog:    catalog,
		launch:     launch,
		invalidate: invalidate,
		logger:     logger,
		merged:     make(map[string]bool),
		inflight:   make(map[string]bool),
	}
}

// Handle classifies one traffic event. It never blocks: catalog fetches run
// on their own goroutine.
func (i *Interceptor) Handle(t entities.Traffic) {
	if data, ok := LaunchFromURL(t.URL); ok {
		i.storeLaunch(data, "launch url")
	}

	if !t.Response {
		if IsCatalogURL(t.URL) && i.claim(t.URL) {
			i.wg.Add(1)
			go func() {
				defer i.wg.Done()
				i.merge(i.ctx, t.URL)
			}()
		}
		return
	}

	if IsGraphQLURL(t.URL) && t.Body != nil && t.Status < 400 {
		body, err := t.Body()
		if err != nil {
			i.logger.WithError(err).Debug("Failed to read GraphQL response")
			return
		}
		if data, ok := LaunchFromGraphQL(body); ok {
			i.storeLaunch(data, "graphql")
		}
	}
}

// MergeCatalog merges url now unless it was merged already or is in flight.
func (i *Interceptor) MergeCatalog(ctx context.Context, url string) int {
	if !i.claim(url) {
		return 0
	}
	return i.merge(ctx, url)
}

// Remerge fetches every successfully merged URL again, e.g. after the page
// was reloaded.
func (i *Interceptor) Remerge(ctx context.Context) int {
	added := 0
	for _, url := range i.CatalogURLs() {
		added += i.catalog.Merge(ctx, url)
	}
	if added > 0 && i.invalidate != nil {
		i.invalidate()
	}
	return added
}

// CatalogURLs lists merged URLs in discovery order.
func (i *Interceptor) CatalogURLs() []string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return append([]string(nil), i.order...)
}

// Wait blocks until background merges have finished.
func (i *Interceptor) Wait() {
	i.wg.Wait()
}

// claim reserves url for one merge.
func (i *Interceptor) claim(url string) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.merged[url] || i.inflight[url] {
		return false
	}
	i.inflight[url] = true
	return true
}

func (i *Interceptor) merge(ctx context.Context, url string) int {
	added := i.catalog.Merge(ctx, url)

	i.mu.Lock()
	delete(i.inflight, url)
	// a merge that added nothing, failed fetches included, stays eligible
	if added > 0 {
		i.merged[url] = true
		i.order = append(i.order, url)
	}
	i.mu.Unlock()

	if added > 0 && i.invalidate != nil {
		i.invalidate()
	}
	return added
}

func (i *Interceptor) storeLaunch(data entities.LaunchData, source string) {
	if current, ok := i.launch.Launch(); ok && current == data {
		return
	}
	i.launch.Set(data)
	i.logger.WithFields(logrus.Fields{
		"source":  source,
		"service": data.Service,
	}).Info("Captured launch key")
}
