package intercept

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"quiz_solver/domain/entities"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type fakeMerger struct {
	mu     sync.Mutex
	calls  map[string]int
	result map[string]int
}

func newFakeMerger() *fakeMerger {
	return &fakeMerger{calls: make(map[string]int), result: make(map[string]int)}
}

func (f *fakeMerger) Merge(ctx context.Context, url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[url]++
	return f.result[url]
}

func (f *fakeMerger) count(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[url]
}

func TestLaunchFromURL(t *testing.T) {
	data, ok := LaunchFromURL("https://www.netacad.com/adl/content/launch/3f2a9c1e-aa00-4b7e-9c55-0123456789ab?x=1")
	require.True(t, ok)
	assert.Equal(t, "3f2a9c1e-aa00-4b7e-9c55-0123456789ab", data.Key)
	assert.Equal(t, "https://www.netacad.com/adl/content/", data.Service)

	_, ok = LaunchFromURL("https://www.netacad.com/content/m1/components.json")
	assert.False(t, ok)
}

func TestLaunchFromGraphQL(t *testing.T) {
	body := []byte(`{"data":{"getNewAdlLaunchData":{"xAPILaunchKey":"k1","xAPILaunchService":"https://lrs.test/adl/content/"}}}`)
	data, ok := LaunchFromGraphQL(body)
	require.True(t, ok)
	assert.Equal(t, entities.LaunchData{Key: "k1", Service: "https://lrs.test/adl/content/"}, data)

	_, ok = LaunchFromGraphQL([]byte(`{"data":{"other":{}}}`))
	assert.False(t, ok)
	_, ok = LaunchFromGraphQL([]byte(`not json`))
	assert.False(t, ok)
}

func TestHandleMergesCatalogOnce(t *testing.T) {
	merger := newFakeMerger()
	url := "https://www.netacad.com/content/m1/components.json"
	merger.result[url] = 4

	invalidated := 0
	var mu sync.Mutex
	i := NewInterceptor(context.Background(), merger, &LaunchStore{}, func() {
		mu.Lock()
		defer mu.Unlock()
		invalidated++
	}, quietLogger())

	i.Handle(entities.Traffic{URL: url, Method: "GET"})
	i.Wait()
	i.Handle(entities.Traffic{URL: url, Method: "GET"})
	i.Wait()

	assert.Equal(t, 1, merger.count(url))
	assert.Equal(t, []string{url}, i.CatalogURLs())
	mu.Lock()
	assert.Equal(t, 1, invalidated)
	mu.Unlock()
}

func TestFailedMergeStaysEligible(t *testing.T) {
	merger := newFakeMerger()
	url := "https://www.netacad.com/content/m1/components.json"

	i := NewInterceptor(context.Background(), merger, &LaunchStore{}, nil, quietLogger())
	assert.Zero(t, i.MergeCatalog(context.Background(), url))

	merger.mu.Lock()
	merger.result[url] = 2
	merger.mu.Unlock()
	assert.Equal(t, 2, i.MergeCatalog(context.Background(), url))
	assert.Equal(t, 2, merger.count(url))
	assert.Zero(t, i.MergeCatalog(context.Background(), url))
}

func TestHandleCapturesLaunchData(t *testing.T) {
	store := &LaunchStore{}
	i := NewInterceptor(context.Background(), newFakeMerger(), store, nil, quietLogger())
	assert.False(t, store.HasLaunchKey())

	i.Handle(entities.Traffic{
		URL:      "https://api.netacad.com/api/graphql",
		Response: true,
		Status:   200,
		Body: func() ([]byte, error) {
			return []byte(`{"data":{"getNewAdlLaunchData":{"xAPILaunchKey":"k2","xAPILaunchService":"https://lrs.test/adl/content/"}}}`), nil
		},
	})
	data, ok := store.Launch()
	require.True(t, ok)
	assert.Equal(t, "k2", data.Key)

	i.Handle(entities.Traffic{
		URL:      "https://api.netacad.com/api/graphql",
		Response: true,
		Status:   200,
		Body:     func() ([]byte, error) { return nil, errors.New("closed") },
	})
	data, _ = store.Launch()
	assert.Equal(t, "k2", data.Key)

	i.Handle(entities.Traffic{URL: "https://www.netacad.com/adl/content/launch/abc-123"})
	data, _ = store.Launch()
	assert.Equal(t, "abc-123", data.Key)
	assert.True(t, store.HasLaunchKey())
}
