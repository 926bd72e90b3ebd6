package catalog

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"quiz_solver/domain/entities"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const componentsJSON = `[
	{"_id":"c-10","_component":"text","body":"<p>Intro</p>"},
	{"_id":"c-11","_component":"mcq","body":"<p>Which <b>two</b>?</p>","_items":[{"text":"A","_shouldBeSelected":true},{"text":"B"}]},
	{"_id":"c-12","_component":"dropdown","body":"Pick &amp; match","_items":[{"text":"Q1","_options":[{"text":"X","_isCorrect":false},{"text":"Y","_isCorrect":true}]}],"_ravennaSourceID":"src-12"},
	{"_id":"c-13","_component":"mcq","body":"empty","_items":[]}
]`

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func serve(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "no-cache, no-store, must-revalidate", r.Header.Get("Cache-Control"))
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestMergeFiltersAndNormalizes(t *testing.T) {
	srv, _ := serve(t, http.StatusOK, componentsJSON)
	c := NewCatalog(srv.Client(), quietLogger())

	added := c.Merge(context.Background(), srv.URL+"/content/m1/components.json")

	require.Equal(t, 2, added)
	require.Equal(t, 2, c.Len())

	mcq, ok := c.Get("c-11")
	require.True(t, ok)
	assert.Equal(t, "Which two?", mcq.Body)
	assert.Equal(t, "mcq", mcq.Kind)

	dd, ok := c.Get("c-12")
	require.True(t, ok)
	assert.Equal(t, "Pick & match", dd.Body)
	assert.Equal(t, "src-12", dd.SourceID())

	_, ok = c.Get("c-10")
	assert.False(t, ok, "content blocks without items are not questions")
}

func TestMergeIsIdempotent(t *testing.T) {
	srv, hits := serve(t, http.StatusOK, componentsJSON)
	c := NewCatalog(srv.Client(), quietLogger())

	assert.Equal(t, 2, c.Merge(context.Background(), srv.URL))
	assert.Equal(t, 0, c.Merge(context.Background(), srv.URL))
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, int32(2), hits.Load())
}

func TestMergeUnreachableURL(t *testing.T) {
	srv, _ := serve(t, http.StatusOK, componentsJSON)
	url := srv.URL
	srv.Close()

	c := NewCatalog(nil, quietLogger())
	c.Add(entities.Component{ID: "kept", Items: []entities.Item{{ShouldBeSelected: true}}})

	assert.NotPanics(t, func() {
		assert.Equal(t, 0, c.Merge(context.Background(), url))
	})
	assert.Equal(t, 1, c.Len())
}

func TestMergeNonOKAndBadJSON(t *testing.T) {
	bad, _ := serve(t, http.StatusForbidden, componentsJSON)
	garbage, _ := serve(t, http.StatusOK, "<html>login</html>")

	c := NewCatalog(nil, quietLogger())
	assert.Equal(t, 0, c.Merge(context.Background(), bad.URL))
	assert.Equal(t, 0, c.Merge(context.Background(), garbage.URL))
	assert.Equal(t, 0, c.Len())
}

func TestComponentsReturnsCopyInArrivalOrder(t *testing.T) {
	c := NewCatalog(nil, quietLogger())
	c.Add(
		entities.Component{ID: "b", Items: []entities.Item{{}}},
		entities.Component{ID: "a", Items: []entities.Item{{}}},
		entities.Component{ID: "b", Items: []entities.Item{{}}},
	)

	got := c.Components()
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].ID)
	assert.Equal(t, "a", got[1].ID)

	got[0].ID = "mutated"
	_, ok := c.Get("b")
	assert.True(t, ok)
}
