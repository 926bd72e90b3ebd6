package xapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"quiz_solver/domain/entities"
	"quiz_solver/domain/interfaces"
	"quiz_solver/infrastructure/browser/domtest"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticPage struct{ doc *domtest.Document }

func (p staticPage) Document() interfaces.Document { return p.doc }

type staticLaunch struct{ data entities.LaunchData }

func (l staticLaunch) Launch() (entities.LaunchData, bool) { return l.data, l.data.Complete() }

type recordStore struct {
	mu             sync.Mutex
	statementAuths []string
	statements     []Statement
	rejectBearer   bool
	stateIDs       []string
	stored         map[string]any
	savedID        string
	saved          map[string]any
}

func (r *recordStore) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if req.Header.Get(apiVersionHeader) != apiVersion {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	switch {
	case req.URL.Path == "/adl/data/key-1/statements" && req.Method == http.MethodPost:
		auth := req.Header.Get("Authorization")
		r.statementAuths = append(r.statementAuths, auth)
		if r.rejectBearer && auth != "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		body, _ := io.ReadAll(req.Body)
		_ = json.Unmarshal(body, &r.statements)
		w.WriteHeader(http.StatusOK)
	case req.URL.Path == "/adl/data/key-1/activities/state" && req.Method == http.MethodGet:
		if req.URL.Query().Get("stateId") == "" {
			_ = json.NewEncoder(w).Encode(r.stateIDs)
			return
		}
		if r.stored == nil {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(r.stored)
	case req.URL.Path == "/adl/data/key-1/activities/state" && req.Method == http.MethodPost:
		r.savedID = req.URL.Query().Get("stateId")
		body, _ := io.ReadAll(req.Body)
		_ = json.Unmarshal(body, &r.saved)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func token(t *testing.T) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_uuid": "u-42",
		"name":      "Ada",
	}).SignedString([]byte("irrelevant"))
	require.NoError(t, err)
	return raw
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func boolPtr(v bool) *bool { return &v }

func questions() []entities.Component {
	return []entities.Component{
		{
			ID:    "c-mcq",
			Kind:  "mcq",
			Title: "Pick two",
			Items: []entities.Item{
				{InternalID: "i-a", ShouldBeSelected: true},
				{InternalID: "i-b"},
				{ShouldBeSelected: true},
			},
			RavennaSourceID: "src-1",
		},
		{
			ID: "c-drop",
			Items: []entities.Item{
				{Options: entities.OptionList{Defined: true, Options: []entities.Option{
					{ID: "o-1"}, {ID: "o-2", IsCorrect: boolPtr(true)},
				}}},
				{Options: entities.OptionList{Defined: true, Options: []entities.Option{
					{InternalID: "o-3", IsCorrect: boolPtr(true)}, {ID: "o-4"},
				}}},
			},
		},
		{ID: "c-text", Body: "no answer"},
	}
}

func setup(t *testing.T, store *recordStore, pageQuery string) (*Submitter, *domtest.Document, string) {
	t.Helper()
	srv := httptest.NewServer(store)
	t.Cleanup(srv.Close)

	q := url.Values{}
	q.Set("xAPILaunchKey", "key-1")
	q.Set("xAPILaunchService", srv.URL+"/adl/content/")
	q.Set("moduleNumber", "2")
	q.Set("id", "svc-9")
	if pageQuery != "" {
		q, _ = url.ParseQuery(pageQuery)
	}
	doc := domtest.NewDocument("https://www.netacad.com/launch?" + q.Encode())
	doc.SetLocalStorage("AuthToken", token(t))

	s := NewSubmitter(staticPage{doc: doc}, nil, srv.Client(), entities.LaunchData{}, quietLogger())
	s.now = func() time.Time { return time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC) }
	s.newStateID = func() string { return "fresh" + stateSuffix }
	return s, doc, srv.URL
}

func TestSubmitSendsStatementsAndState(t *testing.T) {
	store := &recordStore{}
	s, _, _ := setup(t, store, "")

	res := s.Submit(context.Background(), questions(), &entities.AssessmentMeta{ID: "a-7", Title: "Module 2 Exam"})

	require.True(t, res.Success, res.Error)
	assert.Equal(t, 2, res.Submitted)
	require.Len(t, store.statements, 2)

	mcq := store.statements[0]
	assert.Equal(t, "mailto:u-42@sfa.com", mcq.Actor.Mbox)
	assert.Equal(t, "Ada", mcq.Actor.Name)
	assert.Equal(t, verbAnswered, mcq.Verb.ID)
	assert.Equal(t, "https://pe1-m2-v1#/id/c-mcq", mcq.Object.ID)
	assert.Equal(t, "i-a[,]2", mcq.Result.Response)
	assert.Equal(t, "src-1", mcq.Object.Definition.Extensions[sourceIDExtension])
	assert.Equal(t, "svc-9", mcq.Context.Extensions["https://www.netacad.com/service/id"])
	assert.Equal(t, "pe1", mcq.Context.Extensions["https://www.netacad.com/course/name"])
	assert.EqualValues(t, 2, mcq.Context.Extensions["https://www.netacad.com/course/module"])
	require.Len(t, mcq.Context.ContextActivities.Grouping, 2)
	assert.Equal(t, "https://pe1-m2-v1#/id/a-7", mcq.Context.ContextActivities.Grouping[1].ID)
	require.Len(t, mcq.Context.ContextActivities.Parent, 1)
	assert.Equal(t, "https://pe1-m2-v1#/assessment/a-7", mcq.Context.ContextActivities.Parent[0].ID)

	assert.Equal(t, "o-2[,]o-3", store.statements[1].Result.Response)
	assert.Equal(t, "Question", store.statements[1].Object.Definition.Name["en-US"])

	assert.Equal(t, "fresh"+stateSuffix, store.savedID)
	require.NotNil(t, store.saved)
	comps, ok := store.saved["components"].([]any)
	require.True(t, ok)
	assert.Len(t, comps, 3)
}

func TestSubmitRetriesWithoutBearer(t *testing.T) {
	store := &recordStore{rejectBearer: true}
	s, _, _ := setup(t, store, "")

	res := s.Submit(context.Background(), questions(), nil)

	require.True(t, res.Success, res.Error)
	require.Len(t, store.statementAuths, 2)
	assert.NotEmpty(t, store.statementAuths[0])
	assert.Empty(t, store.statementAuths[1])
	assert.Len(t, store.statements[0].Context.ContextActivities.Grouping, 1)
	assert.Empty(t, store.statements[0].Context.ContextActivities.Parent)
}

func TestSubmitPatchesExistingState(t *testing.T) {
	store := &recordStore{
		stateIDs: []string{"other", "abc" + stateSuffix},
		stored: map[string]any{
			"course":     map[string]any{"_id": "course"},
			"components": []any{map[string]any{"_id": "keep", "_isComplete": false}},
			"blocks":     []any{map[string]any{"_id": "b1", "timestamp": "earlier"}},
		},
	}
	s, _, _ := setup(t, store, "")

	res := s.Submit(context.Background(), questions(), nil)
	require.True(t, res.Success)

	assert.Equal(t, "abc"+stateSuffix, store.savedID)
	course := store.saved["course"].(map[string]any)
	assert.Equal(t, true, course["_isComplete"])
	comps := store.saved["components"].([]any)
	require.Len(t, comps, 4)
	assert.Equal(t, "keep", comps[0].(map[string]any)["_id"])
	block := store.saved["blocks"].([]any)[0].(map[string]any)
	assert.Equal(t, true, block["_isInteractionComplete"])
	assert.Equal(t, "earlier", block["timestamp"])
	assert.Contains(t, store.saved, "offlineStorage")
}

func TestSubmitFailures(t *testing.T) {
	t.Run("no token", func(t *testing.T) {
		s, doc, _ := setup(t, &recordStore{}, "")
		doc.SetLocalStorage("AuthToken", "")
		res := s.Submit(context.Background(), questions(), nil)
		assert.False(t, res.Success)
		assert.Equal(t, ErrNoToken.Error(), res.Error)
	})

	t.Run("missing launch", func(t *testing.T) {
		s, _, _ := setup(t, &recordStore{}, "moduleNumber=1")
		res := s.Submit(context.Background(), questions(), nil)
		assert.Equal(t, ErrMissingLaunch.Error(), res.Error)
	})

	t.Run("nothing answerable", func(t *testing.T) {
		s, _, _ := setup(t, &recordStore{}, "")
		res := s.Submit(context.Background(), []entities.Component{{ID: "c", Kind: "mcq", Items: []entities.Item{{}}}}, nil)
		assert.Equal(t, ErrNothingToSubmit.Error(), res.Error)
	})
}

func TestResolveLaunchPriority(t *testing.T) {
	query := url.Values{"xAPILaunchKey": {"from-url"}, "xAPILaunchService": {"https://h/adl/content/"}}
	intercepted := entities.LaunchData{Key: "from-traffic", Service: "https://t/adl/"}

	got := resolveLaunch(entities.LaunchData{Key: "override"}, query, intercepted)
	assert.Equal(t, entities.LaunchData{Key: "override", Service: "https://h/adl/"}, got)

	got = resolveLaunch(entities.LaunchData{}, url.Values{}, intercepted)
	assert.Equal(t, intercepted, got)
}

func TestSubmitUsesInterceptedLaunch(t *testing.T) {
	store := &recordStore{}
	s, _, base := setup(t, store, "moduleNumber=3")
	s.launch = staticLaunch{data: entities.LaunchData{Key: "key-1", Service: base + "/adl/content/"}}

	res := s.Submit(context.Background(), questions(), nil)

	require.True(t, res.Success, res.Error)
	assert.Equal(t, "https://pe1-m3-v1#/id/c-mcq", store.statements[0].Object.ID)
}
