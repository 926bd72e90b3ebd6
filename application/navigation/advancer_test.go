package navigation

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"quiz_solver/infrastructure/browser/domtest"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testConfig() Config {
	cfg := DefaultConfig(50 * time.Millisecond)
	cfg.Interval = 5 * time.Millisecond
	cfg.Settle = time.Millisecond
	return cfg
}

type denyGuard struct{ word string }

func (g denyGuard) Allowed(ctx context.Context, label string) bool {
	return !strings.Contains(strings.ToLower(label), g.word)
}

func TestAdvanceConfirmsMove(t *testing.T) {
	doc := domtest.NewDocument("https://example.test/quiz#q1")
	next := domtest.New("next").WithText("Next")
	next.OnClick(func(*domtest.Element) { doc.SetURL("https://example.test/quiz#q2") })
	doc.Add(".js-btn-action", next)

	a := NewAdvancer(quietLogger(), nil, testConfig())
	err := a.Advance(context.Background(), doc, PageMarker(doc, nil))

	require.NoError(t, err)
	assert.Equal(t, 1, next.Clicks())
}

func TestAdvanceDisabledControlIsStuckInBoundedTime(t *testing.T) {
	doc := domtest.NewDocument("https://example.test/quiz")
	submit := domtest.New("submit").WithText("Submit")
	submit.SetDisabled(true)
	doc.Add(".js-btn-action", submit)

	a := NewAdvancer(quietLogger(), nil, testConfig())
	started := time.Now()
	err := a.Advance(context.Background(), doc, PageMarker(doc, nil))

	assert.ErrorIs(t, err, ErrStuck)
	assert.Less(t, time.Since(started), time.Second)
	assert.Zero(t, submit.Clicks())
}

func TestAdvanceIgnoresAriaDisabledControl(t *testing.T) {
	doc := domtest.NewDocument("https://example.test/quiz")
	submit := domtest.New("submit").WithText("Submit").WithAttr("aria-disabled", "true")
	doc.Add(".js-btn-action", submit)

	err := NewAdvancer(quietLogger(), nil, testConfig()).Advance(context.Background(), doc, PageMarker(doc, nil))

	assert.ErrorIs(t, err, ErrStuck)
	assert.Zero(t, submit.Clicks())
}

func TestAdvanceRetriesWhenSubmitOnlyRevealsNext(t *testing.T) {
	doc := domtest.NewDocument("https://example.test/quiz")
	label := domtest.New("label").WithText("Question 1 of 5")
	doc.Add(".js-progress-label", label)

	button := domtest.New("button").WithText("Submit")
	button.OnClick(func(b *domtest.Element) {
		if b.Clicks() == 2 {
			label.SetText("Question 2 of 5")
		}
	})
	doc.Add(".js-btn-action", button)

	err := NewAdvancer(quietLogger(), nil, testConfig()).Advance(context.Background(), doc, PageMarker(doc, nil))

	require.NoError(t, err)
	assert.Equal(t, 2, button.Clicks())
}

func TestAdvanceUnchangedPageIsStuckAfterAttempts(t *testing.T) {
	doc := domtest.NewDocument("https://example.test/quiz")
	button := domtest.New("button").WithText("Next")
	doc.Add(".js-btn-action", button)

	cfg := testConfig()
	err := NewAdvancer(quietLogger(), nil, cfg).Advance(context.Background(), doc, PageMarker(doc, nil))

	assert.ErrorIs(t, err, ErrStuck)
	assert.Equal(t, cfg.Attempts, button.Clicks())
}

func TestAdvanceFindsControlByText(t *testing.T) {
	doc := domtest.NewDocument("https://example.test/quiz")
	cont := domtest.New("continue").WithText("Continue")
	cont.OnClick(func(*domtest.Element) { doc.SetURL("https://example.test/next") })
	doc.AddText("Continue", cont)

	err := NewAdvancer(quietLogger(), nil, testConfig()).Advance(context.Background(), doc, PageMarker(doc, nil))

	require.NoError(t, err)
	assert.Equal(t, 1, cont.Clicks())
}

func TestAdvanceSkipsGuardedControls(t *testing.T) {
	doc := domtest.NewDocument("https://example.test/quiz")
	reset := domtest.New("reset").WithText("Reset answers")
	doc.Add(".js-btn-action", reset)

	err := NewAdvancer(quietLogger(), denyGuard{"reset"}, testConfig()).Advance(context.Background(), doc, PageMarker(doc, nil))

	assert.ErrorIs(t, err, ErrStuck)
	assert.Zero(t, reset.Clicks())
}

func TestPageMarkerIncludesExtra(t *testing.T) {
	doc := domtest.NewDocument("https://example.test/quiz")
	current := "c1"
	marker := PageMarker(doc, func(context.Context) string { return current })

	first, err := marker(context.Background())
	require.NoError(t, err)
	current = "c2"
	second, err := marker(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestActivateIntro(t *testing.T) {
	a := NewAdvancer(quietLogger(), nil, testConfig())

	empty := domtest.NewDocument("https://example.test/quiz")
	clicked, err := a.ActivateIntro(context.Background(), empty)
	require.NoError(t, err)
	assert.False(t, clicked)

	doc := domtest.NewDocument("https://example.test/quiz")
	start := domtest.New("start").WithText("Start")
	doc.AddText("Start", start)
	clicked, err = a.ActivateIntro(context.Background(), doc)
	require.NoError(t, err)
	assert.True(t, clicked)
	assert.Equal(t, 1, start.Clicks())
}
