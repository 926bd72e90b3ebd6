package readiness

import (
	"context"
	"io"
	"testing"
	"time"

	"quiz_solver/domain/entities"
	"quiz_solver/infrastructure/browser/domtest"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSource []entities.Component

func (s staticSource) Components() []entities.Component { return s }

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestAwaitReadyWhenContainerAppears(t *testing.T) {
	doc := domtest.NewDocument("https://example.test/quiz")
	source := staticSource{{ID: "c1"}, {ID: "c2"}}

	go func() {
		time.Sleep(30 * time.Millisecond)
		doc.Add(".c2", domtest.New("c2"))
	}()

	m := NewMonitor(quietLogger(), time.Second).WithInterval(5 * time.Millisecond)
	ready, err := m.AwaitReady(context.Background(), doc, source)
	require.NoError(t, err)
	assert.True(t, ready)
}

func TestAwaitReadyTimeoutIsNotAnError(t *testing.T) {
	doc := domtest.NewDocument("https://example.test/quiz")

	m := NewMonitor(quietLogger(), 50*time.Millisecond).WithInterval(5 * time.Millisecond)
	started := time.Now()
	ready, err := m.AwaitReady(context.Background(), doc, staticSource{{ID: "c1"}})

	require.NoError(t, err)
	assert.False(t, ready)
	assert.Less(t, time.Since(started), time.Second)
}

func TestAwaitReadyHonoursCancellation(t *testing.T) {
	doc := domtest.NewDocument("https://example.test/quiz")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := NewMonitor(quietLogger(), time.Second).WithInterval(5 * time.Millisecond)
	_, err := m.AwaitReady(ctx, doc, staticSource{{ID: "c1"}})
	assert.ErrorIs(t, err, context.Canceled)
}
