package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"quiz_solver/domain/entities"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	subject string
	data    [][]byte
	err     error
}

func (f *fakePublisher) Publish(subject string, data []byte) error {
	f.subject = subject
	f.data = append(f.data, data)
	return f.err
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestMultiPreservesOrder(t *testing.T) {
	var got []string
	first := Func(func(ctx context.Context, e entities.Event) { got = append(got, "a:"+string(e.Action)) })
	second := Func(func(ctx context.Context, e entities.Event) { got = append(got, "b:"+string(e.Action)) })

	m := NewMulti(first, nil)
	m.Add(second)
	m.Emit(context.Background(), entities.Event{Action: entities.EventAutoSolveStarted})
	m.Emit(context.Background(), entities.Event{Action: entities.EventProgress, Current: 1, Total: 2})

	assert.Equal(t, []string{
		"a:autoSolveStarted", "b:autoSolveStarted",
		"a:progress", "b:progress",
	}, got)
}

func TestLogSinkLevels(t *testing.T) {
	logger, hook := test.NewNullLogger()
	sink := NewLogSink(logger)

	sink.Emit(context.Background(), entities.Event{Action: entities.EventProgress, Current: 2, Total: 5})
	require.Len(t, hook.Entries, 1)
	assert.Equal(t, logrus.InfoLevel, hook.LastEntry().Level)
	assert.Equal(t, 2, hook.LastEntry().Data["current"])

	sink.Emit(context.Background(), entities.Event{Action: entities.EventError, Message: "navigation: stuck"})
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
	assert.Equal(t, "navigation: stuck", hook.LastEntry().Message)
}

func TestNATSSinkEnvelope(t *testing.T) {
	pub := &fakePublisher{}
	sink := newNATSSink(pub, "", quietLogger())
	sink.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	sink.Emit(context.Background(), entities.Event{Action: entities.EventAutoSolveComplete, QuestionCount: 7})

	assert.Equal(t, defaultSubject, pub.subject)
	require.Len(t, pub.data, 1)
	var env Envelope
	require.NoError(t, json.Unmarshal(pub.data[0], &env))
	assert.NotEmpty(t, env.ID)
	assert.Equal(t, "quiz-solver", env.Source)
	assert.Equal(t, entities.EventAutoSolveComplete, env.Event.Action)
	assert.Equal(t, 7, env.Event.QuestionCount)
	assert.True(t, sink.now().Equal(env.Timestamp))
}

func TestNATSSinkSwallowsPublishErrors(t *testing.T) {
	pub := &fakePublisher{err: errors.New("connection closed")}
	sink := newNATSSink(pub, "custom", quietLogger())

	assert.NotPanics(t, func() {
		sink.Emit(context.Background(), entities.Event{Action: entities.EventError, Message: "x"})
	})
	assert.Equal(t, "custom", pub.subject)
	sink.Close()
}
