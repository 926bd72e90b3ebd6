package events

import (
	"context"
	"sync"

	"quiz_solver/domain/entities"
	"quiz_solver/domain/interfaces"

	"github.com/sirupsen/logrus"
)

// LogSink writes every event to the logger.
type LogSink struct {
	logger *logrus.Logger
}

func NewLogSink(logger *logrus.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Emit(ctx context.Context, event entities.Event) {
	entry := s.logger.WithField("action", event.Action)
	switch event.Action {
	case entities.EventProgress, entities.EventAutoSolveStopped:
		entry.WithFields(logrus.Fields{
			"current": event.Current,
			"total":   event.Total,
		}).Info("Auto-solve progress")
	case entities.EventAutoSolveComplete:
		entry.WithField("questions", event.QuestionCount).Info("Auto-solve complete")
	case entities.EventError:
		entry.Error(event.Message)
	default:
		entry.Info("Auto-solve event")
	}
}

// Func adapts a plain function to an EventSink.
type Func func(ctx context.Context, event entities.Event)

func (f Func) Emit(ctx context.Context, event entities.Event) {
	f(ctx, event)
}

// Multi fans events out to every sink in registration order. Sinks may be
// added while a session is running.
type Multi struct {
	mu    sync.RWMutex
	sinks []interfaces.EventSink
}

func NewMulti(sinks ...interfaces.EventSink) *Multi {
	m := &Multi{}
	for _, s := range sinks {
		m.Add(s)
	}
	return m
}

// Add - registers another sink; nil sinks are ignored
func (m *Multi) Add(sink interfaces.EventSink) {
	if sink == nil {
		return
	}
	m.mu.Lock()
	m.sinks = append(m.sinks, sink)
	m.mu.Unlock()
}

func (m *Multi) Emit(ctx context.Context, event entities.Event) {
	m.mu.RLock()
	sinks := append([]interfaces.EventSink(nil), m.sinks...)
	m.mu.RUnlock()

	for _, s := range sinks {
		s.Emit(ctx, event)
	}
}
