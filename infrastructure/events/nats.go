package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"quiz_solver/domain/entities"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

const defaultSubject = "quiz_solver.events"

// Envelope is the message published for every event.
type Envelope struct {
	ID        string         `json:"event_id"`
	Source    string         `json:"source"`
	Timestamp time.Time      `json:"timestamp"`
	Event     entities.Event `json:"event"`
}

type publisher interface {
	Publish(subject string, data []byte) error
}

// NATSSink publishes events as JSON envelopes on a core NATS subject.
type NATSSink struct {
	conn    *nats.Conn
	pub     publisher
	subject string
	source  string
	logger  *logrus.Logger
	now     func() time.Time
}

// NewNATSSink - connects to url and publishes on subject
func NewNATSSink(url, subject string, logger *logrus.Logger) (*NATSSink, error) {
	if url == "" {
		url = nats.DefaultURL
	}
	nc, err := nats.Connect(url,
		nats.Name("quiz-solver"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	s := newNATSSink(nc, subject, logger)
	s.conn = nc
	return s, nil
}

func newNATSSink(pub publisher, subject string, logger *logrus.Logger) *NATSSink {
	if subject == "" {
		subject = defaultSubject
	}
	return &NATSSink{
		pub:     pub,
		subject: subject,
		source:  "quiz-solver",
		logger:  logger,
		now:     time.Now,
	}
}

// Emit publishes event. A failed publish is logged and dropped; it never
// holds up the session.
func (s *NATSSink) Emit(ctx context.Context, event entities.Event) {
	data, err := json.Marshal(Envelope{
		ID:        uuid.NewString(),
		Source:    s.source,
		Timestamp: s.now().UTC(),
		Event:     event,
	})
	if err != nil {
		s.logger.WithError(err).Warn("Failed to encode event")
		return
	}
	if err := s.pub.Publish(s.subject, data); err != nil {
		s.logger.WithError(err).WithField("subject", s.subject).Warn("Failed to publish event")
	}
}

// Close - flushes pending messages and closes the connection
func (s *NATSSink) Close() {
	if s.conn == nil {
		return
	}
	if err := s.conn.Drain(); err != nil {
		s.conn.Close()
	}
}
