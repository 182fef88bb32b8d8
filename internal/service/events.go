package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// Event subjects published on workflow transitions.
const (
	EventSubmissionStatusChanged = "submission.status_changed"
	EventSubmissionFinalized     = "submission.finalized"
	EventQuestionnairePublished  = "questionnaire.published"
)

// EventPublisher broadcasts workflow events to interested consumers.
// Publishing is best-effort: a broker outage never fails the operation
// that triggered the event.
type EventPublisher interface {
	Publish(ctx context.Context, subject string, payload interface{})
}

type eventEnvelope struct {
	ID         string      `json:"id"`
	Subject    string      `json:"subject"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
}

type natsPublisher struct {
	conn   *nats.Conn
	prefix string
	logger zerolog.Logger
}

// NewEventPublisher builds a NATS-backed publisher. A nil connection yields
// a no-op publisher so callers never need to branch.
func NewEventPublisher(conn *nats.Conn, prefix string, logger zerolog.Logger) EventPublisher {
	if conn == nil {
		return noopPublisher{}
	}
	return &natsPublisher{
		conn:   conn,
		prefix: strings.TrimSuffix(prefix, "."),
		logger: logger.With().Str("component", "event_publisher").Logger(),
	}
}

func (p *natsPublisher) Publish(_ context.Context, subject string, payload interface{}) {
	envelope := eventEnvelope{
		ID:         uuid.NewString(),
		Subject:    subject,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		p.logger.Error().Err(err).Str("subject", subject).Msg("failed to encode event")
		return
	}

	full := subject
	if p.prefix != "" {
		full = p.prefix + "." + subject
	}

	if err := p.conn.Publish(full, data); err != nil {
		p.logger.Warn().Err(err).Str("subject", full).Msg("failed to publish event")
	}
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, string, interface{}) {}
