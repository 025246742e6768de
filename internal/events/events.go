package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

const (
	TypeLoanCreated       = "loan.created"
	TypeRepaymentRecorded = "repayment.recorded"
	TypeLoanStatusChanged = "loan.status_changed"
)

// Event is a ledger change notification. Events are emitted after the change
// is committed, never before.
type Event struct {
	ID         uuid.UUID `json:"id"`
	Type       string    `json:"type"`
	OwnerID    uuid.UUID `json:"owner_id"`
	LoanID     uuid.UUID `json:"loan_id"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload,omitempty"`
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

func New(eventType string, ownerID, loanID uuid.UUID, payload any) Event {
	return Event{
		ID:         uuid.New(),
		Type:       eventType,
		OwnerID:    ownerID,
		LoanID:     loanID,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}

type KafkaConfig struct {
	Brokers      []string
	Topic        string
	WriteTimeout time.Duration
}

// KafkaPublisher writes events keyed by loan ID so every change to one loan
// lands on the same partition in order. Publish runs on the request path, so
// each message is flushed on its own instead of waiting for a batch to fill.
type KafkaPublisher struct {
	writer *kafka.Writer
}

const flushInterval = 5 * time.Millisecond

func NewKafkaPublisher(cfg KafkaConfig) *KafkaPublisher {
	timeout := cfg.WriteTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers...),
			Topic:                  cfg.Topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			WriteTimeout:           timeout,
			BatchSize:              1,
			BatchTimeout:           flushInterval,
			AllowAutoTopicCreation: true,
		},
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	msg, err := encode(event)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka write %s: %w", event.Type, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func encode(event Event) (kafka.Message, error) {
	value, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encode event: %w", err)
	}
	return kafka.Message{
		Key:   []byte(event.LoanID.String()),
		Value: value,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
			{Key: "owner_id", Value: []byte(event.OwnerID.String())},
		},
	}, nil
}

// NopPublisher drops every event. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close() error                         { return nil }
