// Package auditlog mirrors appended audit records to a Kafka topic.
package auditlog

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"riskscan/internal/domain/entity"
	"riskscan/internal/repository"
)

const defaultPublishTimeout = 2 * time.Second

// MessageWriter is the subset of *kafka.Writer used here.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Event is the JSON payload published per record.
type Event struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	User       string    `json:"user"`
	Query      string    `json:"query"`
	Action     string    `json:"action"`
	Reason     string    `json:"reason"`
	ArticleURL string    `json:"articleUrl"`
}

// KafkaPublisher decorates an AuditRepository. Every successful append is
// published; a failed publish is logged and never fails the append.
type KafkaPublisher struct {
	next    repository.AuditRepository
	writer  MessageWriter
	timeout time.Duration
}

// NewKafkaPublisher wraps next.
func NewKafkaPublisher(next repository.AuditRepository, writer MessageWriter) *KafkaPublisher {
	return &KafkaPublisher{next: next, writer: writer, timeout: defaultPublishTimeout}
}

// NewWriter returns a writer for topic with the delivery settings used for
// audit events.
func NewWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		MaxAttempts:  3,
		RequiredAcks: kafka.RequireOne,
	}
}

func (p *KafkaPublisher) Append(ctx context.Context, record *entity.AuditRecord) error {
	if err := p.next.Append(ctx, record); err != nil {
		return err
	}
	p.publish(ctx, record)
	return nil
}

func (p *KafkaPublisher) List(ctx context.Context, limit int) ([]*entity.AuditRecord, error) {
	return p.next.List(ctx, limit)
}

func (p *KafkaPublisher) publish(ctx context.Context, record *entity.AuditRecord) {
	payload, err := json.Marshal(Event{
		ID:         record.ID,
		Timestamp:  record.Timestamp.UTC(),
		User:       record.User,
		Query:      record.Query,
		Action:     string(record.Action),
		Reason:     record.Reason,
		ArticleURL: record.ArticleURL,
	})
	if err != nil {
		slog.Error("marshal audit event", slog.String("id", record.ID), slog.Any("error", err))
		return
	}

	// The record is already stored; a client disconnect should not drop the event.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()

	msg := kafka.Message{
		Key:   []byte(record.Query),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "action", Value: []byte(record.Action)},
			{Key: "timestamp", Value: []byte(record.Timestamp.UTC().Format(time.RFC3339))},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		slog.Warn("publish audit event failed",
			slog.String("id", record.ID),
			slog.Any("error", err))
	}
}
