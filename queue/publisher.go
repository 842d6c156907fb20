// Package queue hands ingestion jobs to the extraction worker over RabbitMQ.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"docledger/types"

	amqp "github.com/rabbitmq/amqp091-go"
)

const DefaultQueue = "ingestion_queue"

// JobPublisher delivers ingestion jobs. Delivery is at-least-once; consumers
// must be idempotent on (document_id, processing_version_id).
type JobPublisher interface {
	PublishIngestionJob(ctx context.Context, job types.IngestionJob) error
}

// Publisher keeps one AMQP connection and opens a channel per publish.
// A dropped connection is re-dialed on the next publish.
type Publisher struct {
	url    string
	queue  string
	logger *slog.Logger

	mu   sync.Mutex
	conn *amqp.Connection
}

func NewPublisher(url, queue string) (*Publisher, error) {
	if queue == "" {
		queue = DefaultQueue
	}
	p := &Publisher{
		url:    url,
		queue:  queue,
		logger: slog.Default(),
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, err := p.connection(); err != nil {
		return nil, err
	}
	return p, nil
}

// connection must be called with mu held.
func (p *Publisher) connection() (*amqp.Connection, error) {
	if p.conn != nil && !p.conn.IsClosed() {
		return p.conn, nil
	}
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	p.conn = conn
	p.logger.Info("connected to rabbitmq", "queue", p.queue)
	return conn, nil
}

func (p *Publisher) PublishIngestionJob(ctx context.Context, job types.IngestionJob) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}

	p.mu.Lock()
	conn, err := p.connection()
	p.mu.Unlock()
	if err != nil {
		return err
	}

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", p.queue, err)
	}

	err = ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish to %s: %w", p.queue, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil || p.conn.IsClosed() {
		return nil
	}
	err := p.conn.Close()
	if err != nil && !errors.Is(err, amqp.ErrClosed) {
		return err
	}
	p.logger.Info("rabbitmq connection closed")
	return nil
}
