package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Deliverer hands a notification to its final channel.
type Deliverer interface {
	Deliver(ctx context.Context, ev NotificationEvent) error
}

// FileDeliverer appends one line per notification to <Dir>/notifications.log.
// It stands in for a mail provider.
type FileDeliverer struct {
	Dir string

	mu sync.Mutex
}

func (d *FileDeliverer) Deliver(_ context.Context, ev NotificationEvent) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", d.Dir, err)
	}
	f, err := os.OpenFile(filepath.Join(d.Dir, "notifications.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	line := fmt.Sprintf("[%s] %s | id=%s | principal_id=%d | email=%q",
		ev.CreatedAt.Format(time.RFC3339), ev.Kind, ev.ID, ev.PrincipalID, ev.Email)
	if ev.Code != "" {
		line += " | code=" + ev.Code
	}
	if _, err := f.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// Consumer reads notification events from a durable RabbitMQ queue and hands
// each to a Deliverer.  Poison messages are rejected without requeue so they
// cannot block the queue.
type Consumer struct {
	URL       string
	Queue     string
	Deliverer Deliverer
	Log       *slog.Logger

	// MaxBackoff caps the reconnect delay.  Zero means 30s.
	MaxBackoff time.Duration
}

// Run keeps a consumer attached to the broker until ctx ends, reconnecting
// with exponential backoff.  It only returns ctx.Err().
func (c *Consumer) Run(ctx context.Context) error {
	log := c.Log
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "notification-consumer", "queue", c.Queue)
	maxBackoff := c.MaxBackoff
	if maxBackoff <= 0 {
		maxBackoff = 30 * time.Second
	}

	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		conn, err := amqp.Dial(c.URL)
		if err != nil {
			log.Warn("broker dial failed", "error", err, "retry_in", backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < maxBackoff {
				backoff = min(backoff*2, maxBackoff)
			}
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn, log)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warn("consume loop ended, reconnecting", "error", err)
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection, log *slog.Logger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Warn("set QoS failed", "error", err)
	}
	if _, err := ch.QueueDeclare(c.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(c.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.handle(ctx, d.Body); err != nil {
				log.Warn("notification rejected", "message_id", d.MessageId, "error", err)
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, body []byte) error {
	var ev NotificationEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Kind == "" || ev.Email == "" {
		return fmt.Errorf("incomplete event %q", ev.ID)
	}
	return c.Deliverer.Deliver(ctx, ev)
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
