package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Adityakbr01/sheryians-Clone-FullStack-sub000/internal/queue"
)

// Notifier hands outbound notifications to the delivery pipeline.
type Notifier interface {
	Publish(ctx context.Context, ev queue.NotificationEvent) error
}

// RabbitNotifier publishes notification events to a durable RabbitMQ queue.
// Each publish opens its own connection; notifications are rare (registration,
// OTP resend) so pooling is not worth the reconnect bookkeeping.
type RabbitNotifier struct {
	url   string
	queue string
	log   *slog.Logger
}

func NewRabbitNotifier(url, queueName string, log *slog.Logger) *RabbitNotifier {
	return &RabbitNotifier{url: url, queue: queueName, log: log.With("component", "notifier")}
}

// Publish marks messages persistent.  Errors are logged and returned so the
// caller can choose to ignore them.
func (n *RabbitNotifier) Publish(ctx context.Context, ev queue.NotificationEvent) error {
	conn, err := amqp.Dial(n.url)
	if err != nil {
		n.log.Warn("rabbitmq dial failed", "error", err)
		return fmt.Errorf("notify: dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		n.log.Warn("rabbitmq channel open failed", "error", err)
		return fmt.Errorf("notify: channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	// Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(n.queue, true, false, false, false, nil); err != nil {
		n.log.Warn("rabbitmq queue declare failed", "queue", n.queue, "error", err)
		return fmt.Errorf("notify: declare: %w", err)
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("notify: marshal: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.ID,
		Type:         ev.Kind,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", n.queue, false, false, pub); err != nil {
		n.log.Warn("rabbitmq publish failed", "queue", n.queue, "error", err)
		return fmt.Errorf("notify: publish: %w", err)
	}
	return nil
}
