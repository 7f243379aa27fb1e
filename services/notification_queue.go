package services

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"

	"eteeap-portfolio-api/models"
)

// NotificationQueue publishes rendered e-mails to a durable RabbitMQ queue
// drained by cmd/notify-worker.
type NotificationQueue struct {
	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   amqp.Queue
	baseURL string
}

// DialNotificationQueue connects to RabbitMQ and declares the queue.
func DialNotificationQueue(url, queueName, baseURL string) (*NotificationQueue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, errors.Wrap(err, "connect to RabbitMQ")
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "open channel")
	}

	q, err := ch.QueueDeclare(
		queueName, // queue name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // args
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, errors.Wrap(err, "declare queue")
	}

	return &NotificationQueue{conn: conn, channel: ch, queue: q, baseURL: baseURL}, nil
}

func (q *NotificationQueue) Name() string { return "queue" }

// Deliver renders the notification e-mail and publishes it.
func (q *NotificationQueue) Deliver(ctx context.Context, recipient models.User, n models.Notification) error {
	if recipient.Email == "" {
		return nil
	}
	email, err := RenderEmail(recipient, n, q.baseURL)
	if err != nil {
		return err
	}
	return q.Publish(ctx, email)
}

// Publish sends one e-mail message to the queue.
func (q *NotificationQueue) Publish(ctx context.Context, email Email) error {
	body, err := json.Marshal(email)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	q.mu.Lock()
	defer q.mu.Unlock()
	return q.channel.PublishWithContext(
		ctx,
		"",           // exchange
		q.queue.Name, // routing key
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

// Consume hands every queued e-mail to handle until ctx is done. Messages are
// acked after handle returns nil and dropped (with a log line) otherwise.
func (q *NotificationQueue) Consume(ctx context.Context, handle func(Email) error) error {
	msgs, err := q.channel.Consume(
		q.queue.Name,
		"",
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return errors.Wrap(err, "register consumer")
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("notification queue closed")
			}
			var email Email
			if err := json.Unmarshal(d.Body, &email); err != nil {
				log.Printf("invalid queued email: %v", err)
				_ = d.Nack(false, false)
				continue
			}
			if err := handle(email); err != nil {
				log.Printf("queued email %d failed: %v", email.NotificationID, err)
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (q *NotificationQueue) Close() error {
	if q.channel != nil {
		_ = q.channel.Close()
	}
	if q.conn != nil {
		return q.conn.Close()
	}
	return nil
}
