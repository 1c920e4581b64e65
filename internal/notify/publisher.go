// Package notify publishes reservation lifecycle events to RabbitMQ.
// Errors are logged and returned so callers can ignore failures without
// interrupting the request flow.
package notify

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/telmaron/clubbook/internal/booking"
	"github.com/telmaron/clubbook/internal/queue"
)

// Publisher implements booking.Notifier over RabbitMQ.  Each publish
// dials the broker, declares the target queue (idempotent) and sends a
// persistent JSON message on the default exchange.
type Publisher struct {
	url string
}

// NewPublisher constructs a Publisher for the given broker URL.
func NewPublisher(url string) *Publisher {
	return &Publisher{url: url}
}

// ReservationConfirmed publishes to the reservation.confirmed queue.
func (p *Publisher) ReservationConfirmed(ctx context.Context, n booking.Notification) error {
	return p.publish(ctx, queue.ConfirmedQueueName, "confirmed", n)
}

// ReservationCancelled publishes to the reservation.cancelled queue.
func (p *Publisher) ReservationCancelled(ctx context.Context, n booking.Notification) error {
	return p.publish(ctx, queue.CancelledQueueName, "cancelled", n)
}

func (p *Publisher) publish(ctx context.Context, queueName, action string, n booking.Notification) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		log.Printf("rabbitmq: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	now := time.Now().UTC()
	ev := queue.ReservationEvent{
		EventID:       uuid.NewString(),
		Action:        action,
		ReservationID: n.ReservationID,
		MemberID:      n.MemberID,
		MemberEmail:   n.MemberEmail,
		FacilityName:  n.FacilityName,
		Date:          n.Date.Format("2006-01-02"),
		StartTime:     n.StartTime,
		EndTime:       n.EndTime,
		OccurredAt:    now.Format(time.RFC3339),
	}

	body, err := json.Marshal(ev)
	if err != nil {
		log.Printf("rabbitmq: marshal event failed: %v", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    now,
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx, "", queueName, false, false, pub); err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
		return err
	}
	return nil
}
