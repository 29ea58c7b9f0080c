// Package service holds outbound integrations that sit between the HTTP
// handlers and external systems.
package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/luizfprog/betesportes-api/internal/queue"
)

// QueuePublisher pushes domain events to RabbitMQ.  Every publish dials a
// fresh short-lived connection, which keeps the publisher free of connection
// state at the cost of a handshake per event; slip creation is rare enough
// for that trade.  Errors are logged and returned so callers can ignore them
// without losing the trace.
type QueuePublisher struct {
	URL string
}

func NewQueuePublisher(url string) *QueuePublisher { return &QueuePublisher{URL: url} }

// PublishTicketCreated sends the event to the durable ticket.created queue.
func (p *QueuePublisher) PublishTicketCreated(ev queue.TicketCreatedEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := amqp.Dial(p.URL)
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

	// Idempotent declare; durable so events survive a broker restart.
	if _, err := ch.QueueDeclare("ticket.created", true, false, false, false, nil); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		log.Printf("rabbitmq: marshal event failed: %v", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", "ticket.created", false, false, pub); err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
		return err
	}
	return nil
}
