package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"boardgame-meetup/internal/model"
)

type ListingEventPublisher struct {
	conn      *amqp.Connection
	queueName string
}

func NewListingEventPublisher(conn *amqp.Connection, queueName string) *ListingEventPublisher {
	return &ListingEventPublisher{
		conn:      conn,
		queueName: queueName,
	}
}

func (p *ListingEventPublisher) Publish(ctx context.Context, event model.ListingEvent) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open rabbitmq channel failed: %w", err)
	}
	defer ch.Close()

	if err := DeclareQueue(ch, p.queueName); err != nil {
		return err
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal listing event failed: %w", err)
	}

	if err := ch.PublishWithContext(
		ctx,
		"",
		p.queueName,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         payload,
			DeliveryMode: amqp.Persistent,
			Timestamp:    event.OccurredAt,
			Type:         string(event.Type),
		},
	); err != nil {
		return fmt.Errorf("publish listing event failed: %w", err)
	}
	return nil
}
