package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"boardgame-meetup/internal/model"
	"boardgame-meetup/internal/platform/rabbitmq"
)

var errInvalidEvent = errors.New("invalid listing event")

type ActivityWriter interface {
	Create(ctx context.Context, activity *model.ListingActivity) error
}

// ChannelOpener is satisfied by *amqp.Connection.
type ChannelOpener interface {
	Channel() (*amqp.Channel, error)
}

// ListingEventWorker records every listing event as a ListingActivity row.
type ListingEventWorker struct {
	conn      ChannelOpener
	repo      ActivityWriter
	queueName string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewListingEventWorker(conn ChannelOpener, repo ActivityWriter, queueName string) *ListingEventWorker {
	return &ListingEventWorker{
		conn:      conn,
		repo:      repo,
		queueName: queueName,
	}
}

// Start begins consuming. It is a no-op once a previous Start succeeded; a
// failed Start can be retried.
func (w *ListingEventWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	ch, err := w.conn.Channel()
	if err != nil {
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	if err := rabbitmq.DeclareQueue(ch, w.queueName); err != nil {
		_ = ch.Close()
		return err
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				if err := w.handle(workerCtx, d.Body); err != nil {
					log.Printf("listing event worker: %v", err)
					_ = d.Nack(false, false)
					continue
				}
				_ = d.Ack(false)
			}
		}
	}()

	return nil
}

func (w *ListingEventWorker) handle(ctx context.Context, body []byte) error {
	var event model.ListingEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("decode listing event failed: %w", err)
	}
	if event.ListingID == "" || event.OwnerID == 0 {
		return errInvalidEvent
	}
	switch event.Type {
	case model.ListingCreated, model.ListingDeleted:
	default:
		return fmt.Errorf("%w: unknown type %q", errInvalidEvent, event.Type)
	}

	activity := &model.ListingActivity{
		UserID:     event.OwnerID,
		ListingID:  event.ListingID,
		Action:     event.Type,
		Game:       event.Game,
		OccurredAt: event.OccurredAt,
	}
	if err := w.repo.Create(ctx, activity); err != nil {
		return fmt.Errorf("persist listing activity failed: %w", err)
	}
	return nil
}

func (w *ListingEventWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
