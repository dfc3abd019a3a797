package queue

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/xavierca1/homni-leads/internal/entity"
)

// EventHandler reacts to one lead event type.
type EventHandler interface {
	HandleLeadEvent(ctx context.Context, event entity.LeadEvent) error
}

type EventHandlerFunc func(ctx context.Context, event entity.LeadEvent) error

func (f EventHandlerFunc) HandleLeadEvent(ctx context.Context, event entity.LeadEvent) error {
	return f(ctx, event)
}

type Worker struct {
	Channel  *amqp.Channel
	handlers map[string][]EventHandler
	log      *logrus.Entry
}

func NewWorker(ch *amqp.Channel) *Worker {
	return &Worker{
		Channel:  ch,
		handlers: make(map[string][]EventHandler),
		log:      logrus.WithField("component", "lead-event-worker"),
	}
}

// Subscribe registers h for eventType. Several handlers per type run in order.
// A failing handler redelivers the event to every handler of the type, so
// handlers must tolerate repeats.
func (w *Worker) Subscribe(eventType string, h EventHandler) {
	w.handlers[eventType] = append(w.handlers[eventType], h)
}

// Start consumes queueName until ctx is cancelled or the channel closes.
func (w *Worker) Start(ctx context.Context, queueName string) error {
	msgs, err := w.Channel.ConsumeWithContext(ctx,
		queueName,
		"",
		false, // manual ack
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("register consumer: %w", err)
	}

	w.log.WithField("queue", queueName).Info("worker waiting for lead events")

	for {
		select {
		case <-ctx.Done():
			w.log.Info("worker stopped")
			return nil
		case d, ok := <-msgs:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			w.handleDelivery(ctx, d)
		}
	}
}

// handleDelivery acks on success. Malformed payloads are dead-lettered right
// away; handler failures get one redelivery before going to the DLQ.
func (w *Worker) handleDelivery(ctx context.Context, d amqp.Delivery) {
	var event entity.LeadEvent
	if err := json.Unmarshal(d.Body, &event); err != nil {
		w.log.WithError(err).Error("malformed lead event, dead-lettering")
		_ = d.Nack(false, false)
		return
	}
	if event.Type == "" {
		event.Type = d.RoutingKey
	}

	log := w.log.WithFields(logrus.Fields{"event": event.Type, "lead_id": event.LeadID})

	handlers, ok := w.handlers[event.Type]
	if !ok {
		log.Warn("no handler for lead event, acking")
		_ = d.Ack(false)
		return
	}

	for _, h := range handlers {
		if err := h.HandleLeadEvent(ctx, event); err != nil {
			requeue := !d.Redelivered
			log.WithError(err).WithField("requeue", requeue).Error("lead event handler failed")
			_ = d.Nack(false, requeue)
			return
		}
	}

	log.Debug("lead event processed")
	_ = d.Ack(false)
}
