package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/xavierca1/homni-leads/internal/entity"
)

// Channel is the part of *amqp.Channel the producer needs.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type RabbitMQProducer struct {
	Ch       Channel
	Exchange string
	Attempts uint
	Delay    time.Duration
}

func NewProducer(ch Channel) *RabbitMQProducer {
	return &RabbitMQProducer{
		Ch:       ch,
		Exchange: ExchangeName,
		Attempts: 3,
		Delay:    200 * time.Millisecond,
	}
}

// PublishLeadEvent publishes event with its type as routing key.
func (p *RabbitMQProducer) PublishLeadEvent(ctx context.Context, event entity.LeadEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal lead event: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		MessageId:    event.ID,
		Type:         event.Type,
		Timestamp:    event.OccurredAt,
		Body:         body,
		DeliveryMode: amqp.Persistent,
	}

	err = retry.Do(
		func() error {
			return p.Ch.PublishWithContext(ctx, p.Exchange, event.Type, false, false, msg)
		},
		retry.Context(ctx),
		retry.Attempts(p.Attempts),
		retry.Delay(p.Delay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			logrus.WithFields(logrus.Fields{
				"event":   event.Type,
				"lead_id": event.LeadID,
				"attempt": n + 1,
			}).WithError(err).Warn("retrying lead event publish")
		}),
	)
	if err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	return nil
}
