package rabbitmq

import (
	"context"
	"encoding/json"

	"course-media/config"
	"course-media/constant"
	"course-media/dto"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// Publisher is the producer side of the job queue. Jobs are published with
// persistent delivery mode onto a durable queue so they survive restarts of
// both broker and producer.
type Publisher interface {
	Publish(ctx context.Context, jobType constant.JobType, payload any) error
}

type publisher struct {
	conn *amqp.Connection
	cfg  *config.RabbitMQ
}

func NewPublisher(conn *amqp.Connection, cfg *config.RabbitMQ) Publisher {
	return &publisher{conn: conn, cfg: cfg}
}

func (p *publisher) Publish(ctx context.Context, jobType constant.JobType, payload any) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	if err := declareTopology(ch, p.cfg.Kind); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to declare queue topology")
		return err
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	body, err := json.Marshal(dto.JobEnvelope{Type: jobType, Payload: raw})
	if err != nil {
		return err
	}

	err = ch.PublishWithContext(ctx, ExchangeName, RoutingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("job_type", string(jobType)).Msg("failed to publish job")
		return err
	}

	zerolog.Ctx(ctx).Info().Str("job_type", string(jobType)).Msg("job published")
	return nil
}
