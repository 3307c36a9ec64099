package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	"course-media/dto"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// Notifier publishes advisory messages to a topic exchange keyed by user.
// Delivery is best-effort: failures are logged and never surfaced to the
// caller, so a broken notification channel cannot fail a job.
type Notifier interface {
	Notify(ctx context.Context, n dto.Notification)
}

type notifier struct {
	conn *amqp.Connection
}

func NewNotifier(conn *amqp.Connection) Notifier {
	return &notifier{conn: conn}
}

func (p *notifier) Notify(ctx context.Context, n dto.Notification) {
	ch, err := p.conn.Channel()
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("notification channel unavailable")
		return
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(NotifyExchange, "topic", true, false, false, false, nil); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("failed to declare notification exchange")
		return
	}

	body, err := json.Marshal(n)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("failed to marshal notification")
		return
	}

	routingKey := fmt.Sprintf("notify.%s", n.UserId.String())
	err = ch.PublishWithContext(ctx, NotifyExchange, routingKey, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("user_id", n.UserId.String()).Msg("failed to publish notification")
		return
	}

	zerolog.Ctx(ctx).Debug().Str("user_id", n.UserId.String()).Str("type", string(n.Type)).Msg("notification published")
}
