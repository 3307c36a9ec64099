package rabbitmq

import (
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	ExchangeName = "transcoding_exchange"
	QueueName    = "transcoding_queue"
	RoutingKey   = "transcoding.request"

	DLXName        = "transcoding_exchange_dlx"
	DLQName        = "transcoding_queue_dlq"
	DLQRoutingKey  = "dlq.transcoding.request"
	NotifyExchange = "notifications_exchange"
)

// declareTopology sets up the durable transcode queue with its dead-letter
// pair. Declarations are idempotent so producer and consumer both call it.
func declareTopology(ch *amqp.Channel, kind string) error {
	if err := ch.ExchangeDeclare(ExchangeName, kind, true, false, false, false, nil); err != nil {
		return err
	}

	if err := ch.ExchangeDeclare(DLXName, kind, true, false, false, false, nil); err != nil {
		return err
	}

	dlq, err := ch.QueueDeclare(DLQName, true, false, false, false, nil)
	if err != nil {
		return err
	}
	if err := ch.QueueBind(dlq.Name, DLQRoutingKey, DLXName, false, nil); err != nil {
		return err
	}

	args := amqp.Table{
		"x-dead-letter-exchange":    DLXName,
		"x-dead-letter-routing-key": DLQRoutingKey,
	}
	q, err := ch.QueueDeclare(QueueName, true, false, false, false, args)
	if err != nil {
		return err
	}

	return ch.QueueBind(q.Name, RoutingKey, ExchangeName, false, nil)
}
