package rabbitmq

import (
	"context"
	"errors"
	"testing"

	"course-media/apperr"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
)

type fakeAcknowledger struct {
	acks    int
	nacks   int
	requeue bool
}

func (f *fakeAcknowledger) Ack(tag uint64, multiple bool) error { f.acks++; return nil }

func (f *fakeAcknowledger) Nack(tag uint64, multiple, requeue bool) error {
	f.nacks++
	f.requeue = requeue
	return nil
}

func (f *fakeAcknowledger) Reject(tag uint64, requeue bool) error { return nil }

func newTestConsumer(maxTries uint, handler func(ctx context.Context, msg amqp.Delivery, deps struct{}) error) consumer[struct{}] {
	return consumer[struct{}]{
		handler:    handler,
		numWorkers: 1,
		maxTries:   maxTries,
	}
}

func TestHandleDeliveryAcksOnSuccess(t *testing.T) {
	ack := &fakeAcknowledger{}
	calls := 0
	c := newTestConsumer(3, func(ctx context.Context, msg amqp.Delivery, deps struct{}) error {
		calls++
		return nil
	})

	c.handleDelivery(context.Background(), amqp.Delivery{Acknowledger: ack, DeliveryTag: 1}, struct{}{}, 1)

	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, ack.acks)
	assert.Equal(t, 0, ack.nacks)
}

func TestHandleDeliveryNacksToDLQAfterRetriesExhausted(t *testing.T) {
	ack := &fakeAcknowledger{}
	calls := 0
	c := newTestConsumer(2, func(ctx context.Context, msg amqp.Delivery, deps struct{}) error {
		calls++
		return errors.New("broker hiccup")
	})

	c.handleDelivery(context.Background(), amqp.Delivery{Acknowledger: ack, DeliveryTag: 1}, struct{}{}, 1)

	assert.Equal(t, 2, calls)
	assert.Equal(t, 0, ack.acks)
	assert.Equal(t, 1, ack.nacks)
	assert.False(t, ack.requeue, "exhausted deliveries must dead-letter, not requeue")
}

func TestHandleDeliveryNonRetryableSkipsRetries(t *testing.T) {
	ack := &fakeAcknowledger{}
	calls := 0
	c := newTestConsumer(5, func(ctx context.Context, msg amqp.Delivery, deps struct{}) error {
		calls++
		return errors.Join(apperr.ErrNonRetryable, errors.New("malformed payload"))
	})

	c.handleDelivery(context.Background(), amqp.Delivery{Acknowledger: ack, DeliveryTag: 1}, struct{}{}, 1)

	assert.Equal(t, 1, calls, "permanent errors must not be retried")
	assert.Equal(t, 0, ack.acks)
	assert.Equal(t, 1, ack.nacks)
	assert.False(t, ack.requeue)
}

func TestHandleDeliveryShutdownLeavesMessageUnacked(t *testing.T) {
	ack := &fakeAcknowledger{}
	ctx, cancel := context.WithCancel(context.Background())
	c := newTestConsumer(5, func(ctx context.Context, msg amqp.Delivery, deps struct{}) error {
		cancel()
		return ctx.Err()
	})

	c.handleDelivery(ctx, amqp.Delivery{Acknowledger: ack, DeliveryTag: 1}, struct{}{}, 1)

	assert.Equal(t, 0, ack.acks, "an interrupted job must stay unacked for redelivery")
	assert.Equal(t, 0, ack.nacks, "an interrupted job must not dead-letter")
}
