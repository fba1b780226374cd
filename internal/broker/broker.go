// Package broker defines the interfaces this worker consumes from and
// publishes to the task broker. The broker consumer loop, connection
// lifecycle, and actual transport are out of scope per spec section 1 —
// they are external collaborators. No AMQP/RabbitMQ client library appears
// anywhere in the reference pack, so this package models only the shape of
// the interaction and ships a trivial in-process stub for local
// development and tests (see inprocess.go).
package broker

import "context"

// Delivery is one message pulled off the request queue.
type Delivery struct {
	Body []byte
}

// Consumer yields deliveries from the request queue.
type Consumer interface {
	// Deliveries returns a channel of incoming requests. The channel is
	// closed when the consumer shuts down.
	Deliveries(ctx context.Context) (<-chan Delivery, error)
	// Ack acknowledges successful processing of a delivery.
	Ack(ctx context.Context, d Delivery) error
	// Reject rejects a delivery without requeueing it — used when the
	// envelope itself can't be parsed, per spec section 4.7 step 1.
	Reject(ctx context.Context, d Delivery) error
}

// Publisher sends a compiled result or a structured error onto the query
// queue.
type Publisher interface {
	Publish(ctx context.Context, payload []byte) error
}
