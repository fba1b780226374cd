package broker

import "context"

// InProcess is a minimal channel-backed Consumer and Publisher, useful for
// local development and for tests that exercise the worker driver without a
// real broker. It is explicitly not a RabbitMQ/AMQP client.
type InProcess struct {
	deliveries chan Delivery
	Published  [][]byte
	Acked      []Delivery
	Rejected   []Delivery
}

// NewInProcess returns a ready-to-use in-process broker stub.
func NewInProcess(buffer int) *InProcess {
	return &InProcess{deliveries: make(chan Delivery, buffer)}
}

// Enqueue pushes a raw request body as if it had been delivered by the
// broker.
func (b *InProcess) Enqueue(body []byte) {
	b.deliveries <- Delivery{Body: body}
}

// Close stops further delivery.
func (b *InProcess) Close() {
	close(b.deliveries)
}

// Deliveries implements Consumer.
func (b *InProcess) Deliveries(ctx context.Context) (<-chan Delivery, error) {
	return b.deliveries, nil
}

// Ack implements Consumer.
func (b *InProcess) Ack(ctx context.Context, d Delivery) error {
	b.Acked = append(b.Acked, d)
	return nil
}

// Reject implements Consumer.
func (b *InProcess) Reject(ctx context.Context, d Delivery) error {
	b.Rejected = append(b.Rejected, d)
	return nil
}

// Publish implements Publisher.
func (b *InProcess) Publish(ctx context.Context, payload []byte) error {
	b.Published = append(b.Published, payload)
	return nil
}
