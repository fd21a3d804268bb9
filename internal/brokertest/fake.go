// Package brokertest is an in-memory stand-in for github.com/rabbitmq/amqp091-go,
// shared across this module's test suites so the concurrency protocol
// (ack discipline, correlation matching, channel-limit growth) is
// exercised without a live broker.
package brokertest

import (
	"sync"

	"github.com/simple0x47/auth0-amqp-api-tester/internal/broker"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Channel is an in-memory stand-in for *amqp091.Channel.
type Channel struct {
	broker *Broker
}

func (c *Channel) Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	c.broker.Publish(key, msg)
	return nil
}

func (c *Channel) Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error) {
	return c.broker.queue(queue), nil
}

func (c *Channel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
	c.broker.queue(name)
	return amqp.Queue{Name: name}, nil
}

func (c *Channel) QueueDelete(name string, ifUnused, ifEmpty, noWait bool) (int, error) {
	c.broker.delete(name)
	return 0, nil
}

func (c *Channel) Close() error { return nil }

// Connection hands out Channels until ChannelLimit is reached, then
// reports amqp091-go's channel-id-space-exhausted sentinel so the pool
// exercises its lazy-growth path. ChannelLimit of 0 means unlimited.
type Connection struct {
	broker       *Broker
	ChannelLimit int
	mu           sync.Mutex
	opened       int
}

func (c *Connection) Channel() (broker.Channel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ChannelLimit > 0 && c.opened >= c.ChannelLimit {
		return nil, amqp.ErrChannelMax
	}

	c.opened++

	return &Channel{broker: c.broker}, nil
}

func (c *Connection) Close() error { return nil }

// Broker is the shared in-memory queue state behind every Connection and
// Channel a test's Dialer hands out. Unlike the earlier pub/sub-only
// revision of this fake, each named queue is a single buffered channel
// that exists independent of whether a consumer has attached yet — the
// same durability a real broker queue gives a publisher, and the property
// this tester's run instances rely on (publish happens before Consume is
// called).
type Broker struct {
	mu     sync.Mutex
	queues map[string]chan amqp.Delivery
}

// New builds an empty Broker.
func New() *Broker {
	return &Broker{queues: make(map[string]chan amqp.Delivery)}
}

// Dialer returns a broker.Dialer that hands out Connections capped at
// channelLimit channels each (0 means unlimited).
func (b *Broker) Dialer(channelLimit int) broker.Dialer {
	return func(uri string) (broker.Connection, error) {
		return &Connection{broker: b, ChannelLimit: channelLimit}, nil
	}
}

func (b *Broker) queue(name string) chan amqp.Delivery {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch, ok := b.queues[name]
	if !ok {
		ch = make(chan amqp.Delivery, 256)
		b.queues[name] = ch
	}

	return ch
}

func (b *Broker) delete(queue string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.queues, queue)
}

// Publish enqueues msg onto queue, creating it if this is the first use.
func (b *Broker) Publish(queue string, msg amqp.Publishing) {
	ch := b.queue(queue)
	ch <- amqp.Delivery{
		Acknowledger:  noopAcknowledger{},
		Body:          msg.Body,
		CorrelationId: msg.CorrelationId,
		ContentType:   msg.ContentType,
	}
}

// EchoReply wires the broker so that anything published to requestQueue is
// re-published to replyQueue with the same correlation id, simulating a
// service under test that echoes its request back.
func (b *Broker) EchoReply(requestQueue, replyQueue string) {
	ch := b.queue(requestQueue)

	go func() {
		for d := range ch {
			b.Publish(replyQueue, amqp.Publishing{
				Body:          d.Body,
				CorrelationId: d.CorrelationId,
				ContentType:   d.ContentType,
			})
		}
	}()
}

// noopAcknowledger is a no-op amqp091.Acknowledger so fake deliveries
// support Ack/Nack/Reject without a real channel backing them.
type noopAcknowledger struct{}

func (noopAcknowledger) Ack(tag uint64, multiple bool) error           { return nil }
func (noopAcknowledger) Nack(tag uint64, multiple, requeue bool) error { return nil }
func (noopAcknowledger) Reject(tag uint64, requeue bool) error         { return nil }
