// Package broker narrows github.com/rabbitmq/amqp091-go down to the
// surface the connection pool and run instances need, so tests can supply
// an in-memory fake instead of dialing a real broker.
package broker

import (
	"errors"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Channel is the subset of *amqp091.Channel this tester drives.
type Channel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueDelete(name string, ifUnused, ifEmpty, noWait bool) (int, error)
	Close() error
}

// Connection is the subset of *amqp091.Connection this tester drives.
type Connection interface {
	Channel() (Channel, error)
	Close() error
}

// Dialer opens a new Connection to the given AMQP URI. DefaultDial is the
// production implementation; tests substitute a fake.
type Dialer func(uri string) (Connection, error)

// DefaultDial opens a real connection via github.com/rabbitmq/amqp091-go.
func DefaultDial(uri string) (Connection, error) {
	conn, err := amqp.Dial(uri)
	if err != nil {
		return nil, err
	}

	return &connAdapter{conn: conn}, nil
}

// connAdapter wraps *amqp091.Connection so its Channel method returns the
// narrow Channel interface instead of the concrete *amqp091.Channel type.
// Go interface satisfaction requires exact method signatures, so this
// adapter is the simplest way to keep the pool and its tests decoupled from
// the concrete client.
type connAdapter struct {
	conn *amqp.Connection
}

func (c *connAdapter) Channel() (Channel, error) {
	ch, err := c.conn.Channel()
	if err != nil {
		return nil, err
	}

	return ch, nil
}

func (c *connAdapter) Close() error {
	return c.conn.Close()
}

// IsChannelLimitReached reports whether err is amqp091-go's sentinel for a
// connection that has exhausted its negotiated channel id space.
func IsChannelLimitReached(err error) bool {
	return errors.Is(err, amqp.ErrChannelMax)
}
