// Package amqppool is the broker connection pool: an append-only list of
// live connections that hands out channels, growing lazily when a
// connection reports its channel id space is exhausted.
package amqppool

import (
	"sync"
	"time"

	"github.com/simple0x47/auth0-amqp-api-tester/internal/apperror"
	"github.com/simple0x47/auth0-amqp-api-tester/internal/broker"
	"github.com/simple0x47/auth0-amqp-api-tester/internal/log"

	"github.com/sony/gobreaker"
)

// Pool is an append-only collection of broker connections. GetChannel is
// its only writer; the mutex guarding the list is acquired with a
// non-blocking try-lock, matching the source's assumption that no holder
// keeps the lock long.
type Pool struct {
	uri     string
	dial    broker.Dialer
	mu      sync.Mutex
	conns   []broker.Connection
	breaker *gobreaker.CircuitBreaker
	logger  log.Logger
}

// New builds a Pool that dials uri via dial, opening one initial
// connection eagerly so a cold pool fails fast if the broker is
// unreachable.
func New(uri string, dial broker.Dialer, logger log.Logger) (*Pool, error) {
	if logger == nil {
		logger = log.NoneLogger{}
	}

	p := &Pool{
		uri:    uri,
		dial:   dial,
		logger: logger,
	}

	p.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "amqp-connect",
		MaxRequests: 1,
		Interval:    0,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warnf("circuit breaker [%s] state changed: %s -> %s", name, from, to)
		},
	})

	conn, err := p.connect()
	if err != nil {
		return nil, err
	}

	p.conns = append(p.conns, conn)

	return p, nil
}

func (p *Pool) connect() (broker.Connection, error) {
	result, err := p.breaker.Execute(func() (any, error) {
		return p.dial(p.uri)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, apperror.Wrap(apperror.ApiConnectionFailure, err, "broker connect circuit breaker is open")
		}

		return nil, apperror.Wrap(apperror.ApiConnectionFailure, err, "failed to connect to broker")
	}

	return result.(broker.Connection), nil
}

// GetChannel returns a channel from the first connection able to open one,
// in insertion order, growing the pool with a new connection when every
// existing connection reports its channel id space is exhausted.
func (p *Pool) GetChannel() (broker.Channel, error) {
	if !p.mu.TryLock() {
		return nil, apperror.New(apperror.InternalFailure, "connection pool is busy")
	}
	defer p.mu.Unlock()

	for _, conn := range p.conns {
		ch, err := conn.Channel()
		if err == nil {
			return ch, nil
		}

		if broker.IsChannelLimitReached(err) {
			continue
		}

		return nil, apperror.Wrap(apperror.ApiConnectionFailure, err, "failed to open channel")
	}

	conn, err := p.connect()
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, apperror.Wrap(apperror.ApiConnectionFailure, err, "failed to open channel on new connection")
	}

	p.conns = append(p.conns, conn)

	return ch, nil
}

// Len reports the current number of pooled connections. Exposed for tests
// that verify lazy-growth behavior.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.conns)
}
