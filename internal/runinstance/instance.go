// Package runinstance implements one test's publish, await-correlated-
// reply, assert, emit-result cycle.
package runinstance

import (
	"github.com/simple0x47/auth0-amqp-api-tester/internal/amqpcfg"
	"github.com/simple0x47/auth0-amqp-api-tester/internal/apperror"
	"github.com/simple0x47/auth0-amqp-api-tester/internal/assertscript"
	"github.com/simple0x47/auth0-amqp-api-tester/internal/broker"
	"github.com/simple0x47/auth0-amqp-api-tester/internal/log"
	"github.com/simple0x47/auth0-amqp-api-tester/internal/suite"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Instance is a one-shot object representing a single test execution. It
// is exercised exactly once: publish, open a per-instance consumer, wait
// for the correlated reply, assert, emit a result.
type Instance struct {
	test             *suite.Test
	channel          broker.Channel
	requestQueueName string
	replyQueueName   string
	requestAmqp      *amqpcfg.Amqp
	replyAmqp        *amqpcfg.Amqp
	results          chan<- suite.TestResult
	assertRunner     *assertscript.Runner
	logger           log.Logger
}

// New builds a run instance for one test, bound to a pool-acquired channel
// and the suite's queue names, options, shared assertion runner, and
// result sender.
func New(
	test *suite.Test,
	channel broker.Channel,
	requestQueueName, replyQueueName string,
	requestAmqp, replyAmqp *amqpcfg.Amqp,
	results chan<- suite.TestResult,
	assertRunner *assertscript.Runner,
	logger log.Logger,
) *Instance {
	if logger == nil {
		logger = log.NoneLogger{}
	}

	return &Instance{
		test:             test,
		channel:          channel,
		requestQueueName: requestQueueName,
		replyQueueName:   replyQueueName,
		requestAmqp:      requestAmqp,
		replyAmqp:        replyAmqp,
		results:          results,
		assertRunner:     assertRunner,
		logger:           logger,
	}
}

// Run executes the protocol described in the package doc. Failures that
// occur before the correlated reply is matched propagate upward as an
// error and emit no TestResult; the suite runner logs them. Once a reply
// is matched, every subsequent failure (assertion failure, or an internal
// failure inside the assertion runner) is converted into a TestResult and
// never propagates.
func (i *Instance) Run() error {
	correlationID := uuid.New().String()

	body := []byte(i.test.Request)

	if err := i.publish(correlationID, body); err != nil {
		return err
	}

	consumerTag := i.replyQueueName + "#" + uuid.New().String()

	deliveries, err := i.channel.Consume(
		i.replyQueueName,
		consumerTag,
		i.replyAmqp.ConsumeOptions.AutoAck,
		i.replyAmqp.ConsumeOptions.Exclusive,
		i.replyAmqp.ConsumeOptions.NoLocal,
		i.replyAmqp.ConsumeOptions.NoWait,
		i.replyAmqp.ConsumeArguments,
	)
	if err != nil {
		return apperror.Wrapf(apperror.InternalFailure, err, "failed to open consumer on %q", i.replyQueueName)
	}

	for delivery := range deliveries {
		if err := delivery.Ack(false); err != nil {
			return apperror.Wrapf(apperror.InternalFailure, err, "failed to ack delivery on %q", i.replyQueueName)
		}

		if delivery.CorrelationId == "" || delivery.CorrelationId != correlationID {
			i.logger.Warnf("test %q: discarding reply with unmatched correlation id on %q", i.test.Name, i.replyQueueName)
			continue
		}

		result := i.assert(delivery)

		// Bounded send: this blocks (suspends) the instance when the
		// suite's result channel is full, coupling suite progress to
		// collector drain speed as specified.
		i.results <- result

		return nil
	}

	return apperror.Newf(apperror.InternalFailure, "reply consumer on %q closed before a correlated reply arrived", i.replyQueueName)
}

func (i *Instance) assert(delivery amqp.Delivery) suite.TestResult {
	if err := i.assertRunner.RunScript(i.test.AssertScript, delivery.Body); err != nil {
		return suite.Failure(i.test.Name, err)
	}

	return suite.OK(i.test.Name)
}

func (i *Instance) publish(correlationID string, body []byte) error {
	err := i.channel.Publish(
		"",
		i.requestQueueName,
		i.requestAmqp.PublishOptions.Mandatory,
		i.requestAmqp.PublishOptions.Immediate,
		amqp.Publishing{
			ContentType:   "application/json",
			CorrelationId: correlationID,
			ReplyTo:       i.replyQueueName,
			Body:          body,
		},
	)
	if err != nil {
		return apperror.Wrapf(apperror.InternalFailure, err, "failed to publish to %q", i.requestQueueName)
	}

	return nil
}
