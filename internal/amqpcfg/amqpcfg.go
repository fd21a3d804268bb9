// Package amqpcfg is the strongly-typed view of the broker options a suite
// file carries: queue declare args and the four publish/consume option
// bundles.
package amqpcfg

import (
	"fmt"

	"github.com/simple0x47/auth0-amqp-api-tester/internal/apperror"

	amqp "github.com/rabbitmq/amqp091-go"
)

// DeclareOptions mirrors the flags amqp091.Channel.QueueDeclare takes
// beyond the name and arguments table.
type DeclareOptions struct {
	Durable    bool `json:"durable"`
	AutoDelete bool `json:"auto_delete"`
	Exclusive  bool `json:"exclusive"`
	NoWait     bool `json:"no_wait"`
}

// Queue is a queue descriptor: its name, declare flags, and declare
// arguments.
type Queue struct {
	Name             string         `json:"name"`
	DeclareOptions   DeclareOptions `json:"declare_options"`
	DeclareArguments amqp.Table     `json:"declare_arguments"`
}

// PublishOptions mirrors the flags amqp091.Channel.Publish takes beyond
// exchange, routing key, and the message itself.
type PublishOptions struct {
	Mandatory bool `json:"mandatory"`
	Immediate bool `json:"immediate"`
}

// ConsumeOptions mirrors the flags amqp091.Channel.Consume takes beyond
// queue and consumer tag.
type ConsumeOptions struct {
	AutoAck   bool `json:"auto_ack"`
	Exclusive bool `json:"exclusive"`
	NoLocal   bool `json:"no_local"`
	NoWait    bool `json:"no_wait"`
}

// Amqp is one side (request or reply) of a suite's broker configuration.
// All four option/argument bundles are optional in the JSON file, but
// which ones are required before a suite can run depends on which side
// this is — see Validate.
type Amqp struct {
	Queue            Queue           `json:"queue"`
	PublishOptions   *PublishOptions `json:"publish_options,omitempty"`
	PublishArguments amqp.Table      `json:"publish_arguments,omitempty"`
	ConsumeOptions   *ConsumeOptions `json:"consume_options,omitempty"`
	ConsumeArguments amqp.Table      `json:"consume_arguments,omitempty"`
}

// Validate reports the first missing option bundle this side actually needs,
// as an InternalFailure: the loader accepts a suite with bundles absent, and
// it is suite execution that refuses to proceed. Only publish_options and
// publish_arguments are required on the request side, and only
// consume_options and consume_arguments on the reply side — a run instance
// always publishes with the request side's publish options and always
// consumes with the reply side's consume options, so the request side's
// consume bundle and the reply side's publish bundle are never read and are
// not required here. PublishArguments is validated here for presence but,
// as in the predecessor, is never actually fed into the publish call — see
// the run instance's publish method.
func (a *Amqp) Validate(side string) error {
	switch side {
	case "request":
		if a.PublishOptions == nil {
			return apperror.Newf(apperror.InternalFailure, "%s amqp does not contain publish options", side)
		}

		if a.PublishArguments == nil {
			return apperror.Newf(apperror.InternalFailure, "%s amqp does not contain publish arguments", side)
		}
	case "reply":
		if a.ConsumeOptions == nil {
			return apperror.Newf(apperror.InternalFailure, "%s amqp does not contain consume options", side)
		}

		if a.ConsumeArguments == nil {
			return apperror.Newf(apperror.InternalFailure, "%s amqp does not contain consume arguments", side)
		}
	default:
		return apperror.Newf(apperror.InternalFailure, "unknown amqp side %q", side)
	}

	return nil
}

func (d DeclareOptions) String() string {
	return fmt.Sprintf("durable=%t auto_delete=%t exclusive=%t no_wait=%t", d.Durable, d.AutoDelete, d.Exclusive, d.NoWait)
}
