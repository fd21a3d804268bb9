// Package suiterunner owns the state machine over (test_type × run_mode):
// it declares a suite's queues, fans its tests out according to the
// chosen scheduling path, and seals a suite.Result once every expected
// test result has arrived.
package suiterunner

import (
	"sync"

	"github.com/simple0x47/auth0-amqp-api-tester/internal/amqpcfg"
	"github.com/simple0x47/auth0-amqp-api-tester/internal/amqppool"
	"github.com/simple0x47/auth0-amqp-api-tester/internal/apperror"
	"github.com/simple0x47/auth0-amqp-api-tester/internal/assertscript"
	"github.com/simple0x47/auth0-amqp-api-tester/internal/broker"
	"github.com/simple0x47/auth0-amqp-api-tester/internal/log"
	"github.com/simple0x47/auth0-amqp-api-tester/internal/runinstance"
	"github.com/simple0x47/auth0-amqp-api-tester/internal/suite"

	amqp "github.com/rabbitmq/amqp091-go"
)

// resultChanCapacity is the bound on a suite's own result channel. The
// predecessor's suite runner allocates 4096 here even though its
// concurrency notes elsewhere mention 1024 as a rule of thumb; 4096 is
// what the constructor actually used, so that is what this port keeps.
const resultChanCapacity = 4096

// Runner executes one suite at a time. It is not suite-specific: the same
// Runner can run many suites sequentially or concurrently (the
// orchestrator spawns one goroutine per suite, each calling Execute on a
// shared Runner).
type Runner struct {
	pool      *amqppool.Pool
	sink      chan<- *suite.Result
	pythonBin string
	logger    log.Logger
}

// New builds a suite Runner bound to a connection pool, the orchestrator's
// sink channel, and the interpreter path assertion scripts run under.
func New(pool *amqppool.Pool, sink chan<- *suite.Result, pythonBin string, logger log.Logger) *Runner {
	if logger == nil {
		logger = log.NoneLogger{}
	}

	return &Runner{pool: pool, sink: sink, pythonBin: pythonBin, logger: logger}
}

// Execute runs s to completion: declares its queues, fans its tests out
// per the (test_type, run_mode) state machine, collects results, and
// forwards the sealed suite.Result to the sink (a blocking send). It
// returns an error for any suite-level failure: InternalFailure for missing
// amqp option bundles, queue declare, or assertion runner construction, and
// the pool's own error (ApiConnectionFailure or InternalFailure) when no
// setup channel can be acquired. Per-test failures never surface here, they
// flow through the result pipeline instead.
func (r *Runner) Execute(s *suite.Suite) error {
	if err := s.RequestAmqpConfig.Validate("request"); err != nil {
		return err
	}

	if err := s.ReplyAmqpConfig.Validate("reply"); err != nil {
		return err
	}

	setupChannel, err := r.pool.GetChannel()
	if err != nil {
		return err
	}

	requestQueue, err := declareQueue(setupChannel, &s.RequestAmqpConfig.Queue)
	if err != nil {
		return apperror.Wrapf(apperror.InternalFailure, err, "failed to declare request queue for suite %q", s.Name)
	}

	replyQueue, err := declareQueue(setupChannel, &s.ReplyAmqpConfig.Queue)
	if err != nil {
		return apperror.Wrapf(apperror.InternalFailure, err, "failed to declare reply queue for suite %q", s.Name)
	}

	assertRunner, err := assertscript.New(r.pythonBin, s.Name)
	if err != nil {
		return err
	}

	results := make(chan suite.TestResult, resultChanCapacity)
	result := suite.NewResult(s.Name, s.TestCount())

	state := &execState{
		runner:       r,
		suite:        s,
		setupChannel: setupChannel,
		requestQueue: requestQueue.Name,
		replyQueue:   replyQueue.Name,
		results:      results,
		assertRunner: assertRunner,
	}

	times := int(s.TestType.Times())
	stressMode := s.TestType.IsStress()

	switch {
	case !stressMode && s.RunMode == suite.Sequential:
		state.runSequentialPass()
	case !stressMode && s.RunMode == suite.Parallel:
		state.runParallelPass(nil)
	case stressMode && s.RunMode == suite.Sequential:
		for pass := 1; pass <= times; pass++ {
			state.runSequentialPass()
			r.logger.Infof("run finished successfully #%d", pass)
		}
	case stressMode && s.RunMode == suite.Parallel:
		var wg sync.WaitGroup

		for pass := 1; pass <= times; pass++ {
			p := pass
			state.runParallelPass(&wg)
			r.logger.Infof("run finished successfully #%d", p)
		}

		wg.Wait()
	}

	result.CollectResults(results)

	if _, err := setupChannel.QueueDelete(replyQueue.Name, false, false, false); err != nil {
		r.logger.Warnf("failed to delete reply queue %q for suite %q: %s", replyQueue.Name, s.Name, err)
	}

	r.sink <- result

	return nil
}

func declareQueue(channel broker.Channel, q *amqpcfg.Queue) (amqp.Queue, error) {
	return channel.QueueDeclare(
		q.Name,
		q.DeclareOptions.Durable,
		q.DeclareOptions.AutoDelete,
		q.DeclareOptions.Exclusive,
		q.DeclareOptions.NoWait,
		q.DeclareArguments,
	)
}

// execState carries the per-suite context a scheduling pass needs. The
// predecessor threads this as a self-by-move through send_request/
// get_reply to keep single ownership of a channel across suspension
// points; Go's shared references make that unnecessary; a plain struct
// plus method receivers preserves the same one-shot-per-instance
// semantics.
type execState struct {
	runner       *Runner
	suite        *suite.Suite
	setupChannel broker.Channel
	requestQueue string
	replyQueue   string
	results      chan suite.TestResult
	assertRunner *assertscript.Runner
}

// runSequentialPass runs every test in file order on the shared setup
// channel, one at a time: request N+1 is not published until test N's
// result has been emitted.
func (s *execState) runSequentialPass() {
	for _, t := range s.suite.Tests {
		inst := runinstance.New(
			t,
			s.setupChannel,
			s.requestQueue,
			s.replyQueue,
			&s.suite.RequestAmqpConfig,
			&s.suite.ReplyAmqpConfig,
			s.results,
			s.assertRunner,
			s.runner.logger,
		)

		if err := inst.Run(); err != nil {
			s.runner.logger.Errorf("run failed for test %q: %s", t.Name, err)
		}
	}
}

// runParallelPass fans every test out as an independent goroutine, each on
// its own pool-acquired channel (channels are not safely shareable across
// concurrent consumers). When wg is non-nil (stress mode), the goroutines
// are tracked so the caller can await the union of all passes before
// sealing; when wg is nil, they are detached, matching a single Assert
// parallel pass.
func (s *execState) runParallelPass(wg *sync.WaitGroup) {
	for _, t := range s.suite.Tests {
		if wg != nil {
			wg.Add(1)
		}

		go func(t *suite.Test) {
			if wg != nil {
				defer wg.Done()
			}

			channel, err := s.runner.pool.GetChannel()
			if err != nil {
				s.runner.logger.Errorf("run failed for test %q: %s", t.Name, err)
				return
			}

			inst := runinstance.New(
				t,
				channel,
				s.requestQueue,
				s.replyQueue,
				&s.suite.RequestAmqpConfig,
				&s.suite.ReplyAmqpConfig,
				s.results,
				s.assertRunner,
				s.runner.logger,
			)

			if err := inst.Run(); err != nil {
				s.runner.logger.Errorf("run failed for test %q: %s", t.Name, err)
			}
		}(t)
	}
}
