// Command tester is the AMQP request/reply integration test harness: it
// fetches a bearer token, loads one or more declarative suite files,
// drives each suite's tests against a broker, and exits non-zero if any
// test failed or any internal error occurred.
package main

import (
	"fmt"
	"os"

	"github.com/simple0x47/auth0-amqp-api-tester/internal/amqppool"
	"github.com/simple0x47/auth0-amqp-api-tester/internal/broker"
	"github.com/simple0x47/auth0-amqp-api-tester/internal/config"
	"github.com/simple0x47/auth0-amqp-api-tester/internal/log"
	"github.com/simple0x47/auth0-amqp-api-tester/internal/orchestrator"
	"github.com/simple0x47/auth0-amqp-api-tester/internal/suite"
	"github.com/simple0x47/auth0-amqp-api-tester/internal/suiterunner"
	"github.com/simple0x47/auth0-amqp-api-tester/internal/token"

	"github.com/joho/godotenv"
)

type suiteLoader struct{}

func (suiteLoader) Load(path string) (*suite.Suite, error) {
	return suite.Load(path)
}

func main() {
	// A .env file is optional; a developer running against a local broker
	// can use one instead of exporting shell vars.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := log.NewZap(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	// Cleanup stack, run in reverse order by the deferred function below.
	// Nothing is registered on it, and the os.Exit calls below end the
	// process without running deferred functions; broker connections are
	// released by process exit.
	var cleanups []func()

	defer func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}()

	pool, err := amqppool.New(cfg.AmqpURI, broker.DefaultDial, logger)
	if err != nil {
		logger.Errorf("failed to build connection pool: %s", err)
		os.Exit(1)
	}

	sinkCh := make(chan *suite.Result, 4096)
	runner := suiterunner.New(pool, sinkCh, cfg.PythonBin, logger)

	orch := &orchestrator.Orchestrator{
		TokenFetcher: token.NewFetcher(),
		SuiteLoader:  suiteLoader{},
		SuiteRunner:  runner,
		Sink:         sinkCh,
		Logger:       logger,
	}

	os.Exit(orch.Run(os.Args[1:]))
}
