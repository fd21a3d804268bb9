// Package orchestrator is the entry flow: fetch a token, load suites,
// spawn one suite-runner task per suite, drain the results, pick an exit
// code. The connection pool is built by the caller (cmd/tester) and
// reaches the orchestrator only through its SuiteRunner.
package orchestrator

import (
	"strings"

	"github.com/simple0x47/auth0-amqp-api-tester/internal/apperror"
	"github.com/simple0x47/auth0-amqp-api-tester/internal/log"
	"github.com/simple0x47/auth0-amqp-api-tester/internal/sink"
	"github.com/simple0x47/auth0-amqp-api-tester/internal/suite"
)

// TokenFetcher fetches the bearer token injected into every test.
type TokenFetcher interface {
	FetchToken(uri, body string) (string, error)
}

// SuiteLoader reads and parses one suite file.
type SuiteLoader interface {
	Load(path string) (*suite.Suite, error)
}

// SuiteRunner executes one suite to completion.
type SuiteRunner interface {
	Execute(s *suite.Suite) error
}

// Orchestrator wires the three collaborators above into the CLI's
// argument contract. Sink is the bounded result channel the SuiteRunner
// was constructed with — the orchestrator only ever reads from it, the
// suite runner is the sole writer, so the two must share the same
// channel.
type Orchestrator struct {
	TokenFetcher TokenFetcher
	SuiteLoader  SuiteLoader
	SuiteRunner  SuiteRunner
	Sink         <-chan *suite.Result
	Logger       log.Logger
}

// Args is the parsed form of the tester's three positional CLI arguments.
type Args struct {
	TokenURI   string
	TokenBody  string
	SuitePaths []string
}

// ParseArgs validates the CLI's arity-3 contract and splits the
// colon-separated suite path list.
func ParseArgs(argv []string) (*Args, error) {
	if len(argv) != 3 {
		return nil, apperror.Newf(apperror.InternalFailure, "expected 3 arguments (token_uri token_body suite_files), got %d", len(argv))
	}

	return &Args{
		TokenURI:   argv[0],
		TokenBody:  argv[1],
		SuitePaths: strings.Split(argv[2], ":"),
	}, nil
}

// Run executes the full orchestration flow and returns the process exit
// code: 0 iff every collected test result is OK, 1 otherwise or on any
// internal failure.
func (o *Orchestrator) Run(argv []string) int {
	logger := o.Logger
	if logger == nil {
		logger = log.NoneLogger{}
	}

	for i, a := range argv {
		logger.Infof("arg[%d] = %s", i, a)
	}

	args, err := ParseArgs(argv)
	if err != nil {
		logger.Errorf("invalid arguments: %s", err)
		return 1
	}

	token, err := o.TokenFetcher.FetchToken(args.TokenURI, args.TokenBody)
	if err != nil {
		logger.Errorf("failed to fetch token: %s", err)
		return 1
	}

	suites := make([]*suite.Suite, 0, len(args.SuitePaths))

	for _, path := range args.SuitePaths {
		s, err := o.SuiteLoader.Load(path)
		if err != nil {
			logger.Errorf("failed to load suite %q: %s", path, err)
			return 1
		}

		if err := s.InjectToken(token); err != nil {
			logger.Errorf("failed to inject token into suite %q: %s", path, err)
			return 1
		}

		suites = append(suites, s)
	}

	fatalCh := make(chan error, len(suites))

	for _, s := range suites {
		go func(s *suite.Suite) {
			if err := o.SuiteRunner.Execute(s); err != nil {
				logger.Errorf("suite %q failed: %s", s.Name, err)
				fatalCh <- err
			}
		}(s)
	}

	exitCode := 0

	for range suites {
		select {
		case err := <-fatalCh:
			// A suite-runner task reporting any error terminates the
			// whole run immediately; partial results from suites still in
			// flight are discarded.
			_ = err
			return 1
		case result := <-o.Sink:
			sink.Output(logger, result)

			if result.HasAnyFailed() {
				exitCode = 1
			}
		}
	}

	return exitCode
}
