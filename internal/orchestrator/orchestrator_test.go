package orchestrator_test

import (
	"testing"
	"time"

	"github.com/simple0x47/auth0-amqp-api-tester/internal/apperror"
	"github.com/simple0x47/auth0-amqp-api-tester/internal/orchestrator"
	"github.com/simple0x47/auth0-amqp-api-tester/internal/suite"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArgs_RequiresExactlyThreeArguments(t *testing.T) {
	t.Parallel()

	_, err := orchestrator.ParseArgs([]string{"uri", "body"})
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.InternalFailure))
}

func TestParseArgs_SplitsSuitePathsOnColon(t *testing.T) {
	t.Parallel()

	args, err := orchestrator.ParseArgs([]string{"uri", "body", "a.json:b.json:c.json"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.json", "b.json", "c.json"}, args.SuitePaths)
}

type stubTokenFetcher struct {
	token string
	err   error
}

func (s stubTokenFetcher) FetchToken(uri, body string) (string, error) {
	return s.token, s.err
}

type stubSuiteLoader struct {
	suites map[string]*suite.Suite
	err    error
}

func (s stubSuiteLoader) Load(path string) (*suite.Suite, error) {
	if s.err != nil {
		return nil, s.err
	}

	return s.suites[path], nil
}

type stubSuiteRunner struct {
	sink    chan<- *suite.Result
	failing map[string]error
	delay   time.Duration
}

func (s stubSuiteRunner) Execute(sv *suite.Suite) error {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}

	if err, ok := s.failing[sv.Name]; ok {
		return err
	}

	s.sink <- suite.NewResult(sv.Name, 0)

	return nil
}

func newSuite(name string) *suite.Suite {
	return &suite.Suite{Name: name, Tests: []*suite.Test{}}
}

func TestRun_HappyPath_ReturnsZero(t *testing.T) {
	sink := make(chan *suite.Result, 2)

	orch := &orchestrator.Orchestrator{
		TokenFetcher: stubTokenFetcher{token: "tok"},
		SuiteLoader: stubSuiteLoader{suites: map[string]*suite.Suite{
			"a.json": newSuite("a"),
			"b.json": newSuite("b"),
		}},
		SuiteRunner: stubSuiteRunner{sink: sink, failing: map[string]error{}},
		Sink:        sink,
	}

	code := orch.Run([]string{"uri", "body", "a.json:b.json"})
	assert.Equal(t, 0, code)
}

func TestRun_FailedTestResult_ReturnsOne(t *testing.T) {
	sink := make(chan *suite.Result, 1)

	s := newSuite("a")
	s.Tests = []*suite.Test{{Name: "t1"}}

	orch := &orchestrator.Orchestrator{
		TokenFetcher: stubTokenFetcher{token: "tok"},
		SuiteLoader:  stubSuiteLoader{suites: map[string]*suite.Suite{"a.json": s}},
		SuiteRunner: fakeRunnerWithResult{
			sink: sink,
			result: func() *suite.Result {
				r := suite.NewResult("a", 1)
				r.Collected = []suite.TestResult{suite.Failure("t1", apperror.New(apperror.TestAssertFailure, "nope"))}
				return r
			}(),
		},
		Sink: sink,
	}

	code := orch.Run([]string{"uri", "body", "a.json"})
	assert.Equal(t, 1, code)
}

type fakeRunnerWithResult struct {
	sink   chan<- *suite.Result
	result *suite.Result
}

func (f fakeRunnerWithResult) Execute(s *suite.Suite) error {
	f.sink <- f.result
	return nil
}

func TestRun_SuiteRunnerInternalFailure_TerminatesWithOne(t *testing.T) {
	sink := make(chan *suite.Result, 1)

	orch := &orchestrator.Orchestrator{
		TokenFetcher: stubTokenFetcher{token: "tok"},
		SuiteLoader:  stubSuiteLoader{suites: map[string]*suite.Suite{"a.json": newSuite("a")}},
		SuiteRunner: stubSuiteRunner{
			sink:    sink,
			failing: map[string]error{"a": apperror.New(apperror.InternalFailure, "boom")},
		},
		Sink: sink,
	}

	code := orch.Run([]string{"uri", "body", "a.json"})
	assert.Equal(t, 1, code)
}

type countingSuiteLoader struct {
	calls int
}

func (c *countingSuiteLoader) Load(path string) (*suite.Suite, error) {
	c.calls++
	return nil, apperror.New(apperror.InternalFailure, "should not be called")
}

func TestRun_TokenFetchFailure_ReturnsOneWithoutLoadingSuites(t *testing.T) {
	loader := &countingSuiteLoader{}

	orch := &orchestrator.Orchestrator{
		TokenFetcher: stubTokenFetcher{err: apperror.New(apperror.ApiConnectionFailure, "no token")},
		SuiteLoader:  loader,
		SuiteRunner:  stubSuiteRunner{},
		Sink:         make(chan *suite.Result),
	}

	code := orch.Run([]string{"uri", "body", "a.json"})
	assert.Equal(t, 1, code)
	assert.Equal(t, 0, loader.calls)
}

func TestRun_InvalidArguments_ReturnsOne(t *testing.T) {
	orch := &orchestrator.Orchestrator{
		TokenFetcher: stubTokenFetcher{token: "tok"},
		SuiteLoader:  stubSuiteLoader{},
		SuiteRunner:  stubSuiteRunner{},
		Sink:         make(chan *suite.Result),
	}

	code := orch.Run([]string{"only one arg"})
	assert.Equal(t, 1, code)
}
