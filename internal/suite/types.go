// Package suite holds the declarative test-suite data model: the JSON
// schema loaded from disk, the test-type/run-mode axes, and the bounded
// result collector a suite run seals into.
package suite

import (
	"encoding/json"
	"fmt"

	"github.com/simple0x47/auth0-amqp-api-tester/internal/amqpcfg"
	"github.com/simple0x47/auth0-amqp-api-tester/internal/apperror"
)

// RunMode is the scheduling axis: tests run one at a time, or fanned out.
type RunMode string

const (
	Sequential RunMode = "Sequential"
	Parallel   RunMode = "Parallel"
)

// TestType is the repetition axis: a single assertion pass, or the same
// pass repeated Times times.
type TestType struct {
	Stress *StressConfig
}

// StressConfig carries the repeat count for a Stress test type.
type StressConfig struct {
	Times uint `json:"times" validate:"required,min=1"`
}

// IsStress reports whether this TestType is a Stress variant.
func (t TestType) IsStress() bool {
	return t.Stress != nil
}

// Times returns the repeat count: 1 for Assert, StressConfig.Times for
// Stress.
func (t TestType) Times() uint {
	if t.Stress == nil {
		return 1
	}

	return t.Stress.Times
}

type testTypeWire struct {
	Assert *struct{}     `json:"Assert,omitempty"`
	Stress *StressConfig `json:"Stress,omitempty"`
}

// UnmarshalJSON decodes the tagged union {"Assert": null} | {"Stress":
// {"times": N}}.
func (t *TestType) UnmarshalJSON(data []byte) error {
	var wire testTypeWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	if wire.Stress != nil {
		t.Stress = wire.Stress
		return nil
	}

	t.Stress = nil

	return nil
}

// MarshalJSON encodes the tagged union back to its wire shape.
func (t TestType) MarshalJSON() ([]byte, error) {
	if t.Stress != nil {
		return json.Marshal(testTypeWire{Stress: t.Stress})
	}

	return []byte(`{"Assert":null}`), nil
}

// Test is one request/reply probe with an assertion.
type Test struct {
	Name         string          `json:"name" validate:"required"`
	Request      json.RawMessage `json:"request" validate:"required"`
	AssertScript string          `json:"assert_script" validate:"required"`
}

// InjectToken idempotently sets request.header.token. If header.token is
// already present, the request is left untouched.
func (t *Test) InjectToken(token string) error {
	var decoded map[string]any
	if err := json.Unmarshal(t.Request, &decoded); err != nil {
		return apperror.Wrap(apperror.InternalFailure, err, "failed to decode test request")
	}

	header, ok := decoded["header"].(map[string]any)
	if !ok {
		return apperror.Newf(apperror.InternalFailure, "test %q request does not contain a header object", t.Name)
	}

	if _, present := header["token"]; !present {
		header["token"] = token
		decoded["header"] = header

		reencoded, err := json.Marshal(decoded)
		if err != nil {
			return apperror.Wrap(apperror.InternalFailure, err, "failed to re-encode test request")
		}

		t.Request = reencoded
	}

	return nil
}

// Suite is a named set of tests with shared broker configuration and
// execution policy.
type Suite struct {
	Name                   string           `json:"name" validate:"required"`
	TestType               TestType         `json:"test_type"`
	RunMode                RunMode          `json:"run_mode" validate:"required,oneof=Sequential Parallel"`
	Tests                  []*Test          `json:"tests" validate:"required,dive"`
	RequestAmqpConfig      amqpcfg.Amqp     `json:"request_amqp_configuration"`
	ReplyAmqpConfig        amqpcfg.Amqp     `json:"reply_amqp_configuration"`
}

// TestCount returns the expected total number of test results this suite
// produces: len(tests) for Assert, len(tests) * times for Stress.
func (s *Suite) TestCount() int {
	return len(s.Tests) * int(s.TestType.Times())
}

// InjectToken injects the token into every test's header, idempotently.
func (s *Suite) InjectToken(token string) error {
	for _, t := range s.Tests {
		if err := t.InjectToken(token); err != nil {
			return err
		}
	}

	return nil
}

// Outcome is a test result's pass/fail state.
type Outcome struct {
	Failed bool
	Err    error
}

func (o Outcome) String() string {
	if !o.Failed {
		return "OK"
	}

	return fmt.Sprintf("FAIL: %s", o.Err)
}

// TestResult is produced exactly once per scheduled test execution.
type TestResult struct {
	ID      string
	Outcome Outcome
}

// OK builds a passing TestResult.
func OK(id string) TestResult {
	return TestResult{ID: id, Outcome: Outcome{Failed: false}}
}

// Failure builds a failing TestResult.
func Failure(id string, err error) TestResult {
	return TestResult{ID: id, Outcome: Outcome{Failed: true, Err: err}}
}
