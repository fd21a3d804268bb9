package sink_test

import (
	"errors"
	"testing"

	"github.com/simple0x47/auth0-amqp-api-tester/internal/log"
	"github.com/simple0x47/auth0-amqp-api-tester/internal/sink"
	"github.com/simple0x47/auth0-amqp-api-tester/internal/suite"

	"github.com/stretchr/testify/assert"
)

type recordingLogger struct {
	log.NoneLogger
	lines []string
}

func (r *recordingLogger) Infof(format string, args ...any) {
	r.lines = append(r.lines, format)
	_ = args
}

func TestOutput_EmitsHeaderAndOnePerResult(t *testing.T) {
	logger := &recordingLogger{}

	result := suite.NewResult("my-suite", 2)
	result.Collected = []suite.TestResult{
		suite.OK("t1"),
		suite.Failure("t2", errors.New("boom")),
	}

	sink.Output(logger, result)

	assert.Len(t, logger.lines, 3)
	assert.Contains(t, logger.lines[0], "test suite")
	assert.Contains(t, logger.lines[1], "OK")
	assert.Contains(t, logger.lines[2], "FAIL")
}
