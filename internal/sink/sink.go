// Package sink is pure formatting: it turns a sealed suite.Result into the
// log lines an operator reads to see what passed and what didn't.
package sink

import (
	"github.com/simple0x47/auth0-amqp-api-tester/internal/log"
	"github.com/simple0x47/auth0-amqp-api-tester/internal/suite"
)

// Output emits one header line and one line per collected result.
func Output(logger log.Logger, result *suite.Result) {
	logger.Infof("# test suite '%s' results #", result.Name)

	for _, r := range result.Collected {
		if r.Outcome.Failed {
			logger.Infof("FAIL - test '%s' : %s", r.ID, r.Outcome.Err)
		} else {
			logger.Infof("OK   - test '%s'", r.ID)
		}
	}
}
