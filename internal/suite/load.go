package suite

import (
	"encoding/json"
	"os"

	"github.com/simple0x47/auth0-amqp-api-tester/internal/apperror"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Load reads a suite file from path, parses it, and validates the
// declarative shape (non-empty name/assert_script, a recognized run_mode,
// at least a well-formed tests array). It does not validate the four
// amqp option/argument bundles — that happens at suite-execute time, see
// amqpcfg.Amqp.Validate.
func Load(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperror.Wrapf(apperror.InternalFailure, err, "failed to read suite file %q", path)
	}

	var s Suite
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, apperror.Wrapf(apperror.InternalFailure, err, "failed to parse suite file %q", path)
	}

	if err := validate.Struct(&s); err != nil {
		return nil, apperror.Wrapf(apperror.InternalFailure, err, "suite file %q failed validation", path)
	}

	return &s, nil
}
