package suite_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/simple0x47/auth0-amqp-api-tester/internal/suite"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validSuiteJSON = `{
  "name": "ping",
  "test_type": {"Assert": null},
  "run_mode": "Sequential",
  "tests": [
    {"name": "t1", "request": {"header": {}}, "assert_script": "check.py"}
  ],
  "request_amqp_configuration": {"queue": {"name": "req"}},
  "reply_amqp_configuration": {"queue": {"name": "rep"}}
}`

func writeSuite(t *testing.T, content string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "suite.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoad_Success(t *testing.T) {
	t.Parallel()

	path := writeSuite(t, validSuiteJSON)

	s, err := suite.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "ping", s.Name)
	assert.Equal(t, suite.Sequential, s.RunMode)
	assert.Len(t, s.Tests, 1)
	assert.False(t, s.TestType.IsStress())
}

func TestLoad_MissingRunModeFailsValidation(t *testing.T) {
	t.Parallel()

	path := writeSuite(t, `{
		"name": "ping",
		"test_type": {"Assert": null},
		"tests": [{"name": "t1", "request": {"header": {}}, "assert_script": "check.py"}],
		"request_amqp_configuration": {"queue": {"name": "req"}},
		"reply_amqp_configuration": {"queue": {"name": "rep"}}
	}`)

	_, err := suite.Load(path)
	require.Error(t, err)
}

func TestLoad_FileNotFound(t *testing.T) {
	t.Parallel()

	_, err := suite.Load(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}
