package assertscript_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/simple0x47/auth0-amqp-api-tester/internal/apperror"
	"github.com/simple0x47/auth0-amqp-api-tester/internal/assertscript"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const checkScript = `#!/bin/sh
case "$1" in
  *OK*) exit 0 ;;
  *) exit 7 ;;
esac
`

// withScript sets up ./integration_tests/<suite>/<script> under a
// temporary working directory and registers a t.Cleanup that restores the
// original one.
func withScript(t *testing.T, suiteName, script string) {
	t.Helper()

	dir := t.TempDir()
	scriptDir := filepath.Join(dir, "integration_tests", suiteName)
	require.NoError(t, os.MkdirAll(scriptDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(scriptDir, script), []byte(checkScript), 0o755))

	original, err := os.Getwd()
	require.NoError(t, err)

	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(original) })
}

func TestNew_FailsWithoutInterpreter(t *testing.T) {
	t.Parallel()

	_, err := assertscript.New("", "suite")
	require.Error(t, err)
}

func TestRunScript_Pass(t *testing.T) {
	withScript(t, "ping", "check.sh")

	r, err := assertscript.New("/bin/sh", "ping")
	require.NoError(t, err)

	assert.NoError(t, r.RunScript("check.sh", []byte("status OK")))
}

func TestRunScript_NonZeroExitIsTestAssertFailure(t *testing.T) {
	withScript(t, "ping", "check.sh")

	r, err := assertscript.New("/bin/sh", "ping")
	require.NoError(t, err)

	err = r.RunScript("check.sh", []byte("status FAIL"))
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.TestAssertFailure))
}

func TestRunScript_NonUTF8BodyIsInternalFailure(t *testing.T) {
	withScript(t, "ping", "check.sh")

	r, err := assertscript.New("/bin/sh", "ping")
	require.NoError(t, err)

	err = r.RunScript("check.sh", []byte{0xff, 0xfe, 0xfd})
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.InternalFailure))
}

func TestRunScript_MissingInterpreterIsInternalFailure(t *testing.T) {
	withScript(t, "ping", "check.sh")

	r, err := assertscript.New("/no/such/interpreter", "ping")
	require.NoError(t, err)

	err = r.RunScript("check.sh", []byte("status OK"))
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.InternalFailure))
}
