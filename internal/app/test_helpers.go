package app

import (
	"bytes"
	"os"
	"testing"

	"github.com/specialistvlad/orgaudit/internal/config"
	"github.com/specialistvlad/orgaudit/internal/testutil"
)

// SetupAppTest creates an App over cfg for tests. It returns the App, the
// report buffer and the diagnostics/log buffer. Set ORGAUDIT_TEST_LOGS=true
// to dump the log of every test.
func SetupAppTest(t *testing.T, cfg *config.Config, opts ...Option) (*App, *bytes.Buffer, *testutil.SafeBuffer) {
	t.Helper()

	outBuffer := &bytes.Buffer{}
	logBuffer := &testutil.SafeBuffer{}
	cfg.LogLevel = "debug"
	testApp := NewApp(outBuffer, logBuffer, cfg, opts...)

	t.Cleanup(func() {
		if os.Getenv("ORGAUDIT_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})
	return testApp, outBuffer, logBuffer
}

// TestConfig returns a valid configuration reading input.
func TestConfig(input string, workers int) *config.Config {
	cfg := config.Default()
	cfg.Input = input
	cfg.Workers = workers
	return &cfg
}
