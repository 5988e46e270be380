package app

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/isobench/internal/hcl_adapter"
	"github.com/vk/isobench/internal/testutil"
)

// SetupAppTest creates a new app instance for system testing with debug
// logging captured in the returned buffer.
func SetupAppTest(t *testing.T, appConfig *Config) (*App, *testutil.SafeBuffer) {
	t.Helper()

	logBuffer := &testutil.SafeBuffer{}
	appConfig.LogLevel = "debug"
	testApp, err := NewApp(logBuffer, appConfig, hcl_adapter.NewLoader(appConfig.Vars))
	require.NoError(t, err)

	t.Cleanup(func() {
		if os.Getenv("ISOBENCH_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})

	return testApp, logBuffer
}
