package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCLICommands(t *testing.T) {
	setupTestEnvironment(t)
	defer cleanupTestEnvironment(t)

	tests := []struct {
		name           string
		args           []string
		expectedOutput string
		expectedError  bool
	}{
		{
			name:           "help command",
			args:           []string{"--help"},
			expectedOutput: "Check MEV engine status",
			expectedError:  false,
		},
		{
			name:           "start help",
			args:           []string{"start", "--help"},
			expectedOutput: "Start the MEV engine",
			expectedError:  false,
		},
		{
			name:           "stop help",
			args:           []string{"stop", "--help"},
			expectedOutput: "Stop a running MEV engine",
			expectedError:  false,
		},
		{
			name:           "status help",
			args:           []string{"status", "--help"},
			expectedOutput: "Check the current status",
			expectedError:  false,
		},
		{
			name:           "monitor help",
			args:           []string{"monitor", "--help"},
			expectedOutput: "terminal-based monitoring",
			expectedError:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := executeCommand(tt.args...)

			if tt.expectedError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Contains(t, output, tt.expectedOutput)
			}
		})
	}
}

func TestStatusCommand(t *testing.T) {
	setupTestEnvironment(t)
	defer cleanupTestEnvironment(t)

	t.Run("offline status", func(t *testing.T) {
		output, err := executeCommand("status")
		assert.NoError(t, err)
		assert.Contains(t, output, "offline")
	})

	t.Run("online status", func(t *testing.T) {
		server := createMockAPIServer(t)
		defer server.Close()

		setupTestServerConfig(server.URL)

		output, err := executeCommand("status")
		assert.NoError(t, err)
		assert.Contains(t, output, "running")
		assert.Contains(t, output, "Strategy Counters")
	})

	t.Run("json output", func(t *testing.T) {
		server := createMockAPIServer(t)
		defer server.Close()

		setupTestServerConfig(server.URL)

		output, err := executeCommand("status", "--json")
		assert.NoError(t, err)
		assert.Contains(t, output, `"status": "running"`)
	})
}

func TestStopCommand(t *testing.T) {
	setupTestEnvironment(t)
	defer cleanupTestEnvironment(t)

	t.Run("stop non-existent process", func(t *testing.T) {
		pidFile := filepath.Join(t.TempDir(), "test-mev-engine.pid")
		err := os.WriteFile(pidFile, []byte("99999"), 0644)
		require.NoError(t, err)

		output, err := executeCommand("stop", "--pid-file", pidFile)
		assert.Error(t, err)
		assert.Contains(t, output, "failed to signal process")
	})

	t.Run("stop with invalid PID file", func(t *testing.T) {
		pidFile := filepath.Join(t.TempDir(), "invalid-pid.pid")
		err := os.WriteFile(pidFile, []byte("invalid"), 0644)
		require.NoError(t, err)

		output, err := executeCommand("stop", "--pid-file", pidFile)
		assert.Error(t, err)
		assert.Contains(t, output, "invalid PID")
	})
}

func TestConfigurationFlags(t *testing.T) {
	setupTestEnvironment(t)
	defer cleanupTestEnvironment(t)

	configDir := t.TempDir()
	configFile := filepath.Join(configDir, "test-config.yaml")
	configContent := `
server:
  host: "test-host"
  port: 9999
debug: true
`
	err := os.WriteFile(configFile, []byte(configContent), 0644)
	require.NoError(t, err)

	t.Run("custom config file", func(t *testing.T) {
		output, err := executeCommand("--config", configFile, "status")
		assert.NoError(t, err)
		assert.NotEmpty(t, output)
	})

	t.Run("debug flag", func(t *testing.T) {
		output, err := executeCommand("--debug", "status")
		assert.NoError(t, err)
		assert.NotEmpty(t, output)
	})
}

func TestStartCommandValidation(t *testing.T) {
	setupTestEnvironment(t)
	defer cleanupTestEnvironment(t)

	t.Run("start with custom flags", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()

		output, err := executeCommandWithContext(ctx, "start", "--bind", "127.0.0.1", "--port", "8888")
		if err != nil {
			assert.Contains(t, err.Error(), "context")
		}
		assert.NotEmpty(t, output)
	})
}

// Helper functions

func setupTestEnvironment(t *testing.T) {
	viper.Reset()
	viper.Set("server.host", "localhost")
	viper.Set("server.port", 8080)
	viper.Set("debug", false)
}

func cleanupTestEnvironment(t *testing.T) {
	viper.Reset()
}

func executeCommand(args ...string) (string, error) {
	return executeCommandWithContext(context.Background(), args...)
}

func executeCommandWithContext(ctx context.Context, args ...string) (string, error) {
	buf := new(bytes.Buffer)

	testRootCmd := &cobra.Command{
		Use: "mev-engine",
	}

	testRootCmd.AddCommand(startCmd)
	testRootCmd.AddCommand(stopCmd)
	testRootCmd.AddCommand(statusCmd)
	testRootCmd.AddCommand(monitorCmd)

	testRootCmd.SetOut(buf)
	testRootCmd.SetErr(buf)
	testRootCmd.SetArgs(args)

	if ctx != context.Background() {
		testRootCmd.SetContext(ctx)
	}

	err := testRootCmd.Execute()
	return buf.String(), err
}

func createMockAPIServer(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/status", func(w http.ResponseWriter, r *http.Request) {
		status := map[string]interface{}{
			"status":    "running",
			"uptime":    "2h30m",
			"timestamp": time.Now(),
			"strategy": map[string]interface{}{
				"Submitted": 12,
				"Rejected":  48,
			},
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)

		if err := json.NewEncoder(w).Encode(status); err != nil {
			t.Errorf("Failed to encode status: %v", err)
		}
	})

	return httptest.NewServer(mux)
}

func setupTestServerConfig(serverURL string) {
	parts := strings.Split(strings.TrimPrefix(serverURL, "http://"), ":")
	if len(parts) == 2 {
		viper.Set("server.host", parts[0])
		if port := parts[1]; port != "" {
			viper.Set("server.port", port)
		}
	}
}

func BenchmarkStatusCommand(b *testing.B) {
	setupTestEnvironment(&testing.T{})
	server := createMockAPIServer(&testing.T{})
	defer server.Close()
	setupTestServerConfig(server.URL)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, err := executeCommand("status")
		if err != nil {
			b.Fatalf("Status command failed: %v", err)
		}
	}
}
