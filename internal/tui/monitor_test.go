package tui

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTUIModel(t *testing.T) {
	config := Config{
		RefreshRate: 1000,
		CompactMode: false,
		Debug:       true,
	}

	t.Run("initial model creation", func(t *testing.T) {
		model := initialModel(config)

		assert.Equal(t, config, model.config)
		assert.True(t, model.loading)
		assert.Nil(t, model.status)
		assert.Nil(t, model.error)
	})

	t.Run("init command", func(t *testing.T) {
		model := initialModel(config)
		cmd := model.Init()

		assert.NotNil(t, cmd)
	})
}

func TestTUIUpdate(t *testing.T) {
	config := Config{RefreshRate: 1000}
	model := initialModel(config)

	t.Run("window size message", func(t *testing.T) {
		msg := tea.WindowSizeMsg{Width: 100, Height: 50}
		newModel, cmd := model.Update(msg)

		updatedModel := newModel.(Model)
		assert.Equal(t, 100, updatedModel.width)
		assert.Equal(t, 50, updatedModel.height)
		assert.Nil(t, cmd)
	})

	t.Run("quit key message", func(t *testing.T) {
		msg := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}}
		_, cmd := model.Update(msg)

		assert.NotNil(t, cmd)
		// Note: We can't easily test if it's actually a quit command without running it
	})

	t.Run("refresh key message", func(t *testing.T) {
		msg := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}}
		_, cmd := model.Update(msg)

		assert.NotNil(t, cmd)
	})

	t.Run("status message", func(t *testing.T) {
		status := &EngineStatus{
			Status:    "running",
			Timestamp: time.Now(),
		}
		msg := statusMsg(status)

		newModel, cmd := model.Update(msg)
		updatedModel := newModel.(Model)

		assert.Equal(t, status, updatedModel.status)
		assert.False(t, updatedModel.loading)
		assert.Nil(t, updatedModel.error)
		assert.Nil(t, cmd)
	})

	t.Run("error message", func(t *testing.T) {
		testError := assert.AnError
		msg := errorMsg(testError)

		newModel, cmd := model.Update(msg)
		updatedModel := newModel.(Model)

		assert.Equal(t, testError, updatedModel.error)
		assert.False(t, updatedModel.loading)
		assert.Nil(t, cmd)
	})

	t.Run("tick message", func(t *testing.T) {
		msg := tickMsg(time.Now())
		_, cmd := model.Update(msg)

		assert.NotNil(t, cmd)
	})
}

func TestTUIView(t *testing.T) {
	config := Config{RefreshRate: 1000}
	model := initialModel(config)
	model.width = 80
	model.height = 24

	t.Run("view with no data", func(t *testing.T) {
		view := model.View()

		assert.Contains(t, view, "Loading status...")
		assert.Contains(t, view, "MEV Strategy Engine Monitor")
	})

	t.Run("view with status data", func(t *testing.T) {
		model.loading = false
		model.status = &EngineStatus{
			Status:    "running",
			Uptime:    "2h30m",
			Timestamp: time.Now(),
			Strategy: &StrategyCounts{
				Submitted: 30,
				Rejected:  70,
			},
		}

		view := model.View()

		assert.Contains(t, view, "✅ running")
		assert.Contains(t, view, "Strategy Counters")
		assert.Contains(t, view, "Submitted: 30")
		assert.Contains(t, view, "Rejected:  70")
	})

	t.Run("view with error", func(t *testing.T) {
		model.loading = false
		model.error = assert.AnError
		model.status = nil

		view := model.View()

		assert.Contains(t, view, "❌ Error:")
		assert.Contains(t, view, assert.AnError.Error())
	})
}

func TestGetEngineStatus(t *testing.T) {
	// Setup test environment
	viper.Reset()
	defer viper.Reset()

	t.Run("offline engine", func(t *testing.T) {
		viper.Set("server.host", "nonexistent")
		viper.Set("server.port", 9999)

		status, err := getEngineStatus()
		require.NoError(t, err)
		assert.Equal(t, "offline", status.Status)
	})

	t.Run("running engine", func(t *testing.T) {
		// Create mock server
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			status := EngineStatus{
				Status:    "running",
				Uptime:    "1h",
				Timestamp: time.Now(),
				Strategy: &StrategyCounts{
					Submitted: 15,
					Rejected:  35,
				},
			}

			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(status)
		}))
		defer server.Close()

		// Configure viper to use test server
		viper.Set("server.host", "127.0.0.1")
		viper.Set("server.port", extractPort(server.URL))

		status, err := getEngineStatus()
		require.NoError(t, err)
		assert.Equal(t, "running", status.Status)
		require.NotNil(t, status.Strategy)
		assert.Equal(t, int64(15), status.Strategy.Submitted)
	})

	t.Run("server error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		viper.Set("server.host", "127.0.0.1")
		viper.Set("server.port", extractPort(server.URL))

		status, err := getEngineStatus()
		require.NoError(t, err)
		assert.Equal(t, "error", status.Status)
	})

	t.Run("invalid JSON response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("invalid json"))
		}))
		defer server.Close()

		viper.Set("server.host", "127.0.0.1")
		viper.Set("server.port", extractPort(server.URL))

		_, err := getEngineStatus()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to decode")
	})
}

func TestTUICommands(t *testing.T) {
	t.Run("tick command", func(t *testing.T) {
		cmd := tickCmd(1000)
		assert.NotNil(t, cmd)
	})

	t.Run("fetch status command", func(t *testing.T) {
		viper.Reset()
		viper.Set("server.host", "nonexistent")
		viper.Set("server.port", 9999)

		cmd := fetchStatus()
		assert.NotNil(t, cmd)

		// Execute the command
		msg := cmd()

		// Should return either statusMsg or errorMsg
		switch msg.(type) {
		case statusMsg:
			// Expected for offline status
		case errorMsg:
			// Also acceptable
		default:
			t.Errorf("Unexpected message type: %T", msg)
		}
	})
}

func TestConfigValidation(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		config := Config{
			RefreshRate: 1000,
			CompactMode: false,
			Debug:       true,
		}

		// Config should be usable
		model := initialModel(config)
		assert.Equal(t, config.RefreshRate, model.config.RefreshRate)
		assert.Equal(t, config.CompactMode, model.config.CompactMode)
		assert.Equal(t, config.Debug, model.config.Debug)
	})

	t.Run("edge case refresh rates", func(t *testing.T) {
		// Very fast refresh
		config := Config{RefreshRate: 100}
		model := initialModel(config)
		assert.Equal(t, 100, model.config.RefreshRate)

		// Very slow refresh
		config = Config{RefreshRate: 10000}
		model = initialModel(config)
		assert.Equal(t, 10000, model.config.RefreshRate)
	})
}

// Helper function to extract port from server URL
func extractPort(serverURL string) int {
	// Simple port extraction - in a real implementation you'd want more robust parsing
	if len(serverURL) > 17 { // "http://127.0.0.1:" is 17 chars
		if port, err := strconv.Atoi(serverURL[17:]); err == nil {
			return port
		}
	}
	return 8080
}

func BenchmarkTUIUpdate(b *testing.B) {
	config := Config{RefreshRate: 1000}
	model := initialModel(config)
	model.width = 80
	model.height = 24

	msg := tea.WindowSizeMsg{Width: 100, Height: 50}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		model.Update(msg)
	}
}

func BenchmarkTUIView(b *testing.B) {
	config := Config{RefreshRate: 1000}
	model := initialModel(config)
	model.width = 80
	model.height = 24
	model.loading = false
	model.status = &EngineStatus{
		Status: "running",
		Strategy: &StrategyCounts{
			Submitted: 100,
		},
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		model.View()
	}
}
