package logger

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/orgoj/logfanout/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Helper to create a temporary log file path
func tempLogFilePath(t *testing.T, name string) string {
	t.Helper()
	return filepath.Join(t.TempDir(), name)
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err, "Failed to read log file %s", path)
	return string(data)
}

func TestNewFileEndpoint(t *testing.T) {
	tests := []struct {
		name        string
		cfg         config.EndpointConfig
		expectError bool
	}{
		{
			name: "Valid config",
			cfg: config.EndpointConfig{
				Name:  "test-file",
				Type:  "file",
				Path:  tempLogFilePath(t, "new_test.log"),
				Level: "debug",
			},
			expectError: false,
		},
		{
			name: "Missing path",
			cfg: config.EndpointConfig{
				Name: "test-no-path",
				Type: "file",
			},
			expectError: true,
		},
		{
			name: "Invalid level",
			cfg: config.EndpointConfig{
				Name:  "test-bad-level",
				Type:  "file",
				Path:  tempLogFilePath(t, "bad_level.log"),
				Level: "shouty",
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ep, err := NewFileEndpoint(tt.cfg)
			if tt.expectError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer ep.Close()

			assert.Equal(t, tt.cfg.Name, ep.Name())
			assert.Equal(t, LevelDebug, ep.MinimumLevel())
			assert.True(t, ep.RequiresNewline())
			assert.Equal(t, tt.cfg.Path, ep.CurrentPath())
		})
	}
}

func TestFileEndpointWrite(t *testing.T) {
	path := tempLogFilePath(t, "write.log")
	ep, err := NewFileEndpoint(config.EndpointConfig{Name: "w", Path: path})
	require.NoError(t, err)
	defer ep.Close()

	ep.Write("first\n")
	ep.Write("second\n")
	ep.Barrier()

	assert.Equal(t, "first\nsecond\n", readFile(t, path))
}

func TestFileEndpointRotateIsNoOp(t *testing.T) {
	path := tempLogFilePath(t, "noop.log")
	ep, err := NewFileEndpoint(config.EndpointConfig{Name: "n", Path: path})
	require.NoError(t, err)
	defer ep.Close()

	before := ep.CurrentPath()
	for i := 0; i < 10; i++ {
		ep.Rotate()
	}
	ep.Barrier()

	assert.Equal(t, before, ep.CurrentPath())

	// Writes spanning rotations all land in the same file.
	ep.Write("a\n")
	ep.Rotate()
	ep.Write("b\n")
	ep.Barrier()
	assert.Equal(t, "a\nb\n", readFile(t, path))
}

func TestFileEndpointAppendMode(t *testing.T) {
	path := tempLogFilePath(t, "append.log")
	require.NoError(t, os.WriteFile(path, []byte("existing\n"), 0644))

	ep, err := NewFileEndpoint(config.EndpointConfig{Name: "a", Path: path})
	require.NoError(t, err)
	defer ep.Close()

	ep.Write("new\n")
	ep.Barrier()

	assert.Equal(t, "existing\nnew\n", readFile(t, path))
}

func TestFileEndpointTruncateMode(t *testing.T) {
	path := tempLogFilePath(t, "truncate.log")
	require.NoError(t, os.WriteFile(path, []byte("existing\n"), 0644))

	ep, err := NewFileEndpoint(config.EndpointConfig{Name: "t", Path: path, Truncate: true})
	require.NoError(t, err)
	defer ep.Close()

	ep.Write("new\n")
	ep.Barrier()

	assert.Equal(t, "new\n", readFile(t, path))
}

func TestFileEndpointResetCurrentFile(t *testing.T) {
	path := tempLogFilePath(t, "reset.log")
	ep, err := NewFileEndpoint(config.EndpointConfig{Name: "r", Path: path})
	require.NoError(t, err)
	defer ep.Close()

	ep.Write("before reset\n")
	ep.ResetCurrentFile()

	assert.Equal(t, "", readFile(t, path))

	ep.Write("after reset\n")
	ep.Barrier()
	assert.Equal(t, "after reset\n", readFile(t, path))
}

func TestFileEndpointOrderingUnderConcurrentWriters(t *testing.T) {
	path := tempLogFilePath(t, "ordered.log")
	ep, err := NewFileEndpoint(config.EndpointConfig{Name: "o", Path: path})
	require.NoError(t, err)
	defer ep.Close()

	const k = 64
	const line = "identical payload\n"

	var wg sync.WaitGroup
	for i := 0; i < k; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ep.Write(line)
		}()
	}
	wg.Wait()
	ep.Barrier()

	content := readFile(t, path)
	assert.Equal(t, strings.Repeat(line, k), content,
		"barrier returned before all writes were durably applied, or writes tore")
}

func TestFileEndpointSetMinimumLevel(t *testing.T) {
	path := tempLogFilePath(t, "level.log")
	ep, err := NewFileEndpoint(config.EndpointConfig{Name: "l", Path: path})
	require.NoError(t, err)
	defer ep.Close()

	assert.Equal(t, LevelAll, ep.MinimumLevel(), "unset level defaults to all")
	ep.SetMinimumLevel(LevelError)
	assert.Equal(t, LevelError, ep.MinimumLevel())
}
