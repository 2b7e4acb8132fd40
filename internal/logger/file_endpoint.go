package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/orgoj/logfanout/internal/config"
)

// FileEndpoint appends to a single fixed file. Rotate is a no-op: the
// destination path never changes for the lifetime of the endpoint.
type FileEndpoint struct {
	endpointBase
	queue *serialQueue
	path  string
	file  *os.File // owned by queue tasks after construction
}

// NewFileEndpoint creates a plain file endpoint. The file is created if
// missing and appended to unless cfg.Truncate asks for a fresh start.
func NewFileEndpoint(cfg config.EndpointConfig) (*FileEndpoint, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("file endpoint requires a path")
	}
	level, err := levelFromConfig(cfg.Level)
	if err != nil {
		return nil, err
	}

	file, err := openLogFile(cfg.Path, cfg.Truncate)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", cfg.Path, err)
	}

	return &FileEndpoint{
		endpointBase: newEndpointBase(cfg.Name, level, nil, nil, true),
		queue:        newSerialQueue(),
		path:         cfg.Path,
		file:         file,
	}, nil
}

// CurrentPath returns the destination path, which is invariant under any
// number of Rotate calls.
func (e *FileEndpoint) CurrentPath() string {
	return e.path
}

// Write appends the formatted record on the endpoint's writer.
func (e *FileEndpoint) Write(s string) {
	ok := e.queue.submit(func() {
		appendToFile(e.file, s, e.name, e.diag)
	})
	if !ok {
		e.diag.Warn("endpoint '%s': write after close dropped", e.name)
	}
}

// Rotate is a no-op for the plain file endpoint.
func (e *FileEndpoint) Rotate() {}

// Barrier blocks until all previously submitted writes have completed.
func (e *FileEndpoint) Barrier() {
	e.queue.barrier()
}

// ResetCurrentFile truncates the destination by closing and reopening
// it. Teardown helper for tests, not part of steady-state operation.
func (e *FileEndpoint) ResetCurrentFile() {
	e.queue.submit(func() {
		if e.file != nil {
			_ = e.file.Close()
		}
		file, err := openLogFile(e.path, true)
		if err != nil {
			e.diag.Error("endpoint '%s': failed to reset log file %s: %v", e.name, e.path, err)
			e.file = nil
			return
		}
		e.file = file
	})
	e.queue.barrier()
}

// Close drains pending writes and releases the file handle.
func (e *FileEndpoint) Close() error {
	e.queue.close()
	if e.file != nil {
		return e.file.Close()
	}
	return nil
}

var _ Endpoint = (*FileEndpoint)(nil)

// openLogFile opens path for appending, creating it if needed; truncate
// starts the file over instead.
func openLogFile(path string, truncate bool) (*os.File, error) {
	flags := os.O_CREATE | os.O_WRONLY
	if truncate {
		flags |= os.O_TRUNC
	} else {
		flags |= os.O_APPEND
	}
	return os.OpenFile(path, flags, 0644)
}

// appendToFile performs one durable append inside a queue task. A nil
// handle means the endpoint is degraded; the write is dropped and
// diagnosed, never surfaced to the logging call site.
func appendToFile(file *os.File, s, name string, diag *AppLogger) {
	if file == nil {
		diag.Warn("endpoint '%s': destination unavailable, dropping write", name)
		return
	}
	if _, err := file.WriteString(s); err != nil {
		diag.Error("endpoint '%s': log write error: %v", name, err)
	}
}

// suffixedPath inserts ".tag" between the filename and its extension:
// app.log + "3" -> app.3.log. A path without extension just gains the
// suffix.
func suffixedPath(base, tag string) string {
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext) + "." + tag + ext
}

// levelFromConfig parses an optional minimum level name; empty means
// accept everything.
func levelFromConfig(name string) (Level, error) {
	if name == "" {
		return LevelAll, nil
	}
	return ParseLevel(name)
}
