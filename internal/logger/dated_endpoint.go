package logger

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/orgoj/logfanout/internal/config"
	"github.com/orgoj/logfanout/internal/filemeta"
)

// dateKeyLayout is the UTC calendar date that keys a dated file.
const dateKeyLayout = "2006-01-02"

// DatedFileEndpoint keys its destination file by UTC calendar date:
// app.log becomes app.2024-05-01.log. Every write re-derives today's
// date key and implicitly rotates to a new file when it changed, within
// the same writer task as the append, so no write ever lands in a file
// for the wrong day. Manual Rotate calls are a no-op; the date boundary
// is the only sanctioned rotation trigger.
//
// Nothing needs crash recovery here: after a restart the endpoint simply
// opens (or resumes) the file for the current date. Each date file gets
// a provenance sidecar tag so external tooling can tell which endpoint
// type produced it.
type DatedFileEndpoint struct {
	endpointBase
	queue    *serialQueue
	basePath string

	// now is the wall clock; swapped in tests to simulate date changes.
	now func() time.Time

	// mu guards dateKey and path for readers outside the queue.
	mu         sync.Mutex
	dateKey    string
	path       string
	file       *os.File
	metaBroken bool
}

// NewDatedFileEndpoint creates a dated endpoint and opens the file for
// the current UTC date.
func NewDatedFileEndpoint(cfg config.EndpointConfig) (*DatedFileEndpoint, error) {
	return newDatedFileEndpoint(cfg, time.Now)
}

func newDatedFileEndpoint(cfg config.EndpointConfig, now func() time.Time) (*DatedFileEndpoint, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("dated file endpoint requires a path")
	}
	level, err := levelFromConfig(cfg.Level)
	if err != nil {
		return nil, err
	}

	e := &DatedFileEndpoint{
		endpointBase: newEndpointBase(cfg.Name, level, nil, nil, true),
		queue:        newSerialQueue(),
		basePath:     cfg.Path,
		now:          now,
	}

	e.dateKey = dateKeyFor(now())
	e.path = e.pathForDate(e.dateKey)

	file, err := openLogFile(e.path, cfg.Truncate)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", e.path, err)
	}
	e.file = file

	e.tagCurrentFile()
	return e, nil
}

// dateKeyFor derives the calendar date key from wall-clock time.
func dateKeyFor(t time.Time) string {
	return t.UTC().Format(dateKeyLayout)
}

// pathForDate maps a date key to its file path.
func (e *DatedFileEndpoint) pathForDate(key string) string {
	return suffixedPath(e.basePath, key)
}

// CurrentPath returns the path of the file for the most recent write's
// date.
func (e *DatedFileEndpoint) CurrentPath() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.path
}

// CurrentDateKey returns the date key of the currently open file.
func (e *DatedFileEndpoint) CurrentDateKey() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dateKey
}

// Write appends the formatted record to the file for today's date,
// rotating first if the date changed since the last write.
func (e *DatedFileEndpoint) Write(s string) {
	ok := e.queue.submit(func() {
		e.rollIfDateChanged()
		appendToFile(e.file, s, e.name, e.diag)
	})
	if !ok {
		e.diag.Warn("endpoint '%s': write after close dropped", e.name)
	}
}

// Rotate is a no-op: only a date change rotates a dated endpoint.
func (e *DatedFileEndpoint) Rotate() {}

// Barrier blocks until all previously submitted writes have completed.
func (e *DatedFileEndpoint) Barrier() {
	e.queue.barrier()
}

// Close drains pending writes and releases the file handle.
func (e *DatedFileEndpoint) Close() error {
	e.queue.close()
	if e.file != nil {
		return e.file.Close()
	}
	return nil
}

var _ Endpoint = (*DatedFileEndpoint)(nil)

// rollIfDateChanged runs on the queue worker, immediately before an
// append. Crossing a date boundary closes the old file and opens the one
// for today; both happen inside the same task as the append that
// triggered them, so no writer ever sees a half-rotated state.
func (e *DatedFileEndpoint) rollIfDateChanged() {
	key := dateKeyFor(e.now())
	if key == e.dateKey {
		return
	}

	if e.file != nil {
		if err := e.file.Close(); err != nil {
			e.diag.Error("endpoint '%s': failed to close %s at date boundary: %v", e.name, e.path, err)
		}
	}

	path := e.pathForDate(key)
	file, err := openLogFile(path, false)
	if err != nil {
		e.diag.Error("endpoint '%s': failed to open %s at date boundary: %v", e.name, path, err)
		file = nil
	}

	e.mu.Lock()
	e.dateKey = key
	e.path = path
	e.mu.Unlock()
	e.file = file

	e.tagCurrentFile()
}

// tagCurrentFile writes the provenance sidecar for the currently open
// date file. Failure is non-fatal and stops further attempts.
func (e *DatedFileEndpoint) tagCurrentFile() {
	if e.metaBroken || e.file == nil {
		return
	}
	err := filemeta.Save(e.path, filemeta.Meta{
		Endpoint:    filemeta.KindDated,
		DateKey:     e.dateKey,
		CurrentPath: e.path,
	})
	if err != nil {
		e.metaBroken = true
		e.diag.Error("endpoint '%s': cannot tag dated log file: %v", e.name, err)
	}
}
