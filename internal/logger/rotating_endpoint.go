package logger

import (
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/orgoj/logfanout/internal/config"
	"github.com/orgoj/logfanout/internal/filemeta"
)

// RotatingFileEndpoint cycles through a fixed number of destination
// files ("slots"). Slot 0 is the base path; slot i inserts ".i" before
// the extension. Rotate moves to the next slot modulo the slot count, so
// exactly N rotations return to the starting file.
//
// The current slot index is persisted in a metadata sidecar keyed to the
// base path, so a restarted process resumes the cycle where it left off
// instead of overwriting old segments. If the sidecar cannot be written
// the endpoint keeps rotating with an in-memory index for the rest of
// the process lifetime; after a crash in that degraded state the next
// process starts over at slot 0.
type RotatingFileEndpoint struct {
	endpointBase
	queue    *serialQueue
	basePath string
	slots    int

	// mu guards index and path for readers outside the queue; the queue
	// worker is the only mutator after construction.
	mu         sync.Mutex
	index      int
	path       string
	file       *os.File
	metaBroken bool
}

// NewRotatingFileEndpoint creates a rotating endpoint with cfg.Slots
// slots. If a rotation sidecar is found at the base path the slot index
// is recovered from it and appending resumes there.
func NewRotatingFileEndpoint(cfg config.EndpointConfig) (*RotatingFileEndpoint, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("rotating file endpoint requires a path")
	}
	if cfg.Slots < 1 {
		return nil, fmt.Errorf("rotating file endpoint requires at least 1 slot, got %d", cfg.Slots)
	}
	level, err := levelFromConfig(cfg.Level)
	if err != nil {
		return nil, err
	}

	e := &RotatingFileEndpoint{
		endpointBase: newEndpointBase(cfg.Name, level, nil, nil, true),
		queue:        newSerialQueue(),
		basePath:     cfg.Path,
		slots:        cfg.Slots,
	}

	index, recovered := e.recoverIndex()
	e.index = index
	e.path = e.pathForIndex(index)

	// A recovered slot is resumed, never truncated; a fresh slot honours
	// the configured truncate flag.
	truncate := cfg.Truncate && !recovered
	file, err := openLogFile(e.path, truncate)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", e.path, err)
	}
	e.file = file

	e.persistIndex()
	return e, nil
}

// pathForIndex maps a slot index to its file path. Slot 0 reuses the
// base path verbatim.
func (e *RotatingFileEndpoint) pathForIndex(i int) string {
	if i == 0 {
		return e.basePath
	}
	return suffixedPath(e.basePath, strconv.Itoa(i))
}

// Slots returns the configured slot count.
func (e *RotatingFileEndpoint) Slots() int {
	return e.slots
}

// CurrentPath returns the path of the currently open slot.
func (e *RotatingFileEndpoint) CurrentPath() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.path
}

// Write appends the formatted record to the current slot.
func (e *RotatingFileEndpoint) Write(s string) {
	ok := e.queue.submit(func() {
		appendToFile(e.file, s, e.name, e.diag)
	})
	if !ok {
		e.diag.Warn("endpoint '%s': write after close dropped", e.name)
	}
}

// Rotate advances to the next slot. The whole transition runs as one
// task on the endpoint's writer, so it can never interleave with a
// write: writes submitted before Rotate land in the old slot, writes
// submitted after land in the new one.
func (e *RotatingFileEndpoint) Rotate() {
	e.queue.submit(func() {
		next := (e.index + 1) % e.slots
		nextPath := e.pathForIndex(next)

		if e.file != nil {
			if err := e.file.Close(); err != nil {
				e.diag.Error("endpoint '%s': failed to close %s during rotation: %v", e.name, e.path, err)
			}
		}

		file, err := openLogFile(nextPath, true)
		if err != nil {
			// Degraded: the slot advances but writes are dropped until
			// the next successful rotation.
			e.diag.Error("endpoint '%s': failed to open %s during rotation: %v", e.name, nextPath, err)
			file = nil
		}

		e.mu.Lock()
		e.index = next
		e.path = nextPath
		e.mu.Unlock()
		e.file = file

		e.persistIndex()
	})
}

// Barrier blocks until all previously submitted writes and rotations
// have completed.
func (e *RotatingFileEndpoint) Barrier() {
	e.queue.barrier()
}

// Close drains pending work and releases the current slot's handle.
func (e *RotatingFileEndpoint) Close() error {
	e.queue.close()
	if e.file != nil {
		return e.file.Close()
	}
	return nil
}

var _ Endpoint = (*RotatingFileEndpoint)(nil)

// recoverIndex probes the sidecar at the base path. It reports the slot
// to open and whether it came from persisted state.
func (e *RotatingFileEndpoint) recoverIndex() (int, bool) {
	meta, err := filemeta.Load(e.basePath)
	if err != nil {
		if !os.IsNotExist(err) {
			e.diag.Warn("endpoint '%s': unreadable rotation metadata, starting at slot 0: %v", e.name, err)
		}
		return 0, false
	}
	if meta.Endpoint != filemeta.KindRotating || meta.Index < 0 || meta.Index >= e.slots {
		e.diag.Warn("endpoint '%s': rotation metadata does not match this endpoint, starting at slot 0", e.name)
		return 0, false
	}
	return meta.Index, true
}

// persistIndex records the current slot in the sidecar. Runs on the
// queue worker (or during construction, before the queue sees tasks).
// Failure is non-fatal: the endpoint falls back to its in-memory index
// and stops retrying for this process.
func (e *RotatingFileEndpoint) persistIndex() {
	if e.metaBroken {
		return
	}
	err := filemeta.Save(e.basePath, filemeta.Meta{
		Endpoint:    filemeta.KindRotating,
		Index:       e.index,
		Slots:       e.slots,
		CurrentPath: e.path,
	})
	if err != nil {
		e.metaBroken = true
		e.diag.Error("endpoint '%s': cannot persist rotation state, crash recovery disabled: %v", e.name, err)
	}
}
