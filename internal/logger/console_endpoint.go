package logger

import (
	"io"
	"os"
	"sync"

	"github.com/orgoj/logfanout/internal/config"
)

// ConsoleEndpoint writes to the process's standard error stream. Two
// interchangeable modes are selected at construction:
//
//   - sync: the write executes on the calling goroutine before Write
//     returns -- fully ordered with the caller's own execution, at the
//     caller's latency cost;
//   - async: the write goes through the endpoint's own serial queue and
//     Write returns immediately; ordering still matches submission order
//     because all writes share the one queue.
//
// Rotate is meaningless for a stream and is a no-op.
type ConsoleEndpoint struct {
	endpointBase
	out   io.Writer
	async bool
	queue *serialQueue // async mode only
	mu    sync.Mutex   // sync mode: keeps concurrent writes whole
}

// NewConsoleEndpoint creates a console endpoint; cfg.Mode "async"
// selects the asynchronous variant, anything else is synchronous.
func NewConsoleEndpoint(cfg config.EndpointConfig) (*ConsoleEndpoint, error) {
	level, err := levelFromConfig(cfg.Level)
	if err != nil {
		return nil, err
	}

	e := &ConsoleEndpoint{
		endpointBase: newEndpointBase(cfg.Name, level, nil, nil, true),
		out:          os.Stderr,
		async:        cfg.Mode == "async",
	}
	if e.async {
		e.queue = newSerialQueue()
	}
	return e, nil
}

// Async reports which writer mode the endpoint was built with.
func (e *ConsoleEndpoint) Async() bool {
	return e.async
}

// Write sends the formatted record to stderr, inline or via the queue
// depending on the mode.
func (e *ConsoleEndpoint) Write(s string) {
	if !e.async {
		e.mu.Lock()
		defer e.mu.Unlock()
		if _, err := io.WriteString(e.out, s); err != nil {
			e.diag.Error("endpoint '%s': console write error: %v", e.name, err)
		}
		return
	}

	ok := e.queue.submit(func() {
		if _, err := io.WriteString(e.out, s); err != nil {
			e.diag.Error("endpoint '%s': console write error: %v", e.name, err)
		}
	})
	if !ok {
		e.diag.Warn("endpoint '%s': write after close dropped", e.name)
	}
}

// Rotate is a no-op for a stream endpoint.
func (e *ConsoleEndpoint) Rotate() {}

// Barrier blocks until previously submitted writes have completed. In
// sync mode every write already completed before its Write returned.
func (e *ConsoleEndpoint) Barrier() {
	if e.queue != nil {
		e.queue.barrier()
	}
}

// Close stops the async writer. The stderr stream itself is left open.
func (e *ConsoleEndpoint) Close() error {
	if e.queue != nil {
		e.queue.close()
	}
	return nil
}

var _ Endpoint = (*ConsoleEndpoint)(nil)
