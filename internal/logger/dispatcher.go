package logger

import (
	"fmt"
	"sync"

	"github.com/orgoj/logfanout/internal/config"
	"golang.org/x/time/rate"
)

// recordCallerSkip is the runtime.Caller depth from newRecord out to
// the caller of a Dispatcher level method: newRecord -> log -> the
// public method -> call site.
const recordCallerSkip = 3

// Dispatcher fans each record out to an ordered collection of endpoints.
// The collection is immutable after construction; every endpoint runs
// its own writer, so a slow or stalled endpoint cannot delay delivery to
// any other endpoint or to the caller. The Dispatcher itself never
// blocks on endpoint I/O -- callers needing durability use Barrier.
type Dispatcher struct {
	endpoints     []Endpoint
	limiter       *rate.Limiter
	captureCaller bool
	appLogger     *AppLogger
}

// DispatcherOption adjusts dispatcher construction.
type DispatcherOption func(*Dispatcher)

// WithRateLimit caps accepted records per second; excess records are
// dropped before fan-out. n <= 0 disables the limiter.
func WithRateLimit(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n > 0 {
			d.limiter = rate.NewLimiter(rate.Limit(n), n)
		}
	}
}

// WithoutCaller skips call-site capture on each record.
func WithoutCaller() DispatcherOption {
	return func(d *Dispatcher) {
		d.captureCaller = false
	}
}

// NewDispatcher creates a dispatcher over the given endpoints. The
// dispatcher owns them from here on: Close closes them all.
func NewDispatcher(endpoints []Endpoint, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		endpoints:     endpoints,
		captureCaller: true,
		appLogger:     GetAppLogger(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// NewDispatcherFromConfig constructs every enabled endpoint in the
// configuration and wraps them in a dispatcher.
func NewDispatcherFromConfig(cfg *config.Config) (*Dispatcher, error) {
	var endpoints []Endpoint
	for _, epCfg := range cfg.Endpoints {
		if !epCfg.Enabled {
			continue
		}

		ep, err := newEndpointFromConfig(epCfg)
		if err != nil {
			// Roll back the ones we already opened.
			for _, open := range endpoints {
				_ = open.Close()
			}
			return nil, fmt.Errorf("endpoint '%s': %w", epCfg.Name, err)
		}
		endpoints = append(endpoints, ep)
	}

	if len(endpoints) == 0 {
		return nil, fmt.Errorf("no enabled endpoints in configuration")
	}

	opts := []DispatcherOption{WithRateLimit(cfg.RateLimit)}
	if cfg.DisableCaller {
		opts = append(opts, WithoutCaller())
	}
	return NewDispatcher(endpoints, opts...), nil
}

// newEndpointFromConfig builds one endpoint per its configured type.
func newEndpointFromConfig(cfg config.EndpointConfig) (Endpoint, error) {
	switch cfg.Type {
	case "file":
		return NewFileEndpoint(cfg)
	case "rotating":
		return NewRotatingFileEndpoint(cfg)
	case "dated":
		return NewDatedFileEndpoint(cfg)
	case "size":
		return NewSizeRotatingFileEndpoint(cfg)
	case "console":
		return NewConsoleEndpoint(cfg)
	case "gelf":
		return NewGelfEndpoint(cfg)
	default:
		return nil, fmt.Errorf("unsupported endpoint type: %s", cfg.Type)
	}
}

// Endpoints returns the dispatcher's endpoints in registration order.
func (d *Dispatcher) Endpoints() []Endpoint {
	return d.endpoints
}

// Log builds one record and fans it out. Each endpoint filters by its
// own threshold and formats with its own formatters, independently of
// the others; no lock spans two endpoints.
func (d *Dispatcher) Log(level Level, message string) {
	d.log(level, message)
}

func (d *Dispatcher) log(level Level, message string) {
	if d.limiter != nil && !d.limiter.Allow() {
		return
	}

	r := newRecord(level, message, d.captureCaller, recordCallerSkip)

	for _, ep := range d.endpoints {
		if !ep.MinimumLevel().Allows(r.Level) {
			continue
		}

		formatted := ep.Format(r)
		if ep.RequiresNewline() {
			formatted += "\n"
		}

		if rw, ok := ep.(RecordWriter); ok {
			rw.WriteRecord(r, formatted)
			continue
		}
		ep.Write(formatted)
	}
}

// Debug logs a message at DEBUG level.
func (d *Dispatcher) Debug(message string) { d.log(LevelDebug, message) }

// Info logs a message at INFO level.
func (d *Dispatcher) Info(message string) { d.log(LevelInfo, message) }

// Notice logs a message at NOTICE level.
func (d *Dispatcher) Notice(message string) { d.log(LevelNotice, message) }

// Warning logs a message at WARNING level.
func (d *Dispatcher) Warning(message string) { d.log(LevelWarning, message) }

// Error logs a message at ERROR level.
func (d *Dispatcher) Error(message string) { d.log(LevelError, message) }

// Critical logs a message at CRITICAL level.
func (d *Dispatcher) Critical(message string) { d.log(LevelCritical, message) }

// Debugf logs a formatted message at DEBUG level.
func (d *Dispatcher) Debugf(format string, args ...interface{}) {
	d.log(LevelDebug, fmt.Sprintf(format, args...))
}

// Infof logs a formatted message at INFO level.
func (d *Dispatcher) Infof(format string, args ...interface{}) {
	d.log(LevelInfo, fmt.Sprintf(format, args...))
}

// Noticef logs a formatted message at NOTICE level.
func (d *Dispatcher) Noticef(format string, args ...interface{}) {
	d.log(LevelNotice, fmt.Sprintf(format, args...))
}

// Warningf logs a formatted message at WARNING level.
func (d *Dispatcher) Warningf(format string, args ...interface{}) {
	d.log(LevelWarning, fmt.Sprintf(format, args...))
}

// Errorf logs a formatted message at ERROR level.
func (d *Dispatcher) Errorf(format string, args ...interface{}) {
	d.log(LevelError, fmt.Sprintf(format, args...))
}

// Criticalf logs a formatted message at CRITICAL level.
func (d *Dispatcher) Criticalf(format string, args ...interface{}) {
	d.log(LevelCritical, fmt.Sprintf(format, args...))
}

// Barrier blocks until every write submitted to every endpoint before
// this call has completed.
func (d *Dispatcher) Barrier() {
	for _, ep := range d.endpoints {
		ep.Barrier()
	}
}

// Close shuts down all endpoints concurrently and waits for them.
func (d *Dispatcher) Close() {
	var wg sync.WaitGroup
	for _, ep := range d.endpoints {
		wg.Add(1)
		go func(ep Endpoint) {
			defer wg.Done()
			if err := ep.Close(); err != nil {
				d.appLogger.Warn("Error closing endpoint '%s': %v", ep.Name(), err)
			}
		}(ep)
	}
	wg.Wait()
}
