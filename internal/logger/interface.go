package logger

import "sync/atomic"

// Endpoint is the contract every log destination implements (file,
// rotating file, dated file, console, gelf). A Dispatcher fans each
// record out to its endpoints through this interface.
//
// Write, Rotate and Barrier are the write pipeline: Write and Rotate
// never block the caller and never surface errors; failures inside the
// pipeline are absorbed and reported through the app logger. Barrier is
// the one blocking call: it returns once every task submitted to this
// endpoint before the Barrier call has completed.
type Endpoint interface {
	// Name returns the unique name of the endpoint instance (from config).
	Name() string

	// MinimumLevel is the threshold below which records are skipped.
	// It may be changed at any time, including while writes are in flight.
	MinimumLevel() Level
	SetMinimumLevel(Level)

	// Format renders a record with this endpoint's own formatters.
	Format(r Record) string

	// RequiresNewline reports whether the dispatcher should append a
	// newline to the formatted record before calling Write. Line-oriented
	// destinations (file, console) want one; structured destinations
	// (gelf) do not.
	RequiresNewline() bool

	// Write appends the already formatted record. Submission order is
	// persistence order.
	Write(s string)

	// Rotate asks the endpoint to move to its next destination file.
	// Endpoints without manual rotation treat this as a no-op.
	Rotate()

	// Barrier blocks until all previously submitted writes and rotations
	// on this endpoint have completed.
	Barrier()

	// Close flushes pending work and releases the destination. It should
	// be called during application shutdown.
	Close() error
}

// RecordWriter is an optional upgrade to Endpoint. Destinations that
// keep records structured (gelf) implement it to receive the record
// alongside the formatted string; the dispatcher prefers it over Write.
type RecordWriter interface {
	WriteRecord(r Record, formatted string)
}

// endpointBase carries the state every endpoint variant shares: name,
// threshold, formatter references and the newline flag. The minimum
// level is atomic so SetMinimumLevel is safe against concurrent logging.
type endpointBase struct {
	name        string
	minLevel    int32 // atomic
	formatEntry EntryFormatter
	formatTime  TimeFormatter
	newline     bool
	diag        *AppLogger
}

func newEndpointBase(name string, level Level, entry EntryFormatter, ts TimeFormatter, newline bool) endpointBase {
	b := endpointBase{
		name:        name,
		formatEntry: entry,
		formatTime:  ts,
		newline:     newline,
		diag:        GetAppLogger(),
	}
	if b.formatEntry == nil {
		b.formatEntry = DefaultEntryFormatter
	}
	if b.formatTime == nil {
		b.formatTime = DefaultTimeFormatter
	}
	atomic.StoreInt32(&b.minLevel, int32(level))
	return b
}

func (b *endpointBase) Name() string {
	return b.name
}

func (b *endpointBase) MinimumLevel() Level {
	return Level(atomic.LoadInt32(&b.minLevel))
}

func (b *endpointBase) SetMinimumLevel(level Level) {
	atomic.StoreInt32(&b.minLevel, int32(level))
}

// SetFormatters replaces the endpoint's formatters. Nil arguments keep
// the current one. Call before the endpoint starts receiving writes.
func (b *endpointBase) SetFormatters(entry EntryFormatter, ts TimeFormatter) {
	if entry != nil {
		b.formatEntry = entry
	}
	if ts != nil {
		b.formatTime = ts
	}
}

func (b *endpointBase) Format(r Record) string {
	return b.formatEntry(r, b.formatTime)
}

func (b *endpointBase) RequiresNewline() bool {
	return b.newline
}
