package logger

import (
	"bytes"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// Record is one logged event. It is built once per logging call and never
// mutated afterwards, so every endpoint's writer may read it concurrently.
type Record struct {
	Level         Level
	Message       string
	Time          time.Time
	File          string
	Function      string
	Line          int
	Goroutine     uint64
	MainGoroutine bool
}

// newRecord captures the call site skip frames above the caller.
// Call-site capture is best effort: if the runtime gives us nothing the
// fields stay empty and the record is still delivered.
func newRecord(level Level, message string, captureCaller bool, skip int) Record {
	r := Record{
		Level:   level,
		Message: message,
		Time:    time.Now(),
	}

	r.Goroutine = goroutineID()
	r.MainGoroutine = r.Goroutine == 1

	if !captureCaller {
		return r
	}

	pc, file, line, ok := runtime.Caller(skip)
	if !ok {
		return r
	}
	r.File = filepath.Base(file)
	r.Line = line

	if fn := runtime.FuncForPC(pc); fn != nil {
		name := fn.Name()
		if lastSlash := strings.LastIndex(name, "/"); lastSlash >= 0 {
			name = name[lastSlash+1:]
		}
		r.Function = name
	}
	return r
}

// goroutineID parses the current goroutine id out of the stack header
// ("goroutine 42 [running]:"). The main goroutine is always id 1.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	header := bytes.TrimPrefix(buf[:n], []byte("goroutine "))
	if i := bytes.IndexByte(header, ' '); i > 0 {
		if id, err := strconv.ParseUint(string(header[:i]), 10, 64); err == nil {
			return id
		}
	}
	return 0
}
