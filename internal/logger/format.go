package logger

import (
	"strconv"
	"strings"
	"time"
)

// TimeFormatter renders a record timestamp.
type TimeFormatter func(t time.Time) string

// EntryFormatter renders a whole record to the string an endpoint will
// persist. The endpoint's own TimeFormatter is passed in so a custom
// entry format can reuse it.
type EntryFormatter func(r Record, formatTime TimeFormatter) string

// DefaultTimeFormatter renders UTC with millisecond precision, the same
// timestamp shape the file destinations have always used.
func DefaultTimeFormatter(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

// DefaultEntryFormatter renders "[TIME] LEVEL: file:line:func: message".
// The call-site segment is omitted when the record carries none.
func DefaultEntryFormatter(r Record, formatTime TimeFormatter) string {
	var sb strings.Builder
	sb.Grow(64 + len(r.Message))

	sb.WriteString("[")
	sb.WriteString(formatTime(r.Time))
	sb.WriteString("] ")
	sb.WriteString(r.Level.String())
	sb.WriteString(":")

	if r.File != "" {
		sb.WriteString(" ")
		sb.WriteString(r.File)
		sb.WriteString(":")
		sb.WriteString(strconv.Itoa(r.Line))
		if r.Function != "" {
			sb.WriteString(":")
			sb.WriteString(r.Function)
		}
		sb.WriteString(":")
	}

	sb.WriteString(" ")
	sb.WriteString(r.Message)
	return sb.String()
}
