package logger

import (
	"fmt"
	"strings"
)

// Level is the priority of a log record and the threshold of an endpoint.
// Ordering is structural: LevelAll accepts everything, LevelNone accepts
// nothing, and the named levels in between order by severity. Records
// only ever carry LevelDebug..LevelCritical; the two extremes exist as
// endpoint thresholds.
type Level int32

const (
	LevelAll Level = iota
	LevelDebug
	LevelInfo
	LevelNotice
	LevelWarning
	LevelError
	LevelCritical
	LevelNone
)

var levelNames = map[Level]string{
	LevelAll:      "ALL",
	LevelDebug:    "DEBUG",
	LevelInfo:     "INFO",
	LevelNotice:   "NOTICE",
	LevelWarning:  "WARNING",
	LevelError:    "ERROR",
	LevelCritical: "CRITICAL",
	LevelNone:     "NONE",
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "UNKNOWN"
}

// Allows reports whether a record at the given level passes an endpoint
// whose minimum level is l.
func (l Level) Allows(record Level) bool {
	return record >= l
}

// ParseLevel converts a level name to a Level. Matching is
// case-insensitive; "warn" is accepted for "warning".
func ParseLevel(name string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "ALL":
		return LevelAll, nil
	case "DEBUG":
		return LevelDebug, nil
	case "INFO":
		return LevelInfo, nil
	case "NOTICE":
		return LevelNotice, nil
	case "WARN", "WARNING":
		return LevelWarning, nil
	case "ERROR":
		return LevelError, nil
	case "CRITICAL":
		return LevelCritical, nil
	case "NONE":
		return LevelNone, nil
	default:
		return LevelAll, fmt.Errorf("invalid log level: %s", name)
	}
}
