package logger

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/orgoj/logfanout/internal/config"
	"gopkg.in/Graylog2/go-gelf.v2/gelf"
)

// Variables for factories to allow mocking in tests
var gelfUDPWriterFactory = gelf.NewUDPWriter
var gelfTCPWriterFactory = gelf.NewTCPWriter

// Function to set compression, can be mocked in tests
var setUDPCompression = func(writer *gelf.UDPWriter, compType gelf.CompressType) {
	writer.CompressionType = compType
}

// gelfMessageLimit caps the short_message field; anything longer is
// truncated before it goes on the wire.
const gelfMessageLimit = 32 * 1024

// GelfEndpoint ships records to a Graylog server over UDP or TCP. It is
// the network-facing implementation of the endpoint contract: writes go
// through its own serial queue, Rotate is a no-op, no newline framing.
// It also implements RecordWriter so the dispatcher hands it the
// structured record; the GELF level field then carries the record's
// priority mapped to syslog severities.
type GelfEndpoint struct {
	endpointBase
	queue    *serialQueue
	writer   gelf.Writer
	hostName string
}

// NewGelfEndpoint creates a GELF endpoint for cfg.Host:cfg.Port.
// Protocol "tcp" selects a TCP writer, anything else UDP; compression
// applies to UDP only.
func NewGelfEndpoint(cfg config.EndpointConfig) (*GelfEndpoint, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("host is required for GELF endpoint")
	}
	if cfg.Port <= 0 {
		return nil, fmt.Errorf("valid port is required for GELF endpoint")
	}
	level, err := levelFromConfig(cfg.Level)
	if err != nil {
		return nil, err
	}

	hostName, err := os.Hostname()
	if err != nil {
		hostName = "unknown"
	}

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	var writer gelf.Writer
	if cfg.Protocol == "tcp" {
		tcpWriter, err := gelfTCPWriterFactory(addr)
		if err != nil {
			return nil, fmt.Errorf("failed to create GELF TCP writer: %w", err)
		}
		writer = tcpWriter
	} else {
		udpWriter, err := gelfUDPWriterFactory(addr)
		if err != nil {
			return nil, fmt.Errorf("failed to create GELF UDP writer: %w", err)
		}

		switch cfg.CompressionType {
		case "gzip":
			setUDPCompression(udpWriter, gelf.CompressGzip)
		case "zlib":
			setUDPCompression(udpWriter, gelf.CompressZlib)
		default:
			setUDPCompression(udpWriter, gelf.CompressNone)
		}

		writer = udpWriter
	}

	return &GelfEndpoint{
		endpointBase: newEndpointBase(cfg.Name, level, nil, nil, false),
		queue:        newSerialQueue(),
		writer:       writer,
		hostName:     hostName,
	}, nil
}

// Write ships a formatted record with no structured context; the GELF
// level defaults to informational. The dispatcher normally uses
// WriteRecord instead.
func (e *GelfEndpoint) Write(s string) {
	e.send(s, syslogLevel(LevelInfo), 0)
}

// WriteRecord ships the formatted record together with its structured
// priority and timestamp.
func (e *GelfEndpoint) WriteRecord(r Record, formatted string) {
	ts := float64(r.Time.Unix()) + float64(r.Time.Nanosecond())/1e9
	e.send(formatted, syslogLevel(r.Level), ts)
}

func (e *GelfEndpoint) send(s string, level int32, ts float64) {
	if ts == 0 {
		now := time.Now()
		ts = float64(now.Unix()) + float64(now.Nanosecond())/1e9
	}
	ok := e.queue.submit(func() {
		msg := &gelf.Message{
			Version:  "1.1",
			Host:     e.hostName,
			Short:    truncateString(strings.TrimRight(s, "\n"), gelfMessageLimit),
			TimeUnix: ts,
			Level:    level,
		}
		if err := e.writer.WriteMessage(msg); err != nil {
			e.diag.Error("endpoint '%s': GELF write error: %v", e.name, err)
		}
	})
	if !ok {
		e.diag.Warn("endpoint '%s': write after close dropped", e.name)
	}
}

// Rotate is a no-op for a network endpoint.
func (e *GelfEndpoint) Rotate() {}

// Barrier blocks until all previously submitted messages have been
// handed to the GELF writer.
func (e *GelfEndpoint) Barrier() {
	e.queue.barrier()
}

// Close drains pending messages and closes the connection.
func (e *GelfEndpoint) Close() error {
	e.queue.close()
	return e.writer.Close()
}

var _ Endpoint = (*GelfEndpoint)(nil)
var _ RecordWriter = (*GelfEndpoint)(nil)

// syslogLevel maps a record priority to the syslog severity GELF
// expects (critical=2 ... debug=7).
func syslogLevel(l Level) int32 {
	switch l {
	case LevelCritical:
		return 2
	case LevelError:
		return 3
	case LevelWarning:
		return 4
	case LevelNotice:
		return 5
	case LevelInfo:
		return 6
	case LevelDebug:
		return 7
	default:
		return 6
	}
}
