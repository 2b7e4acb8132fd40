// Package filemeta persists small per-logfile metadata in a JSON sidecar
// next to the file it describes. Rotating endpoints store their current
// slot index here so a restarted process can resume the rotation cycle
// without scanning all slots; dated endpoints store a provenance tag.
//
// The sidecar lives at "<logfile>.meta" and never touches the logfile's
// own content, so it can be inspected or removed by external tooling
// (see cmd/logmeta) at any time.
package filemeta

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Endpoint kind values stored in the sidecar.
const (
	KindRotating = "rotating"
	KindDated    = "dated"
)

// Suffix is appended to a logfile path to form its sidecar path.
const Suffix = ".meta"

// Meta is the sidecar payload.
type Meta struct {
	Endpoint    string    `json:"endpoint"`
	Index       int       `json:"index,omitempty"`
	Slots       int       `json:"slots,omitempty"`
	DateKey     string    `json:"date_key,omitempty"`
	CurrentPath string    `json:"current_path,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PathFor returns the sidecar path for the given logfile path.
func PathFor(logPath string) string {
	return logPath + Suffix
}

// Save writes the sidecar for logPath. The write goes through a temp file
// and a rename so a crash mid-write never leaves a truncated sidecar.
func Save(logPath string, m Meta) error {
	m.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata for '%s': %w", logPath, err)
	}
	data = append(data, '\n')

	target := PathFor(logPath)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write metadata sidecar '%s': %w", tmp, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to commit metadata sidecar '%s': %w", target, err)
	}
	return nil
}

// Load reads the sidecar for logPath. A missing sidecar is reported via
// os.IsNotExist on the returned error.
func Load(logPath string) (Meta, error) {
	var m Meta
	data, err := os.ReadFile(PathFor(logPath))
	if err != nil {
		return m, err
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("corrupt metadata sidecar '%s': %w", PathFor(logPath), err)
	}
	return m, nil
}

// Remove deletes the sidecar for logPath. Removing a sidecar that does
// not exist is not an error.
func Remove(logPath string) error {
	err := os.Remove(PathFor(logPath))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove metadata sidecar '%s': %w", PathFor(logPath), err)
	}
	return nil
}
