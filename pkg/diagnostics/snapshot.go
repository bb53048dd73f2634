package diagnostics

import (
	"fmt"
	"os"
	"time"

	"github.com/bestcode/printer-fleet-core/pkg/log"
	"github.com/bestcode/printer-fleet-core/pkg/model"
)

// Snapshot is one coredump bundle: the command log ring buffer as it
// stood at capture time, every printer's mirror, and the connected
// printer's full state, if any.
type Snapshot struct {
	CapturedAt time.Time               `cbor:"1,keyasint"`
	CommandLog []model.CommandLogEntry `cbor:"2,keyasint"`
	Mirrors    []model.PrinterMirror   `cbor:"3,keyasint"`
	Connected  *model.ConnectedState   `cbor:"4,keyasint,omitempty"`
}

// Source is the narrow seam diagnostics needs from the Connection
// Manager; internal/manager.Manager satisfies it.
type Source interface {
	CommandLogSnapshot() []model.CommandLogEntry
	Mirrors() []model.PrinterMirror
	ConnectedSnapshot() *model.ConnectedState
}

// Capture builds a Snapshot from the manager's current state.
func Capture(capturedAt time.Time, src Source) Snapshot {
	return Snapshot{
		CapturedAt: capturedAt,
		CommandLog: src.CommandLogSnapshot(),
		Mirrors:    src.Mirrors(),
		Connected:  src.ConnectedSnapshot(),
	}
}

// WriteFile CBOR-encodes a Snapshot to a fresh file at path, failing
// if the file already exists (a coredump is a point-in-time artifact,
// never appended to).
func WriteFile(path string, snap Snapshot) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("diagnostics: create %s: %w", path, err)
	}
	defer f.Close()

	enc := log.NewEncoder(f)
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("diagnostics: encode snapshot: %w", err)
	}
	return nil
}

// ReadFile decodes a Snapshot previously written by WriteFile.
func ReadFile(path string) (Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("diagnostics: open %s: %w", path, err)
	}
	defer f.Close()

	var snap Snapshot
	dec := log.NewDecoder(f)
	if err := dec.Decode(&snap); err != nil {
		return Snapshot{}, fmt.Errorf("diagnostics: decode snapshot: %w", err)
	}
	return snap, nil
}
