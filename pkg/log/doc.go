// Package log provides structured protocol logging for the printer fleet
// connection core.
//
// This package defines the Logger interface and Event types for capturing
// protocol-level events at multiple layers (transport, protocol, manager).
// It is separate from operational logging (slog) - protocol capture provides
// a complete machine-readable event trace for field diagnostics, independent
// of whatever console logging an embedding HMI already does.
//
// # Basic Usage
//
// Applications configure logging by providing a Logger implementation:
//
//	// For development: log to console via slog
//	logger := log.NewSlogAdapter(slog.Default())
//
//	// For production: write to a binary file
//	fileLogger, _ := log.NewFileLogger("/var/log/bestcode/fleet.plog")
//
//	// Both: use MultiLogger
//	logger := log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    fileLogger,
//	)
//
// # Event Types
//
// Events are captured at multiple layers:
//   - Transport: raw framed lines (FrameEvent)
//   - Protocol: one `^XX` command/response pair (CommandEvent)
//   - Manager: connection and mirror state transitions (StateChangeEvent)
//
// Errors at any layer have a dedicated event type.
//
// # File Format
//
// Log files use CBOR encoding. Reader provides filtered playback of a
// log file. pkg/diagnostics reuses NewEncoder/NewDecoder for its
// snapshot file, which cmd/printer-coredump renders.
package log
