package model

import "errors"

// Sentinel errors for the taxonomic error kinds in the fleet connection
// core. Callers match with errors.Is; layers that wrap these use
// fmt.Errorf("...: %w", ...) so context survives without typed error
// structs.
var (
	// ErrNotConnected is returned when an operation requiring a live
	// session is invoked with none established.
	ErrNotConnected = errors.New("not_connected")

	// ErrTransportTimeout is returned when a command exceeds its
	// per-command deadline.
	ErrTransportTimeout = errors.New("transport_timeout")

	// ErrTransportBroken is returned when the socket closed or errored
	// mid-operation.
	ErrTransportBroken = errors.New("transport_broken")

	// ErrParseFailed is returned when a response did not match any
	// known dialect for its command family.
	ErrParseFailed = errors.New("parse_failed")

	// ErrCommandRejected is returned when the device echoed
	// COMMAND FAILED.
	ErrCommandRejected = errors.New("command_rejected")

	// ErrAuthFailed is returned when sign-in was rejected.
	ErrAuthFailed = errors.New("auth_failed")

	// ErrConfigInvalid is returned when an outbound command parameter
	// is out of range.
	ErrConfigInvalid = errors.New("config_invalid")
)
