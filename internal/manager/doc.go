// Package manager implements the Connection Manager (§4.5): the
// orchestrator that owns the single optional ConnectedState, drives
// the initial burst after connect, wires the Serialized Poller to the
// live transport, and exposes the action surface the HMI shell calls.
package manager
