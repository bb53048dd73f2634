// Package diagnostics exports a field-diagnostics snapshot: the
// command log ring buffer plus the current mirrors and connected
// state, CBOR-encoded via pkg/log's codec. It does not persist
// anything the storage collaborator owns.
package diagnostics
