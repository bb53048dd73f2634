// Package transport owns the TCP/Telnet session for one printer
// identity: socket lifecycle, command serialization, and the framing
// contract that turns a byte stream into discrete command responses.
//
// A Transport is created with set_meta and does not open a socket
// until Connect is called. SendCommand does not open one itself: it
// fails with model.ErrNotConnected while the socket is not open.
// Commands issued while
// the socket is open are serialized by an internal mutex — the second
// concurrent caller waits for the first to finish. The component does
// not retry; retries belong to callers (see internal/manager).
package transport
