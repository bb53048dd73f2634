package transport

import (
	"net"
	"time"
)

// Minimal Telnet IAC constants (RFC 854), just enough to refuse every
// option the device offers. BestCode printers speak plain ASCII once
// negotiation settles; no option this client accepts changes framing.
const (
	iac  = 255
	will = 251
	wont = 252
	do   = 253
	dont = 254
)

// negotiateTelnet drains any IAC option requests the printer sends
// immediately after accept, replying WONT/DONT to every one, then
// returns once a short quiet window has passed. Printers that never
// speak Telnet (plain ASCII from byte zero) simply see this window
// elapse with nothing to drain.
func negotiateTelnet(conn net.Conn) error {
	const window = 300 * time.Millisecond

	// Reads one byte directly off the socket, with no intermediate
	// buffering layer: the bufio.Reader Connect wires up afterward
	// must see every byte the device sends once negotiation settles,
	// including any it sent back-to-back with the last IAC sequence.
	readByte := func() (byte, error) {
		var b [1]byte
		_, err := conn.Read(b[:])
		return b[0], err
	}

	conn.SetReadDeadline(time.Now().Add(window))
	defer conn.SetReadDeadline(time.Time{})

	reply := make([]byte, 0, 3)

	for {
		b, err := readByte()
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				return nil
			}
			return err
		}
		if b != iac {
			// Not Telnet traffic; nothing more to negotiate. The byte
			// already consumed belongs to the application stream, but
			// since real BestCode traffic never starts with 0xFF this
			// path is only reachable on a misbehaving peer.
			return nil
		}
		cmd, err := readByte()
		if err != nil {
			return err
		}
		opt, err := readByte()
		if err != nil {
			return err
		}
		reply = reply[:0]
		switch cmd {
		case do:
			reply = append(reply, iac, wont, opt)
		case will:
			reply = append(reply, iac, dont, opt)
		default:
			continue
		}
		if _, err := conn.Write(reply); err != nil {
			return err
		}
		conn.SetReadDeadline(time.Now().Add(window))
	}
}
