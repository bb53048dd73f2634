// Package protocol implements the BestCode Remote Protocol v2.6 codec:
// pure, stateless parsers for inbound `^SU`/`^CN`/`^LM`/`^TP`/`^SD`/`^VV`
// responses, and formatters for the outbound command family. No I/O, no
// state — callers own the Transport round-trip and simply hand this
// package the raw framed text.
//
// Parsers are deliberately lenient: the device's firmware revisions
// disagree on exact formatting, so each parser recognizes every
// documented dialect and returns a zero value with ok=false when
// nothing recognizable is present. ParseCounters also returns ok=false
// when fewer than two counters are recovered; ParseMessageList has no
// ok result and returns an empty list instead.
package protocol
