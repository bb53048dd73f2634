// Package poller implements the Serialized Poller (§4.4): a fixed
// command rotation driven over the connected printer's socket while a
// dashboard or service screen is open, falling back to a reduced
// clock-only tick when both are closed but a printer remains
// connected.
//
// The poller never issues two commands at once and never starts a new
// tick before the previous one's final command has completed or
// errored; it shares the Transport's command mutex with user-invoked
// operations, so the two simply queue behind one another.
package poller
