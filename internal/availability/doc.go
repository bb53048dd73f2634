// Package availability runs the fleet-wide reachability sweep: a
// fixed-period loop that classifies every configured printer as
// available or offline with hysteresis, and opportunistically
// refreshes fluid levels/current message/ready state for printers that
// just became reachable.
//
// The connected printer is never marked offline by this package —
// mirror availability for it is pinned true by the Connection Manager
// for as long as a ConnectedState exists (§8 invariant 2). If the
// connected identity's own reachability streak crosses the offline
// threshold, the Supervisor instead notifies the manager so it can
// auto-disconnect; it does not touch that identity's mirror fields.
package availability
