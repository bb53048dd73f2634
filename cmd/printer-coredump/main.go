// Command printer-coredump renders a field-diagnostics snapshot
// previously written by the connection core (pkg/diagnostics) in a
// human-readable form.
//
// Usage:
//
//	printer-coredump <dump.cbor>
package main

import (
	"fmt"
	"os"

	"github.com/bestcode/printer-fleet-core/pkg/diagnostics"
	"github.com/bestcode/printer-fleet-core/pkg/model"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: printer-coredump <dump.cbor>")
		os.Exit(1)
	}

	snap, err := diagnostics.ReadFile(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "printer-coredump: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Captured: %s\n\n", snap.CapturedAt.Format("2006-01-02T15:04:05Z07:00"))

	fmt.Printf("Mirrors (%d):\n", len(snap.Mirrors))
	for _, m := range snap.Mirrors {
		printMirror(m)
	}

	if snap.Connected != nil {
		fmt.Println("\nConnected printer:")
		printConnected(*snap.Connected)
	} else {
		fmt.Println("\nNo printer currently connected.")
	}

	fmt.Printf("\nCommand log (%d entries):\n", len(snap.CommandLog))
	for _, e := range snap.CommandLog {
		printLogEntry(e)
	}
}

func printMirror(m model.PrinterMirror) {
	fmt.Printf("  [%d] %-20s availability=%-9s status=%-9s ink=%-8s makeup=%-8s errors=%v\n",
		m.Identity.ID, m.Identity.Name, m.Availability, m.Status, m.InkLevel, m.MakeupLevel, m.HasActiveErrors)
}

func printConnected(c model.ConnectedState) {
	fmt.Printf("  identity:      %d (%s)\n", c.Identity.ID, c.Identity.Name)
	fmt.Printf("  HV on:         %v\n", c.Status.HVOn)
	fmt.Printf("  jet running:   %v\n", c.Status.JetRunning)
	fmt.Printf("  current msg:   %s\n", c.Status.CurrentMsg)
	fmt.Printf("  firmware:      %s\n", c.Status.FirmwareVer)
	fmt.Printf("  product count: %d\n", c.Status.ProductCnt)
	fmt.Printf("  print count:   %d\n", c.Status.PrintCnt)
	fmt.Printf("  messages:      %d stored\n", len(c.Messages))
}

func printLogEntry(e model.CommandLogEntry) {
	ts := e.Timestamp.Format("15:04:05.000")
	if e.Direction == model.LogSent {
		fmt.Printf("  %s > %s\n", ts, e.Command)
		return
	}
	fmt.Printf("  %s < %s\n", ts, oneLine(e.Response))
}

func oneLine(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' || s[i] == '\r' {
			out = append(out, ' ')
			continue
		}
		out = append(out, s[i])
	}
	return string(out)
}
