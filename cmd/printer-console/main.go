// Command printer-console is an interactive passthrough terminal for
// one printer: every line typed is sent verbatim through the
// Connection Manager's send_command operation and the raw response is
// printed back, useful for field techs and manual protocol
// exploration. It assembles the full internal/app stack (Manager,
// Poller, Availability Supervisor) rather than a bare Manager, so the
// background poll rotation and reachability sweep run the same way
// they would under a host HMI.
//
// Usage:
//
//	printer-console -addr 192.168.1.50 -port 23
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/chzyer/readline"

	"github.com/bestcode/printer-fleet-core/internal/app"
	"github.com/bestcode/printer-fleet-core/pkg/config"
	"github.com/bestcode/printer-fleet-core/pkg/log"
	"github.com/bestcode/printer-fleet-core/pkg/model"
)

func main() {
	addr := flag.String("addr", "", "printer IPv4 address")
	port := flag.Int("port", 23, "printer TCP port")
	name := flag.String("name", "console", "printer name shown in prompts")
	flag.Parse()

	if *addr == "" {
		fmt.Fprintln(os.Stderr, "usage: printer-console -addr <ip> [-port 23]")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Default()
	identity := model.PrinterIdentity{ID: 1, Name: *name, Addr: *addr, Port: *port}

	a := app.New(app.StaticFleet{identity}, model.NewMirrorStore(), cfg, log.NoopLogger{})
	a.Start(ctx)
	defer a.Stop()

	mgr := a.Manager
	mgr.Connect(ctx, identity)

	rl, err := readline.New(fmt.Sprintf("%s> ", *name))
	if err != nil {
		fmt.Fprintf(os.Stderr, "printer-console: %v\n", err)
		os.Exit(1)
	}
	defer rl.Close()

	fmt.Println("connected; type a raw command (e.g. ^SU), or 'quit' to exit")

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			break
		}

		ok, resp := mgr.SendCommand(ctx, line)
		if !ok {
			fmt.Printf("error: %s\n", resp)
			continue
		}
		fmt.Println(resp)
	}
}
