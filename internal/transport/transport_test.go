package transport

import (
	"bufio"
	"context"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/bestcode/printer-fleet-core/pkg/model"
)

func dialTestTransport(t *testing.T, addr string) *Transport {
	t.Helper()
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		t.Fatalf("split addr: %v", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("parse port: %v", err)
	}

	tr := New(Config{
		CommandTimeout:    500 * time.Millisecond,
		ConnectTimeout:    time.Second,
		PostConnectSettle: 10 * time.Millisecond,
		IdleGap:           50 * time.Millisecond,
	}, nil)
	tr.SetMeta(model.PrinterIdentity{ID: 1, Name: "P1", Addr: host, Port: port})
	return tr
}

func acceptOne(t *testing.T, ln net.Listener) net.Conn {
	t.Helper()
	c, err := ln.Accept()
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	return c
}

func TestTransportConnectAndSendCommand(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	serverDone := make(chan struct{})
	go func() {
		defer close(serverDone)
		c := acceptOne(t, ln)
		defer c.Close()

		r := bufio.NewReader(c)
		line, err := r.ReadString('\r')
		if err != nil {
			return
		}
		if strings.TrimRight(line, "\r") != "^SU" {
			t.Errorf("got command %q", line)
		}
		c.Write([]byte("HV=1;JET=1//EOL\n"))
	}()

	addr := ln.Addr().String()
	tr := dialTestTransport(t, addr)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := tr.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if tr.State() != StateOpen {
		t.Fatalf("state = %v, want open", tr.State())
	}

	resp, err := tr.SendCommand(ctx, "^SU")
	if err != nil {
		t.Fatalf("send_command: %v", err)
	}
	if !strings.Contains(resp, "HV=1") {
		t.Errorf("response = %q", resp)
	}

	<-serverDone
	tr.Disconnect()
	if tr.State() != StateAbsent {
		t.Errorf("state after disconnect = %v, want absent", tr.State())
	}
}

func TestTransportSendCommandWithoutConnectFails(t *testing.T) {
	tr := New(DefaultConfig(), nil)
	tr.SetMeta(model.PrinterIdentity{ID: 1, Name: "P1", Addr: "127.0.0.1", Port: 9})
	_, err := tr.SendCommand(context.Background(), "^SU")
	if err == nil {
		t.Fatal("expected error sending on unconnected transport")
	}
}

func TestTransportCommandTimeout(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	go func() {
		c := acceptOne(t, ln)
		defer c.Close()
		bufio.NewReader(c).ReadString('\r')
		// Never responds; the command should time out.
		time.Sleep(2 * time.Second)
	}()

	tr := dialTestTransport(t, ln.Addr().String())
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := tr.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}

	_, err = tr.SendCommand(context.Background(), "^SU")
	if err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestTransportDisconnectIsIdempotent(t *testing.T) {
	tr := New(DefaultConfig(), nil)
	tr.SetMeta(model.PrinterIdentity{ID: 1, Addr: "127.0.0.1", Port: 9})
	tr.Disconnect()
	tr.Disconnect()
	if tr.State() != StateAbsent {
		t.Errorf("state = %v, want absent", tr.State())
	}
}

func TestStateString(t *testing.T) {
	cases := map[State]string{
		StateAbsent:  "absent",
		StateOpening: "opening",
		StateOpen:    "open",
		StateClosing: "closing",
		StateBroken:  "broken",
		State(99):    "unknown",
	}
	for state, want := range cases {
		if got := state.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", state, got, want)
		}
	}
}
