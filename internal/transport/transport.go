package transport

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/bestcode/printer-fleet-core/pkg/log"
	"github.com/bestcode/printer-fleet-core/pkg/model"
)

// Config bundles the timing constants a Transport is governed by. All
// are process-wide configuration constants (see pkg/config) threaded
// through at construction time.
type Config struct {
	CommandTimeout    time.Duration // default 8s
	ConnectTimeout    time.Duration // default ~5s
	PostConnectSettle time.Duration // default 1s
	IdleGap           time.Duration // default 250ms
}

// DefaultConfig returns the spec's documented defaults.
func DefaultConfig() Config {
	return Config{
		CommandTimeout:    8 * time.Second,
		ConnectTimeout:    5 * time.Second,
		PostConnectSettle: 1 * time.Second,
		IdleGap:           250 * time.Millisecond,
	}
}

const sentinel = "//EOL"

// Transport owns the TCP session for one printer identity.
type Transport struct {
	cfg    Config
	logger log.Logger

	// identity is set by set_meta and read without locking once
	// connect has not yet raced with another set_meta call; callers
	// own the single-writer discipline described in the manager.
	identity model.PrinterIdentity
	connID   string

	state atomic.Int32

	// cmdMu serializes send_command calls for this identity: a second
	// concurrent caller waits for the first to finish.
	cmdMu sync.Mutex

	mu       sync.Mutex // guards conn/reader/cancel below
	conn     net.Conn
	reader   *bufio.Reader
	lines    chan string
	readDone chan struct{}
	cancel   context.CancelFunc
}

// New creates a Transport with no socket open. Call SetMeta before
// Connect or SendCommand.
func New(cfg Config, logger log.Logger) *Transport {
	if logger == nil {
		logger = log.NoopLogger{}
	}
	t := &Transport{cfg: cfg, logger: logger}
	t.state.Store(int32(StateAbsent))
	return t
}

// SetMeta registers the identity's address/port without opening a
// socket; a later Connect dials that address. SendCommand does not
// open the socket on demand.
func (t *Transport) SetMeta(identity model.PrinterIdentity) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.identity = identity
}

// State returns the current socket lifecycle state.
func (t *Transport) State() State {
	return State(t.state.Load())
}

// Connect is idempotent: it establishes the socket, negotiates Telnet
// options, and waits out the device's post-connect settling window
// before the first command becomes legal.
func (t *Transport) Connect(ctx context.Context) error {
	if t.State() == StateOpen {
		return nil
	}

	t.mu.Lock()
	identity := t.identity
	t.mu.Unlock()

	t.setState(StateOpening, "connect requested")

	dialCtx, cancelDial := context.WithTimeout(ctx, t.cfg.ConnectTimeout)
	defer cancelDial()

	addr := fmt.Sprintf("%s:%d", identity.Addr, identity.Port)
	conn, err := (&net.Dialer{}).DialContext(dialCtx, "tcp", addr)
	if err != nil {
		t.setState(StateAbsent, "dial failed")
		return fmt.Errorf("%w: dial %s: %v", model.ErrTransportBroken, addr, err)
	}

	if err := negotiateTelnet(conn); err != nil {
		conn.Close()
		t.setState(StateAbsent, "telnet negotiation failed")
		return fmt.Errorf("%w: telnet negotiation: %v", model.ErrTransportBroken, err)
	}

	connID := uuid.NewString()
	readCtx, cancel := context.WithCancel(context.Background())

	t.mu.Lock()
	t.conn = conn
	t.reader = bufio.NewReader(conn)
	t.lines = make(chan string, 16)
	t.readDone = make(chan struct{})
	t.cancel = cancel
	t.connID = connID
	t.mu.Unlock()

	go t.readLoop(readCtx)

	select {
	case <-time.After(t.cfg.PostConnectSettle):
	case <-ctx.Done():
		t.teardown("settle window canceled")
		return ctx.Err()
	}

	t.setState(StateOpen, "socket ready")
	return nil
}

// SendCommand writes raw (terminated internally with CR) and collects
// its framed response. Concurrent calls for this identity are
// serialized: the second call waits for the first to complete.
func (t *Transport) SendCommand(ctx context.Context, raw string) (string, error) {
	t.cmdMu.Lock()
	defer t.cmdMu.Unlock()

	if t.State() != StateOpen {
		return "", model.ErrNotConnected
	}

	t.mu.Lock()
	conn := t.conn
	lines := t.lines
	t.mu.Unlock()
	if conn == nil {
		return "", model.ErrNotConnected
	}

	drainLines(lines)

	start := time.Now()
	if _, err := conn.Write([]byte(raw + "\r")); err != nil {
		t.teardown("write failed")
		return "", fmt.Errorf("%w: %v", model.ErrTransportBroken, err)
	}
	t.logEvent(log.DirectionOut, &log.CommandEvent{Command: raw})

	resp, err := collectResponse(ctx, lines, t.cfg.CommandTimeout, t.cfg.IdleGap)
	success := err == nil
	t.logEvent(log.DirectionIn, &log.CommandEvent{
		Command:        raw,
		Response:       resp,
		Success:        success,
		ProcessingTime: time.Since(start),
	})

	if err != nil {
		if err == errCommandTimeout {
			return "", fmt.Errorf("%w: %s", model.ErrTransportTimeout, raw)
		}
		t.teardown("response collection failed")
		return "", fmt.Errorf("%w: %v", model.ErrTransportBroken, err)
	}

	return resp, nil
}

// Disconnect closes the socket; safe to call from any state.
func (t *Transport) Disconnect() {
	if t.State() == StateAbsent {
		return
	}
	t.setState(StateClosing, "disconnect requested")
	t.teardown("disconnect")
	t.setState(StateAbsent, "disconnected")
}

func (t *Transport) teardown(reason string) {
	t.mu.Lock()
	conn := t.conn
	cancel := t.cancel
	done := t.readDone
	t.conn = nil
	t.reader = nil
	t.cancel = nil
	t.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		conn.Close()
	}
	if done != nil {
		<-done
	}
	if t.State() != StateAbsent && t.State() != StateClosing {
		t.setState(StateBroken, reason)
	}
}

func (t *Transport) setState(s State, reason string) {
	old := State(t.state.Swap(int32(s)))
	if old == s {
		return
	}
	t.logger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: t.connID,
		Direction:    log.DirectionOut,
		Layer:        log.LayerTransport,
		Category:     log.CategoryState,
		PrinterID:    t.identity.ID,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntitySocket,
			OldState: old.String(),
			NewState: s.String(),
			Reason:   reason,
		},
	})
}

func (t *Transport) logEvent(dir log.Direction, cmd *log.CommandEvent) {
	t.logger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: t.connID,
		Direction:    dir,
		Layer:        log.LayerProtocol,
		Category:     log.CategoryCommand,
		PrinterID:    t.identity.ID,
		Command:      cmd,
	})
}

// drainLines discards any lines already sitting in the buffered
// channel. A line received while no command is outstanding (the
// device sending an unsolicited ambient line, per spec §6) must not
// be allowed to satisfy the next issued command's read; SendCommand
// calls this immediately before writing, so only lines produced after
// the write can frame the response.
func drainLines(ch <-chan string) {
	for {
		select {
		case <-ch:
		default:
			return
		}
	}
}

// readLoop pushes complete lines onto t.lines until the socket closes
// or ctx is canceled. Lines received with no command outstanding
// accumulate in the buffered channel; SendCommand drains them before
// writing its own command so a stale ambient line never satisfies the
// next command's read.
func (t *Transport) readLoop(ctx context.Context) {
	t.mu.Lock()
	reader := t.reader
	lines := t.lines
	done := t.readDone
	t.mu.Unlock()

	defer close(done)

	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
		if err != nil {
			return
		}
		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}
