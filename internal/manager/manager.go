package manager

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/bestcode/printer-fleet-core/internal/poller"
	"github.com/bestcode/printer-fleet-core/internal/transport"
	"github.com/bestcode/printer-fleet-core/pkg/config"
	"github.com/bestcode/printer-fleet-core/pkg/log"
	"github.com/bestcode/printer-fleet-core/pkg/model"
	"github.com/bestcode/printer-fleet-core/pkg/protocol"
)

// Subscriber receives a broadcast on connect, on disconnect, after each
// applied ^SU frame, and after each command-log append, mirroring the
// subscription API consumed from the HMI shell (§6: "subscription API
// on which the HMI registers (state_change, log_append) callbacks").
// Other ConnectedState updates (counters, message catalog, current
// message, settings, clock, version, temperatures) are not broadcast.
type Subscriber func(event StateEvent)

// StateEvent is the single-writer/many-reader snapshot broadcast on the
// mutations listed on Subscriber.
type StateEvent struct {
	Kind      string // "connection" | "mirror" | "log_append"
	Connected *model.ConnectedState
	Mirror    *model.PrinterMirror
	LogEntry  *model.CommandLogEntry
}

// Manager is the Connection Manager of §4.5.
type Manager struct {
	mu sync.RWMutex

	mirrors *model.MirrorStore
	cfg     *config.Config
	logger  log.Logger

	connected  *model.ConnectedState
	tr         *transport.Transport
	cmdLog     *model.CommandLog
	signedIn   bool
	consecFail int

	poller *poller.Poller

	subsMu sync.Mutex
	subs   []Subscriber
}

// New constructs a Manager with no connected printer.
func New(mirrors *model.MirrorStore, cfg *config.Config, logger log.Logger) *Manager {
	if logger == nil {
		logger = log.NoopLogger{}
	}
	return &Manager{
		mirrors: mirrors,
		cfg:     cfg,
		logger:  logger,
		cmdLog:  model.NewCommandLog(cfg.CommandLogCapacity()),
	}
}

// ConnectedID satisfies availability.ConnectedIdentifier.
func (m *Manager) ConnectedID() (int64, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.connected == nil {
		return 0, false
	}
	return m.connected.Identity.ID, true
}

// ConnectedWentOffline satisfies availability.OfflineNotifier: the
// Availability Supervisor calls this when the connected identity's own
// reachability streak crosses the offline threshold.
func (m *Manager) ConnectedWentOffline(id int64) {
	m.mu.RLock()
	match := m.connected != nil && m.connected.Identity.ID == id
	m.mu.RUnlock()
	if match {
		m.Disconnect()
	}
}

// Subscribe registers fn for future state broadcasts.
func (m *Manager) Subscribe(fn Subscriber) {
	m.subsMu.Lock()
	defer m.subsMu.Unlock()
	m.subs = append(m.subs, fn)
}

func (m *Manager) broadcast(ev StateEvent) {
	m.subsMu.Lock()
	subs := append([]Subscriber(nil), m.subs...)
	m.subsMu.Unlock()
	for _, fn := range subs {
		fn(ev)
	}
}

func (m *Manager) transportConfig() transport.Config {
	return transport.Config{
		CommandTimeout:    m.cfg.CommandTimeout(),
		ConnectTimeout:    5 * time.Second,
		PostConnectSettle: m.cfg.PostConnectSettle(),
		IdleGap:           250 * time.Millisecond,
	}
}

// AttachPoller wires a Serialized Poller so connect/disconnect keep its
// connected/socket_ready flags in sync automatically.
func (m *Manager) AttachPoller(p *poller.Poller) {
	m.poller = p
}

// Connect implements connect(identity): any previous connection is
// torn down first, a fresh ConnectedState is seeded, the mirror is
// marked available/not_ready, and the initial burst is scheduled. The
// call returns before the burst completes.
func (m *Manager) Connect(ctx context.Context, identity model.PrinterIdentity) {
	m.Disconnect()

	m.mu.Lock()
	m.connected = &model.ConnectedState{
		Identity: identity,
		Settings: model.Settings{},
		Messages: nil,
	}
	m.tr = transport.New(m.transportConfig(), m.logger)
	m.tr.SetMeta(identity)
	m.signedIn = false
	m.consecFail = 0
	m.mu.Unlock()

	m.mirrors.Upsert(identity)
	m.mirrors.Update(identity.ID, func(mir *model.PrinterMirror) {
		mir.Availability = model.Available
		mir.Status = model.StatusNotReady
	})

	if m.poller != nil {
		m.poller.SetConnected(true)
	}

	m.broadcast(StateEvent{Kind: "connection", Connected: m.snapshotConnected()})

	go m.runInitialBurst(ctx, identity)
}

// Disconnect implements disconnect(): close transport, clear
// socket_ready, drop ConnectedState. The mirror is not updated:
// PrinterMirror has no connected flag, and its Availability and Status
// keep their last values.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	tr := m.tr
	connected := m.connected
	m.tr = nil
	m.connected = nil
	m.signedIn = false
	m.mu.Unlock()

	if m.poller != nil {
		m.poller.SetConnected(false)
		m.poller.SetSocketReady(false)
	}
	if tr != nil {
		tr.Disconnect()
	}
	if connected != nil {
		m.broadcast(StateEvent{Kind: "connection", Connected: nil})
	}
}

func (m *Manager) snapshotConnected() *model.ConnectedState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.connected == nil {
		return nil
	}
	cp := *m.connected
	return &cp
}

// send is the shared low-level path every operation funnels through:
// it serializes against the Poller via the Transport's own mutex,
// appends to the command log, and tracks the three-consecutive-
// failure auto-disconnect rule across every caller, poller-invoked
// and user-invoked alike.
func (m *Manager) send(ctx context.Context, raw string) (string, error) {
	m.mu.RLock()
	tr := m.tr
	m.mu.RUnlock()
	if tr == nil {
		return "", model.ErrNotConnected
	}

	resp, err := tr.SendCommand(ctx, raw)

	entry := model.CommandLogEntry{Direction: model.LogSent, Timestamp: time.Now(), Command: raw}
	m.cmdLog.Append(entry)
	respEntry := model.CommandLogEntry{Direction: model.LogReceived, Timestamp: time.Now(), Command: raw, Response: resp}
	m.cmdLog.Append(respEntry)
	m.broadcast(StateEvent{Kind: "log_append", LogEntry: &respEntry})

	m.mu.Lock()
	if err != nil {
		m.consecFail++
	} else {
		m.consecFail = 0
	}
	shouldDisconnect := m.consecFail >= 3
	m.mu.Unlock()

	if shouldDisconnect {
		m.Disconnect()
	}

	if err == nil && protocol.IsCommandFailed(resp) {
		return resp, model.ErrCommandRejected
	}
	return resp, err
}

// SendCommand implements send_command(raw): the free-form passthrough
// terminal operation.
func (m *Manager) SendCommand(ctx context.Context, raw string) (bool, string) {
	resp, err := m.send(ctx, raw)
	return err == nil, resp
}

// CommandLogSnapshot exposes the append-only ring buffer for
// diagnostics export.
func (m *Manager) CommandLogSnapshot() []model.CommandLogEntry {
	return m.cmdLog.Snapshot()
}

// Mirrors exposes the printers snapshot surface (§6).
func (m *Manager) Mirrors() []model.PrinterMirror {
	return m.mirrors.All()
}

// ConnectedSnapshot exposes the connection_state snapshot surface (§6).
func (m *Manager) ConnectedSnapshot() *model.ConnectedState {
	return m.snapshotConnected()
}

// SetDashboardOpen / SetServiceOpen implement the foreground-screen
// flags (§6), forwarded to the attached Poller.
func (m *Manager) SetDashboardOpen(open bool) {
	if m.poller != nil {
		m.poller.SetDashboardOpen(open)
	}
}

func (m *Manager) SetServiceOpen(open bool) {
	if m.poller != nil {
		m.poller.SetServiceOpen(open)
	}
}

// SignIn implements sign_in(password): try ^LG first; on
// command_rejected, fall back to the locally configured bcrypt hash.
func (m *Manager) SignIn(ctx context.Context, password string) error {
	resp, err := m.send(ctx, protocol.SignInCommand(password))
	if err == nil {
		m.mu.Lock()
		m.signedIn = true
		m.mu.Unlock()
		return nil
	}
	if err != model.ErrCommandRejected {
		return err
	}

	hash := m.cfg.FallbackPasswordHash()
	if hash == "" {
		return fmt.Errorf("%w: device rejected ^LG and no local fallback is configured", model.ErrAuthFailed)
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return fmt.Errorf("%w: %s", model.ErrAuthFailed, strings.TrimSpace(resp))
	}
	m.mu.Lock()
	m.signedIn = true
	m.mu.Unlock()
	return nil
}

// SignOut implements sign_out(): a successful local sign-out clears
// the HMI-side elevated privilege even if the device rejects ^LO.
func (m *Manager) SignOut(ctx context.Context) error {
	_, err := m.send(ctx, protocol.SignOutCommand())
	m.mu.Lock()
	m.signedIn = false
	m.mu.Unlock()
	if err != nil && err != model.ErrCommandRejected {
		return err
	}
	return nil
}

func (m *Manager) SignedIn() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.signedIn
}
