package manager

import (
	"context"

	"github.com/bestcode/printer-fleet-core/internal/poller"
	"github.com/bestcode/printer-fleet-core/internal/transport"
	"github.com/bestcode/printer-fleet-core/pkg/log"
	"github.com/bestcode/printer-fleet-core/pkg/model"
	"github.com/bestcode/printer-fleet-core/pkg/protocol"
)

// pollerSender adapts Manager's serialized send() to poller.CommandSender;
// Manager itself can't satisfy that interface directly since it already
// exposes a differently-shaped SendCommand for the passthrough operation.
type pollerSender struct{ m *Manager }

func (p pollerSender) SendCommand(ctx context.Context, raw string) (string, error) {
	return p.m.send(ctx, raw)
}

// connectedIdentity returns the full identity of the currently
// connected printer, if any, for a poller step handler to apply its
// parsed response against.
func (m *Manager) connectedIdentity() (model.PrinterIdentity, bool) {
	id, ok := m.ConnectedID()
	if !ok {
		return model.PrinterIdentity{}, false
	}
	return m.identityFor(id), true
}

// NewPoller builds a Serialized Poller over the fixed [^SU, ^LM, ^CN,
// ^TP, ^SD] rotation, with the ^SD-only clock step reused for the
// reduced loop, each handler wired to this Manager's own apply
// methods. The caller still owns AttachPoller, Start and Stop.
func (m *Manager) NewPoller(cfg poller.Config, logger log.Logger) *poller.Poller {
	sdStep := poller.Step{Command: "^SD", Handle: func(resp string, err error) {
		if err != nil {
			return
		}
		identity, ok := m.connectedIdentity()
		if !ok {
			return
		}
		if ts, ok := protocol.ParseDeviceClock(resp); ok {
			m.applyDeviceClock(identity, ts)
		}
	}}

	steps := []poller.Step{
		{Command: "^SU", Handle: func(resp string, err error) {
			if err != nil {
				return
			}
			identity, ok := m.connectedIdentity()
			if !ok {
				return
			}
			if frame, ok := protocol.ParseStatus(resp); ok {
				m.applyStatus(identity, frame)
			}
		}},
		{Command: "^LM", Handle: func(resp string, err error) {
			if err != nil {
				return
			}
			identity, ok := m.connectedIdentity()
			if !ok {
				return
			}
			messages, current := protocol.ParseMessageList(resp)
			m.applyMessages(identity, messages, current)
		}},
		{Command: "^CN", Handle: func(resp string, err error) {
			if err != nil {
				return
			}
			identity, ok := m.connectedIdentity()
			if !ok {
				return
			}
			if counters, ok := protocol.ParseCounters(resp); ok {
				m.applyCounters(identity, counters)
			}
		}},
		{Command: "^TP", Handle: func(resp string, err error) {
			if err != nil {
				return
			}
			identity, ok := m.connectedIdentity()
			if !ok {
				return
			}
			if frame, ok := protocol.ParseTemperature(resp); ok {
				m.applyTemperature(identity, frame)
			}
		}},
		sdStep,
	}

	return poller.New(pollerSender{m}, cfg, steps, sdStep, logger)
}

// ProbeTransportConfig exposes the Manager's transport timing
// constants for an Availability Supervisor's ephemeral reachability
// probes, so both share one source of truth (pkg/config).
func (m *Manager) ProbeTransportConfig() transport.Config {
	return m.transportConfig()
}
