package manager

import (
	"context"
	"strings"
	"time"

	"github.com/bestcode/printer-fleet-core/pkg/log"
	"github.com/bestcode/printer-fleet-core/pkg/model"
	"github.com/bestcode/printer-fleet-core/pkg/protocol"
)

// runInitialBurst runs once after Connect: open the transport, settle,
// then walk ^SU/^LM/^SM?/^CN/^VV/^SD strictly in sequence. Any single
// step's failure is logged; the next step is still attempted. It
// leaves the socket open for the Poller to take over.
func (m *Manager) runInitialBurst(ctx context.Context, identity model.PrinterIdentity) {
	m.mu.RLock()
	tr := m.tr
	m.mu.RUnlock()
	if tr == nil {
		return
	}

	if err := tr.Connect(ctx); err != nil {
		m.logBurstError(identity, "connect", err)
		m.mirrors.Update(identity.ID, func(mir *model.PrinterMirror) {
			mir.Status = model.StatusOffline
		})
		return
	}
	if m.poller != nil {
		m.poller.SetSocketReady(true)
	}

	resp, err := tr.SendCommand(ctx, "^SU")
	if err != nil {
		m.logBurstError(identity, "^SU", err)
	} else if frame, ok := protocol.ParseStatus(resp); ok {
		m.applyStatus(identity, frame)
	}

	currentKnown := false
	resp, err = tr.SendCommand(ctx, "^LM")
	if err != nil {
		m.logBurstError(identity, "^LM", err)
	} else {
		messages, current := protocol.ParseMessageList(resp)
		m.applyMessages(identity, messages, current)
		currentKnown = current != ""
	}

	if !currentKnown {
		resp, err = tr.SendCommand(ctx, "^SM")
		if err != nil {
			m.logBurstError(identity, "^SM", err)
		} else if name := lastNonNoiseLine(resp); name != "" {
			m.applyMessages(identity, nil, strings.ToUpper(name))
		}
	}

	resp, err = tr.SendCommand(ctx, "^CN")
	if err != nil {
		m.logBurstError(identity, "^CN", err)
	} else if counters, ok := protocol.ParseCounters(resp); ok {
		m.applyCounters(identity, counters)
	}

	resp, err = tr.SendCommand(ctx, "^VV")
	if err != nil {
		m.logBurstError(identity, "^VV", err)
	} else if version, ok := protocol.ParseVersion(resp); ok {
		m.applyVersion(identity, version)
	}

	resp, err = tr.SendCommand(ctx, "^SD")
	if err != nil {
		m.logBurstError(identity, "^SD", err)
	} else if ts, ok := protocol.ParseDeviceClock(resp); ok {
		m.applyDeviceClock(identity, ts)
	}
}

func lastNonNoiseLine(response string) string {
	lines := strings.Split(strings.ReplaceAll(response, "\r", "\n"), "\n")
	last := ""
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if l == "" || l == "//EOL" || strings.HasPrefix(l, ">") || strings.HasPrefix(l, "^") {
			continue
		}
		last = l
	}
	return last
}

func (m *Manager) logBurstError(identity model.PrinterIdentity, step string, err error) {
	m.logger.Log(log.Event{
		Timestamp: time.Now(),
		Layer:     log.LayerManager,
		Category:  log.CategoryError,
		PrinterID: identity.ID,
		Error: &log.ErrorEventData{
			Layer:   log.LayerManager,
			Message: err.Error(),
			Context: "initial burst: " + step,
		},
	})
}
