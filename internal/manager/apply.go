package manager

import (
	"time"

	"github.com/bestcode/printer-fleet-core/pkg/model"
	"github.com/bestcode/printer-fleet-core/pkg/protocol"
)

// applyStatus merges a parsed ^SU frame into ConnectedState and the
// mirror. Only non-nil fields are merged (§7: "parses to nothing ->
// treat as no change; never fabricate a READY status").
//
// The protocol carries no field named for HV/jet directly: HVOn is
// taken from the HVD[] deflection flag (the precondition for printing)
// and JetRunning from VLT_ON, the closest subsystem flag to "ink
// stream running" the dialect exposes. Neither is independently
// verified against hardware; see DESIGN.md.
func (m *Manager) applyStatus(identity model.PrinterIdentity, frame protocol.StatusFrame) {
	m.mu.Lock()
	if m.connected != nil && m.connected.Identity.ID == identity.ID {
		st := &m.connected.Status
		me := &m.connected.Metrics
		if frame.HVDeflection != nil {
			st.HVOn = *frame.HVDeflection
			me.HVDeflection = *frame.HVDeflection
		}
		if frame.VltOn != nil {
			st.JetRunning = *frame.VltOn
			me.VltOn = *frame.VltOn
		}
		if frame.InkLevel != nil {
			st.InkLevel = model.ParseFluidLevel(*frame.InkLevel)
		}
		if frame.MakeupLevel != nil {
			st.MakeupLevel = model.ParseFluidLevel(*frame.MakeupLevel)
		}
		if frame.CurrentMessage != nil {
			st.CurrentMsg = *frame.CurrentMessage
		}
		if frame.Modulation != nil {
			me.Modulation = *frame.Modulation
		}
		if frame.Charge != nil {
			me.Charge = *frame.Charge
		}
		if frame.Pressure != nil {
			me.Pressure = *frame.Pressure
		}
		if frame.PhaseQuality != nil {
			me.PhaseQuality = *frame.PhaseQuality
		}
		if frame.RPS != nil {
			me.RPS = *frame.RPS
		}
		if frame.Viscosity != nil {
			me.Viscosity = *frame.Viscosity
		}
		if frame.ErrorActive != nil {
			me.ErrorActive = *frame.ErrorActive
		}
		if frame.AllowErrors != nil {
			me.AllowErrors = *frame.AllowErrors
		}
		if frame.V300Up != nil {
			me.V300Up = *frame.V300Up
		}
		if frame.GutOn != nil {
			me.GutOn = *frame.GutOn
		}
		if frame.ModOn != nil {
			me.ModOn = *frame.ModOn
		}
		if frame.PowerHours != nil {
			me.PowerHours = *frame.PowerHours
		}
		if frame.StreamHours != nil {
			me.StreamHours = *frame.StreamHours
		}
		if frame.PrintStatus != nil {
			me.PrintStatus = *frame.PrintStatus
		}
	}
	m.mu.Unlock()

	m.mirrors.Update(identity.ID, func(mir *model.PrinterMirror) {
		if frame.InkLevel != nil {
			mir.InkLevel = model.ParseFluidLevel(*frame.InkLevel)
		}
		if frame.MakeupLevel != nil {
			mir.MakeupLevel = model.ParseFluidLevel(*frame.MakeupLevel)
		}
		if frame.CurrentMessage != nil {
			mir.CurrentMsg = *frame.CurrentMessage
		}
		if frame.ErrorActive != nil {
			mir.HasActiveErrors = *frame.ErrorActive
		}
		if frame.IsReady() {
			mir.Status = model.StatusReady
		} else if frame.PrintStatus != nil {
			mir.Status = model.StatusNotReady
		}
	})

	m.broadcast(StateEvent{Kind: "mirror"})
}

func (m *Manager) applyCounters(identity model.PrinterIdentity, c protocol.Counters) {
	m.mu.Lock()
	if m.connected != nil && m.connected.Identity.ID == identity.ID {
		m.connected.Status.ProductCnt = c.Product
		m.connected.Status.PrintCnt = c.Print
		m.connected.Status.CustomCnt = c.Custom
	}
	m.mu.Unlock()

	m.mirrors.Update(identity.ID, func(mir *model.PrinterMirror) {
		mir.LastPrintCnt = c.Print
	})
}

// applyMessages applies a ^LM parse (messages) and/or a recovered
// current-message name (current) — two independent updates, since the
// ^SM fallback in runInitialBurst calls this with messages == nil to
// set only the current name. A ^LM response that carried only noise
// lines parses to an empty messages slice; that must leave the
// existing catalog untouched rather than wipe it, so the catalog is
// only ever replaced when messages is non-empty.
func (m *Manager) applyMessages(identity model.PrinterIdentity, messages []protocol.ParsedMessage, current string) {
	if len(messages) == 0 && current == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.connected == nil || m.connected.Identity.ID != identity.ID {
		return
	}
	if len(messages) > 0 {
		refs := make([]model.MessageRef, len(messages))
		for i, pm := range messages {
			refs[i] = model.MessageRef{ID: pm.ID, Name: pm.Name}
		}
		m.connected.Messages = refs
	}
	if current != "" {
		m.connected.Status.CurrentMsg = current
	}
}

func (m *Manager) applyTemperature(identity model.PrinterIdentity, f protocol.TemperatureFrame) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.connected == nil || m.connected.Identity.ID != identity.ID {
		return
	}
	m.connected.Metrics.PrintheadTemp = f.Printhead
	m.connected.Metrics.ElectronicTemp = f.Electronic
}

func (m *Manager) applyDeviceClock(identity model.PrinterIdentity, t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.connected == nil || m.connected.Identity.ID != identity.ID {
		return
	}
	m.connected.Status.DeviceClock = t
}

func (m *Manager) applyVersion(identity model.PrinterIdentity, version string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.connected == nil || m.connected.Identity.ID != identity.ID {
		return
	}
	m.connected.Status.FirmwareVer = version
}
