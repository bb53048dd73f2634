package manager

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/bestcode/printer-fleet-core/pkg/log"
	"github.com/bestcode/printer-fleet-core/pkg/model"
	"github.com/bestcode/printer-fleet-core/pkg/protocol"
)

// StartPrint implements start_print(): tries the spaced encoding first,
// then the compact one, per the adopted ^PR retry order. It never
// flips UI state optimistically; a confirmation ^SU is scheduled
// ~800ms later.
func (m *Manager) StartPrint(ctx context.Context) error {
	return m.setHV(ctx, true)
}

// StopPrint implements stop_print().
func (m *Manager) StopPrint(ctx context.Context) error {
	return m.setHV(ctx, false)
}

func (m *Manager) setHV(ctx context.Context, on bool) error {
	_, err := m.send(ctx, protocol.HVCommand(on, false))
	if err != nil {
		_, err = m.send(ctx, protocol.HVCommand(on, true))
	}
	if err != nil {
		return err
	}
	m.scheduleConfirm(800 * time.Millisecond)
	return nil
}

// JetStart / JetStop implement jet_start()/jet_stop(), confirmed via a
// ^SU issued ~1.5s later.
func (m *Manager) JetStart(ctx context.Context) error {
	return m.setJet(ctx, true)
}

func (m *Manager) JetStop(ctx context.Context) error {
	return m.setJet(ctx, false)
}

func (m *Manager) setJet(ctx context.Context, on bool) error {
	_, err := m.send(ctx, protocol.JetCommand(on))
	if err != nil {
		return err
	}
	m.scheduleConfirm(1500 * time.Millisecond)
	return nil
}

// scheduleConfirm issues a ^SU after delay to let the device settle
// before the confirmed state is applied; failure is silent, matching
// an ordinary poll tick.
func (m *Manager) scheduleConfirm(delay time.Duration) {
	id, ok := m.ConnectedID()
	if !ok {
		return
	}
	identity := m.identityFor(id)
	go func() {
		time.Sleep(delay)
		ctx, cancel := context.WithTimeout(context.Background(), 8*time.Second)
		defer cancel()
		resp, err := m.send(ctx, "^SU")
		if err != nil {
			return
		}
		if frame, ok := protocol.ParseStatus(resp); ok {
			m.applyStatus(identity, frame)
		}
	}()
}

func (m *Manager) identityFor(id int64) model.PrinterIdentity {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.connected != nil && m.connected.Identity.ID == id {
		return m.connected.Identity
	}
	return model.PrinterIdentity{ID: id}
}

// SelectMessage implements select_message(message).
func (m *Manager) SelectMessage(ctx context.Context, name string) error {
	_, err := m.send(ctx, protocol.SelectMessageCommand(name))
	if err != nil {
		return err
	}
	id, _ := m.ConnectedID()
	name = strings.ToUpper(name)
	m.mu.Lock()
	if m.connected != nil {
		m.connected.Status.CurrentMsg = name
	}
	m.mu.Unlock()
	m.mirrors.Update(id, func(mir *model.PrinterMirror) { mir.CurrentMsg = name })
	return nil
}

// CreateMessageOnPrinter implements create_message_on_printer(name):
// append locally, deduplicated by uppercase name, and emit a minimal
// ^NM so the device registers the name.
func (m *Manager) CreateMessageOnPrinter(ctx context.Context, name string) error {
	upper := strings.ToUpper(name)
	m.mu.Lock()
	exists := false
	if m.connected != nil {
		for _, msg := range m.connected.Messages {
			if msg.Name == upper {
				exists = true
				break
			}
		}
		if !exists {
			nextID := len(m.connected.Messages) + 1
			m.connected.Messages = append(m.connected.Messages, model.MessageRef{ID: nextID, Name: upper})
		}
	}
	m.mu.Unlock()

	field := protocol.Field{Index: 1, X: 0, Y: 0, Type: protocol.FieldText, Font: protocol.FontStandard7High, Data: " "}
	cmd := protocol.ComposeMessage(0, 0, 0, 0, upper, protocol.Template7, []protocol.Field{field})
	_, err := m.send(ctx, cmd)
	return err
}

// SaveMessageContent implements save_message_content(name, fields[],
// template, is_new).
func (m *Manager) SaveMessageContent(ctx context.Context, name string, speed, rotation, mode int, template protocol.Template, fields []protocol.Field, isNew bool) error {
	upper := strings.ToUpper(name)
	if !isNew {
		if _, err := m.send(ctx, protocol.DeleteMessageCommand(upper)); err != nil {
			return err
		}
	}
	cmd := protocol.ComposeMessage(0, speed, rotation, mode, upper, template, fields)
	_, err := m.send(ctx, cmd)
	return err
}

// DeleteMessage implements delete_message(id).
func (m *Manager) DeleteMessage(ctx context.Context, id int) error {
	var name string
	m.mu.Lock()
	if m.connected != nil {
		kept := m.connected.Messages[:0]
		for _, msg := range m.connected.Messages {
			if msg.ID == id {
				name = msg.Name
				continue
			}
			kept = append(kept, msg)
		}
		m.connected.Messages = kept
	}
	m.mu.Unlock()
	if name == "" {
		return nil
	}
	_, err := m.send(ctx, protocol.DeleteMessageCommand(name))
	return err
}

// ResetCounter implements reset_counter(id, value): ^CC now, a ^CN
// resync ~500ms later.
func (m *Manager) ResetCounter(ctx context.Context, id protocol.CounterID, value int64) error {
	_, err := m.send(ctx, protocol.SetCounterCommand(id, value))
	if err != nil {
		return err
	}
	m.scheduleCounterResync(500 * time.Millisecond)
	return nil
}

// ResetAllCounters implements reset_all_counters(): the six counter
// ids in the fixed order, each defaulting to zero.
func (m *Manager) ResetAllCounters(ctx context.Context) error {
	var firstErr error
	for _, id := range protocol.AllCounterIDs {
		if _, err := m.send(ctx, protocol.SetCounterCommand(id, 0)); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	m.scheduleCounterResync(500 * time.Millisecond)
	return firstErr
}

func (m *Manager) scheduleCounterResync(delay time.Duration) {
	id, ok := m.ConnectedID()
	if !ok {
		return
	}
	identity := m.identityFor(id)
	go func() {
		time.Sleep(delay)
		ctx, cancel := context.WithTimeout(context.Background(), 8*time.Second)
		defer cancel()
		m.queryCounters(ctx, identity)
	}()
}

// QueryCounters implements query_counters(): force a ^CN now.
func (m *Manager) QueryCounters(ctx context.Context) error {
	id, ok := m.ConnectedID()
	if !ok {
		return model.ErrNotConnected
	}
	return m.queryCounters(ctx, m.identityFor(id))
}

func (m *Manager) queryCounters(ctx context.Context, identity model.PrinterIdentity) error {
	resp, err := m.send(ctx, "^CN")
	if err != nil {
		return err
	}
	if c, ok := protocol.ParseCounters(resp); ok {
		m.applyCounters(identity, c)
	}
	return nil
}

// SaveGlobalAdjust implements save_global_adjust(settings): the seven
// commands in fixed order; failure of any one logs but does not abort
// the remainder.
func (m *Manager) SaveGlobalAdjust(ctx context.Context, a protocol.GlobalAdjust) {
	for _, cmd := range protocol.GlobalAdjustCommands(a) {
		if _, err := m.send(ctx, cmd); err != nil {
			m.logOperationError("save_global_adjust", cmd, err)
		}
	}
	m.mu.Lock()
	if m.connected != nil {
		s := &m.connected.Settings
		s.Width, s.Height, s.Delay, s.Bold, s.Gap, s.Pitch, s.RepeatCount =
			a.Width, a.Height, a.Delay, a.Bold, a.Gap, a.Pitch, a.Repeat
	}
	m.mu.Unlock()
}

// SaveMessageSettings implements save_message_settings({speed,
// rotation, print_mode}).
func (m *Manager) SaveMessageSettings(ctx context.Context, speed model.Speed, rotation model.Rotation, mode model.PrintMode) error {
	_, err := m.send(ctx, protocol.MessageSettingsCommand(int(speed), int(rotation), int(mode)))
	if err != nil {
		return err
	}
	m.mu.Lock()
	if m.connected != nil {
		m.connected.Settings.Speed = speed
		m.connected.Settings.Rotation = rotation
		m.connected.Settings.PrintMode = mode
	}
	m.mu.Unlock()
	return nil
}

// QueryPrintSettings implements query_print_settings(): ^QP, applying
// any field the device echoes back. The dialect is not enumerated by
// the spec beyond "width/height/delay/rotation/bold/speed/gap/pitch",
// so this accepts the same label:number shape ^SU/^CN use.
func (m *Manager) QueryPrintSettings(ctx context.Context) error {
	resp, err := m.send(ctx, protocol.QueryPrintSettingsCommand())
	if err != nil {
		return err
	}
	settings := parseSettingsResponse(resp)
	id, ok := m.ConnectedID()
	if !ok {
		return nil
	}
	m.mu.Lock()
	if m.connected != nil && m.connected.Identity.ID == id {
		merged := m.connected.Settings
		if settings.width != nil {
			merged.Width = *settings.width
		}
		if settings.height != nil {
			merged.Height = *settings.height
		}
		if settings.delay != nil {
			merged.Delay = *settings.delay
		}
		if settings.rotation != nil {
			merged.Rotation = model.Rotation(*settings.rotation)
		}
		if settings.bold != nil {
			merged.Bold = *settings.bold
		}
		if settings.speed != nil {
			merged.Speed = model.Speed(*settings.speed)
		}
		if settings.gap != nil {
			merged.Gap = *settings.gap
		}
		if settings.pitch != nil {
			merged.Pitch = *settings.pitch
		}
		m.connected.Settings = merged
	}
	m.mu.Unlock()
	return nil
}

// QueryPrinterMetrics implements query_printer_metrics(identity): an
// ephemeral transport issues ^SU then ^SD and closes, independent of
// any polling session for a different identity.
func (m *Manager) QueryPrinterMetrics(ctx context.Context, tr CommandConnector, identity model.PrinterIdentity) (model.Status, error) {
	if err := tr.Connect(ctx); err != nil {
		return model.Status{}, err
	}
	defer tr.Disconnect()

	var status model.Status
	if resp, err := tr.SendCommand(ctx, "^SU"); err == nil {
		if frame, ok := protocol.ParseStatus(resp); ok {
			if frame.InkLevel != nil {
				status.InkLevel = model.ParseFluidLevel(*frame.InkLevel)
			}
			if frame.MakeupLevel != nil {
				status.MakeupLevel = model.ParseFluidLevel(*frame.MakeupLevel)
			}
			if frame.HVDeflection != nil {
				status.HVOn = *frame.HVDeflection
			}
			if frame.VltOn != nil {
				status.JetRunning = *frame.VltOn
			}
			if frame.CurrentMessage != nil {
				status.CurrentMsg = *frame.CurrentMessage
			}
		}
	}
	if resp, err := tr.SendCommand(ctx, "^SD"); err == nil {
		if ts, ok := protocol.ParseDeviceClock(resp); ok {
			status.DeviceClock = ts
		}
	}
	return status, nil
}

// CommandConnector is the narrow seam QueryPrinterMetrics needs from
// an ephemeral transport (internal/transport.Transport satisfies it).
type CommandConnector interface {
	Connect(ctx context.Context) error
	SendCommand(ctx context.Context, raw string) (string, error)
	Disconnect()
}

func (m *Manager) logOperationError(op, cmd string, err error) {
	m.logger.Log(log.Event{
		Timestamp: time.Now(),
		Layer:     log.LayerManager,
		Category:  log.CategoryError,
		Error: &log.ErrorEventData{
			Layer:   log.LayerManager,
			Message: err.Error(),
			Context: op + ": " + cmd,
		},
	})
}

// parsedSettings holds the optional fields query_print_settings may
// recover from a ^QP response; nil means the device omitted it.
type parsedSettings struct {
	width, height, delay, rotation, bold, speed, gap, pitch *int
}

var settingsFieldRe = regexp.MustCompile(`(?i)(width|height|delay|rotation|bold|speed|gap|pitch)\s*[:=]\s*(-?\d+)`)

// parseSettingsResponse applies the same label:number leniency the
// ^SU/^CN dialects use, since the device's ^QP echo format is not
// otherwise enumerated.
func parseSettingsResponse(response string) parsedSettings {
	var out parsedSettings
	for _, match := range settingsFieldRe.FindAllStringSubmatch(response, -1) {
		n, err := strconv.Atoi(match[2])
		if err != nil {
			continue
		}
		v := n
		switch strings.ToLower(match[1]) {
		case "width":
			out.width = &v
		case "height":
			out.height = &v
		case "delay":
			out.delay = &v
		case "rotation":
			out.rotation = &v
		case "bold":
			out.bold = &v
		case "speed":
			out.speed = &v
		case "gap":
			out.gap = &v
		case "pitch":
			out.pitch = &v
		}
	}
	return out
}
