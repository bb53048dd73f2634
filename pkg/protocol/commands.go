package protocol

import (
	"fmt"
	"strings"
)

// HVCommand formats the HV on/off command. compact selects the
// compact encoding (`^PR1`) tried only after the spaced form
// (`^PR 1`) has failed, per the spec's adopted retry order.
func HVCommand(on bool, compact bool) string {
	bit := "0"
	if on {
		bit = "1"
	}
	if compact {
		return "^PR" + bit
	}
	return "^PR " + bit
}

// JetCommand formats the jet on/off command.
func JetCommand(on bool) string {
	bit := "0"
	if on {
		bit = "1"
	}
	return "^SJ " + bit
}

// SelectMessageCommand formats the select-message command.
func SelectMessageCommand(name string) string {
	return "^SM " + name
}

// CounterID identifies which counter a `^CC` command targets.
type CounterID int

const (
	CounterPrint   CounterID = 0
	CounterCustom1 CounterID = 1
	CounterCustom2 CounterID = 2
	CounterCustom3 CounterID = 3
	CounterCustom4 CounterID = 4
	CounterProduct CounterID = 6
)

// AllCounterIDs is the fixed order reset_all_counters issues commands in.
var AllCounterIDs = []CounterID{CounterProduct, CounterPrint, CounterCustom1, CounterCustom2, CounterCustom3, CounterCustom4}

// SetCounterCommand formats a counter set/reset command.
func SetCounterCommand(id CounterID, value int64) string {
	return fmt.Sprintf("^CC %d;%d", id, value)
}

// GlobalAdjust carries the seven parameters save_global_adjust emits as
// separate commands, applied to the active message.
type GlobalAdjust struct {
	Width  int // ^PW
	Height int // ^PH
	Delay  int // ^DA
	Bold   int // ^SB, 0-9
	Gap    int // ^GP, 0-9
	Pitch  int // ^PA
	Repeat int // ^RA
}

// GlobalAdjustCommands returns the seven commands in the fixed order
// save_global_adjust issues them (`^PW`, `^PH`, `^DA`, `^SB`, `^GP`,
// `^PA`, `^RA`). Failure of any one is logged by the caller but does
// not abort the remainder.
func GlobalAdjustCommands(a GlobalAdjust) []string {
	return []string{
		fmt.Sprintf("^PW %d", a.Width),
		fmt.Sprintf("^PH %d", a.Height),
		fmt.Sprintf("^DA %d", a.Delay),
		fmt.Sprintf("^SB %d", a.Bold),
		fmt.Sprintf("^GP %d", a.Gap),
		fmt.Sprintf("^PA %d", a.Pitch),
		fmt.Sprintf("^RA %d", a.Repeat),
	}
}

// MessageSettingsCommand formats the per-message persistent settings
// command: speed (0-3), orientation/rotation (0-7), print mode (0-3).
// Values mirror model.Speed/model.Rotation/model.PrintMode 1:1.
func MessageSettingsCommand(speed, rotation, mode int) string {
	return fmt.Sprintf("^CM s%d;o%d;p%d", speed, rotation, mode)
}

// DeleteMessageCommand formats the delete-message command, sent before
// `^NM` when overwriting an existing message.
func DeleteMessageCommand(name string) string {
	return "^DM " + name
}

// FieldType discriminates the message field builders in §4.2.5.
type FieldType uint8

const (
	FieldText FieldType = iota
	FieldUserDefine
	FieldDate
	FieldTime
	FieldCounter
	FieldBarcode
	FieldLogo
)

// Field is one subcommand appended after `^NM`'s header. Y is the
// nominal (pre-remap) coordinate; composers apply the template offset.
type Field struct {
	Index int
	X, Y  int
	Type  FieldType
	Font  Font   // FieldText / FieldUserDefine
	Size  int    // FieldDate / FieldTime / FieldCounter / FieldBarcode "s" param
	Data  string // text or barcode payload
	Name  string // FieldLogo
}

// build formats one field's subcommand, given an already-remapped y.
func (f Field) build(y int) string {
	switch f.Type {
	case FieldText, FieldUserDefine:
		return fmt.Sprintf("^AT%d;%d;%d;%d;%s", f.Index, f.X, y, f.Font, f.Data)
	case FieldDate:
		return fmt.Sprintf("^AD%d;%d;%d;%d;12", f.Index, f.X, y, f.Size)
	case FieldTime:
		return fmt.Sprintf("^AH%d;%d;%d;%d;7", f.Index, f.X, y, f.Size)
	case FieldCounter:
		return fmt.Sprintf("^AC%d;%d;%d;%d;0", f.Index, f.X, y, f.Size)
	case FieldBarcode:
		return fmt.Sprintf("^AB%d;%d;%d;%d;6;0;1;%s", f.Index, f.X, y, f.Size, f.Data)
	case FieldLogo:
		return fmt.Sprintf("^AL%d;%d;%d;%s", f.Index, f.X, y, f.Name)
	default:
		return ""
	}
}

// ComposeMessage builds the full `^NM` command for creating or
// overwriting a message: header plus one field subcommand per entry,
// with each field's y-coordinate remapped by the template's blocked
// rows (see RemapY). msgType is the `^NM` header's leading parameter;
// the only documented scenario uses 0 and no further dialect has been
// observed, so non-zero values are accepted but unverified against
// hardware.
func ComposeMessage(msgType, speed, rotation, mode int, name string, template Template, fields []Field) string {
	out := fmt.Sprintf("^NM %d;%d;%d;%d;%s", msgType, speed, rotation, mode, name)
	for _, f := range fields {
		out += f.build(RemapY(f.Y, template))
	}
	return out
}

// SignInCommand formats the protocol-level sign-in command. `^LG` is
// optional: the device may reply `command_rejected`, in which case the
// caller falls back to a locally-configured password check.
func SignInCommand(password string) string {
	return "^LG " + password
}

// SignOutCommand formats the protocol-level sign-out command.
func SignOutCommand() string {
	return "^LO"
}

// QueryPrintSettingsCommand formats the settings query command.
func QueryPrintSettingsCommand() string {
	return "^QP"
}

// IsCommandFailed reports whether a raw response carries the device's
// COMMAND FAILED rejection marker.
func IsCommandFailed(response string) bool {
	return strings.Contains(strings.ToUpper(response), "COMMAND FAILED")
}

// IsCommandSuccessful reports whether a raw response carries the
// device's COMMAND SUCCESSFUL acknowledgement.
func IsCommandSuccessful(response string) bool {
	return strings.Contains(strings.ToUpper(response), "COMMAND SUCCESSFUL")
}
