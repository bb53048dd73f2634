package model

import "time"

// ConnectedState exists at most once — iff a printer currently has a
// live Transport session in the Connection Manager.
type ConnectedState struct {
	Identity PrinterIdentity
	Status   Status
	Metrics  Metrics
	Settings Settings
	Messages []MessageRef
}

// Status holds the booleans and counters a `^SU`/`^CN` pair refresh.
type Status struct {
	HVOn        bool
	JetRunning  bool
	ProductCnt  int64
	PrintCnt    int64
	CustomCnt   [4]int64
	CurrentMsg  string // empty if unknown
	FirmwareVer string
	DeviceClock time.Time
	InkLevel    FluidLevel
	MakeupLevel FluidLevel
}

// Metrics holds the ink-system telemetry reported by `^SU`/`^TP`.
type Metrics struct {
	PowerHours     string // "HH:MM" as reported, not parsed to duration
	StreamHours    string
	Modulation     int
	Viscosity      float64
	Charge         int
	Pressure       int
	RPS            float64
	PhaseQuality   int
	HVDeflection   bool
	PrintStatus    string // raw "Print Status:" value, e.g. "Ready"
	AllowErrors    bool
	ErrorActive    bool
	PrintheadTemp  float64
	ElectronicTemp float64
	V300Up         bool
	VltOn          bool
	GutOn          bool
	ModOn          bool
}

// Settings holds per-message persistent configuration, readable via
// `^QP` and writable via save_global_adjust / save_message_settings.
type Settings struct {
	Width       int
	Height      int
	Delay       int
	Rotation    Rotation
	Bold        int // 0-9
	Speed       Speed
	Gap         int // 0-9
	Pitch       int
	RepeatCount int
	PrintMode   PrintMode
}

// MessageRef is one entry in the printer's stored message catalog.
type MessageRef struct {
	ID   int
	Name string // uppercased, unique within Messages
}
