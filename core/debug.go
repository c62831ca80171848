package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// Event captures an engine lifecycle event for post-mortem analysis
type Event struct {
	Type   uint8  // Event type code
	Pin    uint32 // Channel pin, 0 for engine-wide events
	Value1 uint32 // Context-dependent value
	Value2 uint32 // Context-dependent value
}

// Event type codes
const (
	EvtConfigure    = 1 // Tick rate derived (reload, divisor)
	EvtSaturated    = 2 // Requested frequency clamped (frequency, reload)
	EvtArm          = 3 // Tick interrupt armed (reload)
	EvtEnable       = 4 // Channel took a slot
	EvtDisable      = 5 // Channel released its slot
	EvtHalt         = 6 // Last channel gone, tick source stopped
	EvtRegistryFull = 7 // Enable refused (capacity)
	EvtReset        = 8 // Engine reset
)

const (
	EventRingSize = 32 // Keep last 32 events
)

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// debugEnabled controls whether DebugPrintln output is active
	debugEnabled bool = false

	// Event ring buffer, written from the main line only
	eventRing     [EventRingSize]Event
	eventRingHead uint8
)

// SetDebugWriter sets the platform-specific debug output function
// This allows platforms to redirect debug output to UART, USB, log, etc.
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// DebugPrintln writes a debug message using the platform-specific writer
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// RecordEvent appends an event to the ring buffer.
// Not for use from the tick handler.
func RecordEvent(eventType uint8, pin, value1, value2 uint32) {
	idx := eventRingHead
	eventRing[idx] = Event{
		Type:   eventType,
		Pin:    pin,
		Value1: value1,
		Value2: value2,
	}
	eventRingHead = (idx + 1) % EventRingSize
}

// Events returns the recorded events, oldest first
func Events() []Event {
	out := make([]Event, 0, EventRingSize)
	start := eventRingHead
	for i := uint8(0); i < EventRingSize; i++ {
		evt := eventRing[(start+i)%EventRingSize]
		if evt.Type == 0 {
			continue // Empty slot
		}
		out = append(out, evt)
	}
	return out
}

// EventName returns a short name for an event type
func EventName(eventType uint8) string {
	switch eventType {
	case EvtConfigure:
		return "CONFIGURE"
	case EvtSaturated:
		return "SATURATED"
	case EvtArm:
		return "ARM"
	case EvtEnable:
		return "ENABLE"
	case EvtDisable:
		return "DISABLE"
	case EvtHalt:
		return "HALT"
	case EvtRegistryFull:
		return "FULL!"
	case EvtReset:
		return "RESET"
	}
	return "UNKNOWN"
}

// FormatEvent renders an event as a single line
func FormatEvent(evt Event) string {
	return EventName(evt.Type) +
		" pin=" + utoa(evt.Pin) +
		" v1=" + utoa(evt.Value1) +
		" v2=" + utoa(evt.Value2)
}

// DumpEventRing outputs the event ring through the debug writer
func DumpEventRing() {
	if debugPrintln == nil {
		return
	}

	debugPrintln("[PWM] === Event Ring Dump ===")
	for _, evt := range Events() {
		debugPrintln("[PWM] " + FormatEvent(evt))
	}
	debugPrintln("[PWM] === End Dump ===")
}

// ClearEventRing clears the event buffer
func ClearEventRing() {
	for i := range eventRing {
		eventRing[i] = Event{}
	}
	eventRingHead = 0
}
