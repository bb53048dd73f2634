package log

import (
	"testing"
	"time"
)

func TestNoopLoggerDoesNotPanic(t *testing.T) {
	logger := NoopLogger{}

	event := Event{
		Timestamp:    time.Now(),
		ConnectionID: "test-conn",
		Direction:    DirectionIn,
		Layer:        LayerTransport,
		Category:     CategoryMessage,
	}

	logger.Log(event)

	event.Frame = &FrameEvent{Size: 100, Data: []byte{1, 2, 3}}
	logger.Log(event)

	event.Frame = nil
	event.Command = &CommandEvent{Command: "^SU", Success: true}
	logger.Log(event)

	event.Command = nil
	event.StateChange = &StateChangeEvent{Entity: StateEntityConnection, NewState: "connected"}
	logger.Log(event)

	event.StateChange = nil
	event.Error = &ErrorEventData{Message: "test error"}
	logger.Log(event)
}

func TestLoggerInterfaceSatisfaction(t *testing.T) {
	var _ Logger = NoopLogger{}
	var _ Logger = &NoopLogger{}
}

func TestNoopLoggerIsZeroValue(t *testing.T) {
	var logger NoopLogger
	logger.Log(Event{})
}
