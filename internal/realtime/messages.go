package realtime

import (
	"time"

	"github.com/openwarehouse/WareFleetCore/internal/telemetry"
)

// MessageType defines the type of live event sent to subscribers
type MessageType string

const (
	// Raw telemetry relayed as it is ingested
	MessageTypeTelemetry MessageType = "telemetry"

	// Command lifecycle
	MessageTypeCommandDispatched MessageType = "command_dispatched"

	// System messages
	MessageTypeSystemStatus MessageType = "system_status"
)

// Message is one frame on the live channel
type Message struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// NewMessage creates a new message with current timestamp
func NewMessage(msgType MessageType, data interface{}) Message {
	return Message{
		Type:      msgType,
		Timestamp: time.Now(),
		Data:      data,
	}
}

func NewTelemetryMessage(ev telemetry.Event) Message {
	return NewMessage(MessageTypeTelemetry, ev)
}

// CommandData mirrors a dispatched command for live dashboards.
type CommandData struct {
	Topic   string `json:"topic"`
	Channel string `json:"channel"`
}
