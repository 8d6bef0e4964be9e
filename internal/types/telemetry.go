package types

import (
	"time"

	"github.com/google/uuid"
)

// TelemetryReading is an immutable, append-only sensor sample. Created exactly
// once per ingested message, never mutated or deleted by this service.
type TelemetryReading struct {
	ID          uuid.UUID   `json:"id"`
	DeviceID    uuid.UUID   `json:"device_id"`
	WarehouseID uuid.UUID   `json:"warehouse_id"`
	Timestamp   time.Time   `json:"timestamp"`
	Data        ReadingData `json:"data"`
}

type ReadingData struct {
	ReadingID   int64   `json:"readingId"`
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	Gas         float64 `json:"gas"`
	Lux         float64 `json:"lux"`
}

// HourlyAverage is one group of the hourly aggregation query.
type HourlyAverage struct {
	Hour        time.Time `json:"hour"`
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
	Count       int       `json:"count"`
}

// CommandAck acknowledges that a command was handed to the transport. Publish
// success is not delivery confirmation; the device may act much later.
type CommandAck struct {
	Topic  string    `json:"topic"`
	SentAt time.Time `json:"sent_at"`
}
