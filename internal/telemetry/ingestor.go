package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "embed"

	"github.com/google/uuid"
	"github.com/openwarehouse/WareFleetCore/internal/types"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.uber.org/zap"
)

//go:embed schema/telemetry-event-v1.json
var telemetryEventSchemaJSON string

// TelemetryFilter is the wildcard subscription all device telemetry arrives on.
const TelemetryFilter = "warehouse/+/data/+"

// Event is the raw inbound telemetry payload as devices send it.
type Event struct {
	NodeID    string  `json:"nodeId"`
	ReadingID int64   `json:"readingId"`
	Temp      float64 `json:"temp"`
	Hum       float64 `json:"hum"`
	GasValue  float64 `json:"gasValue"`
	LuxValue  float64 `json:"luxValue"`
}

// DeviceLookup resolves the originating device by its physical node identity.
type DeviceLookup interface {
	DeviceByMAC(ctx context.Context, mac string) (*types.Device, error)
}

// ReadingStore is the append-only sink for persisted readings.
type ReadingStore interface {
	AppendReading(ctx context.Context, reading *types.TelemetryReading) error
}

// Broadcaster relays raw events to live subscribers, best effort.
type Broadcaster interface {
	BroadcastTelemetry(ev Event)
}

// Subscriber hands inbound bus messages to the ingestor.
type Subscriber interface {
	Subscribe(filter string, handler func(topic string, payload []byte)) error
}

// Ingestor is the single inbound telemetry entry point. Per message: validate,
// resolve the device, broadcast to live subscribers, persist one reading. A
// message for an unknown node is dropped and logged; telemetry loss is
// accepted over buffering. Broadcast happens strictly before persistence so
// live dashboards see the event with minimal latency.
type Ingestor struct {
	lookup DeviceLookup
	store  ReadingStore
	fanout Broadcaster
	schema *jsonschema.Schema
	logger *zap.Logger
	now    func() time.Time
}

func NewIngestor(lookup DeviceLookup, store ReadingStore, fanout Broadcaster, logger *zap.Logger) (*Ingestor, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("telemetry-event-v1.json",
		strings.NewReader(telemetryEventSchemaJSON)); err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}

	schema, err := compiler.Compile("telemetry-event-v1.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	return &Ingestor{
		lookup: lookup,
		store:  store,
		fanout: fanout,
		schema: schema,
		logger: logger,
		now:    time.Now,
	}, nil
}

// Start registers the wildcard telemetry subscription.
func (i *Ingestor) Start(sub Subscriber) error {
	return sub.Subscribe(TelemetryFilter, i.HandleMessage)
}

// HandleMessage processes one inbound telemetry message. All failures are
// per-message: logged, dropped, never retried.
func (i *Ingestor) HandleMessage(topic string, payload []byte) {
	ctx := context.Background()

	event, err := i.decode(payload)
	if err != nil {
		i.logger.Warn("Telemetry message rejected",
			zap.String("topic", topic),
			zap.Error(err))
		return
	}

	device, err := i.lookup.DeviceByMAC(ctx, event.NodeID)
	if err != nil {
		// Resolution failure is non-fatal: no retry, no dead-letter
		i.logger.Warn("Telemetry from unknown node dropped",
			zap.String("topic", topic),
			zap.String("node_id", event.NodeID),
			zap.Error(err))
		return
	}

	i.fanout.BroadcastTelemetry(event)

	reading := &types.TelemetryReading{
		ID:          uuid.New(),
		DeviceID:    device.ID,
		WarehouseID: device.WarehouseID,
		Timestamp:   i.now(),
		Data: types.ReadingData{
			ReadingID:   event.ReadingID,
			Temperature: event.Temp,
			Humidity:    event.Hum,
			Gas:         event.GasValue,
			Lux:         event.LuxValue,
		},
	}

	if err := i.store.AppendReading(ctx, reading); err != nil {
		i.logger.Error("Failed to persist telemetry reading",
			zap.String("node_id", event.NodeID),
			zap.String("device_id", device.ID.String()),
			zap.Error(err))
	}
}

func (i *Ingestor) decode(payload []byte) (Event, error) {
	var raw any
	if err := json.Unmarshal(payload, &raw); err != nil {
		return Event{}, fmt.Errorf("invalid JSON: %w", err)
	}
	if err := i.schema.Validate(raw); err != nil {
		return Event{}, fmt.Errorf("schema validation failed: %w", err)
	}

	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return Event{}, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	return event, nil
}
