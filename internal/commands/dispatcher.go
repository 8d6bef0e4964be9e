package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/openwarehouse/WareFleetCore/internal/addressing"
	"github.com/openwarehouse/WareFleetCore/internal/types"
	"go.uber.org/zap"
)

// Publisher is the outbound half of the message bus. Retained QoS-1 publish;
// success means the message was accepted by the broker, nothing more.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte, retained bool) error
}

// Directory resolves RFID readers by their provisioning tag.
type Directory interface {
	DeviceByRFIDTag(ctx context.Context, tag string) (*types.Device, error)
}

// Actuator channels a sub-device understands.
const (
	ChannelFanSpeed = "fan-speed"
	ChannelState    = "state"
	ChannelStatus   = "status"
)

// Dispatcher builds command topics of the shape
// warehouse/gateway_<mac>/node_<mac>/control/<channel>/cmd and publishes a
// JSON payload, retained, so a reconnecting device still receives the last
// command. Every operation acknowledges "command sent", never "command
// executed".
type Dispatcher struct {
	resolver *addressing.Resolver
	dir      Directory
	pub      Publisher
	logger   *zap.Logger
	now      func() time.Time
}

func NewDispatcher(resolver *addressing.Resolver, dir Directory, pub Publisher, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		resolver: resolver,
		dir:      dir,
		pub:      pub,
		logger:   logger,
		now:      time.Now,
	}
}

type actuatorPayload struct {
	Channel   string `json:"channel"`
	Value     any    `json:"value"`
	Timestamp int64  `json:"timestamp"`
}

// SetActuator commands a sub-device channel (fan-speed, state, status).
func (d *Dispatcher) SetActuator(ctx context.Context, subDeviceID uuid.UUID, channel string, value any) (types.CommandAck, error) {
	switch channel {
	case ChannelFanSpeed, ChannelState, ChannelStatus:
	default:
		return types.CommandAck{}, fmt.Errorf("unknown actuator channel %q", channel)
	}

	addr, err := d.resolver.ResolveSubDevice(ctx, subDeviceID)
	if err != nil {
		return types.CommandAck{}, err
	}

	return d.publish(ctx, addr, channel, actuatorPayload{
		Channel:   channel,
		Value:     value,
		Timestamp: d.now().UnixMilli(),
	})
}

type thresholdPayload struct {
	Type string  `json:"type"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

// SetThreshold pushes a sensor limit pair down to a device.
func (d *Dispatcher) SetThreshold(ctx context.Context, deviceID uuid.UUID, thresholdType string, min, max float64) (types.CommandAck, error) {
	addr, err := d.resolver.Resolve(ctx, deviceID)
	if err != nil {
		return types.CommandAck{}, err
	}

	return d.publish(ctx, addr, "threshold/"+thresholdType, thresholdPayload{
		Type: thresholdType,
		Min:  min,
		Max:  max,
	})
}

type rfidUserPayload struct {
	UserID  string `json:"user_id"`
	RFIDTag string `json:"rfid_tag"`
}

// SetRFIDUserInfo provisions a user's tag on the reader that owns it.
func (d *Dispatcher) SetRFIDUserInfo(ctx context.Context, userID string, rfidTag string) (types.CommandAck, error) {
	device, err := d.dir.DeviceByRFIDTag(ctx, rfidTag)
	if err != nil {
		return types.CommandAck{}, fmt.Errorf("rfid device for tag %s: %w", rfidTag, err)
	}

	addr, err := d.resolver.ResolveDevice(ctx, device)
	if err != nil {
		return types.CommandAck{}, err
	}

	return d.publish(ctx, addr, "rfid/user-info", rfidUserPayload{
		UserID:  userID,
		RFIDTag: rfidTag,
	})
}

type rfidProductPayload struct {
	Command     string `json:"cmd"`
	ProductCode string `json:"product_code"`
	TTLSeconds  int64  `json:"ttl_seconds"`
}

// SetRFIDProductInfo tells a reader to expect a physical tag presentation for
// a product. The TTL is interpreted by the device: how long to keep waiting
// for the tap. The core does not enforce it.
func (d *Dispatcher) SetRFIDProductInfo(ctx context.Context, productCode string, deviceID uuid.UUID, ttl time.Duration) (types.CommandAck, error) {
	addr, err := d.resolver.Resolve(ctx, deviceID)
	if err != nil {
		return types.CommandAck{}, err
	}

	return d.publish(ctx, addr, "rfid", rfidProductPayload{
		Command:     "read",
		ProductCode: productCode,
		TTLSeconds:  int64(ttl.Seconds()),
	})
}

// CommandTopic builds the full control topic for a node address and channel.
func CommandTopic(addr types.NodeAddress, channel string) string {
	return fmt.Sprintf("warehouse/%s/%s/control/%s/cmd",
		addr.GatewaySegment(), addr.NodeSegment(), channel)
}

func (d *Dispatcher) publish(ctx context.Context, addr types.NodeAddress, channel string, payload any) (types.CommandAck, error) {
	topic := CommandTopic(addr, channel)

	data, err := json.Marshal(payload)
	if err != nil {
		return types.CommandAck{}, fmt.Errorf("marshal command payload: %w", err)
	}

	if err := d.pub.Publish(ctx, topic, data, true); err != nil {
		return types.CommandAck{}, err
	}

	d.logger.Info("Command dispatched",
		zap.String("topic", topic),
		zap.String("channel", channel))

	return types.CommandAck{Topic: topic, SentAt: d.now()}, nil
}
