package commands

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/openwarehouse/WareFleetCore/internal/addressing"
	"github.com/openwarehouse/WareFleetCore/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type published struct {
	topic    string
	payload  []byte
	retained bool
}

type fakePublisher struct {
	messages []published
	err      error
}

func (f *fakePublisher) Publish(_ context.Context, topic string, payload []byte, retained bool) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, published{topic: topic, payload: payload, retained: retained})
	return nil
}

type fakeRegistry struct {
	devices    map[uuid.UUID]*types.Device
	subDevices map[uuid.UUID]*types.SubDevice
	byTag      map[string]*types.Device
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		devices:    make(map[uuid.UUID]*types.Device),
		subDevices: make(map[uuid.UUID]*types.SubDevice),
		byTag:      make(map[string]*types.Device),
	}
}

func (f *fakeRegistry) DeviceByID(_ context.Context, id uuid.UUID) (*types.Device, error) {
	if d, ok := f.devices[id]; ok {
		return d, nil
	}
	return nil, types.ErrNotFound
}

func (f *fakeRegistry) DeviceByMAC(_ context.Context, mac string) (*types.Device, error) {
	for _, d := range f.devices {
		if d.MAC == mac {
			return d, nil
		}
	}
	return nil, types.ErrNotFound
}

func (f *fakeRegistry) SubDeviceByID(_ context.Context, id uuid.UUID) (*types.SubDevice, error) {
	if s, ok := f.subDevices[id]; ok {
		return s, nil
	}
	return nil, types.ErrNotFound
}

func (f *fakeRegistry) DeviceByRFIDTag(_ context.Context, tag string) (*types.Device, error) {
	if d, ok := f.byTag[tag]; ok {
		return d, nil
	}
	return nil, types.ErrNotFound
}

func testFixture() (*fakeRegistry, *fakePublisher, *Dispatcher) {
	reg := newFakeRegistry()
	pub := &fakePublisher{}
	d := NewDispatcher(addressing.NewResolver(reg), reg, pub, zap.NewNop())
	return reg, pub, d
}

func TestSetActuatorBuildsCommandTopic(t *testing.T) {
	reg, pub, d := testFixture()

	gw := &types.Device{ID: uuid.New(), MAC: "gw01", Type: types.DeviceTypeGateway}
	node := &types.Device{ID: uuid.New(), MAC: "node01", GatewayID: &gw.ID}
	sub := &types.SubDevice{ID: uuid.New(), DeviceID: node.ID}
	reg.devices[gw.ID] = gw
	reg.devices[node.ID] = node
	reg.subDevices[sub.ID] = sub

	ack, err := d.SetActuator(context.Background(), sub.ID, ChannelFanSpeed, 3)
	require.NoError(t, err)

	assert.Equal(t, "warehouse/gateway_gw01/node_node01/control/fan-speed/cmd", ack.Topic)
	require.Len(t, pub.messages, 1)
	assert.Equal(t, ack.Topic, pub.messages[0].topic)
	assert.True(t, pub.messages[0].retained, "commands must be retained")

	var payload map[string]any
	require.NoError(t, json.Unmarshal(pub.messages[0].payload, &payload))
	assert.Equal(t, "fan-speed", payload["channel"])
	assert.EqualValues(t, 3, payload["value"])
}

func TestSetActuatorRejectsUnknownChannel(t *testing.T) {
	_, pub, d := testFixture()

	_, err := d.SetActuator(context.Background(), uuid.New(), "volume", 1)
	assert.Error(t, err)
	assert.Empty(t, pub.messages)
}

func TestSetActuatorMissingSubDevice(t *testing.T) {
	_, pub, d := testFixture()

	_, err := d.SetActuator(context.Background(), uuid.New(), ChannelState, "on")
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.Empty(t, pub.messages)
}

func TestSetThresholdTopicAndPayload(t *testing.T) {
	reg, pub, d := testFixture()

	gw := &types.Device{ID: uuid.New(), MAC: "gw01", Type: types.DeviceTypeGateway}
	reg.devices[gw.ID] = gw

	ack, err := d.SetThreshold(context.Background(), gw.ID, "temperature", 5, 30)
	require.NoError(t, err)

	assert.Equal(t, "warehouse/gateway_gw01/node_gw01/control/threshold/temperature/cmd", ack.Topic)

	var payload thresholdPayload
	require.NoError(t, json.Unmarshal(pub.messages[0].payload, &payload))
	assert.Equal(t, "temperature", payload.Type)
	assert.Equal(t, 5.0, payload.Min)
	assert.Equal(t, 30.0, payload.Max)
}

func TestSetRFIDUserInfoResolvesByTag(t *testing.T) {
	reg, pub, d := testFixture()

	reader := &types.Device{ID: uuid.New(), MAC: "rd01", Type: types.DeviceTypeRFIDReader, RFIDTag: "TAG-9"}
	reg.devices[reader.ID] = reader
	reg.byTag["TAG-9"] = reader

	ack, err := d.SetRFIDUserInfo(context.Background(), "user-17", "TAG-9")
	require.NoError(t, err)

	assert.Equal(t, "warehouse/gateway_rd01/node_rd01/control/rfid/user-info/cmd", ack.Topic)

	var payload rfidUserPayload
	require.NoError(t, json.Unmarshal(pub.messages[0].payload, &payload))
	assert.Equal(t, "user-17", payload.UserID)
	assert.Equal(t, "TAG-9", payload.RFIDTag)
}

func TestSetRFIDUserInfoUnknownTag(t *testing.T) {
	_, _, d := testFixture()

	_, err := d.SetRFIDUserInfo(context.Background(), "user-17", "nope")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestSetRFIDProductInfoCarriesTTL(t *testing.T) {
	reg, pub, d := testFixture()

	reader := &types.Device{ID: uuid.New(), MAC: "rd01", Type: types.DeviceTypeRFIDReader}
	reg.devices[reader.ID] = reader

	ack, err := d.SetRFIDProductInfo(context.Background(), "SKU-100", reader.ID, 30*time.Second)
	require.NoError(t, err)

	assert.Equal(t, "warehouse/gateway_rd01/node_rd01/control/rfid/cmd", ack.Topic)

	var payload rfidProductPayload
	require.NoError(t, json.Unmarshal(pub.messages[0].payload, &payload))
	assert.Equal(t, "read", payload.Command)
	assert.Equal(t, "SKU-100", payload.ProductCode)
	assert.EqualValues(t, 30, payload.TTLSeconds)
}

func TestDispatchFailsFastWhenTransportDown(t *testing.T) {
	reg, pub, d := testFixture()
	pub.err = types.ErrTransportUnavailable

	gw := &types.Device{ID: uuid.New(), MAC: "gw01", Type: types.DeviceTypeGateway}
	reg.devices[gw.ID] = gw

	_, err := d.SetThreshold(context.Background(), gw.ID, "humidity", 20, 60)
	assert.ErrorIs(t, err, types.ErrTransportUnavailable)
}
