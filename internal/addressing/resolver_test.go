package addressing

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/openwarehouse/WareFleetCore/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDirectory struct {
	devices    map[uuid.UUID]*types.Device
	subDevices map[uuid.UUID]*types.SubDevice
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		devices:    make(map[uuid.UUID]*types.Device),
		subDevices: make(map[uuid.UUID]*types.SubDevice),
	}
}

func (f *fakeDirectory) DeviceByID(_ context.Context, id uuid.UUID) (*types.Device, error) {
	if d, ok := f.devices[id]; ok {
		return d, nil
	}
	return nil, types.ErrNotFound
}

func (f *fakeDirectory) DeviceByMAC(_ context.Context, mac string) (*types.Device, error) {
	for _, d := range f.devices {
		if d.MAC == mac {
			return d, nil
		}
	}
	return nil, types.ErrNotFound
}

func (f *fakeDirectory) SubDeviceByID(_ context.Context, id uuid.UUID) (*types.SubDevice, error) {
	if s, ok := f.subDevices[id]; ok {
		return s, nil
	}
	return nil, types.ErrNotFound
}

func TestResolveGatewayDevice(t *testing.T) {
	dir := newFakeDirectory()
	gw := &types.Device{ID: uuid.New(), MAC: "aa:bb:cc:00:00:01", Type: types.DeviceTypeGateway}
	dir.devices[gw.ID] = gw

	resolver := NewResolver(dir)
	addr, err := resolver.Resolve(context.Background(), gw.ID)
	require.NoError(t, err)

	assert.Equal(t, gw.MAC, addr.GatewayMAC)
	assert.Equal(t, gw.MAC, addr.NodeMAC)
	assert.Equal(t, "gateway_aa:bb:cc:00:00:01", addr.GatewaySegment())
	assert.Equal(t, "node_aa:bb:cc:00:00:01", addr.NodeSegment())
}

func TestResolveNodeDevice(t *testing.T) {
	dir := newFakeDirectory()
	gw := &types.Device{ID: uuid.New(), MAC: "aa:bb:cc:00:00:01", Type: types.DeviceTypeGateway}
	node := &types.Device{ID: uuid.New(), MAC: "aa:bb:cc:00:00:02", Type: types.DeviceTypeEnvSensor, GatewayID: &gw.ID}
	dir.devices[gw.ID] = gw
	dir.devices[node.ID] = node

	addr, err := NewResolver(dir).Resolve(context.Background(), node.ID)
	require.NoError(t, err)

	assert.Equal(t, gw.MAC, addr.GatewayMAC)
	assert.Equal(t, node.MAC, addr.NodeMAC)
}

func TestResolveSubDevice(t *testing.T) {
	dir := newFakeDirectory()
	gw := &types.Device{ID: uuid.New(), MAC: "gw-mac", Type: types.DeviceTypeGateway}
	node := &types.Device{ID: uuid.New(), MAC: "node-mac", GatewayID: &gw.ID}
	sub := &types.SubDevice{ID: uuid.New(), Code: "FAN-1", DeviceID: node.ID}
	dir.devices[gw.ID] = gw
	dir.devices[node.ID] = node
	dir.subDevices[sub.ID] = sub

	addr, err := NewResolver(dir).ResolveSubDevice(context.Background(), sub.ID)
	require.NoError(t, err)

	assert.Equal(t, "gw-mac", addr.GatewayMAC)
	assert.Equal(t, "node-mac", addr.NodeMAC)
}

func TestResolveMissingDevice(t *testing.T) {
	resolver := NewResolver(newFakeDirectory())

	_, err := resolver.Resolve(context.Background(), uuid.New())
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestResolveMissingGateway(t *testing.T) {
	dir := newFakeDirectory()
	danglingGW := uuid.New()
	node := &types.Device{ID: uuid.New(), MAC: "node-mac", GatewayID: &danglingGW}
	dir.devices[node.ID] = node

	_, err := NewResolver(dir).Resolve(context.Background(), node.ID)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestResolveNodeMAC(t *testing.T) {
	dir := newFakeDirectory()
	gw := &types.Device{ID: uuid.New(), MAC: "gw-mac", Type: types.DeviceTypeGateway}
	node := &types.Device{ID: uuid.New(), MAC: "node-mac", GatewayID: &gw.ID}
	dir.devices[gw.ID] = gw
	dir.devices[node.ID] = node

	device, addr, err := NewResolver(dir).ResolveNodeMAC(context.Background(), "node-mac")
	require.NoError(t, err)
	assert.Equal(t, node.ID, device.ID)
	assert.Equal(t, "gw-mac", addr.GatewayMAC)

	_, _, err = NewResolver(dir).ResolveNodeMAC(context.Background(), "unknown")
	assert.ErrorIs(t, err, types.ErrNotFound)
}
