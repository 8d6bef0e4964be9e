package addressing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/openwarehouse/WareFleetCore/internal/types"
)

// Directory is the read-only device registry the resolver walks. Provided by
// the storage layer in production; tests supply fakes.
type Directory interface {
	DeviceByID(ctx context.Context, id uuid.UUID) (*types.Device, error)
	DeviceByMAC(ctx context.Context, mac string) (*types.Device, error)
	SubDeviceByID(ctx context.Context, id uuid.UUID) (*types.SubDevice, error)
}

// Resolver maps a device or sub-device identity to the MAC segment pair used
// to build its topic path. Pure lookup, no side effects.
type Resolver struct {
	dir Directory
}

func NewResolver(dir Directory) *Resolver {
	return &Resolver{dir: dir}
}

// Resolve returns the address of a device by identity. A gateway addresses
// itself; any other device addresses through its gateway, exactly one hop up.
func (r *Resolver) Resolve(ctx context.Context, deviceID uuid.UUID) (types.NodeAddress, error) {
	device, err := r.dir.DeviceByID(ctx, deviceID)
	if err != nil {
		return types.NodeAddress{}, fmt.Errorf("resolve device %s: %w", deviceID, err)
	}
	return r.ResolveDevice(ctx, device)
}

// ResolveDevice resolves an already-loaded device record.
func (r *Resolver) ResolveDevice(ctx context.Context, device *types.Device) (types.NodeAddress, error) {
	if device.IsGateway() {
		return types.NodeAddress{GatewayMAC: device.MAC, NodeMAC: device.MAC}, nil
	}

	gateway, err := r.dir.DeviceByID(ctx, *device.GatewayID)
	if err != nil {
		return types.NodeAddress{}, fmt.Errorf("resolve gateway %s of device %s: %w",
			device.GatewayID, device.ID, err)
	}

	return types.NodeAddress{GatewayMAC: gateway.MAC, NodeMAC: device.MAC}, nil
}

// ResolveSubDevice resolves through the owning device first, one extra hop.
func (r *Resolver) ResolveSubDevice(ctx context.Context, subDeviceID uuid.UUID) (types.NodeAddress, error) {
	sub, err := r.dir.SubDeviceByID(ctx, subDeviceID)
	if err != nil {
		return types.NodeAddress{}, fmt.Errorf("resolve sub-device %s: %w", subDeviceID, err)
	}
	return r.Resolve(ctx, sub.DeviceID)
}

// ResolveNodeMAC finds a device by its physical node identity and resolves
// its address in one call. Used on the telemetry ingest path.
func (r *Resolver) ResolveNodeMAC(ctx context.Context, mac string) (*types.Device, types.NodeAddress, error) {
	device, err := r.dir.DeviceByMAC(ctx, mac)
	if err != nil {
		return nil, types.NodeAddress{}, fmt.Errorf("resolve node %s: %w", mac, err)
	}

	addr, err := r.ResolveDevice(ctx, device)
	if err != nil {
		return nil, types.NodeAddress{}, err
	}
	return device, addr, nil
}
