package types

import (
	"github.com/google/uuid"
)

type DeviceType string

const (
	DeviceTypeGateway    DeviceType = "gateway"
	DeviceTypeEnvSensor  DeviceType = "env_sensor"
	DeviceTypeRFIDReader DeviceType = "rfid_reader"
	DeviceTypeOther      DeviceType = "other"
)

type DeviceState string

const (
	DeviceStateActive       DeviceState = "active"
	DeviceStateInactive     DeviceState = "inactive"
	DeviceStateMaintenance  DeviceState = "maintenance"
	DeviceStateUnauthorized DeviceState = "unauthorized"
)

// Device is a fleet node. A device with no GatewayID is itself a gateway;
// otherwise GatewayID references the gateway it is attached to. The chain is
// at most one hop deep, enforced at write time.
type Device struct {
	ID          uuid.UUID   `json:"id"`
	MAC         string      `json:"mac"`
	Name        string      `json:"name"`
	Type        DeviceType  `json:"type"`
	State       DeviceState `json:"state"`
	GatewayID   *uuid.UUID  `json:"gateway_id,omitempty"`
	WarehouseID uuid.UUID   `json:"warehouse_id"`
	RFIDTag     string      `json:"rfid_tag,omitempty"`
}

// IsGateway reports whether the device is its own network entry point.
func (d *Device) IsGateway() bool {
	return d.GatewayID == nil
}

type SubDeviceStatus string

const (
	SubDeviceOn  SubDeviceStatus = "on"
	SubDeviceOff SubDeviceStatus = "off"
)

// SubDevice is a channel-addressed unit (fan, relay, probe) owned by a Device.
type SubDevice struct {
	ID       uuid.UUID       `json:"id"`
	Code     string          `json:"code"`
	Name     string          `json:"name"`
	Type     string          `json:"type"`
	Status   SubDeviceStatus `json:"status"`
	State    DeviceState     `json:"state"`
	Value    float64         `json:"value"`
	DeviceID uuid.UUID       `json:"device_id"`
}

// NodeAddress is the pair of MAC segments a device is addressed by on the
// message bus. For a gateway both segments carry the same MAC.
type NodeAddress struct {
	GatewayMAC string `json:"gateway_mac"`
	NodeMAC    string `json:"node_mac"`
}

func (a NodeAddress) GatewaySegment() string {
	return "gateway_" + a.GatewayMAC
}

func (a NodeAddress) NodeSegment() string {
	return "node_" + a.NodeMAC
}
