package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/openwarehouse/WareFleetCore/internal/types"
)

const deviceColumns = `id, mac, name, type, state, gateway_id, warehouse_id, COALESCE(rfid_tag, '')`

func scanDevice(row interface{ Scan(...any) error }) (*types.Device, error) {
	var d types.Device
	err := row.Scan(&d.ID, &d.MAC, &d.Name, &d.Type, &d.State,
		&d.GatewayID, &d.WarehouseID, &d.RFIDTag)
	if err != nil {
		return nil, mapRowError(err)
	}
	return &d, nil
}

func (p *PostgresClient) DeviceByID(ctx context.Context, id uuid.UUID) (*types.Device, error) {
	row := p.pool.QueryRow(ctx,
		`SELECT `+deviceColumns+` FROM devices WHERE id = $1`, id)

	device, err := scanDevice(row)
	if err != nil {
		return nil, fmt.Errorf("device %s: %w", id, err)
	}
	return device, nil
}

func (p *PostgresClient) DeviceByMAC(ctx context.Context, mac string) (*types.Device, error) {
	row := p.pool.QueryRow(ctx,
		`SELECT `+deviceColumns+` FROM devices WHERE mac = $1`, mac)

	device, err := scanDevice(row)
	if err != nil {
		return nil, fmt.Errorf("device mac %s: %w", mac, err)
	}
	return device, nil
}

func (p *PostgresClient) DeviceByRFIDTag(ctx context.Context, tag string) (*types.Device, error) {
	row := p.pool.QueryRow(ctx,
		`SELECT `+deviceColumns+` FROM devices WHERE rfid_tag = $1`, tag)

	device, err := scanDevice(row)
	if err != nil {
		return nil, fmt.Errorf("device rfid tag %s: %w", tag, err)
	}
	return device, nil
}

func (p *PostgresClient) ListDevices(ctx context.Context, warehouseID uuid.UUID) ([]*types.Device, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT `+deviceColumns+` FROM devices WHERE warehouse_id = $1 ORDER BY name`,
		warehouseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query devices: %w", err)
	}
	defer rows.Close()

	devices := make([]*types.Device, 0)
	for rows.Next() {
		device, err := scanDevice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan device: %w", err)
		}
		devices = append(devices, device)
	}
	return devices, rows.Err()
}

// SaveDevice upserts a device by MAC. The gateway chain is validated here:
// a referenced gateway must exist and must itself be a gateway (one hop max).
func (p *PostgresClient) SaveDevice(ctx context.Context, d *types.Device) error {
	if d.GatewayID != nil {
		gateway, err := p.DeviceByID(ctx, *d.GatewayID)
		if err != nil {
			return fmt.Errorf("gateway %s: %w", d.GatewayID, err)
		}
		if !gateway.IsGateway() {
			return fmt.Errorf("device %s: gateway chain deeper than one hop: %w",
				d.MAC, types.ErrPreconditionFailed)
		}
	}

	var rfidTag *string
	if d.RFIDTag != "" {
		rfidTag = &d.RFIDTag
	}

	_, err := p.pool.Exec(ctx, `
		INSERT INTO devices (id, mac, name, type, state, gateway_id, warehouse_id, rfid_tag)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (mac)
		DO UPDATE SET
			name = EXCLUDED.name,
			type = EXCLUDED.type,
			state = EXCLUDED.state,
			gateway_id = EXCLUDED.gateway_id,
			warehouse_id = EXCLUDED.warehouse_id,
			rfid_tag = EXCLUDED.rfid_tag,
			updated_at = NOW()
	`, d.ID, d.MAC, d.Name, d.Type, d.State, d.GatewayID, d.WarehouseID, rfidTag)

	if err != nil {
		return fmt.Errorf("failed to upsert device: %w", err)
	}
	return nil
}

func (p *PostgresClient) SubDeviceByID(ctx context.Context, id uuid.UUID) (*types.SubDevice, error) {
	var sd types.SubDevice
	err := p.pool.QueryRow(ctx, `
		SELECT id, code, name, type, status, state, value, device_id
		FROM sub_devices WHERE id = $1
	`, id).Scan(&sd.ID, &sd.Code, &sd.Name, &sd.Type, &sd.Status,
		&sd.State, &sd.Value, &sd.DeviceID)
	if err != nil {
		return nil, fmt.Errorf("sub-device %s: %w", id, mapRowError(err))
	}
	return &sd, nil
}

func (p *PostgresClient) SubDevicesByDevice(ctx context.Context, deviceID uuid.UUID) ([]*types.SubDevice, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, code, name, type, status, state, value, device_id
		FROM sub_devices WHERE device_id = $1 ORDER BY code
	`, deviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sub-devices: %w", err)
	}
	defer rows.Close()

	subDevices := make([]*types.SubDevice, 0)
	for rows.Next() {
		var sd types.SubDevice
		if err := rows.Scan(&sd.ID, &sd.Code, &sd.Name, &sd.Type, &sd.Status,
			&sd.State, &sd.Value, &sd.DeviceID); err != nil {
			return nil, fmt.Errorf("failed to scan sub-device: %w", err)
		}
		subDevices = append(subDevices, &sd)
	}
	return subDevices, rows.Err()
}

// SaveSubDevice upserts a sub-device by (device_id, code). The owning device
// must already exist.
func (p *PostgresClient) SaveSubDevice(ctx context.Context, sd *types.SubDevice) error {
	if _, err := p.DeviceByID(ctx, sd.DeviceID); err != nil {
		return fmt.Errorf("owning device %s: %w", sd.DeviceID, err)
	}

	_, err := p.pool.Exec(ctx, `
		INSERT INTO sub_devices (id, code, name, type, status, state, value, device_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (device_id, code)
		DO UPDATE SET
			name = EXCLUDED.name,
			type = EXCLUDED.type,
			status = EXCLUDED.status,
			state = EXCLUDED.state,
			value = EXCLUDED.value,
			updated_at = NOW()
	`, sd.ID, sd.Code, sd.Name, sd.Type, sd.Status, sd.State, sd.Value, sd.DeviceID)

	if err != nil {
		return fmt.Errorf("failed to upsert sub-device: %w", err)
	}
	return nil
}
