package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/openwarehouse/WareFleetCore/internal/types"
)

// AppendReading inserts one immutable sensor sample. There is no update or
// delete path for readings anywhere in this service.
func (p *PostgresClient) AppendReading(ctx context.Context, r *types.TelemetryReading) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO telemetry_readings
			(id, device_id, warehouse_id, ts, reading_id, temperature, humidity, gas, lux)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, r.ID, r.DeviceID, r.WarehouseID, r.Timestamp,
		r.Data.ReadingID, r.Data.Temperature, r.Data.Humidity, r.Data.Gas, r.Data.Lux)

	if err != nil {
		return fmt.Errorf("failed to insert reading: %w", err)
	}
	return nil
}

// ReadingsByDevice returns samples in [from, to), oldest first.
func (p *PostgresClient) ReadingsByDevice(ctx context.Context, deviceID uuid.UUID, from, to time.Time) ([]types.TelemetryReading, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, device_id, warehouse_id, ts, reading_id, temperature, humidity, gas, lux
		FROM telemetry_readings
		WHERE device_id = $1 AND ts >= $2 AND ts < $3
		ORDER BY ts
	`, deviceID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query readings: %w", err)
	}
	defer rows.Close()

	readings := make([]types.TelemetryReading, 0)
	for rows.Next() {
		var r types.TelemetryReading
		if err := rows.Scan(&r.ID, &r.DeviceID, &r.WarehouseID, &r.Timestamp,
			&r.Data.ReadingID, &r.Data.Temperature, &r.Data.Humidity,
			&r.Data.Gas, &r.Data.Lux); err != nil {
			return nil, fmt.Errorf("failed to scan reading: %w", err)
		}
		readings = append(readings, r)
	}
	return readings, rows.Err()
}

// LatestReadingByDevice returns the newest sample for a device.
func (p *PostgresClient) LatestReadingByDevice(ctx context.Context, deviceID uuid.UUID) (*types.TelemetryReading, error) {
	var r types.TelemetryReading
	err := p.pool.QueryRow(ctx, `
		SELECT id, device_id, warehouse_id, ts, reading_id, temperature, humidity, gas, lux
		FROM telemetry_readings
		WHERE device_id = $1
		ORDER BY ts DESC LIMIT 1
	`, deviceID).Scan(&r.ID, &r.DeviceID, &r.WarehouseID, &r.Timestamp,
		&r.Data.ReadingID, &r.Data.Temperature, &r.Data.Humidity,
		&r.Data.Gas, &r.Data.Lux)
	if err != nil {
		return nil, fmt.Errorf("latest reading for device %s: %w", deviceID, mapRowError(err))
	}
	return &r, nil
}
