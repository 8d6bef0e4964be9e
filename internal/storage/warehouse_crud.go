package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/openwarehouse/WareFleetCore/internal/types"
)

func (p *PostgresClient) WarehouseByID(ctx context.Context, id uuid.UUID) (*types.Warehouse, error) {
	var w types.Warehouse
	err := p.pool.QueryRow(ctx, `
		SELECT id, code, name, type, address FROM warehouses WHERE id = $1
	`, id).Scan(&w.ID, &w.Code, &w.Name, &w.Type, &w.Address)
	if err != nil {
		return nil, fmt.Errorf("warehouse %s: %w", id, mapRowError(err))
	}
	return &w, nil
}

func (p *PostgresClient) WarehouseByName(ctx context.Context, name string) (*types.Warehouse, error) {
	var w types.Warehouse
	err := p.pool.QueryRow(ctx, `
		SELECT id, code, name, type, address FROM warehouses WHERE name = $1
	`, name).Scan(&w.ID, &w.Code, &w.Name, &w.Type, &w.Address)
	if err != nil {
		return nil, fmt.Errorf("warehouse %s: %w", name, mapRowError(err))
	}
	return &w, nil
}

func (p *PostgresClient) ListWarehouses(ctx context.Context) ([]*types.Warehouse, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, code, name, type, address FROM warehouses ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query warehouses: %w", err)
	}
	defer rows.Close()

	warehouses := make([]*types.Warehouse, 0)
	for rows.Next() {
		var w types.Warehouse
		if err := rows.Scan(&w.ID, &w.Code, &w.Name, &w.Type, &w.Address); err != nil {
			return nil, fmt.Errorf("failed to scan warehouse: %w", err)
		}
		warehouses = append(warehouses, &w)
	}
	return warehouses, rows.Err()
}

func (p *PostgresClient) SaveWarehouse(ctx context.Context, w *types.Warehouse) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO warehouses (id, code, name, type, address)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id)
		DO UPDATE SET
			code = EXCLUDED.code,
			name = EXCLUDED.name,
			type = EXCLUDED.type,
			address = EXCLUDED.address,
			updated_at = NOW()
	`, w.ID, w.Code, w.Name, w.Type, w.Address)

	if err != nil {
		return fmt.Errorf("failed to upsert warehouse: %w", err)
	}
	return nil
}

// UpsertThreshold replaces the warehouse's limit bundle. One row per
// warehouse; the whole bundle is always written together.
func (p *PostgresClient) UpsertThreshold(ctx context.Context, t *types.Threshold) error {
	t.UpdatedAt = time.Now()

	_, err := p.pool.Exec(ctx, `
		INSERT INTO thresholds (warehouse_id, temp_lo, temp_hi, hum_lo, hum_hi, gas_hi, light_lo, light_hi, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (warehouse_id)
		DO UPDATE SET
			temp_lo = EXCLUDED.temp_lo,
			temp_hi = EXCLUDED.temp_hi,
			hum_lo = EXCLUDED.hum_lo,
			hum_hi = EXCLUDED.hum_hi,
			gas_hi = EXCLUDED.gas_hi,
			light_lo = EXCLUDED.light_lo,
			light_hi = EXCLUDED.light_hi,
			updated_at = EXCLUDED.updated_at
	`, t.WarehouseID, t.TempLow, t.TempHigh, t.HumLow, t.HumHigh,
		t.GasHigh, t.LightLow, t.LightHigh, t.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert threshold: %w", err)
	}
	return nil
}

func (p *PostgresClient) ThresholdByWarehouse(ctx context.Context, warehouseID uuid.UUID) (*types.Threshold, error) {
	var t types.Threshold
	err := p.pool.QueryRow(ctx, `
		SELECT warehouse_id, temp_lo, temp_hi, hum_lo, hum_hi, gas_hi, light_lo, light_hi, updated_at
		FROM thresholds WHERE warehouse_id = $1
	`, warehouseID).Scan(&t.WarehouseID, &t.TempLow, &t.TempHigh, &t.HumLow, &t.HumHigh,
		&t.GasHigh, &t.LightLow, &t.LightHigh, &t.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("threshold for warehouse %s: %w", warehouseID, mapRowError(err))
	}
	return &t, nil
}

func (p *PostgresClient) InsertAlert(ctx context.Context, a *types.Alert) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}

	_, err := p.pool.Exec(ctx, `
		INSERT INTO alerts (id, warehouse_id, level, reason, value, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, a.ID, a.WarehouseID, a.Level, a.Reason, a.Value, a.Status, a.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to insert alert: %w", err)
	}
	return nil
}

func (p *PostgresClient) ListAlerts(ctx context.Context, warehouseID uuid.UUID, limit int) ([]*types.Alert, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := p.pool.Query(ctx, `
		SELECT id, warehouse_id, level, reason, value, status, created_at
		FROM alerts WHERE warehouse_id = $1
		ORDER BY created_at DESC LIMIT $2
	`, warehouseID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	alerts := make([]*types.Alert, 0)
	for rows.Next() {
		var a types.Alert
		if err := rows.Scan(&a.ID, &a.WarehouseID, &a.Level, &a.Reason,
			&a.Value, &a.Status, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		alerts = append(alerts, &a)
	}
	return alerts, rows.Err()
}
