package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/openwarehouse/WareFleetCore/internal/types"
)

const productColumns = `id, code, name, category, quantity, unit, warehouse_id, flow_state`

func (p *PostgresClient) ProductByID(ctx context.Context, id uuid.UUID) (*types.Product, error) {
	var pr types.Product
	err := p.pool.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id,
	).Scan(&pr.ID, &pr.Code, &pr.Name, &pr.Category, &pr.Quantity,
		&pr.Unit, &pr.WarehouseID, &pr.FlowState)
	if err != nil {
		return nil, fmt.Errorf("product %s: %w", id, mapRowError(err))
	}
	return &pr, nil
}

func (p *PostgresClient) ListProducts(ctx context.Context, warehouseID uuid.UUID) ([]*types.Product, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT `+productColumns+` FROM products WHERE warehouse_id = $1 ORDER BY code`,
		warehouseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := make([]*types.Product, 0)
	for rows.Next() {
		var pr types.Product
		if err := rows.Scan(&pr.ID, &pr.Code, &pr.Name, &pr.Category, &pr.Quantity,
			&pr.Unit, &pr.WarehouseID, &pr.FlowState); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, &pr)
	}
	return products, rows.Err()
}

func (p *PostgresClient) SaveProduct(ctx context.Context, pr *types.Product) error {
	if pr.FlowState == "" {
		pr.FlowState = types.FlowStateNormal
	}

	_, err := p.pool.Exec(ctx, `
		INSERT INTO products (id, code, name, category, quantity, unit, warehouse_id, flow_state)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id)
		DO UPDATE SET
			code = EXCLUDED.code,
			name = EXCLUDED.name,
			category = EXCLUDED.category,
			quantity = EXCLUDED.quantity,
			unit = EXCLUDED.unit,
			warehouse_id = EXCLUDED.warehouse_id,
			updated_at = NOW()
	`, pr.ID, pr.Code, pr.Name, pr.Category, pr.Quantity, pr.Unit,
		pr.WarehouseID, pr.FlowState)

	if err != nil {
		return fmt.Errorf("failed to upsert product: %w", err)
	}
	return nil
}

func (p *PostgresClient) SetProductFlowState(ctx context.Context, productID uuid.UUID, state types.FlowState) error {
	result, err := p.pool.Exec(ctx, `
		UPDATE products SET flow_state = $2, updated_at = NOW() WHERE id = $1
	`, productID, state)
	if err != nil {
		return fmt.Errorf("failed to update flow state: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("product %s: %w", productID, types.ErrNotFound)
	}
	return nil
}

func (p *PostgresClient) InsertOutboundSchedule(ctx context.Context, s *types.OutboundSchedule) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO outbound_schedules (id, product_id, warehouse_id, start_at, end_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, s.ID, s.ProductID, s.WarehouseID, s.StartAt, s.EndAt, s.CreatedBy)

	if err != nil {
		return fmt.Errorf("failed to insert outbound schedule: %w", err)
	}
	return nil
}

// ActiveOutboundSchedule returns the most recently created schedule for the
// pair. Window checks happen in the caller.
func (p *PostgresClient) ActiveOutboundSchedule(ctx context.Context, warehouseID, productID uuid.UUID) (*types.OutboundSchedule, error) {
	var s types.OutboundSchedule
	err := p.pool.QueryRow(ctx, `
		SELECT id, product_id, warehouse_id, start_at, end_at, created_by
		FROM outbound_schedules
		WHERE warehouse_id = $1 AND product_id = $2
		ORDER BY start_at DESC LIMIT 1
	`, warehouseID, productID).Scan(&s.ID, &s.ProductID, &s.WarehouseID,
		&s.StartAt, &s.EndAt, &s.CreatedBy)
	if err != nil {
		return nil, fmt.Errorf("outbound schedule for product %s: %w", productID, mapRowError(err))
	}
	return &s, nil
}

func (p *PostgresClient) InsertInventoryTransaction(ctx context.Context, t *types.InventoryTransaction) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO inventory_transactions
			(id, product_id, warehouse_id, quantity, transaction_type, operator_id, rfid_tag, requested_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, t.ID, t.ProductID, t.WarehouseID, t.Quantity, t.Type,
		t.OperatorID, t.RFIDTag, t.RequestedAt)

	if err != nil {
		return fmt.Errorf("failed to insert inventory transaction: %w", err)
	}
	return nil
}

func (p *PostgresClient) ListInventoryTransactions(ctx context.Context, warehouseID uuid.UUID, limit int) ([]*types.InventoryTransaction, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := p.pool.Query(ctx, `
		SELECT id, product_id, warehouse_id, quantity, transaction_type, operator_id, rfid_tag, requested_at
		FROM inventory_transactions
		WHERE warehouse_id = $1
		ORDER BY requested_at DESC LIMIT $2
	`, warehouseID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query inventory transactions: %w", err)
	}
	defer rows.Close()

	transactions := make([]*types.InventoryTransaction, 0)
	for rows.Next() {
		var t types.InventoryTransaction
		if err := rows.Scan(&t.ID, &t.ProductID, &t.WarehouseID, &t.Quantity,
			&t.Type, &t.OperatorID, &t.RFIDTag, &t.RequestedAt); err != nil {
			return nil, fmt.Errorf("failed to scan inventory transaction: %w", err)
		}
		transactions = append(transactions, &t)
	}
	return transactions, rows.Err()
}

// ApplyInventoryMovement folds one transaction into the per-(product,
// warehouse) snapshot. Outbound quantities subtract.
func (p *PostgresClient) ApplyInventoryMovement(ctx context.Context, t *types.InventoryTransaction) error {
	delta := t.Quantity
	column := "last_in_at"
	if t.Type == types.TransactionOut {
		delta = -delta
		column = "last_out_at"
	}

	query := fmt.Sprintf(`
		INSERT INTO inventory_items (product_id, warehouse_id, quantity, %[1]s)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (product_id, warehouse_id)
		DO UPDATE SET
			quantity = inventory_items.quantity + EXCLUDED.quantity,
			%[1]s = EXCLUDED.%[1]s
	`, column)

	if _, err := p.pool.Exec(ctx, query, t.ProductID, t.WarehouseID, delta, t.RequestedAt); err != nil {
		return fmt.Errorf("failed to apply inventory movement: %w", err)
	}
	return nil
}

func (p *PostgresClient) InventoryItem(ctx context.Context, productID, warehouseID uuid.UUID) (*types.InventoryItem, error) {
	var item types.InventoryItem
	err := p.pool.QueryRow(ctx, `
		SELECT product_id, warehouse_id, quantity, last_in_at, last_out_at
		FROM inventory_items
		WHERE product_id = $1 AND warehouse_id = $2
	`, productID, warehouseID).Scan(&item.ProductID, &item.WarehouseID,
		&item.Quantity, &item.LastInAt, &item.LastOutAt)
	if err != nil {
		return nil, fmt.Errorf("inventory item for product %s: %w", productID, mapRowError(err))
	}
	return &item, nil
}
