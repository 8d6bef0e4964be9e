package storage

import (
	"context"
	"fmt"

	"github.com/openwarehouse/WareFleetCore/internal/types"
)

func (p *PostgresClient) OperatorByUsername(ctx context.Context, username string) (*types.Operator, error) {
	var op types.Operator
	err := p.pool.QueryRow(ctx, `
		SELECT id, username, password_hash, role FROM operators WHERE username = $1
	`, username).Scan(&op.ID, &op.Username, &op.PasswordHash, &op.Role)
	if err != nil {
		return nil, fmt.Errorf("operator %s: %w", username, mapRowError(err))
	}
	return &op, nil
}

func (p *PostgresClient) SaveOperator(ctx context.Context, op *types.Operator) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO operators (id, username, password_hash, role)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (username)
		DO UPDATE SET
			password_hash = EXCLUDED.password_hash,
			role = EXCLUDED.role,
			updated_at = NOW()
	`, op.ID, op.Username, op.PasswordHash, op.Role)

	if err != nil {
		return fmt.Errorf("failed to upsert operator: %w", err)
	}
	return nil
}
