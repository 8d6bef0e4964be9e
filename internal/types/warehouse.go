package types

import (
	"time"

	"github.com/google/uuid"
)

// Warehouse is the root aggregate for devices and products.
type Warehouse struct {
	ID      uuid.UUID `json:"id"`
	Code    string    `json:"code"`
	Name    string    `json:"name"`
	Type    string    `json:"type"`
	Address string    `json:"address"`
}

// Threshold is the per-warehouse environmental limit bundle. At most one
// active record per warehouse; updates upsert.
type Threshold struct {
	WarehouseID uuid.UUID `json:"warehouse_id"`
	TempLow     float64   `json:"temp_lo"`
	TempHigh    float64   `json:"temp_hi"`
	HumLow      float64   `json:"hum_lo"`
	HumHigh     float64   `json:"hum_hi"`
	GasHigh     float64   `json:"gas_hi"`
	LightLow    float64   `json:"light_lo"`
	LightHigh   float64   `json:"light_hi"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Alert is an operator-visible threshold violation record. The core does not
// decide when to raise one; callers supply the full payload.
type Alert struct {
	ID          uuid.UUID `json:"id"`
	WarehouseID uuid.UUID `json:"warehouse_id"`
	Level       string    `json:"level"`
	Reason      string    `json:"reason"`
	Value       float64   `json:"value"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}
