package types

import (
	"time"

	"github.com/google/uuid"
)

// FlowState gates physical inventory movement for a product.
type FlowState string

const (
	FlowStateNormal   FlowState = "NORMAL"
	FlowStateBlocked  FlowState = "BLOCKED"
	FlowStateReadyOut FlowState = "READY_OUT"
)

type TransactionType string

const (
	TransactionIn  TransactionType = "IN"
	TransactionOut TransactionType = "OUT"
)

type Product struct {
	ID          uuid.UUID `json:"id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Quantity    int       `json:"quantity"`
	Unit        string    `json:"unit"`
	WarehouseID uuid.UUID `json:"warehouse_id"`
	FlowState   FlowState `json:"flow_state"`
}

// OutboundSchedule defines the time window in which a product may leave its
// warehouse. Creating one stages the product (flow state READY_OUT).
type OutboundSchedule struct {
	ID          uuid.UUID `json:"id"`
	ProductID   uuid.UUID `json:"product_id"`
	WarehouseID uuid.UUID `json:"warehouse_id"`
	StartAt     time.Time `json:"start_at"`
	EndAt       time.Time `json:"end_at"`
	CreatedBy   uuid.UUID `json:"created_by"`
}

// InventoryTransaction records one stock movement. Immutable once created.
type InventoryTransaction struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	WarehouseID uuid.UUID       `json:"warehouse_id"`
	Quantity    int             `json:"quantity"`
	Type        TransactionType `json:"transaction_type"`
	OperatorID  uuid.UUID       `json:"operator_id"`
	RFIDTag     string          `json:"rfid_tag,omitempty"`
	RequestedAt time.Time       `json:"requested_at"`
}

// InventoryItem is the aggregate quantity snapshot per (product, warehouse).
type InventoryItem struct {
	ProductID   uuid.UUID  `json:"product_id"`
	WarehouseID uuid.UUID  `json:"warehouse_id"`
	Quantity    int        `json:"quantity"`
	LastInAt    *time.Time `json:"last_in_at,omitempty"`
	LastOutAt   *time.Time `json:"last_out_at,omitempty"`
}

// Operator is a human user allowed to trigger commands and stock movements.
type Operator struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
}
