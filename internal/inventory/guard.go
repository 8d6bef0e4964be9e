package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/openwarehouse/WareFleetCore/internal/types"
	"go.uber.org/zap"
)

// rfidReadTTL tells the reader how long to wait for a physical tag tap.
// Interpreted by the device, not enforced here.
const rfidReadTTL = 30 * time.Second

// Store is the durable state the guard operates on.
type Store interface {
	ProductByID(ctx context.Context, id uuid.UUID) (*types.Product, error)
	SetProductFlowState(ctx context.Context, productID uuid.UUID, state types.FlowState) error
	InsertOutboundSchedule(ctx context.Context, schedule *types.OutboundSchedule) error
	ActiveOutboundSchedule(ctx context.Context, warehouseID, productID uuid.UUID) (*types.OutboundSchedule, error)
	InsertInventoryTransaction(ctx context.Context, tx *types.InventoryTransaction) error
	ApplyInventoryMovement(ctx context.Context, tx *types.InventoryTransaction) error
}

// RFIDDirectory resolves RFID readers by their provisioning tag.
type RFIDDirectory interface {
	DeviceByRFIDTag(ctx context.Context, tag string) (*types.Device, error)
}

// CommandSender dispatches the RFID read command on the inbound path.
type CommandSender interface {
	SetRFIDProductInfo(ctx context.Context, productCode string, deviceID uuid.UUID, ttl time.Duration) (types.CommandAck, error)
}

// MovementRequest is one operator-triggered stock movement.
type MovementRequest struct {
	ProductID   uuid.UUID `json:"product_id"`
	WarehouseID uuid.UUID `json:"warehouse_id"`
	Quantity    int       `json:"quantity"`
	OperatorID  uuid.UUID `json:"operator_id"`
	RFIDTag     string    `json:"rfid_tag,omitempty"`
}

// Guard gates physical stock movement behind the product flow state and, for
// outbound, the active scheduling window. Flow states: NORMAL (default),
// BLOCKED (administrative hold), READY_OUT (staged by an outbound schedule).
// BLOCKED and READY_OUT are only ever left by administrative action outside
// this service.
type Guard struct {
	store    Store
	dir      RFIDDirectory
	commands CommandSender
	logger   *zap.Logger
	now      func() time.Time
}

func NewGuard(store Store, dir RFIDDirectory, commands CommandSender, logger *zap.Logger) *Guard {
	return &Guard{
		store:    store,
		dir:      dir,
		commands: commands,
		logger:   logger,
		now:      time.Now,
	}
}

// CreateOutboundSchedule persists a scheduling window for a product and
// stages the product for outbound (NORMAL -> READY_OUT) as a side effect.
// The two writes are not atomic together; a crash in between leaves a
// schedule without a staged product.
func (g *Guard) CreateOutboundSchedule(ctx context.Context, schedule *types.OutboundSchedule) error {
	product, err := g.store.ProductByID(ctx, schedule.ProductID)
	if err != nil {
		return fmt.Errorf("product %s: %w", schedule.ProductID, err)
	}

	if product.FlowState == types.FlowStateBlocked {
		return fmt.Errorf("cannot schedule a blocked product: %w", types.ErrPreconditionFailed)
	}

	if schedule.ID == uuid.Nil {
		schedule.ID = uuid.New()
	}

	if err := g.store.InsertOutboundSchedule(ctx, schedule); err != nil {
		return fmt.Errorf("persist outbound schedule: %w", err)
	}

	if err := g.store.SetProductFlowState(ctx, schedule.ProductID, types.FlowStateReadyOut); err != nil {
		return fmt.Errorf("stage product %s for outbound: %w", schedule.ProductID, err)
	}

	g.logger.Info("Outbound schedule created",
		zap.String("product_id", schedule.ProductID.String()),
		zap.String("warehouse_id", schedule.WarehouseID.String()),
		zap.Time("start_at", schedule.StartAt),
		zap.Time("end_at", schedule.EndAt))

	return nil
}

// RequestInventoryIn validates and records an inbound stock movement, then
// commands the resolved RFID reader to expect a tag tap. Fire-and-forget:
// the acknowledgement means the command was sent, not that the device read
// anything.
func (g *Guard) RequestInventoryIn(ctx context.Context, req MovementRequest) (*types.InventoryTransaction, types.CommandAck, error) {
	device, err := g.dir.DeviceByRFIDTag(ctx, req.RFIDTag)
	if err != nil {
		return nil, types.CommandAck{}, fmt.Errorf("rfid device for tag %s: %w", req.RFIDTag, err)
	}

	product, err := g.store.ProductByID(ctx, req.ProductID)
	if err != nil {
		return nil, types.CommandAck{}, fmt.Errorf("product %s: %w", req.ProductID, err)
	}

	switch product.FlowState {
	case types.FlowStateBlocked:
		return nil, types.CommandAck{}, fmt.Errorf("cannot bring in a blocked product: %w", types.ErrPreconditionFailed)
	case types.FlowStateReadyOut:
		return nil, types.CommandAck{}, fmt.Errorf("product already staged for outbound: %w", types.ErrPreconditionFailed)
	}

	tx := g.newTransaction(req, types.TransactionIn)
	if err := g.persistMovement(ctx, tx); err != nil {
		return nil, types.CommandAck{}, err
	}

	ack, err := g.commands.SetRFIDProductInfo(ctx, product.Code, device.ID, rfidReadTTL)
	if err != nil {
		// The transaction is already recorded; surface the dispatch failure
		return tx, types.CommandAck{}, fmt.Errorf("dispatch rfid read command: %w", err)
	}

	g.logger.Info("Inventory-in recorded",
		zap.String("product_id", req.ProductID.String()),
		zap.String("rfid_device", device.ID.String()),
		zap.Int("quantity", req.Quantity))

	return tx, ack, nil
}

// RequestInventoryOut validates an outbound stock movement against the active
// scheduling window (boundary-inclusive) and records it. No device command is
// dispatched on this path.
func (g *Guard) RequestInventoryOut(ctx context.Context, req MovementRequest) (*types.InventoryTransaction, error) {
	schedule, err := g.store.ActiveOutboundSchedule(ctx, req.WarehouseID, req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("no matching outbound schedule: %w", err)
	}

	now := g.now()
	if now.Before(schedule.StartAt) || now.After(schedule.EndAt) {
		return nil, fmt.Errorf("outside scheduling window [%s, %s]: %w",
			schedule.StartAt.Format(time.RFC3339),
			schedule.EndAt.Format(time.RFC3339),
			types.ErrPreconditionFailed)
	}

	tx := g.newTransaction(req, types.TransactionOut)
	if err := g.persistMovement(ctx, tx); err != nil {
		return nil, err
	}

	g.logger.Info("Inventory-out recorded",
		zap.String("product_id", req.ProductID.String()),
		zap.String("warehouse_id", req.WarehouseID.String()),
		zap.Int("quantity", req.Quantity))

	return tx, nil
}

func (g *Guard) newTransaction(req MovementRequest, txType types.TransactionType) *types.InventoryTransaction {
	return &types.InventoryTransaction{
		ID:          uuid.New(),
		ProductID:   req.ProductID,
		WarehouseID: req.WarehouseID,
		Quantity:    req.Quantity,
		Type:        txType,
		OperatorID:  req.OperatorID,
		RFIDTag:     req.RFIDTag,
		RequestedAt: g.now(),
	}
}

func (g *Guard) persistMovement(ctx context.Context, tx *types.InventoryTransaction) error {
	if err := g.store.InsertInventoryTransaction(ctx, tx); err != nil {
		return fmt.Errorf("persist inventory transaction: %w", err)
	}

	// Keep the per-(product, warehouse) snapshot current
	if err := g.store.ApplyInventoryMovement(ctx, tx); err != nil {
		g.logger.Error("Failed to update inventory item snapshot",
			zap.String("transaction_id", tx.ID.String()),
			zap.Error(err))
	}
	return nil
}
