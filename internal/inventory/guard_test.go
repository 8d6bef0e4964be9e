package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/openwarehouse/WareFleetCore/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeStore struct {
	products     map[uuid.UUID]*types.Product
	schedules    []*types.OutboundSchedule
	transactions []*types.InventoryTransaction
	movements    []*types.InventoryTransaction
	stateChanges []types.FlowState
}

func newFakeStore() *fakeStore {
	return &fakeStore{products: make(map[uuid.UUID]*types.Product)}
}

func (s *fakeStore) ProductByID(_ context.Context, id uuid.UUID) (*types.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return nil, types.ErrNotFound
	}
	return p, nil
}

func (s *fakeStore) SetProductFlowState(_ context.Context, productID uuid.UUID, state types.FlowState) error {
	s.products[productID].FlowState = state
	s.stateChanges = append(s.stateChanges, state)
	return nil
}

func (s *fakeStore) InsertOutboundSchedule(_ context.Context, schedule *types.OutboundSchedule) error {
	s.schedules = append(s.schedules, schedule)
	return nil
}

func (s *fakeStore) ActiveOutboundSchedule(_ context.Context, warehouseID, productID uuid.UUID) (*types.OutboundSchedule, error) {
	for _, sc := range s.schedules {
		if sc.WarehouseID == warehouseID && sc.ProductID == productID {
			return sc, nil
		}
	}
	return nil, types.ErrNotFound
}

func (s *fakeStore) InsertInventoryTransaction(_ context.Context, tx *types.InventoryTransaction) error {
	s.transactions = append(s.transactions, tx)
	return nil
}

func (s *fakeStore) ApplyInventoryMovement(_ context.Context, tx *types.InventoryTransaction) error {
	s.movements = append(s.movements, tx)
	return nil
}

type fakeRFIDDir struct {
	devices map[string]*types.Device
}

func (d *fakeRFIDDir) DeviceByRFIDTag(_ context.Context, tag string) (*types.Device, error) {
	dev, ok := d.devices[tag]
	if !ok {
		return nil, types.ErrNotFound
	}
	return dev, nil
}

type sentCommand struct {
	productCode string
	deviceID    uuid.UUID
	ttl         time.Duration
}

type fakeSender struct {
	sent []sentCommand
	err  error
}

func (s *fakeSender) SetRFIDProductInfo(_ context.Context, productCode string, deviceID uuid.UUID, ttl time.Duration) (types.CommandAck, error) {
	if s.err != nil {
		return types.CommandAck{}, s.err
	}
	s.sent = append(s.sent, sentCommand{productCode, deviceID, ttl})
	return types.CommandAck{Topic: "warehouse/gateway_aa/node_bb/control/rfid/cmd", SentAt: time.Now()}, nil
}

type guardFixture struct {
	guard     *Guard
	store     *fakeStore
	sender    *fakeSender
	product   *types.Product
	device    *types.Device
	warehouse uuid.UUID
	now       time.Time
}

func newGuardFixture(t *testing.T) *guardFixture {
	t.Helper()

	store := newFakeStore()
	product := &types.Product{
		ID:          uuid.New(),
		Code:        "SKU-1001",
		Name:        "Pallet jack",
		WarehouseID: uuid.New(),
		FlowState:   types.FlowStateNormal,
	}
	store.products[product.ID] = product

	device := &types.Device{
		ID:      uuid.New(),
		MAC:     "bb:bb:bb:bb:bb:01",
		Type:    types.DeviceTypeRFIDReader,
		RFIDTag: "TAG-42",
	}
	dir := &fakeRFIDDir{devices: map[string]*types.Device{"TAG-42": device}}
	sender := &fakeSender{}

	now := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	guard := NewGuard(store, dir, sender, zap.NewNop())
	guard.now = func() time.Time { return now }

	return &guardFixture{
		guard:     guard,
		store:     store,
		sender:    sender,
		product:   product,
		device:    device,
		warehouse: product.WarehouseID,
		now:       now,
	}
}

func (f *guardFixture) movementRequest() MovementRequest {
	return MovementRequest{
		ProductID:   f.product.ID,
		WarehouseID: f.warehouse,
		Quantity:    5,
		OperatorID:  uuid.New(),
		RFIDTag:     "TAG-42",
	}
}

func (f *guardFixture) scheduleAround(start, end time.Time) *types.OutboundSchedule {
	return &types.OutboundSchedule{
		ProductID:   f.product.ID,
		WarehouseID: f.warehouse,
		StartAt:     start,
		EndAt:       end,
	}
}

func TestCreateOutboundScheduleStagesProduct(t *testing.T) {
	f := newGuardFixture(t)

	err := f.guard.CreateOutboundSchedule(context.Background(),
		f.scheduleAround(f.now.Add(-time.Hour), f.now.Add(time.Hour)))
	require.NoError(t, err)

	require.Len(t, f.store.schedules, 1)
	assert.NotEqual(t, uuid.Nil, f.store.schedules[0].ID)
	assert.Equal(t, types.FlowStateReadyOut, f.product.FlowState)
}

func TestCreateOutboundScheduleRejectsBlockedProduct(t *testing.T) {
	f := newGuardFixture(t)
	f.product.FlowState = types.FlowStateBlocked

	err := f.guard.CreateOutboundSchedule(context.Background(),
		f.scheduleAround(f.now, f.now.Add(time.Hour)))

	assert.ErrorIs(t, err, types.ErrPreconditionFailed)
	assert.Empty(t, f.store.schedules)
	assert.Equal(t, types.FlowStateBlocked, f.product.FlowState)
}

func TestRequestInventoryInDispatchesRFIDRead(t *testing.T) {
	f := newGuardFixture(t)

	tx, ack, err := f.guard.RequestInventoryIn(context.Background(), f.movementRequest())
	require.NoError(t, err)

	require.NotNil(t, tx)
	assert.Equal(t, types.TransactionIn, tx.Type)
	assert.Equal(t, 5, tx.Quantity)
	assert.Equal(t, f.now, tx.RequestedAt)

	require.Len(t, f.store.transactions, 1)
	require.Len(t, f.store.movements, 1)

	require.Len(t, f.sender.sent, 1)
	cmd := f.sender.sent[0]
	assert.Equal(t, "SKU-1001", cmd.productCode)
	assert.Equal(t, f.device.ID, cmd.deviceID)
	assert.Equal(t, 30*time.Second, cmd.ttl)
	assert.NotEmpty(t, ack.Topic)
}

func TestRequestInventoryInRejectsBlockedProduct(t *testing.T) {
	f := newGuardFixture(t)
	f.product.FlowState = types.FlowStateBlocked

	_, _, err := f.guard.RequestInventoryIn(context.Background(), f.movementRequest())

	assert.ErrorIs(t, err, types.ErrPreconditionFailed)
	assert.Contains(t, err.Error(), "blocked")
	assert.Empty(t, f.store.transactions)
	assert.Empty(t, f.sender.sent)
}

func TestRequestInventoryInRejectsStagedProduct(t *testing.T) {
	f := newGuardFixture(t)
	f.product.FlowState = types.FlowStateReadyOut

	_, _, err := f.guard.RequestInventoryIn(context.Background(), f.movementRequest())

	assert.ErrorIs(t, err, types.ErrPreconditionFailed)
	assert.Contains(t, err.Error(), "staged for outbound")
	assert.Empty(t, f.store.transactions)
	assert.Empty(t, f.sender.sent)
}

func TestRequestInventoryInUnknownTag(t *testing.T) {
	f := newGuardFixture(t)
	req := f.movementRequest()
	req.RFIDTag = "TAG-UNKNOWN"

	_, _, err := f.guard.RequestInventoryIn(context.Background(), req)

	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.Empty(t, f.store.transactions)
	assert.Empty(t, f.sender.sent)
}

func TestRequestInventoryInTransportDown(t *testing.T) {
	f := newGuardFixture(t)
	f.sender.err = types.ErrTransportUnavailable

	tx, _, err := f.guard.RequestInventoryIn(context.Background(), f.movementRequest())

	// Movement is recorded before the dispatch attempt
	assert.ErrorIs(t, err, types.ErrTransportUnavailable)
	assert.NotNil(t, tx)
	require.Len(t, f.store.transactions, 1)
}

func TestRequestInventoryOutInsideWindow(t *testing.T) {
	f := newGuardFixture(t)
	f.store.schedules = append(f.store.schedules,
		f.scheduleAround(f.now.Add(-time.Hour), f.now.Add(time.Hour)))

	tx, err := f.guard.RequestInventoryOut(context.Background(), f.movementRequest())
	require.NoError(t, err)

	assert.Equal(t, types.TransactionOut, tx.Type)
	require.Len(t, f.store.transactions, 1)
	require.Len(t, f.store.movements, 1)

	// Outbound never commands a device
	assert.Empty(t, f.sender.sent)
}

func TestRequestInventoryOutWindowBoundariesInclusive(t *testing.T) {
	f := newGuardFixture(t)

	for _, tc := range []struct {
		name  string
		start time.Time
		end   time.Time
	}{
		{"at window start", f.now, f.now.Add(time.Hour)},
		{"at window end", f.now.Add(-time.Hour), f.now},
	} {
		t.Run(tc.name, func(t *testing.T) {
			f.store.schedules = []*types.OutboundSchedule{f.scheduleAround(tc.start, tc.end)}

			_, err := f.guard.RequestInventoryOut(context.Background(), f.movementRequest())
			assert.NoError(t, err)
		})
	}
}

func TestRequestInventoryOutAfterWindowCloses(t *testing.T) {
	f := newGuardFixture(t)
	f.store.schedules = append(f.store.schedules,
		f.scheduleAround(f.now.Add(-2*time.Hour), f.now.Add(-time.Millisecond)))

	_, err := f.guard.RequestInventoryOut(context.Background(), f.movementRequest())

	assert.ErrorIs(t, err, types.ErrPreconditionFailed)
	assert.Contains(t, err.Error(), "outside scheduling window")
	assert.Empty(t, f.store.transactions)
}

func TestRequestInventoryOutNoSchedule(t *testing.T) {
	f := newGuardFixture(t)

	_, err := f.guard.RequestInventoryOut(context.Background(), f.movementRequest())

	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.Contains(t, err.Error(), "no matching outbound schedule")
	assert.Empty(t, f.store.transactions)
}
