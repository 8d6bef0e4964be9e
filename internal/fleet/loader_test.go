package fleet

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/openwarehouse/WareFleetCore/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const sampleManifest = `
warehouses:
  - code: WH-A
    name: North Hall
    address: Dock 4
    gateways:
      - mac: "aa:aa:aa:aa:aa:01"
        name: gw-north
        nodes:
          - mac: "bb:bb:bb:bb:bb:01"
            name: env-01
            type: env_sensor
            sub_devices:
              - code: fan1
                name: Exhaust fan
                type: fan
          - mac: "bb:bb:bb:bb:bb:02"
            name: rfid-dock
            type: rfid_reader
            rfid_tag: TAG-42
`

type seedRecorder struct {
	warehouses map[string]*types.Warehouse
	devices    map[string]*types.Device
	subDevices []*types.SubDevice
	saved      int
}

func newSeedRecorder() *seedRecorder {
	return &seedRecorder{
		warehouses: make(map[string]*types.Warehouse),
		devices:    make(map[string]*types.Device),
	}
}

func (s *seedRecorder) WarehouseByName(_ context.Context, name string) (*types.Warehouse, error) {
	w, ok := s.warehouses[name]
	if !ok {
		return nil, types.ErrNotFound
	}
	return w, nil
}

func (s *seedRecorder) SaveWarehouse(_ context.Context, w *types.Warehouse) error {
	s.warehouses[w.Name] = w
	return nil
}

func (s *seedRecorder) DeviceByMAC(_ context.Context, mac string) (*types.Device, error) {
	d, ok := s.devices[mac]
	if !ok {
		return nil, types.ErrNotFound
	}
	return d, nil
}

func (s *seedRecorder) SaveDevice(_ context.Context, d *types.Device) error {
	s.devices[d.MAC] = d
	s.saved++
	return nil
}

func (s *seedRecorder) SaveSubDevice(_ context.Context, sd *types.SubDevice) error {
	s.subDevices = append(s.subDevices, sd)
	return nil
}

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fleet.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadManifest(t *testing.T) {
	manifest, err := LoadManifest(writeManifest(t, sampleManifest))
	require.NoError(t, err)

	require.Len(t, manifest.Warehouses, 1)
	wh := manifest.Warehouses[0]
	assert.Equal(t, "North Hall", wh.Name)
	require.Len(t, wh.Gateways, 1)
	require.Len(t, wh.Gateways[0].Nodes, 2)
	assert.Equal(t, "TAG-42", wh.Gateways[0].Nodes[1].RFIDTag)
}

func TestLoadManifestRejectsDuplicateMAC(t *testing.T) {
	dup := `
warehouses:
  - name: A
    gateways:
      - mac: "aa:aa:aa:aa:aa:01"
        name: gw1
        nodes:
          - mac: "aa:aa:aa:aa:aa:01"
            name: node1
            type: env_sensor
`
	_, err := LoadManifest(writeManifest(t, dup))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate mac")
}

func TestLoadManifestRejectsMissingMAC(t *testing.T) {
	missing := `
warehouses:
  - name: A
    gateways:
      - name: gw1
`
	_, err := LoadManifest(writeManifest(t, missing))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing mac")
}

func TestApplySeedsTopology(t *testing.T) {
	manifest, err := LoadManifest(writeManifest(t, sampleManifest))
	require.NoError(t, err)

	store := newSeedRecorder()
	loader := NewLoader(store, zap.NewNop())
	require.NoError(t, loader.Apply(context.Background(), manifest))

	gateway := store.devices["aa:aa:aa:aa:aa:01"]
	require.NotNil(t, gateway)
	assert.True(t, gateway.IsGateway())

	node := store.devices["bb:bb:bb:bb:bb:01"]
	require.NotNil(t, node)
	require.NotNil(t, node.GatewayID)
	assert.Equal(t, gateway.ID, *node.GatewayID)

	rfid := store.devices["bb:bb:bb:bb:bb:02"]
	require.NotNil(t, rfid)
	assert.Equal(t, types.DeviceTypeRFIDReader, rfid.Type)
	assert.Equal(t, "TAG-42", rfid.RFIDTag)

	require.Len(t, store.subDevices, 1)
	assert.Equal(t, "fan1", store.subDevices[0].Code)
	assert.Equal(t, node.ID, store.subDevices[0].DeviceID)
}

func TestApplyLeavesExistingDevicesUntouched(t *testing.T) {
	manifest, err := LoadManifest(writeManifest(t, sampleManifest))
	require.NoError(t, err)

	store := newSeedRecorder()
	loader := NewLoader(store, zap.NewNop())
	require.NoError(t, loader.Apply(context.Background(), manifest))

	firstSaved := store.saved
	gateway := store.devices["aa:aa:aa:aa:aa:01"]
	gateway.State = types.DeviceStateMaintenance

	require.NoError(t, loader.Apply(context.Background(), manifest))

	assert.Equal(t, firstSaved, store.saved, "second apply must not rewrite devices")
	assert.Equal(t, types.DeviceStateMaintenance, store.devices["aa:aa:aa:aa:aa:01"].State)
}
