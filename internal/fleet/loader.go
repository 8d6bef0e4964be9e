package fleet

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/openwarehouse/WareFleetCore/internal/types"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Manifest is the declarative fleet seed. Gateways own their nodes; the YAML
// nesting enforces the one-hop topology by construction.
type Manifest struct {
	Warehouses []ManifestWarehouse `yaml:"warehouses"`
}

type ManifestWarehouse struct {
	Code     string            `yaml:"code"`
	Name     string            `yaml:"name"`
	Address  string            `yaml:"address"`
	Gateways []ManifestGateway `yaml:"gateways"`
}

type ManifestGateway struct {
	MAC   string         `yaml:"mac"`
	Name  string         `yaml:"name"`
	Nodes []ManifestNode `yaml:"nodes"`
}

type ManifestNode struct {
	MAC        string              `yaml:"mac"`
	Name       string              `yaml:"name"`
	Type       string              `yaml:"type"`
	RFIDTag    string              `yaml:"rfid_tag,omitempty"`
	SubDevices []ManifestSubDevice `yaml:"sub_devices,omitempty"`
}

type ManifestSubDevice struct {
	Code string `yaml:"code"`
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// SeedStore is the subset of the storage layer the seeder writes through.
type SeedStore interface {
	WarehouseByName(ctx context.Context, name string) (*types.Warehouse, error)
	SaveWarehouse(ctx context.Context, w *types.Warehouse) error
	DeviceByMAC(ctx context.Context, mac string) (*types.Device, error)
	SaveDevice(ctx context.Context, d *types.Device) error
	SaveSubDevice(ctx context.Context, sd *types.SubDevice) error
}

type Loader struct {
	store  SeedStore
	logger *zap.Logger
}

func NewLoader(store SeedStore, logger *zap.Logger) *Loader {
	return &Loader{store: store, logger: logger}
}

// LoadManifest reads and validates a fleet manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fleet manifest: %w", err)
	}

	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("parse fleet manifest %s: %w", path, err)
	}

	if err := manifest.Validate(); err != nil {
		return nil, fmt.Errorf("invalid fleet manifest %s: %w", path, err)
	}

	return &manifest, nil
}

// Validate checks MAC presence and uniqueness across the whole manifest.
func (m *Manifest) Validate() error {
	seen := make(map[string]string)

	record := func(mac, owner string) error {
		if mac == "" {
			return fmt.Errorf("%s: missing mac", owner)
		}
		if prev, dup := seen[mac]; dup {
			return fmt.Errorf("duplicate mac %s (%s and %s)", mac, prev, owner)
		}
		seen[mac] = owner
		return nil
	}

	for _, w := range m.Warehouses {
		if w.Name == "" {
			return fmt.Errorf("warehouse with empty name")
		}
		for _, gw := range w.Gateways {
			if err := record(gw.MAC, "gateway "+gw.Name); err != nil {
				return err
			}
			for _, node := range gw.Nodes {
				if err := record(node.MAC, "node "+node.Name); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// Apply upserts the manifest into storage. Existing devices (matched by MAC)
// are left untouched so manual state changes survive restarts.
func (l *Loader) Apply(ctx context.Context, manifest *Manifest) error {
	for _, mw := range manifest.Warehouses {
		warehouse, err := l.ensureWarehouse(ctx, mw)
		if err != nil {
			return err
		}

		for _, mg := range mw.Gateways {
			gateway, err := l.ensureDevice(ctx, &types.Device{
				ID:          uuid.New(),
				MAC:         mg.MAC,
				Name:        mg.Name,
				Type:        types.DeviceTypeGateway,
				State:       types.DeviceStateActive,
				WarehouseID: warehouse.ID,
			})
			if err != nil {
				return fmt.Errorf("seed gateway %s: %w", mg.MAC, err)
			}

			for _, mn := range mg.Nodes {
				gatewayID := gateway.ID
				node, err := l.ensureDevice(ctx, &types.Device{
					ID:          uuid.New(),
					MAC:         mn.MAC,
					Name:        mn.Name,
					Type:        types.DeviceType(mn.Type),
					State:       types.DeviceStateActive,
					GatewayID:   &gatewayID,
					WarehouseID: warehouse.ID,
					RFIDTag:     mn.RFIDTag,
				})
				if err != nil {
					return fmt.Errorf("seed node %s: %w", mn.MAC, err)
				}

				for _, msd := range mn.SubDevices {
					sd := &types.SubDevice{
						ID:       uuid.New(),
						Code:     msd.Code,
						Name:     msd.Name,
						Type:     msd.Type,
						Status:   SubDeviceDefaultStatus,
						State:    types.DeviceStateActive,
						DeviceID: node.ID,
					}
					if err := l.store.SaveSubDevice(ctx, sd); err != nil {
						return fmt.Errorf("seed sub-device %s on %s: %w", msd.Code, mn.MAC, err)
					}
				}
			}
		}
	}

	l.logger.Info("Fleet manifest applied",
		zap.Int("warehouses", len(manifest.Warehouses)))
	return nil
}

// SubDeviceDefaultStatus is the status assigned to freshly seeded sub-devices.
const SubDeviceDefaultStatus = types.SubDeviceOff

func (l *Loader) ensureWarehouse(ctx context.Context, mw ManifestWarehouse) (*types.Warehouse, error) {
	existing, err := l.store.WarehouseByName(ctx, mw.Name)
	if err == nil {
		return existing, nil
	}

	warehouse := &types.Warehouse{
		ID:      uuid.New(),
		Code:    mw.Code,
		Name:    mw.Name,
		Address: mw.Address,
	}
	if err := l.store.SaveWarehouse(ctx, warehouse); err != nil {
		return nil, fmt.Errorf("seed warehouse %s: %w", mw.Name, err)
	}
	return warehouse, nil
}

func (l *Loader) ensureDevice(ctx context.Context, d *types.Device) (*types.Device, error) {
	existing, err := l.store.DeviceByMAC(ctx, d.MAC)
	if err == nil {
		return existing, nil
	}
	if err := l.store.SaveDevice(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}
