package interfaces

import (
	"context"

	"github.com/openwarehouse/WareFleetCore/internal/addressing"
	"github.com/openwarehouse/WareFleetCore/internal/auth"
	"github.com/openwarehouse/WareFleetCore/internal/commands"
	"github.com/openwarehouse/WareFleetCore/internal/config"
	"github.com/openwarehouse/WareFleetCore/internal/inventory"
	"github.com/openwarehouse/WareFleetCore/internal/storage"
	"github.com/openwarehouse/WareFleetCore/internal/telemetry"
)

// SystemStatus is the operator-visible health snapshot.
type SystemStatus struct {
	State           string `json:"state"`
	BrokerConnected bool   `json:"broker_connected"`
	LiveSubscribers int    `json:"live_subscribers"`
}

// LifecycleManager exposes the wired services to the API layer without
// creating an import cycle with the system package.
type LifecycleManager interface {
	Config() *config.Config
	Storage() *storage.PostgresClient
	Resolver() *addressing.Resolver
	Dispatcher() *commands.Dispatcher
	Guard() *inventory.Guard
	Aggregator() *telemetry.Aggregator
	Auth() *auth.Service
	GetCurrentStatus() SystemStatus
	Shutdown(ctx context.Context) error
}
