package system

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/openwarehouse/WareFleetCore/internal/addressing"
	"github.com/openwarehouse/WareFleetCore/internal/api/rest"
	"github.com/openwarehouse/WareFleetCore/internal/auth"
	"github.com/openwarehouse/WareFleetCore/internal/commands"
	"github.com/openwarehouse/WareFleetCore/internal/config"
	"github.com/openwarehouse/WareFleetCore/internal/fleet"
	"github.com/openwarehouse/WareFleetCore/internal/interfaces"
	"github.com/openwarehouse/WareFleetCore/internal/inventory"
	"github.com/openwarehouse/WareFleetCore/internal/realtime"
	"github.com/openwarehouse/WareFleetCore/internal/storage"
	"github.com/openwarehouse/WareFleetCore/internal/telemetry"
	"github.com/openwarehouse/WareFleetCore/internal/transport"
	"go.uber.org/zap"
)

// LifecycleManager owns construction, startup order and shutdown of every
// service in the process.
type LifecycleManager struct {
	config     *config.Config
	storage    *storage.PostgresClient
	cache      *storage.CachedDirectory
	bus        *transport.Client
	resolver   *addressing.Resolver
	dispatcher *commands.Dispatcher
	ingestor   *telemetry.Ingestor
	aggregator *telemetry.Aggregator
	guard      *inventory.Guard
	authSvc    *auth.Service
	hub        *realtime.Hub
	logger     *zap.Logger

	restServer *rest.Server

	stateMu      sync.RWMutex
	currentState SystemState

	shutdownOnce sync.Once
}

func NewLifecycleManager(store *storage.PostgresClient, cfg *config.Config, logger *zap.Logger) (*LifecycleManager, error) {
	lm := &LifecycleManager{
		config:       cfg,
		storage:      store,
		logger:       logger,
		currentState: StateInitializing,
	}

	lm.bus = transport.NewClient(cfg.MQTT, logger)
	lm.authSvc = auth.NewService(store, cfg.Auth)
	lm.hub = realtime.NewHub(logger, lm.authSvc)

	// Optional redis read-through cache on the hot DeviceByMAC path
	var lookup telemetry.DeviceLookup = store
	if cfg.Redis.Addr != "" {
		lm.cache = storage.NewCachedDirectory(store, cfg.Redis, logger)
		lookup = lm.cache
	}

	lm.resolver = addressing.NewResolver(store)
	lm.dispatcher = commands.NewDispatcher(lm.resolver, store, lm.bus, logger)
	lm.aggregator = telemetry.NewAggregator(store)
	lm.guard = inventory.NewGuard(store, store, lm.dispatcher, logger)

	ingestor, err := telemetry.NewIngestor(lookup, store, lm.hub, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create telemetry ingestor: %w", err)
	}
	lm.ingestor = ingestor

	return lm, nil
}

// Start brings the system up: fleet seed, broker connection, telemetry
// subscription, realtime hub, REST API.
func (lm *LifecycleManager) Start(ctx context.Context) error {
	lm.logger.Info("Starting WareFleetCore")
	lm.setState(StateInitializing)

	if err := lm.applyFleetManifest(ctx); err != nil {
		// Seeding is best effort; a missing manifest is not fatal
		lm.logger.Warn("Fleet manifest not applied", zap.Error(err))
	}

	if err := lm.bus.Connect(ctx); err != nil {
		lm.setState(StateError)
		return fmt.Errorf("failed to connect to broker: %w", err)
	}

	if err := lm.ingestor.Start(busSubscriber{lm.bus}); err != nil {
		lm.setState(StateError)
		return fmt.Errorf("failed to start telemetry ingest: %w", err)
	}

	go lm.hub.Run()

	lm.restServer = rest.NewServer(lm.config, lm, lm.logger, lm.hub)
	if err := lm.restServer.Start(); err != nil {
		lm.setState(StateError)
		return fmt.Errorf("failed to start REST API: %w", err)
	}

	lm.setState(StateRunning)
	lm.logger.Info("System started successfully",
		zap.Int("http_port", lm.config.Server.HTTPPort),
		zap.String("broker", lm.config.MQTT.BrokerURL))

	return nil
}

// busSubscriber adapts *transport.Client to telemetry.Subscriber: the method
// signatures differ only in the named transport.MessageHandler parameter type.
type busSubscriber struct {
	bus *transport.Client
}

func (b busSubscriber) Subscribe(filter string, handler func(topic string, payload []byte)) error {
	return b.bus.Subscribe(filter, handler)
}

func (lm *LifecycleManager) applyFleetManifest(ctx context.Context) error {
	path := lm.config.Fleet.ManifestPath
	if path == "" {
		return nil
	}

	manifest, err := fleet.LoadManifest(path)
	if err != nil {
		return err
	}

	loader := fleet.NewLoader(lm.storage, lm.logger)
	return loader.Apply(ctx, manifest)
}

// Shutdown gracefully stops the system.
func (lm *LifecycleManager) Shutdown(ctx context.Context) error {
	var shutdownErr error

	lm.shutdownOnce.Do(func() {
		lm.logger.Info("Shutting down system")
		lm.setState(StateStopping)
		shutdownErr = lm.gracefulShutdown(ctx)
		lm.setState(StateStopped)
	})

	return shutdownErr
}

func (lm *LifecycleManager) gracefulShutdown(ctx context.Context) error {
	var wg sync.WaitGroup
	errChan := make(chan error, 2)

	if lm.restServer != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()

			if err := lm.restServer.Shutdown(shutdownCtx); err != nil {
				errChan <- fmt.Errorf("rest api shutdown failed: %w", err)
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		lm.bus.Disconnect()
	}()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return fmt.Errorf("shutdown timeout exceeded")
	case err := <-errChan:
		return err
	}

	if lm.cache != nil {
		if err := lm.cache.Close(); err != nil {
			lm.logger.Warn("Failed to close device cache", zap.Error(err))
		}
	}
	lm.storage.Close()

	lm.logger.Info("Graceful shutdown completed")
	return nil
}

func (lm *LifecycleManager) setState(state SystemState) {
	lm.stateMu.Lock()
	defer lm.stateMu.Unlock()
	lm.currentState = state
}

// GetCurrentStatus returns the operator-visible health snapshot.
func (lm *LifecycleManager) GetCurrentStatus() interfaces.SystemStatus {
	lm.stateMu.RLock()
	defer lm.stateMu.RUnlock()

	return interfaces.SystemStatus{
		State:           lm.currentState.String(),
		BrokerConnected: lm.bus.IsConnected(),
		LiveSubscribers: lm.hub.SubscriberCount(),
	}
}

func (lm *LifecycleManager) Config() *config.Config            { return lm.config }
func (lm *LifecycleManager) Storage() *storage.PostgresClient  { return lm.storage }
func (lm *LifecycleManager) Resolver() *addressing.Resolver    { return lm.resolver }
func (lm *LifecycleManager) Dispatcher() *commands.Dispatcher  { return lm.dispatcher }
func (lm *LifecycleManager) Guard() *inventory.Guard           { return lm.guard }
func (lm *LifecycleManager) Aggregator() *telemetry.Aggregator { return lm.aggregator }
func (lm *LifecycleManager) Auth() *auth.Service               { return lm.authSvc }
func (lm *LifecycleManager) Hub() *realtime.Hub                { return lm.hub }
func (lm *LifecycleManager) Transport() *transport.Client      { return lm.bus }
