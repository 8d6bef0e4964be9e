package rest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/openwarehouse/WareFleetCore/internal/config"
	"github.com/openwarehouse/WareFleetCore/internal/interfaces"
	"github.com/openwarehouse/WareFleetCore/internal/realtime"
	"go.uber.org/zap"
)

type Server struct {
	router *gin.Engine
	lm     interfaces.LifecycleManager
	logger *zap.Logger
	server *http.Server
	hub    *realtime.Hub
}

func NewServer(cfg *config.Config, lm interfaces.LifecycleManager, logger *zap.Logger, hub *realtime.Hub) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		router: gin.New(),
		lm:     lm,
		logger: logger,
		hub:    hub,
	}

	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) Start() error {
	s.logger.Info("Starting REST API server", zap.String("address", s.server.Addr))
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Fatal("REST server failed", zap.Error(err))
		}
	}()
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down REST API server")
	return s.server.Shutdown(ctx)
}

func (s *Server) setupRoutes() {
	s.router.Use(gin.Recovery())
	s.router.Use(LoggerMiddleware(s.logger))
	s.router.Use(CORSMiddleware())

	// Public routes (no auth required)
	s.router.GET("/health", s.healthCheck)

	authMW := s.lm.Auth().Middleware()

	v1 := s.router.Group("/api/v1")
	{
		// ==================== AUTH ====================
		v1.POST("/auth/login", s.login)

		// ==================== WAREHOUSES ====================
		warehouses := v1.Group("/warehouses")
		warehouses.Use(authMW)
		{
			warehouses.GET("", s.listWarehouses)
			warehouses.GET("/:id/devices", s.listDevices)
			warehouses.GET("/:id/threshold", s.getThreshold)
			warehouses.PUT("/:id/threshold", s.putThreshold)
			warehouses.GET("/:id/alerts", s.listAlerts)
			warehouses.POST("/:id/alerts", s.createAlert)
		}

		// ==================== DEVICES ====================
		devices := v1.Group("/devices")
		devices.Use(authMW)
		{
			devices.POST("", s.createDevice)
			devices.GET("/:id", s.getDevice)
			devices.GET("/:id/address", s.resolveDeviceAddress)
			devices.GET("/:id/sub-devices", s.listSubDevices)
			devices.POST("/:id/sub-devices", s.createSubDevice)
		}

		// ==================== COMMANDS ====================
		cmds := v1.Group("/commands")
		cmds.Use(authMW)
		{
			cmds.POST("/actuator", s.setActuator)
			cmds.POST("/threshold", s.setDeviceThreshold)
			cmds.POST("/rfid/user-info", s.setRFIDUserInfo)
		}

		// ==================== TELEMETRY ====================
		tele := v1.Group("/telemetry")
		tele.Use(authMW)
		{
			tele.GET("/devices/:id/readings", s.listReadings)
			tele.GET("/devices/:id/latest", s.latestReading)
			tele.GET("/devices/:id/hourly", s.hourlyAverages)
		}

		// ==================== INVENTORY ====================
		inv := v1.Group("/inventory")
		inv.Use(authMW)
		{
			inv.POST("/in", s.inventoryIn)
			inv.POST("/out", s.inventoryOut)
			inv.POST("/schedules", s.createOutboundSchedule)
			inv.GET("/transactions", s.listTransactions)
			inv.GET("/items", s.getInventoryItem)
		}

		// ==================== PRODUCTS ====================
		products := v1.Group("/products")
		products.Use(authMW)
		{
			products.GET("", s.listProducts)
			products.POST("", s.createProduct)
			products.GET("/:id", s.getProduct)
			products.PUT("/:id/flow-state", s.setProductFlowState)
		}

		// ==================== SYSTEM ====================
		system := v1.Group("/system")
		system.Use(authMW)
		{
			system.GET("/status", s.getSystemStatus)
		}

		// ==================== WEBSOCKET (auth via first frame) ====================
		ws := v1.Group("/ws")
		{
			ws.GET("/live", s.wsLiveConnection)
			ws.GET("/status", authMW, s.wsStatus)
		}
	}
}

func (s *Server) wsLiveConnection(c *gin.Context) {
	realtime.ServeWs(s.hub, c.Writer, c.Request)
}

func (s *Server) wsStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"connected_clients": s.hub.SubscriberCount(),
	})
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
	})
}

func (s *Server) getSystemStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.lm.GetCurrentStatus())
}
