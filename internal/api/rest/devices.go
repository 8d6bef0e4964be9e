package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/openwarehouse/WareFleetCore/internal/commands"
	"github.com/openwarehouse/WareFleetCore/internal/types"
)

func parseIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest,
			types.NewErrorResponse("BAD_REQUEST", "invalid id", nil))
		return uuid.Nil, false
	}
	return id, true
}

// GET /api/v1/warehouses/:id/devices
func (s *Server) listDevices(c *gin.Context) {
	warehouseID, ok := parseIDParam(c)
	if !ok {
		return
	}

	devices, err := s.lm.Storage().ListDevices(c.Request.Context(), warehouseID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"devices": devices,
		"count":   len(devices),
	})
}

// GET /api/v1/devices/:id
func (s *Server) getDevice(c *gin.Context) {
	deviceID, ok := parseIDParam(c)
	if !ok {
		return
	}

	device, err := s.lm.Storage().DeviceByID(c.Request.Context(), deviceID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, device)
}

// POST /api/v1/devices
func (s *Server) createDevice(c *gin.Context) {
	var req struct {
		MAC         string     `json:"mac" binding:"required"`
		Name        string     `json:"name" binding:"required"`
		Type        string     `json:"type" binding:"required"`
		GatewayID   *uuid.UUID `json:"gateway_id"`
		WarehouseID uuid.UUID  `json:"warehouse_id" binding:"required"`
		RFIDTag     string     `json:"rfid_tag"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	device := &types.Device{
		ID:          uuid.New(),
		MAC:         req.MAC,
		Name:        req.Name,
		Type:        types.DeviceType(req.Type),
		State:       types.DeviceStateActive,
		GatewayID:   req.GatewayID,
		WarehouseID: req.WarehouseID,
		RFIDTag:     req.RFIDTag,
	}

	if err := s.lm.Storage().SaveDevice(c.Request.Context(), device); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, device)
}

// GET /api/v1/devices/:id/address
func (s *Server) resolveDeviceAddress(c *gin.Context) {
	deviceID, ok := parseIDParam(c)
	if !ok {
		return
	}

	addr, err := s.lm.Resolver().Resolve(c.Request.Context(), deviceID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"address":       addr,
		"control_topic": commands.CommandTopic(addr, "<channel>"),
	})
}

// GET /api/v1/devices/:id/sub-devices
func (s *Server) listSubDevices(c *gin.Context) {
	deviceID, ok := parseIDParam(c)
	if !ok {
		return
	}

	subDevices, err := s.lm.Storage().SubDevicesByDevice(c.Request.Context(), deviceID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sub_devices": subDevices,
		"count":       len(subDevices),
	})
}

// POST /api/v1/devices/:id/sub-devices
func (s *Server) createSubDevice(c *gin.Context) {
	deviceID, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req struct {
		Code string `json:"code" binding:"required"`
		Name string `json:"name" binding:"required"`
		Type string `json:"type" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	subDevice := &types.SubDevice{
		ID:       uuid.New(),
		Code:     req.Code,
		Name:     req.Name,
		Type:     req.Type,
		Status:   types.SubDeviceOff,
		State:    types.DeviceStateActive,
		DeviceID: deviceID,
	}

	if err := s.lm.Storage().SaveSubDevice(c.Request.Context(), subDevice); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, subDevice)
}
