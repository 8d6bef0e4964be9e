package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/openwarehouse/WareFleetCore/internal/types"
)

// GET /api/v1/warehouses
func (s *Server) listWarehouses(c *gin.Context) {
	warehouses, err := s.lm.Storage().ListWarehouses(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"warehouses": warehouses,
		"count":      len(warehouses),
	})
}

// GET /api/v1/warehouses/:id/threshold
func (s *Server) getThreshold(c *gin.Context) {
	warehouseID, ok := parseIDParam(c)
	if !ok {
		return
	}

	threshold, err := s.lm.Storage().ThresholdByWarehouse(c.Request.Context(), warehouseID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, threshold)
}

// PUT /api/v1/warehouses/:id/threshold
// The whole bundle is replaced; there is no partial update.
func (s *Server) putThreshold(c *gin.Context) {
	warehouseID, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req struct {
		TempLow   float64 `json:"temp_lo"`
		TempHigh  float64 `json:"temp_hi"`
		HumLow    float64 `json:"hum_lo"`
		HumHigh   float64 `json:"hum_hi"`
		GasHigh   float64 `json:"gas_hi"`
		LightLow  float64 `json:"light_lo"`
		LightHigh float64 `json:"light_hi"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	threshold := &types.Threshold{
		WarehouseID: warehouseID,
		TempLow:     req.TempLow,
		TempHigh:    req.TempHigh,
		HumLow:      req.HumLow,
		HumHigh:     req.HumHigh,
		GasHigh:     req.GasHigh,
		LightLow:    req.LightLow,
		LightHigh:   req.LightHigh,
	}

	if err := s.lm.Storage().UpsertThreshold(c.Request.Context(), threshold); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, threshold)
}

// GET /api/v1/warehouses/:id/alerts?limit=N
func (s *Server) listAlerts(c *gin.Context) {
	warehouseID, ok := parseIDParam(c)
	if !ok {
		return
	}

	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			respondBadRequest(c, err)
			return
		}
		limit = n
	}

	alerts, err := s.lm.Storage().ListAlerts(c.Request.Context(), warehouseID, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"alerts": alerts,
		"count":  len(alerts),
	})
}

// POST /api/v1/warehouses/:id/alerts
// Callers supply the full payload; the core records, it does not judge.
func (s *Server) createAlert(c *gin.Context) {
	warehouseID, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req struct {
		Level  string  `json:"level" binding:"required"`
		Reason string  `json:"reason" binding:"required"`
		Value  float64 `json:"value"`
		Status string  `json:"status"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	if req.Status == "" {
		req.Status = "open"
	}

	alert := &types.Alert{
		WarehouseID: warehouseID,
		Level:       req.Level,
		Reason:      req.Reason,
		Value:       req.Value,
		Status:      req.Status,
	}

	if err := s.lm.Storage().InsertAlert(c.Request.Context(), alert); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, alert)
}
