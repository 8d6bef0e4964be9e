package rest

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/openwarehouse/WareFleetCore/internal/auth"
	"github.com/openwarehouse/WareFleetCore/internal/inventory"
	"github.com/openwarehouse/WareFleetCore/internal/types"
)

type movementRequest struct {
	ProductID   uuid.UUID `json:"product_id" binding:"required"`
	WarehouseID uuid.UUID `json:"warehouse_id" binding:"required"`
	Quantity    int       `json:"quantity" binding:"required,gt=0"`
	RFIDTag     string    `json:"rfid_tag"`
}

func (s *Server) bindMovement(c *gin.Context) (inventory.MovementRequest, bool) {
	var req movementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return inventory.MovementRequest{}, false
	}

	movement := inventory.MovementRequest{
		ProductID:   req.ProductID,
		WarehouseID: req.WarehouseID,
		Quantity:    req.Quantity,
		RFIDTag:     req.RFIDTag,
	}
	if claims, ok := auth.ClaimsFromContext(c); ok {
		movement.OperatorID = claims.OperatorID
	}
	return movement, true
}

// POST /api/v1/inventory/in
func (s *Server) inventoryIn(c *gin.Context) {
	movement, ok := s.bindMovement(c)
	if !ok {
		return
	}

	tx, ack, err := s.lm.Guard().RequestInventoryIn(c.Request.Context(), movement)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"transaction": tx,
		"command":     ack,
	})
}

// POST /api/v1/inventory/out
func (s *Server) inventoryOut(c *gin.Context) {
	movement, ok := s.bindMovement(c)
	if !ok {
		return
	}

	tx, err := s.lm.Guard().RequestInventoryOut(c.Request.Context(), movement)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"transaction": tx,
	})
}

// POST /api/v1/inventory/schedules
func (s *Server) createOutboundSchedule(c *gin.Context) {
	var req struct {
		ProductID   uuid.UUID `json:"product_id" binding:"required"`
		WarehouseID uuid.UUID `json:"warehouse_id" binding:"required"`
		StartAt     time.Time `json:"start_at" binding:"required"`
		EndAt       time.Time `json:"end_at" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	schedule := &types.OutboundSchedule{
		ProductID:   req.ProductID,
		WarehouseID: req.WarehouseID,
		StartAt:     req.StartAt,
		EndAt:       req.EndAt,
	}
	if claims, ok := auth.ClaimsFromContext(c); ok {
		schedule.CreatedBy = claims.OperatorID
	}

	if err := s.lm.Guard().CreateOutboundSchedule(c.Request.Context(), schedule); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, schedule)
}

// GET /api/v1/inventory/transactions?warehouse_id=&limit=
func (s *Server) listTransactions(c *gin.Context) {
	warehouseID, err := uuid.Parse(c.Query("warehouse_id"))
	if err != nil {
		respondBadRequest(c, err)
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

	transactions, err := s.lm.Storage().ListInventoryTransactions(c.Request.Context(), warehouseID, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"transactions": transactions,
		"count":        len(transactions),
	})
}

// GET /api/v1/inventory/items?product_id=&warehouse_id=
func (s *Server) getInventoryItem(c *gin.Context) {
	productID, err := uuid.Parse(c.Query("product_id"))
	if err != nil {
		respondBadRequest(c, err)
		return
	}
	warehouseID, err := uuid.Parse(c.Query("warehouse_id"))
	if err != nil {
		respondBadRequest(c, err)
		return
	}

	item, err := s.lm.Storage().InventoryItem(c.Request.Context(), productID, warehouseID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}
