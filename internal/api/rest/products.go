package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/openwarehouse/WareFleetCore/internal/types"
)

// GET /api/v1/products?warehouse_id=
func (s *Server) listProducts(c *gin.Context) {
	warehouseID, err := uuid.Parse(c.Query("warehouse_id"))
	if err != nil {
		respondBadRequest(c, err)
		return
	}

	products, err := s.lm.Storage().ListProducts(c.Request.Context(), warehouseID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"products": products,
		"count":    len(products),
	})
}

// GET /api/v1/products/:id
func (s *Server) getProduct(c *gin.Context) {
	productID, ok := parseIDParam(c)
	if !ok {
		return
	}

	product, err := s.lm.Storage().ProductByID(c.Request.Context(), productID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// POST /api/v1/products
func (s *Server) createProduct(c *gin.Context) {
	var req struct {
		Code        string    `json:"code" binding:"required"`
		Name        string    `json:"name" binding:"required"`
		Category    string    `json:"category"`
		Quantity    int       `json:"quantity"`
		Unit        string    `json:"unit"`
		WarehouseID uuid.UUID `json:"warehouse_id" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	product := &types.Product{
		ID:          uuid.New(),
		Code:        req.Code,
		Name:        req.Name,
		Category:    req.Category,
		Quantity:    req.Quantity,
		Unit:        req.Unit,
		WarehouseID: req.WarehouseID,
		FlowState:   types.FlowStateNormal,
	}

	if err := s.lm.Storage().SaveProduct(c.Request.Context(), product); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

// PUT /api/v1/products/:id/flow-state
// Administrative override: this is the only way out of BLOCKED or READY_OUT.
func (s *Server) setProductFlowState(c *gin.Context) {
	productID, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req struct {
		FlowState types.FlowState `json:"flow_state" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	switch req.FlowState {
	case types.FlowStateNormal, types.FlowStateBlocked, types.FlowStateReadyOut:
	default:
		c.JSON(http.StatusBadRequest,
			types.NewErrorResponse("BAD_REQUEST", "unknown flow state", nil))
		return
	}

	if err := s.lm.Storage().SetProductFlowState(c.Request.Context(), productID, req.FlowState); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"product_id": productID,
		"flow_state": req.FlowState,
	})
}
