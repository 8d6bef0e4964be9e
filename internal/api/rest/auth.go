package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/openwarehouse/WareFleetCore/internal/types"
)

// POST /api/v1/auth/login
func (s *Server) login(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	token, operator, err := s.lm.Auth().Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized,
			types.NewErrorResponse("UNAUTHORIZED", "Invalid credentials", nil))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"operator": gin.H{
			"id":       operator.ID,
			"username": operator.Username,
			"role":     operator.Role,
		},
	})
}
