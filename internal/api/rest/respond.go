package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/openwarehouse/WareFleetCore/internal/types"
)

// respondError maps the core's error kinds onto HTTP statuses. Anything
// unclassified is a 500 with the message hidden behind a generic body.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, types.ErrNotFound):
		c.JSON(http.StatusNotFound,
			types.NewErrorResponse("NOT_FOUND", err.Error(), nil))
	case errors.Is(err, types.ErrPreconditionFailed):
		c.JSON(http.StatusConflict,
			types.NewErrorResponse("PRECONDITION_FAILED", err.Error(), nil))
	case errors.Is(err, types.ErrTransportUnavailable):
		c.JSON(http.StatusServiceUnavailable,
			types.NewErrorResponse("TRANSPORT_UNAVAILABLE", err.Error(), nil))
	default:
		c.JSON(http.StatusInternalServerError,
			types.NewErrorResponse("INTERNAL", "internal error", nil))
	}
}

func respondBadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest,
		types.NewErrorResponse("BAD_REQUEST", err.Error(), nil))
}
