package rest

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// GET /api/v1/telemetry/devices/:id/readings?from=RFC3339&to=RFC3339
func (s *Server) listReadings(c *gin.Context) {
	deviceID, ok := parseIDParam(c)
	if !ok {
		return
	}

	now := time.Now()
	from := now.Add(-24 * time.Hour)
	to := now

	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			respondBadRequest(c, err)
			return
		}
		from = t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			respondBadRequest(c, err)
			return
		}
		to = t
	}

	readings, err := s.lm.Storage().ReadingsByDevice(c.Request.Context(), deviceID, from, to)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"readings": readings,
		"count":    len(readings),
		"from":     from,
		"to":       to,
	})
}

// GET /api/v1/telemetry/devices/:id/latest
func (s *Server) latestReading(c *gin.Context) {
	deviceID, ok := parseIDParam(c)
	if !ok {
		return
	}

	reading, err := s.lm.Storage().LatestReadingByDevice(c.Request.Context(), deviceID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reading)
}

// GET /api/v1/telemetry/devices/:id/hourly
func (s *Server) hourlyAverages(c *gin.Context) {
	deviceID, ok := parseIDParam(c)
	if !ok {
		return
	}

	groups, err := s.lm.Aggregator().HourlyAverages(c.Request.Context(), deviceID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"hours": groups,
		"count": len(groups),
	})
}
