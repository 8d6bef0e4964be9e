package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/openwarehouse/WareFleetCore/internal/realtime"
	"github.com/openwarehouse/WareFleetCore/internal/types"
)

// Dispatched commands are mirrored onto the live channel for dashboards.
func (s *Server) announceCommand(ack types.CommandAck, channel string) {
	s.hub.Broadcast(realtime.NewMessage(realtime.MessageTypeCommandDispatched,
		realtime.CommandData{Topic: ack.Topic, Channel: channel}))
}

// POST /api/v1/commands/actuator
func (s *Server) setActuator(c *gin.Context) {
	var req struct {
		SubDeviceID uuid.UUID `json:"sub_device_id" binding:"required"`
		Channel     string    `json:"channel" binding:"required"`
		Value       any       `json:"value" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	ack, err := s.lm.Dispatcher().SetActuator(c.Request.Context(), req.SubDeviceID, req.Channel, req.Value)
	if err != nil {
		respondError(c, err)
		return
	}
	s.announceCommand(ack, req.Channel)

	// 202: the command was sent, not executed
	c.JSON(http.StatusAccepted, ack)
}

// POST /api/v1/commands/threshold
func (s *Server) setDeviceThreshold(c *gin.Context) {
	var req struct {
		DeviceID uuid.UUID `json:"device_id" binding:"required"`
		Type     string    `json:"type" binding:"required"`
		Min      float64   `json:"min"`
		Max      float64   `json:"max"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	ack, err := s.lm.Dispatcher().SetThreshold(c.Request.Context(), req.DeviceID, req.Type, req.Min, req.Max)
	if err != nil {
		respondError(c, err)
		return
	}
	s.announceCommand(ack, "threshold/"+req.Type)

	c.JSON(http.StatusAccepted, ack)
}

// POST /api/v1/commands/rfid/user-info
func (s *Server) setRFIDUserInfo(c *gin.Context) {
	var req struct {
		UserID  string `json:"user_id" binding:"required"`
		RFIDTag string `json:"rfid_tag" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	ack, err := s.lm.Dispatcher().SetRFIDUserInfo(c.Request.Context(), req.UserID, req.RFIDTag)
	if err != nil {
		respondError(c, err)
		return
	}
	s.announceCommand(ack, "rfid/user-info")

	c.JSON(http.StatusAccepted, ack)
}
