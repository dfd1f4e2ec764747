package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ARBAZ1233678/CollabSpace/internal/meetings"
)

// MeetingHandler exposes team meeting scheduling.
type MeetingHandler struct {
	svc *meetings.Service
}

func NewMeetingHandler(svc *meetings.Service) *MeetingHandler {
	return &MeetingHandler{svc: svc}
}

func (h *MeetingHandler) Register(rg *gin.RouterGroup) {
	rg.POST("/meetings", h.Schedule)
	rg.GET("/meetings/:id", h.Get)
	rg.PUT("/meetings/:id/status", h.SetStatus)
	rg.DELETE("/meetings/:id", h.Delete)
	rg.GET("/teams/:id/meetings", h.ListByTeam)
}

func writeMeetingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, meetings.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "meeting not found"})
	case errors.Is(err, meetings.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not a team member"})
	case errors.Is(err, meetings.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, meetings.ErrInvalidTimes):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func (h *MeetingHandler) Schedule(c *gin.Context) {
	sub, ok := caller(c)
	if !ok {
		return
	}
	var req struct {
		TeamID      string    `json:"teamId" binding:"required"`
		Title       string    `json:"title" binding:"required"`
		Description string    `json:"description"`
		StartTime   time.Time `json:"startTime" binding:"required"`
		EndTime     time.Time `json:"endTime" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	m, err := h.svc.Schedule(c.Request.Context(), req.TeamID, sub, req.Title, req.Description, req.StartTime, req.EndTime)
	if err != nil {
		writeMeetingError(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

func (h *MeetingHandler) Get(c *gin.Context) {
	sub, ok := caller(c)
	if !ok {
		return
	}
	m, err := h.svc.Get(c.Request.Context(), c.Param("id"), sub)
	if err != nil {
		writeMeetingError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *MeetingHandler) ListByTeam(c *gin.Context) {
	sub, ok := caller(c)
	if !ok {
		return
	}
	ms, err := h.svc.ListByTeam(c.Request.Context(), c.Param("id"), sub)
	if err != nil {
		writeMeetingError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"meetings": ms})
}

func (h *MeetingHandler) SetStatus(c *gin.Context) {
	sub, ok := caller(c)
	if !ok {
		return
	}
	var req struct {
		Status meetings.Status `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.svc.SetStatus(c.Request.Context(), c.Param("id"), sub, req.Status); err != nil {
		writeMeetingError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "status updated"})
}

func (h *MeetingHandler) Delete(c *gin.Context) {
	sub, ok := caller(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), c.Param("id"), sub); err != nil {
		writeMeetingError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "meeting deleted"})
}
