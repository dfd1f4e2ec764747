package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ARBAZ1233678/CollabSpace/internal/membership"
)

// TeamHandler exposes team lifecycle and membership mutation.
type TeamHandler struct {
	svc *membership.TeamService
}

func NewTeamHandler(svc *membership.TeamService) *TeamHandler {
	return &TeamHandler{svc: svc}
}

func (h *TeamHandler) Register(rg *gin.RouterGroup) {
	rg.POST("/teams", h.Create)
	rg.GET("/teams/:id", h.Get)
	rg.PUT("/teams/:id/members/:userId", h.SetMember)
	rg.DELETE("/teams/:id/members/:userId", h.RemoveMember)
	rg.DELETE("/teams/:id", h.Delete)
}

func writeTeamError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, membership.ErrTeamNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "team not found"})
	case errors.Is(err, membership.ErrNotMember):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not a team member"})
	case errors.Is(err, membership.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func (h *TeamHandler) Create(c *gin.Context) {
	sub, ok := caller(c)
	if !ok {
		return
	}
	var req struct {
		Name        string `json:"name" binding:"required"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	t, err := h.svc.Create(c.Request.Context(), req.Name, req.Description, sub)
	if err != nil {
		writeTeamError(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (h *TeamHandler) Get(c *gin.Context) {
	sub, ok := caller(c)
	if !ok {
		return
	}
	t, err := h.svc.Get(c.Request.Context(), c.Param("id"), sub)
	if err != nil {
		writeTeamError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *TeamHandler) SetMember(c *gin.Context) {
	sub, ok := caller(c)
	if !ok {
		return
	}
	var req struct {
		Role membership.Role `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.svc.SetMember(c.Request.Context(), c.Param("id"), sub, c.Param("userId"), req.Role); err != nil {
		writeTeamError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "member updated"})
}

func (h *TeamHandler) RemoveMember(c *gin.Context) {
	sub, ok := caller(c)
	if !ok {
		return
	}
	if err := h.svc.RemoveMember(c.Request.Context(), c.Param("id"), sub, c.Param("userId")); err != nil {
		writeTeamError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "member removed"})
}

func (h *TeamHandler) Delete(c *gin.Context) {
	sub, ok := caller(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), c.Param("id"), sub); err != nil {
		writeTeamError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "team deleted"})
}
