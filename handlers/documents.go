package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ARBAZ1233678/CollabSpace/internal/document"
	"github.com/ARBAZ1233678/CollabSpace/internal/document/service"
	"github.com/ARBAZ1233678/CollabSpace/pkg/middleware"
)

// DocumentHandler exposes the coordinator operations over HTTP. It translates
// error kinds to status codes and nothing else; sequencing lives in the service.
type DocumentHandler struct {
	svc *service.Service
}

func NewDocumentHandler(svc *service.Service) *DocumentHandler {
	return &DocumentHandler{svc: svc}
}

// Register mounts document routes on an authenticated router group.
func (h *DocumentHandler) Register(rg *gin.RouterGroup) {
	rg.POST("/documents", h.Create)
	rg.GET("/documents/:id", h.Get)
	rg.PUT("/documents/:id", h.Update)
	rg.DELETE("/documents/:id", h.Delete)
	rg.POST("/documents/:id/lock", h.Lock)
	rg.POST("/documents/:id/unlock", h.Unlock)
	rg.GET("/documents/:id/collaborators", h.Collaborators)
	rg.GET("/teams/:id/documents", h.ListByTeam)
}

// writeError maps the coordinator error taxonomy onto HTTP statuses without
// collapsing the distinguishing kinds.
func writeError(c *gin.Context, err error) {
	var locked *document.AlreadyLockedError
	var conflict *document.ConflictError
	switch {
	case errors.Is(err, document.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, document.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not a team member"})
	case errors.Is(err, document.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, document.ErrNotLockHolder):
		c.JSON(http.StatusLocked, gin.H{"error": "lock held by another user"})
	case errors.As(err, &locked):
		c.JSON(http.StatusLocked, gin.H{"error": "already locked", "holder": locked.Holder, "since": locked.Since})
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{"error": "version conflict", "currentVersion": conflict.CurrentVersion, "currentContent": conflict.CurrentContent})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func caller(c *gin.Context) (string, bool) {
	sub, ok := middleware.CallerSub(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing subject claim"})
	}
	return sub, ok
}

func (h *DocumentHandler) Create(c *gin.Context) {
	sub, ok := caller(c)
	if !ok {
		return
	}
	var req struct {
		TeamID  string        `json:"teamId" binding:"required"`
		Title   string        `json:"title" binding:"required"`
		Content string        `json:"content"`
		Type    document.Type `json:"type"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	doc, err := h.svc.Create(c.Request.Context(), req.TeamID, sub, req.Title, req.Content, req.Type)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, doc)
}

func (h *DocumentHandler) Get(c *gin.Context) {
	sub, ok := caller(c)
	if !ok {
		return
	}
	doc, err := h.svc.Get(c.Request.Context(), c.Param("id"), sub)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (h *DocumentHandler) ListByTeam(c *gin.Context) {
	sub, ok := caller(c)
	if !ok {
		return
	}
	docs, err := h.svc.ListByTeam(c.Request.Context(), c.Param("id"), sub)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": docs})
}

func (h *DocumentHandler) Update(c *gin.Context) {
	sub, ok := caller(c)
	if !ok {
		return
	}
	var req struct {
		ExpectedVersion int64   `json:"expectedVersion"`
		Title           *string `json:"title,omitempty"`
		Content         *string `json:"content,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Title == nil && req.Content == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nothing to update"})
		return
	}
	doc, err := h.svc.Update(c.Request.Context(), c.Param("id"), sub, req.ExpectedVersion, req.Title, req.Content)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (h *DocumentHandler) Delete(c *gin.Context) {
	sub, ok := caller(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), c.Param("id"), sub); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "document deleted"})
}

func (h *DocumentHandler) Lock(c *gin.Context) {
	sub, ok := caller(c)
	if !ok {
		return
	}
	info, err := h.svc.Lock(c.Request.Context(), c.Param("id"), sub)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

func (h *DocumentHandler) Unlock(c *gin.Context) {
	sub, ok := caller(c)
	if !ok {
		return
	}
	if err := h.svc.Unlock(c.Request.Context(), c.Param("id"), sub); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "document unlocked"})
}

func (h *DocumentHandler) Collaborators(c *gin.Context) {
	sub, ok := caller(c)
	if !ok {
		return
	}
	views, err := h.svc.ActiveCollaborators(c.Request.Context(), c.Param("id"), sub)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"collaborators": views})
}
