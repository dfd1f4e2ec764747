package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ARBAZ1233678/CollabSpace/internal/config"
	"github.com/ARBAZ1233678/CollabSpace/internal/tokens"
	"github.com/ARBAZ1233678/CollabSpace/internal/users"
	"github.com/ARBAZ1233678/CollabSpace/pkg/logger"
)

// AuthHandler issues HS256 access tokens for development and integration
// testing, and revokes them on logout via the Redis blacklist. Production
// deployments authenticate against the OIDC provider instead; token exchange
// happens outside this service.
type AuthHandler struct {
	cfg      *config.Config
	usersSvc *users.Service
}

func NewAuthHandler(cfg *config.Config, u *users.Service) *AuthHandler {
	return &AuthHandler{cfg: cfg, usersSvc: u}
}

// Register routes under /auth
func (h *AuthHandler) Register(rg *gin.RouterGroup) {
	a := rg.Group("/auth")
	a.POST("/login", h.Login)
	a.POST("/logout", h.Logout)
}

// Login upserts the user record and returns a signed access token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Sub   string `json:"sub" binding:"required"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := h.usersSvc.UpsertFromClaims(c.Request.Context(), map[string]interface{}{
		"sub": req.Sub, "name": req.Name, "email": req.Email,
	})
	if err != nil || u == nil {
		logger.Warnf("login upsert failed for sub %s: %v", req.Sub, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create user"})
		return
	}
	tok, err := tokens.GenerateAccessToken(h.cfg, u, h.cfg.JWT.AccessTokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not sign token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": tok, "token_type": "Bearer", "expires_in": int(h.cfg.JWT.AccessTokenTTL / time.Second)})
}

// Logout blacklists the presented token for the remainder of its lifetime.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req struct {
		AccessToken string `json:"access_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := tokens.BlacklistAccessToken(c.Request.Context(), req.AccessToken, h.cfg.JWT.AccessTokenTTL); err != nil {
		logger.Warnf("blacklist failed: %v", err)
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}
