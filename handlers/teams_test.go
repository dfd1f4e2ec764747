package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ARBAZ1233678/CollabSpace/internal/membership"
	"github.com/ARBAZ1233678/CollabSpace/internal/oidc"
	"github.com/ARBAZ1233678/CollabSpace/pkg/middleware"
)

func newTeamRouter(t *testing.T) *gin.Engine {
	t.Helper()
	svc := membership.NewTeamService(membership.NewMemoryRepo())

	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api")
	api.Use(middleware.AuthMiddleware(oidc.NewInsecureVerifier()))
	NewTeamHandler(svc).Register(api)
	return r
}

func TestTeamLifecycleOverHTTP(t *testing.T) {
	r := newTeamRouter(t)

	// owner creates the team
	w := doJSON(r, http.MethodPost, "/api/teams", "owner", gin.H{"name": "Docs"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var team membership.Team
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &team))
	require.NotEmpty(t, team.ID)

	// owner adds alice as a member
	w = doJSON(r, http.MethodPut, "/api/teams/"+team.ID+"/members/alice", "owner", gin.H{"role": "MEMBER"})
	require.Equal(t, http.StatusOK, w.Code)

	// alice can read the team now
	w = doJSON(r, http.MethodGet, "/api/teams/"+team.ID, "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)

	// but cannot add members herself
	w = doJSON(r, http.MethodPut, "/api/teams/"+team.ID+"/members/dave", "alice", gin.H{"role": "MEMBER"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// an outsider gets 401
	w = doJSON(r, http.MethodGet, "/api/teams/"+team.ID, "stranger", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// only the admin deletes the team
	w = doJSON(r, http.MethodDelete, "/api/teams/"+team.ID, "alice", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = doJSON(r, http.MethodDelete, "/api/teams/"+team.ID, "owner", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodGet, "/api/teams/"+team.ID, "owner", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
