// Memory-backed coordinator for local development: no Mongo, Redis or
// MinIO required. Tokens are parsed without signature verification, so
// this binary must never face real traffic.
package main

import (
	"context"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ARBAZ1233678/CollabSpace/handlers"
	"github.com/ARBAZ1233678/CollabSpace/internal/config"
	docrepo "github.com/ARBAZ1233678/CollabSpace/internal/document/repository"
	docservice "github.com/ARBAZ1233678/CollabSpace/internal/document/service"
	"github.com/ARBAZ1233678/CollabSpace/internal/meetings"
	"github.com/ARBAZ1233678/CollabSpace/internal/membership"
	"github.com/ARBAZ1233678/CollabSpace/internal/oidc"
	"github.com/ARBAZ1233678/CollabSpace/internal/presence"
	"github.com/ARBAZ1233678/CollabSpace/internal/users"
	"github.com/ARBAZ1233678/CollabSpace/pkg/logger"
	"github.com/ARBAZ1233678/CollabSpace/pkg/metrics"
	"github.com/ARBAZ1233678/CollabSpace/pkg/middleware"
)

func main() {
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	userSvc := users.NewService(users.NewMemoryUserRepository())
	teamRepo := membership.NewMemoryRepo()
	auth := membership.NewAuthority(teamRepo)
	docSvc := docservice.New(docrepo.NewMemoryRepo(), auth, presence.NewMemoryStore(), docservice.Options{
		LockTimeout:  cfg.Coordination.LockTimeout,
		HeartbeatTTL: cfg.Coordination.HeartbeatTTL,
		Users:        userSvc,
	})
	meetSvc := meetings.NewService(meetings.NewMemoryRepo(), auth)
	teamSvc := membership.NewTeamService(teamRepo, docSvc, meetSvc)

	go docSvc.RunSweeper(ctx)

	r := gin.Default()
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	handlers.RegisterOpenAPI(r)
	handlers.NewAuthHandler(cfg, userSvc).Register(r.Group("/"))

	api := r.Group("/api")
	api.Use(middleware.AuthMiddleware(oidc.NewInsecureVerifier()))
	handlers.NewDocumentHandler(docSvc).Register(api)
	handlers.NewTeamHandler(teamSvc).Register(api)
	handlers.NewMeetingHandler(meetSvc).Register(api)

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := cfg.Server.Host + ":" + cfg.Server.Port
	logger.Infof("starting memory-backed coordinator on %s", addr)
	if err := r.Run(addr); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
}
