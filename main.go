package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/ARBAZ1233678/CollabSpace/handlers"
	"github.com/ARBAZ1233678/CollabSpace/internal/config"
	"github.com/ARBAZ1233678/CollabSpace/internal/database"
	docrepo "github.com/ARBAZ1233678/CollabSpace/internal/document/repository"
	docservice "github.com/ARBAZ1233678/CollabSpace/internal/document/service"
	"github.com/ARBAZ1233678/CollabSpace/internal/meetings"
	"github.com/ARBAZ1233678/CollabSpace/internal/membership"
	"github.com/ARBAZ1233678/CollabSpace/internal/oidc"
	"github.com/ARBAZ1233678/CollabSpace/internal/presence"
	"github.com/ARBAZ1233678/CollabSpace/internal/snapshots"
	"github.com/ARBAZ1233678/CollabSpace/internal/tokens"
	"github.com/ARBAZ1233678/CollabSpace/internal/users"
	"github.com/ARBAZ1233678/CollabSpace/pkg/logger"
	"github.com/ARBAZ1233678/CollabSpace/pkg/metrics"
	"github.com/ARBAZ1233678/CollabSpace/pkg/middleware"
)

var startTime = time.Now()

func main() {
	// initialize logging (can be controlled with LOG_LEVEL env: debug|info|warn|error|fatal)
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: mongo=%v redis=%v minio=%v lockTimeout=%s",
		cfg.MongoDB.URI != "", cfg.Redis.Host != "", cfg.MinIO.Endpoint != "", cfg.Coordination.LockTimeout)

	r := gin.New()

	// Lightweight CORS middleware for dev/test: set common headers and respond to OPTIONS.
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(200)
			return
		}
		c.Next()
	})

	// Global middlewares: logging + recovery
	r.Use(gin.Logger(), gin.Recovery())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to Redis early: presence heartbeats, token blacklist and the
	// distributed rate limiter all ride on it when configured.
	var redisClient *redis.Client
	if cfg.Redis.Host != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.Redis.Host + ":" + cfg.Redis.Port, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s:%s): %v — falling back to in-memory presence", cfg.Redis.Host, cfg.Redis.Port, err)
			redisClient = nil
		} else {
			tokens.SetBlacklistClient(redisClient)
			logger.Infof("connected to Redis at %s:%s", cfg.Redis.Host, cfg.Redis.Port)
		}
	}

	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && redisClient != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(redisClient, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	// Mongo-backed repositories when configured, memory-backed otherwise.
	var (
		docRepo  docrepo.Repository    = docrepo.NewMemoryRepo()
		teamRepo membership.Repository = membership.NewMemoryRepo()
		meetRepo meetings.Repository   = meetings.NewMemoryRepo()
		userRepo users.UserRepository  = users.NewMemoryUserRepository()
		mongoOK  bool
	)
	if cfg.MongoDB.URI != "" {
		client, err := database.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
		if err != nil {
			logger.Warnf("cannot connect to MongoDB (%v) — using memory-backed repositories", err)
		} else {
			defer func() { _ = client.Disconnect(context.Background()) }()
			db := client.Database(cfg.MongoDB.Database)
			docRepo = docrepo.NewMongoRepo(db.Collection("documents"))
			teamRepo = membership.NewMongoRepo(db.Collection("teams"))
			meetRepo = meetings.NewMongoRepo(db.Collection("meetings"))
			userRepo = users.NewMongoUserRepository(db.Collection("users"))
			mongoOK = true
			logger.Infof("connected to MongoDB database %q", cfg.MongoDB.Database)
		}
	}

	var beats presence.Store = presence.NewMemoryStore()
	if redisClient != nil {
		beats = presence.NewRedisStore(redisClient, "", cfg.Coordination.HeartbeatTTL)
	}

	var archive docservice.Archiver
	if cfg.MinIO.Endpoint != "" {
		a, err := snapshots.NewArchive(&cfg.MinIO)
		if err != nil {
			logger.Warnf("snapshot archive unavailable: %v", err)
		} else {
			archive = a
			logger.Infof("version snapshots archived to MinIO bucket %q", cfg.MinIO.Bucket)
		}
	}

	userSvc := users.NewService(userRepo)
	auth := membership.NewAuthority(teamRepo)
	docSvc := docservice.New(docRepo, auth, beats, docservice.Options{
		LockTimeout:  cfg.Coordination.LockTimeout,
		HeartbeatTTL: cfg.Coordination.HeartbeatTTL,
		Users:        userSvc,
		Snapshots:    archive,
	})
	meetSvc := meetings.NewService(meetRepo, auth)
	teamSvc := membership.NewTeamService(teamRepo, docSvc, meetSvc)

	// background expiry sweep; request paths treat expired locks as unlocked
	// on their own, the sweep only bounds how long stale rows linger
	go docSvc.RunSweeper(ctx)

	// Token verifier: OIDC when configured, insecure parse-only for
	// integration tests under explicit opt-in.
	var verifier middleware.Verifier
	if cfg.OIDC.Issuer != "" && cfg.OIDC.ClientID != "" {
		ver, err := oidc.NewVerifier(ctx, cfg.OIDC.Issuer, cfg.OIDC.ClientID)
		if err != nil {
			logger.Warnf("failed to initialize OIDC verifier: %v", err)
		} else {
			verifier = ver
		}
	}
	if verifier == nil {
		if strings.EqualFold(strings.TrimSpace(os.Getenv("ALLOW_INSECURE_TOKEN")), "true") {
			logger.Warn("enabling insecure token verifier (integration mode)")
			verifier = oidc.NewInsecureVerifier()
		}
	}

	// Basic health endpoint
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	// readiness endpoint — return 200 only when critical dependencies are available
	r.GET("/ready", func(c *gin.Context) {
		ready := true
		deps := map[string]bool{}

		deps["storage"] = true // memory fallback always works
		deps["mongo"] = mongoOK || cfg.MongoDB.URI == ""
		if cfg.Redis.Host != "" {
			deps["redis"] = redisClient != nil
			if !deps["redis"] {
				ready = false
			}
		} else {
			deps["redis"] = true
		}
		if cfg.OIDC.Issuer != "" {
			deps["oidc"] = verifier != nil
			if !deps["oidc"] {
				ready = false
			}
		} else {
			deps["oidc"] = true
		}

		status := http.StatusOK
		state := "ready"
		if !ready {
			status = http.StatusServiceUnavailable
			state = "not_ready"
		}
		c.JSON(status, gin.H{"status": state, "deps": deps, "uptime": time.Since(startTime).String()})
	})

	handlers.RegisterOpenAPI(r)
	handlers.NewAuthHandler(cfg, userSvc).Register(r.Group("/"))

	api := r.Group("/api")
	if verifier != nil {
		api.Use(middleware.AuthMiddleware(verifier))
	} else {
		logger.Warnf("no token verifier configured; /api endpoints will reject all requests")
		api.Use(func(c *gin.Context) {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "authentication not configured"})
		})
	}
	handlers.NewDocumentHandler(docSvc).Register(api)
	handlers.NewTeamHandler(teamSvc).Register(api)
	handlers.NewMeetingHandler(meetSvc).Register(api)

	// Expose Prometheus metrics
	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	logger.Infof("starting collabspace service on %s", addr)
	if err := r.Run(addr); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
}
