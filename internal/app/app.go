package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/yungbote/graph-api/internal/data/db"
	repos "github.com/yungbote/graph-api/internal/data/repos/auth"
	"github.com/yungbote/graph-api/internal/graph"
	httpx "github.com/yungbote/graph-api/internal/http"
	httpH "github.com/yungbote/graph-api/internal/http/handlers"
	httpMW "github.com/yungbote/graph-api/internal/http/middleware"
	"github.com/yungbote/graph-api/internal/observability"
	"github.com/yungbote/graph-api/internal/platform/envutil"
	"github.com/yungbote/graph-api/internal/platform/logger"
	"github.com/yungbote/graph-api/internal/platform/neo4jdb"
	"github.com/yungbote/graph-api/internal/services"
)

type App struct {
	Log      *logger.Logger
	Cfg      Config
	Server   *httpx.Server
	Postgres *db.PostgresService
	Graph    *neo4jdb.Client
	Redis    *redis.Client
	Auth     services.AuthService

	otelShutdown func(context.Context) error
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.NewWithOptions(logMode, logger.Options{
		Redact:   envutil.Bool("LOG_REDACTION_ENABLED", true),
		HashSalt: envutil.Str("LOG_HASH_SALT", ""),
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading configuration...")
	cfg := LoadConfig(log)
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	pg, err := db.NewPostgresService(cfg.Postgres.DSN(), log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if err := pg.AutoMigrateAll(); err != nil {
		log.Sync()
		return nil, fmt.Errorf("postgres automigrate: %w", err)
	}

	// The graph side may be unconfigured at startup; requests then either
	// carry full connection overrides or fail with a configuration error.
	var graphClient *neo4jdb.Client
	if missing := cfg.Neo4j.Params().Missing(); len(missing) > 0 {
		log.Warn("neo4j not fully configured, deferring to per-request overrides", "missing", missing)
	} else {
		graphClient, err = neo4jdb.NewClient(neo4jdb.Config{
			Params:         cfg.Neo4j.Params(),
			ConnectTimeout: cfg.Neo4j.ConnectTimeout,
			MaxPoolSize:    cfg.Neo4j.MaxPoolSize,
		}, log)
		if err != nil {
			log.Warn("neo4j driver init failed, deferring to per-request overrides", "error", err)
			graphClient = nil
		}
	}

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	}

	log.Info("Wiring repos and services...")
	tokenRepo := repos.NewAccessTokenRepo(pg.DB(), log)
	authService := services.NewAuthService(pg.DB(), log, tokenRepo)

	provider := graph.NewProvider(graphClient, log, cfg.Neo4j.QueryTimeout)

	log.Info("Wiring handlers and router...")
	authMW := httpMW.NewAuthMiddleware(log, authService)
	server := httpx.NewServer(httpx.RouterConfig{
		Log:            log,
		AuthHandler:    httpH.NewAuthHandler(log, authService),
		InfoHandler:    httpH.NewInfoHandler(log, provider),
		PDMHandler:     httpH.NewPDMHandler(log, provider),
		HealthHandler:  httpH.NewHealthHandler(log, provider, pg),
		AuthMiddleware: authMW,
		RateLimit:      httpMW.RateLimit(log, rdb, cfg.RateLimit.Requests, cfg.RateLimit.Window),
		Tracing:        observability.Enabled(),
	})

	shutdown := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "graph-api",
		Environment: cfg.Environment,
	})

	return &App{
		Log:          log,
		Cfg:          cfg,
		Server:       server,
		Postgres:     pg,
		Graph:        graphClient,
		Redis:        rdb,
		Auth:         authService,
		otelShutdown: shutdown,
	}, nil
}

func (a *App) Run() error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	addr := ":" + a.Cfg.Port
	a.Log.Info("Starting HTTP server", "addr", addr, "environment", a.Cfg.Environment)
	return a.Server.Run(addr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if a.otelShutdown != nil {
		if err := a.otelShutdown(ctx); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
	}
	if a.Graph != nil {
		if err := a.Graph.Close(ctx); err != nil {
			a.Log.Warn("closing neo4j driver failed", "error", err)
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Log.Warn("closing redis client failed", "error", err)
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
