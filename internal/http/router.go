package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	types "github.com/yungbote/graph-api/internal/domain/auth"
	httpH "github.com/yungbote/graph-api/internal/http/handlers"
	httpMW "github.com/yungbote/graph-api/internal/http/middleware"
	"github.com/yungbote/graph-api/internal/platform/logger"
)

type RouterConfig struct {
	Log *logger.Logger

	AuthHandler   *httpH.AuthHandler
	InfoHandler   *httpH.InfoHandler
	PDMHandler    *httpH.PDMHandler
	HealthHandler *httpH.HealthHandler

	AuthMiddleware *httpMW.AuthMiddleware
	RateLimit      gin.HandlerFunc

	Tracing bool
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpMW.AttachRequestID())
	if cfg.Log != nil {
		r.Use(httpMW.RequestLogger(cfg.Log))
	}
	r.Use(httpMW.CORS())
	if cfg.Tracing {
		r.Use(otelgin.Middleware("graph-api"))
	}
	if cfg.RateLimit != nil {
		r.Use(cfg.RateLimit)
	}

	// Liveness, no dependencies
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.Liveness)
	}
	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"service": "graph-api",
			"docs":    "/api/v1",
		})
	})

	api := r.Group("/api/v1")
	{
		// Public
		if cfg.AuthHandler != nil {
			api.POST("/auth/validate", cfg.AuthHandler.Validate)
		}
		if cfg.HealthHandler != nil {
			api.GET("/health/", cfg.HealthHandler.Check)
		}
		if cfg.InfoHandler != nil {
			api.GET("/info/", cfg.InfoHandler.ServiceInfo)
		}
		if cfg.PDMHandler != nil {
			api.GET("/pdm/", cfg.PDMHandler.ServiceInfo)
		}
	}

	protected := api.Group("/")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		if cfg.AuthHandler != nil {
			protected.GET("/auth/me", cfg.AuthHandler.Me)
			protected.GET("/auth/test-auth", cfg.AuthHandler.TestAuth)
		}

		// Token administration
		if cfg.AuthHandler != nil && cfg.AuthMiddleware != nil {
			admin := protected.Group("/", cfg.AuthMiddleware.RequireScopes(types.ScopeAdmin))
			admin.GET("/auth/tokens", cfg.AuthHandler.ListTokens)
			admin.POST("/auth/generate", cfg.AuthHandler.Generate)
		}

		// Patient data, scope-gated
		var medical *gin.RouterGroup
		if cfg.AuthMiddleware != nil {
			medical = protected.Group("/", cfg.AuthMiddleware.RequireScopes(types.ScopeReadMedicalData))
		} else {
			medical = protected.Group("/")
		}

		if cfg.InfoHandler != nil {
			for _, spec := range httpH.InfoSpecs() {
				medical.GET("/info/"+spec.Route+"/:patientId", cfg.InfoHandler.Get(spec))
			}
		}

		if cfg.PDMHandler != nil {
			medical.GET("/pdm/golden/:patientId", cfg.PDMHandler.Golden)
			medical.GET("/pdm/golden/:patientId/summary", cfg.PDMHandler.Summary)
			medical.GET("/pdm/golden/:patientId/types", cfg.PDMHandler.Types)
			medical.GET("/pdm/golden/:patientId/type/:dataType", cfg.PDMHandler.Type)
		}
	}

	return r
}
