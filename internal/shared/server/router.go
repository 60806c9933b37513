package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"showdown-backend/internal/assets"
	"showdown-backend/internal/quizzes"
	"showdown-backend/internal/services/health"
	"showdown-backend/internal/shared/config"
	"showdown-backend/internal/shared/metrics"
	"showdown-backend/internal/shared/server/middleware"
	"showdown-backend/internal/shared/server/respond"
)

// RouterDeps carries handlers and collaborators the router mounts.
type RouterDeps struct {
	Config       config.Config
	QuizHandler  *quizzes.Handler
	AssetHandler *assets.Handler
	Verifier     middleware.TokenVerifier
	Health       *health.Service
	Limiter      *middleware.RateLimiter
}

// NewRouter constructs the Gin engine with middleware and routes registered.
// Routes are served at the root and under /api/v1.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	limiter := deps.Limiter
	if limiter == nil {
		limiter = middleware.NewRateLimiter(nil)
	}
	uploadLimit := middleware.RateLimit(middleware.RateLimitConfig{
		Scope: "upload_image",
		Rule: middleware.RateLimitRule{
			Rate:  deps.Config.UploadRatePerSec,
			Burst: deps.Config.UploadRateBurst,
		},
		Limiter: limiter,
	})

	r.GET("/metrics", metrics.Handler())
	if deps.Config.ObjectStoreType != "s3" && deps.Config.LocalStoreDir != "" {
		r.Static("/assets", deps.Config.LocalStoreDir)
	}

	for _, rg := range []*gin.RouterGroup{&r.RouterGroup, r.Group("/api/v1")} {
		rg.GET("/health", healthHandler(deps.Health))
		if deps.AssetHandler != nil {
			deps.AssetHandler.RegisterRoutes(rg, uploadLimit)
		}
		if deps.QuizHandler != nil {
			protected := rg.Group("", middleware.RequireAuth(deps.Verifier))
			deps.QuizHandler.RegisterRoutes(protected)
		}
	}

	r.NoRoute(func(c *gin.Context) {
		respond.Error(c, http.StatusNotFound, "not_found", "route not found", nil)
	})

	return r
}

func healthHandler(svc *health.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, ok := svc.Status(c.Request.Context())
		if !ok {
			respond.JSON(c, http.StatusServiceUnavailable, status)
			return
		}
		respond.JSON(c, http.StatusOK, status)
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
