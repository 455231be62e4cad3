package server

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const defaultMaxBodyBytes int64 = 2 << 20

// NewRouter wires the middleware chain and the API routes.
func NewRouter(cfg *Config, handler *Handler, log *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	limit := cfg.MaxBodyBytes
	if limit <= 0 {
		limit = defaultMaxBodyBytes
	}

	r := gin.New()
	r.Use(RecoveryMiddleware(log))
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.AllowOrigins))
	r.Use(BodyLimitMiddleware(limit))

	api := r.Group("/api")
	{
		api.GET("/health", handler.HealthCheck)
		api.POST("/job-match", handler.JobMatch)
		api.POST("/cover-letter", handler.CoverLetter)
		api.POST("/parse", handler.ParseDocument)
		api.POST("/resume/ats", handler.ReviewResume)

		vacancy := api.Group("/vacancy")
		vacancy.POST("/extract", handler.ExtractVacancy)
		vacancy.POST("/detailed-match", handler.DetailedMatch)
		vacancy.POST("/parse-url", handler.ParseURL)
	}

	return r
}
