package main

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/therealutkarshpriyadarshi/mediagate/internal/middleware"
	"github.com/therealutkarshpriyadarshi/mediagate/pkg/models"
)

type routerOptions struct {
	Limiter   *middleware.RateLimiter
	PublicDir string
}

func setupRouter(api *API, opts routerOptions) *gin.Engine {
	router := gin.New()
	router.Use(
		middleware.RequestID(),
		middleware.Logger(api.logger),
		middleware.Metrics(),
		middleware.Recovery(api.logger),
		middleware.SecurityHeaders(),
	)

	// Health check
	router.GET("/health", api.healthCheck)

	// API routes
	v1 := router.Group("/api")
	if opts.Limiter != nil {
		v1.Use(middleware.RateLimit(opts.Limiter))
	}
	{
		v1.GET("/info", api.getInfo)
		v1.GET("/download", api.download)
	}

	// Static front-end for everything else
	if info, err := os.Stat(opts.PublicDir); opts.PublicDir != "" && err == nil && info.IsDir() {
		router.NoRoute(staticFiles(opts.PublicDir))
	}

	return router
}

func staticFiles(dir string) gin.HandlerFunc {
	files := http.FileServer(http.Dir(dir))
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "Not found"})
			return
		}
		files.ServeHTTP(c.Writer, c.Request)
	}
}
