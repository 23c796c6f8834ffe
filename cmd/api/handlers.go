package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/therealutkarshpriyadarshi/mediagate/internal/extractor"
	"github.com/therealutkarshpriyadarshi/mediagate/internal/gateway"
	"github.com/therealutkarshpriyadarshi/mediagate/internal/logging"
	"github.com/therealutkarshpriyadarshi/mediagate/internal/middleware"
)

type healthChecker interface {
	Health(ctx context.Context) error
}

// API holds the HTTP handlers
type API struct {
	resolver *extractor.Resolver
	gateway  *gateway.Gateway
	health   healthChecker
	logger   *logging.Logger
}

// Health check endpoint
func (api *API) healthCheck(c *gin.Context) {
	if api.health != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := api.health.Health(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"ok":    false,
				"error": err.Error(),
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Media metadata endpoint
func (api *API) getInfo(c *gin.Context) {
	info, err := api.resolver.Resolve(c.Request.Context(), c.Query("url"))
	if err != nil {
		api.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, info)
}

// Streaming download endpoint
func (api *API) download(c *gin.Context) {
	req, err := gateway.NewRequest(c.Query("url"), c.Query("format"), c.Query("format_id"), c.Query("filename"))
	if err != nil {
		api.respondError(c, err)
		return
	}

	out := api.gateway.Serve(c.Request.Context(), c.Writer, req)

	switch {
	case out.Cancelled:
		// The client is gone
		c.Abort()
	case out.Err == nil:
	case !out.Committed:
		api.respondError(c, out.Err)
	default:
		// Headers already promised success; drop the connection so the
		// client sees a truncated transfer rather than a complete file.
		panic(http.ErrAbortHandler)
	}
}

func (api *API) respondError(c *gin.Context, err error) {
	e := extractor.AsError(err)
	if e.Kind == extractor.KindInternal {
		api.logger.WithRequestID(middleware.GetRequestID(c)).ErrorWithErr("Unhandled error", err)
	}
	c.AbortWithStatusJSON(e.StatusCode(), e.Response())
}
