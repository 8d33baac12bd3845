package httpserver

import (
	"fmt"
	"io"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/PratikDhanave/utm-receiver/internal/config"
	"github.com/PratikDhanave/utm-receiver/internal/handlers"
	"github.com/PratikDhanave/utm-receiver/internal/logging"
	"github.com/PratikDhanave/utm-receiver/internal/requestid"
)

// Store is everything the routes need from storage.
type Store interface {
	handlers.ClickAppender
	handlers.Pinger
}

// NewRouter wires the probes and the tracking endpoint.
// Public: /health, /ready, /track
func NewRouter(cfg config.Config, st Store) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// nil disables proxy headers, so ClientIP is the TCP peer.
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, fmt.Errorf("TRUSTED_PROXIES: %w", err)
	}

	r.Use(requestid.Middleware(), accessLog(), recovery())

	handlers.RegisterHealthRoutes(r, st)
	handlers.RegisterTrackRoutes(r, st)

	return r, nil
}

// recovery turns a panic anywhere below it into the generic error page.
func recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		logging.Component("http").Error("unexpected error",
			"request_id", requestid.ID(c),
			"path", c.Request.URL.Path,
			"error_type", fmt.Sprintf("%T", recovered),
			"error", fmt.Sprint(recovered),
		)
		if !c.Writer.Written() {
			handlers.ErrorPage(c)
		}
		c.Abort()
	})
}

// accessLog writes one line per request once the handler chain has finished.
func accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logging.Component("http").Info("request",
			"request_id", requestid.ID(c),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"ip", c.ClientIP(),
		)
	}
}
