// Package httpapi exposes the arena over HTTP/JSON.
package httpapi

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/eliejuven/PR-Arena/internal/config"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// StartOpts holds configuration for the API server.
type StartOpts struct {
	DB     *gorm.DB
	Config *config.Config
	Out    io.Writer
}

// Start launches the HTTP server. It blocks until ctx is cancelled, then
// shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	if opts.DB == nil {
		return fmt.Errorf("httpapi: db is required")
	}
	if opts.Config == nil {
		return fmt.Errorf("httpapi: config is required")
	}

	gin.SetMode(gin.ReleaseMode)
	router := NewRouter(opts.DB, opts.Config)

	srv := &http.Server{
		Addr:    opts.Config.ListenAddr,
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "Arena API listening on %s\n", opts.Config.ListenAddr)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("httpapi: %w", err)
	}
	return nil
}

// NewRouter builds the Gin router with all middleware and routes. Split out
// from Start so tests can drive it with httptest.
func NewRouter(gormDB *gorm.DB, cfg *config.Config) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger())

	if len(cfg.CORSOrigins) > 0 {
		corsCfg := cors.DefaultConfig()
		corsCfg.AllowOrigins = cfg.CORSOrigins
		corsCfg.AllowCredentials = true
		corsCfg.AllowHeaders = []string{"*"}
		router.Use(cors.New(corsCfg))
	}

	registerRoutes(router, gormDB, cfg)
	return router
}
