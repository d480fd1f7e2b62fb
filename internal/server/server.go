package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"storyboard/internal/credentials"
	"storyboard/internal/export"
	"storyboard/internal/storyboard"
)

const shutdownTimeout = 5 * time.Second

type ExportFunc func(ctx context.Context, name string) (*export.Result, error)

type Options struct {
	Board          *storyboard.Board
	Keys           *credentials.Store
	Pending        *credentials.PendingSelector
	Export         ExportFunc
	Metrics        http.Handler
	AllowedOrigins []string
}

// Server exposes the board to a browser page. Model requests run on the
// server's base context, so a page that disconnects mid-render still gets
// the result on its next poll.
type Server struct {
	ctx  context.Context
	opts Options
}

func New(ctx context.Context, opts Options) *Server {
	return &Server{ctx: ctx, opts: opts}
}

func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(requestLogger())
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	if len(s.opts.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = s.opts.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	health := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
	router.GET("/health", health)
	router.HEAD("/health", health)
	if s.opts.Metrics != nil {
		router.GET("/metrics", gin.WrapH(s.opts.Metrics))
	}

	api := router.Group("/api")
	api.GET("/credentials", s.getCredentials)
	api.PUT("/credentials", s.putCredentials)
	api.GET("/board", s.getBoard)
	api.POST("/analyze", s.analyze)
	api.POST("/shots/:index/render", s.renderShot)
	api.GET("/shots/:index/image", s.shotImage)
	api.POST("/render-all", s.renderAll)
	api.POST("/export", s.export)

	return router
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen on %s: %w", addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		level := slog.LevelInfo
		if c.Request.URL.Path == "/health" || c.Request.URL.Path == "/metrics" {
			level = slog.LevelDebug
		}
		slog.Log(c.Request.Context(), level, "HTTP request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
