package observability

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danmuck/framelink/internal/auth"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// AdminConfig configures the optional worker admin listener.
type AdminConfig struct {
	Node        string
	Addr        string
	CorsOrigins []string
	// Token, when set, is required as a bearer token on /stats and /metrics.
	Token string
	// Stats returns a JSON-serializable snapshot for GET /stats.
	Stats func() any
}

var startedAt = time.Now()

// NewAdminRouter serves /health, /stats and /metrics.
func NewAdminRouter(cfg AdminConfig) *gin.Engine {
	RegisterMetrics()
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(adminTelemetry(cfg.Node))
	if len(cfg.CorsOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins: cfg.CorsOrigins,
			AllowMethods: []string{"GET"},
			AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
			MaxAge:       12 * time.Hour,
		}))
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"node":   cfg.Node,
			"uptime": time.Since(startedAt).String(),
		})
	})
	guarded := r.Group("/")
	if cfg.Token != "" {
		guarded.Use(auth.RequireToken(auth.StaticToken{Token: cfg.Token}))
	}
	guarded.GET("/stats", func(c *gin.Context) {
		if cfg.Stats == nil {
			c.JSON(http.StatusOK, gin.H{})
			return
		}
		c.JSON(http.StatusOK, cfg.Stats())
	})
	guarded.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return r
}

// ServeAdmin runs the admin router until ctx is cancelled.
func ServeAdmin(ctx context.Context, cfg AdminConfig) error {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           NewAdminRouter(cfg),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Str("node", cfg.Node).Msg("observability.ServeAdmin listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
