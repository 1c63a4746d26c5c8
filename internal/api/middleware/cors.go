package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/AgentOS/executive/internal/infrastructure/tracing"
)

// CORSConfig controls which browser origins may read the monitor.
type CORSConfig struct {
	AllowOrigins []string
	AllowMethods []string
	AllowHeaders []string
	// ExposeHeaders are response headers a page script may read.
	ExposeHeaders []string
	// AllowWebSockets admits ws:// and wss:// origins for the console stream.
	AllowWebSockets  bool
	AllowCredentials bool
	MaxAge           time.Duration
}

// DefaultCORSConfig lets any page read the monitor and raise interrupts.
// Trace headers are exposed so a dashboard can link a request to its span.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowOrigins:    []string{"*"},
		AllowMethods:    []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Accept", "Content-Type", tracing.HeaderTraceID, tracing.HeaderSpanID},
		ExposeHeaders:   []string{tracing.HeaderTraceID, tracing.HeaderSpanID},
		AllowWebSockets: true,
		MaxAge:          12 * time.Hour,
	}
}

// CORS wraps gin-contrib/cors.
func CORS(cfg CORSConfig) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     cfg.AllowOrigins,
		AllowMethods:     cfg.AllowMethods,
		AllowHeaders:     cfg.AllowHeaders,
		ExposeHeaders:    cfg.ExposeHeaders,
		AllowWebSockets:  cfg.AllowWebSockets,
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	})
}
