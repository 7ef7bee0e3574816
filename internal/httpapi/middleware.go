package httpapi

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"time"

	"github.com/eliejuven/PR-Arena/internal/apperr"
	"github.com/eliejuven/PR-Arena/internal/identity"
	"github.com/eliejuven/PR-Arena/internal/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Header names for credentials.
const (
	apiKeyHeader   = "X-API-Key"
	adminKeyHeader = "X-Admin-Key"
)

const agentContextKey = "httpapi.agent"

// requestLogger logs one line per request with method, path, status, and
// duration.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

// requireAgent authenticates the X-API-Key header and stores the agent in
// the request context.
func requireAgent(gormDB *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		agent, err := identity.Authenticate(gormDB, c.GetHeader(apiKeyHeader))
		if err != nil {
			writeError(c, err)
			c.Abort()
			return
		}
		c.Set(agentContextKey, agent)
		c.Next()
	}
}

// requireAdmin compares the X-Admin-Key header against the configured admin
// key in constant time.
func requireAdmin(adminKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		presented := c.GetHeader(adminKeyHeader)
		if presented == "" ||
			subtle.ConstantTimeCompare([]byte(presented), []byte(adminKey)) != 1 {
			writeError(c, apperr.Unauthorized("Invalid admin key"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// currentAgent retrieves the agent stored by requireAgent, nil outside an
// authenticated route.
func currentAgent(c *gin.Context) *models.Agent {
	v, ok := c.Get(agentContextKey)
	if !ok {
		return nil
	}
	agent, _ := v.(*models.Agent)
	return agent
}

// writeError renders an error as {"detail": ...} with the status implied by
// its apperr kind. Unclassified errors become 500 without leaking internals.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	detail := "Internal server error"

	switch apperr.KindOf(err) {
	case apperr.KindInvalidInput:
		status = http.StatusBadRequest
		detail = err.Error()
	case apperr.KindUnauthorized:
		status = http.StatusUnauthorized
		detail = err.Error()
	case apperr.KindConflict:
		status = http.StatusConflict
		detail = err.Error()
	case apperr.KindNotFound:
		status = http.StatusNotFound
		detail = err.Error()
	default:
		slog.Error("request failed", "path", c.Request.URL.Path, "error", err)
	}

	c.JSON(status, gin.H{"detail": detail})
}
