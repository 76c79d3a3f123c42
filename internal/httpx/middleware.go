package httpx

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"growf/platform-backend/internal/apperrors"
	"growf/platform-backend/internal/identity"
)

const principalKey = "growf.principal"

// TokenParser turns a bearer token into a principal.
type TokenParser interface {
	Parse(token string) (*identity.Principal, error)
}

// Authenticate rejects requests without a valid bearer token.
func Authenticate(parser TokenParser, devMode bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" && isWebsocketUpgrade(c) && c.Query("access_token") != "" {
			// Browsers cannot set headers on a websocket handshake.
			header = "Bearer " + c.Query("access_token")
		}
		if header == "" {
			Error(c, apperrors.New(apperrors.CodeUnauthorized, "missing authorization header", nil), devMode)
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
			Error(c, apperrors.New(apperrors.CodeUnauthorized, "invalid authorization header", nil), devMode)
			return
		}
		principal, err := parser.Parse(strings.TrimSpace(parts[1]))
		if err != nil {
			Error(c, apperrors.New(apperrors.CodeUnauthorized, "invalid token", err), devMode)
			return
		}
		c.Set(principalKey, *principal)
		c.Next()
	}
}

func isWebsocketUpgrade(c *gin.Context) bool {
	return strings.EqualFold(c.GetHeader("Upgrade"), "websocket")
}

// RequireRoles must run after Authenticate.
func RequireRoles(devMode bool, roles ...identity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := PrincipalFrom(c)
		if !ok {
			Error(c, apperrors.New(apperrors.CodeUnauthorized, "authentication required", nil), devMode)
			return
		}
		if !p.HasRole(roles...) {
			Error(c, apperrors.Forbidden("insufficient role"), devMode)
			return
		}
		c.Next()
	}
}

// PrincipalFrom returns the caller stored by Authenticate.
func PrincipalFrom(c *gin.Context) (identity.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return identity.Principal{}, false
	}
	p, ok := v.(identity.Principal)
	return p, ok
}

// SetPrincipal is used by tests and by the websocket upgrade path.
func SetPrincipal(c *gin.Context, p identity.Principal) {
	c.Set(principalKey, p)
}

// RequestLogger logs one line per request.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if c.Writer.Status() >= 500 {
			logger.Error("Request failed", fields...)
			return
		}
		logger.Info("Request handled", fields...)
	}
}

// CORS allows the configured browser origins.
func CORS(origins []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if allowed["*"] {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		} else if allowed[origin] {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Vary", "Origin")
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, PATCH, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
