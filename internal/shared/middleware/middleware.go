package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"

	"cinebook/internal/shared/config"
	"cinebook/internal/shared/utils/response"
	"cinebook/pkg/logger"
	"cinebook/pkg/ratelimit"
)

type tokenClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Auth validates the bearer token and stores the caller's identity in
// the request context.
func Auth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			response.RespondJSON(c, "error", http.StatusUnauthorized, "Authorization header missing or malformed", nil, nil)
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(header, "Bearer ")
		claims := &tokenClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid || claims.UserID == "" {
			response.RespondJSON(c, "error", http.StatusUnauthorized, "Invalid or expired token", nil, nil)
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("user_email", claims.Email)
		c.Next()
	}
}

// RequestLogger logs each request with method, path, status and latency
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.LogHTTPRequest(c, time.Since(start))
	}
}

// Recovery converts panics into 500 responses
func Recovery(log *logger.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		log.Error("panic recovered", "panic", recovered, "path", c.Request.URL.Path)
		response.RespondJSON(c, "error", http.StatusInternalServerError, "Something went wrong", nil, nil)
		c.Abort()
	})
}

// RateLimit enforces a per-IP sliding window for a route tier
func RateLimit(limiter *ratelimit.Limiter, cfg config.RateLimitConfig, tier string, limit int, log *logger.Logger) gin.HandlerFunc {
	whitelisted := make(map[string]struct{}, len(cfg.WhitelistedIPs))
	for _, ip := range cfg.WhitelistedIPs {
		whitelisted[ip] = struct{}{}
	}

	return func(c *gin.Context) {
		if !cfg.Enabled {
			c.Next()
			return
		}
		ip := c.ClientIP()
		if _, ok := whitelisted[ip]; ok {
			c.Next()
			return
		}

		key := tier + ":" + ip
		allowed, remaining, err := limiter.Allow(c.Request.Context(), key, limit, cfg.WindowDuration)
		if err != nil {
			log.WithError(err).Warn("rate limiter unavailable, failing open", "tier", tier)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		if !allowed {
			log.LogRateLimitExceeded(c.Request.Context(), ip, c.FullPath())
			response.RespondJSON(c, "error", http.StatusTooManyRequests, "Too many requests", nil, nil)
			c.Abort()
			return
		}
		c.Next()
	}
}
