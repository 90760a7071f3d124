package http

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	apperrors "github.com/allisson/marketplace/internal/errors"
	"github.com/allisson/marketplace/internal/httputil"
	"github.com/allisson/marketplace/internal/realtime/domain"
	"github.com/allisson/marketplace/internal/realtime/service"
)

// AuthenticationMiddleware authenticates requests via a Bearer token in the
// Authorization header and stores the resolved claims in the request
// context for downstream handlers.
func AuthenticationMiddleware(verifier service.TokenVerifier, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			httputil.HandleErrorGin(c, apperrors.Wrap(apperrors.ErrUnauthorized, "missing authorization header"), logger)
			c.Abort()
			return
		}

		const bearerPrefix = "bearer "
		if len(authHeader) < len(bearerPrefix) ||
			!strings.EqualFold(authHeader[:len(bearerPrefix)], bearerPrefix) {
			httputil.HandleErrorGin(c, apperrors.Wrap(apperrors.ErrUnauthorized, "malformed authorization header"), logger)
			c.Abort()
			return
		}

		token := authHeader[len(bearerPrefix):]
		claims, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			logger.Debug("authentication failed", slog.Any("error", err))
			httputil.HandleErrorGin(c, err, logger)
			c.Abort()
			return
		}

		c.Request = c.Request.WithContext(WithClaims(c.Request.Context(), claims))
		c.Next()
	}
}

// RequireRoles restricts a route to the given roles. Must run after
// AuthenticationMiddleware.
func RequireRoles(logger *slog.Logger, roles ...domain.Role) gin.HandlerFunc {
	allowed := make(map[domain.Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(c *gin.Context) {
		claims, ok := GetClaims(c.Request.Context())
		if !ok {
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}
		if _, ok := allowed[claims.Role]; !ok {
			httputil.HandleErrorGin(c, apperrors.Wrap(apperrors.ErrForbidden, "role not allowed"), logger)
			c.Abort()
			return
		}
		c.Next()
	}
}

// ipLimiterStore holds per-IP rate limiters with periodic cleanup of idle
// entries.
type ipLimiterStore struct {
	mu       sync.Mutex
	limiters map[string]*ipLimiterEntry
	rps      float64
	burst    int
}

type ipLimiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

func (s *ipLimiterStore) getLimiter(ip string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.limiters[ip]
	if !ok {
		entry = &ipLimiterEntry{limiter: rate.NewLimiter(rate.Limit(s.rps), s.burst)}
		s.limiters[ip] = entry
	}
	entry.lastAccess = time.Now()
	return entry.limiter
}

func (s *ipLimiterStore) cleanupStale(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := time.Now().Add(-interval)
		s.mu.Lock()
		for ip, entry := range s.limiters {
			if entry.lastAccess.Before(cutoff) {
				delete(s.limiters, ip)
			}
		}
		s.mu.Unlock()
	}
}

// HandshakeRateLimitMiddleware bounds handshake attempts per source IP with
// a token bucket, so a misbehaving client cannot churn websocket upgrades.
func HandshakeRateLimitMiddleware(rps float64, burst int, logger *slog.Logger) gin.HandlerFunc {
	store := &ipLimiterStore{
		limiters: make(map[string]*ipLimiterEntry),
		rps:      rps,
		burst:    burst,
	}
	go store.cleanupStale(5 * time.Minute)

	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			if host, _, err := net.SplitHostPort(c.Request.RemoteAddr); err == nil {
				ip = host
			}
		}

		if !store.getLimiter(ip).Allow() {
			logger.Warn("handshake rate limit exceeded", slog.String("ip", ip))
			c.Header("Retry-After", "1")
			c.JSON(http.StatusTooManyRequests, httputil.ErrorResponse{
				Error:   "rate_limited",
				Message: "Too many handshake attempts, slow down",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
