package httpkit

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"brokerage_backend/platform/config"
	"brokerage_backend/platform/logger"
)

const (
	ContextUserIDKey         = "userID"
	ContextOrganizationIDKey = "organizationID"
	ContextRolesKey          = "roles"

	headerRequestID = "X-Request-ID"

	errMissingToken = "missing token"
	errInvalidToken = "invalid token"
)

// RequestLogger assigns a request id, pushes it into the request context and
// logs the completed request.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader(headerRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(headerRequestID, requestID)
		ctx := context.WithValue(c.Request.Context(), logger.RequestIDKey, requestID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		status := c.Writer.Status()
		latency := float64(time.Since(start).Microseconds()) / 1000
		if status >= http.StatusInternalServerError && len(c.Errors) > 0 {
			log.WithRequestID(requestID).HTTPError(c.Request.Method, c.FullPath(), status, c.Errors.Last(), c.ClientIP())
			return
		}
		log.WithRequestID(requestID).HTTPRequest(c.Request.Method, c.FullPath(), status, latency, c.ClientIP())
	}
}

func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Content-Security-Policy", "default-src 'none'")
		if c.Request.TLS != nil {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		c.Next()
	}
}

// KeyedRateLimiter keeps one token bucket per key (client IP or operator).
type KeyedRateLimiter struct {
	limiters sync.Map
	rate     rate.Limit
	burst    int
	keyFn    func(*gin.Context) string
	log      *logger.Logger
}

func NewIPRateLimiter(r rate.Limit, burst int, log *logger.Logger) *KeyedRateLimiter {
	return &KeyedRateLimiter{rate: r, burst: burst, log: log, keyFn: func(c *gin.Context) string { return c.ClientIP() }}
}

// NewOperatorRateLimiter limits per authenticated operator and falls back to
// the client IP. It must run after AuthRequired.
func NewOperatorRateLimiter(r rate.Limit, burst int, log *logger.Logger) *KeyedRateLimiter {
	return &KeyedRateLimiter{rate: r, burst: burst, log: log, keyFn: func(c *gin.Context) string {
		if id := GetIdentity(c); id.IsAuthenticated() {
			return id.UserID().String()
		}
		return c.ClientIP()
	}}
}

func (l *KeyedRateLimiter) limiter(key string) *rate.Limiter {
	if v, ok := l.limiters.Load(key); ok {
		return v.(*rate.Limiter)
	}
	v, _ := l.limiters.LoadOrStore(key, rate.NewLimiter(l.rate, l.burst))
	return v.(*rate.Limiter)
}

func (l *KeyedRateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := l.keyFn(c)
		if !l.limiter(key).Allow() {
			if l.log != nil {
				l.log.RateLimitExceeded(c.ClientIP(), c.Request.URL.Path)
			}
			c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResponse{Error: "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

// AuthRequired validates an HS256 access token. The token must carry sub,
// org_id and type=access.
func AuthRequired(cfg config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortUnauthorized(c, errMissingToken)
			return
		}
		claims, err := parseAccessClaims(raw, cfg.GetJWTAccessSecret())
		if err != nil {
			abortUnauthorized(c, errInvalidToken)
			return
		}
		userID, err := uuid.Parse(stringClaim(claims, "sub"))
		if err != nil {
			abortUnauthorized(c, errInvalidToken)
			return
		}
		orgID, err := uuid.Parse(stringClaim(claims, "org_id"))
		if err != nil {
			abortUnauthorized(c, errInvalidToken)
			return
		}

		c.Set(ContextUserIDKey, userID)
		c.Set(ContextOrganizationIDKey, orgID)
		c.Set(ContextRolesKey, rolesClaim(claims["roles"]))
		ctx := context.WithValue(c.Request.Context(), logger.OperatorIDKey, userID.String())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, _ := c.Get(ContextRolesKey)
		roles, _ := raw.([]string)
		if !slices.Contains(roles, role) {
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{Error: "forbidden"})
			return
		}
		c.Next()
	}
}

// IssueAccessToken signs a token AuthRequired accepts. The identity service
// is external; this is used by tooling and tests.
func IssueAccessToken(secret string, userID, orgID uuid.UUID, roles []string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":    userID.String(),
		"org_id": orgID.String(),
		"roles":  roles,
		"type":   "access",
		"iat":    now.Unix(),
		"exp":    now.Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func parseAccessClaims(raw, secret string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, errors.New(errInvalidToken)
	}
	if stringClaim(claims, "type") != "access" {
		return nil, errors.New(errInvalidToken)
	}
	return claims, nil
}

func stringClaim(claims jwt.MapClaims, key string) string {
	v, _ := claims[key].(string)
	return v
}

func rolesClaim(value any) []string {
	roles := make([]string, 0)
	switch typed := value.(type) {
	case []string:
		roles = append(roles, typed...)
	case []any:
		for _, item := range typed {
			if s, ok := item.(string); ok {
				roles = append(roles, s)
			}
		}
	}
	return roles
}

func bearerToken(header string) (string, bool) {
	token, ok := strings.CutPrefix(header, "Bearer ")
	token = strings.TrimSpace(token)
	return token, ok && token != ""
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: message})
}
