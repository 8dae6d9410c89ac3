package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ratings/internal/identity"
	"ratings/internal/logging"
	"ratings/internal/microservices/http-api/service"
)

const testSecret = "test-secret-that-is-long-enough-0123456789"

func setupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func callerEcho(c *gin.Context) {
	caller := Caller(c)
	fromCtx := identity.FromContext(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"user_id":       caller.UserID,
		"role":          caller.Role,
		"address":       caller.Address,
		"authenticated": caller.Authenticated,
		"ctx_matches":   fromCtx == caller,
	})
}

func TestOptionalAuth_Anonymous(t *testing.T) {
	router := setupRouter()
	router.Use(OptionalAuth(service.NewTokenService(testSecret, time.Minute)))
	router.GET("/whoami", callerEcho)

	req, _ := http.NewRequest("GET", "/whoami", nil)
	req.RemoteAddr = "192.0.2.7:4444"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":"","role":"","address":"192.0.2.7","authenticated":false,"ctx_matches":true}`, w.Body.String())
}

func TestOptionalAuth_ValidToken(t *testing.T) {
	tokens := service.NewTokenService(testSecret, time.Minute)
	token, err := tokens.Issue("user-1", "alice", "editor")
	require.NoError(t, err)

	router := setupRouter()
	router.Use(OptionalAuth(tokens))
	router.GET("/whoami", callerEcho)

	req, _ := http.NewRequest("GET", "/whoami", nil)
	req.RemoteAddr = "192.0.2.7:4444"
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":"user-1","role":"editor","address":"192.0.2.7","authenticated":true,"ctx_matches":true}`, w.Body.String())
}

func TestOptionalAuth_RejectsBadHeaders(t *testing.T) {
	tokens := service.NewTokenService(testSecret, time.Minute)
	for _, header := range []string{"Token abc", "Bearer", "Bearer not-a-jwt", "Bearer a b"} {
		router := setupRouter()
		router.Use(OptionalAuth(tokens))
		router.GET("/whoami", callerEcho)

		req, _ := http.NewRequest("GET", "/whoami", nil)
		req.Header.Set("Authorization", header)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code, header)
	}
}

func TestRequireAuth(t *testing.T) {
	tokens := service.NewTokenService(testSecret, time.Minute)
	router := setupRouter()
	router.Use(OptionalAuth(tokens), RequireAuth())
	router.GET("/private", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/private", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, _ := tokens.Issue("user-1", "alice", "user")
	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/private", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRequireRole(t *testing.T) {
	tokens := service.NewTokenService(testSecret, time.Minute)
	router := setupRouter()
	router.Use(OptionalAuth(tokens))
	router.GET("/admin", RequireRole("admin"), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	userToken, _ := tokens.Issue("user-1", "alice", "user")
	adminToken, _ := tokens.Issue("user-2", "root", "admin")

	for token, want := range map[string]int{userToken: http.StatusForbidden, adminToken: http.StatusNoContent} {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/admin", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		router.ServeHTTP(w, req)
		assert.Equal(t, want, w.Code)
	}
}

func TestIPRateLimiter(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewIPRateLimiter(1, 2)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"), "burst exhausted")
	assert.True(t, l.Allow("b"), "buckets are per IP")

	now = now.Add(time.Second)
	assert.True(t, l.Allow("a"), "refilled after one second")

	now = now.Add(time.Hour)
	l.cleanupAt = now.Add(-time.Second)
	l.Allow("c")
	assert.Equal(t, 1, l.Size(), "idle buckets are swept")
}

func TestRateLimit_Returns429(t *testing.T) {
	router := setupRouter()
	router.Use(RateLimit(NewIPRateLimiter(0.001, 1)))
	router.POST("/vote", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/vote", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("POST", "/vote", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
}

func TestRequestID(t *testing.T) {
	router := setupRouter()
	router.Use(RequestID())
	router.GET("/", func(c *gin.Context) {
		id, _ := logging.RequestID(c.Request.Context())
		c.String(http.StatusOK, id)
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/", nil)
	router.ServeHTTP(w, req)
	minted := w.Header().Get(RequestIDHeader)
	_, err := uuid.Parse(minted)
	assert.NoError(t, err)
	assert.Equal(t, minted, w.Body.String())

	incoming := uuid.NewString()
	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/", nil)
	req.Header.Set(RequestIDHeader, incoming)
	router.ServeHTTP(w, req)
	assert.Equal(t, incoming, w.Header().Get(RequestIDHeader))

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/", nil)
	req.Header.Set(RequestIDHeader, "<script>")
	router.ServeHTTP(w, req)
	assert.NotEqual(t, "<script>", w.Header().Get(RequestIDHeader))
}

func TestAccessLog(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(&buf, slog.LevelInfo, "text")

	router := setupRouter()
	router.Use(RequestID(), AccessLog(logger))
	router.GET("/api/ratings/:rating_id", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/ratings/3", nil)
	router.ServeHTTP(w, req)

	assert.Contains(t, buf.String(), "msg=http_request")
	assert.Contains(t, buf.String(), "path=/api/ratings/:rating_id")
	assert.Contains(t, buf.String(), "request_id="+w.Header().Get(RequestIDHeader))
}
