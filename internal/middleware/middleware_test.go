package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"shop_api/internal/apperr"
	"shop_api/internal/domain"
	"shop_api/internal/service"
	"shop_api/internal/store"
	"shop_api/internal/utils"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// userStub serves a fixed set of users by ID.
type userStub struct {
	store.UserStore
	users map[uint]domain.User
}

func (s userStub) FindByID(_ context.Context, id uint) (*domain.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func newAuth(t *testing.T) *service.Authenticator {
	t.Helper()
	tokens, err := utils.NewTokenManager("mw-secret", time.Hour)
	require.NoError(t, err)
	return service.NewAuthenticator(tokens, userStub{users: map[uint]domain.User{
		1: {ID: 1, Username: "ana", Password: "hash", Role: domain.RoleUser},
		2: {ID: 2, Username: "root", Password: "hash", Role: domain.RoleAdmin},
	}})
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) apperr.Body {
	t.Helper()
	var resp apperr.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Error
}

func protectedRouter(auth *service.Authenticator, extra ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	handlers := append([]gin.HandlerFunc{JWTAuthMiddleware(auth)}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		u := CurrentUser(c)
		c.JSON(http.StatusOK, gin.H{"id": u.ID, "has_password": u.Password != ""})
	})
	r.GET("/private", handlers...)
	return r
}

func TestJWTAuthMiddleware_MissingHeader(t *testing.T) {
	r := protectedRouter(newAuth(t))

	for _, header := range []string{"", "Token abc"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/private", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, apperr.CodeMissingToken, decodeError(t, w).Code)
	}
}

func TestJWTAuthMiddleware_InvalidToken(t *testing.T) {
	r := protectedRouter(newAuth(t))
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")

	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, apperr.CodeInvalidToken, decodeError(t, w).Code)
}

func TestJWTAuthMiddleware_AttachesIdentity(t *testing.T) {
	auth := newAuth(t)
	token, err := auth.Issue(1)
	require.NoError(t, err)
	r := protectedRouter(auth)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":1,"has_password":false}`, w.Body.String())
}

func TestAdminOnlyMiddleware(t *testing.T) {
	auth := newAuth(t)
	r := protectedRouter(auth, AdminOnlyMiddleware())

	cases := map[uint]int{1: http.StatusForbidden, 2: http.StatusOK}
	for id, want := range cases {
		token, err := auth.Issue(id)
		require.NoError(t, err)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/private", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		r.ServeHTTP(w, req)
		assert.Equal(t, want, w.Code, "user %d", id)
	}
}

func TestAdminOnlyMiddleware_WithoutIdentity(t *testing.T) {
	r := gin.New()
	r.GET("/admin", AdminOnlyMiddleware(), func(c *gin.Context) { c.Status(http.StatusOK) })
	w := httptest.NewRecorder()

	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTimeout_SetsDeadline(t *testing.T) {
	r := gin.New()
	r.Use(Timeout(time.Second))
	var deadline time.Time
	var ok bool
	r.GET("/", func(c *gin.Context) {
		deadline, ok = c.Request.Context().Deadline()
		c.Status(http.StatusNoContent)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Second), deadline, time.Second)
}

type countingLimiter struct {
	mu    sync.Mutex
	count map[string]int
}

func (l *countingLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) RateDecision {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.count[key]++
	return RateDecision{Allowed: l.count[key] <= limit, Count: l.count[key], WindowEnd: time.Now().Add(window)}
}

func TestRateLimit(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())
	r := gin.New()
	r.Use(metrics.Handler())
	r.POST("/login", RateLimit(&countingLimiter{count: map[string]int{}}, metrics, 2, time.Minute), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	codes := make([]int, 0, 3)
	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		last = httptest.NewRecorder()
		r.ServeHTTP(last, httptest.NewRequest(http.MethodPost, "/login", nil))
		codes = append(codes, last.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.Equal(t, apperr.CodeTooManyRequests, decodeError(t, last).Code)
	assert.Equal(t, "0", last.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, last.Header().Get("Retry-After"))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.rateLimitHits.WithLabelValues("/login")))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.requestTotal.WithLabelValues("POST", "/login", "200")))
}

func TestRedisRateLimiter_NilClientAllows(t *testing.T) {
	rl := NewRedisRateLimiter(nil)

	assert.True(t, rl.Allow(context.Background(), "k", 1, time.Minute).Allowed)
}

func newRedisLimiter(t *testing.T) (*RedisRateLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { rdb.Close() })
	return NewRedisRateLimiter(rdb), mr
}

func TestRedisRateLimiter_FixedWindow(t *testing.T) {
	rl, mr := newRedisLimiter(t)
	ctx := context.Background()

	for i := 1; i <= 2; i++ {
		d := rl.Allow(ctx, "login:1.2.3.4", 2, time.Minute)
		assert.True(t, d.Allowed)
		assert.Equal(t, i, d.Count)
	}
	d := rl.Allow(ctx, "login:1.2.3.4", 2, time.Minute)
	assert.False(t, d.Allowed)
	assert.Equal(t, time.Minute, mr.TTL("shop:ratelimit:login:1.2.3.4"))

	// Other clients have their own counter
	assert.True(t, rl.Allow(ctx, "login:5.6.7.8", 2, time.Minute).Allowed)

	mr.FastForward(time.Minute)
	d = rl.Allow(ctx, "login:1.2.3.4", 2, time.Minute)
	assert.True(t, d.Allowed)
	assert.Equal(t, 1, d.Count)
}

func TestRedisRateLimiter_CounterWithoutExpiryIsRepaired(t *testing.T) {
	rl, mr := newRedisLimiter(t)
	// A counter left behind without a TTL, as after a failed EXPIRE
	require.NoError(t, mr.Set("shop:ratelimit:login:1.2.3.4", "50"))

	d := rl.Allow(context.Background(), "login:1.2.3.4", 2, time.Minute)
	assert.False(t, d.Allowed)
	assert.Equal(t, time.Minute, mr.TTL("shop:ratelimit:login:1.2.3.4"))

	mr.FastForward(time.Minute)
	assert.True(t, rl.Allow(context.Background(), "login:1.2.3.4", 2, time.Minute).Allowed)
}

func TestRedisRateLimiter_FailsOpen(t *testing.T) {
	rl, mr := newRedisLimiter(t)
	mr.Close()

	d := rl.Allow(context.Background(), "login:1.2.3.4", 1, time.Minute)
	assert.True(t, d.Allowed)
	assert.Zero(t, d.Count)
}

func TestNewMetrics_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first := NewMetrics(reg)
	second := NewMetrics(reg)

	assert.Same(t, first.requestTotal, second.requestTotal)
}

func corsEngine(t *testing.T, origins []string) *gin.Engine {
	t.Helper()
	handler, err := CORS(origins)
	require.NoError(t, err)
	r := gin.New()
	r.Use(handler)
	r.POST("/api/carts/item", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func preflight(r *gin.Engine, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodOptions, "/api/carts/item", nil)
	req.Header.Set("Origin", origin)
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization, Content-Type")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCORS_ListedOrigins(t *testing.T) {
	r := corsEngine(t, []string{"https://shop.example"})

	w := preflight(r, "https://shop.example")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://shop.example", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")

	w = preflight(r, "https://evil.example")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_WildcardExposesRateLimitHeaders(t *testing.T) {
	r := corsEngine(t, []string{"*"})

	req := httptest.NewRequest(http.MethodPost, "/api/carts/item", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), "Retry-After")
}

func TestCORS_RejectsOriginWithoutScheme(t *testing.T) {
	_, err := CORS([]string{"shop.example"})
	assert.Error(t, err)
}
