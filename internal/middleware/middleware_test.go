package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/transport-ticketing/internal/config"
	"github.com/iliyamo/transport-ticketing/internal/utils"
)

const secret = "test-secret"

func serve(t *testing.T, token string, mw ...echo.MiddlewareFunc) (*httptest.ResponseRecorder, Identity) {
	t.Helper()
	e := echo.New()
	var seen Identity
	e.GET("/x", func(c echo.Context) error {
		seen, _ = Staff(c)
		return c.NoContent(http.StatusNoContent)
	}, mw...)
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec, seen
}

func token(t *testing.T, role string, ttl time.Duration) string {
	t.Helper()
	tok, err := utils.NewAccessToken(secret, "u7", role, "c1", "a1", ttl)
	if err != nil {
		t.Fatal(err)
	}
	return tok.Token
}

func TestJWTAuth(t *testing.T) {
	rec, id := serve(t, token(t, RoleAgent, time.Hour), JWTAuth(secret))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
	want := Identity{UserID: "u7", Role: RoleAgent, CompanyID: "c1", AgencyID: "a1"}
	if id != want {
		t.Fatalf("identity = %+v, want %+v", id, want)
	}

	for name, tok := range map[string]string{
		"missing":  "",
		"garbage":  "not-a-jwt",
		"expired":  token(t, RoleAgent, -time.Minute),
		"wrongkey": func() string { a, _ := utils.NewAccessToken("other", "u7", RoleAgent, "", "", time.Hour); return a.Token }(),
	} {
		if rec, _ := serve(t, tok, JWTAuth(secret)); rec.Code != http.StatusUnauthorized {
			t.Errorf("%s token: status = %d, want 401", name, rec.Code)
		}
	}
}

func TestRequireRole(t *testing.T) {
	if rec, _ := serve(t, token(t, RoleAgent, time.Hour), JWTAuth(secret), RequireRole(RoleAdmin)); rec.Code != http.StatusForbidden {
		t.Fatalf("agent on admin route: status = %d", rec.Code)
	}
	if rec, _ := serve(t, token(t, RoleAdmin, time.Hour), JWTAuth(secret), RequireRole(RoleAgent, RoleAdmin)); rec.Code != http.StatusNoContent {
		t.Fatalf("admin on staff route: status = %d", rec.Code)
	}
}

func TestDisabledRedisMiddlewarePassThrough(t *testing.T) {
	rl := RateLimit(config.RateLimitConfig{Enabled: true}, nil)
	cache := ResponseCache(config.CacheConfig{Enabled: true, TTL: time.Minute}, nil)
	if rec, _ := serve(t, "", rl, cache); rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestRateKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/reservations", nil)
	req.Header.Set(echo.HeaderXRealIP, "10.0.0.9")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/reservations")

	cases := map[string]string{
		"ip":       "rl:ip:10.0.0.9",
		"user":     "rl:user:anon",
		"ip_route": "rl:ip:10.0.0.9:route:POST /v1/reservations",
		"":         "rl:ip:10.0.0.9:route:POST /v1/reservations",
	}
	for strategy, want := range cases {
		if got := rateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: strategy}, c); got != want {
			t.Errorf("rateKey(%q) = %q, want %q", strategy, got, want)
		}
	}
	c.Set("user_id", "u7")
	if got := rateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "user_route"}, c); got != "rl:user:u7:route:POST /v1/reservations" {
		t.Errorf("user_route key = %q", got)
	}
}

func TestCaptureWriterLimit(t *testing.T) {
	rec := httptest.NewRecorder()
	cw := &captureWriter{ResponseWriter: rec, status: http.StatusOK, limit: 4}
	_, _ = cw.Write([]byte("abc"))
	_, _ = cw.Write([]byte("def"))
	if !cw.over || cw.buf.Len() != 0 {
		t.Fatalf("over=%v buffered=%d", cw.over, cw.buf.Len())
	}
	if rec.Body.String() != "abcdef" {
		t.Fatalf("client body = %q", rec.Body.String())
	}
}

func TestCacheKeys(t *testing.T) {
	cfg := config.CacheConfig{Prefix: "cache"}
	get := httptest.NewRequest(http.MethodGet, "/v1/templates/t1", nil)
	put := httptest.NewRequest(http.MethodPut, "/v1/templates/t1", nil)

	if cacheKey(cfg, "c1", get) == cacheKey(cfg, "c2", get) {
		t.Fatal("cache key does not vary by company")
	}
	evicted := evictKeys(cfg, "c1", put)
	if len(evicted) != 2 || evicted[0] != cacheKey(cfg, "", get) || evicted[1] != cacheKey(cfg, "c1", get) {
		t.Fatalf("evicted = %v", evicted)
	}
	if q := httptest.NewRequest(http.MethodGet, "/v1/templates/t1?x=1", nil); cacheKey(cfg, "", q) == cacheKey(cfg, "", get) {
		t.Fatal("cache key ignores the query")
	}
}
