package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Shine-Infosolutions/eventbackend/internal/config"
	"github.com/Shine-Infosolutions/eventbackend/internal/logger"
	"github.com/Shine-Infosolutions/eventbackend/internal/model"
	"github.com/Shine-Infosolutions/eventbackend/internal/service"
	"github.com/Shine-Infosolutions/eventbackend/internal/utils"
)

const testSecret = "test-secret"

func bearer(t *testing.T, id uint64, role, name string) string {
	t.Helper()
	tok, err := utils.NewAccessToken(testSecret, id, role, name, 5)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return "Bearer " + tok.Token
}

func serveWithAuth(t *testing.T, auth string, h echo.HandlerFunc, mws ...echo.MiddlewareFunc) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	chain := append([]echo.MiddlewareFunc{JWTAuth(testSecret)}, mws...)
	e.GET("/x", h, chain...)
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuthStoresActor(t *testing.T) {
	var got service.Actor
	rec := serveWithAuth(t, bearer(t, 7, string(model.RoleGate), "Gita"), func(c echo.Context) error {
		a, ok := CurrentActor(c)
		if !ok {
			t.Fatalf("no actor in context")
		}
		got = a
		return c.NoContent(http.StatusNoContent)
	})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if got.UserID != 7 || got.Role != model.RoleGate || got.Name != "Gita" {
		t.Fatalf("actor = %+v", got)
	}
}

func TestJWTAuthRejects(t *testing.T) {
	cases := map[string]string{
		"missing":    "",
		"not bearer": "Token abc",
		"garbage":    "Bearer abc.def.ghi",
		"bad role":   bearer(t, 7, "Cashier", "x"),
		"no subject": bearer(t, 0, string(model.RoleAdmin), "x"),
	}
	for name, auth := range cases {
		rec := serveWithAuth(t, auth, func(c echo.Context) error {
			t.Fatalf("%s: handler should not run", name)
			return nil
		})
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: status = %d", name, rec.Code)
		}
	}
}

func TestJWTAuthRejectsOtherSecret(t *testing.T) {
	tok, err := utils.NewAccessToken("other", 1, string(model.RoleAdmin), "a", 5)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	rec := serveWithAuth(t, "Bearer "+tok.Token, func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	ok := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	rec := serveWithAuth(t, bearer(t, 1, string(model.RoleSales), "s"), ok, RequireRole(model.RoleAdmin))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("sales status = %d", rec.Code)
	}
	rec = serveWithAuth(t, bearer(t, 1, string(model.RoleAdmin), "a"), ok, RequireRole(model.RoleAdmin))
	if rec.Code != http.StatusOK {
		t.Fatalf("admin status = %d", rec.Code)
	}
}

func TestCurrentActorAnonymous(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	if _, ok := CurrentActor(c); ok {
		t.Fatalf("expected no actor")
	}
	if got := userID(c); got != "anon" {
		t.Fatalf("userID = %q", got)
	}
}

func TestBuildRateKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/entry/scan", nil)
	req.Header.Set(echo.HeaderXRealIP, "10.0.0.9")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/entry/scan")
	c.Set("user_id", uint64(42))

	cfg := config.RateLimitConfig{Prefix: "evt:rl:GATE", KeyStrategy: "ip_user"}
	if got, want := buildRateKey(cfg, c), "evt:rl:GATE:ip:10.0.0.9:user:42"; got != want {
		t.Fatalf("key = %q, want %q", got, want)
	}
	cfg.KeyStrategy = ""
	if got := buildRateKey(cfg, c); !strings.HasSuffix(got, ":route:POST /v1/entry/scan") {
		t.Fatalf("default key = %q", got)
	}
}

func TestDisabledMiddlewarePassThrough(t *testing.T) {
	e := echo.New()
	e.GET("/x", func(c echo.Context) error { return c.String(http.StatusOK, "ok") },
		NewTokenBucket(config.RateLimitConfig{Enabled: true}, nil, logger.Discard()),
		NewRedisCache(config.CacheConfig{Enabled: true, TTL: time.Second}, nil))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("got %d %q", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Cache") != "" {
		t.Fatalf("cache header set without redis")
	}
}

func TestPayloadRoundTrip(t *testing.T) {
	hdr := http.Header{echo.HeaderContentType: {echo.MIMEApplicationJSON}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`[{"name":"Couple"}]`))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	status, got, body, ok := decodePayload(bs)
	if !ok || status != http.StatusOK || string(body) != `[{"name":"Couple"}]` {
		t.Fatalf("decode = %d %q %v", status, body, ok)
	}
	if got.Get(echo.HeaderContentType) != echo.MIMEApplicationJSON {
		t.Fatalf("header = %v", got)
	}
	if _, _, _, ok := decodePayload([]byte{0, 0}); ok {
		t.Fatalf("short payload decoded")
	}
}

func TestCaptureWriterOverflow(t *testing.T) {
	rec := httptest.NewRecorder()
	cw := &captureWriter{ResponseWriter: rec, status: http.StatusOK, limit: 4}
	_, _ = cw.Write([]byte("abc"))
	_, _ = cw.Write([]byte("def"))
	if !cw.overflow || cw.buf.Len() != 0 {
		t.Fatalf("overflow = %v, buffered %d", cw.overflow, cw.buf.Len())
	}
	if rec.Body.String() != "abcdef" {
		t.Fatalf("client body = %q", rec.Body.String())
	}
}

func TestRequestLoggerHandsErrorsToEcho(t *testing.T) {
	e := echo.New()
	e.Use(RequestLogger(logger.Discard()))
	e.GET("/x", func(c echo.Context) error { return echo.NewHTTPError(http.StatusTeapot, "no") })
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	if rec.Code != http.StatusTeapot {
		t.Fatalf("status = %d", rec.Code)
	}
}
