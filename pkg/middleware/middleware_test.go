package middleware_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/codevault/pkg/configs"
	ctxPkg "github.com/yeisme/codevault/pkg/context"
	"github.com/yeisme/codevault/pkg/internal/model"
	"github.com/yeisme/codevault/pkg/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newSessions() *middleware.Sessions {
	return middleware.NewSessions(configs.AuthConfig{
		SessionSecret: "0123456789abcdef0123456789abcdef",
		TokenSecret:   "test-secret",
	})
}

// whoami 返回当前会话的用户 id.
func whoami(c *gin.Context) {
	sess, ok := ctxPkg.CurrentSession(c.Request.Context())
	if !ok {
		c.String(http.StatusOK, "anonymous")
		return
	}

	c.String(http.StatusOK, sess.ID)
}

func newSessionEngine(s *middleware.Sessions) *gin.Engine {
	r := gin.New()
	r.Use(s.Middleware())

	r.POST("/login", func(c *gin.Context) {
		if err := s.Save(c, model.Session{ID: "usr_1", Email: "a@x.io"}); err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}

		c.Status(http.StatusNoContent)
	})
	r.POST("/logout", func(c *gin.Context) {
		_ = s.Clear(c)
		c.Status(http.StatusNoContent)
	})
	r.GET("/me", whoami)
	r.GET("/private", middleware.RequireSession(), whoami)

	return r
}

func TestSessionCookieRoundTrip(t *testing.T) {
	r := newSessionEngine(newSessions())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
	require.Equal(t, http.StatusNoContent, w.Code)

	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.True(t, cookies[0].HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.AddCookie(cookies[0])

	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "usr_1", w.Body.String())
}

func TestLogoutExpiresCookie(t *testing.T) {
	r := newSessionEngine(newSessions())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/logout", nil))
	require.Equal(t, http.StatusNoContent, w.Code)

	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Negative(t, cookies[0].MaxAge)
}

func TestRequireSession(t *testing.T) {
	r := newSessionEngine(newSessions())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/private", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, "anonymous", w.Body.String())
}

func TestBearerToken(t *testing.T) {
	s := newSessions()
	r := newSessionEngine(s)

	token, err := s.Tokens().Issue(model.Session{ID: "usr_2", Email: "b@x.io"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "usr_2", w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAdmin(t *testing.T) {
	s := newSessions()
	r := gin.New()
	r.Use(s.Middleware())
	r.POST("/admin", middleware.RequireAdmin([]string{" Ops@Example.com ", ""}), whoami)

	call := func(sess *model.Session) int {
		req := httptest.NewRequest(http.MethodPost, "/admin", nil)
		if sess != nil {
			token, err := s.Tokens().Issue(*sess)
			require.NoError(t, err)
			req.Header.Set("Authorization", "Bearer "+token)
		}

		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		return w.Code
	}

	assert.Equal(t, http.StatusUnauthorized, call(nil))
	assert.Equal(t, http.StatusForbidden, call(&model.Session{ID: "usr_1", Email: "user@example.com"}))
	assert.Equal(t, http.StatusOK, call(&model.Session{ID: "usr_2", Email: "ops@example.com"}))

	none := gin.New()
	none.Use(s.Middleware())
	none.POST("/admin", middleware.RequireAdmin(nil), whoami)

	token, err := s.Tokens().Issue(model.Session{ID: "usr_2", Email: "ops@example.com"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	none.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRedeemRateLimit(t *testing.T) {
	r := gin.New()
	require.NoError(t, r.SetTrustedProxies(nil))
	r.POST("/redeem", middleware.RedeemRateLimit(2), func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)

	for range 3 {
		req := httptest.NewRequest(http.MethodPost, "/redeem", nil)
		req.RemoteAddr = "203.0.113.7:4000"

		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	req := httptest.NewRequest(http.MethodPost, "/redeem", nil)
	req.RemoteAddr = "203.0.113.8:4000"

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRedeemRateLimitIgnoresForwardedHeaders(t *testing.T) {
	r := gin.New()
	require.NoError(t, r.SetTrustedProxies(nil))
	r.POST("/redeem", middleware.RedeemRateLimit(1), func(c *gin.Context) { c.Status(http.StatusOK) })

	passed := 0

	for i := range 20 {
		req := httptest.NewRequest(http.MethodPost, "/redeem", nil)
		req.RemoteAddr = "203.0.113.9:4000"
		req.Header.Set("X-Real-IP", fmt.Sprintf("198.51.100.%d", i+1))
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("192.0.2.%d", i+1))
		req.Header.Set("True-Client-IP", fmt.Sprintf("192.0.2.%d", i+101))

		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code == http.StatusOK {
			passed++
		}
	}

	assert.Equal(t, 1, passed, "rotating forwarding headers must not reset the limit")
}

func TestRedeemRateLimitBehindTrustedProxy(t *testing.T) {
	r := gin.New()
	require.NoError(t, r.SetTrustedProxies([]string{"10.0.0.1"}))
	r.POST("/redeem", middleware.RedeemRateLimit(1), func(c *gin.Context) { c.Status(http.StatusOK) })

	send := func(forwardedFor string) int {
		req := httptest.NewRequest(http.MethodPost, "/redeem", nil)
		req.RemoteAddr = "10.0.0.1:4000"
		req.Header.Set("X-Forwarded-For", forwardedFor)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		return w.Code
	}

	assert.Equal(t, http.StatusOK, send("198.51.100.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("198.51.100.1"))
	assert.Equal(t, http.StatusOK, send("198.51.100.2"), "clients behind the proxy are limited separately")
}

func TestChainDropsNil(t *testing.T) {
	chain := middleware.Chain(nil, middleware.RequireSession(), nil)
	assert.Len(t, chain, 1)

	assert.Nil(t, middleware.RateLimitMiddleware(configs.RateLimitConfig{}))
	assert.Nil(t, middleware.CircuitBreakerMiddleware(configs.CircuitBreakerConfig{}))
}
