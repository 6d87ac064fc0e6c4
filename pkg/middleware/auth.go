package middleware

import (
	crand "crypto/rand"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"

	"github.com/yeisme/codevault/pkg/configs"
	ctxPkg "github.com/yeisme/codevault/pkg/context"
	"github.com/yeisme/codevault/pkg/internal/model"
	"github.com/yeisme/codevault/pkg/internal/service"
	"github.com/yeisme/codevault/pkg/log"
)

const (
	sessionUserIDKey = "user_id"
	sessionEmailKey  = "email"
	bearerPrefix     = "Bearer "
)

// Sessions 维护登录态：浏览器走签名 Cookie，API 客户端走 Bearer JWT.
type Sessions struct {
	store  *sessions.CookieStore
	name   string
	tokens *service.TokenIssuer
	skips  []string
}

// NewSessions 按认证配置创建会话管理器. 未配置 session_secret 时使用进程内随机密钥.
func NewSessions(cfg configs.AuthConfig) *Sessions {
	cfg = cfg.WithDefaults()

	secret := []byte(cfg.SessionSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		_, _ = crand.Read(secret)

		log.Logger().Warn().Msg("auth.session_secret not set, sessions will not survive a restart")
	}

	store := sessions.NewCookieStore(secret)
	store.MaxAge(cfg.SessionMaxAge)
	store.Options.Path = "/"
	store.Options.HttpOnly = true
	store.Options.Secure = cfg.SecureCookie

	return &Sessions{
		store:  store,
		name:   cfg.SessionName,
		tokens: service.NewTokenIssuer(cfg),
		skips:  cfg.SkipPaths,
	}
}

// Store 底层 Cookie 存储，第三方登录流程（gothic）共用它.
func (s *Sessions) Store() sessions.Store {
	return s.store
}

// Tokens 令牌签发器.
func (s *Sessions) Tokens() *service.TokenIssuer {
	return s.tokens
}

// Middleware 解析请求中的会话并写入 context. 无会话或凭据无效时不拦截，由 RequireSession 决定.
func (s *Sessions) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if isSkippedPath(c.Request.URL.Path, s.skips) {
			c.Next()
			return
		}

		if sess, ok := s.resolve(c.Request); ok {
			c.Request = c.Request.WithContext(ctxPkg.WithSession(c.Request.Context(), sess))
		}

		c.Next()
	}
}

// resolve Authorization 头优先于 Cookie.
func (s *Sessions) resolve(r *http.Request) (model.Session, bool) {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, bearerPrefix) {
		sess, err := s.tokens.Parse(strings.TrimSpace(strings.TrimPrefix(h, bearerPrefix)))
		if err != nil {
			log.FromContext(r.Context()).Debug().Err(err).Msg("bearer token rejected")

			return model.Session{}, false
		}

		return sess, true
	}

	cookie, err := s.store.Get(r, s.name)
	if err != nil || cookie.IsNew {
		return model.Session{}, false
	}

	id, _ := cookie.Values[sessionUserIDKey].(string)
	email, _ := cookie.Values[sessionEmailKey].(string)

	if id == "" {
		return model.Session{}, false
	}

	return model.Session{ID: id, Email: email}, true
}

// Save 写入会话 Cookie 并同步到当前请求 context.
func (s *Sessions) Save(c *gin.Context, sess model.Session) error {
	cookie, _ := s.store.Get(c.Request, s.name)
	cookie.Values[sessionUserIDKey] = sess.ID
	cookie.Values[sessionEmailKey] = sess.Email

	if err := cookie.Save(c.Request, c.Writer); err != nil {
		return err
	}

	c.Request = c.Request.WithContext(ctxPkg.WithSession(c.Request.Context(), sess))

	return nil
}

// Clear 使会话 Cookie 立即过期.
func (s *Sessions) Clear(c *gin.Context) error {
	cookie, _ := s.store.Get(c.Request, s.name)
	cookie.Values = map[any]any{}
	cookie.Options.MaxAge = -1

	return cookie.Save(c.Request, c.Writer)
}

// RequireSession 未登录时返回 401.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := ctxPkg.CurrentSession(c.Request.Context()); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "sign in required"})
			return
		}

		c.Next()
	}
}

// RequireAdmin 要求当前会话的 email 在管理员列表中，未登录返回 401，非管理员返回 403.
func RequireAdmin(admins []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(admins))
	for _, email := range admins {
		if email = strings.ToLower(strings.TrimSpace(email)); email != "" {
			allowed[email] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		sess, ok := ctxPkg.CurrentSession(c.Request.Context())
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "sign in required"})
			return
		}

		if _, ok := allowed[strings.ToLower(sess.Email)]; !ok {
			log.FromContext(c.Request.Context()).Warn().
				Str("user_id", sess.ID).
				Str("path", c.FullPath()).
				Msg("admin route denied")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin only"})

			return
		}

		c.Next()
	}
}
