package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"

	"github.com/yeisme/codevault/pkg/internal/model"
	"github.com/yeisme/codevault/pkg/internal/service"
	"github.com/yeisme/codevault/pkg/internal/types"
	"github.com/yeisme/codevault/pkg/log"
	"github.com/yeisme/codevault/pkg/middleware"
)

// AuthHandlers 账户相关处理器，共享同一个会话管理器.
type AuthHandlers struct {
	sessions *middleware.Sessions
}

// NewAuthHandlers 创建账户处理器.
func NewAuthHandlers(s *middleware.Sessions) *AuthHandlers {
	return &AuthHandlers{sessions: s}
}

// Signup 注册密码账户.
//
//	@Summary		注册
//	@Description	使用 email 与密码注册，成功后写入会话 Cookie 并返回令牌
//	@Tags			账户
//	@Accept			json
//	@Produce		json
//	@Param			body	body		types.CredentialsRequest	true	"账户信息"
//	@Success		201		{object}	types.AuthResponse
//	@Failure		400		{object}	map[string]string
//	@Failure		409		{object}	map[string]string
//	@Failure		503		{object}	map[string]string
//	@Router			/api/v1/auth/signup [post]
func (h *AuthHandlers) Signup(c *gin.Context) {
	var req types.CredentialsRequest
	if !bindJSON(c, &req) {
		return
	}

	sess, err := service.NewAuthService(c.Request.Context()).Signup(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	h.signedIn(c, http.StatusCreated, sess)
}

// Login 密码登录.
//
//	@Summary	登录
//	@Tags		账户
//	@Accept		json
//	@Produce	json
//	@Param		body	body		types.CredentialsRequest	true	"账户信息"
//	@Success	200		{object}	types.AuthResponse
//	@Failure	401		{object}	map[string]string
//	@Failure	503		{object}	map[string]string
//	@Router		/api/v1/auth/login [post]
func (h *AuthHandlers) Login(c *gin.Context) {
	var req types.CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, service.ErrInvalidCredentials)
		return
	}

	sess, err := service.NewAuthService(c.Request.Context()).Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	h.signedIn(c, http.StatusOK, sess)
}

// Logout 清除会话 Cookie. Bearer 令牌在过期前仍然有效.
//
//	@Summary	退出登录
//	@Tags		账户
//	@Success	204
//	@Router		/api/v1/auth/logout [post]
func (h *AuthHandlers) Logout(c *gin.Context) {
	if err := h.sessions.Clear(c); err != nil {
		log.FromContext(c.Request.Context()).Warn().Err(err).Msg("clear session failed")
	}

	_ = gothic.Logout(c.Writer, c.Request)

	c.Status(http.StatusNoContent)
}

// Me 返回当前会话.
//
//	@Summary	当前用户
//	@Tags		账户
//	@Produce	json
//	@Success	200	{object}	model.Session
//	@Failure	401	{object}	map[string]string
//	@Router		/api/v1/auth/me [get]
func (h *AuthHandlers) Me(c *gin.Context) {
	sess, ok := session(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, sess)
}

// BeginProvider 跳转到第三方登录页；已完成授权时直接登录.
//
//	@Summary	第三方登录
//	@Tags		账户
//	@Param		provider	path	string	true	"google 或 github"
//	@Success	307
//	@Failure	404	{object}	map[string]string
//	@Router		/api/v1/auth/{provider} [get]
func (h *AuthHandlers) BeginProvider(c *gin.Context) {
	if !useProvider(c) {
		return
	}

	if user, err := gothic.CompleteUserAuth(c.Writer, c.Request); err == nil {
		h.federated(c, user)
		return
	}

	gothic.BeginAuthHandler(c.Writer, c.Request)
}

// ProviderCallback 第三方登录回调.
//
//	@Summary	第三方登录回调
//	@Tags		账户
//	@Produce	json
//	@Param		provider	path		string	true	"google 或 github"
//	@Success	200			{object}	types.AuthResponse
//	@Failure	401			{object}	map[string]string
//	@Failure	404			{object}	map[string]string
//	@Router		/api/v1/auth/{provider}/callback [get]
func (h *AuthHandlers) ProviderCallback(c *gin.Context) {
	if !useProvider(c) {
		return
	}

	user, err := gothic.CompleteUserAuth(c.Writer, c.Request)
	if err != nil {
		log.FromContext(c.Request.Context()).Warn().Err(err).Str("provider", c.Param("provider")).Msg("federated login failed")
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "federated login failed"})

		return
	}

	h.federated(c, user)
}

func (h *AuthHandlers) federated(c *gin.Context, user goth.User) {
	sess, err := service.NewAuthService(c.Request.Context()).
		FederatedLogin(c.Request.Context(), user.Provider, user.UserID, user.Email)
	if err != nil {
		respondError(c, err)
		return
	}

	h.signedIn(c, http.StatusOK, sess)
}

// signedIn 写入会话 Cookie 并返回令牌.
func (h *AuthHandlers) signedIn(c *gin.Context, status int, sess model.Session) {
	if err := h.sessions.Save(c, sess); err != nil {
		log.FromContext(c.Request.Context()).Error().Err(err).Msg("save session failed")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})

		return
	}

	token, err := h.sessions.Tokens().Issue(sess)
	if err != nil {
		log.FromContext(c.Request.Context()).Error().Err(err).Msg("issue token failed")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})

		return
	}

	c.JSON(status, types.AuthResponse{
		User:      sess,
		Token:     token,
		ExpiresIn: int64(h.sessions.Tokens().TTL().Seconds()),
	})
}

// useProvider 把路径参数交给 gothic（它从 query 读取 provider），未启用的提供方返回 404.
func useProvider(c *gin.Context) bool {
	name := c.Param("provider")
	if _, err := goth.GetProvider(name); err != nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "unknown provider"})
		return false
	}

	q := c.Request.URL.Query()
	q.Set("provider", name)
	c.Request.URL.RawQuery = q.Encode()

	return true
}
