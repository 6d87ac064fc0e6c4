package configs

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultAuthSessionName   = "codevault_session" // 会话 Cookie 名称
	DefaultAuthSessionMaxAge = 86400 * 7           // 会话有效期（秒）
	DefaultAuthTokenTTL      = 24 * time.Hour      // JWT 有效期
	DefaultAuthMinPassword   = 8                   // 最短密码长度
	DefaultAuthBcryptCost    = 10                  // bcrypt 计算成本
	DefaultAuthCallbackBase  = "http://localhost:8080/api/v1/auth"
)

// AuthConfig 控制会话、JWT 令牌以及第三方登录.
type AuthConfig struct {
	SessionSecret  string          `mapstructure:"session_secret"`   // Cookie 签名密钥，空值时启动生成随机密钥
	SessionName    string          `mapstructure:"session_name"`     // Cookie 名称
	SessionMaxAge  int             `mapstructure:"session_max_age"`  // Cookie 有效期（秒）
	SecureCookie   bool            `mapstructure:"secure_cookie"`    // 仅 HTTPS 下发送
	TokenSecret    string          `mapstructure:"token_secret"`     // JWT HS256 密钥
	TokenTTL       time.Duration   `mapstructure:"token_ttl"`        // JWT 有效期
	MinPassword    int             `mapstructure:"min_password"     rule:"min=1,max=72"`
	BcryptCost     int             `mapstructure:"bcrypt_cost"      rule:"min=4,max=31"`
	CallbackBase   string          `mapstructure:"callback_base"`    // 第三方登录回调地址前缀，后接 /<provider>/callback
	Providers      ProvidersConfig `mapstructure:"providers"`
	SkipPaths      []string        `mapstructure:"skip_paths"`       // 不解析会话的路径前缀
	// Admins 可手动触发定时任务的用户 email，为空时禁止所有人触发
	Admins         []string        `mapstructure:"admins"           rule:"dive,email"`
}

// ProvidersConfig 第三方登录提供方，未配置 key 的提供方不启用.
type ProvidersConfig struct {
	Google OAuthProviderConfig `mapstructure:"google"`
	GitHub OAuthProviderConfig `mapstructure:"github"`
}

// OAuthProviderConfig 单个 OAuth 提供方的凭据.
type OAuthProviderConfig struct {
	Key    string   `mapstructure:"key"`
	Secret string   `mapstructure:"secret"`
	Scopes []string `mapstructure:"scopes"`
}

// Enabled 凭据齐全时视为启用.
func (c OAuthProviderConfig) Enabled() bool {
	return c.Key != "" && c.Secret != ""
}

// WithDefaults 返回零值字段填充默认值后的副本.
func (c AuthConfig) WithDefaults() AuthConfig {
	if c.SessionName == "" {
		c.SessionName = DefaultAuthSessionName
	}

	if c.SessionMaxAge <= 0 {
		c.SessionMaxAge = DefaultAuthSessionMaxAge
	}

	if c.TokenTTL <= 0 {
		c.TokenTTL = DefaultAuthTokenTTL
	}

	if c.MinPassword <= 0 {
		c.MinPassword = DefaultAuthMinPassword
	}

	if c.BcryptCost <= 0 {
		c.BcryptCost = DefaultAuthBcryptCost
	}

	if c.CallbackBase == "" {
		c.CallbackBase = DefaultAuthCallbackBase
	}

	return c
}

func (c *AuthConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("auth.session_secret", "")
	v.SetDefault("auth.session_name", DefaultAuthSessionName)
	v.SetDefault("auth.session_max_age", DefaultAuthSessionMaxAge)
	v.SetDefault("auth.secure_cookie", false)
	v.SetDefault("auth.token_secret", "")
	v.SetDefault("auth.token_ttl", DefaultAuthTokenTTL)
	v.SetDefault("auth.min_password", DefaultAuthMinPassword)
	v.SetDefault("auth.bcrypt_cost", DefaultAuthBcryptCost)
	v.SetDefault("auth.callback_base", DefaultAuthCallbackBase)
	v.SetDefault("auth.providers.google.scopes", []string{"email", "profile"})
	v.SetDefault("auth.providers.github.scopes", []string{"user:email"})
	v.SetDefault("auth.admins", []string{})
	v.SetDefault("auth.skip_paths", []string{
		"/metrics",
		"/debug/pprof",
		"/swagger",
	})
}
