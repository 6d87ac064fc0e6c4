package service

import (
	crand "crypto/rand"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/yeisme/codevault/pkg/configs"
	"github.com/yeisme/codevault/pkg/internal/model"
	nlog "github.com/yeisme/codevault/pkg/log"
)

// ErrInvalidToken 令牌无法解析、签名错误或已过期.
var ErrInvalidToken = errors.New("invalid token")

// Claims 令牌声明，sub 为用户 id.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// TokenIssuer 签发与校验 HS256 令牌.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// 未配置密钥时进程内共享一把随机密钥，重启后旧令牌失效.
var fallbackSecret = sync.OnceValue(func() []byte {
	b := make([]byte, 32)
	_, _ = crand.Read(b)

	nlog.Logger().Warn().Msg("auth.token_secret not set, using a random per-process secret")

	return b
})

// NewTokenIssuer 按认证配置创建签发器.
func NewTokenIssuer(cfg configs.AuthConfig) *TokenIssuer {
	cfg = cfg.WithDefaults()

	secret := []byte(cfg.TokenSecret)
	if len(secret) == 0 {
		secret = fallbackSecret()
	}

	return &TokenIssuer{secret: secret, ttl: cfg.TokenTTL}
}

// Issue 为会话签发令牌.
func (t *TokenIssuer) Issue(s model.Session) (string, error) {
	now := time.Now()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Email: s.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.ID,
			Issuer:    configs.AppName,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	})

	return token.SignedString(t.secret)
}

// Parse 校验令牌并还原会话.
func (t *TokenIssuer) Parse(tokenString string) (model.Session, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(tok *jwt.Token) (any, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(configs.AppName))
	if err != nil {
		return model.Session{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if !token.Valid || claims.Subject == "" {
		return model.Session{}, ErrInvalidToken
	}

	return model.Session{ID: claims.Subject, Email: claims.Email}, nil
}

// TTL 令牌有效期.
func (t *TokenIssuer) TTL() time.Duration {
	return t.ttl
}
