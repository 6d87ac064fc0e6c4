package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/yeisme/codevault/pkg/internal/model"
	"github.com/yeisme/codevault/pkg/internal/store"
	nlog "github.com/yeisme/codevault/pkg/log"
	"github.com/yeisme/codevault/pkg/rule"
	"github.com/yeisme/codevault/pkg/tracing"
)

// bcrypt 只处理前 72 字节.
const maxPasswordBytes = 72

// 注册时的查重与写入在进程内串行执行，Store 本身不约束 email 唯一.
var provisionMu sync.Mutex

// AuthService 密码注册登录与第三方登录.
type AuthService struct {
	options
}

// NewAuthService 从 context 获取 Store.
func NewAuthService(c context.Context, opts ...Option) *AuthService {
	return &AuthService{options: newOptions(c, opts...)}
}

// Signup 注册密码账户并返回会话.
func (s *AuthService) Signup(ctx context.Context, email, password string) (model.Session, error) {
	ctx, span := tracing.StartSpan(ctx, "service.Signup")
	defer span.End()

	email = normalizeEmail(email)
	if rule.ValidateVar(email, "required,email") != nil {
		return model.Session{}, invalidInput("a valid email is required")
	}

	if len(password) < s.auth.MinPassword {
		return model.Session{}, invalidInput("password must be at least %d characters", s.auth.MinPassword)
	}

	if len(password) > maxPasswordBytes {
		return model.Session{}, invalidInput("password must be at most %d bytes", maxPasswordBytes)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.auth.BcryptCost)
	if err != nil {
		return model.Session{}, invalidInput("password cannot be hashed")
	}

	provisionMu.Lock()
	defer provisionMu.Unlock()

	existing, err := s.findPasswordUser(ctx, email)
	if err != nil {
		return model.Session{}, err
	}

	if existing != nil {
		return model.Session{}, ErrEmailExists
	}

	u := &model.User{ID: newID(UserIDPrefix), Email: email, Credential: string(hash)}
	if err := s.putUser(ctx, u); err != nil {
		return model.Session{}, err
	}

	nlog.FromContext(ctx).Info().Str("user_id", u.ID).Msg("user signed up")

	s.events.UserRegistered(ctx, u)

	return model.SessionOf(u), nil
}

// Login 校验密码并返回会话.
func (s *AuthService) Login(ctx context.Context, email, password string) (model.Session, error) {
	ctx, span := tracing.StartSpan(ctx, "service.Login")
	defer span.End()

	email = normalizeEmail(email)
	if email == "" || password == "" {
		return model.Session{}, ErrInvalidCredentials
	}

	u, err := s.findPasswordUser(ctx, email)
	if err != nil {
		return model.Session{}, err
	}

	if u == nil {
		return model.Session{}, ErrInvalidCredentials
	}

	if bcrypt.CompareHashAndPassword([]byte(u.Credential), []byte(password)) != nil {
		return model.Session{}, ErrInvalidCredentials
	}

	return model.SessionOf(u), nil
}

// FederatedLogin 按 (provider, providerUserID) 查找用户，首次出现时自动创建.
func (s *AuthService) FederatedLogin(ctx context.Context, provider, providerUserID, email string) (model.Session, error) {
	ctx, span := tracing.StartSpan(ctx, "service.FederatedLogin")
	defer span.End()

	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider == "" || providerUserID == "" {
		return model.Session{}, invalidInput("provider identity is required")
	}

	filter := store.UserFilter{Provider: provider, ProviderUserID: providerUserID}

	provisionMu.Lock()
	defer provisionMu.Unlock()

	u, err := s.findUser(ctx, filter)
	if err != nil {
		return model.Session{}, err
	}

	if u != nil {
		return model.SessionOf(u), nil
	}

	u = &model.User{
		ID:             newID(UserIDPrefix),
		Email:          normalizeEmail(email),
		Credential:     model.FederatedCredentialPrefix + provider,
		Provider:       provider,
		ProviderUserID: providerUserID,
	}
	if err := s.putUser(ctx, u); err != nil {
		return model.Session{}, err
	}

	nlog.FromContext(ctx).Info().Str("user_id", u.ID).Str("provider", provider).Msg("federated user provisioned")

	s.events.UserRegistered(ctx, u)

	return model.SessionOf(u), nil
}

// findPasswordUser 返回该 email 的密码账户，不存在时返回 nil.
func (s *AuthService) findPasswordUser(ctx context.Context, email string) (*model.User, error) {
	var users []*model.User

	err := s.call(ctx, "list users", func(ctx context.Context) error {
		var e error

		users, e = s.store.ListUsers(ctx)

		return e
	})
	if err != nil {
		return nil, err
	}

	for _, u := range users {
		if u.Email == email && !u.IsFederated() {
			return u, nil
		}
	}

	return nil, nil
}

func (s *AuthService) findUser(ctx context.Context, filter store.UserFilter) (*model.User, error) {
	var u *model.User

	err := s.call(ctx, "find user", func(ctx context.Context) error {
		var e error

		u, e = s.store.FindUser(ctx, filter)

		return e
	})
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}

	return u, err
}

func (s *AuthService) putUser(ctx context.Context, u *model.User) error {
	err := s.call(ctx, "put user", func(ctx context.Context) error {
		return s.store.PutUser(ctx, u)
	})
	if errors.Is(err, store.ErrDuplicateID) {
		return unavailable("put user", err)
	}

	return err
}
