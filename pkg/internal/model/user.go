package model

import "strings"

// FederatedCredentialPrefix 第三方账户的凭据标记前缀，完整形式为 federated:<provider>.
const FederatedCredentialPrefix = "federated:"

// User 账户记录. Credential 为 bcrypt 哈希或第三方标记，从不序列化到响应中.
type User struct {
	ID             string `json:"id"`
	Email          string `json:"email"`
	Credential     string `json:"-"`
	Provider       string `json:"provider,omitempty"`
	ProviderUserID string `json:"providerUserId,omitempty"`
}

// IsFederated 是否为第三方登录创建的账户.
func (u *User) IsFederated() bool {
	return strings.HasPrefix(u.Credential, FederatedCredentialPrefix)
}

// Session 登录会话.
type Session struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// SessionOf 由用户构造会话.
func SessionOf(u *User) Session {
	return Session{ID: u.ID, Email: u.Email}
}
