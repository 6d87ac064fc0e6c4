// Package types 定义 HTTP 请求与响应结构. 请求体使用 `rule` 标签校验.
package types

import "github.com/yeisme/codevault/pkg/internal/model"

// CredentialsRequest 注册与登录共用的请求体.
type CredentialsRequest struct {
	Email    string `json:"email"    form:"email"    rule:"required,email,max=320"`
	Password string `json:"password" form:"password" rule:"required,max=72"`
}

// AuthResponse 登录成功后的会话与令牌. 浏览器同时收到会话 Cookie.
type AuthResponse struct {
	User  model.Session `json:"user"`
	Token string        `json:"token"`
	// ExpiresIn 令牌剩余有效期（秒）
	ExpiresIn int64 `json:"expires_in"`
}
