// Package router 把处理器绑定到路由组. 鉴权要求在这里声明，处理器本身不区分匿名与登录.
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/codevault/pkg/internal/handle"
	"github.com/yeisme/codevault/pkg/middleware"
)

// RegisterAuthRoutes 注册账户路由.
//
//	POST /auth/signup
//	POST /auth/login
//	POST /auth/logout
//	GET  /auth/me
//	GET  /auth/:provider
//	GET  /auth/:provider/callback
func RegisterAuthRoutes(g *gin.RouterGroup, h *handle.AuthHandlers) {
	authRoutes := g.Group("/auth")
	{
		authRoutes.POST("/signup", h.Signup)
		authRoutes.POST("/login", h.Login)
		authRoutes.POST("/logout", h.Logout)
		authRoutes.GET("/me", middleware.RequireSession(), h.Me)

		authRoutes.GET("/:provider", h.BeginProvider)
		authRoutes.GET("/:provider/callback", h.ProviderCallback)
	}
}
