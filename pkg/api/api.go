// Package api 汇总 HTTP 接口的路由注册入口，所有业务接口挂在 /api/v1 下.
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/codevault/pkg/internal/handle"
	"github.com/yeisme/codevault/pkg/internal/router"
	"github.com/yeisme/codevault/pkg/middleware"
)

// BasePath 业务接口前缀.
const BasePath = "/api/v1"

// Options 路由注册依赖.
type Options struct {
	Sessions *middleware.Sessions
	// RedeemPerMinute 单 IP 每分钟兑换次数，0 表示不限制
	RedeemPerMinute int
	// Admins 允许手动触发定时任务的 email
	Admins []string
}

// Register 注册全部业务路由到传入的 gin 引擎.
func Register(e *gin.Engine, opts Options) *gin.Engine {
	v1 := e.Group(BasePath)

	router.RegisterAuthRoutes(v1, handle.NewAuthHandlers(opts.Sessions))
	router.RegisterFilesRoutes(v1)
	router.RegisterRedeemRoutes(v1, opts.RedeemPerMinute)
	router.RegisterHealthCheckRoute(v1)
	router.RegisterJobsRoutes(v1, opts.Admins)

	router.RegisterSwaggerRoute(e)

	return e
}
