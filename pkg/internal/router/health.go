package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/codevault/pkg/internal/handle"
)

// RegisterHealthCheckRoute 注册健康检查路由：/health 汇总，/health/<component> 单项.
func RegisterHealthCheckRoute(g *gin.RouterGroup) {
	healthRoutes := g.Group("/health")
	{
		healthRoutes.GET("", handle.Health)

		for _, name := range handle.HealthComponents() {
			healthRoutes.GET("/"+name, handle.HealthComponent(name))
		}
	}
}
