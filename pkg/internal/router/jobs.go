package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/codevault/pkg/internal/handle"
	"github.com/yeisme/codevault/pkg/middleware"
)

// RegisterJobsRoutes 注册定时任务路由. 查看要求登录，手动触发仅限 admins 中的用户.
func RegisterJobsRoutes(g *gin.RouterGroup, admins []string) {
	jobsRoutes := g.Group("/jobs", middleware.RequireSession())
	{
		jobsRoutes.GET("", handle.ListJobs)
		jobsRoutes.POST("/:name/run", middleware.RequireAdmin(admins), handle.RunJob)
	}
}
