package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/codevault/pkg/internal/handle"
	"github.com/yeisme/codevault/pkg/middleware"
)

// RegisterFilesRoutes 注册文件路由，全部要求登录.
func RegisterFilesRoutes(g *gin.RouterGroup) {
	filesRoutes := g.Group("/files", middleware.RequireSession())
	{
		filesRoutes.GET("", handle.ListFiles)
		filesRoutes.POST("", handle.UploadFile)
		filesRoutes.POST("/link", handle.CreateLink)

		filesRoutes.GET("/:id", handle.GetFile)
		filesRoutes.DELETE("/:id", handle.DeleteFile)
	}
}
