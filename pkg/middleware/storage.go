package middleware

import (
	"github.com/gin-gonic/gin"

	ctxPkg "github.com/yeisme/codevault/pkg/context"
	"github.com/yeisme/codevault/pkg/internal/storage"
)

// StorageMiddleware 把存储管理器放入请求 context，服务层由此取得 Store 与对象存储.
func StorageMiddleware(manager *storage.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := ctxPkg.WithStorageManager(c.Request.Context(), manager)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
