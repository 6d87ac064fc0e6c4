// Package middleware 提供 HTTP 中间件：日志、指标、追踪、限流、熔断、会话以及依赖注入.
//
// 典型装配顺序:
//
//	r.Use(middleware.Chain(
//		middleware.GinLoggerMiddleware(),
//		middleware.TracingMiddleware(),
//		middleware.PrometheusMiddleware(),
//		middleware.StorageMiddleware(manager),
//		sessions.Middleware(),
//	)...)
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// Chain 过滤掉 nil 中间件，便于按配置拼装.
func Chain(handlers ...gin.HandlerFunc) []gin.HandlerFunc {
	out := make([]gin.HandlerFunc, 0, len(handlers))

	for _, h := range handlers {
		if h != nil {
			out = append(out, h)
		}
	}

	return out
}

func isSkippedPath(path string, skips []string) bool {
	if path == "" || len(skips) == 0 {
		return false
	}

	for _, p := range skips {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}

		if strings.HasPrefix(path, p) {
			return true
		}
	}

	return false
}
