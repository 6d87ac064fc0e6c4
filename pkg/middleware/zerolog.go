package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	ctxPkg "github.com/yeisme/codevault/pkg/context"
	"github.com/yeisme/codevault/pkg/log"
)

// GinLoggerMiddleware 使用 zerolog 记录请求日志. 5xx 记为 error，4xx 记为 warn.
//
// 查询串不入日志，兑换接口的访问码只出现在请求体中.
func GinLoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()

		level := zerolog.InfoLevel

		switch {
		case status >= 500:
			level = zerolog.ErrorLevel
		case status >= 400:
			level = zerolog.WarnLevel
		}

		event := log.FromContext(c.Request.Context()).WithLevel(level).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("client_ip", c.ClientIP()).
			Int("bytes", c.Writer.Size())

		if sess, ok := ctxPkg.CurrentSession(c.Request.Context()); ok {
			event = event.Str("user_id", sess.ID)
		}

		if len(c.Errors) > 0 {
			event = event.Str("error", c.Errors.String())
		}

		event.Msg("HTTP request")
	}
}
