// Package handle 提供 HTTP 请求处理器. 处理器只做参数解析与错误到状态码的映射，业务规则在 service 包.
package handle

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	ctxPkg "github.com/yeisme/codevault/pkg/context"
	"github.com/yeisme/codevault/pkg/internal/model"
	"github.com/yeisme/codevault/pkg/internal/service"
	"github.com/yeisme/codevault/pkg/log"
	"github.com/yeisme/codevault/pkg/rule"
)

// statusOf 业务错误对应的 HTTP 状态码.
func statusOf(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidCode), errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, service.ErrQuotaExceeded), errors.Is(err, service.ErrEmailExists):
		return http.StatusConflict
	case errors.Is(err, service.ErrInvalidAccessCodes), errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// respondError 写出错误响应. 存储故障只返回概要信息，原因写入日志.
func respondError(c *gin.Context, err error) {
	status := statusOf(err)
	msg := err.Error()

	switch {
	case status >= http.StatusInternalServerError:
		log.FromContext(c.Request.Context()).Error().Err(err).Str("path", c.FullPath()).Msg("request failed")

		if errors.Is(err, service.ErrStoreUnavailable) {
			msg = service.ErrStoreUnavailable.Error()
		} else {
			msg = "internal error"
		}
	case errors.Is(err, service.ErrUnauthorized):
		if _, ok := ctxPkg.CurrentSession(c.Request.Context()); !ok {
			status = http.StatusUnauthorized
		}
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

// bindJSON 解析并校验请求体，失败时直接写出 400.
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		resp := gin.H{"error": "invalid request body"}
		if fields := rule.Errors(err); fields != nil {
			resp["fields"] = fields
		}

		c.AbortWithStatusJSON(http.StatusBadRequest, resp)

		return false
	}

	return true
}

// session 当前请求的登录会话. 路由组已挂载 RequireSession，这里只做兜底.
func session(c *gin.Context) (model.Session, bool) {
	sess, ok := ctxPkg.CurrentSession(c.Request.Context())
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "sign in required"})
	}

	return sess, ok
}
