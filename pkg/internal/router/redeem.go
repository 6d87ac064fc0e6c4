package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/codevault/pkg/internal/handle"
	"github.com/yeisme/codevault/pkg/middleware"
)

// RegisterRedeemRoutes 注册匿名兑换路由. 兑换接口按 IP 限制每分钟次数.
func RegisterRedeemRoutes(g *gin.RouterGroup, redeemPerMinute int) {
	g.POST("/redeem", middleware.RedeemRateLimit(redeemPerMinute), handle.Redeem)
	g.GET("/codes/generate", handle.GenerateCodes)
}
