package handle

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/codevault/pkg/internal/service"
	"github.com/yeisme/codevault/pkg/internal/types"
)

// Redeem 兑换一次性访问码.
//
//	@Summary		兑换访问码
//	@Description	访问码正确且未使用时返回文件并将其标记为已使用；错误或已使用的访问码返回 404
//	@Tags			兑换
//	@Accept			json
//	@Produce		json
//	@Param			body	body		types.RedeemRequest	true	"访问码与领取人 email"
//	@Success		200		{object}	types.RedeemResponse
//	@Failure		400		{object}	map[string]string
//	@Failure		404		{object}	map[string]string
//	@Failure		429		{object}	map[string]string
//	@Failure		503		{object}	map[string]string
//	@Router			/api/v1/redeem [post]
func Redeem(c *gin.Context) {
	var req types.RedeemRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()

	f, err := service.NewRedeemService(ctx).Redeem(ctx, req.Code, req.Email)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := types.RedeemResponse{File: f}

	if f.StorageKey != "" {
		// 访问码已消耗，预签名失败时仍返回记录.
		if u, err := service.NewFileService(ctx).ResolveContent(ctx, f); err == nil {
			resp.DownloadURL = u
		} else {
			_ = c.Error(err)
		}
	}

	c.JSON(http.StatusOK, resp)
}

// GenerateCodes 生成随机访问码供上传表单使用.
//
//	@Summary	生成访问码
//	@Tags		兑换
//	@Produce	json
//	@Param		n	query		int	false	"数量，默认 1"
//	@Success	200	{object}	types.GenerateCodesResponse
//	@Failure	400	{object}	map[string]string
//	@Router		/api/v1/codes/generate [get]
func GenerateCodes(c *gin.Context) {
	n := 1

	if raw := c.Query("n"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "n must be an integer"})
			return
		}

		n = v
	}

	codes, err := service.NewFileService(c.Request.Context()).GenerateCodes(n)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, types.GenerateCodesResponse{Codes: codes})
}
