package types

import "github.com/yeisme/codevault/pkg/internal/model"

// RedeemRequest 兑换访问码. Email 为领取人，仅用于记录；空值由服务层按无效输入拒绝.
type RedeemRequest struct {
	Code  string `json:"code"  form:"code"  rule:"omitempty,max=64,accesscode"`
	Email string `json:"email" form:"email" rule:"max=320"`
}

// RedeemResponse 兑换成功返回的文件记录，其中对应访问码已标记为已使用.
type RedeemResponse struct {
	File *model.File `json:"file"`
	// DownloadURL 内容存放在对象存储时的预签名下载地址
	DownloadURL string `json:"download_url,omitempty"`
}
