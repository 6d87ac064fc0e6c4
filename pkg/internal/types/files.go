package types

import "github.com/yeisme/codevault/pkg/internal/model"

// CreateLinkRequest 创建链接分享.
type CreateLinkRequest struct {
	Name  string   `json:"name"  rule:"required,notblank,max=512"`
	URL   string   `json:"url"   rule:"required,url"`
	Codes []string `json:"codes" rule:"required,min=1,dive,omitempty,max=64,accesscode"`
}

// FileView 文件所有者视角的记录. 对象存储中的内容以 download_url 给出.
type FileView struct {
	*model.File
	// UnusedCodes 剩余可用访问码数量
	UnusedCodes int    `json:"unusedCodes"`
	DownloadURL string `json:"download_url,omitempty"`
}

// ListFilesResponse 文件列表.
type ListFilesResponse struct {
	Files []FileView `json:"files"`
	// Quota 单个用户的文件上限
	Quota int `json:"quota"`
}

// GenerateCodesResponse 随机访问码.
type GenerateCodesResponse struct {
	Codes []string `json:"codes"`
}
