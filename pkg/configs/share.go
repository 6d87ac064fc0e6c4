package configs

import (
	"time"

	"github.com/spf13/viper"
)

// ContentBackend 上传内容的保存位置.
type ContentBackend string

const (
	ContentBackendInline ContentBackend = "inline" // data URL 内嵌在记录中
	ContentBackendS3     ContentBackend = "s3"     // 对象存储，记录仅保存 storageKey

	DefaultMaxFilesPerOwner = 15
	DefaultMaxCodesPerFile  = 3
	DefaultCodeLength       = 8
	DefaultMaxUploadMB      = 25
	DefaultPresignTTL       = 15 * time.Minute
	DefaultRedeemPerMinute  = 10
)

// ShareConfig 分享与访问码规则.
type ShareConfig struct {
	MaxFilesPerOwner int            `mapstructure:"max_files_per_owner" rule:"min=1"`
	MaxCodesPerFile  int            `mapstructure:"max_codes_per_file"  rule:"min=1"`
	CodeLength       int            `mapstructure:"code_length"         rule:"min=4,max=64"`
	MaxUploadMB      int            `mapstructure:"max_upload_mb"       rule:"min=1"`
	ContentBackend   ContentBackend `mapstructure:"content_backend"     rule:"oneof=inline s3"`
	PresignTTL       time.Duration  `mapstructure:"presign_ttl"`
	RedeemPerMinute  int            `mapstructure:"redeem_per_minute"   rule:"min=0"` // 单 IP 每分钟兑换次数，0 表示不限制
}

// WithDefaults 返回零值字段填充默认值后的副本.
func (c ShareConfig) WithDefaults() ShareConfig {
	if c.MaxFilesPerOwner <= 0 {
		c.MaxFilesPerOwner = DefaultMaxFilesPerOwner
	}

	if c.MaxCodesPerFile <= 0 {
		c.MaxCodesPerFile = DefaultMaxCodesPerFile
	}

	if c.CodeLength <= 0 {
		c.CodeLength = DefaultCodeLength
	}

	if c.MaxUploadMB <= 0 {
		c.MaxUploadMB = DefaultMaxUploadMB
	}

	if c.ContentBackend == "" {
		c.ContentBackend = ContentBackendInline
	}

	if c.PresignTTL <= 0 {
		c.PresignTTL = DefaultPresignTTL
	}

	return c
}

// MaxUploadBytes 返回单个上传的字节上限.
func (c ShareConfig) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

func (c *ShareConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("share.max_files_per_owner", DefaultMaxFilesPerOwner)
	v.SetDefault("share.max_codes_per_file", DefaultMaxCodesPerFile)
	v.SetDefault("share.code_length", DefaultCodeLength)
	v.SetDefault("share.max_upload_mb", DefaultMaxUploadMB)
	v.SetDefault("share.content_backend", ContentBackendInline)
	v.SetDefault("share.presign_ttl", DefaultPresignTTL)
	v.SetDefault("share.redeem_per_minute", DefaultRedeemPerMinute)
}
