package configs

import (
	"time"

	"github.com/spf13/viper"
)

// StoreBackend 文件与用户记录的存储后端.
type StoreBackend string

const (
	StoreBackendMemory StoreBackend = "memory" // 进程内存储，重启即丢失
	StoreBackendDB     StoreBackend = "db"     // gorm 关系型数据库
	StoreBackendKV     StoreBackend = "kv"     // 任意已注册的 KV 后端

	DefaultStoreBackend  = StoreBackendMemory
	DefaultStoreTimeout  = 5 // 单次存储调用超时（秒）
	DefaultStoreCacheTTL = 0 // GetFile 读缓存 TTL（秒），0 表示关闭
)

// StoreConfig 存储后端配置.
type StoreConfig struct {
	Backend     StoreBackend `mapstructure:"backend"      rule:"oneof=memory db kv"`
	Timeout     int          `mapstructure:"timeout"      rule:"min=1,max=300"`
	CacheTTL    int          `mapstructure:"cache_ttl"    rule:"min=0"`
	AutoMigrate bool         `mapstructure:"auto_migrate"` // db 后端启动时自动建表
}

// WithDefaults 返回零值字段填充默认值后的副本.
func (c StoreConfig) WithDefaults() StoreConfig {
	if c.Backend == "" {
		c.Backend = DefaultStoreBackend
	}

	if c.Timeout <= 0 {
		c.Timeout = DefaultStoreTimeout
	}

	return c
}

// GetTimeoutDuration 返回存储调用超时.
func (c StoreConfig) GetTimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// GetCacheTTL 返回读缓存 TTL.
func (c StoreConfig) GetCacheTTL() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

func (c *StoreConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("store.backend", DefaultStoreBackend)
	v.SetDefault("store.timeout", DefaultStoreTimeout)
	v.SetDefault("store.cache_ttl", DefaultStoreCacheTTL)
	v.SetDefault("store.auto_migrate", true)
}
