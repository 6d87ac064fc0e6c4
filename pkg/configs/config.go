// Package configs 管理应用程序配置，包括数据库、KV、对象存储、消息队列以及分享业务的配置信息.
// configs 包支持多种配置格式（YAML、JSON、TOML、dotenv）并启用热重载.
//
// Example:
//
//	err := configs.InitConfig("./")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	config := configs.GetConfig()
//	fmt.Println(config.Server.Port)
//
// Example accessing Share config:
//
//	share := configs.GetConfig().Share.WithDefaults()
//	fmt.Println("quota:", share.MaxFilesPerOwner)
//
// Example accessing Store config:
//
//	store := configs.GetConfig().Store.WithDefaults()
//	fmt.Println("backend:", store.Backend, "timeout:", store.GetTimeoutDuration())
package configs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/yeisme/codevault/pkg/rule"
)

// AppVersion 应用版本号.
const AppVersion = "0.3.0"

// AppName 应用名称，同时用作环境变量前缀和各类默认名称.
const AppName = "codevault"

type (
	// AppConfig 全局应用程序配置.
	AppConfig struct {
		Server         ServerConfig         `mapstructure:"server"`          // ServerConfig 服务器监听、超时等
		Log            LogConfig            `mapstructure:"log"`             // LogConfig 日志相关配置
		DB             DBConfig             `mapstructure:"db"`              // DBConfig 数据库配置
		KV             KVConfig             `mapstructure:"kv"`              // KVConfig 键值存储配置
		S3             S3Config             `mapstructure:"s3"`              // S3Config 对象存储配置
		MQ             MQConfig             `mapstructure:"mq"`              // MQConfig 消息队列配置
		Store          StoreConfig          `mapstructure:"store"`           // StoreConfig 文件/用户存储后端
		Share          ShareConfig          `mapstructure:"share"`           // ShareConfig 分享与访问码规则
		Auth           AuthConfig           `mapstructure:"auth"`            // AuthConfig 会话、令牌、第三方登录
		Events         EventsConfig         `mapstructure:"events"`          // EventsConfig 事件发布开关
		Metrics        MetricsConfig        `mapstructure:"metrics"`         // MetricsConfig 监控
		Tracing        TracingConfig        `mapstructure:"tracing"`         // TracingConfig 链路追踪
		RateLimit      RateLimitConfig      `mapstructure:"rate_limit"`      // RateLimitConfig 限流
		CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"` // CircuitBreakerConfig 熔断
		Jobs           JobsConfig           `mapstructure:"jobs"`            // JobsConfig 定时任务
	}
)

var (
	// globalConfig 全局配置实例.
	globalConfig AppConfig
	// appViper 全局 Viper 实例.
	appViper *viper.Viper
	mu       sync.RWMutex
)

// InitConfig 加载应用程序配置，支持多种格式(yaml、json、toml、dotenv)并启用热重载.
// path 可以是配置文件，也可以是包含 config.* 的目录；找不到配置文件时仅使用默认值与环境变量.
func InitConfig(path string) error {
	v := viper.New()
	setAllDefaults(v)

	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(path)
		v.AddConfigPath(filepath.Join(path, "configs"))

		for _, ext := range []string{"yaml", "yml", "json", "toml", "env", "dotenv"} {
			cfg := filepath.Join(path, "config."+ext)
			if _, err := os.Stat(cfg); err == nil {
				v.SetConfigFile(cfg)

				break
			}
		}
	}

	v.SetEnvPrefix(AppName)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	mu.Lock()
	globalConfig = cfg
	appViper = v
	mu.Unlock()

	reloadConfigs(v, cfg.Server.ReloadConfig)

	return nil
}

// setAllDefaults 设置所有配置的默认值.
func setAllDefaults(v *viper.Viper) {
	var c AppConfig

	c.Server.setDefaults(v)
	c.Log.setDefaults(v)
	c.DB.setDefaults(v)
	c.KV.setDefaults(v)
	c.S3.setDefaults(v)
	c.MQ.setDefaults(v)
	c.Store.setDefaults(v)
	c.Share.setDefaults(v)
	c.Auth.setDefaults(v)
	c.Events.setDefaults(v)
	c.Metrics.setDefaults(v)
	c.Tracing.setDefaults(v)
	c.RateLimit.setDefaults(v)
	c.CircuitBreaker.setDefaults(v)
	c.Jobs.setDefaults(v)
}

func reloadConfigs(v *viper.Viper, isHotReload bool) {
	if !isHotReload || v.ConfigFileUsed() == "" {
		return
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		fmt.Println("Config file changed:", e.Name)

		var cfg AppConfig
		if err := v.Unmarshal(&cfg); err != nil {
			fmt.Printf("Error reloading config: %v\n", err)
			return
		}

		mu.Lock()
		globalConfig = cfg
		mu.Unlock()
	})
	v.WatchConfig()
}

// Validate 使用 rule 标签校验当前配置.
func Validate() error {
	cfg := GetConfig()

	if err := rule.ValidateStruct(cfg.Store); err != nil {
		return fmt.Errorf("store: %w", err)
	}

	if err := rule.ValidateStruct(cfg.Share); err != nil {
		return fmt.Errorf("share: %w", err)
	}

	if err := rule.ValidateStruct(cfg.Server); err != nil {
		return fmt.Errorf("server: %w", err)
	}

	if err := rule.ValidateStruct(cfg.Auth.WithDefaults()); err != nil {
		return fmt.Errorf("auth: %w", err)
	}

	if cfg.Store.Backend == StoreBackendDB {
		if err := rule.ValidateStruct(cfg.DB); err != nil {
			return fmt.Errorf("db: %w", err)
		}
	}

	return nil
}

// GetConfig 返回全局配置实例.
func GetConfig() *AppConfig {
	mu.RLock()
	defer mu.RUnlock()

	return &globalConfig
}

// GetViper 返回全局 Viper 实例，未初始化时为 nil.
func GetViper() *viper.Viper {
	mu.RLock()
	defer mu.RUnlock()

	return appViper
}
