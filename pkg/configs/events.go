package configs

import "github.com/spf13/viper"

// EventsConfig 控制事件发布的开关（全局与分主题）.
type EventsConfig struct {
	Enabled bool              `mapstructure:"enabled"` // 总开关
	Consume bool              `mapstructure:"consume"` // 是否在本进程内订阅并审计事件
	Share   ShareEventsConfig `mapstructure:"share"`
}

// ShareEventsConfig 分享领域的事件开关.
type ShareEventsConfig struct {
	FileUploaded   bool `mapstructure:"file_uploaded"`
	FileDeleted    bool `mapstructure:"file_deleted"`
	CodeRedeemed   bool `mapstructure:"code_redeemed"`
	UserRegistered bool `mapstructure:"user_registered"`
}

func (c *EventsConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("events.enabled", true)
	v.SetDefault("events.consume", true)

	v.SetDefault("events.share.file_uploaded", true)
	v.SetDefault("events.share.file_deleted", true)
	v.SetDefault("events.share.code_redeemed", true)
	v.SetDefault("events.share.user_registered", true)
}
