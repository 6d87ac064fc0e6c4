package configs

import "github.com/spf13/viper"

// DefaultStatsCron 默认每 5 分钟统计一次.
const DefaultStatsCron = "*/5 * * * *"

// JobsConfig 定时任务配置.
type JobsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	StatsCron string `mapstructure:"stats_cron"` // 存储统计任务的 cron 表达式
}

func (c *JobsConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("jobs.enabled", true)
	v.SetDefault("jobs.stats_cron", DefaultStatsCron)
}
