// Package jobs 注册业务定时任务（基于 scheduler）.
package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/yeisme/codevault/pkg/configs"
	"github.com/yeisme/codevault/pkg/internal/store"
	"github.com/yeisme/codevault/pkg/log"
	"github.com/yeisme/codevault/pkg/metrics"
	"github.com/yeisme/codevault/pkg/scheduler"
)

// statsTimeout 单次统计的上限，全表扫描不应拖到下一个周期.
const statsTimeout = time.Minute

// RegisterCronJobs 按配置注册定时任务：
//   - store.stats：统计文件、拥有者、用户与访问码数量，刷新存储指标
func RegisterCronJobs(ctx context.Context, sched *scheduler.Scheduler, s store.Store, cfg configs.JobsConfig) error {
	if sched == nil {
		return errors.New("scheduler is nil")
	}

	if s == nil {
		return errors.New("store is nil")
	}

	if !cfg.Enabled {
		return nil
	}

	expr := cfg.StatsCron
	if expr == "" {
		expr = configs.DefaultStatsCron
	}

	return sched.AddCron(ctx, JobStoreStats, expr, StoreStats(s))
}

// StoreStats 返回统计任务. 存储不可用时返回错误，由调度器记录为失败.
func StoreStats(s store.Store) scheduler.JobFunc {
	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, statsTimeout)
		defer cancel()

		st, err := store.Collect(ctx, s)
		if err != nil {
			return err
		}

		metrics.StoreFiles.Set(float64(st.Files))
		metrics.StoreOwners.Set(float64(st.Owners))
		metrics.StoreUsers.Set(float64(st.Users))
		metrics.StoreCodes.WithLabelValues("unused").Set(float64(st.UnusedCodes))
		metrics.StoreCodes.WithLabelValues("used").Set(float64(st.UsedCodes))

		log.Logger().Info().
			Str("job", JobStoreStats).
			Int("files", st.Files).
			Int("owners", st.Owners).
			Int("users", st.Users).
			Int("unused_codes", st.UnusedCodes).
			Int("used_codes", st.UsedCodes).
			Msg("store stats collected")

		return nil
	}
}
