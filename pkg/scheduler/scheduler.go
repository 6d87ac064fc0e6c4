// Package scheduler 提供定时任务调度功能，使用 gocron/v2 库.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/yeisme/codevault/pkg/log"
)

// JobStatus 表示任务的状态类型.
type JobStatus string

const (
	StatusScheduled JobStatus = "scheduled" // 任务已调度
	StatusRunning   JobStatus = "running"   // 任务正在运行
	StatusError     JobStatus = "error"     // 最近一次执行出错
)

// JobFunc 任务函数，返回的错误记录到任务状态中.
type JobFunc func(ctx context.Context) error

// JobInfo 表示定时任务的信息，用于可视化和监控.
type JobInfo struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	CronExpr    string    `json:"cron_expr"`
	NextRun     time.Time `json:"next_run"`
	LastRun     time.Time `json:"last_run"`
	LastSuccess time.Time `json:"last_success,omitempty"`
	Runs        int64     `json:"runs"`
	Status      JobStatus `json:"status"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Scheduler 包装 gocron 调度器并维护任务状态.
type Scheduler struct {
	scheduler gocron.Scheduler
	jobs      map[string]gocron.Job
	jobInfos  map[string]*JobInfo
	jobIDs    map[uuid.UUID]string
	mu        sync.RWMutex
	logger    *zerolog.Logger
}

// NewScheduler 创建一个新的 Scheduler 实例.
func NewScheduler() (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	return &Scheduler{
		scheduler: s,
		jobs:      make(map[string]gocron.Job),
		jobInfos:  make(map[string]*JobInfo),
		jobIDs:    make(map[uuid.UUID]string),
		logger:    log.Logger(),
	}, nil
}

// AddCron 添加一个基于 cron 表达式的定时任务，同名任务不可重复添加.
func (s *Scheduler) AddCron(ctx context.Context, name, cronExpr string, job JobFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job with name %s already exists", name)
	}

	j, err := s.scheduler.NewJob(
		gocron.CronJob(cronExpr, false),
		gocron.NewTask(s.wrap(name, job), ctx),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("add job %s: %w", name, err)
	}

	now := time.Now()
	nextRun, _ := j.NextRun()

	s.jobs[name] = j
	s.jobIDs[j.ID()] = name
	s.jobInfos[name] = &JobInfo{
		ID:        j.ID().String(),
		Name:      name,
		CronExpr:  cronExpr,
		NextRun:   nextRun,
		Status:    StatusScheduled,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.logger.Info().Str("job", name).Str("cron", cronExpr).Msg("Added cron job")

	return nil
}

// wrap 记录执行状态，并把 panic 转为错误状态.
func (s *Scheduler) wrap(name string, job JobFunc) func(ctx context.Context) {
	return func(ctx context.Context) {
		s.markRunning(name)

		var err error

		func() {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("panic in job: %v", r)
				}
			}()

			err = job(ctx)
		}()

		if err != nil {
			s.logger.Error().Err(err).Str("job", name).Msg("Job failed")
		}

		s.markFinished(name, err)
	}
}

func (s *Scheduler) markRunning(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if info, ok := s.jobInfos[name]; ok {
		info.Status = StatusRunning
		info.UpdatedAt = time.Now()
	}
}

func (s *Scheduler) markFinished(name string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, ok := s.jobInfos[name]
	if !ok {
		return
	}

	now := time.Now()
	info.LastRun = now
	info.UpdatedAt = now
	info.Runs++

	if err != nil {
		info.Status = StatusError
		info.Error = err.Error()
	} else {
		info.Status = StatusScheduled
		info.Error = ""
		info.LastSuccess = now
	}

	if j, ok := s.jobs[name]; ok {
		if next, e := j.NextRun(); e == nil {
			info.NextRun = next
		}
	}
}

// RunNow 立即触发一次指定任务，不影响原有调度.
func (s *Scheduler) RunNow(name string) error {
	s.mu.RLock()
	j, ok := s.jobs[name]
	s.mu.RUnlock()

	if !ok {
		return fmt.Errorf("job with name %s does not exist", name)
	}

	return j.RunNow()
}

// RemoveJobByName 通过名称移除任务.
func (s *Scheduler) RemoveJobByName(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, exists := s.jobs[name]
	if !exists {
		return fmt.Errorf("job with name %s does not exist", name)
	}

	if err := s.scheduler.RemoveJob(job.ID()); err != nil {
		return err
	}

	delete(s.jobs, name)
	delete(s.jobInfos, name)
	delete(s.jobIDs, job.ID())

	s.logger.Info().Str("job", name).Msg("Removed job")

	return nil
}

// GetJobInfoByName 通过名称获取任务信息副本.
func (s *Scheduler) GetJobInfoByName(name string) (JobInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info, exists := s.jobInfos[name]
	if !exists {
		return JobInfo{}, fmt.Errorf("job with name %s does not exist", name)
	}

	return *info, nil
}

// GetJobInfos 返回所有定时任务的信息，按名称排序.
func (s *Scheduler) GetJobInfos() []JobInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]JobInfo, 0, len(s.jobInfos))
	for _, info := range s.jobInfos {
		jobs = append(jobs, *info)
	}

	sort.Slice(jobs, func(i, j int) bool { return jobs[i].Name < jobs[j].Name })

	return jobs
}

// Start 启动调度器.
func (s *Scheduler) Start() {
	s.logger.Info().Msg("Starting scheduler")
	s.scheduler.Start()
}

// Stop 停止调度器并等待正在执行的任务结束.
func (s *Scheduler) Stop() error {
	s.logger.Info().Msg("Stopping scheduler")

	return s.scheduler.Shutdown()
}
