// Package storage 聚合服务所需的全部存储资源：数据库、KV、对象存储、消息队列以及
// 构建在其上的分享记录 Store.
//
// Example:
//
//	mgr, err := storage.New(ctx, configs.GetConfig())
//	if err != nil {
//		// 处理错误
//	}
//	defer mgr.Close()
//
//	files, _ := mgr.Store.ListFiles(ctx, store.FileFilter{})
package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"gorm.io/gorm"

	"github.com/yeisme/codevault/pkg/configs"
	dbc "github.com/yeisme/codevault/pkg/internal/storage/db"
	kvc "github.com/yeisme/codevault/pkg/internal/storage/kv"
	mqc "github.com/yeisme/codevault/pkg/internal/storage/mq"
	s3c "github.com/yeisme/codevault/pkg/internal/storage/s3"
	"github.com/yeisme/codevault/pkg/internal/store"
	nlog "github.com/yeisme/codevault/pkg/log"
)

// Manager 聚合所有存储资源，未启用的组件为 nil.
type Manager struct {
	DB    *dbc.Client
	KV    *kvc.Client
	S3    *s3c.Client
	MQ    *mqc.Client
	Store store.Store
}

var (
	mgr     *Manager
	mgrErr  error
	mgrOnce sync.Once
)

// Init 使用全局配置初始化默认 Manager，重复调用只返回已初始化实例.
func Init(ctx context.Context) (*Manager, error) {
	mgrOnce.Do(func() {
		mgr, mgrErr = New(ctx, configs.GetConfig())
	})

	return mgr, mgrErr
}

// needsDB 判断是否需要连接数据库.
func needsDB(cfg *configs.AppConfig) bool {
	return cfg.Store.WithDefaults().Backend == configs.StoreBackendDB
}

// needsKV 判断是否需要 KV：kv 后端或开启读缓存.
func needsKV(cfg *configs.AppConfig) bool {
	sc := cfg.Store.WithDefaults()

	return sc.Backend == configs.StoreBackendKV || sc.CacheTTL > 0
}

// New 按配置构建 Manager，任一组件失败时关闭已创建的组件.
func New(ctx context.Context, cfg *configs.AppConfig) (m *Manager, err error) {
	m = &Manager{}

	defer func() {
		if err != nil {
			_ = m.Close()
			m = nil
		}
	}()

	if needsDB(cfg) {
		if m.DB, err = dbc.New(ctx, &cfg.DB); err != nil {
			return nil, fmt.Errorf("init db: %w", err)
		}
	}

	if needsKV(cfg) {
		if m.KV, err = kvc.NewKVClient(ctx, &cfg.KV); err != nil {
			return nil, fmt.Errorf("init kv: %w", err)
		}
	}

	if cfg.S3.Enabled || cfg.Share.WithDefaults().ContentBackend == configs.ContentBackendS3 {
		if m.S3, err = s3c.New(ctx, &cfg.S3); err != nil {
			return nil, fmt.Errorf("init s3: %w", err)
		}
	}

	if cfg.Events.Enabled {
		if m.MQ, err = mqc.New(ctx, &cfg.MQ); err != nil {
			return nil, fmt.Errorf("init mq: %w", err)
		}
	}

	deps := store.Deps{}
	if m.DB != nil {
		deps.DB = m.DB.GetDB()
	}

	if m.KV != nil {
		deps.KV = m.KV
	}

	if m.Store, err = store.Open(ctx, cfg.Store, deps); err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	nlog.Logger().Info().
		Bool("db", m.DB != nil).
		Bool("kv", m.KV != nil).
		Bool("s3", m.S3 != nil).
		Bool("mq", m.MQ != nil).
		Msg("storage manager initialized")

	return m, nil
}

// NewWithStore 以现成的 Store 构造 Manager，常用于测试.
func NewWithStore(s store.Store) *Manager {
	return &Manager{Store: s}
}

// GetGormDB 返回底层 *gorm.DB，未启用数据库时为 nil.
func (m *Manager) GetGormDB() *gorm.DB {
	if m == nil || m.DB == nil {
		return nil
	}

	return m.DB.GetDB()
}

// Close 按依赖倒序关闭全部组件.
func (m *Manager) Close() error {
	if m == nil {
		return nil
	}

	var errs []error

	if m.Store != nil {
		errs = append(errs, m.Store.Close())
	}

	if m.MQ != nil {
		errs = append(errs, m.MQ.Close())
	}

	if m.S3 != nil {
		errs = append(errs, m.S3.Close())
	}

	if m.KV != nil {
		errs = append(errs, m.KV.Close())
	}

	if m.DB != nil {
		errs = append(errs, m.DB.Close())
	}

	return errors.Join(errs...)
}
