// Package db 处理数据库存储操作.
package db

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	gormPrometheus "gorm.io/plugin/prometheus"

	"github.com/yeisme/codevault/pkg/configs"
	nlog "github.com/yeisme/codevault/pkg/log"
)

// DialectorFactory 定义创建 dialector 的函数类型.
type DialectorFactory func(dsn string) gorm.Dialector

var (
	// dialectorFactories 存储数据库类型到 dialector 工厂的映射.
	dialectorFactories = map[configs.DBType]DialectorFactory{}
	factoriesMu        sync.RWMutex
)

// RegisterDialectorFactory 注册数据库 dialector 工厂函数.
func RegisterDialectorFactory(dbType configs.DBType, factory DialectorFactory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()

	dialectorFactories[dbType] = factory
}

// GetRegisteredDBTypes 返回已注册的数据库类型列表（有序）.
func GetRegisteredDBTypes() []configs.DBType {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()

	types := make([]configs.DBType, 0, len(dialectorFactories))
	for dbType := range dialectorFactories {
		types = append(types, dbType)
	}

	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	return types
}

// Client 包装 GORM DB 客户端.
type Client struct {
	*gorm.DB

	name string
}

// New 按配置创建数据库客户端并检测连通性.
func New(ctx context.Context, cfg *configs.DBConfig) (*Client, error) {
	dsn := cfg.GetDSN()
	if dsn == "" {
		return nil, fmt.Errorf("failed to generate DSN for database type: %s", cfg.Type)
	}

	factoriesMu.RLock()
	factory, exists := dialectorFactories[cfg.Type]
	factoriesMu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}

	client, err := Open(ctx, factory(dsn), cfg.Database)
	if err != nil {
		return nil, err
	}

	sqlDB, err := client.DB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)

	nlog.Logger().Info().
		Str("type", cfg.GetDBType()).
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("database", cfg.Database).
		Msg("数据库连接成功")

	return client, nil
}

// Open 使用给定 dialector 打开连接，测试中可直接传入内存 SQLite.
func Open(ctx context.Context, dialector gorm.Dialector, name string) (*Client, error) {
	level := logger.Warn
	if configs.GetConfig().Server.Debug {
		level = logger.Info
	}

	gormLogger := logger.New(
		nlog.Logger(),
		logger.Config{
			SlowThreshold:             0,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	client := &Client{DB: db, name: name}
	if err := client.Ping(ctx); err != nil {
		return nil, err
	}

	if configs.GetConfig().Metrics.Enabled {
		if err := client.RegisterGORMMetrics(name); err != nil {
			return nil, fmt.Errorf("failed to register GORM metrics: %w", err)
		}

		nlog.Logger().Info().Msg("GORM metrics 注册成功")
	}

	return client, nil
}

// GetDB 返回 GORM DB 实例.
func (c *Client) GetDB() *gorm.DB {
	return c.DB
}

// Name 返回数据库名.
func (c *Client) Name() string {
	return c.name
}

// Ping 检测数据库连通性.
func (c *Client) Ping(ctx context.Context) error {
	sqlDB, err := c.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

// Close 关闭底层连接池.
func (c *Client) Close() error {
	sqlDB, err := c.DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

const defaultGORMMetricsRefreshInterval = 15 // 秒

// RegisterGORMMetrics 注册GORM指标到现有注册表.
func (c *Client) RegisterGORMMetrics(dbName string) error {
	promConfig := gormPrometheus.Config{
		DBName:          dbName,
		RefreshInterval: defaultGORMMetricsRefreshInterval,
		StartServer:     false,
	}

	if err := c.Use(gormPrometheus.New(promConfig)); err != nil {
		return fmt.Errorf("failed to register GORM prometheus plugin: %w", err)
	}

	return nil
}
