// Package kv 提供用于键值存储的接口和实现.
package kv

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"sync"
	"time"

	"github.com/yeisme/codevault/pkg/configs"
)

// ErrKeyNotFound 键不存在或已过期，各实现统一返回该错误（可用 errors.Is 判断）.
var ErrKeyNotFound = errors.New("key not found")

// Client KV 客户端.
type Client struct {
	KVStore

	kind KVType
}

// KVStore 定义键值存储接口.
type KVStore interface {
	// Get 获取键的值.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set 设置键的值，可选过期时间.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete 删除键.
	Delete(ctx context.Context, key string) error
	// Exists 检查键是否存在.
	Exists(ctx context.Context, key string) (bool, error)
	// Keys 返回匹配 glob 模式的键（空模式表示全部），结果按字典序排序.
	Keys(ctx context.Context, pattern string) ([]string, error)
	// Close 关闭存储连接.
	Close() error
}

// KVType 键值存储类型.
type KVType string

const (
	KVTypeMemory     KVType = "memory"
	KVTypeRedis      KVType = "redis"
	KVTypeNATS       KVType = "nats"
	KVTypeGroupcache KVType = "groupcache"
)

// KVFactory 定义创建 KVStore 的工厂函数类型.
type KVFactory func(ctx context.Context, config any) (KVStore, error)

var (
	// kvFactories 存储 KV 类型到工厂的映射.
	kvFactories = make(map[KVType]KVFactory)
	factoriesMu sync.RWMutex
)

// RegisterKVFactory 注册 KV 工厂函数.
func RegisterKVFactory(kvType KVType, factory KVFactory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()

	kvFactories[kvType] = factory
}

// GetRegisteredKVTypes 返回已注册的 KV 类型列表（有序）.
func GetRegisteredKVTypes() []KVType {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()

	types := make([]KVType, 0, len(kvFactories))
	for kvType := range kvFactories {
		types = append(types, kvType)
	}

	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	return types
}

// NewKVStore 根据类型创建 KVStore 实例.
func NewKVStore(ctx context.Context, kvType KVType, config any) (KVStore, error) {
	factoriesMu.RLock()
	factory, exists := kvFactories[kvType]
	factoriesMu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("unsupported KV type: %s", kvType)
	}

	return factory(ctx, config)
}

// NewKVClient 按配置创建 KV 客户端，各实现只接收自己的子配置.
func NewKVClient(ctx context.Context, cfg *configs.KVConfig) (*Client, error) {
	kvType := KVType(cfg.Type)
	if kvType == "" {
		kvType = KVTypeMemory
	}

	var sub any

	switch kvType {
	case KVTypeRedis:
		sub = &cfg.Redis
	case KVTypeNATS:
		sub = &cfg.NATS
	case KVTypeGroupcache:
		sub = &cfg.Groupcache
	case KVTypeMemory:
	}

	store, err := NewKVStore(ctx, kvType, sub)
	if err != nil {
		return nil, err
	}

	return &Client{KVStore: store, kind: kvType}, nil
}

// NewClient 包装已有的 KVStore，常用于测试.
func NewClient(store KVStore, kind KVType) *Client {
	return &Client{KVStore: store, kind: kind}
}

// Type 返回后端类型.
func (c *Client) Type() KVType {
	return c.kind
}

// Ping 通过一次读请求检测可用性.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.Exists(ctx, "codevault.ping"); err != nil {
		return fmt.Errorf("kv ping: %w", err)
	}

	return nil
}

// MatchKey 判断 key 是否匹配 glob 模式（path.Match 语法，空模式匹配全部）.
func MatchKey(pattern, key string) bool {
	if pattern == "" || pattern == "*" {
		return true
	}

	ok, err := path.Match(pattern, key)

	return err == nil && ok
}

func notFound(key string) error {
	return fmt.Errorf("%w: %s", ErrKeyNotFound, key)
}
