// Package cache 提供基于键值存储的泛型缓存实现.
//
// 值以 sonic 序列化为 JSON 写入 KV，支持 TTL 与命名空间前缀；并发未命中时
// GetOrSet 通过 singleflight 合并回源请求.
//
// Delete 与 Clear 会推进键所在分片的代数. GetOrSet 回源前记下代数，写回时代数已变化则放弃写回，
// 因此与失效并发的回源不会把旧值写回缓存.
//
// 基本用法:
//
//	c := cache.NewCache(kvStore, cache.WithPrefix("cv.cache.file."))
//
//	err := cache.Set(ctx, c, id, file, time.Minute)
//	f, err := cache.Get[model.File](ctx, c, id)
//
//	f, err := cache.GetOrSet(ctx, c, id, func() (model.File, error) {
//	    return loadFile(ctx, id)
//	}, time.Minute)
//
// 缓存未命中与 KV 错误一样通过 error 返回，可用 errors.Is(err, kv.ErrKeyNotFound) 区分.
package cache

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/singleflight"

	"github.com/yeisme/codevault/pkg/internal/storage/kv"
)

const genStripes = 64

// genStripe 一组键共享的失效代数；写回与删除在同一把锁内完成.
type genStripe struct {
	mu  sync.Mutex
	gen uint64
}

// Cache 基于KV存储的缓存实现.
type Cache struct {
	kvStore kv.KVStore
	prefix  string
	group   singleflight.Group
	stripes [genStripes]genStripe
}

// Option 缓存选项.
type Option func(*Cache)

// WithPrefix 为所有键添加命名空间前缀，Clear 只清理该前缀下的键.
func WithPrefix(prefix string) Option {
	return func(c *Cache) {
		c.prefix = prefix
	}
}

// NewCache 创建一个新的缓存实例.
func NewCache(kvStore kv.KVStore, opts ...Option) *Cache {
	c := &Cache{kvStore: kvStore}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Cache) key(k string) string {
	return c.prefix + k
}

func (c *Cache) stripe(k string) *genStripe {
	return &c.stripes[xxhash.Sum64String(c.key(k))%genStripes]
}

func (s *genStripe) current() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.gen
}

// Get 泛型获取缓存值.
func Get[T any](ctx context.Context, c *Cache, key string) (T, error) {
	var zero T

	data, err := c.kvStore.Get(ctx, c.key(key))
	if err != nil {
		return zero, err
	}

	var value T
	if err := sonic.Unmarshal(data, &value); err != nil {
		return zero, fmt.Errorf("failed to unmarshal cache value: %w", err)
	}

	return value, nil
}

// Set 泛型设置缓存值.
func Set[T any](ctx context.Context, c *Cache, key string, value T, ttl time.Duration) error {
	data, err := sonic.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	return c.kvStore.Set(ctx, c.key(key), data, ttl)
}

// Delete 删除缓存键并使进行中的回源放弃写回.
func (c *Cache) Delete(ctx context.Context, key string) error {
	s := c.stripe(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.gen++

	return c.kvStore.Delete(ctx, c.key(key))
}

// Exists 检查缓存键是否存在.
func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	return c.kvStore.Exists(ctx, c.key(key))
}

// GetOrSet 获取缓存值，未命中时调用 getter 并写回；同一键的并发未命中只回源一次.
// 回源期间键被 Delete 或 Clear 时结果照常返回但不写回. 写回失败不影响返回值.
func GetOrSet[T any](ctx context.Context, c *Cache, key string, getter func() (T, error), ttl time.Duration) (T, error) {
	if value, err := Get[T](ctx, c, key); err == nil {
		return value, nil
	}

	s := c.stripe(key)
	gen := s.current()

	// 代数不同的回源不合并，失效之后到达的调用方不会拿到失效之前读出的值
	v, err, _ := c.group.Do(c.key(key)+"#"+strconv.FormatUint(gen, 10), func() (any, error) {
		value, err := getter()
		if err != nil {
			return value, err
		}

		s.mu.Lock()
		if s.gen == gen {
			_ = Set(ctx, c, key, value, ttl)
		}
		s.mu.Unlock()

		return value, nil
	})

	value, _ := v.(T)

	return value, err
}

// Clear 清空缓存，设置了前缀时只删除前缀下的键.
func (c *Cache) Clear(ctx context.Context) error {
	for i := range c.stripes {
		c.stripes[i].mu.Lock()
		c.stripes[i].gen++
		c.stripes[i].mu.Unlock()
	}

	pattern := "*"
	if c.prefix != "" {
		pattern = c.prefix + "*"
	}

	keys, err := c.kvStore.Keys(ctx, pattern)
	if err != nil {
		return err
	}

	for _, key := range keys {
		if c.prefix != "" && !strings.HasPrefix(key, c.prefix) {
			continue
		}

		if delErr := c.kvStore.Delete(ctx, key); delErr != nil {
			return delErr
		}
	}

	return nil
}
