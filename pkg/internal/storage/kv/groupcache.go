package kv

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/golang/groupcache"

	"github.com/yeisme/codevault/pkg/configs"
)

// GroupcacheKV 基于 Groupcache 的 KV 实现.
//
// 本地 data 是权威数据；本地缺失时才经由 group 向对等节点读取.
// groupcache 不支持失效，因此对等节点读到的值可能滞后于所有者节点的最新写入.
type GroupcacheKV struct {
	cache  *groupcache.Group    // Groupcache 缓存组
	peers  *groupcache.HTTPPool // 对等节点池
	getter groupcache.Getter    // 获取器
	data   map[string][]byte    // 本地存储数据（可能带 TTL 包装）
	mu     sync.RWMutex         // 保护 data 的读写锁
}

// groupcacheGetter 实现 groupcache.Getter 接口.
type groupcacheGetter struct {
	kv *GroupcacheKV
}

func (g *groupcacheGetter) Get(_ context.Context, key string, dest groupcache.Sink) error {
	value, ok := g.kv.local(key)
	if !ok {
		return notFound(key)
	}

	if err := dest.SetBytes(value); err != nil {
		return fmt.Errorf("failed to set bytes to sink: %w", err)
	}

	return nil
}

var (
	groupsMu sync.Mutex
	groups   = map[string]*groupcache.Group{}
)

// NewGroupcacheKV 创建 Groupcache KV 实例.
func NewGroupcacheKV(_ context.Context, config any) (KVStore, error) {
	gcConfig, ok := config.(*configs.GroupcacheKVConfig)
	if !ok {
		return nil, fmt.Errorf("invalid Groupcache config")
	}

	kv := &GroupcacheKV{
		data: make(map[string][]byte),
	}
	kv.getter = &groupcacheGetter{kv: kv}

	// groupcache 的组名在进程内全局唯一，重复创建会 panic
	groupsMu.Lock()
	if _, dup := groups[gcConfig.Name]; dup {
		groupsMu.Unlock()
		return nil, fmt.Errorf("groupcache group %q already exists", gcConfig.Name)
	}

	kv.cache = groupcache.NewGroup(gcConfig.Name, gcConfig.CacheBytes, kv.getter)
	groups[gcConfig.Name] = kv.cache
	groupsMu.Unlock()

	if len(gcConfig.Peers) > 0 {
		kv.peers = groupcache.NewHTTPPoolOpts(gcConfig.Self, &groupcache.HTTPPoolOptions{})
		kv.peers.Set(gcConfig.Peers...)
	}

	return kv, nil
}

// local 读取本地数据并处理 TTL.
func (g *GroupcacheKV) local(key string) ([]byte, bool) {
	g.mu.RLock()
	raw, exists := g.data[key]
	g.mu.RUnlock()

	if !exists {
		return nil, false
	}

	val, expired, _, err := decodeWithTTL(raw, time.Now())
	if err != nil || expired {
		return nil, false
	}

	return val, true
}

// Get 获取键的值.
func (g *GroupcacheKV) Get(ctx context.Context, key string) ([]byte, error) {
	if val, ok := g.local(key); ok {
		result := make([]byte, len(val))
		copy(result, val)

		return result, nil
	}

	if g.peers == nil {
		return nil, notFound(key)
	}

	var data []byte

	if err := g.cache.Get(ctx, key, groupcache.AllocatingByteSliceSink(&data)); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrKeyNotFound, key, err)
	}

	return data, nil
}

// Set 设置键的值.
func (g *GroupcacheKV) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	encoded, _, err := encodeWithTTL(value, ttl)
	if err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.data[key] = append([]byte(nil), encoded...)

	return nil
}

// Delete 删除键.
func (g *GroupcacheKV) Delete(_ context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.data, key)

	return nil
}

// Exists 检查键是否存在.
func (g *GroupcacheKV) Exists(_ context.Context, key string) (bool, error) {
	_, ok := g.local(key)
	return ok, nil
}

// Keys 获取本地匹配模式的键.
func (g *GroupcacheKV) Keys(_ context.Context, pattern string) ([]string, error) {
	g.mu.RLock()

	candidates := make([]string, 0, len(g.data))
	for key := range g.data {
		if MatchKey(pattern, key) {
			candidates = append(candidates, key)
		}
	}
	g.mu.RUnlock()

	keys := candidates[:0]
	for _, key := range candidates {
		if _, ok := g.local(key); ok {
			keys = append(keys, key)
		}
	}

	sort.Strings(keys)

	return keys, nil
}

// Close 关闭缓存.
func (g *GroupcacheKV) Close() error {
	return nil
}

func init() {
	RegisterKVFactory(KVTypeGroupcache, NewGroupcacheKV)
}
