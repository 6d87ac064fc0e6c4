package kv

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryKV 基于 sync.Map 的内存 KV 实现，TTL 在读取时惰性判断.
type MemoryKV struct {
	data sync.Map // key -> *memEntry
}

// memEntry 以指针存入 sync.Map，CompareAndDelete 按指针比较，避免误删并发写入的新值.
type memEntry struct {
	raw []byte
}

// NewMemoryKV 创建内存 KV 实例.
func NewMemoryKV(_ context.Context, _ any) (KVStore, error) {
	return &MemoryKV{}, nil
}

// load 读取并解码，过期时顺带删除.
func (m *MemoryKV) load(key string) ([]byte, bool, error) {
	value, exists := m.data.Load(key)
	if !exists {
		return nil, false, nil
	}

	entry, ok := value.(*memEntry)
	if !ok {
		return nil, false, fmt.Errorf("invalid value type for key: %s", key)
	}

	val, expired, _, err := decodeWithTTL(entry.raw, time.Now())
	if err != nil {
		return nil, false, err
	}

	if expired {
		m.data.CompareAndDelete(key, entry)
		return nil, false, nil
	}

	return val, true, nil
}

// Get 获取键的值.
func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, error) {
	val, ok, err := m.load(key)
	if err != nil {
		return nil, err
	}

	if !ok {
		return nil, notFound(key)
	}

	result := make([]byte, len(val))
	copy(result, val)

	return result, nil
}

// Set 设置键的值.
func (m *MemoryKV) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	encoded, _, err := encodeWithTTL(value, ttl)
	if err != nil {
		return err
	}

	data := make([]byte, len(encoded))
	copy(data, encoded)

	m.data.Store(key, &memEntry{raw: data})

	return nil
}

// Delete 删除键.
func (m *MemoryKV) Delete(_ context.Context, key string) error {
	m.data.Delete(key)
	return nil
}

// Exists 检查键是否存在.
func (m *MemoryKV) Exists(_ context.Context, key string) (bool, error) {
	_, ok, err := m.load(key)
	return ok, err
}

// Keys 获取匹配模式的键.
func (m *MemoryKV) Keys(_ context.Context, pattern string) ([]string, error) {
	keys := make([]string, 0)

	m.data.Range(func(key, _ any) bool {
		k, ok := key.(string)
		if !ok || !MatchKey(pattern, k) {
			return true
		}

		if _, live, _ := m.load(k); live {
			keys = append(keys, k)
		}

		return true
	})

	sort.Strings(keys)

	return keys, nil
}

// Close 关闭存储（内存实现无需操作）.
func (m *MemoryKV) Close() error {
	return nil
}

func init() {
	RegisterKVFactory(KVTypeMemory, NewMemoryKV)
}
