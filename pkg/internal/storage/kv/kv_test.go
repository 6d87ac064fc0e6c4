package kv_test

import (
	"context"
	crand "crypto/rand"
	"errors"
	"fmt"
	mrand "math/rand"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yeisme/codevault/pkg/configs"
	"github.com/yeisme/codevault/pkg/internal/storage/kv"
)

func TestMemoryKVBasic(t *testing.T) {
	ctx := context.Background()

	store, err := kv.NewKVStore(ctx, kv.KVTypeMemory, nil)
	if err != nil {
		t.Fatalf("create memory kv: %v", err)
	}

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, kv.ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}

	if err := store.Set(ctx, "cv.file.b", []byte("2"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}

	if err := store.Set(ctx, "cv.file.a", []byte("1"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}

	if err := store.Set(ctx, "cv.user.a", []byte("u"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}

	keys, err := store.Keys(ctx, "cv.file.*")
	if err != nil {
		t.Fatalf("keys: %v", err)
	}

	if len(keys) != 2 || keys[0] != "cv.file.a" || keys[1] != "cv.file.b" {
		t.Fatalf("unexpected keys: %v", keys)
	}

	all, _ := store.Keys(ctx, "")
	if len(all) != 3 {
		t.Fatalf("expected 3 keys, got %v", all)
	}

	if err := store.Delete(ctx, "cv.file.a"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if ok, _ := store.Exists(ctx, "cv.file.a"); ok {
		t.Fatal("expected key to be deleted")
	}
}

func TestMemoryKVTTL(t *testing.T) {
	ctx := context.Background()

	store, _ := kv.NewKVStore(ctx, kv.KVTypeMemory, nil)

	// TTL 以秒为精度编码，1s 后必然过期
	if err := store.Set(ctx, "short", []byte("v"), time.Second); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := store.Get(ctx, "short")
	if err != nil || string(got) != "v" {
		t.Fatalf("expected value before expiry, got %q, %v", got, err)
	}

	time.Sleep(1100 * time.Millisecond)

	if _, err := store.Get(ctx, "short"); !errors.Is(err, kv.ErrKeyNotFound) {
		t.Fatalf("expected expiry, got %v", err)
	}

	if keys, _ := store.Keys(ctx, ""); len(keys) != 0 {
		t.Fatalf("expired key still listed: %v", keys)
	}
}

func TestMatchKey(t *testing.T) {
	cases := []struct {
		pattern, key string
		want         bool
	}{
		{"", "anything", true},
		{"*", "cv.file.1", true},
		{"cv.file.*", "cv.file.01J", true},
		{"cv.file.*", "cv.user.01J", false},
		{"cv.?ser.*", "cv.user.x", true},
		{"exact", "exact", true},
	}

	for _, c := range cases {
		if got := kv.MatchKey(c.pattern, c.key); got != c.want {
			t.Errorf("MatchKey(%q, %q) = %v, want %v", c.pattern, c.key, got, c.want)
		}
	}
}

func TestNewKVClientDefaultsToMemory(t *testing.T) {
	client, err := kv.NewKVClient(context.Background(), &configs.KVConfig{})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	if client.Type() != kv.KVTypeMemory {
		t.Fatalf("expected memory type, got %s", client.Type())
	}

	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func BenchmarkMemoryKV(b *testing.B) {
	store, err := kv.NewKVStore(context.Background(), kv.KVTypeMemory, nil)
	if err != nil {
		b.Fatalf("create memory kv: %v", err)
	}

	benchKV(b, "memory", store)
	benchKVParallel(b, "memory", store)
	_ = store.Close()
}

func BenchmarkGroupcacheKV(b *testing.B) {
	cfg := &configs.GroupcacheKVConfig{
		Name:       "bench-groupcache",
		CacheBytes: 32 * 1024 * 1024, // 32MB
		Peers:      []string{},
		Self:       "http://127.0.0.1:0",
	}

	store, err := kv.NewKVStore(context.Background(), kv.KVTypeGroupcache, cfg)
	if err != nil {
		b.Fatalf("create groupcache kv: %v", err)
	}

	benchKV(b, "groupcache", store)
	benchKVParallel(b, "groupcache", store)
	_ = store.Close()
}

// Optional: enable with ENABLE_REDIS_BENCH=1 and REDIS_ADDR set (default 127.0.0.1:6379).
func BenchmarkRedisKV(b *testing.B) {
	if os.Getenv("ENABLE_REDIS_BENCH") == "" {
		b.Skip("set ENABLE_REDIS_BENCH=1 to enable")
	}

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "127.0.0.1:6379"
	}

	cfg := &configs.RedisKVConfig{Addr: addr, Password: "", DB: 0}

	store, err := kv.NewKVStore(context.Background(), kv.KVTypeRedis, cfg)
	if err != nil {
		b.Skipf("redis not available: %v", err)
		return
	}

	benchKV(b, "redis", store)
	benchKVParallel(b, "redis", store)
	_ = store.Close()
}

// Optional: enable with ENABLE_NATS_BENCH=1 and NATS_URL set (default nats://127.0.0.1:4222)
func BenchmarkNATSKV(b *testing.B) {
	if os.Getenv("ENABLE_NATS_BENCH") == "" {
		b.Skip("set ENABLE_NATS_BENCH=1 to enable")
	}

	url := os.Getenv("NATS_URL")
	if url == "" {
		url = "nats://127.0.0.1:4222"
	}

	bucket := os.Getenv("NATS_BUCKET")
	if bucket == "" {
		bucket = "bench-kv"
	}

	cfg := &configs.NATSKVConfig{URL: url, User: "", Password: "", Bucket: bucket}

	store, err := kv.NewKVStore(context.Background(), kv.KVTypeNATS, cfg)
	if err != nil {
		b.Skipf("nats not available: %v", err)
		return
	}

	benchKV(b, "nats", store)
	benchKVParallel(b, "nats", store)
	_ = store.Close()
}

// randBytes returns n random bytes, seeded reproducibly for bench.
func randBytes(n int) []byte {
	b := make([]byte, n)
	// Try crypto/rand; if it fails (unlikely in tests), fallback to deterministic PRNG.
	if _, err := crand.Read(b); err != nil {
		mr := mrand.New(mrand.NewSource(42))
		for i := range b {
			b[i] = byte(mr.Intn(256))
		}
	}

	return b
}

// benchKV 执行基本的 Set/Get/Delete 基准测试.
func benchKV(b *testing.B, name string, store kv.KVStore) {
	ctx := context.Background()
	sizes := []int{32, 1024, 64 * 1024}
	ttls := []time.Duration{0, 5 * time.Second}

	for _, size := range sizes {
		payload := randBytes(size)
		for _, ttl := range ttls {
			b.Run(fmt.Sprintf("%s/size=%d/ttl=%s", name, size, ttl), func(b *testing.B) {
				// ensure clean
				b.ReportAllocs()

				for i := 0; b.Loop(); i++ {
					// Use hyphens to ensure keys are valid for NATS KV
					key := fmt.Sprintf("bench-%s-%d", name, i)
					if err := store.Set(ctx, key, payload, ttl); err != nil {
						b.Fatalf("set failed: %v", err)
					}

					if _, err := store.Get(ctx, key); err != nil {
						b.Fatalf("get failed: %v", err)
					}

					if err := store.Delete(ctx, key); err != nil {
						b.Fatalf("delete failed: %v", err)
					}
				}
			})
		}
	}
}

// benchKVParallel 执行并行的 Set/Get/Delete 基准测试.
func benchKVParallel(b *testing.B, name string, store kv.KVStore) {
	ctx := context.Background()
	size := 1024
	payload := randBytes(size)

	var ctr uint64

	b.Run(fmt.Sprintf("%s/parallel", name), func(b *testing.B) {
		b.ReportAllocs()
		b.RunParallel(func(pb *testing.PB) {
			for pb.Next() {
				i := atomic.AddUint64(&ctr, 1)

				// Use hyphens to ensure keys are valid for NATS KV
				key := fmt.Sprintf("bench-%s-p-%d", name, i)
				if err := store.Set(ctx, key, payload, 0); err != nil {
					b.Fatalf("set failed: %v", err)
				}

				if _, err := store.Get(ctx, key); err != nil {
					b.Fatalf("get failed: %v", err)
				}

				if err := store.Delete(ctx, key); err != nil {
					b.Fatalf("delete failed: %v", err)
				}
			}
		})
	})
}
