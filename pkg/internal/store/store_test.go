package store_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/codevault/pkg/configs"
	"github.com/yeisme/codevault/pkg/internal/model"
	"github.com/yeisme/codevault/pkg/internal/storage/db"
	"github.com/yeisme/codevault/pkg/internal/storage/kv"
	"github.com/yeisme/codevault/pkg/internal/store"
)

type backend struct {
	name string
	open func(t *testing.T) store.Store
}

func newGorm(t *testing.T) store.Store {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	client, err := db.Open(context.Background(), sqlite.Open(dsn), "test")
	require.NoError(t, err)

	sqlDB, err := client.DB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	t.Cleanup(func() { _ = client.Close() })

	s := store.NewGormStore(client.DB)
	require.NoError(t, s.Migrate(context.Background()))

	return s
}

func newMemoryKV(t *testing.T) kv.KVStore {
	t.Helper()

	backend, err := kv.NewMemoryKV(context.Background(), nil)
	require.NoError(t, err)

	return backend
}

func backends() []backend {
	return []backend{
		{"memory", func(*testing.T) store.Store { return store.NewMemoryStore() }},
		{"kv", func(t *testing.T) store.Store { return store.NewKVStore(newMemoryKV(t)) }},
		{"gorm", newGorm},
		{"cached", func(t *testing.T) store.Store {
			return store.NewCachedStore(store.NewMemoryStore(), newMemoryKV(t), time.Minute)
		}},
	}
}

func file(id, owner string, codes ...string) *model.File {
	f := &model.File{
		ID:         id,
		Name:       id + ".txt",
		UploadDate: "2024-01-01T00:00:00Z",
		Size:       "3 B",
		Content:    "data:text/plain;base64,YWJj",
		Type:       "text/plain",
		OwnerID:    owner,
	}
	for _, c := range codes {
		f.AccessCodes = append(f.AccessCodes, model.AccessCode{Code: c})
	}

	return f
}

func ids(files []*model.File) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, f.ID)
	}

	return out
}

func TestStoreContract(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			t.Run("PutGetList", func(t *testing.T) { testPutGetList(t, b.open(t)) })
			t.Run("DuplicateID", func(t *testing.T) { testDuplicateID(t, b.open(t)) })
			t.Run("DeleteIdempotent", func(t *testing.T) { testDeleteIdempotent(t, b.open(t)) })
			t.Run("UpdateCodes", func(t *testing.T) { testUpdateCodes(t, b.open(t)) })
			t.Run("CompareAndSet", func(t *testing.T) { testCompareAndSet(t, b.open(t)) })
			t.Run("ConcurrentCompareAndSet", func(t *testing.T) { testConcurrentCAS(t, b.open(t)) })
			t.Run("Users", func(t *testing.T) { testUsers(t, b.open(t)) })
		})
	}
}

func testPutGetList(t *testing.T, s store.Store) {
	ctx := context.Background()

	require.NoError(t, s.PutFile(ctx, file("f2", "alice", "A")))
	require.NoError(t, s.PutFile(ctx, file("f1", "bob", "B")))
	require.NoError(t, s.PutFile(ctx, file("f3", "alice", "C", "D")))

	all, err := s.ListFiles(ctx, store.FileFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"f2", "f1", "f3"}, ids(all), "insertion order")

	mine, err := s.ListFiles(ctx, store.FileFilter{OwnerID: "alice"})
	require.NoError(t, err)
	assert.Equal(t, []string{"f2", "f3"}, ids(mine))

	for _, f := range mine {
		assert.Equal(t, "alice", f.OwnerID)
	}

	got, err := s.GetFile(ctx, "f3")
	require.NoError(t, err)
	assert.Equal(t, file("f3", "alice", "C", "D"), got)

	_, err = s.GetFile(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testDuplicateID(t *testing.T, s store.Store) {
	ctx := context.Background()

	require.NoError(t, s.PutFile(ctx, file("dup", "alice", "A")))
	assert.ErrorIs(t, s.PutFile(ctx, file("dup", "bob", "B")), store.ErrDuplicateID)

	got, err := s.GetFile(ctx, "dup")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.OwnerID, "original record untouched")
}

func testDeleteIdempotent(t *testing.T, s store.Store) {
	ctx := context.Background()

	require.NoError(t, s.PutFile(ctx, file("a", "u", "A")))
	require.NoError(t, s.PutFile(ctx, file("b", "u", "B")))

	require.NoError(t, s.DeleteFile(ctx, "nope"))

	all, err := s.ListFiles(ctx, store.FileFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids(all), "deleting an absent id leaves the collection unchanged")

	require.NoError(t, s.DeleteFile(ctx, "a"))
	require.NoError(t, s.DeleteFile(ctx, "a"))

	all, err = s.ListFiles(ctx, store.FileFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, ids(all))

	_, err = s.GetFile(ctx, "a")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testUpdateCodes(t *testing.T, s store.Store) {
	ctx := context.Background()

	require.NoError(t, s.PutFile(ctx, file("f", "u", "X1", "X2")))

	codes := []model.AccessCode{{Code: "X1", Used: true}, {Code: "X2"}, {Code: "X3"}}
	require.NoError(t, s.UpdateFileAccessCodes(ctx, "f", codes))

	got, err := s.GetFile(ctx, "f")
	require.NoError(t, err)
	assert.Equal(t, codes, got.AccessCodes)

	assert.ErrorIs(t, s.UpdateFileAccessCodes(ctx, "missing", codes), store.ErrNotFound)
}

func testCompareAndSet(t *testing.T, s store.Store) {
	ctx := context.Background()

	require.NoError(t, s.PutFile(ctx, file("f", "u", "X1", "X2", "X3")))

	ok, err := s.SetCodeUsedIfUnused(ctx, "f", "X1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.SetCodeUsedIfUnused(ctx, "f", "X1")
	require.NoError(t, err)
	assert.False(t, ok, "second flip loses")

	ok, err = s.SetCodeUsedIfUnused(ctx, "f", "nope")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.SetCodeUsedIfUnused(ctx, "missing", "X1")
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := s.GetFile(ctx, "f")
	require.NoError(t, err)
	assert.Equal(t, []model.AccessCode{{Code: "X1", Used: true}, {Code: "X2"}, {Code: "X3"}}, got.AccessCodes)
}

func testConcurrentCAS(t *testing.T, s store.Store) {
	ctx := context.Background()

	require.NoError(t, s.PutFile(ctx, file("race", "u", "ONLY", "OTHER")))

	const workers = 16

	var (
		wins int32
		wg   sync.WaitGroup
	)

	start := make(chan struct{})

	for range workers {
		wg.Add(1)

		go func() {
			defer wg.Done()
			<-start

			ok, err := s.SetCodeUsedIfUnused(ctx, "race", "ONLY")
			if err != nil {
				t.Errorf("cas: %v", err)
				return
			}

			if ok {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}

	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&wins), "exactly one redeemer wins")

	got, err := s.GetFile(ctx, "race")
	require.NoError(t, err)
	assert.Equal(t, []model.AccessCode{{Code: "ONLY", Used: true}, {Code: "OTHER"}}, got.AccessCodes)
}

func testUsers(t *testing.T, s store.Store) {
	ctx := context.Background()

	alice := &model.User{ID: "u1", Email: "alice@example.com", Credential: "$2a$10$hash"}
	gh := &model.User{
		ID:             "u2",
		Email:          "alice@example.com",
		Credential:     "federated:github",
		Provider:       "github",
		ProviderUserID: "42",
	}

	require.NoError(t, s.PutUser(ctx, alice))
	require.NoError(t, s.PutUser(ctx, gh))
	assert.ErrorIs(t, s.PutUser(ctx, alice), store.ErrDuplicateID)

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)

	got, err := s.FindUser(ctx, store.UserFilter{Email: "alice@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)
	assert.Equal(t, "$2a$10$hash", got.Credential, "credential survives the round trip")

	got, err = s.FindUser(ctx, store.UserFilter{Provider: "github", ProviderUserID: "42"})
	require.NoError(t, err)
	assert.Equal(t, "u2", got.ID)

	_, err = s.FindUser(ctx, store.UserFilter{Provider: "google", ProviderUserID: "42"})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestGormFindFilesByUnusedCode(t *testing.T) {
	ctx := context.Background()
	s := newGorm(t)

	require.NoError(t, s.PutFile(ctx, file("a", "u", "SHARED", "X")))
	require.NoError(t, s.PutFile(ctx, file("b", "u", "Y")))
	require.NoError(t, s.PutFile(ctx, file("c", "v", "SHARED")))

	finder, ok := store.AsCodeFinder(s)
	require.True(t, ok)

	got, err := finder.FindFilesByUnusedCode(ctx, "SHARED")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, ids(got))

	ok, err = s.SetCodeUsedIfUnused(ctx, "a", "SHARED")
	require.NoError(t, err)
	require.True(t, ok)

	got, err = finder.FindFilesByUnusedCode(ctx, "SHARED")
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, ids(got))
}

func TestCapabilityLookup(t *testing.T) {
	mem := store.NewMemoryStore()
	cached := store.NewCachedStore(mem, newMemoryKV(t), time.Minute)

	_, ok := store.AsCodeFinder(cached)
	assert.False(t, ok, "memory store has no code index")

	_, ok = store.AsPinger(cached)
	assert.True(t, ok, "ping found through the decorator")
}

func TestCachedStoreInvalidation(t *testing.T) {
	ctx := context.Background()
	inner := store.NewMemoryStore()
	s := store.NewCachedStore(inner, newMemoryKV(t), time.Minute)

	require.NoError(t, s.PutFile(ctx, file("f", "u", "X1")))

	first, err := s.GetFile(ctx, "f")
	require.NoError(t, err)
	assert.False(t, first.AccessCodes[0].Used)

	ok, err := s.SetCodeUsedIfUnused(ctx, "f", "X1")
	require.NoError(t, err)
	require.True(t, ok)

	after, err := s.GetFile(ctx, "f")
	require.NoError(t, err)
	assert.True(t, after.AccessCodes[0].Used, "cached copy invalidated by the mutation")

	// 直接改底层，缓存仍返回旧值，证明读确实经过缓存
	require.NoError(t, inner.UpdateFileAccessCodes(ctx, "f", []model.AccessCode{{Code: "Z"}}))

	cachedCopy, err := s.GetFile(ctx, "f")
	require.NoError(t, err)
	assert.Equal(t, "X1", cachedCopy.AccessCodes[0].Code)
}

func TestCollect(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()

	require.NoError(t, s.PutFile(ctx, file("a", "alice", "A", "B")))
	require.NoError(t, s.PutFile(ctx, file("b", "bob", "C")))
	require.NoError(t, s.PutUser(ctx, &model.User{ID: "u1", Email: "a@x.io"}))

	_, err := s.SetCodeUsedIfUnused(ctx, "a", "A")
	require.NoError(t, err)

	st, err := store.Collect(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, store.Stats{Files: 2, Owners: 2, Users: 1, UnusedCodes: 2, UsedCodes: 1}, st)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := store.Open(ctx, configs.StoreConfig{}, store.Deps{})
	require.NoError(t, err)
	assert.IsType(t, &store.MemoryStore{}, s)

	_, err = store.Open(ctx, configs.StoreConfig{Backend: configs.StoreBackendDB}, store.Deps{})
	assert.Error(t, err)

	s, err = store.Open(ctx, configs.StoreConfig{Backend: configs.StoreBackendKV, CacheTTL: 30}, store.Deps{KV: newMemoryKV(t)})
	require.NoError(t, err)
	assert.IsType(t, &store.CachedStore{}, s)
}

// pausingStore 第一次 GetFile 读出记录后暂停，直到 release 关闭.
type pausingStore struct {
	store.Store

	once    sync.Once
	loaded  chan struct{}
	release chan struct{}
}

func (p *pausingStore) GetFile(ctx context.Context, id string) (*model.File, error) {
	f, err := p.Store.GetFile(ctx, id)

	p.once.Do(func() {
		close(p.loaded)
		<-p.release
	})

	return f, err
}

func TestCachedStoreDoesNotWriteBackStaleRead(t *testing.T) {
	ctx := context.Background()
	inner := &pausingStore{
		Store:   store.NewMemoryStore(),
		loaded:  make(chan struct{}),
		release: make(chan struct{}),
	}
	s := store.NewCachedStore(inner, newMemoryKV(t), time.Minute)

	require.NoError(t, s.PutFile(ctx, file("f", "u", "X1")))

	var stale *model.File

	done := make(chan struct{})

	go func() {
		defer close(done)

		var err error

		stale, err = s.GetFile(ctx, "f")
		assert.NoError(t, err)
	}()

	<-inner.loaded

	ok, err := s.SetCodeUsedIfUnused(ctx, "f", "X1")
	require.NoError(t, err)
	require.True(t, ok)

	close(inner.release)
	<-done

	require.NotNil(t, stale)
	assert.False(t, stale.AccessCodes[0].Used, "read started before the redemption")

	after, err := s.GetFile(ctx, "f")
	require.NoError(t, err)
	assert.True(t, after.AccessCodes[0].Used, "read loaded before the redemption must not be cached")

	require.NoError(t, s.DeleteFile(ctx, "f"))

	_, err = s.GetFile(ctx, "f")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCachedStoreReadAfterExpiry(t *testing.T) {
	ctx := context.Background()
	s := store.NewCachedStore(store.NewMemoryStore(), newMemoryKV(t), time.Second)

	require.NoError(t, s.PutFile(ctx, file("f", "u", "X1")))

	_, err := s.GetFile(ctx, "f")
	require.NoError(t, err)

	// TTL 以秒为精度编码，1s 后缓存条目必然过期
	time.Sleep(1100 * time.Millisecond)

	var got *model.File

	require.NotPanics(t, func() {
		got, err = s.GetFile(ctx, "f")
	})
	require.NoError(t, err)
	assert.Equal(t, "f", got.ID)
}
