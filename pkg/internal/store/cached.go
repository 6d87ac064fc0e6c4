package store

import (
	"context"
	"time"

	"github.com/yeisme/codevault/pkg/cache"
	"github.com/yeisme/codevault/pkg/internal/model"
	"github.com/yeisme/codevault/pkg/internal/storage/kv"
	nlog "github.com/yeisme/codevault/pkg/log"
)

// cachePrefix 文件缓存的命名空间，与 KVStore 的记录键互不重叠.
const cachePrefix = "cv.cache.file."

// CachedStore 为 GetFile 提供读穿缓存，所有变更操作先后两次失效对应条目.
type CachedStore struct {
	Store

	cache *cache.Cache
	ttl   time.Duration
}

// NewCachedStore 用 KV 后端包装 inner.
func NewCachedStore(inner Store, backend kv.KVStore, ttl time.Duration) *CachedStore {
	return &CachedStore{
		Store: inner,
		cache: cache.NewCache(backend, cache.WithPrefix(cachePrefix)),
		ttl:   ttl,
	}
}

// Unwrap 返回被包装的 Store.
func (c *CachedStore) Unwrap() Store {
	return c.Store
}

func (c *CachedStore) invalidate(ctx context.Context, id string) {
	if err := c.cache.Delete(ctx, id); err != nil {
		nlog.FromContext(ctx).Debug().Err(err).Str("file_id", id).Msg("cache invalidate failed")
	}
}

// GetFile 读穿缓存，未命中错误不缓存.
func (c *CachedStore) GetFile(ctx context.Context, id string) (*model.File, error) {
	f, err := cache.GetOrSet(ctx, c.cache, id, func() (model.File, error) {
		f, err := c.Store.GetFile(ctx, id)
		if err != nil {
			return model.File{}, err
		}

		return *f, nil
	}, c.ttl)
	if err != nil {
		return nil, err
	}

	return &f, nil
}

// PutFile 写入后失效.
func (c *CachedStore) PutFile(ctx context.Context, file *model.File) error {
	err := c.Store.PutFile(ctx, file)
	c.invalidate(ctx, file.ID)

	return err
}

// DeleteFile 删除前后各失效一次.
func (c *CachedStore) DeleteFile(ctx context.Context, id string) error {
	c.invalidate(ctx, id)
	err := c.Store.DeleteFile(ctx, id)
	c.invalidate(ctx, id)

	return err
}

// UpdateFileAccessCodes 更新前后各失效一次.
func (c *CachedStore) UpdateFileAccessCodes(ctx context.Context, id string, codes []model.AccessCode) error {
	c.invalidate(ctx, id)
	err := c.Store.UpdateFileAccessCodes(ctx, id, codes)
	c.invalidate(ctx, id)

	return err
}

// SetCodeUsedIfUnused 兑换前后各失效一次.
func (c *CachedStore) SetCodeUsedIfUnused(ctx context.Context, fileID, code string) (bool, error) {
	c.invalidate(ctx, fileID)
	ok, err := c.Store.SetCodeUsedIfUnused(ctx, fileID, code)
	c.invalidate(ctx, fileID)

	return ok, err
}

// AsCodeFinder 沿装饰链查找 CodeFinder 能力.
func AsCodeFinder(s Store) (CodeFinder, bool) {
	for s != nil {
		if f, ok := s.(CodeFinder); ok {
			return f, true
		}

		u, ok := s.(interface{ Unwrap() Store })
		if !ok {
			return nil, false
		}

		s = u.Unwrap()
	}

	return nil, false
}

// AsPinger 沿装饰链查找 Pinger 能力.
func AsPinger(s Store) (Pinger, bool) {
	for s != nil {
		if p, ok := s.(Pinger); ok {
			return p, true
		}

		u, ok := s.(interface{ Unwrap() Store })
		if !ok {
			return nil, false
		}

		s = u.Unwrap()
	}

	return nil, false
}
