package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/yeisme/codevault/pkg/configs"
	"github.com/yeisme/codevault/pkg/internal/storage/kv"
	nlog "github.com/yeisme/codevault/pkg/log"
)

// Deps 构造 Store 所需的已初始化客户端，按后端选择使用.
type Deps struct {
	DB *gorm.DB
	KV kv.KVStore
}

// Open 按配置选择后端，cache_ttl > 0 且有 KV 时包装读缓存.
func Open(ctx context.Context, cfg configs.StoreConfig, deps Deps) (Store, error) {
	cfg = cfg.WithDefaults()

	var s Store

	switch cfg.Backend {
	case configs.StoreBackendMemory:
		s = NewMemoryStore()
	case configs.StoreBackendDB:
		if deps.DB == nil {
			return nil, fmt.Errorf("store backend %q requires a database", cfg.Backend)
		}

		gs := NewGormStore(deps.DB)
		if cfg.AutoMigrate {
			if err := gs.Migrate(ctx); err != nil {
				return nil, fmt.Errorf("migrate: %w", err)
			}
		}

		s = gs
	case configs.StoreBackendKV:
		if deps.KV == nil {
			return nil, fmt.Errorf("store backend %q requires a kv store", cfg.Backend)
		}

		s = NewKVStore(deps.KV)
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", cfg.Backend)
	}

	if ttl := cfg.GetCacheTTL(); ttl > 0 && deps.KV != nil {
		s = NewCachedStore(s, deps.KV, ttl)
	}

	nlog.Logger().Info().
		Str("backend", string(cfg.Backend)).
		Dur("cache_ttl", cfg.GetCacheTTL()).
		Msg("store opened")

	return s, nil
}
