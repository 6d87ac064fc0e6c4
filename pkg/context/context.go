// Package context 拓展上下文功能，将存储管理器与当前会话集成到上下文中，方便在应用程序各处传递和使用.
package context

import (
	"context"

	"github.com/yeisme/codevault/pkg/internal/model"
	"github.com/yeisme/codevault/pkg/internal/storage"
	kvc "github.com/yeisme/codevault/pkg/internal/storage/kv"
	mqc "github.com/yeisme/codevault/pkg/internal/storage/mq"
	s3c "github.com/yeisme/codevault/pkg/internal/storage/s3"
	"github.com/yeisme/codevault/pkg/internal/store"
)

type ContextKey string

const (
	StorageManagerKey ContextKey = "storageManager"
	SessionKey        ContextKey = "session"
)

// WithStorageManager 将 Manager 存储到 context 中.
func WithStorageManager(ctx context.Context, mgr *storage.Manager) context.Context {
	return context.WithValue(ctx, StorageManagerKey, mgr)
}

// GetManager 从 context 中获取 Manager.
func GetManager(ctx context.Context) *storage.Manager {
	if mgr, ok := ctx.Value(StorageManagerKey).(*storage.Manager); ok {
		return mgr
	}

	return nil
}

// GetStore 从 context 中获取分享记录 Store.
func GetStore(ctx context.Context) store.Store {
	if mgr := GetManager(ctx); mgr != nil {
		return mgr.Store
	}

	return nil
}

// GetS3Client 从 context 中获取 S3 客户端.
func GetS3Client(ctx context.Context) *s3c.Client {
	if mgr := GetManager(ctx); mgr != nil {
		return mgr.S3
	}

	return nil
}

// GetMQClient 从 context 中获取 MQ 客户端.
func GetMQClient(ctx context.Context) *mqc.Client {
	if mgr := GetManager(ctx); mgr != nil {
		return mgr.MQ
	}

	return nil
}

// GetKVClient 从 context 中获取 KV 客户端.
func GetKVClient(ctx context.Context) *kvc.Client {
	if mgr := GetManager(ctx); mgr != nil {
		return mgr.KV
	}

	return nil
}

// WithSession 将已认证的会话写入 context.
func WithSession(ctx context.Context, s model.Session) context.Context {
	return context.WithValue(ctx, SessionKey, s)
}

// CurrentSession 返回当前会话，未登录时 ok 为 false.
func CurrentSession(ctx context.Context) (model.Session, bool) {
	s, ok := ctx.Value(SessionKey).(model.Session)

	return s, ok && s.ID != ""
}
