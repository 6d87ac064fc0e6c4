package service

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/yeisme/codevault/pkg/configs"
	ctxPkg "github.com/yeisme/codevault/pkg/context"
	"github.com/yeisme/codevault/pkg/internal/store"
)

// BlobStore 保存上传内容的对象存储，由 s3.Client 实现.
type BlobStore interface {
	PutContent(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	RemoveContent(ctx context.Context, key string) error
	PresignGet(ctx context.Context, key, filename string, ttl time.Duration) (string, error)
}

// Option 覆盖从 context 与全局配置取得的依赖.
type Option func(*options)

type options struct {
	store   store.Store
	blobs   BlobStore
	events  *EventPublisher
	share   configs.ShareConfig
	auth    configs.AuthConfig
	timeout time.Duration
}

// WithStore 指定 Store.
func WithStore(s store.Store) Option { return func(o *options) { o.store = s } }

// WithBlobStore 指定对象存储.
func WithBlobStore(b BlobStore) Option { return func(o *options) { o.blobs = b } }

// WithEvents 指定事件发布器，nil 表示不发布.
func WithEvents(p *EventPublisher) Option { return func(o *options) { o.events = p } }

// WithShareConfig 指定分享规则.
func WithShareConfig(c configs.ShareConfig) Option { return func(o *options) { o.share = c } }

// WithAuthConfig 指定认证配置.
func WithAuthConfig(c configs.AuthConfig) Option { return func(o *options) { o.auth = c } }

// WithStoreTimeout 指定单次 Store 调用超时.
func WithStoreTimeout(d time.Duration) Option { return func(o *options) { o.timeout = d } }

// newOptions 默认依赖来自 context 中的存储管理器与全局配置.
func newOptions(c context.Context, opts ...Option) options {
	cfg := configs.GetConfig()

	o := options{
		store:   ctxPkg.GetStore(c),
		share:   cfg.Share,
		auth:    cfg.Auth,
		timeout: cfg.Store.WithDefaults().GetTimeoutDuration(),
		events:  NewEventPublisher(ctxPkg.GetMQClient(c), cfg.Events),
	}

	if s3c := ctxPkg.GetS3Client(c); s3c != nil {
		o.blobs = s3c
	}

	for _, opt := range opts {
		opt(&o)
	}

	o.share = o.share.WithDefaults()
	o.auth = o.auth.WithDefaults()

	return o
}

// call 在超时控制下执行一次 Store 调用，后端故障与超时包装为 ErrStoreUnavailable.
func (o *options) call(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	if o.store == nil {
		return unavailable(op, errNoStore)
	}

	if o.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	if err := fn(ctx); err != nil {
		// 记录级哨兵错误交给调用方转换
		if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrDuplicateID) {
			return err
		}

		return unavailable(op, err)
	}

	return nil
}
