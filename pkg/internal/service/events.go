package service

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel/trace"

	"github.com/yeisme/codevault/pkg/configs"
	"github.com/yeisme/codevault/pkg/internal/model"
	mqc "github.com/yeisme/codevault/pkg/internal/storage/mq"
	nlog "github.com/yeisme/codevault/pkg/log"
	"github.com/yeisme/codevault/pkg/queue"
)

// EventPublisher 按 events 配置发布领域事件. nil 接收者上的方法都是空操作，
// 发布失败只记录日志，不影响业务结果.
type EventPublisher struct {
	pub message.Publisher
	cfg configs.EventsConfig
}

// NewEventPublisher 事件总开关关闭或没有 MQ 时返回 nil.
func NewEventPublisher(client *mqc.Client, cfg configs.EventsConfig) *EventPublisher {
	if client == nil || !cfg.Enabled {
		return nil
	}

	return NewEventPublisherFor(client.Publisher(), cfg.Share)
}

// NewEventPublisherFor 直接基于 watermill Publisher 构造，常用于测试.
func NewEventPublisherFor(pub message.Publisher, share configs.ShareEventsConfig) *EventPublisher {
	if pub == nil {
		return nil
	}

	return &EventPublisher{pub: pub, cfg: configs.EventsConfig{Enabled: true, Share: share}}
}

func headerOpts(ctx context.Context) []func(*queue.EventHeader) {
	opts := []func(*queue.EventHeader){queue.WithProducer(configs.AppName)}

	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		opts = append(opts, queue.WithTraceID(sc.TraceID().String()))
	}

	return opts
}

func (p *EventPublisher) report(ctx context.Context, topic string, err error) {
	if err != nil {
		nlog.FromContext(ctx).Warn().Err(err).Str("topic", topic).Msg("publish event failed")
	}
}

// FileUploaded 发布 cv.file.uploaded.
func (p *EventPublisher) FileUploaded(ctx context.Context, f *model.File) {
	if p == nil || !p.cfg.Share.FileUploaded {
		return
	}

	err := queue.PublishFileUploaded(p.pub, queue.FileUploadedPayload{
		FileID:     f.ID,
		OwnerID:    f.OwnerID,
		Name:       f.Name,
		Type:       f.Type,
		Size:       f.Size,
		CodeCount:  len(f.AccessCodes),
		StorageKey: f.StorageKey,
	}, headerOpts(ctx)...)
	p.report(ctx, queue.TopicFileUploaded, err)
}

// FileDeleted 发布 cv.file.deleted.
func (p *EventPublisher) FileDeleted(ctx context.Context, f *model.File) {
	if p == nil || !p.cfg.Share.FileDeleted {
		return
	}

	err := queue.PublishFileDeleted(p.pub, queue.FileDeletedPayload{
		FileID:     f.ID,
		OwnerID:    f.OwnerID,
		StorageKey: f.StorageKey,
	}, headerOpts(ctx)...)
	p.report(ctx, queue.TopicFileDeleted, err)
}

// CodeRedeemed 发布 cv.code.redeemed.
func (p *EventPublisher) CodeRedeemed(ctx context.Context, f *model.File, code, claimant string) {
	if p == nil || !p.cfg.Share.CodeRedeemed {
		return
	}

	err := queue.PublishCodeRedeemed(p.pub, queue.CodeRedeemedPayload{
		FileID:         f.ID,
		OwnerID:        f.OwnerID,
		Code:           code,
		ClaimantEmail:  claimant,
		RemainingCodes: f.UnusedCodes(),
	}, headerOpts(ctx)...)
	p.report(ctx, queue.TopicCodeRedeemed, err)
}

// UserRegistered 发布 cv.user.registered.
func (p *EventPublisher) UserRegistered(ctx context.Context, u *model.User) {
	if p == nil || !p.cfg.Share.UserRegistered {
		return
	}

	err := queue.PublishUserRegistered(p.pub, queue.UserRegisteredPayload{
		UserID:   u.ID,
		Email:    u.Email,
		Provider: u.Provider,
	}, headerOpts(ctx)...)
	p.report(ctx, queue.TopicUserRegistered, err)
}
