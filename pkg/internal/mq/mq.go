// Package mq 订阅分享事件并写审计日志，同时按主题计数.
//
// 使用示例：
//
//	consumer, err := mq.StartConsumer(ctx, mgr.MQ, queue.AllTopics()...)
//	if err != nil {
//		return err
//	}
//	defer consumer.Wait()
package mq

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"

	mqc "github.com/yeisme/codevault/pkg/internal/storage/mq"
	nlog "github.com/yeisme/codevault/pkg/log"
	"github.com/yeisme/codevault/pkg/metrics"
	"github.com/yeisme/codevault/pkg/queue"
)

// Consumer 每个主题一个 goroutine，ctx 取消或订阅关闭后退出.
type Consumer struct {
	wg sync.WaitGroup
}

// StartConsumer 订阅指定主题. 任一主题订阅失败时返回错误，已启动的 goroutine 随 ctx 退出.
func StartConsumer(ctx context.Context, client *mqc.Client, topics ...string) (*Consumer, error) {
	if client == nil {
		return nil, errors.New("mq client not initialized")
	}

	c := &Consumer{}

	for _, topic := range topics {
		ch, err := client.Subscribe(ctx, topic)
		if err != nil {
			return c, fmt.Errorf("subscribe %s: %w", topic, err)
		}

		c.wg.Add(1)

		go func() {
			defer c.wg.Done()

			for msg := range ch {
				Handle(topic, msg)
			}
		}()
	}

	nlog.Logger().Info().Strs("topics", topics).Msg("event consumer started")

	return c, nil
}

// Wait 等待全部订阅 goroutine 退出.
func (c *Consumer) Wait() {
	if c != nil {
		c.wg.Wait()
	}
}

// Handle 解析一条事件并写审计日志. 无法解析的消息记录后丢弃，重投也无法解析.
func Handle(topic string, msg *message.Message) {
	defer msg.Ack()

	l := nlog.Logger().With().Str("topic", topic).Str("message_id", msg.UUID).Logger()

	if err := audit(l, topic, msg); err != nil {
		l.Warn().Err(err).Msg("malformed event dropped")
		return
	}

	metrics.EventsConsumed.WithLabelValues(topic).Inc()
}

func audit(l zerolog.Logger, topic string, msg *message.Message) error {
	switch topic {
	case queue.TopicFileUploaded:
		env, err := queue.ParseFileUploaded(msg)
		if err != nil {
			return err
		}

		p := env.Payload
		event(l, env.Header).Str("file_id", p.FileID).Str("owner_id", p.OwnerID).
			Str("type", p.Type).Str("size", p.Size).Int("codes", p.CodeCount).Msg("audit: file uploaded")
	case queue.TopicFileDeleted:
		env, err := queue.ParseFileDeleted(msg)
		if err != nil {
			return err
		}

		event(l, env.Header).Str("file_id", env.Payload.FileID).Str("owner_id", env.Payload.OwnerID).
			Msg("audit: file deleted")
	case queue.TopicCodeRedeemed:
		env, err := queue.ParseCodeRedeemed(msg)
		if err != nil {
			return err
		}

		p := env.Payload
		event(l, env.Header).Str("file_id", p.FileID).Str("owner_id", p.OwnerID).
			Str("claimant", p.ClaimantEmail).Int("remaining", p.RemainingCodes).Msg("audit: code redeemed")
	case queue.TopicUserRegistered:
		env, err := queue.ParseUserRegistered(msg)
		if err != nil {
			return err
		}

		event(l, env.Header).Str("user_id", env.Payload.UserID).Str("provider", env.Payload.Provider).
			Msg("audit: user registered")
	default:
		l.Debug().Msg("event on unknown topic ignored")
	}

	return nil
}

func event(l zerolog.Logger, h queue.EventHeader) *zerolog.Event {
	return l.Info().Str("producer", h.Producer).Str("trace_id", h.TraceID).Time("occurred_at", h.OccurredAt)
}
