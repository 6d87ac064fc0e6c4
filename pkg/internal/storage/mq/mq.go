// Package mq 提供基于 Watermill 库的统一消息队列操作接口.
// 支持发布/订阅模式，并通过工厂模式抽象不同的 MQ 实现.
//
// 支持的 MQ 类型：
//   - memory（watermill gochannel，进程内）
//   - NATS（支持 JetStream）
//   - Redis Pub/Sub
//
// 使用示例：
//
//	client, err := mq.New(ctx, &configs.GetConfig().MQ)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
//	msg := message.NewMessage(watermill.NewUUID(), []byte("hello world"))
//	err = client.Publish(ctx, "topic", msg)
//
//	ch, err := client.Subscribe(ctx, "topic")
package mq

import (
	"context"
	"fmt"
	"sort"
	"sync"

	watermill "github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/components/metrics"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/yeisme/codevault/pkg/configs"
	nlog "github.com/yeisme/codevault/pkg/log"
	appmetrics "github.com/yeisme/codevault/pkg/metrics"
)

// Factory 定义创建 Publisher + Subscriber 的工厂函数.
type Factory func(ctx context.Context, cfg *configs.MQConfig, logger watermill.LoggerAdapter) (message.Publisher, message.Subscriber, error)

var (
	factories   = map[configs.MQType]Factory{}
	factoriesMu sync.RWMutex
)

// RegisterFactory 注册指定 MQType 的工厂.
func RegisterFactory(t configs.MQType, f Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()

	factories[t] = f
}

// GetRegisteredMQTypes 返回已注册的 MQ 类型（有序）.
func GetRegisteredMQTypes() []configs.MQType {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()

	types := make([]configs.MQType, 0, len(factories))
	for t := range factories {
		types = append(types, t)
	}

	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	return types
}

// Client 封装 watermill Publisher 与 Subscriber.
type Client struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	kind       configs.MQType
	logger     watermill.LoggerAdapter
	closeOnce  sync.Once
	closeErr   error
}

// NewClient 由现成的 Publisher/Subscriber 构造客户端.
func NewClient(kind configs.MQType, pub message.Publisher, sub message.Subscriber) *Client {
	return &Client{publisher: pub, subscriber: sub, kind: kind, logger: NewLogger()}
}

// NewLogger 返回桥接到全局 zerolog 的 watermill 日志器.
func NewLogger() watermill.LoggerAdapter {
	return &zerologAdapter{l: nlog.Logger()}
}

// Type 返回 MQ 类型.
func (c *Client) Type() configs.MQType {
	return c.kind
}

// Logger 返回 watermill 日志器，供 Router 等组件复用.
func (c *Client) Logger() watermill.LoggerAdapter {
	return c.logger
}

// Publisher 返回底层 Publisher，供 queue.Publish* 使用.
func (c *Client) Publisher() message.Publisher {
	return c.publisher
}

// Subscriber 返回底层 Subscriber.
func (c *Client) Subscriber() message.Subscriber {
	return c.subscriber
}

// Publish 便捷发布.
func (c *Client) Publish(ctx context.Context, topic string, msgs ...*message.Message) error {
	if c == nil || c.publisher == nil {
		return fmt.Errorf("mq publisher not initialized")
	}

	for _, m := range msgs {
		m.SetContext(ctx)

		if err := c.publisher.Publish(topic, m); err != nil {
			return err
		}
	}

	return nil
}

// Subscribe 便捷订阅.
func (c *Client) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	if c == nil || c.subscriber == nil {
		return nil, fmt.Errorf("mq subscriber not initialized")
	}

	return c.subscriber.Subscribe(ctx, topic)
}

// Close 关闭资源，可重复调用.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		if c.publisher != nil {
			if e := c.publisher.Close(); e != nil {
				c.closeErr = e
			}
		}

		if c.subscriber != nil {
			if e := c.subscriber.Close(); e != nil {
				c.closeErr = e
			}
		}
	})

	return c.closeErr
}

// New 按配置初始化消息队列.
func New(ctx context.Context, cfg *configs.MQConfig) (*Client, error) {
	kind := cfg.Type
	if kind == "" {
		kind = configs.MQTypeMemory
	}

	factoriesMu.RLock()
	factory, ok := factories[kind]
	factoriesMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unsupported mq type: %s", kind)
	}

	logger := NewLogger()

	pub, sub, err := factory(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("init mq (%s): %w", kind, err)
	}

	if configs.GetConfig().Metrics.Enabled {
		metricsBuilder := metrics.NewPrometheusMetricsBuilder(appmetrics.GetRegistry(), configs.AppName, "mq")

		if pub, err = metricsBuilder.DecoratePublisher(pub); err != nil {
			return nil, fmt.Errorf("decorate publisher with metrics: %w", err)
		}

		if sub, err = metricsBuilder.DecorateSubscriber(sub); err != nil {
			return nil, fmt.Errorf("decorate subscriber with metrics: %w", err)
		}

		nlog.Logger().Info().Msg("MQ metrics enabled")
	}

	nlog.Logger().Info().Str("type", string(kind)).Msg("MQ 客户端已初始化")

	return &Client{publisher: pub, subscriber: sub, kind: kind, logger: logger}, nil
}
