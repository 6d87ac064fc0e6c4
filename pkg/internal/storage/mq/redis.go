package mq

import (
	"context"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"github.com/yeisme/codevault/pkg/configs"
)

const (
	// DefaultChannelBufferSize 默认通道缓冲区大小.
	DefaultChannelBufferSize = 100
)

// redisEnvelope 在 Redis Pub/Sub 上传输的消息体，保留 watermill 的 UUID 与 Metadata.
type redisEnvelope struct {
	UUID     string            `json:"uuid"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Payload  []byte            `json:"payload"`
}

// RedisPublisher Redis Publisher 实现.
type RedisPublisher struct {
	client *redis.Client
}

// RedisSubscriber Redis Subscriber 实现，每次 Subscribe 持有独立的 PubSub.
type RedisSubscriber struct {
	client  *redis.Client
	subs    []*redis.PubSub
	logger  watermill.LoggerAdapter
	mu      sync.Mutex
	closed  bool
	closeCh chan struct{}
	wg      sync.WaitGroup
}

// init 注册 Redis 工厂.
func init() {
	RegisterFactory(configs.MQTypeRedis, redisFactory)
}

// redisFactory 创建 Redis Publisher & Subscriber，两者各自持有连接.
func redisFactory(
	ctx context.Context,
	cfg *configs.MQConfig,
	logger watermill.LoggerAdapter) (
	message.Publisher, message.Subscriber, error) {
	opts := &redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}

	pubClient := redis.NewClient(opts)
	if err := pubClient.Ping(ctx).Err(); err != nil {
		_ = pubClient.Close()
		return nil, nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	pub := &RedisPublisher{client: pubClient}
	sub := &RedisSubscriber{
		client:  redis.NewClient(opts),
		logger:  logger,
		closeCh: make(chan struct{}),
	}

	return pub, sub, nil
}

// Publish 实现 Publisher 接口.
func (p *RedisPublisher) Publish(topic string, msgs ...*message.Message) error {
	for _, msg := range msgs {
		data, err := sonic.Marshal(redisEnvelope{
			UUID:     msg.UUID,
			Metadata: msg.Metadata,
			Payload:  msg.Payload,
		})
		if err != nil {
			return fmt.Errorf("marshal message %s: %w", msg.UUID, err)
		}

		if err := p.client.Publish(msg.Context(), topic, data).Err(); err != nil {
			return err
		}
	}

	return nil
}

// Close 实现 Publisher 接口.
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}

// Subscribe 实现 Subscriber 接口.
func (s *RedisSubscriber) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, fmt.Errorf("redis subscriber closed")
	}

	ps := s.client.Subscribe(ctx, topic)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", topic, err)
	}

	s.subs = append(s.subs, ps)

	ch := make(chan *message.Message, DefaultChannelBufferSize)

	s.wg.Add(1)

	go func() {
		defer s.wg.Done()
		defer close(ch)

		in := ps.Channel()

		for {
			select {
			case <-s.closeCh:
				return
			case <-ctx.Done():
				return
			case raw, ok := <-in:
				if !ok {
					return
				}

				msg := s.decode(raw.Payload)

				select {
				case ch <- msg:
				case <-s.closeCh:
					return
				case <-ctx.Done():
					return
				}

				// Pub/Sub 没有重投语义，等待处理方确认后再继续，保持顺序
				select {
				case <-msg.Acked():
				case <-msg.Nacked():
					s.logger.Info("message nacked, dropped", watermill.LogFields{"uuid": msg.UUID, "topic": topic})
				case <-s.closeCh:
					return
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return ch, nil
}

func (s *RedisSubscriber) decode(payload string) *message.Message {
	var env redisEnvelope
	if err := sonic.UnmarshalString(payload, &env); err != nil || env.UUID == "" {
		return message.NewMessage(watermill.NewUUID(), []byte(payload))
	}

	msg := message.NewMessage(env.UUID, env.Payload)
	for k, v := range env.Metadata {
		msg.Metadata.Set(k, v)
	}

	return msg
}

// Close 实现 Subscriber 接口.
func (s *RedisSubscriber) Close() error {
	s.mu.Lock()

	if s.closed {
		s.mu.Unlock()
		return nil
	}

	s.closed = true
	close(s.closeCh)

	for _, ps := range s.subs {
		if err := ps.Close(); err != nil {
			s.logger.Error("close redis pubsub", err, nil)
		}
	}
	s.mu.Unlock()

	s.wg.Wait()

	return s.client.Close()
}
