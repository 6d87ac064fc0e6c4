package mq

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/yeisme/codevault/pkg/configs"
)

// DefaultMemoryBuffer 内存通道的输出缓冲.
const DefaultMemoryBuffer = 256

func init() {
	RegisterFactory(configs.MQTypeMemory, memoryFactory)
}

// memoryFactory 创建进程内 gochannel，同一实例同时作为 Publisher 与 Subscriber.
func memoryFactory(
	_ context.Context,
	_ *configs.MQConfig,
	logger watermill.LoggerAdapter) (
	message.Publisher, message.Subscriber, error) {
	ps := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: DefaultMemoryBuffer,
	}, logger)

	return ps, &sharedSubscriber{GoChannel: ps}, nil
}

// sharedSubscriber 让 Publisher 与 Subscriber 共用一个 GoChannel，Close 只由 Publisher 执行.
type sharedSubscriber struct {
	*gochannel.GoChannel
}

func (s *sharedSubscriber) Close() error { return nil }
