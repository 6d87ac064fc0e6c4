package mq_test

import (
	"context"
	"testing"
	"time"

	watermill "github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/codevault/pkg/configs"
	"github.com/yeisme/codevault/pkg/internal/mq"
	mqc "github.com/yeisme/codevault/pkg/internal/storage/mq"
	"github.com/yeisme/codevault/pkg/metrics"
	"github.com/yeisme/codevault/pkg/queue"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()

	m := &dto.Metric{}
	require.NoError(t, c.Write(m))

	return m.GetCounter().GetValue()
}

func TestConsumerCountsEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	ch := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	client := mqc.NewClient(configs.MQTypeMemory, ch, ch)

	consumer, err := mq.StartConsumer(ctx, client, queue.AllTopics()...)
	require.NoError(t, err)

	counter := metrics.EventsConsumed.WithLabelValues(queue.TopicCodeRedeemed)
	before := counterValue(t, counter)

	err = queue.PublishCodeRedeemed(client.Publisher(), queue.CodeRedeemedPayload{
		FileID:        "fl_1",
		Code:          "abc123",
		ClaimantEmail: "c@x.io",
	}, queue.WithProducer(configs.AppName))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return counterValue(t, counter) == before+1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, ch.Close())
	consumer.Wait()
}

func TestMalformedEventIsDropped(t *testing.T) {
	counter := metrics.EventsConsumed.WithLabelValues(queue.TopicFileDeleted)
	before := counterValue(t, counter)

	msg := message.NewMessage(watermill.NewUUID(), []byte("not json"))
	mq.Handle(queue.TopicFileDeleted, msg)

	select {
	case <-msg.Acked():
	default:
		t.Fatal("malformed message was not acked")
	}

	assert.InDelta(t, before, counterValue(t, counter), 0)
}

func TestStartConsumerWithoutClient(t *testing.T) {
	_, err := mq.StartConsumer(context.Background(), nil, queue.TopicFileUploaded)
	assert.Error(t, err)
}
